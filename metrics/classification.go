package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mqwu/photon-ml/pkg/errors"
)

// Accuracy computes the fraction of exact label matches.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("metrics.Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("metrics.Accuracy", n, yPred.Len())
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// LogLoss computes the mean negative log likelihood of binary labels under
// predicted probabilities, with probabilities clipped away from 0 and 1.
func LogLoss(yTrue, yProba *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("metrics.LogLoss", "empty vector")
	}
	if yProba.Len() != n {
		return 0, errors.NewDimensionError("metrics.LogLoss", n, yProba.Len())
	}

	const clip = 1e-15
	var sum float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("metrics.LogLoss", "labels must be 0 or 1")
		}
		p := math.Min(math.Max(yProba.AtVec(i), clip), 1-clip)
		if y == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// AUC computes the area under the ROC curve by the rank statistic, with
// ties averaged. Degenerate single-class inputs score 0.5.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("metrics.AUC", "empty vector")
	}
	if yScore.Len() != n {
		return 0, errors.NewDimensionError("metrics.AUC", n, yScore.Len())
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	// Average ranks across tied scores.
	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && yScore.AtVec(idx[j]) == yScore.AtVec(idx[i]) {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	var positives, rankSum float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("metrics.AUC", "labels must be 0 or 1")
		}
		if y == 1 {
			positives++
			rankSum += ranks[i]
		}
	}
	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return 0.5, nil
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives), nil
}
