package parallel

import (
	"math"
	"sync"

	"github.com/mqwu/photon-ml/pkg/errors"
)

// TreeReduce combines a slice of partial results into a single value using a
// balanced multi-level reduction. The combine function must be associative and
// commutative; under that contract the reduction shape changes only the
// floating-point summation order, never the result's meaning.
//
// depth bounds the number of reduction levels. The group width per level is
// chosen as ceil(n^(1/depth)) so that depth levels suffice for n inputs.
// depth == 1 degenerates to a single sequential fold.
func TreeReduce[T any](items []T, depth int, combine func(T, T) (T, error)) (T, error) {
	var zero T
	if depth < 1 {
		return zero, errors.NewValueError("TreeReduce", "depth must be >= 1")
	}
	if len(items) == 0 {
		return zero, errors.WithStack(errors.ErrEmptyData)
	}

	width := groupWidth(len(items), depth)

	current := items
	for len(current) > 1 {
		groups := (len(current) + width - 1) / width
		next := make([]T, groups)
		errs := make([]error, groups)

		var wg sync.WaitGroup
		for g := 0; g < groups; g++ {
			start := g * width
			end := start + width
			if end > len(current) {
				end = len(current)
			}

			wg.Add(1)
			go func(g, start, end int) {
				defer wg.Done()
				acc := current[start]
				var err error
				for i := start + 1; i < end; i++ {
					acc, err = combine(acc, current[i])
					if err != nil {
						errs[g] = err
						return
					}
				}
				next[g] = acc
			}(g, start, end)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return zero, err
			}
		}
		current = next
	}

	return current[0], nil
}

// groupWidth returns the per-level fan-in for n items reduced in at most
// depth levels.
func groupWidth(n, depth int) int {
	if depth == 1 {
		return n
	}
	w := int(math.Ceil(math.Pow(float64(n), 1.0/float64(depth))))
	if w < 2 {
		w = 2
	}
	return w
}
