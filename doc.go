// Package photonml trains generalized linear models on large datasets
// through mergeable loss aggregation.
//
// The training core is a family of aggregators (gradient, Hessian diagonal,
// full Hessian, Hessian-vector product) that fold labeled points into fixed
// accumulators and merge associatively, so a pass over partitioned data is
// a tree reduction of per-partition partials. Feature normalization is
// folded into the aggregation algebra: aggregators read raw features and
// produce results equivalent to a pass over standardized data, without
// materializing a transformed copy.
//
// Package layout:
//
//   - data: labeled points, datasets, and partitioning
//   - loss: pointwise losses (logistic, squared, Poisson, smoothed hinge)
//   - normalization: affine feature transforms and model-space mapping
//   - aggregate: the fold/merge aggregators and their driver entry points
//   - optimization: objectives, L-BFGS and Newton solvers, variance routing
//   - glm: sklearn-style estimators over the pipeline
//   - preprocessing: standalone feature scalers
//   - metrics: evaluation scores
//
// A minimal training run:
//
//	est := glm.NewLogisticRegression(glm.WithNormalization())
//	if err := est.Fit(X, y); err != nil {
//		log.Fatal(err)
//	}
//	proba, err := est.PredictProba(Xtest)
package photonml
