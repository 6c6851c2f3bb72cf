package poolopt

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Const, vars, types.
//////

const (
	// varianceFloor is the clamp applied to posterior variances. Naive
	// covariance evaluation can yield slightly negative variances from
	// floating-point error; those are expected noise, not model failure.
	varianceFloor = 1e-10

	// baseJitter is the diagonal jitter used while evaluating the marginal
	// likelihood. The final factorization escalates from here (see
	// maxJitter) before giving up.
	baseJitter = 1e-10
	maxJitter  = 1e-4

	// thetaBound rejects hyperparameter vectors the optimizer pushed far
	// enough into log space to overflow exp.
	thetaBound = 30.0

	// fitPenalty is the objective value reported for hyperparameters whose
	// kernel matrix cannot be factorized, steering the optimizer away
	// without feeding it infinities.
	fitPenalty = 1e25

	// fitRestarts is the number of rng-perturbed starting points tried in
	// addition to the prior-informed default start.
	fitRestarts = 2
)

// gaussianProcess is the per-iteration surrogate: a Gaussian process with a
// learnable constant mean, a scaled Matérn 5/2 kernel with one length-scale
// per input dimension, and a Gaussian observation-noise term regularized by
// a half-normal prior.
//
// Lifecycle: Unfit → Fit, terminal. The loop constructs a fresh instance
// from a training-set snapshot every iteration instead of refitting one
// model in place, so no stale hyperparameter state survives a growing
// training set.
type gaussianProcess struct {
	// x holds the (scaled) training inputs, one row per point.
	x [][]float64

	// y holds the (standardized) training outputs, same length as x.
	y []float64

	// noisePriorScale is the scale of the half-normal prior on noiseVar.
	noisePriorScale float64

	// rng seeds the perturbed restarts of the hyperparameter fit.
	rng *rand.Rand

	// Fitted state. Populated by Fit, read-only afterwards.
	fitted bool
	params hyperparams
	chol   mat.Cholesky
	alpha  *mat.VecDense
}

//////
// Methods.
//////

// Fit estimates the hyperparameters by maximizing the exact log marginal
// likelihood of the training outputs, then caches the Cholesky factorization
// used by Predict.
//
// The maximization runs L-BFGS (gradients via central finite differences) in
// log-hyperparameter space from a prior-informed default start plus a few
// rng-perturbed restarts. Non-convergence is recovered locally: whatever the
// optimizer's best point was, it is used. The one fatal condition is a kernel
// matrix that stays non-positive-definite through the jitter ladder; that is
// surfaced as ErrNotPositiveDefinite because the loop cannot silently skip
// an iteration.
//
// Fit succeeds for any training set with at least one point.
func (gp *gaussianProcess) Fit() error {
	if len(gp.x) == 0 {
		return fmt.Errorf("gaussian process: fit requires at least one training point")
	}

	dims := len(gp.x[0])
	start := defaultHyperparams(dims, gp.noisePriorScale).vector()

	// Track the best hyperparameters found so far, seeded with the default
	// start so a failed optimization still leaves a usable model.
	bestTheta := append([]float64(nil), start...)
	bestValue := gp.negLogMarginal(bestTheta)

	problem := optimize.Problem{
		Func: gp.negLogMarginal,
		Grad: func(grad, theta []float64) {
			fd.Gradient(grad, gp.negLogMarginal, theta, nil)
		},
	}

	settings := &optimize.Settings{
		MajorIterations: 100,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-8,
			Iterations: 10,
		},
	}

	for attempt := 0; attempt <= fitRestarts; attempt++ {
		theta := append([]float64(nil), start...)

		// Restarts perturb every coordinate; attempt 0 is the default start.
		if attempt > 0 {
			for i := range theta {
				theta[i] += gp.rng.NormFloat64() * 0.3
			}
		}

		// A non-nil error here means the optimizer hit its budget or its
		// line search stalled; the result still carries the best point it
		// reached, which is all we need.
		result, _ := optimize.Minimize(problem, theta, settings, &optimize.LBFGS{})
		if result == nil || len(result.X) != len(theta) {
			continue
		}

		if !math.IsNaN(result.F) && result.F < bestValue {
			bestValue = result.F

			copy(bestTheta, result.X)
		}
	}

	gp.params = hyperparamsFromVector(bestTheta, dims)

	return gp.factorize()
}

// Predict returns the Gaussian posterior (mean, standard deviation) at each
// query point via the closed-form conditioning formula. It is read-only:
// calling it twice with identical inputs yields identical results, and it
// never mutates the fitted state. Negative variances from floating-point
// error are clamped to a small positive floor, so no returned standard
// deviation is ever negative.
func (gp *gaussianProcess) Predict(queries [][]float64) (means, stds []float64, err error) {
	if !gp.fitted {
		return nil, nil, ErrNotFitted
	}

	n := len(gp.x)
	means = make([]float64, len(queries))
	stds = make([]float64, len(queries))

	kStar := mat.NewVecDense(n, nil)
	w := mat.NewVecDense(n, nil)

	for q, query := range queries {
		for i, xi := range gp.x {
			kStar.SetVec(i, gp.params.covariance(query, xi))
		}

		means[q] = gp.params.mean + mat.Dot(kStar, gp.alpha)

		if err := gp.chol.SolveVecTo(w, kStar); err != nil {
			return nil, nil, fmt.Errorf("gaussian process: posterior solve: %w", err)
		}

		variance := gp.params.covariance(query, query) - mat.Dot(kStar, w)
		if variance < varianceFloor {
			variance = varianceFloor
		}

		stds[q] = math.Sqrt(variance)
	}

	return means, stds, nil
}

// negLogMarginal evaluates the negative log marginal likelihood of the
// training outputs at the packed hyperparameters theta, plus the negative
// log density of the half-normal noise prior. Hyperparameters whose kernel
// matrix is not factorizable score a large finite penalty.
func (gp *gaussianProcess) negLogMarginal(theta []float64) float64 {
	for _, t := range theta {
		if math.IsNaN(t) || math.Abs(t) > thetaBound {
			return fitPenalty
		}
	}

	n := len(gp.x)
	p := hyperparamsFromVector(theta, len(gp.x[0]))

	k := gp.kernelMatrix(p, baseJitter)

	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return fitPenalty
	}

	resid := mat.NewVecDense(n, nil)
	for i, yi := range gp.y {
		resid.SetVec(i, yi-p.mean)
	}

	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, resid); err != nil {
		return fitPenalty
	}

	nll := 0.5*mat.Dot(resid, alpha) +
		0.5*chol.LogDet() +
		0.5*float64(n)*math.Log(2.0*math.Pi)

	// Half-normal prior on the noise variance: the folded Normal at zero,
	// log p(v) = log 2 + logNormal(v; 0, scale).
	prior := distuv.Normal{Mu: 0, Sigma: gp.noisePriorScale}
	nll -= math.Ln2 + prior.LogProb(p.noiseVar)

	return nll
}

// factorize builds the kernel matrix at the fitted hyperparameters and
// caches its Cholesky factorization and the alpha vector used by Predict.
// The diagonal jitter escalates until factorization succeeds or maxJitter
// is exceeded, which is the fatal non-positive-definite condition.
func (gp *gaussianProcess) factorize() error {
	n := len(gp.x)

	for jitter := baseJitter; jitter <= maxJitter; jitter *= 100 {
		k := gp.kernelMatrix(gp.params, jitter)

		var chol mat.Cholesky
		if ok := chol.Factorize(k); !ok {
			continue
		}

		resid := mat.NewVecDense(n, nil)
		for i, yi := range gp.y {
			resid.SetVec(i, yi-gp.params.mean)
		}

		alpha := mat.NewVecDense(n, nil)
		if err := chol.SolveVecTo(alpha, resid); err != nil {
			continue
		}

		gp.chol = chol
		gp.alpha = alpha
		gp.fitted = true

		return nil
	}

	return fmt.Errorf("%w: %d training points, jitter up to %g", ErrNotPositiveDefinite, n, maxJitter)
}

// kernelMatrix assembles K(X, X) + (noiseVar + jitter) * I as a symmetric
// dense matrix.
func (gp *gaussianProcess) kernelMatrix(p hyperparams, jitter float64) *mat.SymDense {
	n := len(gp.x)
	k := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := p.covariance(gp.x[i], gp.x[j])

			if i == j {
				v += p.noiseVar + jitter
			}

			k.SetSym(i, j, v)
		}
	}

	return k
}

//////
// Factory.
//////

// newGaussianProcess creates an unfitted surrogate from a snapshot of the
// (scaled) training inputs and (standardized) training outputs. Inputs are
// deep-copied so later pool mutations cannot reach into the model.
func newGaussianProcess(x [][]float64, y []float64, noisePriorScale float64, rng *rand.Rand) *gaussianProcess {
	return &gaussianProcess{
		x:               copyMatrix(x),
		y:               append([]float64(nil), y...),
		noisePriorScale: noisePriorScale,
		rng:             rng,
	}
}
