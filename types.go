package poolopt

import (
	"errors"
	"math"
	"math/rand"
	"time"
)

//////
// Const, vars, types.
//////

// Sentinel errors returned by the optimization loop and the surrogate model.
// Callers can test for them with errors.Is.
var (
	// ErrInvalidConfig indicates that the loop configuration or the candidate
	// pool failed up-front validation. The loop never starts in this case.
	ErrInvalidConfig = errors.New("poolopt: invalid configuration")

	// ErrNotPositiveDefinite indicates that the kernel matrix could not be
	// factorized even after adding diagonal jitter. This is fatal for the
	// iteration that produced it and aborts the run: silently skipping an
	// iteration would break the one-new-index-per-iteration invariant.
	ErrNotPositiveDefinite = errors.New("poolopt: kernel matrix is not positive definite")

	// ErrNotFitted indicates that Predict was called on a surrogate whose
	// Fit method has not completed successfully.
	ErrNotFitted = errors.New("poolopt: surrogate model is not fitted")
)

// Posterior is the Gaussian posterior over the full candidate pool computed
// at one loop iteration, expressed in the original (unscaled) response units.
//
// The loop hands one Posterior per iteration to the caller for diagnostics;
// it is never read back into the loop.
type Posterior struct {
	// Mean holds the predicted response for every candidate, in pool order.
	Mean []float64

	// Std holds the predictive standard deviation for every candidate, in
	// pool order. Values are clamped to a small positive floor, so they are
	// never negative.
	Std []float64
}

// ProgressUpdate represents the current state of the optimization process.
// Updates are sent on Config.ProgressChan if one is provided.
type ProgressUpdate struct {
	// Phase indicates whether we're in initial sampling or optimization phase.
	Phase string

	// Iteration is the current iteration number within the phase (1-based).
	Iteration int

	// TotalIterations is the total number of iterations in the phase.
	TotalIterations int

	// SelectedIndex is the pool index chosen at this step.
	SelectedIndex int

	// BestIndex is the pool index of the best response observed so far.
	BestIndex int

	// BestResponse is the best response observed so far.
	BestResponse float64

	// AcquisitionScore is the winning acquisition score for this step.
	// Zero during the initial sampling phase.
	AcquisitionScore float64
}

// AcquisitionFunc defines the signature for acquisition functions used to
// rank candidates for the next evaluation. Given the posterior mean and
// standard deviation at a candidate (in standardized response space), it
// returns a score where HIGHER values indicate more promising candidates.
//
// Built-in acquisition functions:
// - UCB: Upper Confidence Bound (the default)
// - ProbabilityOfImprovement: Probability of beating the best observation
// - ExpectedImprovement: Expected magnitude of improvement
// - ThompsonSampling: Random draws from the posterior
//
// Implementation notes for custom acquisition functions:
//   - Should handle edge cases (zero stddev, extreme means)
//   - Should be pure: no state, no side effects (ThompsonSampling is the one
//     built-in exception, it draws from params.RandomState)
//   - Must return higher values for more promising points.
type AcquisitionFunc func(mean, std float64, params AcquisitionParams) float64

// AcquisitionParams holds parameters used by the acquisition functions to
// balance exploring uncertain candidates against exploiting known good ones.
type AcquisitionParams struct {
	// Beta controls the exploration-exploitation trade-off in the Upper
	// Confidence Bound (UCB) acquisition function.
	// - Higher values (e.g., 3.0 or 5.0) favor uncertain, unexplored candidates
	// - Beta = 0 degenerates to pure exploitation of the posterior mean
	// Typical values range from 0.1 to 5.0, with 2.0 being a good default.
	Beta float64

	// Xi is an exploration margin used by ProbabilityOfImprovement and
	// ExpectedImprovement. It is the minimum improvement over the current
	// best that counts as progress. Typical values range from 0.01 to 0.1.
	Xi float64

	// BestSoFar is the best standardized response observed so far. It is
	// maintained by the loop; callers only need to set it when invoking an
	// acquisition function directly.
	BestSoFar float64

	// RandomState is the random number generator used by ThompsonSampling.
	// Must be non-nil when ThompsonSampling is the configured acquisition
	// function. The loop wires its own seeded generator in here.
	RandomState *rand.Rand
}

// Config holds all configuration for the sequential optimization loop.
// Every knob is an explicit input; there are no hidden defaults beyond
// DefaultConfig.
//
// Usage example:
//
//	cfg := DefaultConfig()
//	cfg.Budget = 10
//	cfg.InitialSamples = 5
//	cfg.Rand = rand.New(rand.NewSource(42))
//
//	result, err := Optimize(cfg, features, responses)
type Config struct {
	// Budget is the number of selection iterations to run after the initial
	// sample. The loop runs exactly Budget iterations; there is no early
	// stopping. Must satisfy InitialSamples+Budget <= pool size.
	Budget int

	// InitialSamples is the number of pool indices drawn uniformly at random
	// (without replacement) to seed the evaluated set. Must be at least 1.
	InitialSamples int

	// AcquisitionFunc ranks candidates each iteration. See AcquisitionFunc
	// for the built-in options.
	AcquisitionFunc AcquisitionFunc

	// AcqParams holds the parameters for the acquisition function.
	AcqParams AcquisitionParams

	// InputScaler standardizes the pool features once at the start of the
	// run. Defaults to a StandardScaler when nil; set a MinMaxScaler to
	// normalize inputs into [0, 1] instead.
	InputScaler Scaler

	// NoisePriorScale is the scale of the half-normal prior regularizing the
	// surrogate's observation-noise variance. Small values keep inferred
	// noise low and stabilize fitting when training data is scarce.
	NoisePriorScale float64

	// Rand is the seeded source of randomness for the initial sample draw
	// and for the surrogate's hyperparameter restarts. Must be non-nil.
	// Inject a fixed seed for reproducible runs; never rely on package-level
	// generator state.
	Rand *rand.Rand

	// ProgressChan is used to send progress updates during optimization.
	// If nil, no updates will be sent. Sends are non-blocking: updates are
	// dropped when the channel is full.
	ProgressChan chan<- ProgressUpdate
}

// Result is the outcome of an optimization run.
type Result struct {
	// Indices is the full evaluated-index set in selection order: the
	// InitialSamples random seeds followed by Budget acquired indices.
	// Every element is unique and in [0, N).
	Indices []int

	// Posteriors holds, per selection iteration, the posterior over the full
	// pool that drove that iteration's choice. Length equals Budget.
	Posteriors []Posterior
}

//////
// Exported functionalities.
//////

// DefaultConfig returns a default configuration: 20 selection iterations on
// top of 5 initial samples, UCB acquisition with Beta 2.0, and a time-seeded
// random source. Replace Rand with a fixed-seed generator for reproducibility.
func DefaultConfig() Config {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return Config{
		Budget:          20,
		InitialSamples:  5,
		AcquisitionFunc: UCB,
		AcqParams: AcquisitionParams{
			Beta:        2.0,
			Xi:          0.01,
			BestSoFar:   math.Inf(-1),
			RandomState: rng,
		},
		InputScaler:     NewStandardScaler(),
		NoisePriorScale: 0.01,
		Rand:            rng,
		ProgressChan:    nil, // Default to no progress updates.
	}
}
