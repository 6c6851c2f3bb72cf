// Package poolopt provides sequential (active-learning) optimization of an
// expensive black-box function over a fixed, finite pool of candidates,
// using a Gaussian Process surrogate to decide which candidate to evaluate
// next. It is built for settings like experimental design (material
// formulations, process parameters) where each true evaluation is a
// physical experiment and queries must be spent carefully.
//
// # Features
//
// The package includes the following key features:
//
//   - Gaussian Process Surrogate: constant learnable mean, scaled Matérn 5/2
//     kernel with one length-scale per input dimension (automatic relevance
//     determination), and a noise model regularized by a half-normal prior
//   - Exact Hyperparameter Fitting: maximum marginal likelihood via L-BFGS
//     with multi-start, robust down to a single training point
//   - Multiple Acquisition Functions: Upper Confidence Bound (UCB),
//     Probability of Improvement (PI), Expected Improvement (EI), and
//     Thompson Sampling
//   - No-Repeat Selection: already-evaluated pool indices are excluded from
//     the arg-max outright, never masked with a sentinel score
//   - Reproducible Runs: a single injected random source drives the initial
//     sample and the hyperparameter restarts
//   - Progress Monitoring: per-step updates on an optional channel
//
// # Quick start
//
//	cfg := poolopt.DefaultConfig()
//	cfg.InitialSamples = 5
//	cfg.Budget = 10
//	cfg.Rand = rand.New(rand.NewSource(42))
//
//	result, err := poolopt.Optimize(cfg, features, responses)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	trace := poolopt.BestTrace(responses, result.Indices)
//	fmt.Println("best found:", trace[len(trace)-1])
//
// The pool is an immutable ordered sequence: features is one fixed-length
// vector per candidate, responses the matching true scalar outcomes. The
// loop only "reveals" a response to itself once its index is selected, so
// the same API serves offline benchmarking of acquisition strategies.
//
// # Acquisition functions
//
// UCB is the default: score = mean + Beta*stddev, with Beta trading off
// exploration against exploitation (Beta = 0 is pure exploitation). PI and
// EI use AcqParams.Xi as a minimum-improvement margin; Thompson Sampling
// draws from AcqParams.RandomState. All four share the AcquisitionFunc
// signature, so custom strategies plug in the same way.
//
// # Scaling
//
// Inputs are standardized once from the full pool; responses are
// re-standardized every iteration from only the evaluated subset, so output
// scaling drifts as the training set grows. A min-max normalizer is
// available as an alternative input transform with the same contract.
//
// # Error handling
//
// Configuration problems (bad budgets, pool exhaustion, non-finite Beta)
// are reported before the loop starts and wrap ErrInvalidConfig. A kernel
// matrix that is not positive definite even after diagonal jitter aborts
// the run with ErrNotPositiveDefinite. Optimizer non-convergence and
// slightly negative posterior variances are absorbed internally: the best
// hyperparameters found are used, and variances are clamped to a small
// positive floor.
//
// # Concurrency
//
// A run is strictly sequential: each iteration's model depends
// on the training set produced by the previous one. Separate runs with
// separate Configs share no state and may proceed concurrently.
package poolopt
