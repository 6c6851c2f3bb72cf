package poolopt

import (
	"fmt"
	"math"
)

//////
// Exported functionalities.
//////

// Optimize runs sequential Bayesian optimization over a fixed, finite pool
// of candidates. It seeds the evaluated set with cfg.InitialSamples random
// pool indices, then for exactly cfg.Budget iterations fits a fresh Gaussian
// process surrogate on the evaluated subset, scores the entire pool with the
// acquisition function, and selects the highest-scoring never-before-selected
// index.
//
// Parameters:
//   - cfg: Config controlling the optimization process
//   - features: The candidate pool, one fixed-length feature vector per row
//   - responses: The true scalar response for each pool row. Responses are
//     revealed to the loop only as their indices are selected; the pool must
//     already be deduplicated by the caller.
//
// Returns:
//   - *Result: The evaluated-index set in selection order plus the per-iteration
//     posteriors used to make each selection
//   - error: A configuration error detected before the loop starts, or a fatal
//     numerical failure that aborted the run
//
// Usage example:
//
//	cfg := DefaultConfig()
//	cfg.InitialSamples = 5
//	cfg.Budget = 10
//	cfg.Rand = rand.New(rand.NewSource(42))
//
//	result, err := Optimize(cfg, features, responses)
//	if err != nil {
//	    return err
//	}
//
//	trace := BestTrace(responses, result.Indices)
//
// How it works, per iteration:
//  1. Standardize the evaluated responses with a freshly fitted output scaler
//     (the input scaler is fitted once from the full pool up front and reused,
//     while output scaling drifts as the training set grows)
//  2. Construct and fit a fresh surrogate on the scaled training subset
//  3. Compute the posterior over the entire candidate pool
//  4. Score all candidates with the acquisition function
//  5. Select the arg-max score among indices not yet evaluated; already
//     evaluated indices are excluded outright rather than masked with a
//     finite sentinel score, so re-selection is impossible by construction
//  6. Append the selected index to the evaluated set
//
// The run is strictly sequential: iteration i+1 depends on the training set
// produced at the end of iteration i. Separate runs with separate Configs are
// independent and can proceed concurrently.
//
// Termination: exactly cfg.Budget iterations, no early stopping. A budget
// that would exhaust the pool (InitialSamples+Budget > len(features)) is a
// configuration error reported before the loop starts; exact exhaustion
// (== len(features)) is allowed and selects every remaining index once.
func Optimize(cfg Config, features [][]float64, responses []float64) (*Result, error) {
	if err := validate(cfg, features, responses); err != nil {
		return nil, err
	}

	n := len(features)

	// Input scaling: statistics fitted from the full pool once, reused for
	// the lifetime of the run.
	inputScaler := cfg.InputScaler
	if inputScaler == nil {
		inputScaler = NewStandardScaler()
	}

	scaledPool, err := inputScaler.FitTransform(features)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Seed the evaluated-index set with a random subset, no duplicates.
	indices := append([]int(nil), cfg.Rand.Perm(n)[:cfg.InitialSamples]...)

	evaluated := make(map[int]bool, cfg.InitialSamples+cfg.Budget)
	for _, idx := range indices {
		evaluated[idx] = true
	}

	for i, idx := range indices {
		sendProgress(cfg.ProgressChan, ProgressUpdate{
			Phase:           "InitialSampling",
			Iteration:       i + 1,
			TotalIterations: cfg.InitialSamples,
			SelectedIndex:   idx,
			BestIndex:       indices[argMax(valuesAt(responses, indices[:i+1]))],
			BestResponse:    responses[indices[argMax(valuesAt(responses, indices[:i+1]))]],
		})
	}

	result := &Result{
		Indices:    indices,
		Posteriors: make([]Posterior, 0, cfg.Budget),
	}

	for iter := 0; iter < cfg.Budget; iter++ {
		// Output scaling: refit every iteration from only the currently
		// evaluated responses, so it drifts as the training set grows.
		outScaler := NewStandardScaler()

		yScaled, err := outScaler.FitTransformVec(valuesAt(responses, result.Indices))
		if err != nil {
			return nil, fmt.Errorf("iteration %d: output scaling: %w", iter, err)
		}

		trainX := rowsAt(scaledPool, result.Indices)

		// A fresh surrogate per iteration: hyperparameters are reinitialized
		// and refit from scratch, never warm-started.
		gp := newGaussianProcess(trainX, yScaled, cfg.NoisePriorScale, cfg.Rand)

		if err := gp.Fit(); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}

		// Posterior over the entire pool, evaluated and unevaluated alike.
		means, stds, err := gp.Predict(scaledPool)
		if err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}

		params := cfg.AcqParams
		params.BestSoFar = yScaled[argMax(yScaled)]

		if params.RandomState == nil {
			params.RandomState = cfg.Rand
		}

		// Arg-max of the acquisition score restricted to the complement of
		// the evaluated set. Exclusion is explicit, so the winner is
		// guaranteed unique-and-novel regardless of score magnitudes.
		selected := -1
		bestScore := math.Inf(-1)

		for i := 0; i < n; i++ {
			if evaluated[i] {
				continue
			}

			score := cfg.AcquisitionFunc(means[i], stds[i], params)

			if score > bestScore {
				bestScore = score
				selected = i
			}
		}

		if selected < 0 {
			// Unreachable given up-front validation; kept as a guard.
			return nil, fmt.Errorf("iteration %d: no unevaluated candidates remain", iter)
		}

		result.Indices = append(result.Indices, selected)
		evaluated[selected] = true

		result.Posteriors = append(result.Posteriors, unscalePosterior(outScaler, means, stds))

		bestPos := argMax(valuesAt(responses, result.Indices))

		sendProgress(cfg.ProgressChan, ProgressUpdate{
			Phase:            "Optimization",
			Iteration:        iter + 1,
			TotalIterations:  cfg.Budget,
			SelectedIndex:    selected,
			BestIndex:        result.Indices[bestPos],
			BestResponse:     responses[result.Indices[bestPos]],
			AcquisitionScore: bestScore,
		})
	}

	return result, nil
}

// BestTrace derives the running best-observed response from an evaluated
// index sequence: element i is the maximum response among the first i+1
// selections. The trace is non-decreasing by construction.
func BestTrace(responses []float64, indices []int) []float64 {
	trace := make([]float64, len(indices))

	best := math.Inf(-1)

	for i, idx := range indices {
		if responses[idx] > best {
			best = responses[idx]
		}

		trace[i] = best
	}

	return trace
}

//////
// Helper functions.
//////

// validate applies the full configuration-error taxonomy before the loop
// starts. Nothing here is retried.
func validate(cfg Config, features [][]float64, responses []float64) error {
	if err := checkMatrix(features); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	n := len(features)

	switch {
	case len(responses) != n:
		return fmt.Errorf("%w: %d responses for %d candidates", ErrInvalidConfig, len(responses), n)
	case cfg.Rand == nil:
		return fmt.Errorf("%w: Rand must be a seeded *rand.Rand", ErrInvalidConfig)
	case cfg.AcquisitionFunc == nil:
		return fmt.Errorf("%w: AcquisitionFunc is required", ErrInvalidConfig)
	case cfg.InitialSamples < 1:
		return fmt.Errorf("%w: InitialSamples must be at least 1, got %d", ErrInvalidConfig, cfg.InitialSamples)
	case cfg.Budget < 0:
		return fmt.Errorf("%w: Budget must be non-negative, got %d", ErrInvalidConfig, cfg.Budget)
	case cfg.InitialSamples+cfg.Budget > n:
		return fmt.Errorf("%w: InitialSamples+Budget (%d) exhausts the pool of %d candidates",
			ErrInvalidConfig, cfg.InitialSamples+cfg.Budget, n)
	case math.IsNaN(cfg.AcqParams.Beta) || math.IsInf(cfg.AcqParams.Beta, 0):
		return fmt.Errorf("%w: Beta must be finite", ErrInvalidConfig)
	case cfg.NoisePriorScale <= 0:
		return fmt.Errorf("%w: NoisePriorScale must be positive, got %g", ErrInvalidConfig, cfg.NoisePriorScale)
	}

	return nil
}

// unscalePosterior maps a posterior from standardized response space back to
// the original units for the caller's diagnostics.
func unscalePosterior(outScaler *StandardScaler, means, stds []float64) Posterior {
	rawMeans, _ := outScaler.InverseVec(means)

	scale := outScaler.Scale()[0]

	rawStds := make([]float64, len(stds))
	for i, sd := range stds {
		rawStds[i] = sd * scale
	}

	return Posterior{Mean: rawMeans, Std: rawStds}
}

// rowsAt gathers the rows of a matrix at the given indices. Rows are shared,
// not copied; the surrogate factory deep-copies its own snapshot.
func rowsAt(data [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))

	for i, idx := range indices {
		out[i] = data[idx]
	}

	return out
}

// sendProgress delivers a progress update without blocking the loop. Updates
// are dropped when the channel is full.
func sendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}

	select {
	case ch <- update:
	default:
		// Skip update if channel is full.
	}
}
