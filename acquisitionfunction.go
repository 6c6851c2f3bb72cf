package poolopt

//////
// Available acquisition functions for the sequential acquisition loop.
// Each function ranks candidates for the next evaluation by balancing
// exploration (uncertain areas) and exploitation (known good areas).
// All of them score in standardized response space and return higher
// values for more promising candidates.
//////

// UCB implements the Upper Confidence Bound acquisition function.
//
// How it works:
// - Combines the predicted mean with the predictive standard deviation
// - Higher values are better (we're maximizing the response)
// - Beta controls the trade-off between exploration and exploitation
//
// Parameters:
// - mean: Posterior mean at this candidate
// - std: Posterior standard deviation at this candidate
// - params.Beta: Exploration weight (higher = more exploration)
//
// When to use:
// - General purpose, works well in most cases; this is the default
// - When you want direct control over exploration-exploitation trade-off
//
// Example:
//
//	params := AcquisitionParams{
//	    Beta: 2.0, // Balance between exploration and exploitation
//	}
//	score := UCB(0.5, 0.2, params)
func UCB(mean, std float64, params AcquisitionParams) float64 {
	return mean + params.Beta*std
}

// ProbabilityOfImprovement (PI) calculates the probability that a candidate
// will improve upon the current best observed response.
//
// How it works:
// - Estimates the probability of beating the best observation so far
// - Uses a normal distribution assumption
// - Xi adds a minimum improvement requirement
//
// Parameters:
// - mean: Posterior mean at this candidate
// - std: Posterior standard deviation at this candidate
// - params.BestSoFar: Best standardized response observed so far
// - params.Xi: Minimum improvement desired
//
// When to use:
// - When you want to be conservative in exploring new candidates
// - When being "probably better" matters more than "how much better"
func ProbabilityOfImprovement(mean, std float64, params AcquisitionParams) float64 {
	if std <= 0 {
		return 0
	}

	z := (mean - params.BestSoFar - params.Xi) / std

	return normalCDF(z)
}

// ExpectedImprovement (EI) calculates the expected magnitude of the
// improvement over the current best observed response.
//
// How it works:
// - Combines the probability of improvement with its expected size
// - Often explores better than PI
//
// Parameters:
// - mean: Posterior mean at this candidate
// - std: Posterior standard deviation at this candidate
// - params.BestSoFar: Best standardized response observed so far
// - params.Xi: Minimum improvement desired
//
// When to use:
// - When the magnitude of improvement matters, not just its probability
func ExpectedImprovement(mean, std float64, params AcquisitionParams) float64 {
	if std <= 0 {
		return 0
	}

	improvement := mean - params.BestSoFar - params.Xi
	z := improvement / std

	return improvement*normalCDF(z) + std*normalPDF(z)
}

// ThompsonSampling scores a candidate by drawing one random sample from its
// posterior.
//
// How it works:
// - Samples from our belief about the response at the candidate
// - Naturally balances exploration and exploitation through randomness
//
// Parameters:
// - mean: Posterior mean at this candidate
// - std: Posterior standard deviation at this candidate
// - params.RandomState: Random number generator (required!)
//
// Warning:
// - Always initialize RandomState before using this function
// - Do not share RandomState between different optimization runs.
func ThompsonSampling(mean, std float64, params AcquisitionParams) float64 {
	return mean + std*params.RandomState.NormFloat64()
}
