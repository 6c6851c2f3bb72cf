package poolopt

import "math"

//////
// Const, vars, types.
//////

// hyperparams holds one iteration's surrogate hyperparameters: a learnable
// constant mean, one Matérn length-scale per input dimension (automatic
// relevance determination), a positive output-scale, and the observation
// noise variance. A fresh set is initialized and fitted from scratch every
// loop iteration; nothing is warm-started across iterations.
type hyperparams struct {
	// mean is the constant mean of the Gaussian process prior.
	mean float64

	// lengthScales has one positive entry per input dimension.
	lengthScales []float64

	// outputVar is the kernel output-scale (signal variance).
	outputVar float64

	// noiseVar is the Gaussian observation-noise variance.
	noiseVar float64
}

//////
// Methods.
//////

// covariance evaluates the scaled Matérn kernel with smoothness 5/2 between
// two points:
//
//	k(x, x') = outputVar * (1 + sqrt(5)*r + 5*r^2/3) * exp(-sqrt(5)*r)
//
// where r is the Euclidean distance after dividing each dimension by its
// length-scale. Inputs must have the same length as lengthScales.
func (p hyperparams) covariance(x1, x2 []float64) float64 {
	var r2 float64

	for d := range x1 {
		diff := (x1[d] - x2[d]) / p.lengthScales[d]

		r2 += diff * diff
	}

	r := math.Sqrt(r2)
	sqrt5r := math.Sqrt(5.0) * r

	return p.outputVar * (1.0 + sqrt5r + 5.0*r2/3.0) * math.Exp(-sqrt5r)
}

// vector packs the hyperparameters for the marginal-likelihood optimizer.
// Positive quantities travel in log space so the optimizer search is
// unconstrained: [mean, log lengthScales..., log outputVar, log noiseVar].
func (p hyperparams) vector() []float64 {
	dims := len(p.lengthScales)

	theta := make([]float64, dims+3)
	theta[0] = p.mean

	for d, l := range p.lengthScales {
		theta[1+d] = math.Log(l)
	}

	theta[dims+1] = math.Log(p.outputVar)
	theta[dims+2] = math.Log(p.noiseVar)

	return theta
}

//////
// Helper functions.
//////

// hyperparamsFromVector is the inverse of vector.
func hyperparamsFromVector(theta []float64, dims int) hyperparams {
	p := hyperparams{
		mean:         theta[0],
		lengthScales: make([]float64, dims),
		outputVar:    math.Exp(theta[dims+1]),
		noiseVar:     math.Exp(theta[dims+2]),
	}

	for d := 0; d < dims; d++ {
		p.lengthScales[d] = math.Exp(theta[1+d])
	}

	return p
}

// defaultHyperparams is the prior-informed starting point for the fit: unit
// length-scales and output-scale (inputs and outputs are standardized before
// fitting), zero mean, and noise at the half-normal prior scale.
func defaultHyperparams(dims int, noisePriorScale float64) hyperparams {
	p := hyperparams{
		mean:         0,
		lengthScales: make([]float64, dims),
		outputVar:    1.0,
		noiseVar:     noisePriorScale,
	}

	for d := range p.lengthScales {
		p.lengthScales[d] = 1.0
	}

	return p
}
