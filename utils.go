package poolopt

import (
	"math"

	"golang.org/x/exp/constraints"
)

//////
// Helper functions.
//////

// Helper function used by PI and EI to compute the cumulative distribution
// function of the standard normal distribution.
//
// Returns:
// - Probability that a standard normal random variable is less than x.
func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// Helper function used by EI to compute the probability density function
// of the standard normal distribution.
//
// Returns:
// - Value of the standard normal PDF at x.
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
}

// argMax returns the index of the largest element in vals, or -1 for an
// empty slice. Ties resolve to the first occurrence, which keeps selection
// deterministic for a given posterior.
func argMax[T constraints.Ordered](vals []T) int {
	if len(vals) == 0 {
		return -1
	}

	best := 0

	for i := 1; i < len(vals); i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}

	return best
}

// valuesAt gathers the elements of vals at the given indices into a new
// slice, preserving index order.
func valuesAt(vals []float64, indices []int) []float64 {
	out := make([]float64, len(indices))

	for i, idx := range indices {
		out[i] = vals[idx]
	}

	return out
}

// copyMatrix deep-copies a row-major matrix so transforms never mutate
// caller-owned data.
func copyMatrix(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))

	for i, row := range data {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}

	return out
}

// column extracts column j of a row-major matrix into a new slice.
func column(data [][]float64, j int) []float64 {
	col := make([]float64, len(data))

	for i, row := range data {
		col[i] = row[j]
	}

	return col
}
