package poolopt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fitTestGP builds and fits a surrogate on a small standardized 2-D training
// set. Tests share it to keep fitting time down.
func fitTestGP(t *testing.T, x [][]float64, y []float64) *gaussianProcess {
	t.Helper()

	gp := newGaussianProcess(x, y, 0.01, rand.New(rand.NewSource(1)))

	require.NoError(t, gp.Fit())

	return gp
}

func TestFitSinglePoint(t *testing.T) {
	// Fitting must succeed with as little as one training point.
	gp := fitTestGP(t, [][]float64{{0.0, 0.0}}, []float64{0.0})

	means, stds, err := gp.Predict([][]float64{{0.0, 0.0}, {2.0, -2.0}})
	require.NoError(t, err)

	require.Len(t, means, 2)
	require.Len(t, stds, 2)

	for i := range stds {
		assert.GreaterOrEqual(t, stds[i], 0.0)
	}
}

func TestPredictBeforeFit(t *testing.T) {
	gp := newGaussianProcess([][]float64{{0.0}}, []float64{0.0}, 0.01, rand.New(rand.NewSource(1)))

	_, _, err := gp.Predict([][]float64{{0.0}})
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestPredictIdempotent(t *testing.T) {
	gp := fitTestGP(t,
		[][]float64{{-1.0, -1.0}, {0.0, 0.5}, {1.0, 1.0}},
		[]float64{-0.8, 0.1, 0.9},
	)

	queries := [][]float64{{-0.5, 0.0}, {0.7, 0.7}, {2.0, -1.0}}

	mean1, std1, err := gp.Predict(queries)
	require.NoError(t, err)

	mean2, std2, err := gp.Predict(queries)
	require.NoError(t, err)

	// Predict is read-only: identical inputs, identical posterior.
	assert.Equal(t, mean1, mean2)
	assert.Equal(t, std1, std2)
}

func TestPredictNoNegativeStd(t *testing.T) {
	gp := fitTestGP(t,
		[][]float64{{-1.2, 0.3}, {-0.4, -0.9}, {0.1, 1.1}, {0.8, -0.2}, {1.3, 0.6}},
		[]float64{-1.1, -0.3, 0.2, 0.7, 1.2},
	)

	rng := rand.New(rand.NewSource(3))

	queries := make([][]float64, 50)
	for i := range queries {
		queries[i] = []float64{rng.NormFloat64() * 2, rng.NormFloat64() * 2}
	}

	_, stds, err := gp.Predict(queries)
	require.NoError(t, err)

	for i, sd := range stds {
		assert.GreaterOrEqual(t, sd, 0.0, "query %d", i)
	}
}

func TestUncertaintyGrowsAwayFromTraining(t *testing.T) {
	gp := fitTestGP(t,
		[][]float64{{-1.0, 0.0}, {0.0, 0.0}, {1.0, 0.0}},
		[]float64{-0.5, 0.0, 0.5},
	)

	_, stds, err := gp.Predict([][]float64{
		{0.0, 0.0},  // on a training point
		{10.0, 0.0}, // far from every training point
	})
	require.NoError(t, err)

	assert.Less(t, stds[0], stds[1])
}

func TestConstantOutputsFitMeanNearConstant(t *testing.T) {
	// With every training output equal, the learnable mean constant should
	// settle near that value and predictions should follow it everywhere.
	gp := fitTestGP(t,
		[][]float64{{-1.0, -1.0}, {0.0, 0.0}, {1.0, 1.0}, {-1.0, 1.0}},
		[]float64{0.0, 0.0, 0.0, 0.0},
	)

	means, _, err := gp.Predict([][]float64{{0.5, 0.5}, {5.0, -5.0}})
	require.NoError(t, err)

	for _, m := range means {
		assert.InDelta(t, 0.0, m, 0.2)
	}
}
