package poolopt

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smoothPool builds a pool of n distinct 2-D points on a grid with a known
// smooth response, peaked inside the grid.
func smoothPool(n int) (features [][]float64, responses []float64) {
	features = make([][]float64, n)
	responses = make([]float64, n)

	for i := 0; i < n; i++ {
		x := float64(i%5) / 4.0
		y := float64(i/5) / 4.0

		features[i] = []float64{x, y}
		responses[i] = -(x-0.3)*(x-0.3) - (y-0.7)*(y-0.7)
	}

	return features, responses
}

func testConfig(seed int64) Config {
	cfg := DefaultConfig()
	cfg.Rand = rand.New(rand.NewSource(seed))
	cfg.AcqParams.RandomState = cfg.Rand

	return cfg
}

func TestOptimizeSmoothPool(t *testing.T) {
	features, responses := smoothPool(20)

	cfg := testConfig(42)
	cfg.InitialSamples = 5
	cfg.Budget = 5
	cfg.AcqParams.Beta = 2.0

	result, err := Optimize(cfg, features, responses)
	require.NoError(t, err)

	// Exactly InitialSamples+Budget evaluations, all unique and in range.
	require.Len(t, result.Indices, 10)

	seen := make(map[int]bool)
	for _, idx := range result.Indices {
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 20)
		assert.False(t, seen[idx], "index %d selected twice", idx)

		seen[idx] = true
	}

	// One posterior per selection iteration, covering the whole pool.
	require.Len(t, result.Posteriors, 5)

	for _, post := range result.Posteriors {
		require.Len(t, post.Mean, 20)
		require.Len(t, post.Std, 20)

		for _, sd := range post.Std {
			assert.GreaterOrEqual(t, sd, 0.0)
		}
	}

	// The best-observed trace is non-decreasing by construction.
	trace := BestTrace(responses, result.Indices)
	for i := 1; i < len(trace); i++ {
		assert.GreaterOrEqual(t, trace[i], trace[i-1])
	}
}

func TestOptimizeConstantResponses(t *testing.T) {
	// Degenerate pool: every response equals the same constant. The fitted
	// surrogate's predictions should sit at that constant, so candidates can
	// differ only through uncertainty, not predicted mean.
	features, _ := smoothPool(15)

	responses := make([]float64, 15)
	for i := range responses {
		responses[i] = 3.5
	}

	cfg := testConfig(7)
	cfg.InitialSamples = 4
	cfg.Budget = 3

	result, err := Optimize(cfg, features, responses)
	require.NoError(t, err)

	for _, post := range result.Posteriors {
		lo, hi := math.Inf(1), math.Inf(-1)

		for _, m := range post.Mean {
			assert.InDelta(t, 3.5, m, 1e-6)

			lo = math.Min(lo, m)
			hi = math.Max(hi, m)
		}

		// Predicted means are flat across the pool.
		assert.Less(t, hi-lo, 1e-6)
	}
}

func TestOptimizeExhaustsPool(t *testing.T) {
	// InitialSamples+Budget equal to the pool size: the loop must select
	// every remaining index
	// exactly once and survive the final iteration with a single unmasked
	// candidate.
	features, responses := smoothPool(8)

	cfg := testConfig(3)
	cfg.InitialSamples = 3
	cfg.Budget = 5

	result, err := Optimize(cfg, features, responses)
	require.NoError(t, err)

	require.Len(t, result.Indices, 8)

	sorted := append([]int(nil), result.Indices...)
	sort.Ints(sorted)

	for i, idx := range sorted {
		assert.Equal(t, i, idx)
	}
}

func TestOptimizeSingleCandidate(t *testing.T) {
	// One candidate, one initial sample, zero budget: no selection
	// iterations, just the seed.
	cfg := testConfig(9)
	cfg.InitialSamples = 1
	cfg.Budget = 0

	result, err := Optimize(cfg, [][]float64{{1.0, 2.0}}, []float64{5.0})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, result.Indices)
	assert.Empty(t, result.Posteriors)
}

func TestOptimizeWithMinMaxInputScaler(t *testing.T) {
	features, responses := smoothPool(15)

	cfg := testConfig(21)
	cfg.InitialSamples = 4
	cfg.Budget = 4
	cfg.InputScaler = NewMinMaxScaler()

	result, err := Optimize(cfg, features, responses)
	require.NoError(t, err)

	require.Len(t, result.Indices, 8)

	seen := make(map[int]bool)
	for _, idx := range result.Indices {
		assert.False(t, seen[idx])

		seen[idx] = true
	}
}

func TestOptimizeReproducibleWithSeed(t *testing.T) {
	features, responses := smoothPool(20)

	run := func() []int {
		cfg := testConfig(123)
		cfg.InitialSamples = 4
		cfg.Budget = 4

		result, err := Optimize(cfg, features, responses)
		require.NoError(t, err)

		return result.Indices
	}

	assert.Equal(t, run(), run())
}

func TestOptimizeConfigErrors(t *testing.T) {
	features, responses := smoothPool(10)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero initial samples", func(c *Config) { c.InitialSamples = 0 }},
		{"negative budget", func(c *Config) { c.Budget = -1 }},
		{"pool exhaustion", func(c *Config) { c.InitialSamples = 6; c.Budget = 5 }},
		{"nil rand", func(c *Config) { c.Rand = nil }},
		{"nil acquisition", func(c *Config) { c.AcquisitionFunc = nil }},
		{"non-finite beta", func(c *Config) { c.AcqParams.Beta = math.NaN() }},
		{"non-positive noise prior", func(c *Config) { c.NoisePriorScale = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(1)
			cfg.InitialSamples = 3
			cfg.Budget = 3

			tc.mutate(&cfg)

			_, err := Optimize(cfg, features, responses)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestOptimizeResponseCountMismatch(t *testing.T) {
	features, responses := smoothPool(10)

	cfg := testConfig(1)
	cfg.InitialSamples = 2
	cfg.Budget = 2

	_, err := Optimize(cfg, features, responses[:9])
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestOptimizeProgressChannel(t *testing.T) {
	features, responses := smoothPool(12)

	cfg := testConfig(5)
	cfg.InitialSamples = 3
	cfg.Budget = 4

	// Buffer sized for every update so none are dropped.
	progressChan := make(chan ProgressUpdate, cfg.InitialSamples+cfg.Budget)
	cfg.ProgressChan = progressChan

	_, err := Optimize(cfg, features, responses)
	require.NoError(t, err)

	close(progressChan)

	var sampling, optimizing int

	for update := range progressChan {
		switch update.Phase {
		case "InitialSampling":
			sampling++
		case "Optimization":
			optimizing++
		}
	}

	assert.Equal(t, cfg.InitialSamples, sampling)
	assert.Equal(t, cfg.Budget, optimizing)
}

func TestBestTrace(t *testing.T) {
	responses := []float64{1.0, 5.0, 3.0, 7.0}

	trace := BestTrace(responses, []int{0, 2, 1, 3})

	assert.Equal(t, []float64{1.0, 3.0, 5.0, 7.0}, trace)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, -1, argMax([]float64{}))
	assert.Equal(t, 2, argMax([]float64{1.0, 3.0, 5.0, 2.0}))

	// Ties resolve to the first occurrence.
	assert.Equal(t, 0, argMax([]int{9, 9, 1}))
}
