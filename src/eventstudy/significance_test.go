package eventstudy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

func TestComputeBands(t *testing.T) {
	var paths [][]float64
	for v := 1; v <= 10; v++ {
		paths = append(paths, []float64{float64(v)})
	}

	bands, err := computeBands([]int{0}, []float64{9}, paths, 0.5)
	require.NoError(t, err)
	require.Len(t, bands, 1)

	b := bands[0]
	assert.Equal(t, 0, b.Period)
	assert.Equal(t, 9.0, b.Observed)
	assert.Equal(t, 3.0, b.Lower)
	assert.Equal(t, 8.0, b.Upper)
	assert.InDelta(t, 5.5, b.Median, 1e-12)
	assert.InDelta(t, 0.4, b.PValue, 1e-12)
}

func TestTwoSidedPValue(t *testing.T) {
	sample := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	t.Run("centre of the sample", func(t *testing.T) {
		assert.Equal(t, 1.0, twoSidedPValue(sample, 5.5))
	})

	t.Run("beyond the sample", func(t *testing.T) {
		assert.Equal(t, 0.0, twoSidedPValue(sample, 11))
		assert.Equal(t, 0.0, twoSidedPValue(sample, -1))
	})

	t.Run("upper tail", func(t *testing.T) {
		assert.InDelta(t, 0.2, twoSidedPValue(sample, 10), 1e-12)
	})
}

func TestRunBootstrapTest(t *testing.T) {
	s := rampStudy(t, 80, eventmodels.Window{Start: -2, End: 3}, 1, 25, 55)

	opts := BootstrapOptions{
		RunID:        "test",
		Replications: 24,
		BlockSize:    4,
		Confidence:   0.9,
		Seed:         42,
		Cumulative:   true,
	}

	t.Run("bands cover every period", func(t *testing.T) {
		opts := opts
		opts.Workers = 1

		result, err := RunBootstrapTest(context.Background(), s, opts)
		require.NoError(t, err)

		periods, observed := s.MeanPath(true)
		assert.Equal(t, 24, result.Replications)
		assert.Equal(t, observed, result.Observed)
		require.Len(t, result.Bands, len(periods))

		for i, b := range result.Bands {
			assert.Equal(t, periods[i], b.Period)
			assert.LessOrEqual(t, b.Lower, b.Median)
			assert.LessOrEqual(t, b.Median, b.Upper)
			assert.GreaterOrEqual(t, b.PValue, 0.0)
			assert.LessOrEqual(t, b.PValue, 1.0)
		}
	})

	t.Run("results do not depend on workers", func(t *testing.T) {
		serial := opts
		serial.Workers = 1

		parallel := opts
		parallel.Workers = 6

		a, err := RunBootstrapTest(context.Background(), s, serial)
		require.NoError(t, err)

		b, err := RunBootstrapTest(context.Background(), s, parallel)
		require.NoError(t, err)

		assert.Equal(t, a.Bands, b.Bands)
	})

	t.Run("invalid options", func(t *testing.T) {
		bad := opts
		bad.Confidence = 1

		_, err := RunBootstrapTest(context.Background(), s, bad)
		assert.ErrorIs(t, err, eventmodels.InvalidConfidenceErr)

		bad = opts
		bad.Replications = 0

		_, err = RunBootstrapTest(context.Background(), s, bad)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := RunBootstrapTest(ctx, s, opts)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
