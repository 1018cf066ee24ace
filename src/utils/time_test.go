package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)

	t.Run("floor follows the local wall clock", func(t *testing.T) {
		ts := time.Date(2020, time.March, 16, 9, 7, 30, 0, zurich)
		assert.Equal(t, time.Date(2020, time.March, 16, 9, 0, 0, 0, zurich), FloorTime(ts, 15*time.Minute))
	})

	t.Run("ceil leaves aligned times alone", func(t *testing.T) {
		aligned := time.Date(2020, time.March, 16, 9, 15, 0, 0, zurich)
		assert.Equal(t, aligned, CeilTime(aligned, 15*time.Minute))
		assert.Equal(t, aligned, CeilTime(aligned.Add(-time.Minute), 15*time.Minute))
	})

	t.Run("period end of a bar start", func(t *testing.T) {
		start := time.Date(2020, time.March, 16, 9, 0, 0, 0, zurich)
		assert.Equal(t, start.Add(15*time.Minute), PeriodEnd(start, 15*time.Minute))
		assert.Equal(t, start.Add(15*time.Minute), PeriodEnd(start.Add(14*time.Minute), 15*time.Minute))
	})

	t.Run("min and max", func(t *testing.T) {
		a := time.Date(2020, time.March, 16, 9, 0, 0, 0, time.UTC)
		b := a.Add(time.Hour)
		assert.Equal(t, a, GetMinTime(b, a))
		assert.Equal(t, b, GetMaxTime(a, b))
	})
}

func TestConversion(t *testing.T) {
	t.Run("atoi slice", func(t *testing.T) {
		vals, err := AtoiSlice("-4, 8")
		require.NoError(t, err)
		assert.Equal(t, []int{-4, 8}, vals)

		_, err = AtoiSlice("a,1")
		assert.Error(t, err)
	})

	t.Run("currencies", func(t *testing.T) {
		assert.Equal(t, []string{"aud", "cad"}, ParseCurrencies("AUD, cad,,"))
		assert.Nil(t, ParseCurrencies(""))
	})

	t.Run("float cells", func(t *testing.T) {
		v, ok := ParseFloatCell(" 1.25 ")
		assert.True(t, ok)
		assert.Equal(t, 1.25, v)

		_, ok = ParseFloatCell("#N/A N/A")
		assert.False(t, ok)

		_, ok = ParseFloatCell("")
		assert.False(t, ok)
	})
}

func TestHashFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	h1, err := HashFiles(path)
	require.NoError(t, err)

	h2, err := HashFiles(path)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	require.NoError(t, os.WriteFile(path, []byte("y"), 0o644))
	h3, err := HashFiles(path)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)

	_, err = HashFiles(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("FX_STUDY_TEST_VAR", "value")

	v, err := GetEnv("FX_STUDY_TEST_VAR")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = GetEnv("FX_STUDY_TEST_UNSET")
	assert.Error(t, err)

	assert.Equal(t, "fallback", GetEnvOrDefault("FX_STUDY_TEST_UNSET", "fallback"))
}
