package datafeed

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

func zurich(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)
	return loc
}

func utc(hour, min int) time.Time {
	return time.Date(2020, time.March, 16, hour, min, 0, 0, time.UTC)
}

func TestQuotes(t *testing.T) {
	loc := zurich(t)

	t.Run("flip indirect quotes", func(t *testing.T) {
		p := eventmodels.PanelFromObservations([]eventmodels.Observation{
			{Time: utc(9, 0), Column: "jpy", Value: 100},
			{Time: utc(9, 0), Column: "eur", Value: 1.1},
		})

		out := FlipIndirectQuotes(p, map[string]bool{"jpy": true})

		assert.InDelta(t, 0.01, out.At(utc(9, 0), "jpy"), 1e-12)
		assert.Equal(t, 1.1, out.At(utc(9, 0), "eur"))
		assert.Equal(t, 100.0, p.At(utc(9, 0), "jpy"))
	})

	t.Run("stamp period end in zurich time", func(t *testing.T) {
		p := eventmodels.PanelFromObservations([]eventmodels.Observation{
			{Time: utc(9, 0), Column: "eur", Value: 1},
		})

		out := StampPeriodEnd(p, BarInterval, loc)

		require.Equal(t, 1, out.Len())
		assert.True(t, out.Index[0].Equal(time.Date(2020, time.March, 16, 10, 15, 0, 0, loc)))
		assert.Equal(t, loc, out.Index[0].Location())
	})

	t.Run("resample keeps the last value of each right-closed bin", func(t *testing.T) {
		p := eventmodels.PanelFromObservations([]eventmodels.Observation{
			{Time: utc(9, 1), Column: "eur", Value: 1},
			{Time: utc(9, 14), Column: "eur", Value: 2},
			{Time: utc(9, 15), Column: "eur", Value: 3},
			{Time: utc(9, 16), Column: "eur", Value: 4},
			{Time: utc(9, 2), Column: "gbp", Value: 5},
		})

		out := ResampleLast(p, BarInterval)

		assert.Equal(t, []time.Time{utc(9, 15), utc(9, 30)}, out.Index)
		assert.Equal(t, 3.0, out.At(utc(9, 15), "eur"))
		assert.Equal(t, 4.0, out.At(utc(9, 30), "eur"))
		assert.Equal(t, 5.0, out.At(utc(9, 15), "gbp"))
		assert.True(t, math.IsNaN(out.At(utc(9, 30), "gbp")))
	})

	t.Run("log returns", func(t *testing.T) {
		p := eventmodels.PanelFromObservations([]eventmodels.Observation{
			{Time: utc(9, 0), Column: "eur", Value: 1},
			{Time: utc(9, 15), Column: "eur", Value: math.E},
			{Time: utc(9, 45), Column: "eur", Value: math.E},
		})

		out := LogReturns(p, 1e4)

		assert.True(t, math.IsNaN(out.At(utc(9, 0), "eur")))
		assert.InDelta(t, 1e4, out.At(utc(9, 15), "eur"), 1e-9)
		assert.InDelta(t, 0, out.At(utc(9, 45), "eur"), 1e-9)
	})

	t.Run("log returns need both prices", func(t *testing.T) {
		p := eventmodels.NewPanel([]time.Time{utc(9, 0), utc(9, 15), utc(9, 30)}, []string{"eur"})
		p.Set(utc(9, 0), "eur", 1)
		p.Set(utc(9, 30), "eur", 2)

		out := LogReturns(p, 1)

		assert.True(t, math.IsNaN(out.At(utc(9, 15), "eur")))
		assert.True(t, math.IsNaN(out.At(utc(9, 30), "eur")))
	})

	t.Run("shift wall clock", func(t *testing.T) {
		p := eventmodels.PanelFromObservations([]eventmodels.Observation{
			{Time: utc(10, 0), Column: "eur", Value: 1},
		})

		out := ShiftWallClock(p, DefaultEikonShift, loc)

		assert.True(t, out.Index[0].Equal(time.Date(2020, time.March, 16, 9, 0, 0, 0, loc)))
	})

	t.Run("lower case columns", func(t *testing.T) {
		p := eventmodels.PanelFromObservations([]eventmodels.Observation{
			{Time: utc(10, 0), Column: "EUR", Value: 1},
		})

		assert.Equal(t, []string{"eur"}, lowerColumns(p).Columns)
	})
}

func TestMergeFX(t *testing.T) {
	primary := eventmodels.NewPanel([]time.Time{utc(9, 0), utc(9, 15)}, []string{"eur"})
	primary.Set(utc(9, 0), "eur", 1)

	secondary := eventmodels.PanelFromObservations([]eventmodels.Observation{
		{Time: utc(9, 0), Column: "eur", Value: 10},
		{Time: utc(9, 15), Column: "eur", Value: 20},
		{Time: utc(9, 30), Column: "gbp", Value: 30},
	})

	t.Run("primary wins, secondary fills", func(t *testing.T) {
		out := MergeFX(primary, secondary)

		assert.Equal(t, []string{"eur", "gbp"}, out.Columns)
		assert.Equal(t, 3, out.Len())
		assert.Equal(t, 1.0, out.At(utc(9, 0), "eur"))
		assert.Equal(t, 20.0, out.At(utc(9, 15), "eur"))
		assert.Equal(t, 30.0, out.At(utc(9, 30), "gbp"))
	})

	t.Run("nil sources", func(t *testing.T) {
		assert.Same(t, secondary, MergeFX(nil, secondary))
		assert.Same(t, primary, MergeFX(primary, nil))
	})
}
