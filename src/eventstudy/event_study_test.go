package eventstudy

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

func minute(i int) time.Time {
	return time.Date(2020, time.March, 16, 9, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
}

// rampStudy has one asset whose value at row i is i+1, with events at the
// given rows.
func rampStudy(t *testing.T, n int, window eventmodels.Window, edi int, eventRows ...int) *EventStudy {
	t.Helper()

	index := make([]time.Time, n)
	for i := range index {
		index[i] = minute(i)
	}

	data := eventmodels.NewPanel(index, []string{"eur"})
	for i := range index {
		data.Values[i][0] = float64(i + 1)
	}

	var eventTimes []time.Time
	for _, r := range eventRows {
		eventTimes = append(eventTimes, minute(r))
	}

	s, err := NewEventStudy(data, BroadcastEvents(eventTimes, []string{"eur"}), window, edi)
	require.NoError(t, err)

	return s
}

func pivotColumn(p *PivotTable, k int) []float64 {
	out := make([]float64, len(p.Periods))
	for i := range p.Periods {
		out[i] = p.Values[i][k]
	}
	return out
}

func TestNewEventStudy(t *testing.T) {
	data := eventmodels.NewPanel([]time.Time{minute(0), minute(1)}, []string{"eur", "gbp"})

	t.Run("keeps the common columns", func(t *testing.T) {
		s, err := NewEventStudy(data, BroadcastEvents([]time.Time{minute(1)}, []string{"eur", "jpy"}), eventmodels.Window{Start: -1, End: 1}, 1)
		require.NoError(t, err)

		assert.Equal(t, []string{"eur"}, s.Assets)
		assert.Equal(t, []string{"eur"}, s.Data.Columns)
		assert.Equal(t, map[string]int{"eur": 1}, s.EventCounts())
	})

	t.Run("rejects events outside the data", func(t *testing.T) {
		_, err := NewEventStudy(data, BroadcastEvents([]time.Time{minute(7)}, []string{"eur"}), eventmodels.Window{Start: -1, End: 1}, 1)
		assert.ErrorIs(t, err, eventmodels.EventDatesNotInDataErr)
	})

	t.Run("rejects disjoint columns", func(t *testing.T) {
		_, err := NewEventStudy(data, BroadcastEvents([]time.Time{minute(1)}, []string{"chf"}), eventmodels.Window{Start: -1, End: 1}, 1)
		assert.ErrorIs(t, err, eventmodels.NoCommonColumnsErr)
	})

	t.Run("rejects a bad window or event date index", func(t *testing.T) {
		events := BroadcastEvents([]time.Time{minute(1)}, []string{"eur"})

		_, err := NewEventStudy(data, events, eventmodels.Window{Start: 1, End: 3}, 1)
		assert.ErrorIs(t, err, eventmodels.InvalidWindowErr)

		_, err = NewEventStudy(data, events, eventmodels.Window{Start: -1, End: 1}, 2)
		assert.ErrorIs(t, err, eventmodels.InvalidEventDateIndexErr)
	})
}

func TestMarkEventWindows(t *testing.T) {
	t.Run("single event", func(t *testing.T) {
		s := rampStudy(t, 10, eventmodels.Window{Start: -2, End: 2}, 1, 4)

		marks := s.MarkEventWindows(false)
		for i, row := range marks {
			assert.Equal(t, i >= 2 && i <= 5, row[0], "row %d", i)
		}
	})

	t.Run("event date index zero widens the post window", func(t *testing.T) {
		s := rampStudy(t, 10, eventmodels.Window{Start: -2, End: 2}, 0, 4)

		marks := s.MarkEventWindows(false)
		for i, row := range marks {
			assert.Equal(t, i >= 2 && i <= 6, row[0], "row %d", i)
		}
	})

	t.Run("ambiguous rows between close events", func(t *testing.T) {
		s := rampStudy(t, 10, eventmodels.Window{Start: -2, End: 2}, 1, 3, 6)

		all := s.MarkEventWindows(false)
		strict := s.MarkEventWindows(true)

		for i := range all {
			assert.Equal(t, i >= 1 && i <= 7, all[i][0], "row %d", i)
			assert.Equal(t, i >= 1 && i <= 7 && i != 4, strict[i][0], "row %d", i)
		}
	})
}

func TestPivot(t *testing.T) {
	t.Run("event row is period one", func(t *testing.T) {
		s := rampStudy(t, 10, eventmodels.Window{Start: -2, End: 2}, 1, 4)

		p := s.Pivot()
		require.Len(t, p.Columns, 1)
		assert.Equal(t, []int{-1, 0, 1, 2}, p.Periods)
		assert.Equal(t, PivotColumn{Asset: "eur", EventTime: minute(4)}, p.Columns[0])
		assert.Equal(t, []float64{3, 4, 5, 6}, pivotColumn(p, 0))
	})

	t.Run("event row is period zero", func(t *testing.T) {
		s := rampStudy(t, 10, eventmodels.Window{Start: -2, End: 2}, 0, 4)

		p := s.Pivot()
		assert.Equal(t, []int{-2, -1, 0, 1, 2}, p.Periods)
		assert.Equal(t, []float64{3, 4, 5, 6, 7}, pivotColumn(p, 0))
	})

	t.Run("ambiguous rows are left out", func(t *testing.T) {
		s := rampStudy(t, 10, eventmodels.Window{Start: -2, End: 2}, 1, 3, 6)

		p := s.Pivot()
		require.Len(t, p.Columns, 2)

		first := pivotColumn(p, 0)
		assert.Equal(t, []float64{2, 3, 4}, first[:3])
		assert.True(t, math.IsNaN(first[3]))

		second := pivotColumn(p, 1)
		assert.True(t, math.IsNaN(second[0]))
		assert.Equal(t, []float64{6, 7, 8}, second[1:])
	})

	t.Run("windows cut at the edges of the data", func(t *testing.T) {
		s := rampStudy(t, 3, eventmodels.Window{Start: -2, End: 2}, 1, 0)

		p := s.Pivot()
		col := pivotColumn(p, 0)
		assert.True(t, math.IsNaN(col[0]))
		assert.True(t, math.IsNaN(col[1]))
		assert.Equal(t, []float64{1, 2}, col[2:])
	})
}

func TestPivotTable(t *testing.T) {
	t.Run("cumulate rebases at the period before the event", func(t *testing.T) {
		s := rampStudy(t, 10, eventmodels.Window{Start: -2, End: 2}, 1, 4)

		cum := s.Pivot().Cumulate(s.BasePeriod())
		assert.Equal(t, []float64{-4, 0, 5, 11}, pivotColumn(cum, 0))
	})

	t.Run("cumulate skips missing values", func(t *testing.T) {
		p := NewPivotTable([]int{0, 1, 2}, []PivotColumn{{Asset: "eur"}})
		p.Values[1][0] = 2
		p.Values[2][0] = 3

		assert.Equal(t, []float64{0, 2, 5}, pivotColumn(p.Cumulate(0), 0))
	})

	t.Run("columns sort by asset then time", func(t *testing.T) {
		p := NewPivotTable([]int{0}, []PivotColumn{
			{Asset: "gbp", EventTime: minute(1)},
			{Asset: "eur", EventTime: minute(5)},
			{Asset: "eur", EventTime: minute(2)},
		})
		p.Values[0] = []float64{1, 2, 3}

		p.Sort()

		assert.Equal(t, []PivotColumn{
			{Asset: "eur", EventTime: minute(2)},
			{Asset: "eur", EventTime: minute(5)},
			{Asset: "gbp", EventTime: minute(1)},
		}, p.Columns)
		assert.Equal(t, []float64{3, 2, 1}, p.Values[0])
	})

	t.Run("event weighted mean", func(t *testing.T) {
		p := NewPivotTable([]int{0, 1}, []PivotColumn{
			{Asset: "eur", EventTime: minute(1)},
			{Asset: "eur", EventTime: minute(2)},
			{Asset: "gbp", EventTime: minute(1)},
		})
		p.Values[0] = []float64{1, 3, 5}

		mean := EventWeightedMean(p)
		assert.InDelta(t, 3.0, mean[0], 1e-12)
		assert.True(t, math.IsNaN(mean[1]))

		assert.Equal(t, map[string][]int{"eur": {2, 0}, "gbp": {1, 0}}, p.CountByAsset())
	})
}

func TestBootstrapWithoutEvents(t *testing.T) {
	t.Run("keeps the number of events and observations", func(t *testing.T) {
		s := rampStudy(t, 60, eventmodels.Window{Start: -2, End: 2}, 1, 20, 40)

		booted, err := s.BootstrapWithoutEvents(rand.New(rand.NewSource(1)), 3)
		require.NoError(t, err)

		assert.Equal(t, s.EventCounts(), booted.EventCounts())
		assert.GreaterOrEqual(t, booted.Data.Len(), s.Data.Len())
		assert.Equal(t, s.Window, booted.Window)

		windows := s.MarkEventWindows(false)
		excluded := map[float64]bool{}
		for i, row := range windows {
			if row[0] {
				excluded[s.Data.Values[i][0]] = true
			}
		}

		for _, row := range booted.Data.Values {
			assert.False(t, excluded[row[0]], "value %v comes from an event window", row[0])
		}
	})

	t.Run("same seed same sample", func(t *testing.T) {
		s := rampStudy(t, 60, eventmodels.Window{Start: -2, End: 2}, 1, 30)

		a, err := s.BootstrapWithoutEvents(rand.New(rand.NewSource(7)), 0)
		require.NoError(t, err)

		b, err := s.BootstrapWithoutEvents(rand.New(rand.NewSource(7)), 0)
		require.NoError(t, err)

		assert.Equal(t, a.Data.Values, b.Data.Values)
		assert.Equal(t, a.eventRows, b.eventRows)
	})

	t.Run("not enough data outside the windows", func(t *testing.T) {
		s := rampStudy(t, 4, eventmodels.Window{Start: -2, End: 2}, 1, 2)

		_, err := s.BootstrapWithoutEvents(rand.New(rand.NewSource(1)), 1)
		assert.ErrorIs(t, err, eventmodels.NotEnoughDataToBootstrapErr)
	})

	t.Run("default block size", func(t *testing.T) {
		assert.Equal(t, 1, DefaultBlockSize(0))
		assert.Equal(t, 3, DefaultBlockSize(15))
		assert.Equal(t, 10, DefaultBlockSize(10000))
	})
}
