package eventstudy

import (
	"math"
	"sort"
	"time"
)

type PivotColumn struct {
	Asset     string    `json:"asset"`
	EventTime time.Time `json:"event_time"`
}

// PivotTable holds event-centric values: Values[i][k] is the value of
// column k at relative period Periods[i]. Missing values are NaN.
type PivotTable struct {
	Periods []int
	Columns []PivotColumn
	Values  [][]float64
}

func NewPivotTable(periods []int, columns []PivotColumn) *PivotTable {
	values := make([][]float64, len(periods))
	for i := range values {
		row := make([]float64, len(columns))
		for k := range row {
			row[k] = math.NaN()
		}
		values[i] = row
	}

	return &PivotTable{
		Periods: periods,
		Columns: columns,
		Values:  values,
	}
}

// Sort orders the columns by asset and then by event time.
func (t *PivotTable) Sort() {
	order := make([]int, len(t.Columns))
	for k := range order {
		order[k] = k
	}

	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := t.Columns[order[a]], t.Columns[order[b]]
		if ca.Asset != cb.Asset {
			return ca.Asset < cb.Asset
		}
		return ca.EventTime.Before(cb.EventTime)
	})

	columns := make([]PivotColumn, len(order))
	for k, src := range order {
		columns[k] = t.Columns[src]
	}

	for i, row := range t.Values {
		sorted := make([]float64, len(order))
		for k, src := range order {
			sorted[k] = row[src]
		}
		t.Values[i] = sorted
	}

	t.Columns = columns
}

func (t *PivotTable) PeriodIndex(period int) int {
	for i, p := range t.Periods {
		if p == period {
			return i
		}
	}

	return -1
}

// Cumulate turns per-period values into cumulative sums rebased to zero at
// base: the value at p > base is the sum over (base, p], the value at
// p <= base is minus the sum over (p, base]. Missing values add nothing.
func (t *PivotTable) Cumulate(base int) *PivotTable {
	out := NewPivotTable(append([]int(nil), t.Periods...), append([]PivotColumn(nil), t.Columns...))

	for k := range t.Columns {
		for i, p := range t.Periods {
			sum := 0.0
			for q, period := range t.Periods {
				v := t.Values[q][k]
				if math.IsNaN(v) {
					continue
				}

				switch {
				case p > base && period > base && period <= p:
					sum += v
				case p <= base && period > p && period <= base:
					sum -= v
				}
			}

			out.Values[i][k] = sum
		}
	}

	return out
}

// CountByAsset returns the number of available values per asset for every
// period.
func (t *PivotTable) CountByAsset() map[string][]int {
	out := make(map[string][]int)
	for k, col := range t.Columns {
		counts, found := out[col.Asset]
		if !found {
			counts = make([]int, len(t.Periods))
		}

		for i := range t.Periods {
			if !math.IsNaN(t.Values[i][k]) {
				counts[i]++
			}
		}

		out[col.Asset] = counts
	}

	return out
}

// EventWeightedMean averages per period the asset means weighted by the
// number of events of each asset, which equals the mean over all available
// values. Periods without any value are NaN.
func EventWeightedMean(t *PivotTable) []float64 {
	out := make([]float64, len(t.Periods))
	for i := range t.Periods {
		assetSum := make(map[string]float64)
		assetCount := make(map[string]int)
		total := 0

		for k, col := range t.Columns {
			v := t.Values[i][k]
			if math.IsNaN(v) {
				continue
			}

			assetSum[col.Asset] += v
			assetCount[col.Asset]++
			total++
		}

		if total == 0 {
			out[i] = math.NaN()
			continue
		}

		mean := 0.0
		for asset, n := range assetCount {
			mean += assetSum[asset] / float64(n) * float64(n) / float64(total)
		}

		out[i] = mean
	}

	return out
}
