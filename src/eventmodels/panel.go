package eventmodels

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Panel is a time indexed matrix of values, one column per currency (or
// stock index). Missing values are NaN.
type Panel struct {
	Index   []time.Time
	Columns []string
	Values  [][]float64
}

type Observation struct {
	Time   time.Time
	Column string
	Value  float64
}

// NewPanel allocates a panel over the given index and columns filled with NaN.
// The index is sorted and deduplicated, the columns are sorted.
func NewPanel(index []time.Time, columns []string) *Panel {
	idx := sortedUniqueTimes(index)
	cols := sortedUniqueStrings(columns)

	values := make([][]float64, len(idx))
	for i := range values {
		row := make([]float64, len(cols))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}

	return &Panel{
		Index:   idx,
		Columns: cols,
		Values:  values,
	}
}

// PanelFromObservations builds a panel from long-format observations. When
// two observations share a time and column, the last one wins.
func PanelFromObservations(obs []Observation) *Panel {
	index := make([]time.Time, 0, len(obs))
	columns := make([]string, 0)
	for _, o := range obs {
		index = append(index, o.Time)
		columns = append(columns, o.Column)
	}

	p := NewPanel(index, columns)
	for _, o := range obs {
		p.Set(o.Time, o.Column, o.Value)
	}

	return p
}

func (p *Panel) Len() int {
	return len(p.Index)
}

func (p *Panel) IsEmpty() bool {
	return len(p.Index) == 0 || len(p.Columns) == 0
}

func (p *Panel) RowIndex(t time.Time) int {
	i := sort.Search(len(p.Index), func(i int) bool {
		return !p.Index[i].Before(t)
	})

	if i < len(p.Index) && p.Index[i].Equal(t) {
		return i
	}

	return -1
}

func (p *Panel) ColumnIndex(col string) int {
	i := sort.SearchStrings(p.Columns, col)
	if i < len(p.Columns) && p.Columns[i] == col {
		return i
	}

	return -1
}

func (p *Panel) HasColumn(col string) bool {
	return p.ColumnIndex(col) >= 0
}

// At returns NaN when the time or the column is not part of the panel.
func (p *Panel) At(t time.Time, col string) float64 {
	i, j := p.RowIndex(t), p.ColumnIndex(col)
	if i < 0 || j < 0 {
		return math.NaN()
	}

	return p.Values[i][j]
}

// Set is a no-op for times or columns outside the panel.
func (p *Panel) Set(t time.Time, col string, v float64) {
	i, j := p.RowIndex(t), p.ColumnIndex(col)
	if i < 0 || j < 0 {
		return
	}

	p.Values[i][j] = v
}

func (p *Panel) Column(col string) ([]float64, error) {
	j := p.ColumnIndex(col)
	if j < 0 {
		return nil, fmt.Errorf("Panel.Column: %s: %w", col, UnknownColumnErr)
	}

	out := make([]float64, len(p.Index))
	for i := range p.Values {
		out[i] = p.Values[i][j]
	}

	return out, nil
}

// Count returns the number of non-missing values per column.
func (p *Panel) Count() map[string]int {
	counts := make(map[string]int, len(p.Columns))
	for j, col := range p.Columns {
		n := 0
		for i := range p.Values {
			if !math.IsNaN(p.Values[i][j]) {
				n++
			}
		}
		counts[col] = n
	}

	return counts
}

func (p *Panel) Copy() *Panel {
	out := &Panel{
		Index:   append([]time.Time(nil), p.Index...),
		Columns: append([]string(nil), p.Columns...),
		Values:  make([][]float64, len(p.Values)),
	}

	for i, row := range p.Values {
		out.Values[i] = append([]float64(nil), row...)
	}

	return out
}

// Reindex conforms the panel to a new index and column set. Values at
// labels not present in the receiver are NaN.
func (p *Panel) Reindex(index []time.Time, columns []string) *Panel {
	out := NewPanel(index, columns)

	colMap := make([]int, len(out.Columns))
	for j, col := range out.Columns {
		colMap[j] = p.ColumnIndex(col)
	}

	for i, t := range out.Index {
		src := p.RowIndex(t)
		if src < 0 {
			continue
		}

		for j, srcCol := range colMap {
			if srcCol >= 0 {
				out.Values[i][j] = p.Values[src][srcCol]
			}
		}
	}

	return out
}

func (p *Panel) Select(columns []string) *Panel {
	return p.Reindex(p.Index, columns)
}

// FillNA fills the receiver's missing values with the values of other at the
// same time and column. The receiver's shape is unchanged.
func (p *Panel) FillNA(other *Panel) {
	for j, col := range p.Columns {
		oj := other.ColumnIndex(col)
		if oj < 0 {
			continue
		}

		for i, t := range p.Index {
			if !math.IsNaN(p.Values[i][j]) {
				continue
			}

			if oi := other.RowIndex(t); oi >= 0 {
				p.Values[i][j] = other.Values[oi][oj]
			}
		}
	}
}

// Update overwrites the receiver's values with the non-missing values of
// other at the same time and column. The receiver's shape is unchanged.
func (p *Panel) Update(other *Panel) {
	for oj, col := range other.Columns {
		j := p.ColumnIndex(col)
		if j < 0 {
			continue
		}

		for oi, t := range other.Index {
			v := other.Values[oi][oj]
			if math.IsNaN(v) {
				continue
			}

			if i := p.RowIndex(t); i >= 0 {
				p.Values[i][j] = v
			}
		}
	}
}

// DropEmptyRows removes rows in which every value is missing.
func (p *Panel) DropEmptyRows() *Panel {
	out := &Panel{Columns: append([]string(nil), p.Columns...)}
	for i, row := range p.Values {
		if rowHasValue(row) {
			out.Index = append(out.Index, p.Index[i])
			out.Values = append(out.Values, append([]float64(nil), row...))
		}
	}

	return out
}

// DropEmptyColumns removes columns in which every value is missing.
func (p *Panel) DropEmptyColumns() *Panel {
	var keep []string
	for col, n := range p.Count() {
		if n > 0 {
			keep = append(keep, col)
		}
	}

	return p.Select(keep)
}

// Observations returns the non-missing values in long format, ordered by
// time and then column.
func (p *Panel) Observations() []Observation {
	var out []Observation
	for i, t := range p.Index {
		for j, col := range p.Columns {
			if v := p.Values[i][j]; !math.IsNaN(v) {
				out = append(out, Observation{Time: t, Column: col, Value: v})
			}
		}
	}

	return out
}

// In returns a copy with every timestamp expressed in loc.
func (p *Panel) In(loc *time.Location) *Panel {
	out := p.Copy()
	for i, t := range out.Index {
		out.Index[i] = t.In(loc)
	}

	return out
}

// RenameColumns applies fn to every column name. Columns mapping to the same
// name are merged with later columns taking precedence.
func (p *Panel) RenameColumns(fn func(string) string) *Panel {
	var obs []Observation
	for _, o := range p.Observations() {
		o.Column = fn(o.Column)
		obs = append(obs, o)
	}

	var cols []string
	for _, col := range p.Columns {
		cols = append(cols, fn(col))
	}

	out := PanelFromObservations(obs).Reindex(p.Index, cols)
	return out
}

func UnionIndex(panels ...*Panel) []time.Time {
	var all []time.Time
	for _, p := range panels {
		if p != nil {
			all = append(all, p.Index...)
		}
	}

	return sortedUniqueTimes(all)
}

func UnionColumns(panels ...*Panel) []string {
	var all []string
	for _, p := range panels {
		if p != nil {
			all = append(all, p.Columns...)
		}
	}

	return sortedUniqueStrings(all)
}

func IntersectColumns(a, b *Panel) []string {
	var out []string
	for _, col := range a.Columns {
		if b.HasColumn(col) {
			out = append(out, col)
		}
	}

	return out
}

func rowHasValue(row []float64) bool {
	for _, v := range row {
		if !math.IsNaN(v) {
			return true
		}
	}

	return false
}

func sortedUniqueTimes(ts []time.Time) []time.Time {
	out := append([]time.Time(nil), ts...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Before(out[j])
	})

	uniq := out[:0]
	for i, t := range out {
		if i > 0 && t.Equal(uniq[len(uniq)-1]) {
			continue
		}
		uniq = append(uniq, t)
	}

	return uniq
}

func sortedUniqueStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)

	uniq := out[:0]
	for i, s := range out {
		if i > 0 && s == uniq[len(uniq)-1] {
			continue
		}
		uniq = append(uniq, s)
	}

	return uniq
}
