package descriptives

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

type ColumnAvailability struct {
	Column   string    `json:"column"`
	First    time.Time `json:"first"`
	Last     time.Time `json:"last"`
	Count    int       `json:"count"`
	Coverage float64   `json:"coverage"`
}

// AvailabilityMap reports, per column, when data starts and ends and the
// share of index rows between the two that have a value.
func AvailabilityMap(p *eventmodels.Panel) []ColumnAvailability {
	out := make([]ColumnAvailability, 0, len(p.Columns))
	for j, col := range p.Columns {
		a := ColumnAvailability{Column: col}
		firstRow, lastRow := -1, -1

		for i := range p.Index {
			if math.IsNaN(p.Values[i][j]) {
				continue
			}

			if firstRow < 0 {
				firstRow = i
			}
			lastRow = i
			a.Count++
		}

		if firstRow >= 0 {
			a.First = p.Index[firstRow]
			a.Last = p.Index[lastRow]
			a.Coverage = float64(a.Count) / float64(lastRow-firstRow+1)
		}

		out = append(out, a)
	}

	return out
}

func RenderAvailability(w io.Writer, rows []ColumnAvailability) {
	p := message.NewPrinter(language.English)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"column", "first", "last", "count", "coverage"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	for _, r := range rows {
		first, last := "", ""
		if r.Count > 0 {
			first = r.First.Format("2006-01-02 15:04")
			last = r.Last.Format("2006-01-02 15:04")
		}

		table.Append([]string{
			r.Column,
			first,
			last,
			p.Sprintf("%d", r.Count),
			fmt.Sprintf("%.0f%%", r.Coverage*100),
		})
	}

	table.Render()
}
