package descriptives

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

const eventTimeLayout = "01/02 15:04"

// EventsTable is the rate cuts laid out with one row per announcement time
// and one column per currency, followed by the number of cuts and their
// total size per currency.
type EventsTable struct {
	Header []string
	Rows   [][]string
}

func NewEventsTable(cuts eventmodels.RateCuts) *EventsTable {
	panel := cuts.ToPanel()
	counts := panel.Count()

	table := &EventsTable{
		Header: append([]string{"time"}, panel.Columns...),
	}

	for i, t := range panel.Index {
		row := []string{t.Format(eventTimeLayout)}
		for _, v := range panel.Values[i] {
			row = append(row, formatBps(v))
		}
		table.Rows = append(table.Rows, row)
	}

	totalNo := []string{"total no."}
	totalCut := []string{"total cut"}
	for j, col := range panel.Columns {
		totalNo = append(totalNo, fmt.Sprintf("%d", counts[col]))

		sum := 0.0
		for i := range panel.Values {
			if v := panel.Values[i][j]; !math.IsNaN(v) {
				sum += v
			}
		}
		totalCut = append(totalCut, formatBps(sum))
	}

	table.Rows = append(table.Rows, totalNo, totalCut)

	return table
}

func formatBps(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	return fmt.Sprintf("%.0f", v)
}

var eventsHTMLTemplate = template.Must(template.New("events").Parse(`<table border="1" class="dataframe">
  <thead>
    <tr style="text-align: right;">
{{- range .Header}}
      <th>{{.}}</th>
{{- end}}
    </tr>
  </thead>
  <tbody>
{{- range .Rows}}
    <tr>
{{- range .}}
      <td>{{.}}</td>
{{- end}}
    </tr>
{{- end}}
  </tbody>
</table>
`))

// DescribeEvents renders the events table as HTML.
func DescribeEvents(cuts eventmodels.RateCuts) (string, error) {
	var out strings.Builder
	if err := eventsHTMLTemplate.Execute(&out, NewEventsTable(cuts)); err != nil {
		return "", fmt.Errorf("DescribeEvents: %w", err)
	}

	return out.String(), nil
}

// RenderEventsTable writes the events table as plain text.
func RenderEventsTable(w io.Writer, cuts eventmodels.RateCuts) {
	t := NewEventsTable(cuts)

	table := tablewriter.NewWriter(w)
	table.SetHeader(t.Header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	for _, row := range t.Rows {
		table.Append(row)
	}

	table.Render()
}

// FirstAndLast returns the earliest and the latest announcement.
func FirstAndLast(cuts eventmodels.RateCuts) (time.Time, time.Time) {
	var first, last time.Time
	for i, c := range cuts {
		if i == 0 {
			first, last = c.Time, c.Time
			continue
		}

		first = utils.GetMinTime(first, c.Time)
		last = utils.GetMaxTime(last, c.Time)
	}

	return first, last
}
