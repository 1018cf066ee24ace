package descriptives

import (
	"fmt"
	"io"
	"math"

	"github.com/olekukonko/tablewriter"

	"github.com/jiaming2012/mp-fx-covid19/src/eventstudy"
)

func formatFloat(v float64, digits int) string {
	if math.IsNaN(v) {
		return ""
	}

	return fmt.Sprintf("%.*f", digits, v)
}

// RenderBands writes the observed mean path next to its bootstrap band.
func RenderBands(w io.Writer, result *eventstudy.BootstrapResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"period",
		"observed",
		fmt.Sprintf("lower %.0f%%", (1-result.Confidence)/2*100),
		"median",
		fmt.Sprintf("upper %.0f%%", (1+result.Confidence)/2*100),
		"p-value",
	})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	for _, b := range result.Bands {
		table.Append([]string{
			fmt.Sprintf("%d", b.Period),
			formatFloat(b.Observed, 2),
			formatFloat(b.Lower, 2),
			formatFloat(b.Median, 2),
			formatFloat(b.Upper, 2),
			formatFloat(b.PValue, 3),
		})
	}

	table.Render()
}

// RenderEventCounts writes how many events each asset contributes.
func RenderEventCounts(w io.Writer, study *eventstudy.EventStudy) {
	counts := study.EventCounts()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"asset", "events"})
	table.SetAutoFormatHeaders(false)

	for _, asset := range study.Assets {
		table.Append([]string{asset, fmt.Sprintf("%d", counts[asset])})
	}

	table.Render()
}
