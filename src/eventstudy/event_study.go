package eventstudy

import (
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

// EventStudy studies N assets around asset specific events. Data holds the
// variable of interest, most commonly summable returns; Events is non
// missing wherever an asset has an event.
type EventStudy struct {
	Data           *eventmodels.Panel
	Events         *eventmodels.Panel
	Window         eventmodels.Window
	EventDateIndex int
	Assets         []string

	// eventRows lists, per asset, the data rows holding an event.
	eventRows [][]int
}

// NewEventStudy aligns data and events on their common columns. Every time
// at which some event is present must be part of the data index.
func NewEventStudy(data, events *eventmodels.Panel, window eventmodels.Window, eventDateIndex int) (*EventStudy, error) {
	if err := window.Validate(); err != nil {
		return nil, fmt.Errorf("NewEventStudy: %w", err)
	}

	if eventDateIndex != 0 && eventDateIndex != 1 {
		return nil, fmt.Errorf("NewEventStudy: %w", eventmodels.InvalidEventDateIndexErr)
	}

	events = events.DropEmptyRows()
	for _, t := range events.Index {
		if data.RowIndex(t) < 0 {
			return nil, fmt.Errorf("NewEventStudy: %v: %w", t, eventmodels.EventDatesNotInDataErr)
		}
	}

	assets := eventmodels.IntersectColumns(data, events)
	if len(assets) == 0 {
		return nil, fmt.Errorf("NewEventStudy: %w", eventmodels.NoCommonColumnsErr)
	}

	if len(data.Columns) > len(events.Columns) {
		log.Warnf("NewEventStudy: data and events have %d different columns which will be removed", len(data.Columns)-len(assets))
	}

	s := &EventStudy{
		Data:           data.Select(assets),
		Events:         events.Reindex(events.Index, assets),
		Window:         window,
		EventDateIndex: eventDateIndex,
		Assets:         assets,
	}

	s.eventRows = make([][]int, len(assets))
	for j := range assets {
		for i, t := range s.Events.Index {
			if math.IsNaN(s.Events.Values[i][j]) {
				continue
			}

			s.eventRows[j] = append(s.eventRows[j], s.Data.RowIndex(t))
		}
	}

	return s, nil
}

// BroadcastEvents builds an events panel where every column has an event at
// every given time.
func BroadcastEvents(times []time.Time, columns []string) *eventmodels.Panel {
	p := eventmodels.NewPanel(times, columns)
	for i := range p.Values {
		for j := range p.Values[i] {
			p.Values[i][j] = 1
		}
	}

	return p
}

// EventCounts returns the number of events per asset.
func (s *EventStudy) EventCounts() map[string]int {
	out := make(map[string]int, len(s.Assets))
	for j, asset := range s.Assets {
		out[asset] = len(s.eventRows[j])
	}

	return out
}

// slot places a data row relative to the event it belongs to.
type slot struct {
	inWindow  bool
	ambiguous bool
	eventRow  int
	offset    int
}

// slots places every data row of asset j. Pre-event rows belong to the
// nearest following event, post-event rows to the nearest preceding one.
// A non-event row that is both is ambiguous.
func (s *EventStudy) slots(j int) []slot {
	n := s.Data.Len()
	out := make([]slot, n)
	rows := s.eventRows[j]
	if len(rows) == 0 {
		return out
	}

	before := -s.Window.Start
	after := s.Window.End - s.EventDateIndex

	prev := -1
	next := 0
	for r := 0; r < n; r++ {
		for next < len(rows) && rows[next] < r {
			next++
		}

		for prev+1 < len(rows) && rows[prev+1] <= r {
			prev++
		}

		if next < len(rows) && rows[next] == r {
			out[r] = slot{inWindow: true, eventRow: r}
			continue
		}

		pre := next < len(rows) && rows[next]-r <= before
		post := prev >= 0 && r-rows[prev] <= after

		switch {
		case pre && post:
			out[r] = slot{inWindow: true, ambiguous: true, eventRow: -1}
		case pre:
			out[r] = slot{inWindow: true, eventRow: rows[next], offset: r - rows[next]}
		case post:
			out[r] = slot{inWindow: true, eventRow: rows[prev], offset: r - rows[prev]}
		}
	}

	return out
}

// MarkEventWindows flags, per data row and asset, the rows that lie inside
// the window of some event: up to -Window.Start rows before it and up to
// Window.End-EventDateIndex rows after it. With excludeAmbiguous, rows that
// are post-event for one event and pre-event for the next are not flagged.
// Values are indexed [row][asset] following s.Assets.
func (s *EventStudy) MarkEventWindows(excludeAmbiguous bool) [][]bool {
	out := make([][]bool, s.Data.Len())
	for i := range out {
		out[i] = make([]bool, len(s.Assets))
	}

	for j := range s.Assets {
		for r, sl := range s.slots(j) {
			out[r][j] = sl.inWindow && !(excludeAmbiguous && sl.ambiguous)
		}
	}

	return out
}

// Pivot reshapes the data so that rows are periods relative to the event and
// columns are (asset, event time) pairs. The event row is labelled
// EventDateIndex. Ambiguous rows are left out.
func (s *EventStudy) Pivot() *PivotTable {
	var periods []int
	for p := s.Window.Start + s.EventDateIndex; p <= s.Window.End; p++ {
		periods = append(periods, p)
	}

	if len(periods) == 0 {
		return NewPivotTable(nil, nil)
	}

	type cell struct {
		col    int
		period int
		value  float64
	}

	var columns []PivotColumn
	var cells []cell

	for j, asset := range s.Assets {
		colOf := make(map[int]int, len(s.eventRows[j]))
		for _, r := range s.eventRows[j] {
			colOf[r] = len(columns)
			columns = append(columns, PivotColumn{Asset: asset, EventTime: s.Data.Index[r]})
		}

		for r, sl := range s.slots(j) {
			if !sl.inWindow || sl.ambiguous {
				continue
			}

			label := sl.offset + s.EventDateIndex
			if label < periods[0] || label > s.Window.End {
				continue
			}

			cells = append(cells, cell{col: colOf[sl.eventRow], period: label, value: s.Data.Values[r][j]})
		}
	}

	table := NewPivotTable(periods, columns)
	for _, c := range cells {
		table.Values[c.period-periods[0]][c.col] = c.value
	}

	table.Sort()

	return table
}
