package datafeed

import (
	"math"
	"strings"
	"time"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

// BarInterval is the sampling frequency of every intraday series.
const BarInterval = 15 * time.Minute

// FlipIndirectQuotes inverts the columns quoted as USDXXX so that every
// column is the USD price of one unit of the currency.
func FlipIndirectQuotes(p *eventmodels.Panel, indirect map[string]bool) *eventmodels.Panel {
	out := p.Copy()
	for j, col := range out.Columns {
		if !indirect[strings.ToLower(col)] {
			continue
		}

		for i := range out.Values {
			out.Values[i][j] = 1 / out.Values[i][j]
		}
	}

	return out
}

// StampPeriodEnd relabels bars stamped at their start with the end of their
// period, expressed in loc.
func StampPeriodEnd(p *eventmodels.Panel, freq time.Duration, loc *time.Location) *eventmodels.Panel {
	var obs []eventmodels.Observation
	for _, o := range p.Observations() {
		o.Time = utils.PeriodEnd(o.Time.In(loc), freq)
		obs = append(obs, o)
	}

	out := eventmodels.PanelFromObservations(obs)
	return out.Reindex(out.Index, p.Columns)
}

// ResampleLast bins observations into right-closed intervals of length freq
// labelled by their right edge, keeping the last available value of every
// column in each bin.
func ResampleLast(p *eventmodels.Panel, freq time.Duration) *eventmodels.Panel {
	type key struct {
		label int64
		col   string
	}

	type bin struct {
		label time.Time
		seen  time.Time
		value float64
	}

	latest := make(map[key]bin)
	for _, o := range p.Observations() {
		label := utils.CeilTime(o.Time, freq)
		k := key{label: label.UnixNano(), col: o.Column}

		if prev, found := latest[k]; found && o.Time.Before(prev.seen) {
			continue
		}

		latest[k] = bin{label: label, seen: o.Time, value: o.Value}
	}

	obs := make([]eventmodels.Observation, 0, len(latest))
	for k, b := range latest {
		obs = append(obs, eventmodels.Observation{Time: b.label, Column: k.col, Value: b.value})
	}

	out := eventmodels.PanelFromObservations(obs)
	return out.Reindex(out.Index, p.Columns)
}

// LogReturns computes scale * (ln p[t] - ln p[t-1]) row over row. A return
// is missing when either price is missing.
func LogReturns(p *eventmodels.Panel, scale float64) *eventmodels.Panel {
	out := eventmodels.NewPanel(p.Index, p.Columns)
	for i := 1; i < len(p.Values); i++ {
		for j := range p.Columns {
			prev, cur := p.Values[i-1][j], p.Values[i][j]
			if math.IsNaN(prev) || math.IsNaN(cur) || prev <= 0 || cur <= 0 {
				continue
			}

			out.Values[i][j] = scale * (math.Log(cur) - math.Log(prev))
		}
	}

	return out
}

// ShiftWallClock moves every timestamp by d and then reads the resulting wall
// clock as a time in loc.
func ShiftWallClock(p *eventmodels.Panel, d time.Duration, loc *time.Location) *eventmodels.Panel {
	var obs []eventmodels.Observation
	for _, o := range p.Observations() {
		t := o.Time.Add(d)
		o.Time = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
		obs = append(obs, o)
	}

	out := eventmodels.PanelFromObservations(obs)
	return out.Reindex(out.Index, p.Columns)
}

func lowerColumns(p *eventmodels.Panel) *eventmodels.Panel {
	return p.RenameColumns(strings.ToLower)
}
