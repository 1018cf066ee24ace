package eventmodels

import (
	"sort"
	"time"
)

// RateCut is a policy-rate cut announced by a central bank. Bps is negative
// for cuts, e.g. -50 for a 50 basis point cut.
type RateCut struct {
	Time     time.Time `json:"time"`
	Currency string    `json:"currency"`
	Bps      float64   `json:"bps"`
	Comment  string    `json:"comment"`
}

type RateCuts []RateCut

func (cuts RateCuts) Sort() {
	sort.SliceStable(cuts, func(i, j int) bool {
		if cuts[i].Time.Equal(cuts[j].Time) {
			return cuts[i].Currency < cuts[j].Currency
		}
		return cuts[i].Time.Before(cuts[j].Time)
	})
}

func (cuts RateCuts) Currencies() []string {
	var out []string
	for _, c := range cuts {
		out = append(out, c.Currency)
	}

	return sortedUniqueStrings(out)
}

// Filter keeps the cuts of the given currencies. An empty list keeps all.
func (cuts RateCuts) Filter(currencies []string) RateCuts {
	if len(currencies) == 0 {
		return cuts
	}

	keep := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		keep[c] = true
	}

	var out RateCuts
	for _, c := range cuts {
		if keep[c.Currency] {
			out = append(out, c)
		}
	}

	return out
}

// ToPanel lays the cuts out as a time x currency panel of cut sizes.
func (cuts RateCuts) ToPanel() *Panel {
	obs := make([]Observation, 0, len(cuts))
	for _, c := range cuts {
		obs = append(obs, Observation{Time: c.Time, Column: c.Currency, Value: c.Bps})
	}

	return PanelFromObservations(obs)
}
