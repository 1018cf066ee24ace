package eventmodels

import (
	"fmt"

	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

// Window holds the first and the last period, relative to the event, that
// an event study looks at, e.g. {-4, 8}.
type Window struct {
	Start int `yaml:"start" json:"start"`
	End   int `yaml:"end" json:"end"`
}

func (w Window) Validate() error {
	if w.Start > 0 || w.End < 0 {
		return fmt.Errorf("Window.Validate: (%d, %d): %w", w.Start, w.End, InvalidWindowErr)
	}

	return nil
}

func (w Window) Periods() []int {
	periods := make([]int, 0, w.End-w.Start+1)
	for p := w.Start; p <= w.End; p++ {
		periods = append(periods, p)
	}

	return periods
}

func (w Window) String() string {
	return fmt.Sprintf("(%d, %d)", w.Start, w.End)
}

// ParseWindow parses a comma separated pair such as "-4,8".
func ParseWindow(s string) (Window, error) {
	vals, err := utils.AtoiSlice(s)
	if err != nil {
		return Window{}, fmt.Errorf("ParseWindow: %w", err)
	}

	if len(vals) != 2 {
		return Window{}, fmt.Errorf("ParseWindow: expected two values, found %d", len(vals))
	}

	w := Window{Start: vals[0], End: vals[1]}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}

	return w, nil
}
