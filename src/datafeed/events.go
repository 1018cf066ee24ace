package datafeed

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

var cutSizeRegex = regexp.MustCompile(`([0-9]+) ?bps`)

// ParseRateCut turns a policy measure into a rate cut. Measures whose comment
// does not mention a cut, or whose size in bps cannot be read, are skipped.
func ParseRateCut(m eventmodels.PolicyMeasureCsvDTO, loc *time.Location) (eventmodels.RateCut, bool, error) {
	if !strings.Contains(m.Comment, " cut") {
		return eventmodels.RateCut{}, false, nil
	}

	match := cutSizeRegex.FindStringSubmatch(m.Comment)
	if match == nil {
		log.Debugf("ParseRateCut: no size found in %q", m.Comment)
		return eventmodels.RateCut{}, false, nil
	}

	bps, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return eventmodels.RateCut{}, false, fmt.Errorf("ParseRateCut: %w", err)
	}

	t, err := eventmodels.ParseCsvTime(m.Time, loc)
	if err != nil {
		return eventmodels.RateCut{}, false, fmt.Errorf("ParseRateCut: %w", err)
	}

	return eventmodels.RateCut{
		Time:     t,
		Currency: strings.ToLower(strings.TrimSpace(m.Currency)),
		Bps:      -bps,
		Comment:  m.Comment,
	}, true, nil
}

// LoadEvents reads announced policy measures from a workbook (one sheet per
// currency) or a long-format CSV and keeps the rate cuts.
func LoadEvents(path string, loc *time.Location) (eventmodels.RateCuts, error) {
	var measures []eventmodels.PolicyMeasureCsvDTO
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		measures, err = ReadPolicyMeasuresCsv(path)
	default:
		measures, err = ReadPolicyMeasuresWorkbook(path, loc)
	}

	if err != nil {
		return nil, fmt.Errorf("LoadEvents: %w", err)
	}

	var cuts eventmodels.RateCuts
	for _, m := range measures {
		cut, ok, err := ParseRateCut(m, loc)
		if err != nil {
			return nil, fmt.Errorf("LoadEvents: %s: %w", path, err)
		}

		if ok {
			cuts = append(cuts, cut)
		}
	}

	cuts.Sort()

	log.WithField("path", path).Infof("Loaded %d rate cuts from %d measures", len(cuts), len(measures))

	return cuts, nil
}

// AlignToBars moves every cut onto the right-labelled bar that contains its
// announcement, so that event times match the quote index.
func AlignToBars(cuts eventmodels.RateCuts, freq time.Duration) eventmodels.RateCuts {
	out := make(eventmodels.RateCuts, len(cuts))
	for i, c := range cuts {
		c.Time = utils.CeilTime(c.Time, freq)
		out[i] = c
	}

	out.Sort()
	return out
}
