package eventservices

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/jiaming2012/mp-fx-covid19/src/datafeed"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/eventpubsub"
	"github.com/jiaming2012/mp-fx-covid19/src/eventstudy"
)

// StudyInputs is everything an event study run needs, loaded once.
type StudyInputs struct {
	Location *time.Location
	Prices   *eventmodels.Panel
	Returns  *eventmodels.Panel
	Cuts     eventmodels.RateCuts
}

func LoadStudyInputs(ctx context.Context, cfg *eventmodels.StudyConfigYAML) (*StudyInputs, error) {
	ctx, span := otel.Tracer("eventservices").Start(ctx, "LoadStudyInputs")
	defer span.End()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("LoadStudyInputs: error loading location: %w", err)
	}

	var cache *datafeed.Cache
	if cfg.CacheDir != "" {
		cache = datafeed.NewCache(cfg.CacheDir, loc)
	}

	prices, err := datafeed.LoadFX(ctx, cfg, cache, loc)
	if err != nil {
		return nil, fmt.Errorf("LoadStudyInputs: %w", err)
	}

	eventpubsub.Publish(eventpubsub.DataLoadedEvent, eventpubsub.DataLoaded{
		Source:  "fx",
		Rows:    prices.Len(),
		Columns: len(prices.Columns),
	})

	cuts, err := datafeed.LoadEvents(cfg.ResolvePath(cfg.EventsPath), loc)
	if err != nil {
		return nil, fmt.Errorf("LoadStudyInputs: %w", err)
	}

	return &StudyInputs{
		Location: loc,
		Prices:   prices,
		Returns:  datafeed.LogReturns(prices, cfg.ReturnScale),
		Cuts:     datafeed.AlignToBars(cuts, datafeed.BarInterval),
	}, nil
}

type StudyParams struct {
	Currencies     []string
	Window         eventmodels.Window
	EventDateIndex int
}

// BuildEventStudy restricts the inputs to the requested currencies and drops
// the cuts that fall outside the return index before setting up the study.
func BuildEventStudy(inputs *StudyInputs, params StudyParams) (*eventstudy.EventStudy, error) {
	cuts := inputs.Cuts.Filter(params.Currencies)

	var aligned eventmodels.RateCuts
	for _, c := range cuts {
		if inputs.Returns.RowIndex(c.Time) < 0 || !inputs.Returns.HasColumn(c.Currency) {
			log.Warnf("BuildEventStudy: dropping %s cut at %v, no matching data", c.Currency, c.Time)
			continue
		}

		aligned = append(aligned, c)
	}

	if len(aligned) == 0 {
		return nil, fmt.Errorf("BuildEventStudy: no rate cuts for %v: %w", params.Currencies, eventmodels.UnknownCurrencyErr)
	}

	data := inputs.Returns
	if len(params.Currencies) > 0 {
		data = data.Select(params.Currencies)
	}

	study, err := eventstudy.NewEventStudy(data, aligned.ToPanel(), params.Window, params.EventDateIndex)
	if err != nil {
		return nil, fmt.Errorf("BuildEventStudy: %w", err)
	}

	return study, nil
}

// ExportStudy writes the pivot and, when given, the bootstrap bands as CSV
// files named after the run id. It returns the written paths.
func ExportStudy(outDir, runID string, pivot *eventstudy.PivotTable, result *eventstudy.BootstrapResult) ([]string, error) {
	var pivotRows []*eventmodels.PivotRowCsvDTO
	for i, period := range pivot.Periods {
		for k, col := range pivot.Columns {
			pivotRows = append(pivotRows, &eventmodels.PivotRowCsvDTO{
				Period:    period,
				Asset:     col.Asset,
				EventTime: col.EventTime.Format(time.RFC3339),
				Value:     pivot.Values[i][k],
			})
		}
	}

	pivotPath := filepath.Join(outDir, fmt.Sprintf("pivot-%s.csv", runID))
	if err := datafeed.WriteCsv(pivotPath, pivotRows); err != nil {
		return nil, fmt.Errorf("ExportStudy: %w", err)
	}

	paths := []string{pivotPath}

	if result != nil {
		var bandRows []*eventmodels.BootstrapBandCsvDTO
		for _, b := range result.Bands {
			bandRows = append(bandRows, &eventmodels.BootstrapBandCsvDTO{
				Period:   b.Period,
				Observed: b.Observed,
				Lower:    b.Lower,
				Median:   b.Median,
				Upper:    b.Upper,
				PValue:   b.PValue,
			})
		}

		bandsPath := filepath.Join(outDir, fmt.Sprintf("bands-%s.csv", runID))
		if err := datafeed.WriteCsv(bandsPath, bandRows); err != nil {
			return nil, fmt.Errorf("ExportStudy: %w", err)
		}

		paths = append(paths, bandsPath)
	}

	for _, p := range paths {
		log.Infof("Exported %s", p)
	}

	return paths, nil
}
