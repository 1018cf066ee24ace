package datafeed

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

// DefaultEikonShift re-expresses Eikon quotes, snapped at GMT+1, as Zurich
// wall clock times.
const DefaultEikonShift = -1 * time.Hour

func workbookSheets(src eventmodels.WorkbookSourceYAML, defaultData string) WorkbookSheets {
	sheets := WorkbookSheets{
		DataSheet:     src.DataSheet,
		ColnamesSheet: src.ColnamesSheet,
		MetaSheet:     src.MetaSheet,
		SkipRows:      src.SkipRows,
	}

	if sheets.DataSheet == "" {
		sheets.DataSheet = defaultData
	}

	if sheets.ColnamesSheet == "" {
		sheets.ColnamesSheet = "colnames"
	}

	if sheets.MetaSheet == "" {
		sheets.MetaSheet = "iso"
	}

	return sheets
}

func loadWorkbookQuotes(path string, sheets WorkbookSheets, loc *time.Location) (*eventmodels.Panel, error) {
	indirect, err := ReadCurrencyMetaSheet(path, sheets.MetaSheet)
	if err != nil {
		return nil, err
	}

	data, err := ParseBloombergWorkbook(path, sheets, loc)
	if err != nil {
		return nil, err
	}

	return FlipIndirectQuotes(data, indirect), nil
}

// LoadBloomberg parses every workbook part, converts quotes to USD per unit
// of currency and stamps each bar with the end of its 15 minute period in
// Zurich time. Later parts overwrite earlier ones where they have values.
func LoadBloomberg(parts []eventmodels.WorkbookSourceYAML, loc *time.Location) (*eventmodels.Panel, error) {
	var panels []*eventmodels.Panel
	for _, part := range parts {
		data, err := loadWorkbookQuotes(part.Path, workbookSheets(part, "spot"), loc)
		if err != nil {
			return nil, fmt.Errorf("LoadBloomberg: %w", err)
		}

		data = StampPeriodEnd(lowerColumns(data), BarInterval, loc)
		panels = append(panels, data)

		log.WithField("path", part.Path).Infof("Loaded %d bloomberg rows", data.Len())
	}

	if len(panels) == 0 {
		return eventmodels.NewPanel(nil, nil), nil
	}

	res := panels[0].Reindex(eventmodels.UnionIndex(panels...), panels[0].Columns)
	for _, p := range panels[1:] {
		res.Update(p)
	}

	return res, nil
}

// LoadEikon parses an Eikon workbook. Its wall clock times are shifted by
// shift and then read as Zurich times.
func LoadEikon(src eventmodels.WorkbookSourceYAML, shift time.Duration, loc *time.Location) (*eventmodels.Panel, error) {
	data, err := loadWorkbookQuotes(src.Path, workbookSheets(src, "data"), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("LoadEikon: %w", err)
	}

	data = ShiftWallClock(lowerColumns(data), shift, loc)

	log.WithField("path", src.Path).Infof("Loaded %d eikon rows", data.Len())

	return data, nil
}

// MergeFX keeps the primary source and fills its holes from the secondary
// one over the union of both indexes and columns.
func MergeFX(primary, secondary *eventmodels.Panel) *eventmodels.Panel {
	switch {
	case primary == nil:
		return secondary
	case secondary == nil:
		return primary
	}

	res := primary.Reindex(
		eventmodels.UnionIndex(primary, secondary),
		eventmodels.UnionColumns(primary, secondary),
	)
	res.FillNA(secondary)

	return res
}

// LoadFX loads spot quotes from every configured source, indexed by Zurich
// time and columned by lower case iso codes. Eikon quotes are resampled to
// 15 minutes and take precedence over Bloomberg; CSV sources fill what is
// left.
func LoadFX(ctx context.Context, cfg *eventmodels.StudyConfigYAML, cache *Cache, loc *time.Location) (*eventmodels.Panel, error) {
	_, span := otel.Tracer("datafeed").Start(ctx, "LoadFX")
	defer span.End()

	var res *eventmodels.Panel

	if cfg.Sources.Eikon != nil {
		src := *cfg.Sources.Eikon
		src.Path = cfg.ResolvePath(src.Path)

		shift := DefaultEikonShift
		if cfg.Sources.EikonShiftHours != nil {
			shift = time.Duration(*cfg.Sources.EikonShiftHours) * time.Hour
		}

		eikon, err := cache.Panel(fmt.Sprintf("eikon%s", shift), []string{src.Path}, func() (*eventmodels.Panel, error) {
			return LoadEikon(src, shift, loc)
		})
		if err != nil {
			return nil, fmt.Errorf("LoadFX: %w", err)
		}

		res = ResampleLast(eikon, BarInterval)
	}

	if len(cfg.Sources.Bloomberg) > 0 {
		parts := make([]eventmodels.WorkbookSourceYAML, len(cfg.Sources.Bloomberg))
		var paths []string
		for i, part := range cfg.Sources.Bloomberg {
			part.Path = cfg.ResolvePath(part.Path)
			parts[i] = part
			paths = append(paths, part.Path)
		}

		bloomberg, err := cache.Panel("bloomberg", paths, func() (*eventmodels.Panel, error) {
			return LoadBloomberg(parts, loc)
		})
		if err != nil {
			return nil, fmt.Errorf("LoadFX: %w", err)
		}

		res = MergeFX(res, bloomberg)
	}

	for _, src := range cfg.Sources.Csv {
		path := cfg.ResolvePath(src.Path)
		sources := []string{path}
		if src.MetaPath != "" {
			sources = append(sources, cfg.ResolvePath(src.MetaPath))
		}

		data, err := cache.Panel("csv", sources, func() (*eventmodels.Panel, error) {
			return loadCsvQuotes(path, cfg.ResolvePath(src.MetaPath), loc)
		})
		if err != nil {
			return nil, fmt.Errorf("LoadFX: %w", err)
		}

		res = MergeFX(res, data)
	}

	if res == nil {
		return nil, fmt.Errorf("LoadFX: %w", eventmodels.NoDataSourceErr)
	}

	res = res.In(loc)

	span.SetAttributes(attribute.Int("rows", res.Len()), attribute.Int("columns", len(res.Columns)))
	log.Infof("Loaded fx data: %d rows, %d currencies", res.Len(), len(res.Columns))

	return res, nil
}

func loadCsvQuotes(path, metaPath string, loc *time.Location) (*eventmodels.Panel, error) {
	data, err := LoadSpotCSV(path, loc)
	if err != nil {
		return nil, err
	}

	if metaPath != "" {
		indirect, err := ReadCurrencyMetaCsv(metaPath)
		if err != nil {
			return nil, err
		}

		data = FlipIndirectQuotes(data, indirect)
	}

	return ResampleLast(data, BarInterval), nil
}
