package datafeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

func init() {
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.TrimLeadingSpace = true
		r.FieldsPerRecord = -1
		return r
	})
}

func readCsvFile[T any](path string) ([]*T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*T
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("error unmarshalling %s: %w", path, err)
	}

	return rows, nil
}

// LoadSpotCSV reads a long-format spot file (time,currency,price). Times
// without an offset are read in loc.
func LoadSpotCSV(path string, loc *time.Location) (*eventmodels.Panel, error) {
	rows, err := readCsvFile[eventmodels.SpotQuoteCsvDTO](path)
	if err != nil {
		return nil, fmt.Errorf("LoadSpotCSV: %w", err)
	}

	obs := make([]eventmodels.Observation, 0, len(rows))
	for _, dto := range rows {
		o, err := dto.ToModel(loc)
		if err != nil {
			return nil, fmt.Errorf("LoadSpotCSV: %s: %w", path, err)
		}

		obs = append(obs, o)
	}

	return eventmodels.PanelFromObservations(obs), nil
}

// ReadCurrencyMetaCsv returns the set of currencies quoted as USDXXX.
func ReadCurrencyMetaCsv(path string) (map[string]bool, error) {
	rows, err := readCsvFile[eventmodels.CurrencyMetaCsvDTO](path)
	if err != nil {
		return nil, fmt.Errorf("ReadCurrencyMetaCsv: %w", err)
	}

	indirect := make(map[string]bool)
	for _, row := range rows {
		if row.UsdXxx != 0 {
			indirect[strings.ToLower(strings.TrimSpace(row.Iso))] = true
		}
	}

	return indirect, nil
}

func ReadPolicyMeasuresCsv(path string) ([]eventmodels.PolicyMeasureCsvDTO, error) {
	rows, err := readCsvFile[eventmodels.PolicyMeasureCsvDTO](path)
	if err != nil {
		return nil, fmt.Errorf("ReadPolicyMeasuresCsv: %w", err)
	}

	out := make([]eventmodels.PolicyMeasureCsvDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}

	return out, nil
}

func ReadStockMetaCsv(path string) ([]eventmodels.StockMetaCsvDTO, error) {
	rows, err := readCsvFile[eventmodels.StockMetaCsvDTO](path)
	if err != nil {
		return nil, fmt.Errorf("ReadStockMetaCsv: %w", err)
	}

	out := make([]eventmodels.StockMetaCsvDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}

	return out, nil
}

func LoadStockCSV(path string, loc *time.Location) (*eventmodels.Panel, error) {
	rows, err := readCsvFile[eventmodels.StockQuoteCsvDTO](path)
	if err != nil {
		return nil, fmt.Errorf("LoadStockCSV: %w", err)
	}

	obs := make([]eventmodels.Observation, 0, len(rows))
	for _, row := range rows {
		t, err := eventmodels.ParseCsvTime(row.Time, loc)
		if err != nil {
			return nil, fmt.Errorf("LoadStockCSV: %s: %w", path, err)
		}

		obs = append(obs, eventmodels.Observation{Time: t, Column: strings.TrimSpace(row.Ticker), Value: row.Price})
	}

	return eventmodels.PanelFromObservations(obs), nil
}

// WriteCsv marshals rows into path, creating its directory if needed.
func WriteCsv[T any](path string, rows []*T) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("WriteCsv: failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("WriteCsv: failed to create file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("WriteCsv: failed to write to file: %w", err)
	}

	return nil
}

// WriteSpotCSV exports a panel in the long format read by LoadSpotCSV.
func WriteSpotCSV(path string, p *eventmodels.Panel) error {
	var rows []*eventmodels.SpotQuoteCsvDTO
	for _, o := range p.Observations() {
		rows = append(rows, eventmodels.NewSpotQuoteCsvDTO(o))
	}

	return WriteCsv(path, rows)
}
