package datafeed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

// WorkbookSheets describes the layout of a vendor workbook: a data sheet
// whose first column holds timestamps, a sheet listing the names of the
// remaining data columns in its first row, and an optional meta sheet.
type WorkbookSheets struct {
	DataSheet     string
	ColnamesSheet string
	MetaSheet     string
	SkipRows      int
}

// ParseBloombergWorkbook reads a vendor export into a panel. Timestamps are
// read as wall clock times in loc. Blank or "#N/A" cells are missing.
func ParseBloombergWorkbook(path string, sheets WorkbookSheets, loc *time.Location) (*eventmodels.Panel, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ParseBloombergWorkbook: failed to open %s: %w", path, err)
	}
	defer f.Close()

	names, err := readColumnNames(f, sheets.ColnamesSheet)
	if err != nil {
		return nil, fmt.Errorf("ParseBloombergWorkbook: %s: %w", path, err)
	}

	rows, err := readSheetRows(f, sheets.DataSheet)
	if err != nil {
		return nil, fmt.Errorf("ParseBloombergWorkbook: %s: %w", path, err)
	}

	var obs []eventmodels.Observation
	for i, row := range rows {
		if i < sheets.SkipRows || len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		t, err := parseWorkbookTime(row[0], loc)
		if err != nil {
			return nil, fmt.Errorf("ParseBloombergWorkbook: %s row %d: %w", path, i+1, err)
		}

		for j, cell := range row[1:] {
			if j >= len(names) {
				break
			}

			if names[j] == "" {
				continue
			}

			if v, ok := utils.ParseFloatCell(cell); ok {
				obs = append(obs, eventmodels.Observation{Time: t, Column: names[j], Value: v})
			}
		}
	}

	var columns []string
	for _, name := range names {
		if name != "" {
			columns = append(columns, name)
		}
	}

	panel := eventmodels.PanelFromObservations(obs)
	return panel.Reindex(panel.Index, columns), nil
}

// ReadCurrencyMetaSheet returns the set of columns quoted as USDXXX. The
// sheet has the currency in its first column and a "usdxxx" flag column.
func ReadCurrencyMetaSheet(path, sheet string) (map[string]bool, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ReadCurrencyMetaSheet: failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := readSheetRows(f, sheet)
	if err != nil {
		return nil, fmt.Errorf("ReadCurrencyMetaSheet: %s: %w", path, err)
	}

	if len(rows) == 0 {
		return map[string]bool{}, nil
	}

	flagCol := headerIndex(rows[0], "usdxxx")
	if flagCol < 0 {
		return nil, fmt.Errorf("ReadCurrencyMetaSheet: %s: missing usdxxx column", path)
	}

	indirect := make(map[string]bool)
	for _, row := range rows[1:] {
		if len(row) <= flagCol || strings.TrimSpace(row[0]) == "" {
			continue
		}

		if v, ok := utils.ParseFloatCell(row[flagCol]); ok && v != 0 {
			indirect[strings.ToLower(strings.TrimSpace(row[0]))] = true
		}
	}

	return indirect, nil
}

// ReadPolicyMeasuresWorkbook reads one sheet per currency, each with the
// announcement time in the first column and a "comment" column.
func ReadPolicyMeasuresWorkbook(path string, loc *time.Location) ([]eventmodels.PolicyMeasureCsvDTO, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("ReadPolicyMeasuresWorkbook: failed to open %s: %w", path, err)
	}
	defer f.Close()

	var out []eventmodels.PolicyMeasureCsvDTO
	for _, sheet := range f.GetSheetList() {
		rows, err := readSheetRows(f, sheet)
		if err != nil {
			return nil, fmt.Errorf("ReadPolicyMeasuresWorkbook: %s: %w", path, err)
		}

		if len(rows) == 0 {
			continue
		}

		commentCol := headerIndex(rows[0], "comment")
		if commentCol < 0 {
			continue
		}

		for i, row := range rows[1:] {
			if len(row) <= commentCol || strings.TrimSpace(row[0]) == "" {
				continue
			}

			t, err := parseWorkbookTime(row[0], loc)
			if err != nil {
				return nil, fmt.Errorf("ReadPolicyMeasuresWorkbook: %s sheet %s row %d: %w", path, sheet, i+2, err)
			}

			out = append(out, eventmodels.PolicyMeasureCsvDTO{
				Time:     t.Format(time.RFC3339),
				Currency: strings.ToLower(strings.TrimSpace(sheet)),
				Comment:  row[commentCol],
			})
		}
	}

	return out, nil
}

func readSheetRows(f *excelize.File, sheet string) ([][]string, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("%s: %w", sheet, eventmodels.MissingSheetErr)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	return rows, nil
}

func readColumnNames(f *excelize.File, sheet string) ([]string, error) {
	rows, err := readSheetRows(f, sheet)
	if err != nil {
		return nil, err
	}

	// Names stay at their cell position; a blank cell leaves an empty name
	// so later names keep lining up with their data columns.
	for _, row := range rows {
		names := make([]string, len(row))
		found := false
		for j, cell := range row {
			names[j] = strings.ToLower(strings.TrimSpace(cell))
			found = found || names[j] != ""
		}

		if found {
			return names, nil
		}
	}

	return nil, fmt.Errorf("no column names in sheet %s", sheet)
}

func headerIndex(header []string, name string) int {
	for i, cell := range header {
		if strings.EqualFold(strings.TrimSpace(cell), name) {
			return i
		}
	}

	return -1
}

// parseWorkbookTime accepts Excel serial dates as well as formatted text.
func parseWorkbookTime(cell string, loc *time.Location) (time.Time, error) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return eventmodels.ParseCsvTime(cell, loc)
	}

	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("parseWorkbookTime: %w", err)
	}

	t = t.Round(time.Second)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
}
