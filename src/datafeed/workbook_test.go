package datafeed

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

type sheetRows map[string][][]interface{}

func writeWorkbook(t *testing.T, path string, sheets sheetRows) {
	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)

		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)

			values := row
			require.NoError(t, f.SetSheetRow(name, cell, &values))
		}
	}

	require.NoError(t, f.SaveAs(path))
}

func spotWorkbook(t *testing.T, path string, eur, jpy interface{}) {
	writeWorkbook(t, path, sheetRows{
		"spot": {
			{"Dates", "EUR Curncy", "JPY Curncy"},
			{time.Date(2020, time.March, 16, 9, 0, 0, 0, time.UTC), eur, jpy},
			{time.Date(2020, time.March, 16, 9, 15, 0, 0, time.UTC), "#N/A N/A", jpy},
		},
		"colnames": {
			{"EUR", "JPY"},
		},
		"iso": {
			{"iso", "usdxxx"},
			{"EUR", 0},
			{"JPY", 1},
		},
	})
}

func TestParseBloombergWorkbook(t *testing.T) {
	loc := zurich(t)
	path := filepath.Join(t.TempDir(), "bloomberg.xlsx")
	spotWorkbook(t, path, 1.1, 100)

	sheets := workbookSheets(eventmodels.WorkbookSourceYAML{SkipRows: 1}, "spot")

	t.Run("raw sheet", func(t *testing.T) {
		p, err := ParseBloombergWorkbook(path, sheets, loc)
		require.NoError(t, err)

		assert.Equal(t, []string{"eur", "jpy"}, p.Columns)
		require.Equal(t, 2, p.Len())
		assert.True(t, p.Index[0].Equal(time.Date(2020, time.March, 16, 9, 0, 0, 0, loc)))
		assert.Equal(t, 1.1, p.Values[0][0])
		assert.True(t, math.IsNaN(p.Values[1][0]))
	})

	t.Run("currency meta sheet", func(t *testing.T) {
		indirect, err := ReadCurrencyMetaSheet(path, "iso")
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"jpy": true}, indirect)
	})

	t.Run("blank column name keeps later names aligned", func(t *testing.T) {
		gapPath := filepath.Join(t.TempDir(), "gap.xlsx")
		writeWorkbook(t, gapPath, sheetRows{
			"spot": {
				{"Dates", "EUR Curncy", "XXX Curncy", "JPY Curncy"},
				{time.Date(2020, time.March, 16, 9, 0, 0, 0, time.UTC), 1.1, 7, 100},
			},
			"colnames": {
				{"EUR", "", "JPY"},
			},
		})

		p, err := ParseBloombergWorkbook(gapPath, sheets, loc)
		require.NoError(t, err)

		assert.Equal(t, []string{"eur", "jpy"}, p.Columns)
		require.Equal(t, 1, p.Len())
		assert.Equal(t, 1.1, p.Values[0][0])
		assert.Equal(t, 100.0, p.Values[0][1])
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := ParseBloombergWorkbook(path, WorkbookSheets{DataSheet: "nope", ColnamesSheet: "colnames"}, loc)
		assert.ErrorIs(t, err, eventmodels.MissingSheetErr)
	})
}

func TestLoadBloomberg(t *testing.T) {
	loc := zurich(t)
	dir := t.TempDir()

	first := filepath.Join(dir, "part1.xlsx")
	second := filepath.Join(dir, "part2.xlsx")
	spotWorkbook(t, first, 1.1, 100)
	spotWorkbook(t, second, 1.2, 200)

	p, err := LoadBloomberg([]eventmodels.WorkbookSourceYAML{
		{Path: first, SkipRows: 1},
		{Path: second, SkipRows: 1},
	}, loc)
	require.NoError(t, err)

	stamp := time.Date(2020, time.March, 16, 9, 15, 0, 0, loc)
	require.True(t, p.Index[0].Equal(stamp))
	assert.Equal(t, 1.2, p.At(stamp, "eur"))
	assert.InDelta(t, 1.0/200, p.At(stamp, "jpy"), 1e-12)

	t.Run("eikon wall clock is shifted", func(t *testing.T) {
		eikon, err := LoadEikon(eventmodels.WorkbookSourceYAML{Path: first, DataSheet: "spot", SkipRows: 1}, DefaultEikonShift, loc)
		require.NoError(t, err)

		assert.True(t, eikon.Index[0].Equal(time.Date(2020, time.March, 16, 8, 0, 0, 0, loc)))
		assert.Equal(t, 1.1, eikon.Values[0][0])
	})
}

func TestReadPolicyMeasuresWorkbook(t *testing.T) {
	loc := zurich(t)
	path := filepath.Join(t.TempDir(), "measures.xlsx")

	writeWorkbook(t, path, sheetRows{
		"USD": {
			{"date", "comment"},
			{"2020-03-03 16:00", "Fed emergency rate cut of 50bps"},
			{"2020-03-23 13:00", "Fed open-ended QE"},
		},
		"notes": {
			{"free text"},
		},
	})

	cuts, err := LoadEvents(path, loc)
	require.NoError(t, err)

	require.Len(t, cuts, 1)
	assert.Equal(t, "usd", cuts[0].Currency)
	assert.Equal(t, -50.0, cuts[0].Bps)
	assert.True(t, cuts[0].Time.Equal(time.Date(2020, time.March, 3, 16, 0, 0, 0, loc)))
}
