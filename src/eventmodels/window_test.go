package eventmodels

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindow(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		w, err := ParseWindow("-4, 8")
		require.NoError(t, err)
		assert.Equal(t, Window{Start: -4, End: 8}, w)
		assert.Equal(t, "(-4, 8)", w.String())
		assert.Len(t, w.Periods(), 13)
	})

	t.Run("window must contain zero", func(t *testing.T) {
		_, err := ParseWindow("1,8")
		assert.ErrorIs(t, err, InvalidWindowErr)

		_, err = ParseWindow("-4,-1")
		assert.ErrorIs(t, err, InvalidWindowErr)
	})

	t.Run("window needs two values", func(t *testing.T) {
		_, err := ParseWindow("-4")
		assert.Error(t, err)
	})
}

func TestRateCuts(t *testing.T) {
	cuts := RateCuts{
		{Time: bar(4), Currency: "gbp", Bps: -50},
		{Time: bar(1), Currency: "eur", Bps: -10},
		{Time: bar(1), Currency: "aud", Bps: -25},
	}

	t.Run("sort by time then currency", func(t *testing.T) {
		sorted := append(RateCuts(nil), cuts...)
		sorted.Sort()

		assert.Equal(t, "aud", sorted[0].Currency)
		assert.Equal(t, "eur", sorted[1].Currency)
		assert.Equal(t, "gbp", sorted[2].Currency)
	})

	t.Run("currencies and filter", func(t *testing.T) {
		assert.Equal(t, []string{"aud", "eur", "gbp"}, cuts.Currencies())
		assert.Len(t, cuts.Filter(nil), 3)
		assert.Len(t, cuts.Filter([]string{"eur", "jpy"}), 1)
	})

	t.Run("panel of cut sizes", func(t *testing.T) {
		p := cuts.ToPanel()
		assert.Equal(t, []time.Time{bar(1), bar(4)}, p.Index)
		assert.Equal(t, -25.0, p.At(bar(1), "aud"))
		assert.Equal(t, -50.0, p.At(bar(4), "gbp"))
	})
}

func TestParseCsvTime(t *testing.T) {
	zurich, err := time.LoadLocation("Europe/Zurich")
	require.NoError(t, err)

	t.Run("wall clock times are read in the location", func(t *testing.T) {
		got, err := ParseCsvTime("2020-03-16 09:15:00", zurich)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2020, time.March, 16, 9, 15, 0, 0, zurich)))
	})

	t.Run("offsets are honoured", func(t *testing.T) {
		got, err := ParseCsvTime("2020-03-16T08:15:00Z", zurich)
		require.NoError(t, err)
		assert.True(t, got.Equal(time.Date(2020, time.March, 16, 9, 15, 0, 0, zurich)))
		assert.Equal(t, zurich, got.Location())
	})

	t.Run("unknown layouts fail", func(t *testing.T) {
		_, err := ParseCsvTime("16/03/2020", zurich)
		assert.Error(t, err)
	})

	t.Run("spot quote dto", func(t *testing.T) {
		dto := &SpotQuoteCsvDTO{Time: "2020-03-16 09:15", Currency: " EUR ", Price: 1.1}
		obs, err := dto.ToModel(zurich)
		require.NoError(t, err)
		assert.Equal(t, "eur", obs.Column)

		back := NewSpotQuoteCsvDTO(obs)
		assert.Equal(t, "2020-03-16T09:15:00+01:00", back.Time)
	})
}

func TestLoadStudyConfig(t *testing.T) {
	write := func(t *testing.T, body string) string {
		path := filepath.Join(t.TempDir(), "study.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := write(t, `
dataDir: /data
events: measures.csv
currencies: [EUR, " gbp"]
window:
  start: -2
  end: 4
eventDateIndex: 0
sources:
  csv:
    - path: spot.csv
bootstrap:
  replications: 50
`)

		cfg, err := LoadStudyConfig(path)
		require.NoError(t, err)

		assert.Equal(t, Window{Start: -2, End: 4}, cfg.Window)
		assert.Equal(t, 0, cfg.EventDateIndex)
		assert.Equal(t, []string{"eur", "gbp"}, cfg.Currencies)
		assert.Equal(t, 50, cfg.Bootstrap.Replications)
		assert.Equal(t, 0.9, cfg.Bootstrap.Confidence)
		assert.Equal(t, "Europe/Zurich", cfg.Timezone)
		assert.Equal(t, "/data/measures.csv", cfg.ResolvePath(cfg.EventsPath))
		assert.Equal(t, "/abs/x.csv", cfg.ResolvePath("/abs/x.csv"))
	})

	t.Run("a data source is required", func(t *testing.T) {
		_, err := LoadStudyConfig(write(t, "events: measures.csv\n"))
		assert.ErrorIs(t, err, NoDataSourceErr)
	})

	t.Run("invalid event date index", func(t *testing.T) {
		_, err := LoadStudyConfig(write(t, "eventDateIndex: 2\nsources:\n  csv:\n    - path: a.csv\n"))
		assert.ErrorIs(t, err, InvalidEventDateIndexErr)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStudyConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
