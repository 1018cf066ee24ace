package datafeed

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

const (
	StockGroupMSCI  = "msci"
	StockGroupOther = "other"
)

// LoadStockData reads intraday stock index quotes per group. Tickers are
// renamed through the meta file; MSCI tickers are kept only when both meta
// name fields agree. Every group is resampled to 15 minutes, stripped of
// empty rows and stamped at the end of each period in Zurich time.
func LoadStockData(sources []eventmodels.StockSourceYAML, loc *time.Location) (map[string]*eventmodels.Panel, error) {
	res := make(map[string]*eventmodels.Panel, len(sources))

	for _, src := range sources {
		meta, err := ReadStockMetaCsv(src.MetaPath)
		if err != nil {
			return nil, fmt.Errorf("LoadStockData: %w", err)
		}

		names := make(map[string]string, len(meta))
		for _, m := range meta {
			if src.Group == StockGroupMSCI && !strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(m.NameCheck)) {
				continue
			}

			names[strings.TrimSpace(m.Ticker)] = strings.ToLower(strings.TrimSpace(m.Name))
		}

		data, err := LoadStockCSV(src.Path, loc)
		if err != nil {
			return nil, fmt.Errorf("LoadStockData: %w", err)
		}

		var keep []string
		for _, col := range data.Columns {
			if _, found := names[col]; found || src.Group != StockGroupMSCI {
				keep = append(keep, col)
			}
		}

		data = data.Select(keep).RenameColumns(func(ticker string) string {
			if name, found := names[ticker]; found {
				return name
			}
			return strings.ToLower(ticker)
		})

		data = StampPeriodEnd(data, BarInterval, loc).DropEmptyRows()

		log.WithField("group", src.Group).Infof("Loaded %d stock rows, %d series", data.Len(), len(data.Columns))

		res[src.Group] = data
	}

	return res, nil
}
