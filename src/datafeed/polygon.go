package datafeed

import (
	"context"
	"fmt"
	"strings"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/utils"
)

// CurrencyPair is a six letter pair such as EURUSD or USDJPY. One of the two
// legs must be USD.
type CurrencyPair struct {
	Base  string
	Quote string
}

func ParseCurrencyPair(s string) (CurrencyPair, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "C:")
	if len(s) != 6 {
		return CurrencyPair{}, fmt.Errorf("ParseCurrencyPair: %q: %w", s, eventmodels.InvalidCurrencyPairErr)
	}

	pair := CurrencyPair{Base: s[:3], Quote: s[3:]}
	if pair.Base != "USD" && pair.Quote != "USD" {
		return CurrencyPair{}, fmt.Errorf("ParseCurrencyPair: %q has no USD leg: %w", s, eventmodels.InvalidCurrencyPairErr)
	}

	if pair.Base == pair.Quote {
		return CurrencyPair{}, fmt.Errorf("ParseCurrencyPair: %q: %w", s, eventmodels.InvalidCurrencyPairErr)
	}

	return pair, nil
}

func (p CurrencyPair) Ticker() string {
	return fmt.Sprintf("C:%s%s", p.Base, p.Quote)
}

// Currency is the non-USD leg in lower case.
func (p CurrencyPair) Currency() string {
	if p.Base == "USD" {
		return strings.ToLower(p.Quote)
	}

	return strings.ToLower(p.Base)
}

// Direct converts a quote of the pair into USD per unit of the currency.
func (p CurrencyPair) Direct(price float64) float64 {
	if p.Base == "USD" {
		return 1 / price
	}

	return price
}

type FxBar struct {
	StartsAt time.Time
	Close    float64
}

// BarsToObservations stamps bars at the end of their period in loc and
// converts closes to direct quotes.
func BarsToObservations(pair CurrencyPair, bars []FxBar, loc *time.Location) []eventmodels.Observation {
	obs := make([]eventmodels.Observation, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 {
			continue
		}

		obs = append(obs, eventmodels.Observation{
			Time:   utils.PeriodEnd(b.StartsAt.In(loc), BarInterval),
			Column: pair.Currency(),
			Value:  pair.Direct(b.Close),
		})
	}

	return obs
}

type PolygonFxFetcher struct {
	Client *polygon.Client
}

func NewPolygonFxFetcher(apiKey string) *PolygonFxFetcher {
	return &PolygonFxFetcher{
		Client: polygon.New(apiKey),
	}
}

// FetchBars downloads 15 minute aggregates for the pair between from and to.
func (f *PolygonFxFetcher) FetchBars(ctx context.Context, pair CurrencyPair, from, to time.Time) ([]FxBar, error) {
	log.Debugf("fetching polygon fx data from api for %s", pair.Ticker())

	params := models.ListAggsParams{
		Ticker:     pair.Ticker(),
		Multiplier: int(BarInterval / time.Minute),
		Timespan:   models.Minute,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithOrder(models.Asc).WithLimit(50000)

	iter := f.Client.ListAggs(ctx, params)

	var bars []FxBar
	for iter.Next() {
		bars = append(bars, FxBar{
			StartsAt: time.Time(iter.Item().Timestamp),
			Close:    iter.Item().Close,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("PolygonFxFetcher.FetchBars: %s: %w", pair.Ticker(), err)
	}

	return bars, nil
}

// FetchFX downloads every pair and returns a single panel of direct quotes.
func (f *PolygonFxFetcher) FetchFX(ctx context.Context, pairs []CurrencyPair, from, to time.Time, loc *time.Location) (*eventmodels.Panel, error) {
	var obs []eventmodels.Observation
	for _, pair := range pairs {
		bars, err := f.FetchBars(ctx, pair, from, to)
		if err != nil {
			return nil, fmt.Errorf("PolygonFxFetcher.FetchFX: %w", err)
		}

		log.WithField("pair", pair.Ticker()).Infof("Fetched %d bars", len(bars))

		obs = append(obs, BarsToObservations(pair, bars, loc)...)
	}

	return eventmodels.PanelFromObservations(obs), nil
}
