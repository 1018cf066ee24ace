package run

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mp-fx-covid19/src/datafeed"
	"github.com/jiaming2012/mp-fx-covid19/src/descriptives"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

type RunArgs struct {
	EventsPath string
	Location   *time.Location
	Currencies []string
	HTML       bool
	// Config, when set, also reports the availability of its FX data.
	Config *eventmodels.StudyConfigYAML
	Out    io.Writer
}

func Run(ctx context.Context, args RunArgs) error {
	cuts, err := datafeed.LoadEvents(args.EventsPath, args.Location)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	cuts = cuts.Filter(args.Currencies)

	first, last := descriptives.FirstAndLast(cuts)
	log.Infof("%d rate cuts from %v to %v", len(cuts), first, last)

	if args.HTML {
		html, err := descriptives.DescribeEvents(cuts)
		if err != nil {
			return fmt.Errorf("Run: %w", err)
		}

		if _, err := io.WriteString(args.Out, html); err != nil {
			return fmt.Errorf("Run: failed to write html: %w", err)
		}
	} else {
		descriptives.RenderEventsTable(args.Out, cuts)
	}

	if args.Config == nil {
		return nil
	}

	var cache *datafeed.Cache
	if args.Config.CacheDir != "" {
		cache = datafeed.NewCache(args.Config.CacheDir, args.Location)
	}

	prices, err := datafeed.LoadFX(ctx, args.Config, cache, args.Location)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	fmt.Fprintln(args.Out)
	descriptives.RenderAvailability(args.Out, descriptives.AvailabilityMap(prices))

	if len(args.Config.Sources.Stocks) == 0 {
		return nil
	}

	var sources []eventmodels.StockSourceYAML
	for _, src := range args.Config.Sources.Stocks {
		src.Path = args.Config.ResolvePath(src.Path)
		src.MetaPath = args.Config.ResolvePath(src.MetaPath)
		sources = append(sources, src)
	}

	stocks, err := datafeed.LoadStockData(sources, args.Location)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	for _, src := range sources {
		fmt.Fprintf(args.Out, "\nstocks: %s\n", src.Group)
		descriptives.RenderAvailability(args.Out, descriptives.AvailabilityMap(stocks[src.Group]))
	}

	return nil
}
