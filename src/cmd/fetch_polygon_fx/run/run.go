package run

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mp-fx-covid19/src/datafeed"
)

type RunArgs struct {
	ApiKey   string
	Pairs    []datafeed.CurrencyPair
	StartsAt time.Time
	EndsAt   time.Time
	Location *time.Location
	OutPath  string
}

func Run(ctx context.Context, args RunArgs) error {
	if !args.StartsAt.Before(args.EndsAt) {
		return fmt.Errorf("Run: starts-at %v must be before ends-at %v", args.StartsAt, args.EndsAt)
	}

	fetcher := datafeed.NewPolygonFxFetcher(args.ApiKey)

	panel, err := fetcher.FetchFX(ctx, args.Pairs, args.StartsAt, args.EndsAt, args.Location)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	if err := datafeed.WriteSpotCSV(args.OutPath, panel); err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	log.Infof("Wrote %d bars for %v to %s", panel.Len(), panel.Columns, args.OutPath)

	return nil
}
