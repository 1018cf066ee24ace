package run

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jiaming2012/mp-fx-covid19/src/descriptives"
	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/eventpubsub"
	"github.com/jiaming2012/mp-fx-covid19/src/eventservices"
	"github.com/jiaming2012/mp-fx-covid19/src/eventstudy"
)

type RunArgs struct {
	Config        *eventmodels.StudyConfigYAML
	RunID         uuid.UUID
	SkipBootstrap bool
	DB            *gorm.DB
	Out           io.Writer
}

func logProgress(p eventpubsub.BootstrapProgress) {
	step := p.Replications / 10
	if step == 0 {
		step = 1
	}

	if p.Completed%step == 0 || p.Completed == p.Replications {
		log.WithField("run_id", p.RunID).Infof("bootstrap: %d/%d", p.Completed, p.Replications)
	}
}

func Run(ctx context.Context, args RunArgs) error {
	cfg := args.Config

	eventpubsub.Init()
	if err := eventpubsub.Subscribe(eventpubsub.BootstrapReplicationDoneEvent, logProgress); err != nil {
		return fmt.Errorf("Run: failed to subscribe: %w", err)
	}
	defer eventpubsub.Unsubscribe(eventpubsub.BootstrapReplicationDoneEvent, logProgress)

	inputs, err := eventservices.LoadStudyInputs(ctx, cfg)
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	log.Infof("Loaded %d bars for %d currencies and %d rate cuts", inputs.Prices.Len(), len(inputs.Prices.Columns), len(inputs.Cuts))

	study, err := eventservices.BuildEventStudy(inputs, eventservices.StudyParams{
		Currencies:     cfg.Currencies,
		Window:         cfg.Window,
		EventDateIndex: cfg.EventDateIndex,
	})
	if err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	fmt.Fprintf(args.Out, "Event study %s, window %s, event date index %d\n", args.RunID, cfg.Window, cfg.EventDateIndex)
	descriptives.RenderEventCounts(args.Out, study)

	pivot := study.Pivot()
	if cfg.Cumulative {
		pivot = pivot.Cumulate(study.BasePeriod())
	}

	var result *eventstudy.BootstrapResult
	if !args.SkipBootstrap {
		opts := eventstudy.BootstrapOptions{
			RunID:        args.RunID.String(),
			Replications: cfg.Bootstrap.Replications,
			BlockSize:    cfg.Bootstrap.BlockSize,
			Confidence:   cfg.Bootstrap.Confidence,
			Seed:         cfg.Bootstrap.Seed,
			Workers:      cfg.Bootstrap.Workers,
			Cumulative:   cfg.Cumulative,
		}

		result, err = eventstudy.RunBootstrapTest(ctx, study, opts)
		if err != nil {
			return fmt.Errorf("Run: %w", err)
		}

		descriptives.RenderBands(args.Out, result)

		if args.DB != nil {
			if err := eventservices.SaveStudyRun(args.DB, eventservices.NewStudyRunRecord(args.RunID, study, opts, result)); err != nil {
				return fmt.Errorf("Run: %w", err)
			}
			log.Infof("stored run %s", args.RunID)
		}
	}

	if _, err := eventservices.ExportStudy(cfg.OutDir, args.RunID.String(), pivot, result); err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	eventpubsub.WaitAsync()

	return nil
}
