package eventstudy

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/eventpubsub"
)

type BootstrapOptions struct {
	RunID        string
	Replications int
	BlockSize    int
	Confidence   float64
	Seed         int64
	Workers      int
	Cumulative   bool
}

type BootstrapBand struct {
	Period   int
	Observed float64
	Lower    float64
	Median   float64
	Upper    float64
	PValue   float64
}

type BootstrapResult struct {
	Replications int
	Confidence   float64
	Observed     []float64
	Bands        []BootstrapBand
}

// MeanPath is the event-weighted mean of the pivot, of its cumulative sums
// rebased at the period preceding the event when cumulative is set.
func (s *EventStudy) MeanPath(cumulative bool) ([]int, []float64) {
	pivot := s.Pivot()
	if cumulative {
		pivot = pivot.Cumulate(s.BasePeriod())
	}

	return pivot.Periods, EventWeightedMean(pivot)
}

// BasePeriod is the last period before the event bar.
func (s *EventStudy) BasePeriod() int {
	return s.EventDateIndex - 1
}

// RunBootstrapTest compares the observed mean path with the paths of
// studies bootstrapped away from the events. Replication i draws from a
// generator seeded with Seed+i, so results do not depend on Workers.
func RunBootstrapTest(ctx context.Context, study *EventStudy, opts BootstrapOptions) (*BootstrapResult, error) {
	ctx, span := otel.Tracer("eventstudy").Start(ctx, "RunBootstrapTest")
	defer span.End()

	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		return nil, fmt.Errorf("RunBootstrapTest: %w", eventmodels.InvalidConfidenceErr)
	}

	if opts.Replications <= 0 {
		return nil, fmt.Errorf("RunBootstrapTest: replications must be positive, found %d", opts.Replications)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	span.SetAttributes(
		attribute.String("run_id", opts.RunID),
		attribute.Int("replications", opts.Replications),
		attribute.Int("workers", workers),
	)

	counter, err := otel.Meter("eventstudy").Int64Counter("bootstrap.replications", metric.WithDescription("Completed bootstrap replications"))
	if err != nil {
		return nil, fmt.Errorf("RunBootstrapTest: failed to create counter: %w", err)
	}

	periods, observed := study.MeanPath(opts.Cumulative)

	start := time.Now()
	paths := make([][]float64, opts.Replications)
	var completed int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < opts.Replications; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
			booted, err := study.BootstrapWithoutEvents(rng, opts.BlockSize)
			if err != nil {
				return fmt.Errorf("replication %d: %w", i, err)
			}

			_, path := booted.MeanPath(opts.Cumulative)
			paths[i] = path

			counter.Add(gctx, 1, metric.WithAttributes(attribute.String("run_id", opts.RunID)))

			done := atomic.AddInt64(&completed, 1)
			eventpubsub.Publish(eventpubsub.BootstrapReplicationDoneEvent, eventpubsub.BootstrapProgress{
				RunID:        opts.RunID,
				Completed:    int(done),
				Replications: opts.Replications,
			})

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("RunBootstrapTest: %w", err)
	}

	bands, err := computeBands(periods, observed, paths, opts.Confidence)
	if err != nil {
		return nil, fmt.Errorf("RunBootstrapTest: %w", err)
	}

	elapsed := time.Since(start)
	eventpubsub.Publish(eventpubsub.BootstrapCompletedEvent, eventpubsub.BootstrapCompleted{
		RunID:        opts.RunID,
		Replications: opts.Replications,
		Elapsed:      elapsed,
	})

	log.WithField("run_id", opts.RunID).Infof("Completed %d bootstrap replications in %v", opts.Replications, elapsed)

	return &BootstrapResult{
		Replications: opts.Replications,
		Confidence:   opts.Confidence,
		Observed:     observed,
		Bands:        bands,
	}, nil
}

func computeBands(periods []int, observed []float64, paths [][]float64, confidence float64) ([]BootstrapBand, error) {
	lowerPct := (1 - confidence) / 2 * 100
	upperPct := (1 + confidence) / 2 * 100

	bands := make([]BootstrapBand, len(periods))
	for i, period := range periods {
		band := BootstrapBand{
			Period:   period,
			Observed: observed[i],
			Lower:    math.NaN(),
			Median:   math.NaN(),
			Upper:    math.NaN(),
			PValue:   math.NaN(),
		}

		var sample stats.Float64Data
		for _, path := range paths {
			if i < len(path) && !math.IsNaN(path[i]) {
				sample = append(sample, path[i])
			}
		}

		if len(sample) == 0 {
			bands[i] = band
			continue
		}

		var err error
		if band.Lower, err = stats.PercentileNearestRank(sample, lowerPct); err != nil {
			return nil, fmt.Errorf("lower percentile at period %d: %w", period, err)
		}

		if band.Upper, err = stats.PercentileNearestRank(sample, upperPct); err != nil {
			return nil, fmt.Errorf("upper percentile at period %d: %w", period, err)
		}

		if band.Median, err = stats.Median(sample); err != nil {
			return nil, fmt.Errorf("median at period %d: %w", period, err)
		}

		if !math.IsNaN(band.Observed) {
			band.PValue = twoSidedPValue(sample, band.Observed)
		}

		bands[i] = band
	}

	return bands, nil
}

// twoSidedPValue is twice the smaller tail share of the bootstrap sample
// beyond the observed value, capped at one.
func twoSidedPValue(sample []float64, observed float64) float64 {
	below, above := 0, 0
	for _, v := range sample {
		if v <= observed {
			below++
		}
		if v >= observed {
			above++
		}
	}

	n := float64(len(sample))
	return math.Min(1, 2*math.Min(float64(below)/n, float64(above)/n))
}
