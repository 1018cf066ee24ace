package eventstudy

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
)

// DefaultBlockSize is min(10, floor(sqrt(n))) and at least 1.
func DefaultBlockSize(n int) int {
	size := int(math.Sqrt(float64(n)))
	if size > 10 {
		size = 10
	}

	if size < 1 {
		size = 1
	}

	return size
}

// positionalTime labels the i-th bootstrapped row. Bootstrapped samples have
// no calendar, only an order.
func positionalTime(i int) time.Time {
	return time.Unix(0, 0).UTC().Add(time.Duration(i) * time.Minute)
}

// BootstrapWithoutEvents removes every event window from the data, resamples
// the remainder in contiguous blocks until every asset has at least as many
// observations as in the data, and places the same number of events per
// asset at random rows of the sample. A blockSize <= 0 picks
// DefaultBlockSize.
func (s *EventStudy) BootstrapWithoutEvents(rng *rand.Rand, blockSize int) (*EventStudy, error) {
	n := s.Data.Len()
	if blockSize <= 0 {
		blockSize = DefaultBlockSize(n)
	}

	nBlocks := int(math.Ceil(float64(n) / float64(blockSize)))

	windows := s.MarkEventWindows(false)

	var bootFrom [][]float64
	for i, row := range s.Data.Values {
		kept := make([]float64, len(row))
		hasValue := false
		for j, v := range row {
			if windows[i][j] {
				kept[j] = math.NaN()
				continue
			}

			kept[j] = v
			hasValue = hasValue || !math.IsNaN(v)
		}

		if hasValue {
			bootFrom = append(bootFrom, kept)
		}
	}

	if len(bootFrom) <= blockSize {
		return nil, fmt.Errorf("BootstrapWithoutEvents: %d rows left for blocks of %d: %w", len(bootFrom), blockSize, eventmodels.NotEnoughDataToBootstrapErr)
	}

	target := make([]int, len(s.Assets))
	available := make([]int, len(s.Assets))
	for j := range s.Assets {
		for i := range s.Data.Values {
			if !math.IsNaN(s.Data.Values[i][j]) {
				target[j]++
			}
		}

		for _, row := range bootFrom {
			if !math.IsNaN(row[j]) {
				available[j]++
			}
		}

		if target[j] > 0 && available[j] == 0 {
			return nil, fmt.Errorf("BootstrapWithoutEvents: %s has no data outside event windows: %w", s.Assets[j], eventmodels.NotEnoughDataToBootstrapErr)
		}
	}

	counts := make([]int, len(s.Assets))
	var booted [][]float64
	appendBlock := func() {
		p := rng.Intn(len(bootFrom) - blockSize)
		for _, row := range bootFrom[p : p+blockSize] {
			booted = append(booted, append([]float64(nil), row...))
			for j, v := range row {
				if !math.IsNaN(v) {
					counts[j]++
				}
			}
		}
	}

	for b := 0; b < 2*nBlocks; b++ {
		appendBlock()
	}

	short := func() bool {
		for j := range counts {
			if counts[j] < target[j] {
				return true
			}
		}
		return false
	}

	maxBlocks := 100 * (nBlocks + 1)
	for extra := 0; short(); extra++ {
		if extra >= maxBlocks {
			return nil, fmt.Errorf("BootstrapWithoutEvents: sample still short after %d extra blocks: %w", extra, eventmodels.NotEnoughDataToBootstrapErr)
		}

		appendBlock()
	}

	index := make([]time.Time, len(booted))
	for i := range booted {
		index[i] = positionalTime(i)
	}

	data := eventmodels.NewPanel(index, s.Assets)
	data.Values = booted

	events := eventmodels.NewPanel(index, s.Assets)
	for j := range s.Assets {
		nEvents := len(s.eventRows[j])
		if nEvents > len(booted) {
			return nil, fmt.Errorf("BootstrapWithoutEvents: %d events for %d rows: %w", nEvents, len(booted), eventmodels.NotEnoughDataToBootstrapErr)
		}

		for _, r := range rng.Perm(len(booted))[:nEvents] {
			events.Values[r][j] = 1
		}
	}

	return NewEventStudy(data, events, s.Window, s.EventDateIndex)
}
