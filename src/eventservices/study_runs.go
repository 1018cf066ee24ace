package eventservices

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jiaming2012/mp-fx-covid19/src/eventmodels"
	"github.com/jiaming2012/mp-fx-covid19/src/eventstudy"
)

var StudyRunNotFoundErr = fmt.Errorf("study run not found")

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}

	return &v
}

// NewStudyRunRecord flattens a run into its database rows.
func NewStudyRunRecord(runID uuid.UUID, study *eventstudy.EventStudy, opts eventstudy.BootstrapOptions, result *eventstudy.BootstrapResult) *eventmodels.StudyRunRecord {
	events := 0
	for _, n := range study.EventCounts() {
		events += n
	}

	rec := &eventmodels.StudyRunRecord{
		RunID:          runID,
		WindowStart:    study.Window.Start,
		WindowEnd:      study.Window.End,
		EventDateIndex: study.EventDateIndex,
		Currencies:     strings.Join(study.Assets, ","),
		Events:         events,
		Cumulative:     opts.Cumulative,
		Replications:   result.Replications,
		Confidence:     result.Confidence,
		Seed:           opts.Seed,
	}

	for _, b := range result.Bands {
		rec.Bands = append(rec.Bands, eventmodels.StudyBandRecord{
			Period:   b.Period,
			Observed: nullable(b.Observed),
			Lower:    nullable(b.Lower),
			Median:   nullable(b.Median),
			Upper:    nullable(b.Upper),
			PValue:   nullable(b.PValue),
		})
	}

	return rec
}

// SaveStudyRun inserts the run together with its bands.
func SaveStudyRun(db *gorm.DB, rec *eventmodels.StudyRunRecord) error {
	if err := db.Create(rec).Error; err != nil {
		return fmt.Errorf("SaveStudyRun: failed to create run %s: %w", rec.RunID, err)
	}

	return nil
}

func FetchStudyRun(db *gorm.DB, runID uuid.UUID) (*eventmodels.StudyRunRecord, error) {
	var rec eventmodels.StudyRunRecord
	err := db.Preload("Bands", func(db *gorm.DB) *gorm.DB {
		return db.Order("period")
	}).Where("run_id = ?", runID).First(&rec).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("FetchStudyRun: %s: %w", runID, StudyRunNotFoundErr)
	}

	if err != nil {
		return nil, fmt.Errorf("FetchStudyRun: %w", err)
	}

	return &rec, nil
}

// ListStudyRuns returns the latest runs without their bands.
func ListStudyRuns(db *gorm.DB, limit int) ([]eventmodels.StudyRunRecord, error) {
	var runs []eventmodels.StudyRunRecord
	if err := db.Order("created_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("ListStudyRuns: %w", err)
	}

	return runs, nil
}
