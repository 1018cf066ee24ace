package eventmodels

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudyRunRecord is a completed event study with its bootstrap bands.
type StudyRunRecord struct {
	gorm.Model
	RunID          uuid.UUID         `gorm:"column:run_id;type:uuid;not null;uniqueIndex:idx_study_run_id" json:"run_id"`
	WindowStart    int               `gorm:"column:window_start;not null" json:"window_start"`
	WindowEnd      int               `gorm:"column:window_end;not null" json:"window_end"`
	EventDateIndex int               `gorm:"column:event_date_index;not null" json:"event_date_index"`
	Currencies     string            `gorm:"column:currencies;type:text" json:"currencies"`
	Events         int               `gorm:"column:events;not null" json:"events"`
	Cumulative     bool              `gorm:"column:cumulative;not null" json:"cumulative"`
	Replications   int               `gorm:"column:replications;not null" json:"replications"`
	Confidence     float64           `gorm:"column:confidence;type:numeric" json:"confidence"`
	Seed           int64             `gorm:"column:seed" json:"seed"`
	Bands          []StudyBandRecord `gorm:"foreignKey:StudyRunID" json:"bands"`
}

// StudyBandRecord is one period of a run. Nil values were NaN.
type StudyBandRecord struct {
	gorm.Model
	StudyRunID uint     `gorm:"column:study_run_id;not null;index:idx_study_band_run_id" json:"-"`
	Period     int      `gorm:"column:period;not null" json:"period"`
	Observed   *float64 `gorm:"column:observed" json:"observed"`
	Lower      *float64 `gorm:"column:lower" json:"lower"`
	Median     *float64 `gorm:"column:median" json:"median"`
	Upper      *float64 `gorm:"column:upper" json:"upper"`
	PValue     *float64 `gorm:"column:p_value" json:"p_value"`
}

func (r *StudyRunRecord) Window() Window {
	return Window{Start: r.WindowStart, End: r.WindowEnd}
}
