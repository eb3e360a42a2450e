// Package sink records evaluation results into two independent systems of
// record: a relational table, whose failures abort the run, and an
// experiment-tracking service, which degrades to no-ops when unreachable.
package sink

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/calt-laboratory/mlpipeline/metrics"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/pkg/log"
)

// EvaluationRecord is one row per pipeline run, keyed by algorithm name and
// the implicit run timestamp. Rows are append-only.
type EvaluationRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Algorithm string    `gorm:"column:algorithm;index"`
	Accuracy  float64   `gorm:"column:accuracy"`
	Precision float64   `gorm:"column:precision"`
	Recall    float64   `gorm:"column:recall"`
	F1Score   float64   `gorm:"column:f1_score"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// TableName fixes the relational table name.
func (EvaluationRecord) TableName() string {
	return "evaluation_metrics"
}

// Relational is the gorm-backed results sink.
type Relational struct {
	db *gorm.DB
}

// NewRelational wraps an open gorm connection.
func NewRelational(db *gorm.DB) *Relational {
	return &Relational{db: db}
}

// EnsureSchema creates the table if absent and adds any columns the model
// has grown since the table was created. The migration is additive; existing
// columns and rows are untouched. Callers run it once per process before
// recording.
func (r *Relational) EnsureSchema(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&EvaluationRecord{}); err != nil {
		return errors.Wrap(err, "migrating evaluation_metrics table")
	}
	return nil
}

// Record appends one evaluation row. Two runs for the same algorithm yield
// two rows.
func (r *Relational) Record(ctx context.Context, algorithm string, report metrics.Report) error {
	record := EvaluationRecord{
		Algorithm: algorithm,
		Accuracy:  report[metrics.AccuracyKey],
		Precision: report[metrics.PrecisionKey],
		Recall:    report[metrics.RecallKey],
		F1Score:   report[metrics.F1ScoreKey],
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return errors.Wrapf(err, "inserting evaluation record for %s", algorithm)
	}
	l := log.With("sink")
	l.Info().
		Str("algorithm", algorithm).
		Uint("id", record.ID).
		Msg("evaluation recorded in relational sink")
	return nil
}
