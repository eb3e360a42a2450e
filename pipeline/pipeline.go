// Package pipeline wires the training pipelines end to end: ensure the raw
// dataset, preprocess, split, persist and mirror every artifact, reload from
// local storage, fit, predict, evaluate and record. Three variants exist, one
// per solver input shape; each runs a single linear path with no branching
// after the algorithm dispatch.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/calt-laboratory/mlpipeline/classifier"
	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/metrics"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/pkg/log"
	"github.com/calt-laboratory/mlpipeline/storage"
)

// Recorder persists one evaluation result. The pipelines record through every
// configured recorder in order and fail on the first error, so a recorder
// that must not abort the run has to degrade internally.
type Recorder interface {
	Record(ctx context.Context, algorithm string, report metrics.Report) error
}

// Pipeline is one training pipeline variant. Run fails with an
// UnsupportedAlgorithmError before any I/O when the algorithm does not
// belong to the variant.
type Pipeline interface {
	Run(ctx context.Context, algo classifier.Algorithm) error
}

// core carries the collaborators and stages shared by all variants.
type core struct {
	cfg       *config.Config
	bridge    *storage.Bridge
	recorders []Recorder
}

func (c *core) logger(algo classifier.Algorithm) zerolog.Logger {
	return log.With("pipeline").With().Str("algorithm", algo.String()).Logger()
}

// prepared runs the shared head of every pipeline: download the raw dataset
// unless already present locally, load it and preprocess it.
func (c *core) prepared(ctx context.Context, logger zerolog.Logger) (*dataset.Frame, error) {
	s := c.cfg.Storage
	rawPath := s.LocalPath(s.RawFileName)

	start := time.Now()
	if err := c.bridge.EnsureRaw(ctx, rawPath, s.RawContainer, s.RawFileName); err != nil {
		return nil, errors.NewPipelineError("ensure-raw", err)
	}
	raw, err := c.bridge.Local().LoadFrame(rawPath)
	if err != nil {
		return nil, errors.NewPipelineError("ensure-raw", err)
	}

	pre, err := dataset.Preprocess(raw)
	if err != nil {
		return nil, errors.NewPipelineError("preprocess", err)
	}
	logger.Info().
		Int("rows", pre.NumRows()).
		Dur("elapsed", time.Since(start)).
		Msg("dataset prepared")
	return pre, nil
}

// artifact binds a frame to its local path and its mirrored blob identity in
// the preprocessed container.
func (c *core) artifact(f *dataset.Frame, fileName string) storage.Artifact {
	s := c.cfg.Storage
	return storage.Artifact{
		Frame:         f,
		LocalPath:     s.LocalPath(fileName),
		ContainerName: s.PreprocessedContainer,
		FileName:      fileName,
	}
}

// record pushes the report through every configured sink. Sinks run in
// order, so the authoritative relational sink is recorded before the
// best-effort tracking sink.
func (c *core) record(ctx context.Context, logger zerolog.Logger, algo classifier.Algorithm, report metrics.Report) error {
	for _, r := range c.recorders {
		if err := r.Record(ctx, algo.String(), report); err != nil {
			return errors.NewPipelineError("record", err)
		}
	}
	logger.Info().
		Float64(metrics.AccuracyKey, report[metrics.AccuracyKey]).
		Float64(metrics.PrecisionKey, report[metrics.PrecisionKey]).
		Float64(metrics.RecallKey, report[metrics.RecallKey]).
		Float64(metrics.F1ScoreKey, report[metrics.F1ScoreKey]).
		Msg("pipeline run complete")
	return nil
}

// featureColumns lists the frame's columns without the label.
func featureColumns(f *dataset.Frame) []string {
	var out []string
	for _, c := range f.Columns() {
		if c != dataset.LabelColumn {
			out = append(out, c)
		}
	}
	return out
}
