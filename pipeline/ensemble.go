package pipeline

import (
	"context"
	"time"

	glbase "github.com/sjwhitworth/golearn/base"

	"github.com/calt-laboratory/mlpipeline/classifier"
	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/metrics"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/preprocessing"
	"github.com/calt-laboratory/mlpipeline/storage"
)

// Ensemble trains the labeled-dataframe family: decision tree, random
// forest, AdaBoost and gradient boosting. Train and test sets are persisted
// as labeled CSV artifacts and reloaded as dataframes before fitting, so the
// fit stage consumes exactly what storage holds.
type Ensemble struct {
	core
}

// NewEnsemble builds the ensemble pipeline over the given storage bridge and
// result sinks.
func NewEnsemble(cfg *config.Config, bridge *storage.Bridge, recorders ...Recorder) *Ensemble {
	return &Ensemble{core{cfg: cfg, bridge: bridge, recorders: recorders}}
}

// Run executes the pipeline for one ensemble algorithm.
func (p *Ensemble) Run(ctx context.Context, algo classifier.Algorithm) error {
	if !algo.IsEnsemble() {
		return errors.NewUnsupportedAlgorithmError(algo.String(), "ensemble")
	}
	clf, err := classifier.NewGridClassifier(algo, p.cfg)
	if err != nil {
		return err
	}
	logger := p.logger(algo)

	pre, err := p.prepared(ctx, logger)
	if err != nil {
		return err
	}

	train, test, testLabels, err := preprocessing.TrainTestSplitFrame(
		pre, dataset.LabelColumn, p.cfg.Preprocessing.TestSize, p.cfg.Preprocessing.Seed)
	if err != nil {
		return errors.NewPipelineError("split", err)
	}
	logger.Info().
		Int("train_rows", train.NumRows()).
		Int("test_rows", test.NumRows()).
		Msg("dataset split")

	s := p.cfg.Storage
	err = p.bridge.PersistAll(ctx, []storage.Artifact{
		p.artifact(pre, s.PreprocessedFileName),
		p.artifact(train, s.TrainFileName),
		p.artifact(test, s.TestFileName),
		p.artifact(testLabels, s.TestLabelsFileName),
	})
	if err != nil {
		return err
	}

	// The test set is parsed against the train set's attribute template so
	// both dataframes share one attribute space.
	trainGrid, err := glbase.ParseCSVToInstances(s.LocalPath(s.TrainFileName), true)
	if err != nil {
		return errors.NewPipelineError("reload", errors.WithStack(err))
	}
	testGrid, err := glbase.ParseCSVToTemplatedInstances(s.LocalPath(s.TestFileName), true, trainGrid)
	if err != nil {
		return errors.NewPipelineError("reload", errors.WithStack(err))
	}

	start := time.Now()
	if err := clf.Fit(trainGrid); err != nil {
		return errors.NewPipelineError("fit", err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("model fitted")

	predicted, err := clf.Predict(testGrid)
	if err != nil {
		return errors.NewPipelineError("predict", err)
	}

	labelsFrame, err := p.bridge.Local().LoadFrame(s.LocalPath(s.TestLabelsFileName))
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}
	actual, err := labelsFrame.Column(dataset.LabelColumn)
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}

	// One encoder over the full preprocessed label column, so both classes
	// map consistently even when the held-out set misses one.
	allLabels, err := pre.Column(dataset.LabelColumn)
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}
	enc := dataset.NewLabelEncoder(allLabels)
	yTrue, err := enc.Encode(actual)
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}
	yPred, err := enc.Encode(predicted)
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}

	report, err := metrics.All(yTrue, yPred)
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}
	return p.record(ctx, logger, algo, report)
}
