package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/calt-laboratory/mlpipeline/classifier"
	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/metrics"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/preprocessing"
	"github.com/calt-laboratory/mlpipeline/storage"
)

// Logistic trains the logistic-regression solver on raw numeric arrays. The
// feature matrix and encoded label vector are split, persisted as four
// separate CSV artifacts and reloaded before fitting.
type Logistic struct {
	core
}

// NewLogistic builds the logistic-regression pipeline over the given storage
// bridge and result sinks.
func NewLogistic(cfg *config.Config, bridge *storage.Bridge, recorders ...Recorder) *Logistic {
	return &Logistic{core{cfg: cfg, bridge: bridge, recorders: recorders}}
}

// Run executes the pipeline. Only the logisticRegression algorithm is
// accepted.
func (p *Logistic) Run(ctx context.Context, algo classifier.Algorithm) error {
	if algo != classifier.LogisticRegression {
		return errors.NewUnsupportedAlgorithmError(algo.String(), "logisticRegression")
	}
	clf, err := classifier.NewLogisticRegressionClassifier(p.cfg.LogisticRegression)
	if err != nil {
		return err
	}
	logger := p.logger(algo)

	pre, err := p.prepared(ctx, logger)
	if err != nil {
		return err
	}

	X, y, _, err := pre.FeatureMatrix(dataset.LabelColumn)
	if err != nil {
		return errors.NewPipelineError("encode", err)
	}
	xTrain, xTest, yTrain, yTest, err := preprocessing.TrainTestSplitMatrix(
		X, y, p.cfg.Preprocessing.TestSize, p.cfg.Preprocessing.Seed)
	if err != nil {
		return errors.NewPipelineError("split", err)
	}
	logger.Info().
		Int("train_rows", len(yTrain)).
		Int("test_rows", len(yTest)).
		Msg("dataset split")

	if err := p.persistMatrices(ctx, pre, xTrain, xTest, yTrain, yTest); err != nil {
		return err
	}

	s := p.cfg.Storage
	xTrainR, yTrainR, err := p.reloadMatrix(s.XTrainFileName, s.YTrainFileName)
	if err != nil {
		return err
	}
	xTestR, yTestR, err := p.reloadMatrix(s.XTestFileName, s.YTestFileName)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := clf.Fit(xTrainR, yTrainR); err != nil {
		return errors.NewPipelineError("fit", err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("model fitted")

	yPred, err := clf.Predict(xTestR)
	if err != nil {
		return errors.NewPipelineError("predict", err)
	}

	report, err := metrics.All(yTestR, yPred)
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}
	return p.record(ctx, logger, algo, report)
}

// persistMatrices materializes the split arrays as CSV artifacts next to the
// full preprocessed frame.
func (c *core) persistMatrices(ctx context.Context, pre *dataset.Frame, xTrain, xTest *mat.Dense, yTrain, yTest []float64) error {
	features := featureColumns(pre)
	xTrainFrame, err := dataset.FrameFromMatrix(features, xTrain)
	if err != nil {
		return errors.NewPipelineError("split", err)
	}
	xTestFrame, err := dataset.FrameFromMatrix(features, xTest)
	if err != nil {
		return errors.NewPipelineError("split", err)
	}

	s := c.cfg.Storage
	return c.bridge.PersistAll(ctx, []storage.Artifact{
		c.artifact(pre, s.PreprocessedFileName),
		c.artifact(xTrainFrame, s.XTrainFileName),
		c.artifact(xTestFrame, s.XTestFileName),
		c.artifact(dataset.FrameFromVector(dataset.LabelColumn, yTrain), s.YTrainFileName),
		c.artifact(dataset.FrameFromVector(dataset.LabelColumn, yTest), s.YTestFileName),
	})
}

// reloadMatrix reads one persisted feature matrix and its parallel label
// vector back from local storage.
func (c *core) reloadMatrix(xFileName, yFileName string) (*mat.Dense, []float64, error) {
	s := c.cfg.Storage
	xFrame, err := c.bridge.Local().LoadFrame(s.LocalPath(xFileName))
	if err != nil {
		return nil, nil, errors.NewPipelineError("reload", err)
	}
	X, err := xFrame.Matrix()
	if err != nil {
		return nil, nil, errors.NewPipelineError("reload", err)
	}
	yFrame, err := c.bridge.Local().LoadFrame(s.LocalPath(yFileName))
	if err != nil {
		return nil, nil, errors.NewPipelineError("reload", err)
	}
	y, err := yFrame.Vector()
	if err != nil {
		return nil, nil, errors.NewPipelineError("reload", err)
	}
	return X, y, nil
}
