package pipeline

import (
	"context"
	"time"

	"github.com/calt-laboratory/mlpipeline/classifier"
	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/metrics"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/preprocessing"
	"github.com/calt-laboratory/mlpipeline/storage"
)

// DeepLearning trains the feed-forward network. It splits by train fraction
// rather than test fraction and wraps both halves into batched datasets
// after reloading them from local storage.
type DeepLearning struct {
	core
}

// NewDeepLearning builds the network pipeline over the given storage bridge
// and result sinks.
func NewDeepLearning(cfg *config.Config, bridge *storage.Bridge, recorders ...Recorder) *DeepLearning {
	return &DeepLearning{core{cfg: cfg, bridge: bridge, recorders: recorders}}
}

// Run executes the pipeline. Only the networkClassifier algorithm is
// accepted.
func (p *DeepLearning) Run(ctx context.Context, algo classifier.Algorithm) error {
	if algo != classifier.NetworkClassifier {
		return errors.NewUnsupportedAlgorithmError(algo.String(), "deepLearning")
	}
	clf, err := classifier.NewNetworkBinaryClassifier(p.cfg.NetworkClassifier)
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
	xTrain, xTest, yTrain, yTest, err := preprocessing.TrainSizeSplit(
		X, y, p.cfg.Preprocessing.TrainSize, p.cfg.Preprocessing.Seed)
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

	trainBatches, err := classifier.NewBatches(xTrainR, yTrainR, p.cfg.NetworkClassifier.TrainBatchSize)
	if err != nil {
		return errors.NewPipelineError("reload", err)
	}
	testBatches, err := classifier.NewBatches(xTestR, yTestR, p.cfg.NetworkClassifier.TestBatchSize)
	if err != nil {
		return errors.NewPipelineError("reload", err)
	}

	start := time.Now()
	if err := clf.Fit(trainBatches); err != nil {
		return errors.NewPipelineError("fit", err)
	}
	logger.Info().Dur("elapsed", time.Since(start)).Msg("model fitted")

	yPred, err := clf.Predict(testBatches)
	if err != nil {
		return errors.NewPipelineError("predict", err)
	}

	report, err := metrics.All(testBatches.Labels(), yPred)
	if err != nil {
		return errors.NewPipelineError("evaluate", err)
	}
	return p.record(ctx, logger, algo, report)
}
