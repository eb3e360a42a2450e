package classifier

import (
	"github.com/sjwhitworth/golearn/base"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo/core/model"
	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"

	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// boostedGrid is the shared shape of the boosted-tree adapters: a labeled
// dataframe in, a gradient-boosting trainer (scigo's LightGBM implementation)
// underneath. The dataframe is flattened to a numeric matrix and the class
// labels are encoded at fit time; the encoder is kept so predictions decode
// back to label strings.
type boostedGrid struct {
	name    string
	state   *model.StateManager
	params  map[string]interface{}
	clf     *lightgbm.LGBMClassifier
	encoder *dataset.LabelEncoder
}

// Fit flattens the labeled dataframe and trains the boosted ensemble.
func (b *boostedGrid) Fit(train base.FixedDataGrid) error {
	X, labels, err := gridToMatrix(train)
	if err != nil {
		return err
	}
	b.encoder = dataset.NewLabelEncoder(labels)
	y, err := b.encoder.Encode(labels)
	if err != nil {
		return err
	}

	clf := lightgbm.NewLGBMClassifier()
	clf.SetParams(b.params)
	if err := clf.Fit(X, mat.NewDense(len(y), 1, y)); err != nil {
		return errors.Wrapf(err, "fitting %s", b.name)
	}
	b.clf = clf
	b.state.SetFitted()
	return nil
}

// Predict returns the predicted class labels of the held-out dataframe.
func (b *boostedGrid) Predict(test base.FixedDataGrid) ([]string, error) {
	if !b.state.IsFitted() {
		return nil, errors.NewNotFittedError(b.name, "Predict")
	}
	X, _, err := gridToMatrix(test)
	if err != nil {
		return nil, err
	}
	predicted, err := b.clf.Predict(X)
	if err != nil {
		return nil, errors.Wrapf(err, "predicting with %s", b.name)
	}
	r, _ := predicted.Dims()
	codes := make([]float64, r)
	for i := 0; i < r; i++ {
		codes[i] = predicted.At(i, 0)
	}
	return b.encoder.Decode(codes)
}

// AdaBoostClassifier adapts adaptive boosting onto the boosted-tree trainer:
// shallow trees, unit learning rate, node-size as the minimum leaf
// population.
type AdaBoostClassifier struct {
	boostedGrid
}

// NewAdaBoostClassifier validates the configuration and constructs an
// unfitted adapter.
func NewAdaBoostClassifier(cfg config.AdaBoost) (*AdaBoostClassifier, error) {
	if cfg.NTrees <= 0 {
		return nil, errors.NewValidationError("adaBoost.nTrees", "must be positive", cfg.NTrees)
	}
	if cfg.MaxNodes <= 1 {
		return nil, errors.NewValidationError("adaBoost.maxNodes", "must be greater than 1", cfg.MaxNodes)
	}
	return &AdaBoostClassifier{boostedGrid{
		name:  "AdaBoostClassifier",
		state: model.NewStateManager(),
		params: map[string]interface{}{
			"n_estimators":      cfg.NTrees,
			"max_depth":         cfg.MaxDepth,
			"num_leaves":        cfg.MaxNodes,
			"min_child_samples": cfg.NodeSize,
			"learning_rate":     1.0,
		},
	}}, nil
}

// GradientBoostingClassifier adapts gradient boosting with shrinkage and row
// subsampling.
type GradientBoostingClassifier struct {
	boostedGrid
}

// NewGradientBoostingClassifier validates the configuration and constructs
// an unfitted adapter.
func NewGradientBoostingClassifier(cfg config.GradientBoosting) (*GradientBoostingClassifier, error) {
	if cfg.NTrees <= 0 {
		return nil, errors.NewValidationError("gradientBoosting.nTrees", "must be positive", cfg.NTrees)
	}
	if cfg.Shrinkage <= 0 || cfg.Shrinkage > 1 {
		return nil, errors.NewValidationError("gradientBoosting.shrinkage", "must be in (0, 1]", cfg.Shrinkage)
	}
	if cfg.Subsample <= 0 || cfg.Subsample > 1 {
		return nil, errors.NewValidationError("gradientBoosting.subsample", "must be in (0, 1]", cfg.Subsample)
	}
	return &GradientBoostingClassifier{boostedGrid{
		name:  "GradientBoostingClassifier",
		state: model.NewStateManager(),
		params: map[string]interface{}{
			"n_estimators":      cfg.NTrees,
			"max_depth":         cfg.MaxDepth,
			"num_leaves":        cfg.MaxNodes,
			"min_child_samples": cfg.NodeSize,
			"learning_rate":     cfg.Shrinkage,
			"subsample":         cfg.Subsample,
		},
	}}, nil
}
