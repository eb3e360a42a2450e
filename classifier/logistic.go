package classifier

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo/core/model"
	linearmodel "github.com/YuminosukeSato/scigo/sklearn/linear_model"

	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// LogisticRegressionClassifier adapts scigo's logistic regression solver.
// Unlike the ensemble adapters it consumes raw numeric arrays, because the
// underlying solver operates on plain matrices.
type LogisticRegressionClassifier struct {
	state *model.StateManager
	lr    *linearmodel.LogisticRegression
}

// NewLogisticRegressionClassifier validates the configuration and constructs
// an unfitted adapter. Lambda is the L2 penalty weight; 0 disables
// regularization (the solver's C parameter is the inverse penalty).
func NewLogisticRegressionClassifier(cfg config.LogisticRegression) (*LogisticRegressionClassifier, error) {
	if cfg.Lambda < 0 {
		return nil, errors.NewValidationError("logisticRegression.lambda", "must be non-negative", cfg.Lambda)
	}
	if cfg.Tol <= 0 {
		return nil, errors.NewValidationError("logisticRegression.tol", "must be positive", cfg.Tol)
	}
	if cfg.MaxIter <= 0 {
		return nil, errors.NewValidationError("logisticRegression.maxIter", "must be positive", cfg.MaxIter)
	}

	opts := []linearmodel.LogisticRegressionOption{
		linearmodel.WithLRMaxIter(cfg.MaxIter),
		linearmodel.WithLRTol(cfg.Tol),
	}
	if cfg.Lambda > 0 {
		opts = append(opts,
			linearmodel.WithLRPenalty("l2"),
			linearmodel.WithLRC(1/cfg.Lambda),
		)
	} else {
		opts = append(opts, linearmodel.WithLRPenalty("none"))
	}

	return &LogisticRegressionClassifier{
		state: model.NewStateManager(),
		lr:    linearmodel.NewLogisticRegression(opts...),
	}, nil
}

// Fit trains the solver on a feature matrix and encoded label vector.
func (c *LogisticRegressionClassifier) Fit(X *mat.Dense, y []float64) error {
	if X == nil || len(y) == 0 {
		return errors.ErrEmptyData
	}
	if err := c.lr.Fit(X, mat.NewDense(len(y), 1, y)); err != nil {
		return errors.Wrap(err, "fitting logistic regression")
	}
	c.state.SetFitted()
	return nil
}

// Predict returns encoded class labels for the held-out feature matrix.
func (c *LogisticRegressionClassifier) Predict(X *mat.Dense) ([]float64, error) {
	if !c.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegressionClassifier", "Predict")
	}
	predicted, err := c.lr.Predict(X)
	if err != nil {
		return nil, errors.Wrap(err, "predicting with logistic regression")
	}
	r, _ := predicted.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		out[i] = predicted.At(i, 0)
	}
	return out, nil
}
