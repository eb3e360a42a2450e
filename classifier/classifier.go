// Package classifier implements the model adapters. Each adapter wraps a
// library-specific fitted model behind one of three capability interfaces,
// chosen by the input shape of the underlying solver family:
//
//   - GridClassifier: labeled-dataframe adapters (decision tree, random
//     forest, AdaBoost, gradient boosting) over golearn instances reloaded
//     from persisted CSV artifacts.
//   - MatrixClassifier: raw numeric feature matrix + label vector adapters
//     (logistic regression).
//   - BatchClassifier: batched-dataset adapters (feed-forward network).
//
// Every adapter fails Predict before a successful Fit with a
// NotFittedError, and is fit exactly once per pipeline run.
package classifier

import (
	"github.com/sjwhitworth/golearn/base"
	"gonum.org/v1/gonum/mat"

	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// Algorithm is the closed enumeration dispatched over by the pipelines.
type Algorithm string

const (
	DecisionTree       Algorithm = "decisionTree"
	RandomForest       Algorithm = "randomForest"
	AdaBoost           Algorithm = "adaBoost"
	GradientBoosting   Algorithm = "gradientBoosting"
	LogisticRegression Algorithm = "logisticRegression"
	NetworkClassifier  Algorithm = "networkClassifier"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{
	DecisionTree,
	RandomForest,
	AdaBoost,
	GradientBoosting,
	LogisticRegression,
	NetworkClassifier,
}

// Parse converts a CLI/config string into an Algorithm.
func Parse(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", errors.NewValidationError("algorithm", "unknown algorithm", s)
}

func (a Algorithm) String() string {
	return string(a)
}

// IsEnsemble reports whether the algorithm belongs to the labeled-dataframe
// ensemble family.
func (a Algorithm) IsEnsemble() bool {
	switch a {
	case DecisionTree, RandomForest, AdaBoost, GradientBoosting:
		return true
	default:
		return false
	}
}

// GridClassifier is the capability interface of the ensemble adapters: fit
// from a labeled dataframe, predict class labels for a held-out dataframe.
type GridClassifier interface {
	Fit(train base.FixedDataGrid) error
	Predict(test base.FixedDataGrid) ([]string, error)
}

// MatrixClassifier is the capability interface of adapters whose solvers
// consume raw numeric arrays.
type MatrixClassifier interface {
	Fit(X *mat.Dense, y []float64) error
	Predict(X *mat.Dense) ([]float64, error)
}

// BatchClassifier is the capability interface of the network adapter, which
// consumes datasets shaped for batched iteration.
type BatchClassifier interface {
	Fit(train *Batches) error
	Predict(test *Batches) ([]float64, error)
}

// NewGridClassifier constructs the ensemble adapter for algo. The dispatch
// is closed: algorithms outside the ensemble family are rejected.
func NewGridClassifier(algo Algorithm, cfg *config.Config) (GridClassifier, error) {
	switch algo {
	case DecisionTree:
		return NewDecisionTreeClassifier(cfg.DecisionTree)
	case RandomForest:
		return NewRandomForestClassifier(cfg.RandomForest)
	case AdaBoost:
		return NewAdaBoostClassifier(cfg.AdaBoost)
	case GradientBoosting:
		return NewGradientBoostingClassifier(cfg.GradientBoosting)
	default:
		return nil, errors.NewUnsupportedAlgorithmError(algo.String(), "ensemble")
	}
}
