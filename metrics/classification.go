// Package metrics provides pure evaluation functions for binary
// classification. Inputs are parallel true/predicted label slices with
// values in {0, 1}; all results lie in [0, 1].
package metrics

import (
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// Names of the computed metrics, also used as sink column/metric keys.
const (
	AccuracyKey  = "accuracy"
	PrecisionKey = "precision"
	RecallKey    = "recall"
	F1ScoreKey   = "f1Score"
)

// Report maps metric names to values for one evaluation.
type Report map[string]float64

func validate(op string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty label sequence")
	}
	if len(yTrue) != len(yPred) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	for i := range yTrue {
		if (yTrue[i] != 0 && yTrue[i] != 1) || (yPred[i] != 0 && yPred[i] != 1) {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// confusion tallies the binary confusion counts with 1 as the positive
// class.
func confusion(yTrue, yPred []float64) (tp, fp, tn, fn float64) {
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			tp++
		case yTrue[i] == 0 && yPred[i] == 1:
			fp++
		case yTrue[i] == 0 && yPred[i] == 0:
			tn++
		default:
			fn++
		}
	}
	return tp, fp, tn, fn
}

// Accuracy computes the fraction of exact label matches.
// Accuracy == 1.0 iff yTrue equals yPred elementwise.
func Accuracy(yTrue, yPred []float64) (float64, error) {
	if err := validate("Accuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	var correct float64
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return correct / float64(len(yTrue)), nil
}

// Precision computes tp / (tp + fp). When no positive predictions were made
// the metric is ill-defined; 0 is returned and an UndefinedMetricWarning is
// emitted.
func Precision(yTrue, yPred []float64) (float64, error) {
	if err := validate("Precision", yTrue, yPred); err != nil {
		return 0, err
	}
	tp, fp, _, _ := confusion(yTrue, yPred)
	if tp+fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(PrecisionKey, "no predicted positives", 0))
		return 0, nil
	}
	return tp / (tp + fp), nil
}

// Recall computes tp / (tp + fn). When no true positives exist the metric is
// ill-defined; 0 is returned and an UndefinedMetricWarning is emitted.
func Recall(yTrue, yPred []float64) (float64, error) {
	if err := validate("Recall", yTrue, yPred); err != nil {
		return 0, err
	}
	tp, _, _, fn := confusion(yTrue, yPred)
	if tp+fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(RecallKey, "no actual positives", 0))
		return 0, nil
	}
	return tp / (tp + fn), nil
}

// harmonicMean derives F1 from precision and recall, 0 when both are 0.
func harmonicMean(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// F1Score computes the harmonic mean of precision and recall, 0 when both
// are 0.
func F1Score(yTrue, yPred []float64) (float64, error) {
	if err := validate("F1Score", yTrue, yPred); err != nil {
		return 0, err
	}
	precision, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	recall, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return harmonicMean(precision, recall), nil
}

// All computes the full report recorded by the results sinks. Precision and
// recall are computed once and F1 derived from them, so an ill-defined
// metric warns exactly once per report.
func All(yTrue, yPred []float64) (Report, error) {
	accuracy, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	precision, err := Precision(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	recall, err := Recall(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	return Report{
		AccuracyKey:  accuracy,
		PrecisionKey: precision,
		RecallKey:    recall,
		F1ScoreKey:   harmonicMean(precision, recall),
	}, nil
}
