// Package preprocessing implements the deterministic train/test split
// strategies. All strategies shuffle row indices with a seeded generator, so
// the same seed and fraction always produce the same row assignment for the
// same input ordering. A fraction of 0 or 1 is permitted and yields an empty
// partition on one side.
package preprocessing

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// splitIndices deterministically partitions [0, n) into (rest, holdout)
// where len(holdout) = round(fraction * n).
func splitIndices(n int, fraction float64, seed int64) (rest, holdout []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	k := int(math.Round(fraction * float64(n)))
	if k > n {
		k = n
	}
	holdout = perm[:k]
	rest = perm[k:]
	return rest, holdout
}

// TrainTestSplitFrame partitions a labeled frame into train and test frames
// plus a separately materialized test-label frame, for the ensemble
// adapters.
func TrainTestSplitFrame(f *dataset.Frame, label string, testSize float64, seed int64) (train, test, testLabels *dataset.Frame, err error) {
	if testSize < 0 || testSize > 1 {
		return nil, nil, nil, errors.NewValidationError("testSize", "must be in [0, 1]", testSize)
	}
	trainIdx, testIdx := splitIndices(f.NumRows(), testSize, seed)

	train = f.Subset(trainIdx)
	test = f.Subset(testIdx)
	testLabels, err = test.Select(label)
	if err != nil {
		return nil, nil, nil, err
	}
	return train, test, testLabels, nil
}

// TrainTestSplitMatrix partitions a numeric feature matrix and label vector
// into the four arrays consumed by the logistic-regression adapter.
func TrainTestSplitMatrix(X *mat.Dense, y []float64, testSize float64, seed int64) (xTrain, xTest *mat.Dense, yTrain, yTest []float64, err error) {
	if testSize < 0 || testSize > 1 {
		return nil, nil, nil, nil, errors.NewValidationError("testSize", "must be in [0, 1]", testSize)
	}
	r, _ := X.Dims()
	if r != len(y) {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplitMatrix", r, len(y), 0)
	}
	trainIdx, testIdx := splitIndices(r, testSize, seed)
	xTrain, yTrain = takeRows(X, y, trainIdx)
	xTest, yTest = takeRows(X, y, testIdx)
	return xTrain, xTest, yTrain, yTest, nil
}

// TrainSizeSplit partitions by train fraction instead of test fraction; the
// network pipeline wraps the halves into batched datasets.
func TrainSizeSplit(X *mat.Dense, y []float64, trainSize float64, seed int64) (xTrain, xTest *mat.Dense, yTrain, yTest []float64, err error) {
	if trainSize < 0 || trainSize > 1 {
		return nil, nil, nil, nil, errors.NewValidationError("trainSize", "must be in [0, 1]", trainSize)
	}
	return TrainTestSplitMatrix(X, y, 1-trainSize, seed)
}

// takeRows materializes the selected rows. An empty selection yields a nil
// matrix and zero-length labels, never an error.
func takeRows(X *mat.Dense, y []float64, indices []int) (*mat.Dense, []float64) {
	labels := make([]float64, len(indices))
	if len(indices) == 0 {
		return nil, labels
	}
	_, c := X.Dims()
	sub := mat.NewDense(len(indices), c, nil)
	for i, idx := range indices {
		sub.SetRow(i, mat.Row(nil, idx, X))
		labels[i] = y[idx]
	}
	return sub, labels
}
