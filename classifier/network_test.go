package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/calt-laboratory/mlpipeline/config"
)

func TestBatches(t *testing.T) {
	X := mat.NewDense(5, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
		9, 10,
	})
	y := []float64{0, 1, 0, 1, 0}

	b, err := NewBatches(X, y, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Count())

	// Full batches, then the short tail.
	Xb, yb := b.Batch(0)
	r, _ := Xb.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, []float64{0, 1}, yb)

	Xb, yb = b.Batch(2)
	r, _ = Xb.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, []float64{0}, yb)
	assert.Equal(t, 9.0, Xb.At(0, 0))

	assert.Equal(t, y, b.Labels())
}

func TestBatchesEmpty(t *testing.T) {
	b, err := NewBatches(nil, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Count())
	assert.Empty(t, b.Labels())
}

func TestBatchesValidation(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})

	_, err := NewBatches(X, []float64{0}, 2)
	require.Error(t, err, "label length mismatch")

	_, err = NewBatches(X, []float64{0, 1}, 0)
	require.Error(t, err, "non-positive batch size")

	_, err = NewBatches(nil, []float64{0}, 2)
	require.Error(t, err, "labels without features")
}

// networkTrainingSet is a small linearly separable problem: the label is 1
// exactly when the first feature is positive.
func networkTrainingSet() (*mat.Dense, []float64) {
	X := mat.NewDense(8, 2, []float64{
		1.0, 0.2,
		0.8, -0.3,
		1.2, 0.5,
		0.9, 0.1,
		-1.0, 0.4,
		-0.7, -0.2,
		-1.3, 0.3,
		-0.9, -0.5,
	})
	y := []float64{1, 1, 1, 1, 0, 0, 0, 0}
	return X, y
}

func TestNetworkFitPredict(t *testing.T) {
	cfg := config.NetworkClassifier{
		KernelInitializerSeed: 12,
		Epochs:                200,
		TrainBatchSize:        4,
		TestBatchSize:         4,
	}
	clf, err := NewNetworkBinaryClassifier(cfg)
	require.NoError(t, err)

	X, y := networkTrainingSet()
	train, err := NewBatches(X, y, cfg.TrainBatchSize)
	require.NoError(t, err)
	require.NoError(t, clf.Fit(train))

	test, err := NewBatches(X, y, cfg.TestBatchSize)
	require.NoError(t, err)
	predicted, err := clf.Predict(test)
	require.NoError(t, err)

	require.Len(t, predicted, len(y))
	for i, p := range predicted {
		assert.Contains(t, []float64{0, 1}, p, "prediction %d", i)
	}
}

func TestNetworkDeterministic(t *testing.T) {
	cfg := config.NetworkClassifier{
		KernelInitializerSeed: 7,
		Epochs:                50,
		TrainBatchSize:        4,
		TestBatchSize:         8,
	}
	X, y := networkTrainingSet()

	predict := func() []float64 {
		clf, err := NewNetworkBinaryClassifier(cfg)
		require.NoError(t, err)
		train, err := NewBatches(X, y, cfg.TrainBatchSize)
		require.NoError(t, err)
		require.NoError(t, clf.Fit(train))
		test, err := NewBatches(X, y, cfg.TestBatchSize)
		require.NoError(t, err)
		predicted, err := clf.Predict(test)
		require.NoError(t, err)
		return predicted
	}

	assert.Equal(t, predict(), predict(), "same seed and data must reproduce predictions")
}

func TestNetworkFitEmpty(t *testing.T) {
	clf, err := NewNetworkBinaryClassifier(config.NetworkClassifier{
		Epochs: 1, TrainBatchSize: 4, TestBatchSize: 4,
	})
	require.NoError(t, err)

	empty, err := NewBatches(nil, nil, 4)
	require.NoError(t, err)
	require.Error(t, clf.Fit(empty))
}
