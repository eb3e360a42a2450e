package classifier

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo/core/model"

	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// Batches wraps a feature matrix and label vector for mini-batched
// iteration. A nil matrix is a valid empty dataset.
type Batches struct {
	X    *mat.Dense
	y    []float64
	size int
}

// NewBatches validates dimensions and wraps the data. size is the batch
// size; the final batch may be smaller.
func NewBatches(X *mat.Dense, y []float64, size int) (*Batches, error) {
	if size <= 0 {
		return nil, errors.NewValidationError("batchSize", "must be positive", size)
	}
	if X != nil {
		if r, _ := X.Dims(); r != len(y) {
			return nil, errors.NewDimensionError("NewBatches", r, len(y), 0)
		}
	} else if len(y) != 0 {
		return nil, errors.NewDimensionError("NewBatches", 0, len(y), 0)
	}
	return &Batches{X: X, y: y, size: size}, nil
}

// Count returns the number of batches.
func (b *Batches) Count() int {
	if b.X == nil {
		return 0
	}
	r, _ := b.X.Dims()
	return (r + b.size - 1) / b.size
}

// Batch returns views of batch i.
func (b *Batches) Batch(i int) (*mat.Dense, []float64) {
	r, c := b.X.Dims()
	start := i * b.size
	end := start + b.size
	if end > r {
		end = r
	}
	return b.X.Slice(start, end, 0, c).(*mat.Dense), b.y[start:end]
}

// Labels returns the full label vector in row order.
func (b *Batches) Labels() []float64 {
	out := make([]float64, len(b.y))
	copy(out, b.y)
	return out
}

// Network hyperparameters that are fixed rather than configured: one hidden
// layer of 16 ReLU units trained with plain SGD.
const (
	networkHiddenUnits  = 16
	networkLearningRate = 0.05
)

// NetworkBinaryClassifier is a small feed-forward network for binary
// classification: one ReLU hidden layer and a sigmoid output unit trained
// with mini-batch SGD on binary cross-entropy. Weight initialization is
// seeded, so training is reproducible for a fixed configuration.
type NetworkBinaryClassifier struct {
	state *model.StateManager
	cfg   config.NetworkClassifier

	w1 *mat.Dense // d x H
	b1 []float64  // H
	w2 *mat.Dense // H x 1
	b2 float64
}

// NewNetworkBinaryClassifier validates the configuration and constructs an
// unfitted adapter.
func NewNetworkBinaryClassifier(cfg config.NetworkClassifier) (*NetworkBinaryClassifier, error) {
	if cfg.Epochs <= 0 {
		return nil, errors.NewValidationError("networkClassifier.epochs", "must be positive", cfg.Epochs)
	}
	if cfg.TrainBatchSize <= 0 {
		return nil, errors.NewValidationError("networkClassifier.trainBatchSize", "must be positive", cfg.TrainBatchSize)
	}
	if cfg.TestBatchSize <= 0 {
		return nil, errors.NewValidationError("networkClassifier.testBatchSize", "must be positive", cfg.TestBatchSize)
	}
	return &NetworkBinaryClassifier{state: model.NewStateManager(), cfg: cfg}, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// initWeights applies seeded Xavier-uniform initialization.
func (n *NetworkBinaryClassifier) initWeights(nFeatures int) {
	rng := rand.New(rand.NewSource(n.cfg.KernelInitializerSeed))
	xavier := func(fanIn, fanOut int) float64 {
		limit := math.Sqrt(6 / float64(fanIn+fanOut))
		return (rng.Float64()*2 - 1) * limit
	}

	n.w1 = mat.NewDense(nFeatures, networkHiddenUnits, nil)
	for i := 0; i < nFeatures; i++ {
		for j := 0; j < networkHiddenUnits; j++ {
			n.w1.Set(i, j, xavier(nFeatures, networkHiddenUnits))
		}
	}
	n.b1 = make([]float64, networkHiddenUnits)

	n.w2 = mat.NewDense(networkHiddenUnits, 1, nil)
	for j := 0; j < networkHiddenUnits; j++ {
		n.w2.Set(j, 0, xavier(networkHiddenUnits, 1))
	}
	n.b2 = 0
}

// forward computes the hidden activation and output probability for a batch.
func (n *NetworkBinaryClassifier) forward(X *mat.Dense) (hidden, probs *mat.Dense) {
	r, _ := X.Dims()

	hidden = mat.NewDense(r, networkHiddenUnits, nil)
	hidden.Mul(X, n.w1)
	for i := 0; i < r; i++ {
		for j := 0; j < networkHiddenUnits; j++ {
			v := hidden.At(i, j) + n.b1[j]
			if v < 0 {
				v = 0
			}
			hidden.Set(i, j, v)
		}
	}

	probs = mat.NewDense(r, 1, nil)
	probs.Mul(hidden, n.w2)
	for i := 0; i < r; i++ {
		probs.Set(i, 0, sigmoid(probs.At(i, 0)+n.b2))
	}
	return hidden, probs
}

// Fit trains the network over the configured number of epochs, iterating the
// batched training dataset.
func (n *NetworkBinaryClassifier) Fit(train *Batches) error {
	if train == nil || train.Count() == 0 {
		return errors.ErrEmptyData
	}
	_, d := train.X.Dims()
	n.initWeights(d)

	for epoch := 0; epoch < n.cfg.Epochs; epoch++ {
		for b := 0; b < train.Count(); b++ {
			Xb, yb := train.Batch(b)
			n.step(Xb, yb)
		}
	}
	n.state.SetFitted()
	return nil
}

// step runs one SGD update on a single batch.
func (n *NetworkBinaryClassifier) step(X *mat.Dense, y []float64) {
	r, d := X.Dims()
	hidden, probs := n.forward(X)

	// Output-layer error of binary cross-entropy with sigmoid: p - y.
	delta2 := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		delta2.Set(i, 0, (probs.At(i, 0)-y[i])/float64(r))
	}

	gradW2 := mat.NewDense(networkHiddenUnits, 1, nil)
	gradW2.Mul(hidden.T(), delta2)
	var gradB2 float64
	for i := 0; i < r; i++ {
		gradB2 += delta2.At(i, 0)
	}

	// Hidden-layer error; ReLU derivative gates on the activation.
	delta1 := mat.NewDense(r, networkHiddenUnits, nil)
	delta1.Mul(delta2, n.w2.T())
	for i := 0; i < r; i++ {
		for j := 0; j < networkHiddenUnits; j++ {
			if hidden.At(i, j) <= 0 {
				delta1.Set(i, j, 0)
			}
		}
	}

	gradW1 := mat.NewDense(d, networkHiddenUnits, nil)
	gradW1.Mul(X.T(), delta1)

	for i := 0; i < d; i++ {
		for j := 0; j < networkHiddenUnits; j++ {
			n.w1.Set(i, j, n.w1.At(i, j)-networkLearningRate*gradW1.At(i, j))
		}
	}
	for j := 0; j < networkHiddenUnits; j++ {
		var colSum float64
		for i := 0; i < r; i++ {
			colSum += delta1.At(i, j)
		}
		n.b1[j] -= networkLearningRate * colSum
		n.w2.Set(j, 0, n.w2.At(j, 0)-networkLearningRate*gradW2.At(j, 0))
	}
	n.b2 -= networkLearningRate * gradB2
}

// Predict evaluates the batched held-out dataset and returns 0/1 labels at a
// 0.5 threshold.
func (n *NetworkBinaryClassifier) Predict(test *Batches) ([]float64, error) {
	if !n.state.IsFitted() {
		return nil, errors.NewNotFittedError("NetworkBinaryClassifier", "Predict")
	}
	if test == nil {
		return nil, errors.ErrEmptyData
	}
	var out []float64
	for b := 0; b < test.Count(); b++ {
		Xb, _ := test.Batch(b)
		_, probs := n.forward(Xb)
		r, _ := probs.Dims()
		for i := 0; i < r; i++ {
			if probs.At(i, 0) >= 0.5 {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}
