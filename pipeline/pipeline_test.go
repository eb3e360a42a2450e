package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calt-laboratory/mlpipeline/classifier"
	"github.com/calt-laboratory/mlpipeline/config"
	"github.com/calt-laboratory/mlpipeline/dataset"
	"github.com/calt-laboratory/mlpipeline/metrics"
	"github.com/calt-laboratory/mlpipeline/pkg/errors"
	"github.com/calt-laboratory/mlpipeline/storage"
)

// fakeBlobClient counts remote calls; pipelines under test must never reach
// the remote store before their dispatch check.
type fakeBlobClient struct {
	mu        sync.Mutex
	uploads   int
	downloads int
}

func (f *fakeBlobClient) Upload(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return nil
}

func (f *fakeBlobClient) Download(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	return nil
}

func (f *fakeBlobClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads + f.downloads
}

// fakeRecorder captures recorded reports.
type fakeRecorder struct {
	algorithms []string
	reports    []metrics.Report
	err        error
}

func (f *fakeRecorder) Record(_ context.Context, algorithm string, report metrics.Report) error {
	if f.err != nil {
		return f.err
	}
	f.algorithms = append(f.algorithms, algorithm)
	f.reports = append(f.reports, report)
	return nil
}

func testConfig(dir string) *config.Config {
	return &config.Config{
		Preprocessing: config.Preprocessing{Seed: 42, TestSize: 0.25, TrainSize: 0.75},
		LogisticRegression: config.LogisticRegression{
			Lambda:  0,
			Tol:     1e-5,
			MaxIter: 200,
		},
		NetworkClassifier: config.NetworkClassifier{
			KernelInitializerSeed: 12,
			Epochs:                50,
			TrainBatchSize:        4,
			TestBatchSize:         4,
		},
		Storage: config.Storage{
			DataDir:               dir,
			RawFileName:           "breast_cancer.csv",
			PreprocessedFileName:  "preprocessed.csv",
			TrainFileName:         "train.csv",
			TestFileName:          "test.csv",
			TestLabelsFileName:    "test_labels.csv",
			XTrainFileName:        "x_train.csv",
			XTestFileName:         "x_test.csv",
			YTrainFileName:        "y_train.csv",
			YTestFileName:         "y_test.csv",
			RawContainer:          "raw-data",
			PreprocessedContainer: "preprocessed-data",
		},
	}
}

// seedRawDataset writes a small separable raw dataset so EnsureRaw finds a
// warm cache and skips the remote download.
func seedRawDataset(t *testing.T, cfg *config.Config, n int) {
	t.Helper()
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		label, x1 := "B", -1.0-0.05*float64(i)
		if i%2 == 0 {
			label, x1 = "M", 1.0+0.05*float64(i)
		}
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			label,
			fmt.Sprintf("%g", x1),
			fmt.Sprintf("%g", 0.1*float64(i%5)),
		}
	}
	raw, err := dataset.NewFrame([]string{"id", "diagnosis", "x1", "x2"}, rows)
	require.NoError(t, err)
	require.NoError(t, storage.LocalStore{}.StoreFrame(raw, cfg.Storage.LocalPath(cfg.Storage.RawFileName)))
}

func TestDispatchRejectedBeforeIO(t *testing.T) {
	tests := []struct {
		name     string
		pipeline func(cfg *config.Config, bridge *storage.Bridge) Pipeline
		algo     classifier.Algorithm
	}{
		{
			name: "ensemble rejects logisticRegression",
			pipeline: func(cfg *config.Config, bridge *storage.Bridge) Pipeline {
				return NewEnsemble(cfg, bridge)
			},
			algo: classifier.LogisticRegression,
		},
		{
			name: "ensemble rejects networkClassifier",
			pipeline: func(cfg *config.Config, bridge *storage.Bridge) Pipeline {
				return NewEnsemble(cfg, bridge)
			},
			algo: classifier.NetworkClassifier,
		},
		{
			name: "logistic rejects decisionTree",
			pipeline: func(cfg *config.Config, bridge *storage.Bridge) Pipeline {
				return NewLogistic(cfg, bridge)
			},
			algo: classifier.DecisionTree,
		},
		{
			name: "deep learning rejects randomForest",
			pipeline: func(cfg *config.Config, bridge *storage.Bridge) Pipeline {
				return NewDeepLearning(cfg, bridge)
			},
			algo: classifier.RandomForest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := &fakeBlobClient{}
			cfg := testConfig(t.TempDir())

			err := tt.pipeline(cfg, storage.NewBridge(blob)).Run(context.Background(), tt.algo)
			require.Error(t, err)
			var unsupported *errors.UnsupportedAlgorithmError
			assert.True(t, errors.As(err, &unsupported), "want UnsupportedAlgorithmError, got %v", err)
			assert.Zero(t, blob.calls(), "dispatch must fail before any remote I/O")
		})
	}
}

func TestLogisticPipelineRun(t *testing.T) {
	cfg := testConfig(t.TempDir())
	seedRawDataset(t, cfg, 24)
	blob := &fakeBlobClient{}
	recorder := &fakeRecorder{}

	p := NewLogistic(cfg, storage.NewBridge(blob), recorder)
	require.NoError(t, p.Run(context.Background(), classifier.LogisticRegression))

	require.Len(t, recorder.reports, 1)
	assert.Equal(t, []string{"logisticRegression"}, recorder.algorithms)
	report := recorder.reports[0]
	for _, key := range []string{metrics.AccuracyKey, metrics.PrecisionKey, metrics.RecallKey, metrics.F1ScoreKey} {
		v, ok := report[key]
		require.True(t, ok, "report missing %q", key)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	// The raw dataset was already local, so the only remote traffic is the
	// artifact mirror: preprocessed plus four matrix artifacts.
	assert.Zero(t, blob.downloads)
	assert.Equal(t, 5, blob.uploads)

	for _, name := range []string{
		cfg.Storage.PreprocessedFileName,
		cfg.Storage.XTrainFileName,
		cfg.Storage.XTestFileName,
		cfg.Storage.YTrainFileName,
		cfg.Storage.YTestFileName,
	} {
		assert.True(t, storage.LocalStore{}.Exists(filepath.Join(cfg.Storage.DataDir, name)),
			"artifact %s must be materialized locally", name)
	}
}

func TestDeepLearningPipelineRun(t *testing.T) {
	cfg := testConfig(t.TempDir())
	seedRawDataset(t, cfg, 24)
	blob := &fakeBlobClient{}
	recorder := &fakeRecorder{}

	p := NewDeepLearning(cfg, storage.NewBridge(blob), recorder)
	require.NoError(t, p.Run(context.Background(), classifier.NetworkClassifier))

	require.Len(t, recorder.reports, 1)
	assert.Equal(t, []string{"networkClassifier"}, recorder.algorithms)
	assert.Equal(t, 5, blob.uploads)
}

func TestPipelineRecorderFailureAborts(t *testing.T) {
	cfg := testConfig(t.TempDir())
	seedRawDataset(t, cfg, 24)

	failing := &fakeRecorder{err: errors.New("database down")}
	p := NewLogistic(cfg, storage.NewBridge(&fakeBlobClient{}), failing)

	err := p.Run(context.Background(), classifier.LogisticRegression)
	require.Error(t, err)
	var pipeErr *errors.PipelineError
	require.True(t, errors.As(err, &pipeErr))
	assert.Equal(t, "record", pipeErr.Stage)
}

func TestPipelineRecordersRunInOrder(t *testing.T) {
	cfg := testConfig(t.TempDir())
	seedRawDataset(t, cfg, 24)

	first := &fakeRecorder{}
	second := &fakeRecorder{}
	p := NewDeepLearning(cfg, storage.NewBridge(&fakeBlobClient{}), first, second)
	require.NoError(t, p.Run(context.Background(), classifier.NetworkClassifier))

	assert.Len(t, first.reports, 1)
	assert.Len(t, second.reports, 1)
}
