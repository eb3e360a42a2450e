package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/calt-laboratory/mlpipeline/metrics"
	"github.com/calt-laboratory/mlpipeline/pkg/log"
)

// Tracking records runs against the experiment-tracking service. Whether the
// service is reachable is decided once per run by a single probe; when it is
// not, every call degrades to a logged no-op instead of failing the
// pipeline.
type Tracking struct {
	client     *MLflowClient
	experiment string
	datasetTag string

	probeOnce sync.Once
	available bool
}

// NewTracking wires the sink to a tracking client and a fixed experiment
// name.
func NewTracking(client *MLflowClient, experiment, datasetTag string) *Tracking {
	return &Tracking{client: client, experiment: experiment, datasetTag: datasetTag}
}

// reachable caches the probe result for the remainder of the run.
func (t *Tracking) reachable(ctx context.Context) bool {
	t.probeOnce.Do(func() {
		t.available = t.client.Ping(ctx)
		if !t.available {
			l := log.With("sink")
			l.Warn().Msg("tracking service unreachable, tracking calls degrade to no-ops")
		}
	})
	return t.available
}

// runName derives a human-readable run name from the algorithm.
func runName(algorithm string) string {
	return fmt.Sprintf("%s-%s", algorithm, uuid.NewString()[:8])
}

// Record logs the metrics mapping, the algorithm parameter and the dataset
// tag as one named run under the configured experiment.
func (t *Tracking) Record(ctx context.Context, algorithm string, report metrics.Report) error {
	if !t.reachable(ctx) {
		return nil
	}

	experimentID, err := t.client.GetOrCreateExperiment(ctx, t.experiment)
	if err != nil {
		return err
	}
	runID, err := t.client.CreateRun(ctx, experimentID, runName(algorithm))
	if err != nil {
		return err
	}
	err = t.client.LogBatch(ctx, runID,
		report,
		map[string]string{"algorithm": algorithm},
		map[string]string{"dataset": t.datasetTag},
	)
	if err != nil {
		return err
	}
	if err := t.client.FinishRun(ctx, runID); err != nil {
		return err
	}
	l := log.With("sink")
	l.Info().
		Str("algorithm", algorithm).
		Str("experiment_id", experimentID).
		Str("run_id", runID).
		Msg("evaluation recorded in tracking sink")
	return nil
}
