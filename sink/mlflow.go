package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

// MLflowClient is a minimal REST client for the MLflow tracking server,
// covering the calls the tracking sink needs: reachability, experiment
// lookup/creation and run logging.
type MLflowClient struct {
	baseURL string
	httpc   *http.Client
}

// NewMLflowClient builds a client for the given tracking endpoint. httpc may
// be nil, in which case a client with a short timeout is used.
func NewMLflowClient(baseURL string, httpc *http.Client) *MLflowClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &MLflowClient{baseURL: baseURL, httpc: httpc}
}

// Ping probes the tracking endpoint. Any connection failure or non-200
// status means "not running"; errors are never propagated.
func (c *MLflowClient) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

type experimentResponse struct {
	Experiment struct {
		ExperimentID string `json:"experiment_id"`
	} `json:"experiment"`
}

type createExperimentResponse struct {
	ExperimentID string `json:"experiment_id"`
}

type createRunResponse struct {
	Run struct {
		Info struct {
			RunID string `json:"run_id"`
		} `json:"info"`
	} `json:"run"`
}

func (c *MLflowClient) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.WithStack(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "POST %s", path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return errors.Newf("POST %s: status %d: %s", path, resp.StatusCode, msg)
	}
	if out != nil {
		return errors.WithStack(json.NewDecoder(resp.Body).Decode(out))
	}
	return nil
}

// GetOrCreateExperiment looks the experiment up by name and creates it only
// when absent, so repeated calls return the same identifier.
func (c *MLflowClient) GetOrCreateExperiment(ctx context.Context, name string) (string, error) {
	url := fmt.Sprintf("%s/api/2.0/mlflow/experiments/get-by-name?experiment_name=%s", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.WithStack(err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "looking up experiment")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var found experimentResponse
		if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
			return "", errors.WithStack(err)
		}
		return found.Experiment.ExperimentID, nil
	}
	if resp.StatusCode != http.StatusNotFound {
		msg, _ := io.ReadAll(resp.Body)
		return "", errors.Newf("looking up experiment: status %d: %s", resp.StatusCode, msg)
	}

	var created createExperimentResponse
	err = c.post(ctx, "/api/2.0/mlflow/experiments/create", map[string]string{"name": name}, &created)
	if err != nil {
		return "", err
	}
	return created.ExperimentID, nil
}

// CreateRun starts a named run under an experiment and returns its id.
func (c *MLflowClient) CreateRun(ctx context.Context, experimentID, runName string) (string, error) {
	payload := map[string]interface{}{
		"experiment_id": experimentID,
		"run_name":      runName,
		"start_time":    time.Now().UnixMilli(),
	}
	var created createRunResponse
	if err := c.post(ctx, "/api/2.0/mlflow/runs/create", payload, &created); err != nil {
		return "", err
	}
	return created.Run.Info.RunID, nil
}

type runMetric struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

type runKV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LogBatch records the metrics mapping, parameters and tags against a run in
// a single call.
func (c *MLflowClient) LogBatch(ctx context.Context, runID string, metricValues map[string]float64, params, tags map[string]string) error {
	now := time.Now().UnixMilli()
	payload := struct {
		RunID   string      `json:"run_id"`
		Metrics []runMetric `json:"metrics"`
		Params  []runKV     `json:"params"`
		Tags    []runKV     `json:"tags"`
	}{RunID: runID}

	for k, v := range metricValues {
		payload.Metrics = append(payload.Metrics, runMetric{Key: k, Value: v, Timestamp: now})
	}
	for k, v := range params {
		payload.Params = append(payload.Params, runKV{Key: k, Value: v})
	}
	for k, v := range tags {
		payload.Tags = append(payload.Tags, runKV{Key: k, Value: v})
	}
	return c.post(ctx, "/api/2.0/mlflow/runs/log-batch", payload, nil)
}

// FinishRun marks a run as finished.
func (c *MLflowClient) FinishRun(ctx context.Context, runID string) error {
	payload := map[string]interface{}{
		"run_id":   runID,
		"status":   "FINISHED",
		"end_time": time.Now().UnixMilli(),
	}
	return c.post(ctx, "/api/2.0/mlflow/runs/update", payload, nil)
}
