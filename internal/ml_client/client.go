package ml_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"freshlogic/internal/ensemble"
	"freshlogic/internal/models"
)

// Client is a client for the model server hosting the regression and
// classification models. It implements ensemble.Regressor and
// ensemble.Classifier.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// PredictRequest is the feature vector sent to both models
type PredictRequest struct {
	Features models.Features `json:"features"`
}

// RegressionResponse is the output of the regression model
type RegressionResponse struct {
	SpoilageProbability float64 `json:"spoilage_probability"`
	ModelVersion        string  `json:"model_version,omitempty"`
	ProcessingTimeMs    float64 `json:"processing_time_ms,omitempty"`
}

// ClassificationResponse is the output of the classification model
type ClassificationResponse struct {
	Label            string  `json:"label"`
	Probability      float64 `json:"probability"` // probability of the spoiled class
	ModelVersion     string  `json:"model_version,omitempty"`
	ProcessingTimeMs float64 `json:"processing_time_ms,omitempty"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status                    string `json:"status"`
	RegressionModelLoaded     bool   `json:"regression_model_loaded"`
	ClassificationModelLoaded bool   `json:"classification_model_loaded"`
	Message                   string `json:"message"`
}

// Ready reports whether both models are loaded.
func (h *HealthResponse) Ready() bool {
	return h.RegressionModelLoaded && h.ClassificationModelLoaded
}

// NewClient creates a new model server client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Regress scores a feature vector with the regression model
func (c *Client) Regress(ctx context.Context, f models.Features) (float64, error) {
	var result RegressionResponse
	if err := c.post(ctx, "/api/v1/predict/regression", PredictRequest{Features: f}, &result); err != nil {
		return 0, err
	}
	return result.SpoilageProbability, nil
}

// Classify scores a feature vector with the classification model
func (c *Client) Classify(ctx context.Context, f models.Features) (ensemble.Classification, error) {
	var result ClassificationResponse
	if err := c.post(ctx, "/api/v1/predict/classification", PredictRequest{Features: f}, &result); err != nil {
		return ensemble.Classification{}, err
	}
	return ensemble.Classification{
		Label:       models.ClassLabel(result.Label),
		Probability: result.Probability,
	}, nil
}

// HealthCheck checks if the model server is healthy
func (c *Client) HealthCheck(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.get(ctx, "/api/v1/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetModelInfo retrieves information about the loaded models
func (c *Client) GetModelInfo(ctx context.Context) (*models.ModelInfo, error) {
	var result models.ModelInfo
	if err := c.get(ctx, "/api/v1/model/info", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WaitReady polls the health endpoint until both models report loaded or
// ctx expires.
func (c *Client) WaitReady(ctx context.Context, interval time.Duration) (*HealthResponse, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		health, err := c.HealthCheck(ctx)
		if err == nil && health.Ready() {
			return health, nil
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return nil, fmt.Errorf("model server not ready: %w", err)
			}
			return health, fmt.Errorf("model server not ready: %s", health.Message)
		case <-ticker.C:
		}
	}
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("model server returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
