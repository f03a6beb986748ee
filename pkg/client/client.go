package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/casalist/media-pipeline/pkg/pipeline"
)

// Client is an HTTP client for the pipeline's direct-invocation surface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new pipeline client
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithHTTPClient creates a new pipeline client with a custom HTTP client
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Validate runs the validation stage for a batch. It never signals the
// downstream workflow.
func (c *Client) Validate(ctx context.Context, payload pipeline.BatchPayload) (*pipeline.ValidationReport, error) {
	var report pipeline.ValidationReport
	if err := c.post(ctx, "/v1/validate", payload, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Derive runs the derivation stage for a batch's validated assets.
func (c *Client) Derive(ctx context.Context, req pipeline.DerivationRequest) (*pipeline.DerivationReport, error) {
	var report pipeline.DerivationReport
	if err := c.post(ctx, "/v1/derive", req, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ProcessResult is the /v1/process reply.
type ProcessResult struct {
	Report    pipeline.ValidationReport `json:"report"`
	Triggered bool                      `json:"triggered"`
}

// Process submits a batch the way a queue record would: validation followed,
// on success, by the downstream trigger.
func (c *Client) Process(ctx context.Context, payload pipeline.BatchPayload) (*ProcessResult, error) {
	var result ProcessResult
	if err := c.post(ctx, "/v1/process", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
