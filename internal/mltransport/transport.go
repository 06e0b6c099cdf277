// Package mltransport provides the HTTP transport for the external Korean
// text-classification sidecar (classify and health).
package mltransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

// httpClient builds a client honoring the configured per-request timeout.
// A zero or negative timeout falls back to the default.
func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// ClassifyRequest is the request body for POST /classify. Labels carries the
// candidate category names for zero-shot classification.
type ClassifyRequest struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	InquiryType string   `json:"inquiry_type,omitempty"`
	Labels      []string `json:"labels"`
}

// healthResponse is the JSON shape returned by GET /health.
type healthResponse struct {
	ModelVersion string `json:"model_version"`
}

// DoClassify sends POST /classify to baseURL with req, decoding the response
// into respPtr.
func DoClassify(ctx context.Context, baseURL string, timeout time.Duration, req *ClassifyRequest, respPtr any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httpClient(timeout).Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ml service returned %d", resp.StatusCode)
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(respPtr); decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}

	return nil
}

// DoHealth calls GET /health at baseURL and returns reachable, latencyMs,
// model_version, and any error.
func DoHealth(ctx context.Context, baseURL string, timeout time.Duration) (reachable bool, latencyMs int64, modelVersion string, err error) {
	start := time.Now()

	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", http.NoBody)
	if reqErr != nil {
		return false, 0, "", fmt.Errorf("create request: %w", reqErr)
	}

	resp, doErr := httpClient(timeout).Do(httpReq)
	latencyMs = time.Since(start).Milliseconds()
	if doErr != nil {
		return false, latencyMs, "", fmt.Errorf("service unreachable: %w", doErr)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false, latencyMs, "", fmt.Errorf("unhealthy status: %d", resp.StatusCode)
	}

	reachable = true
	var health healthResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&health); decodeErr == nil {
		modelVersion = health.ModelVersion
	}
	return reachable, latencyMs, modelVersion, nil
}
