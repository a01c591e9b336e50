// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LocalEmbedder calls a self-hosted embedding service.
//
// # Description
//
// LocalEmbedder speaks to a Python sidecar running transformer models (BGE,
// Qwen, and similar) behind a small HTTP API. It is the zero-cost option for
// air-gapped deployments where neither OpenAI nor Ollama is available.
//
// # Thread Safety
//
// LocalEmbedder is safe for concurrent use.
type LocalEmbedder struct {
	baseURL    string
	httpClient *http.Client
}

// batchEmbedRequest is the request body for the /batch_embed endpoint.
type batchEmbedRequest struct {
	Texts []string `json:"texts"`
}

// batchEmbedResponse is the response from the /batch_embed endpoint.
type batchEmbedResponse struct {
	ID        string      `json:"id"`
	Timestamp int64       `json:"timestamp"`
	Model     string      `json:"model"`
	Vectors   [][]float32 `json:"vectors"`
	Dim       int         `json:"dim"`
}

// localHealthResponse is the response from the /health endpoint.
type localHealthResponse struct {
	Status string `json:"status"`
	Model  string `json:"model"`
}

// NewLocalEmbedder creates a client for a local embedding service.
//
// # Inputs
//
//   - cfg: BaseURL locates the service (e.g. "http://localhost:8000");
//     Timeout bounds each request, zero means DefaultTimeout.
//
// # Example
//
//	embedder := embedding.NewLocalEmbedder(embedding.Config{BaseURL: "http://localhost:8000"})
//	vectors, err := embedder.EmbedBatch(ctx, []string{"the premium is $25,000"})
func NewLocalEmbedder(cfg Config) *LocalEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LocalEmbedder{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithTimeout sets a custom timeout for embedding requests.
func (c *LocalEmbedder) WithTimeout(timeout time.Duration) *LocalEmbedder {
	c.httpClient.Timeout = timeout
	return c
}

// BaseURL returns the configured base URL.
func (c *LocalEmbedder) BaseURL() string {
	return c.baseURL
}

// EmbedBatch implements the scoring engine's embedder contract.
//
// # Description
//
// Posts the texts to the service's /batch_embed endpoint in one request.
// The service processes them together, reducing overhead.
//
// # Outputs
//
//   - [][]float32: One vector per input text, in input order.
//   - error: Non-nil if the request fails or the service misbehaves.
func (c *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if ctx == nil {
		return nil, ErrInvalidInput
	}
	if len(texts) == 0 {
		return nil, nil
	}

	bodyBytes, err := json.Marshal(batchEmbedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/batch_embed"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp batchEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embResp.Vectors) != len(texts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d texts", len(embResp.Vectors), len(texts))
	}

	return embResp.Vectors, nil
}

// Health checks if the embedding service is available and its model loaded.
func (c *LocalEmbedder) Health(ctx context.Context) error {
	if ctx == nil {
		return ErrInvalidInput
	}

	url := c.baseURL + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("embedding service unhealthy: status %d: %s", resp.StatusCode, string(body))
	}

	var health localHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	if health.Status != "ok" {
		return fmt.Errorf("embedding service not ready: %s", health.Status)
	}
	return nil
}
