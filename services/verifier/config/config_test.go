// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AleutianAI/veritas/services/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "12310", cfg.Port)
	assert.Equal(t, embedding.ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, 0.65, cfg.Scoring.GroundingThreshold)
	assert.Equal(t, 20, cfg.Scoring.MaxGroundingChunks)
	assert.Equal(t, 50, cfg.Scoring.EmbeddingBatchSize)
	assert.Equal(t, 50, cfg.Scoring.VolumeThreshold)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "veritas.yaml")
	content := []byte(`
port: "9000"
weaviate_url: "http://weaviate:8080"
embedding:
  provider: ollama
  model: nomic-embed-text
scoring:
  grounding_threshold: 0.7
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://weaviate:8080", cfg.WeaviateURL)
	assert.Equal(t, embedding.ProviderOllama, cfg.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 0.7, cfg.Scoring.GroundingThreshold)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 20, cfg.Scoring.MaxGroundingChunks)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VERITAS_PORT", "8125")
	t.Setenv("EMBEDDING_BACKEND", "local")
	t.Setenv("EMBEDDING_SERVICE_URL", "http://embedder:8000")
	t.Setenv("GROUNDING_THRESHOLD", "0.55")
	t.Setenv("MAX_GROUNDING_CHUNKS", "30")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8125", cfg.Port)
	assert.Equal(t, embedding.ProviderLocal, cfg.Embedding.Provider)
	assert.Equal(t, "http://embedder:8000", cfg.Embedding.BaseURL)
	assert.Equal(t, 0.55, cfg.Scoring.GroundingThreshold)
	assert.Equal(t, 30, cfg.Scoring.MaxGroundingChunks)
}

func TestLoadIgnoresUnparsableEnv(t *testing.T) {
	t.Setenv("GROUNDING_THRESHOLD", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.65, cfg.Scoring.GroundingThreshold)
}

func TestLoadRejectsInvalidProvider(t *testing.T) {
	t.Setenv("EMBEDDING_BACKEND", "bedrock")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/veritas.yaml")
	assert.Error(t, err)
}
