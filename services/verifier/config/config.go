// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the verifier service configuration.
//
// Precedence, lowest to highest: built-in defaults, optional YAML file,
// environment variables. Container deployments typically configure
// everything through the environment; the YAML file exists for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/AleutianAI/veritas/services/embedding"
	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full verifier service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string `yaml:"port" validate:"required"`

	// WeaviateURL points at the vector store for the analyze_query path.
	// Empty runs the service in lightweight mode (inline chunks only).
	WeaviateURL string `yaml:"weaviate_url"`

	// HistoryPath is the BadgerDB directory for the report history store.
	// Empty disables history.
	HistoryPath string `yaml:"history_path"`

	// RateRPS is the per-client sustained request rate for the analyze
	// endpoints. Zero disables rate limiting.
	RateRPS float64 `yaml:"rate_rps" validate:"gte=0"`

	// RateBurst is the per-client burst allowance.
	RateBurst int `yaml:"rate_burst" validate:"gte=0"`

	// Embedding selects and parameterizes the embedding provider.
	Embedding embedding.Config `yaml:"embedding"`

	// Scoring holds the engine thresholds and weights profile knobs.
	Scoring scoring.Config `yaml:"scoring"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:      "12310",
		RateRPS:   10,
		RateBurst: 20,
		Embedding: embedding.Config{
			Provider: embedding.ProviderOpenAI,
		},
		Scoring: scoring.DefaultConfig(),
	}
}

// Load builds the effective configuration.
//
// # Description
//
// Starts from Default, overlays the YAML file at path when path is
// non-empty, applies environment overrides, and validates the result.
//
// # Inputs
//
//   - path: Optional YAML config file. Empty skips the file layer.
//
// # Outputs
//
//   - Config: The validated configuration.
//   - error: Non-nil if the file is unreadable, the YAML is malformed,
//     or validation fails.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse the config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg. Unset variables leave
// the existing value in place; unparsable numeric values are ignored.
func applyEnv(cfg *Config) {
	if v := os.Getenv("VERITAS_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("WEAVIATE_SERVICE_URL"); v != "" {
		cfg.WeaviateURL = v
	}
	if v := os.Getenv("VERITAS_HISTORY_PATH"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("EMBEDDING_BACKEND"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("EMBEDDING_MODEL_NAME"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("EMBEDDING_SERVICE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v, ok := envFloat("GROUNDING_THRESHOLD"); ok {
		cfg.Scoring.GroundingThreshold = v
	}
	if v, ok := envInt("MAX_GROUNDING_CHUNKS"); ok {
		cfg.Scoring.MaxGroundingChunks = v
	}
	if v, ok := envInt("EMBEDDING_BATCH_SIZE"); ok {
		cfg.Scoring.EmbeddingBatchSize = v
	}
	if v, ok := envInt("VOLUME_THRESHOLD"); ok {
		cfg.Scoring.VolumeThreshold = v
	}
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envInt(key string) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
