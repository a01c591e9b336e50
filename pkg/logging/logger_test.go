// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileLogger returns a quiet logger writing to a temp log dir, plus the
// path of the file it logs to.
func fileLogger(t *testing.T, config Config) (*Logger, string) {
	t.Helper()
	dir := t.TempDir()
	config.LogDir = dir
	config.Quiet = true
	logger := New(config)
	require.NotNil(t, logger.file, "file logging should be enabled")

	service := config.Service
	if service == "" {
		service = "veritas"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return logger, filepath.Join(dir, name)
}

// readEntries closes the logger and decodes every JSON line from its file.
func readEntries(t *testing.T, logger *Logger, path string) []map[string]any {
	t.Helper()
	require.NoError(t, logger.Close())
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestNew_FileLogging(t *testing.T) {
	logger, path := fileLogger(t, Config{Service: "verifier"})
	logger.Info("analysis complete", "session_id", "sess-a", "score", 91.5)

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 1)
	assert.Equal(t, "analysis complete", entries[0]["msg"])
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "verifier", entries[0]["service"])
	assert.Equal(t, "sess-a", entries[0]["session_id"])
	assert.Equal(t, 91.5, entries[0]["score"])
}

func TestNew_LevelFiltersFileOutput(t *testing.T) {
	logger, path := fileLogger(t, Config{Level: slog.LevelWarn})
	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	logger.Error("also kept")

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "also kept", entries[1]["msg"])
}

func TestNew_DefaultServiceNamesFile(t *testing.T) {
	logger, path := fileLogger(t, Config{})
	logger.Info("hello")

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 1)
	assert.Contains(t, filepath.Base(path), "veritas_")
}

func TestNew_UncreatableLogDirDegrades(t *testing.T) {
	// A regular file in the middle of the path makes MkdirAll fail for
	// any user, root included.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	logger := New(Config{LogDir: filepath.Join(blocker, "logs"), Quiet: true})
	assert.Nil(t, logger.file, "file logging should be disabled")

	// Logging must still work against the fallback handler.
	logger.Info("still alive")
	assert.NoError(t, logger.Close())
}

func TestWith_ChildCarriesAttrs(t *testing.T) {
	logger, path := fileLogger(t, Config{Service: "verifier"})
	child := logger.With("session_id", "sess-b")
	child.Info("scored")
	logger.Info("parent unchanged")

	entries := readEntries(t, logger, path)
	require.Len(t, entries, 2)
	assert.Equal(t, "sess-b", entries[0]["session_id"])
	_, hasAttr := entries[1]["session_id"]
	assert.False(t, hasAttr)
}

func TestClose_NoDestinations(t *testing.T) {
	logger := New(Config{Quiet: true})
	assert.NoError(t, logger.Close())
}

func TestExporter_ReceivesEntries(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Service: "verifier", Exporter: exporter})

	logger.Info("report saved", "report_id", "rpt-1")

	// Export runs on its own goroutine.
	require.Eventually(t, func() bool {
		return len(exporter.Entries()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	entry := exporter.Entries()[0]
	assert.Equal(t, slog.LevelInfo, entry.Level)
	assert.Equal(t, "report saved", entry.Message)
	assert.Equal(t, "verifier", entry.Service)
	assert.Equal(t, "rpt-1", entry.Attrs["report_id"])
	assert.NoError(t, logger.Close())
}

func TestExporter_HonorsLevel(t *testing.T) {
	exporter := NewBufferedExporter()
	logger := New(Config{Quiet: true, Level: slog.LevelWarn, Exporter: exporter})

	logger.Debug("below")
	logger.Info("still below")
	logger.Warn("exported")

	require.Eventually(t, func() bool {
		return len(exporter.Entries()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "exported", exporter.Entries()[0].Message)
	assert.NoError(t, logger.Close())
}

func TestTeeHandler_WritesAllDestinations(t *testing.T) {
	var a, b bytes.Buffer
	handler := teeHandler{
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	}
	slog.New(handler).Info("fanned out")

	assert.Contains(t, a.String(), "fanned out")
	assert.Contains(t, b.String(), "fanned out")
}

func TestTeeHandler_EnabledIfAnyEnabled(t *testing.T) {
	var buf bytes.Buffer
	handler := teeHandler{
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}
	assert.True(t, handler.Enabled(context.Background(), slog.LevelDebug))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".veritas/logs"), expandPath("~/.veritas/logs"))
	assert.Equal(t, "/var/log/veritas", expandPath("/var/log/veritas"))
	assert.Equal(t, "relative/logs", expandPath("relative/logs"))
}

func TestArgsToMap(t *testing.T) {
	t.Run("pairs become entries", func(t *testing.T) {
		m := argsToMap([]any{"a", 1, "b", "two"})
		assert.Equal(t, map[string]any{"a": 1, "b": "two"}, m)
	})

	t.Run("non-string key is skipped", func(t *testing.T) {
		m := argsToMap([]any{42, "value", "ok", true})
		assert.Equal(t, map[string]any{"ok": true}, m)
	})

	t.Run("trailing key without value is dropped", func(t *testing.T) {
		m := argsToMap([]any{"a", 1, "dangling"})
		assert.Equal(t, map[string]any{"a": 1}, m)
	})

	t.Run("empty args", func(t *testing.T) {
		assert.Empty(t, argsToMap(nil))
	})
}
