// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package history persists hallucination reports per session in BadgerDB.
//
// BadgerDB gives the verifier local embedded storage with low-latency
// access and no external dependency; history survives restarts without
// requiring the vector store to be configured.
//
// Keys are laid out as:
//
//	report:<session_id>:<unix_ns, zero padded>:<report_id>
//
// so a prefix scan over a session returns records in chronological order.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/AleutianAI/veritas/pkg/validation"
	"github.com/AleutianAI/veritas/services/scoring"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("history store is closed")

// Config holds configuration for the history store.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required for persistent stores. Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	// Default: true for production, false for testing.
	SyncWrites bool

	// Logger is the logger for BadgerDB operations.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger

	// GCInterval is how often to run value log garbage collection.
	// Default: 5 minutes. Set to 0 to disable.
	GCInterval time.Duration

	// GCDiscardRatio is the minimum ratio of discardable data before GC.
	// Default: 0.5.
	GCDiscardRatio float64
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		SyncWrites:     true,
		GCInterval:     5 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// InMemoryConfig returns configuration optimized for testing.
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
		GCInterval: 0, // disabled
	}
}

// Record is one persisted report with its history metadata.
type Record struct {
	// ID is the server-generated report identifier (UUID v4).
	ID string `json:"id"`

	// SessionID groups records for listing and deletion.
	SessionID string `json:"session_id"`

	// Timestamp is the save time, Unix milliseconds UTC.
	Timestamp int64 `json:"timestamp"`

	// AnswerDigest is the SHA-256 hex digest of the scored answer. The
	// answer text itself is not stored.
	AnswerDigest string `json:"answer_digest"`

	// Report is the full hallucination report.
	Report *scoring.HallucinationReport `json:"report"`
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a session-keyed report history backed by BadgerDB.
//
// # Thread Safety
//
// Safe for concurrent use. BadgerDB transactions provide isolation.
type Store struct {
	db     *badger.DB
	stopCh chan struct{}
	doneCh chan struct{}
	logger *slog.Logger
	closed atomic.Bool
}

// Open creates and opens a history store with the given configuration.
//
// # Description
//
// Opens a BadgerDB database at the configured path, or in memory if
// InMemory is true. Creates the directory if it doesn't exist, and
// starts a value log GC goroutine when GCInterval is positive.
//
// # Inputs
//
//   - cfg: Store configuration. Path is required unless InMemory is true.
//
// # Outputs
//
//   - *Store: The opened store. Caller must call Close() when done.
//   - error: Non-nil if path is invalid or the database cannot be opened.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create history directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil) // Disable BadgerDB's internal logging
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: cfg.Logger,
	}

	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.stopCh = make(chan struct{})
		s.doneCh = make(chan struct{})
		go s.runGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}

	return s, nil
}

// Close stops garbage collection and closes the database. Subsequent
// operations return ErrClosed. Close is idempotent.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.stopCh != nil {
		close(s.stopCh)
		<-s.doneCh
		s.stopCh = nil
	}
	return s.db.Close()
}

// Save persists a report under a session and returns the stored record.
//
// # Inputs
//
//   - ctx: Context for cancellation.
//   - sessionID: Validated session identifier. Becomes a key component.
//   - answer: The scored answer; only its digest is stored.
//   - report: The report to persist. Must not be nil.
//
// # Outputs
//
//   - *Record: The stored record with its generated ID and timestamp.
//   - error: Non-nil on invalid input or write failure.
//
// # Thread Safety
//
// Safe for concurrent use.
func (s *Store) Save(ctx context.Context, sessionID, answer string, report *scoring.HallucinationReport) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if report == nil {
		return nil, errors.New("report must not be nil")
	}
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	digest := sha256.Sum256([]byte(answer))
	now := time.Now()
	record := &Record{
		ID:           uuid.New().String(),
		SessionID:    sessionID,
		Timestamp:    now.UnixMilli(),
		AnswerDigest: hex.EncodeToString(digest[:]),
		Report:       report,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	// Key on nanoseconds so back-to-back saves keep their order.
	key := recordKey(sessionID, now.UnixNano(), record.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("write record: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("report saved",
			slog.String("session_id", sessionID),
			slog.String("report_id", record.ID))
	}
	return record, nil
}

// List returns all records for a session in chronological order.
//
// Returns an empty slice for sessions with no history.
func (s *Store) List(ctx context.Context, sessionID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	prefix := sessionPrefix(sessionID)
	records := []Record{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			err := it.Item().Value(func(val []byte) error {
				var rec Record
				if err := json.Unmarshal(val, &rec); err != nil {
					return fmt.Errorf("decode record: %w", err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteSession removes all records for a session.
//
// # Outputs
//
//   - int: Number of records deleted.
//   - error: Non-nil on invalid input or delete failure.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.closed.Load() {
		return 0, ErrClosed
	}
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return 0, err
	}

	prefix := sessionPrefix(sessionID)
	deleted := 0

	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		// Collect keys first; deleting while iterating is not supported.
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete session records: %w", err)
	}
	return deleted, nil
}

func sessionPrefix(sessionID string) []byte {
	return []byte("report:" + sessionID + ":")
}

func recordKey(sessionID string, timestamp int64, reportID string) []byte {
	return []byte(fmt.Sprintf("report:%s:%020d:%s", sessionID, timestamp, reportID))
}

func (s *Store) runGC(interval time.Duration, ratio float64) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			// RunValueLogGC returns ErrNoRewrite when no GC was needed.
			err := s.db.RunValueLogGC(ratio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				if s.logger != nil {
					s.logger.Warn("badger value log GC error", slog.String("error", err.Error()))
				}
			}
		}
	}
}
