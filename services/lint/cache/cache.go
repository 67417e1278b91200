// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache persists lint results keyed by file content and
// configuration.
//
// Entries live in BadgerDB under nglint/v2/{key} with a TTL. A key is the
// SHA256 of the file path and content, the configuration fingerprint and
// the tool version, so any change to one of them is a miss. Values are
// gob-encoded failure lists together with the external templates and
// stylesheets the result was computed from; an entry whose dependencies
// changed on disk is stale and reported as a miss.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AleutianAI/nglint/services/lint/failure"
)

// ErrCacheClosed is returned by operations on a closed store.
var ErrCacheClosed = errors.New("cache closed")

// DefaultTTL bounds how long an entry is kept.
const DefaultTTL = 30 * 24 * time.Hour

const keyPrefix = "nglint/v2/"

type entry struct {
	Failures []failure.Failure
	Deps     []Dependency
}

// Dependency is a file a cached result was computed from, besides the
// keyed source.
type Dependency struct {
	Path string
	Sum  string
}

// NewDependency records path with the content that was linted.
func NewDependency(path, content string) Dependency {
	return Dependency{Path: path, Sum: sum([]byte(content))}
}

// Fresh reports whether the file at d.Path still has the recorded content.
func (d Dependency) Fresh() bool {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return false
	}
	return sum(data) == d.Sum
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

var (
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nglint",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Result cache lookups by outcome",
	}, []string{"outcome"})

	cacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nglint",
		Subsystem: "cache",
		Name:      "errors_total",
		Help:      "Result cache storage and decode failures",
	})
)

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store is a BadgerDB backed result cache.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
	closed bool
}

// Open opens or creates the cache in dir. An empty dir keeps the cache in
// memory.
//
// Outputs:
//   - *Store: The store. Close it when done.
//   - error: Non-nil when the database cannot be opened.
func Open(dir string, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open cache %q: %w", dir, err)
	}
	return New(db, opts...), nil
}

// New wraps an open database. The store owns db and closes it on Close.
func New(db *badger.DB, opts ...Option) *Store {
	s := &Store{db: db, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key derives the cache key of the file at path.
func Key(path string, content []byte, fingerprint, version string) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(version))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached failures for key.
//
// Outputs:
//   - []failure.Failure: The cached failures. Nil on a miss.
//   - bool: True on a hit. An entry with a changed or missing dependency
//     is a miss.
//   - error: ErrCacheClosed, or a storage or decode failure.
func (s *Store) Get(ctx context.Context, key string) ([]failure.Failure, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrCacheClosed
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		cacheErrors.Inc()
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var e entry
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&e); err != nil {
		cacheErrors.Inc()
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	for _, d := range e.Deps {
		if !d.Fresh() {
			cacheLookups.WithLabelValues("stale").Inc()
			s.logger.Debug("cache entry stale", slog.String("dependency", d.Path))
			return nil, false, nil
		}
	}
	cacheLookups.WithLabelValues("hit").Inc()
	s.logger.Debug("cache hit", slog.String("key", key[:min(12, len(key))]), slog.Int("failures", len(e.Failures)))
	return e.Failures, true, nil
}

// Put stores failures under key along with the files they depend on.
func (s *Store) Put(ctx context.Context, key string, fs []failure.Failure, deps ...Dependency) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry{Failures: fs, Deps: deps}); err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrCacheClosed
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), buf.Bytes())
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		cacheErrors.Inc()
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Clear drops every entry.
func (s *Store) Clear() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrCacheClosed
	}
	return s.db.DropPrefix([]byte(keyPrefix))
}

// Close closes the database. Further calls return ErrCacheClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrCacheClosed
	}
	s.closed = true
	return s.db.Close()
}
