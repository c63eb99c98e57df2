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
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianAssess/pkg/logging"
	"github.com/AleutianAI/AleutianAssess/services/assessment/engine"
)

// Store holds the currently active engine and swaps it atomically on
// reload.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Readers (request handlers)
// take the read lock for the duration of a pointer copy only; the engine
// itself is immutable after construction, so evaluations proceed without
// holding any lock.
type Store struct {
	mu       sync.RWMutex
	dir      string
	logger   *logging.Logger
	engine   *engine.Engine
	version  string
	loadedAt time.Time
}

// NewStore loads the configuration tree once and returns a Store serving
// it. A failed initial load is fatal: there is no last-good model to fall
// back to.
func NewStore(dir string, logger *logging.Logger) (*Store, error) {
	s := &Store{dir: dir, logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Engine returns the currently active engine.
func (s *Store) Engine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// Snapshot returns the active engine together with the version that
// produced it, read under one lock acquisition. Request handlers use this
// so a reload between separate Engine/Version reads cannot stamp a
// response with a configuration that did not produce it.
func (s *Store) Snapshot() (*engine.Engine, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine, s.version
}

// Version returns the opaque version id of the active configuration.
// It changes on every successful load, including reloads of identical
// content.
func (s *Store) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// LoadedAt returns when the active configuration was loaded.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Reload re-reads the configuration tree and swaps in the new engine.
//
// On failure the previous engine stays active and the error is returned;
// in-flight and subsequent evaluations keep using the last good
// configuration.
func (s *Store) Reload() error {
	if err := s.load(); err != nil {
		s.logger.Error("config reload failed, keeping active configuration",
			"dir", s.dir, "error", err)
		return err
	}
	s.mu.RLock()
	version := s.version
	s.mu.RUnlock()
	s.logger.Info("config reloaded", "dir", s.dir, "version", version)
	return nil
}

func (s *Store) load() error {
	model, err := Load(s.dir)
	if err != nil {
		return err
	}
	eng, err := engine.New(model)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.engine = eng
	s.version = uuid.NewString()
	s.loadedAt = time.Now()
	s.mu.Unlock()
	return nil
}
