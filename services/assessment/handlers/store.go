// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers for the assessment service.
package handlers

import (
	"time"

	"github.com/AleutianAI/AleutianAssess/services/assessment/engine"
)

// ConfigStore is the slice of the config store the handlers need.
// Satisfied by *config.Store; tests substitute a fake.
type ConfigStore interface {
	// Engine returns the currently active engine.
	Engine() *engine.Engine

	// Snapshot returns the active engine and its configuration version as
	// one consistent pair.
	Snapshot() (*engine.Engine, string)

	// Version returns the opaque id of the active configuration.
	Version() string

	// LoadedAt returns when the active configuration was loaded.
	LoadedAt() time.Time

	// Reload re-reads the configuration, keeping the last good model on
	// failure.
	Reload() error
}
