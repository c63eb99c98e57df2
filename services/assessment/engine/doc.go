// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the risk scoring and recommendation engine for
// AI deployment assessments.
//
// # Description
//
// An assessment describes an AI deployment along a fixed set of qualitative
// dimensions (autonomy, oversight, impact, orchestration, data sensitivity).
// Each dimension carries one or more weighted questions; each question maps
// answer option keys to integer scores. The engine:
//
//  1. Scores every dimension from its answers using the dimension's
//     aggregation strategy (ScoreDimension).
//  2. Sums the dimension scores and classifies the total against an ordered
//     threshold table to obtain a risk level (Classify).
//  3. Selects recommendations: the risk level's base recommendations plus
//     every conditional rule whose condition matches the answer set
//     (SelectRecommendations).
//
// Engine.Evaluate stitches these together behind completeness validation and
// fails atomically: either a fully assembled Result is returned or a typed
// error, never both.
//
// # Configuration
//
// The engine operates on an immutable Model constructed by the config
// package. Structural invariants (every option scored, thresholds partition
// the achievable range, conditions non-empty) are enforced at load time;
// the engine assumes a valid Model and does not re-validate it.
//
// # Thread Safety
//
// A Model is never mutated after construction, so a single Engine may serve
// concurrent Evaluate calls without locking. Each call's only mutable state
// is its own accumulators and Result.
package engine
