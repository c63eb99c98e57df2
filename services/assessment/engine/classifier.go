// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import "math"

// TotalScore sums the per-dimension scores into the assessment total.
//
// The total is a flat sum: dimensions contribute their raw aggregated value
// with no dimension-level weighting beyond what the aggregation strategy
// already encodes.
func TotalScore(dimensionScores map[string]float64) float64 {
	var total float64
	for _, score := range dimensionScores {
		total += score
	}
	return total
}

// Classify maps a total score to a risk level via the ordered threshold
// table.
//
// # Description
//
// The total is rounded half-away-from-zero to an integer, then matched
// against the closed [Min, Max] ranges. Ties at a boundary belong to the
// range whose Max equals the value; the loader guarantees no value
// satisfies two ranges.
//
// # Outputs
//
//   - RiskLevel: The level of the unique containing range.
//   - error: *UnclassifiableScoreError when no range covers the rounded
//     total. The classifier never clamps; the caller decides whether to
//     clamp or surface the error.
func Classify(thresholds []Threshold, total float64) (RiskLevel, error) {
	rounded := int(math.Round(total))
	for _, t := range thresholds {
		if t.Contains(rounded) {
			return t.Level, nil
		}
	}
	return "", &UnclassifiableScoreError{Total: total, Rounded: rounded}
}
