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

import (
	"errors"
	"math"
	"testing"
)

// multiQuestionDimension builds a three-question dimension with distinct
// weights for aggregation tests.
func multiQuestionDimension(strategy AggregationStrategy) *Dimension {
	scores := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}
	return &Dimension{
		ID:          "autonomy",
		Aggregation: strategy,
		Questions: []Question{
			{ID: "autonomy", Weight: 2.0, Required: true, Scores: scores},
			{ID: "autonomy_scope", Weight: 1.0, Scores: scores},
			{ID: "autonomy_frequency", Weight: 1.0, Scores: scores},
		},
	}
}

// TestScoreDimension_Strategies tests each aggregation strategy against the
// same answer set: autonomy=d(4) weight 2, scope=b(2) weight 1, freq=a(1) weight 1.
func TestScoreDimension_Strategies(t *testing.T) {
	answers := map[string]string{
		"autonomy":           "d",
		"autonomy_scope":     "b",
		"autonomy_frequency": "a",
	}

	tests := []struct {
		strategy AggregationStrategy
		want     float64
	}{
		{AggWeightedAverage, (4*2.0 + 2*1.0 + 1*1.0) / 4.0}, // 2.75
		{AggAverage, (4.0 + 2.0 + 1.0) / 3.0},
		{AggSum, 7.0},
		{AggMax, 4.0},
		{AggMin, 1.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			dim := multiQuestionDimension(tt.strategy)
			got, err := ScoreDimension(dim, answers)
			if err != nil {
				t.Fatalf("ScoreDimension() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ScoreDimension(%s) = %v, want %v", tt.strategy, got, tt.want)
			}
		})
	}
}

// TestScoreDimension_WeightedAverageIdentity verifies that identical raw
// scores yield that score exactly, independent of weights.
func TestScoreDimension_WeightedAverageIdentity(t *testing.T) {
	dim := multiQuestionDimension(AggWeightedAverage)
	dim.Questions[0].Weight = 0.3
	dim.Questions[1].Weight = 7.5
	dim.Questions[2].Weight = 1.2

	answers := map[string]string{
		"autonomy":           "c",
		"autonomy_scope":     "c",
		"autonomy_frequency": "c",
	}

	got, err := ScoreDimension(dim, answers)
	if err != nil {
		t.Fatalf("ScoreDimension() error = %v", err)
	}
	if math.Abs(got-3.0) > 1e-9 {
		t.Errorf("weighted average of identical scores = %v, want 3.0", got)
	}
}

// TestScoreDimension_PartialAnswers tests scoring a subset when the
// remaining questions are optional.
func TestScoreDimension_PartialAnswers(t *testing.T) {
	dim := multiQuestionDimension(AggWeightedAverage)
	got, err := ScoreDimension(dim, map[string]string{"autonomy": "d"})
	if err != nil {
		t.Fatalf("ScoreDimension() error = %v", err)
	}
	if got != 4.0 {
		t.Errorf("ScoreDimension(single answer) = %v, want 4.0", got)
	}
}

// TestScoreDimension_UnknownOption tests that unregistered option keys fail
// rather than defaulting.
func TestScoreDimension_UnknownOption(t *testing.T) {
	tests := []struct {
		name    string
		answers map[string]string
	}{
		{"unregistered option", map[string]string{"autonomy": "z"}},
		{"unconfigured question", map[string]string{"autonomy": "a", "velocity": "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dim := multiQuestionDimension(AggMax)
			_, err := ScoreDimension(dim, tt.answers)
			var optErr *UnknownOptionError
			if !errors.As(err, &optErr) {
				t.Fatalf("ScoreDimension() error = %v, want *UnknownOptionError", err)
			}
		})
	}
}

// TestScoreDimension_NoAnswers tests the empty answer set guard.
func TestScoreDimension_NoAnswers(t *testing.T) {
	for _, strategy := range []AggregationStrategy{AggWeightedAverage, AggAverage, AggSum, AggMax, AggMin} {
		t.Run(string(strategy), func(t *testing.T) {
			dim := multiQuestionDimension(strategy)
			_, err := ScoreDimension(dim, nil)
			var noAnswers *NoAnswersError
			if !errors.As(err, &noAnswers) {
				t.Fatalf("ScoreDimension(empty) error = %v, want *NoAnswersError", err)
			}
			if noAnswers.Dimension != "autonomy" {
				t.Errorf("NoAnswersError.Dimension = %q, want autonomy", noAnswers.Dimension)
			}
		})
	}
}

// TestScoreDimension_NoRounding verifies fractional scores survive the
// scorer untouched.
func TestScoreDimension_NoRounding(t *testing.T) {
	dim := multiQuestionDimension(AggAverage)
	got, err := ScoreDimension(dim, map[string]string{
		"autonomy":       "a",
		"autonomy_scope": "b",
	})
	if err != nil {
		t.Fatalf("ScoreDimension() error = %v", err)
	}
	if math.Abs(got-1.5) > 1e-9 {
		t.Errorf("ScoreDimension() = %v, want 1.5 (no rounding)", got)
	}
}
