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
	"fmt"
	"strings"
)

// AlgorithmVersion is the version of the scoring algorithm.
// Increment when making changes that affect assessment results.
const AlgorithmVersion = "2.0"

// APIVersion is the JSON output API version.
const APIVersion = "1.0"

// =============================================================================
// Risk Levels
// =============================================================================

// RiskLevel represents the discrete risk classification of an assessment.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// riskLevelOrder maps each level to its position in the severity ordering.
var riskLevelOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// ParseRiskLevel parses a string to a RiskLevel.
//
// Matching is case-insensitive. Returns an error for unknown levels so that
// configuration typos surface at load time instead of silently defaulting.
func ParseRiskLevel(s string) (RiskLevel, error) {
	level := RiskLevel(strings.ToLower(s))
	if _, ok := riskLevelOrder[level]; !ok {
		return "", fmt.Errorf("unknown risk level %q (expected low, medium, high, or critical)", s)
	}
	return level, nil
}

// Order returns the numeric order of this risk level.
func (r RiskLevel) Order() int {
	return riskLevelOrder[r]
}

// Exceeds returns true if this risk level is strictly above the threshold.
func (r RiskLevel) Exceeds(threshold RiskLevel) bool {
	return riskLevelOrder[r] > riskLevelOrder[threshold]
}

// =============================================================================
// Aggregation Strategies
// =============================================================================

// AggregationStrategy is the policy combining a dimension's question scores
// into one dimension score.
type AggregationStrategy string

const (
	// AggWeightedAverage is sum(score*weight) / sum(weight).
	AggWeightedAverage AggregationStrategy = "weighted_average"

	// AggAverage is the arithmetic mean of raw scores, weights ignored.
	AggAverage AggregationStrategy = "average"

	// AggSum is the sum of raw scores, weights ignored.
	AggSum AggregationStrategy = "sum"

	// AggMax is the maximum raw score among answered questions.
	AggMax AggregationStrategy = "max"

	// AggMin is the minimum raw score among answered questions.
	AggMin AggregationStrategy = "min"
)

// ParseAggregationStrategy parses a string to an AggregationStrategy.
func ParseAggregationStrategy(s string) (AggregationStrategy, error) {
	switch strategy := AggregationStrategy(strings.ToLower(s)); strategy {
	case AggWeightedAverage, AggAverage, AggSum, AggMax, AggMin:
		return strategy, nil
	default:
		return "", fmt.Errorf("unknown aggregation strategy %q", s)
	}
}

// =============================================================================
// Configuration Model
// =============================================================================

// Option is one selectable answer to a question. Label and Description are
// display metadata for form-rendering clients; the engine only uses Key.
type Option struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Question is a single scored input within a dimension.
//
// Scores maps option keys to raw integer scores. The config loader
// guarantees every declared Option has a score entry; the engine treats a
// missing entry at evaluation time as an UnknownOptionError, never as a
// silent default.
type Question struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Weight   float64        `json:"weight"`
	Required bool           `json:"required"`
	Options  []Option       `json:"options"`
	Scores   map[string]int `json:"-"`
}

// Dimension is one top-level risk axis: an ordered sequence of questions
// combined by an aggregation strategy. A single-question dimension is the
// degenerate case where the strategy is irrelevant.
type Dimension struct {
	ID          string              `json:"id"`
	Label       string              `json:"label"`
	Aggregation AggregationStrategy `json:"aggregation"`
	Questions   []Question          `json:"questions"`
}

// Question returns the question with the given id, or nil if the dimension
// has no such question.
func (d *Dimension) Question(id string) *Question {
	for i := range d.Questions {
		if d.Questions[i].ID == id {
			return &d.Questions[i]
		}
	}
	return nil
}

// PrimaryQuestion returns the question conditional rules test against: the
// question whose id equals the dimension id, or the first declared question
// when no such question exists.
func (d *Dimension) PrimaryQuestion() *Question {
	if q := d.Question(d.ID); q != nil {
		return q
	}
	if len(d.Questions) == 0 {
		return nil
	}
	return &d.Questions[0]
}

// Threshold is one closed [Min, Max] total-score range mapping to a level.
type Threshold struct {
	Min   int       `json:"min_score"`
	Max   int       `json:"max_score"`
	Level RiskLevel `json:"level"`
}

// Contains reports whether the rounded total falls inside this range.
// Ranges are closed on both ends.
func (t Threshold) Contains(score int) bool {
	return score >= t.Min && score <= t.Max
}

// MembershipCondition is the one implemented condition predicate: it matches
// when the assessment's answer for Dimension is a member of AnyOf.
//
// Conditions are a closed set of predicate variants so that future kinds
// (e.g. numeric thresholds on a dimension score) can be added without
// touching the selector's matching loop.
type MembershipCondition struct {
	Dimension string   `json:"dimension"`
	AnyOf     []string `json:"any_of"`
}

// Matches reports whether the dimension's resolved answer is in AnyOf.
func (c MembershipCondition) Matches(dimensionAnswers map[string]string) bool {
	answer, ok := dimensionAnswers[c.Dimension]
	if !ok {
		return false
	}
	for _, allowed := range c.AnyOf {
		if answer == allowed {
			return true
		}
	}
	return false
}

// Rule is a conditional recommendation: Text applies when every condition
// matches. The config loader rejects rules with zero conditions.
type Rule struct {
	Text       string                `json:"text"`
	Conditions []MembershipCondition `json:"conditions"`
}

// Model is the immutable configuration the engine evaluates against.
//
// # Thread Safety
//
// A Model is read-only after construction and safe to share across
// concurrent Evaluate calls. Reload races are the caller's concern; swap
// whole Models, never mutate one in place.
type Model struct {
	// Dimensions in declared order.
	Dimensions []Dimension

	// Thresholds in ascending score order, contiguous and non-overlapping.
	Thresholds []Threshold

	// BaseRecommendations holds the unconditional recommendations for each
	// risk level, in declared order.
	BaseRecommendations map[RiskLevel][]string

	// Rules holds the conditional recommendations in declared order.
	Rules []Rule
}

// Dimension returns the dimension with the given id, or nil.
func (m *Model) Dimension(id string) *Dimension {
	for i := range m.Dimensions {
		if m.Dimensions[i].ID == id {
			return &m.Dimensions[i]
		}
	}
	return nil
}

// =============================================================================
// Answers and Results
// =============================================================================

// AnswerSet maps dimension id -> question id -> selected option key.
// Transient: built per assessment request, never retained by the engine.
type AnswerSet map[string]map[string]string

// Result is the output bundle of one evaluation. Immutable after
// construction; owned by the caller.
type Result struct {
	APIVersion       string             `json:"api_version"`
	AlgorithmVersion string             `json:"algorithm_version"`
	TotalScore       float64            `json:"total_score"`
	RiskLevel        RiskLevel          `json:"risk_level"`
	DimensionScores  map[string]float64 `json:"dimension_scores"`
	Recommendations  []string           `json:"recommendations"`
}
