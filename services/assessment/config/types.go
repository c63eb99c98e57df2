// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates the assessment configuration tree and
// materializes it into the engine's immutable Model.
//
// The tree mirrors how operators edit it:
//
//	scoring.yaml          dimensions, weights, score maps, thresholds
//	recommendations.yaml  base and conditional recommendations
//	questions/*.yaml      per-dimension display metadata and option order
//
// All structural invariants are enforced here, at load time, so the engine
// never re-validates configuration mid-evaluation.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianAssess/services/assessment/engine"
)

// Configuration tree file names under the config directory.
const (
	ScoringFileName         = "scoring.yaml"
	RecommendationsFileName = "recommendations.yaml"
	QuestionsDirName        = "questions"
)

// =============================================================================
// Validated enum wrappers
// =============================================================================

// Aggregation is an engine.AggregationStrategy that rejects unknown values
// while the YAML is being decoded, so typos fail the load instead of
// surfacing during an assessment.
type Aggregation engine.AggregationStrategy

func (a *Aggregation) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	strategy, err := engine.ParseAggregationStrategy(s)
	if err != nil {
		return fmt.Errorf("invalid value for aggregation: %w", err)
	}
	*a = Aggregation(strategy)
	return nil
}

// Level is an engine.RiskLevel with the same decode-time validation.
type Level engine.RiskLevel

func (l *Level) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	level, err := engine.ParseRiskLevel(s)
	if err != nil {
		return fmt.Errorf("invalid value for level: %w", err)
	}
	*l = Level(level)
	return nil
}

// =============================================================================
// scoring.yaml
// =============================================================================

// ScoringFile is the decoded scoring.yaml.
type ScoringFile struct {
	Dimensions     []DimensionScoring `yaml:"dimensions"`
	RiskThresholds []ThresholdEntry   `yaml:"risk_thresholds"`
}

// DimensionScoring declares one dimension's aggregation strategy and
// question scoring, in declared order.
type DimensionScoring struct {
	ID          string            `yaml:"id"`
	Aggregation Aggregation       `yaml:"aggregation"`
	Questions   []QuestionScoring `yaml:"questions"`
}

// QuestionScoring declares one question's weight, requiredness, and option
// score map.
//
// Weight and Required are pointers so that "absent" is distinguishable from
// an explicit zero/false: an absent weight defaults to 1.0, an explicit
// non-positive weight is a configuration error; requiredness defaults to
// true.
type QuestionScoring struct {
	ID       string         `yaml:"id"`
	Weight   *float64       `yaml:"weight"`
	Required *bool          `yaml:"required"`
	Scores   map[string]int `yaml:"scores"`
}

// ThresholdEntry is one closed total-score range in risk_thresholds.
type ThresholdEntry struct {
	MinScore int   `yaml:"min_score"`
	MaxScore int   `yaml:"max_score"`
	Level    Level `yaml:"level"`
}

// =============================================================================
// recommendations.yaml
// =============================================================================

// RecommendationsFile is the decoded recommendations.yaml.
type RecommendationsFile struct {
	// ByRiskLevel holds the unconditional recommendations per level, in
	// declared order. Keys are validated against the level enum by the
	// loader, not here, so the full problem list can be reported at once.
	ByRiskLevel map[string][]string `yaml:"by_risk_level"`

	Conditional []ConditionalEntry `yaml:"conditional"`
}

// ConditionalEntry is one conditional rule: the recommendation applies when
// every condition entry matches (dimension answer is a member of the listed
// keys).
type ConditionalEntry struct {
	Condition      map[string][]string `yaml:"condition"`
	Recommendation string              `yaml:"recommendation"`
}

// =============================================================================
// questions/*.yaml
// =============================================================================

// QuestionsFile is one decoded per-dimension file under questions/.
type QuestionsFile struct {
	Dimension string        `yaml:"dimension"`
	Label     string        `yaml:"label"`
	Questions []QuestionDef `yaml:"questions"`
}

// QuestionDef carries one question's display metadata and declared option
// order.
type QuestionDef struct {
	ID      string      `yaml:"id"`
	Label   string      `yaml:"label"`
	Options []OptionDef `yaml:"options"`
}

// OptionDef is one selectable answer's display metadata.
type OptionDef struct {
	Key         string `yaml:"key"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}
