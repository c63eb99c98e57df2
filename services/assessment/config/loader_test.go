// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/AleutianAssess/services/assessment/engine"
)

// =============================================================================
// Fixtures
// =============================================================================

const validScoring = `
dimensions:
  - id: autonomy
    aggregation: weighted_average
    questions:
      - id: autonomy
        weight: 2.0
        scores:
          suggests: 1
          semi_autonomous: 3
          autonomous: 4
      - id: rollback
        weight: 1.0
        required: false
        scores:
          suggests: 1
          semi_autonomous: 3
          autonomous: 4
  - id: oversight
    aggregation: max
    questions:
      - id: oversight
        scores:
          continuous: 1
          checkpoint: 2
          exception: 3
          minimal: 4
risk_thresholds:
  - min_score: 2
    max_score: 4
    level: low
  - min_score: 5
    max_score: 6
    level: medium
  - min_score: 7
    max_score: 7
    level: high
  - min_score: 8
    max_score: 8
    level: critical
`

const validRecommendations = `
by_risk_level:
  low:
    - "Document the deployment."
  critical:
    - "Require executive sign-off."
conditional:
  - condition:
      oversight: [exception, minimal]
      autonomy: [autonomous]
    recommendation: "Add a human checkpoint before irreversible actions."
`

const validAutonomyQuestions = `
dimension: autonomy
label: "Autonomy Level"
questions:
  - id: autonomy
    label: "How autonomously does the system act?"
    options:
      - key: suggests
        label: "Suggests only"
        description: "A human executes every action."
      - key: semi_autonomous
        label: "Semi-autonomous"
      - key: autonomous
        label: "Fully autonomous"
  - id: rollback
    label: "Can actions be rolled back?"
    options:
      - key: suggests
        label: "Always"
      - key: semi_autonomous
        label: "Sometimes"
      - key: autonomous
        label: "Never"
`

// writeTree materializes a config tree under a fresh temp dir.
func writeTree(t *testing.T, scoring, recommendations string, questions map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ScoringFileName), []byte(scoring), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, RecommendationsFileName), []byte(recommendations), 0o644); err != nil {
		t.Fatal(err)
	}
	if len(questions) > 0 {
		qdir := filepath.Join(dir, QuestionsDirName)
		if err := os.Mkdir(qdir, 0o755); err != nil {
			t.Fatal(err)
		}
		for name, content := range questions {
			if err := os.WriteFile(filepath.Join(qdir, name), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return dir
}

// loadProblems loads an intentionally broken tree and returns the joined
// problem list.
func loadProblems(t *testing.T, scoring, recommendations string) string {
	t.Helper()
	dir := writeTree(t, scoring, recommendations, nil)
	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() expected error")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %T, want *ConfigurationError (%v)", err, err)
	}
	return strings.Join(cfgErr.Problems, "; ")
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoad_Valid(t *testing.T) {
	dir := writeTree(t, validScoring, validRecommendations,
		map[string]string{"autonomy.yaml": validAutonomyQuestions})

	model, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(model.Dimensions) != 2 {
		t.Fatalf("Dimensions len = %d, want 2", len(model.Dimensions))
	}

	autonomy := model.Dimension("autonomy")
	if autonomy == nil {
		t.Fatal("Dimension(autonomy) = nil")
	}
	if autonomy.Label != "Autonomy Level" {
		t.Errorf("autonomy.Label = %q, want Autonomy Level", autonomy.Label)
	}
	if autonomy.Aggregation != engine.AggWeightedAverage {
		t.Errorf("autonomy.Aggregation = %v, want weighted_average", autonomy.Aggregation)
	}

	primary := autonomy.PrimaryQuestion()
	if primary == nil || primary.ID != "autonomy" {
		t.Fatalf("PrimaryQuestion() = %v, want autonomy", primary)
	}
	if primary.Label != "How autonomously does the system act?" {
		t.Errorf("primary.Label = %q", primary.Label)
	}
	if primary.Weight != 2.0 {
		t.Errorf("primary.Weight = %v, want 2.0", primary.Weight)
	}
	if !primary.Required {
		t.Error("primary.Required = false, want default true")
	}
	// Option order follows the questions file, not the score map.
	wantOrder := []string{"suggests", "semi_autonomous", "autonomous"}
	for i, opt := range primary.Options {
		if opt.Key != wantOrder[i] {
			t.Errorf("option[%d] = %q, want %q", i, opt.Key, wantOrder[i])
		}
	}
	if primary.Options[0].Description != "A human executes every action." {
		t.Errorf("option description = %q", primary.Options[0].Description)
	}

	rollback := autonomy.Question("rollback")
	if rollback == nil {
		t.Fatal("Question(rollback) = nil")
	}
	if rollback.Required {
		t.Error("rollback.Required = true, want explicit false")
	}

	// Oversight has no questions file; options derive from the score map
	// in sorted order and weight defaults to 1.0.
	oversight := model.Dimension("oversight")
	if oversight.Label != "" {
		t.Errorf("oversight.Label = %q, want empty", oversight.Label)
	}
	q := oversight.PrimaryQuestion()
	if q.Weight != 1.0 {
		t.Errorf("default weight = %v, want 1.0", q.Weight)
	}
	if len(q.Options) != 4 || q.Options[0].Key != "checkpoint" {
		t.Errorf("derived options = %v, want sorted score keys", q.Options)
	}

	if len(model.Thresholds) != 4 {
		t.Errorf("Thresholds len = %d, want 4", len(model.Thresholds))
	}
	if model.Thresholds[3].Level != engine.RiskCritical {
		t.Errorf("last threshold level = %v, want critical", model.Thresholds[3].Level)
	}

	if got := model.BaseRecommendations[engine.RiskLow]; len(got) != 1 || got[0] != "Document the deployment." {
		t.Errorf("BaseRecommendations[low] = %v", got)
	}

	if len(model.Rules) != 1 {
		t.Fatalf("Rules len = %d, want 1", len(model.Rules))
	}
	rule := model.Rules[0]
	if len(rule.Conditions) != 2 {
		t.Fatalf("Conditions len = %d, want 2", len(rule.Conditions))
	}
	// Conditions come out sorted by dimension id.
	if rule.Conditions[0].Dimension != "autonomy" || rule.Conditions[1].Dimension != "oversight" {
		t.Errorf("condition order = [%s %s], want [autonomy oversight]",
			rule.Conditions[0].Dimension, rule.Conditions[1].Dimension)
	}

	// The loaded model must satisfy the engine's constructor.
	if _, err := engine.New(model); err != nil {
		t.Errorf("engine.New(loaded model) error = %v", err)
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	// The default tree shipped in configs/ must always load.
	model, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load(configs) error = %v", err)
	}
	if len(model.Dimensions) != 5 {
		t.Errorf("Dimensions len = %d, want 5", len(model.Dimensions))
	}
	eng, err := engine.New(model)
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}

	// The canonical all-maximum profile classifies critical at 20.
	result, err := eng.Evaluate(map[string]map[string]string{
		"autonomy":         {"autonomy": "autonomous"},
		"oversight":        {"oversight": "minimal"},
		"impact":           {"impact": "external"},
		"orchestration":    {"orchestration": "hierarchical"},
		"data_sensitivity": {"data_sensitivity": "regulated"},
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.TotalScore != 20 {
		t.Errorf("TotalScore = %v, want 20", result.TotalScore)
	}
	if result.RiskLevel != engine.RiskCritical {
		t.Errorf("RiskLevel = %v, want critical", result.RiskLevel)
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	t.Run("missing scoring.yaml", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := Load(dir); err == nil {
			t.Error("Load() expected error for missing scoring.yaml")
		}
	})

	t.Run("missing recommendations.yaml", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ScoringFileName), []byte(validScoring), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(dir); err == nil {
			t.Error("Load() expected error for missing recommendations.yaml")
		}
	})

	t.Run("missing questions dir is fine", func(t *testing.T) {
		dir := writeTree(t, validScoring, validRecommendations, nil)
		if _, err := Load(dir); err != nil {
			t.Errorf("Load() error = %v", err)
		}
	})
}

func TestLoad_DecodeTimeEnumValidation(t *testing.T) {
	t.Run("unknown aggregation", func(t *testing.T) {
		scoring := strings.Replace(validScoring, "aggregation: max", "aggregation: median", 1)
		dir := writeTree(t, scoring, validRecommendations, nil)
		_, err := Load(dir)
		if err == nil || !strings.Contains(err.Error(), "aggregation") {
			t.Errorf("Load() error = %v, want aggregation parse failure", err)
		}
	})

	t.Run("unknown threshold level", func(t *testing.T) {
		scoring := strings.Replace(validScoring, "level: critical", "level: severe", 1)
		dir := writeTree(t, scoring, validRecommendations, nil)
		_, err := Load(dir)
		if err == nil || !strings.Contains(err.Error(), "level") {
			t.Errorf("Load() error = %v, want level parse failure", err)
		}
	})
}

func TestLoad_CollectsAllProblems(t *testing.T) {
	scoring := `
dimensions:
  - id: Bad-Dim
    aggregation: sum
    questions:
      - id: q
        scores: {a: 1}
  - id: empty_dim
    aggregation: sum
    questions: []
  - id: weights
    aggregation: sum
    questions:
      - id: weights
        weight: -1.0
        scores: {a: 1, b: 2}
      - id: weights
        scores: {a: 1}
risk_thresholds:
  - min_score: 1
    max_score: 3
    level: low
  - min_score: 3
    max_score: 2
    level: medium
`
	recommendations := `
by_risk_level:
  extreme:
    - "nope"
conditional:
  - condition: {}
    recommendation: "never fires"
  - condition:
      ghost_dim: [a]
      weights: [zzz]
    recommendation: "bad refs"
`
	problems := loadProblems(t, scoring, recommendations)

	wants := []string{
		"Bad-Dim",
		"zero questions",
		"weight must be positive",
		"declared twice",
		"overlaps",
		"max_score 2 below min_score 3",
		"unknown risk level",
		"empty condition",
		"unknown dimension \"ghost_dim\"",
		"unknown answer \"zzz\"",
	}
	for _, want := range wants {
		if !strings.Contains(problems, want) {
			t.Errorf("problems missing %q:\n%s", want, problems)
		}
	}
}

func TestLoad_OptionScoreCrossCheck(t *testing.T) {
	scoring := `
dimensions:
  - id: impact
    aggregation: max
    questions:
      - id: impact
        scores:
          advisory: 1
          external: 4
risk_thresholds:
  - min_score: 1
    max_score: 4
    level: low
`
	questions := `
dimension: impact
label: "Impact"
questions:
  - id: impact
    options:
      - key: advisory
        label: "Advisory"
      - key: customer
        label: "Customer-facing"
`
	dir := writeTree(t, scoring, "by_risk_level: {}\n", map[string]string{"impact.yaml": questions})
	_, err := Load(dir)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %T, want *ConfigurationError", err)
	}
	joined := strings.Join(cfgErr.Problems, "; ")
	if !strings.Contains(joined, `option "customer" has no score entry`) {
		t.Errorf("problems missing unscored option: %s", joined)
	}
	if !strings.Contains(joined, `score for undeclared option "external"`) {
		t.Errorf("problems missing undeclared option: %s", joined)
	}
}

func TestLoad_ThresholdCoverage(t *testing.T) {
	t.Run("gap between ranges", func(t *testing.T) {
		scoring := strings.Replace(validScoring, "min_score: 5", "min_score: 6", 1)
		problems := loadProblems(t, scoring, validRecommendations)
		if !strings.Contains(problems, "gap between 4 and 6") {
			t.Errorf("problems = %s, want gap report", problems)
		}
	})

	t.Run("uncovered maximum", func(t *testing.T) {
		scoring := strings.Replace(validScoring, `  - min_score: 8
    max_score: 8
    level: critical
`, "", 1)
		problems := loadProblems(t, scoring, validRecommendations)
		if !strings.Contains(problems, "maximum achievable total is 8") {
			t.Errorf("problems = %s, want coverage report", problems)
		}
	})

	t.Run("uncovered minimum", func(t *testing.T) {
		scoring := strings.Replace(validScoring, "min_score: 2\n    max_score: 4", "min_score: 3\n    max_score: 4", 1)
		problems := loadProblems(t, scoring, validRecommendations)
		if !strings.Contains(problems, "minimum achievable total is 2") {
			t.Errorf("problems = %s, want coverage report", problems)
		}
	})
}

// =============================================================================
// Bounds Tests
// =============================================================================

func TestDimensionBounds(t *testing.T) {
	twoQuestions := func(agg engine.AggregationStrategy) engine.Dimension {
		return engine.Dimension{
			ID:          "d",
			Aggregation: agg,
			Questions: []engine.Question{
				{ID: "a", Weight: 3.0, Required: true, Scores: map[string]int{"lo": 1, "hi": 4}},
				{ID: "b", Weight: 1.0, Required: true, Scores: map[string]int{"lo": 2, "hi": 8}},
			},
		}
	}

	tests := []struct {
		name   string
		agg    engine.AggregationStrategy
		wantLo float64
		wantHi float64
	}{
		{"weighted_average", engine.AggWeightedAverage, (1*3.0 + 2*1.0) / 4.0, (4*3.0 + 8*1.0) / 4.0},
		{"average", engine.AggAverage, 1.5, 6.0},
		{"sum", engine.AggSum, 3.0, 12.0},
		{"max", engine.AggMax, 2.0, 8.0},
		{"min", engine.AggMin, 1.0, 4.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dim := twoQuestions(tt.agg)
			lo, hi := dimensionBounds(&dim)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("dimensionBounds() = (%v, %v), want (%v, %v)", lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestDimensionBounds_OptionalQuestions(t *testing.T) {
	t.Run("skipping a high-floor optional lowers the bound", func(t *testing.T) {
		// The optional question's minimum (3) exceeds the required one's
		// (1); skipping it must widen the interval down to 1.
		dim := engine.Dimension{
			ID:          "d",
			Aggregation: engine.AggWeightedAverage,
			Questions: []engine.Question{
				{ID: "a", Weight: 1.0, Required: true, Scores: map[string]int{"lo": 1, "hi": 4}},
				{ID: "b", Weight: 1.0, Required: false, Scores: map[string]int{"lo": 3, "hi": 4}},
			},
		}
		lo, hi := dimensionBounds(&dim)
		if lo != 1.0 || hi != 4.0 {
			t.Errorf("dimensionBounds() = (%v, %v), want (1, 4)", lo, hi)
		}
	})

	t.Run("all-optional dimension can contribute nothing", func(t *testing.T) {
		dim := engine.Dimension{
			ID:          "d",
			Aggregation: engine.AggSum,
			Questions: []engine.Question{
				{ID: "a", Weight: 1.0, Required: false, Scores: map[string]int{"lo": 2, "hi": 5}},
			},
		}
		lo, hi := dimensionBounds(&dim)
		if lo != 0.0 || hi != 5.0 {
			t.Errorf("dimensionBounds() = (%v, %v), want (0, 5)", lo, hi)
		}
	})
}

func TestLoad_OptionalQuestionThresholdCoverage(t *testing.T) {
	// A complete answer set that skips an optional question must still
	// classify, so the coverage proof has to consider skipped subsets.
	scoringFor := func(thresholds string) string {
		return `
dimensions:
  - id: autonomy
    aggregation: weighted_average
    questions:
      - id: autonomy
        scores:
          lo: 1
          hi: 4
      - id: rollback
        required: false
        scores:
          mid: 3
          hi: 4
risk_thresholds:
` + thresholds
	}

	t.Run("rejects thresholds covering only the all-answered interval", func(t *testing.T) {
		problems := loadProblems(t, scoringFor(`
  - min_score: 2
    max_score: 4
    level: low
`), "by_risk_level: {}\n")
		if !strings.Contains(problems, "minimum achievable total is 1") {
			t.Errorf("problems = %s, want minimum-coverage report", problems)
		}
	})

	t.Run("accepts thresholds covering the skipped-optional interval", func(t *testing.T) {
		dir := writeTree(t, scoringFor(`
  - min_score: 1
    max_score: 4
    level: low
`), "by_risk_level: {}\n", nil)
		model, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		eng, err := engine.New(model)
		if err != nil {
			t.Fatalf("engine.New() error = %v", err)
		}

		result, err := eng.Evaluate(map[string]map[string]string{
			"autonomy": {"autonomy": "lo"},
		})
		if err != nil {
			t.Fatalf("Evaluate() with skipped optional error = %v", err)
		}
		if result.TotalScore != 1 {
			t.Errorf("TotalScore = %v, want 1", result.TotalScore)
		}
		if result.RiskLevel != engine.RiskLow {
			t.Errorf("RiskLevel = %v, want low", result.RiskLevel)
		}
	})
}

func TestConfigurationError_Error(t *testing.T) {
	err := &ConfigurationError{Dir: "/etc/assess", Problems: []string{"a", "b"}}
	got := err.Error()
	for _, want := range []string{"/etc/assess", "a; b"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}
