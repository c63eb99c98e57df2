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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianAssess/pkg/validation"
	"github.com/AleutianAI/AleutianAssess/services/assessment/engine"
)

// ConfigurationError reports every structural violation found in one load,
// not just the first, so operators can fix a config tree in one pass.
//
// It is only ever produced here, at load time; the engine's runtime path
// never raises it.
type ConfigurationError struct {
	Dir      string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration in %s: %s", e.Dir, strings.Join(e.Problems, "; "))
}

// Load reads the configuration tree rooted at dir and materializes the
// engine's immutable Model.
//
// # Description
//
// Reads scoring.yaml, recommendations.yaml, and questions/*.yaml, then
// enforces the structural invariants the engine assumes:
//
//   - dimension and question ids are valid identifiers, unique in scope
//   - every dimension has at least one question
//   - question weights are positive (default 1.0 when absent)
//   - every declared option has a score entry and vice versa
//   - thresholds are ascending, non-overlapping, contiguous, and cover the
//     achievable total-score range
//   - conditional rules have non-empty conditions naming known dimensions
//     and known answer keys
//
// # Outputs
//
//   - *engine.Model: Ready for engine.New. Never returned alongside an
//     error.
//   - error: *ConfigurationError carrying the full problem list, or a
//     wrapped I/O / YAML error for unreadable files.
func Load(dir string) (*engine.Model, error) {
	scoring, err := readScoringFile(filepath.Join(dir, ScoringFileName))
	if err != nil {
		return nil, err
	}
	recommendations, err := readRecommendationsFile(filepath.Join(dir, RecommendationsFileName))
	if err != nil {
		return nil, err
	}
	questionFiles, err := readQuestionsDir(filepath.Join(dir, QuestionsDirName))
	if err != nil {
		return nil, err
	}

	b := &modelBuilder{questionFiles: questionFiles}
	model := b.build(scoring, recommendations)
	if len(b.problems) > 0 {
		return nil, &ConfigurationError{Dir: dir, Problems: b.problems}
	}
	return model, nil
}

// =============================================================================
// File reading
// =============================================================================

func readScoringFile(path string) (*ScoringFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring config: %w", err)
	}
	var scoring ScoringFile
	if err := yaml.Unmarshal(data, &scoring); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &scoring, nil
}

func readRecommendationsFile(path string) (*RecommendationsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recommendations config: %w", err)
	}
	var recommendations RecommendationsFile
	if err := yaml.Unmarshal(data, &recommendations); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &recommendations, nil
}

// readQuestionsDir loads every questions/*.yaml, keyed by dimension id.
// The directory is optional; dimensions without a questions file derive
// their option metadata from the score map.
func readQuestionsDir(dir string) (map[string]*QuestionsFile, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]*QuestionsFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read questions dir: %w", err)
	}

	files := make(map[string]*QuestionsFile, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var qf QuestionsFile
		if err := yaml.Unmarshal(data, &qf); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		files[qf.Dimension] = &qf
	}
	return files, nil
}

// =============================================================================
// Model building and validation
// =============================================================================

type modelBuilder struct {
	questionFiles map[string]*QuestionsFile
	problems      []string
}

func (b *modelBuilder) problemf(format string, args ...any) {
	b.problems = append(b.problems, fmt.Sprintf(format, args...))
}

func (b *modelBuilder) build(scoring *ScoringFile, recommendations *RecommendationsFile) *engine.Model {
	model := &engine.Model{
		BaseRecommendations: make(map[engine.RiskLevel][]string),
	}

	seenDimensions := make(map[string]bool)
	for i := range scoring.Dimensions {
		ds := &scoring.Dimensions[i]
		if err := validation.ValidateIdentifier(ds.ID); err != nil {
			b.problemf("dimension %d: %v", i, err)
			continue
		}
		if seenDimensions[ds.ID] {
			b.problemf("dimension %q declared twice", ds.ID)
			continue
		}
		seenDimensions[ds.ID] = true
		model.Dimensions = append(model.Dimensions, b.buildDimension(ds))
	}
	if len(model.Dimensions) == 0 {
		b.problemf("scoring config declares no dimensions")
	}

	b.buildThresholds(model, scoring.RiskThresholds)
	b.buildRecommendations(model, recommendations)
	return model
}

func (b *modelBuilder) buildDimension(ds *DimensionScoring) engine.Dimension {
	dim := engine.Dimension{
		ID:          ds.ID,
		Aggregation: engine.AggregationStrategy(ds.Aggregation),
	}
	if dim.Aggregation == "" {
		b.problemf("dimension %q: missing aggregation strategy", ds.ID)
	}
	if qf := b.questionFiles[ds.ID]; qf != nil {
		dim.Label = qf.Label
	}
	if len(ds.Questions) == 0 {
		b.problemf("dimension %q has zero questions", ds.ID)
		return dim
	}

	seenQuestions := make(map[string]bool)
	for i := range ds.Questions {
		qs := &ds.Questions[i]
		if err := validation.ValidateIdentifier(qs.ID); err != nil {
			b.problemf("dimension %q question %d: %v", ds.ID, i, err)
			continue
		}
		if seenQuestions[qs.ID] {
			b.problemf("dimension %q: question %q declared twice", ds.ID, qs.ID)
			continue
		}
		seenQuestions[qs.ID] = true
		dim.Questions = append(dim.Questions, b.buildQuestion(ds.ID, qs))
	}
	return dim
}

func (b *modelBuilder) buildQuestion(dimensionID string, qs *QuestionScoring) engine.Question {
	q := engine.Question{
		ID:       qs.ID,
		Weight:   1.0,
		Required: true,
		Scores:   qs.Scores,
	}
	if qs.Weight != nil {
		q.Weight = *qs.Weight
		if q.Weight <= 0 {
			b.problemf("dimension %q question %q: weight must be positive, got %v", dimensionID, qs.ID, q.Weight)
		}
	}
	if qs.Required != nil {
		q.Required = *qs.Required
	}
	if len(qs.Scores) == 0 {
		b.problemf("dimension %q question %q has no scores", dimensionID, qs.ID)
		return q
	}
	for key := range qs.Scores {
		if err := validation.ValidateIdentifier(key); err != nil {
			b.problemf("dimension %q question %q: %v", dimensionID, qs.ID, err)
		}
	}

	def := b.questionDef(dimensionID, qs.ID)
	if def != nil {
		q.Label = def.Label
	}
	q.Options = b.resolveOptions(dimensionID, qs, def)
	return q
}

// questionDef finds the display metadata for a question in the dimension's
// questions file, if any.
func (b *modelBuilder) questionDef(dimensionID, questionID string) *QuestionDef {
	qf := b.questionFiles[dimensionID]
	if qf == nil {
		return nil
	}
	for i := range qf.Questions {
		if qf.Questions[i].ID == questionID {
			return &qf.Questions[i]
		}
	}
	return nil
}

// resolveOptions merges display metadata from the dimension's questions
// file with the score map, cross-checking both directions: an option
// without a score entry and a score for an undeclared option are both
// configuration errors, never runtime defaults.
func (b *modelBuilder) resolveOptions(dimensionID string, qs *QuestionScoring, def *QuestionDef) []engine.Option {
	if def == nil {
		// No display metadata; derive options from the score map in a
		// stable order.
		keys := make([]string, 0, len(qs.Scores))
		for key := range qs.Scores {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		options := make([]engine.Option, len(keys))
		for i, key := range keys {
			options[i] = engine.Option{Key: key, Label: key}
		}
		return options
	}

	declared := make(map[string]bool, len(def.Options))
	options := make([]engine.Option, 0, len(def.Options))
	for _, opt := range def.Options {
		declared[opt.Key] = true
		options = append(options, engine.Option{
			Key:         opt.Key,
			Label:       opt.Label,
			Description: opt.Description,
		})
		if _, scored := qs.Scores[opt.Key]; !scored {
			b.problemf("dimension %q question %q: option %q has no score entry", dimensionID, qs.ID, opt.Key)
		}
	}
	for key := range qs.Scores {
		if !declared[key] {
			b.problemf("dimension %q question %q: score for undeclared option %q", dimensionID, qs.ID, key)
		}
	}
	return options
}

func (b *modelBuilder) buildThresholds(model *engine.Model, entries []ThresholdEntry) {
	if len(entries) == 0 {
		b.problemf("scoring config declares no risk thresholds")
		return
	}

	for i, entry := range entries {
		if entry.MaxScore < entry.MinScore {
			b.problemf("threshold %d (%s): max_score %d below min_score %d",
				i, entry.Level, entry.MaxScore, entry.MinScore)
		}
		if i > 0 {
			previous := entries[i-1]
			switch {
			case entry.MinScore <= previous.MaxScore:
				b.problemf("threshold %d (%s): overlaps previous range ending at %d",
					i, entry.Level, previous.MaxScore)
			case entry.MinScore != previous.MaxScore+1:
				b.problemf("threshold %d (%s): gap between %d and %d",
					i, entry.Level, previous.MaxScore, entry.MinScore)
			}
		}
		model.Thresholds = append(model.Thresholds, engine.Threshold{
			Min:   entry.MinScore,
			Max:   entry.MaxScore,
			Level: engine.RiskLevel(entry.Level),
		})
	}

	// Thresholds must cover everything the dimensions can actually score.
	if len(b.problems) == 0 && len(model.Dimensions) > 0 {
		lo, hi := achievableTotalBounds(model.Dimensions)
		roundedLo, roundedHi := int(math.Round(lo)), int(math.Round(hi))
		if model.Thresholds[0].Min > roundedLo {
			b.problemf("thresholds start at %d but the minimum achievable total is %d",
				model.Thresholds[0].Min, roundedLo)
		}
		if model.Thresholds[len(model.Thresholds)-1].Max < roundedHi {
			b.problemf("thresholds end at %d but the maximum achievable total is %d",
				model.Thresholds[len(model.Thresholds)-1].Max, roundedHi)
		}
	}
}

// achievableTotalBounds computes the total-score interval reachable across
// every valid answer set: required questions always answered, each optional
// question either answered or skipped.
func achievableTotalBounds(dimensions []engine.Dimension) (float64, float64) {
	var totalLo, totalHi float64
	for i := range dimensions {
		lo, hi := dimensionBounds(&dimensions[i])
		totalLo += lo
		totalHi += hi
	}
	return totalLo, totalHi
}

// dimensionBounds computes one dimension's achievable score interval.
//
// Optional questions may legitimately be skipped, and skipping one can move
// the bound in either direction (an optional question whose minimum exceeds
// a required question's minimum raises the all-answered average), so the
// bounds are taken over every answered-subset: all required questions plus
// each combination of optional ones. A dimension whose questions are all
// optional may contribute nothing at all.
func dimensionBounds(dim *engine.Dimension) (float64, float64) {
	if len(dim.Questions) == 0 {
		return 0, 0
	}

	questionLo := make([]float64, len(dim.Questions))
	questionHi := make([]float64, len(dim.Questions))
	for i := range dim.Questions {
		first := true
		for _, score := range dim.Questions[i].Scores {
			value := float64(score)
			if first {
				questionLo[i], questionHi[i] = value, value
				first = false
				continue
			}
			questionLo[i] = math.Min(questionLo[i], value)
			questionHi[i] = math.Max(questionHi[i], value)
		}
	}

	var required, optional []int
	for i := range dim.Questions {
		if dim.Questions[i].Required {
			required = append(required, i)
		} else {
			optional = append(optional, i)
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for mask := 0; mask < 1<<len(optional); mask++ {
		answered := append([]int(nil), required...)
		for bit, qi := range optional {
			if mask&(1<<bit) != 0 {
				answered = append(answered, qi)
			}
		}
		if len(answered) == 0 {
			// All questions optional and none answered: the dimension is
			// skipped and contributes nothing to the total.
			lo = math.Min(lo, 0)
			hi = math.Max(hi, 0)
			continue
		}
		subsetLo, subsetHi := aggregateBounds(dim, answered, questionLo, questionHi)
		lo = math.Min(lo, subsetLo)
		hi = math.Max(hi, subsetHi)
	}
	return lo, hi
}

// aggregateBounds applies the dimension's aggregation strategy to the
// per-question bounds of one answered subset.
func aggregateBounds(dim *engine.Dimension, answered []int, questionLo, questionHi []float64) (float64, float64) {
	switch dim.Aggregation {
	case engine.AggWeightedAverage:
		var loSum, hiSum, weightSum float64
		for _, i := range answered {
			w := dim.Questions[i].Weight
			loSum += questionLo[i] * w
			hiSum += questionHi[i] * w
			weightSum += w
		}
		if weightSum == 0 {
			return 0, 0
		}
		return loSum / weightSum, hiSum / weightSum
	case engine.AggAverage:
		var loSum, hiSum float64
		for _, i := range answered {
			loSum += questionLo[i]
			hiSum += questionHi[i]
		}
		n := float64(len(answered))
		return loSum / n, hiSum / n
	case engine.AggSum:
		var loSum, hiSum float64
		for _, i := range answered {
			loSum += questionLo[i]
			hiSum += questionHi[i]
		}
		return loSum, hiSum
	case engine.AggMax:
		lo, hi := questionLo[answered[0]], questionHi[answered[0]]
		for _, i := range answered[1:] {
			lo = math.Max(lo, questionLo[i])
			hi = math.Max(hi, questionHi[i])
		}
		return lo, hi
	case engine.AggMin:
		lo, hi := questionLo[answered[0]], questionHi[answered[0]]
		for _, i := range answered[1:] {
			lo = math.Min(lo, questionLo[i])
			hi = math.Min(hi, questionHi[i])
		}
		return lo, hi
	default:
		return 0, 0
	}
}

func (b *modelBuilder) buildRecommendations(model *engine.Model, recommendations *RecommendationsFile) {
	for key, texts := range recommendations.ByRiskLevel {
		level, err := engine.ParseRiskLevel(key)
		if err != nil {
			b.problemf("recommendations: %v", err)
			continue
		}
		model.BaseRecommendations[level] = texts
	}

	for i, entry := range recommendations.Conditional {
		if strings.TrimSpace(entry.Recommendation) == "" {
			b.problemf("conditional rule %d: empty recommendation text", i)
			continue
		}
		if len(entry.Condition) == 0 {
			b.problemf("conditional rule %d (%q): empty condition never matches", i, entry.Recommendation)
			continue
		}

		rule := engine.Rule{Text: entry.Recommendation}
		// Condition entries are ANDed, so a stable order only matters for
		// reproducible error messages and tests.
		conditionDims := make([]string, 0, len(entry.Condition))
		for dimID := range entry.Condition {
			conditionDims = append(conditionDims, dimID)
		}
		sort.Strings(conditionDims)

		for _, dimID := range conditionDims {
			allowed := entry.Condition[dimID]
			dim := model.Dimension(dimID)
			if dim == nil {
				b.problemf("conditional rule %d: condition names unknown dimension %q", i, dimID)
				continue
			}
			if len(allowed) == 0 {
				b.problemf("conditional rule %d: condition on %q allows no answers", i, dimID)
				continue
			}
			primary := dim.PrimaryQuestion()
			for _, key := range allowed {
				if primary == nil {
					break
				}
				if _, known := primary.Scores[key]; !known {
					b.problemf("conditional rule %d: condition on %q names unknown answer %q", i, dimID, key)
				}
			}
			rule.Conditions = append(rule.Conditions, engine.MembershipCondition{
				Dimension: dimID,
				AnyOf:     allowed,
			})
		}
		model.Rules = append(model.Rules, rule)
	}
}
