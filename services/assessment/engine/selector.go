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

// SelectRecommendations produces the ordered, de-duplicated recommendation
// list for a resolved risk level and answer set.
//
// # Description
//
// Base recommendations for the level come first, in declared order, then
// every conditional rule whose conditions all match, in declared order.
// Ordering is purely declaration order: operators control presentation by
// editing configuration order, not a priority field.
//
// A rule matches when, for every condition entry, the assessment's answer
// for the named dimension is a member of the allowed set. The answer tested
// is the answer to the dimension's primary question. Rules with empty
// conditions are rejected at load time and never reach this loop.
//
// De-duplication keeps the first occurrence of a literal text and its
// original position.
//
// # Thread Safety
//
// Pure function of (model, level, answers); safe for concurrent use.
func SelectRecommendations(model *Model, level RiskLevel, answers AnswerSet) []string {
	dimensionAnswers := resolveDimensionAnswers(model, answers)

	recommendations := make([]string, 0, len(model.BaseRecommendations[level]))
	seen := make(map[string]struct{})

	appendUnique := func(text string) {
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		recommendations = append(recommendations, text)
	}

	for _, text := range model.BaseRecommendations[level] {
		appendUnique(text)
	}

	for _, rule := range model.Rules {
		matched := true
		for _, cond := range rule.Conditions {
			if !cond.Matches(dimensionAnswers) {
				matched = false
				break
			}
		}
		if matched {
			appendUnique(rule.Text)
		}
	}

	return recommendations
}

// resolveDimensionAnswers flattens the answer set to one answer per
// dimension: the answer to the dimension's primary question.
func resolveDimensionAnswers(model *Model, answers AnswerSet) map[string]string {
	resolved := make(map[string]string, len(model.Dimensions))
	for i := range model.Dimensions {
		dim := &model.Dimensions[i]
		primary := dim.PrimaryQuestion()
		if primary == nil {
			continue
		}
		if answer, ok := answers[dim.ID][primary.ID]; ok {
			resolved[dim.ID] = answer
		}
	}
	return resolved
}
