// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianAssess/services/assessment/config"
	"github.com/AleutianAI/AleutianAssess/services/assessment/engine"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	evaluateAnswers   string
	evaluateConfigDir string
	evaluateThreshold string
	evaluateJSON      bool
	evaluateQuiet     bool
	evaluateExplain   bool
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one assessment against the scoring configuration",
	Long: `Score an answers file, classify the total, and print recommendations.

The answers file is YAML (JSON also parses) mapping dimension ids to
question ids to selected option keys:

  workflow_name: invoice-triage
  assessor: sre-team
  answers:
    autonomy:
      autonomy: semi_autonomous
    oversight:
      oversight: checkpoint

Examples:
  assess evaluate --answers deploy.yaml
  assess evaluate --answers deploy.yaml --config /etc/assess
  assess evaluate --answers deploy.yaml --threshold medium   # CI gating
  assess evaluate --answers deploy.yaml --json               # automation
  assess evaluate --answers deploy.yaml --explain            # score breakdown

Exit Codes:
  0 = Risk at or below threshold (safe to proceed)
  1 = Risk above threshold (requires review)
  2 = Error (bad config, bad answers, I/O failure)`,
	Run: runEvaluateCommand,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluateAnswers, "answers", "",
		"Path to the answers file (required)")
	evaluateCmd.Flags().StringVar(&evaluateConfigDir, "config", "configs",
		"Path to the configuration directory")
	evaluateCmd.Flags().StringVar(&evaluateThreshold, "threshold", "critical",
		"Exit 0 if at/below: low, medium, high, critical")
	evaluateCmd.Flags().BoolVar(&evaluateJSON, "json", false,
		"Output as JSON")
	evaluateCmd.Flags().BoolVar(&evaluateQuiet, "quiet", false,
		"Only exit code, no output")
	evaluateCmd.Flags().BoolVar(&evaluateExplain, "explain", false,
		"Show per-dimension score breakdown")
	evaluateCmd.MarkFlagRequired("answers")

	// Add to root
	rootCmd.AddCommand(evaluateCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

// AnswersFile is the on-disk answers document.
type AnswersFile struct {
	WorkflowName string           `yaml:"workflow_name" validate:"omitempty,max=128"`
	Assessor     string           `yaml:"assessor" validate:"omitempty,max=128"`
	Answers      engine.AnswerSet `yaml:"answers" validate:"required,min=1,dive,keys,required,endkeys,required,min=1"`
}

func runEvaluateCommand(cmd *cobra.Command, args []string) {
	threshold, err := engine.ParseRiskLevel(evaluateThreshold)
	if err != nil {
		outputEvaluateError("Invalid threshold", err)
		os.Exit(ExitError)
	}

	model, err := config.Load(evaluateConfigDir)
	if err != nil {
		outputEvaluateError("Failed to load configuration", err)
		os.Exit(ExitError)
	}
	eng, err := engine.New(model)
	if err != nil {
		outputEvaluateError("Failed to initialize engine", err)
		os.Exit(ExitError)
	}

	answers, err := loadAnswersFile(evaluateAnswers)
	if err != nil {
		outputEvaluateError("Failed to load answers", err)
		os.Exit(ExitError)
	}

	result, err := eng.Evaluate(answers.Answers)
	if err != nil {
		outputEvaluateError("Assessment failed", err)
		os.Exit(ExitError)
	}

	if !evaluateQuiet {
		if evaluateJSON {
			outputEvaluateJSON(result)
		} else {
			outputEvaluateText(result, answers)
		}
	}

	if result.RiskLevel.Exceeds(threshold) {
		os.Exit(ExitRiskFound)
	}
	os.Exit(ExitSuccess)
}

// loadAnswersFile reads and validates the answers document.
func loadAnswersFile(path string) (*AnswersFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}

	var file AnswersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}

	if err := validator.New().Struct(&file); err != nil {
		return nil, fmt.Errorf("invalid answers file: %w", err)
	}
	return &file, nil
}

// =============================================================================
// OUTPUT FUNCTIONS
// =============================================================================

func outputEvaluateError(msg string, err error) {
	if evaluateJSON && !evaluateQuiet {
		result := map[string]interface{}{
			"success": false,
			"error":   fmt.Sprintf("%s: %v", msg, err),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		encoder.Encode(result)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}

func outputEvaluateJSON(result *engine.Result) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
		os.Exit(ExitError)
	}
}

func outputEvaluateText(result *engine.Result, answers *AnswersFile) {
	if answers.WorkflowName != "" {
		fmt.Printf("Workflow: %s\n", answers.WorkflowName)
	}
	fmt.Printf("Risk Level: %s %s\n", result.RiskLevel, riskIndicator(result.RiskLevel))
	fmt.Printf("Total Score: %.2f (algorithm v%s)\n", result.TotalScore, result.AlgorithmVersion)
	fmt.Println()

	if evaluateExplain {
		fmt.Println("Dimension Breakdown:")
		ids := make([]string, 0, len(result.DimensionScores))
		for id := range result.DimensionScores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("  %-20s %.2f\n", id, result.DimensionScores[id])
		}
		fmt.Println()
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}

// riskIndicator maps a level to a terminal marker.
func riskIndicator(level engine.RiskLevel) string {
	switch level {
	case engine.RiskLow:
		return "(ok)"
	case engine.RiskMedium:
		return "(!)"
	case engine.RiskHigh:
		return "(!!)"
	case engine.RiskCritical:
		return "(!!!)"
	default:
		return ""
	}
}
