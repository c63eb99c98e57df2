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
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianAssess/services/assessment/config"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var validateConfigDir string

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the scoring configuration tree",
	Long: `Load the configuration tree and report every structural problem.

Checks identifiers, question scoring, option/score consistency,
threshold ordering and coverage, and conditional rule references.
All problems are reported in one pass, not just the first.

Examples:
  assess validate
  assess validate --config /etc/assess

Exit Codes:
  0 = Configuration is valid
  2 = Configuration is invalid or unreadable`,
	Run: runValidateCommand,
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigDir, "config", "configs",
		"Path to the configuration directory")

	// Add to root
	rootCmd.AddCommand(validateCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runValidateCommand(cmd *cobra.Command, args []string) {
	model, err := config.Load(validateConfigDir)
	if err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "Configuration in %s is invalid (%d problems):\n",
				cfgErr.Dir, len(cfgErr.Problems))
			for _, problem := range cfgErr.Problems {
				fmt.Fprintf(os.Stderr, "  - %s\n", problem)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitError)
	}

	questionCount := 0
	for _, dim := range model.Dimensions {
		questionCount += len(dim.Questions)
	}
	fmt.Printf("Configuration in %s is valid.\n", validateConfigDir)
	fmt.Printf("  Dimensions:      %d\n", len(model.Dimensions))
	fmt.Printf("  Questions:       %d\n", questionCount)
	fmt.Printf("  Thresholds:      %d\n", len(model.Thresholds))
	fmt.Printf("  Conditional:     %d rules\n", len(model.Rules))
	os.Exit(ExitSuccess)
}
