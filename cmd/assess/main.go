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
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes shared by all subcommands.
const (
	ExitSuccess   = 0 // Risk at or below threshold (safe to proceed)
	ExitRiskFound = 1 // Risk above threshold (requires review)
	ExitError     = 2 // Error (bad config, bad answers, I/O failure)
)

var rootCmd = &cobra.Command{
	Use:   "assess",
	Short: "A cli to evaluate AI deployment risk assessments",
	Long: `Assess evaluates AI deployment questionnaires against a YAML-driven
scoring configuration: per-dimension aggregation, threshold
classification, and recommendation selection.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
