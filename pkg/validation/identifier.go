// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for
// configuration-driven identifiers.
//
// Dimension, question, and option keys flow from operator-edited YAML into
// API responses, log attributes, and report paths. Validating them at load
// time keeps malformed or hostile keys out of every downstream surface.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches valid configuration identifiers.
// Allows: lowercase letters, digits, underscores; must start with a letter.
// Max length: 64 characters.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// ValidateIdentifier validates a dimension, question, or option key.
//
// Valid identifiers:
//   - 1-64 characters
//   - Lowercase letters a-z and digits 0-9
//   - Underscores (_) as separators, e.g. data_sensitivity
//   - Must start with a letter
//
// Returns an error if the identifier is invalid.
//
// Example:
//
//	if err := validation.ValidateIdentifier(dimID); err != nil {
//	    return fmt.Errorf("invalid dimension id: %w", err)
//	}
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("invalid identifier %q (must be 1-64 lowercase alphanumeric chars or underscores, starting with a letter)", id)
	}

	return nil
}

// ValidateIdentifiers validates multiple identifiers.
// Returns an error listing all invalid identifiers if any fail validation.
func ValidateIdentifiers(ids []string) error {
	var invalid []string
	for _, id := range ids {
		if err := ValidateIdentifier(id); err != nil {
			invalid = append(invalid, id)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid identifiers: %s", strings.Join(invalid, ", "))
	}

	return nil
}
