// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided inputs that are used in
// database keys, file paths, or subprocess calls. Using these validators
// prevents injection attacks and key-space collisions.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// sessionIDPattern matches valid session identifiers.
// Allows: lowercase letters, digits, hyphens (UUID shape), underscores.
// Max length: 64 characters.
var sessionIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_\-]{0,63}$`)

// ValidateSessionID validates a session identifier before it is used as a
// database key prefix.
//
// Valid session IDs:
//   - 1-64 characters
//   - Lowercase letters a-z and digits 0-9
//   - Hyphens (-) as in UUIDs
//   - Underscores (_)
//
// Returns an error if the ID is invalid.
//
// Example:
//
//	if err := validation.ValidateSessionID(sessionID); err != nil {
//	    return nil, fmt.Errorf("invalid session: %w", err)
//	}
//	// Safe to use as a key prefix
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}

	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("invalid session id format: %q (must be 1-64 lowercase alphanumeric chars, hyphens, or underscores)", id)
	}

	return nil
}

// SanitizeSessionID normalizes and validates a session identifier.
// Returns the lowercase ID if valid, or an error if invalid.
//
// Use this when you need both validation and normalization:
//
//	safeID, err := validation.SanitizeSessionID(userInput)
//	if err != nil {
//	    return err
//	}
//	// safeID is lowercase and validated
func SanitizeSessionID(id string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(id))
	if err := ValidateSessionID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
