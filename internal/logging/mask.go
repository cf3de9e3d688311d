// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the zap logger used across the CLI together with
// utilities for secure logging and error presentation.
//
// Access tokens travel in URL fragments, query strings, JSON bodies and
// Authorization headers during sign-in; Mask redacts all of these forms so
// that log lines and error messages never carry a usable credential.
package logging

import (
	"regexp"
)

var (
	reToken     = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._~+/-]+)`)
	reState     = regexp.MustCompile(`(?i)(state=)([^\s&;#]+)`)
	reJSONToken = regexp.MustCompile(`(?i)("(?:access_)?token"\s*:\s*")([^"]*)(")`)
	rePassword  = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
)

// Mask replaces sensitive values in the input string with "***".
func Mask(s string) string {
	out := s
	out = reToken.ReplaceAllString(out, "$1***")
	out = reState.ReplaceAllString(out, "$1***")
	out = reJSONToken.ReplaceAllString(out, "$1***$3")
	out = rePassword.ReplaceAllString(out, "$1***")
	return out
}
