// Package logging provides utilities for secure logging with data masking.
package logging

import "strings"

// MaskSecret redacts a credential value for logging, showing only the
// last 4 characters. Registration tokens and API keys must never appear
// in plaintext in any log line.
func MaskSecret(value string) string {
	if len(value) < 8 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}

// MaskHeader redacts sensitive header values based on header name.
// Returns the redacted value suitable for logging.
//
// Rules:
// - Secret/password headers: "[REDACTED]" (no partial reveal)
// - Key/token headers: "****" + last4chars (e.g., "****ab3f")
// - Other headers: returned unchanged
func MaskHeader(name, value string) string {
	lowerName := strings.ToLower(name)

	// Full redaction for anything that smells like a stored secret
	if strings.Contains(lowerName, "password") || strings.Contains(lowerName, "secret") {
		return "[REDACTED]"
	}

	// Credential headers - show last 4 chars
	if lowerName == "authorization" ||
		lowerName == "x-admin-key" ||
		lowerName == "x-api-key" {
		return MaskSecret(value)
	}

	return value
}
