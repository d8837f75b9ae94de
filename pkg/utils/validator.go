package utils

import (
	"fmt"
	"regexp"
)

var documentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,127}$`)

// ValidateDocumentID checks that a document identifier is present and uses
// only path-safe characters
func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document id is required")
	}
	if !documentIDPattern.MatchString(id) {
		return fmt.Errorf("invalid document id format: %s", id)
	}
	return nil
}

// SanitizeString removes control characters from free-text input
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
