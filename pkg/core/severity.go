package core

import "strings"

// Severity indicates the weight of a validation finding.
type Severity int

// Severity levels for findings.
const (
	// SeverityError gates the build; the spec must be fixed.
	SeverityError Severity = iota
	// SeverityWarning surfaces a deployment concern without blocking.
	SeverityWarning
	// SeverityInfo carries advisory output such as reference suggestions.
	SeverityInfo
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityWarning and false if
// invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(s) {
	case "error":
		return SeverityError, true
	case "warning":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	default:
		return SeverityWarning, false
	}
}
