// Package output renders command results for humans and machines. A
// terminal gets styled text, a pipe gets markdown so scripted callers
// parse stable output, and --output overrides both.
package output

import "strings"

// OutputMode selects how command results are rendered.
type OutputMode string

const (
	// ModeAuto picks text on a terminal and markdown everywhere else.
	ModeAuto OutputMode = "auto"
	// ModeText is styled terminal output.
	ModeText OutputMode = "text"
	// ModeMarkdown is plain markdown without escape codes.
	ModeMarkdown OutputMode = "markdown"
	// ModeJSON is machine-readable JSON.
	ModeJSON OutputMode = "json"
)

// Mode normalizes a configuration value into an OutputMode. Unknown and
// empty values fall back to auto detection.
func Mode(s string) OutputMode {
	switch OutputMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeText:
		return ModeText
	case ModeMarkdown, "md":
		return ModeMarkdown
	case ModeJSON:
		return ModeJSON
	default:
		return ModeAuto
	}
}
