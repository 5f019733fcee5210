// Package parser turns human-authored form specifications into the
// canonical model. Three formats are supported: markdown documents with
// field tables, CSV files with a header row, and canonical YAML. Each
// parser produces a *core.App; structural failures abort immediately with
// a *ParseError and are never aggregated (that is the validator's job for
// semantic findings).
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// ParseError reports malformed input structure. Unrecoverable for that
// input; carries the source location for diagnostics.
type ParseError struct {
	File   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Reason)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	default:
		return e.Reason
	}
}

// Options adjusts parsing behavior. The zero value is the default for all
// formats.
type Options struct {
	// FormID overrides the single form id produced by the CSV parser.
	FormID string
	// FormName overrides the form display name (CSV).
	FormName string
	// PrimaryKey overrides the CSV default of treating the first column
	// as primary key.
	PrimaryKey string
	// SuggestReferences enables the low-confidence prose scan of markdown
	// purpose columns. Matches surface as Suggestions on the Result and
	// never change a field's declared type.
	SuggestReferences bool
}

// Suggestion is an advisory foreign-key candidate found in prose. It is
// informational only: acting on it is the author's call.
type Suggestion struct {
	FormID     string
	FieldID    string
	TargetForm string
	Phrase     string
}

// Result is a successful parse: the canonical App plus any advisory
// suggestions.
type Result struct {
	App         *core.App
	Suggestions []Suggestion
}

// Format identifies an input format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatYAML     Format = "yaml"
)

// FormatForPath maps a file extension to its format.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, true
	case ".csv":
		return FormatCSV, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Parse dispatches source text to the parser for the given format.
func Parse(src []byte, format Format, opts Options) (*Result, error) {
	switch format {
	case FormatMarkdown:
		return ParseMarkdown(src, opts)
	case FormatCSV:
		return ParseCSV(src, opts)
	case FormatYAML:
		return ParseYAML(src, opts)
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("unsupported format %q", format)}
	}
}

// ParseFile reads and parses one input file, picking the parser from the
// file extension. Any *ParseError is stamped with the file path.
func ParseFile(path string, opts Options) (*Result, error) {
	if _, ok := FormatForPath(path); !ok {
		return nil, &ParseError{File: path, Reason: fmt.Sprintf("unsupported input extension %q", filepath.Ext(path))}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseContent(path, src, opts)
}

// ParseContent parses already-read source for a path. Callers that hash
// or cache file content use this to avoid a second read; the path only
// selects the format and labels diagnostics.
func ParseContent(path string, src []byte, opts Options) (*Result, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return nil, &ParseError{File: path, Reason: fmt.Sprintf("unsupported input extension %q", filepath.Ext(path))}
	}

	result, err := Parse(src, format, opts)
	if err != nil {
		if perr, ok := err.(*ParseError); ok && perr.File == "" {
			perr.File = path
		}
		return nil, err
	}

	// CSV single-form specs name themselves after the file when the
	// caller does not say otherwise.
	if format == FormatCSV && opts.FormID == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		renameDefaultCSVForm(result.App, stem)
	}
	return result, nil
}

// ParseYAML loads canonical YAML. Structural failures from the codec are
// wrapped as parse errors; semantic validation stays with the validator.
func ParseYAML(src []byte, _ Options) (*Result, error) {
	app, err := core.DecodeYAML(src)
	if err != nil {
		if yerr, ok := err.(*core.YAMLError); ok {
			return nil, &ParseError{Line: yerr.Line, Reason: yerr.Message}
		}
		return nil, &ParseError{Reason: err.Error()}
	}
	return &Result{App: app}, nil
}
