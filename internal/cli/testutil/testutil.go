// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/leapform/internal/cli/output"
)

// sampleSpec is a two-form specification with one foreign-key edge,
// enough to exercise parsing, validation, ordering and building.
const sampleSpec = `# Deploy Tracker

App ID: deploy_tracker
Version: 1.0.0

## Form: Deployment Jobs

Table: deployment_jobs

| Field Name | Label | Type | Size | Required | Default | Purpose |
|------------|-------|------|------|----------|---------|---------|
| job_id | Job ID | Text Field | 20 | yes | | Job number |
| job_name | Job Name | Text Field | 64 | yes | | |
| status | Status | Select Box | | yes | pending | |

Primary Key: ` + "`job_id`" + `

### Select Box Options

- status: pending, running, completed

## Form: Deployment History

Table: deployment_history

| Field Name | Label | Type | Size | Required | Default | Purpose |
|------------|-------|------|------|----------|---------|---------|
| entry_id | Entry ID | Text Field | 20 | yes | | Record number |
| job_id | Job | Foreign Key | 20 | yes | | Executed job |
| operator | Operator | Text Field | 40 | yes | | |

Primary Key: ` + "`entry_id`" + `

Foreign Key: ` + "`job_id` -> `deployment_jobs.job_id`" + `
`

// SetupTestProject creates a temporary leapform project: a config file,
// a forms directory with a sample specification, and an out directory.
// It returns the project root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	for _, dir := range []string{
		filepath.Join(tmpDir, "forms"),
		filepath.Join(tmpDir, "out"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("failed to create directory %s: %v", dir, err)
		}
	}

	configYAML := `forms_dir: forms
out_dir: out
state_path: .leapform/state.db
target: webform
`
	if err := os.WriteFile(filepath.Join(tmpDir, "leapform.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatalf("failed to create leapform.yaml: %v", err)
	}

	WriteForm(t, tmpDir, "deploy_tracker.md", sampleSpec)

	return tmpDir
}

// WriteForm writes one specification file under the project's forms
// directory and returns its path.
func WriteForm(t *testing.T, projectDir, name, content string) string {
	t.Helper()

	path := filepath.Join(projectDir, "forms", name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	return path
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and
// TTY state. Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto creates a new test renderer with auto mode
// detection. Non-TTY auto resolves to markdown output.
func NewTestRendererAuto() *TestRenderer {
	return NewTestRenderer(output.ModeAuto, false)
}

// NewTestRendererText creates a new test renderer in text mode (simulated
// TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the captured stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the captured stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertContains checks that the string contains the expected substring.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	if !strings.Contains(s, expected) {
		t.Errorf("string %q does not contain expected %q", s, expected)
	}
}

// AssertNotContains checks that the string does not contain the substring.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	if strings.Contains(s, unexpected) {
		t.Errorf("string %q unexpectedly contains %q", s, unexpected)
	}
}

// AssertValidMarkdown performs basic markdown validation: balanced code
// fences and no empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
