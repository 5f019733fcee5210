package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"text", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{"json", ModeJSON},
		{"JSON", ModeJSON},
		{" auto ", ModeAuto},
		{"", ModeAuto},
		{"yaml", ModeAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mode(tt.in), "Mode(%q)", tt.in)
	}
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  OutputMode
		isTTY bool
		want  OutputMode
	}{
		{"auto on terminal", ModeAuto, true, ModeText},
		{"auto piped", ModeAuto, false, ModeMarkdown},
		{"explicit text piped", ModeText, false, ModeText},
		{"explicit markdown on terminal", ModeMarkdown, true, ModeMarkdown},
		{"explicit json", ModeJSON, false, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRendererWithTTY(&bytes.Buffer{}, &bytes.Buffer{}, tt.isTTY, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_TextModeStyled(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR", "1")

	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, true, ModeText)

	r.Success("artifacts written")
	got := out.String()
	assert.Contains(t, got, "✓ artifacts written")
	assert.Contains(t, got, "\x1b[", "terminal text mode should carry escape codes")
}

func TestRenderer_MarkdownModePlain(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := NewRendererWithTTY(out, errOut, false, ModeMarkdown)

	r.Header(1, "Build")
	r.Success("done")
	r.Warning("long name")
	r.Muted("details")

	combined := out.String() + errOut.String()
	assert.NotContains(t, combined, "\x1b[", "markdown mode must not carry escape codes")
	assert.Contains(t, out.String(), "Build")
	assert.Contains(t, out.String(), "✓ done")
	assert.Contains(t, errOut.String(), "! long name")
}

func TestRenderer_ErrorStreams(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	r := NewRendererWithTTY(out, errOut, false, ModeText)

	r.Println("result")
	r.Warning("careful")
	r.Error("broken")

	assert.Contains(t, out.String(), "result")
	assert.NotContains(t, out.String(), "careful")
	assert.Contains(t, errOut.String(), "! careful")
	assert.Contains(t, errOut.String(), "✗ broken")
}

func TestRenderer_StatusLine(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeText)

	r.StatusLine("deployment_jobs.form.json", "success", "")
	r.StatusLine("broken.md", "failed", "2 errors")
	r.StatusLine("unchanged.md", "skipped", "")

	got := out.String()
	assert.Contains(t, got, "✓ deployment_jobs.form.json")
	assert.Contains(t, got, "✗ broken.md 2 errors")
	assert.Contains(t, got, "- unchanged.md")
}

func TestRenderer_JSON(t *testing.T) {
	out := &bytes.Buffer{}
	r := NewRendererWithTTY(out, &bytes.Buffer{}, false, ModeJSON)

	require.NoError(t, r.JSON(OrderOutput{
		Input: "forms/app.md",
		AppID: "deploy_tracker",
		Order: []string{"deployment_jobs", "deployment_history"},
	}))

	var decoded OrderOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "deploy_tracker", decoded.AppID)
	assert.Equal(t, []string{"deployment_jobs", "deployment_history"}, decoded.Order)
	assert.True(t, strings.Contains(out.String(), "\n  "), "JSON output is indented")
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "# Build", FormatHeader(1, "Build"))
	assert.Equal(t, "## Summary", FormatHeader(2, "Summary"))
	assert.Equal(t, "# clamped", FormatHeader(0, "clamped"))
	assert.Equal(t, "###### deep", FormatHeader(9, "deep"))
}

func TestFormatKeyValue(t *testing.T) {
	assert.Equal(t, "- **Forms**: 4", FormatKeyValue("Forms", "4"))
}

func TestFormatCodeBlock(t *testing.T) {
	got := FormatCodeBlock("sql", "create table t (id int);\n")
	assert.Equal(t, "```sql\ncreate table t (id int);\n```", got)
}
