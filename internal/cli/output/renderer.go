package output

// renderer.go - the Renderer writes styled text to a terminal and plain
// text everywhere else. Commands switch on EffectiveMode() and render
// through the same instance in every mode.

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Renderer writes command output. Normal results go to out, diagnostics
// to errOut.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   OutputMode
	isTTY  bool
	styles Styles
}

// Styles holds the lipgloss styles used by text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	FormID  lipgloss.Style
	Key     lipgloss.Style
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode OutputMode) *Renderer {
	return NewRendererWithTTY(out, errOut, detectTTY(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state, used
// by tests to pin the auto-detection branch.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode OutputMode) *Renderer {
	r := &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
	}
	r.styles = newStyles(out, r.useColor())
	return r
}

func detectTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// newStyles builds the style set. The color profile is pinned on the
// lipgloss renderer because auto-detection re-reads the environment and
// would strip colors whenever output is captured.
func newStyles(w io.Writer, color bool) Styles {
	profile := termenv.Ascii
	if color {
		profile = termenv.ANSI256
	}
	lr := lipgloss.NewRenderer(w, termenv.WithProfile(profile))
	lr.SetColorProfile(profile)

	return Styles{
		Header1: lr.NewStyle().Bold(true).Underline(true),
		Header2: lr.NewStyle().Bold(true),
		Success: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lr.NewStyle().Foreground(lipgloss.Color("9")),
		Muted:   lr.NewStyle().Foreground(lipgloss.Color("8")),
		FormID:  lr.NewStyle().Foreground(lipgloss.Color("14")),
		Key:     lr.NewStyle().Bold(true),
	}
}

// useColor reports whether styled output is appropriate: a terminal in
// text mode with colors not disabled by the environment.
func (r *Renderer) useColor() bool {
	if !r.isTTY || r.EffectiveMode() != ModeText {
		return false
	}
	return !termenv.EnvNoColor()
}

// EffectiveMode resolves ModeAuto: terminals render text, everything
// else markdown.
func (r *Renderer) EffectiveMode() OutputMode {
	if r.mode != ModeAuto && r.mode != "" {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Styles returns the style set for custom text rendering.
func (r *Renderer) Styles() Styles {
	return r.styles
}

// Writer returns the destination for normal output.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// Println writes a line to the output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a styled heading. Level 1 is the command title, level 2
// a section.
func (r *Renderer) Header(level int, text string) {
	switch level {
	case 1:
		r.Println(r.styles.Header1.Render(text))
	default:
		r.Println(r.styles.Header2.Render(text))
	}
	r.Println("")
}

// Success writes a confirmation line.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Warning writes a warning line to the error stream.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("! "+msg))
}

// Error writes an error line to the error stream.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("✗ "+msg))
}

// Muted writes a de-emphasized line.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// StatusLine writes one per-item progress line: a glyph for the status,
// the item name, and an optional muted detail.
func (r *Renderer) StatusLine(name, status, detail string) {
	var glyph string
	switch status {
	case "success", "created", "updated":
		glyph = r.styles.Success.Render("✓")
	case "failed", "error":
		glyph = r.styles.Error.Render("✗")
	case "warning":
		glyph = r.styles.Warning.Render("!")
	case "skipped":
		glyph = r.styles.Muted.Render("-")
	default:
		glyph = " "
	}

	if detail != "" {
		r.Printf("  %s %s %s\n", glyph, name, r.styles.Muted.Render(detail))
	} else {
		r.Printf("  %s %s\n", glyph, name)
	}
}

// JSON writes v as indented JSON to the output.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
