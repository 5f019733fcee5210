// Package builder renders validated Apps into deployable artifacts. Each
// target (webform JSON, postgres DDL) registers a Builder; builds are pure
// functions of the App, so identical input yields byte-identical output.
// One form failing never blocks its siblings.
package builder

import (
	"fmt"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// Builder renders single forms for one target platform.
type Builder interface {
	// Name returns the registered target name.
	Name() string
	// FileExtension returns the artifact extension including the dot.
	FileExtension() string
	// BuildForm renders one form. The app provides cross-form context
	// (reference targets). No I/O, clock or randomness.
	BuildForm(app *core.App, form *core.Form, profile core.Profile) (*Document, error)
}

// Document is one rendered artifact.
type Document struct {
	FormID   string
	Target   string
	Filename string
	// Content is the artifact body.
	Content []byte
	// Epilogue holds statements that must run only after the Content of
	// every form has been applied (the constraint phase of SQL targets).
	// Empty for self-contained targets.
	Epilogue []byte
}

// Bytes returns the complete standalone artifact.
func (d *Document) Bytes() []byte {
	if len(d.Epilogue) == 0 {
		return d.Content
	}
	out := make([]byte, 0, len(d.Content)+len(d.Epilogue)+1)
	out = append(out, d.Content...)
	out = append(out, '\n')
	out = append(out, d.Epilogue...)
	return out
}

// BuildError reports why one form could not be rendered. Other forms of
// the same App keep building.
type BuildError struct {
	FormID  string
	FieldID string
	Target  string
	Reason  string
}

func (e *BuildError) Error() string {
	if e.FieldID != "" {
		return fmt.Sprintf("cannot build form %q for target %s: field %q: %s",
			e.FormID, e.Target, e.FieldID, e.Reason)
	}
	return fmt.Sprintf("cannot build form %q for target %s: %s", e.FormID, e.Target, e.Reason)
}

// Failure pairs a form with its build error.
type Failure struct {
	FormID string
	Err    *BuildError
}

// Result collects all documents of one build pass, keyed by form id.
// Order preserves form declaration order.
type Result struct {
	Target    string
	Documents map[string]*Document
	Order     []string
	Failures  []Failure
}

// OK reports whether every form rendered.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Build renders every form of the App for the named target. Per-form
// failures land in Result.Failures; the error return is reserved for an
// unknown target.
func Build(app *core.App, profile core.Profile, target string) (*Result, error) {
	b, err := Get(target)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Target:    target,
		Documents: make(map[string]*Document, len(app.Forms)),
	}
	for i := range app.Forms {
		form := &app.Forms[i]
		doc, err := b.BuildForm(app, form, profile)
		if err != nil {
			berr, ok := err.(*BuildError)
			if !ok {
				berr = &BuildError{FormID: form.ID, Target: target, Reason: err.Error()}
			}
			result.Failures = append(result.Failures, Failure{FormID: form.ID, Err: berr})
			continue
		}
		result.Documents[form.ID] = doc
		result.Order = append(result.Order, form.ID)
	}
	return result, nil
}

// Combine concatenates the built documents into one script following the
// given form order: every Content first, then every Epilogue. For SQL
// targets this is the two-phase schema script; ids missing from the
// result (failed or unknown) are skipped.
func Combine(result *Result, order []string) []byte {
	var out []byte
	for _, id := range order {
		doc, ok := result.Documents[id]
		if !ok {
			continue
		}
		out = append(out, doc.Content...)
		out = append(out, '\n')
	}
	for _, id := range order {
		doc, ok := result.Documents[id]
		if !ok || len(doc.Epilogue) == 0 {
			continue
		}
		out = append(out, doc.Epilogue...)
		out = append(out, '\n')
	}
	return out
}
