package builder

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// webform.go - the structural JSON target. A document describes one form
// as an ordered widget list a form runtime can render directly. Widget
// kinds mirror the canonical field types; reference-bound fields carry a
// source block naming where their choices come from.

func init() {
	Register("webform", func() Builder { return &webformBuilder{} })
}

// Wire shape of a webform document. Struct order fixes the key order in
// the emitted JSON.

type webformDocument struct {
	Form        string   `json:"form"`
	Name        string   `json:"name"`
	Table       string   `json:"table"`
	Version     string   `json:"version"`
	Fingerprint string   `json:"fingerprint"`
	Widgets     []widget `json:"widgets"`
}

type widget struct {
	ID         string        `json:"id"`
	Kind       string        `json:"kind"`
	Label      string        `json:"label"`
	Size       int           `json:"size,omitempty"`
	Required   bool          `json:"required"`
	PrimaryKey bool          `json:"primary_key,omitempty"`
	Default    string        `json:"default,omitempty"`
	Options    []string      `json:"options,omitempty"`
	Source     *widgetSource `json:"source,omitempty"`
}

type widgetSource struct {
	Form       string `json:"form"`
	Field      string `json:"field"`
	LabelField string `json:"label_field"`
}

type webformBuilder struct{}

func (b *webformBuilder) Name() string          { return "webform" }
func (b *webformBuilder) FileExtension() string { return ".form.json" }

func (b *webformBuilder) BuildForm(app *core.App, form *core.Form, _ core.Profile) (*Document, error) {
	fingerprint, err := app.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint app: %w", err)
	}

	doc := webformDocument{
		Form:        form.ID,
		Name:        form.Name,
		Table:       form.TableName,
		Version:     app.Version,
		Fingerprint: fingerprint,
		Widgets:     make([]widget, 0, len(form.Fields)),
	}

	for _, field := range form.Fields {
		w, err := buildWidget(form, field)
		if err != nil {
			return nil, err
		}
		doc.Widgets = append(doc.Widgets, w)
	}

	content, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode webform document: %w", err)
	}
	content = append(content, '\n')

	return &Document{
		FormID:   form.ID,
		Target:   "webform",
		Filename: form.ID + b.FileExtension(),
		Content:  content,
	}, nil
}

// buildWidget maps one canonical field to its widget. Dynamic defaults
// (any "@..." token) pass through verbatim; resolving them is the
// runtime's job.
func buildWidget(form *core.Form, field core.Field) (widget, error) {
	w := widget{
		ID:         field.ID,
		Label:      field.Label,
		Size:       field.Size,
		Required:   field.Required,
		PrimaryKey: field.PrimaryKey,
		Default:    field.Default,
	}

	switch field.Type {
	case core.FieldText, core.FieldNumber, core.FieldDate, core.FieldFile,
		core.FieldTextarea, core.FieldHidden:
		w.Kind = string(field.Type)
	case core.FieldSelect:
		w.Kind = "select"
		if field.Reference != nil {
			w.Source = sourceFor(field.Reference)
		} else {
			w.Options = append([]string(nil), field.Options...)
		}
	case core.FieldForeignKey:
		w.Kind = "reference"
		if field.Reference == nil {
			return widget{}, &BuildError{
				FormID:  form.ID,
				FieldID: field.ID,
				Target:  "webform",
				Reason:  "foreign key field has no reference",
			}
		}
		w.Source = sourceFor(field.Reference)
	default:
		return widget{}, &BuildError{
			FormID:  form.ID,
			FieldID: field.ID,
			Target:  "webform",
			Reason:  fmt.Sprintf("no widget mapping for field type %q", field.Type),
		}
	}
	return w, nil
}

func sourceFor(ref *core.Reference) *widgetSource {
	return &widgetSource{
		Form:       ref.Form,
		Field:      ref.Field,
		LabelField: ref.LabelField,
	}
}
