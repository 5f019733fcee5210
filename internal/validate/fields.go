package validate

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func init() {
	Register(FieldID)
	Register(FieldTypeKnown)
}

// FieldID requires every field to carry a unique, non-empty id within its
// form. Later duplicates are reported; the first declaration stands.
var FieldID = Rule{
	ID:          "field-id",
	Description: "Fields need a unique, non-empty id within their form.",
	Severity:    core.SeverityError,
	Check:       checkFieldID,
}

func checkFieldID(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		seen := make(map[string]struct{}, len(form.Fields))
		for i, field := range form.Fields {
			if strings.TrimSpace(field.ID) == "" {
				findings = append(findings, Finding{
					RuleID:   "field-id",
					FormID:   form.ID,
					Message:  fmt.Sprintf("field %d of form %q has no id", i+1, form.ID),
					Severity: core.SeverityError,
				})
				continue
			}
			if _, dup := seen[field.ID]; dup {
				findings = append(findings, Finding{
					RuleID:   "field-id",
					FormID:   form.ID,
					FieldID:  field.ID,
					Message:  fmt.Sprintf("duplicate field id %q in form %q", field.ID, form.ID),
					Severity: core.SeverityError,
				})
				continue
			}
			seen[field.ID] = struct{}{}
		}
	}
	return findings
}

// FieldTypeKnown restricts field types to the closed canonical set.
var FieldTypeKnown = Rule{
	ID:          "field-type",
	Description: "Field types must come from the canonical set.",
	Severity:    core.SeverityError,
	Check:       checkFieldType,
}

func checkFieldType(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		for _, field := range form.Fields {
			if field.Type.Valid() {
				continue
			}
			findings = append(findings, Finding{
				RuleID:  "field-type",
				FormID:  form.ID,
				FieldID: field.ID,
				Message: fmt.Sprintf("unknown field type %q for field %q (expected one of: %s)",
					field.Type, field.ID, strings.Join(fieldTypeNames(), ", ")),
				Severity: core.SeverityError,
			})
		}
	}
	return findings
}

func fieldTypeNames() []string {
	types := core.FieldTypes()
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return names
}
