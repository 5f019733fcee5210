package validate

import (
	"fmt"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func init() {
	Register(DanglingReference)
	Register(InvalidReferenceTarget)
	Register(MissingReference)
}

// DanglingReference requires every reference to name a form that exists in
// the App.
var DanglingReference = Rule{
	ID:          "dangling-reference",
	Description: "References must point at a form declared in the same app.",
	Severity:    core.SeverityError,
	Check:       checkDanglingReference,
}

func checkDanglingReference(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		for _, field := range form.References() {
			if app.Form(field.Reference.Form) != nil {
				continue
			}
			findings = append(findings, Finding{
				RuleID:  "dangling-reference",
				FormID:  form.ID,
				FieldID: field.ID,
				Message: fmt.Sprintf("field %q references unknown form %q",
					field.ID, field.Reference.Form),
				Severity: core.SeverityError,
			})
		}
	}
	return findings
}

// InvalidReferenceTarget requires the referenced field to exist and to be
// addressable: the target form's primary key or covered by a single-field
// unique index. Referencing a non-unique column would make lookups
// ambiguous at runtime.
var InvalidReferenceTarget = Rule{
	ID:          "invalid-reference-target",
	Description: "References must target the primary key or a unique field.",
	Severity:    core.SeverityError,
	Check:       checkInvalidReferenceTarget,
}

func checkInvalidReferenceTarget(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		for _, field := range form.References() {
			ref := field.Reference
			target := app.Form(ref.Form)
			if target == nil {
				continue // dangling-reference reports this one
			}
			targetField := target.Field(ref.Field)
			if targetField == nil {
				findings = append(findings, Finding{
					RuleID:  "invalid-reference-target",
					FormID:  form.ID,
					FieldID: field.ID,
					Message: fmt.Sprintf("field %q references unknown field %q in form %q",
						field.ID, ref.Field, ref.Form),
					Severity: core.SeverityError,
				})
				continue
			}
			if targetField.PrimaryKey || target.HasUniqueField(ref.Field) {
				continue
			}
			findings = append(findings, Finding{
				RuleID:  "invalid-reference-target",
				FormID:  form.ID,
				FieldID: field.ID,
				Message: fmt.Sprintf("reference target %q in form %q is neither the primary key nor unique",
					ref.Field, ref.Form),
				Severity: core.SeverityError,
			})
		}
	}
	return findings
}

// MissingReference rejects foreign-key fields that never declare where
// they point.
var MissingReference = Rule{
	ID:          "missing-reference",
	Description: "Foreign-key fields must declare their reference.",
	Severity:    core.SeverityError,
	Check:       checkMissingReference,
}

func checkMissingReference(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		for _, field := range form.Fields {
			if field.Type != core.FieldForeignKey || field.Reference != nil {
				continue
			}
			findings = append(findings, Finding{
				RuleID:   "missing-reference",
				FormID:   form.ID,
				FieldID:  field.ID,
				Message:  fmt.Sprintf("foreign key field %q declares no reference", field.ID),
				Severity: core.SeverityError,
			})
		}
	}
	return findings
}
