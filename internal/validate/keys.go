package validate

import (
	"fmt"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func init() {
	Register(MissingPrimaryKey)
	Register(DuplicatePrimaryKey)
}

// MissingPrimaryKey requires every form to mark a primary key; without one
// the form cannot be addressed by references or deployed as a table.
var MissingPrimaryKey = Rule{
	ID:          "missing-primary-key",
	Description: "Every form marks exactly one primary key field.",
	Severity:    core.SeverityError,
	Check:       checkMissingPrimaryKey,
}

func checkMissingPrimaryKey(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		if form.PrimaryField() == nil {
			findings = append(findings, Finding{
				RuleID:   "missing-primary-key",
				FormID:   form.ID,
				Message:  fmt.Sprintf("form %q has no primary key field", form.ID),
				Severity: core.SeverityError,
			})
		}
	}
	return findings
}

// DuplicatePrimaryKey reports every primary key mark beyond the first.
var DuplicatePrimaryKey = Rule{
	ID:          "duplicate-primary-key",
	Description: "A form must not mark more than one primary key.",
	Severity:    core.SeverityError,
	Check:       checkDuplicatePrimaryKey,
}

func checkDuplicatePrimaryKey(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		first := ""
		for _, field := range form.Fields {
			if !field.PrimaryKey {
				continue
			}
			if first == "" {
				first = field.ID
				continue
			}
			findings = append(findings, Finding{
				RuleID:  "duplicate-primary-key",
				FormID:  form.ID,
				FieldID: field.ID,
				Message: fmt.Sprintf("form %q marks a second primary key %q (already %q)",
					form.ID, field.ID, first),
				Severity: core.SeverityError,
			})
		}
	}
	return findings
}
