package validate

import (
	"fmt"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func init() {
	Register(EmptyOptionSet)
}

// EmptyOptionSet requires static selects to declare at least one option.
// Selects bound to a reference get their options from the target form and
// are exempt.
var EmptyOptionSet = Rule{
	ID:          "empty-option-set",
	Description: "Static select fields need a non-empty option set.",
	Severity:    core.SeverityError,
	Check:       checkEmptyOptionSet,
}

func checkEmptyOptionSet(app *core.App, _ core.Profile) []Finding {
	var findings []Finding
	for _, form := range app.Forms {
		for _, field := range form.Fields {
			if field.Type != core.FieldSelect || field.Reference != nil {
				continue
			}
			if len(field.Options) > 0 {
				continue
			}
			findings = append(findings, Finding{
				RuleID:   "empty-option-set",
				FormID:   form.ID,
				FieldID:  field.ID,
				Message:  fmt.Sprintf("select field %q has no options", field.ID),
				Severity: core.SeverityError,
			})
		}
	}
	return findings
}
