package validate

import (
	"fmt"

	"github.com/leapstack-labs/leapform/pkg/core"
)

func init() {
	Register(TableNameLength)
	Register(NameNormalization)
}

// namingSeverity escalates naming findings to errors under a strict
// profile. Naming concerns stay warnings by default: they break some
// deployment targets, not the model itself.
func namingSeverity(profile core.Profile) core.Severity {
	if profile.Strict {
		return core.SeverityError
	}
	return core.SeverityWarning
}

// TableNameLength keeps deployed identifiers within the platform limit.
// Both the table name and the primary key column name count: platforms
// derive index and constraint names from them.
var TableNameLength = Rule{
	ID:          "table-name-length",
	Description: "Table and primary key names must fit the platform limit.",
	Severity:    core.SeverityWarning,
	Check:       checkTableNameLength,
}

func checkTableNameLength(app *core.App, profile core.Profile) []Finding {
	if profile.MaxNameLength <= 0 {
		return nil
	}
	severity := namingSeverity(profile)

	var findings []Finding
	for _, form := range app.Forms {
		if len(form.TableName) > profile.MaxNameLength {
			findings = append(findings, Finding{
				RuleID: "table-name-length",
				FormID: form.ID,
				Message: fmt.Sprintf("table name %q is %d characters, %s allows %d",
					form.TableName, len(form.TableName), profile.Name, profile.MaxNameLength),
				Severity: severity,
			})
		}
		pk := form.PrimaryField()
		if pk != nil && len(pk.ID) > profile.MaxNameLength {
			findings = append(findings, Finding{
				RuleID:  "table-name-length",
				FormID:  form.ID,
				FieldID: pk.ID,
				Message: fmt.Sprintf("primary key name %q is %d characters, %s allows %d",
					pk.ID, len(pk.ID), profile.Name, profile.MaxNameLength),
				Severity: severity,
			})
		}
	}
	return findings
}

// NameNormalization warns when a declared table name does not derive from
// the form id; drifted names make generated artifacts hard to trace back.
var NameNormalization = Rule{
	ID:          "name-normalization",
	Description: "Table names should derive from their form id.",
	Severity:    core.SeverityWarning,
	Check:       checkNameNormalization,
}

func checkNameNormalization(app *core.App, profile core.Profile) []Finding {
	severity := namingSeverity(profile)

	var findings []Finding
	for _, form := range app.Forms {
		if core.NormalizeName(form.ID) == core.NormalizeName(form.TableName) {
			continue
		}
		findings = append(findings, Finding{
			RuleID: "name-normalization",
			FormID: form.ID,
			Message: fmt.Sprintf("table name %q does not derive from form id %q",
				form.TableName, form.ID),
			Severity: severity,
		})
	}
	return findings
}
