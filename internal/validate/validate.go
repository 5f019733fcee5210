// Package validate checks a canonical App against the semantic rules a
// deployable specification must satisfy. Every rule runs and every
// violation is reported; nothing short-circuits. Errors block the build,
// warnings never do.
package validate

import (
	"sort"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// Finding is one rule violation, addressable by rule, form and field so
// reports can be regenerated without re-running validation.
type Finding struct {
	RuleID   string        `json:"rule_id"`
	FormID   string        `json:"form_id,omitempty"`
	FieldID  string        `json:"field_id,omitempty"`
	Message  string        `json:"message"`
	Severity core.Severity `json:"severity"`
}

// Result splits findings by severity. Info findings ride with warnings.
type Result struct {
	Errors   []Finding `json:"errors,omitempty"`
	Warnings []Finding `json:"warnings,omitempty"`
}

// OK reports whether the App may be built.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Count returns the total number of findings.
func (r Result) Count() int {
	return len(r.Errors) + len(r.Warnings)
}

// Validate runs every registered rule against the App under the given
// platform profile. Findings are de-duplicated on (rule, form, field) and
// ordered by form declaration, field declaration, then rule registration.
func Validate(app *core.App, profile core.Profile) Result {
	rules := Rules()

	type findingKey struct {
		rule, form, field string
	}
	seen := make(map[findingKey]struct{})

	var all []Finding
	ruleSeq := make(map[string]int, len(rules))
	for i, rule := range rules {
		ruleSeq[rule.ID] = i
		for _, f := range rule.Check(app, profile) {
			key := findingKey{f.RuleID, f.FormID, f.FieldID}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			all = append(all, f)
		}
	}

	formSeq := make(map[string]int, len(app.Forms))
	fieldSeq := make(map[[2]string]int)
	for i, form := range app.Forms {
		if _, dup := formSeq[form.ID]; !dup {
			formSeq[form.ID] = i
		}
		for j, field := range form.Fields {
			key := [2]string{form.ID, field.ID}
			if _, dup := fieldSeq[key]; !dup {
				fieldSeq[key] = j
			}
		}
	}
	position := func(f Finding) (int, int) {
		formIdx, ok := formSeq[f.FormID]
		if !ok {
			formIdx = -1 // app-level findings sort first
		}
		fieldIdx, ok := fieldSeq[[2]string{f.FormID, f.FieldID}]
		if !ok {
			fieldIdx = -1
		}
		return formIdx, fieldIdx
	}
	sort.SliceStable(all, func(i, j int) bool {
		fi, di := position(all[i])
		fj, dj := position(all[j])
		if fi != fj {
			return fi < fj
		}
		if di != dj {
			return di < dj
		}
		return ruleSeq[all[i].RuleID] < ruleSeq[all[j].RuleID]
	})

	var result Result
	for _, f := range all {
		if f.Severity == core.SeverityError {
			result.Errors = append(result.Errors, f)
		} else {
			result.Warnings = append(result.Warnings, f)
		}
	}
	return result
}
