package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/leapform/internal/validate"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// generateRuleDocs writes the validation rule reference into outDir.
func generateRuleDocs(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	rules := validate.Rules()

	w := NewMarkdownWriter()
	w.Frontmatter("Validation Rules", "Reference for every rule leapform applies to a form specification")
	w.GeneratedMarker()
	w.Header(1, "Validation Rules")
	w.Paragraph("Every rule below runs against the canonical model during " +
		InlineCode("leapform validate") + " and before every " +
		InlineCode("leapform build") + ". Error findings block the build. " +
		"Warning findings are reported but do not block, unless the platform " +
		"profile is strict or " + InlineCode("--strict") + " is set, in which " +
		"case they escalate to errors.")

	var rows [][]string
	for _, rule := range rules {
		rows = append(rows, []string{
			fmt.Sprintf("[%s](#%s)", InlineCode(rule.ID), rule.ID),
			rule.Severity.String(),
			cleanDescription(rule.Description),
		})
	}
	w.Table([]string{"Rule", "Severity", "Description"}, rows)

	for _, rule := range rules {
		w.Header(2, rule.ID)
		w.Line(Bold("Severity:") + " " + rule.Severity.String())
		w.Newline()
		w.Paragraph(rule.Description)
		if rule.Severity == core.SeverityWarning {
			w.Paragraph("Escalates to an error under strict profiles.")
		}
	}

	w.Header(2, "Platform Profiles")
	w.Paragraph("Naming rules consult the platform profile selected via " +
		InlineCode("--platform") + " (or the build target when unset).")
	var profileRows [][]string
	for _, name := range core.BuiltinProfileNames() {
		profile, _ := core.LookupProfile(name)
		profileRows = append(profileRows, []string{
			InlineCode(profile.Name),
			fmt.Sprintf("%d", profile.MaxNameLength),
		})
	}
	w.Table([]string{"Profile", "Max name length"}, profileRows)

	return writePage(filepath.Join(outDir, "rules.md"), w)
}
