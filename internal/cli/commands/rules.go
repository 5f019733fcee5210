package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/validate"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List the validation rules",
		Long: `List every validation rule with its default severity, or show one rule
in detail. Rules print in the order the validator runs them.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  leapform rules

  # Show one rule
  leapform rules dangling-reference

  # Output as JSON
  leapform rules --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return runShowRule(cmd, args[0])
			}
			return runListRules(cmd)
		},
	}

	return cmd
}

func runListRules(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	rules := validate.Rules()

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rulesOutput(rules))
	case output.ModeMarkdown:
		rulesMarkdown(r, rules)
		return nil
	default:
		rulesText(r, rules)
		return nil
	}
}

func runShowRule(cmd *cobra.Command, ruleID string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	rule, ok := validate.Lookup(ruleID)
	if !ok {
		return fmt.Errorf("rule %q not found (run 'leapform rules' for the list)", ruleID)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(ruleInfo(rule))
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, rule.ID))
		r.Println("")
		r.Println(output.FormatKeyValue("Severity", rule.Severity.String()))
		r.Println("")
		r.Println(rule.Description)
		return nil
	default:
		showRuleText(r, rule)
		return nil
	}
}

// rulesText renders the rule list in styled text format.
func rulesText(r *output.Renderer, rules []validate.Rule) {
	r.Header(1, fmt.Sprintf("Validation Rules (%d)", len(rules)))

	for _, rule := range rules {
		r.Printf("  %-26s %s  %s\n",
			rule.ID,
			severityLabel(r, rule.Severity),
			rule.Description,
		)
	}

	r.Println("")
	r.Muted("Warning rules escalate to errors under strict profiles.")
}

// rulesMarkdown renders the rule list in markdown format.
func rulesMarkdown(r *output.Renderer, rules []validate.Rule) {
	r.Println(output.FormatHeader(1, "Validation Rules"))
	r.Println("")
	for _, rule := range rules {
		r.Printf("- **%s** (`%s`) - %s\n", rule.ID, rule.Severity, rule.Description)
	}
}

// showRuleText renders one rule in detail.
func showRuleText(r *output.Renderer, rule validate.Rule) {
	styles := r.Styles()

	r.Header(1, rule.ID)
	r.Printf("  %s %s\n", styles.Key.Render("Severity:"), rule.Severity.String())
	r.Printf("  %s %s\n", styles.Key.Render("Description:"), rule.Description)
	if rule.Severity == core.SeverityWarning {
		r.Println("")
		r.Muted("Escalates to an error under strict profiles (--strict).")
	}
}

func rulesOutput(rules []validate.Rule) output.RulesOutput {
	out := output.RulesOutput{
		Rules: make([]output.RuleInfo, 0, len(rules)),
		Total: len(rules),
	}
	for _, rule := range rules {
		out.Rules = append(out.Rules, ruleInfo(rule))
	}
	return out
}

func ruleInfo(rule validate.Rule) output.RuleInfo {
	return output.RuleInfo{
		ID:          rule.ID,
		Severity:    rule.Severity.String(),
		Description: rule.Description,
	}
}
