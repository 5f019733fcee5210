package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/dag"
	"github.com/leapstack-labs/leapform/internal/parser"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "order <path>",
		Short: "Show the deployment order of a specification",
		Long: `Resolve the foreign-key dependency graph of one specification and print
the order forms must be deployed in. Forms with no dependency relation
keep their declaration order.`,
		Example: `  # Show the deployment order
  leapform order forms/deploy_tracker.md

  # Machine-readable order
  leapform order forms/deploy_tracker.md --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "shorthand for --output json")

	return cmd
}

func runOrder(cmd *cobra.Command, input string, asJSON bool) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer
	if asJSON {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeJSON)
	}

	parsed, err := parser.ParseFile(input, parser.Options{})
	if err != nil {
		return err
	}

	order, err := dag.Resolve(parsed.App)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.OrderOutput{
			Input: input,
			AppID: parsed.App.AppID,
			Order: order,
		})
	case output.ModeMarkdown:
		orderMarkdown(r, parsed.App, order)
		return nil
	default:
		orderText(r, parsed.App, order)
		return nil
	}
}

// orderText renders the deployment order as a table.
func orderText(r *output.Renderer, app *core.App, order dag.Order) {
	r.Header(1, fmt.Sprintf("Deployment Order (%s)", app.AppID))

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Form", "Table", "Depends On"})

	for i, formID := range order {
		deps := "-"
		if form := app.Form(formID); form != nil {
			if refs := referencedForms(form); len(refs) > 0 {
				deps = strings.Join(refs, ", ")
			}
			t.AppendRow(table.Row{i + 1, formID, form.TableName, deps})
			continue
		}
		t.AppendRow(table.Row{i + 1, formID, "", deps})
	}

	t.Render()
	r.Muted(fmt.Sprintf("%d form(s)", len(order)))
}

// orderMarkdown renders the deployment order as a numbered list.
func orderMarkdown(r *output.Renderer, app *core.App, order dag.Order) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Deployment Order (%s)", app.AppID)))
	r.Println("")
	for i, formID := range order {
		line := fmt.Sprintf("%d. %s", i+1, formID)
		if form := app.Form(formID); form != nil {
			if refs := referencedForms(form); len(refs) > 0 {
				line += fmt.Sprintf(" (after %s)", strings.Join(refs, ", "))
			}
		}
		r.Println(line)
	}
}

// referencedForms lists the distinct forms a form's fields point at,
// excluding self references.
func referencedForms(form *core.Form) []string {
	seen := make(map[string]bool)
	var refs []string
	for _, f := range form.References() {
		target := f.Reference.Form
		if target == form.ID || seen[target] {
			continue
		}
		seen[target] = true
		refs = append(refs, target)
	}
	return refs
}
