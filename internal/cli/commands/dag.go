package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/dag"
	"github.com/leapstack-labs/leapform/internal/parser"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// GraphQuerier provides read-only access to DAG structure.
type GraphQuerier interface {
	GetParents(string) []string
	GetChildren(string) []string
	GetRoots() []string
	GetLeaves() []string
	NodeCount() int
	EdgeCount() int
}

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dag <path>",
		Short: "Show the dependency graph of a specification",
		Long: `Display the foreign-key dependency graph of one specification.

Forms are grouped by deployment level: every form in a level depends only
on forms in earlier levels, so forms within a level could be deployed in
parallel.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Show the graph
  leapform dag forms/deploy_tracker.md

  # Output as JSON
  leapform dag forms/deploy_tracker.md --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDAG(cmd, args[0])
		},
	}

	return cmd
}

func runDAG(cmd *cobra.Command, input string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	parsed, err := parser.ParseFile(input, parser.Options{})
	if err != nil {
		return err
	}

	graph, err := dag.BuildGraph(parsed.App)
	if err != nil {
		return err
	}
	levels, err := graph.GetLevels()
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return dagJSON(r, input, parsed.App, graph, levels)
	case output.ModeMarkdown:
		dagMarkdown(r, parsed.App, graph, levels)
		return nil
	default:
		dagText(r, parsed.App, graph, levels)
		return nil
	}
}

// dagText outputs the graph in styled text format.
func dagText(r *output.Renderer, app *core.App, graph GraphQuerier, levels [][]string) {
	styles := r.Styles()

	r.Header(1, fmt.Sprintf("Dependency Graph (%s)", app.AppID))

	for i, level := range levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
		for _, formID := range level {
			deps := graph.GetParents(formID)
			children := graph.GetChildren(formID)

			r.Printf("  %s\n", styles.FormID.Render(formID))
			if len(deps) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("depends on:"), strings.Join(deps, ", "))
			}
			if len(children) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("used by:"), strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d forms, %d dependencies", graph.NodeCount(), graph.EdgeCount())))
}

// dagMarkdown outputs the graph in markdown format.
func dagMarkdown(r *output.Renderer, app *core.App, graph GraphQuerier, levels [][]string) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Dependency Graph (%s)", app.AppID)))
	r.Println("")

	for i, level := range levels {
		levelName := fmt.Sprintf("Level %d", i)
		if i == 0 {
			levelName = "Level 0 (Independent)"
		}
		r.Println(output.FormatHeader(2, levelName))

		for _, formID := range level {
			deps := graph.GetParents(formID)
			children := graph.GetChildren(formID)

			r.Printf("- %s\n", formID)
			if len(deps) > 0 {
				r.Printf("  - depends on: %s\n", strings.Join(deps, ", "))
			}
			if len(children) > 0 {
				r.Printf("  - used by: %s\n", strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Forms", fmt.Sprintf("%d", graph.NodeCount())))
	r.Println(output.FormatKeyValue("Total Dependencies", fmt.Sprintf("%d", graph.EdgeCount())))
}

// dagJSON outputs the graph in JSON format.
func dagJSON(r *output.Renderer, input string, app *core.App, graph GraphQuerier, levels [][]string) error {
	dagOutput := output.DAGOutput{
		Input:      input,
		AppID:      app.AppID,
		Levels:     make([]output.DAGLevel, 0, len(levels)),
		Roots:      graph.GetRoots(),
		Leaves:     graph.GetLeaves(),
		TotalForms: graph.NodeCount(),
		TotalEdges: graph.EdgeCount(),
	}

	for i, level := range levels {
		dagLevel := output.DAGLevel{
			Level: i,
			Forms: make([]output.DAGNode, 0, len(level)),
		}

		for _, formID := range level {
			node := output.DAGNode{
				ID:        formID,
				DependsOn: graph.GetParents(formID),
				UsedBy:    graph.GetChildren(formID),
			}
			if form := app.Form(formID); form != nil {
				node.Table = form.TableName
			}
			dagLevel.Forms = append(dagLevel.Forms, node)
		}

		dagOutput.Levels = append(dagOutput.Levels, dagLevel)
	}

	return r.JSON(dagOutput)
}
