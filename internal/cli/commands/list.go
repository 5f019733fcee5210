package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/parser"
	"github.com/leapstack-labs/leapform/internal/state"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var artifacts bool
	cmd := &cobra.Command{
		Use:   "list [paths...]",
		Short: "List forms and fields across specifications",
		Long: `List every form declared by the given specifications, or by all
specifications under the forms directory, with table names, field counts
and foreign-key references.

With --artifacts the listing switches to the build manifest: every
artifact recorded for the matched apps, with path, content hash and
build time.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Inventory the whole forms directory
  leapform list

  # Inventory one file as JSON
  leapform list forms/deploy_tracker.md --output json

  # Show what the last builds wrote
  leapform list --artifacts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, args, artifacts)
		},
	}

	cmd.Flags().BoolVar(&artifacts, "artifacts", false, "list recorded build artifacts instead of forms")

	return cmd
}

// listEntry pairs one input with its parsed App, or the parse failure.
type listEntry struct {
	Input string
	App   *core.App
	Err   error
}

func runList(cmd *cobra.Command, args []string, artifacts bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	inputs, err := resolveInputs(cmdCtx, args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		r.Warning(fmt.Sprintf("no form specifications found in %s", cfg.FormsDir))
		return nil
	}

	entries := make([]listEntry, 0, len(inputs))
	var parseErrs []error
	for _, input := range inputs {
		parsed, err := parser.ParseFile(input, parser.Options{})
		if err != nil {
			entries = append(entries, listEntry{Input: input, Err: err})
			parseErrs = append(parseErrs, err)
			continue
		}
		entries = append(entries, listEntry{Input: input, App: parsed.App})
	}

	if artifacts {
		if err := listArtifacts(cmdCtx, entries); err != nil {
			return err
		}
		return errors.Join(parseErrs...)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := listJSON(r, entries); err != nil {
			return err
		}
	case output.ModeMarkdown:
		listMarkdown(r, entries)
	default:
		listText(r, entries)
	}

	return errors.Join(parseErrs...)
}

// listText renders the form inventory as a table.
func listText(r *output.Renderer, entries []listEntry) {
	var totalForms, totalFields int

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"App", "Form", "Table", "Fields", "Primary Key", "References"})

	for _, entry := range entries {
		if entry.Err != nil {
			continue
		}
		for i := range entry.App.Forms {
			form := &entry.App.Forms[i]
			refs := "-"
			if names := referencedForms(form); len(names) > 0 {
				refs = strings.Join(names, ", ")
			}
			t.AppendRow(table.Row{entry.App.AppID, form.ID, form.TableName, len(form.Fields), primaryKeyID(form), refs})
			totalForms++
			totalFields += len(form.Fields)
		}
	}

	r.Header(1, fmt.Sprintf("Forms (%d total)", totalForms))
	t.Render()
	r.Muted(fmt.Sprintf("%d input(s), %d form(s), %d field(s)", len(entries), totalForms, totalFields))

	for _, entry := range entries {
		if entry.Err != nil {
			r.StatusLine(entry.Input, "failed", entry.Err.Error())
		}
	}
}

// listMarkdown renders the form inventory in markdown format.
func listMarkdown(r *output.Renderer, entries []listEntry) {
	r.Println(output.FormatHeader(1, "Forms"))
	r.Println("")

	for _, entry := range entries {
		if entry.Err != nil {
			r.Println(output.FormatHeader(2, entry.Input))
			r.Println(output.FormatKeyValue("Error", entry.Err.Error()))
			r.Println("")
			continue
		}

		r.Println(output.FormatHeader(2, fmt.Sprintf("%s (%s)", entry.App.AppID, entry.Input)))
		r.Println(output.FormatKeyValue("Name", entry.App.AppName))
		if entry.App.Version != "" {
			r.Println(output.FormatKeyValue("Version", entry.App.Version))
		}
		r.Println("")

		for i := range entry.App.Forms {
			form := &entry.App.Forms[i]
			r.Println(output.FormatHeader(3, form.ID))
			r.Println(output.FormatKeyValue("Table", form.TableName))
			r.Println(output.FormatKeyValue("Fields", fmt.Sprintf("%d", len(form.Fields))))
			if pk := primaryKeyID(form); pk != "" {
				r.Println(output.FormatKeyValue("Primary Key", pk))
			}
			if names := referencedForms(form); len(names) > 0 {
				r.Println(output.FormatKeyValue("References", strings.Join(names, ", ")))
			}
			r.Println("")
		}
	}
}

// listJSON renders the form inventory in JSON format.
func listJSON(r *output.Renderer, entries []listEntry) error {
	listOutput := output.ListOutput{
		Apps: make([]output.AppInfo, 0, len(entries)),
	}

	for _, entry := range entries {
		if entry.Err != nil {
			continue
		}
		info := output.AppInfo{
			Input:   entry.Input,
			AppID:   entry.App.AppID,
			AppName: entry.App.AppName,
			Version: entry.App.Version,
			Forms:   make([]output.FormInfo, 0, len(entry.App.Forms)),
		}
		for i := range entry.App.Forms {
			form := &entry.App.Forms[i]
			info.Forms = append(info.Forms, output.FormInfo{
				ID:         form.ID,
				Name:       form.Name,
				Table:      form.TableName,
				Fields:     len(form.Fields),
				PrimaryKey: primaryKeyID(form),
				References: referencedForms(form),
			})
			listOutput.Summary.TotalFields += len(form.Fields)
		}
		listOutput.Summary.TotalForms += len(info.Forms)
		listOutput.Apps = append(listOutput.Apps, info)
	}
	listOutput.Summary.TotalApps = len(listOutput.Apps)

	return r.JSON(listOutput)
}

// appManifest pairs one parsed input with its recorded artifacts.
type appManifest struct {
	entry     listEntry
	artifacts []state.Artifact
}

// listArtifacts renders the build manifest for the parsed apps: every
// artifact the state store has recorded for them, in the active output
// mode.
func listArtifacts(cmdCtx *CommandContext, entries []listEntry) error {
	r := cmdCtx.Renderer
	store := cmdCtx.Engine.Store()

	manifests := make([]appManifest, 0, len(entries))
	var total int
	for _, entry := range entries {
		if entry.Err != nil {
			continue
		}
		recorded, err := store.ListArtifacts(entry.App.AppID)
		if err != nil {
			return err
		}
		manifests = append(manifests, appManifest{entry: entry, artifacts: recorded})
		total += len(recorded)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return artifactsJSON(r, manifests, total)
	case output.ModeMarkdown:
		artifactsMarkdown(r, manifests)
	default:
		artifactsText(r, entries, manifests, total)
	}
	return nil
}

// artifactsText renders the manifest as a table.
func artifactsText(r *output.Renderer, entries []listEntry, manifests []appManifest, total int) {
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"App", "Form", "Target", "Path", "Hash", "Built"})

	for _, m := range manifests {
		for _, a := range m.artifacts {
			t.AppendRow(table.Row{a.AppID, a.FormID, a.Target, a.Path, a.Hash, a.BuiltAt.UTC().Format(time.RFC3339)})
		}
	}

	r.Header(1, fmt.Sprintf("Artifacts (%d recorded)", total))
	t.Render()
	if total == 0 {
		r.Muted("No artifacts recorded. Run leapform build first.")
	}

	for _, entry := range entries {
		if entry.Err != nil {
			r.StatusLine(entry.Input, "failed", entry.Err.Error())
		}
	}
}

// artifactsMarkdown renders the manifest in markdown format.
func artifactsMarkdown(r *output.Renderer, manifests []appManifest) {
	r.Println(output.FormatHeader(1, "Artifacts"))
	r.Println("")

	for _, m := range manifests {
		r.Println(output.FormatHeader(2, fmt.Sprintf("%s (%s)", m.entry.App.AppID, m.entry.Input)))
		if len(m.artifacts) == 0 {
			r.Println("No artifacts recorded.")
			r.Println("")
			continue
		}
		for _, a := range m.artifacts {
			detail := fmt.Sprintf("%s (hash %s, built %s)", a.Path, a.Hash, a.BuiltAt.UTC().Format(time.RFC3339))
			r.Println(output.FormatKeyValue(fmt.Sprintf("%s/%s", a.FormID, a.Target), detail))
		}
		r.Println("")
	}
}

// artifactsJSON renders the manifest in JSON format.
func artifactsJSON(r *output.Renderer, manifests []appManifest, total int) error {
	artifactsOutput := output.ArtifactsOutput{
		Apps:  make([]output.AppArtifacts, 0, len(manifests)),
		Total: total,
	}

	for _, m := range manifests {
		app := output.AppArtifacts{
			Input:     m.entry.Input,
			AppID:     m.entry.App.AppID,
			Artifacts: make([]output.ArtifactInfo, 0, len(m.artifacts)),
		}
		for _, a := range m.artifacts {
			app.Artifacts = append(app.Artifacts, output.ArtifactInfo{
				FormID:  a.FormID,
				Target:  a.Target,
				Path:    a.Path,
				Hash:    a.Hash,
				BuiltAt: a.BuiltAt.UTC().Format(time.RFC3339),
			})
		}
		artifactsOutput.Apps = append(artifactsOutput.Apps, app)
	}

	return r.JSON(artifactsOutput)
}

func primaryKeyID(form *core.Form) string {
	if pk := form.PrimaryField(); pk != nil {
		return pk.ID
	}
	return ""
}
