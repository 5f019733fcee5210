package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/engine"
	"github.com/leapstack-labs/leapform/internal/parser"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Force    bool
	DryRun   bool
	Combined bool
	Suggest  bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}
	cmd := &cobra.Command{
		Use:   "build [paths...]",
		Short: "Compile form specifications into deployable artifacts",
		Long: `Compile form specifications into artifacts for the configured target.

Each input is parsed, validated against the platform profile, ordered by
its foreign-key dependencies and rendered into one document per form.
Unchanged inputs are skipped using the build cache; --force recompiles
everything.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Compile every spec under the forms directory
  leapform build

  # Compile one file for PostgreSQL
  leapform build forms/deploy_tracker.md --target postgres

  # Validate and render without writing artifacts
  leapform build --dry-run

  # Also write one schema script per input (two-phase for SQL targets)
  leapform build --target postgres --combined

  # Treat warnings as errors
  leapform build --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "recompile inputs even when unchanged")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "render documents without writing artifacts or cache entries")
	cmd.Flags().BoolVar(&opts.Combined, "combined", false, "additionally write each input's forms as one combined script")
	cmd.Flags().BoolVar(&opts.Suggest, "suggest-references", false, "scan markdown prose for likely foreign-key references")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string, opts *BuildOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
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

	profile, err := cfg.Profile("")
	if err != nil {
		return err
	}

	start := time.Now()
	results, err := eng.CompileBatch(cmd.Context(), inputs, engine.CompileOptions{
		Target:            cfg.Target,
		Profile:           profile,
		Force:             opts.Force,
		DryRun:            opts.DryRun,
		Combined:          opts.Combined,
		SuggestReferences: opts.Suggest,
	})
	if err != nil {
		return err
	}
	summary := engine.Summarize(results, time.Since(start))

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := buildJSON(r, cfg.Target, results, summary); err != nil {
			return err
		}
	case output.ModeMarkdown:
		buildMarkdown(r, cfg.Target, results, summary)
	default:
		buildText(r, cfg.Target, results, summary)
	}

	return compileError(results)
}

// compileError reduces per-input failures to the command error. Parse
// errors win so the process exit code tells malformed inputs apart from
// validation and build failures.
func compileError(results []*engine.CompileResult) error {
	var first error
	for _, res := range results {
		if res == nil || res.Err == nil {
			continue
		}
		var perr *parser.ParseError
		if errors.As(res.Err, &perr) {
			return res.Err
		}
		if first == nil {
			first = res.Err
		}
	}
	return first
}

// buildText renders build results in styled text format.
func buildText(r *output.Renderer, target string, results []*engine.CompileResult, summary engine.BatchSummary) {
	r.Header(1, fmt.Sprintf("Build (%s)", target))

	for _, res := range results {
		if res == nil {
			continue
		}
		switch {
		case res.Skipped:
			r.StatusLine(res.Input, "skipped", "unchanged")
		case res.Err != nil:
			r.StatusLine(res.Input, "failed", res.Err.Error())
			renderFindings(r, res.Validation.Errors)
		default:
			detail := fmt.Sprintf("%d artifact(s) in %v", len(res.Artifacts), res.Duration.Round(time.Millisecond))
			if len(res.Artifacts) == 0 && len(res.Documents) > 0 {
				detail = fmt.Sprintf("%d document(s), dry run", len(res.Documents))
			}
			r.StatusLine(res.Input, "success", detail)
		}
		renderFindings(r, res.Validation.Warnings)
		renderSuggestions(r, res.Suggestions)
	}

	r.Println("")
	if summary.Failed > 0 {
		r.Error(summary.String())
	} else {
		r.Success(summary.String())
	}
}

// buildMarkdown renders build results in markdown format.
func buildMarkdown(r *output.Renderer, target string, results []*engine.CompileResult, summary engine.BatchSummary) {
	r.Println(output.FormatHeader(1, "Build"))
	r.Println("")
	r.Println(output.FormatKeyValue("Target", target))
	r.Println("")

	for _, res := range results {
		if res == nil {
			continue
		}
		r.Println(output.FormatHeader(2, res.Input))
		switch {
		case res.Skipped:
			r.Println(output.FormatKeyValue("Status", "skipped (unchanged)"))
		case res.Err != nil:
			r.Println(output.FormatKeyValue("Status", "failed"))
			r.Println(output.FormatKeyValue("Error", res.Err.Error()))
		default:
			r.Println(output.FormatKeyValue("Status", "compiled"))
		}
		if res.App != nil {
			r.Println(output.FormatKeyValue("App", res.App.AppID))
		}
		for _, f := range res.Validation.Errors {
			r.Printf("- error %s: %s\n", f.RuleID, f.Message)
		}
		for _, f := range res.Validation.Warnings {
			r.Printf("- warning %s: %s\n", f.RuleID, f.Message)
		}
		for _, a := range res.Artifacts {
			r.Println(output.FormatKeyValue("Artifact", a.Path))
		}
		// Documents without files on disk mean a dry run.
		if res.Err == nil && len(res.Artifacts) == 0 && len(res.Documents) > 0 {
			for _, id := range res.Order {
				doc, ok := res.Documents[id]
				if !ok {
					continue
				}
				r.Println("")
				r.Println(output.FormatKeyValue("Preview", doc.Filename))
				r.Println(output.FormatCodeBlock(fenceLang(doc.Filename), string(doc.Bytes())))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Compiled", fmt.Sprintf("%d", summary.Compiled)))
	r.Println(output.FormatKeyValue("Skipped", fmt.Sprintf("%d", summary.Skipped)))
	r.Println(output.FormatKeyValue("Failed", fmt.Sprintf("%d", summary.Failed)))
	r.Println(output.FormatKeyValue("Artifacts", fmt.Sprintf("%d", summary.Artifacts)))
}

func fenceLang(filename string) string {
	switch filepath.Ext(filename) {
	case ".json":
		return "json"
	case ".sql":
		return "sql"
	default:
		return ""
	}
}

// buildJSON renders build results as machine-readable JSON.
func buildJSON(r *output.Renderer, target string, results []*engine.CompileResult, summary engine.BatchSummary) error {
	out := output.BuildOutput{
		Target: target,
		Inputs: make([]output.BuildInputResult, 0, len(results)),
		Summary: output.BuildSummary{
			Compiled:  summary.Compiled,
			Skipped:   summary.Skipped,
			Failed:    summary.Failed,
			Artifacts: summary.Artifacts,
			TotalMS:   summary.Duration.Milliseconds(),
		},
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		item := output.BuildInputResult{
			Input:      res.Input,
			Errors:     res.Validation.Errors,
			Warnings:   res.Validation.Warnings,
			Order:      res.Order,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.App != nil {
			item.AppID = res.App.AppID
		}
		switch {
		case res.Skipped:
			item.Status = "skipped"
		case res.Err != nil:
			item.Status = "failed"
			item.Error = res.Err.Error()
		default:
			item.Status = "compiled"
		}
		for _, a := range res.Artifacts {
			item.Artifacts = append(item.Artifacts, output.BuildArtifact{
				FormID: a.FormID,
				Path:   a.Path,
				Hash:   a.Hash,
			})
		}
		out.Inputs = append(out.Inputs, item)
	}

	return r.JSON(out)
}
