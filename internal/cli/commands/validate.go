package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/engine"
	"github.com/leapstack-labs/leapform/internal/parser"
	"github.com/leapstack-labs/leapform/internal/validate"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// ValidateOptions holds options for the validate command.
type ValidateOptions struct {
	Suggest bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &ValidateOptions{}
	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Validate form specifications without building",
		Long: `Parse form specifications and run every validation rule against the
platform profile. Nothing is built and the build cache is not consulted,
so validate always reports the full current state of each input.

Exit code is 1 when any input has validation errors, 0 when inputs carry
only warnings.`,
		Example: `  # Validate every spec under the forms directory
  leapform validate

  # Validate one file against the postgres profile
  leapform validate forms/deploy_tracker.md --platform postgres

  # Escalate warnings to errors
  leapform validate --strict`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Suggest, "suggest-references", false, "scan markdown prose for likely foreign-key references")

	return cmd
}

// validateFileResult pairs one input with its parse or validation outcome.
type validateFileResult struct {
	Input       string
	App         *core.App
	Err         error
	Findings    validate.Result
	Suggestions []parser.Suggestion
}

func runValidate(cmd *cobra.Command, args []string, opts *ValidateOptions) error {
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

	profile, err := cfg.Profile("")
	if err != nil {
		return err
	}

	results := make([]validateFileResult, 0, len(inputs))
	var cmdErrs []error
	for _, input := range inputs {
		parsed, err := parser.ParseFile(input, parser.Options{SuggestReferences: opts.Suggest})
		if err != nil {
			results = append(results, validateFileResult{Input: input, Err: err})
			cmdErrs = append(cmdErrs, err)
			continue
		}

		findings := validate.Validate(parsed.App, profile)
		results = append(results, validateFileResult{
			Input:       input,
			App:         parsed.App,
			Findings:    findings,
			Suggestions: parsed.Suggestions,
		})
		if !findings.OK() {
			cmdErrs = append(cmdErrs, &engine.ValidationFailedError{Input: input, Errors: len(findings.Errors)})
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := validateJSON(r, results); err != nil {
			return err
		}
	case output.ModeMarkdown:
		validateMarkdown(r, results)
	default:
		validateText(r, results)
	}

	return errors.Join(cmdErrs...)
}

// validateText renders validation results in styled text format.
func validateText(r *output.Renderer, results []validateFileResult) {
	r.Header(1, "Validate")

	var errCount, warnCount int
	for _, res := range results {
		switch {
		case res.Err != nil:
			r.StatusLine(res.Input, "failed", res.Err.Error())
			errCount++
		case len(res.Findings.Errors) > 0:
			r.StatusLine(res.Input, "failed", fmt.Sprintf("%d error(s), %d warning(s)", len(res.Findings.Errors), len(res.Findings.Warnings)))
		case len(res.Findings.Warnings) > 0:
			r.StatusLine(res.Input, "warning", fmt.Sprintf("%d warning(s)", len(res.Findings.Warnings)))
		default:
			r.StatusLine(res.Input, "success", fmt.Sprintf("%d form(s)", formCount(res.App)))
		}
		renderFindings(r, res.Findings.Errors)
		renderFindings(r, res.Findings.Warnings)
		renderSuggestions(r, res.Suggestions)

		errCount += len(res.Findings.Errors)
		warnCount += len(res.Findings.Warnings)
	}

	r.Println("")
	summary := fmt.Sprintf("%d input(s): %d error(s), %d warning(s)", len(results), errCount, warnCount)
	if errCount > 0 {
		r.Error(summary)
	} else {
		r.Success(summary)
	}
}

// validateMarkdown renders validation results in markdown format.
func validateMarkdown(r *output.Renderer, results []validateFileResult) {
	r.Println(output.FormatHeader(1, "Validation Report"))
	r.Println("")

	for _, res := range results {
		r.Println(output.FormatHeader(2, res.Input))
		if res.Err != nil {
			r.Println(output.FormatKeyValue("Status", "failed"))
			r.Println(output.FormatKeyValue("Error", res.Err.Error()))
			r.Println("")
			continue
		}
		if res.App != nil {
			r.Println(output.FormatKeyValue("App", res.App.AppID))
		}
		r.Println(output.FormatKeyValue("Errors", fmt.Sprintf("%d", len(res.Findings.Errors))))
		r.Println(output.FormatKeyValue("Warnings", fmt.Sprintf("%d", len(res.Findings.Warnings))))
		for _, f := range res.Findings.Errors {
			r.Printf("- error %s (%s): %s\n", f.RuleID, findingLocation(f), f.Message)
		}
		for _, f := range res.Findings.Warnings {
			r.Printf("- warning %s (%s): %s\n", f.RuleID, findingLocation(f), f.Message)
		}
		r.Println("")
	}
}

// validateJSON renders validation results as machine-readable JSON.
func validateJSON(r *output.Renderer, results []validateFileResult) error {
	out := output.ValidateOutput{
		Inputs: make([]output.ValidateFileResult, 0, len(results)),
	}
	out.Summary.Inputs = len(results)

	for _, res := range results {
		item := output.ValidateFileResult{
			Input:    res.Input,
			Errors:   res.Findings.Errors,
			Warnings: res.Findings.Warnings,
		}
		if res.App != nil {
			item.AppID = res.App.AppID
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
			out.Summary.Errors++
		}
		out.Summary.Errors += len(res.Findings.Errors)
		out.Summary.Warnings += len(res.Findings.Warnings)
		out.Inputs = append(out.Inputs, item)
	}

	return r.JSON(out)
}

// renderFindings prints validation findings indented under their input
// line.
func renderFindings(r *output.Renderer, findings []validate.Finding) {
	styles := r.Styles()
	for _, f := range findings {
		r.Printf("      %s  %-24s %s  %s\n",
			severityLabel(r, f.Severity),
			f.RuleID,
			styles.FormID.Render(findingLocation(f)),
			f.Message,
		)
	}
}

// renderSuggestions prints advisory foreign-key candidates found in prose.
func renderSuggestions(r *output.Renderer, suggestions []parser.Suggestion) {
	styles := r.Styles()
	for _, s := range suggestions {
		r.Printf("      %s  %s.%s may reference %s (%q)\n",
			styles.Muted.Render("suggest"), s.FormID, s.FieldID, s.TargetForm, s.Phrase)
	}
}

func severityLabel(r *output.Renderer, sev core.Severity) string {
	styles := r.Styles()
	switch sev {
	case core.SeverityError:
		return styles.Error.Render("error  ")
	case core.SeverityWarning:
		return styles.Warning.Render("warning")
	default:
		return styles.Muted.Render("info   ")
	}
}

func findingLocation(f validate.Finding) string {
	switch {
	case f.FormID != "" && f.FieldID != "":
		return f.FormID + "." + f.FieldID
	case f.FormID != "":
		return f.FormID
	default:
		return "-"
	}
}

func formCount(app *core.App) int {
	if app == nil {
		return 0
	}
	return len(app.Forms)
}
