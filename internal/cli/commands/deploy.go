package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/deploy"
	"github.com/leapstack-labs/leapform/internal/engine"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// NewDeployCommand creates the deploy command.
func NewDeployCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "deploy <path>",
		Short: "Sequence a specification through the deployment boundary",
		Long: `Compile one specification and run its forms through the deployment
boundary in dependency order, so referenced forms deploy before the
forms that point at them.

No platform deployer ships with leapform. --dry-run previews the
sequence and per-form outcome without pushing anything.`,
		Example: `  # Preview the deployment sequence
  leapform deploy forms/deploy_tracker.md --dry-run

  # Per-form outcome as JSON
  leapform deploy forms/deploy_tracker.md --dry-run --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "sequence forms through the no-op deployer")

	return cmd
}

func runDeploy(cmd *cobra.Command, input string, dryRun bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	if !dryRun {
		return fmt.Errorf("no deployer is available for target %q; rerun with --dry-run", cfg.Target)
	}

	profile, err := cfg.Profile("")
	if err != nil {
		return err
	}

	res, err := cmdCtx.Engine.Compile(cmd.Context(), input, engine.CompileOptions{
		Target:  cfg.Target,
		Profile: profile,
		DryRun:  true,
	})
	if err != nil {
		return err
	}

	var deployer deploy.Deployer = deploy.DryRunner{}
	outcome, err := deployer.Deploy(cmd.Context(), res.App, res.Order, res.Documents)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return deployJSON(r, input, cfg.Target, res.App, outcome)
	case output.ModeMarkdown:
		deployMarkdown(r, cfg.Target, res.App, outcome)
	default:
		deployText(r, cfg.Target, res.App, outcome)
	}

	return nil
}

// deployText renders per-form deployment outcomes in styled text format.
func deployText(r *output.Renderer, target string, app *core.App, results []deploy.FormResult) {
	r.Header(1, fmt.Sprintf("Deploy (%s)", target))

	var failed int
	for _, fr := range results {
		r.StatusLine(fr.FormID, string(fr.Status), fr.Reason)
		if fr.Status == deploy.StatusFailed {
			failed++
		}
	}

	r.Println("")
	summary := fmt.Sprintf("%s: %d form(s) in dependency order", app.AppID, len(results))
	if failed > 0 {
		r.Error(fmt.Sprintf("%s, %d failed", summary, failed))
	} else {
		r.Success(summary)
	}
}

// deployMarkdown renders per-form deployment outcomes in markdown format.
func deployMarkdown(r *output.Renderer, target string, app *core.App, results []deploy.FormResult) {
	r.Println(output.FormatHeader(1, "Deploy"))
	r.Println("")
	r.Println(output.FormatKeyValue("Target", target))
	r.Println(output.FormatKeyValue("App", app.AppID))
	r.Println("")

	for _, fr := range results {
		line := fmt.Sprintf("- %s: %s", fr.FormID, fr.Status)
		if fr.Reason != "" {
			line += fmt.Sprintf(" (%s)", fr.Reason)
		}
		r.Println(line)
	}
}

// deployJSON renders per-form deployment outcomes as machine-readable
// JSON.
func deployJSON(r *output.Renderer, input, target string, app *core.App, results []deploy.FormResult) error {
	out := output.DeployOutput{
		Input:  input,
		AppID:  app.AppID,
		Target: target,
		DryRun: true,
		Forms:  make([]output.DeployFormResult, 0, len(results)),
	}
	for _, fr := range results {
		out.Forms = append(out.Forms, output.DeployFormResult{
			FormID: fr.FormID,
			Status: string(fr.Status),
			Reason: fr.Reason,
		})
	}
	return r.JSON(out)
}
