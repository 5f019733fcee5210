// Package cli wires the leapform command tree: flag parsing, configuration
// loading and the renderer that commands use to produce output.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/builder"
	"github.com/leapstack-labs/leapform/internal/cli/commands"
	"github.com/leapstack-labs/leapform/internal/cli/output"
	"github.com/leapstack-labs/leapform/internal/config"
	"github.com/leapstack-labs/leapform/internal/parser"
	"github.com/leapstack-labs/leapform/pkg/core"
)

var cfgFile string

// Version information, set at build time via ldflags.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// rendererKey is the context key under which the shared renderer is stored.
type rendererKey struct{}

// NewRootCmd creates the root command for leapform.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "leapform",
		Short: "Compile form specifications into deployable artifacts",
		Long: `leapform compiles human-authored form specifications (markdown, CSV or
YAML) into a canonical model, validates them against a platform profile,
resolves the dependency order between forms and renders deployable
artifacts such as web form definitions and SQL DDL.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config loading for commands that never touch the project.
			switch cmd.Name() {
			case "help", "completion", "__complete":
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			level := slog.LevelInfo
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))

			renderer := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = context.WithValue(ctx, config.ConfigKey(), cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			ctx = context.WithValue(ctx, rendererKey{}, renderer)
			cmd.SetContext(ctx)

			if cfg.Verbose {
				if used := config.GetConfigFileUsed(); used != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", used)
				}
			}
			return nil
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("leapform version {{.Version}} (built %s, commit %s)\n", BuildDate, GitCommit))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./leapform.yaml)")
	rootCmd.PersistentFlags().String("project-dir", "", "project root (default is the nearest parent holding leapform.yaml)")
	rootCmd.PersistentFlags().StringP("target", "t", "", "build target (webform, postgres)")
	rootCmd.PersistentFlags().String("platform", "", "platform profile used for validation (defaults to the target)")
	rootCmd.PersistentFlags().Bool("strict", false, "treat validation warnings as errors")
	rootCmd.PersistentFlags().String("forms-dir", "", "directory containing form specifications")
	rootCmd.PersistentFlags().String("out-dir", "", "directory artifacts are written to")
	rootCmd.PersistentFlags().String("state", "", "path of the build state database")
	rootCmd.PersistentFlags().Int("workers", 0, "number of concurrent compile workers (0 = number of CPUs)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringP("output", "o", "auto", "output format: auto, text, markdown, json")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("target", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return builder.List(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("platform", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return core.BuiltinProfileNames(), cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewDeployCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewOrderCommand())
	rootCmd.AddCommand(commands.NewDAGCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewConvertCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// Execute runs the root command and reports its error, if any. The caller
// decides the process exit code, typically via ExitCode.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// ExitCode maps an Execute error to a process exit code. Parse failures on
// the input files exit 2 so scripted callers can tell malformed inputs apart
// from validation or build failures, which exit 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var perr *parser.ParseError
	if errors.As(err, &perr) {
		return 2
	}
	return 1
}

// GetRenderer returns the renderer stored on the command context, or a plain
// stdout renderer when the context carries none.
func GetRenderer(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapform.

To load completions:

Bash:
  $ source <(leapform completion bash)

Zsh:
  $ leapform completion zsh > "${fpath[1]}/_leapform"

Fish:
  $ leapform completion fish | source

PowerShell:
  PS> leapform completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}
}
