package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapform/internal/parser"
	"github.com/leapstack-labs/leapform/pkg/core"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "convert <path>",
		Short: "Convert a specification to canonical YAML",
		Long: `Parse a markdown, CSV or YAML specification and emit the canonical YAML
shape. The output is a normal form: converting a file that is already
canonical YAML reproduces the same document.`,
		Example: `  # Print canonical YAML to stdout
  leapform convert forms/deploy_tracker.md

  # Write it next to the source
  leapform convert forms/deploy_tracker.md --out forms/deploy_tracker.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], outFile)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "write YAML to this file instead of stdout")

	return cmd
}

func runConvert(cmd *cobra.Command, input, outFile string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	parsed, err := parser.ParseFile(input, parser.Options{})
	if err != nil {
		return err
	}

	data, err := core.EncodeYAML(parsed.App)
	if err != nil {
		return fmt.Errorf("failed to encode canonical YAML: %w", err)
	}

	if outFile == "" {
		_, err = r.Writer().Write(data)
		return err
	}

	if err := os.WriteFile(outFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, err)
	}
	r.Success(fmt.Sprintf("wrote %s", outFile))
	return nil
}
