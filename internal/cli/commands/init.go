package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapform project",
		Long: `Initialize a new leapform project with default directory structure and
configuration.

This creates:
  - leapform.yaml configuration file
  - forms/ directory with a two-form sample specification
  - out/ directory for compiled artifacts`,
		Example: `  # Initialize in the current directory
  leapform init

  # Initialize in a new directory
  leapform init my-project

  # Overwrite an existing configuration
  leapform init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "leapform.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("leapform.yaml already exists. Use --force to overwrite")
	}

	if err := copyTemplate("minimal", dir, force); err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	files, _ := listTemplateFiles("minimal")
	for _, f := range files {
		r.StatusLine(f, "created", "")
	}

	r.Println("")
	r.Success("leapform project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Edit forms/deploy_tracker.md or add your own specifications")
	r.Println("  2. Run 'leapform validate' to check them")
	r.Println("  3. Run 'leapform build' to compile artifacts")
	r.Println("  4. Run 'leapform dag forms/deploy_tracker.md' to see dependencies")

	return nil
}
