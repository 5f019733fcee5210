package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapform/internal/cli"
)

// generateCLIDocs writes one page per command plus an index into outDir.
func generateCLIDocs(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", outDir, err)
	}

	rootCmd := cli.NewRootCmd()

	if err := generateCLIIndex(rootCmd, outDir); err != nil {
		return err
	}

	for _, cmd := range rootCmd.Commands() {
		if skipCommand(cmd) {
			continue
		}
		if err := generateCommandPage(cmd, outDir); err != nil {
			return err
		}
	}
	return nil
}

func skipCommand(cmd *cobra.Command) bool {
	switch {
	case cmd.Hidden:
		return true
	case cmd.Name() == "help", cmd.Name() == "completion":
		return true
	case strings.HasPrefix(cmd.Name(), "__"):
		return true
	}
	return false
}

func generateCLIIndex(root *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Commands, flags and environment variables of the leapform CLI")
	w.GeneratedMarker()
	w.Header(1, "leapform")
	w.Paragraph(root.Long)

	w.Header(2, "Commands")
	var rows [][]string
	for _, cmd := range root.Commands() {
		if skipCommand(cmd) {
			continue
		}
		name := cmd.Name()
		rows = append(rows, []string{
			fmt.Sprintf("[%s](%s.md)", InlineCode(name), name),
			cleanDescription(cmd.Short),
		})
	}
	w.Table([]string{"Command", "Description"}, rows)

	w.Header(2, "Global Flags")
	w.Paragraph("Every flag can also be set in " + InlineCode("leapform.yaml") + " or via an environment variable.")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	w.Paragraph("Environment variables override the config file and are themselves overridden by flags.")
	w.Table([]string{"Variable", "Config key", "Description"}, [][]string{
		{InlineCode("LEAPFORM_FORMS_DIR"), InlineCode("forms_dir"), "Directory containing form specifications"},
		{InlineCode("LEAPFORM_OUT_DIR"), InlineCode("out_dir"), "Directory artifacts are written to"},
		{InlineCode("LEAPFORM_STATE_PATH"), InlineCode("state_path"), "Path of the build state database"},
		{InlineCode("LEAPFORM_TARGET"), InlineCode("target"), "Build target (webform, postgres)"},
		{InlineCode("LEAPFORM_PLATFORM"), InlineCode("platform"), "Platform profile used for validation"},
		{InlineCode("LEAPFORM_STRICT"), InlineCode("strict"), "Treat validation warnings as errors"},
		{InlineCode("LEAPFORM_WORKERS"), InlineCode("workers"), "Number of concurrent compile workers"},
		{InlineCode("LEAPFORM_OUTPUT"), InlineCode("output"), "Output format: auto, text, markdown, json"},
		{InlineCode("LEAPFORM_VERBOSE"), InlineCode("verbose"), "Enable debug logging"},
	})

	w.Header(2, "Exit Codes")
	w.Table([]string{"Code", "Meaning"}, [][]string{
		{"0", "Success"},
		{"1", "Validation or build failure"},
		{"2", "A form specification could not be parsed"},
	})

	return writePage(filepath.Join(outDir, "index.md"), w)
}

func generateCommandPage(cmd *cobra.Command, outDir string) error {
	w := NewMarkdownWriter()
	w.Frontmatter("leapform "+cmd.Name(), cleanDescription(cmd.Short))
	w.GeneratedMarker()
	w.Header(1, "leapform "+cmd.Name())

	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if len(cmd.Aliases) > 0 {
		w.Header(2, "Aliases")
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.BulletList(aliases)
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}

	if sub := availableSubcommands(cmd); len(sub) > 0 {
		w.Header(2, "Subcommands")
		var rows [][]string
		for _, s := range sub {
			rows = append(rows, []string{InlineCode(s.Name()), cleanDescription(s.Short)})
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Flags")
		writeFlagsTable(w, cmd.LocalFlags())
	}

	w.Header(2, "Global Flags")
	w.Paragraph("See the [CLI index](index.md) for the global flags and environment variables shared by every command.")

	return writePage(filepath.Join(outDir, cmd.Name()+".md"), w)
}

func availableSubcommands(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, s := range cmd.Commands() {
		if skipCommand(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// writeFlagsTable renders a pflag set as a markdown table, skipping hidden
// flags.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "--" + f.Name
		if f.Shorthand != "" {
			name += ", -" + f.Shorthand
		}
		def := f.DefValue
		if def != "" && def != "false" && def != "0" {
			def = InlineCode(def)
		} else {
			def = ""
		}
		rows = append(rows, []string{InlineCode(name), f.Value.Type(), def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Type", "Default", "Description"}, rows)
}

// cleanExample strips the two-space indent cobra examples carry.
func cleanExample(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.Join(lines, "\n")
}

func writePage(path string, w *MarkdownWriter) error {
	if err := os.WriteFile(path, w.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
