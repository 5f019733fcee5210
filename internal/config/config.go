// Package config loads leapform configuration from file, environment
// variables, and CLI flags, and resolves platform profiles for the
// validator and builders.
package config

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// Default configuration values.
const (
	DefaultFormsDir  = "forms"
	DefaultOutDir    = "out"
	DefaultStateFile = ".leapform/state.db"
	DefaultTarget    = "webform"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel  = "info"
)

// Config holds all CLI configuration options.
type Config struct {
	FormsDir     string                     `koanf:"forms_dir"`
	OutDir       string                     `koanf:"out_dir"`
	StatePath    string                     `koanf:"state_path"`
	Target       string                     `koanf:"target"`
	Platform     string                     `koanf:"platform"`
	Strict       bool                       `koanf:"strict"`
	Workers      int                        `koanf:"workers"`
	Verbose      bool                       `koanf:"verbose"`
	OutputFormat string                     `koanf:"output"`
	LogLevel     string                     `koanf:"log_level"`
	Platforms    map[string]PlatformProfile `koanf:"platforms"`

	// ProjectRoot anchors relative path resolution. Set by Load, never
	// read from the config file.
	ProjectRoot string `koanf:"-"`
}

// PlatformProfile adjusts a builtin profile, or defines a new platform,
// from the platforms section of leapform.yaml.
type PlatformProfile struct {
	MaxNameLength int  `koanf:"max_name_length"`
	Strict        bool `koanf:"strict"`
}

// Default returns a Config carrying only the builtin defaults.
func Default() *Config {
	return &Config{
		FormsDir:     DefaultFormsDir,
		OutDir:       DefaultOutDir,
		StatePath:    DefaultStateFile,
		Target:       DefaultTarget,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		Workers:      runtime.NumCPU(),
	}
}

// Validate checks the loaded configuration for structural problems.
func (c *Config) Validate() error {
	if c.FormsDir == "" {
		return fmt.Errorf("forms_dir is required")
	}
	switch c.OutputFormat {
	case "", "auto", "text", "markdown", "json":
	default:
		return fmt.Errorf("invalid output format %q (expected auto, text, markdown, or json)", c.OutputFormat)
	}
	if _, err := c.Profile(""); err != nil {
		return err
	}
	return nil
}

// Profile resolves the validation profile for a platform name. An empty
// name falls back to the configured platform, then to the build target,
// then to the default profile. Entries in the platforms section override
// builtins of the same name; an entry matching no builtin defines a new
// platform. The global strict setting escalates any resolved profile.
func (c *Config) Profile(name string) (core.Profile, error) {
	if name == "" {
		name = c.Platform
	}
	if name == "" {
		name = c.Target
	}
	if name == "" {
		name = core.DefaultProfile().Name
	}

	base, builtin := core.LookupProfile(name)
	override, overridden := c.Platforms[name]
	if !builtin && !overridden {
		return core.Profile{}, fmt.Errorf("unknown platform %q (available: %s)", name, strings.Join(c.platformNames(), ", "))
	}
	if !builtin {
		base = core.Profile{Name: name}
	}
	if overridden {
		if override.MaxNameLength > 0 {
			base.MaxNameLength = override.MaxNameLength
		}
		if override.Strict {
			base.Strict = true
		}
	}
	if c.Strict {
		base.Strict = true
	}
	return base, nil
}

// platformNames lists every resolvable platform name, builtins first.
func (c *Config) platformNames() []string {
	names := core.BuiltinProfileNames()
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var extra []string
	for n := range c.Platforms {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}
