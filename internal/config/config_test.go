package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes a leapform.yaml into a fresh temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leapform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := Default()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("empty forms_dir", func(t *testing.T) {
		cfg := Default()
		cfg.FormsDir = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "forms_dir is required")
	})

	t.Run("invalid output format", func(t *testing.T) {
		cfg := Default()
		cfg.OutputFormat = "xml"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")
	})

	t.Run("unresolvable platform", func(t *testing.T) {
		cfg := Default()
		cfg.Platform = "mainframe"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown platform")
	})
}

func TestConfig_Profile(t *testing.T) {
	t.Run("defaults to webform", func(t *testing.T) {
		cfg := &Config{}
		p, err := cfg.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "webform", p.Name)
		assert.Equal(t, 20, p.MaxNameLength)
		assert.False(t, p.Strict)
	})

	t.Run("explicit name wins", func(t *testing.T) {
		cfg := &Config{Platform: "webform"}
		p, err := cfg.Profile("postgres")
		require.NoError(t, err)
		assert.Equal(t, "postgres", p.Name)
		assert.Equal(t, 63, p.MaxNameLength)
	})

	t.Run("configured platform", func(t *testing.T) {
		cfg := &Config{Platform: "postgres"}
		p, err := cfg.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "postgres", p.Name)
	})

	t.Run("falls back to target", func(t *testing.T) {
		cfg := &Config{Target: "postgres"}
		p, err := cfg.Profile("")
		require.NoError(t, err)
		assert.Equal(t, "postgres", p.Name)
		assert.Equal(t, 63, p.MaxNameLength)
	})

	t.Run("unknown platform", func(t *testing.T) {
		cfg := &Config{}
		_, err := cfg.Profile("mainframe")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown platform "mainframe"`)
		assert.Contains(t, err.Error(), "webform", "error should list available platforms")
		assert.Contains(t, err.Error(), "postgres")
	})

	t.Run("override adjusts builtin", func(t *testing.T) {
		cfg := &Config{Platforms: map[string]PlatformProfile{
			"webform": {MaxNameLength: 30},
		}}
		p, err := cfg.Profile("webform")
		require.NoError(t, err)
		assert.Equal(t, 30, p.MaxNameLength)
	})

	t.Run("override defines new platform", func(t *testing.T) {
		cfg := &Config{Platforms: map[string]PlatformProfile{
			"sharepoint": {MaxNameLength: 128},
		}}
		p, err := cfg.Profile("sharepoint")
		require.NoError(t, err)
		assert.Equal(t, "sharepoint", p.Name)
		assert.Equal(t, 128, p.MaxNameLength)

		_, err = cfg.Profile("mainframe")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sharepoint", "error should list config-defined platforms")
	})

	t.Run("platform strict escalates", func(t *testing.T) {
		cfg := &Config{Platforms: map[string]PlatformProfile{
			"webform": {Strict: true},
		}}
		p, err := cfg.Profile("webform")
		require.NoError(t, err)
		assert.True(t, p.Strict)
		// Untouched builtin values survive a partial override
		assert.Equal(t, 20, p.MaxNameLength)
	})

	t.Run("global strict escalates", func(t *testing.T) {
		cfg := &Config{Strict: true}
		p, err := cfg.Profile("postgres")
		require.NoError(t, err)
		assert.True(t, p.Strict)
	})
}

func TestLoad_Defaults(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: webform\n")

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, "forms"), cfg.FormsDir)
	assert.Equal(t, filepath.Join(root, "out"), cfg.OutDir)
	assert.Equal(t, filepath.Join(root, ".leapform", "state.db"), cfg.StatePath)
	assert.Equal(t, "webform", cfg.Target)
	assert.Equal(t, "auto", cfg.OutputFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.False(t, cfg.Strict)
}

func TestLoad_FileValues(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, `forms_dir: specs
out_dir: dist
target: postgres
strict: true
workers: 2
platforms:
  webform:
    max_name_length: 30
`)

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	root := filepath.Dir(cfgPath)
	assert.Equal(t, filepath.Join(root, "specs"), cfg.FormsDir)
	assert.Equal(t, filepath.Join(root, "dist"), cfg.OutDir)
	assert.Equal(t, "postgres", cfg.Target)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 2, cfg.Workers)
	require.Contains(t, cfg.Platforms, "webform")
	assert.Equal(t, 30, cfg.Platforms["webform"].MaxNameLength)

	p, err := cfg.Profile("webform")
	require.NoError(t, err)
	assert.Equal(t, 30, p.MaxNameLength)
	assert.True(t, p.Strict, "global strict should escalate the profile")
}

func TestLoad_UnknownTarget(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: oracle\n")

	_, err := Load(cfgPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target configuration")
	assert.Contains(t, err.Error(), "oracle")
	assert.Contains(t, err.Error(), "webform", "error should list available targets")
}

func TestLoad_FlagPrecedence(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: webform\n")

	require.NoError(t, os.Setenv("LEAPFORM_TARGET", "webform"))
	defer func() { _ = os.Unsetenv("LEAPFORM_TARGET") }()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", "", "build target")
	require.NoError(t, flags.Set("target", "postgres"))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Target, "flag value should override config file and env var")
}

func TestLoad_EnvPrecedenceOverFile(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: webform\n")

	require.NoError(t, os.Setenv("LEAPFORM_TARGET", "postgres"))
	defer func() { _ = os.Unsetenv("LEAPFORM_TARGET") }()

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Target, "env var should override config file")
}

func TestLoad_FlagNotSetUsesEnv(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: webform\n")

	require.NoError(t, os.Setenv("LEAPFORM_TARGET", "postgres"))
	defer func() { _ = os.Unsetenv("LEAPFORM_TARGET") }()

	// Flag defined but never set, so Changed is false
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("target", "", "build target")

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Target, "env var should be used when flag is not set")
}

func TestLoad_StateFlagMapsToStatePath(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: webform\n")

	statePath := filepath.Join(t.TempDir(), "custom.db")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "state database path")
	require.NoError(t, flags.Set("state", statePath))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)
	assert.Equal(t, statePath, cfg.StatePath)
}

func TestLoad_FlagPathsResolveAgainstCwd(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: webform\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("forms-dir", "", "forms directory")
	require.NoError(t, flags.Set("forms-dir", "my_forms"))

	cfg, err := Load(cfgPath, flags)
	require.NoError(t, err)

	want, err := filepath.Abs("my_forms")
	require.NoError(t, err)
	assert.Equal(t, want, cfg.FormsDir, "flag paths should resolve relative to CWD, not project root")
}

func TestLoad_EnvStringCoercion(t *testing.T) {
	ResetConfig()
	cfgPath := writeConfig(t, "target: webform\n")

	require.NoError(t, os.Setenv("LEAPFORM_WORKERS", "3"))
	require.NoError(t, os.Setenv("LEAPFORM_STRICT", "true"))
	defer func() {
		_ = os.Unsetenv("LEAPFORM_WORKERS")
		_ = os.Unsetenv("LEAPFORM_STRICT")
	}()

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers, "string env value should decode into the int field")
	assert.True(t, cfg.Strict)
}

func TestLoad_EnvVarExpansionInPaths(t *testing.T) {
	ResetConfig()
	outBase := t.TempDir()
	require.NoError(t, os.Setenv("TEST_OUT_BASE", outBase))
	defer func() { _ = os.Unsetenv("TEST_OUT_BASE") }()

	cfgPath := writeConfig(t, "out_dir: ${TEST_OUT_BASE}/artifacts\n")

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outBase, "artifacts"), cfg.OutDir)
}

func TestExpandEnvVars(t *testing.T) {
	require.NoError(t, os.Setenv("TEST_VAR_ONE", "value_one"))
	require.NoError(t, os.Setenv("TEST_VAR_TWO", "value_two"))
	defer func() {
		_ = os.Unsetenv("TEST_VAR_ONE")
		_ = os.Unsetenv("TEST_VAR_TWO")
	}()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single variable",
			input:    "${TEST_VAR_ONE}",
			expected: "value_one",
		},
		{
			name:     "multiple variables",
			input:    "${TEST_VAR_ONE}/${TEST_VAR_TWO}",
			expected: "value_one/value_two",
		},
		{
			name:     "variable in path",
			input:    "/path/to/${TEST_VAR_ONE}/file",
			expected: "/path/to/value_one/file",
		},
		{
			name:     "unset variable stays as-is",
			input:    "${UNSET_VARIABLE}",
			expected: "${UNSET_VARIABLE}",
		},
		{
			name:     "no variables",
			input:    "plain string",
			expected: "plain string",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestGetConfig_Fallback(t *testing.T) {
	cfg := GetConfig(context.Background())
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultFormsDir, cfg.FormsDir)
	assert.Equal(t, DefaultTarget, cfg.Target)
}

func TestGetLogger_Fallback(t *testing.T) {
	logger := GetLogger(context.Background())
	require.NotNil(t, logger)
	// Must be safe to log through
	logger.Info("probe")
}
