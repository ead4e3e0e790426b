package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/logging"
	"github.com/conneroisu/keymapgen/internal/phash"
	"github.com/conneroisu/keymapgen/internal/renderer"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", config.Catalog.Path)
	assert.Equal(t, phash.DefaultParams(), config.Seed())
	assert.Equal(t, phash.DefaultMaxTrials, config.Search.MaxTrials)
	assert.Equal(t, "cpp", config.Output.Format)
	assert.Equal(t, "KeyboardMapping.h", config.Output.Path)
	assert.Equal(t, renderer.DefaultOptions(), config.RendererOptions())
	assert.Equal(t, "DOM_PK_UNKNOWN", config.Unknown.Scancode)
	assert.Equal(t, "GLFW_KEY_UNKNOWN", config.Unknown.Target)
	assert.Equal(t, 300*time.Millisecond, config.Watch.Debounce)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, config *Config)
	}{
		{
			name: "go output",
			setup: func() {
				viper.Set("output.format", "go")
				viper.Set("output.path", "keys_gen.go")
				viper.Set("go.package", "keys")
			},
			check: func(t *testing.T, config *Config) {
				opts := config.GeneratorOptions()
				assert.Equal(t, "go", opts.Format)
				assert.Equal(t, "keys_gen.go", opts.OutputPath)
				assert.Equal(t, "keys", opts.Render.Go.Package)
			},
		},
		{
			name: "seed disabled with reproducible fallback",
			setup: func() {
				viper.Set("search.seed_k1", 0)
				viper.Set("search.seed_k2", 0)
				viper.Set("search.random_seed", 42)
			},
			check: func(t *testing.T, config *Config) {
				assert.True(t, config.Seed().IsZero())
				assert.Equal(t, uint64(42), config.GeneratorOptions().RandomSeed)
			},
		},
		{
			name: "custom sentinels",
			setup: func() {
				viper.Set("unknown.scancode", "DOM_PK_A")
				viper.Set("unknown.target", "GLFW_KEY_A")
			},
			check: func(t *testing.T, config *Config) {
				opts := config.GeneratorOptions()
				assert.Equal(t, "DOM_PK_A", opts.Unknown.Scancode)
				assert.Equal(t, "GLFW_KEY_A", opts.Unknown.Target)
			},
		},
		{
			name:        "shift out of range",
			setup:       func() { viper.Set("search.seed_k2", 8) },
			expectError: true,
		},
		{
			name:        "non-positive max trials",
			setup:       func() { viper.Set("search.max_trials", 0) },
			expectError: true,
		},
		{
			name:        "unknown format",
			setup:       func() { viper.Set("output.format", "rust") },
			expectError: true,
		},
		{
			name:        "empty output path",
			setup:       func() { viper.Set("output.path", " ") },
			expectError: true,
		},
		{
			name:        "output path with shell metacharacters",
			setup:       func() { viper.Set("output.path", "out;rm.h") },
			expectError: true,
		},
		{
			name:        "catalog in a system directory",
			setup:       func() { viper.Set("catalog.path", "/proc/keys.yaml") },
			expectError: true,
		},
		{
			name:        "copyright closing the header comment",
			setup:       func() { viper.Set("output.copyright", "(c) me */ int x; /*") },
			expectError: true,
		},
		{
			name:        "malformed target import",
			setup:       func() { viper.Set("go.target_import", "github.com//glfw") },
			expectError: true,
		},
		{
			name:        "unknown license",
			setup:       func() { viper.Set("output.license", "mit") },
			expectError: true,
		},
		{
			name:        "bad log level",
			setup:       func() { viper.Set("log.level", "loud") },
			expectError: true,
		},
		{
			name:        "undecodable value",
			setup:       func() { viper.Set("search.max_trials", "many") },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()
			tt.setup()

			config, err := Load()

			if tt.expectError {
				require.Error(t, err)
				assert.Nil(t, config)
				assert.Equal(t, kerrors.ErrorTypeConfig, kerrors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, config)
		})
	}
}

func TestSetupPrecedence(t *testing.T) {
	dir := t.TempDir()
	flagFile := filepath.Join(dir, "flag.yml")
	envFile := filepath.Join(dir, "env.yml")
	require.NoError(t, os.WriteFile(flagFile, []byte("output:\n  path: from-flag.h\n"), 0644))
	require.NoError(t, os.WriteFile(envFile, []byte("output:\n  path: from-env.h\n"), 0644))

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, envFile)
		v := viper.New()
		used, err := Setup(v, flagFile)
		require.NoError(t, err)
		assert.Equal(t, flagFile, used)

		config, err := LoadFrom(v)
		require.NoError(t, err)
		assert.Equal(t, "from-flag.h", config.Output.Path)
	})

	t.Run("env file when no flag", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, envFile)
		v := viper.New()
		used, err := Setup(v, "")
		require.NoError(t, err)
		assert.Equal(t, envFile, used)
	})

	t.Run("default file in working directory", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "")
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(".keymapgen.yml", []byte("output:\n  format: go\n  path: k.go\n"), 0644))

		v := viper.New()
		used, err := Setup(v, "")
		require.NoError(t, err)
		assert.Equal(t, ".keymapgen.yml", filepath.Base(used))

		config, err := LoadFrom(v)
		require.NoError(t, err)
		assert.Equal(t, "go", config.Output.Format)
	})

	t.Run("missing default file is fine", func(t *testing.T) {
		t.Setenv(ConfigFileEnv, "")
		t.Chdir(t.TempDir())

		v := viper.New()
		used, err := Setup(v, "")
		require.NoError(t, err)
		assert.Empty(t, used)
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		v := viper.New()
		_, err := Setup(v, filepath.Join(dir, "missing.yml"))
		require.Error(t, err)
		assert.Equal(t, kerrors.ErrorTypeConfig, kerrors.TypeOf(err))
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Chdir(t.TempDir())
	t.Setenv("KEYMAPGEN_OUTPUT_FORMAT", "go")
	t.Setenv("KEYMAPGEN_OUTPUT_PATH", "env.go")
	t.Setenv("KEYMAPGEN_SEARCH_SEED_K1", "0x1234")
	t.Setenv("KEYMAPGEN_GO_ACRONYMS", "KP,ID")
	t.Setenv("KEYMAPGEN_WATCH_DEBOUNCE", "1s")

	v := viper.New()
	_, err := Setup(v, "")
	require.NoError(t, err)

	config, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "go", config.Output.Format)
	assert.Equal(t, "env.go", config.Output.Path)
	assert.Equal(t, uint32(0x1234), config.Search.SeedK1)
	assert.Equal(t, []string{"KP", "ID"}, config.Go.Acronyms)
	assert.Equal(t, time.Second, config.Watch.Debounce)
}

func TestValidateConfigWithDetails(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	config, err := Load()
	require.NoError(t, err)

	result := ValidateConfigWithDetails(config)
	assert.True(t, result.Valid)
	assert.False(t, result.HasWarnings())

	config.Output.Format = "go"
	config.Search.SeedK1, config.Search.SeedK2 = 0, 0
	config.CPP.Guard = "NOT A GUARD"
	config.CPP.Namespace = "a::"
	config.Go.Package = "1bad"

	result = ValidateConfigWithDetails(config)
	assert.False(t, result.Valid)
	fields := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"cpp.guard", "cpp.namespace", "go.package"}, fields)

	warnings := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, w.Field)
	}
	assert.ElementsMatch(t, []string{"search", "output.path"}, warnings)
	assert.Contains(t, result.String(), "go output usually has the .go extension")

	config.Catalog.Path = "keys.json"
	result = ValidateConfigWithDetails(config)
	var catalogWarning bool
	for _, w := range result.Warnings {
		catalogWarning = catalogWarning || w.Field == "catalog.path"
	}
	assert.True(t, catalogWarning, "non-YAML catalog extension is flagged")
}

func TestLoggerConfig(t *testing.T) {
	config := &Config{Log: LogConfig{Level: "debug", Format: "json"}}
	lc := config.LoggerConfig()
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, "json", lc.Format)
}
