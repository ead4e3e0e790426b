package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/keymapgen/internal/catalog"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
)

// executeCommand runs the CLI in a fresh temporary working directory with
// every flag back at its default.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), args...)
}

func executeCommandContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	resetCommands(t)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func resetCommands(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("KEYMAPGEN_CONFIG_FILE", "")

	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue), "resetting --%s", f.Name)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		// Cobra only hands the root context to subcommands without one.
		c.SetContext(nil) //nolint:staticcheck // nil clears the previous run's context
		c.Flags().VisitAll(reset)
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	for _, c := range rootCmd.Commands() {
		walk(c)
	}
}

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestGenerateCommand(t *testing.T) {
	dir := inTempDir(t)

	out, err := executeCommand(t, "generate")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote KeyboardMapping.h")
	assert.Contains(t, out, "cpp")

	content, err := os.ReadFile(filepath.Join(dir, "KeyboardMapping.h"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "keyboardEventCodeToScancode")
	assert.Contains(t, string(content), "0x2C595B41")

	out, err = executeCommand(t, "gen")
	require.NoError(t, err)
	assert.Equal(t, "KeyboardMapping.h is up to date\n", out)
}

func TestGenerateStdout(t *testing.T) {
	dir := inTempDir(t)

	out, err := executeCommand(t, "generate", "--stdout", "--format", "go")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "//"), "go output starts with the header comment")
	assert.Contains(t, out, "package keyboard")
	assert.Contains(t, out, "func EventCodeToScancode(")
	assert.NoFileExists(t, filepath.Join(dir, "KeyboardMapping.h"))
}

func TestGenerateGoFile(t *testing.T) {
	dir := inTempDir(t)

	_, err := executeCommand(t, "generate", "-f", "go", "-o", "keys/keys_gen.go")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "keys", "keys_gen.go"))
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	inTempDir(t)

	_, err := executeCommand(t, "generate", "--format", "rust")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestCheckCommand(t *testing.T) {
	inTempDir(t)

	_, err := executeCommand(t, "check")
	require.Error(t, err)
	assert.True(t, kerrors.IsEmissionError(err))
	assert.Contains(t, err.Error(), "is stale")

	_, err = executeCommand(t, "generate")
	require.NoError(t, err)

	out, err := executeCommand(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	_, err = executeCommand(t, "check", "--format", "go")
	require.Error(t, err, "the header on disk is not a Go file")
}

func TestConfigPrecedence(t *testing.T) {
	dir := inTempDir(t)
	config := "output:\n  format: go\n  path: from_file.go\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".keymapgen.yml"), []byte(config), 0o644))

	t.Run("config file", func(t *testing.T) {
		out, err := executeCommand(t, "generate")
		require.NoError(t, err)
		assert.Contains(t, out, "wrote from_file.go")
	})

	t.Run("env beats file", func(t *testing.T) {
		t.Setenv("KEYMAPGEN_OUTPUT_PATH", "from_env.go")
		out, err := executeCommand(t, "generate")
		require.NoError(t, err)
		assert.Contains(t, out, "wrote from_env.go")
	})

	t.Run("flag beats env", func(t *testing.T) {
		t.Setenv("KEYMAPGEN_OUTPUT_PATH", "from_env.go")
		out, err := executeCommand(t, "generate", "-o", "from_flag.go")
		require.NoError(t, err)
		assert.Contains(t, out, "wrote from_flag.go")
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := executeCommand(t, "generate", "--config", "nope.yml")
		require.Error(t, err)
		assert.Equal(t, kerrors.ErrorTypeConfig, kerrors.TypeOf(err))
	})
}

func TestLookupCommand(t *testing.T) {
	inTempDir(t)

	out, err := executeCommand(t, "lookup", "KeyA", "NotAKey")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "EVENT")
	assert.Regexp(t, `^KeyA\s+0x2C595B41\s+DOM_PK_A\s+KeyA\s+GLFW_KEY_A\s+DOM_PK_A$`, lines[1])
	assert.Regexp(t, `^NotAKey\s+0x[0-9A-F]{8}\s+DOM_PK_UNKNOWN\s+Unidentified\s+GLFW_KEY_UNKNOWN\s+DOM_PK_UNKNOWN$`, lines[2])

	out, err = executeCommand(t, "lookup", "Enter", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "event: Enter")
	assert.Contains(t, out, "target: GLFW_KEY_ENTER")

	_, err = executeCommand(t, "lookup")
	require.Error(t, err)
}

func TestHashCommand(t *testing.T) {
	inTempDir(t)

	out, err := executeCommand(t, "hash", "KeyA", "Enter")
	require.NoError(t, err)
	assert.Contains(t, out, "0x7E057D79")
	assert.Regexp(t, `"KeyA"\s+0x2C595B41`, out)
	assert.Regexp(t, `"Enter"\s+0x92E1C5D2`, out)

	out, err = executeCommand(t, "hash", "ab", "--seed-k1", "1", "--seed-k2", "1", "--trace")
	require.NoError(t, err)
	assert.Regexp(t, `"ab"\s+0x000000A6`, out)
	assert.Regexp(t, `\[0\] 'a'\s+0x00000063`, out)
	assert.Regexp(t, `\[1\] 'b'\s+0x000000A6`, out)

	_, err = executeCommand(t, "hash", "x", "--seed-k1", "0", "--seed-k2", "0")
	require.Error(t, err)
	assert.Equal(t, kerrors.ErrorTypeConfig, kerrors.TypeOf(err))
}

func TestHashCatalog(t *testing.T) {
	inTempDir(t)

	out, err := executeCommand(t, "hash")
	require.NoError(t, err)
	assert.Contains(t, out, "from seed: true")
	assert.Regexp(t, `KeyA\s+0x2C595B41`, out)
	assert.Regexp(t, `NumpadEnter\s+0x7393C5D2`, out)
}

func TestCatalogCommand(t *testing.T) {
	dir := inTempDir(t)

	out, err := executeCommand(t, "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "KeyA")
	assert.Contains(t, out, "0x2C595B41")

	out, err = executeCommand(t, "catalog", "--dump")
	require.NoError(t, err)
	assert.Equal(t, string(catalog.DefaultYAML()), out)

	_, err = executeCommand(t, "catalog", "-f", "json", "-o", "keys.json")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "keys.json"))
	require.NoError(t, err)
	var doc struct {
		Summary struct {
			Rows      int `json:"rows"`
			Constants int `json:"constants"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 157, doc.Summary.Rows)
	assert.Equal(t, 154, doc.Summary.Constants)
}

func TestCatalogExternalFile(t *testing.T) {
	dir := inTempDir(t)
	keys := "keys:\n  - {code: 1, event: KeyA, scancode: SC_A, target: T_A}\n  - {code: 2, event: KeyB, scancode: SC_B}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys.yaml"), []byte(keys), 0o644))

	out, err := executeCommand(t, "catalog", "-c", "keys.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "SC_A")
	assert.Contains(t, out, "KeyB")

	_, err = executeCommand(t, "catalog", "-c", "missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file does not exist")
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "keymapgen "))
	assert.Contains(t, out, "Platform: ")

	out, err = executeCommand(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
}

func TestWatchNeedsInputs(t *testing.T) {
	inTempDir(t)

	_, err := executeCommand(t, "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to watch")
}

func TestSubcommandContextIsFreshPerRun(t *testing.T) {
	inTempDir(t)

	_, err := executeCommand(t, "watch")
	require.Error(t, err)
	assert.NotNil(t, watchCmd.Context())

	resetCommands(t)
	assert.Nil(t, watchCmd.Context())
}

func TestWatchGeneratesAndStops(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keys.yaml"), catalog.DefaultYAML(), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := executeCommandContext(t, ctx, "watch", "-c", "keys.yaml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "KeyboardMapping.h"))
}
