package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/keymapgen/internal/phash"
	"github.com/conneroisu/keymapgen/internal/renderer"
)

// enumValue is a string flag restricted to a fixed set of values.
type enumValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(def string, allowed ...string) *enumValue {
	return &enumValue{value: def, allowed: allowed}
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(v string) error {
	v = strings.ToLower(strings.TrimSpace(v))
	if err := ValidateFormatWithSuggestion(v, e.allowed); err != nil {
		return err
	}
	e.value = v
	return nil
}

func (e *enumValue) Type() string { return "string" }

// ValidateFormatWithSuggestion rejects values outside valid and lists the
// accepted ones.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	for _, v := range valid {
		if v == format {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
}

// pipelineFlags are the flags of every command that runs the hash search.
// Each flag overrides one configuration key.
var pipelineFlags = map[string]string{
	"catalog":     "catalog.path",
	"seed-k1":     "search.seed_k1",
	"seed-k2":     "search.seed_k2",
	"max-trials":  "search.max_trials",
	"random-seed": "search.random_seed",
}

// outputFlags override the artifact keys.
var outputFlags = map[string]string{
	"format": "output.format",
	"output": "output.path",
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("catalog", "c", "", "key catalog YAML file (default: built-in catalog)")
	cmd.Flags().Uint32("seed-k1", phash.DefaultK1, "hash seed XOR constant, tried before the random search")
	cmd.Flags().Uint("seed-k2", phash.DefaultK2, "hash seed shift in [1, 7]; 0 with --seed-k1=0 skips the seed")
	cmd.Flags().Int("max-trials", phash.DefaultMaxTrials, "upper bound on random search trials")
	cmd.Flags().Uint64("random-seed", 0, "seed for the random search (0 picks one from the clock)")

	AddFlagValidation(cmd, "catalog", ValidateFileExists)
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().VarP(newEnumValue("cpp", renderer.Formats()...), "format", "f",
		"artifact format ("+strings.Join(renderer.Formats(), "|")+")")
	cmd.Flags().StringP("output", "o", "KeyboardMapping.h", "artifact path")
}

// bindFlags binds the named flags of cmd to their configuration keys. It runs
// in PreRunE so that only the executing command's flags are bound; several
// commands declare the same flag names.
func bindFlags(cmd *cobra.Command, bindings ...map[string]string) error {
	for _, b := range bindings {
		for flagName, key := range b {
			flag := cmd.Flags().Lookup(flagName)
			if flag == nil {
				continue
			}
			if err := viper.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("binding --%s: %w", flagName, err)
			}
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFileExists rejects a path that does not exist. Empty is valid for
// optional files.
func ValidateFileExists(filename string) error {
	if filename == "" {
		return nil
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", filename)
	}

	return nil
}
