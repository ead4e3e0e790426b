//go:build property

package config

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/spf13/viper"

	"github.com/conneroisu/keymapgen/internal/phash"
)

// TestConfigurationProperties tests configuration validation properties
func TestConfigurationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	properties := gopter.NewProperties(parameters)

	base := func() *Config {
		viper.Reset()
		defer viper.Reset()
		config, err := Load()
		if err != nil {
			t.Fatalf("default config: %v", err)
		}
		return config
	}()

	properties.Property("seed is accepted exactly when k2 is in range or both parts are zero", prop.ForAll(
		func(k1 uint32, k2 uint) bool {
			config := *base
			config.Search.SeedK1, config.Search.SeedK2 = k1, k2

			valid := config.Validate() == nil
			expected := (k1 == 0 && k2 == 0) || (k2 >= phash.MinK2 && k2 <= phash.MaxK2)
			return valid == expected
		},
		gen.UInt32(),
		gen.UIntRange(0, 12),
	))

	properties.Property("max trials must be positive", prop.ForAll(
		func(trials int) bool {
			config := *base
			config.Search.MaxTrials = trials
			return (config.Validate() == nil) == (trials > 0)
		},
		gen.IntRange(-1000, 1000),
	))

	properties.Property("generator options mirror the search section", prop.ForAll(
		func(k1 uint32, k2 uint, seed uint64) bool {
			config := *base
			config.Search.SeedK1, config.Search.SeedK2, config.Search.RandomSeed = k1, k2, seed
			opts := config.GeneratorOptions()
			return opts.Seed == phash.Params{K1: k1, K2: k2} && opts.RandomSeed == seed
		},
		gen.UInt32(),
		gen.UIntRange(1, 7),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
