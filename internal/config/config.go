// Package config provides configuration management for keymapgen using Viper
// for loading from files, environment variables, and command-line flags.
//
// Values resolve in the usual Viper order: flags bound to keys, KEYMAPGEN_*
// environment variables (dots become underscores, e.g.
// KEYMAPGEN_OUTPUT_FORMAT), the config file, then the defaults registered by
// SetDefaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/keymapgen/internal/artifact"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/generator"
	"github.com/conneroisu/keymapgen/internal/logging"
	"github.com/conneroisu/keymapgen/internal/phash"
	"github.com/conneroisu/keymapgen/internal/renderer"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "KEYMAPGEN"
	// ConfigFileEnv names a config file when --config is not given.
	ConfigFileEnv = "KEYMAPGEN_CONFIG_FILE"
	// DefaultConfigName is searched for in the working directory.
	DefaultConfigName = ".keymapgen"
)

type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Search  SearchConfig  `mapstructure:"search" yaml:"search"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	CPP     CPPConfig     `mapstructure:"cpp" yaml:"cpp"`
	Go      GoConfig      `mapstructure:"go" yaml:"go"`
	Unknown UnknownConfig `mapstructure:"unknown" yaml:"unknown"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Watch   WatchConfig   `mapstructure:"watch" yaml:"watch"`
}

type CatalogConfig struct {
	// Path to a YAML catalog; empty uses the embedded catalog.
	Path string `mapstructure:"path" yaml:"path"`
}

type SearchConfig struct {
	SeedK1     uint32 `mapstructure:"seed_k1" yaml:"seed_k1"`
	SeedK2     uint   `mapstructure:"seed_k2" yaml:"seed_k2"`
	MaxTrials  int    `mapstructure:"max_trials" yaml:"max_trials"`
	RandomSeed uint64 `mapstructure:"random_seed" yaml:"random_seed"`
}

type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format"`
	Path      string `mapstructure:"path" yaml:"path"`
	Copyright string `mapstructure:"copyright" yaml:"copyright"`
	License   string `mapstructure:"license" yaml:"license"`
}

type CPPConfig struct {
	Include        string `mapstructure:"include" yaml:"include"`
	Namespace      string `mapstructure:"namespace" yaml:"namespace"`
	InnerNamespace string `mapstructure:"inner_namespace" yaml:"inner_namespace"`
	Guard          string `mapstructure:"guard" yaml:"guard"`
}

type GoConfig struct {
	Package        string   `mapstructure:"package" yaml:"package"`
	TargetImport   string   `mapstructure:"target_import" yaml:"target_import"`
	ScancodePrefix string   `mapstructure:"scancode_prefix" yaml:"scancode_prefix"`
	TargetPrefix   string   `mapstructure:"target_prefix" yaml:"target_prefix"`
	Acronyms       []string `mapstructure:"acronyms" yaml:"acronyms"`
}

type UnknownConfig struct {
	Scancode string `mapstructure:"scancode" yaml:"scancode"`
	Target   string `mapstructure:"target" yaml:"target"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// SetDefaults registers every key with its default. Registering the keys also
// lets environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	ro := renderer.DefaultOptions()
	unknown := artifact.DefaultUnknown()

	v.SetDefault("catalog.path", "")

	v.SetDefault("search.seed_k1", phash.DefaultK1)
	v.SetDefault("search.seed_k2", phash.DefaultK2)
	v.SetDefault("search.max_trials", phash.DefaultMaxTrials)
	v.SetDefault("search.random_seed", 0)

	v.SetDefault("output.format", "cpp")
	v.SetDefault("output.path", "KeyboardMapping.h")
	v.SetDefault("output.copyright", ro.Copyright)
	v.SetDefault("output.license", ro.License)

	v.SetDefault("cpp.include", ro.CPP.Include)
	v.SetDefault("cpp.namespace", ro.CPP.Namespace)
	v.SetDefault("cpp.inner_namespace", ro.CPP.InnerNamespace)
	v.SetDefault("cpp.guard", ro.CPP.Guard)

	v.SetDefault("go.package", ro.Go.Package)
	v.SetDefault("go.target_import", ro.Go.TargetImport)
	v.SetDefault("go.scancode_prefix", ro.Go.ScancodePrefix)
	v.SetDefault("go.target_prefix", ro.Go.TargetPrefix)
	v.SetDefault("go.acronyms", ro.Go.Acronyms)

	v.SetDefault("unknown.scancode", unknown.Scancode)
	v.SetDefault("unknown.target", unknown.Target)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("watch.debounce", 300*time.Millisecond)
}

// Setup points v at the config file and enables environment overrides.
// cfgFile wins over KEYMAPGEN_CONFIG_FILE, which wins over .keymapgen.yml in
// the working directory. A missing default file is not an error; a missing
// explicit file is. The returned path is the file actually read, if any.
func Setup(v *viper.Viper, cfgFile string) (string, error) {
	SetDefaults(v)

	explicit := cfgFile
	if explicit == "" {
		explicit = os.Getenv(ConfigFileEnv)
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(DefaultConfigName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("reading config file %s", explicit)).
			WithContext("path", explicit).
			WithCause(err)
	}
	return v.ConfigFileUsed(), nil
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
			"decoding configuration").WithCause(err)
	}

	// Viper leaves comma-separated env values as a single element.
	if len(config.Go.Acronyms) == 1 && strings.Contains(config.Go.Acronyms[0], ",") {
		config.Go.Acronyms = strings.Split(config.Go.Acronyms[0], ",")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate returns a config error listing every invalid field.
func (c *Config) Validate() error {
	result := ValidateConfigWithDetails(c)
	if !result.HasErrors() {
		return nil
	}
	fields := &kerrors.ValidationErrorCollection{Errors: result.Errors}
	return kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
		fmt.Sprintf("invalid configuration: %s", result.Errors[0].Error())).
		WithContext("errors", len(result.Errors)).
		WithCause(fields)
}

// Seed returns the seed parameters.
func (c *Config) Seed() phash.Params {
	return phash.Params{K1: c.Search.SeedK1, K2: c.Search.SeedK2}
}

// RendererOptions maps the output sections onto renderer options.
func (c *Config) RendererOptions() renderer.Options {
	return renderer.Options{
		Copyright: c.Output.Copyright,
		License:   c.Output.License,
		CPP: renderer.CPPOptions{
			Include:        c.CPP.Include,
			Namespace:      c.CPP.Namespace,
			InnerNamespace: c.CPP.InnerNamespace,
			Guard:          c.CPP.Guard,
		},
		Go: renderer.GoOptions{
			Package:        c.Go.Package,
			TargetImport:   c.Go.TargetImport,
			ScancodePrefix: c.Go.ScancodePrefix,
			TargetPrefix:   c.Go.TargetPrefix,
			Acronyms:       append([]string(nil), c.Go.Acronyms...),
		},
	}
}

// GeneratorOptions maps the configuration onto generator options.
func (c *Config) GeneratorOptions() generator.Options {
	return generator.Options{
		CatalogPath: c.Catalog.Path,
		Format:      c.Output.Format,
		OutputPath:  c.Output.Path,
		Seed:        c.Seed(),
		MaxTrials:   c.Search.MaxTrials,
		RandomSeed:  c.Search.RandomSeed,
		Unknown:     artifact.Unknown{Scancode: c.Unknown.Scancode, Target: c.Unknown.Target},
		Render:      c.RendererOptions(),
	}
}

// LoggerConfig maps the log section onto the logger configuration.
func (c *Config) LoggerConfig() *logging.LoggerConfig {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Format = c.Log.Format
	return cfg
}
