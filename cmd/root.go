// Package cmd provides the command-line interface for keymapgen.
//
// Configuration System:
//
//	Settings come from several sources with clear precedence:
//	1. Command-line flags (--format, --output, --seed-k1, ...) - highest priority
//	2. Individual environment variables (KEYMAPGEN_OUTPUT_FORMAT, ...)
//	3. The config file: --config, else KEYMAPGEN_CONFIG_FILE, else .keymapgen.yml
//	4. Built-in defaults - lowest priority
//
// Environment Variables:
//
//	KEYMAPGEN_CONFIG_FILE: Path to a custom configuration file
//	KEYMAPGEN_CATALOG_PATH: External key catalog
//	KEYMAPGEN_SEARCH_SEED_K1, KEYMAPGEN_SEARCH_SEED_K2: Hash seed
//	And every other key following the KEYMAPGEN_<SECTION>_<OPTION> pattern
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/keymapgen/internal/config"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/logging"
)

var (
	cfgFile string
	// configUsed is the file read by initConfig, empty when none.
	configUsed string
	// configErr defers a config file error to the command that needs it.
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keymapgen",
	Short: "Generate keyboard mapping lookup code from a key catalog",
	Long: `keymapgen turns a catalog of keys (DOM KeyboardEvent.code, DOM_PK_* scancode,
GLFW_KEY_* key) into compile-time lookup functions. Event-code strings are
dispatched through a perfect hash, so the emitted code is a single switch.

Quick Start:
  keymapgen generate              Write KeyboardMapping.h from the built-in catalog
  keymapgen generate --format go  Emit Go instead of C++
  keymapgen check                 Fail when the artifact on disk is stale
  keymapgen lookup KeyA Enter     Evaluate the lookups without generating
  keymapgen catalog               Show every key with its hash
  keymapgen watch                 Regenerate when the catalog or config changes`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Errors are logged with their structured context before being
// returned.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger := logging.NewLogger(logging.DefaultConfig())
		if cfg, cfgErr := config.Load(); cfgErr == nil {
			logger = logging.NewLogger(cfg.LoggerConfig())
		}
		kerrors.NewErrorHandler(logger).Handle(context.Background(), err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .keymapgen.yml, can also use KEYMAPGEN_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initConfig initializes the configuration system.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. KEYMAPGEN_CONFIG_FILE environment variable
//  3. .keymapgen.yml in the current directory
//
// Environment overrides use the KEYMAPGEN_ prefix with dots replaced by
// underscores (KEYMAPGEN_OUTPUT_PATH=out/KeyboardMapping.h).
func initConfig() {
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	configUsed, configErr = config.Setup(viper.GetViper(), cfgFile)
}

// session is what every pipeline command needs.
type session struct {
	cfg    *config.Config
	logger logging.Logger
}

// loadSession loads the configuration and builds the logger. Validation
// warnings are logged; errors abort the command.
func loadSession(cmd *cobra.Command) (*session, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	loggerConfig := cfg.LoggerConfig()
	loggerConfig.Output = cmd.ErrOrStderr()
	logger := logging.NewLogger(loggerConfig).WithComponent(cmd.Name())

	ctx := cmd.Context()
	if configUsed != "" {
		logger.Debug(ctx, "Using config file", "path", configUsed)
	}
	for _, w := range config.ValidateConfigWithDetails(cfg).Warnings {
		logger.Warn(ctx, nil, w.Message, "field", w.Field, "value", w.Value)
	}
	return &session{cfg: cfg, logger: logger}, nil
}

func printf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
