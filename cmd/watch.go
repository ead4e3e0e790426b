package cmd

import (
	"context"
	"os"
	"os/signal"
	"reflect"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/keymapgen/internal/build"
	"github.com/conneroisu/keymapgen/internal/config"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/generator"
	"github.com/conneroisu/keymapgen/internal/logging"
	"github.com/conneroisu/keymapgen/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the artifact when the catalog or config changes",
	Long: `Generate once, then watch the catalog file and the config file and regenerate
whenever their content changes. Saves that leave a file byte-identical are
ignored, and a deleted input keeps the last artifact in place.

Examples:
  keymapgen watch -c keys.yaml
  keymapgen watch --config keymapgen.yml -f go -o keys/keys_gen.go`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, pipelineFlags, outputFlags)
	},
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addPipelineFlags(watchCmd)
	addOutputFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}

	inputs := make([]string, 0, 2)
	if s.cfg.Catalog.Path != "" {
		inputs = append(inputs, s.cfg.Catalog.Path)
	}
	if configUsed != "" {
		inputs = append(inputs, configUsed)
	}
	if len(inputs) == 0 {
		return kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
			"nothing to watch: the built-in catalog is used and no config file was read")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fileWatcher, err := watcher.NewFileWatcher(s.cfg.Watch.Debounce, s.logger)
	if err != nil {
		return kerrors.NewInternalError(kerrors.ErrCodeInternalError, "creating file watcher", err)
	}
	defer func() { _ = fileWatcher.Stop() }()
	fileWatcher.AddFilter(watcher.NoTempFilter)

	for _, path := range inputs {
		if err := fileWatcher.WatchFile(path); err != nil {
			return kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid, err.Error()).WithContext("path", path)
		}
	}

	rt := &watchRunner{
		gen:     generator.New(s.cfg.GeneratorOptions(), s.logger),
		logger:  s.logger,
		watcher: fileWatcher,
		reload:  configUsed != "",
	}
	if _, err := rt.gen.Generate(ctx); err != nil {
		s.logger.Error(ctx, err, "Initial generation failed, waiting for changes")
	}

	regen := watcher.NewRegenerator(rt, build.NewFileHasher(build.NewCache(1<<20, 0)), s.logger)
	regen.Prime(fileWatcher.Files()...)
	fileWatcher.AddHandler(regen.Handle)

	if err := fileWatcher.Start(ctx); err != nil {
		return kerrors.NewInternalError(kerrors.ErrCodeInternalError, "starting file watcher", err)
	}
	s.logger.Info(ctx, "Watching for changes", "files", fileWatcher.Files())

	<-ctx.Done()
	s.logger.Info(context.Background(), "Stopping watcher")
	return nil
}

// watchRunner regenerates with the latest configuration. The generator, and
// with it the render cache, is replaced only when the options change.
type watchRunner struct {
	gen     *generator.Generator
	logger  logging.Logger
	watcher *watcher.FileWatcher
	reload  bool
	mutex   sync.Mutex
}

func (r *watchRunner) Generate(ctx context.Context) (*generator.Output, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.reload {
		if err := r.reloadConfig(ctx); err != nil {
			return nil, err
		}
	}
	return r.gen.Generate(ctx)
}

func (r *watchRunner) reloadConfig(ctx context.Context) error {
	if err := viper.ReadInConfig(); err != nil {
		return kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid, "re-reading config file").WithCause(err)
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts := cfg.GeneratorOptions()
	if reflect.DeepEqual(opts, r.gen.Options()) {
		return nil
	}
	if opts.CatalogPath != "" && opts.CatalogPath != r.gen.Options().CatalogPath {
		if err := r.watcher.WatchFile(opts.CatalogPath); err != nil {
			r.logger.Warn(ctx, err, "Cannot watch new catalog", "path", opts.CatalogPath)
		}
	}
	r.logger.Info(ctx, "Configuration changed", "format", opts.Format, "output", opts.OutputPath)
	r.gen = generator.New(opts, r.logger)
	return nil
}
