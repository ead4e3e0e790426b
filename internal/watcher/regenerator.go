package watcher

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/conneroisu/keymapgen/internal/build"
	"github.com/conneroisu/keymapgen/internal/generator"
	"github.com/conneroisu/keymapgen/internal/logging"
)

// Runner produces the artifact.
type Runner interface {
	Generate(ctx context.Context) (*generator.Output, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context) (*generator.Output, error)

// Generate calls f.
func (f RunnerFunc) Generate(ctx context.Context) (*generator.Output, error) {
	return f(ctx)
}

// Regenerator reruns generation when a watched input changes content. Events
// that leave a file byte-identical (touch, editor re-save) are ignored, and a
// deleted input keeps the last artifact in place.
type Regenerator struct {
	runner Runner
	hasher *build.FileHasher
	logger logging.Logger

	hashes map[string]string
	mutex  sync.Mutex
}

// NewRegenerator creates a regenerator. A nil logger discards output.
func NewRegenerator(runner Runner, hasher *build.FileHasher, logger logging.Logger) *Regenerator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Regenerator{
		runner: runner,
		hasher: hasher,
		logger: logger.WithComponent("regenerator"),
		hashes: make(map[string]string),
	}
}

// Prime records the current content hash of paths so the first event on an
// unchanged file does not trigger a run. Missing files are skipped.
func (r *Regenerator) Prime(paths ...string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, p := range paths {
		if h, err := r.hasher.Hash(p); err == nil {
			r.hashes[p] = h
		}
	}
}

// Handle is a ChangeHandler.
func (r *Regenerator) Handle(ctx context.Context, events []ChangeEvent) error {
	changed := r.changed(ctx, events)
	if len(changed) == 0 {
		return nil
	}

	r.logger.Info(ctx, "Inputs changed, regenerating", "files", changed)
	out, err := r.runner.Generate(ctx)
	if err != nil {
		return err
	}
	if !out.Changed {
		r.logger.Info(ctx, "Artifact unchanged", "path", out.Path)
	}
	return nil
}

func (r *Regenerator) changed(ctx context.Context, events []ChangeEvent) []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var changed []string
	for _, ev := range events {
		h, err := r.hasher.Hash(ev.Path)
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Warn(ctx, err, "Watched input removed, keeping last artifact", "path", ev.Path)
			delete(r.hashes, ev.Path)
			continue
		}
		if err != nil {
			r.logger.Warn(ctx, err, "Cannot hash watched input", "path", ev.Path)
			continue
		}
		if r.hashes[ev.Path] == h {
			r.logger.Debug(ctx, "Content unchanged", "path", ev.Path, "event", ev.Type.String())
			continue
		}
		r.hashes[ev.Path] = h
		changed = append(changed, ev.Path)
	}
	return changed
}
