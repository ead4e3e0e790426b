// Package generator runs the keyboard mapping pipeline once: load the catalog,
// search for a perfect hash, derive the relations, render the artifact and
// write it atomically.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conneroisu/keymapgen/internal/artifact"
	"github.com/conneroisu/keymapgen/internal/build"
	"github.com/conneroisu/keymapgen/internal/catalog"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/logging"
	"github.com/conneroisu/keymapgen/internal/mapping"
	"github.com/conneroisu/keymapgen/internal/phash"
	"github.com/conneroisu/keymapgen/internal/renderer"
)

// Options configures one generator.
type Options struct {
	// CatalogPath is an external YAML catalog; empty selects the embedded one.
	CatalogPath string
	Format      string
	OutputPath  string

	Seed       phash.Params
	MaxTrials  int
	RandomSeed uint64

	Unknown artifact.Unknown
	Render  renderer.Options
}

// DefaultOptions renders the embedded catalog as a C++ header.
func DefaultOptions() Options {
	return Options{
		Format:     "cpp",
		OutputPath: "KeyboardMapping.h",
		Seed:       phash.DefaultParams(),
		MaxTrials:  phash.DefaultMaxTrials,
		Unknown:    artifact.DefaultUnknown(),
		Render:     renderer.DefaultOptions(),
	}
}

// Model is the in-memory pipeline state up to the artifact model.
type Model struct {
	Catalog  *catalog.Catalog
	Search   *phash.Result
	Tables   *mapping.Tables
	Artifact *artifact.Artifact
}

// Output describes one generation.
type Output struct {
	Path        string
	Format      string
	Fingerprint string
	Content     []byte
	// Changed reports whether the file on disk differed (Generate) or would
	// differ (Check) from Content.
	Changed  bool
	CacheHit bool
	// Model is nil when the content came from the render cache.
	Model    *Model
	Duration time.Duration
}

// Generator runs the pipeline. It is safe to reuse across runs; rendered
// artifacts are cached by input fingerprint.
type Generator struct {
	opts    Options
	logger  logging.Logger
	cache   *build.Cache
	metrics *build.Metrics
}

// New creates a generator. A nil logger discards output.
func New(opts Options, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Generator{
		opts:    opts,
		logger:  logger.WithComponent("generator"),
		cache:   build.NewCache(16<<20, 0),
		metrics: build.NewMetrics(),
	}
}

// Options returns the generator configuration.
func (g *Generator) Options() Options {
	return g.opts
}

// Metrics returns the run counters.
func (g *Generator) Metrics() *build.Metrics {
	return g.metrics
}

// CacheStats returns the render cache counters.
func (g *Generator) CacheStats() build.CacheStats {
	return g.cache.Stats()
}

// LoadCatalog loads and validates the configured catalog and logs lint
// warnings.
func (g *Generator) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	c, err := catalog.Load(g.opts.CatalogPath)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	for _, w := range c.Lint() {
		g.logger.Warn(ctx, nil, w.Message, "source", c.Source(), "row", w.Row)
	}
	g.logger.Debug(ctx, "Catalog loaded", "source", c.Source(), "rows", c.Len())
	return c, nil
}

// Model runs the pipeline up to the artifact model without rendering.
func (g *Generator) Model(ctx context.Context) (*Model, error) {
	c, err := g.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return g.model(ctx, c)
}

func (g *Generator) model(ctx context.Context, c *catalog.Catalog) (*Model, error) {
	searcher := phash.NewSearcher(g.opts.Seed, g.opts.MaxTrials, g.opts.RandomSeed, g.logger)
	res, err := searcher.Search(ctx, c.EventCodes())
	if err != nil {
		return nil, err
	}

	tables, err := mapping.Build(c, res)
	if err != nil {
		return nil, err
	}
	stats := tables.Stats()
	g.logger.Debug(ctx, "Relations built",
		"constants", stats.Constants,
		"suppressed", stats.Suppressed,
		"names", stats.Names,
		"targets", stats.Targets,
		"overwritten", stats.Overwritten)

	return &Model{
		Catalog:  c,
		Search:   res,
		Tables:   tables,
		Artifact: artifact.New(tables, g.opts.Unknown),
	}, nil
}

// Render produces the artifact bytes without touching the output file.
func (g *Generator) Render(ctx context.Context) (*Output, error) {
	start := time.Now()

	r, err := renderer.New(g.opts.Format, g.opts.Render)
	if err != nil {
		return nil, err
	}

	c, err := g.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Path:        g.opts.OutputPath,
		Format:      r.Name(),
		Fingerprint: g.fingerprint(c),
	}
	content, hit, err := g.cache.GetOrBuild(out.Fingerprint, func() ([]byte, error) {
		m, err := g.model(ctx, c)
		if err != nil {
			return nil, err
		}
		out.Model = m
		return r.Render(m.Artifact)
	})
	if err != nil {
		return nil, err
	}

	out.Content = content
	out.CacheHit = hit
	out.Duration = time.Since(start)
	return out, nil
}

// Generate renders the artifact and writes it to the output path. An
// identical file is left untouched.
func (g *Generator) Generate(ctx context.Context) (*Output, error) {
	out, err := g.Render(ctx)
	if err != nil {
		g.metrics.Record(build.GenerationResult{Error: err})
		return nil, err
	}

	out.Changed = !sameContent(out.Path, out.Content)
	if out.Changed {
		if err := writeAtomic(out.Path, out.Content); err != nil {
			g.metrics.Record(build.GenerationResult{Duration: out.Duration, CacheHit: out.CacheHit, Error: err})
			return nil, err
		}
	}
	g.finish(ctx, out)
	return out, nil
}

// Check renders the artifact in memory and reports through Output.Changed
// whether the file on disk is stale.
func (g *Generator) Check(ctx context.Context) (*Output, error) {
	out, err := g.Render(ctx)
	if err != nil {
		return nil, err
	}
	out.Changed = !sameContent(out.Path, out.Content)
	g.logger.Info(ctx, "Artifact checked", "path", out.Path, "stale", out.Changed)
	return out, nil
}

func (g *Generator) finish(ctx context.Context, out *Output) {
	fields := []interface{}{
		"path", out.Path,
		"format", out.Format,
		"bytes", len(out.Content),
		"changed", out.Changed,
		"cache_hit", out.CacheHit,
		"fingerprint", out.Fingerprint,
	}
	if out.Model != nil {
		p := out.Model.Search.Params
		fields = append(fields,
			"k1", fmt.Sprintf("0x%08X", p.K1),
			"k2", p.K2,
			"trials", out.Model.Search.Trials,
			"from_seed", out.Model.Search.FromSeed)
	}
	g.logger.Info(ctx, "Artifact generated", fields...)

	g.metrics.Record(build.GenerationResult{
		Duration: out.Duration,
		CacheHit: out.CacheHit,
		Changed:  out.Changed,
	})
}

func (g *Generator) fingerprint(c *catalog.Catalog) string {
	return build.Fingerprint(c,
		g.opts.Format,
		fmt.Sprintf("%+v", g.opts.Render),
		fmt.Sprintf("%+v", g.opts.Unknown),
		fmt.Sprintf("%d/%d/%d/%d", g.opts.Seed.K1, g.opts.Seed.K2, g.opts.MaxTrials, g.opts.RandomSeed),
	)
}

func sameContent(path string, content []byte) bool {
	existing, err := os.ReadFile(path)
	return err == nil && bytes.Equal(existing, content)
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the old or the new artifact. The
// temporary file is removed on any failure.
func writeAtomic(path string, data []byte) (err error) {
	fail := func(op string, cause error) error {
		return kerrors.NewEmissionError(kerrors.ErrCodeEmissionFailed,
			fmt.Sprintf("%s %s", op, path), cause).WithContext("path", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fail("creating directory for", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fail("creating temporary file for", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fail("writing", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := tmp.Close(); err != nil {
		return fail("closing", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fail("setting mode of", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fail("renaming into", err)
	}
	return nil
}
