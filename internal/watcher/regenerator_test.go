package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/keymapgen/internal/build"
	"github.com/conneroisu/keymapgen/internal/catalog"
	"github.com/conneroisu/keymapgen/internal/generator"
	"github.com/conneroisu/keymapgen/internal/testutils"
)

type countingRunner struct {
	runs int
	err  error
}

func (c *countingRunner) Generate(ctx context.Context) (*generator.Output, error) {
	c.runs++
	if c.err != nil {
		return nil, c.err
	}
	return &generator.Output{Path: "out.h", Changed: true}, nil
}

func newTestRegenerator(runner Runner) *Regenerator {
	return NewRegenerator(runner, build.NewFileHasher(build.NewCache(1<<20, time.Hour)), nil)
}

func TestRegeneratorSkipsUnchangedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keys: []\n"), 0644))

	runner := &countingRunner{}
	r := newTestRegenerator(runner)
	r.Prime(path)
	ctx := context.Background()

	require.NoError(t, r.Handle(ctx, []ChangeEvent{{Type: EventTypeModified, Path: path}}))
	assert.Equal(t, 0, runner.runs, "touching a file is not a change")

	require.NoError(t, os.WriteFile(path, []byte("keys: [changed]\n"), 0644))
	require.NoError(t, r.Handle(ctx, []ChangeEvent{{Type: EventTypeModified, Path: path}}))
	assert.Equal(t, 1, runner.runs)

	require.NoError(t, r.Handle(ctx, []ChangeEvent{{Type: EventTypeModified, Path: path}}))
	assert.Equal(t, 1, runner.runs)
}

func TestRegeneratorRunsOncePerBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "keys.yaml")
	b := filepath.Join(dir, ".keymapgen.yml")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0644))

	runner := &countingRunner{}
	r := newTestRegenerator(runner)

	require.NoError(t, r.Handle(context.Background(), []ChangeEvent{
		{Type: EventTypeCreated, Path: a},
		{Type: EventTypeCreated, Path: b},
	}))
	assert.Equal(t, 1, runner.runs)
}

func TestRegeneratorKeepsArtifactOnDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	runner := &countingRunner{}
	r := newTestRegenerator(runner)
	r.Prime(path)
	require.NoError(t, os.Remove(path))

	require.NoError(t, r.Handle(context.Background(), []ChangeEvent{{Type: EventTypeDeleted, Path: path}}))
	assert.Equal(t, 0, runner.runs)

	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))
	require.NoError(t, r.Handle(context.Background(), []ChangeEvent{{Type: EventTypeCreated, Path: path}}))
	assert.Equal(t, 1, runner.runs, "a recreated file regenerates even with the old content")
}

func TestRegeneratorPropagatesRunnerError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0644))

	boom := errors.New("boom")
	r := newTestRegenerator(&countingRunner{err: boom})

	err := r.Handle(context.Background(), []ChangeEvent{{Type: EventTypeModified, Path: path}})
	assert.ErrorIs(t, err, boom)
}

func TestRunnerFunc(t *testing.T) {
	called := false
	var runner Runner = RunnerFunc(func(ctx context.Context) (*generator.Output, error) {
		called = true
		return &generator.Output{}, nil
	})
	_, err := runner.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRegeneratorWithGenerator(t *testing.T) {
	dir := testutils.CreateTempProject(t)
	catalogPath := testutils.WriteCatalog(t, dir, "keys.yaml", testutils.SmallCatalog...)

	opts := generator.DefaultOptions()
	opts.CatalogPath = catalogPath
	opts.OutputPath = filepath.Join(dir, "include", "KeyboardMapping.h")
	gen := generator.New(opts, nil)

	r := newTestRegenerator(gen)
	require.NoError(t, r.Handle(context.Background(), []ChangeEvent{{Type: EventTypeCreated, Path: catalogPath}}))

	content, err := os.ReadFile(opts.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "DOM_PK_NUMPAD_ENTER")
	assert.Equal(t, int64(1), gen.Metrics().Snapshot().Writes)
}

func TestWatchLoopRegeneratesOnCatalogEdit(t *testing.T) {
	dir := testutils.CreateTempProject(t)
	catalogPath := testutils.WriteCatalog(t, dir, "keys.yaml", testutils.SmallCatalog...)

	opts := generator.DefaultOptions()
	opts.CatalogPath = catalogPath
	opts.OutputPath = filepath.Join(dir, "include", "KeyboardMapping.h")
	gen := generator.New(opts, nil)
	_, err := gen.Generate(context.Background())
	require.NoError(t, err)
	info, err := os.Stat(opts.OutputPath)
	require.NoError(t, err)

	fw, err := NewFileWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Stop()
	require.NoError(t, fw.WatchFile(catalogPath))

	r := newTestRegenerator(gen)
	r.Prime(fw.Files()...)
	fw.AddHandler(r.Handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, fw.Start(ctx))

	// Let the modification time move past the first write on coarse clocks.
	time.Sleep(20 * time.Millisecond)
	keys := append(testutils.SmallCatalog[:len(testutils.SmallCatalog):len(testutils.SmallCatalog)],
		catalog.KeyDescriptor{Code: 0x0030, EventCode: "KeyB", Scancode: "DOM_PK_B", Target: "GLFW_KEY_B"})
	testutils.WriteCatalog(t, dir, "keys.yaml", keys...)

	testutils.WaitForFileChange(t, opts.OutputPath, info.ModTime(), 5*time.Second)
	content, err := os.ReadFile(opts.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "DOM_PK_B")
}
