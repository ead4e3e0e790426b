// Package internal contains the implementation packages of keymapgen.
//
// # Package Organization
//
// The pipeline runs top to bottom; each package depends only on the ones
// above it:
//
//   - errors: KeymapError with typed codes, field validation collections
//   - logging: structured logging on log/slog with components and fields
//   - catalog: the key catalog, its YAML codec, validation and lint
//   - phash: the shift-xor string hash and the collision-free parameter search
//   - mapping: lookup relations derived from a catalog and a hash result
//   - artifact: the render-ready model and an evaluator for its lookups
//   - renderer: C++ header and Go source emitters
//   - build: LRU byte cache, fingerprints, file hashing and run metrics
//   - generator: the end-to-end pipeline with atomic, change-aware writes
//   - report: text, YAML, JSON and HTML views of a catalog and its hashes
//   - validation: checks for paths and text embedded in generated code
//   - config: Viper-backed settings with detailed validation
//   - watcher: fsnotify watching with debouncing and content-aware reruns
//   - version: build metadata
//
// # Determinism
//
// Given the same catalog, options and seed, every package produces the same
// bytes. The hash search tries the configured seed first; the random fallback
// is reproducible when a random seed is configured.
//
// # Testing Strategy
//
// Unit tests use testify. Property tests use gopter and are built with the
// property tag. Shared fixtures live in testutils.
package internal
