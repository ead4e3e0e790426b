// Package phash searches for a perfect hash over a fixed set of strings.
//
// The hash family is
//
//	h0 = 0
//	hi = ((hi-1 ^ K1) << K2) ^ byte_i    (mod 2^32)
//
// which is cheap enough to evaluate in a constant expression in the generated
// code. With ~150 short keys almost every (K1, K2) pair is collision-free, so
// the search tries a known-good seed first and falls back to random sampling
// with a bounded number of trials.
package phash

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/logging"
)

const (
	// DefaultK1 and DefaultK2 are the parameters the shipped artifact was
	// generated with. Trying them first keeps regenerations byte-identical.
	DefaultK1 uint32 = 0x7E057D79
	DefaultK2 uint   = 3

	// DefaultMaxTrials bounds the random fallback.
	DefaultMaxTrials = 100000

	// MinK2 and MaxK2 bound the shift amount (inclusive).
	MinK2 uint = 1
	MaxK2 uint = 7

	k1Range uint32 = 1 << 31
)

// Params selects one member of the hash family.
type Params struct {
	K1 uint32
	K2 uint
}

// DefaultParams returns the known-good seed.
func DefaultParams() Params {
	return Params{K1: DefaultK1, K2: DefaultK2}
}

// IsZero reports whether p is unset.
func (p Params) IsZero() bool {
	return p.K1 == 0 && p.K2 == 0
}

// Valid reports whether the shift is inside [MinK2, MaxK2].
func (p Params) Valid() bool {
	return p.K2 >= MinK2 && p.K2 <= MaxK2
}

// String formats p the way the recurrence is written in the artifact.
func (p Params) String() string {
	return fmt.Sprintf("h_i = ((h_(i-1) ^ 0x%08X) << %d) ^ s_i", p.K1, p.K2)
}

// Hash evaluates the recurrence over the bytes of s.
func Hash(s string, p Params) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = ((h ^ p.K1) << p.K2) ^ uint32(s[i])
	}
	return h
}

// Step is one application of the recurrence.
type Step struct {
	Byte byte
	Hash uint32
}

// Trace returns the intermediate hash after every byte of s. The last step
// carries Hash(s, p).
func Trace(s string, p Params) []Step {
	steps := make([]Step, len(s))
	var h uint32
	for i := 0; i < len(s); i++ {
		h = ((h ^ p.K1) << p.K2) ^ uint32(s[i])
		steps[i] = Step{Byte: s[i], Hash: h}
	}
	return steps
}

// CollisionError reports two strings that hash to the same value.
type CollisionError struct {
	Params Params
	Hash   uint32
	First  string
	Second string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("collision: %q and %q both hash to 0x%08X under k1=0x%08X k2=%d",
		e.First, e.Second, e.Hash, e.Params.K1, e.Params.K2)
}

// Table maps each input string to its hash under one parameter pair.
type Table map[string]uint32

// Try hashes every name under p, building the hash-to-name mapping
// incrementally. The first repeated hash aborts the trial with a
// *CollisionError.
func Try(names []string, p Params) (Table, error) {
	byHash := make(map[uint32]string, len(names))
	table := make(Table, len(names))
	for _, name := range names {
		h := Hash(name, p)
		if earlier, ok := byHash[h]; ok {
			return nil, &CollisionError{Params: p, Hash: h, First: earlier, Second: name}
		}
		byHash[h] = name
		table[name] = h
	}
	return table, nil
}

// Result is the outcome of a successful search.
type Result struct {
	Params   Params
	Hashes   Table
	Trials   int
	FromSeed bool
}

// Hash returns the hash recorded for name.
func (r *Result) Hash(name string) (uint32, bool) {
	h, ok := r.Hashes[name]
	return h, ok
}

// Searcher finds collision-free parameters. The zero value skips the seed
// and samples up to DefaultMaxTrials random pairs from a time-seeded source.
type Searcher struct {
	// Seed is tried first. A zero Seed counts as unset and goes straight to
	// random sampling.
	Seed Params
	// MaxTrials bounds the random fallback; <= 0 means DefaultMaxTrials.
	MaxTrials int
	// Rand drives the random fallback; nil means a time-seeded PCG.
	Rand *rand.Rand
	// Logger receives the per-string hash trace at debug level.
	Logger logging.Logger
}

// NewSearcher returns a Searcher that tries seed first and whose random
// fallback is reproducible from randomSeed (0 picks a time seed).
func NewSearcher(seed Params, maxTrials int, randomSeed uint64, logger logging.Logger) *Searcher {
	if randomSeed == 0 {
		randomSeed = uint64(time.Now().UnixNano())
	}
	return &Searcher{
		Seed:      seed,
		MaxTrials: maxTrials,
		Rand:      rand.New(rand.NewPCG(randomSeed, randomSeed^0x9E3779B97F4A7C15)),
		Logger:    logger,
	}
}

// Search returns parameters under which every name hashes to a distinct
// value. The seed is tried first; on collision (or when unset) pairs are
// sampled with K1 uniform in [0, 2^31) and K2 uniform in [1, 8). Exceeding
// MaxTrials yields a search error carrying the last attempted parameters.
func (s *Searcher) Search(ctx context.Context, names []string) (*Result, error) {
	logger := s.logger()

	seed := s.Seed
	if !seed.IsZero() {
		if !seed.Valid() {
			return nil, kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("seed k2=%d outside [%d, %d]", seed.K2, MinK2, MaxK2))
		}
		table, err := s.trial(ctx, logger, names, seed)
		if err == nil {
			logger.Info(ctx, "Seed parameters are collision-free", "k1", hex(seed.K1), "k2", seed.K2)
			return &Result{Params: seed, Hashes: table, Trials: 1, FromSeed: true}, nil
		}
		logger.Warn(ctx, err, "Seed parameters collide, searching", "k1", hex(seed.K1), "k2", seed.K2)
	}

	rng := s.Rand
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	maxTrials := s.MaxTrials
	if maxTrials <= 0 {
		maxTrials = DefaultMaxTrials
	}

	var (
		last     Params
		lastColl *CollisionError
	)
	for trial := 1; trial <= maxTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return nil, kerrors.NewSearchError(kerrors.ErrCodeSearchCancelled,
				"search cancelled", err).WithContext("trials", trial-1)
		}

		last = Params{
			K1: rng.Uint32N(k1Range),
			K2: MinK2 + rng.UintN(MaxK2-MinK2+1),
		}
		table, err := s.trial(ctx, logger, names, last)
		if err == nil {
			logger.Info(ctx, "Found collision-free hash function",
				"k1", hex(last.K1), "k2", last.K2, "trials", trial)
			return &Result{Params: last, Hashes: table, Trials: trial}, nil
		}
		lastColl = err.(*CollisionError)
	}

	return nil, kerrors.NewSearchError(kerrors.ErrCodeSearchExhausted,
		fmt.Sprintf("no collision-free parameters after %d trials", maxTrials), lastColl).
		WithContext("trials", maxTrials).
		WithContext("last_k1", hex(last.K1)).
		WithContext("last_k2", last.K2)
}

func (s *Searcher) trial(ctx context.Context, logger logging.Logger, names []string, p Params) (Table, error) {
	table, err := Try(names, p)
	if err != nil {
		coll := err.(*CollisionError)
		logger.Debug(ctx, "Collision", "first", coll.First, "second", coll.Second, "hash", hex(coll.Hash))
		return nil, coll
	}
	for _, name := range names {
		logger.Debug(ctx, "Hashed", "event", name, "hash", hex(table[name]))
	}
	return table, nil
}

func (s *Searcher) logger() logging.Logger {
	if s.Logger == nil {
		return logging.Discard()
	}
	return s.Logger.WithComponent("phash")
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
