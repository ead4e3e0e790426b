//go:build property

package phash

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSearchProperties checks the collision-free invariant over generated key sets.
func TestSearchProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1234)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("found parameters separate every distinct name", prop.ForAll(
		func(names []string, randomSeed uint64) bool {
			names = dedupe(names)
			res, err := NewSearcher(DefaultParams(), 1000, randomSeed+1, nil).Search(context.Background(), names)
			if err != nil {
				return false
			}
			seen := make(map[uint32]bool, len(names))
			for _, n := range names {
				h := Hash(n, res.Params)
				if seen[h] || res.Hashes[n] != h {
					return false
				}
				seen[h] = true
			}
			return res.Params.Valid()
		},
		gen.SliceOfN(40, gen.Identifier()),
		gen.UInt64(),
	))

	properties.Property("appending a byte applies one recurrence step", prop.ForAll(
		func(s string, c uint8, k1 uint32, k2 uint) bool {
			p := Params{K1: k1, K2: MinK2 + k2%MaxK2}
			return Hash(s+string([]byte{c}), p) == ((Hash(s, p)^p.K1)<<p.K2)^uint32(c)
		},
		gen.AnyString(),
		gen.UInt8(),
		gen.UInt32(),
		gen.UInt(),
	))

	properties.Property("a collision is reported for the later name", prop.ForAll(
		func(suffix string, k1 uint32) bool {
			if len(suffix) < 5 {
				return true
			}
			tail := suffix[len(suffix)-5:]
			_, err := Try([]string{"A" + tail, "B" + tail}, Params{K1: k1, K2: 7})
			coll, ok := err.(*CollisionError)
			return ok && coll.Second == "B"+tail
		},
		gen.Identifier(),
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
