//go:build property

package watcher

import (
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties validates how a burst of events is coalesced.
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	names := []string{"keys.yaml", ".keymapgen.yml", "extra.yaml", "other.yaml"}
	pathGen := gen.IntRange(0, len(names)-1).Map(func(i int) string { return names[i] })
	burstGen := gen.SliceOfN(40, gen.IntRange(0, 3)).
		Map(func(types []int) []EventType {
			out := make([]EventType, len(types))
			for i, v := range types {
				out[i] = EventType(v)
			}
			return out
		})

	properties.Property("one sorted event per distinct path, carrying the last type", prop.ForAll(
		func(paths []string, types []EventType) bool {
			if len(paths) == 0 {
				return true
			}
			d := NewDebouncer(time.Hour)
			last := make(map[string]EventType)
			for i, p := range paths {
				ty := types[i%len(types)]
				d.addEvent(ChangeEvent{Type: ty, Path: p})
				last[p] = ty
			}
			d.flush()
			d.stop()

			events := <-d.Output()
			if len(events) != len(last) {
				return false
			}
			if !sort.SliceIsSorted(events, func(i, j int) bool { return events[i].Path < events[j].Path }) {
				return false
			}
			for _, ev := range events {
				if last[ev.Path] != ev.Type {
					return false
				}
			}
			return true
		},
		gen.SliceOf(pathGen),
		burstGen,
	))

	properties.TestingRun(t)
}
