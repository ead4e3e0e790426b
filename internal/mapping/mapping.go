// Package mapping derives the directional lookup relations emitted into the
// keyboard artifact.
//
// Each relation has its own duplicate policy. The policies differ on purpose
// and are kept separate:
//
//	EventToScancode   every row
//	CodeToName        first row per numeric code
//	ScancodeToTarget  every row carrying a target
//	TargetToScancode  last row per target symbol
//	Registry          first row per scancode symbol
package mapping

import (
	"fmt"

	"github.com/conneroisu/keymapgen/internal/catalog"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/phash"
)

// Policy decides which row survives when several rows share a relation key.
type Policy int

const (
	// KeepAll emits every row.
	KeepAll Policy = iota
	// FirstWins keeps the first row per key in catalog order.
	FirstWins
	// LastWins keeps the key at the position of its first appearance but
	// takes the value of the last row carrying it.
	LastWins
)

func (p Policy) String() string {
	switch p {
	case KeepAll:
		return "all"
	case FirstWins:
		return "first-wins"
	case LastWins:
		return "last-wins"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Row is one catalog row together with its perfect hash.
type Row struct {
	catalog.KeyDescriptor
	Index int
	Hash  uint32
}

// Relation is one emitted lookup relation.
type Relation struct {
	Name    string
	Policy  Policy
	Entries []Row
	// Dropped lists rows that lost to another row with the same key.
	Dropped []Row
}

// IsDropped reports whether the row at index lost in this relation.
func (r *Relation) IsDropped(index int) bool {
	for _, row := range r.Dropped {
		if row.Index == index {
			return true
		}
	}
	return false
}

// Tables holds every relation derived from one catalog and hash result.
type Tables struct {
	Params phash.Params
	Rows   []Row

	EventToScancode  Relation
	CodeToName       Relation
	ScancodeToTarget Relation
	TargetToScancode Relation
	Registry         Relation
}

// Build derives the relations. It fails when res has no hash for a row,
// which means res was computed for a different catalog.
func Build(c *catalog.Catalog, res *phash.Result) (*Tables, error) {
	if res == nil {
		return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "no hash result", nil)
	}

	rows := make([]Row, 0, c.Len())
	for i, k := range c.Keys() {
		h, ok := res.Hash(k.EventCode)
		if !ok {
			return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError,
				fmt.Sprintf("no hash for event code %q", k.EventCode), nil).
				WithContext("row", i)
		}
		rows = append(rows, Row{KeyDescriptor: k, Index: i, Hash: h})
	}

	var targeted []Row
	for _, r := range rows {
		if r.HasTarget() {
			targeted = append(targeted, r)
		}
	}

	t := &Tables{Params: res.Params, Rows: rows}
	t.EventToScancode = resolve("event-to-scancode", rows, KeepAll, func(r Row) string { return r.EventCode })
	t.CodeToName = resolve("scancode-to-name", rows, FirstWins, func(r Row) uint32 { return r.Code })
	t.ScancodeToTarget = resolve("scancode-to-target", targeted, KeepAll, func(r Row) string { return r.Scancode })
	t.TargetToScancode = resolve("target-to-scancode", targeted, LastWins, func(r Row) string { return r.Target })
	t.Registry = resolve("registry", rows, FirstWins, func(r Row) string { return r.Scancode })
	return t, nil
}

func resolve[K comparable](name string, rows []Row, policy Policy, key func(Row) K) Relation {
	rel := Relation{Name: name, Policy: policy}
	if policy == KeepAll {
		rel.Entries = append([]Row(nil), rows...)
		return rel
	}

	pos := make(map[K]int, len(rows))
	for _, r := range rows {
		k := key(r)
		i, seen := pos[k]
		switch {
		case !seen:
			pos[k] = len(rel.Entries)
			rel.Entries = append(rel.Entries, r)
		case policy == FirstWins:
			rel.Dropped = append(rel.Dropped, r)
		default:
			rel.Dropped = append(rel.Dropped, rel.Entries[i])
			rel.Entries[i] = r
		}
	}
	return rel
}

// Stats summarises the relations for reports and logs.
type Stats struct {
	Rows         int
	Constants    int
	Suppressed   int
	Names        int
	Targets      int
	Overwritten  int
	SkippedNames int
}

// Stats counts emitted and dropped entries per relation.
func (t *Tables) Stats() Stats {
	return Stats{
		Rows:         len(t.Rows),
		Constants:    len(t.Registry.Entries),
		Suppressed:   len(t.Registry.Dropped),
		Names:        len(t.CodeToName.Entries),
		Targets:      len(t.ScancodeToTarget.Entries),
		Overwritten:  len(t.TargetToScancode.Dropped),
		SkippedNames: len(t.CodeToName.Dropped),
	}
}
