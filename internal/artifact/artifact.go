// Package artifact holds the structured form of the generated keyboard
// mapping: constant declarations plus four lookup functions.
//
// The model is built from mapping.Tables in a single pass and is the only
// input renderers see. It can also answer the four lookups itself with the
// same semantics as the rendered code, which is how the generated behavior is
// tested without compiling the output.
package artifact

import (
	"fmt"

	"github.com/conneroisu/keymapgen/internal/mapping"
	"github.com/conneroisu/keymapgen/internal/phash"
)

// Kind identifies one of the four lookup functions.
type Kind int

// Functions are always emitted in this order.
const (
	EventToScancode Kind = iota
	ScancodeToName
	ScancodeToTarget
	TargetToScancode
)

func (k Kind) String() string {
	switch k {
	case EventToScancode:
		return "event-to-scancode"
	case ScancodeToName:
		return "scancode-to-name"
	case ScancodeToTarget:
		return "scancode-to-target"
	case TargetToScancode:
		return "target-to-scancode"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Unknown holds the sentinels returned when a lookup has no match.
type Unknown struct {
	Scancode string
	Target   string
}

// DefaultUnknown returns the DOM/GLFW sentinels.
func DefaultUnknown() Unknown {
	return Unknown{Scancode: "DOM_PK_UNKNOWN", Target: "GLFW_KEY_UNKNOWN"}
}

// Constant is one scancode declaration. Suppressed constants repeat an
// already declared symbol and are rendered as comments.
type Constant struct {
	Name       string
	Code       uint32
	EventCode  string
	Suppressed bool
}

// Case is one arm of a lookup switch.
//
//	EventToScancode   Hash -> Result (Match is the event code)
//	ScancodeToName    Code -> Result (Match is the scancode)
//	ScancodeToTarget  Code -> Result (Match is the scancode)
//	TargetToScancode  Match -> Result (Match is the target)
type Case struct {
	Match  string
	Hash   uint32
	Code   uint32
	Result string
}

// Function is one lookup function with its cases in emission order.
type Function struct {
	Kind  Kind
	Cases []Case
}

// Artifact is the complete structured output.
type Artifact struct {
	Params    phash.Params
	Unknown   Unknown
	Constants []Constant
	Functions [4]Function

	symbols map[string]uint32
}

// New builds the artifact model from the derived relations.
func New(t *mapping.Tables, unknown Unknown) *Artifact {
	a := &Artifact{
		Params:  t.Params,
		Unknown: unknown,
		symbols: make(map[string]uint32, len(t.Registry.Entries)),
	}

	a.Constants = make([]Constant, 0, len(t.Rows))
	for _, r := range t.Rows {
		suppressed := t.Registry.IsDropped(r.Index)
		a.Constants = append(a.Constants, Constant{
			Name:       r.Scancode,
			Code:       r.Code,
			EventCode:  r.EventCode,
			Suppressed: suppressed,
		})
		if !suppressed {
			a.symbols[r.Scancode] = r.Code
		}
	}

	a.Functions[EventToScancode] = function(EventToScancode, t.EventToScancode.Entries, func(r mapping.Row) Case {
		return Case{Match: r.EventCode, Hash: r.Hash, Code: r.Code, Result: r.Scancode}
	})
	// Rendered arms are labelled with the scancode symbol, so their value is
	// the symbol's declared code, not the row's.
	a.Functions[ScancodeToName] = function(ScancodeToName, t.CodeToName.Entries, func(r mapping.Row) Case {
		return Case{Match: r.Scancode, Code: a.symbols[r.Scancode], Result: r.EventCode}
	})
	a.Functions[ScancodeToTarget] = function(ScancodeToTarget, t.ScancodeToTarget.Entries, func(r mapping.Row) Case {
		return Case{Match: r.Scancode, Code: a.symbols[r.Scancode], Result: r.Target}
	})
	a.Functions[TargetToScancode] = function(TargetToScancode, t.TargetToScancode.Entries, func(r mapping.Row) Case {
		return Case{Match: r.Target, Code: a.symbols[r.Scancode], Result: r.Scancode}
	})
	return a
}

func function(kind Kind, rows []mapping.Row, toCase func(mapping.Row) Case) Function {
	f := Function{Kind: kind, Cases: make([]Case, len(rows))}
	for i, r := range rows {
		f.Cases[i] = toCase(r)
	}
	return f
}

// Function returns the function of the given kind.
func (a *Artifact) Function(kind Kind) Function {
	return a.Functions[kind]
}

// Code resolves a declared scancode symbol to its numeric value.
func (a *Artifact) Code(symbol string) (uint32, bool) {
	code, ok := a.symbols[symbol]
	return code, ok
}

// DuplicateCaseError reports two arms of one switch with the same value.
// Neither C++ nor Go accepts such a switch.
type DuplicateCaseError struct {
	Kind   Kind
	Value  string
	First  string
	Second string
}

func (e *DuplicateCaseError) Error() string {
	return fmt.Sprintf("%s: %s and %s share case value %s", e.Kind, e.First, e.Second, e.Value)
}

// Validate checks that every switch has distinct case values and that the
// unknown scancode sentinel is one of the declared constants.
func (a *Artifact) Validate() error {
	if _, ok := a.Code(a.Unknown.Scancode); !ok {
		return fmt.Errorf("unknown scancode sentinel %s is not declared", a.Unknown.Scancode)
	}
	for _, f := range a.Functions {
		seen := make(map[string]string, len(f.Cases))
		for _, c := range f.Cases {
			v := caseValue(f.Kind, c)
			if earlier, ok := seen[v]; ok {
				return &DuplicateCaseError{Kind: f.Kind, Value: v, First: earlier, Second: c.Match}
			}
			seen[v] = c.Match
		}
	}
	return nil
}

func caseValue(kind Kind, c Case) string {
	switch kind {
	case EventToScancode:
		return fmt.Sprintf("0x%08X", c.Hash)
	case TargetToScancode:
		return c.Match
	default:
		return fmt.Sprintf("0x%04X", c.Code)
	}
}

// EventCodeToScancode mirrors the generated event lookup: hash the input and
// dispatch on the hash alone. Empty input yields the unknown sentinel.
func (a *Artifact) EventCodeToScancode(eventCode string) string {
	if eventCode == "" {
		return a.Unknown.Scancode
	}
	h := phash.Hash(eventCode, a.Params)
	for _, c := range a.Functions[EventToScancode].Cases {
		if c.Hash == h {
			return c.Result
		}
	}
	return a.Unknown.Scancode
}

// ScancodeToName mirrors the generated name lookup, which dispatches on the
// numeric value of the scancode. It reports false when nothing matches.
func (a *Artifact) ScancodeToName(symbol string) (string, bool) {
	code, ok := a.Code(symbol)
	if !ok {
		return "", false
	}
	for _, c := range a.Functions[ScancodeToName].Cases {
		if c.Code == code {
			return c.Result, true
		}
	}
	return "", false
}

// ScancodeToTarget mirrors the generated forward target lookup.
func (a *Artifact) ScancodeToTarget(symbol string) string {
	code, ok := a.Code(symbol)
	if !ok {
		return a.Unknown.Target
	}
	for _, c := range a.Functions[ScancodeToTarget].Cases {
		if c.Code == code {
			return c.Result
		}
	}
	return a.Unknown.Target
}

// TargetToScancode mirrors the generated reverse target lookup.
func (a *Artifact) TargetToScancode(target string) string {
	for _, c := range a.Functions[TargetToScancode].Cases {
		if c.Match == target {
			return c.Result
		}
	}
	return a.Unknown.Scancode
}

// Lookup is the result of evaluating every function for one event code.
type Lookup struct {
	EventCode string `yaml:"event"`
	Hash      uint32 `yaml:"hash"`
	Scancode  string `yaml:"scancode"`
	Name      string `yaml:"name,omitempty"`
	Target    string `yaml:"target"`
	Reverse   string `yaml:"reverse"`
}

// Lookup chains the four functions starting from an event code.
func (a *Artifact) Lookup(eventCode string) Lookup {
	l := Lookup{EventCode: eventCode, Hash: phash.Hash(eventCode, a.Params)}
	l.Scancode = a.EventCodeToScancode(eventCode)
	l.Name, _ = a.ScancodeToName(l.Scancode)
	l.Target = a.ScancodeToTarget(l.Scancode)
	l.Reverse = a.TargetToScancode(l.Target)
	return l
}
