// Package catalog holds the ordered list of physical-key descriptors the
// generator works from. The default catalog maps DOM KeyboardEvent.code
// strings to DOM_PK_* scancodes and GLFW_KEY_* keys and is embedded in the
// binary; an alternate catalog can be loaded from a YAML file with the same
// shape.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	kerrors "github.com/conneroisu/keymapgen/internal/errors"
)

//go:embed keys.yaml
var defaultKeys []byte

// DefaultSource names the embedded catalog in diagnostics.
const DefaultSource = "embedded:keys.yaml"

// KeyDescriptor is one catalog row.
type KeyDescriptor struct {
	// Code is the vendor numeric key identifier. Several rows may share it.
	Code uint32 `yaml:"code"`
	// EventCode is the platform event-code name; unique across the catalog.
	EventCode string `yaml:"event"`
	// Scancode is the canonical symbol for Code; may repeat across rows.
	Scancode string `yaml:"scancode"`
	// Target is the symbol in the target key-code space, empty when absent.
	Target string `yaml:"target,omitempty"`
}

// HasTarget reports whether the row maps into the target key space.
func (k KeyDescriptor) HasTarget() bool {
	return k.Target != ""
}

// Catalog is an ordered, immutable list of key descriptors.
type Catalog struct {
	keys   []KeyDescriptor
	source string
}

type document struct {
	Keys []KeyDescriptor `yaml:"keys"`
}

// New builds a catalog from rows in the given order.
func New(source string, keys ...KeyDescriptor) *Catalog {
	cp := make([]KeyDescriptor, len(keys))
	copy(cp, keys)
	return &Catalog{keys: cp, source: source}
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultKeys, DefaultSource)
}

// DefaultYAML returns the raw embedded catalog document.
func DefaultYAML() []byte {
	return bytes.Clone(defaultKeys)
}

// Load reads a catalog from a YAML file. An empty path selects the embedded
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.NewCatalogError(kerrors.ErrCodeCatalogLoad,
			fmt.Sprintf("read catalog %s", path)).WithContext("path", path).WithCause(err)
	}
	return Parse(data, path)
}

// Parse decodes a YAML catalog document. Unknown fields are rejected.
func Parse(data []byte, source string) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, kerrors.NewCatalogError(kerrors.ErrCodeCatalogLoad,
			fmt.Sprintf("decode catalog %s", source)).WithContext("path", source).WithCause(err)
	}
	if len(doc.Keys) == 0 {
		return nil, kerrors.NewCatalogError(kerrors.ErrCodeCatalogInvalid,
			fmt.Sprintf("catalog %s has no keys", source)).WithContext("path", source)
	}
	return &Catalog{keys: doc.Keys, source: source}, nil
}

// Source names where the catalog came from.
func (c *Catalog) Source() string {
	return c.source
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.keys)
}

// At returns row i.
func (c *Catalog) At(i int) KeyDescriptor {
	return c.keys[i]
}

// Keys returns a copy of the rows in catalog order.
func (c *Catalog) Keys() []KeyDescriptor {
	cp := make([]KeyDescriptor, len(c.keys))
	copy(cp, c.keys)
	return cp
}

// EventCodes returns the event-code names in catalog order.
func (c *Catalog) EventCodes() []string {
	names := make([]string, len(c.keys))
	for i, k := range c.keys {
		names[i] = k.EventCode
	}
	return names
}

// Marshal encodes the catalog back into its YAML document form.
func (c *Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(document{Keys: c.keys})
}

var (
	symbolPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	eventCodePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Validate checks the catalog invariants before any search is attempted:
// every row has a well-formed event code and scancode symbol, target symbols
// are identifiers, and event codes are pairwise distinct. A duplicate event
// code makes a collision-free hash impossible, so it is reported on its own
// with both row indexes. A scancode symbol names exactly one numeric code;
// rows repeating a symbol must repeat its code.
func (c *Catalog) Validate() error {
	var fields kerrors.ValidationErrorCollection
	for i, k := range c.keys {
		if !eventCodePattern.MatchString(k.EventCode) {
			fields.AddField(fmt.Sprintf("keys[%d].event", i), k.EventCode,
				"event code must be non-empty ASCII letters, digits, '_', '.' or '-'")
		}
		if !symbolPattern.MatchString(k.Scancode) {
			fields.AddField(fmt.Sprintf("keys[%d].scancode", i), k.Scancode,
				"scancode symbol must be an identifier")
		}
		if k.Target != "" && !symbolPattern.MatchString(k.Target) {
			fields.AddField(fmt.Sprintf("keys[%d].target", i), k.Target,
				"target symbol must be an identifier")
		}
	}
	if fields.HasErrors() {
		return kerrors.NewCatalogError(kerrors.ErrCodeCatalogInvalid,
			fmt.Sprintf("catalog %s has malformed rows", c.source)).
			WithContext("path", c.source).
			WithContext("rows", len(fields.Errors)).
			WithCause(&fields)
	}

	seen := make(map[string]int, len(c.keys))
	for i, k := range c.keys {
		if first, dup := seen[k.EventCode]; dup {
			return kerrors.NewCatalogError(kerrors.ErrCodeDuplicateEventCode,
				fmt.Sprintf("event code %q appears at rows %d and %d", k.EventCode, first, i)).
				WithContext("path", c.source).
				WithContext("event", k.EventCode).
				WithContext("first_row", first).
				WithContext("second_row", i)
		}
		seen[k.EventCode] = i
	}

	symbols := make(map[string]int, len(c.keys))
	for i, k := range c.keys {
		first, ok := symbols[k.Scancode]
		if !ok {
			symbols[k.Scancode] = i
			continue
		}
		if prev := c.keys[first]; prev.Code != k.Code {
			return kerrors.NewCatalogError(kerrors.ErrCodeCatalogInvalid,
				fmt.Sprintf("scancode %s is 0x%04X at row %d but 0x%04X at row %d",
					k.Scancode, prev.Code, first, k.Code, i)).
				WithContext("path", c.source).
				WithContext("scancode", k.Scancode).
				WithContext("first_row", first).
				WithContext("second_row", i)
		}
	}
	return nil
}

// Warning is a non-fatal catalog observation.
type Warning struct {
	Row     int
	Message string
}

// Lint reports rows that are legal but produce surprising output: two rows
// with a target symbol sharing one numeric code (the scancode-to-target
// dispatch then has two labels with the same value), and a target symbol
// claimed by more than one row (the reverse lookup keeps the last row).
func (c *Catalog) Lint() []Warning {
	var warnings []Warning
	codeOwner := make(map[uint32]int)
	targetOwner := make(map[string]int)
	for i, k := range c.keys {
		if !k.HasTarget() {
			continue
		}
		if prev, ok := codeOwner[k.Code]; ok {
			warnings = append(warnings, Warning{Row: i, Message: fmt.Sprintf(
				"%s shares code 0x%04X with %s; both map to a target key",
				k.EventCode, k.Code, c.keys[prev].EventCode)})
		} else {
			codeOwner[k.Code] = i
		}
		if prev, ok := targetOwner[k.Target]; ok {
			warnings = append(warnings, Warning{Row: i, Message: fmt.Sprintf(
				"%s reuses target %s from %s; the reverse lookup keeps %s",
				k.EventCode, k.Target, c.keys[prev].EventCode, k.Scancode)})
		}
		targetOwner[k.Target] = i
	}
	return warnings
}
