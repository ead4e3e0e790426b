package renderer

import (
	"fmt"
	"go/format"
	"go/token"
	"path"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/keymapgen/internal/artifact"
	"github.com/conneroisu/keymapgen/internal/phash"
)

const goTemplate = `{{range .Header}}//{{if .}} {{.}}{{end}}
{{end}}{{if .Header}}
{{end}}// Code generated by keymapgen. DO NOT EDIT.

package {{.Package}}

import {{printf "%q" .TargetImport}}

// Scancode identifies a physical key by its vendor code.
type Scancode uint32

const (
{{range .Constants}}	{{if .Suppressed}}// {{end}}{{.Ident}} Scancode = {{hex4 .Code}} // {{printf "%q" .EventCode}}
{{end}})

// EventCodeToScancode maps a KeyboardEvent.code value to its scancode. The
// input is dispatched on its perfect hash; anything else yields {{.UnknownScancode}}.
func EventCodeToScancode(code string) Scancode {
	if code == "" {
		return {{.UnknownScancode}}
	}

	var hash uint32
	for i := 0; i < len(code); i++ {
		hash = ((hash ^ {{hex8 .Params.K1}}) << {{.Params.K2}}) ^ uint32(code[i])
	}

	switch hash {
{{range .Events}}	case {{hex8 .Hash}}: // {{.Comment}}
		return {{.Result}}
{{end}}	default:
		return {{.UnknownScancode}}
	}
}

// ScancodeToName returns the event code that introduced sc, or "" when sc
// has no name.
func ScancodeToName(sc Scancode) string {
	switch sc {
{{range .Names}}	case {{.Match}}:
		return {{.Result}}
{{end}}	default:
		return ""
	}
}

// ScancodeToKey maps sc to its {{.TargetPkg}} key.
func ScancodeToKey(sc Scancode) {{.TargetPkg}}.Key {
	switch sc {
{{range .Targets}}	case {{.Match}}:
		return {{.Result}}
{{end}}	default:
		return {{.UnknownTarget}}
	}
}

// KeyToScancode maps a {{.TargetPkg}} key back to its scancode.
func KeyToScancode(key {{.TargetPkg}}.Key) Scancode {
	switch key {
{{range .Reverse}}	case {{.Match}}:
		return {{.Result}}
{{end}}	default:
		return {{.UnknownScancode}}
	}
}
`

var goTmpl = template.Must(template.New("go").Funcs(funcs).Parse(goTemplate))

// GoRenderer emits a Go package with the scancode constants and lookups.
type GoRenderer struct {
	opts Options
}

// NewGoRenderer creates a Go renderer.
func NewGoRenderer(opts Options) *GoRenderer {
	return &GoRenderer{opts: opts}
}

func (r *GoRenderer) Name() string      { return "go" }
func (r *GoRenderer) Extension() string { return ".go" }

type goConstant struct {
	artifact.Constant
	Ident string
}

type goCase struct {
	Hash    uint32
	Match   string
	Result  string
	Comment string
}

type goData struct {
	GoOptions
	Header          []string
	Params          phash.Params
	TargetPkg       string
	UnknownScancode string
	UnknownTarget   string
	Constants       []goConstant
	Events          []goCase
	Names           []goCase
	Targets         []goCase
	Reverse         []goCase
}

// Render implements Renderer.
func (r *GoRenderer) Render(a *artifact.Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, renderError(r.Name(), err)
	}

	opts := r.opts.Go
	if !token.IsIdentifier(opts.Package) {
		return nil, renderError(r.Name(), fmt.Errorf("invalid package name %q", opts.Package))
	}

	n := newNamer(opts)
	data := goData{
		GoOptions: opts,
		Header:    r.opts.headerLines(),
		Params:    a.Params,
		TargetPkg: n.targetPkg,
	}

	for _, c := range a.Constants {
		ident, err := n.scancode(c.Name)
		if err != nil {
			return nil, renderError(r.Name(), err)
		}
		data.Constants = append(data.Constants, goConstant{Constant: c, Ident: ident})
	}

	var err error
	if data.UnknownScancode, err = n.scancode(a.Unknown.Scancode); err != nil {
		return nil, renderError(r.Name(), err)
	}
	if data.UnknownTarget, err = n.target(a.Unknown.Target); err != nil {
		return nil, renderError(r.Name(), err)
	}

	for _, c := range a.Function(artifact.EventToScancode).Cases {
		data.Events = append(data.Events, goCase{Hash: c.Hash, Result: n.known(c.Result), Comment: c.Match})
	}
	for _, c := range a.Function(artifact.ScancodeToName).Cases {
		data.Names = append(data.Names, goCase{Match: n.known(c.Match), Result: fmt.Sprintf("%q", c.Result)})
	}
	for _, c := range a.Function(artifact.ScancodeToTarget).Cases {
		target, err := n.target(c.Result)
		if err != nil {
			return nil, renderError(r.Name(), err)
		}
		data.Targets = append(data.Targets, goCase{Match: n.known(c.Match), Result: target})
	}
	for _, c := range a.Function(artifact.TargetToScancode).Cases {
		target, err := n.target(c.Match)
		if err != nil {
			return nil, renderError(r.Name(), err)
		}
		data.Reverse = append(data.Reverse, goCase{Match: target, Result: n.known(c.Result)})
	}

	src, err := execute(r.Name(), goTmpl, data)
	if err != nil {
		return nil, err
	}
	formatted, err := format.Source(src)
	if err != nil {
		return nil, renderError(r.Name(), fmt.Errorf("formatting generated source: %w", err))
	}
	return formatted, nil
}

// namer converts catalog symbols to Go identifiers and rejects two symbols
// that would collapse onto one identifier.
type namer struct {
	opts      GoOptions
	targetPkg string
	title     cases.Caser
	acronyms  map[string]bool
	idents    map[string]string
	symbols   map[string]string
}

func newNamer(opts GoOptions) *namer {
	n := &namer{
		opts:      opts,
		targetPkg: path.Base(opts.TargetImport),
		title:     cases.Title(language.Und),
		acronyms:  make(map[string]bool, len(opts.Acronyms)),
		idents:    make(map[string]string),
		symbols:   make(map[string]string),
	}
	for _, a := range opts.Acronyms {
		n.acronyms[strings.ToUpper(a)] = true
	}
	return n
}

func (n *namer) camel(symbol, prefix string) string {
	var b strings.Builder
	for _, part := range strings.Split(strings.TrimPrefix(symbol, prefix), "_") {
		if part == "" {
			continue
		}
		if n.acronyms[strings.ToUpper(part)] {
			b.WriteString(strings.ToUpper(part))
			continue
		}
		b.WriteString(n.title.String(strings.ToLower(part)))
	}
	return b.String()
}

func (n *namer) scancode(symbol string) (string, error) {
	return n.claim(symbol, "Scancode"+n.camel(symbol, n.opts.ScancodePrefix))
}

func (n *namer) target(symbol string) (string, error) {
	return n.claim(symbol, n.targetPkg+".Key"+n.camel(symbol, n.opts.TargetPrefix))
}

func (n *namer) claim(symbol, ident string) (string, error) {
	if owner, ok := n.idents[ident]; ok && owner != symbol {
		return "", fmt.Errorf("symbols %s and %s both map to Go identifier %s", owner, symbol, ident)
	}
	n.idents[ident] = symbol
	n.symbols[symbol] = ident
	return ident, nil
}

// known returns the identifier of a scancode that was already declared.
func (n *namer) known(symbol string) string {
	return n.symbols[symbol]
}
