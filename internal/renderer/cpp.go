package renderer

import (
	"strings"
	"text/template"

	"github.com/conneroisu/keymapgen/internal/artifact"
	"github.com/conneroisu/keymapgen/internal/phash"
)

const cppTemplate = `{{if .Header}}/*
{{- range .Header}}
 *{{if .}} {{.}}{{end}}
{{- end}}
 */

{{end -}}
#ifndef {{.Guard}}
#define {{.Guard}}

#include {{.Include}}

namespace {{.Namespace}} {

using glfw_scancode_t = int; // ex: DOM_PK_A
using glfw_key_t = int; // ex: GLFW_KEY_A
{{- if .InnerNamespace}}

namespace {{.InnerNamespace}} {
{{- end}}

{{range .Constants}}{{if .Suppressed}}// {{end}}constexpr glfw_scancode_t {{pad .Name $.W.Scancode}} = {{hex4 .Code}}; /* "{{pad (cat .EventCode "\"") (add1 $.W.Event)}} */
{{end}}
//------------------------------------------------------------------------
// keyboardEventCodeToScancode: maps the code coming from keyboardEvent.code
// (which is a string!) to a unique scancode number
//------------------------------------------------------------------------
constexpr glfw_scancode_t keyboardEventCodeToScancode(char const *iCode)
{
  if (!iCode) return {{.Unknown.Scancode}};

  /* Compute the collision free hash. */
  unsigned int hash = 0;
  while(*iCode) hash = ((hash ^ {{hex4 .Params.K1}}U) << {{.Params.K2}}) ^ (unsigned int)*iCode++;

  switch(hash)
  {
{{range .Events}}    case {{hex8 .Hash}}U /* {{pad .Match $.W.Event}} */: return {{pad (cat .Result ";") (add1 $.W.Scancode)}} /* {{hex4 .Code}} */
{{end}}    default: return {{.Unknown.Scancode}};
  }
}


//------------------------------------------------------------------------
// scancodeToString: maps glfw_scancode_t to the event code that introduced it
// returns nullptr when no mapping
//------------------------------------------------------------------------
constexpr char const *scancodeToString(glfw_scancode_t iCode)
{
  switch(iCode)
  {
{{range .Names}}    case {{pad (cat .Match ":") (add1 $.W.Scancode)}} return "{{.Result}}";
{{end}}    default: return nullptr;
  }
}


//------------------------------------------------------------------------
// scancodeToKeyCode: maps glfw_scancode_t to the glfw key code
// returns {{.Unknown.Target}} when not match
//------------------------------------------------------------------------
constexpr glfw_key_t scancodeToKeyCode(glfw_scancode_t iCode)
{
  switch(iCode)
  {
{{range .Targets}}    case {{pad (cat .Match ":") (add1 $.W.Scancode)}} return {{.Result}};
{{end}}    default: return {{.Unknown.Target}};
  }
}


//------------------------------------------------------------------------
// keyCodeToScancode: maps glfw key code to glfw_scancode_t
// returns {{.Unknown.Scancode}} when not match
//------------------------------------------------------------------------
constexpr glfw_scancode_t keyCodeToScancode(glfw_key_t iCode)
{
  switch(iCode)
  {
{{range .Reverse}}    case {{pad (cat .Match ":") (add1 $.W.Target)}} return {{.Result}};
{{end}}    default: return {{.Unknown.Scancode}};
  }
}

{{if .InnerNamespace}}
} // namespace {{.InnerNamespace}}
{{- end}}
} // namespace {{.Namespace}}

#endif // {{.Guard}}
`

var cppTmpl = template.Must(template.New("cpp").Funcs(funcs).Parse(cppTemplate))

// CPPRenderer emits a header-only C++ file whose lookups are all constexpr.
type CPPRenderer struct {
	opts Options
}

// NewCPPRenderer creates a C++ renderer.
func NewCPPRenderer(opts Options) *CPPRenderer {
	return &CPPRenderer{opts: opts}
}

func (r *CPPRenderer) Name() string      { return "cpp" }
func (r *CPPRenderer) Extension() string { return ".h" }

type cppData struct {
	CPPOptions
	Header    []string
	Params    phash.Params
	Unknown   artifact.Unknown
	Constants []artifact.Constant
	Events    []artifact.Case
	Names     []artifact.Case
	Targets   []artifact.Case
	Reverse   []artifact.Case
	W         widths
}

// Render implements Renderer.
func (r *CPPRenderer) Render(a *artifact.Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, renderError(r.Name(), err)
	}

	opts := r.opts.CPP
	opts.Include = includeSpec(opts.Include)

	return execute(r.Name(), cppTmpl, cppData{
		CPPOptions: opts,
		Header:     r.opts.headerLines(),
		Params:     a.Params,
		Unknown:    a.Unknown,
		Constants:  a.Constants,
		Events:     a.Function(artifact.EventToScancode).Cases,
		Names:      a.Function(artifact.ScancodeToName).Cases,
		Targets:    a.Function(artifact.ScancodeToTarget).Cases,
		Reverse:    a.Function(artifact.TargetToScancode).Cases,
		W:          measure(a),
	})
}

// includeSpec wraps a bare header path in angle brackets.
func includeSpec(include string) string {
	if strings.HasPrefix(include, "<") || strings.HasPrefix(include, `"`) {
		return include
	}
	return "<" + include + ">"
}
