// Package renderer serializes an artifact model into source code.
//
// Each output language is a Renderer registered under a format name. The
// renderers are pure: the same artifact and options always produce the same
// bytes, so the output can be diffed in version control.
package renderer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/conneroisu/keymapgen/internal/artifact"
	kerrors "github.com/conneroisu/keymapgen/internal/errors"
)

// Renderer turns an artifact into source text.
type Renderer interface {
	// Name is the format name the renderer is registered under.
	Name() string
	// Extension is the conventional file extension, including the dot.
	Extension() string
	Render(a *artifact.Artifact) ([]byte, error)
}

// License identifiers accepted in Options.License.
const (
	LicenseApache2 = "apache-2.0"
	LicenseNone    = "none"
)

// Options configures every renderer. Each renderer reads only its section.
type Options struct {
	// Copyright is the first header line, e.g. "Copyright (c) 2023 pongasoft".
	Copyright string
	// License selects the license text following the copyright line.
	License string

	CPP CPPOptions
	Go  GoOptions
}

// CPPOptions configures the C++ header renderer.
type CPPOptions struct {
	Include        string
	Namespace      string
	InnerNamespace string
	Guard          string
}

// GoOptions configures the Go renderer.
type GoOptions struct {
	Package      string
	TargetImport string
	// ScancodePrefix and TargetPrefix are stripped from symbols before they
	// are converted to Go identifiers.
	ScancodePrefix string
	TargetPrefix   string
	// Acronyms stay upper case in identifiers, e.g. KP in KeyKPEnter.
	Acronyms []string
}

// DefaultOptions returns the options producing the DOM/GLFW mapping.
func DefaultOptions() Options {
	return Options{
		License: LicenseApache2,
		CPP: CPPOptions{
			Include:        "<GLFW/glfw3.h>",
			Namespace:      "emscripten::glfw3",
			InnerNamespace: "keyboard",
			Guard:          "EMSCRIPTEN_GLFW_KEYBOARD_MAPPING_H",
		},
		Go: GoOptions{
			Package:        "keyboard",
			TargetImport:   "github.com/go-gl/glfw/v3.3/glfw",
			ScancodePrefix: "DOM_PK_",
			TargetPrefix:   "GLFW_KEY_",
			Acronyms:       []string{"KP"},
		},
	}
}

// Factory builds a renderer from options.
type Factory func(opts Options) Renderer

var factories = map[string]Factory{
	"cpp": func(opts Options) Renderer { return NewCPPRenderer(opts) },
	"go":  func(opts Options) Renderer { return NewGoRenderer(opts) },
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the renderer registered under format.
func New(format string, opts Options) (Renderer, error) {
	factory, ok := factories[format]
	if !ok {
		return nil, kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown output format %q (want one of %s)", format, strings.Join(Formats(), ", ")))
	}
	return factory(opts), nil
}

var apacheLicense = []string{
	`Licensed under the Apache License, Version 2.0 (the "License"); you may not`,
	`use this file except in compliance with the License. You may obtain a copy of`,
	`the License at`,
	``,
	`http://www.apache.org/licenses/LICENSE-2.0`,
	``,
	`Unless required by applicable law or agreed to in writing, software`,
	`distributed under the License is distributed on an "AS IS" BASIS, WITHOUT`,
	`WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the`,
	`License for the specific language governing permissions and limitations under`,
	`the License.`,
}

// headerLines returns the license header without comment markers.
func (o Options) headerLines() []string {
	var lines []string
	if o.Copyright != "" {
		lines = append(lines, o.Copyright)
	}
	if o.License == LicenseApache2 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, apacheLicense...)
	}
	return lines
}

// execute runs tmpl and wraps failures as render errors.
func execute(name string, tmpl *template.Template, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, renderError(name, err)
	}
	return buf.Bytes(), nil
}

func renderError(name string, err error) error {
	return kerrors.NewEmissionError(kerrors.ErrCodeRenderFailed,
		fmt.Sprintf("rendering %s output", name), err).WithContext("format", name)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func hex4(v uint32) string {
	return fmt.Sprintf("0x%04X", v)
}

func hex8(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}

var funcs = template.FuncMap{
	"pad":  pad,
	"hex4": hex4,
	"hex8": hex8,
	"cat":  func(a, b string) string { return a + b },
	"add1": func(n int) int { return n + 1 },
}

// widths are the column widths of the padded tables.
type widths struct {
	Scancode int
	Event    int
	Target   int
}

func measure(a *artifact.Artifact) widths {
	var w widths
	for _, c := range a.Constants {
		w.Scancode = max(w.Scancode, len(c.Name))
		w.Event = max(w.Event, len(c.EventCode))
	}
	for _, c := range a.Function(artifact.TargetToScancode).Cases {
		w.Target = max(w.Target, len(c.Match))
	}
	return w
}
