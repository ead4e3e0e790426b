// Package report renders a catalog together with its derived data: the
// perfect hash of every event code and which relations each row survives in.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	kerrors "github.com/conneroisu/keymapgen/internal/errors"
	"github.com/conneroisu/keymapgen/internal/mapping"
	"github.com/conneroisu/keymapgen/internal/phash"
)

// Row is one catalog row with its derived flags.
type Row struct {
	Index     int    `yaml:"index" json:"index"`
	Code      string `yaml:"code" json:"code"`
	EventCode string `yaml:"event" json:"event"`
	Scancode  string `yaml:"scancode" json:"scancode"`
	Target    string `yaml:"target,omitempty" json:"target,omitempty"`
	Hash      string `yaml:"hash" json:"hash"`
	// Canonical marks the row that names its numeric code.
	Canonical bool `yaml:"canonical" json:"canonical"`
	// Suppressed marks a repeated scancode symbol whose constant is commented
	// out.
	Suppressed bool `yaml:"suppressed,omitempty" json:"suppressed,omitempty"`
	// Overwritten marks a row whose target is claimed by a later row in the
	// reverse lookup.
	Overwritten bool `yaml:"overwritten,omitempty" json:"overwritten,omitempty"`
}

// Summary counts the emitted entries.
type Summary struct {
	Rows         int `yaml:"rows" json:"rows"`
	Constants    int `yaml:"constants" json:"constants"`
	Suppressed   int `yaml:"suppressed" json:"suppressed"`
	Names        int `yaml:"names" json:"names"`
	Targets      int `yaml:"targets" json:"targets"`
	Overwritten  int `yaml:"overwritten" json:"overwritten"`
	SkippedNames int `yaml:"skipped_names" json:"skipped_names"`
}

// Report is the catalog view printed by the catalog command.
type Report struct {
	Source   string  `yaml:"source" json:"source"`
	Function string  `yaml:"function" json:"function"`
	K1       string  `yaml:"k1" json:"k1"`
	K2       uint    `yaml:"k2" json:"k2"`
	Trials   int     `yaml:"trials" json:"trials"`
	FromSeed bool    `yaml:"from_seed" json:"from_seed"`
	Summary  Summary `yaml:"summary" json:"summary"`
	Rows     []Row   `yaml:"keys" json:"keys"`
}

// Build assembles a report from derived tables.
func Build(source string, t *mapping.Tables, res *phash.Result) *Report {
	st := t.Stats()
	r := &Report{
		Source:   source,
		Function: t.Params.String(),
		K1:       fmt.Sprintf("0x%08X", t.Params.K1),
		K2:       t.Params.K2,
		Summary: Summary{
			Rows:         st.Rows,
			Constants:    st.Constants,
			Suppressed:   st.Suppressed,
			Names:        st.Names,
			Targets:      st.Targets,
			Overwritten:  st.Overwritten,
			SkippedNames: st.SkippedNames,
		},
		Rows: make([]Row, 0, len(t.Rows)),
	}
	if res != nil {
		r.Trials = res.Trials
		r.FromSeed = res.FromSeed
	}

	for _, row := range t.Rows {
		r.Rows = append(r.Rows, Row{
			Index:       row.Index,
			Code:        fmt.Sprintf("0x%04X", row.Code),
			EventCode:   row.EventCode,
			Scancode:    row.Scancode,
			Target:      row.Target,
			Hash:        fmt.Sprintf("0x%08X", row.Hash),
			Canonical:   !t.CodeToName.IsDropped(row.Index),
			Suppressed:  t.Registry.IsDropped(row.Index),
			Overwritten: t.TargetToScancode.IsDropped(row.Index),
		})
	}
	return r
}

// Format selects a report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

var writers = map[Format]func(*Report, io.Writer) error{
	FormatText: (*Report).WriteText,
	FormatYAML: (*Report).WriteYAML,
	FormatJSON: (*Report).WriteJSON,
	FormatHTML: func(r *Report, w io.Writer) error {
		return r.Page().Render(context.Background(), w)
	},
}

// Formats lists the supported report formats.
func Formats() []string {
	names := make([]string, 0, len(writers))
	for f := range writers {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Write encodes the report in the given format.
func (r *Report) Write(w io.Writer, format string) error {
	write, ok := writers[Format(strings.ToLower(format))]
	if !ok {
		return kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown report format %q (want one of %s)", format, strings.Join(Formats(), ", "))).
			WithContext("format", format)
	}
	return write(r, w)
}

// WriteText prints an aligned table. Flags: C canonical name, S suppressed
// constant, O overwritten reverse lookup.
func (r *Report) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "# %s  %s\n", r.Source, r.Function)
	fmt.Fprintf(w, "# %d rows, %d constants (%d suppressed), %d names, %d targets (%d overwritten)\n",
		r.Summary.Rows, r.Summary.Constants, r.Summary.Suppressed,
		r.Summary.Names, r.Summary.Targets, r.Summary.Overwritten)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCODE\tEVENT\tHASH\tSCANCODE\tTARGET\tFLAGS")
	for _, row := range r.Rows {
		target := row.Target
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Index, row.Code, row.EventCode, row.Hash, row.Scancode, target, row.flags())
	}
	return tw.Flush()
}

func (row Row) flags() string {
	var b strings.Builder
	if row.Canonical {
		b.WriteByte('C')
	}
	if row.Suppressed {
		b.WriteByte('S')
	}
	if row.Overwritten {
		b.WriteByte('O')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

// WriteYAML encodes the report as YAML.
func (r *Report) WriteYAML(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(r); err != nil {
		return err
	}
	return encoder.Close()
}

// WriteJSON encodes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
