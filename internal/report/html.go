package report

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#1f2328}
table{border-collapse:collapse;font-size:.85rem}
th,td{padding:.2rem .6rem;border-bottom:1px solid #d0d7de;text-align:left}
td.mono,code{font-family:ui-monospace,monospace}
tr.suppressed td{color:#8c959f}
tr.overwritten td.target{text-decoration:line-through}
dl{display:grid;grid-template-columns:max-content auto;gap:.2rem 1rem}`

// Page renders the report as a standalone HTML document.
func (r *Report) Page() templ.Component {
	return layout("keymapgen: "+r.Source, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := summary(r).Render(ctx, w); err != nil {
			return err
		}
		return keyTable(r.Rows).Render(ctx, w)
	}))
}

func layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
			templ.EscapeString(title), pageStyle); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<h1>%s</h1>", templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>\n")
		return err
	})
}

func summary(r *Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		items := []struct{ term, value string }{
			{"Hash function", r.Function},
			{"Trials", strconv.Itoa(r.Trials)},
			{"From seed", strconv.FormatBool(r.FromSeed)},
			{"Rows", strconv.Itoa(r.Summary.Rows)},
			{"Constants", fmt.Sprintf("%d (%d suppressed)", r.Summary.Constants, r.Summary.Suppressed)},
			{"Names", fmt.Sprintf("%d (%d skipped)", r.Summary.Names, r.Summary.SkippedNames)},
			{"Targets", fmt.Sprintf("%d (%d overwritten)", r.Summary.Targets, r.Summary.Overwritten)},
		}
		if _, err := io.WriteString(w, "<dl>"); err != nil {
			return err
		}
		for _, it := range items {
			if _, err := fmt.Fprintf(w, "<dt>%s</dt><dd><code>%s</code></dd>",
				templ.EscapeString(it.term), templ.EscapeString(it.value)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</dl>")
		return err
	})
}

func keyTable(rows []Row) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, "<table><thead><tr><th>#</th><th>Code</th><th>Event</th><th>Hash</th><th>Scancode</th><th>Target</th></tr></thead><tbody>"); err != nil {
			return err
		}
		for _, row := range rows {
			if err := keyRow(row).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody></table>")
		return err
	})
}

func keyRow(row Row) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := ""
		switch {
		case row.Suppressed:
			class = ` class="suppressed"`
		case row.Overwritten:
			class = ` class="overwritten"`
		}
		event := templ.EscapeString(row.EventCode)
		if row.Canonical {
			event = "<strong>" + event + "</strong>"
		}
		_, err := fmt.Fprintf(w,
			"<tr%s><td>%d</td><td class=\"mono\">%s</td><td>%s</td><td class=\"mono\">%s</td><td class=\"mono\">%s</td><td class=\"mono target\">%s</td></tr>",
			class, row.Index,
			templ.EscapeString(row.Code), event,
			templ.EscapeString(row.Hash),
			templ.EscapeString(row.Scancode),
			templ.EscapeString(row.Target))
		return err
	})
}
