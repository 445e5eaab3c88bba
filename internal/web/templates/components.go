// Package templates renders the dashboard HTML as templ components.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"

	"github.com/a-h/templ"
)

// html accumulates the first write error so components can write
// sequentially and check once.
type html struct {
	w   io.Writer
	err error
}

func (h *html) raw(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func (h *html) text(s string) {
	h.raw(templ.EscapeString(s))
}

// rawf writes a formatted fragment. String arguments must already be escaped.
func (h *html) rawf(format string, args ...any) {
	h.raw(fmt.Sprintf(format, args...))
}

func (h *html) attr(name, value string) {
	h.rawf(` %s="%s"`, name, templ.EscapeString(value))
}

func (h *html) render(ctx context.Context, c templ.Component) {
	if h.err == nil {
		h.err = c.Render(ctx, h.w)
	}
}

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw("</title><style>")
		h.raw(stylesheet)
		h.raw("</style></head><body><main>")
		h.render(ctx, body)
		h.raw("</main></body></html>")
		return h.err
	})
}

// ErrorAlert renders a user-facing error box.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw(`<div class="alert" role="alert"><strong>`)
		h.text(message)
		h.raw("</strong>")
		if action != "" {
			h.raw("<p>")
			h.text(action)
			h.raw("</p>")
		}
		if code != "" {
			h.raw(`<p class="muted">Error code: `)
			h.text(code)
			h.raw("</p>")
		}
		h.raw("</div>")
		return h.err
	})
}

// ErrorPage is the full page shown when the dashboard cannot be built.
func ErrorPage(status int, message, action, code string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		h.raw("<h1>Egyptian Cable Exports</h1>")
		h.render(ctx, ErrorAlert(message, action, code))
		h.rawf(`<p class="muted">HTTP %d</p>`, status)
		return h.err
	})
	return Layout("Error - Egyptian Cable Exports", body)
}

// hiddenInputs re-emits q as hidden form fields, skipping the named keys.
func (h *html) hiddenInputs(q url.Values, skip ...string) {
	skipped := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		if !skipped[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range q[k] {
			h.raw(`<input type="hidden"`)
			h.attr("name", k)
			h.attr("value", v)
			h.raw(">")
		}
	}
}

const stylesheet = `
body{font-family:system-ui,sans-serif;margin:0;background:#f6f8fa;color:#1f2933}
main{max-width:1280px;margin:0 auto;padding:24px}
h1{margin:0 0 4px}h2{margin-top:32px;border-bottom:2px solid #2E86AB;padding-bottom:4px}
.muted{color:#6b7280;font-size:.85rem}
.kpis{display:grid;grid-template-columns:repeat(5,1fr);gap:12px;margin:16px 0}
.kpi{background:#fff;border-radius:8px;padding:12px;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.kpi .label{font-size:.8rem;color:#6b7280}.kpi .value{font-size:1.4rem;font-weight:600}
.delta.up{color:#1B998B}.delta.down{color:#C73E1D}
.filters{display:flex;flex-wrap:wrap;gap:16px;background:#fff;padding:12px;border-radius:8px}
.filters select{min-width:180px;min-height:120px}
.grid2{display:grid;grid-template-columns:1fr 1fr;gap:16px}
.grid2 img{width:100%;background:#fff;border-radius:8px}
table{border-collapse:collapse;width:100%;background:#fff;font-size:.9rem}
th,td{padding:6px 8px;border-bottom:1px solid #e5e7eb;text-align:left}
td.num{text-align:right;font-variant-numeric:tabular-nums}
.bar{background:#e5e7eb;border-radius:4px;height:8px}.bar span{display:block;height:8px;border-radius:4px;background:#2E86AB}
.alert{background:#fdecea;border-left:4px solid #C73E1D;padding:12px;border-radius:4px}
.info{background:#e8f4fa;border-left:4px solid #2E86AB;padding:12px;border-radius:4px}
`
