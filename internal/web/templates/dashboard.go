package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/cable-exports/internal/core"
	"github.com/JonMunkholm/cable-exports/internal/metrics"
	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/report"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// DashboardData is everything the dashboard page renders.
type DashboardData struct {
	View *core.View

	// Query is the selection as query parameters, propagated to chart and
	// export links.
	Query url.Values

	RegionPick  string
	Region      *metrics.RegionDetail
	CountryPick string
	Country     *metrics.CountryDetail

	RawLimit int
}

// Dashboard renders the full dashboard page.
func Dashboard(d DashboardData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &html{w: w}
		v := d.View
		cur := v.Selection.Currency

		h.raw("<h1>Egyptian Cable Exports 2024 - 2025</h1>")
		h.raw(`<p class="muted">Source: `)
		h.text(v.Dataset.Source)
		h.rawf(" &middot; %d records &middot; loaded %s</p>",
			v.Dataset.Records, templ.EscapeString(v.Dataset.LoadedAt.Format("2006-01-02 15:04:05")))

		h.filters(d)
		h.kpis(v.Summary, cur)

		if v.Filtered.Empty() {
			h.raw(`<div class="info">No data matches the current filters.</div>`)
			return h.err
		}

		h.overview(d)
		h.regionSection(d)
		h.countrySection(d)
		h.compareSection(d)
		h.dataSection(d)
		return h.err
	})
	return Layout("Egyptian Cable Exports Dashboard", body)
}

func (h *html) filters(d DashboardData) {
	v := d.View
	sel := v.Selection

	h.raw(`<form class="filters" method="get" action="/">`)

	h.raw(`<label>Regions<br><input type="hidden" name="region" value=""><select name="region" multiple>`)
	for _, r := range v.Options.Regions {
		h.option(r, r, sel.Regions.Has(r))
	}
	h.raw("</select></label>")

	h.raw(`<label>Countries<br><input type="hidden" name="country" value=""><select name="country" multiple>`)
	for _, c := range v.Options.Countries {
		h.option(c, c, sel.Countries.Has(c))
	}
	h.raw("</select></label>")

	h.raw("<fieldset><legend>Currency</legend>")
	for _, c := range []model.Currency{model.USD, model.EGP} {
		h.raw(`<label><input type="radio" name="currency"`)
		h.attr("value", c.String())
		if c == sel.Currency {
			h.raw(" checked")
		}
		h.rawf("> %s (Millions)</label><br>", templ.EscapeString(c.Label()))
	}
	h.raw("</fieldset>")

	h.rawf(`<label>Top N countries in charts<br><input type="number" name="top" min="%d" max="%d" value="%d"></label>`,
		v.Options.TopNMin, v.Options.TopNMax, sel.TopN)

	h.raw(`<div><button type="submit">Apply</button> <a href="/">Reset</a></div></form>`)
}

func (h *html) option(value, label string, selected bool) {
	h.raw("<option")
	h.attr("value", value)
	if selected {
		h.raw(" selected")
	}
	h.raw(">")
	h.text(label)
	h.raw("</option>")
}

func (h *html) kpis(s metrics.Summary, cur model.Currency) {
	h.raw(`<section class="kpis">`)
	h.kpi("Total Exports", report.Money(cur, s.Total), "")
	h.kpi("2024 Exports", report.Money(cur, s.Y2024), "")
	h.kpi("2025 Exports", report.Money(cur, s.Y2025), report.Percent(s.YoYChange)+" YoY")
	h.kpi("Markets", fmt.Sprintf("%d countries", s.Countries), fmt.Sprintf("%d regions", s.Regions))
	h.kpi("Top Market", s.TopMarket, report.Money(cur, s.TopMarketValue))
	h.raw("</section>")
}

func (h *html) kpi(label, value, delta string) {
	h.raw(`<div class="kpi"><div class="label">`)
	h.text(label)
	h.raw(`</div><div class="value">`)
	h.text(value)
	h.raw("</div>")
	if delta != "" {
		class := "delta"
		if len(delta) > 0 && delta[0] == '-' {
			class += " down"
		} else if len(delta) > 0 && delta[0] == '+' {
			class += " up"
		}
		h.raw("<div")
		h.attr("class", class)
		h.raw(">")
		h.text(delta)
		h.raw("</div>")
	}
	h.raw("</div>")
}

func (h *html) chart(name string, q url.Values, alt string) {
	h.raw("<img")
	h.attr("src", "/charts/"+name+".svg?"+q.Encode())
	h.attr("alt", alt)
	h.raw(">")
}

func (h *html) overview(d DashboardData) {
	v := d.View
	cur := v.Selection.Currency

	h.raw(`<h2 id="overview">Overview</h2><div class="grid2">`)
	h.chart("regions", d.Query, "Export share by region")
	h.chart("region-years", d.Query, "Regional exports 2024 vs 2025")
	h.raw("</div>")

	h.raw("<table><thead><tr><th>Region</th>")
	h.rawf(`<th class="num">2024 (%[1]s)</th><th class="num">2025 (%[1]s)</th><th class="num">Total (%[1]s)</th>`,
		templ.EscapeString(cur.Label()))
	h.raw(`<th class="num">Countries</th></tr></thead><tbody>`)
	for _, r := range v.Filtered.Regions {
		v24, v25, total := r.Values(cur)
		h.raw("<tr><td>")
		h.text(r.Region)
		h.rawf(`</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td><td class="num">%d</td></tr>`,
			report.Number(v24), report.Number(v25), report.Number(total), r.Countries)
	}
	h.raw("</tbody></table>")

	h.chart("top-countries", d.Query, "Top markets by value")
}

func (h *html) regionSection(d DashboardData) {
	cur := d.View.Selection.Currency

	h.raw(`<h2 id="regions">By Region</h2><form method="get" action="/#regions">`)
	h.hiddenInputs(d.Query, "pick_region")
	h.raw(`<label>Select a region to explore <select name="pick_region" onchange="this.form.submit()">`)
	for _, r := range d.View.Filtered.Regions {
		h.option(r.Region, r.Region, r.Region == d.RegionPick)
	}
	h.raw(`</select></label> <button type="submit">Show</button></form>`)

	if d.Region == nil {
		h.raw(`<div class="info">No data for the selected region.</div>`)
		return
	}
	r := d.Region

	h.raw(`<section class="kpis">`)
	h.kpi(r.Region+" Total", report.Money(cur, r.Total), "")
	h.kpi("2024", report.Money(cur, r.Y2024), "")
	h.kpi("2025", report.Money(cur, r.Y2025), report.Percent(r.YoYChange))
	h.kpi("Countries", fmt.Sprintf("%d", r.Countries), "")
	h.raw("</section>")

	h.raw(`<table><thead><tr><th>Country</th>`)
	h.rawf(`<th class="num">Total (%s)</th><th class="num">Share</th><th class="num">YoY</th></tr></thead><tbody>`,
		templ.EscapeString(cur.Label()))
	for i, c := range r.Rows {
		share := r.Shares[i]
		h.raw("<tr><td>")
		h.text(c.Country)
		h.rawf(`</td><td class="num">%s</td><td class="num">%.1f%%</td><td class="num">%s</td></tr>`,
			report.Number(share.Value), share.Percent, templ.EscapeString(report.Percent(c.Growth(cur))))
	}
	h.raw("</tbody></table>")
}

func (h *html) countrySection(d DashboardData) {
	cur := d.View.Selection.Currency

	h.raw(`<h2 id="countries">By Country</h2><form method="get" action="/#countries">`)
	h.hiddenInputs(d.Query, "pick_country")
	h.raw(`<label>Select a country <select name="pick_country" onchange="this.form.submit()">`)
	for _, c := range sortedCountries(d.View.Filtered.Countries) {
		h.option(c, c, c == d.CountryPick)
	}
	h.raw(`</select></label> <button type="submit">Show</button></form>`)

	if d.Country == nil {
		h.raw(`<div class="info">No data for the selected country.</div>`)
		return
	}
	c := d.Country

	rank := "N/A"
	if c.Ranked {
		rank = fmt.Sprintf("#%d", c.Rank)
	}

	h.raw(`<section class="kpis">`)
	h.kpi("Region", c.Region, "")
	h.kpi("Total Exports", report.Money(cur, c.Total), "")
	h.kpi("2024", report.Money(cur, c.Y2024), "")
	h.kpi("2025", report.Money(cur, c.Y2025), report.Percent(c.YoYChange))
	h.kpi("Global Rank", rank, "")
	h.raw("</section>")

	h.raw("<h3>2024 to 2025</h3><table><tbody>")
	h.rawf(`<tr><td>2024</td><td class="num">%s</td></tr>`, templ.EscapeString(report.Money(cur, c.Waterfall.Start)))
	h.rawf(`<tr><td>Change</td><td class="num">%s</td></tr>`, templ.EscapeString(report.Money(cur, c.Waterfall.Change)))
	h.rawf(`<tr><td>2025</td><td class="num">%s</td></tr>`, templ.EscapeString(report.Money(cur, c.Waterfall.End)))
	h.raw("</tbody></table>")

	h.raw(`<h3>Products</h3><table><thead><tr><th>HS Code</th><th>Unit</th>`)
	h.rawf(`<th class="num">2024 (%[1]s)</th><th class="num">2025 (%[1]s)</th><th class="num">Total (%[1]s)</th></tr></thead><tbody>`,
		templ.EscapeString(cur.Label()))
	for _, p := range c.Products {
		h.raw("<tr><td>")
		h.text(p.HSCode)
		h.raw("</td><td>")
		h.text(p.Unit)
		h.rawf(`</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td></tr>`,
			report.Number(p.Y2024), report.Number(p.Y2025), report.Number(p.Total))
	}
	h.raw("</tbody></table>")
}

func (h *html) compareSection(d DashboardData) {
	v := d.View
	cur := v.Selection.Currency

	h.raw(`<h2 id="compare">Year-over-Year Growth</h2><div class="grid2">`)
	h.chart("scatter", d.Query, "2024 vs 2025 exports by country")
	h.chart("growth", d.Query, "Top countries by YoY growth")
	h.raw("</div><h3>Market Dynamics</h3><div class=\"grid2\">")

	h.markets("New Markets in 2025 (no 2024 exports)", "No new markets found with current filters.",
		v.NewMarkets, cur, func(c rollup.CountryRollup) float64 { return c.Y2025.Value(cur) })
	h.markets("Markets with no 2025 exports", "No lost markets found with current filters.",
		v.LostMarkets, cur, func(c rollup.CountryRollup) float64 { return c.Y2024.Value(cur) })
	h.raw("</div>")
}

func (h *html) markets(title, empty string, rows []rollup.CountryRollup, cur model.Currency, value func(rollup.CountryRollup) float64) {
	h.raw("<div><h4>")
	h.text(title)
	h.raw("</h4>")
	if len(rows) == 0 {
		h.raw(`<div class="info">`)
		h.text(empty)
		h.raw("</div></div>")
		return
	}

	h.raw("<table><tbody>")
	for _, c := range rows {
		h.raw("<tr><td>")
		h.text(c.Country)
		h.raw("</td><td>")
		h.text(c.Region)
		h.rawf(`</td><td class="num">%s</td></tr>`, templ.EscapeString(report.Money(cur, value(c))))
	}
	h.raw("</tbody></table></div>")
}

func (h *html) dataSection(d DashboardData) {
	v := d.View
	t := v.Table
	maxTotal := t.MaxTotal()

	h.raw(`<h2 id="data">Detailed Country Data</h2><table><thead><tr>`)
	for _, col := range report.Headers(t.Currency) {
		h.raw("<th>")
		h.text(col)
		h.raw("</th>")
	}
	h.raw("</tr></thead><tbody>")
	for _, r := range t.Rows {
		pct := 0.0
		if maxTotal > 0 {
			pct = r.Total / maxTotal * 100
		}
		h.rawf(`<tr><td class="num">%d</td><td>`, r.Rank)
		h.text(r.Region)
		h.raw("</td><td>")
		h.text(r.Country)
		h.rawf(`</td><td class="num">%s</td><td class="num">%s</td>`, report.Number(r.V2024), report.Number(r.V2025))
		h.rawf(`<td class="num">%s<div class="bar"><span style="width:%.1f%%"></span></div></td>`, report.Number(r.Total), pct)
		h.rawf(`<td class="num">%s</td></tr>`, templ.EscapeString(report.Percent(r.Growth)))
	}
	h.raw("</tbody></table>")

	h.raw("<p><a")
	h.attr("href", "/api/export.csv?"+d.Query.Encode())
	h.attr("download", report.ExportFileName)
	h.raw(">Download filtered data as CSV</a> &middot; <a")
	h.attr("href", "/api/export/raw.csv?"+d.Query.Encode())
	h.raw(">Download raw records</a></p>")

	h.raw(`<h3>Raw Transaction Data</h3>`)
	records := v.Records
	if d.RawLimit > 0 && len(records) > d.RawLimit {
		h.rawf(`<p class="muted">Showing the first %d of %d records.</p>`, d.RawLimit, len(records))
		records = records[:d.RawLimit]
	}
	h.raw("<table><thead><tr>")
	for _, col := range report.RecordHeaders {
		h.raw("<th>")
		h.text(col)
		h.raw("</th>")
	}
	h.raw("</tr></thead><tbody>")
	for _, r := range records {
		h.raw("<tr>")
		for _, cell := range []string{r.HSCode, r.Description, r.Country, r.Region, r.Unit} {
			h.raw("<td>")
			h.text(cell)
			h.raw("</td>")
		}
		for _, m := range []model.YearMetrics{r.Y2024, r.Y2025, r.Total} {
			h.rawf(`<td class="num">%s</td><td class="num">%s</td><td class="num">%s</td>`,
				report.Number(m.Qty), report.Number(m.EGP), report.Number(m.USD))
		}
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")
}

func sortedCountries(rows []rollup.CountryRollup) []string {
	set := make(rollup.Set, len(rows))
	for _, c := range rows {
		set[c.Country] = struct{}{}
	}
	return set.Values()
}
