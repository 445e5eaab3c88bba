package metrics

import (
	"sort"

	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// Summary is the KPI strip of the dashboard.
type Summary struct {
	Currency       model.Currency `json:"-"`
	Total          float64        `json:"total"`
	Y2024          float64        `json:"y2024"`
	Y2025          float64        `json:"y2025"`
	YoYChange      float64        `json:"yoy_change_pct"`
	Countries      int            `json:"countries"`
	Regions        int            `json:"regions"`
	TopMarket      string         `json:"top_market"`
	TopMarketValue float64        `json:"top_market_value"`
}

// NoMarket is the top-market label of an empty view.
const NoMarket = "N/A"

// Summarize computes the KPI figures of a filtered view.
func Summarize(view rollup.FilteredView) Summary {
	s := Summary{Currency: view.Currency, TopMarket: NoMarket}
	s.Y2024, s.Y2025, s.Total = view.Totals()
	s.YoYChange = Change(s.Y2024, s.Y2025, 0)

	countries := make(map[string]bool)
	regions := make(map[string]bool)
	for _, c := range view.Countries {
		countries[c.Country] = true
		regions[c.Region] = true
	}
	s.Countries = len(countries)
	s.Regions = len(regions)

	if top := TopByValue(view.Countries, view.Currency, 1); len(top) == 1 {
		s.TopMarket = top[0].Country
		s.TopMarketValue = top[0].Total.Value(view.Currency)
	}
	return s
}

// Share is one slice of a region's total.
type Share struct {
	Country string  `json:"country"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}

// RegionDetail is the drill-down for one region of a filtered view.
type RegionDetail struct {
	Region    string                 `json:"region"`
	Total     float64                `json:"total"`
	Y2024     float64                `json:"y2024"`
	Y2025     float64                `json:"y2025"`
	YoYChange float64                `json:"yoy_change_pct"`
	Countries int                    `json:"countries"`
	Rows      []rollup.CountryRollup `json:"rows"`
	Top       []rollup.CountryRollup `json:"top"`
	Shares    []Share                `json:"shares"`
}

// DescribeRegion builds the drill-down of region within view. ok is false
// when the view has no rows for region.
func DescribeRegion(view rollup.FilteredView, region string, topN int) (RegionDetail, bool) {
	rows := Ranked(view.Region(region), view.Currency)
	if len(rows) == 0 {
		return RegionDetail{Region: region}, false
	}

	d := RegionDetail{Region: region, Rows: rows, Countries: len(rows)}
	for _, c := range rows {
		a, b, t := c.Values(view.Currency)
		d.Y2024 += a
		d.Y2025 += b
		d.Total += t
	}
	d.YoYChange = Change(d.Y2024, d.Y2025, 0)
	d.Top = limit(rows, topN)

	d.Shares = make([]Share, 0, len(rows))
	for _, c := range rows {
		v := c.Total.Value(view.Currency)
		pct := 0.0
		if d.Total > 0 {
			pct = v / d.Total * 100
		}
		d.Shares = append(d.Shares, Share{Country: c.Country, Value: v, Percent: pct})
	}
	return d, true
}

// ProductLine is one (HS code, unit) group of a country's records.
type ProductLine struct {
	HSCode string  `json:"hs_code"`
	Unit   string  `json:"unit"`
	Y2024  float64 `json:"y2024"`
	Y2025  float64 `json:"y2025"`
	Total  float64 `json:"total"`
}

// Waterfall is the 2024 → 2025 bridge of a country's value.
type Waterfall struct {
	Start  float64 `json:"start"`
	Change float64 `json:"change"`
	End    float64 `json:"end"`
}

// CountryDetail is the drill-down for one country across all its records.
type CountryDetail struct {
	Country   string        `json:"country"`
	Region    string        `json:"region"`
	Total     float64       `json:"total"`
	Y2024     float64       `json:"y2024"`
	Y2025     float64       `json:"y2025"`
	YoYChange float64       `json:"yoy_change_pct"`
	Rank      int           `json:"rank,omitempty"`
	Ranked    bool          `json:"ranked"`
	Waterfall Waterfall     `json:"waterfall"`
	Products  []ProductLine `json:"products"`
}

// DescribeCountry builds the drill-down of country from the raw records.
// The rank is taken from all, the unfiltered country rollup. ok is false
// when no record carries the country.
func DescribeCountry(records []model.ExportRecord, all []rollup.CountryRollup, cur model.Currency, country string) (CountryDetail, bool) {
	d := CountryDetail{Country: country}

	type productKey struct{ code, unit string }
	index := make(map[productKey]int)

	found := false
	for _, r := range records {
		if r.Country != country {
			continue
		}
		if !found {
			d.Region = r.Region
			found = true
		}
		d.Y2024 += r.Y2024.Value(cur)
		d.Y2025 += r.Y2025.Value(cur)
		d.Total += r.Total.Value(cur)

		key := productKey{r.HSCode, r.Unit}
		i, ok := index[key]
		if !ok {
			i = len(d.Products)
			index[key] = i
			d.Products = append(d.Products, ProductLine{HSCode: r.HSCode, Unit: r.Unit})
		}
		p := &d.Products[i]
		p.Y2024 += r.Y2024.Value(cur)
		p.Y2025 += r.Y2025.Value(cur)
		p.Total += r.Total.Value(cur)
	}
	if !found {
		return d, false
	}

	sort.SliceStable(d.Products, func(i, j int) bool {
		return d.Products[i].Total > d.Products[j].Total
	})

	d.YoYChange = Change(d.Y2024, d.Y2025, ZeroThreshold)
	d.Rank, d.Ranked = Rank(all, cur, country)
	d.Waterfall = Waterfall{Start: d.Y2024, Change: d.Y2025 - d.Y2024, End: d.Y2025}
	return d, true
}
