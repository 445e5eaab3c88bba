// Package rollup groups export records into country and region aggregates
// and restricts them to a user selection.
//
// Everything here is a pure function of its inputs: records are never
// modified, and every call returns freshly allocated slices.
package rollup

import (
	"sort"

	"github.com/JonMunkholm/cable-exports/internal/model"
)

// GrowthThreshold is the base value at or below which a growth percentage
// is not computed by division (see Growth).
const GrowthThreshold = 0.001

// Growth is the year-over-year change in percent between v2024 and v2025.
//
//	v2024 > 0.001          (v2025 - v2024) / v2024 * 100
//	v2024 <= 0.001, v2025 > 0   100  (new market)
//	otherwise                   0    (no activity)
func Growth(v2024, v2025 float64) float64 {
	if v2024 > GrowthThreshold {
		return (v2025 - v2024) / v2024 * 100
	}
	if v2025 > 0 {
		return 100.0
	}
	return 0.0
}

// CountryRollup sums every record sharing (Region, Country).
type CountryRollup struct {
	Region  string            `json:"region"`
	Country string            `json:"country"`
	Y2024   model.YearMetrics `json:"y2024"`
	Y2025   model.YearMetrics `json:"y2025"`
	Total   model.YearMetrics `json:"total"`
	Records int               `json:"records"`

	// YoYGrowth is the USD growth of the row.
	YoYGrowth float64 `json:"yoy_growth_pct"`
}

// Values returns the 2024, 2025 and total value in currency c.
func (c CountryRollup) Values(cur model.Currency) (v2024, v2025, total float64) {
	return c.Y2024.Value(cur), c.Y2025.Value(cur), c.Total.Value(cur)
}

// Growth is the year-over-year growth in currency c.
func (c CountryRollup) Growth(cur model.Currency) float64 {
	return Growth(c.Y2024.Value(cur), c.Y2025.Value(cur))
}

// RegionRollup sums the country rollups of one region.
type RegionRollup struct {
	Region    string            `json:"region"`
	Y2024     model.YearMetrics `json:"y2024"`
	Y2025     model.YearMetrics `json:"y2025"`
	Total     model.YearMetrics `json:"total"`
	Countries int               `json:"countries"`
}

// Values returns the 2024, 2025 and total value in currency c.
func (r RegionRollup) Values(cur model.Currency) (v2024, v2025, total float64) {
	return r.Y2024.Value(cur), r.Y2025.Value(cur), r.Total.Value(cur)
}

type countryKey struct {
	region  string
	country string
}

// ByCountry groups records by exact (region, country) match and sums all
// numeric fields. Rows are ordered by region, then country, so the slice
// order is the stable tie-break order for later rankings.
func ByCountry(records []model.ExportRecord) []CountryRollup {
	index := make(map[countryKey]int)
	out := make([]CountryRollup, 0)

	for _, rec := range records {
		key := countryKey{region: rec.Region, country: rec.Country}
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CountryRollup{Region: rec.Region, Country: rec.Country})
		}
		row := &out[i]
		row.Y2024 = row.Y2024.Add(rec.Y2024)
		row.Y2025 = row.Y2025.Add(rec.Y2025)
		row.Total = row.Total.Add(rec.Total)
		row.Records++
	}

	for i := range out {
		out[i].YoYGrowth = Growth(out[i].Y2024.USD, out[i].Y2025.USD)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// ByRegion groups country rollups by region. Countries counts the rollup
// rows of the region. Output is ordered by region.
func ByRegion(countries []CountryRollup) []RegionRollup {
	index := make(map[string]int)
	out := make([]RegionRollup, 0)

	for _, c := range countries {
		i, ok := index[c.Region]
		if !ok {
			i = len(out)
			index[c.Region] = i
			out = append(out, RegionRollup{Region: c.Region})
		}
		row := &out[i]
		row.Y2024 = row.Y2024.Add(c.Y2024)
		row.Y2025 = row.Y2025.Add(c.Y2025)
		row.Total = row.Total.Add(c.Total)
		row.Countries++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// Regions lists the distinct regions of countries, sorted.
func Regions(countries []CountryRollup) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, c := range countries {
		if !seen[c.Region] {
			seen[c.Region] = true
			out = append(out, c.Region)
		}
	}
	sort.Strings(out)
	return out
}
