// Package metrics derives rankings, market dynamics and KPI figures from
// the country and region rollups.
package metrics

import (
	"sort"

	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// ZeroThreshold tolerates floating noise when deciding whether a year had
// any exports at all.
const ZeroThreshold = rollup.GrowthThreshold

// Ranked returns a copy of countries sorted by total value in cur,
// descending. Ties keep their input order.
func Ranked(countries []rollup.CountryRollup, cur model.Currency) []rollup.CountryRollup {
	out := append([]rollup.CountryRollup(nil), countries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Value(cur) > out[j].Total.Value(cur)
	})
	return out
}

// Rank returns the 1-based position of country in the ranking of countries
// by total value in cur. ok is false when the country is not present.
//
// Callers pass the unfiltered rollup so the rank is global.
func Rank(countries []rollup.CountryRollup, cur model.Currency, country string) (rank int, ok bool) {
	for i, c := range Ranked(countries, cur) {
		if c.Country == country {
			return i + 1, true
		}
	}
	return 0, false
}

// TopByValue returns the n rows with the largest total value in cur.
// n <= 0 returns every row.
func TopByValue(countries []rollup.CountryRollup, cur model.Currency, n int) []rollup.CountryRollup {
	return limit(Ranked(countries, cur), n)
}

// TopByGrowth returns the n rows with the highest growth in cur.
// n <= 0 returns every row.
func TopByGrowth(countries []rollup.CountryRollup, cur model.Currency, n int) []rollup.CountryRollup {
	out := append([]rollup.CountryRollup(nil), countries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Growth(cur) > out[j].Growth(cur)
	})
	return limit(out, n)
}

// NewMarkets lists countries with no 2024 value and some 2025 value,
// ordered by 2025 value ascending.
func NewMarkets(countries []rollup.CountryRollup, cur model.Currency) []rollup.CountryRollup {
	out := make([]rollup.CountryRollup, 0)
	for _, c := range countries {
		v24, v25, _ := c.Values(cur)
		if v24 < ZeroThreshold && v25 > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Y2025.Value(cur) < out[j].Y2025.Value(cur)
	})
	return out
}

// LostMarkets lists countries with a 2024 value of at least ZeroThreshold
// and no 2025 value, ordered by 2024 value ascending. A 2024 value below the
// threshold counts as none, so no country is both new and lost.
func LostMarkets(countries []rollup.CountryRollup, cur model.Currency) []rollup.CountryRollup {
	out := make([]rollup.CountryRollup, 0)
	for _, c := range countries {
		v24, v25, _ := c.Values(cur)
		if v24 >= ZeroThreshold && v25 < ZeroThreshold {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Y2024.Value(cur) < out[j].Y2024.Value(cur)
	})
	return out
}

// Change is the plain percentage change used by the KPI strip and drill-down
// headers: zero whenever the base is not above threshold.
func Change(base, current, threshold float64) float64 {
	if base > threshold {
		return (current - base) / base * 100
	}
	return 0
}

func limit(rows []rollup.CountryRollup, n int) []rollup.CountryRollup {
	if n > 0 && n < len(rows) {
		return rows[:n]
	}
	return rows
}
