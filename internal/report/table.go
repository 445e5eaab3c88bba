// Package report flattens a filtered view into the ranked country table
// shown on the dashboard and offered as a CSV download.
package report

import (
	"fmt"
	"sort"

	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// Row is one ranked country line.
type Row struct {
	Rank    int     `json:"rank"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	V2024   float64 `json:"v2024"`
	V2025   float64 `json:"v2025"`
	Total   float64 `json:"total"`
	Growth  float64 `json:"yoy_growth_pct"`
}

// Table is the flattened country table for one currency.
type Table struct {
	Currency model.Currency `json:"-"`
	Rows     []Row          `json:"rows"`
}

// BuildTable orders the view's countries by total value (descending,
// stable) and labels them with 1-based ranks.
func BuildTable(view rollup.FilteredView) *Table {
	cur := view.Currency

	rows := make([]Row, 0, len(view.Countries))
	for _, c := range view.Countries {
		v24, v25, total := c.Values(cur)
		rows = append(rows, Row{
			Region:  c.Region,
			Country: c.Country,
			V2024:   v24,
			V2025:   v25,
			Total:   total,
			Growth:  rollup.Growth(v24, v25),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total > rows[j].Total })
	for i := range rows {
		rows[i].Rank = i + 1
	}

	return &Table{Currency: cur, Rows: rows}
}

// MaxTotal is the largest total in the table, used to scale progress bars.
func (t *Table) MaxTotal() float64 {
	var m float64
	for _, r := range t.Rows {
		if r.Total > m {
			m = r.Total
		}
	}
	return m
}

// Headers are the column titles for cur, rank first.
func Headers(cur model.Currency) []string {
	label := cur.Label()
	return []string{
		"Rank",
		"Region",
		"Country",
		fmt.Sprintf("2024 (%s)", label),
		fmt.Sprintf("2025 (%s)", label),
		fmt.Sprintf("Total (%s)", label),
		"YoY Growth %",
	}
}
