// Package model defines the export records read from the source workbook
// and the small value types shared by the aggregation pipeline.
package model

import (
	"fmt"
	"strings"
)

type Region string

const (
	RegionEurope       Region = "Europe"
	RegionGCC          Region = "GCC"
	RegionAfrica       Region = "Africa"
	RegionAsia         Region = "Asia"
	RegionNorthAmerica Region = "North America"
	RegionSouthAmerica Region = "South America"
)

// KnownRegions lists the regions used by the export statistics sheet.
// Records with other region names are kept; this list only drives colours.
var KnownRegions = []Region{
	RegionEurope,
	RegionGCC,
	RegionAfrica,
	RegionAsia,
	RegionNorthAmerica,
	RegionSouthAmerica,
}

// Color returns the display colour of a region as a hex string.
func (r Region) Color() string {
	switch r {
	case RegionEurope:
		return "#2E86AB"
	case RegionGCC:
		return "#1B998B"
	case RegionAfrica:
		return "#E8963E"
	case RegionAsia:
		return "#C73E1D"
	case RegionNorthAmerica:
		return "#5C4D7D"
	case RegionSouthAmerica:
		return "#8EAF3E"
	default:
		return "#2E86AB"
	}
}

// Currency selects which value family (USD or local EGP) feeds every
// value column downstream. Quantities are not affected.
type Currency int

const (
	USD Currency = iota
	EGP
)

// ParseCurrency accepts "usd", "egp" or "local" in any case.
// An empty string yields USD.
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "usd":
		return USD, nil
	case "egp", "local":
		return EGP, nil
	default:
		return USD, fmt.Errorf("unknown currency %q", s)
	}
}

func (c Currency) String() string {
	if c == EGP {
		return "egp"
	}
	return "usd"
}

// Label is the column unit used in headers, e.g. "M-USD".
func (c Currency) Label() string {
	if c == EGP {
		return "M-EGP"
	}
	return "M-USD"
}

func (c Currency) Symbol() string {
	if c == EGP {
		return "E£"
	}
	return "$"
}

// YearMetrics holds the three measures reported per period.
// Values are in millions of the respective currency.
type YearMetrics struct {
	Qty float64 `json:"qty"`
	EGP float64 `json:"egp"`
	USD float64 `json:"usd"`
}

// Value returns the value field for the given currency.
func (m YearMetrics) Value(c Currency) float64 {
	if c == EGP {
		return m.EGP
	}
	return m.USD
}

// Add returns the field-wise sum of m and o.
func (m YearMetrics) Add(o YearMetrics) YearMetrics {
	return YearMetrics{
		Qty: m.Qty + o.Qty,
		EGP: m.EGP + o.EGP,
		USD: m.USD + o.USD,
	}
}

// ExportRecord is one worksheet row: an HS code shipped to a country,
// with paired 2024/2025 metrics and the sheet's own two-year totals.
type ExportRecord struct {
	HSCode      string      `json:"hs_code"`
	Description string      `json:"description"`
	Country     string      `json:"country"`
	Region      string      `json:"region"`
	Unit        string      `json:"unit"`
	Y2024       YearMetrics `json:"y2024"`
	Y2025       YearMetrics `json:"y2025"`
	Total       YearMetrics `json:"total"`
}
