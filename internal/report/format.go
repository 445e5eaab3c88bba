package report

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/JonMunkholm/cable-exports/internal/model"
)

// Money renders v millions in cur for display, e.g. "$1,234.50M".
func Money(cur model.Currency, v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + cur.Symbol() + humanize.FormatFloat("#,###.##", v) + "M"
}

// Number renders v with thousands separators and two decimals.
func Number(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// Percent renders a signed percentage with one decimal, e.g. "+12.5%".
func Percent(v float64) string {
	if math.Abs(v) < 0.05 {
		v = 0
	}
	return fmt.Sprintf("%+.1f%%", v)
}
