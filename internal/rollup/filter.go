package rollup

import (
	"sort"

	"github.com/JonMunkholm/cable-exports/internal/model"
)

// DefaultTopN is the Top-N of a fresh selection. Bounds live in the
// dashboard config.
const DefaultTopN = 12

// Set is a string set. A nil Set means "not specified" and matches
// everything; an empty non-nil Set matches nothing.
type Set map[string]struct{}

// NewSet builds a non-nil set from values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is selected. A nil set selects every value.
func (s Set) Has(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// Values returns the members sorted. A nil set returns nil.
func (s Set) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Selection is the user's filter and display choice.
type Selection struct {
	Regions   Set
	Countries Set
	Currency  model.Currency
	TopN      int
}

// DefaultSelection selects all regions and countries in USD.
func DefaultSelection() Selection {
	return Selection{Currency: model.USD, TopN: DefaultTopN}
}

// AvailableCountries lists the countries that belong to the selected
// regions, sorted and de-duplicated. It backs the dependent country picker.
func AvailableCountries(countries []CountryRollup, regions Set) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, c := range countries {
		if !regions.Has(c.Region) || seen[c.Country] {
			continue
		}
		seen[c.Country] = true
		out = append(out, c.Country)
	}
	sort.Strings(out)
	return out
}

// FilteredView is the part of the rollups a selection keeps, expressed in
// the selection's currency.
type FilteredView struct {
	Currency  model.Currency  `json:"-"`
	Countries []CountryRollup `json:"countries"`
	Regions   []RegionRollup  `json:"regions"`
}

// Filter keeps the country rows whose region AND country are selected and
// re-derives the region rollup from the kept rows only.
func Filter(countries []CountryRollup, sel Selection) FilteredView {
	kept := make([]CountryRollup, 0, len(countries))
	for _, c := range countries {
		if sel.Regions.Has(c.Region) && sel.Countries.Has(c.Country) {
			kept = append(kept, c)
		}
	}
	return FilteredView{
		Currency:  sel.Currency,
		Countries: kept,
		Regions:   ByRegion(kept),
	}
}

// Empty reports whether the view has no rows.
func (v FilteredView) Empty() bool {
	return len(v.Countries) == 0
}

// Totals sums the view's 2024, 2025 and total values in its currency.
func (v FilteredView) Totals() (v2024, v2025, total float64) {
	for _, c := range v.Countries {
		a, b, t := c.Values(v.Currency)
		v2024 += a
		v2025 += b
		total += t
	}
	return v2024, v2025, total
}

// Region returns the rows of the view that belong to region.
func (v FilteredView) Region(region string) []CountryRollup {
	out := make([]CountryRollup, 0)
	for _, c := range v.Countries {
		if c.Region == region {
			out = append(out, c)
		}
	}
	return out
}
