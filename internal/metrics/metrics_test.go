package metrics

import (
	"math"
	"testing"

	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

func country(region, name string, usd24, usd25 float64) rollup.CountryRollup {
	return rollup.CountryRollup{
		Region:    region,
		Country:   name,
		Y2024:     model.YearMetrics{USD: usd24, EGP: usd24 * 50},
		Y2025:     model.YearMetrics{USD: usd25, EGP: usd25 * 50},
		Total:     model.YearMetrics{USD: usd24 + usd25, EGP: (usd24 + usd25) * 50},
		YoYGrowth: rollup.Growth(usd24, usd25),
	}
}

func names(rows []rollup.CountryRollup) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Country
	}
	return out
}

func equalNames(t *testing.T, got []rollup.CountryRollup, want ...string) {
	t.Helper()
	g := names(got)
	if len(g) != len(want) {
		t.Fatalf("got %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got %v, want %v", g, want)
		}
	}
}

func TestRank_StableOneBased(t *testing.T) {
	// Totals 300, 100, 300: ties keep input order.
	countries := []rollup.CountryRollup{
		country("Europe", "Austria", 150, 150),
		country("Africa", "Benin", 50, 50),
		country("GCC", "Qatar", 100, 200),
	}

	tests := []struct {
		country string
		want    int
	}{
		{"Austria", 1},
		{"Qatar", 2},
		{"Benin", 3},
	}
	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			got, ok := Rank(countries, model.USD, tt.country)
			if !ok || got != tt.want {
				t.Errorf("Rank(%s) = %d, %v; want %d, true", tt.country, got, ok, tt.want)
			}
		})
	}

	if _, ok := Rank(countries, model.USD, "Atlantis"); ok {
		t.Error("Rank(Atlantis) should report not found")
	}
}

func TestRanked_DoesNotMutateInput(t *testing.T) {
	countries := []rollup.CountryRollup{
		country("Africa", "Benin", 1, 1),
		country("Europe", "Austria", 10, 10),
	}
	Ranked(countries, model.USD)
	if countries[0].Country != "Benin" {
		t.Error("Ranked reordered its input")
	}
}

func TestTopByValue(t *testing.T) {
	countries := []rollup.CountryRollup{
		country("Africa", "Benin", 1, 1),
		country("Europe", "Austria", 10, 10),
		country("GCC", "Qatar", 5, 5),
	}

	equalNames(t, TopByValue(countries, model.USD, 2), "Austria", "Qatar")
	equalNames(t, TopByValue(countries, model.USD, 0), "Austria", "Qatar", "Benin")
	equalNames(t, TopByValue(countries, model.USD, 10), "Austria", "Qatar", "Benin")
	if got := TopByValue(nil, model.USD, 3); len(got) != 0 {
		t.Errorf("TopByValue(nil) = %v", got)
	}
}

func TestTopByGrowth(t *testing.T) {
	countries := []rollup.CountryRollup{
		country("Africa", "Benin", 10, 5),
		country("Europe", "Austria", 0, 3),
		country("GCC", "Qatar", 10, 20),
		country("Asia", "Japan", 100, 150),
		country("Asia", "Korea", 0, 0),
	}

	equalNames(t, TopByGrowth(countries, model.USD, 3), "Austria", "Qatar", "Japan")
	equalNames(t, TopByGrowth(countries, model.USD, 0), "Austria", "Qatar", "Japan", "Korea", "Benin")
}

func TestMarkets_Disjoint(t *testing.T) {
	countries := []rollup.CountryRollup{
		country("Africa", "Benin", 0, 7),
		country("Europe", "Austria", 0, 2),
		country("GCC", "Qatar", 4, 0),
		country("Asia", "Japan", 1, 0),
		country("Asia", "Korea", 0, 0),
		country("Asia", "India", 3, 3),
		// Above zero but below the threshold in both years and currencies.
		country("Asia", "Nepal", 0.00001, 0.000008),
	}

	for _, cur := range []model.Currency{model.USD, model.EGP} {
		newM := NewMarkets(countries, cur)
		lost := LostMarkets(countries, cur)

		equalNames(t, newM, "Nepal", "Austria", "Benin")
		equalNames(t, lost, "Japan", "Qatar")

		seen := make(map[string]bool)
		for _, c := range newM {
			seen[c.Country] = true
		}
		for _, c := range lost {
			if seen[c.Country] {
				t.Errorf("%s is both new and lost", c.Country)
			}
		}
	}
}

func TestMarkets_NearZeroBase(t *testing.T) {
	// 0.0005 USD is below the threshold in USD, but 0.025 EGP is not.
	countries := []rollup.CountryRollup{country("Asia", "Nepal", 0.0005, 1)}

	if got := NewMarkets(countries, model.USD); len(got) != 1 {
		t.Errorf("USD new markets = %v", names(got))
	}
	if got := NewMarkets(countries, model.EGP); len(got) != 0 {
		t.Errorf("EGP new markets = %v", names(got))
	}
}

func TestChange(t *testing.T) {
	if got := Change(100, 150, 0); got != 50 {
		t.Errorf("Change = %v, want 50", got)
	}
	if got := Change(0, 150, 0); got != 0 {
		t.Errorf("Change zero base = %v, want 0", got)
	}
	if got := Change(0.0005, 1, ZeroThreshold); got != 0 {
		t.Errorf("Change below threshold = %v, want 0", got)
	}
}

func TestSummarize(t *testing.T) {
	countries := []rollup.CountryRollup{
		country("Europe", "Austria", 10, 20),
		country("Europe", "Belgium", 5, 5),
		country("GCC", "Qatar", 15, 5),
	}
	view := rollup.Filter(countries, rollup.DefaultSelection())

	s := Summarize(view)
	if s.Total != 60 || s.Y2024 != 30 || s.Y2025 != 30 {
		t.Errorf("totals = %v %v %v", s.Total, s.Y2024, s.Y2025)
	}
	if s.YoYChange != 0 {
		t.Errorf("YoYChange = %v, want 0", s.YoYChange)
	}
	if s.Countries != 3 || s.Regions != 2 {
		t.Errorf("counts = %d countries, %d regions", s.Countries, s.Regions)
	}
	if s.TopMarket != "Austria" || s.TopMarketValue != 30 {
		t.Errorf("top = %s %v", s.TopMarket, s.TopMarketValue)
	}

	empty := Summarize(rollup.Filter(countries, rollup.Selection{Regions: rollup.NewSet()}))
	if empty.TopMarket != NoMarket || empty.Total != 0 || empty.Countries != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestDescribeRegion(t *testing.T) {
	countries := []rollup.CountryRollup{
		country("Europe", "Austria", 10, 20),
		country("Europe", "Belgium", 20, 10),
		country("Europe", "Cyprus", 0, 40),
		country("GCC", "Qatar", 15, 5),
	}
	view := rollup.Filter(countries, rollup.DefaultSelection())

	d, ok := DescribeRegion(view, "Europe", 2)
	if !ok {
		t.Fatal("DescribeRegion(Europe) not found")
	}
	if d.Total != 100 || d.Y2024 != 30 || d.Y2025 != 70 || d.Countries != 3 {
		t.Errorf("detail = %+v", d)
	}
	if math.Abs(d.YoYChange-133.33333333333334) > 1e-9 {
		t.Errorf("YoYChange = %v", d.YoYChange)
	}
	equalNames(t, d.Top, "Cyprus", "Austria")

	var pct float64
	for _, s := range d.Shares {
		pct += s.Percent
	}
	if math.Abs(pct-100) > 1e-9 {
		t.Errorf("shares sum to %v", pct)
	}

	if _, ok := DescribeRegion(view, "Asia", 5); ok {
		t.Error("DescribeRegion(Asia) should not be found")
	}
}

func TestDescribeCountry(t *testing.T) {
	records := []model.ExportRecord{
		{HSCode: "854449", Unit: "KG", Country: "Germany", Region: "Europe",
			Y2024: model.YearMetrics{USD: 4}, Y2025: model.YearMetrics{USD: 6}, Total: model.YearMetrics{USD: 10}},
		{HSCode: "854460", Unit: "KG", Country: "Germany", Region: "Europe",
			Y2024: model.YearMetrics{USD: 1}, Y2025: model.YearMetrics{USD: 20}, Total: model.YearMetrics{USD: 21}},
		{HSCode: "854449", Unit: "KG", Country: "Germany", Region: "Europe",
			Y2024: model.YearMetrics{USD: 5}, Y2025: model.YearMetrics{USD: 0}, Total: model.YearMetrics{USD: 5}},
		{HSCode: "854449", Unit: "KG", Country: "Qatar", Region: "GCC",
			Y2024: model.YearMetrics{USD: 100}, Y2025: model.YearMetrics{USD: 100}, Total: model.YearMetrics{USD: 200}},
	}
	all := rollup.ByCountry(records)

	d, ok := DescribeCountry(records, all, model.USD, "Germany")
	if !ok {
		t.Fatal("Germany not found")
	}
	if d.Region != "Europe" || d.Total != 36 || d.Y2024 != 10 || d.Y2025 != 26 {
		t.Errorf("detail = %+v", d)
	}
	if math.Abs(d.YoYChange-160) > 1e-9 {
		t.Errorf("YoYChange = %v, want 160", d.YoYChange)
	}
	if !d.Ranked || d.Rank != 2 {
		t.Errorf("rank = %d %v, want 2 true", d.Rank, d.Ranked)
	}
	if d.Waterfall != (Waterfall{Start: 10, Change: 16, End: 26}) {
		t.Errorf("waterfall = %+v", d.Waterfall)
	}
	if len(d.Products) != 2 || d.Products[0].HSCode != "854460" || d.Products[1].Total != 15 {
		t.Errorf("products = %+v", d.Products)
	}

	if _, ok := DescribeCountry(records, all, model.USD, "Atlantis"); ok {
		t.Error("Atlantis should not be found")
	}
}
