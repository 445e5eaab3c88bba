package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves rows into sheet starting at row 4, with three
// title rows above them like the published workbook.
func writeWorkbook(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("DeleteSheet: %v", err)
		}
	}

	title := []any{"Egyptian cable exports"}
	if err := f.SetSheetRow(sheet, "A1", &title); err != nil {
		t.Fatalf("SetSheetRow title: %v", err)
	}
	header := []any{"HS Code", "Description", "Country", "Region", "Unit",
		"QTY 2024", "M-EGP 2024", "M-USD 2024", "QTY 2025", "M-EGP 2025", "M-USD 2025",
		"Total QTY", "Total M-EGP", "Total M-USD"}
	if err := f.SetSheetRow(sheet, "A3", &header); err != nil {
		t.Fatalf("SetSheetRow header: %v", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow %d: %v", i, err)
		}
	}

	path := filepath.Join(t.TempDir(), "exports.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func fixtureRows() [][]any {
	return [][]any{
		{854449, "Insulated conductors", "Germany", "Europe", "KG", 10, 480, 10, 12, 600, 12, 22, 1080, 22},
		{854460, "Other conductors", "Germany", "Europe", "KG", 1, 48, 1, 0, 0, 0, 1, 48, 1},
		{854449, "Insulated conductors", "", "Europe", "KG", 5, 5, 5, 5, 5, 5, 10, 10, 10},
		{854449, "Insulated conductors", "Saudi Arabia", "GCC", "KG", nil, nil, nil, 3, 150, 3, 3, 150, 3},
		{854449, "Insulated conductors", "Kenya", "", "KG", 1, 1, 1, 1, 1, 1, 2, 2, 2},
	}
}

func TestLoad_ParsesFixedLayout(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", fixtureRows())

	ds, err := Load(context.Background(), path, Layout{Sheet: "Sheet1", FirstRow: 4}, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(ds.Records) != 3 {
		t.Fatalf("len(Records) = %d, want 3", len(ds.Records))
	}
	if ds.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", ds.Skipped)
	}
	if ds.ID == "" {
		t.Error("ID is empty")
	}

	first := ds.Records[0]
	if first.HSCode != "854449" {
		t.Errorf("HSCode = %q, want %q", first.HSCode, "854449")
	}
	if first.Country != "Germany" || first.Region != "Europe" {
		t.Errorf("key = (%q, %q), want (Germany, Europe)", first.Region, first.Country)
	}
	if first.Y2024.USD != 10 || first.Y2025.EGP != 600 || first.Total.Qty != 22 {
		t.Errorf("metrics = %+v / %+v / %+v", first.Y2024, first.Y2025, first.Total)
	}

	saudi := ds.Records[2]
	if saudi.Y2024.Qty != 0 || saudi.Y2024.EGP != 0 || saudi.Y2024.USD != 0 {
		t.Errorf("missing 2024 cells should be zero, got %+v", saudi.Y2024)
	}
	if saudi.Y2025.USD != 3 {
		t.Errorf("Saudi Arabia Y2025.USD = %v, want 3", saudi.Y2025.USD)
	}
}

func TestLoad_RowRange(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", fixtureRows())

	// Rows 4-5 only: both Germany rows.
	ds, err := Load(context.Background(), path, Layout{Sheet: "Sheet1", FirstRow: 4, LastRow: 5}, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(ds.Records))
	}
	for _, r := range ds.Records {
		if r.Country != "Germany" {
			t.Errorf("unexpected country %q", r.Country)
		}
	}
}

func TestLoad_LastRowBeyondData(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", fixtureRows())

	ds, err := Load(context.Background(), path, DefaultLayout(), Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(ds.Records) != 3 {
		t.Errorf("len(Records) = %d, want 3", len(ds.Records))
	}
}

func TestLoad_Errors(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", fixtureRows())

	garbage := filepath.Join(t.TempDir(), "garbage.xlsx")
	if err := os.WriteFile(garbage, []byte("not a workbook"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	tests := []struct {
		name   string
		path   string
		layout Layout
		want   error
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.xlsx"), DefaultLayout(), ErrSourceNotFound},
		{"missing sheet", path, Layout{Sheet: "Data", FirstRow: 4}, ErrSheetNotFound},
		{"not a workbook", garbage, DefaultLayout(), ErrSourceUnreadable},
		{"directory", t.TempDir(), DefaultLayout(), ErrSourceUnreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Load(context.Background(), tt.path, tt.layout, Options{})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Load() error = %v, want %v", err, tt.want)
			}
			if ds != nil {
				t.Errorf("Load() returned a dataset alongside error")
			}
		})
	}
}

func TestLoad_CustomSheet(t *testing.T) {
	path := writeWorkbook(t, "Exports", fixtureRows())

	ds, err := Load(context.Background(), path, Layout{Sheet: "Exports", FirstRow: 4}, Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Sheet != "Exports" || len(ds.Records) != 3 {
		t.Errorf("sheet=%q records=%d", ds.Sheet, len(ds.Records))
	}
}

func TestLoad_Cancelled(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", fixtureRows())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Load(ctx, path, DefaultLayout(), Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_NormalizeKeys(t *testing.T) {
	rows := [][]any{
		{854449, "", "Germany", "Europe", "KG", 1, 1, 1, 1, 1, 1, 2, 2, 2},
		{854449, "", " germany ", "europe", "KG", 1, 1, 1, 1, 1, 1, 2, 2, 2},
		{854449, "", "United  Kingdom", "Europe", "KG", 1, 1, 1, 1, 1, 1, 2, 2, 2},
	}
	path := writeWorkbook(t, "Sheet1", rows)

	exact, err := Load(context.Background(), path, DefaultLayout(), Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if exact.Records[1].Country != " germany " {
		t.Errorf("exact mode altered key: %q", exact.Records[1].Country)
	}

	norm, err := Load(context.Background(), path, DefaultLayout(), Options{NormalizeKeys: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if norm.Records[1].Country != "Germany" || norm.Records[1].Region != "Europe" {
		t.Errorf("normalized key = (%q, %q), want (Europe, Germany)", norm.Records[1].Region, norm.Records[1].Country)
	}
	if norm.Records[2].Country != "United Kingdom" {
		t.Errorf("whitespace not collapsed: %q", norm.Records[2].Country)
	}
}

func TestCache_HitMissInvalidate(t *testing.T) {
	path := writeWorkbook(t, "Sheet1", fixtureRows())

	loads := 0
	cache, err := newCache(2, DefaultLayout(), Options{}, func(ctx context.Context, p string, l Layout, o Options) (*Dataset, error) {
		loads++
		return Load(ctx, p, l, o)
	})
	if err != nil {
		t.Fatalf("newCache: %v", err)
	}

	ctx := context.Background()
	first, err := cache.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := cache.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first != second || loads != 1 {
		t.Errorf("expected cache hit, loads=%d same=%v", loads, first == second)
	}

	// A newer modification time is a different workbook version.
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	third, err := cache.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if third == first || loads != 2 {
		t.Errorf("expected reload after mtime change, loads=%d", loads)
	}

	cache.Invalidate()
	if stats := cache.Stats(); stats.Entries != 0 {
		t.Errorf("Entries after Invalidate = %d, want 0", stats.Entries)
	}
	if _, err := cache.Get(ctx, path); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loads != 3 {
		t.Errorf("loads = %d, want 3", loads)
	}

	stats := cache.Stats()
	if stats.Misses != 1 || stats.Hits != 0 || stats.Entries != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestCache_MissingFile(t *testing.T) {
	cache, err := NewCache(0, DefaultLayout(), Options{})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	_, err = cache.Get(context.Background(), filepath.Join(t.TempDir(), "gone.xlsx"))
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("Get error = %v, want ErrSourceNotFound", err)
	}
}
