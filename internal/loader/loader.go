// Package loader reads the export statistics workbook into ExportRecords.
//
// The workbook layout is fixed: one worksheet, data from a known first row,
// and fourteen columns in this order:
//
//	A HS code      B description   C country      D region      E unit
//	F qty 2024     G M-EGP 2024    H M-USD 2024
//	I qty 2025     J M-EGP 2025    K M-USD 2025
//	L total qty    M total M-EGP   N total M-USD
//
// Rows without a country or region are skipped. Missing numbers are zero.
// Only a missing or unreadable file, or a missing sheet, fails the load.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/cable-exports/internal/logging"
	"github.com/JonMunkholm/cable-exports/internal/model"
)

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrSourceNotFound   = errors.New("source workbook not found")
	ErrSheetNotFound    = errors.New("worksheet not found")
	ErrSourceUnreadable = errors.New("source workbook unreadable")
)

// Column positions (0-based) within a worksheet row.
const (
	colHSCode = iota
	colDescription
	colCountry
	colRegion
	colUnit
	colQty2024
	colEGP2024
	colUSD2024
	colQty2025
	colEGP2025
	colUSD2025
	colTotalQty
	colTotalEGP
	colTotalUSD
)

// ContextCheckInterval is how often (in rows) the loader checks for cancellation.
var ContextCheckInterval = 100

// Layout locates the data block inside the workbook.
type Layout struct {
	Sheet    string
	FirstRow int // 1-based, inclusive
	LastRow  int // 1-based, inclusive; <= 0 reads to the end of the sheet
}

// DefaultLayout is the layout of the published statistics workbook.
func DefaultLayout() Layout {
	return Layout{Sheet: "Sheet1", FirstRow: 4, LastRow: 197}
}

func (l Layout) String() string {
	return fmt.Sprintf("%s!%d:%d", l.Sheet, l.FirstRow, l.LastRow)
}

// Options tune how rows become records.
type Options struct {
	// NormalizeKeys groups country and region names case-insensitively and
	// ignores stray whitespace. The first spelling seen is kept for display.
	NormalizeKeys bool
}

// Dataset is the immutable result of one workbook load.
type Dataset struct {
	ID       string
	Source   string
	Sheet    string
	ModTime  time.Time
	LoadedAt time.Time
	Records  []model.ExportRecord
	Skipped  int
}

// Load reads the workbook at path using layout.
func Load(ctx context.Context, path string, layout Layout, opts Options) (*Dataset, error) {
	start := time.Now()
	logger := logging.WithFields(ctx, "source", path, "sheet", layout.Sheet)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(layout.Sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, layout.Sheet, filepath.Base(path))
	}

	rows, err := f.GetRows(layout.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", ErrSourceUnreadable, layout.Sheet, err)
	}

	records, skipped, err := parseRows(ctx, rows, layout, opts)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		ID:       uuid.New().String(),
		Source:   path,
		Sheet:    layout.Sheet,
		ModTime:  info.ModTime(),
		LoadedAt: time.Now(),
		Records:  records,
		Skipped:  skipped,
	}

	logger.Info("workbook loaded",
		"dataset_id", ds.ID,
		"records", len(records),
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return ds, nil
}

// parseRows converts the worksheet rows inside layout into records.
func parseRows(ctx context.Context, rows [][]string, layout Layout, opts Options) ([]model.ExportRecord, int, error) {
	first := layout.FirstRow
	if first < 1 {
		first = 1
	}
	last := layout.LastRow
	if last <= 0 || last > len(rows) {
		last = len(rows)
	}

	var canon *canonicalizer
	if opts.NormalizeKeys {
		canon = newCanonicalizer()
	}

	records := make([]model.ExportRecord, 0, max(last-first+1, 0))
	skipped := 0

	for n := first; n <= last; n++ {
		if (n-first)%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}
		}

		rec, ok := parseRow(rows[n-1])
		if !ok {
			skipped++
			continue
		}
		if canon != nil {
			rec.Country = canon.country(rec.Country)
			rec.Region = canon.region(rec.Region)
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// parseRow builds a record from one row. ok is false when country or
// region is blank.
func parseRow(row []string) (model.ExportRecord, bool) {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	num := func(i int) float64 { return ParseAmount(cell(i)) }

	country := strings.TrimSpace(cell(colCountry))
	region := strings.TrimSpace(cell(colRegion))
	if country == "" || region == "" {
		return model.ExportRecord{}, false
	}

	// Grouping is exact match, so keys keep their original spelling.
	return model.ExportRecord{
		HSCode:      FormatCode(cell(colHSCode)),
		Description: strings.TrimSpace(cell(colDescription)),
		Country:     cell(colCountry),
		Region:      cell(colRegion),
		Unit:        strings.TrimSpace(cell(colUnit)),
		Y2024:       model.YearMetrics{Qty: num(colQty2024), EGP: num(colEGP2024), USD: num(colUSD2024)},
		Y2025:       model.YearMetrics{Qty: num(colQty2025), EGP: num(colEGP2025), USD: num(colUSD2025)},
		Total:       model.YearMetrics{Qty: num(colTotalQty), EGP: num(colTotalEGP), USD: num(colTotalUSD)},
	}, true
}

// canonicalizer maps folded keys to the first display spelling seen.
type canonicalizer struct {
	countries map[string]string
	regions   map[string]string
}

func newCanonicalizer() *canonicalizer {
	return &canonicalizer{
		countries: make(map[string]string),
		regions:   make(map[string]string),
	}
}

func (c *canonicalizer) country(s string) string { return c.lookup(c.countries, s) }
func (c *canonicalizer) region(s string) string  { return c.lookup(c.regions, s) }

func (c *canonicalizer) lookup(seen map[string]string, s string) string {
	key := canonicalKey(s)
	if display, ok := seen[key]; ok {
		return display
	}
	display := strings.Join(strings.Fields(s), " ")
	seen[key] = display
	return display
}
