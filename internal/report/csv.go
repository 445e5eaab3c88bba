package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// ExportFileName is the download name of the filtered table.
const ExportFileName = "egyptian_cable_exports_filtered.csv"

// ErrBadExport reports a CSV that is not a table export.
var ErrBadExport = errors.New("not a country table export")

// WriteCSV writes the table with a header row. Money columns have two
// decimals; growth has one decimal and an explicit sign.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Headers(t.Currency)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.Rows {
		record := []string{
			strconv.Itoa(r.Rank),
			r.Region,
			r.Country,
			FormatAmount(r.V2024),
			FormatAmount(r.V2025),
			FormatAmount(r.Total),
			FormatGrowth(r.Growth),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r.Rank, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Headers(model.USD))

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrBadExport, err)
	}

	cur, err := currencyFromHeader(header)
	if err != nil {
		return nil, err
	}

	t := &Table{Currency: cur, Rows: make([]Row, 0)}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadExport, line, err)
		}

		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadExport, line, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func currencyFromHeader(header []string) (model.Currency, error) {
	for _, cur := range []model.Currency{model.USD, model.EGP} {
		want := Headers(cur)
		match := len(header) == len(want)
		for i := 0; match && i < len(want); i++ {
			match = strings.TrimSpace(header[i]) == want[i]
		}
		if match {
			return cur, nil
		}
	}
	return model.USD, fmt.Errorf("%w: unexpected header %q", ErrBadExport, strings.Join(header, ","))
}

func parseRow(record []string) (Row, error) {
	rank, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return Row{}, fmt.Errorf("rank %q: %v", record[0], err)
	}

	nums := make([]float64, 4)
	for i, cell := range record[3:7] {
		cell = strings.TrimSuffix(strings.TrimSpace(cell), "%")
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Row{}, fmt.Errorf("column %d %q: %v", i+4, cell, err)
		}
		nums[i] = v
	}

	return Row{
		Rank:    rank,
		Region:  record[1],
		Country: record[2],
		V2024:   nums[0],
		V2025:   nums[1],
		Total:   nums[2],
		Growth:  nums[3],
	}, nil
}

// RecordHeaders are the columns of the raw record export.
var RecordHeaders = []string{
	"HS Code", "Description", "Country", "Region", "Unit",
	"QTY 2024", "M-EGP 2024", "M-USD 2024",
	"QTY 2025", "M-EGP 2025", "M-USD 2025",
	"Total QTY", "Total M-EGP", "Total M-USD",
}

// WriteRecordsCSV writes the raw records whose region and country are
// selected by sel, in source order.
func WriteRecordsCSV(w io.Writer, records []model.ExportRecord, sel rollup.Selection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RecordHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range FilterRecords(records, sel) {
		record := []string{
			r.HSCode, r.Description, r.Country, r.Region, r.Unit,
			formatRaw(r.Y2024.Qty), formatRaw(r.Y2024.EGP), formatRaw(r.Y2024.USD),
			formatRaw(r.Y2025.Qty), formatRaw(r.Y2025.EGP), formatRaw(r.Y2025.USD),
			formatRaw(r.Total.Qty), formatRaw(r.Total.EGP), formatRaw(r.Total.USD),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FilterRecords keeps the records whose region and country are selected.
func FilterRecords(records []model.ExportRecord, sel rollup.Selection) []model.ExportRecord {
	out := make([]model.ExportRecord, 0, len(records))
	for _, r := range records {
		if sel.Regions.Has(r.Region) && sel.Countries.Has(r.Country) {
			out = append(out, r)
		}
	}
	return out
}

// FormatAmount renders a money value with two decimals, no separators.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatGrowth renders a percentage with one decimal and a sign.
func FormatGrowth(v float64) string {
	d := decimal.NewFromFloat(v).Round(1)
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(1)
	}
	return d.StringFixed(1)
}

func formatRaw(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
