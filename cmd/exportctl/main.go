// Command exportctl prints or exports the cable export statistics without
// starting the dashboard server.
//
//	exportctl -region Europe,GCC -currency egp -format csv -out filtered.csv
//
// Region and country lists are comma-separated without spaces; names must
// match the workbook spelling exactly. Omitting a list selects everything;
// passing it empty (-country "") selects nothing.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/cable-exports/internal/config"
	"github.com/JonMunkholm/cable-exports/internal/core"
	"github.com/JonMunkholm/cable-exports/internal/loader"
	"github.com/JonMunkholm/cable-exports/internal/logging"
	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/report"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

func main() {
	// Unlike the server, flags win over .env.
	_ = godotenv.Load()

	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "exportctl:", core.FormatUserError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("exportctl", flag.ContinueOnError)
	source := fs.String("source", cfg.Source.Path, "path to the export workbook")
	sheet := fs.String("sheet", cfg.Source.Sheet, "worksheet name")
	firstRow := fs.Int("first-row", cfg.Source.FirstRow, "first data row (1-based)")
	lastRow := fs.Int("last-row", cfg.Source.LastRow, "last data row, inclusive (0 = end of sheet)")
	normalize := fs.Bool("normalize", cfg.Source.NormalizeKeys, "fold case and whitespace of country and region names")
	regions := fs.String("region", "", "comma-separated regions (default all)")
	countries := fs.String("country", "", "comma-separated countries (default all)")
	currency := fs.String("currency", "usd", "value currency: usd or egp")
	top := fs.Int("top", cfg.Dashboard.TopN, "number of countries in top-N rankings")
	format := fs.String("format", "summary", "output: summary, csv, raw or json")
	out := fs.String("out", "", "write output to file instead of stdout")
	verbose := fs.Bool("v", false, "debug logging on stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(os.Stderr, level, cfg.Logging.Format))

	cfg.Source.Path = *source
	cfg.Source.Sheet = *sheet
	cfg.Source.FirstRow = *firstRow
	cfg.Source.LastRow = *lastRow
	cfg.Source.NormalizeKeys = *normalize
	if err := cfg.Validate(); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	sel := rollup.DefaultSelection()
	sel.TopN = cfg.Dashboard.ClampTopN(*top)
	if sel.Currency, err = model.ParseCurrency(*currency); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidSelection, err)
	}
	if set["region"] {
		sel.Regions = splitList(*regions)
	}
	if set["country"] {
		sel.Countries = splitList(*countries)
	}

	cache, err := loader.NewCache(1, loader.Layout{
		Sheet:    cfg.Source.Sheet,
		FirstRow: cfg.Source.FirstRow,
		LastRow:  cfg.Source.LastRow,
	}, loader.Options{NormalizeKeys: cfg.Source.NormalizeKeys})
	if err != nil {
		return err
	}
	service := core.NewService(cache, cfg)

	w := stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "summary":
		view, err := service.View(ctx, sel)
		if err != nil {
			return err
		}
		return writeSummary(w, view)
	case "csv":
		view, err := service.View(ctx, sel)
		if err != nil {
			return err
		}
		return report.WriteCSV(w, view.Table)
	case "raw":
		ds, err := service.Dataset(ctx)
		if err != nil {
			return err
		}
		return report.WriteRecordsCSV(w, ds.Records, sel)
	case "json":
		view, err := service.View(ctx, sel)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	default:
		return fmt.Errorf("%w: unknown format %q", core.ErrInvalidSelection, *format)
	}
}

// splitList turns "a,b,,c" into {a, b, c}. Names are kept verbatim, so
// "a, b" selects " b". The result is never nil.
func splitList(s string) rollup.Set {
	set := rollup.NewSet()
	for _, v := range strings.Split(s, ",") {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func writeSummary(w io.Writer, view *core.View) error {
	cur := view.Selection.Currency
	s := view.Summary

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Source\t%s (%s)\n", view.Dataset.Source, view.Dataset.Sheet)
	fmt.Fprintf(tw, "Records\t%d (%d skipped)\n", view.Dataset.Records, view.Dataset.Skipped)
	fmt.Fprintf(tw, "Total exports\t%s\n", report.Money(cur, s.Total))
	fmt.Fprintf(tw, "2024\t%s\n", report.Money(cur, s.Y2024))
	fmt.Fprintf(tw, "2025\t%s\n", report.Money(cur, s.Y2025))
	fmt.Fprintf(tw, "YoY change\t%s\n", report.Percent(s.YoYChange))
	fmt.Fprintf(tw, "Countries\t%d\n", s.Countries)
	fmt.Fprintf(tw, "Regions\t%d\n", s.Regions)
	fmt.Fprintf(tw, "Top market\t%s\n", s.TopMarket)
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Rank\tCountry\tRegion\tTotal\tGrowth\n")
	for i, row := range view.Table.Rows {
		if i == view.Selection.TopN {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			row.Rank, row.Country, row.Region, report.Money(cur, row.Total), report.Percent(row.Growth))
	}
	return tw.Flush()
}
