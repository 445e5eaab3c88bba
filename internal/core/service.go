package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/cable-exports/internal/config"
	"github.com/JonMunkholm/cable-exports/internal/loader"
	"github.com/JonMunkholm/cable-exports/internal/logging"
	"github.com/JonMunkholm/cable-exports/internal/metrics"
	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/report"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// Sentinel errors for lookups and request input.
var (
	ErrUnknownRegion    = errors.New("unknown region")
	ErrUnknownCountry   = errors.New("unknown country")
	ErrInvalidSelection = errors.New("invalid selection")
)

// Source yields the current dataset. *loader.Cache is the production
// implementation.
type Source interface {
	Get(ctx context.Context, path string) (*loader.Dataset, error)
	Invalidate()
	Stats() loader.CacheStats
}

// Service ties loading, aggregation and metric derivation together for the
// web and CLI front ends.
type Service struct {
	source Source
	path   string
	dash   config.DashboardConfig

	mu        sync.Mutex
	rolledID  string
	countries []rollup.CountryRollup
}

// NewService creates a Service reading the workbook configured in cfg.
func NewService(source Source, cfg *config.Config) *Service {
	return &Service{
		source: source,
		path:   cfg.Source.Path,
		dash:   cfg.Dashboard,
	}
}

// DatasetInfo describes the loaded workbook version.
type DatasetInfo struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Sheet    string    `json:"sheet"`
	ModTime  time.Time `json:"mod_time"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  int       `json:"records"`
	Skipped  int       `json:"skipped"`
}

func infoOf(ds *loader.Dataset) DatasetInfo {
	return DatasetInfo{
		ID:       ds.ID,
		Source:   ds.Source,
		Sheet:    ds.Sheet,
		ModTime:  ds.ModTime,
		LoadedAt: ds.LoadedAt,
		Records:  len(ds.Records),
		Skipped:  ds.Skipped,
	}
}

// Options are the choices offered by the filter controls.
type Options struct {
	Regions    []string `json:"regions"`
	Countries  []string `json:"countries"`
	Currencies []string `json:"currencies"`
	TopNMin    int      `json:"top_n_min"`
	TopNMax    int      `json:"top_n_max"`
	TopN       int      `json:"top_n"`
}

// View is everything the dashboard shows for one selection.
type View struct {
	Dataset     DatasetInfo            `json:"dataset"`
	Selection   rollup.Selection       `json:"-"`
	Options     Options                `json:"options"`
	Summary     metrics.Summary        `json:"summary"`
	Filtered    rollup.FilteredView    `json:"filtered"`
	Table       *report.Table          `json:"table"`
	TopValue    []rollup.CountryRollup `json:"top_value"`
	TopGrowth   []rollup.CountryRollup `json:"top_growth"`
	NewMarkets  []rollup.CountryRollup `json:"new_markets"`
	LostMarkets []rollup.CountryRollup `json:"lost_markets"`
	Records     []model.ExportRecord   `json:"-"`
}

// DefaultSelection selects everything in USD with the configured top-N.
func (s *Service) DefaultSelection() rollup.Selection {
	sel := rollup.DefaultSelection()
	sel.TopN = s.dash.TopN
	return sel
}

// ClampTopN applies the configured top-N bounds.
func (s *Service) ClampTopN(n int) int {
	return s.dash.ClampTopN(n)
}

// Dataset returns the current dataset, loading the workbook if it changed.
func (s *Service) Dataset(ctx context.Context) (*loader.Dataset, error) {
	ds, err := s.source.Get(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}

// Invalidate forces the next request to re-read the workbook.
func (s *Service) Invalidate(ctx context.Context) {
	s.source.Invalidate()

	s.mu.Lock()
	s.rolledID = ""
	s.countries = nil
	s.mu.Unlock()

	logging.FromContext(ctx).Info("dataset cache invalidated", "source", s.path)
}

// Health reports the loaded dataset and cache counters.
func (s *Service) Health(ctx context.Context) (DatasetInfo, loader.CacheStats, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return DatasetInfo{}, s.source.Stats(), err
	}
	return infoOf(ds), s.source.Stats(), nil
}

// load returns the dataset with its unfiltered country rollup. The rollup
// is computed once per dataset version.
func (s *Service) load(ctx context.Context) (*loader.Dataset, []rollup.CountryRollup, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rolledID != ds.ID {
		s.countries = rollup.ByCountry(ds.Records)
		s.rolledID = ds.ID
	}
	return ds, s.countries, nil
}

// View derives the whole dashboard for sel.
func (s *Service) View(ctx context.Context, sel rollup.Selection) (*View, error) {
	ds, all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	sel.TopN = s.ClampTopN(sel.TopN)
	filtered := rollup.Filter(all, sel)

	v := &View{
		Dataset:     infoOf(ds),
		Selection:   sel,
		Options:     s.options(all, sel.Regions),
		Summary:     metrics.Summarize(filtered),
		Filtered:    filtered,
		Table:       report.BuildTable(filtered),
		TopValue:    metrics.TopByValue(filtered.Countries, sel.Currency, sel.TopN),
		TopGrowth:   metrics.TopByGrowth(filtered.Countries, sel.Currency, sel.TopN),
		NewMarkets:  metrics.NewMarkets(filtered.Countries, sel.Currency),
		LostMarkets: metrics.LostMarkets(filtered.Countries, sel.Currency),
		Records:     report.FilterRecords(ds.Records, sel),
	}

	logging.FromContext(ctx).Debug("view derived",
		"dataset_id", ds.ID,
		"currency", sel.Currency.String(),
		"countries", len(filtered.Countries),
		"regions", len(filtered.Regions))

	return v, nil
}

// RegionDetail builds the drill-down of region within the selection.
func (s *Service) RegionDetail(ctx context.Context, sel rollup.Selection, region string) (metrics.RegionDetail, error) {
	_, all, err := s.load(ctx)
	if err != nil {
		return metrics.RegionDetail{}, err
	}

	d, ok := metrics.DescribeRegion(rollup.Filter(all, sel), region, s.ClampTopN(sel.TopN))
	if !ok {
		return d, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	return d, nil
}

// CountryDetail builds the drill-down of country over all of its records.
func (s *Service) CountryDetail(ctx context.Context, cur model.Currency, country string) (metrics.CountryDetail, error) {
	ds, all, err := s.load(ctx)
	if err != nil {
		return metrics.CountryDetail{}, err
	}

	d, ok := metrics.DescribeCountry(ds.Records, all, cur, country)
	if !ok {
		return d, fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	return d, nil
}

// Rank returns the global 1-based rank of country by total value in cur.
func (s *Service) Rank(ctx context.Context, cur model.Currency, country string) (int, error) {
	_, all, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	rank, ok := metrics.Rank(all, cur, country)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	return rank, nil
}

// Options lists every region and the countries available under regions.
func (s *Service) Options(ctx context.Context, regions rollup.Set) (Options, error) {
	_, all, err := s.load(ctx)
	if err != nil {
		return Options{}, err
	}
	return s.options(all, regions), nil
}

func (s *Service) options(all []rollup.CountryRollup, regions rollup.Set) Options {
	return Options{
		Regions:    rollup.Regions(all),
		Countries:  rollup.AvailableCountries(all, regions),
		Currencies: []string{model.USD.String(), model.EGP.String()},
		TopNMin:    s.dash.TopNMin,
		TopNMax:    s.dash.TopNMax,
		TopN:       s.dash.TopN,
	}
}

// Records returns the raw records selected by sel, in source order.
func (s *Service) Records(ctx context.Context, sel rollup.Selection) ([]model.ExportRecord, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return report.FilterRecords(ds.Records, sel), nil
}
