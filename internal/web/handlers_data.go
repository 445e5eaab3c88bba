package web

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cable-exports/internal/core"
	"github.com/JonMunkholm/cable-exports/internal/report"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// withView parses the selection and derives the view, writing the error
// response itself when either step fails.
func (s *Server) withView(w http.ResponseWriter, r *http.Request) (*core.View, bool) {
	sel, err := s.parseSelection(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return nil, false
	}

	view, err := s.service.View(r.Context(), sel)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return view, true
}

// handleOptions returns the regions and the countries available under the
// selected regions.
func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.service.Options(r.Context(), parseSet(r.URL.Query(), paramRegion))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, opts)
}

// SummaryResponse is the KPI strip with its currency.
type SummaryResponse struct {
	Currency string `json:"currency"`
	Unit     string `json:"unit"`
	core.DatasetInfo
	Summary any `json:"summary"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	view, ok := s.withView(w, r)
	if !ok {
		return
	}
	cur := view.Selection.Currency
	writeJSON(w, SummaryResponse{
		Currency:    cur.String(),
		Unit:        cur.Label(),
		DatasetInfo: view.Dataset,
		Summary:     view.Summary,
	})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	view, ok := s.withView(w, r)
	if !ok {
		return
	}
	writeJSON(w, view.Filtered.Regions)
}

func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	view, ok := s.withView(w, r)
	if !ok {
		return
	}
	writeJSON(w, view.Filtered.Countries)
}

// TableResponse is the flattened country table.
type TableResponse struct {
	Currency string       `json:"currency"`
	Headers  []string     `json:"headers"`
	Rows     []report.Row `json:"rows"`
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	view, ok := s.withView(w, r)
	if !ok {
		return
	}
	writeJSON(w, TableResponse{
		Currency: view.Table.Currency.String(),
		Headers:  report.Headers(view.Table.Currency),
		Rows:     view.Table.Rows,
	})
}

// MarketsResponse lists new and lost markets of the selection.
type MarketsResponse struct {
	New  []rollup.CountryRollup `json:"new"`
	Lost []rollup.CountryRollup `json:"lost"`
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	view, ok := s.withView(w, r)
	if !ok {
		return
	}
	writeJSON(w, MarketsResponse{New: view.NewMarkets, Lost: view.LostMarkets})
}

// TopResponse holds the top-N rankings by value and by growth.
type TopResponse struct {
	TopN     int                    `json:"top_n"`
	ByValue  []rollup.CountryRollup `json:"by_value"`
	ByGrowth []rollup.CountryRollup `json:"by_growth"`
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	view, ok := s.withView(w, r)
	if !ok {
		return
	}
	writeJSON(w, TopResponse{TopN: view.Selection.TopN, ByValue: view.TopValue, ByGrowth: view.TopGrowth})
}

// pathParam returns the unescaped chi URL parameter.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) handleRegionDetail(w http.ResponseWriter, r *http.Request) {
	sel, err := s.parseSelection(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	d, err := s.service.RegionDetail(r.Context(), sel, pathParam(r, "region"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, d)
}

func (s *Server) handleCountryDetail(w http.ResponseWriter, r *http.Request) {
	cur, err := parseCurrency(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	d, err := s.service.CountryDetail(r.Context(), cur, pathParam(r, "country"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, d)
}

// RankResponse is the global rank of one country.
type RankResponse struct {
	Country  string `json:"country"`
	Currency string `json:"currency"`
	Rank     int    `json:"rank"`
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	cur, err := parseCurrency(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	country := pathParam(r, "country")
	rank, err := s.service.Rank(r.Context(), cur, country)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, RankResponse{Country: country, Currency: cur.String(), Rank: rank})
}

// handleExportTable downloads the filtered country table as CSV.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	view, ok := s.withView(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, view.Table); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeCSV(w, report.ExportFileName, buf.Bytes())
}

// handleExportRaw downloads the filtered raw records as CSV.
func (s *Server) handleExportRaw(w http.ResponseWriter, r *http.Request) {
	sel, err := s.parseSelection(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	ds, err := s.service.Dataset(r.Context())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := report.WriteRecordsCSV(&buf, ds.Records, sel); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeCSV(w, "egyptian_cable_exports_raw.csv", buf.Bytes())
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(body)
}

// handleInvalidate drops the cached workbook so the next request re-reads it.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	s.service.Invalidate(r.Context())
	writeJSON(w, map[string]string{"status": "invalidated"})
}
