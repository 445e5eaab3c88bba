package web

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/cable-exports/internal/charts"
	"github.com/JonMunkholm/cable-exports/internal/core"
	"github.com/JonMunkholm/cable-exports/internal/logging"
	"github.com/JonMunkholm/cable-exports/internal/web/templates"
)

// handleDashboard renders the main dashboard page. The page is rendered
// into a buffer first so a failure never leaves a partial dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sel, err := s.parseSelection(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	view, err := s.service.View(ctx, sel)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	q := r.URL.Query()
	data := templates.DashboardData{
		View:        view,
		Query:       selectionQuery(q),
		RegionPick:  q.Get(paramPickRegion),
		CountryPick: q.Get(paramPickCountry),
		RawLimit:    s.cfg.Dashboard.RawRowLimit,
	}

	// Default drill-downs to the first region and country of the view.
	if data.RegionPick == "" && len(view.Filtered.Regions) > 0 {
		data.RegionPick = view.Filtered.Regions[0].Region
	}
	if data.CountryPick == "" && len(view.Table.Rows) > 0 {
		data.CountryPick = firstCountry(view)
	}

	if data.RegionPick != "" {
		d, err := s.service.RegionDetail(ctx, sel, data.RegionPick)
		switch {
		case err == nil:
			data.Region = &d
		case !errors.Is(err, core.ErrUnknownRegion):
			s.respondError(w, r, err, statusFor(err))
			return
		}
	}
	if data.CountryPick != "" {
		d, err := s.service.CountryDetail(ctx, sel.Currency, data.CountryPick)
		switch {
		case err == nil:
			data.Country = &d
		case !errors.Is(err, core.ErrUnknownCountry):
			s.respondError(w, r, err, statusFor(err))
			return
		}
	}

	var buf bytes.Buffer
	err = s.renders.Do(ctx, func() error {
		return templates.Dashboard(data).Render(ctx, &buf)
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func firstCountry(view *core.View) string {
	first := ""
	for _, c := range view.Filtered.Countries {
		if first == "" || c.Country < first {
			first = c.Country
		}
	}
	return first
}

// handleChart renders one chart of the current selection as SVG.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	sel, err := s.parseSelection(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	view, err := s.service.View(r.Context(), sel)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	err = s.renders.Do(r.Context(), func() error {
		return charts.Render(&buf, name, view.Filtered, sel.TopN)
	})
	if err != nil {
		if errors.Is(err, charts.ErrUnknownChart) {
			http.NotFound(w, r)
			return
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status  string            `json:"status"`
	Dataset *core.DatasetInfo `json:"dataset,omitempty"`
	Cache   any               `json:"cache"`
	Renders core.RenderStatus `json:"renders"`
	Error   *ErrorResponse    `json:"error,omitempty"`
}

// handleHealth reports whether the workbook can be loaded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info, stats, err := s.service.Health(r.Context())
	if err != nil {
		msg := core.MapError(err)
		logging.FromContext(r.Context()).Warn("health check failed", "error", err, "code", msg.Code)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, HealthResponse{
			Status:  "unavailable",
			Cache:   stats,
			Renders: s.renders.Status(),
			Error:   &ErrorResponse{Error: msg.Message, Message: msg.Message, Action: msg.Action, Code: msg.Code},
		})
		return
	}

	writeJSON(w, HealthResponse{Status: "ok", Dataset: &info, Cache: stats, Renders: s.renders.Status()})
}
