// Package web provides HTTP handlers for the export dashboard.
// This file contains shared utilities and helper functions used across handlers.
package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/cable-exports/internal/core"
	"github.com/JonMunkholm/cable-exports/internal/model"
	"github.com/JonMunkholm/cable-exports/internal/rollup"
)

// Selection query parameters.
const (
	paramRegion   = "region"
	paramCountry  = "country"
	paramCurrency = "currency"
	paramTop      = "top"

	paramPickRegion  = "pick_region"
	paramPickCountry = "pick_country"
)

// parseSelection reads the filter and display choices from the query.
// An absent region or country parameter selects everything; a parameter
// that is present but carries no non-empty value selects nothing.
func (s *Server) parseSelection(r *http.Request) (rollup.Selection, error) {
	q := r.URL.Query()
	sel := s.service.DefaultSelection()

	sel.Regions = parseSet(q, paramRegion)
	sel.Countries = parseSet(q, paramCountry)

	if raw := q.Get(paramCurrency); raw != "" {
		cur, err := model.ParseCurrency(raw)
		if err != nil {
			return sel, fmt.Errorf("%w: %v", core.ErrInvalidSelection, err)
		}
		sel.Currency = cur
	}

	if raw := strings.TrimSpace(q.Get(paramTop)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return sel, fmt.Errorf("%w: top %q is not a number", core.ErrInvalidSelection, raw)
		}
		sel.TopN = n
	}
	sel.TopN = s.service.ClampTopN(sel.TopN)

	return sel, nil
}

// parseSet returns nil when key is absent, otherwise the set of its
// non-empty values. Values are kept verbatim since names group by exact
// spelling, trailing spaces included.
func parseSet(q url.Values, key string) rollup.Set {
	values, ok := q[key]
	if !ok {
		return nil
	}

	set := rollup.NewSet()
	for _, v := range values {
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// selectionQuery keeps the selection and drill-down parameters of q so
// links and forms can carry them forward.
func selectionQuery(q url.Values) url.Values {
	out := make(url.Values)
	for _, key := range []string{paramRegion, paramCountry, paramCurrency, paramTop, paramPickRegion, paramPickCountry} {
		if values, ok := q[key]; ok {
			out[key] = append([]string(nil), values...)
		}
	}
	return out
}

// parseCurrency reads only the currency parameter, defaulting to USD.
func parseCurrency(r *http.Request) (model.Currency, error) {
	cur, err := model.ParseCurrency(r.URL.Query().Get(paramCurrency))
	if err != nil {
		return cur, fmt.Errorf("%w: %v", core.ErrInvalidSelection, err)
	}
	return cur, nil
}
