package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/urbanscope/citysearch/internal/export"
	"github.com/urbanscope/citysearch/internal/paginate"
	"github.com/urbanscope/citysearch/pkg/geocode"
)

type handler struct {
	client  geocode.Client
	perPage int
	popular []geocode.PopularCity
}

type searchResponse struct {
	Query    string               `json:"query"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PerPage  int                  `json:"per_page"`
	LastPage int                  `json:"last_page"`
	Results  []geocode.CityResult `json:"results"`
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	page, ok := intParam(w, q.Get("page"), "page", 1)
	if !ok {
		return
	}
	perPage, ok := intParam(w, q.Get("per_page"), "per_page", h.perPage)
	if !ok {
		return
	}

	results := h.client.SearchCities(r.Context(), query)
	p := paginate.Of(results, page, perPage)

	switch q.Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, searchResponse{
			Query:    query,
			Total:    p.Total,
			Page:     p.Page,
			PerPage:  p.PerPage,
			LastPage: p.LastPage,
			Results:  p.Items,
		})
	case "geojson":
		w.Header().Set("Content-Type", "application/geo+json")
		if err := export.GeoJSON(w, p.Items); err != nil {
			zap.L().Warn("api: write geojson", zap.Error(err))
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be json or geojson")
	}
}

func (h *handler) reverse(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := geocode.ParseCoordinates(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat must be in [-90, 90] and lon in [-180, 180]")
		return
	}
	res := h.client.ReverseGeocode(r.Context(), lat, lon)
	if res == nil {
		writeError(w, http.StatusNotFound, "no city found at these coordinates")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) popularCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, geocode.FilterPopular(h.popular, r.URL.Query().Get("prefix")))
}

func (h *handler) distance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat1, lon1, err := geocode.ParseCoordinates(q.Get("lat1"), q.Get("lon1"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid first point")
		return
	}
	lat2, lon2, err := geocode.ParseCoordinates(q.Get("lat2"), q.Get("lon2"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid second point")
		return
	}
	km, err := geocode.DistanceChecked(lat1, lon1, lat2, lon2)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"km": km})
}

// intParam parses an optional positive integer query parameter.
func intParam(w http.ResponseWriter, raw, name string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		writeError(w, http.StatusBadRequest, name+" must be a positive integer")
		return 0, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
