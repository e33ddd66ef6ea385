package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/paulmach/orb/geojson"

	"argusgo/pkg/config"
	"argusgo/pkg/coverage"
	"argusgo/pkg/prefs"
)

// CoverageHandler serves the radar coverage footprint derived from the
// active sensitivity policy.
type CoverageHandler struct {
	ctrl    *prefs.Controller
	cfgProv config.Provider
}

// NewCoverageHandler creates a new CoverageHandler.
func NewCoverageHandler(ctrl *prefs.Controller, cfg config.Provider) *CoverageHandler {
	return &CoverageHandler{ctrl: ctrl, cfgProv: cfg}
}

// CoverageResponse represents the coverage API response.
type CoverageResponse struct {
	Preset    string           `json:"preset"`
	RadiusKm  float64          `json:"radius_km"`
	Units     string           `json:"units"`
	Footprint *geojson.Feature `json:"footprint"`
	Cells     []string         `json:"cells"`
}

// Handle returns the coverage footprint for the current policy. The
// site can be overridden per-request with lat/lon query parameters.
func (h *CoverageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	site := coverage.Site{
		Lat: h.cfgProv.SiteLat(ctx),
		Lon: h.cfgProv.SiteLon(ctx),
	}
	if raw := r.URL.Query().Get("lat"); raw != "" {
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil || val < -90 || val > 90 {
			http.Error(w, "Invalid lat", http.StatusBadRequest)
			return
		}
		site.Lat = val
	}
	if raw := r.URL.Query().Get("lon"); raw != "" {
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil || val < -180 || val > 180 {
			http.Error(w, "Invalid lon", http.StatusBadRequest)
			return
		}
		site.Lon = val
	}

	p, pol := h.ctrl.Snapshot()
	res := h.cfgProv.CellResolution(ctx)

	resp := CoverageResponse{
		Preset:    string(p),
		RadiusKm:  pol.MaxRangeKm,
		Units:     h.cfgProv.RangeRingUnits(ctx),
		Footprint: coverage.Feature(site, pol.MaxRangeKm),
		Cells:     coverage.Cells(site, pol.MaxRangeKm, res),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode coverage response", "error", err)
	}
}
