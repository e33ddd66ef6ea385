package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"argusgo/pkg/prefs"
	"argusgo/pkg/preset"
	"argusgo/pkg/store"
)

// PrefsHandler handles sensitivity preference API requests.
type PrefsHandler struct {
	ctrl  *prefs.Controller
	audit store.AuditStore
}

// NewPrefsHandler creates a new PrefsHandler.
func NewPrefsHandler(ctrl *prefs.Controller, audit store.AuditStore) *PrefsHandler {
	return &PrefsHandler{ctrl: ctrl, audit: audit}
}

// PolicyResponse is the wire form of a detection policy. Durations are
// rendered as strings ("2s") so clients never parse nanosecond counts.
type PolicyResponse struct {
	MinConfidence float64 `json:"min_confidence"`
	MaxRangeKm    float64 `json:"max_range_km"`
	ScanInterval  string  `json:"scan_interval"`
	TrackTimeout  string  `json:"track_timeout"`
	MaxTracks     int     `json:"max_tracks"`
	ClutterFilter bool    `json:"clutter_filter"`
}

// SensitivityResponse represents the sensitivity API response.
type SensitivityResponse struct {
	Preset string         `json:"preset"`
	Policy PolicyResponse `json:"policy"`
}

// SensitivityRequest represents a sensitivity update.
type SensitivityRequest struct {
	Preset string `json:"preset"`
}

func policyResponse(pol preset.Policy) PolicyResponse {
	return PolicyResponse{
		MinConfidence: pol.MinConfidence,
		MaxRangeKm:    pol.MaxRangeKm,
		ScanInterval:  pol.ScanInterval.String(),
		TrackTimeout:  pol.TrackTimeout.String(),
		MaxTracks:     pol.MaxTracks,
		ClutterFilter: pol.ClutterFilter,
	}
}

// HandleSensitivity is a unified handler for all sensitivity methods, facilitating CORS/OPTIONS.
func (h *PrefsHandler) HandleSensitivity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPut, http.MethodPost:
		h.handleSet(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PrefsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, pol := h.ctrl.Snapshot()
	resp := SensitivityResponse{Preset: string(p), Policy: policyResponse(pol)}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode sensitivity response", "error", err)
	}
}

func (h *PrefsHandler) handleSet(w http.ResponseWriter, r *http.Request) {
	var req SensitivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	if err := h.ctrl.SetPreset(r.Context(), preset.Preset(req.Preset)); err != nil {
		if errors.Is(err, prefs.ErrInvalidPreset) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Failed to persist sensitivity", "preset", req.Preset, "error", err)
		http.Error(w, "Failed to persist preference", http.StatusInternalServerError)
		return
	}

	// Return updated state
	h.handleGet(w, r)
}

// HistoryEntry represents one audit record in the history response.
type HistoryEntry struct {
	ID        int64  `json:"id"`
	Preset    string `json:"preset"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

// HandleHistory returns the most recent preset changes, newest first.
func (h *PrefsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = val
	}

	entries, err := h.audit.RecentAudit(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to read audit history", "error", err)
		http.Error(w, "Failed to read history", http.StatusInternalServerError)
		return
	}

	resp := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, HistoryEntry{
			ID:        e.ID,
			Preset:    e.Preset,
			Source:    e.Source,
			CreatedAt: e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode history response", "error", err)
	}
}
