package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"argusgo/pkg/notify"
	"argusgo/pkg/prefs"
	"argusgo/pkg/preset"
	"argusgo/pkg/store"
)

type mockStore struct {
	store.Store
	state map[string]string
	audit []store.AuditEntry
}

func newMockStore() *mockStore {
	return &mockStore{state: make(map[string]string)}
}

func (m *mockStore) GetState(ctx context.Context, key string) (string, bool) {
	val, ok := m.state[key]
	return val, ok
}

func (m *mockStore) SetState(ctx context.Context, key, val string) error {
	m.state[key] = val
	return nil
}

func (m *mockStore) DeleteState(ctx context.Context, key string) error {
	delete(m.state, key)
	return nil
}

func (m *mockStore) StateVersion(ctx context.Context) (int64, error) {
	return int64(len(m.state)), nil
}

func (m *mockStore) AppendAudit(ctx context.Context, presetVal, source string) error {
	m.audit = append(m.audit, store.AuditEntry{
		ID:        int64(len(m.audit) + 1),
		Preset:    presetVal,
		Source:    source,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *mockStore) RecentAudit(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	out := make([]store.AuditEntry, 0, len(m.audit))
	for i := len(m.audit) - 1; i >= 0; i-- {
		out = append(out, m.audit[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func newTestPrefsHandler(t *testing.T, st *mockStore) *PrefsHandler {
	t.Helper()
	bus := notify.NewBus()
	ctrl := prefs.New(context.Background(), st, st, bus)
	t.Cleanup(ctrl.Close)
	return NewPrefsHandler(ctrl, st)
}

func TestHandleSensitivityGet(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		wantPreset string
		wantScan   string
		wantRange  float64
	}{
		{
			name:       "Default When Empty",
			wantPreset: "balanced",
			wantScan:   "2s",
			wantRange:  80,
		},
		{
			name:       "Stored Aggressive",
			stored:     "aggressive",
			wantPreset: "aggressive",
			wantScan:   "1s",
			wantRange:  160,
		},
		{
			name:       "Corrupt Value Falls Back",
			stored:     "ludicrous",
			wantPreset: "balanced",
			wantScan:   "2s",
			wantRange:  80,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMockStore()
			if tt.stored != "" {
				st.state[preset.Key] = tt.stored
			}
			h := newTestPrefsHandler(t, st)

			req := httptest.NewRequest("GET", "/api/preferences/sensitivity", nil)
			w := httptest.NewRecorder()
			h.HandleSensitivity(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200 OK, got %d", w.Code)
			}

			var got SensitivityResponse
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if got.Preset != tt.wantPreset {
				t.Errorf("Preset = %q, want %q", got.Preset, tt.wantPreset)
			}
			if got.Policy.ScanInterval != tt.wantScan {
				t.Errorf("ScanInterval = %q, want %q", got.Policy.ScanInterval, tt.wantScan)
			}
			if got.Policy.MaxRangeKm != tt.wantRange {
				t.Errorf("MaxRangeKm = %f, want %f", got.Policy.MaxRangeKm, tt.wantRange)
			}
		})
	}
}

func TestHandleSensitivitySet(t *testing.T) {
	st := newMockStore()
	h := newTestPrefsHandler(t, st)

	// Both POST and PUT should be supported.
	methods := []string{"POST", "PUT"}
	for _, method := range methods {
		body, _ := json.Marshal(SensitivityRequest{Preset: "conservative"})
		req := httptest.NewRequest(method, "/api/preferences/sensitivity", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		h.HandleSensitivity(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("method %s: expected 200 OK, got %d. Body: %s", method, w.Code, w.Body.String())
		}
		if val := st.state[preset.Key]; val != "conservative" {
			t.Errorf("method %s: Store[%q] = %q, want %q", method, preset.Key, val, "conservative")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("method %s: missing CORS header Access-Control-Allow-Origin", method)
		}

		var got SensitivityResponse
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("method %s: failed to decode response: %v", method, err)
		}
		if got.Preset != "conservative" {
			t.Errorf("method %s: response preset = %q", method, got.Preset)
		}
		if got.Policy.MaxTracks != 16 {
			t.Errorf("method %s: MaxTracks = %d, want 16", method, got.Policy.MaxTracks)
		}
	}

	t.Run("CORS and OPTIONS", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/api/preferences/sensitivity", nil)
		w := httptest.NewRecorder()
		h.HandleSensitivity(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("OPTIONS: expected 200 OK, got %d", w.Code)
		}
		if w.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("OPTIONS: missing Access-Control-Allow-Methods")
		}
	})

	t.Run("Invalid Preset", func(t *testing.T) {
		body, _ := json.Marshal(SensitivityRequest{Preset: "turbo"})
		req := httptest.NewRequest("POST", "/api/preferences/sensitivity", bytes.NewBuffer(body))
		w := httptest.NewRecorder()
		h.HandleSensitivity(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", w.Code)
		}
		// The rejected value must not reach the store.
		if val, ok := st.state[preset.Key]; ok && val == "turbo" {
			t.Error("invalid preset leaked into the store")
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/preferences/sensitivity", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		h.HandleSensitivity(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", w.Code)
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		req := httptest.NewRequest("DELETE", "/api/preferences/sensitivity", nil)
		w := httptest.NewRecorder()
		h.HandleSensitivity(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", w.Code)
		}
	})
}

func TestHandleHistory(t *testing.T) {
	st := newMockStore()
	h := newTestPrefsHandler(t, st)

	for _, p := range []string{"aggressive", "conservative"} {
		body, _ := json.Marshal(SensitivityRequest{Preset: p})
		req := httptest.NewRequest("POST", "/api/preferences/sensitivity", bytes.NewBuffer(body))
		h.HandleSensitivity(httptest.NewRecorder(), req)
	}

	req := httptest.NewRequest("GET", "/api/preferences/history", nil)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	var got []HistoryEntry
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	// Newest first.
	if got[0].Preset != "conservative" || got[1].Preset != "aggressive" {
		t.Errorf("unexpected order: %q, %q", got[0].Preset, got[1].Preset)
	}
	if got[0].Source != "local" {
		t.Errorf("Source = %q, want local", got[0].Source)
	}

	t.Run("Limit", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/preferences/history?limit=1", nil)
		w := httptest.NewRecorder()
		h.HandleHistory(w, req)
		var got []HistoryEntry
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 entry, got %d", len(got))
		}
	})

	t.Run("Invalid Limit", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/preferences/history?limit=zero", nil)
		w := httptest.NewRecorder()
		h.HandleHistory(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400 Bad Request, got %d", w.Code)
		}
	})
}
