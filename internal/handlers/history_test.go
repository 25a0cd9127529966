package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"building_automation/internal/models"
	"building_automation/internal/service"
)

func TestGetEvents_ReturnsCountAndEvents(t *testing.T) {
	usage := &mockUsageLog{history: []models.UsageEvent{
		{ID: "ev-1", DeviceID: "dev1", Status: models.StatusOn, Hour: 8},
		{ID: "ev-2", DeviceID: "dev1", Status: models.StatusOff, Hour: 18},
	}}
	r := newTestRouter(&service.Service{UsageLog: usage})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/events", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count  int                 `json:"count"`
		Events []models.UsageEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if resp.Count != 2 || len(resp.Events) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if !usage.lastSince.IsZero() {
		t.Fatalf("no 'since' query must read the whole log, got %v", usage.lastSince)
	}
}

func TestGetEvents_SinceQueryFormats(t *testing.T) {
	usage := &mockUsageLog{}
	r := newTestRouter(&service.Service{UsageLog: usage})

	cases := []struct {
		name  string
		query string
		want  time.Time
	}{
		{"rfc3339", "2026-08-24T08:00:00Z", time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)},
		{"datetime", "2026-08-24 08:00:00", time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)},
		{"date only", "2026-08-24", time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/events?since="+url.QueryEscape(tc.query), nil)
			r.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
			}
			if !usage.lastSince.Equal(tc.want) {
				t.Fatalf("since = %v, want %v", usage.lastSince, tc.want)
			}
		})
	}

	// Unparseable bound → 400, service untouched.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/events?since=yesterday", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad 'since', got %d", w.Code)
	}
}

func TestGetEventCount(t *testing.T) {
	auto := &mockAutomation{count: 30}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/events/count", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Count int `json:"count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Count != 30 {
		t.Fatalf("count = %d, want 30", resp.Count)
	}
}

func TestRelearn_ReturnsClearedCount(t *testing.T) {
	auto := &mockAutomation{cleared: 12}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev1/relearn", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Cleared int `json:"cleared_event_count"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Cleared != 12 {
		t.Fatalf("cleared = %d, want 12", resp.Cleared)
	}
}

func TestRelearn_ServiceFailureIs500(t *testing.T) {
	auto := &mockAutomation{clearErr: errors.New("store down")}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev1/relearn", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != errRelearn {
		t.Fatalf("internal detail leaked: %q", resp.Error)
	}
}

func TestGetPatterns_WindowQuery(t *testing.T) {
	auto := &mockAutomation{report: &service.PatternReport{DeviceID: "dev1", WindowDays: 14}}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/patterns?window_days=14", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if auto.lastWindowDays != 14 {
		t.Fatalf("window_days = %d, want 14", auto.lastWindowDays)
	}

	// Default window when the query is omitted.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/patterns", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if auto.lastWindowDays != defaultWindowDays {
		t.Fatalf("window_days = %d, want default %d", auto.lastWindowDays, defaultWindowDays)
	}

	// Non-integer query → 400 before the service is involved.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/patterns?window_days=week", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetPatterns_UnsupportedWindowIs400(t *testing.T) {
	auto := &mockAutomation{reportErr: models.NewValidationError("window_days must be one of 7, 14, 30")}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/patterns?window_days=10", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetLock(t *testing.T) {
	locks := &mockLocks{locked: true}
	r := newTestRouter(&service.Service{DeviceLocks: locks})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/lock", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		DeviceID string `json:"device_id"`
		Locked   bool   `json:"locked"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.DeviceID != "dev1" || !resp.Locked {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
