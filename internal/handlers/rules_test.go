package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"building_automation/internal/models"
	"building_automation/internal/service"
)

func TestGetRule_FoundAndMissing(t *testing.T) {
	auto := &mockAutomation{rule: &models.AutomationRule{
		DeviceID: "dev1",
		Start:    "08:00",
		End:      "18:00",
		Source:   models.SourceManual,
	}}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev1/automation", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var rule models.AutomationRule
	if err := json.Unmarshal(w.Body.Bytes(), &rule); err != nil {
		t.Fatalf("unmarshal rule: %v", err)
	}
	if rule.DeviceID != "dev1" || rule.Start != "08:00" {
		t.Fatalf("unexpected rule: %+v", rule)
	}
	if auto.lastDeviceID != "dev1" {
		t.Fatalf("expected path device id forwarded, got %q", auto.lastDeviceID)
	}

	// No stored rule → 404
	auto.rule = nil
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/devices/ghost/automation", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing rule, got %d", w.Code)
	}
}

func TestCreateRule_ForwardsSpecAndReturns201(t *testing.T) {
	auto := &mockAutomation{createResp: &service.RuleResult{
		Rule: models.AutomationRule{DeviceID: "dev1", Enabled: false, Source: models.SourceManual},
	}}
	r := newTestRouter(&service.Service{Automation: auto})

	body := map[string]any{
		"multi_stage": false,
		"start_time":  "08:00",
		"end_time":    "18:00",
		"created_by":  "a@b.com",
	}
	raw, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev1/automation", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if auto.lastSpec.StartTime != "08:00" || auto.lastSpec.EndTime != "18:00" {
		t.Fatalf("spec not forwarded: %+v", auto.lastSpec)
	}
	if auto.lastActor != "a@b.com" {
		t.Fatalf("actor not forwarded: %q", auto.lastActor)
	}
	var resp service.RuleResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if resp.Rule.Enabled {
		t.Fatalf("expected disabled rule in response")
	}
}

func TestCreateRule_ValidationErrorReturns400WithAllViolations(t *testing.T) {
	auto := &mockAutomation{createErr: &models.ValidationError{
		Errors:   []string{"Monday: Overlapping stages detected", "Tuesday Stage 1: Start time must be before end time"},
		Warnings: []string{"Friday: No stages defined"},
	}}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev1/automation", bytes.NewReader([]byte(`{"multi_stage":true}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(resp.Errors) != 2 || len(resp.Warnings) != 1 {
		t.Fatalf("expected every violation surfaced, got %+v", resp)
	}
}

func TestCreateRule_MalformedBodyReturns400(t *testing.T) {
	r := newTestRouter(&service.Service{Automation: &mockAutomation{}})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev1/automation", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdateRule_EnableToggleAndNotFound(t *testing.T) {
	auto := &mockAutomation{updateResp: &service.RuleResult{
		Rule: models.AutomationRule{DeviceID: "dev1", Enabled: true},
	}}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/devices/dev1/automation", bytes.NewReader([]byte(`{"enabled":true,"updated_by":"a@b.com"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if auto.lastPatch.Enabled == nil || !*auto.lastPatch.Enabled {
		t.Fatalf("enabled flag not forwarded: %+v", auto.lastPatch)
	}

	auto.updateResp = nil
	auto.updateErr = models.ErrRuleNotFound
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/devices/ghost/automation", bytes.NewReader([]byte(`{"enabled":true}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when enabling a missing rule, got %d", w.Code)
	}
}

func TestDeleteRule_Returns204(t *testing.T) {
	auto := &mockAutomation{}
	r := newTestRouter(&service.Service{Automation: auto})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/devices/dev1/automation", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if auto.deleteCalls != 1 {
		t.Fatalf("expected DeleteRule called once, got %d", auto.deleteCalls)
	}
}

func TestValidateStages_DryRunReturnsReport(t *testing.T) {
	auto := &mockAutomation{validation: service.ValidationReport{
		Valid:      false,
		Errors:     []string{"Monday: Overlapping stages detected"},
		Warnings:   []string{"Tuesday: No stages defined"},
		StageCount: 2,
	}}
	r := newTestRouter(&service.Service{Automation: auto})

	body := `{"stages":[{"day":"Monday","stages":[{"start":"08:00","end":"12:00"},{"start":"10:00","end":"14:00"}]}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev1/automation/validate", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var resp service.ValidationReport
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if resp.Valid || len(resp.Errors) != 1 || resp.StageCount != 2 {
		t.Fatalf("unexpected report: %+v", resp)
	}
	if len(auto.lastStages) != 1 || auto.lastStages[0].Day != models.Monday {
		t.Fatalf("stages not forwarded: %+v", auto.lastStages)
	}
}
