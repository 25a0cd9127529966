package handlers

import (
	"context"
	"time"

	"building_automation/internal/models"
	"building_automation/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAutomation struct {
	rule       *models.AutomationRule
	getErr     error
	createResp *service.RuleResult
	createErr  error
	updateResp *service.RuleResult
	updateErr  error
	deleteErr  error
	cleared    int
	clearErr   error
	count      int
	countErr   error
	report     *service.PatternReport
	reportErr  error
	validation service.ValidationReport

	lastDeviceID   string
	lastSpec       service.RuleSpec
	lastPatch      service.RulePatch
	lastActor      string
	lastWindowDays int
	lastStages     []models.DaySchedule
	deleteCalls    int
}

func (m *mockAutomation) GetRule(ctx context.Context, deviceID string) (*models.AutomationRule, error) {
	m.lastDeviceID = deviceID
	return m.rule, m.getErr
}
func (m *mockAutomation) CreateManualRule(ctx context.Context, deviceID string, spec service.RuleSpec, actor string) (*service.RuleResult, error) {
	m.lastDeviceID = deviceID
	m.lastSpec = spec
	m.lastActor = actor
	return m.createResp, m.createErr
}
func (m *mockAutomation) UpdateRule(ctx context.Context, deviceID string, patch service.RulePatch, actor string) (*service.RuleResult, error) {
	m.lastDeviceID = deviceID
	m.lastPatch = patch
	m.lastActor = actor
	return m.updateResp, m.updateErr
}
func (m *mockAutomation) DeleteRule(ctx context.Context, deviceID string) error {
	m.lastDeviceID = deviceID
	m.deleteCalls++
	return m.deleteErr
}
func (m *mockAutomation) ClearHistoryAndRelearn(ctx context.Context, deviceID string) (int, error) {
	m.lastDeviceID = deviceID
	return m.cleared, m.clearErr
}
func (m *mockAutomation) EventHistoryCount(ctx context.Context, deviceID string) (int, error) {
	m.lastDeviceID = deviceID
	return m.count, m.countErr
}
func (m *mockAutomation) DetectPatterns(ctx context.Context, deviceID string, windowDays int) (*service.PatternReport, error) {
	m.lastDeviceID = deviceID
	m.lastWindowDays = windowDays
	return m.report, m.reportErr
}
func (m *mockAutomation) ValidateStages(schedules []models.DaySchedule) service.ValidationReport {
	m.lastStages = schedules
	return m.validation
}

type mockUsageLog struct {
	recorded  []models.UsageEvent
	recordErr error
	history   []models.UsageEvent
	histErr   error
	count     int
	countErr  error

	lastDeviceID string
	lastSince    time.Time
}

func (m *mockUsageLog) Record(ctx context.Context, deviceID string, status models.DeviceStatus) (models.UsageEvent, error) {
	if m.recordErr != nil {
		return models.UsageEvent{}, m.recordErr
	}
	ev := models.UsageEvent{DeviceID: deviceID, Status: status, Timestamp: time.Now().UTC()}
	m.recorded = append(m.recorded, ev)
	return ev, nil
}
func (m *mockUsageLog) History(ctx context.Context, deviceID string, since time.Time) ([]models.UsageEvent, error) {
	m.lastDeviceID = deviceID
	m.lastSince = since
	return m.history, m.histErr
}
func (m *mockUsageLog) Count(ctx context.Context, deviceID string) (int, error) {
	m.lastDeviceID = deviceID
	return m.count, m.countErr
}

type mockLocks struct {
	locked  bool
	lockErr error
	setErr  error

	lastDeviceID string
	lastLocked   bool
	lastMode     string
}

func (m *mockLocks) IsLocked(ctx context.Context, deviceID string) (bool, error) {
	m.lastDeviceID = deviceID
	return m.locked, m.lockErr
}
func (m *mockLocks) SetLock(ctx context.Context, deviceID string, locked bool, mode string) error {
	m.lastDeviceID = deviceID
	m.lastLocked = locked
	m.lastMode = mode
	return m.setErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, NewBridgeHub(nil), nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
