package service

import (
	"context"
	"time"

	"building_automation/internal/logger"
	"building_automation/internal/models"
	"building_automation/internal/repository"
)

// Automation is the rule engine: CRUD, enable/disable, relearn and pattern
// analysis for per-device automation rules.
type Automation interface {
	GetRule(ctx context.Context, deviceID string) (*models.AutomationRule, error)
	CreateManualRule(ctx context.Context, deviceID string, spec RuleSpec, actor string) (*RuleResult, error)
	UpdateRule(ctx context.Context, deviceID string, patch RulePatch, actor string) (*RuleResult, error)
	DeleteRule(ctx context.Context, deviceID string) error
	ClearHistoryAndRelearn(ctx context.Context, deviceID string) (int, error)
	EventHistoryCount(ctx context.Context, deviceID string) (int, error)
	DetectPatterns(ctx context.Context, deviceID string, windowDays int) (*PatternReport, error)
	ValidateStages(schedules []models.DaySchedule) ValidationReport
}

// UsageLog is the append path for device ON/OFF transitions reported by the
// bridge, plus read access for the UI.
type UsageLog interface {
	Record(ctx context.Context, deviceID string, status models.DeviceStatus) (models.UsageEvent, error)
	History(ctx context.Context, deviceID string, since time.Time) ([]models.UsageEvent, error)
	Count(ctx context.Context, deviceID string) (int, error)
}

// DeviceLocks reads and records the building-wide lock flag. Writes come only
// from the bridge; the bulk automation path owns the flag.
type DeviceLocks interface {
	IsLocked(ctx context.Context, deviceID string) (bool, error)
	SetLock(ctx context.Context, deviceID string, locked bool, mode string) error
}

// Executor runs the background loop that applies enabled rules to devices.
// Stop via context cancellation in main() for graceful shutdown.
type Executor interface {
	Run(ctx context.Context, tick time.Duration)
}

// CommandSink delivers switch commands to the hardware bridge.
type CommandSink interface {
	Switch(ctx context.Context, deviceID string, status models.DeviceStatus) error
}

// Service aggregates all sub-services.
type Service struct {
	Automation
	UsageLog
	DeviceLocks
	Executor
}

// NewService wires the repository layer into concrete services. The sink is
// where the executor sends switch commands (the websocket bridge hub in
// production).
func NewService(repos *repository.Repository, sink CommandSink, log *logger.Logger) *Service {
	return &Service{
		Automation:  NewAutomationService(repos.Rules, repos.Events, NewSessionDetector()),
		UsageLog:    NewUsageLogService(repos.Events),
		DeviceLocks: NewLockService(repos.Locks),
		Executor:    NewExecutorService(repos.Rules, repos.Locks, sink, log),
	}
}
