package repository

import (
	"building_automation/internal/models"
	"context"
	"database/sql"
	"time"
)

// RuleRepo persists at most one automation rule per device (full replace).
type RuleRepo interface {
	Get(ctx context.Context, deviceID string) (*models.AutomationRule, error) // nil, nil when absent
	Put(ctx context.Context, rule models.AutomationRule) error
	Delete(ctx context.Context, deviceID string) error
	ListEnabled(ctx context.Context) ([]models.AutomationRule, error)
}

// EventRepo is the capacity-bounded usage event log. Append enforces the
// 30-event FIFO cap atomically.
type EventRepo interface {
	Append(ctx context.Context, e models.UsageEvent) error
	ReadWindow(ctx context.Context, deviceID string, since time.Time) ([]models.UsageEvent, error)
	Clear(ctx context.Context, deviceID string) (int, error)
	Count(ctx context.Context, deviceID string) (int, error)
}

// LockRepo holds the building-wide lock flag per device.
type LockRepo interface {
	IsLocked(ctx context.Context, deviceID string) (bool, error)
	Set(ctx context.Context, lock models.DeviceLock) error
}

type Repository struct {
	Rules  RuleRepo
	Events EventRepo
	Locks  LockRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Rules:  NewRuleSQLite(db),
		Events: NewEventSQLite(db),
		Locks:  NewLockSQLite(db),
	}
}
