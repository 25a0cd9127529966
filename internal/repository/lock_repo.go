package repository

import (
	"building_automation/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type LockSQLite struct {
	db *sql.DB
}

func NewLockSQLite(db *sql.DB) *LockSQLite { return &LockSQLite{db: db} }

var _ LockRepo = (*LockSQLite)(nil)

const (
	upsertLockSQL = `
		INSERT INTO device_locks (device_id, locked, mode, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			locked=excluded.locked,
			mode=excluded.mode,
			updated_at=excluded.updated_at
	`

	selectLockSQL = `SELECT locked FROM device_locks WHERE device_id = ?`
)

// IsLocked reports the building-wide lock flag. A device with no lock row has
// never been locked.
func (r *LockSQLite) IsLocked(ctx context.Context, deviceID string) (bool, error) {
	var locked bool
	err := r.db.QueryRowContext(ctx, selectLockSQL, deviceID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load lock for %q: %w", deviceID, err)
	}
	return locked, nil
}

// Set records a lock update pushed by the bridge.
func (r *LockSQLite) Set(ctx context.Context, lock models.DeviceLock) error {
	tsUTC := lock.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}
	if _, err := r.db.ExecContext(ctx, upsertLockSQL, lock.DeviceID, lock.Locked, lock.Mode, tsUTC); err != nil {
		return fmt.Errorf("store lock for %q: %w", lock.DeviceID, err)
	}
	return nil
}
