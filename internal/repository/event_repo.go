package repository

import (
	"building_automation/internal/models"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

var _ EventRepo = (*EventSQLite)(nil)

const (
	insertEventSQL = `
		INSERT INTO usage_events (id, device_id, status, occurred_at, hour)
		VALUES (?, ?, ?, ?, ?)
	`

	// rowid grows with insertion order, so ordering by it breaks timestamp ties
	// in true FIFO order.
	pruneEventsSQL = `
		DELETE FROM usage_events
		WHERE device_id = ? AND rowid NOT IN (
			SELECT rowid FROM usage_events
			WHERE device_id = ?
			ORDER BY occurred_at DESC, rowid DESC
			LIMIT ?
		)
	`

	selectWindowSQL = `
		SELECT id, device_id, status, occurred_at, hour
		FROM usage_events
		WHERE device_id = ? AND occurred_at >= ?
		ORDER BY occurred_at ASC, rowid ASC
	`

	clearEventsSQL = `DELETE FROM usage_events WHERE device_id = ?`

	countEventsSQL = `SELECT COUNT(*) FROM usage_events WHERE device_id = ?`
)

// Append inserts a new event and evicts the oldest entries beyond the 30-event
// cap in the same transaction, so concurrent appends cannot break the cap or
// the FIFO order. Missing ID/timestamp are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.UsageEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	} else {
		e.Timestamp = e.Timestamp.UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append for %q: %w", e.DeviceID, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertEventSQL,
		e.ID, e.DeviceID, string(e.Status), e.Timestamp, e.Hour,
	); err != nil {
		return fmt.Errorf("insert event for %q: %w", e.DeviceID, err)
	}
	if _, err := tx.ExecContext(ctx, pruneEventsSQL,
		e.DeviceID, e.DeviceID, models.EventLogCapacity,
	); err != nil {
		return fmt.Errorf("prune events for %q: %w", e.DeviceID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append for %q: %w", e.DeviceID, err)
	}
	return nil
}

// ReadWindow returns a device's events at or after since, oldest first.
// A zero since returns the whole log.
func (r *EventSQLite) ReadWindow(ctx context.Context, deviceID string, since time.Time) ([]models.UsageEvent, error) {
	rows, err := r.db.QueryContext(ctx, selectWindowSQL, deviceID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("read events for %q: %w", deviceID, err)
	}
	defer rows.Close()

	out := make([]models.UsageEvent, 0, models.EventLogCapacity)
	for rows.Next() {
		var (
			ev     models.UsageEvent
			status string
		)
		if err := rows.Scan(&ev.ID, &ev.DeviceID, &status, &ev.Timestamp, &ev.Hour); err != nil {
			return nil, fmt.Errorf("scan event for %q: %w", deviceID, err)
		}
		ev.Status = models.DeviceStatus(status)
		ev.Timestamp = ev.Timestamp.UTC()
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events for %q: %w", deviceID, err)
	}
	return out, nil
}

// Clear removes a device's entire log and returns how many events were dropped.
func (r *EventSQLite) Clear(ctx context.Context, deviceID string) (int, error) {
	res, err := r.db.ExecContext(ctx, clearEventsSQL, deviceID)
	if err != nil {
		return 0, fmt.Errorf("clear events for %q: %w", deviceID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleared events for %q: %w", deviceID, err)
	}
	return int(n), nil
}

// Count returns the current log length for a device (0..30).
func (r *EventSQLite) Count(ctx context.Context, deviceID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, countEventsSQL, deviceID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events for %q: %w", deviceID, err)
	}
	return n, nil
}
