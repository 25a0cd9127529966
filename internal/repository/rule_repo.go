package repository

import (
	"building_automation/internal/models"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type RuleSQLite struct {
	db *sql.DB
}

func NewRuleSQLite(db *sql.DB) *RuleSQLite {
	return &RuleSQLite{db: db}
}

var _ RuleRepo = (*RuleSQLite)(nil)

const (
	upsertRuleSQL = `
		INSERT INTO automation_rules (device_id, multi_stage, start_time, end_time, active_days, schedules, enabled, source, based_on_events, stage_count, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			multi_stage=excluded.multi_stage,
			start_time=excluded.start_time,
			end_time=excluded.end_time,
			active_days=excluded.active_days,
			schedules=excluded.schedules,
			enabled=excluded.enabled,
			source=excluded.source,
			based_on_events=excluded.based_on_events,
			stage_count=excluded.stage_count,
			created_at=excluded.created_at,
			created_by=excluded.created_by
	`

	selectRuleSQL = `
		SELECT device_id, multi_stage, start_time, end_time, active_days, schedules, enabled, source, based_on_events, stage_count, created_at, created_by
		FROM automation_rules WHERE device_id = ?
	`

	selectEnabledRulesSQL = `
		SELECT device_id, multi_stage, start_time, end_time, active_days, schedules, enabled, source, based_on_events, stage_count, created_at, created_by
		FROM automation_rules WHERE enabled = 1 ORDER BY device_id
	`

	deleteRuleSQL = `DELETE FROM automation_rules WHERE device_id = ?`
)

// Put fully replaces the rule for rule.DeviceID (one logical write).
func (r *RuleSQLite) Put(ctx context.Context, rule models.AutomationRule) error {
	days, err := json.Marshal(rule.ActiveDays)
	if err != nil {
		return fmt.Errorf("marshal active days for %q: %w", rule.DeviceID, err)
	}
	schedules, err := json.Marshal(rule.Schedules)
	if err != nil {
		return fmt.Errorf("marshal schedules for %q: %w", rule.DeviceID, err)
	}

	tsUTC := rule.CreatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertRuleSQL,
		rule.DeviceID,
		rule.MultiStage,
		rule.Start,
		rule.End,
		string(days),
		string(schedules),
		rule.Enabled,
		string(rule.Source),
		rule.BasedOnEvents,
		rule.StageCount,
		tsUTC,
		rule.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("store rule for %q: %w", rule.DeviceID, err)
	}
	return nil
}

// Get fetches the rule for a device. Returns (nil, nil) if none is stored.
func (r *RuleSQLite) Get(ctx context.Context, deviceID string) (*models.AutomationRule, error) {
	row := r.db.QueryRowContext(ctx, selectRuleSQL, deviceID)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load rule for %q: %w", deviceID, err)
	}
	return rule, nil
}

// Delete removes the rule for a device. Deleting a missing rule is a no-op.
func (r *RuleSQLite) Delete(ctx context.Context, deviceID string) error {
	if _, err := r.db.ExecContext(ctx, deleteRuleSQL, deviceID); err != nil {
		return fmt.Errorf("delete rule for %q: %w", deviceID, err)
	}
	return nil
}

// ListEnabled returns every enabled rule, for the executor's tick.
func (r *RuleSQLite) ListEnabled(ctx context.Context) ([]models.AutomationRule, error) {
	rows, err := r.db.QueryContext(ctx, selectEnabledRulesSQL)
	if err != nil {
		return nil, fmt.Errorf("list enabled rules: %w", err)
	}
	defer rows.Close()

	var out []models.AutomationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enabled rule: %w", err)
		}
		out = append(out, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list enabled rules: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.AutomationRule, error) {
	var (
		rule          models.AutomationRule
		source        string
		daysJSON      sql.NullString
		schedulesJSON sql.NullString
	)
	if err := row.Scan(
		&rule.DeviceID,
		&rule.MultiStage,
		&rule.Start,
		&rule.End,
		&daysJSON,
		&schedulesJSON,
		&rule.Enabled,
		&source,
		&rule.BasedOnEvents,
		&rule.StageCount,
		&rule.CreatedAt,
		&rule.CreatedBy,
	); err != nil {
		return nil, err
	}
	rule.Source = models.RuleSource(source)
	rule.CreatedAt = rule.CreatedAt.UTC()

	if daysJSON.Valid && daysJSON.String != "" {
		if err := json.Unmarshal([]byte(daysJSON.String), &rule.ActiveDays); err != nil {
			return nil, fmt.Errorf("unmarshal active days: %w", err)
		}
	}
	if schedulesJSON.Valid && schedulesJSON.String != "" {
		if err := json.Unmarshal([]byte(schedulesJSON.String), &rule.Schedules); err != nil {
			return nil, fmt.Errorf("unmarshal schedules: %w", err)
		}
	}
	return &rule, nil
}
