package service

import "building_automation/internal/models"

// RuleSpec is the input for creating a manual rule. Either the simple fields
// (StartTime/EndTime/ActiveDays) or Stages apply, selected by MultiStage.
type RuleSpec struct {
	MultiStage bool
	StartTime  string
	EndTime    string
	ActiveDays []models.Weekday // empty = weekdays
	Stages     []models.DaySchedule
}

// RulePatch is a partial update. Nil fields are left unchanged.
type RulePatch struct {
	Enabled    *bool
	StartTime  *string
	EndTime    *string
	ActiveDays []models.Weekday
	Stages     []models.DaySchedule
}

// RuleResult is a persisted rule together with any non-blocking validation
// warnings, so the caller can ask the user for confirmation.
type RuleResult struct {
	Rule     models.AutomationRule `json:"rule"`
	Warnings []string              `json:"warnings,omitempty"`
}

// ValidationReport is the outcome of validating a whole week's multi-stage
// configuration. Errors block rule creation; warnings are advisory.
type ValidationReport struct {
	Valid      bool     `json:"is_valid"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
	StageCount int      `json:"stage_count"`
}

// Pattern describes one heuristic finding in a device's usage history.
type Pattern struct {
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Confidence     float64 `json:"confidence"` // 0..1, higher = tighter clustering
	Recommendation string  `json:"recommendation"`
}

// MultiStageAnalysis summarizes per-day ON→OFF sessions in the window.
type MultiStageAnalysis struct {
	SessionsDetected         int     `json:"sessions_detected"`
	AvgSessionsPerDay        float64 `json:"avg_sessions_per_day"`
	DaysWithMultipleSessions int     `json:"days_with_multiple_sessions"`
	MaxSessionsInDay         int     `json:"max_sessions_in_day"`
	Recommendation           string  `json:"recommendation"`
}

// PatternReport is the advisory output of pattern detection. It never reflects
// a persisted change; Error is set instead of the analysis fields when the
// history read fails.
type PatternReport struct {
	DeviceID     string             `json:"device_id"`
	WindowDays   int                `json:"window_days"`
	TotalEvents  int                `json:"total_events"`
	TurnOnEvents int                `json:"turn_on_events"`
	HasPatterns  bool               `json:"has_patterns"`
	Patterns     []Pattern          `json:"patterns,omitempty"`
	MultiStage   MultiStageAnalysis `json:"multi_stage_analysis"`
	Error        string             `json:"error,omitempty"`
}
