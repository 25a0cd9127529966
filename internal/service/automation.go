package service

import (
	"context"
	"fmt"
	"time"

	"building_automation/internal/models"
	"building_automation/internal/repository"
)

// AutomationService implements the rule engine over the rule and event stores.
// It never consults the device lock flag: lockdown is enforced at actuation
// time by the executor, not at rule CRUD time.
type AutomationService struct {
	rules    repository.RuleRepo
	events   repository.EventRepo
	detector PatternDetector
	now      func() time.Time
}

func NewAutomationService(rules repository.RuleRepo, events repository.EventRepo, detector PatternDetector) *AutomationService {
	return &AutomationService{
		rules:    rules,
		events:   events,
		detector: detector,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetRule returns the device's rule, or (nil, nil) if it never had one.
func (s *AutomationService) GetRule(ctx context.Context, deviceID string) (*models.AutomationRule, error) {
	return s.rules.Get(ctx, deviceID)
}

// CreateManualRule validates spec and fully replaces any existing rule for the
// device. The new rule always lands disabled so a brand-new schedule must be
// reviewed before activation, even when it replaces an enabled one.
func (s *AutomationService) CreateManualRule(ctx context.Context, deviceID string, spec RuleSpec, actor string) (*RuleResult, error) {
	rule := models.AutomationRule{
		DeviceID:      deviceID,
		MultiStage:    spec.MultiStage,
		Enabled:       false,
		Source:        models.SourceManual,
		BasedOnEvents: 0,
		CreatedAt:     s.now(),
		CreatedBy:     actor,
	}

	var warnings []string
	if spec.MultiStage {
		report := ValidateStages(spec.Stages)
		if !report.Valid {
			return nil, &models.ValidationError{Errors: report.Errors, Warnings: report.Warnings}
		}
		warnings = report.Warnings
		rule.Schedules = spec.Stages
		rule.StageCount = report.StageCount
	} else {
		if err := validateSimpleWindow(spec.StartTime, spec.EndTime); err != nil {
			return nil, err
		}
		rule.Start = spec.StartTime
		rule.End = spec.EndTime
		rule.ActiveDays = spec.ActiveDays
		if len(rule.ActiveDays) == 0 {
			rule.ActiveDays = models.DefaultActiveDays
		}
		for _, d := range rule.ActiveDays {
			if !d.IsValid() {
				return nil, models.NewValidationError(fmt.Sprintf("%s: Unknown day", d))
			}
		}
		rule.StageCount = 1
	}

	if err := s.rules.Put(ctx, rule); err != nil {
		return nil, err
	}
	return &RuleResult{Rule: rule, Warnings: warnings}, nil
}

// UpdateRule applies a partial patch to an existing rule. Patching a device
// without a rule fails with ErrRuleNotFound: there is no baseline to enable.
func (s *AutomationService) UpdateRule(ctx context.Context, deviceID string, patch RulePatch, actor string) (*RuleResult, error) {
	rule, err := s.rules.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, fmt.Errorf("device %q: %w", deviceID, models.ErrRuleNotFound)
	}

	var warnings []string
	timesChanged := false

	if patch.StartTime != nil {
		rule.Start = *patch.StartTime
		timesChanged = true
	}
	if patch.EndTime != nil {
		rule.End = *patch.EndTime
		timesChanged = true
	}
	if patch.ActiveDays != nil {
		rule.ActiveDays = patch.ActiveDays
		for _, d := range rule.ActiveDays {
			if !d.IsValid() {
				return nil, models.NewValidationError(fmt.Sprintf("%s: Unknown day", d))
			}
		}
	}
	if patch.Stages != nil {
		if !rule.MultiStage {
			return nil, models.NewValidationError("Cannot set stages on a simple rule")
		}
		report := ValidateStages(patch.Stages)
		if !report.Valid {
			return nil, &models.ValidationError{Errors: report.Errors, Warnings: report.Warnings}
		}
		warnings = report.Warnings
		rule.Schedules = patch.Stages
		rule.StageCount = report.StageCount
	}
	if timesChanged {
		if rule.MultiStage {
			return nil, models.NewValidationError("Cannot set a single window on a multi-stage rule")
		}
		if err := validateSimpleWindow(rule.Start, rule.End); err != nil {
			return nil, err
		}
	}
	if patch.Enabled != nil {
		rule.Enabled = *patch.Enabled
	}

	rule.CreatedAt = s.now()
	rule.CreatedBy = actor

	if err := s.rules.Put(ctx, *rule); err != nil {
		return nil, err
	}
	return &RuleResult{Rule: *rule, Warnings: warnings}, nil
}

// DeleteRule removes the device's rule. Deleting a missing rule is not an error.
func (s *AutomationService) DeleteRule(ctx context.Context, deviceID string) error {
	return s.rules.Delete(ctx, deviceID)
}

// ClearHistoryAndRelearn wipes the device's usage history and deletes its rule,
// giving pattern learning a clean slate. The history is cleared first: if the
// rule delete then fails, the leftover is a stale rule with empty history,
// which is safe and recoverable by retrying. Returns the number of events
// discarded. An unknown device is a valid empty state, not an error.
func (s *AutomationService) ClearHistoryAndRelearn(ctx context.Context, deviceID string) (int, error) {
	cleared, err := s.events.Clear(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	if err := s.rules.Delete(ctx, deviceID); err != nil {
		return cleared, fmt.Errorf("history cleared (%d events) but rule delete failed: %w", cleared, err)
	}
	return cleared, nil
}

// EventHistoryCount returns the device's current usage log length (0..30).
func (s *AutomationService) EventHistoryCount(ctx context.Context, deviceID string) (int, error) {
	return s.events.Count(ctx, deviceID)
}

// DetectPatterns analyzes the trailing windowDays of usage history and returns
// an advisory report. It never creates or modifies a rule, so it is safe to
// call repeatedly and concurrently. A failed history read is reported in the
// Error field with the analysis fields defaulted.
func (s *AutomationService) DetectPatterns(ctx context.Context, deviceID string, windowDays int) (*PatternReport, error) {
	switch windowDays {
	case 7, 14, 30:
	default:
		return nil, models.NewValidationError(fmt.Sprintf("window must be 7, 14 or 30 days, got %d", windowDays))
	}

	since := s.now().AddDate(0, 0, -windowDays)
	events, err := s.events.ReadWindow(ctx, deviceID, since)
	if err != nil {
		return &PatternReport{
			DeviceID:   deviceID,
			WindowDays: windowDays,
			Error:      err.Error(),
		}, nil
	}
	return s.detector.Analyze(deviceID, windowDays, events), nil
}

// ValidateStages exposes the multi-stage validator as a dry run for the
// rule-builder UI.
func (s *AutomationService) ValidateStages(schedules []models.DaySchedule) ValidationReport {
	return ValidateStages(schedules)
}

func validateSimpleWindow(startTime, endTime string) error {
	if startTime == "" || endTime == "" {
		return models.NewValidationError("Missing start or end time")
	}
	start, err := models.ParseClock(startTime)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	end, err := models.ParseClock(endTime)
	if err != nil {
		return models.NewValidationError(err.Error())
	}
	if start >= end {
		return models.NewValidationError("Start time must be before end time")
	}
	return nil
}
