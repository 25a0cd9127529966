package service

import (
	"fmt"

	"building_automation/internal/models"
)

// ValidateStages checks a whole week's multi-stage configuration at once and
// enumerates every violation found, so a rule-builder UI can show them all in
// one pass. Errors block rule creation; warnings do not.
//
// Stages that are malformed (missing times or start >= end) are reported once
// and excluded from the overlap check, so a single bad stage does not cascade
// into spurious overlap errors.
func ValidateStages(schedules []models.DaySchedule) ValidationReport {
	report := ValidationReport{
		Errors:   []string{},
		Warnings: []string{},
	}
	seenDays := make(map[models.Weekday]bool, len(schedules))

	for _, day := range schedules {
		if !day.Day.IsValid() {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: Unknown day", day.Day))
			continue
		}
		if seenDays[day.Day] {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: Duplicate day configuration", day.Day))
			continue
		}
		seenDays[day.Day] = true

		report.StageCount += len(day.Stages)

		if len(day.Stages) == 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: No stages defined", day.Day))
			continue
		}
		if len(day.Stages) > models.MaxStagesPerDay {
			report.Errors = append(report.Errors,
				fmt.Sprintf("%s: A day can have at most %d stages", day.Day, models.MaxStagesPerDay))
		}

		// Ordering/presence checks; collect well-formed stages for the overlap pass.
		wellFormed := make([]models.TimeWindow, 0, len(day.Stages))
		for i, stage := range day.Stages {
			if stage.Start == "" || stage.End == "" {
				report.Errors = append(report.Errors,
					fmt.Sprintf("%s Stage %d: Missing start or end time", day.Day, i+1))
				continue
			}
			start, err1 := models.ParseClock(stage.Start)
			end, err2 := models.ParseClock(stage.End)
			if err1 != nil || err2 != nil {
				report.Errors = append(report.Errors,
					fmt.Sprintf("%s Stage %d: Missing start or end time", day.Day, i+1))
				continue
			}
			if start >= end {
				report.Errors = append(report.Errors,
					fmt.Sprintf("%s Stage %d: Start time must be before end time", day.Day, i+1))
				continue
			}
			wellFormed = append(wellFormed, stage)
		}

		// Unordered pairs; exactly abutting windows (a.end == b.start) are fine.
		for i := 0; i < len(wellFormed); i++ {
			for j := i + 1; j < len(wellFormed); j++ {
				if models.Overlaps(wellFormed[i], wellFormed[j]) {
					report.Errors = append(report.Errors,
						fmt.Sprintf("%s: Overlapping stages detected", day.Day))
				}
			}
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}
