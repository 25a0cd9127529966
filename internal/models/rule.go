package models

import "time"

// Weekday is a day name as stored in rules and reported by the validator.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// AllWeekdays lists the seven days in calendar order.
var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// DefaultActiveDays is the active-day set a simple rule gets when none is given.
var DefaultActiveDays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}

// IsValid reports whether w is one of the seven day names.
func (w Weekday) IsValid() bool {
	for _, d := range AllWeekdays {
		if w == d {
			return true
		}
	}
	return false
}

// WeekdayOf maps a time.Time to its Weekday name.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday().String())
}

// RuleSource records who authored a rule.
type RuleSource string

const (
	SourceManual     RuleSource = "manual"
	SourceHistorical RuleSource = "historical"
)

// MaxStagesPerDay caps the number of activation windows a single day may hold.
const MaxStagesPerDay = 3

// DaySchedule is one day's ordered set of activation windows (0..3 stages).
type DaySchedule struct {
	Day    Weekday      `json:"day"`
	Stages []TimeWindow `json:"stages"`
}

// AutomationRule is the schedule for one device. A device has at most one rule;
// creating a new rule replaces the old one wholesale. Exactly one of the
// simple-mode fields (Start/End/ActiveDays) or Schedules is meaningful,
// selected by MultiStage.
type AutomationRule struct {
	DeviceID      string        `json:"device_id"`
	MultiStage    bool          `json:"multi_stage"`
	Start         string        `json:"start,omitempty"` // HH:MM, simple mode
	End           string        `json:"end,omitempty"`   // HH:MM, simple mode
	ActiveDays    []Weekday     `json:"active_days,omitempty"`
	Schedules     []DaySchedule `json:"schedules,omitempty"`
	Enabled       bool          `json:"enabled"`
	Source        RuleSource    `json:"source"`
	BasedOnEvents int           `json:"based_on_events"`
	StageCount    int           `json:"stage_count"`
	CreatedAt     time.Time     `json:"created_at"`
	CreatedBy     string        `json:"created_by"`
}
