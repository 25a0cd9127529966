package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeWindow is a single start/end time-of-day pair at minute resolution.
// Both ends are HH:MM clock strings; a well-formed window has start < end.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in clock time %q", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Minutes returns both ends of the window as minutes since midnight.
func (w TimeWindow) Minutes() (start, end int, err error) {
	if start, err = ParseClock(w.Start); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(w.End); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// WellFormed reports whether both ends parse and start < end strictly.
func (w TimeWindow) WellFormed() bool {
	start, end, err := w.Minutes()
	return err == nil && start < end
}

// Overlaps reports whether two well-formed windows share any time.
// Touching boundaries (a.end == b.start) do not overlap.
func Overlaps(a, b TimeWindow) bool {
	aStart, aEnd, err := a.Minutes()
	if err != nil {
		return false
	}
	bStart, bEnd, err := b.Minutes()
	if err != nil {
		return false
	}
	return aStart < bEnd && aEnd > bStart
}
