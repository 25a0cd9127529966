package service

import (
	"fmt"
	"math"
	"sort"

	"building_automation/internal/models"
)

// PatternDetector derives usage patterns from a device's event history. It is
// a pluggable strategy so the heuristic can be tuned without touching the
// engine's CRUD contract.
type PatternDetector interface {
	Analyze(deviceID string, windowDays int, events []models.UsageEvent) *PatternReport
}

// Detection thresholds. maxSpreadMinutes is the session start/end spread at
// which confidence bottoms out at zero; 3 hours of jitter means no pattern.
const (
	maxSpreadMinutes = 180.0
	minConfidence    = 0.4
	minModalEvents   = 2
)

// session is one observed ON→OFF pair on a single calendar day.
type session struct {
	day      string // calendar date, YYYY-MM-DD
	startMin int
	endMin   int
}

// SessionDetector clusters ON→OFF pairs into per-day sessions and rates how
// tightly their start/end times agree across days. Tighter clustering gives
// higher confidence.
type SessionDetector struct{}

func NewSessionDetector() *SessionDetector { return &SessionDetector{} }

var _ PatternDetector = (*SessionDetector)(nil)

func (d *SessionDetector) Analyze(deviceID string, windowDays int, events []models.UsageEvent) *PatternReport {
	report := &PatternReport{
		DeviceID:   deviceID,
		WindowDays: windowDays,
	}

	sorted := make([]models.UsageEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var onHours, offHours []int
	for _, ev := range sorted {
		report.TotalEvents++
		switch ev.Status {
		case models.StatusOn:
			report.TurnOnEvents++
			onHours = append(onHours, ev.Hour)
		case models.StatusOff:
			offHours = append(offHours, ev.Hour)
		}
	}

	sessions := pairSessions(sorted)
	report.MultiStage = analyzeSessions(sessions)

	// Zero or one usable session is not a pattern.
	if len(sessions) < 2 {
		report.HasPatterns = false
		return report
	}

	starts := make([]float64, len(sessions))
	ends := make([]float64, len(sessions))
	for i, s := range sessions {
		starts[i] = float64(s.startMin)
		ends[i] = float64(s.endMin)
	}
	spread := (stddev(starts) + stddev(ends)) / 2
	confidence := 1 - spread/maxSpreadMinutes
	if confidence < 0 {
		confidence = 0
	}

	if confidence >= minConfidence {
		meanStart := models.FormatClock(int(math.Round(mean(starts))))
		meanEnd := models.FormatClock(int(math.Round(mean(ends))))
		report.Patterns = append(report.Patterns, Pattern{
			Type:  "daily_window",
			Title: "Consistent daily usage window",
			Description: fmt.Sprintf("Device typically runs from %s to %s (%d sessions over the last %d days)",
				meanStart, meanEnd, len(sessions), windowDays),
			Confidence: round2(confidence),
			Recommendation: fmt.Sprintf("Create a rule that switches the device ON at %s and OFF at %s",
				meanStart, meanEnd),
		})
	}

	// Modal-hour heuristic carried over from the on-device controller: with
	// enough transitions, the most common ON/OFF hours are a usable pattern on
	// their own.
	if len(onHours) >= minModalEvents && len(offHours) >= minModalEvents {
		onHour, onShare := modalHour(onHours)
		offHour, offShare := modalHour(offHours)
		report.Patterns = append(report.Patterns, Pattern{
			Type:  "modal_hours",
			Title: "Most common switch hours",
			Description: fmt.Sprintf("Device most often turns ON around %s and OFF around %s",
				models.FormatClock(onHour*60), models.FormatClock(offHour*60)),
			Confidence:     round2((onShare + offShare) / 2),
			Recommendation: "Review the suggested hours before enabling an automation rule",
		})
	}

	report.HasPatterns = len(report.Patterns) > 0
	return report
}

// pairSessions walks the ordered event stream and pairs each ON with the next
// OFF on the same calendar day. An ON followed by another ON keeps the later
// one (the log records transitions, so the earlier ON had no matching OFF).
func pairSessions(events []models.UsageEvent) []session {
	var (
		sessions []session
		pending  *models.UsageEvent
	)
	for i := range events {
		ev := events[i]
		switch ev.Status {
		case models.StatusOn:
			pending = &events[i]
		case models.StatusOff:
			if pending == nil {
				continue
			}
			onDay := pending.Timestamp.Format("2006-01-02")
			if ev.Timestamp.Format("2006-01-02") == onDay {
				sessions = append(sessions, session{
					day:      onDay,
					startMin: pending.Timestamp.Hour()*60 + pending.Timestamp.Minute(),
					endMin:   ev.Timestamp.Hour()*60 + ev.Timestamp.Minute(),
				})
			}
			pending = nil
		}
	}
	return sessions
}

func analyzeSessions(sessions []session) MultiStageAnalysis {
	analysis := MultiStageAnalysis{SessionsDetected: len(sessions)}

	perDay := make(map[string]int)
	for _, s := range sessions {
		perDay[s.day]++
	}
	multiDays := 0
	for _, n := range perDay {
		if n > analysis.MaxSessionsInDay {
			analysis.MaxSessionsInDay = n
		}
		if n > 1 {
			multiDays++
		}
	}
	analysis.DaysWithMultipleSessions = multiDays
	if len(perDay) > 0 {
		analysis.AvgSessionsPerDay = round2(float64(len(sessions)) / float64(len(perDay)))
	}

	switch {
	case len(sessions) == 0:
		analysis.Recommendation = "Not enough usage history to analyze sessions"
	case analysis.MaxSessionsInDay > 1 && multiDays*2 >= len(perDay):
		analysis.Recommendation = "Device runs multiple times a day; consider a multi-stage rule"
	default:
		analysis.Recommendation = "A single daily window covers the observed usage"
	}
	return analysis
}

// modalHour returns the most common hour and its share of the samples.
func modalHour(hours []int) (int, float64) {
	counts := make(map[int]int)
	best, bestCount := 0, 0
	for _, h := range hours {
		counts[h]++
		if counts[h] > bestCount || (counts[h] == bestCount && h < best) {
			best, bestCount = h, counts[h]
		}
	}
	return best, float64(bestCount) / float64(len(hours))
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
