package service

import (
	"context"
	"time"

	"building_automation/internal/models"
	"building_automation/internal/repository"

	"github.com/google/uuid"
)

// UsageLogService records ON/OFF transitions reported by the bridge and serves
// history reads. The 30-event FIFO cap is the repository's concern.
type UsageLogService struct {
	events repository.EventRepo
	now    func() time.Time
}

func NewUsageLogService(events repository.EventRepo) *UsageLogService {
	return &UsageLogService{
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one transition, stamping id, UTC timestamp and hour of day.
func (s *UsageLogService) Record(ctx context.Context, deviceID string, status models.DeviceStatus) (models.UsageEvent, error) {
	if !status.IsValid() {
		return models.UsageEvent{}, models.NewValidationError("status must be ON or OFF")
	}
	now := s.now()
	ev := models.UsageEvent{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		Status:    status,
		Timestamp: now,
		Hour:      now.Hour(),
	}
	if err := s.events.Append(ctx, ev); err != nil {
		return models.UsageEvent{}, err
	}
	return ev, nil
}

// History returns events at or after since, oldest first. Zero since means all.
func (s *UsageLogService) History(ctx context.Context, deviceID string, since time.Time) ([]models.UsageEvent, error) {
	return s.events.ReadWindow(ctx, deviceID, since)
}

// Count returns the device's current log length.
func (s *UsageLogService) Count(ctx context.Context, deviceID string) (int, error) {
	return s.events.Count(ctx, deviceID)
}
