package service

import (
	"context"
	"time"

	"building_automation/internal/models"
	"building_automation/internal/repository"
)

// LockService mirrors the building-wide lock flag owned by the bulk automation
// path. This core only records updates pushed over the bridge and reads the
// flag at actuation time.
type LockService struct {
	locks repository.LockRepo
}

func NewLockService(locks repository.LockRepo) *LockService {
	return &LockService{locks: locks}
}

func (s *LockService) IsLocked(ctx context.Context, deviceID string) (bool, error) {
	return s.locks.IsLocked(ctx, deviceID)
}

func (s *LockService) SetLock(ctx context.Context, deviceID string, locked bool, mode string) error {
	return s.locks.Set(ctx, models.DeviceLock{
		DeviceID:  deviceID,
		Locked:    locked,
		Mode:      mode,
		UpdatedAt: time.Now().UTC(),
	})
}
