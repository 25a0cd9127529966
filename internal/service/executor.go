package service

import (
	"context"
	"time"

	"building_automation/internal/logger"
	"building_automation/internal/models"
	"building_automation/internal/repository"
)

// ExecutorService is the external-controller side of the schedule: it polls
// enabled rules once per minute and sends ON at stage starts and OFF at stage
// ends. A device locked by a building-wide lockdown is never switched ON; the
// rule itself stays enabled at the data layer, lockdown only wins at actuation
// time. OFF commands always go through.
type ExecutorService struct {
	rules repository.RuleRepo
	locks repository.LockRepo
	sink  CommandSink
	log   *logger.Logger

	lastMinute string
}

func NewExecutorService(rules repository.RuleRepo, locks repository.LockRepo, sink CommandSink, log *logger.Logger) *ExecutorService {
	return &ExecutorService{
		rules: rules,
		locks: locks,
		sink:  sink,
		log:   log,
	}
}

// Run ticks at the given interval until ctx is canceled. Rules fire at most
// once per wall-clock minute regardless of tick rate.
func (s *ExecutorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			minute := now.Format("15:04")
			if minute == s.lastMinute {
				continue
			}
			s.lastMinute = minute
			s.evaluate(ctx, now)
		}
	}
}

// evaluate checks every enabled rule against the current weekday and minute.
func (s *ExecutorService) evaluate(ctx context.Context, now time.Time) {
	minute := now.Format("15:04")
	day := models.WeekdayOf(now)

	rules, err := s.rules.ListEnabled(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("executor_list_rules_failed", "err", err)
		}
		return
	}

	for _, rule := range rules {
		for _, w := range windowsFor(rule, day) {
			switch minute {
			case w.Start:
				s.switchOn(ctx, rule.DeviceID)
			case w.End:
				s.switchOff(ctx, rule.DeviceID)
			}
		}
	}
}

// windowsFor returns the activation windows a rule defines for one weekday.
func windowsFor(rule models.AutomationRule, day models.Weekday) []models.TimeWindow {
	if !rule.MultiStage {
		for _, d := range rule.ActiveDays {
			if d == day {
				return []models.TimeWindow{{Start: rule.Start, End: rule.End}}
			}
		}
		return nil
	}
	for _, sched := range rule.Schedules {
		if sched.Day == day {
			return sched.Stages
		}
	}
	return nil
}

func (s *ExecutorService) switchOn(ctx context.Context, deviceID string) {
	locked, err := s.locks.IsLocked(ctx, deviceID)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("executor_lock_check_failed", "err", err, "device_id", deviceID)
		}
		return
	}
	if locked {
		if s.log != nil {
			s.log.Infow("executor_skip_locked_device", "device_id", deviceID)
		}
		return
	}
	if err := s.sink.Switch(ctx, deviceID, models.StatusOn); err != nil {
		if s.log != nil {
			s.log.Errorw("executor_switch_on_failed", "err", err, "device_id", deviceID)
		}
	}
}

func (s *ExecutorService) switchOff(ctx context.Context, deviceID string) {
	if err := s.sink.Switch(ctx, deviceID, models.StatusOff); err != nil {
		if s.log != nil {
			s.log.Errorw("executor_switch_off_failed", "err", err, "device_id", deviceID)
		}
	}
}
