// Package scheduler runs callbacks on a once-per-day wall-clock
// schedule, matching the miner's --run-at flag.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS" in 24h form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("run-at must be HH:MM or HH:MM:SS, got %q", s)
	}

	fields := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return TimeOfDay{}, fmt.Errorf("run-at must be HH:MM or HH:MM:SS, got %q", s)
		}
		fields[i] = v
	}

	tod := TimeOfDay{Hour: fields[0], Minute: fields[1]}
	if len(fields) == 3 {
		tod.Second = fields[2]
	}

	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 || tod.Second < 0 || tod.Second > 59 {
		return TimeOfDay{}, fmt.Errorf("run-at out of range: %q", s)
	}
	return tod, nil
}

// NextRun returns the next occurrence of the time of day strictly
// after now; same-day if still ahead, otherwise tomorrow.
func (t TimeOfDay) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), t.Hour, t.Minute, t.Second, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// NewDailyCallback creates a callback that fires at the given time every day.
func NewDailyCallback(at TimeOfDay, execute func() error) *DailyCallback {
	return &DailyCallback{
		At:        at,
		executeFn: execute,
	}
}

// Execute runs the callback once and records the run time.
func (dc *DailyCallback) Execute() error {
	dc.LastRunAt = time.Now()
	return dc.executeFn()
}

// GetName returns the callback name
func (dc *DailyCallback) GetName() string {
	return InferNameFromFunc(dc.executeFn)
}

// RunForever sleeps until the next occurrence, executes, and repeats
// until the context is cancelled. Execution failures are logged and do
// not stop the schedule.
func (dc *DailyCallback) RunForever(ctx context.Context) {
	for {
		next := dc.At.NextRun(time.Now())
		delta := time.Until(next)
		log.Info().
			Str("callback", dc.GetName()).
			Time("next_run", next).
			Str("sleeping", delta.Round(time.Second).String()).
			Msg("scheduled next run")

		timer := time.NewTimer(delta)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Str("callback", dc.GetName()).Msg("scheduler stopped")
			return
		case <-timer.C:
		}

		if err := dc.Execute(); err != nil {
			log.Error().
				Err(err).
				Str("callback", dc.GetName()).
				Msg("scheduled run failed")
		} else {
			log.Info().
				Str("callback", dc.GetName()).
				Msg("scheduled run finished")
		}
	}
}
