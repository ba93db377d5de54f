package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type TriggerInfo struct {
	Next time.Time
	Last time.Time
}

// lookback widens the search for the last firing so that frequent and
// yearly schedules both resolve in a handful of Next calls.
var lookback = []time.Duration{
	time.Minute,
	time.Hour,
	24 * time.Hour,
	7 * 24 * time.Hour,
	31 * 24 * time.Hour,
	366 * 24 * time.Hour,
}

// GetTriggerInfo returns the next firing of cronExpr after refTime and the
// most recent one at or before it, searching back up to a year.
func GetTriggerInfo(cronExpr string, refTime time.Time) (*TriggerInfo, error) {
	if strings.TrimSpace(cronExpr) == "" {
		return nil, fmt.Errorf("empty cron expression")
	}
	sched, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	info := triggerInfo(sched, refTime)
	return &info, nil
}

func triggerInfo(sched cron.Schedule, refTime time.Time) TriggerInfo {
	info := TriggerInfo{Next: sched.Next(refTime)}

	for _, window := range lookback {
		// Next is strictly after its argument, so start one second early to
		// include a firing exactly at the window edge
		candidate := sched.Next(refTime.Add(-window - time.Second))
		if candidate.IsZero() || candidate.After(refTime) {
			continue
		}
		for {
			next := sched.Next(candidate)
			if next.IsZero() || next.After(refTime) {
				break
			}
			candidate = next
		}
		info.Last = candidate
		break
	}
	return info
}
