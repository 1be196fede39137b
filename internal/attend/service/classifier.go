package service

import (
	"time"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

// Classify derives the directional mode and compliance status of one
// punch against the resolved schedule. Pure function of its inputs; no
// state is retained between calls.
func Classify(punch types.PunchRecord, sched types.Schedule) (types.Mode, types.Status) {
	mode := modeFor(punch)
	clock := clockOf(punch.Timestamp)

	if mode == types.ModeCheckIn {
		// Entry deadline is inclusive: a punch at exactly
		// entry+tolerance is still on time.
		if clock <= sched.EntryDeadline() {
			return mode, types.StatusOnTime
		}
		return mode, types.StatusLate
	}

	exit := time.Duration(sched.Exit.Minutes()) * time.Minute
	if clock >= exit {
		return mode, types.StatusComplete
	}
	return mode, types.StatusEarly
}

// modeFor maps the raw punch-type code to a direction. Codes 0 and 4
// are check-in, everything else check-out — except 255, which the
// terminal emits when it has no direction configured. That one is
// disambiguated by wall clock: before local noon check-in, at or after
// noon check-out. The heuristic is a deliberate approximation kept for
// compatibility with existing data.
func modeFor(p types.PunchRecord) types.Mode {
	switch p.Code {
	case types.PunchCodeCheckIn, types.PunchCodeCheckInAlt:
		return types.ModeCheckIn
	case types.PunchCodeUnspecified:
		if p.Timestamp.Hour() < 12 {
			return types.ModeCheckIn
		}
		return types.ModeCheckOut
	default:
		return types.ModeCheckOut
	}
}

func clockOf(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}
