package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a wall-clock time of day with minute precision, as
// schedules are configured ("09:00").
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses "HH:MM". Rejects anything out of range.
func ParseClockTime(s string) (ClockTime, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("clock time %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return ClockTime{}, fmt.Errorf("clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return ClockTime{}, fmt.Errorf("clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns minutes since midnight.
func (c ClockTime) Minutes() int { return c.Hour*60 + c.Minute }

// Schedule is a resolved entry/exit window. Tolerance applies to entry
// only; it is global, there is no per-person tolerance.
type Schedule struct {
	Entry     ClockTime
	Exit      ClockTime
	Tolerance time.Duration
}

// EntryDeadline is the latest second of the day at which a check-in
// still counts as on-time: entry time plus tolerance, inclusive.
func (s Schedule) EntryDeadline() time.Duration {
	return time.Duration(s.Entry.Minutes())*time.Minute + s.Tolerance
}

// Profile is a configured person: display name and category always
// override whatever the terminal directory reports. Entry/Exit are
// optional per-person schedule overrides, validated at load time.
type Profile struct {
	Name     string
	Category Category
	Entry    *ClockTime
	Exit     *ClockTime
}
