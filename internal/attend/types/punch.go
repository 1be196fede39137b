package types

import "time"

// TimeLayout is the second-precision timestamp format used everywhere a
// timestamp is rendered as text: dedup keys, persisted state, store rows
// and replica rows. Matching formats is what lets the ledger be rebuilt
// from existing store rows on startup.
const TimeLayout = "2006-01-02 15:04:05"

// Raw punch-type codes reported by the terminal.
const (
	PunchCodeCheckIn    = 0
	PunchCodeCheckInAlt = 4
	// PunchCodeUnspecified means the terminal could not determine a
	// direction; the classifier disambiguates it by wall-clock time.
	PunchCodeUnspecified = 255
)

// PunchRecord is a single raw attendance scan as reported by the
// terminal. Immutable input to the engine.
type PunchRecord struct {
	PersonID  string
	Timestamp time.Time
	Code      int
}

// DedupKey returns the composite identity used to suppress reprocessing
// of an already-committed punch. Second precision: two distinct punches
// by the same person within the same second collide and one is dropped.
func (p PunchRecord) DedupKey() string {
	return DedupKey(p.PersonID, p.Timestamp)
}

func DedupKey(personID string, ts time.Time) string {
	return personID + "_" + ts.Format(TimeLayout)
}
