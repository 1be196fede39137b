package types

// Mode is the directional classification of a punch.
type Mode string

const (
	ModeCheckIn  Mode = "check_in"
	ModeCheckOut Mode = "check_out"
)

// Status is the compliance classification of a punch against the
// resolved schedule.
type Status string

const (
	StatusOnTime   Status = "on_time"
	StatusLate     Status = "late"
	StatusComplete Status = "complete"
	StatusEarly    Status = "early"
)

// ClassifiedEvent is the engine's output for one unique punch.
// Immutable after creation. Timestamp and LastActivity use TimeLayout.
// LastMode/LastActivity mirror the person's state at commit time so a
// store row is self-contained.
type ClassifiedEvent struct {
	PersonID     string   `json:"person_id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Timestamp    string   `json:"timestamp"`
	Mode         Mode     `json:"mode"`
	Status       Status   `json:"status"`
	Branch       string   `json:"branch"`
	LastMode     Mode     `json:"last_mode"`
	LastActivity string   `json:"last_activity"`
}

// EventColumns is the fixed column order shared by the local store and
// the remote replica sheet.
var EventColumns = []string{
	"person_id", "display_name", "ts", "mode", "status",
	"branch", "category", "last_mode", "last_activity",
}

// Row renders the event in EventColumns order.
func (e ClassifiedEvent) Row() []string {
	return []string{
		e.PersonID, e.Name, e.Timestamp, string(e.Mode), string(e.Status),
		e.Branch, string(e.Category), string(e.LastMode), e.LastActivity,
	}
}
