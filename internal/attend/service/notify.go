package service

import (
	"log"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

// Subsystems reported through OnConnectivity.
const (
	SubsystemDevice  = "device"
	SubsystemReplica = "replica"
)

// Notifier receives fire-and-forget presentation callbacks. The engine
// never blocks on a notifier and never depends on what it does with the
// calls; a GUI, a webhook or plain logging can sit behind it.
type Notifier interface {
	OnEvent(ev types.ClassifiedEvent)
	OnConnectivity(subsystem string, online bool)
	OnLog(msg string)
}

// LogNotifier is the default notifier: everything goes to the logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OnEvent(ev types.ClassifiedEvent) {
	n.logger.Printf("event: %s %s %s %s", ev.PersonID, ev.Name, ev.Mode, ev.Status)
}

func (n *LogNotifier) OnConnectivity(subsystem string, online bool) {
	state := "offline"
	if online {
		state = "online"
	}
	n.logger.Printf("connectivity: %s %s", subsystem, state)
}

func (n *LogNotifier) OnLog(msg string) {
	n.logger.Print(msg)
}

// NopNotifier discards everything. Used in tests.
type NopNotifier struct{}

func (NopNotifier) OnEvent(types.ClassifiedEvent) {}
func (NopNotifier) OnConnectivity(string, bool) {}
func (NopNotifier) OnLog(string) {}
