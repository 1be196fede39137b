package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Lupicald/Accesspro/internal/attend/types"
	"github.com/Lupicald/Accesspro/internal/metrics"
)

// OverstayMonitor periodically sweeps the state store and flags
// visitors/inmates whose last recorded mode has been check-in for
// longer than the configured threshold. It runs as a background
// goroutine and is safe to stop via its context or the Stop method.
//
// The transition is edge-triggered: one notification when the flag is
// raised, nothing on later sweeps while still alerted. The flag clears
// only through a check-out (device or manual), never by this monitor.
type OverstayMonitor struct {
	states    *StateStore
	threshold time.Duration
	interval  time.Duration
	notify    Notifier
	logger    *log.Logger
	metrics   *metrics.Metrics
	cancel    context.CancelFunc
	done      chan struct{}
}

// MonitorConfig holds the parameters for NewOverstayMonitor.
type MonitorConfig struct {
	// Threshold is how long a check-in may stand before it counts as
	// an overstay. Defaults to 4 hours.
	Threshold time.Duration

	// Interval is how often the sweep runs. Defaults to 60 seconds.
	Interval time.Duration
}

// NewOverstayMonitor creates a monitor but does not start it.
// Call Start to begin the background loop.
func NewOverstayMonitor(states *StateStore, cfg MonitorConfig, notify Notifier, logger *log.Logger, m *metrics.Metrics) *OverstayMonitor {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = 4 * time.Hour
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if notify == nil {
		notify = NopNotifier{}
	}

	return &OverstayMonitor{
		states:    states,
		threshold: threshold,
		interval:  interval,
		notify:    notify,
		logger:    logger,
		metrics:   m,
		done:      make(chan struct{}),
	}
}

// Start begins the background sweep loop: one sweep immediately, then
// on the configured interval until ctx is cancelled or Stop is called.
func (m *OverstayMonitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	go m.loop(ctx)

	m.logger.Printf("overstay monitor started (threshold=%s, interval=%s)",
		m.threshold, m.interval)
}

// Stop signals the monitor to exit and waits for it to finish. A
// monitor that was never started has no loop to wait for and returns
// immediately.
func (m *OverstayMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *OverstayMonitor) loop(ctx context.Context) {
	defer close(m.done)

	m.Sweep(time.Now())

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(time.Now())
		}
	}
}

// Sweep runs one pass over the state store and returns how many alerts
// it raised. An internal error never terminates the loop; a state with
// an unparseable activity timestamp is skipped and reported once per
// sweep via the log.
func (m *OverstayMonitor) Sweep(now time.Time) int {
	raised := 0
	for _, st := range m.states.All() {
		if !st.Category.Overstayable() || st.LastMode != types.ModeCheckIn || st.Alert {
			continue
		}
		if st.LastActivity == "" {
			continue
		}

		last, err := time.ParseInLocation(types.TimeLayout, st.LastActivity, now.Location())
		if err != nil {
			m.logger.Printf("monitor: bad activity timestamp for %s: %v", st.PersonID, err)
			continue
		}
		if now.Sub(last) < m.threshold {
			continue
		}

		if m.states.SetAlert(st.PersonID) {
			raised++
			if m.metrics != nil {
				m.metrics.OverstayAlerts.Inc()
			}
			m.notify.OnLog(fmt.Sprintf(
				"overstay: %s (%s, %s) checked in since %s with no check-out",
				st.PersonID, st.Name, st.Category, st.LastActivity,
			))
		}
	}
	return raised
}
