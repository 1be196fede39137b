package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Lupicald/Accesspro/internal/attend/types"
	"github.com/Lupicald/Accesspro/internal/metrics"
)

// Terminal is the attendance terminal collaborator. Any call may fail;
// the poller treats every failure uniformly as "device offline" and
// backs off.
type Terminal interface {
	Connect(ctx context.Context) error
	DisableCapture(ctx context.Context) error
	EnableCapture(ctx context.Context) error
	Disconnect(ctx context.Context) error

	// Directory returns the device-reported person id → name mapping.
	// Used only as a fallback display name when no profile exists.
	Directory(ctx context.Context) (map[string]string, error)

	// Attendance returns the device's punch log, duplicates included.
	Attendance(ctx context.Context) ([]types.PunchRecord, error)
}

// Profiles is the slice of the profile collaborator the poller needs
// each cycle. Reloaded every cycle so external edits take effect
// without a restart.
type Profiles interface {
	LoadProfiles() map[string]types.Profile
}

// PollerConfig holds the loop timing and the branch label stamped onto
// every event.
type PollerConfig struct {
	Branch   string
	Interval time.Duration // sleep between successful cycles, default 60s
	Backoff  time.Duration // sleep after a failed cycle, default 20s
}

// PollerDeps wires the poller's collaborators.
type PollerDeps struct {
	Terminal Terminal
	Profiles Profiles
	Ledger   *Ledger
	Resolver *ScheduleResolver
	States   *StateStore
	Writer   *DualWriter
	Notify   Notifier
	Logger   *log.Logger
	Metrics  *metrics.Metrics
}

// Poller drives the main loop: connect, fetch, filter through the
// ledger, classify, update state, commit, sleep, repeat — with a fixed
// backoff after any failure. It runs until its context is cancelled; no
// error path terminates it.
type Poller struct {
	cfg      PollerConfig
	terminal Terminal
	profiles Profiles
	ledger   *Ledger
	resolver *ScheduleResolver
	states   *StateStore
	writer   *DualWriter
	notify   Notifier
	logger   *log.Logger
	metrics  *metrics.Metrics

	deviceSeen   bool
	deviceOnline bool
}

func NewPoller(cfg PollerConfig, d PollerDeps) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 20 * time.Second
	}
	if d.Notify == nil {
		d.Notify = NopNotifier{}
	}
	return &Poller{
		cfg:      cfg,
		terminal: d.Terminal,
		profiles: d.Profiles,
		ledger:   d.Ledger,
		resolver: d.Resolver,
		states:   d.States,
		writer:   d.Writer,
		notify:   d.Notify,
		logger:   d.Logger,
		metrics:  d.Metrics,
	}
}

// Run executes the polling loop until ctx is cancelled. Cancellation is
// cooperative: it is checked at every sleep, so the loop exits between
// cycles, not mid-cycle.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Printf("poller started (interval=%s, backoff=%s)", p.cfg.Interval, p.cfg.Backoff)

	for {
		if err := p.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			p.setDeviceOnline(false)
			p.logger.Printf("connectivity: cycle failed, retrying in %s: %v", p.cfg.Backoff, err)
			if !sleep(ctx, p.cfg.Backoff) {
				return
			}
			continue
		}
		if !sleep(ctx, p.cfg.Interval) {
			return
		}
	}
}

// Cycle runs one full poll: the device-side fetch, then the in-memory
// pipeline, then the dual-sink commit. Exported so tests can drive the
// loop deterministically.
func (p *Poller) Cycle(ctx context.Context) error {
	start := time.Now()

	if err := p.terminal.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = p.terminal.Disconnect(ctx) }()
	p.setDeviceOnline(true)

	// Capture is paused while reading so the device does not mutate
	// the log mid-fetch.
	if err := p.terminal.DisableCapture(ctx); err != nil {
		return fmt.Errorf("disable capture: %w", err)
	}
	directory, err := p.terminal.Directory(ctx)
	if err != nil {
		return fmt.Errorf("directory: %w", err)
	}
	punches, err := p.terminal.Attendance(ctx)
	if err != nil {
		return fmt.Errorf("attendance: %w", err)
	}
	if err := p.terminal.EnableCapture(ctx); err != nil {
		return fmt.Errorf("enable capture: %w", err)
	}

	profiles := p.profiles.LoadProfiles()
	p.states.SyncProfiles(profiles)

	batch := p.process(punches, directory, profiles)
	if len(batch) > 0 {
		p.notify.OnLog(fmt.Sprintf("%d new punches detected", len(batch)))
		// A failed local commit is a durability error, not a
		// connectivity one: the writer has logged it, the in-memory
		// effects stand, and the cycle still counts as successful.
		_ = p.writer.Commit(ctx, batch)
	}

	if p.metrics != nil {
		p.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// process runs the in-memory pipeline: ledger filter, classification,
// state upsert. Returns the batch of newly classified events in device
// log order.
func (p *Poller) process(punches []types.PunchRecord, directory map[string]string, profiles map[string]types.Profile) []types.ClassifiedEvent {
	var batch []types.ClassifiedEvent

	for _, punch := range punches {
		if p.metrics != nil {
			p.metrics.PunchesSeen.Inc()
		}

		key := punch.DedupKey()
		if p.ledger.Contains(key) {
			if p.metrics != nil {
				p.metrics.PunchesDeduped.Inc()
			}
			continue
		}
		p.ledger.Record(key)

		name := directory[punch.PersonID]
		if name == "" {
			name = "unknown"
		}
		category := types.CategoryVisitor

		var prof *types.Profile
		if pr, ok := profiles[punch.PersonID]; ok {
			prof = &pr
			if pr.Name != "" {
				name = pr.Name
			}
			category = pr.Category
		}

		mode, status := Classify(punch, p.resolver.Resolve(prof))
		ts := punch.Timestamp.Format(types.TimeLayout)
		st := p.states.Upsert(punch.PersonID, name, category, mode, ts)

		ev := types.ClassifiedEvent{
			PersonID:     punch.PersonID,
			Name:         name,
			Category:     category,
			Timestamp:    ts,
			Mode:         mode,
			Status:       status,
			Branch:       p.cfg.Branch,
			LastMode:     st.LastMode,
			LastActivity: st.LastActivity,
		}
		batch = append(batch, ev)

		if p.metrics != nil {
			p.metrics.EventsClassified.WithLabelValues(string(mode)).Inc()
		}
		p.notify.OnEvent(ev)
	}
	return batch
}

func (p *Poller) setDeviceOnline(online bool) {
	if p.deviceSeen && p.deviceOnline == online {
		return
	}
	p.deviceSeen = true
	p.deviceOnline = online
	if p.metrics != nil {
		if online {
			p.metrics.DeviceUp.Set(1)
		} else {
			p.metrics.DeviceUp.Set(0)
		}
	}
	p.notify.OnConnectivity(SubsystemDevice, online)
}

// sleep waits for d or cancellation; false means cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
