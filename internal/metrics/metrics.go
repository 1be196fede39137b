package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's instrumentation. Registered against an
// injected Registerer so tests can use a private registry.
type Metrics struct {
	PunchesSeen      prometheus.Counter
	PunchesDeduped   prometheus.Counter
	EventsClassified *prometheus.CounterVec
	CommitFailures   *prometheus.CounterVec
	OverstayAlerts   prometheus.Counter
	CycleDuration    prometheus.Summary
	DeviceUp         prometheus.Gauge
	ReplicaUp        prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PunchesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accesspro",
			Name:      "punches_seen_total",
			Help:      "Raw punches reported by the terminal, duplicates included",
		}),
		PunchesDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accesspro",
			Name:      "punches_deduped_total",
			Help:      "Punches suppressed by the dedup ledger",
		}),
		EventsClassified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accesspro",
			Name:      "events_classified_total",
			Help:      "Classified events by mode",
		}, []string{"mode"}),
		CommitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accesspro",
			Name:      "commit_failures_total",
			Help:      "Failed batch commits by sink",
		}, []string{"sink"}),
		OverstayAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "accesspro",
			Name:      "overstay_alerts_total",
			Help:      "Overstay alerts raised by the monitor",
		}),
		CycleDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: "accesspro",
			Name:      "poll_cycle_duration_seconds",
			Help:      "Time spent in one successful poll cycle",
		}),
		DeviceUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "accesspro",
			Name:      "device_up",
			Help:      "1 if the last terminal interaction succeeded",
		}),
		ReplicaUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "accesspro",
			Name:      "replica_up",
			Help:      "1 if the last replica append succeeded",
		}),
	}

	reg.MustRegister(
		m.PunchesSeen, m.PunchesDeduped, m.EventsClassified,
		m.CommitFailures, m.OverstayAlerts, m.CycleDuration,
		m.DeviceUp, m.ReplicaUp,
	)
	return m
}
