package service

import (
	"context"
	"log"

	"github.com/Lupicald/Accesspro/internal/attend/store"
	"github.com/Lupicald/Accesspro/internal/attend/types"
	"github.com/Lupicald/Accesspro/internal/metrics"
)

// Replica is the remote replica collaborator. Session/auth lifecycle is
// entirely external; the engine only needs an idempotent sheet check
// and an append that may fail.
type Replica interface {
	EnsureSheet(ctx context.Context, columns []string) error
	AppendRows(ctx context.Context, rows [][]string) error
}

// DualWriter commits classified batches to the local store and,
// best-effort, to the remote replica. The two sinks are not
// transactionally coupled: a replica failure is logged and absorbed, a
// local failure fails the commit.
type DualWriter struct {
	local   store.EventStore
	replica Replica // nil when no replica is configured
	notify  Notifier
	logger  *log.Logger
	metrics *metrics.Metrics

	// replica connectivity edge detection for OnConnectivity
	replicaSeen   bool
	replicaOnline bool
}

func NewDualWriter(local store.EventStore, replica Replica, notify Notifier, logger *log.Logger, m *metrics.Metrics) *DualWriter {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &DualWriter{
		local:   local,
		replica: replica,
		notify:  notify,
		logger:  logger,
		metrics: m,
	}
}

// Commit writes the batch to both sinks independently. The caller's
// ledger has already marked the keys, so the batch gets exactly one
// commit attempt per sink; attempting both every time is what keeps a
// single-sink outage from losing events at both ends. A local failure
// fails the commit (after the replica has had its attempt); a replica
// failure never does — re-attempting the append on the next commit is
// the only reconnection there is.
func (w *DualWriter) Commit(ctx context.Context, batch []types.ClassifiedEvent) error {
	if len(batch) == 0 {
		return nil
	}

	localErr := w.local.AppendEvents(ctx, batch)
	if localErr != nil {
		if w.metrics != nil {
			w.metrics.CommitFailures.WithLabelValues("local").Inc()
		}
		w.logger.Printf("durability: local commit of %d events failed: %v", len(batch), localErr)
	}

	if w.replica == nil {
		return localErr
	}

	rows := make([][]string, len(batch))
	for i, e := range batch {
		rows[i] = e.Row()
	}

	if err := w.replica.AppendRows(ctx, rows); err != nil {
		if w.metrics != nil {
			w.metrics.CommitFailures.WithLabelValues("replica").Inc()
		}
		w.logger.Printf("connectivity: replica append of %d rows failed: %v", len(rows), err)
		w.setReplicaOnline(false)
		return localErr
	}

	w.setReplicaOnline(true)
	return localErr
}

func (w *DualWriter) setReplicaOnline(online bool) {
	if w.replicaSeen && w.replicaOnline == online {
		return
	}
	w.replicaSeen = true
	w.replicaOnline = online
	if w.metrics != nil {
		if online {
			w.metrics.ReplicaUp.Set(1)
		} else {
			w.metrics.ReplicaUp.Set(0)
		}
	}
	w.notify.OnConnectivity(SubsystemReplica, online)
}
