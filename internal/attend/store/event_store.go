package store

import (
	"context"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

// EventStore is the local durable sink for classified events: an
// append-only log that is also the source the dedup ledger is rebuilt
// from after a restart.
type EventStore interface {
	// AppendEvents commits a batch. A row whose (person_id, ts) already
	// exists is silently skipped — the ledger contract makes duplicate
	// suppression idempotent, so a reappearing key is not an error.
	AppendEvents(ctx context.Context, events []types.ClassifiedEvent) error

	// LoadKeys returns the dedup key of every stored event.
	LoadKeys(ctx context.Context) ([]string, error)

	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]types.ClassifiedEvent, error)
}
