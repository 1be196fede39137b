package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/Lupicald/Accesspro/internal/db"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

type EventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewEventStore(db *sql.DB, writer *dbpkg.Worker) *EventStore {
	return &EventStore{db: db, writer: writer}
}

// AppendEvents inserts the batch in one transaction. INSERT OR IGNORE
// plus the unique (person_id, ts) index drops any row whose key is
// already present, which backstops the in-memory ledger.
func (s *EventStore) AppendEvents(ctx context.Context, events []types.ClassifiedEvent) error {
	if len(events) == 0 {
		return nil
	}
	nowMs := time.Now().UTC().UnixMilli()

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, e := range events {
			if _, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO attendance_events(
  person_id, display_name, ts, mode, status,
  branch, category, last_mode, last_activity, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
				e.PersonID, e.Name, e.Timestamp, string(e.Mode), string(e.Status),
				e.Branch, string(e.Category), string(e.LastMode), e.LastActivity, nowMs,
			); err != nil {
				return fmt.Errorf("AppendEvents insert %s: %w", e.PersonID, err)
			}
		}
		return nil
	})
}

func (s *EventStore) LoadKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT person_id, ts FROM attendance_events;
`)
	if err != nil {
		return nil, fmt.Errorf("LoadKeys query: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var personID, ts string
		if err := rows.Scan(&personID, &ts); err != nil {
			return nil, fmt.Errorf("LoadKeys scan: %w", err)
		}
		keys = append(keys, personID+"_"+ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadKeys rows: %w", err)
	}
	return keys, nil
}

func (s *EventStore) RecentEvents(ctx context.Context, limit int) ([]types.ClassifiedEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT person_id, display_name, ts, mode, status,
       branch, category, last_mode, last_activity
FROM attendance_events
ORDER BY id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("RecentEvents query: %w", err)
	}
	defer rows.Close()

	var out []types.ClassifiedEvent
	for rows.Next() {
		var e types.ClassifiedEvent
		var mode, status, category, lastMode string
		if err := rows.Scan(
			&e.PersonID, &e.Name, &e.Timestamp, &mode, &status,
			&e.Branch, &category, &lastMode, &e.LastActivity,
		); err != nil {
			return nil, fmt.Errorf("RecentEvents scan: %w", err)
		}
		e.Mode = types.Mode(mode)
		e.Status = types.Status(status)
		e.Category = types.Category(category)
		e.LastMode = types.Mode(lastMode)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("RecentEvents rows: %w", err)
	}
	return out, nil
}
