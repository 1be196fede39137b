package db

import (
	"context"
	"database/sql"
	"errors"
)

// ErrWorkerClosed is returned by Do once Close has been called.
var ErrWorkerClosed = errors.New("db: worker closed")

type TxFn func(ctx context.Context, tx *sql.Tx) error

type job struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker serializes all writes through a single goroutine and a single
// transaction at a time. With SQLite's one-connection setup this keeps
// the poller's batch commits and the monitor's flag persists from ever
// contending on the database.
type Worker struct {
	db   *sql.DB
	jobs chan job
	quit chan struct{}
	done chan struct{}
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		jobs: make(chan job, 256),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close stops the loop after draining already-queued jobs and waits for
// it to finish. Concurrent or later callers of Do get ErrWorkerClosed;
// the jobs channel itself is never closed, so a racing Do cannot panic
// the process.
func (w *Worker) Close() {
	close(w.quit)
	<-w.done
}

func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	j := job{ctx: ctx, fn: fn, ch: ch}

	// Enqueue, or give up if the worker is shutting down or the
	// caller's context expires while the buffer is full.
	select {
	case w.jobs <- j:
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	// A context that expires after enqueue does not abort the
	// transaction; the loop finishes it and the result is dropped into
	// the buffered ch unread. Likewise a Close racing this wait: the
	// drain may still complete the transaction, but the caller is told
	// the worker is gone.
	select {
	case err := <-ch:
		return err
	case <-w.quit:
		return ErrWorkerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for {
		select {
		case <-w.quit:
			// Drain whatever was accepted before shutdown so accepted
			// work is never silently dropped.
			for {
				select {
				case j := <-w.jobs:
					j.ch <- w.run(j)
				default:
					return
				}
			}
		case j := <-w.jobs:
			j.ch <- w.run(j)
		}
	}
}

func (w *Worker) run(j job) error {
	tx, err := w.db.BeginTx(j.ctx, nil)
	if err != nil {
		return err
	}
	if err := j.fn(j.ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
