// Package persistence buffers article writes into bounded, atomic store commits.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"BlogCrawler/internal/domain"
	"BlogCrawler/internal/ports"
)

// ErrUnitTooLarge is returned when one article needs more operations than a commit may hold.
var ErrUnitTooLarge = errors.New("article unit exceeds the commit limit")

// Unit is everything persisted for one article.
type Unit struct {
	Record domain.ArticleRecord
	Body   domain.ContentBody
}

// Ops expands the unit into store operations.
func (u Unit) Ops() []domain.WriteOp {
	return domain.ArticleOps(u.Record, u.Body)
}

// OpCount is 2 plus one counter increment per tag.
func (u Unit) OpCount() int {
	return 2 + len(u.Record.SkillIDs) + len(u.Record.JobGroupIDs)
}

// FlushError reports a failed commit together with the units it dropped.
type FlushError struct {
	Units []Unit
	Err   error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("commit of %d articles failed: %v", len(e.Units), e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

// Writer accumulates units and commits them so that no commit exceeds the threshold.
// A Writer serves a single source and is not safe for concurrent use.
type Writer struct {
	store     ports.ArticleStore
	metrics   ports.RunMetrics
	threshold int

	pending   []Unit
	ops       int
	committed int
}

// NewWriter returns a writer committing at most threshold ops per commit.
// metrics may be nil.
func NewWriter(store ports.ArticleStore, threshold int, metrics ports.RunMetrics) *Writer {
	if threshold < 1 {
		threshold = 1
	}
	return &Writer{store: store, metrics: metrics, threshold: threshold}
}

// Add buffers u, flushing before it when it would not fit and after it when the
// buffer reaches the threshold.
func (w *Writer) Add(ctx context.Context, u Unit) error {
	n := u.OpCount()
	if n > w.threshold {
		return fmt.Errorf("%w: article %s needs %d ops, limit %d", ErrUnitTooLarge, u.Record.ID, n, w.threshold)
	}

	if w.ops+n > w.threshold {
		if err := w.Flush(ctx); err != nil {
			// u was never buffered; it is lost with the batch ahead of it.
			var flushErr *FlushError
			if errors.As(err, &flushErr) {
				flushErr.Units = append(flushErr.Units, u)
			}
			return err
		}
	}

	w.pending = append(w.pending, u)
	w.ops += n

	if w.ops >= w.threshold {
		return w.Flush(ctx)
	}
	return nil
}

// Flush commits everything buffered. On failure the buffer is cleared and the lost
// units are returned inside a *FlushError.
func (w *Writer) Flush(ctx context.Context) error {
	if len(w.pending) == 0 {
		return nil
	}

	units := w.pending
	ops := make([]domain.WriteOp, 0, w.ops)
	for _, u := range units {
		ops = append(ops, u.Ops()...)
	}

	w.pending = nil
	w.ops = 0

	if err := w.store.Commit(ctx, ops); err != nil {
		return &FlushError{Units: units, Err: err}
	}

	w.committed += len(units)
	if w.metrics != nil {
		w.metrics.ObserveCommit(len(ops))
	}
	return nil
}

// Pending reports the buffered op count.
func (w *Writer) Pending() int {
	return w.ops
}

// Committed reports how many units have been durably written.
func (w *Writer) Committed() int {
	return w.committed
}
