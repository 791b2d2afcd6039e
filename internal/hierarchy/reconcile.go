package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Report counts what a reconciliation pass rewrote.
type Report struct {
	Boards    int   `json:"boards"`
	Lists     int   `json:"lists"`
	Tasks     int   `json:"tasks"`
	Realigned int64 `json:"realigned"`
}

func (r *Report) add(o Report) {
	r.Boards += o.Boards
	r.Lists += o.Lists
	r.Tasks += o.Tasks
	r.Realigned += o.Realigned
}

// Reconcile rebuilds the board's list array and every list's task array
// from child queries, and points each task at its list's board. Running it
// again without intervening writes changes nothing.
func (m *Manager) Reconcile(ctx context.Context, boardID uuid.UUID) (Report, error) {
	var report Report

	lists, err := m.store.Lists.ByBoard(ctx, boardID, true)
	if err != nil {
		return report, err
	}
	if err := m.store.Boards.SetListIDs(ctx, boardID, ordered(listChildren(lists))); err != nil {
		return report, err
	}
	report.Boards = 1

	for _, l := range lists {
		n, err := m.store.Tasks.RealignBoard(ctx, l.ID, boardID)
		if err != nil {
			return report, err
		}
		report.Realigned += n

		tasks, err := m.store.Tasks.ByList(ctx, l.ID, true)
		if err != nil {
			return report, err
		}
		ids := ordered(taskChildren(tasks))
		if err := m.store.Lists.SetTaskIDs(ctx, l.ID, ids); err != nil {
			return report, err
		}
		report.Lists++
		report.Tasks += len(ids)
	}

	m.invalidate(ctx, boardID)
	return report, nil
}

// ReconcileAll walks every board. A failing board is logged and skipped;
// the joined errors are returned at the end.
func (m *Manager) ReconcileAll(ctx context.Context) (Report, error) {
	var total Report
	ids, err := m.store.Boards.IDs(ctx)
	if err != nil {
		return total, err
	}

	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		r, err := m.Reconcile(ctx, id)
		total.add(r)
		if err != nil {
			log.Printf("[hierarchy] reconcile board %s: %v", id, err)
			errs = append(errs, fmt.Errorf("board %s: %w", id, err))
		}
	}
	log.Printf("[hierarchy] reconciled %d boards, %d lists, %d tasks (%d realigned)",
		total.Boards, total.Lists, total.Tasks, total.Realigned)
	return total, errors.Join(errs...)
}
