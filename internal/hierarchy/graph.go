package hierarchy

import (
	"context"
	"fmt"

	"taskboard/internal/apperr"
	"taskboard/internal/model"

	"github.com/google/uuid"
)

// The methods below are the bulk primitives the template materializer
// drives. Each one is a single store write or a compensation for one.

// CreateBoardRecord writes the root of a bulk graph.
func (m *Manager) CreateBoardRecord(ctx context.Context, actor uuid.UUID, board *model.Board) error {
	if board.Title == "" {
		return apperr.Invalid("title is required")
	}
	board.OwnerID = actor
	board.ListIDs = nil
	return m.store.Boards.Create(ctx, board)
}

// BulkInsertLists stores lists under board in one batch.
func (m *Manager) BulkInsertLists(ctx context.Context, board *model.Board, lists []*model.List) error {
	if len(lists) == 0 {
		return nil
	}
	for _, l := range lists {
		l.BoardID = board.ID
		l.TaskIDs = nil
	}
	return m.store.Lists.CreateBatch(ctx, lists)
}

// BulkInsertTasks stores tasks in one batch. Every task must reference one
// of lists; its board is copied from that list.
func (m *Manager) BulkInsertTasks(ctx context.Context, actor uuid.UUID, lists []*model.List, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.List, len(lists))
	for _, l := range lists {
		byID[l.ID] = l
	}
	for _, t := range tasks {
		parent, ok := byID[t.ListID]
		if !ok {
			return apperr.Invalid(fmt.Sprintf("task %q references an unknown list", t.Title))
		}
		t.BoardID = parent.BoardID
		t.CreatedBy = actor
	}
	return m.store.Tasks.CreateBatch(ctx, tasks)
}

// Link fills every list's task array and then the board's list array, both
// in display order.
func (m *Manager) Link(ctx context.Context, board *model.Board, lists []*model.List, tasks []*model.Task) error {
	byList := make(map[uuid.UUID][]child, len(lists))
	for _, t := range tasks {
		byList[t.ListID] = append(byList[t.ListID], taskChild(t))
	}

	children := make([]child, 0, len(lists))
	for _, l := range lists {
		ids := ordered(byList[l.ID])
		if err := m.store.Lists.SetTaskIDs(ctx, l.ID, ids); err != nil {
			return err
		}
		l.TaskIDs = ids
		children = append(children, listChild(l))
	}

	ids := ordered(children)
	if err := m.store.Boards.SetListIDs(ctx, board.ID, ids); err != nil {
		return err
	}
	board.ListIDs = ids
	return nil
}

func (m *Manager) DropTasks(ctx context.Context, ids []uuid.UUID) error {
	return m.store.Tasks.DeleteByIDs(ctx, ids)
}

func (m *Manager) DropLists(ctx context.Context, ids []uuid.UUID) error {
	return m.store.Lists.DeleteByIDs(ctx, ids)
}

func (m *Manager) DropBoard(ctx context.Context, id uuid.UUID) error {
	return m.store.Boards.Delete(ctx, id)
}

// Announce journals a finished bulk graph and records the visit.
func (m *Manager) Announce(ctx context.Context, actor uuid.UUID, board *model.Board, source string) {
	m.record(ctx, board.ID, actor, model.EntityBoard, board.ID, "created_board", map[string]string{
		"title":  board.Title,
		"source": source,
	})
	m.touchRecent(ctx, actor, board)
	m.invalidate(ctx, board.ID)
}
