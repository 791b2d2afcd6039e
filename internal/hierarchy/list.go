package hierarchy

import (
	"context"
	"strings"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// InsertList writes the list and then links it into the board's array.
// A nil position appends after the last list.
func (m *Manager) InsertList(ctx context.Context, actor, boardID uuid.UUID, draft *model.List, position *int) (*model.List, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, apperr.Invalid("title is required")
	}
	board, err := m.store.Boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, boardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}
	if board.Archived() {
		return nil, apperr.NotFound("Board")
	}

	pos, err := m.nextListPosition(ctx, boardID, position)
	if err != nil {
		return nil, err
	}
	draft.BoardID = board.ID
	draft.Position = pos
	draft.ArchivedAt = nil
	draft.TaskIDs = nil

	if err := m.store.Lists.Create(ctx, draft); err != nil {
		return nil, err
	}
	if err := m.linkList(ctx, board, draft); err != nil {
		return nil, err
	}

	m.record(ctx, boardID, actor, model.EntityList, draft.ID, "created_list", map[string]any{"title": draft.Title, "position": pos})
	m.invalidate(ctx, boardID)
	return draft, nil
}

func (m *Manager) nextListPosition(ctx context.Context, boardID uuid.UUID, position *int) (int, error) {
	if position != nil {
		return *position, nil
	}
	last, ok, err := m.store.Lists.MaxPosition(ctx, boardID)
	if err != nil || !ok {
		return 0, err
	}
	return last + 1, nil
}

func (m *Manager) linkList(ctx context.Context, board *model.Board, list *model.List) error {
	siblings, err := m.store.Lists.ByBoard(ctx, board.ID, true)
	if err != nil {
		return err
	}
	ids := placeID(board.ListIDs, positions(listChildren(siblings)), list.ID, list.Position)
	return m.store.Boards.SetListIDs(ctx, board.ID, ids)
}

// GetList returns the list with its active tasks. Archived lists stay
// readable by id.
func (m *Manager) GetList(ctx context.Context, actor, id uuid.UUID) (*ListSnapshot, error) {
	list, err := m.store.Lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, list.BoardID, actor, model.RoleViewer); err != nil {
		return nil, err
	}
	tasks, err := m.store.Tasks.ByList(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return &ListSnapshot{List: *list, Tasks: tasks}, nil
}

func (m *Manager) UpdateList(ctx context.Context, actor, id uuid.UUID, patch ListPatch) (*model.List, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	list, err := m.store.Lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, list.BoardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}

	cols := patch.columns()
	if len(cols) == 0 {
		return list, nil
	}
	if err := m.store.Lists.Updates(ctx, id, cols); err != nil {
		return nil, err
	}
	updated, err := m.store.Lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.relinks() && !updated.Archived() {
		board, err := m.store.Boards.GetByID(ctx, updated.BoardID)
		if err != nil {
			return nil, err
		}
		if err := m.linkList(ctx, board, updated); err != nil {
			return nil, err
		}
	}

	m.record(ctx, updated.BoardID, actor, model.EntityList, id, "updated_list", cols)
	m.invalidate(ctx, updated.BoardID)
	return updated, nil
}

// ArchiveList soft deletes; the board's array keeps the id.
func (m *Manager) ArchiveList(ctx context.Context, actor, id uuid.UUID) (*model.List, error) {
	list, err := m.store.Lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, list.BoardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}
	if err := m.store.Lists.Updates(ctx, id, map[string]any{"archived_at": time.Now()}); err != nil {
		return nil, err
	}
	m.record(ctx, list.BoardID, actor, model.EntityList, id, "archived_list", nil)
	m.invalidate(ctx, list.BoardID)
	return m.store.Lists.GetByID(ctx, id)
}

// DeleteList removes the list, its tasks and their journal entries, then
// unlinks it from the board.
func (m *Manager) DeleteList(ctx context.Context, actor, id uuid.UUID) error {
	list, err := m.store.Lists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := m.require(ctx, list.BoardID, actor, model.RoleEditor); err != nil {
		return err
	}
	taskIDs, err := m.store.Tasks.IDsByList(ctx, id)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.store.Tasks.DeleteByList(gctx, id) })
	g.Go(func() error { return m.store.Activities.DeleteByEntities(gctx, append([]uuid.UUID{id}, taskIDs...)) })
	g.Go(func() error { return m.store.Lists.Delete(gctx, id) })
	if err := g.Wait(); err != nil {
		return err
	}

	board, err := m.store.Boards.GetByID(ctx, list.BoardID)
	switch {
	case err == nil:
		if err := m.store.Boards.SetListIDs(ctx, board.ID, removeID(board.ListIDs, id)); err != nil {
			return err
		}
	case !notFound(err):
		return err
	}

	m.emitDeleted(taskIDs...)
	m.record(ctx, list.BoardID, actor, model.EntityBoard, list.BoardID, "deleted_list", map[string]string{"title": list.Title})
	m.invalidate(ctx, list.BoardID)
	return nil
}

// ReorderTasks takes the full ordering of the list's active tasks.
func (m *Manager) ReorderTasks(ctx context.Context, actor, listID uuid.UUID, ids []uuid.UUID) error {
	list, err := m.store.Lists.GetByID(ctx, listID)
	if err != nil {
		return err
	}
	if err := m.require(ctx, list.BoardID, actor, model.RoleEditor); err != nil {
		return err
	}
	tasks, err := m.store.Tasks.ByList(ctx, listID, false)
	if err != nil {
		return err
	}
	current := ordered(taskChildren(tasks))
	if !sameSet(ids, current) {
		return apperr.InvalidOrder("ids must name every active task of the list exactly once",
			map[string]int{"expected": len(current), "received": len(ids)})
	}

	if err := m.store.Tasks.Reorder(ctx, ids); err != nil {
		return err
	}
	if err := m.store.Lists.SetTaskIDs(ctx, listID, ids); err != nil {
		return err
	}
	m.record(ctx, list.BoardID, actor, model.EntityList, listID, "reordered_tasks", map[string]any{"tasks": ids})
	m.invalidate(ctx, list.BoardID)
	return nil
}
