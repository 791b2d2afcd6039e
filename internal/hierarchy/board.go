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

// CreateBoard inserts a root board owned by actor.
func (m *Manager) CreateBoard(ctx context.Context, actor uuid.UUID, draft *model.Board) (*model.Board, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, apperr.Invalid("title is required")
	}
	draft.OwnerID = actor
	draft.ArchivedAt = nil
	draft.ListIDs = nil

	if err := m.store.Boards.Create(ctx, draft); err != nil {
		return nil, err
	}

	m.record(ctx, draft.ID, actor, model.EntityBoard, draft.ID, "created_board", map[string]string{"title": draft.Title})
	m.touchRecent(ctx, actor, draft)
	return draft, nil
}

func (m *Manager) ListBoards(ctx context.Context, actor uuid.UUID) ([]model.Board, error) {
	return m.store.Boards.ListAccessible(ctx, actor)
}

// GetBoard returns the populated board and records the visit.
func (m *Manager) GetBoard(ctx context.Context, actor, id uuid.UUID) (*Snapshot, error) {
	if err := m.require(ctx, id, actor, model.RoleViewer); err != nil {
		return nil, err
	}

	var snap Snapshot
	err := m.cache.Load(ctx, id, &snap, func(ctx context.Context) (any, error) {
		return m.snapshot(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	m.touchRecent(ctx, actor, &snap.Board)
	return &snap, nil
}

func (m *Manager) UpdateBoard(ctx context.Context, actor, id uuid.UUID, patch BoardPatch) (*model.Board, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	role := model.RoleEditor
	if patch.ArchivedAt.Set {
		role = model.RoleOwner
	}
	if err := m.require(ctx, id, actor, role); err != nil {
		return nil, err
	}

	cols := patch.columns()
	if len(cols) > 0 {
		if err := m.store.Boards.Updates(ctx, id, cols); err != nil {
			return nil, err
		}
		m.record(ctx, id, actor, model.EntityBoard, id, "updated_board", cols)
		m.invalidate(ctx, id)
	}
	return m.store.Boards.GetByID(ctx, id)
}

// ArchiveBoard soft deletes. Lists, tasks and the journal stay as they are.
func (m *Manager) ArchiveBoard(ctx context.Context, actor, id uuid.UUID) (*model.Board, error) {
	if err := m.require(ctx, id, actor, model.RoleOwner); err != nil {
		return nil, err
	}
	if err := m.store.Boards.Updates(ctx, id, map[string]any{"archived_at": time.Now()}); err != nil {
		return nil, err
	}
	m.record(ctx, id, actor, model.EntityBoard, id, "archived_board", nil)
	m.invalidate(ctx, id)
	return m.store.Boards.GetByID(ctx, id)
}

// DeleteBoard removes the board with its lists, tasks, shares and journal,
// and drops it from the recent and starred boards of everyone it was shared
// with.
// The cascade deletes run in parallel; if one fails the others may already
// have committed and the board row is kept.
func (m *Manager) DeleteBoard(ctx context.Context, actor, id uuid.UUID) error {
	if err := m.require(ctx, id, actor, model.RoleOwner); err != nil {
		return err
	}
	tasks, err := m.store.Tasks.ByBoard(ctx, id, true)
	if err != nil {
		return err
	}
	shares, err := m.store.Shares.GetBoardShares(ctx, id)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.store.Tasks.DeleteByBoard(gctx, id) })
	g.Go(func() error { return m.store.Lists.DeleteByBoard(gctx, id) })
	g.Go(func() error { return m.store.Activities.DeleteByBoard(gctx, id) })
	g.Go(func() error { return m.store.Shares.DeleteByBoard(gctx, id) })
	if err := g.Wait(); err != nil {
		return err
	}
	if err := m.store.Boards.Delete(ctx, id); err != nil {
		return err
	}

	for _, t := range tasks {
		m.emitDeleted(t.ID)
	}
	m.forgetBoard(ctx, actor, id)
	for _, share := range shares {
		m.forgetBoard(ctx, share.UserID, id)
	}
	m.invalidate(ctx, id)
	return nil
}

// ReorderLists takes the full ordering of the board's active lists.
func (m *Manager) ReorderLists(ctx context.Context, actor, boardID uuid.UUID, ids []uuid.UUID) error {
	if err := m.require(ctx, boardID, actor, model.RoleEditor); err != nil {
		return err
	}
	lists, err := m.store.Lists.ByBoard(ctx, boardID, false)
	if err != nil {
		return err
	}
	current := ordered(listChildren(lists))
	if !sameSet(ids, current) {
		return apperr.InvalidOrder("ids must name every active list of the board exactly once",
			map[string]int{"expected": len(current), "received": len(ids)})
	}

	if err := m.store.Lists.Reorder(ctx, ids); err != nil {
		return err
	}
	if err := m.store.Boards.SetListIDs(ctx, boardID, ids); err != nil {
		return err
	}
	m.record(ctx, boardID, actor, model.EntityBoard, boardID, "reordered_lists", map[string]any{"lists": ids})
	m.invalidate(ctx, boardID)
	return nil
}
