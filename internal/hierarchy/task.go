package hierarchy

import (
	"context"
	"strings"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/model"
	"taskboard/internal/realtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// InsertTask writes the task under listID, copying the list's board, and
// then links it into the list's array.
func (m *Manager) InsertTask(ctx context.Context, actor, listID uuid.UUID, draft *model.Task, position *int) (*model.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return nil, apperr.Invalid("title is required")
	}
	list, err := m.store.Lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, list.BoardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}
	if list.Archived() {
		return nil, apperr.NotFound("List")
	}

	pos, err := m.nextTaskPosition(ctx, listID, position)
	if err != nil {
		return nil, err
	}
	draft.BoardID = list.BoardID
	draft.ListID = list.ID
	draft.Position = pos
	draft.CreatedBy = actor
	draft.ArchivedAt = nil

	if err := m.store.Tasks.Create(ctx, draft); err != nil {
		return nil, err
	}
	if err := m.linkTask(ctx, list, draft); err != nil {
		return nil, err
	}

	m.record(ctx, draft.BoardID, actor, model.EntityTask, draft.ID, "created_task", map[string]any{"title": draft.Title, "list": list.ID})
	m.emitter.Emit(realtime.BoardRoom(draft.BoardID), realtime.EventTaskCreated, draft)
	m.invalidate(ctx, draft.BoardID)
	return draft, nil
}

func (m *Manager) nextTaskPosition(ctx context.Context, listID uuid.UUID, position *int) (int, error) {
	if position != nil {
		return *position, nil
	}
	last, ok, err := m.store.Tasks.MaxPosition(ctx, listID)
	if err != nil || !ok {
		return 0, err
	}
	return last + 1, nil
}

func (m *Manager) linkTask(ctx context.Context, list *model.List, task *model.Task) error {
	siblings, err := m.store.Tasks.ByList(ctx, list.ID, true)
	if err != nil {
		return err
	}
	ids := placeID(list.TaskIDs, positions(taskChildren(siblings)), task.ID, task.Position)
	return m.store.Lists.SetTaskIDs(ctx, list.ID, ids)
}

// GetTask finds archived tasks too.
func (m *Manager) GetTask(ctx context.Context, actor, id uuid.UUID) (*model.Task, error) {
	task, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, task.BoardID, actor, model.RoleViewer); err != nil {
		return nil, err
	}
	return task, nil
}

func (m *Manager) UpdateTask(ctx context.Context, actor, id uuid.UUID, patch TaskPatch) (*model.Task, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	task, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, task.BoardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}

	cols := patch.columns()
	if len(cols) == 0 {
		return task, nil
	}
	if err := m.store.Tasks.Updates(ctx, id, cols); err != nil {
		return nil, err
	}
	updated, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.relinks() && !updated.Archived() {
		list, err := m.store.Lists.GetByID(ctx, updated.ListID)
		if err != nil {
			return nil, err
		}
		if err := m.linkTask(ctx, list, updated); err != nil {
			return nil, err
		}
	}

	m.record(ctx, updated.BoardID, actor, model.EntityTask, id, "updated_task", cols)
	m.emitter.Emit(realtime.TaskRoom(id), realtime.EventTaskUpdated, updated)
	m.invalidate(ctx, updated.BoardID)
	return updated, nil
}

// ArchiveTask soft deletes; the list's array keeps the id.
func (m *Manager) ArchiveTask(ctx context.Context, actor, id uuid.UUID) (*model.Task, error) {
	task, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, task.BoardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}
	if err := m.store.Tasks.Updates(ctx, id, map[string]any{"archived_at": time.Now()}); err != nil {
		return nil, err
	}
	archived, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.record(ctx, task.BoardID, actor, model.EntityTask, id, "archived_task", nil)
	m.emitter.Emit(realtime.TaskRoom(id), realtime.EventTaskUpdated, archived)
	m.invalidate(ctx, task.BoardID)
	return archived, nil
}

// DeleteTask removes the task and its journal entries, then unlinks it.
func (m *Manager) DeleteTask(ctx context.Context, actor, id uuid.UUID) error {
	task, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := m.require(ctx, task.BoardID, actor, model.RoleEditor); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.store.Tasks.Delete(gctx, id) })
	g.Go(func() error { return m.store.Activities.DeleteByEntities(gctx, []uuid.UUID{id}) })
	if err := g.Wait(); err != nil {
		return err
	}

	list, err := m.store.Lists.GetByID(ctx, task.ListID)
	switch {
	case err == nil:
		if err := m.store.Lists.SetTaskIDs(ctx, list.ID, removeID(list.TaskIDs, id)); err != nil {
			return err
		}
	case !notFound(err):
		return err
	}

	m.record(ctx, task.BoardID, actor, model.EntityList, task.ListID, "deleted_task", map[string]string{"title": task.Title})
	m.emitDeleted(id)
	m.invalidate(ctx, task.BoardID)
	return nil
}

// MoveTask relinks a task under targetListID and rewrites its board from
// the target list. A nil position appends.
func (m *Manager) MoveTask(ctx context.Context, actor, id, targetListID uuid.UUID, position *int) (*model.Task, error) {
	task, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, task.BoardID, actor, model.RoleEditor); err != nil {
		return nil, err
	}
	target, err := m.store.Lists.GetByID(ctx, targetListID)
	if err != nil {
		return nil, err
	}
	if target.Archived() {
		return nil, apperr.NotFound("List")
	}
	if target.BoardID != task.BoardID {
		if err := m.require(ctx, target.BoardID, actor, model.RoleEditor); err != nil {
			return nil, err
		}
	}

	pos := 0
	if position != nil {
		pos = *position
	} else if target.ID == task.ListID {
		pos = task.Position
	} else if pos, err = m.nextTaskPosition(ctx, target.ID, nil); err != nil {
		return nil, err
	}

	if err := m.store.Tasks.Move(ctx, id, target.ID, target.BoardID, pos); err != nil {
		return nil, err
	}
	if task.ListID != target.ID {
		source, err := m.store.Lists.GetByID(ctx, task.ListID)
		switch {
		case err == nil:
			if err := m.store.Lists.SetTaskIDs(ctx, source.ID, removeID(source.TaskIDs, id)); err != nil {
				return nil, err
			}
		case !notFound(err):
			return nil, err
		}
	}

	moved, err := m.store.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !moved.Archived() {
		if err := m.linkTask(ctx, target, moved); err != nil {
			return nil, err
		}
	}

	m.record(ctx, moved.BoardID, actor, model.EntityTask, id, "moved_task", map[string]any{
		"from":     task.ListID,
		"to":       target.ID,
		"position": pos,
	})
	m.emitter.Emit(realtime.TaskRoom(id), realtime.EventTaskUpdated, moved)
	m.invalidate(ctx, task.BoardID)
	if target.BoardID != task.BoardID {
		m.invalidate(ctx, target.BoardID)
	}
	return moved, nil
}
