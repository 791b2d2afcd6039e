// Package hierarchy owns the Board -> List -> Task containment. It is the only
// writer of the ordered child arrays and of the task's board back-reference.
package hierarchy

import (
	"context"
	"errors"
	"log"

	"taskboard/internal/apperr"
	"taskboard/internal/cache"
	"taskboard/internal/journal"
	"taskboard/internal/model"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"

	"github.com/google/uuid"
)

const msgForbidden = "You don't have permission to modify this board"

// Emitter pushes an event to a room. *realtime.Hub and *realtime.RedisRelay
// satisfy it.
type Emitter interface {
	Emit(room, event string, payload any)
}

type Journal interface {
	Record(ctx context.Context, e journal.Entry)
	ListForBoard(ctx context.Context, boardID uuid.UUID, limit, skip int) ([]model.Activity, error)
	ListForTask(ctx context.Context, taskID uuid.UUID) ([]repository.ActivityView, error)
}

type SnapshotCache interface {
	Load(ctx context.Context, boardID uuid.UUID, dst any, fill func(ctx context.Context) (any, error)) error
	Invalidate(ctx context.Context, boardID uuid.UUID)
}

// Guard answers whether a user holds at least role on a board.
type Guard interface {
	CheckAccess(ctx context.Context, boardID, userID uuid.UUID, requiredRole string) (bool, error)
}

type Manager struct {
	store   *repository.Store
	guard   Guard
	journal Journal
	emitter Emitter
	cache   SnapshotCache
}

// NewManager wires the manager. emitter must be non-nil; a nil snapshot
// cache means every read goes to the store.
func NewManager(store *repository.Store, j Journal, emitter Emitter, snapshots SnapshotCache) *Manager {
	if emitter == nil {
		panic("hierarchy: NewManager needs an emitter")
	}
	if snapshots == nil {
		snapshots = cache.NewBoardCache(nil, 0)
	}
	return &Manager{
		store:   store,
		guard:   store.Shares,
		journal: j,
		emitter: emitter,
		cache:   snapshots,
	}
}

func (m *Manager) require(ctx context.Context, boardID, actor uuid.UUID, role string) error {
	ok, err := m.guard.CheckAccess(ctx, boardID, actor, role)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if role == model.RoleViewer {
		return apperr.NotFound("Board")
	}
	return apperr.Forbidden(msgForbidden)
}

// Authorize is the websocket join check: kind is "board" or "task".
func (m *Manager) Authorize(ctx context.Context, actor uuid.UUID, kind string, id uuid.UUID) error {
	boardID := id
	if kind == "task" {
		task, err := m.store.Tasks.GetByID(ctx, id)
		if err != nil {
			return err
		}
		boardID = task.BoardID
	}
	return m.require(ctx, boardID, actor, model.RoleViewer)
}

func (m *Manager) record(ctx context.Context, boardID, actor uuid.UUID, kind string, entityID uuid.UUID, action string, payload any) {
	m.journal.Record(ctx, journal.Entry{
		BoardID:    boardID,
		UserID:     actor,
		EntityKind: kind,
		EntityID:   entityID,
		Action:     action,
		Payload:    payload,
	})
}

func (m *Manager) invalidate(ctx context.Context, boardIDs ...uuid.UUID) {
	for _, id := range boardIDs {
		m.cache.Invalidate(ctx, id)
	}
}

type deletedTask struct {
	ID uuid.UUID `json:"id"`
}

func (m *Manager) emitDeleted(ids ...uuid.UUID) {
	for _, id := range ids {
		m.emitter.Emit(realtime.TaskRoom(id), realtime.EventTaskDeleted, deletedTask{ID: id})
	}
}

// touchRecent pushes board to the front of the actor's recent boards.
func (m *Manager) touchRecent(ctx context.Context, actor uuid.UUID, board *model.Board) {
	user, err := m.store.Users.GetByID(ctx, actor)
	if err != nil {
		log.Printf("[hierarchy] recent boards for %s: %v", actor, err)
		return
	}
	refs := model.PushBoardRef(user.RecentBoards, boardRef(board))
	if err := m.store.Users.SetRecentBoards(ctx, actor, refs); err != nil {
		log.Printf("[hierarchy] recent boards for %s: %v", actor, err)
	}
}

func (m *Manager) forgetBoard(ctx context.Context, actor, boardID uuid.UUID) {
	user, err := m.store.Users.GetByID(ctx, actor)
	if err != nil {
		return
	}
	if err := m.store.Users.SetRecentBoards(ctx, actor, model.DropBoardRef(user.RecentBoards, boardID)); err != nil {
		log.Printf("[hierarchy] recent boards for %s: %v", actor, err)
	}
	if err := m.store.Users.SetStarredBoards(ctx, actor, model.DropBoardRef(user.StarredBoards, boardID)); err != nil {
		log.Printf("[hierarchy] starred boards for %s: %v", actor, err)
	}
}

func boardRef(b *model.Board) model.BoardRef {
	return model.BoardRef{Board: b.ID, Title: b.Title, Style: b.Style.Data()}
}

func notFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound)
}

// BoardActivities pages through a board's journal.
func (m *Manager) BoardActivities(ctx context.Context, actor, boardID uuid.UUID, limit, skip int) ([]model.Activity, error) {
	if err := m.require(ctx, boardID, actor, model.RoleViewer); err != nil {
		return nil, err
	}
	return m.journal.ListForBoard(ctx, boardID, limit, skip)
}

func (m *Manager) TaskActivities(ctx context.Context, actor, taskID uuid.UUID) ([]repository.ActivityView, error) {
	task, err := m.store.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := m.require(ctx, task.BoardID, actor, model.RoleViewer); err != nil {
		return nil, err
	}
	return m.journal.ListForTask(ctx, taskID)
}
