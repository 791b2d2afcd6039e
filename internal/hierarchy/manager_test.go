package hierarchy_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/hierarchy"
	"taskboard/internal/journal"
	"taskboard/internal/model"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"
	"taskboard/internal/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emitted struct {
	Room    string
	Event   string
	Payload any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) Emit(room, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{Room: room, Event: event, Payload: payload})
}

func (f *fakeEmitter) all() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.events...)
}

type fixture struct {
	ctx     context.Context
	mgr     *hierarchy.Manager
	store   *repository.Store
	emitter *fakeEmitter
	owner   *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewStore(testdb.New(t))
	emitter := &fakeEmitter{}
	owner := &model.User{Fullname: "Olivia Owner", Email: "olivia@example.com", HashedPassword: "x"}
	require.NoError(t, store.Users.Create(ctx, owner))

	return &fixture{
		ctx:     ctx,
		mgr:     hierarchy.NewManager(store, journal.New(store.Activities), emitter, nil),
		store:   store,
		emitter: emitter,
		owner:   owner,
	}
}

func (f *fixture) board(t *testing.T, title string) *model.Board {
	t.Helper()
	b, err := f.mgr.CreateBoard(f.ctx, f.owner.ID, &model.Board{Title: title})
	require.NoError(t, err)
	return b
}

func (f *fixture) list(t *testing.T, boardID uuid.UUID, title string) *model.List {
	t.Helper()
	l, err := f.mgr.InsertList(f.ctx, f.owner.ID, boardID, &model.List{Title: title}, nil)
	require.NoError(t, err)
	return l
}

func (f *fixture) task(t *testing.T, listID uuid.UUID, title string) *model.Task {
	t.Helper()
	task, err := f.mgr.InsertTask(f.ctx, f.owner.ID, listID, &model.Task{Title: title}, nil)
	require.NoError(t, err)
	return task
}

func (f *fixture) boardListIDs(t *testing.T, id uuid.UUID) []uuid.UUID {
	t.Helper()
	b, err := f.store.Boards.GetByID(f.ctx, id)
	require.NoError(t, err)
	return b.ListIDs
}

func (f *fixture) listTaskIDs(t *testing.T, id uuid.UUID) []uuid.UUID {
	t.Helper()
	l, err := f.store.Lists.GetByID(f.ctx, id)
	require.NoError(t, err)
	return l.TaskIDs
}

func ptr[T any](v T) *T { return &v }

func TestInsertList_AppendsAndKeepsPositionOrder(t *testing.T) {
	f := setup(t)
	b := f.board(t, "Roadmap")

	l0 := f.list(t, b.ID, "Todo")
	l1 := f.list(t, b.ID, "Doing")
	l2 := f.list(t, b.ID, "Done")
	assert.Equal(t, []int{0, 1, 2}, []int{l0.Position, l1.Position, l2.Position})
	assert.Equal(t, []uuid.UUID{l0.ID, l1.ID, l2.ID}, f.boardListIDs(t, b.ID))

	mid, err := f.mgr.InsertList(f.ctx, f.owner.ID, b.ID, &model.List{Title: "Review"}, ptr(1))
	require.NoError(t, err)
	assert.Equal(t, b.ID, mid.BoardID)
	assert.Equal(t, []uuid.UUID{l0.ID, l1.ID, mid.ID, l2.ID}, f.boardListIDs(t, b.ID))
}

func TestInsertChild_ParentMissingOrArchived(t *testing.T) {
	f := setup(t)

	_, err := f.mgr.InsertList(f.ctx, f.owner.ID, uuid.New(), &model.List{Title: "x"}, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.mgr.InsertTask(f.ctx, f.owner.ID, uuid.New(), &model.Task{Title: "x"}, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	b := f.board(t, "B")
	l := f.list(t, b.ID, "L")
	_, err = f.mgr.ArchiveList(f.ctx, f.owner.ID, l.ID)
	require.NoError(t, err)
	_, err = f.mgr.InsertTask(f.ctx, f.owner.ID, l.ID, &model.Task{Title: "late"}, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.mgr.ArchiveBoard(f.ctx, f.owner.ID, b.ID)
	require.NoError(t, err)
	_, err = f.mgr.InsertList(f.ctx, f.owner.ID, b.ID, &model.List{Title: "late"}, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.mgr.InsertList(f.ctx, f.owner.ID, f.board(t, "C").ID, &model.List{Title: "  "}, nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestReorderTasks(t *testing.T) {
	f := setup(t)
	b := f.board(t, "B")
	l := f.list(t, b.ID, "L")
	c1 := f.task(t, l.ID, "one")
	c2 := f.task(t, l.ID, "two")
	c3 := f.task(t, l.ID, "three")

	require.NoError(t, f.mgr.ReorderTasks(f.ctx, f.owner.ID, l.ID, []uuid.UUID{c3.ID, c1.ID, c2.ID}))

	tasks, err := f.store.Tasks.ByList(f.ctx, l.ID, false)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []uuid.UUID{c3.ID, c1.ID, c2.ID}, []uuid.UUID{tasks[0].ID, tasks[1].ID, tasks[2].ID})
	assert.Equal(t, []int{0, 1, 2}, []int{tasks[0].Position, tasks[1].Position, tasks[2].Position})
	assert.Equal(t, []uuid.UUID{c3.ID, c1.ID, c2.ID}, f.listTaskIDs(t, l.ID))

	err = f.mgr.ReorderTasks(f.ctx, f.owner.ID, l.ID, []uuid.UUID{c1.ID, c2.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidOrder)
	err = f.mgr.ReorderTasks(f.ctx, f.owner.ID, l.ID, []uuid.UUID{c1.ID, c1.ID, c2.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidOrder)
	assert.Equal(t, []uuid.UUID{c3.ID, c1.ID, c2.ID}, f.listTaskIDs(t, l.ID))
}

func TestReorderLists_IgnoresArchived(t *testing.T) {
	f := setup(t)
	b := f.board(t, "B")
	l0 := f.list(t, b.ID, "a")
	l1 := f.list(t, b.ID, "b")
	l2 := f.list(t, b.ID, "c")
	_, err := f.mgr.ArchiveList(f.ctx, f.owner.ID, l1.ID)
	require.NoError(t, err)

	err = f.mgr.ReorderLists(f.ctx, f.owner.ID, b.ID, []uuid.UUID{l2.ID, l1.ID, l0.ID})
	assert.ErrorIs(t, err, apperr.ErrInvalidOrder)

	require.NoError(t, f.mgr.ReorderLists(f.ctx, f.owner.ID, b.ID, []uuid.UUID{l2.ID, l0.ID}))
	assert.Equal(t, []uuid.UUID{l2.ID, l0.ID}, f.boardListIDs(t, b.ID))
}

func TestReconcile_RepairsDriftAndIsIdempotent(t *testing.T) {
	f := setup(t)
	b := f.board(t, "B")
	l0 := f.list(t, b.ID, "a")
	l1 := f.list(t, b.ID, "b")
	t0 := f.task(t, l0.ID, "first")
	t1 := f.task(t, l0.ID, "second")

	orphanList := &model.List{BoardID: b.ID, Title: "orphan", Position: 5}
	require.NoError(t, f.store.Lists.Create(f.ctx, orphanList))
	orphanTask := &model.Task{BoardID: b.ID, ListID: l1.ID, Title: "orphan task", Position: 0}
	require.NoError(t, f.store.Tasks.Create(f.ctx, orphanTask))
	require.NoError(t, f.store.Boards.SetListIDs(f.ctx, b.ID, []uuid.UUID{uuid.New()}))
	require.NoError(t, f.store.Tasks.Updates(f.ctx, t1.ID, map[string]any{"board_id": uuid.New()}))

	report, err := f.mgr.Reconcile(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Realigned)
	assert.Equal(t, 3, report.Lists)

	first := f.boardListIDs(t, b.ID)
	assert.Equal(t, []uuid.UUID{l0.ID, l1.ID, orphanList.ID}, first)
	assert.Equal(t, []uuid.UUID{t0.ID, t1.ID}, f.listTaskIDs(t, l0.ID))
	assert.Equal(t, []uuid.UUID{orphanTask.ID}, f.listTaskIDs(t, l1.ID))

	moved, err := f.store.Tasks.GetByID(f.ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, moved.BoardID)

	again, err := f.mgr.Reconcile(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Realigned)
	assert.Equal(t, first, f.boardListIDs(t, b.ID))
	assert.Equal(t, []uuid.UUID{t0.ID, t1.ID}, f.listTaskIDs(t, l0.ID))

	total, err := f.mgr.ReconcileAll(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total.Boards)
}

func TestDeleteBoard_Cascades(t *testing.T) {
	f := setup(t)
	b := f.board(t, "Doomed")
	keep := f.board(t, "Keep")
	l0 := f.list(t, b.ID, "a")
	l1 := f.list(t, b.ID, "b")
	for i := 0; i < 3; i++ {
		f.task(t, l0.ID, "t")
	}
	for i := 0; i < 2; i++ {
		f.task(t, l1.ID, "t")
	}
	f.list(t, keep.ID, "survivor")

	before, err := f.store.Activities.ListByBoard(f.ctx, b.ID, 100, 0)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	require.NoError(t, f.mgr.DeleteBoard(f.ctx, f.owner.ID, b.ID))

	_, err = f.store.Boards.GetByID(f.ctx, b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	tasks, err := f.store.Tasks.ByBoard(f.ctx, b.ID, true)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	lists, err := f.store.Lists.ByBoard(f.ctx, b.ID, true)
	require.NoError(t, err)
	assert.Empty(t, lists)
	after, err := f.store.Activities.ListByBoard(f.ctx, b.ID, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, after)

	survivors, err := f.store.Lists.ByBoard(f.ctx, keep.ID, true)
	require.NoError(t, err)
	assert.Len(t, survivors, 1)

	deleted := 0
	for _, e := range f.emitter.all() {
		if e.Event == realtime.EventTaskDeleted {
			deleted++
		}
	}
	assert.Equal(t, 5, deleted)
}

func TestDeleteList_UnlinksAndRemovesTasks(t *testing.T) {
	f := setup(t)
	b := f.board(t, "B")
	l0 := f.list(t, b.ID, "a")
	l1 := f.list(t, b.ID, "b")
	task := f.task(t, l1.ID, "goes away")

	require.NoError(t, f.mgr.DeleteList(f.ctx, f.owner.ID, l1.ID))

	assert.Equal(t, []uuid.UUID{l0.ID}, f.boardListIDs(t, b.ID))
	_, err := f.store.Tasks.GetByID(f.ctx, task.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	history, err := f.store.Activities.ListByTask(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestArchiveTask_SoftDeleteShape(t *testing.T) {
	f := setup(t)
	b := f.board(t, "B")
	l := f.list(t, b.ID, "L")
	keep := f.task(t, l.ID, "keep")
	gone := f.task(t, l.ID, "archive me")

	archived, err := f.mgr.ArchiveTask(f.ctx, f.owner.ID, gone.ID)
	require.NoError(t, err)
	assert.NotNil(t, archived.ArchivedAt)

	direct, err := f.mgr.GetTask(f.ctx, f.owner.ID, gone.ID)
	require.NoError(t, err)
	assert.True(t, direct.Archived())

	snap, err := f.mgr.GetBoard(f.ctx, f.owner.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, snap.Lists, 1)
	require.Len(t, snap.Lists[0].Tasks, 1)
	assert.Equal(t, keep.ID, snap.Lists[0].Tasks[0].ID)

	assert.Equal(t, []uuid.UUID{keep.ID, gone.ID}, f.listTaskIDs(t, l.ID))
	history, err := f.store.Activities.ListByTask(f.ctx, gone.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestBroadcastScenario(t *testing.T) {
	f := setup(t)
	b := f.board(t, "B")
	other := f.board(t, "Other")
	l := f.list(t, b.ID, "L")

	task := f.task(t, l.ID, "watch me")
	_, err := f.mgr.UpdateTask(f.ctx, f.owner.ID, task.ID, hierarchy.TaskPatch{Title: ptr("renamed")})
	require.NoError(t, err)

	events := f.emitter.all()
	require.Len(t, events, 2)
	assert.Equal(t, realtime.BoardRoom(b.ID), events[0].Room)
	assert.Equal(t, realtime.EventTaskCreated, events[0].Event)
	assert.Equal(t, realtime.TaskRoom(task.ID), events[1].Room)
	assert.Equal(t, realtime.EventTaskUpdated, events[1].Event)
	for _, e := range events {
		assert.NotEqual(t, realtime.BoardRoom(other.ID), e.Room)
	}
}

func TestUpdateTask_PositionRelinks(t *testing.T) {
	f := setup(t)
	b := f.board(t, "B")
	l := f.list(t, b.ID, "L")
	t0 := f.task(t, l.ID, "a")
	t1 := f.task(t, l.ID, "b")
	t2 := f.task(t, l.ID, "c")

	updated, err := f.mgr.UpdateTask(f.ctx, f.owner.ID, t0.ID, hierarchy.TaskPatch{
		Position:    ptr(5),
		Description: ptr("moved to the end"),
		Cover:       hierarchy.Value(model.Cover{Type: "color", Color: "#579DFF"}),
		Coordinates: hierarchy.Value([]float64{32.08, 34.78}),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Position)
	assert.Equal(t, "#579DFF", updated.Cover.Data().Color)
	assert.Equal(t, []float64{32.08, 34.78}, []float64(updated.Coordinates))
	assert.Equal(t, []uuid.UUID{t1.ID, t2.ID, t0.ID}, f.listTaskIDs(t, l.ID))

	_, err = f.mgr.ArchiveTask(f.ctx, f.owner.ID, t1.ID)
	require.NoError(t, err)
	_, err = f.mgr.UpdateTask(f.ctx, f.owner.ID, t1.ID, hierarchy.TaskPatch{ArchivedAt: hierarchy.Null[time.Time]()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{t1.ID, t2.ID, t0.ID}, f.listTaskIDs(t, l.ID))
}

func TestMoveTask_AcrossBoards(t *testing.T) {
	f := setup(t)
	src := f.board(t, "Source")
	dst := f.board(t, "Target")
	from := f.list(t, src.ID, "from")
	to := f.list(t, dst.ID, "to")
	existing := f.task(t, to.ID, "already here")
	task := f.task(t, from.ID, "traveller")

	moved, err := f.mgr.MoveTask(f.ctx, f.owner.ID, task.ID, to.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, to.ID, moved.ListID)
	assert.Equal(t, dst.ID, moved.BoardID)
	assert.Equal(t, 1, moved.Position)
	assert.Empty(t, f.listTaskIDs(t, from.ID))
	assert.Equal(t, []uuid.UUID{existing.ID, task.ID}, f.listTaskIDs(t, to.ID))

	parent, err := f.store.Lists.GetByID(f.ctx, moved.ListID)
	require.NoError(t, err)
	assert.Equal(t, parent.BoardID, moved.BoardID)

	again, err := f.mgr.MoveTask(f.ctx, f.owner.ID, task.ID, to.ID, ptr(0))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Position)
	assert.Equal(t, []uuid.UUID{existing.ID, task.ID}, f.listTaskIDs(t, to.ID))
}

func TestAccessRules(t *testing.T) {
	f := setup(t)
	b := f.board(t, "Private")
	l := f.list(t, b.ID, "L")

	viewer := &model.User{Fullname: "Vera", Email: "vera@example.com", HashedPassword: "x"}
	editor := &model.User{Fullname: "Ed", Email: "ed@example.com", HashedPassword: "x"}
	require.NoError(t, f.store.Users.Create(f.ctx, viewer))
	require.NoError(t, f.store.Users.Create(f.ctx, editor))
	require.NoError(t, f.store.Shares.ShareBoard(f.ctx, b.ID, viewer.ID, model.RoleViewer))
	require.NoError(t, f.store.Shares.ShareBoard(f.ctx, b.ID, editor.ID, model.RoleEditor))

	_, err := f.mgr.GetBoard(f.ctx, uuid.New(), b.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.mgr.GetBoard(f.ctx, viewer.ID, b.ID)
	assert.NoError(t, err)
	_, err = f.mgr.InsertTask(f.ctx, viewer.ID, l.ID, &model.Task{Title: "nope"}, nil)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.mgr.InsertTask(f.ctx, editor.ID, l.ID, &model.Task{Title: "yes"}, nil)
	assert.NoError(t, err)
	assert.ErrorIs(t, f.mgr.DeleteBoard(f.ctx, editor.ID, b.ID), apperr.ErrForbidden)
}

func TestGetBoard_SnapshotAndRecents(t *testing.T) {
	f := setup(t)
	b := f.board(t, "Snap")
	l0 := f.list(t, b.ID, "a")
	l1 := f.list(t, b.ID, "b")
	f.task(t, l0.ID, "x")
	f.task(t, l1.ID, "y")
	f.task(t, l1.ID, "z")
	latest := f.board(t, "Latest")

	snap, err := f.mgr.GetBoard(f.ctx, f.owner.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Snap", snap.Title)
	require.Len(t, snap.Lists, 2)
	assert.Len(t, snap.Lists[0].Tasks, 1)
	assert.Len(t, snap.Lists[1].Tasks, 2)

	user, err := f.store.Users.GetByID(f.ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, user.RecentBoards, 2)
	assert.Equal(t, b.ID, user.RecentBoards[0].Board)
	assert.Equal(t, latest.ID, user.RecentBoards[1].Board)
}
