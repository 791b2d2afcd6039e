package materialize_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskboard/internal/apperr"
	"taskboard/internal/cache"
	"taskboard/internal/hierarchy"
	"taskboard/internal/journal"
	"taskboard/internal/materialize"
	"taskboard/internal/model"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"
	"taskboard/internal/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyGraph wraps a real graph and fails one step.
type flakyGraph struct {
	materialize.Graph
	failOn string
	cancel context.CancelFunc
	calls  []string
	ctxErr []error
}

func (g *flakyGraph) step(name string) error {
	g.calls = append(g.calls, name)
	if name == g.failOn {
		if g.cancel != nil {
			g.cancel()
		}
		return apperr.Unavailable(errors.New("connection refused"))
	}
	return nil
}

func (g *flakyGraph) CreateBoardRecord(ctx context.Context, actor uuid.UUID, board *model.Board) error {
	if err := g.step("board"); err != nil {
		return err
	}
	return g.Graph.CreateBoardRecord(ctx, actor, board)
}

func (g *flakyGraph) BulkInsertLists(ctx context.Context, board *model.Board, lists []*model.List) error {
	if err := g.step("lists"); err != nil {
		return err
	}
	return g.Graph.BulkInsertLists(ctx, board, lists)
}

func (g *flakyGraph) BulkInsertTasks(ctx context.Context, actor uuid.UUID, lists []*model.List, tasks []*model.Task) error {
	if err := g.step("tasks"); err != nil {
		return err
	}
	return g.Graph.BulkInsertTasks(ctx, actor, lists, tasks)
}

func (g *flakyGraph) Link(ctx context.Context, board *model.Board, lists []*model.List, tasks []*model.Task) error {
	if err := g.step("link"); err != nil {
		return err
	}
	return g.Graph.Link(ctx, board, lists, tasks)
}

func (g *flakyGraph) DropTasks(ctx context.Context, ids []uuid.UUID) error {
	g.calls = append(g.calls, "drop tasks")
	g.ctxErr = append(g.ctxErr, ctx.Err())
	return g.Graph.DropTasks(ctx, ids)
}

func (g *flakyGraph) DropLists(ctx context.Context, ids []uuid.UUID) error {
	g.calls = append(g.calls, "drop lists")
	g.ctxErr = append(g.ctxErr, ctx.Err())
	return g.Graph.DropLists(ctx, ids)
}

func (g *flakyGraph) DropBoard(ctx context.Context, id uuid.UUID) error {
	g.calls = append(g.calls, "drop board")
	g.ctxErr = append(g.ctxErr, ctx.Err())
	return g.Graph.DropBoard(ctx, id)
}

type env struct {
	store *repository.Store
	mgr   *hierarchy.Manager
	actor uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := repository.NewStore(testdb.New(t))
	user := &model.User{Fullname: "Maker", Email: "maker@example.com", HashedPassword: "x"}
	require.NoError(t, store.Users.Create(context.Background(), user))
	mgr := hierarchy.NewManager(store, journal.New(store.Activities), realtime.NewHub(), cache.NewBoardCache(nil, 0))
	return &env{store: store, mgr: mgr, actor: user.ID}
}

const threeByTwo = `{
	"title": "Three by two",
	"lists": [
		{"title": "A", "position": 0, "tasks": [{"title": "a1", "position": 0}, {"title": "a2", "position": 1}]},
		{"title": "B", "position": 1, "tasks": [{"title": "b1", "position": 0}, {"title": "b2", "position": 1}]},
		{"title": "C", "position": 2, "tasks": [{"title": "c1", "position": 0}, {"title": "c2", "position": 1}]}
	]
}`

func TestMaterialize_Completeness(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := materialize.New(e.mgr, nil).FromPayload(ctx, e.actor, []byte(threeByTwo))
	require.NoError(t, err)

	board, err := e.store.Boards.GetByID(ctx, res.Board.ID)
	require.NoError(t, err)
	require.Len(t, board.ListIDs, 3)
	assert.Len(t, res.TaskIDs, 6)

	lists, err := e.store.Lists.ByBoard(ctx, board.ID, true)
	require.NoError(t, err)
	require.Len(t, lists, 3)
	for i, l := range lists {
		assert.Equal(t, board.ListIDs[i], l.ID)
		assert.Len(t, l.TaskIDs, 2)
		tasks, err := e.store.Tasks.ByList(ctx, l.ID, true)
		require.NoError(t, err)
		for _, task := range tasks {
			assert.Equal(t, board.ID, task.BoardID)
			assert.Equal(t, e.actor, task.CreatedBy)
		}
	}

	history, err := e.store.Activities.ListByBoard(ctx, board.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "created_board", history[0].Action)
}

func TestMaterialize_ToleratesMissingPosition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	payload := `{
		"title": "Gappy",
		"lists": [
			{"title": "A", "position": 0, "tasks": [{"title": "a1", "position": 0}, {"title": "a2"}]},
			{"title": "B", "position": 1, "tasks": [{"title": "b1", "position": 0}, {"title": "b2", "position": 1}]},
			{"title": "C", "position": 2, "tasks": [{"title": "c1", "position": 0}, {"title": "c2", "position": 1}]}
		]
	}`

	res, err := materialize.New(e.mgr, nil).FromPayload(ctx, e.actor, []byte(payload))
	require.NoError(t, err)
	assert.Len(t, res.TaskIDs, 5)
	assert.Len(t, res.Skipped, 1)

	tasks, err := e.store.Tasks.ByBoard(ctx, res.Board.ID, true)
	require.NoError(t, err)
	assert.Len(t, tasks, 5)
}

func TestMaterialize_CompensatesInReverseOrder(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	graph := &flakyGraph{Graph: e.mgr, failOn: "link", cancel: cancel}
	tpl, err := materialize.ParseTemplate([]byte(threeByTwo), now)
	require.NoError(t, err)

	_, err = materialize.New(graph, nil).Materialize(ctx, e.actor, tpl, "test")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrMaterializationFailed)
	assert.Equal(t, []string{"board", "lists", "tasks", "link", "drop tasks", "drop lists", "drop board"}, graph.calls)
	for _, ctxErr := range graph.ctxErr {
		assert.NoError(t, ctxErr)
	}

	ids, err := e.store.Boards.IDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
	remaining, err := e.store.Tasks.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestMaterialize_FailureBeforeTasksDropsBoardAndLists(t *testing.T) {
	e := newEnv(t)
	graph := &flakyGraph{Graph: e.mgr, failOn: "tasks"}
	tpl, ok := materialize.CatalogTemplate("1", "Basic", now)
	require.True(t, ok)

	_, err := materialize.New(graph, nil).Materialize(context.Background(), e.actor, tpl, "test")
	assert.ErrorIs(t, err, apperr.ErrMaterializationFailed)
	assert.Equal(t, []string{"board", "lists", "tasks", "drop lists", "drop board"}, graph.calls)

	lists, err := e.store.Lists.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, lists)
}

func TestMaterialize_BoardFailureStaysRetryable(t *testing.T) {
	e := newEnv(t)
	graph := &flakyGraph{Graph: e.mgr, failOn: "board"}
	tpl, ok := materialize.CatalogTemplate("1", "Basic", now)
	require.True(t, ok)

	_, err := materialize.New(graph, nil).Materialize(context.Background(), e.actor, tpl, "test")

	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, apperr.ErrMaterializationFailed)
	status, _, _, _ := apperr.Map(err)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, []string{"board"}, graph.calls)
}

func TestFromCatalog(t *testing.T) {
	e := newEnv(t)
	m := materialize.New(e.mgr, nil)
	ctx := context.Background()

	res, err := m.FromCatalog(ctx, e.actor, "1", "My board")
	require.NoError(t, err)
	assert.Equal(t, "My board", res.Board.Title)
	assert.Len(t, res.ListIDs, 3)
	assert.Len(t, res.TaskIDs, 3)

	_, err = m.FromCatalog(ctx, e.actor, "99", "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = m.FromCatalog(ctx, e.actor, "1", " ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestFromPrompt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := materialize.New(e.mgr, nil).FromPrompt(ctx, e.actor, "a wedding board")
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)

	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = jsonDecode(r, &body)
		gotPrompt = body["prompt"]
		_, _ = w.Write([]byte("```json\n" + threeByTwo + "\n```"))
	}))
	defer srv.Close()

	m := materialize.New(e.mgr, materialize.NewHTTPGenerator(srv.URL, 0))
	res, err := m.FromPrompt(ctx, e.actor, "  a wedding board ")
	require.NoError(t, err)
	assert.Equal(t, "a wedding board", gotPrompt)
	assert.Len(t, res.ListIDs, 3)

	_, err = m.FromPrompt(ctx, e.actor, "")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestHTTPGenerator_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := materialize.NewHTTPGenerator(srv.URL, 0).Generate(context.Background(), "x")
	assert.Error(t, err)
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
