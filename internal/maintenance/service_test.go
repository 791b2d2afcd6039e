package maintenance

import (
	"context"
	"testing"

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
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := repository.NewStore(testdb.New(t))
	j := journal.New(store.Activities)
	mgr := hierarchy.NewManager(store, j, realtime.NewHub(), cache.NewBoardCache(nil, 0))
	svc := NewService(store, j, materialize.New(mgr, nil), nil)
	svc.hashCost = bcrypt.MinCost
	return svc, store
}

func countRows(t *testing.T, store *repository.Store, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, store.DB.Model(m).Count(&n).Error)
	return n
}

func TestReset_SeedsUsersBoardsAndShares(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	report, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, report.UsersSeeded)
	assert.Equal(t, 2, report.BoardsMade)
	assert.EqualValues(t, 2, countRows(t, store, &model.Board{}))
	assert.EqualValues(t, 5, countRows(t, store, &model.List{}))
	assert.EqualValues(t, 8, countRows(t, store, &model.Task{}))
	assert.EqualValues(t, 3, countRows(t, store, &model.BoardShare{}))

	alice, err := store.Users.FindByEmail(ctx, "alice@demo.local")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(alice.HashedPassword), []byte(DemoPassword)))

	bob, err := store.Users.FindByEmail(ctx, "bob@demo.local")
	require.NoError(t, err)
	shared, err := store.Shares.GetSharedBoards(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "Website relaunch", shared[0].Title)
	ok, err := store.Shares.CheckAccess(ctx, shared[0].ID, bob.ID, model.RoleEditor)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReset_IsRepeatable(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Reset(ctx)
	require.NoError(t, err)

	extra := &model.Board{Title: "Scratch", OwnerID: mustUser(t, store, "eve@demo.local")}
	require.NoError(t, store.Boards.Create(ctx, extra))

	report, err := svc.Reset(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, report.Boards)
	assert.Equal(t, 0, report.UsersSeeded)
	assert.EqualValues(t, 5, countRows(t, store, &model.User{}))
	assert.EqualValues(t, 2, countRows(t, store, &model.Board{}))
	assert.EqualValues(t, 3, countRows(t, store, &model.BoardShare{}))
}

func TestReset_DropsStaleBoardReferences(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Reset(ctx)
	require.NoError(t, err)

	eve := mustUser(t, store, "eve@demo.local")
	stale := []model.BoardRef{{Board: uuid.New(), Title: "Gone"}}
	require.NoError(t, store.Users.SetRecentBoards(ctx, eve, stale))
	require.NoError(t, store.Users.SetStarredBoards(ctx, eve, stale))

	_, err = svc.Reset(ctx)
	require.NoError(t, err)

	user, err := store.Users.GetByID(ctx, eve)
	require.NoError(t, err)
	assert.Empty(t, user.RecentBoards)
	assert.Empty(t, user.StarredBoards)

	alice, err := store.Users.GetByID(ctx, mustUser(t, store, "alice@demo.local"))
	require.NoError(t, err)
	for _, ref := range alice.RecentBoards {
		_, err := store.Boards.GetByID(ctx, ref.Board)
		assert.NoError(t, err, "recent board %s should exist", ref.Title)
	}
}

func TestReset_RejectsBrokenSeed(t *testing.T) {
	svc, _ := newService(t)
	svc.seed = []byte("{")
	_, err := svc.Reset(context.Background())
	assert.ErrorContains(t, err, "parse seed")
}

func TestWipeActivity(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	_, err := svc.Reset(ctx)
	require.NoError(t, err)
	require.NotZero(t, countRows(t, store, &model.Activity{}))

	n, err := svc.WipeActivity(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Zero(t, countRows(t, store, &model.Activity{}))
}

func mustUser(t *testing.T, store *repository.Store, email string) uuid.UUID {
	t.Helper()
	u, err := store.Users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u.ID
}
