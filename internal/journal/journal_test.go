package journal_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/internal/journal"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, a *model.Activity) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockStore) ListByBoard(ctx context.Context, boardID uuid.UUID, limit, offset int) ([]model.Activity, error) {
	args := m.Called(ctx, boardID, limit, offset)
	return args.Get(0).([]model.Activity), args.Error(1)
}

func (m *MockStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]repository.ActivityView, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]repository.ActivityView), args.Error(1)
}

func (m *MockStore) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func TestRecord_SwallowsStoreFailure(t *testing.T) {
	store := new(MockStore)
	store.On("Create", mock.Anything, mock.AnythingOfType("*model.Activity")).Return(errors.New("connection reset"))
	j := journal.New(store)

	assert.NotPanics(t, func() {
		j.Record(context.Background(), journal.Entry{
			BoardID:    uuid.New(),
			UserID:     uuid.New(),
			EntityKind: model.EntityTask,
			EntityID:   uuid.New(),
			Action:     "updated_task",
			Payload:    map[string]any{"title": "new"},
		})
	})
	store.AssertExpectations(t)
}

func TestRecord_SurvivesCancelledContext(t *testing.T) {
	store := new(MockStore)
	store.On("Create", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil)
	j := journal.New(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Record(ctx, journal.Entry{BoardID: uuid.New(), Action: "created_board", EntityKind: model.EntityBoard})

	store.AssertExpectations(t)
}

func TestClamp(t *testing.T) {
	cases := []struct {
		limit, skip         int
		wantLimit, wantSkip int
	}{
		{0, 0, 30, 0},
		{-5, -1, 30, 0},
		{10, 20, 10, 20},
		{500, 3, 100, 3},
		{100, 0, 100, 0},
	}
	for _, tc := range cases {
		limit, skip := journal.Clamp(tc.limit, tc.skip)
		assert.Equal(t, tc.wantLimit, limit)
		assert.Equal(t, tc.wantSkip, skip)
	}
}

func TestListForBoard_NewestFirstWithPaging(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testdb.New(t))
	j := journal.New(store.Activities)
	boardID := uuid.New()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Activities.Create(ctx, &model.Activity{
			BoardID:    boardID,
			UserID:     uuid.New(),
			EntityKind: model.EntityBoard,
			EntityID:   boardID,
			Action:     "step",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.Activities.Create(ctx, &model.Activity{
		BoardID: uuid.New(), UserID: uuid.New(), EntityKind: model.EntityBoard, EntityID: uuid.New(), Action: "other",
	}))

	page, err := j.ListForBoard(ctx, boardID, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))
	assert.WithinDuration(t, base.Add(3*time.Minute), page[0].CreatedAt, time.Second)

	all, err := j.ListForBoard(ctx, boardID, 0, -3)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRecord_PersistsPayload(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(testdb.New(t))
	j := journal.New(store.Activities)
	taskID := uuid.New()

	j.Record(ctx, journal.Entry{
		BoardID:    uuid.New(),
		UserID:     uuid.New(),
		EntityKind: model.EntityTask,
		EntityID:   taskID,
		Action:     "updated_task",
		Payload:    map[string]string{"title": "Ship it"},
	})

	items, err := j.ListForTask(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"title":"Ship it"}`, string(items[0].Payload))
}
