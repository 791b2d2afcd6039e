package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Title string   `json:"title"`
	Lists []string `json:"lists"`
}

func setupCache(t *testing.T) (*cache.BoardCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewBoardCache(client, time.Minute), mr
}

func TestBoardCache_HitAfterMiss(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	boardID := uuid.New()
	calls := 0
	fill := func(context.Context) (any, error) {
		calls++
		return snapshot{Title: "Roadmap", Lists: []string{"a", "b"}}, nil
	}

	var first, second snapshot
	require.NoError(t, c.Load(ctx, boardID, &first, fill))
	require.NoError(t, c.Load(ctx, boardID, &second, fill))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(cache.Key(boardID, 0)))
}

func TestBoardCache_InvalidateAndExpiry(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	boardID := uuid.New()
	calls := 0
	fill := func(context.Context) (any, error) {
		calls++
		return snapshot{Title: "v"}, nil
	}

	var s snapshot
	require.NoError(t, c.Load(ctx, boardID, &s, fill))
	c.Invalidate(ctx, boardID)
	gen, err := mr.Get(cache.GenKey(boardID))
	require.NoError(t, err)
	assert.Equal(t, "1", gen)
	require.NoError(t, c.Load(ctx, boardID, &s, fill))
	assert.Equal(t, 2, calls)
	assert.True(t, mr.Exists(cache.Key(boardID, 1)))

	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.Load(ctx, boardID, &s, fill))
	assert.Equal(t, 3, calls)
}

func TestBoardCache_FillRacingInvalidateIsNotServed(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()
	boardID := uuid.New()

	var s snapshot
	require.NoError(t, c.Load(ctx, boardID, &s, func(ctx context.Context) (any, error) {
		// a mutation commits and invalidates while this fill is in flight
		c.Invalidate(ctx, boardID)
		return snapshot{Title: "v1"}, nil
	}))
	assert.Equal(t, "v1", s.Title)

	require.NoError(t, c.Load(ctx, boardID, &s, func(context.Context) (any, error) {
		return snapshot{Title: "v2"}, nil
	}))
	assert.Equal(t, "v2", s.Title)

	require.NoError(t, c.Load(ctx, boardID, &s, func(context.Context) (any, error) {
		return snapshot{Title: "v3"}, nil
	}))
	assert.Equal(t, "v2", s.Title)
}

func TestBoardCache_FillErrorIsNotCached(t *testing.T) {
	c, mr := setupCache(t)
	boom := errors.New("store down")
	boardID := uuid.New()

	var s snapshot
	err := c.Load(context.Background(), boardID, &s, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(cache.Key(boardID, 0)))
}

func TestBoardCache_PassThroughWithoutRedis(t *testing.T) {
	c := cache.NewBoardCache(nil, 0)
	calls := 0
	fill := func(context.Context) (any, error) {
		calls++
		return snapshot{Title: "plain"}, nil
	}

	var s snapshot
	require.NoError(t, c.Load(context.Background(), uuid.New(), &s, fill))
	require.NoError(t, c.Load(context.Background(), uuid.New(), &s, fill))
	c.Invalidate(context.Background(), uuid.New())

	assert.Equal(t, 2, calls)
	assert.Equal(t, "plain", s.Title)
}
