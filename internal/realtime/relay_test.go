package realtime_test

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/realtime"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRelay_DeliversThroughChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	hub := realtime.NewHub()
	relay := realtime.NewRedisRelay(hub, client, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, ready) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("relay stopped early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not subscribe")
	}

	room := realtime.BoardRoom(uuid.New())
	sub := newFakeSub("remote-viewer", 4)
	hub.Join(sub, room)

	relay.Emit(room, realtime.EventTaskCreated, map[string]int{"position": 3})

	select {
	case frame := <-sub.frames:
		assert.Contains(t, string(frame), `"type":"taskCreated"`)
		assert.Contains(t, string(frame), `"position":3`)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRedisRelay_FallsBackToLocalHub(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	hub := realtime.NewHub()
	relay := realtime.NewRedisRelay(hub, client, "test")
	room := realtime.TaskRoom(uuid.New())
	sub := newFakeSub("local", 2)
	hub.Join(sub, room)

	relay.Emit(room, realtime.EventTaskUpdated, map[string]string{"title": "x"})

	require.Len(t, sub.frames, 1)
}
