package realtime

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSub struct {
	frames chan []byte
}

func (c *chanSub) ID() string { return "watcher" }

func (c *chanSub) Deliver(frame []byte) bool {
	select {
	case c.frames <- frame:
		return true
	default:
		return false
	}
}

// silentListener accepts connections and never answers them.
func silentListener(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	return ln
}

func TestRedisRelay_EmitDoesNotWaitForRedis(t *testing.T) {
	ln := silentListener(t)
	client := redis.NewClient(&redis.Options{
		Addr:                  ln.Addr().String(),
		MaxRetries:            -1,
		ReadTimeout:           200 * time.Millisecond,
		ContextTimeoutEnabled: true,
	})
	t.Cleanup(func() { client.Close() })

	hub := NewHub()
	relay := NewRedisRelay(hub, client, "stuck")
	relay.publishTimeout = 50 * time.Millisecond
	relay.subscribed.Store(true)

	room := BoardRoom(uuid.New())
	sub := &chanSub{frames: make(chan []byte, 4)}
	hub.Join(sub, room)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go relay.publish(ctx)

	start := time.Now()
	for i := 0; i < 3; i++ {
		relay.Emit(room, EventTaskCreated, map[string]int{"n": i})
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		select {
		case frame := <-sub.frames:
			assert.Contains(t, string(frame), `"type":"taskCreated"`)
		case <-time.After(3 * time.Second):
			t.Fatalf("event %d was not delivered locally after the publish timed out", i)
		}
	}
}

func TestRedisRelay_FullQueueDeliversLocally(t *testing.T) {
	hub := NewHub()
	relay := NewRedisRelay(hub, nil, "")
	relay.queue = make(chan envelope, 1)
	relay.subscribed.Store(true)

	room := TaskRoom(uuid.New())
	sub := &chanSub{frames: make(chan []byte, 4)}
	hub.Join(sub, room)

	relay.Emit(room, EventTaskUpdated, map[string]int{"n": 1})
	relay.Emit(room, EventTaskUpdated, map[string]int{"n": 2})

	assert.Len(t, relay.queue, 1)
	require.Len(t, sub.frames, 1)
	assert.Contains(t, string(<-sub.frames), `"n":2`)
}

func TestRedisRelay_ResubscribesAfterRedisReturns(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	hub := NewHub()
	relay := NewRedisRelay(hub, client, "flaky")
	relay.retryMin = 10 * time.Millisecond
	relay.retryMax = 50 * time.Millisecond

	room := BoardRoom(uuid.New())
	sub := &chanSub{frames: make(chan []byte, 4)}
	hub.Join(sub, room)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx, ready) }()

	// not subscribed yet: local clients still get the event
	relay.Emit(room, EventTaskCreated, map[string]string{"phase": "down"})
	select {
	case frame := <-sub.frames:
		assert.Contains(t, string(frame), `"phase":"down"`)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered while Redis was down")
	}

	require.NoError(t, mr.Restart())
	select {
	case <-ready:
	case <-time.After(3 * time.Second):
		t.Fatal("relay did not resubscribe")
	}
	assert.True(t, relay.subscribed.Load())

	relay.Emit(room, EventTaskCreated, map[string]string{"phase": "up"})
	select {
	case frame := <-sub.frames:
		assert.Contains(t, string(frame), `"phase":"up"`)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed after resubscribing")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
