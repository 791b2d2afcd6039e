package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannel = "taskboard:events"

	relayQueueSize        = 256
	defaultPublishTimeout = 500 * time.Millisecond
	defaultRetryMin       = time.Second
	defaultRetryMax       = 30 * time.Second
)

type envelope struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

// RedisRelay shares events between API instances. Emit queues the event and
// a publisher started by Run pushes it to a Redis channel; every instance,
// this one included, re-broadcasts what it receives into its local hub.
// Delivery stays at-most-once.
type RedisRelay struct {
	hub     *Hub
	client  *redis.Client
	channel string
	queue   chan envelope

	// subscribed is true while this instance is receiving from the channel.
	// Until then events go straight to the local hub.
	subscribed atomic.Bool

	publishTimeout time.Duration
	retryMin       time.Duration
	retryMax       time.Duration
}

func NewRedisRelay(hub *Hub, client *redis.Client, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		hub:            hub,
		client:         client,
		channel:        channel,
		queue:          make(chan envelope, relayQueueSize),
		publishTimeout: defaultPublishTimeout,
		retryMin:       defaultRetryMin,
		retryMax:       defaultRetryMax,
	}
}

// Emit never blocks. Without a live subscription, or with a full queue, the
// event is delivered to the local hub only.
func (r *RedisRelay) Emit(room, event string, payload any) {
	if r == nil {
		panic("realtime: Emit called on a nil RedisRelay")
	}
	frame, err := Encode(room, event, payload)
	if err != nil {
		log.Printf("[realtime] failed to encode %s for %s: %v", event, room, err)
		return
	}
	if !r.subscribed.Load() {
		r.hub.Broadcast(room, frame)
		return
	}
	select {
	case r.queue <- envelope{Room: room, Frame: frame}:
	default:
		log.Printf("[realtime] relay queue full, delivering %s locally", event)
		r.hub.Broadcast(room, frame)
	}
}

// Run publishes queued events and forwards channel messages until ctx is
// done, resubscribing with backoff when Redis drops out. ready, when
// non-nil, is closed once the first subscription is confirmed.
func (r *RedisRelay) Run(ctx context.Context, ready chan<- struct{}) error {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.publish(ctx)
	}()
	defer wg.Wait()

	var once sync.Once
	markReady := func() {
		if ready != nil {
			once.Do(func() { close(ready) })
		}
	}

	delay := r.retryMin
	for {
		err := r.subscribe(ctx, markReady)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			delay = r.retryMin
		}
		log.Printf("[realtime] relay subscription lost, retrying in %s: %v", delay, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, r.retryMax)
	}
}

func (r *RedisRelay) subscribe(ctx context.Context, onReady func()) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.subscribed.Store(true)
	defer r.subscribed.Store(false)
	onReady()
	log.Printf("[realtime] relaying events on %s", r.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("[realtime] skipping malformed relay message: %v", err)
				continue
			}
			r.hub.Broadcast(env.Room, env.Frame)
		}
	}
}

func (r *RedisRelay) publish(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.queue:
			msg, err := json.Marshal(env)
			if err != nil {
				log.Printf("[realtime] failed to wrap event for %s: %v", env.Room, err)
				continue
			}
			pctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
			err = r.client.Publish(pctx, r.channel, msg).Err()
			cancel()
			if err != nil {
				log.Printf("[realtime] publish failed, delivering locally: %v", err)
				r.hub.Broadcast(env.Room, env.Frame)
			}
		}
	}
}
