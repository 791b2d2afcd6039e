// Package cache keeps rendered board snapshots in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 5 * time.Minute

// BoardCache stores JSON snapshots keyed by board id. Concurrent misses for
// the same board share a single fill. With a nil client every Load goes to
// the fill function.
type BoardCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

func NewBoardCache(client *redis.Client, ttl time.Duration) *BoardCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &BoardCache{client: client, ttl: ttl}
}

// Key is where the snapshot of boardID lives for generation gen.
func Key(boardID uuid.UUID, gen int64) string {
	return fmt.Sprintf("board:snapshot:%s:%d", boardID, gen)
}

// GenKey holds the generation of boardID. Invalidate bumps it, so a fill
// that started before a mutation lands under a generation nobody reads.
func GenKey(boardID uuid.UUID) string {
	return "board:gen:" + boardID.String()
}

// Load decodes the cached snapshot of boardID into dst, calling fill and
// storing its result on a miss.
func (c *BoardCache) Load(ctx context.Context, boardID uuid.UUID, dst any, fill func(ctx context.Context) (any, error)) error {
	cached := c.client != nil
	var gen int64
	if cached {
		n, err := c.client.Get(ctx, GenKey(boardID)).Int64()
		switch {
		case err == nil:
			gen = n
		case errors.Is(err, redis.Nil):
		default:
			log.Printf("[cache] read %s failed: %v", GenKey(boardID), err)
			cached = false
		}
	}
	key := Key(boardID, gen)

	if cached {
		raw, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, dst); err == nil {
				return nil
			}
			log.Printf("[cache] discarding unreadable entry %s", key)
		case !errors.Is(err, redis.Nil):
			log.Printf("[cache] read %s failed: %v", key, err)
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if cached {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				log.Printf("[cache] write %s failed: %v", key, err)
			}
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dst)
}

// Invalidate moves boardID to a new generation. Failures are logged; the
// current entry then expires with its TTL.
func (c *BoardCache) Invalidate(ctx context.Context, boardID uuid.UUID) {
	if c.client == nil {
		return
	}
	if err := c.client.Incr(context.WithoutCancel(ctx), GenKey(boardID)).Err(); err != nil {
		log.Printf("[cache] invalidate %s failed: %v", GenKey(boardID), err)
	}
}
