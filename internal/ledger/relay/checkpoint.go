package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Checkpoint persists the relay's cursor: the id of the last event already
// published downstream. Load returns -1 when nothing has been published yet.
type Checkpoint interface {
	Load(ctx context.Context) (int64, error)
	Save(ctx context.Context, cursor int64) error
}

// MemoryCheckpoint keeps the cursor in process memory. Replays the whole
// ledger after a restart, which is safe because delivery is at-least-once.
type MemoryCheckpoint struct {
	mu     sync.Mutex
	cursor int64
	set    bool
}

func NewMemoryCheckpoint() *MemoryCheckpoint {
	return &MemoryCheckpoint{}
}

func (c *MemoryCheckpoint) Load(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return -1, nil
	}
	return c.cursor, nil
}

func (c *MemoryCheckpoint) Save(_ context.Context, cursor int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cursor = cursor
	c.set = true
	return nil
}

const redisCheckpointKey = "tracelink:relay:cursor"

// RedisCheckpoint survives restarts so the relay resumes where it left off.
type RedisCheckpoint struct {
	client *redis.Client
}

func NewRedisCheckpoint(client *redis.Client) *RedisCheckpoint {
	return &RedisCheckpoint{client: client}
}

func (c *RedisCheckpoint) Load(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, redisCheckpointKey).Result()
	if errors.Is(err, redis.Nil) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load relay checkpoint: %w", err)
	}
	cursor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse relay checkpoint %q: %w", raw, err)
	}
	return cursor, nil
}

func (c *RedisCheckpoint) Save(ctx context.Context, cursor int64) error {
	if err := c.client.Set(ctx, redisCheckpointKey, strconv.FormatInt(cursor, 10), 0).Err(); err != nil {
		return fmt.Errorf("save relay checkpoint: %w", err)
	}
	return nil
}
