package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sakkovic/winnersfrip/internal/redisx"
)

// RedisStore persists carts as a single versioned JSON blob per session.
// A plain SET is enough for the last-write-wins rule: Redis serializes the
// writes and each session has exactly one writer.
type RedisStore struct {
	RDB *redis.Client
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, sessionID)
	raw, err := s.RDB.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil || p.Version != SchemaVersion {
		// Unreadable or stale-schema blob: start over rather than guess.
		return New(), nil
	}
	return New(p.Items...), nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	b, err := json.Marshal(persisted{Version: SchemaVersion, Items: c.Items()})
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyCart, sessionID)
	if err := s.RDB.Set(ctx, key, b, redisx.TTLCart).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key := fmt.Sprintf(redisx.KeyCart, sessionID)
	if err := s.RDB.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
