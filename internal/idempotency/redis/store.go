// Package redis keeps idempotency responses in Redis with a TTL so replicas
// share replays without touching the primary database.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dejobratic/shop/internal/shop/ports"
)

const keyPrefix = "idempotency:"

type record struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
	ResourceID string `json:"resource_id"`
}

type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// NewClient builds a client for addr and verifies it responds.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get idempotency key: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &ports.StoredResponse{
		StatusCode: rec.StatusCode,
		Body:       rec.Body,
		ResourceID: rec.ResourceID,
	}, nil
}

// Save keeps the first response stored for a key until it expires.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	raw, err := json.Marshal(record{
		StatusCode: response.StatusCode,
		Body:       response.Body,
		ResourceID: response.ResourceID,
	})
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}

	if err := s.client.SetNX(ctx, keyPrefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set idempotency key: %w", err)
	}
	return nil
}
