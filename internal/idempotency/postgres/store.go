package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dejobratic/shop/internal/shop/ports"
)

type Store struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewStore persists idempotency responses in the idempotency_keys table.
// Rows older than ttl are treated as absent and replaced on the next save.
func NewStore(pool *pgxpool.Pool, ttl time.Duration) *Store {
	return &Store{pool: pool, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, key string) (*ports.StoredResponse, error) {
	query := `
		SELECT status_code, body, resource_id
		FROM idempotency_keys
		WHERE key = $1
		  AND ($2::bigint = 0 OR created_at > NOW() - make_interval(secs => $2::bigint))
	`

	var resp ports.StoredResponse
	err := s.pool.QueryRow(ctx, query, key, s.ttlSeconds()).Scan(
		&resp.StatusCode,
		&resp.Body,
		&resp.ResourceID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select idempotency key: %w", err)
	}

	return &resp, nil
}

// Save keeps the first live response for a key.
func (s *Store) Save(ctx context.Context, key string, response ports.StoredResponse) error {
	query := `
		INSERT INTO idempotency_keys (key, status_code, body, resource_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key) DO UPDATE
		SET status_code = EXCLUDED.status_code,
			body = EXCLUDED.body,
			resource_id = EXCLUDED.resource_id,
			created_at = EXCLUDED.created_at
		WHERE $5::bigint > 0 AND idempotency_keys.created_at <= NOW() - make_interval(secs => $5::bigint)
	`

	_, err := s.pool.Exec(ctx, query, key, response.StatusCode, response.Body, response.ResourceID, s.ttlSeconds())
	if err != nil {
		return fmt.Errorf("insert idempotency key: %w", err)
	}

	return nil
}

func (s *Store) ttlSeconds() int64 {
	return int64(s.ttl / time.Second)
}
