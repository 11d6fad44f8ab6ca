//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/shop/internal/database/dbtest"
	"github.com/dejobratic/shop/internal/idempotency/postgres"
	"github.com/dejobratic/shop/internal/shop/ports"
)

func TestStoreSaveAndGet(t *testing.T) {
	store := postgres.NewStore(dbtest.NewPool(t), time.Hour)
	ctx := context.Background()

	key := "alice:POST /api/orders:key-1"
	response := ports.StoredResponse{
		StatusCode: 200,
		Body:       []byte(`{"orderId":1}`),
		ResourceID: "1",
	}

	if err := store.Save(ctx, key, response); err != nil {
		t.Fatalf("failed to save idempotency key: %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get idempotency key: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected response, got nil")
	}
	if retrieved.StatusCode != response.StatusCode {
		t.Errorf("expected status code %d, got %d", response.StatusCode, retrieved.StatusCode)
	}
	if string(retrieved.Body) != string(response.Body) {
		t.Errorf("expected body %s, got %s", response.Body, retrieved.Body)
	}
	if retrieved.ResourceID != response.ResourceID {
		t.Errorf("expected resource ID %s, got %s", response.ResourceID, retrieved.ResourceID)
	}
}

func TestStoreGet_NotFound(t *testing.T) {
	store := postgres.NewStore(dbtest.NewPool(t), time.Hour)

	retrieved, err := store.Get(context.Background(), "nonexistent-key")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if retrieved != nil {
		t.Errorf("expected nil response, got %v", retrieved)
	}
}

func TestStoreSave_Conflict(t *testing.T) {
	store := postgres.NewStore(dbtest.NewPool(t), time.Hour)
	ctx := context.Background()
	key := "alice:POST /api/payment/1:key-conflict"

	first := ports.StoredResponse{StatusCode: 200, Body: []byte(`{"status":"paid"}`), ResourceID: "1"}
	second := ports.StoredResponse{StatusCode: 400, Body: []byte(`{"error":"x"}`), ResourceID: "1"}

	if err := store.Save(ctx, key, first); err != nil {
		t.Fatalf("failed to save first response: %v", err)
	}
	if err := store.Save(ctx, key, second); err != nil {
		t.Fatalf("failed to save second response (conflict): %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}
	if retrieved.StatusCode != first.StatusCode {
		t.Errorf("expected first response to be preserved, got status %d", retrieved.StatusCode)
	}
}

func TestStoreExpiredKeyIsReplaced(t *testing.T) {
	pool := dbtest.NewPool(t)
	store := postgres.NewStore(pool, time.Minute)
	ctx := context.Background()
	key := "alice:POST /api/orders:stale"

	if err := store.Save(ctx, key, ports.StoredResponse{StatusCode: 200, Body: []byte(`{}`), ResourceID: "1"}); err != nil {
		t.Fatalf("failed to save response: %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE idempotency_keys SET created_at = NOW() - INTERVAL '2 minutes' WHERE key = $1`, key); err != nil {
		t.Fatalf("failed to age key: %v", err)
	}

	retrieved, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get response: %v", err)
	}
	if retrieved != nil {
		t.Fatalf("expected expired key to be ignored, got %v", retrieved)
	}

	if err := store.Save(ctx, key, ports.StoredResponse{StatusCode: 200, Body: []byte(`{}`), ResourceID: "2"}); err != nil {
		t.Fatalf("failed to save replacement: %v", err)
	}
	retrieved, err = store.Get(ctx, key)
	if err != nil || retrieved == nil {
		t.Fatalf("expected replacement, got %v, %v", retrieved, err)
	}
	if retrieved.ResourceID != "2" {
		t.Errorf("expected replacement resource ID 2, got %s", retrieved.ResourceID)
	}
}
