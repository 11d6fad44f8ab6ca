package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/shop/internal/shop/ports"
)

func TestStoreSaveAndGet(t *testing.T) {
	store := NewStore(0)
	ctx := context.Background()

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	first := ports.StoredResponse{StatusCode: 200, Body: []byte(`{"orderId":1}`), ResourceID: "1"}
	require.NoError(t, store.Save(ctx, "key", first))
	require.NoError(t, store.Save(ctx, "key", ports.StoredResponse{StatusCode: 500, ResourceID: "2"}))

	got, err = store.Get(ctx, "key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first, *got)
}

func TestStoreExpiresEntries(t *testing.T) {
	now := time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Hour)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "key", ports.StoredResponse{StatusCode: 200, ResourceID: "1"}))

	now = now.Add(59 * time.Minute)
	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(time.Minute)
	got, err = store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Save(ctx, "key", ports.StoredResponse{StatusCode: 200, ResourceID: "2"}))
	got, err = store.Get(ctx, "key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2", got.ResourceID)
}
