package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store, err := New(Config{
		Address: mr.Addr(),
		TTL:     600 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestNew_ConnectionFailure(t *testing.T) {
	_, err := New(Config{Address: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "recommendations:abc123:2", Key(SubjectFeed, "abc123", "2"))
	assert.Equal(t, "video:abc123:dQw4w9WgXcQ", Key(SubjectVideo, "abc123", "dQw4w9WgXcQ"))
}

func TestStore_GetMiss(t *testing.T) {
	store, _ := newTestStore(t)

	payload, found, err := store.Get(context.Background(), "recommendations:nobody:1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, payload)
}

func TestStore_SetAndGet(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	key := Key(SubjectFeed, "user1", "1")
	require.NoError(t, store.Set(ctx, key, []byte(`{"status":"success"}`)))

	payload, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte(`{"status":"success"}`), payload)

	// Entries expire after the configured TTL.
	mr.FastForward(601 * time.Second)

	_, found, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_InvalidateUser(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, Key(SubjectFeed, "user1", "1"), []byte("a")))
	require.NoError(t, store.Set(ctx, Key(SubjectFeed, "user1", "2"), []byte("b")))
	require.NoError(t, store.Set(ctx, Key(SubjectVideo, "user1", "vid1"), []byte("c")))
	require.NoError(t, store.Set(ctx, Key(SubjectFeed, "user2", "1"), []byte("d")))

	require.NoError(t, store.InvalidateUser(ctx, "user1"))

	for _, key := range []string{
		Key(SubjectFeed, "user1", "1"),
		Key(SubjectFeed, "user1", "2"),
		Key(SubjectVideo, "user1", "vid1"),
	} {
		_, found, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, "expected %s to be invalidated", key)
	}

	// Other users' entries survive.
	_, found, err := store.Get(ctx, Key(SubjectFeed, "user2", "1"))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStore_Health(t *testing.T) {
	store, mr := newTestStore(t)

	assert.NoError(t, store.Health(context.Background()))

	mr.Close()
	assert.Error(t, store.Health(context.Background()))
}
