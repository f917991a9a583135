package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, &Entry{Hostname: "example.com", Expiry: time.Now().Add(time.Hour), Blob: []byte("blob")}))

	got, ok, err := store.Get(ctx, "example.com")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("blob"), got.Blob)
	assert.Equal(t, 1, store.Len())
}

func TestCacheGetNoStoreIsMiss(t *testing.T) {
	c := NewCache(context.Background(), nil, "example.com", nil)
	_, ok := c.Get("ignored-session-key")
	assert.False(t, ok)
	assert.Equal(t, NotCached, c.LastOutcome())
}

func TestCacheGetExpiredEntryIsUnusable(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), &Entry{
		Hostname: "example.com",
		Expiry:   time.Now().Add(-time.Minute),
		Blob:     []byte("stale"),
	}))

	c := NewCache(context.Background(), store, "example.com", nil)
	_, ok := c.Get("ignored")
	assert.False(t, ok)
	assert.Equal(t, Unusable, c.LastOutcome())
}

func TestCacheGetCorruptBlobIsUnusableNotFatal(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), &Entry{
		Hostname: "example.com",
		Expiry:   time.Now().Add(time.Hour),
		Blob:     []byte("not a real session state"),
	}))

	c := NewCache(context.Background(), store, "example.com", nil)
	state, ok := c.Get("ignored")
	assert.Nil(t, state)
	assert.False(t, ok)
	assert.Equal(t, Unusable, c.LastOutcome())
}

type errStore struct{}

func (errStore) Get(context.Context, string) (*Entry, bool, error) {
	return nil, false, errors.New("boom")
}
func (errStore) Put(context.Context, *Entry) error { return errors.New("boom") }

func TestCacheGetStoreErrorDegradesToFullHandshake(t *testing.T) {
	c := NewCache(context.Background(), errStore{}, "example.com", nil)
	_, ok := c.Get("ignored")
	assert.False(t, ok)
	assert.Equal(t, Unusable, c.LastOutcome())
}

func TestCachePutNilSessionIsNotSaved(t *testing.T) {
	c := NewCache(context.Background(), NewMemoryStore(), "example.com", nil)
	c.Put("ignored", nil)
	assert.Equal(t, NotSaved, c.LastOutcome())
}

func TestCachePutNoStoreIsNotSaved(t *testing.T) {
	c := NewCache(context.Background(), nil, "example.com", nil)
	c.Put("ignored", nil)
	assert.Equal(t, NotSaved, c.LastOutcome())
}
