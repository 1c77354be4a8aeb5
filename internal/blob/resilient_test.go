package blob_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livehike/livehike/internal/blob"
)

type failingStore struct {
	blob.Store
	err   error
	calls int
}

func (f *failingStore) Get(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) PutMany(_ context.Context, _ map[string][]byte) error {
	f.calls++
	return f.err
}

func (f *failingStore) Ping(_ context.Context) error {
	f.calls++
	return f.err
}

func (f *failingStore) Close() error { return nil }

func TestResilientStore_PassesThrough(t *testing.T) {
	store := blob.NewResilientStore(blob.NewMemoryStore(), blob.DefaultBreakerConfig("test"))
	exerciseStore(t, store)

	health := store.Health()
	assert.Equal(t, "test", health.Name)
	assert.True(t, health.Healthy())
	assert.Empty(t, health.LastError)
}

func TestResilientStore_NotFoundDoesNotTrip(t *testing.T) {
	next := &failingStore{err: blob.ErrNotFound}
	store := blob.NewResilientStore(next, blob.DefaultBreakerConfig("test"))

	for i := 0; i < 10; i++ {
		_, err := store.Get(context.Background(), "k")
		require.ErrorIs(t, err, blob.ErrNotFound)
	}
	assert.Equal(t, 10, next.calls)
	assert.Equal(t, gobreaker.StateClosed, store.Health().State)
}

func TestResilientStore_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &failingStore{err: errors.New("connection refused")}

	var transitions []gobreaker.State
	cfg := blob.DefaultBreakerConfig("test")
	cfg.Timeout = time.Hour
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	store := blob.NewResilientStore(next, cfg)

	for i := 0; i < 3; i++ {
		err := store.PutMany(context.Background(), map[string][]byte{"k": nil})
		require.Error(t, err)
		assert.NotErrorIs(t, err, blob.ErrCircuitOpen)
	}

	err := store.PutMany(context.Background(), map[string][]byte{"k": nil})
	assert.ErrorIs(t, err, blob.ErrCircuitOpen)
	assert.Equal(t, 3, next.calls)

	health := store.Health()
	assert.False(t, health.Healthy())
	assert.Equal(t, gobreaker.StateOpen, health.State)
	assert.Equal(t, "connection refused", health.LastError)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)
}
