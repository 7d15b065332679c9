package admission

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

type countingResolver struct {
	calls int
	err   error
}

func (r *countingResolver) ResolveChannel(_ context.Context, handle string) (domain.ChannelMeta, error) {
	r.calls++

	if r.err != nil {
		return domain.ChannelMeta{}, r.err
	}

	return domain.ChannelMeta{ID: int64(len(handle)), Username: handle}, nil
}

func TestMetaCache_ReadThrough(t *testing.T) {
	resolver := &countingResolver{}
	cache := NewMetaCache(resolver, 10)

	first, err := cache.Get(context.Background(), "alpha")
	require.NoError(t, err)

	second, err := cache.Get(context.Background(), "alpha")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, resolver.calls, "second lookup served from cache")
}

func TestMetaCache_ErrorNotCached(t *testing.T) {
	resolver := &countingResolver{err: errors.New("flood wait")}
	cache := NewMetaCache(resolver, 10)

	_, err := cache.Get(context.Background(), "alpha")
	require.Error(t, err)

	resolver.err = nil

	_, err = cache.Get(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 2, resolver.calls)
}

func TestMetaCache_EvictsOldestInserted(t *testing.T) {
	resolver := &countingResolver{}
	cache := NewMetaCache(resolver, 2)

	for _, handle := range []string{"a", "bb", "ccc"} {
		_, err := cache.Get(context.Background(), handle)
		require.NoError(t, err)
	}

	// "a" was evicted, "bb" and "ccc" still cached.
	_, err := cache.Get(context.Background(), "bb")
	require.NoError(t, err)
	assert.Equal(t, 3, resolver.calls)

	_, err = cache.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 4, resolver.calls, "evicted entry resolved again")
}
