package admission

import (
	"context"
	"sync"

	"github.com/signalrelay/telegram-signal-relay/internal/core/domain"
)

const defaultMetaCacheSize = 256

// ChannelResolver resolves a channel handle to its metadata.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, handle string) (domain.ChannelMeta, error)
}

// MetaCache is a bounded read-through cache over channel resolution, keyed
// by handle. When full, the oldest-inserted entry is evicted.
type MetaCache struct {
	resolver ChannelResolver
	max      int

	mu      sync.Mutex
	entries map[string]domain.ChannelMeta
	order   []string
}

func NewMetaCache(resolver ChannelResolver, max int) *MetaCache {
	if max <= 0 {
		max = defaultMetaCacheSize
	}

	return &MetaCache{
		resolver: resolver,
		max:      max,
		entries:  make(map[string]domain.ChannelMeta, max),
	}
}

func (c *MetaCache) Get(ctx context.Context, handle string) (domain.ChannelMeta, error) {
	c.mu.Lock()
	meta, ok := c.entries[handle]
	c.mu.Unlock()

	if ok {
		return meta, nil
	}

	meta, err := c.resolver.ResolveChannel(ctx, handle)
	if err != nil {
		return domain.ChannelMeta{}, err
	}

	c.put(handle, meta)

	return meta, nil
}

func (c *MetaCache) put(handle string, meta domain.ChannelMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[handle]; exists {
		c.entries[handle] = meta

		return
	}

	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[handle] = meta
	c.order = append(c.order, handle)
}
