package geocache

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/geo-sitemap-service/internal/domain"
)

// LRUStore keeps the most recently used resolutions in memory in front of a
// persistent Store. Reads fall through to the backing store on a miss, and
// writes go to both, so eviction only drops the hot copy.
type LRUStore struct {
	backing Store
	hot     *lruCache
}

// NewLRUStore wraps backing with a hot layer of at most maxEntries resolutions.
func NewLRUStore(backing Store, maxEntries int) *LRUStore {
	return &LRUStore{backing: backing, hot: newLRUCache(maxEntries)}
}

func (s *LRUStore) Get(ctx context.Context, signature string) (domain.GeoResolution, bool, error) {
	if res, ok := s.hot.get(signature); ok {
		return res, true, nil
	}
	res, ok, err := s.backing.Get(ctx, signature)
	if err != nil || !ok {
		return res, ok, err
	}
	s.hot.put(signature, res)
	return res, true, nil
}

func (s *LRUStore) Put(ctx context.Context, res domain.GeoResolution) error {
	if err := s.backing.Put(ctx, res); err != nil {
		return err
	}
	s.hot.put(res.Signature, res)
	return nil
}

func (s *LRUStore) LastModified(ctx context.Context) (time.Time, bool, error) {
	return s.backing.LastModified(ctx)
}

func (s *LRUStore) SetLastModified(ctx context.Context, t time.Time) error {
	return s.backing.SetLastModified(ctx, t)
}

func (s *LRUStore) Close() error { return s.backing.Close() }

// lruCache is a simple thread-safe LRU of resolutions keyed by signature.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*lruEntry
	head       *lruEntry // most recently used
	tail       *lruEntry // least recently used
}

type lruEntry struct {
	key   string
	value domain.GeoResolution
	prev  *lruEntry
	next  *lruEntry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*lruEntry),
	}
}

func (c *lruCache) get(key string) (domain.GeoResolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.GeoResolution{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.GeoResolution) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &lruEntry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		c.dropTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *lruEntry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *lruEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) dropTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
