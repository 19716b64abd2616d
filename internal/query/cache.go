package query

import (
	"container/list"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/likeidx/likeidx/internal/bitmap"
	"github.com/likeidx/likeidx/internal/common"
)

// Cache is the optional LRU of pattern -> result ids described in spec
// §9: a pure latency optimization, invalidated wholesale on rebuild via
// Generation, with no effect on query correctness (property 8 extends to
// cache-disabled equivalence — see pkg/likeidx tests). singleflight
// collapses concurrent identical in-flight queries into a single
// evaluation, grounded on hupe1980-vecgo's golang.org/x/sync dependency.
type Cache struct {
	mu         sync.Mutex
	generation uint64
	capacity   int
	entries    map[string]*list.Element
	order      *list.List // front = most recently used

	group singleflight.Group

	// pool, if set, recycles the *bitmap.DenseSet results that
	// verification strategies allocate (§4.5): once EvalCached has
	// materialized the ids via ToArray, the Set itself is dead, so it is
	// returned to the pool instead of left for the garbage collector.
	pool *common.BitmapPool
}

type cacheEntry struct {
	key        string
	generation uint64
	ids        []uint32
}

// NewCache returns a Cache holding up to capacity entries. capacity <= 0
// disables caching (get always misses, put is a no-op).
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// SetPool attaches a scratch-bitmap pool used to recycle DenseSet
// results after they are flattened to an id slice. Optional; a nil pool
// (the default) simply leaves that recycling to the garbage collector.
func (c *Cache) SetPool(pool *common.BitmapPool) {
	c.pool = pool
}

func (c *Cache) reclaim(result bitmap.Set) {
	if c.pool == nil {
		return
	}
	if ds, ok := result.(*bitmap.DenseSet); ok {
		c.pool.Put(ds.Size(), ds)
	}
}

// Invalidate bumps the generation, logically discarding all entries
// without scanning them. Called by pkg/likeidx.DB.Build after a
// successful rebuild.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
}

// get returns the cached ids for pattern, if present and from the
// current generation.
func (c *Cache) get(pattern string) ([]uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[pattern]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if entry.generation != c.generation {
		c.order.Remove(el)
		delete(c.entries, pattern)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.ids, true
}

func (c *Cache) put(pattern string, ids []uint32) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[pattern]; ok {
		el.Value.(*cacheEntry).ids = ids
		el.Value.(*cacheEntry).generation = c.generation
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheEntry{key: pattern, generation: c.generation, ids: ids})
	c.entries[pattern] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// EvalCached evaluates pattern through the cache and singleflight group:
// a hit returns the cached ids; a miss evaluates via eval (deduplicated
// across concurrent identical callers) and populates the cache.
func (c *Cache) EvalCached(pattern []byte, eval func() (bitmap.Set, error)) ([]uint32, error) {
	key := string(pattern)
	if c.capacity <= 0 {
		result, err := eval()
		if err != nil {
			return nil, err
		}
		ids := result.ToArray()
		c.reclaim(result)
		return ids, nil
	}

	if ids, ok := c.get(key); ok {
		return ids, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if ids, ok := c.get(key); ok {
			return ids, nil
		}
		result, err := eval()
		if err != nil {
			return nil, err
		}
		ids := result.ToArray()
		c.reclaim(result)
		c.put(key, ids)
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]uint32), nil
}
