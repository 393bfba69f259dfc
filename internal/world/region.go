package world

import (
	"sync"
	"sync/atomic"
)

// Region represents a single world region (2048×2048 game units).
// Keeps a snapshot of its entities that is rebuilt lazily after Add/Remove.
type Region struct {
	mu       sync.RWMutex
	entities map[uint32]Entity

	snapshotCache atomic.Value // []Entity (immutable after rebuild)
	snapshotDirty atomic.Bool
}

// NewRegion creates a new region
func NewRegion() *Region {
	r := &Region{
		entities: make(map[uint32]Entity),
	}
	r.snapshotDirty.Store(true)
	return r
}

func (r *Region) add(e Entity) {
	r.mu.Lock()
	r.entities[e.ObjectID()] = e
	r.mu.Unlock()
	r.snapshotDirty.Store(true)
}

func (r *Region) remove(objectID uint32) {
	r.mu.Lock()
	delete(r.entities, objectID)
	r.mu.Unlock()
	r.snapshotDirty.Store(true)
}

// Snapshot returns the cached entity list.
// IMPORTANT: Returned slice is immutable, DO NOT modify.
func (r *Region) Snapshot() []Entity {
	if !r.snapshotDirty.Load() {
		if cache := r.snapshotCache.Load(); cache != nil {
			return cache.([]Entity)
		}
	}
	return r.rebuildSnapshot()
}

func (r *Region) rebuildSnapshot() []Entity {
	r.mu.RLock()
	entities := make([]Entity, 0, len(r.entities))
	for _, e := range r.entities {
		entities = append(entities, e)
	}
	// cache и dirty обновляем под read lock: add/remove ждут write lock и выставят флаг снова
	r.snapshotCache.Store(entities)
	r.snapshotDirty.Store(false)
	r.mu.RUnlock()

	return entities
}
