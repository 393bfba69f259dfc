package world

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/castfx/internal/model"
)

var (
	// ErrAlreadySpawned is returned when an object ID is already live in the world.
	ErrAlreadySpawned = errors.New("object already spawned")
	// ErrInvalidCoordinates is returned for locations outside the region grid.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrStaleHandle is returned when a handle no longer refers to a live entity.
	ErrStaleHandle = errors.New("stale entity handle")
)

// DefaultVisibilityRange is the distance (game units) within which entities
// observe each other's effects.
const DefaultVisibilityRange = 3000

// slot is one row of the entity table. The generation survives despawn so a
// later spawn with the same object ID gets a fresh handle.
type slot struct {
	generation uint32
	live       bool
	entity     Entity
	rx, ry     int32
}

// World is the entity table plus the region grid used for range queries.
// Regions are allocated lazily: a fresh World costs nothing until objects spawn.
type World struct {
	mu      sync.RWMutex
	slots   map[uint32]*slot
	regions map[[2]int32]*Region

	visibilityRange int64
}

// Option configures a World.
type Option func(*World)

// WithVisibilityRange sets the observer distance; 0 disables the distance filter
// (the whole 3×3 region window is then "in range").
func WithVisibilityRange(units int64) Option {
	return func(w *World) { w.visibilityRange = units }
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{
		slots:           make(map[uint32]*slot, 1024),
		regions:         make(map[[2]int32]*Region),
		visibilityRange: DefaultVisibilityRange,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SpawnPlayer adds a player to the world and returns its handle.
func (w *World) SpawnPlayer(p *model.Player) (model.Handle, error) {
	return w.spawn(Entity{obj: p.WorldObject, player: p})
}

// SpawnNpc adds an NPC to the world and returns its handle.
func (w *World) SpawnNpc(n *model.Npc) (model.Handle, error) {
	return w.spawn(Entity{obj: n.WorldObject, npc: n})
}

func (w *World) spawn(e Entity) (model.Handle, error) {
	id := e.obj.ObjectID()
	if id == 0 {
		return model.Handle{}, fmt.Errorf("spawning object: zero object id")
	}
	loc := e.obj.Location()
	rx, ry := CoordToRegionIndex(loc.X, loc.Y)
	if !IsValidRegionIndex(rx, ry) {
		return model.Handle{}, fmt.Errorf("spawning object %d at (%d, %d): %w", id, loc.X, loc.Y, ErrInvalidCoordinates)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.slots[id]
	if ok && s.live {
		return model.Handle{}, fmt.Errorf("spawning object %d: %w", id, ErrAlreadySpawned)
	}
	if !ok {
		s = &slot{}
		w.slots[id] = s
	}
	s.generation++
	s.live = true
	e.handle = model.Handle{ObjectID: id, Generation: s.generation}
	s.entity = e
	s.rx, s.ry = rx, ry
	w.regionLocked(rx, ry).add(e)

	slog.Debug("entity spawned", "handle", e.handle, "kind", e.obj.Kind(), "region_x", rx, "region_y", ry)
	return e.handle, nil
}

// Despawn removes the entity. Returns false if h was already stale.
func (w *World) Despawn(h model.Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.slots[h.ObjectID]
	if !ok || !s.live || s.generation != h.Generation {
		return false
	}
	s.live = false
	s.entity = Entity{}
	if r := w.regions[[2]int32{s.rx, s.ry}]; r != nil {
		r.remove(h.ObjectID)
	}
	return true
}

// Resolve returns the live entity for h. Stale or unknown handles return false.
func (w *World) Resolve(h model.Handle) (Entity, bool) {
	if h.IsZero() {
		return Entity{}, false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, ok := w.slots[h.ObjectID]
	if !ok || !s.live || s.generation != h.Generation {
		return Entity{}, false
	}
	return s.entity, true
}

// Move updates the entity location and its region membership.
func (w *World) Move(h model.Handle, loc model.Location) error {
	rx, ry := CoordToRegionIndex(loc.X, loc.Y)
	if !IsValidRegionIndex(rx, ry) {
		return fmt.Errorf("moving %s to (%d, %d): %w", h, loc.X, loc.Y, ErrInvalidCoordinates)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.slots[h.ObjectID]
	if !ok || !s.live || s.generation != h.Generation {
		return fmt.Errorf("moving %s: %w", h, ErrStaleHandle)
	}
	s.entity.obj.SetLocation(loc)
	if s.rx != rx || s.ry != ry {
		if r := w.regions[[2]int32{s.rx, s.ry}]; r != nil {
			r.remove(h.ObjectID)
		}
		w.regionLocked(rx, ry).add(s.entity)
		s.rx, s.ry = rx, ry
	}
	return nil
}

// Count returns the number of live entities.
func (w *World) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := 0
	for _, s := range w.slots {
		if s.live {
			n++
		}
	}
	return n
}

// regionLocked returns (creating if needed) the region. Caller holds w.mu.
func (w *World) regionLocked(rx, ry int32) *Region {
	key := [2]int32{rx, ry}
	r, ok := w.regions[key]
	if !ok {
		r = NewRegion()
		w.regions[key] = r
	}
	return r
}
