package world

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/castfx/internal/model"
)

func newTestPlayer(id uint32, x, y int32) *model.Player {
	return model.NewPlayer(id, "Player", model.NewLocation(x, y, 0, 0), 1, 100, 50)
}

func newTestNpc(id uint32, x, y int32) *model.Npc {
	return model.NewNpc(id, 1000, "Npc", model.NewLocation(x, y, 0, 0), 1, 100, 0)
}

func TestWorld_SpawnResolve(t *testing.T) {
	w := New()
	p := newTestPlayer(0x10000001, 100, 100)
	n := newTestNpc(0x20000001, 200, 200)

	ph, err := w.SpawnPlayer(p)
	require.NoError(t, err)
	nh, err := w.SpawnNpc(n)
	require.NoError(t, err)

	assert.Equal(t, model.Handle{ObjectID: 0x10000001, Generation: 1}, ph)
	assert.Equal(t, 2, w.Count())

	e, ok := w.Resolve(ph)
	require.True(t, ok)
	got, isPlayer := e.AsPlayer()
	assert.True(t, isPlayer)
	assert.Same(t, p, got)
	assert.Same(t, p.Character, e.Character())
	_, isNpc := e.AsNpc()
	assert.False(t, isNpc)

	e, ok = w.Resolve(nh)
	require.True(t, ok)
	_, isPlayer = e.AsPlayer()
	assert.False(t, isPlayer)
	assert.Equal(t, model.KindNpc, e.Object().Kind())
	assert.Same(t, n.Character, e.Character())
}

func TestWorld_SpawnErrors(t *testing.T) {
	w := New()

	_, err := w.SpawnPlayer(newTestPlayer(0x10000001, 0, 0))
	require.NoError(t, err)

	_, err = w.SpawnPlayer(newTestPlayer(0x10000001, 0, 0))
	assert.ErrorIs(t, err, ErrAlreadySpawned)

	_, err = w.SpawnNpc(newTestNpc(0x20000001, WorldXMax+RegionSize, 0))
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	_, err = w.SpawnNpc(newTestNpc(0, 0, 0))
	assert.Error(t, err)
}

func TestWorld_DespawnInvalidatesHandle(t *testing.T) {
	w := New()
	p := newTestPlayer(0x10000001, 0, 0)

	h1, err := w.SpawnPlayer(p)
	require.NoError(t, err)

	assert.True(t, w.Despawn(h1))
	assert.False(t, w.Despawn(h1), "second despawn is a no-op")

	_, ok := w.Resolve(h1)
	assert.False(t, ok)
	assert.Zero(t, w.Count())

	// тот же objectID после респауна получает новое поколение
	h2, err := w.SpawnPlayer(p)
	require.NoError(t, err)
	assert.Equal(t, h1.ObjectID, h2.ObjectID)
	assert.Equal(t, h1.Generation+1, h2.Generation)

	_, ok = w.Resolve(h1)
	assert.False(t, ok, "old handle must not resolve to the respawned entity")
	_, ok = w.Resolve(h2)
	assert.True(t, ok)
}

func TestWorld_ResolveUnknown(t *testing.T) {
	w := New()
	_, ok := w.Resolve(model.Handle{})
	assert.False(t, ok)
	_, ok = w.Resolve(model.Handle{ObjectID: 42, Generation: 1})
	assert.False(t, ok)
}

// regionPopulation returns how many entities the region containing (x, y) holds.
func regionPopulation(w *World, x, y int32) int {
	rx, ry := CoordToRegionIndex(x, y)
	w.mu.RLock()
	r := w.regions[[2]int32{rx, ry}]
	w.mu.RUnlock()
	if r == nil {
		return 0
	}
	return len(r.Snapshot())
}

func TestWorld_MoveChangesRegion(t *testing.T) {
	w := New()
	h, err := w.SpawnPlayer(newTestPlayer(0x10000001, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, 1, regionPopulation(w, 0, 0))

	dst := model.NewLocation(RegionSize*3, 0, 0, 0)
	require.NoError(t, w.Move(h, dst))

	assert.Zero(t, regionPopulation(w, 0, 0))
	assert.Equal(t, 1, regionPopulation(w, dst.X, dst.Y))

	e, _ := w.Resolve(h)
	assert.Equal(t, dst, e.Object().Location())

	assert.ErrorIs(t, w.Move(h, model.NewLocation(WorldXMax+RegionSize, 0, 0, 0)), ErrInvalidCoordinates)

	w.Despawn(h)
	assert.ErrorIs(t, w.Move(h, dst), ErrStaleHandle)
}

func TestWorld_ConcurrentSpawnDespawn(t *testing.T) {
	w := New()
	gen := NewObjectIDGenerator()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				h, err := w.SpawnNpc(newTestNpc(gen.NextNpcID(), int32(i*10), 0))
				if !assert.NoError(t, err) {
					return
				}
				w.Resolve(h)
				w.Despawn(h)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, w.Count())
}

func TestObjectIDGenerator_Ranges(t *testing.T) {
	gen := NewObjectIDGenerator()
	assert.Equal(t, uint32(0x10000001), gen.NextPlayerID())
	assert.Equal(t, uint32(0x10000002), gen.NextPlayerID())
	assert.Equal(t, uint32(0x20000001), gen.NextNpcID())
}
