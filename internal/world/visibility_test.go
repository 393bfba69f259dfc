package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/castfx/internal/model"
)

func observerIDs(w *World, source Entity) []uint32 {
	var ids []uint32
	w.ForEachInRange(source, func(e Entity) bool {
		ids = append(ids, e.ObjectID())
		return true
	})
	return ids
}

func TestForEachInRange(t *testing.T) {
	w := New()

	casterHandle, err := w.SpawnPlayer(newTestPlayer(1, 0, 0))
	require.NoError(t, err)
	_, err = w.SpawnPlayer(newTestPlayer(2, 500, 0))
	require.NoError(t, err)
	// соседний регион, но в пределах дистанции
	_, err = w.SpawnNpc(newTestNpc(3, -100, -100))
	require.NoError(t, err)
	// в окне 3×3, но дальше DefaultVisibilityRange
	_, err = w.SpawnNpc(newTestNpc(4, RegionSize+1500, RegionSize+1500))
	require.NoError(t, err)
	// вне окна
	_, err = w.SpawnPlayer(newTestPlayer(5, RegionSize*5, 0))
	require.NoError(t, err)

	caster, ok := w.Resolve(casterHandle)
	require.True(t, ok)

	assert.ElementsMatch(t, []uint32{2, 3}, observerIDs(w, caster))
}

func TestForEachInRange_NoDistanceFilter(t *testing.T) {
	w := New(WithVisibilityRange(0))

	h, err := w.SpawnPlayer(newTestPlayer(1, 0, 0))
	require.NoError(t, err)
	_, err = w.SpawnNpc(newTestNpc(2, RegionSize+1500, RegionSize+1500))
	require.NoError(t, err)

	caster, _ := w.Resolve(h)
	assert.Equal(t, []uint32{2}, observerIDs(w, caster))
}

func TestForEachInRange_StopEarly(t *testing.T) {
	w := New()
	h, err := w.SpawnPlayer(newTestPlayer(1, 0, 0))
	require.NoError(t, err)
	for id := uint32(2); id < 10; id++ {
		_, err := w.SpawnNpc(newTestNpc(id, int32(id)*10, 0))
		require.NoError(t, err)
	}

	caster, _ := w.Resolve(h)
	calls := 0
	w.ForEachInRange(caster, func(Entity) bool {
		calls++
		return calls < 3
	})
	assert.Equal(t, 3, calls)
}

func TestForEachInRange_CallbackMayDespawn(t *testing.T) {
	w := New()
	h, err := w.SpawnPlayer(newTestPlayer(1, 0, 0))
	require.NoError(t, err)
	_, err = w.SpawnNpc(newTestNpc(2, 10, 0))
	require.NoError(t, err)

	caster, _ := w.Resolve(h)
	w.ForEachInRange(caster, func(e Entity) bool {
		w.Despawn(e.Handle())
		return true
	})
	assert.Empty(t, observerIDs(w, caster))
}

func TestForEachInRange_ZeroEntity(t *testing.T) {
	w := New()
	called := false
	w.ForEachInRange(Entity{}, func(Entity) bool {
		called = true
		return true
	})
	assert.False(t, called)
}

func TestRegion_SnapshotTracksChanges(t *testing.T) {
	r := NewRegion()
	obj := model.NewWorldObject(7, model.KindNpc, "x", model.Location{})
	e := Entity{handle: model.Handle{ObjectID: 7, Generation: 1}, obj: obj}

	assert.Empty(t, r.Snapshot())
	r.add(e)
	require.Len(t, r.Snapshot(), 1)
	assert.Equal(t, e.Handle(), r.Snapshot()[0].Handle())

	r.remove(7)
	assert.Empty(t, r.Snapshot())
}
