package gameserver

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/castfx/internal/model"
	"github.com/udisondev/castfx/internal/world"
)

type captureSender struct {
	mu   sync.Mutex
	sent [][]byte
	err  error
}

func (c *captureSender) SendPacket(payload []byte) error {
	if c.err != nil {
		return c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, payload)
	return nil
}

func (c *captureSender) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func spawnPlayer(t *testing.T, w *world.World, id uint32, x int32, conn model.PacketSender) world.Entity {
	t.Helper()
	p := model.NewPlayer(id, "p", model.NewLocation(x, 0, 0, 0), 1, 100, 50)
	if conn != nil {
		p.SetConn(conn)
	}
	h, err := w.SpawnPlayer(p)
	require.NoError(t, err)
	e, ok := w.Resolve(h)
	require.True(t, ok)
	return e
}

func TestDispatcher_BroadcastToVisible(t *testing.T) {
	w := world.New()
	d := NewDispatcher(w)

	casterConn := &captureSender{}
	nearConn := &captureSender{}
	farConn := &captureSender{}
	brokenConn := &captureSender{err: errors.New("closed")}

	caster := spawnPlayer(t, w, 1, 0, casterConn)
	spawnPlayer(t, w, 2, 500, nearConn)
	spawnPlayer(t, w, 3, world.RegionSize*6, farConn)
	spawnPlayer(t, w, 4, 800, brokenConn)
	spawnPlayer(t, w, 5, 900, nil) // без соединения
	_, err := w.SpawnNpc(model.NewNpc(6, 1, "npc", model.NewLocation(100, 0, 0, 0), 1, 10, 0))
	require.NoError(t, err)

	n := d.BroadcastToVisible(caster, []byte{0xE5})

	assert.Equal(t, 1, n)
	assert.Equal(t, 1, nearConn.count())
	assert.Zero(t, casterConn.count(), "caster never receives its own broadcast")
	assert.Zero(t, farConn.count())
}

func TestDispatcher_SendToPlayer(t *testing.T) {
	w := world.New()
	d := NewDispatcher(w)

	conn := &captureSender{}
	caster := spawnPlayer(t, w, 1, 0, conn)
	p, ok := caster.AsPlayer()
	require.True(t, ok)

	require.NoError(t, d.SendToPlayer(p, []byte{1, 2}))
	assert.Equal(t, 1, conn.count())

	p.SetConn(nil)
	assert.ErrorIs(t, d.SendToPlayer(p, []byte{1}), model.ErrNoConnection)
}
