package gameserver

import (
	"log/slog"

	"github.com/udisondev/castfx/internal/model"
	"github.com/udisondev/castfx/internal/world"
)

// Dispatcher delivers serialized packets by range and to single players.
// Implements effect.Dispatcher.
type Dispatcher struct {
	world *world.World
}

// NewDispatcher creates a dispatcher over w.
func NewDispatcher(w *world.World) *Dispatcher {
	return &Dispatcher{world: w}
}

// BroadcastToVisible sends payload to every player that observes source
// (source excluded). Returns the number of players the packet was queued for.
// A failing observer is skipped; it does not stop the broadcast.
func (d *Dispatcher) BroadcastToVisible(source world.Entity, payload []byte) int {
	sent := 0
	d.world.ForEachInRange(source, func(e world.Entity) bool {
		p, ok := e.AsPlayer()
		if !ok {
			return true
		}
		if err := p.SendPacket(payload); err != nil {
			slog.Debug("broadcast skipped observer", "observer", e.Handle(), "error", err)
			return true
		}
		sent++
		return true
	})
	return sent
}

// SendToPlayer sends payload to p's own connection.
func (d *Dispatcher) SendToPlayer(p *model.Player, payload []byte) error {
	return p.SendPacket(payload)
}
