package model

import (
	"errors"
	"sync"
)

// ErrNoConnection is returned by Player.SendPacket when no client is attached.
var ErrNoConnection = errors.New("player has no connection")

// PacketSender delivers a serialized server packet to one connection.
// Implemented by gameserver.GameClient.
type PacketSender interface {
	SendPacket(payload []byte) error
}

// Player — игровой персонаж, управляемый клиентом.
type Player struct {
	*Character // embedded

	playerMu sync.RWMutex // отдельный mutex для connection
	conn     PacketSender
}

// NewPlayer creates a player character with the given stats.
// conn may be nil until the client enters the world.
func NewPlayer(objectID uint32, name string, loc Location, level, maxHP, maxMP int32) *Player {
	obj := NewWorldObject(objectID, KindPlayer, name, loc)
	return &Player{
		Character: NewCharacter(obj, level, maxHP, maxMP),
	}
}

// Conn returns the attached connection (nil if detached).
func (p *Player) Conn() PacketSender {
	p.playerMu.RLock()
	defer p.playerMu.RUnlock()
	return p.conn
}

// SetConn attaches or detaches (nil) the client connection.
func (p *Player) SetConn(conn PacketSender) {
	p.playerMu.Lock()
	defer p.playerMu.Unlock()
	p.conn = conn
}

// SendPacket queues payload on the player's own connection.
func (p *Player) SendPacket(payload []byte) error {
	conn := p.Conn()
	if conn == nil {
		return ErrNoConnection
	}
	return conn.SendPacket(payload)
}
