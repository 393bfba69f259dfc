package gameserver

import (
	"sync"

	"github.com/udisondev/castfx/internal/model"
)

// ClientManager maps in-world players to their connections.
// Thread-safe for concurrent access.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[uint32]*GameClient // key: player objectID
}

// NewClientManager creates a new client manager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*GameClient, 1000),
	}
}

// Attach binds client to player: the player's SendPacket now goes to client.
func (cm *ClientManager) Attach(p *model.Player, client *GameClient) {
	cm.mu.Lock()
	cm.clients[p.ObjectID()] = client
	cm.mu.Unlock()
	p.SetConn(client)
}

// Detach unbinds the player's connection (the client itself stays open).
func (cm *ClientManager) Detach(p *model.Player) *GameClient {
	cm.mu.Lock()
	client := cm.clients[p.ObjectID()]
	delete(cm.clients, p.ObjectID())
	cm.mu.Unlock()
	p.SetConn(nil)
	return client
}

// Count returns the number of attached clients.
func (cm *ClientManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// CloseAll closes every attached client (server shutdown).
func (cm *ClientManager) CloseAll() {
	cm.mu.Lock()
	clients := make([]*GameClient, 0, len(cm.clients))
	for _, c := range cm.clients {
		clients = append(clients, c)
	}
	clear(cm.clients)
	cm.mu.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
}
