package world

import "github.com/udisondev/castfx/internal/model"

// Entity is a tagged reference to a live world entity.
// Exactly one of player/npc is set; which one is given by Object().Kind().
type Entity struct {
	handle model.Handle
	obj    *model.WorldObject
	player *model.Player
	npc    *model.Npc
}

// Handle returns the handle the entity was resolved with.
func (e Entity) Handle() model.Handle { return e.handle }

// Object returns the common world object part (ID, location, rotation).
func (e Entity) Object() *model.WorldObject { return e.obj }

// ObjectID is a shortcut for Object().ObjectID().
func (e Entity) ObjectID() uint32 { return e.handle.ObjectID }

// AsPlayer is the "is this entity player-controlled" capability query.
func (e Entity) AsPlayer() (*model.Player, bool) {
	return e.player, e.player != nil
}

// AsNpc returns the NPC behind the entity, if any.
func (e Entity) AsNpc() (*model.Npc, bool) {
	return e.npc, e.npc != nil
}

// Character returns the living-creature part for either kind.
func (e Entity) Character() *model.Character {
	switch {
	case e.player != nil:
		return e.player.Character
	case e.npc != nil:
		return e.npc.Character
	default:
		return nil
	}
}
