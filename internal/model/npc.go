package model

// Npc is a non-player character (monsters, guards, summons).
// Has no connection: effects it casts are only broadcast.
type Npc struct {
	*Character // embedded

	templateID int32
}

// NewNpc creates an NPC from a template id.
func NewNpc(objectID uint32, templateID int32, name string, loc Location, level, maxHP, maxMP int32) *Npc {
	obj := NewWorldObject(objectID, KindNpc, name, loc)
	return &Npc{
		Character:  NewCharacter(obj, level, maxHP, maxMP),
		templateID: templateID,
	}
}

// TemplateID returns the NPC template id.
func (n *Npc) TemplateID() int32 {
	return n.templateID
}
