package serverpackets

import (
	"fmt"

	"github.com/udisondev/castfx/internal/gameserver/packet"
)

// OpcodeActionEffect is the server packet opcode for resolved action effects.
// Sent once per affected target when an action cast is finalized.
const OpcodeActionEffect = 0xE5

// MaxEffectEntries caps the per-packet entry count (count is written as one byte).
const MaxEffectEntries = 255

// Entry flags.
const (
	EffectFlagHeal   = 1 << 0
	EffectFlagDamage = 1 << 1
)

// EffectEntry summarizes what one action did to one target.
type EffectEntry struct {
	Flags          uint8
	HealAmount     uint32
	HealSeverity   uint8
	DamageAmount   uint32
	DamageSeverity uint8
	DelayMs        uint32 // когда клиент должен проиграть результат, относительно каста
}

// effectEntrySize = flags(1) + heal(4) + healSev(1) + dmg(4) + dmgSev(1) + delay(4)
const effectEntrySize = 15

// ActionEffect packet (S2C 0xE5): result of an action on one target.
//
// Observers get it with HiddenAnimation = 0; the caster's own client gets a
// copy with HiddenAnimation = Sequence so it can skip the animation it already
// predicted locally.
type ActionEffect struct {
	CasterObjectID  uint32
	TargetObjectID  uint32
	ActionID        uint32
	Rotation        uint16 // quantized facing, see model.QuantizeRotation
	Sequence        uint16
	HiddenAnimation uint16
	Entries         []EffectEntry
}

// NewActionEffect creates an ActionEffect packet with no entries.
func NewActionEffect(casterID, targetID, actionID uint32) *ActionEffect {
	return &ActionEffect{
		CasterObjectID: casterID,
		TargetObjectID: targetID,
		ActionID:       actionID,
	}
}

// SetRotation sets the quantized caster facing.
func (p *ActionEffect) SetRotation(rot uint16) { p.Rotation = rot }

// SetSequence sets the cast sequence number.
func (p *ActionEffect) SetSequence(seq uint16) { p.Sequence = seq }

// SetHiddenAnimation marks the packet as the caster's private copy.
func (p *ActionEffect) SetHiddenAnimation(seq uint16) { p.HiddenAnimation = seq }

// AddEffect appends one effect entry.
func (p *ActionEffect) AddEffect(e EffectEntry) {
	p.Entries = append(p.Entries, e)
}

// Write serializes the ActionEffect packet.
func (p *ActionEffect) Write() ([]byte, error) {
	if len(p.Entries) > MaxEffectEntries {
		return nil, fmt.Errorf("action effect: %d entries exceeds max %d", len(p.Entries), MaxEffectEntries)
	}

	// opcode(1) + 3*int32(12) + 3*int16(6) + count(1) + entries
	w := packet.Get()
	defer w.Put()

	w.WriteByte(OpcodeActionEffect)
	w.WriteInt(p.CasterObjectID)
	w.WriteInt(p.TargetObjectID)
	w.WriteInt(p.ActionID)
	w.WriteShort(p.Rotation)
	w.WriteShort(p.Sequence)
	w.WriteShort(p.HiddenAnimation)
	w.WriteByte(byte(len(p.Entries)))
	for _, e := range p.Entries {
		w.WriteByte(e.Flags)
		w.WriteInt(e.HealAmount)
		w.WriteByte(e.HealSeverity)
		w.WriteInt(e.DamageAmount)
		w.WriteByte(e.DamageSeverity)
		w.WriteInt(e.DelayMs)
	}

	// Copy: буфер writer'а вернётся в pool
	return w.Copy(), nil
}

// ParseActionEffect decodes a serialized ActionEffect (opcode included).
// Used by tests to inspect what was sent.
func ParseActionEffect(data []byte) (*ActionEffect, error) {
	r := packet.NewReader(data)
	op, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading opcode: %w", err)
	}
	if op != OpcodeActionEffect {
		return nil, fmt.Errorf("unexpected opcode 0x%02X", op)
	}

	p := &ActionEffect{}
	for _, dst := range []*uint32{&p.CasterObjectID, &p.TargetObjectID, &p.ActionID} {
		if *dst, err = r.ReadInt(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}
	for _, dst := range []*uint16{&p.Rotation, &p.Sequence, &p.HiddenAnimation} {
		if *dst, err = r.ReadShort(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}
	count, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("reading entry count: %w", err)
	}
	if r.Remaining() != int(count)*effectEntrySize {
		return nil, fmt.Errorf("entry payload: have %d bytes, want %d", r.Remaining(), int(count)*effectEntrySize)
	}

	p.Entries = make([]EffectEntry, count)
	for i := range p.Entries {
		e := &p.Entries[i]
		// длина уже проверена выше, ошибки чтения невозможны
		e.Flags, _ = r.ReadByte()
		e.HealAmount, _ = r.ReadInt()
		e.HealSeverity, _ = r.ReadByte()
		e.DamageAmount, _ = r.ReadInt()
		e.DamageSeverity, _ = r.ReadByte()
		e.DelayMs, _ = r.ReadInt()
	}
	return p, nil
}
