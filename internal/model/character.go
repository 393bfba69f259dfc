package model

import "sync"

// Character — базовый класс для живых существ (Player, NPC).
// Добавляет HP, MP и level к WorldObject.
type Character struct {
	*WorldObject // embedded

	mu        sync.RWMutex
	level     int32
	currentHP int32
	maxHP     int32
	currentMP int32
	maxMP     int32
}

// NewCharacter создаёт нового персонажа с указанными максимальными значениями.
// Текущие HP/MP устанавливаются равными максимальным.
func NewCharacter(obj *WorldObject, level, maxHP, maxMP int32) *Character {
	return &Character{
		WorldObject: obj,
		level:       level,
		currentHP:   maxHP,
		maxHP:       maxHP,
		currentMP:   maxMP,
		maxMP:       maxMP,
	}
}

// Level возвращает уровень персонажа.
func (c *Character) Level() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// CurrentHP возвращает текущее HP.
func (c *Character) CurrentHP() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentHP
}

// MaxHP возвращает максимальное HP.
func (c *Character) MaxHP() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxHP
}

// SetCurrentHP устанавливает текущее HP с валидацией (clamp 0..maxHP).
func (c *Character) SetCurrentHP(hp int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentHP = min(max(hp, 0), c.maxHP)
}

// CurrentMP возвращает текущее MP.
func (c *Character) CurrentMP() int32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentMP
}

// SetCurrentMP устанавливает текущее MP с валидацией (clamp 0..maxMP).
func (c *Character) SetCurrentMP(mp int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentMP = min(max(mp, 0), c.maxMP)
}

// IsDead returns true if HP reached zero.
func (c *Character) IsDead() bool {
	return c.CurrentHP() <= 0
}

// ReduceCurrentHP reduces HP by the specified amount (minimum 0).
func (c *Character) ReduceCurrentHP(damage int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentHP = max(c.currentHP-damage, 0)
}

// RestoreHP adds amount to HP, capped at maxHP.
func (c *Character) RestoreHP(amount int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentHP = int32(min(int64(c.currentHP)+int64(amount), int64(c.maxHP)))
}
