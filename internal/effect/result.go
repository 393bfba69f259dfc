package effect

import (
	"math"
	"time"

	"github.com/udisondev/castfx/internal/gameserver/serverpackets"
	"github.com/udisondev/castfx/internal/model"
)

// Result is the aggregated outcome of one action cast on one target.
// Owned by its Builder; mutated only under the Builder lock.
type Result struct {
	target  model.Handle
	applyAt time.Time // fixed at creation

	healed       uint32
	healSeverity Severity
	hasHeal      bool

	damaged        uint32
	damageSeverity Severity
	hasDamage      bool
}

func newResult(target model.Handle, applyAt time.Time) *Result {
	return &Result{target: target, applyAt: applyAt}
}

func (r *Result) heal(amount uint32, sev Severity) {
	r.healed = addSaturating(r.healed, amount)
	r.healSeverity = sev
	r.hasHeal = true
}

func (r *Result) damage(amount uint32, sev Severity) {
	r.damaged = addSaturating(r.damaged, amount)
	r.damageSeverity = sev
	r.hasDamage = true
}

// addSaturating: u32 сумма без переполнения (клиент всё равно не покажет больше).
func addSaturating(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

// Target returns the handle of the affected entity.
func (r *Result) Target() model.Handle { return r.target }

// ApplyAt returns the delivery time assigned when the result was created.
func (r *Result) ApplyAt() time.Time { return r.applyAt }

// Healed returns the accumulated heal amount.
func (r *Result) Healed() uint32 { return r.healed }

// HealSeverity returns the severity of the latest heal.
func (r *Result) HealSeverity() Severity { return r.healSeverity }

// Damaged returns the accumulated damage amount.
func (r *Result) Damaged() uint32 { return r.damaged }

// DamageSeverity returns the severity of the latest damage.
func (r *Result) DamageSeverity() Severity { return r.damageSeverity }

// ApplyTo lands the result on c at its ApplyAt time: heal first, then damage.
// A character that is already dead is left alone. Returns true when this
// application killed c.
func (r *Result) ApplyTo(c *model.Character) (killed bool) {
	if c == nil || c.IsDead() {
		return false
	}
	if r.hasHeal {
		c.RestoreHP(toHP(r.healed))
	}
	if r.hasDamage {
		c.ReduceCurrentHP(toHP(r.damaged))
		return c.IsDead()
	}
	return false
}

// toHP clamps a u32 amount into the int32 HP domain.
func toHP(amount uint32) int32 {
	return int32(min(amount, math.MaxInt32))
}

// Entry builds the wire summary. castAt is the builder creation time the
// delay is expressed against.
func (r *Result) Entry(castAt time.Time) serverpackets.EffectEntry {
	e := serverpackets.EffectEntry{
		HealAmount:     r.healed,
		HealSeverity:   uint8(r.healSeverity),
		DamageAmount:   r.damaged,
		DamageSeverity: uint8(r.damageSeverity),
	}
	if r.hasHeal {
		e.Flags |= serverpackets.EffectFlagHeal
	}
	if r.hasDamage {
		e.Flags |= serverpackets.EffectFlagDamage
	}
	if d := r.applyAt.Sub(castAt); d > 0 {
		e.DelayMs = uint32(min(d.Milliseconds(), math.MaxUint32))
	}
	return e
}
