package effect

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/castfx/internal/gameserver/serverpackets"
	"github.com/udisondev/castfx/internal/model"
	"github.com/udisondev/castfx/internal/world"
)

var (
	// ErrFinalized is returned when a Builder is used after BuildAndSendPackets.
	ErrFinalized = errors.New("effect builder already finalized")
	// ErrSourceGone is returned when the caster despawned before finalization.
	ErrSourceGone = errors.New("effect source no longer in world")
)

// Resolver maps handles to live entities. Implemented by *world.World.
type Resolver interface {
	Resolve(h model.Handle) (world.Entity, bool)
}

// Dispatcher delivers serialized packets. Implemented by *gameserver.Dispatcher.
type Dispatcher interface {
	// BroadcastToVisible sends payload to every player observing source
	// (source itself excluded) and returns how many got it.
	BroadcastToVisible(source world.Entity, payload []byte) int
	// SendToPlayer sends payload to one player's own connection.
	SendToPlayer(p *model.Player, payload []byte) error
}

// Recorder receives delivery statistics. Implemented by *metrics.PromSink.
type Recorder interface {
	EffectsSent(targets, broadcast, private int)
	EffectSendFailed()
}

type nopRecorder struct{}

func (nopRecorder) EffectsSent(int, int, int) {}
func (nopRecorder) EffectSendFailed()         {}

// Builder collects the per-target outcome of one action cast and, once,
// turns it into ActionEffect packets.
//
// Constructed → Accumulating (HealTarget/DamageTarget) → Finalized (BuildAndSendPackets).
// HealTarget/DamageTarget are safe to call from several goroutines; they
// must all have returned before BuildAndSendPackets is called.
type Builder struct {
	source   model.Handle
	actionID uint32
	sequence uint16
	castAt   time.Time

	delay    DelayPolicy
	now      func() time.Time
	recorder Recorder

	mu        sync.Mutex
	results   map[uint32]*Result // target objectID → result
	finalized bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithDelayPolicy replaces the default fixed delay.
func WithDelayPolicy(p DelayPolicy) BuilderOption {
	return func(b *Builder) {
		if p != nil {
			b.delay = p
		}
	}
}

// WithClock replaces time.Now (tests).
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithRecorder installs a delivery metrics recorder.
func WithRecorder(r Recorder) BuilderOption {
	return func(b *Builder) {
		if r != nil {
			b.recorder = r
		}
	}
}

// NewBuilder creates the builder for one action cast.
func NewBuilder(source model.Handle, actionID uint32, sequence uint16, opts ...BuilderOption) *Builder {
	b := &Builder{
		source:   source,
		actionID: actionID,
		sequence: sequence,
		delay:    FixedDelay(DefaultResultDelay),
		now:      time.Now,
		recorder: nopRecorder{},
		results:  make(map[uint32]*Result, 4),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.castAt = b.now()
	return b
}

// Source returns the caster handle.
func (b *Builder) Source() model.Handle { return b.source }

// ActionID returns the action identifier.
func (b *Builder) ActionID() uint32 { return b.actionID }

// Sequence returns the cast sequence number.
func (b *Builder) Sequence() uint16 { return b.sequence }

// getResult returns the target's result, creating it (and fixing its delay)
// on first use. Caller holds b.mu.
func (b *Builder) getResult(target model.Handle) *Result {
	if r, ok := b.results[target.ObjectID]; ok {
		return r
	}
	r := newResult(target, b.now().Add(b.delay(b.source, target)))
	b.results[target.ObjectID] = r
	return r
}

// HealTarget accumulates a heal of amount on target.
func (b *Builder) HealTarget(target model.Handle, amount uint32, sev Severity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return ErrFinalized
	}
	b.getResult(target).heal(amount, sev)
	return nil
}

// DamageTarget accumulates damage of amount on target.
func (b *Builder) DamageTarget(target model.Handle, amount uint32, sev Severity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finalized {
		return ErrFinalized
	}
	b.getResult(target).damage(amount, sev)
	return nil
}

// Result returns a copy of the target's accumulated result.
func (b *Builder) Result(target model.Handle) (Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.results[target.ObjectID]
	if !ok {
		return Result{}, false
	}
	return *r, true
}

// Targets returns the handles of all targets accumulated so far (any order).
func (b *Builder) Targets() []model.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	targets := make([]model.Handle, 0, len(b.results))
	for _, r := range b.results {
		targets = append(targets, r.target)
	}
	return targets
}

// Len returns the number of distinct targets.
func (b *Builder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.results)
}

// Finalized reports whether BuildAndSendPackets has been called.
func (b *Builder) Finalized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finalized
}

// BuildAndSendPackets finalizes the builder. For every target it broadcasts
// one ActionEffect to the caster's observers and, if the caster is a player,
// sends the caster a copy with HiddenAnimation set to the sequence.
//
// The builder is finalized even when an error is returned; a second call
// returns ErrFinalized. Delivery failures for one target do not stop the
// others and are returned joined.
func (b *Builder) BuildAndSendPackets(w Resolver, d Dispatcher) error {
	b.mu.Lock()
	if b.finalized {
		b.mu.Unlock()
		return ErrFinalized
	}
	b.finalized = true
	// снимок под lock: дальше результаты только читаем
	entries := make([]targetEntry, 0, len(b.results))
	for id, r := range b.results {
		entries = append(entries, targetEntry{objectID: id, entry: r.Entry(b.castAt)})
	}
	b.mu.Unlock()

	slog.Debug("effect builder result",
		"action", b.actionID,
		"sequence", b.sequence,
		"source", b.source,
		"targets", len(entries))

	if len(entries) == 0 {
		return nil
	}

	source, ok := w.Resolve(b.source)
	if !ok {
		return fmt.Errorf("action %d seq %d from %s: %w", b.actionID, b.sequence, b.source, ErrSourceGone)
	}
	rotation := model.QuantizeRotation(source.Object().Rotation())
	player, isPlayer := source.AsPlayer()

	var errs []error
	var broadcast, private int
	for _, te := range entries {
		pkt := serverpackets.NewActionEffect(b.source.ObjectID, te.objectID, b.actionID)
		pkt.SetRotation(rotation)
		pkt.SetSequence(b.sequence)
		pkt.AddEffect(te.entry)

		data, err := pkt.Write()
		if err != nil {
			errs = append(errs, fmt.Errorf("writing ActionEffect for target %d: %w", te.objectID, err))
			continue
		}
		observers := d.BroadcastToVisible(source, data)
		broadcast++

		slog.Debug("effect sent",
			"action", b.actionID,
			"target", te.objectID,
			"heal", te.entry.HealAmount,
			"damage", te.entry.DamageAmount,
			"observers", observers)

		if !isPlayer {
			continue
		}

		// копия для самого кастера: клиент уже проиграл анимацию локально
		pkt.SetHiddenAnimation(b.sequence)
		own, err := pkt.Write()
		if err != nil {
			errs = append(errs, fmt.Errorf("writing caster ActionEffect for target %d: %w", te.objectID, err))
			continue
		}
		if err := d.SendToPlayer(player, own); err != nil {
			b.recorder.EffectSendFailed()
			slog.Warn("failed to send effect to caster",
				"caster", b.source,
				"action", b.actionID,
				"target", te.objectID,
				"error", err)
			errs = append(errs, fmt.Errorf("sending ActionEffect to caster %s: %w", b.source, err))
			continue
		}
		private++
	}

	b.recorder.EffectsSent(len(entries), broadcast, private)
	return errors.Join(errs...)
}

type targetEntry struct {
	objectID uint32
	entry    serverpackets.EffectEntry
}
