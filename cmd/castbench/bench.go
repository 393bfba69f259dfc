package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/castfx/internal/config"
	"github.com/udisondev/castfx/internal/effect"
	"github.com/udisondev/castfx/internal/gameserver"
	"github.com/udisondev/castfx/internal/metrics"
	"github.com/udisondev/castfx/internal/model"
	"github.com/udisondev/castfx/internal/workpool"
	"github.com/udisondev/castfx/internal/world"
)

// Bench actions
const (
	actionHeal  uint32 = 1
	actionSmite uint32 = 2
)

const (
	// maxTargets caps how many observers one cast affects.
	maxTargets = 8
	// manaCost is spent per cast; a caster without it rests instead.
	manaCost = 40
	// areaHalf bounds the bench area around the origin.
	areaHalf = 2000
	// wanderStep is the max per-tick move along each axis.
	wanderStep = 300
)

// bench populates a small area with players and NPCs and keeps casting
// random heals and attacks among them. Results land on HP at their apply
// time; killed entities respawn elsewhere with a new handle.
type bench struct {
	cfg     config.Server
	world   *world.World
	pool    *workpool.Pool
	disp    *gameserver.Dispatcher
	clients *gameserver.ClientManager
	sink    *metrics.PromSink

	mu      sync.Mutex
	casters []model.Handle

	sequence atomic.Uint32
	casts    atomic.Int64
	kills    atomic.Int64
}

func newBench(ctx context.Context, cfg config.Server, w *world.World, clients *gameserver.ClientManager, pool *workpool.Pool, sink *metrics.PromSink) (*bench, error) {
	b := &bench{
		cfg:     cfg,
		world:   w,
		pool:    pool,
		disp:    gameserver.NewDispatcher(w),
		clients: clients,
		sink:    sink,
	}

	ids := world.NewObjectIDGenerator()
	writePool := gameserver.NewBytePool(64)

	for i := range cfg.Bench.Players {
		p := model.NewPlayer(ids.NextPlayerID(), fmt.Sprintf("bench%d", i), randomLocation(), 40, 2000, 800)

		// клиентская сторона: читаем и выбрасываем всё, что сервер отправил
		serverSide, clientSide := net.Pipe()
		go func() {
			_, _ = io.Copy(io.Discard, clientSide)
		}()
		context.AfterFunc(ctx, func() { _ = clientSide.Close() })

		gc, err := gameserver.NewGameClient(serverSide, writePool, cfg.Network.SendQueueSize, cfg.Network.WriteTimeout)
		if err != nil {
			return nil, fmt.Errorf("creating client for %s: %w", p.Name(), err)
		}
		gc.Start()
		clients.Attach(p, gc)

		h, err := w.SpawnPlayer(p)
		if err != nil {
			return nil, err
		}
		b.casters = append(b.casters, h)
	}

	for i := range cfg.Bench.Npcs {
		n := model.NewNpc(ids.NextNpcID(), 20000+int32(i), fmt.Sprintf("mob%d", i), randomLocation(), 20, 1500, 300)
		h, err := w.SpawnNpc(n)
		if err != nil {
			return nil, err
		}
		b.casters = append(b.casters, h)
	}

	slog.Info("bench world populated",
		"players", cfg.Bench.Players,
		"npcs", cfg.Bench.Npcs,
		"entities", w.Count())
	return b, nil
}

// randomLocation returns a point inside the bench area.
func randomLocation() model.Location {
	return model.NewLocation(
		rand.Int32N(2*areaHalf)-areaHalf,
		rand.Int32N(2*areaHalf)-areaHalf,
		0,
		uint16(rand.UintN(65536)),
	)
}

func clampArea(v int32) int32 {
	return min(max(v, -areaHalf), areaHalf)
}

func (b *bench) run(ctx context.Context) error {
	if b.casterCount() == 0 {
		slog.Warn("bench has no entities, nothing to cast")
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(b.cfg.Bench.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		b.wander()

		if err := b.cast(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			slog.Warn("cast failed", "error", err)
		}

		if n := b.casts.Add(1); b.cfg.Bench.Casts > 0 && n >= int64(b.cfg.Bench.Casts) {
			slog.Info("bench finished", "casts", n, "kills", b.kills.Load())
			return nil
		}
	}
}

func (b *bench) casterCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.casters)
}

func (b *bench) pickCaster() model.Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.casters[rand.IntN(len(b.casters))]
}

// replaceCaster swaps a respawned entity's old handle for the new one.
func (b *bench) replaceCaster(old, fresh model.Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := slices.Index(b.casters, old); i >= 0 {
		b.casters[i] = fresh
	}
}

// wander moves one random entity a step, possibly across a region border.
func (b *bench) wander() {
	h := b.pickCaster()
	e, ok := b.world.Resolve(h)
	if !ok {
		return
	}

	loc := e.Object().Location()
	dst := loc.
		WithCoordinates(
			clampArea(loc.X+rand.Int32N(2*wanderStep+1)-wanderStep),
			clampArea(loc.Y+rand.Int32N(2*wanderStep+1)-wanderStep),
			loc.Z).
		WithHeading(uint16(rand.UintN(65536)))

	if err := b.world.Move(h, dst); err != nil {
		// могли убить и переспаунить между Resolve и Move
		slog.Debug("wander skipped", "handle", h, "error", err)
		return
	}
	e.Object().SetRotation(model.HeadingToRotation(dst.Heading))
}

// cast runs one action end to end: pick targets in range, resolve them on
// the pool, send the effect packets and schedule the results to land.
func (b *bench) cast(ctx context.Context) error {
	source := b.pickCaster()
	caster, ok := b.world.Resolve(source)
	if !ok {
		return nil
	}

	c := caster.Character()
	if c.CurrentMP() < manaCost {
		// отдых: SetCurrentMP клампит до maxMP
		c.SetCurrentMP(math.MaxInt32)
		slog.Debug("caster resting", "caster", source)
		return nil
	}
	c.SetCurrentMP(c.CurrentMP() - manaCost)
	level := uint32(max(c.Level(), 0))

	var targets []model.Handle
	b.world.ForEachInRange(caster, func(e world.Entity) bool {
		targets = append(targets, e.Handle())
		return len(targets) < maxTargets
	})

	actionID := actionSmite
	if rand.IntN(2) == 0 {
		actionID = actionHeal
	}

	seq := uint16(b.sequence.Add(1))
	builder := effect.NewBuilder(source, actionID, seq,
		effect.WithDelayPolicy(effect.FixedDelay(b.cfg.Effect.ResultDelay)),
		effect.WithRecorder(b.sink))

	err := effect.ResolveTargets(ctx, b.pool, builder, targets, func(eb *effect.Builder, target model.Handle) error {
		sev := effect.SeverityNormal
		if rand.IntN(10) == 0 {
			sev = effect.SeverityCritical
		}
		if actionID == actionHeal {
			return eb.HealTarget(target, 50+rand.Uint32N(150)+level, sev)
		}
		return eb.DamageTarget(target, 80+rand.Uint32N(220)+level*5, sev)
	})
	if err != nil {
		return err
	}

	err = builder.BuildAndSendPackets(b.world, b.disp)
	if errors.Is(err, effect.ErrSourceGone) {
		return err
	}
	slog.Debug("cast sent",
		"caster", builder.Source(),
		"action", builder.ActionID(),
		"seq", builder.Sequence(),
		"targets", builder.Len())
	b.scheduleApply(ctx, builder)
	return err
}

// scheduleApply lands every target's result on its HP at ApplyAt.
func (b *bench) scheduleApply(ctx context.Context, builder *effect.Builder) {
	for _, target := range builder.Targets() {
		r, ok := builder.Result(target)
		if !ok {
			continue
		}
		time.AfterFunc(time.Until(r.ApplyAt()), func() {
			if ctx.Err() != nil {
				return
			}
			b.apply(r)
		})
	}
}

func (b *bench) apply(r effect.Result) {
	e, ok := b.world.Resolve(r.Target())
	if !ok {
		// цель уже ушла или переспаунилась
		return
	}
	if r.ApplyTo(e.Character()) {
		b.respawn(e)
	}
}

// respawn puts a killed entity back at a random spot with full HP.
// The old handle goes stale; the caster list gets the new one.
func (b *bench) respawn(e world.Entity) {
	if !b.world.Despawn(e.Handle()) {
		return
	}
	b.kills.Add(1)

	p, isPlayer := e.AsPlayer()
	var conn *gameserver.GameClient
	if isPlayer {
		// мёртвый игрок не получает пакеты до респауна
		conn = b.clients.Detach(p)
		slog.Debug("player killed", "handle", e.Handle(), "name", e.Object().Name())
	} else if n, ok := e.AsNpc(); ok {
		slog.Debug("npc killed", "handle", e.Handle(), "template", n.TemplateID())
	}

	c := e.Character()
	c.SetCurrentHP(c.MaxHP())
	e.Object().SetLocation(randomLocation())

	var (
		h   model.Handle
		err error
	)
	if isPlayer {
		h, err = b.world.SpawnPlayer(p)
		if err == nil && conn != nil && !conn.IsClosed() {
			b.clients.Attach(p, conn)
		}
	} else {
		n, _ := e.AsNpc()
		h, err = b.world.SpawnNpc(n)
	}
	if err != nil {
		slog.Warn("respawn failed", "handle", e.Handle(), "error", err)
		return
	}
	b.replaceCaster(e.Handle(), h)
}
