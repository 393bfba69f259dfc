package effect

import (
	"context"
	"fmt"

	"github.com/udisondev/castfx/internal/model"
	"github.com/udisondev/castfx/internal/workpool"
)

// TargetFunc computes what the action does to one target and records it on b
// (HealTarget/DamageTarget).
type TargetFunc func(b *Builder, target model.Handle) error

// ResolveTargets runs fn for every target on pool and waits for all of them.
// Only after it returns nil may the caller call BuildAndSendPackets. On a
// ctx error some jobs may still be running; the builder must then be dropped.
func ResolveTargets(ctx context.Context, pool *workpool.Pool, b *Builder, targets []model.Handle, fn TargetFunc) error {
	futures := make([]*workpool.Future[struct{}], 0, len(targets))
	for _, target := range targets {
		futures = append(futures, workpool.QueueFunc(pool, func() error {
			if err := fn(b, target); err != nil {
				return fmt.Errorf("target %s: %w", target, err)
			}
			return nil
		}))
	}
	if err := workpool.Wait(ctx, futures...); err != nil {
		return fmt.Errorf("resolving action %d seq %d: %w", b.actionID, b.sequence, err)
	}
	return nil
}
