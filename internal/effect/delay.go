package effect

import (
	"time"

	"github.com/udisondev/castfx/internal/model"
)

// DefaultResultDelay is the placeholder delay between cast and effect landing.
// The real formula depends on action data (animation lock, projectile travel)
// owned by the action tables, so it is injected through DelayPolicy.
const DefaultResultDelay = time.Second

// DelayPolicy decides how long after the cast an effect on target lands.
// Called once per target, when the target's Result is created.
type DelayPolicy func(source, target model.Handle) time.Duration

// FixedDelay returns a policy that delays every target by d.
func FixedDelay(d time.Duration) DelayPolicy {
	return func(model.Handle, model.Handle) time.Duration { return d }
}
