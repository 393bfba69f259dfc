package world

// ForEachInRange calls fn for every live entity that can observe source:
// entities in the 3×3 region window around source, within the visibility
// range, excluding source itself. Iteration stops when fn returns false.
//
// Regions are snapshotted first, so fn may call back into World.
func (w *World) ForEachInRange(source Entity, fn func(Entity) bool) {
	if source.obj == nil {
		return
	}
	loc := source.obj.Location()
	rx, ry := CoordToRegionIndex(loc.X, loc.Y)

	w.mu.RLock()
	window := make([]*Region, 0, 9)
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			if r := w.regions[[2]int32{rx + dx, ry + dy}]; r != nil {
				window = append(window, r)
			}
		}
	}
	rangeSq := w.visibilityRange * w.visibilityRange
	w.mu.RUnlock()

	for _, r := range window {
		for _, e := range r.Snapshot() {
			if e.ObjectID() == source.ObjectID() {
				continue
			}
			if rangeSq > 0 && e.obj.Location().DistanceSquared(loc) > rangeSq {
				continue
			}
			if !fn(e) {
				return
			}
		}
	}
}

