package model

import (
	"math"
	"math/bits"
)

// Location представляет координаты в игровом мире.
// Value type, передаётся по значению (immutable).
type Location struct {
	X       int32
	Y       int32
	Z       int32
	Heading uint16 // 0-65535
}

// NewLocation создаёт Location с указанными координатами.
func NewLocation(x, y, z int32, heading uint16) Location {
	return Location{X: x, Y: y, Z: z, Heading: heading}
}

// WithHeading возвращает новый Location с обновлённым направлением (immutable pattern).
func (l Location) WithHeading(heading uint16) Location {
	l.Heading = heading
	return l
}

// WithCoordinates возвращает новый Location с обновлёнными координатами (immutable pattern).
func (l Location) WithCoordinates(x, y, z int32) Location {
	l.X = x
	l.Y = y
	l.Z = z
	return l
}

// DistanceSquared возвращает квадрат расстояния до другой точки (без sqrt для производительности).
// Внутри мировой сетки результат точный; на краях диапазона int32 насыщается до math.MaxInt64.
func (l Location) DistanceSquared(other Location) int64 {
	dx := absDiff(l.X, other.X)
	dy := absDiff(l.Y, other.Y)
	dz := absDiff(l.Z, other.Z)

	sum, c1 := bits.Add64(dx*dx, dy*dy, 0)
	sum, c2 := bits.Add64(sum, dz*dz, 0)
	if c1|c2 != 0 || sum > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(sum)
}

// absDiff returns |a-b|; fits uint64 and its square fits uint64 too.
func absDiff(a, b int32) uint64 {
	d := int64(a) - int64(b)
	if d < 0 {
		d = -d
	}
	return uint64(d)
}

// QuantizeRotation maps a facing angle in radians ([-π, π]) onto the
// 0..65535 range clients expect in effect packets.
// Angles outside the range are wrapped first.
func QuantizeRotation(rad float32) uint16 {
	r := float64(rad)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	r = math.Mod(r+math.Pi, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return uint16(r * 65535.0 / (2 * math.Pi))
}

// HeadingToRotation converts a 0..65535 heading back to radians in [-π, π).
func HeadingToRotation(heading uint16) float32 {
	return float32(float64(heading)*(2*math.Pi)/65535.0 - math.Pi)
}
