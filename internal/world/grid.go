package world

// Grid constants (Interlude world bounds).
const (
	// ShiftBy - shift by N bits for 2^N units per region (2^11 = 2048)
	ShiftBy = 11

	WorldXMin = -131072
	WorldYMin = -262144
	WorldXMax = 196608
	WorldYMax = 229376

	// OffsetX = abs(WorldXMin >> ShiftBy), OffsetY = abs(WorldYMin >> ShiftBy)
	OffsetX = 64
	OffsetY = 128

	RegionsX = 160
	RegionsY = 241

	// Region size in game units
	RegionSize = 1 << ShiftBy
)

// CoordToRegionIndex converts world coordinate to region index
// Formula: (worldCoord >> ShiftBy) + Offset
func CoordToRegionIndex(x, y int32) (rx, ry int32) {
	return (x >> ShiftBy) + OffsetX, (y >> ShiftBy) + OffsetY
}

// IsValidRegionIndex checks if region index is within valid bounds
func IsValidRegionIndex(rx, ry int32) bool {
	return rx >= 0 && rx < RegionsX && ry >= 0 && ry < RegionsY
}

