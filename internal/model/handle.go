package model

import "fmt"

// Handle is a lightweight reference to an entity owned by the world table.
// The generation changes every time the slot is reused, so a handle kept
// after despawn never resolves to a different entity with the same ID.
//
// Zero Handle is invalid.
type Handle struct {
	ObjectID   uint32
	Generation uint32
}

// IsZero reports whether h is the invalid zero handle.
func (h Handle) IsZero() bool {
	return h.ObjectID == 0
}

// String returns "objectID#generation" (used in logs).
func (h Handle) String() string {
	return fmt.Sprintf("%d#%d", h.ObjectID, h.Generation)
}
