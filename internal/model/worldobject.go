package model

import (
	"math"
	"sync"
	"sync/atomic"
)

// Kind tags what sits behind a WorldObject.
type Kind uint8

const (
	KindNpc Kind = iota
	KindPlayer
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNpc:
		return "npc"
	default:
		return "unknown"
	}
}

// WorldObject — базовый класс для всех игровых объектов в мире.
// Все объекты имеют ObjectID, Name, Location и rotation.
type WorldObject struct {
	objectID uint32
	kind     Kind
	name     string
	location Location

	// rotation хранится как float32 bits, чтобы читать без mutex в hot path
	// (BuildAndSendPackets читает rotation на каждый cast).
	rotation atomic.Uint32

	mu sync.RWMutex
}

// NewWorldObject создаёт новый объект в игровом мире.
// Rotation инициализируется из heading.
func NewWorldObject(objectID uint32, kind Kind, name string, loc Location) *WorldObject {
	w := &WorldObject{
		objectID: objectID,
		kind:     kind,
		name:     name,
		location: loc,
	}
	w.SetRotation(HeadingToRotation(loc.Heading))
	return w
}

// ObjectID возвращает уникальный ID объекта (immutable после создания).
func (w *WorldObject) ObjectID() uint32 {
	return w.objectID
}

// Kind returns the entity kind (immutable).
func (w *WorldObject) Kind() Kind {
	return w.kind
}

// Name возвращает имя объекта.
func (w *WorldObject) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.name
}

// Location возвращает копию координат объекта (value type).
func (w *WorldObject) Location() Location {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.location
}

// SetLocation устанавливает новые координаты объекта.
// Region membership is maintained by world.World.Move, not here.
func (w *WorldObject) SetLocation(loc Location) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.location = loc
}

// Rotation returns the facing angle in radians.
func (w *WorldObject) Rotation() float32 {
	return math.Float32frombits(w.rotation.Load())
}

// SetRotation updates the facing angle in radians.
func (w *WorldObject) SetRotation(rad float32) {
	w.rotation.Store(math.Float32bits(rad))
}
