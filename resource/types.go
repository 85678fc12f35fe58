package resource

// Handle is an integer name for an entry in a Table.
// Handle 0 is reserved and always invalid.
type Handle uint32

// Strength tells whether a handle keeps its value alive.
type Strength uint8

const (
	Strong Strength = iota
	Weak
)

func (s Strength) String() string {
	if s == Weak {
		return "weak"
	}
	return "strong"
}

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventDestroyed
	EventBorrowed
	EventBorrowReturned
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventDestroyed:
		return "destroyed"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow-returned"
	default:
		return "unknown"
	}
}

// Event represents a resource lifecycle event.
//
// For EventDestroyed, Handle is the handle the value was first inserted
// under; it may already have been reused.
type Event struct {
	Value    any
	Handle   Handle
	TypeID   uint32
	Type     EventType
	Strength Strength
}

// Observer receives notifications about resource lifecycle events.
// Observers run synchronously and must not call back into the table that
// notifies them.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// OnResourceEvent calls f(e).
func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }
