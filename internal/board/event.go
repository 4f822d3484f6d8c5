package board

import (
	"fmt"
	"strconv"
)

// Kind identifies what a particle collides with.
type Kind uint8

const (
	KindWall     Kind = iota // Outer container wall
	KindObstacle             // Fixed central obstacle
	KindPair                 // Another particle
)

func (k Kind) String() string {
	switch k {
	case KindWall:
		return "wall"
	case KindObstacle:
		return "obstacle"
	case KindPair:
		return "pair"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event describes a single collision. For KindPair, A < B; otherwise B is unused.
type Event struct {
	Kind    Kind
	A       int64   // Id of the (first) particle
	B       int64   // Id of the second particle, KindPair only
	Time    float64 // Time to the event from the instant it was predicted
	At      float64 // Absolute simulation time once the event is resolved
	Impulse float64 // Momentum exchanged, set once resolved
}

// Same reports whether e and o involve the same kind and participants.
func (e Event) Same(o Event) bool {
	return e.Kind == o.Kind && e.A == o.A && e.B == o.B
}

// String formats the event line of the output: "<A> W", "<A> O" or "<A> <B>".
func (e Event) String() string {
	switch e.Kind {
	case KindWall:
		return fmt.Sprintf("%d W", e.A)
	case KindObstacle:
		return fmt.Sprintf("%d O", e.A)
	case KindPair:
		return fmt.Sprintf("%d %d", e.A, e.B)
	default:
		panic(fmt.Sprintf("board: unknown event kind %d", e.Kind))
	}
}
