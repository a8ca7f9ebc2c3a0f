// Package trafficsynch implements the intersection-entry admission monitor:
// an exemplar of mutex + condition-variable synchronization built on top of
// the same sync.Mutex/sync.Cond idiom used elsewhere (proc.Process's cv,
// mem.CoreMap's mu). It replaces the single-semaphore admit-one-at-a-time
// mechanism in original_source/kern/synchprobs/traffic_synch.c with a
// compatibility-predicate monitor that lets same-origin and opposite-direction
// traffic move concurrently.
package trafficsynch

import "sync"

/// Dir is one of the four directions a vehicle can arrive from or head to.
type Dir int

const (
	North Dir = iota
	East
	South
	West
)

func (d Dir) String() string {
	switch d {
	case North:
		return "N"
	case East:
		return "E"
	case South:
		return "S"
	case West:
		return "W"
	default:
		return "?"
	}
}

/// Vehicle is one vehicle's path through the intersection.
type Vehicle struct {
	Origin, Destination Dir
}

/// IsRightTurn reports whether v's path is one of the four right turns:
/// W->S, S->E, E->N, N->W.
func IsRightTurn(v Vehicle) bool {
	switch v {
	case Vehicle{West, South}, Vehicle{South, East}, Vehicle{East, North}, Vehicle{North, West}:
		return true
	default:
		return false
	}
}

/// Compatible reports whether two vehicles may occupy the intersection at
/// the same time: same origin, opposite directions, or either is a right
/// turn to a different destination.
func Compatible(a, b Vehicle) bool {
	if a.Origin == b.Origin {
		return true
	}
	if b.Origin == a.Destination && b.Destination == a.Origin {
		return true
	}
	if (IsRightTurn(a) || IsRightTurn(b)) && a.Destination != b.Destination {
		return true
	}
	return false
}

/// Monitor admits vehicles into the intersection one compatibility class at
/// a time, blocking a newly arriving vehicle until every vehicle already
/// present is compatible with it. The zero value is not usable; construct
/// one with NewMonitor.
type Monitor struct {
	mu      sync.Mutex
	cv      [4]*sync.Cond
	present []Vehicle
}

/// NewMonitor returns an empty intersection with no vehicles present.
func NewMonitor() *Monitor {
	m := &Monitor{}
	for d := range m.cv {
		m.cv[d] = sync.NewCond(&m.mu)
	}
	return m
}

func (m *Monitor) compatibleWithAll(v Vehicle) bool {
	for _, w := range m.present {
		if !Compatible(v, w) {
			return false
		}
	}
	return true
}

/// BeforeEntry blocks the calling vehicle until it is compatible with every
/// vehicle currently present, then admits it.
func (m *Monitor) BeforeEntry(origin, destination Dir) {
	v := Vehicle{origin, destination}

	m.mu.Lock()
	for !m.compatibleWithAll(v) {
		m.cv[origin].Wait()
	}
	m.present = append(m.present, v)
	m.mu.Unlock()
}

/// AfterExit removes the vehicle matching (origin, destination) from the
/// intersection and wakes the waiters whose admissibility may have changed.
/// Which cvs get broadcast is a liveness heuristic carried over from the
/// original mechanism (cross-axis traffic on exit); correctness does not
/// depend on it, since every waiter re-checks the predicate on wakeup.
func (m *Monitor) AfterExit(origin, destination Dir) {
	m.mu.Lock()
	v := Vehicle{origin, destination}
	for i, w := range m.present {
		if w == v {
			m.present = append(m.present[:i], m.present[i+1:]...)
			break
		}
	}

	if origin == North || origin == South {
		m.cv[East].Broadcast()
		m.cv[West].Broadcast()
	} else {
		m.cv[North].Broadcast()
		m.cv[South].Broadcast()
	}
	m.mu.Unlock()
}
