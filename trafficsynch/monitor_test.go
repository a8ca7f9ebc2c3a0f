package trafficsynch

import (
	"testing"
	"time"
)

func TestIsRightTurn(t *testing.T) {
	t.Parallel()
	cases := []struct {
		v    Vehicle
		want bool
	}{
		{Vehicle{West, South}, true},
		{Vehicle{South, East}, true},
		{Vehicle{East, North}, true},
		{Vehicle{North, West}, true},
		{Vehicle{North, South}, false},
		{Vehicle{East, West}, false},
	}
	for _, c := range cases {
		if got := IsRightTurn(c.v); got != c.want {
			t.Errorf("IsRightTurn(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestCompatible(t *testing.T) {
	t.Parallel()
	cases := []struct {
		a, b Vehicle
		want bool
	}{
		{Vehicle{North, South}, Vehicle{North, West}, true},  // same origin
		{Vehicle{North, South}, Vehicle{South, North}, true}, // opposite direction
		{Vehicle{West, South}, Vehicle{North, East}, true},   // right turn, different destination
		{Vehicle{North, East}, Vehicle{East, West}, false},   // crossing paths, neither a compatible case
		{Vehicle{North, East}, Vehicle{West, South}, true},   // W->S is a right turn to a different destination
	}
	for _, c := range cases {
		if got := Compatible(c.a, c.b); got != c.want {
			t.Errorf("Compatible(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

// TestOppositeDirectionsConcurrent checks that N->S and S->N can both be
// admitted without either blocking the other.
func TestOppositeDirectionsConcurrent(t *testing.T) {
	t.Parallel()
	m := NewMonitor()

	done := make(chan struct{})
	m.BeforeEntry(North, South)
	go func() {
		m.BeforeEntry(South, North)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("S->N blocked on a compatible N->S vehicle")
	}

	m.AfterExit(North, South)
	m.AfterExit(South, North)
}

// TestIncompatibleBlocksUntilBothExit models the crossing-traffic scenario:
// N->S and S->N are inside; E->W must wait until both have exited.
func TestIncompatibleBlocksUntilBothExit(t *testing.T) {
	t.Parallel()
	m := NewMonitor()

	m.BeforeEntry(North, South)
	m.BeforeEntry(South, North)

	admitted := make(chan struct{})
	go func() {
		m.BeforeEntry(East, West)
		close(admitted)
	}()

	select {
	case <-admitted:
		t.Fatal("E->W was admitted while incompatible traffic was present")
	case <-time.After(50 * time.Millisecond):
	}

	m.AfterExit(North, South)

	select {
	case <-admitted:
		t.Fatal("E->W was admitted while S->N was still present")
	case <-time.After(50 * time.Millisecond):
	}

	m.AfterExit(South, North)

	select {
	case <-admitted:
	case <-time.After(time.Second):
		t.Fatal("E->W never admitted after both N->S and S->N exited")
	}

	m.AfterExit(East, West)
}
