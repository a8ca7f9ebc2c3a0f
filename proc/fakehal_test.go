package proc

import (
	"sync"

	"github.com/jpark011/BabyOS/mem"
)

// fakeTlb and fakeIpl are minimal software models of the MIPS TLB and
// interrupt-priority-level control, the same shape as vm's own test doubles,
// kept here rather than imported since Go test-only identifiers do not cross
// package boundaries.
type fakeTlb struct {
	slot []tlbEntry
}

type tlbEntry struct {
	va        uintptr
	pa        mem.Pa
	valid, dt bool
}

func newFakeTlb(n int) *fakeTlb {
	return &fakeTlb{slot: make([]tlbEntry, n)}
}

func (t *fakeTlb) NumSlots() int { return len(t.slot) }

func (t *fakeTlb) Read(i int) (uintptr, mem.Pa, bool, bool) {
	e := t.slot[i]
	return e.va, e.pa, e.valid, e.dt
}

func (t *fakeTlb) Write(i int, va uintptr, pa mem.Pa, valid, dirty bool) {
	t.slot[i] = tlbEntry{va, pa, valid, dirty}
}

func (t *fakeTlb) WriteRandom(va uintptr, pa mem.Pa, valid, dirty bool) {
	t.slot[0] = tlbEntry{va, pa, valid, dirty}
}

func (t *fakeTlb) InvalidateAll() {
	for i := range t.slot {
		t.slot[i] = tlbEntry{}
	}
}

type fakeIpl struct{ depth int }

func (f *fakeIpl) SplHigh() int  { f.depth++; return f.depth - 1 }
func (f *fakeIpl) Splx(prev int) { f.depth = prev }

// fakeThreads runs a forked body asynchronously in a goroutine, the way a
// real scheduler would run it concurrently with the parent, without needing
// an actual scheduler underneath the test.
type fakeThreads struct {
	mu      sync.Mutex
	fail    bool
	started []string
}

func (f *fakeThreads) Fork(name string, body func()) error {
	if f.fail {
		return errFakeThreadCreation
	}
	f.mu.Lock()
	f.started = append(f.started, name)
	f.mu.Unlock()
	go body()
	return nil
}

var errFakeThreadCreation = fakeErr("proc: fake thread creation failure")

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

// fakeTrampoline records how each entry point was invoked instead of ever
// jumping to user mode, since there is no real user program to resume in a
// unit test.
type fakeTrampoline struct {
	mu       sync.Mutex
	forked   []*TrapFrame
	enteredUser chan userEntry
}

type userEntry struct {
	argc             int
	argvBase, sp, pc uintptr
}

func newFakeTrampoline() *fakeTrampoline {
	return &fakeTrampoline{enteredUser: make(chan userEntry, 1)}
}

// EnterUserMode never returns on real hardware (it is a jump, not a call),
// so the fake blocks forever after reporting the entry it was given, the
// same way Exec's caller must treat it: as the last thing that happens on
// this thread.
func (f *fakeTrampoline) EnterUserMode(argc int, argvBase, sp, entry uintptr) {
	f.enteredUser <- userEntry{argc, argvBase, sp, entry}
	select {}
}

func (f *fakeTrampoline) EnterForkedChild(tf *TrapFrame) {
	f.mu.Lock()
	f.forked = append(f.forked, tf)
	f.mu.Unlock()
}
