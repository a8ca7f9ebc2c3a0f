package vm

import "github.com/jpark011/BabyOS/mem"

// fakeTlb is a software model of the MIPS TLB used only by tests.
type fakeTlb struct {
	slot []tlbEntry
}

type tlbEntry struct {
	va         uintptr
	pa         mem.Pa
	valid, dty bool
}

func newFakeTlb(n int) *fakeTlb {
	return &fakeTlb{slot: make([]tlbEntry, n)}
}

func (t *fakeTlb) NumSlots() int { return len(t.slot) }

func (t *fakeTlb) Read(i int) (uintptr, mem.Pa, bool, bool) {
	e := t.slot[i]
	return e.va, e.pa, e.valid, e.dty
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

// fakeIpl is a no-op interrupt priority level controller for single
// threaded tests.
type fakeIpl struct{ depth int }

func (f *fakeIpl) SplHigh() int { f.depth++; return f.depth - 1 }
func (f *fakeIpl) Splx(prev int) { f.depth = prev }
