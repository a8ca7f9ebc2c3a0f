package proc

import "testing"

func TestTable_InsertLookupRemove(t *testing.T) {
	t.Parallel()
	tbl := NewTable()

	p, err := CreateRunProgram(tbl, "init")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Pid() == 0 {
		t.Fatalf("expected a nonzero pid")
	}

	got, ok := tbl.Lookup(p.Pid())
	if !ok || got != p {
		t.Fatalf("lookup(%d) = %v, %v", p.Pid(), got, ok)
	}

	tbl.Remove(p.Pid())
	if _, ok := tbl.Lookup(p.Pid()); ok {
		t.Fatalf("expected lookup to fail after remove")
	}
}

func TestTable_ReusesFreedPids(t *testing.T) {
	t.Parallel()
	tbl := NewTable()

	a, _ := CreateRunProgram(tbl, "a")
	b, _ := CreateRunProgram(tbl, "b")
	tbl.Remove(a.Pid())

	c, _ := CreateRunProgram(tbl, "c")
	if c.Pid() != a.Pid() {
		t.Fatalf("expected pid reuse: c.Pid()=%d, a.Pid()=%d", c.Pid(), a.Pid())
	}
	if b.Pid() == c.Pid() {
		t.Fatalf("reused pid collided with a still-live process")
	}
}

func TestDestroy_PanicsWithLiveChildren(t *testing.T) {
	t.Parallel()
	tbl := NewTable()
	parent, _ := CreateRunProgram(tbl, "parent")
	child, _ := CreateRunProgram(tbl, "child")
	parent.addChild(child)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected Destroy to panic with a live child present")
		}
	}()
	Destroy(tbl, parent, nil)
}
