package proc

import (
	"sync"
	"sync/atomic"

	"github.com/jpark011/BabyOS/defs"
	"github.com/jpark011/BabyOS/vm"
)

/// Table is the process-wide pid-to-process mapping. The zero value is not
/// usable; construct one with NewTable.
type Table struct {
	mu       sync.Mutex
	byPID    map[int32]*Process
	freePIDs []int32
	nextPID  int32 // next pid to mint when freePIDs is empty
}

/// NewTable returns an empty process table. Pid 1 is reserved for the first
/// process create_runprogram registers; pid 0 is never assigned.
func NewTable() *Table {
	return &Table{byPID: make(map[int32]*Process), nextPID: 1}
}

/// Insert assigns p the smallest unused pid, reusing one from the free list
/// when non-empty, registers it in the table, and returns the pid. It
/// returns 0 if the pid space is exhausted (the int32 counter wrapped).
func (t *Table) Insert(p *Process) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pid int32
	if len(t.freePIDs) > 0 {
		m := 0
		for i, fp := range t.freePIDs {
			if fp < t.freePIDs[m] {
				m = i
			}
		}
		pid = t.freePIDs[m]
		t.freePIDs = append(t.freePIDs[:m], t.freePIDs[m+1:]...)
	} else {
		pid = atomic.AddInt32(&t.nextPID, 1) - 1
		if pid <= 0 {
			return 0
		}
	}
	p.pid = pid
	t.byPID[pid] = p
	return pid
}

/// Lookup returns the process registered under pid, if any.
func (t *Table) Lookup(pid int32) (*Process, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byPID[pid]
	return p, ok
}

/// Remove unregisters pid and pushes it onto the free list for reuse.
func (t *Table) Remove(pid int32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byPID, pid)
	t.freePIDs = append(t.freePIDs, pid)
}

/// CreateRunProgram allocates a process record with a fresh pid, empty
/// children, a fresh condition variable, state ALIVE, and no address space,
/// then registers it in t. It fails with ENPROC only when the pid space is
/// exhausted.
func CreateRunProgram(t *Table, name string) (*Process, error) {
	p := newProcess(name)
	if pid := t.Insert(p); pid == 0 {
		return nil, defs.ENPROC
	}
	return p, nil
}

/// Destroy releases p's resources: its address space if still attached
/// (freed via frames), and its table entry. It panics if p still has live
/// children, since a process in that state is reachable and must not be
/// freed.
func Destroy(t *Table, p *Process, frames vm.Frames) {
	p.mu.Lock()
	nchildren := len(p.children)
	as := p.addrSpace
	p.addrSpace = nil
	p.mu.Unlock()

	if nchildren != 0 {
		panic("proc: destroy called on a process with live children")
	}
	if as != nil {
		vm.Destroy(as, frames)
	}
	t.Remove(p.pid)
}

/// destroyOnce destroys p via t unless it has already been destroyed by the
/// other party racing to reap it: a parent reaping a child it finds DEAD, and
/// that same child self-destructing because it finds its own parent already
/// gone, both land here for the same process. Callers must hold
/// childrenLock.
func destroyOnce(t *Table, p *Process, frames vm.Frames) {
	if p.destroyed {
		return
	}
	p.destroyed = true
	Destroy(t, p, frames)
}
