// Package proc implements process identity (Table, Process) and the
// fork/exec/exit/waitpid/getpid syscalls built on top of packages mem and
// vm. It follows biscuit's tinfo package for the shape of a per-entity
// record guarded by its own embedded sync.Mutex, registered in a
// process-wide map under a second, coarser lock.
package proc

import (
	"sync"

	"github.com/jpark011/BabyOS/vm"
)

/// State is a process's lifecycle stage.
type State int

const (
	ALIVE State = iota
	DEAD
)

// childrenLock is the single global lock serializing every exiting
// process's zombie-reap decision against every other's, so a parent
// reaping a just-dead child and that same child self-destructing because
// its parent is already gone can never both call Destroy on it. It guards
// Process.destroyed in addition to the reap/self-destruct decision itself.
var childrenLock sync.Mutex

/// Process is one process's identity, children, and exit state. Parent
/// linkage is by pid, looked up in the table, never by a direct pointer:
/// a parent can exit and be destroyed before a child does, and a pid-keyed
/// lookup degrades to "parent is gone" cleanly instead of dereferencing a
/// freed record.
type Process struct {
	pid       int32
	parentPID int32
	name      string

	mu       sync.Mutex // guards children and addrSpace
	children []*Process
	addrSpace *vm.AddrSpace

	cvLock     sync.Mutex
	cv         *sync.Cond
	state      State
	exitStatus int32

	destroyed bool // guarded by childrenLock; set by whichever party reaps this process first
}

func newProcess(name string) *Process {
	p := &Process{name: name, state: ALIVE}
	p.cv = sync.NewCond(&p.cvLock)
	return p
}

/// Pid returns the process's identifier.
func (p *Process) Pid() int32 { return p.pid }

/// ParentPID returns the pid of the process that forked this one, or 0 if
/// this is the initial process.
func (p *Process) ParentPID() int32 { return p.parentPID }

/// Name returns the program name create_runprogram registered this process
/// under.
func (p *Process) Name() string { return p.name }

/// AddrSpace returns the process's current address space, or nil if it has
/// none (already exited, or not yet given one by exec).
func (p *Process) AddrSpace() *vm.AddrSpace {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addrSpace
}

/// SetAddrSpace installs as as the process's address space. Callers own the
/// lifetime of whatever address space they replace; SetAddrSpace does not
/// destroy it.
func (p *Process) SetAddrSpace(as *vm.AddrSpace) {
	p.mu.Lock()
	p.addrSpace = as
	p.mu.Unlock()
}

/// State reports whether the process is still alive or has exited.
func (p *Process) State() State {
	p.cvLock.Lock()
	defer p.cvLock.Unlock()
	return p.state
}

/// ExitStatus returns the encoded wait status set by Exit. Only meaningful
/// once State() reports DEAD.
func (p *Process) ExitStatus() int32 {
	p.cvLock.Lock()
	defer p.cvLock.Unlock()
	return p.exitStatus
}

func (p *Process) addChild(c *Process) {
	p.mu.Lock()
	p.children = append(p.children, c)
	p.mu.Unlock()
}

/// Children returns a snapshot of the process's live child list.
func (p *Process) Children() []*Process {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Process, len(p.children))
	copy(out, p.children)
	return out
}

func (p *Process) removeChild(c *Process) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, ch := range p.children {
		if ch == c {
			p.children = append(p.children[:i], p.children[i+1:]...)
			return
		}
	}
}
