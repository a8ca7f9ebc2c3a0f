package proc

import (
	"encoding/binary"

	"github.com/jpark011/BabyOS/defs"
	"github.com/jpark011/BabyOS/mem"
	"github.com/jpark011/BabyOS/vm"
)

// ARGMAX and PATHMAX bound exec's argument count and string lengths, the
// same role ARG_MAX/PATH_MAX play in the original syscall layer.
const (
	ARGMAX  = 64
	PATHMAX = 1024
)

const ptrSize = 4 // MIPS32 user pointers

/// Syscalls bundles the collaborators fork/exec/exit/waitpid/getpid need so
/// none of them touch package-level mutable state: the process table, a
/// thread spawner, a program loader, a user-mode trampoline, the frame
/// allocator view, the kernel-virtual mapper, the TLB/IPL pair, and the
/// address-space geometry. A kernel wires one Syscalls value up at boot and
/// passes it by reference into every trap handler.
type Syscalls struct {
	Table   *Table
	Threads ThreadCreator
	Loader  Loader
	Tramp   Trampoline
	Frames  vm.Frames
	KV      mem.KernelVirtualMapper
	Tlb     vm.Tlb
	Ipl     vm.Ipl
	Cfg     vm.Config
}

/// Fork creates a child process that is a copy of current, returning the
/// child's pid to the caller. The child resumes via tf (duplicated so the
/// parent's own trapframe is untouched) with V0 cleared by the trampoline
/// when it is entered.
func (k *Syscalls) Fork(current *Process, tf *TrapFrame) (int32, error) {
	child, err := CreateRunProgram(k.Table, current.name)
	if err != nil {
		return 0, defs.ENPROC
	}

	childAS, err := vm.Copy(current.AddrSpace(), k.Frames, k.KV, k.Cfg)
	if err != nil {
		Destroy(k.Table, child, k.Frames)
		return 0, defs.ENOMEM
	}
	child.SetAddrSpace(childAS)

	childTF := *tf
	child.parentPID = current.pid
	current.addChild(child)

	err = k.Threads.Fork(child.name, func() {
		k.Tramp.EnterForkedChild(&childTF)
	})
	if err != nil {
		current.removeChild(child)
		Destroy(k.Table, child, k.Frames)
		return 0, err
	}

	return child.pid, nil
}

/// Exec replaces current's address space with a freshly loaded image and
/// transfers control to its entry point. argv has already been copied into
/// the kernel (the raw user-pointer scan that produces it is the trap
/// entry's job, the same copyin machinery the fault handler's callers use);
/// Exec's job starts at validating argv's size and ends by entering user
/// mode, never returning on success.
func (k *Syscalls) Exec(current *Process, progname string, argv []string) error {
	if len(argv) > ARGMAX {
		return defs.E2BIG
	}
	if len(progname) >= PATHMAX {
		return defs.ENAMETOOLONG
	}
	for _, a := range argv {
		if len(a) >= PATHMAX {
			return defs.ENAMETOOLONG
		}
	}

	var argBytes uintptr
	for _, a := range argv {
		argBytes += uintptr(len(a) + 1)
	}
	// +ptrSize-1 covers the alignment padding dropped when sp is rounded
	// down to a word boundary after the strings are packed.
	argBytes += uintptr(ptrSize)*uintptr(len(argv)+1) + uintptr(ptrSize-1)
	if stackBytes := uintptr(k.Cfg.StackPages) * k.Cfg.PageSize; argBytes > stackBytes {
		return defs.E2BIG
	}

	exe, err := k.Loader.Open(progname)
	if err != nil {
		return err
	}

	newAS := vm.NewAddrSpace()
	oldAS := current.AddrSpace()
	current.SetAddrSpace(newAS)
	newAS.Activate(k.Ipl, k.Tlb)

	unwind := func() {
		current.SetAddrSpace(oldAS)
		vm.Destroy(newAS, k.Frames)
	}

	entry, err := exe.Load(newAS, k.Frames, k.KV, k.Cfg)
	if err != nil {
		unwind()
		exe.Close()
		return err
	}
	exe.Close()

	stackptr := newAS.DefineStack(k.Cfg)

	win, stackBase, err := newAS.StackWindow(k.KV, k.Cfg)
	if err != nil {
		unwind()
		return err
	}

	userArgv := make([]uintptr, len(argv))
	sp := stackptr
	for i := len(argv) - 1; i >= 0; i-- {
		s := argv[i]
		n := uintptr(len(s) + 1)
		sp -= n
		off := sp - stackBase
		copy(win[off:off+n-1], s)
		win[off+n-1] = 0
		userArgv[i] = sp
	}

	sp &^= uintptr(ptrSize - 1) // round down to a 4-byte boundary

	sp -= ptrSize
	binary.LittleEndian.PutUint32(win[sp-stackBase:], 0) // argv[argc] = NULL
	for i := len(argv) - 1; i >= 0; i-- {
		sp -= ptrSize
		binary.LittleEndian.PutUint32(win[sp-stackBase:], uint32(userArgv[i]))
	}
	userArgvBase := sp

	if oldAS != nil {
		vm.Destroy(oldAS, k.Frames)
	}

	newAS.CompleteLoad(k.Ipl, k.Tlb)
	k.Tramp.EnterUserMode(len(argv), userArgvBase, sp, entry)
	panic("proc: EnterUserMode returned")
}

/// Exit tears down current's address space, reaps any already-dead
/// children, marks current DEAD with the encoded status, and either
/// self-destructs (parent already gone) or waits as a zombie for its parent
/// to call Waitpid. It never returns.
func (k *Syscalls) Exit(current *Process, code int32) {
	if as := current.AddrSpace(); as != nil {
		current.SetAddrSpace(nil)
		vm.Destroy(as, k.Frames)
	}

	current.cvLock.Lock()
	current.state = DEAD
	current.exitStatus = defs.EncodeWaitStatus(code)
	current.cv.Broadcast()
	current.cvLock.Unlock()

	// Reap any children that already exited (zombies waiting on us), release
	// the rest (still-running children are orphaned: they remain registered
	// in the table under their own pid, just no longer reachable through our
	// child list, which destroy below requires to be empty), and decide
	// whether to self-destruct, all under childrenLock: a parent reaping
	// this same process as a zombie and this process self-destructing
	// because its parent is already gone both resolve to a single
	// destroyOnce call, so exactly one of them actually frees it.
	childrenLock.Lock()
	defer childrenLock.Unlock()

	for _, child := range current.Children() {
		current.removeChild(child)
		if child.State() == DEAD {
			destroyOnce(k.Table, child, k.Frames)
		}
	}

	parent, ok := k.Table.Lookup(current.parentPID)
	if !ok || parent.State() == DEAD {
		destroyOnce(k.Table, current, k.Frames)
	}
	// Otherwise current remains a zombie in the table for its parent's
	// Waitpid to reap.
}

/// Waitpid blocks until the child identified by pid has exited, then
/// returns its pid and releases its record. options must be 0.
func (k *Syscalls) Waitpid(current *Process, pid int32, options int32, status *int32) (int32, error) {
	if options != 0 {
		return 0, defs.EINVAL
	}
	if status == nil {
		return 0, defs.EFAULT
	}

	target, ok := k.Table.Lookup(pid)
	if !ok {
		return 0, defs.ESRCH
	}
	if target.ParentPID() != current.pid {
		return 0, defs.ECHILD
	}

	target.cvLock.Lock()
	for target.state == ALIVE {
		target.cv.Wait()
	}
	*status = target.exitStatus
	target.cvLock.Unlock()

	childrenLock.Lock()
	current.removeChild(target)
	destroyOnce(k.Table, target, k.Frames)
	childrenLock.Unlock()

	return pid, nil
}

/// Getpid returns current's own pid.
func (k *Syscalls) Getpid(current *Process) int32 {
	return current.pid
}
