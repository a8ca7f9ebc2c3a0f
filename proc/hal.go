package proc

import (
	"github.com/jpark011/BabyOS/mem"
	"github.com/jpark011/BabyOS/vm"
)

// ThreadCreator, Loader, Executable, and Trampoline are the kernel
// collaborators process syscalls need but do not implement themselves:
// spawning a schedulable thread, opening and reading a program image off
// the file system, and dropping into user mode. Each is a narrow interface
// for the same reason vm.Tlb and vm.Ipl are: the syscall logic stays
// testable against fakes without a real scheduler or VFS underneath it.

/// ThreadCreator spawns a new kernel thread bound to body. The thread is
/// runnable as soon as Fork returns; body never returns on success (it ends
/// by entering user mode or calling runtime.Goexit-equivalent machinery the
/// real scheduler supplies).
type ThreadCreator interface {
	Fork(name string, body func()) error
}

/// Executable is a program image opened by Loader, ready to be laid into a
/// freshly created address space.
type Executable interface {
	// Load defines regions on as, allocates their physical runs, zeroes and
	// fills them from the image, and returns the entry point.
	Load(as *vm.AddrSpace, frames vm.Frames, kv mem.KernelVirtualMapper, cfg vm.Config) (entry uintptr, err error)
	Close() error
}

/// Loader opens a program by path. The default implementation (ELFLoader)
/// reads a MIPS ELF image; tests may supply a fake that hands back canned
/// bytes.
type Loader interface {
	Open(progname string) (Executable, error)
}

/// Trampoline drops a thread into user mode. Neither method returns on
/// success; the thread's next observable state is whatever the user program
/// does with its registers.
type Trampoline interface {
	// EnterUserMode starts a freshly exec'd program.
	EnterUserMode(argc int, argvBase, stackptr, entry uintptr)
	// EnterForkedChild resumes a forked child with its duplicated trapframe,
	// V0 cleared to signal a zero return value.
	EnterForkedChild(tf *TrapFrame)
}
