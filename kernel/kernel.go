// Package kernel is the composition root: it owns the frame allocator, the
// process table, the intersection monitor, and the wired-up process
// syscalls, constructed once by Boot instead of living in package-level
// globals the way biscuit's `var Physmem = &Physmem_t{}` does. Every other
// package in this module takes its collaborators as constructor or method
// arguments; kernel is the only place that actually allocates and threads
// them together.
package kernel

import (
	"github.com/jpark011/BabyOS/mem"
	"github.com/jpark011/BabyOS/proc"
	"github.com/jpark011/BabyOS/trafficsynch"
	"github.com/jpark011/BabyOS/vm"
)

// HardwareCollaborators bundles the HAL-level pieces Boot needs but does not
// implement: the TLB, interrupt-priority-level control, the thread spawner,
// and the user-mode trampoline. Production code supplies real
// board-specific implementations; tests supply fakes.
type HardwareCollaborators struct {
	Tlb     vm.Tlb
	Ipl     vm.Ipl
	Threads proc.ThreadCreator
	Tramp   proc.Trampoline
}

/// Kernel is the single-owner record of every kernel-wide resource: the
/// frame allocator, the process table, the intersection monitor, and the
/// syscall dispatcher built on top of them.
type Kernel struct {
	CoreMap  *mem.CoreMap
	Table    *proc.Table
	Monitor  *trafficsynch.Monitor
	Syscalls proc.Syscalls
	Cfg      Config
}

// Boot bootstraps the core map against probe, wires it and hw's
// collaborators into a Syscalls dispatcher, and returns the assembled
// kernel. This is the single explicit initialization entry point a caller
// runs once at startup; everything downstream receives *Kernel or one of
// its fields by reference rather than reaching for a global.
func Boot(probe mem.RAMProbe, kv mem.KernelVirtualMapper, loader proc.Loader, hw HardwareCollaborators) *Kernel {
	cm := mem.NewCoreMap(probe)
	cm.Bootstrap(probe)
	kprintf("kernel: core map bootstrapped\n")

	table := proc.NewTable()
	monitor := trafficsynch.NewMonitor()
	cfg := DefaultConfig()

	k := &Kernel{
		CoreMap: cm,
		Table:   table,
		Monitor: monitor,
		Cfg:     cfg,
		Syscalls: proc.Syscalls{
			Table:   table,
			Threads: hw.Threads,
			Loader:  loader,
			Tramp:   hw.Tramp,
			Frames:  cm,
			KV:      kv,
			Tlb:     hw.Tlb,
			Ipl:     hw.Ipl,
			Cfg:     cfg,
		},
	}
	kprintf("kernel: boot complete\n")
	return k
}
