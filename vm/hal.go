package vm

import "github.com/jpark011/BabyOS/mem"

// Tlb, Ipl, and Frames are the hardware/allocator collaborators this package
// needs but does not own: TLB read/write/random and interrupt-priority-level
// control belong to the MIPS HAL, and frame allocation belongs to package
// mem. Both are narrow interfaces rather than concrete imports so vm stays
// testable without a board underneath it, mirroring how biscuit's vm/as.go
// calls mem.Physmem only through its exported methods instead of reaching
// into its lock.

/// Tlb abstracts the MIPS software-managed translation lookaside buffer: a
/// fixed number of slots, each either invalid or holding a (va, pa, dirty)
/// mapping.
type Tlb interface {
	NumSlots() int
	// Read returns the contents of slot i.
	Read(i int) (va uintptr, pa mem.Pa, valid, dirty bool)
	// Write installs a mapping into slot i.
	Write(i int, va uintptr, pa mem.Pa, valid, dirty bool)
	// WriteRandom installs a mapping into a hardware-chosen slot, evicting
	// whatever was there. Used when every slot holds a valid entry.
	WriteRandom(va uintptr, pa mem.Pa, valid, dirty bool)
	// InvalidateAll marks every slot invalid.
	InvalidateAll()
}

/// Ipl abstracts splhigh/splx interrupt priority level control.
type Ipl interface {
	// SplHigh disables interrupts on the current CPU and returns the
	// previous priority level.
	SplHigh() int
	// Splx restores a previously saved priority level.
	Splx(prev int)
}

/// Frames is the narrow view of the frame allocator (package mem) that
/// address spaces need: allocate and free contiguous runs.
type Frames interface {
	AllocFrames(n int) (mem.Pa, error)
	FreeFrames(addr mem.Pa)
}
