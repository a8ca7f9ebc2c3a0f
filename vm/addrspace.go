// Package vm implements a per-process address space with two code/data
// regions plus a fixed-size stack, each backed by a contiguous physical run,
// and the fault handler that resolves TLB misses against it. It is shaped
// the way biscuit's vm/as.go shapes an address-space type: a mutex-guarded
// struct whose methods do their own locking.
package vm

import (
	"sync"

	"github.com/jpark011/BabyOS/defs"
	"github.com/jpark011/BabyOS/mem"
	"github.com/jpark011/BabyOS/util"
)

/// region names the two definable regions; stack is not a "region" in the
/// as_define_region sense but shares the same translation machinery.
type region int

const (
	regionNone region = iota
	region1
	region2
	regionStack
)

/// AddrSpace is the per-process virtual address layout. The zero value is
/// not valid; use NewAddrSpace.
type AddrSpace struct {
	mu sync.Mutex

	vbase1, npages1 uintptr
	pbase1          mem.Pa

	vbase2, npages2 uintptr
	pbase2          mem.Pa

	stackPBase mem.Pa

	loaded bool
}

/// NewAddrSpace returns an empty address space with zero regions and
/// loaded=false.
func NewAddrSpace() *AddrSpace {
	return &AddrSpace{}
}

/// DefineRegion rounds vaddr down and size up to page multiples and fills
/// the first empty region slot. It fails when both slots are already taken.
// r, w, and x are accepted but not recorded: this address space does not
// enforce per-region protection (region1+loaded already drives read-only),
// the same deliberate drop dumbvm makes with its own (void)readable;.
func (as *AddrSpace) DefineRegion(vaddr, size uintptr, r, w, x bool, cfg Config) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	size += vaddr - util.Rounddown(vaddr, cfg.PageSize)
	vaddr = util.Rounddown(vaddr, cfg.PageSize)
	size = util.Roundup(size, cfg.PageSize)
	npages := size / cfg.PageSize

	if as.vbase1 == 0 {
		as.vbase1 = vaddr
		as.npages1 = npages
		return nil
	}
	if as.vbase2 == 0 {
		as.vbase2 = vaddr
		as.npages2 = npages
		return nil
	}
	return defs.EINVAL
}

/// PrepareLoad allocates the three physical runs (region 1, region 2, and
/// the stack) via frames. On any OOM it returns an error; prior successful
/// allocations remain for the caller to release with Destroy.
func (as *AddrSpace) PrepareLoad(frames Frames, cfg Config) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.pbase1 != 0 || as.pbase2 != 0 || as.stackPBase != 0 {
		panic("vm: PrepareLoad called on an address space that already owns physical runs")
	}

	if as.npages1 > 0 {
		p1, err := frames.AllocFrames(int(as.npages1))
		if err != nil {
			return defs.ENOMEM
		}
		as.pbase1 = p1
	}

	if as.npages2 > 0 {
		p2, err := frames.AllocFrames(int(as.npages2))
		if err != nil {
			return defs.ENOMEM
		}
		as.pbase2 = p2
	}

	sp, err := frames.AllocFrames(cfg.StackPages)
	if err != nil {
		return defs.ENOMEM
	}
	as.stackPBase = sp

	return nil
}

/// zeroRegion clears npages worth of physical memory starting at pbase via
/// the kernel-virtual alias, matching dumbvm.c's as_zero_region.
func zeroRegion(kv mem.KernelVirtualMapper, pbase mem.Pa, npages int, cfg Config) error {
	buf, err := kv.Kvmap(pbase, npages*int(cfg.PageSize))
	if err != nil {
		return err
	}
	for i := range buf {
		buf[i] = 0
	}
	return nil
}

/// ZeroRegions clears the three physical runs this address space owns. A
/// real loader calls this right after PrepareLoad, before writing ELF
/// segments in; it is split out from PrepareLoad so tests can call
/// PrepareLoad without requiring a KernelVirtualMapper.
func (as *AddrSpace) ZeroRegions(kv mem.KernelVirtualMapper, cfg Config) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if err := zeroRegion(kv, as.pbase1, int(as.npages1), cfg); err != nil {
		return err
	}
	if err := zeroRegion(kv, as.pbase2, int(as.npages2), cfg); err != nil {
		return err
	}
	return zeroRegion(kv, as.stackPBase, cfg.StackPages, cfg)
}

/// CompleteLoad marks the address space loaded (enabling read-only
/// enforcement on region 1) and invalidates the TLB.
func (as *AddrSpace) CompleteLoad(ipl Ipl, tlb Tlb) {
	as.mu.Lock()
	as.loaded = true
	as.mu.Unlock()

	as.Activate(ipl, tlb)
}

/// DefineStack returns the constant USERSTACK the new process's stack
/// pointer should start at.
func (as *AddrSpace) DefineStack(cfg Config) uintptr {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.stackPBase == 0 {
		panic("vm: DefineStack called before PrepareLoad")
	}
	return cfg.UserStack
}

/// Copy creates a new address space with the same region geometry as old,
/// allocates fresh physical runs for it, and byte-copies old's three runs
/// into the new ones via the kernel-virtual alias. The caller is responsible
/// for destroying old afterwards.
func Copy(old *AddrSpace, frames Frames, kv mem.KernelVirtualMapper, cfg Config) (*AddrSpace, error) {
	old.mu.Lock()
	npages1, vbase1 := old.npages1, old.vbase1
	npages2, vbase2 := old.npages2, old.vbase2
	oldPbase1, oldPbase2, oldStack := old.pbase1, old.pbase2, old.stackPBase
	old.mu.Unlock()

	n := &AddrSpace{vbase1: vbase1, npages1: npages1, vbase2: vbase2, npages2: npages2}
	if err := n.PrepareLoad(frames, cfg); err != nil {
		return nil, defs.ENOMEM
	}

	copyRun := func(dst, src mem.Pa, npages int) error {
		size := npages * int(cfg.PageSize)
		s, err := kv.Kvmap(src, size)
		if err != nil {
			return err
		}
		d, err := kv.Kvmap(dst, size)
		if err != nil {
			return err
		}
		copy(d, s)
		return nil
	}

	if err := copyRun(n.pbase1, oldPbase1, int(npages1)); err != nil {
		Destroy(n, frames)
		return nil, err
	}
	if err := copyRun(n.pbase2, oldPbase2, int(npages2)); err != nil {
		Destroy(n, frames)
		return nil, err
	}
	if err := copyRun(n.stackPBase, oldStack, cfg.StackPages); err != nil {
		Destroy(n, frames)
		return nil, err
	}

	return n, nil
}

/// Activate invalidates every TLB entry for the current CPU at raised
/// interrupt priority level.
func (as *AddrSpace) Activate(ipl Ipl, tlb Tlb) {
	prev := ipl.SplHigh()
	tlb.InvalidateAll()
	ipl.Splx(prev)
}

/// Destroy frees all three physical runs (if allocated). The address-space
/// record itself needs no explicit release in Go; callers simply drop their
/// reference after calling Destroy.
func Destroy(as *AddrSpace, frames Frames) {
	as.mu.Lock()
	p1, p2, sp := as.pbase1, as.pbase2, as.stackPBase
	as.pbase1, as.pbase2, as.stackPBase = 0, 0, 0
	as.mu.Unlock()

	if p1 != 0 {
		frames.FreeFrames(p1)
	}
	if p2 != 0 {
		frames.FreeFrames(p2)
	}
	if sp != 0 {
		frames.FreeFrames(sp)
	}
}

/// Translate maps a virtual address to a physical address using the three
/// regions this address space owns. It returns which region the address
/// fell in (for read-only enforcement) and whether the address was in
/// bounds at all.
func (as *AddrSpace) Translate(va uintptr, cfg Config) (mem.Pa, region, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()

	vtop1 := as.vbase1 + as.npages1*cfg.PageSize
	vtop2 := as.vbase2 + as.npages2*cfg.PageSize
	stackBase := cfg.stackBase()

	switch {
	case va >= as.vbase1 && va < vtop1:
		return as.pbase1 + mem.Pa(va-as.vbase1), region1, true
	case va >= as.vbase2 && va < vtop2:
		return as.pbase2 + mem.Pa(va-as.vbase2), region2, true
	case va >= stackBase && va < cfg.UserStack:
		return as.stackPBase + mem.Pa(va-stackBase), regionStack, true
	default:
		return 0, regionNone, false
	}
}

/// Loaded reports whether complete_load has run, enabling read-only
/// enforcement of region 1 in the fault handler.
func (as *AddrSpace) Loaded() bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.loaded
}

/// StackWindow returns the byte slice backing this address space's entire
/// user stack, aliased via the kernel-virtual map, along with the virtual
/// address the window starts at. Because the stack is always exactly
/// STACKPAGES contiguous frames behind a contiguous virtual range, callers
/// can index the window directly with (va - stackBase) instead of
/// translating one page at a time, which is how exec's argv marshalling
/// writes strings and pointers onto the new process's stack.
func (as *AddrSpace) StackWindow(kv mem.KernelVirtualMapper, cfg Config) ([]byte, uintptr, error) {
	as.mu.Lock()
	sp := as.stackPBase
	as.mu.Unlock()

	win, err := kv.Kvmap(sp, cfg.StackPages*int(cfg.PageSize))
	if err != nil {
		return nil, 0, err
	}
	return win, cfg.stackBase(), nil
}
