// Package mem implements the physical frame allocator: the "core map"
// bookkeeping structure that tracks which physical frames are free and which
// belong to a contiguous allocation run.
package mem

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/jpark011/BabyOS/defs"
	"github.com/jpark011/BabyOS/util"
)

/// PageSize is the size in bytes of a single physical frame.
const PageSize = 4096

/// Pa is a physical address. It is a distinct type from any virtual address
/// so the two can never be confused at the type level.
type Pa uintptr

/// RAMProbe reports the free physical window available to the kernel after
/// its own image, and provides a raw bump allocator usable before the core
/// map exists (mirroring OS/161's ram_stealmem). Production code supplies a
/// real implementation backed by firmware memory maps; tests supply
/// SimMemory.
type RAMProbe interface {
	// Window returns the free physical range [lo, hi) after the kernel image.
	Window() (lo, hi Pa)
	// StealMem bump-allocates n contiguous frames before the core map is
	// ready. It never returns frames it has already handed out.
	StealMem(n int) (Pa, error)
}

/// KernelVirtualMapper is the typed kvmap(paddr) -> &[]byte operation: the
/// fixed-offset direct map from a physical address to kernel-addressable
/// memory. It asserts the address lies in the managed window.
type KernelVirtualMapper interface {
	Kvmap(p Pa, n int) ([]byte, error)
}

type frame struct {
	runLen int // 0 if free; otherwise the length of the run this frame belongs to
}

/// CoreMap is the process-wide physical frame allocator, tracking each
/// frame's membership in a free or allocated run. A zero CoreMap is not
/// usable; construct one with NewCoreMap.
type CoreMap struct {
	mu sync.Mutex // stealmem_lock: serializes AllocFrames and FreeFrames

	probe RAMProbe

	base   Pa
	n      int
	frames []frame
	ready  bool

	oomCount int64 // atomic: number of AllocFrames calls that returned ENOMEM
}

/// CoreMapStats summarizes allocator state for diagnostics.
type CoreMapStats struct {
	Base        Pa
	TotalFrames int
	FreeFrames  int
	OOMCount    int64
}

/// NewCoreMap returns a CoreMap that falls through to probe's raw bump
/// allocator until Bootstrap is called.
func NewCoreMap(probe RAMProbe) *CoreMap {
	return &CoreMap{probe: probe}
}

/// Bootstrap reads the free RAM window from the RAM probe, reserves space
/// for the frames[] bookkeeping array at the low end of that window, and
/// brings the core map online. It is idempotent only in the sense that
/// calling it twice recomputes the same layout from the same probe; callers
/// must call it exactly once during boot.
func (c *CoreMap) Bootstrap(probe RAMProbe) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.probe = probe
	lo, hi := probe.Window()

	// Estimate how many frames the window could hold including the
	// bookkeeping array itself, then shrink lo past the array and round up
	// to a page boundary, exactly as the spec describes.
	recSize := Pa(unsafe.Sizeof(frame{}))
	nInitial := int((hi - lo) / PageSize)
	arrayBytes := Pa(nInitial) * recSize
	lo += arrayBytes
	base := util.Roundup(uintptr(lo), uintptr(PageSize))

	c.base = Pa(base)
	c.n = int((hi - c.base) / PageSize)
	if c.n < 0 {
		c.n = 0
	}
	c.frames = make([]frame, c.n)
	c.ready = true
}

/// AllocFrames returns the physical base of a contiguous run of n free
/// frames, marking them allocated with run length n. It reports ENOMEM if no
/// such run exists. Before Bootstrap has run, it falls through to the RAM
/// probe's raw bump allocator.
func (c *CoreMap) AllocFrames(n int) (Pa, error) {
	if n <= 0 {
		return 0, defs.EINVAL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		addr, err := c.probe.StealMem(n)
		if err != nil {
			atomic.AddInt64(&c.oomCount, 1)
			return 0, defs.ENOMEM
		}
		return addr, nil
	}

	for i := 0; i+n <= c.n; {
		if c.frames[i].runLen != 0 {
			i++
			continue
		}
		fits := true
		for j := 1; j < n; j++ {
			if c.frames[i+j].runLen != 0 {
				i += j + 1
				fits = false
				break
			}
		}
		if !fits {
			continue
		}
		for j := 0; j < n; j++ {
			c.frames[i+j].runLen = n
		}
		return c.base + Pa(i*PageSize), nil
	}

	atomic.AddInt64(&c.oomCount, 1)
	return 0, defs.ENOMEM
}

/// FreeFrames releases the run originally allocated at addr, which must be
/// the run's base address — the same address AllocFrames returned, never a
/// frame partway through the run. Freeing a base that does not belong to
/// any live run is a logged no-op; it never frees a suffix of a run.
func (c *CoreMap) FreeFrames(addr Pa) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready || addr < c.base {
		return
	}
	idx := int((addr - c.base) / PageSize)
	// Walk run starts from frame 0 so an address inside a run is not
	// mistaken for the start of one.
	start := 0
	for start < idx && start < c.n {
		if c.frames[start].runLen == 0 {
			start++
		} else {
			start += c.frames[start].runLen
		}
	}
	if idx < 0 || idx >= c.n || start != idx || c.frames[idx].runLen == 0 {
		kprintf("mem: free_frames: address %#x does not begin a live run\n", uintptr(addr))
		return
	}
	run := c.frames[idx].runLen
	for j := 0; j < run; j++ {
		c.frames[idx+j].runLen = 0
	}
}

/// Stats returns a snapshot of allocator occupancy.
func (c *CoreMap) Stats() CoreMapStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	free := 0
	for _, f := range c.frames {
		if f.runLen == 0 {
			free++
		}
	}
	return CoreMapStats{
		Base:        c.base,
		TotalFrames: c.n,
		FreeFrames:  free,
		OOMCount:    atomic.LoadInt64(&c.oomCount),
	}
}
