package mem

import "github.com/jpark011/BabyOS/defs"

/// SimMemory is an in-process physical RAM simulator. It implements both
/// RAMProbe and KernelVirtualMapper over a single backing byte slice,
/// standing in for the real firmware memory map and direct-mapped window a
/// production kernel would have. It is the default collaborator used by this
/// module's tests and by kernel.Boot's demo wiring.
type SimMemory struct {
	backing []byte
	used    Pa // bump pointer for StealMem, measured from the start of backing
}

/// NewSimMemory allocates a simulated RAM window of size bytes starting at
/// physical address 0.
func NewSimMemory(size int) *SimMemory {
	return &SimMemory{backing: make([]byte, size)}
}

/// Window reports the entire backing array as free RAM, as if it all sat
/// past the kernel image.
func (s *SimMemory) Window() (lo, hi Pa) {
	return 0, Pa(len(s.backing))
}

/// StealMem bump-allocates n frames from the front of the window.
func (s *SimMemory) StealMem(n int) (Pa, error) {
	need := Pa(n * PageSize)
	if s.used+need > Pa(len(s.backing)) {
		return 0, defs.ENOMEM
	}
	addr := s.used
	s.used += need
	return addr, nil
}

/// Kvmap returns the n-byte window of backing memory starting at physical
/// address p, asserting it lies within the simulated window.
func (s *SimMemory) Kvmap(p Pa, n int) ([]byte, error) {
	if int(p)+n > len(s.backing) {
		return nil, defs.EFAULT
	}
	return s.backing[p : int(p)+n], nil
}
