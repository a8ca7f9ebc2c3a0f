package vm

/// Config carries the address-space geometry constants: the page size, the
/// fixed user-stack size and address, the number of hardware TLB slots, and
/// the maximum number of definable regions. A single Config value is
/// threaded through every vm operation instead of being read from
/// package-level globals, so the same code can run multiple geometries
/// side by side in tests.
type Config struct {
	PageSize   uintptr
	StackPages int
	UserStack  uintptr
	NumTLB     int
	MaxRegions int
}

/// DefaultConfig returns the standard geometry: 12 stack pages ending at a
/// fixed USERSTACK, and at most two definable regions.
func DefaultConfig() Config {
	return Config{
		PageSize:   4096,
		StackPages: 12,
		UserStack:  0x80000000,
		NumTLB:     64,
		MaxRegions: 2,
	}
}

func (c Config) stackBase() uintptr {
	return c.UserStack - uintptr(c.StackPages)*c.PageSize
}
