package kernel

import "github.com/jpark011/BabyOS/vm"

// Config is the kernel's geometry configuration. It is an alias for
// vm.Config rather than a second struct: vm.AddrSpace and vm.Fault are the
// packages that actually consume every field, so vm hosts the canonical
// definition and kernel re-exports it as the single tunables type a caller
// of Boot needs to know about, the way biscuit's limits.Syslimit_t is built
// once and read by every package that needs a limit.
type Config = vm.Config

/// DefaultConfig returns the kernel's standard geometry.
func DefaultConfig() Config {
	return vm.DefaultConfig()
}
