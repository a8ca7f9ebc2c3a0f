package kernel

import "fmt"

// Verbose gates kprintf the way the original kernel's DEBUG(DB_VM, ...) macro
// gates its diagnostic output: off by default, flipped on by whoever is
// debugging a boot or a test failure.
var Verbose = false

// kprintf is the kernel's only diagnostic output path: plain, unbuffered,
// gated by Verbose. A frozen-at-build kernel has nowhere to ship structured
// logs to.
func kprintf(format string, a ...any) {
	if !Verbose {
		return
	}
	fmt.Printf(format, a...)
}
