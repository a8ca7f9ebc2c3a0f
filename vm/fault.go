package vm

import (
	"errors"

	"github.com/jpark011/BabyOS/defs"
	"github.com/jpark011/BabyOS/util"
)

/// FaultKind classifies a VM fault trap, matching the MIPS fault types
/// dumbvm.c's vm_fault switches on.
type FaultKind int

const (
	FaultRead FaultKind = iota
	FaultWrite
	FaultReadOnly
	FaultOther
)

/// ErrReadOnlyViolation is returned by Fault when a write lands on a page
/// the address space has marked read-only after load. The syscall layer
/// translates this into terminating the offending process with a non-zero
/// status; Fault itself never panics and never touches other processes.
var ErrReadOnlyViolation = errors.New("vm: read-only violation")

/// Fault resolves a page fault: translate va through as, install a TLB
/// entry for it, and enforce read-only for region 1 once the address space
/// has finished loading. It fills the first invalid TLB slot it finds, or
/// falls back to hardware random replacement when every slot already holds
/// a valid entry.
func Fault(as *AddrSpace, kind FaultKind, va uintptr, cfg Config, tlb Tlb, ipl Ipl) error {
	switch kind {
	case FaultReadOnly:
		return ErrReadOnlyViolation
	case FaultRead, FaultWrite:
		// fall through to translation below
	default:
		return defs.EINVAL
	}

	va = util.Rounddown(va, cfg.PageSize)

	if as == nil {
		// No process, or no address space installed: almost certainly a
		// kernel fault early in boot. Return EFAULT so the caller panics
		// instead of looping on the same fault forever.
		return defs.EFAULT
	}

	pa, reg, ok := as.Translate(va, cfg)
	if !ok {
		return defs.EFAULT
	}

	readOnly := reg == region1 && as.Loaded()

	prev := ipl.SplHigh()
	defer ipl.Splx(prev)

	for i := 0; i < tlb.NumSlots(); i++ {
		_, _, valid, _ := tlb.Read(i)
		if valid {
			continue
		}
		tlb.Write(i, va, pa, true, !readOnly)
		return nil
	}

	// Every slot holds a valid entry: fall back to hardware random
	// replacement rather than the original dumbvm.c's panic.
	tlb.WriteRandom(va, pa, true, !readOnly)
	return nil
}
