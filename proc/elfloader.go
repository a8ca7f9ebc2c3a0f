package proc

import (
	"bytes"
	"debug/elf"
	"fmt"
	"io"
	"sync"

	"github.com/jpark011/BabyOS/mem"
	"github.com/jpark011/BabyOS/vm"
)

// ELFLoader is the default Loader: it parses a MIPS ELF image's program
// headers the way biscuit's chentry.go parses an x86-64 one (elf.NewFile,
// then check the header fields before trusting anything), and lays the
// PT_LOAD segments into an address space's two regions. Since file-system
// access is an external collaborator this module does not implement, images
// are registered by path in memory ahead of time rather than read off a
// disk; this is the in-memory double the test suite and sample programs use.
type ELFLoader struct {
	mu     sync.Mutex
	images map[string][]byte
}

/// NewELFLoader returns a loader with no registered images.
func NewELFLoader() *ELFLoader {
	return &ELFLoader{images: make(map[string][]byte)}
}

/// Register makes image available under path for a later Open.
func (l *ELFLoader) Register(path string, image []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.images[path] = image
}

/// Open looks up progname among the registered images and parses it as a
/// MIPS ELF executable.
func (l *ELFLoader) Open(progname string) (Executable, error) {
	l.mu.Lock()
	data, ok := l.images[progname]
	l.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("proc: no such program %q", progname)
	}

	ef, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("proc: %q: %w", progname, err)
	}
	if err := checkMipsExec(&ef.FileHeader); err != nil {
		return nil, fmt.Errorf("proc: %q: %w", progname, err)
	}

	return &elfExecutable{f: ef}, nil
}

// checkMipsExec checks the parsed header; elf.NewFile has already rejected
// an image whose magic number is not ELF.
func checkMipsExec(eh *elf.FileHeader) error {
	if eh.Type != elf.ET_EXEC {
		return fmt.Errorf("not an executable ELF file")
	}
	if eh.Machine != elf.EM_MIPS {
		return fmt.Errorf("not a MIPS binary")
	}
	return nil
}

type elfExecutable struct {
	f *elf.File
}

/// Load defines one region per loadable ELF segment (in practice the first
/// PT_LOAD is the read/execute text segment and the second is the
/// read/write data segment, matching the two-region address-space model),
/// allocates and zeroes their physical runs, and copies each segment's file
/// bytes in.
func (e *elfExecutable) Load(as *vm.AddrSpace, frames vm.Frames, kv mem.KernelVirtualMapper, cfg vm.Config) (uintptr, error) {
	var loads []*elf.Prog
	for _, p := range e.f.Progs {
		if p.Type == elf.PT_LOAD {
			loads = append(loads, p)
		}
	}
	if len(loads) == 0 || len(loads) > int(cfg.MaxRegions) {
		return 0, fmt.Errorf("proc: expected 1-%d PT_LOAD segments, found %d", cfg.MaxRegions, len(loads))
	}

	for _, p := range loads {
		r := p.Flags&elf.PF_R != 0
		w := p.Flags&elf.PF_W != 0
		x := p.Flags&elf.PF_X != 0
		if err := as.DefineRegion(uintptr(p.Vaddr), uintptr(p.Memsz), r, w, x, cfg); err != nil {
			return 0, err
		}
	}

	if err := as.PrepareLoad(frames, cfg); err != nil {
		return 0, err
	}
	if err := as.ZeroRegions(kv, cfg); err != nil {
		return 0, err
	}

	for _, p := range loads {
		pa, _, ok := as.Translate(uintptr(p.Vaddr), cfg)
		if !ok {
			return 0, fmt.Errorf("proc: segment at 0x%x did not translate after DefineRegion", p.Vaddr)
		}
		buf, err := kv.Kvmap(pa, int(p.Memsz))
		if err != nil {
			return 0, err
		}
		seg := p.Open()
		if _, err := io.ReadFull(seg, buf[:p.Filesz]); err != nil && err != io.EOF {
			return 0, err
		}
	}

	return uintptr(e.f.Entry), nil
}

func (e *elfExecutable) Close() error {
	return e.f.Close()
}
