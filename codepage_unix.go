//go:build unix

package trampoline

import (
	"fmt"
	"unsafe"
)

// CodePage is executable memory outside the Go heap, for machine code that
// isn't a Go function.
type CodePage struct {
	mem []byte
}

// MapCode maps at least size bytes of executable memory. If addr is not zero
// the mapping must land exactly there, or MapCode fails.
func MapCode(addr uintptr, size int) (*CodePage, error) {
	var (
		mem []byte
		err error
	)
	if addr == 0 {
		mem, err = mmapCode(size)
	} else {
		mem, err = mmapAt(addr, size)
	}
	if err != nil {
		return nil, err
	}
	return &CodePage{mem: mem}, nil
}

// Addr returns the start of the page.
func (p *CodePage) Addr() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(p.mem)))
}

// Write copies code into the page at off and flushes the instruction cache.
func (p *CodePage) Write(off int, code []byte) error {
	if off < 0 || off+len(code) > len(p.mem) {
		return fmt.Errorf("write of %d bytes at %d overruns %d byte page", len(code), off, len(p.mem))
	}
	return patchCode(p.mem[off:off+len(code)], func(dst []byte) {
		copy(dst, code)
	})
}

// Unmap releases the page. Nothing may call into it afterwards.
func (p *CodePage) Unmap() error {
	err := munmap(p.mem)
	p.mem = nil
	return err
}
