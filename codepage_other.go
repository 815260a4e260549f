//go:build !unix

package trampoline

import (
	"errors"
	"runtime"
)

// CodePage is executable memory outside the Go heap. Only unix can map one.
type CodePage struct{}

// MapCode always fails on this OS.
func MapCode(addr uintptr, size int) (*CodePage, error) {
	return nil, errors.New("mapping code pages is not supported on " + runtime.GOOS)
}

func (p *CodePage) Addr() uintptr { return 0 }

func (p *CodePage) Write(off int, code []byte) error {
	return errors.New("mapping code pages is not supported on " + runtime.GOOS)
}

func (p *CodePage) Unmap() error { return nil }
