//go:build windows

package trampoline

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	mprotectRX  = windows.PAGE_EXECUTE_READ
	mprotectRWX = windows.PAGE_EXECUTE_READWRITE
)

var procFlushInstructionCache = windows.NewLazySystemDLL("kernel32.dll").NewProc("FlushInstructionCache")

func mprotect(buf []byte, flags int) error {
	pageSize := syscall.Getpagesize()

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))

	// Round address down to page boundary.
	pageStart := addr &^ (uintptr(pageSize) - 1)

	// Round up to cover complete pages.
	regionSize := (int(addr-pageStart) + len(buf) + pageSize - 1) &^ (pageSize - 1)

	var oldFlags uint32
	err := windows.VirtualProtect(pageStart, uintptr(regionSize), uint32(flags), &oldFlags)
	if err != nil {
		return fmt.Errorf("VirtualProtect %#x: %w", addr, err)
	}
	return nil
}

// flushInstructionCache ignores the result, like sys_icache_invalidate on
// macOS.
func flushInstructionCache(buf []byte) {
	procFlushInstructionCache.Call(
		uintptr(windows.CurrentProcess()),
		uintptr(unsafe.Pointer(unsafe.SliceData(buf))),
		uintptr(len(buf)),
	)
}
