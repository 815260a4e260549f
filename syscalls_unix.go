//go:build unix

package trampoline

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	mprotectRX  = unix.PROT_READ | unix.PROT_EXEC
	mprotectRWX = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
)

// pageRegion widens buf to the pages containing it.
func pageRegion(buf []byte) []byte {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))

	pageSize := uintptr(unix.Getpagesize())

	// Round address down to page boundary.
	// Example: addr=4196 with pageSize=4096 becomes 4096.
	pageStart := addr &^ (pageSize - 1)

	// Round up to cover complete pages.
	regionSize := (addr - pageStart + uintptr(len(buf)) + pageSize - 1) &^ (pageSize - 1)

	return unsafe.Slice((*byte)(unsafe.Pointer(pageStart)), regionSize)
}

func mprotect(buf []byte, flags int) error {
	err := unix.Mprotect(pageRegion(buf), flags)
	if err != nil {
		return fmt.Errorf("mprotect %p: %w", unsafe.SliceData(buf), err)
	}
	return nil
}

func roundToPage(size int) int {
	pageSize := unix.Getpagesize()
	return (size + pageSize - 1) / pageSize * pageSize
}

// mmapCode maps anonymous memory that Install can patch.
func mmapCode(size int) ([]byte, error) {
	size = roundToPage(size)

	ptr, err := unix.MmapPtr(-1, 0, nil, uintptr(size), codeProt,
		unix.MAP_PRIVATE|unix.MAP_ANON|codeMapFlags)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	return unsafe.Slice((*byte)(ptr), size), nil
}

// mmapAt is mmapCode at a fixed address. It fails rather than replace an
// existing mapping, or if the OS puts the mapping somewhere else.
func mmapAt(addr uintptr, size int) ([]byte, error) {
	size = roundToPage(size)

	ptr, err := unix.MmapPtr(-1, 0, unsafe.Pointer(addr), uintptr(size), codeProt,
		unix.MAP_PRIVATE|unix.MAP_ANON|_MAP_FIXED_NOREPLACE|codeMapFlags)
	if err != nil {
		return nil, fmt.Errorf("mmap at %#x: %w", addr, err)
	}
	if uintptr(ptr) != addr {
		unix.MunmapPtr(ptr, uintptr(size))
		return nil, fmt.Errorf("mmap at %#x: got %p instead", addr, ptr)
	}

	return unsafe.Slice((*byte)(ptr), size), nil
}

// munmap releases memory from mmapCode or mmapAt. Neither goes through
// unix.Mmap, so unix.Munmap wouldn't know about them.
func munmap(buf []byte) error {
	return unix.MunmapPtr(unsafe.Pointer(unsafe.SliceData(buf)), uintptr(len(buf)))
}
