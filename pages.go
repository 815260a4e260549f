//go:build (unix && !(darwin && arm64)) || windows

package trampoline

import (
	"errors"
	"sync"
	"syscall"
	"unsafe"
)

// writablePages tracks how many writers each page has. mprotect applies to
// every thread, so a page can only go back to RX once the last writer on it
// is done, even if the writers are patching different sites.
type writablePages struct {
	mu      sync.Mutex
	writers map[uintptr]int
}

var writable = &writablePages{writers: map[uintptr]int{}}

// pagesOf returns the start of every page overlapping code.
func pagesOf(code []byte) []uintptr {
	pageSize := uintptr(syscall.Getpagesize())
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(code)))

	var pages []uintptr
	for page := addr &^ (pageSize - 1); page < addr+uintptr(len(code)); page += pageSize {
		pages = append(pages, page)
	}
	return pages
}

func pageSlice(page uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(page)), syscall.Getpagesize())
}

// acquire makes the pages under code writable. On error nothing is held.
func (w *writablePages) acquire(code []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	pages := pagesOf(code)
	for i, page := range pages {
		if w.writers[page] == 0 {
			if err := mprotect(pageSlice(page), mprotectRWX); err != nil {
				w.releaseLocked(pages[:i])
				return err
			}
		}
		w.writers[page]++
	}
	return nil
}

// release undoes acquire.
func (w *writablePages) release(code []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.releaseLocked(pagesOf(code))
}

func (w *writablePages) releaseLocked(pages []uintptr) error {
	var errs []error
	for _, page := range pages {
		w.writers[page]--
		if w.writers[page] > 0 {
			continue
		}
		delete(w.writers, page)
		if err := mprotect(pageSlice(page), mprotectRX); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
