package trampoline

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/pboyd/malloc"
)

// codeArena hands out executable memory for stubs. The arena is only
// writable between beginMutate and endMutate, and only one goroutine can be
// in that window at a time. Stub code is written inside the window too, so
// nothing else changes the protection of arena pages.
type codeArena struct {
	*malloc.Arena
	protect  func(int) error
	mu       sync.Mutex
	initOnce sync.Once
	mutable  bool
}

func (a *codeArena) init(startSize int) error {
	var err error
	a.initOnce.Do(func() {
		be := malloc.MmapBackend(malloc.MmapProt(codeProt), malloc.MmapFlags(codeMapFlags))
		a.protect = arenaProtect(be)

		a.Arena = malloc.NewArena(uint64(startSize), malloc.Backend(be))
		if a.Arena == nil {
			err = errors.New("unable to initialize arena")
			return
		}
		a.mutable = true
	})
	return err
}

// beginMutate makes the arena writable and holds it until endMutate. The
// calling goroutine also stays on its thread, since threadWriteProtect is
// per thread.
func (a *codeArena) beginMutate() error {
	a.mu.Lock()
	runtime.LockOSThread()

	// A per thread toggle has to be relaxed on every entry, including the
	// one before the arena is initialized.
	if threadWriteProtect != nil {
		threadWriteProtect(false)
		return nil
	}

	// Note that beginMutate can be called before the initial allocation.
	if a.protect == nil || a.mutable {
		return nil
	}

	err := a.protect(mprotectRWX)
	if err == nil {
		a.mutable = true
	}
	return err
}

func (a *codeArena) endMutate() error {
	defer a.mu.Unlock()
	defer runtime.UnlockOSThread()

	if threadWriteProtect != nil {
		threadWriteProtect(true)
		return nil
	}

	if a.protect == nil || !a.mutable {
		return nil
	}

	err := a.protect(mprotectRX)
	if err == nil {
		a.mutable = false
	}
	return err
}

// allocate must be called between beginMutate and endMutate.
func (a *codeArena) allocate(size int) ([]byte, error) {
	err := a.init(size)
	if err != nil {
		return nil, fmt.Errorf("error initializing code arena: %w", err)
	}

	if threadWriteProtect == nil && !a.mutable {
		panic("allocate called in immutable state")
	}

	return malloc.MallocSlice[byte](a.Arena, size)
}

// free must be called between beginMutate and endMutate.
func (a *codeArena) free(buf []byte) {
	if threadWriteProtect == nil && !a.mutable {
		panic("free called in immutable state")
	}

	malloc.FreeSlice(a.Arena, buf)
}

// write puts a trampoline to dest in code, which must come from allocate.
// The arena is already writable, so only the cache needs attention.
func (a *codeArena) write(code []byte, dest uintptr) {
	Encode(code, dest)
	host.flushICache(code[:Size])
}

var stubArena = &codeArena{}
