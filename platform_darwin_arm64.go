//go:build darwin && arm64 && cgo

package trampoline

/*
#include <pthread.h>
#include <libkern/OSCacheControl.h>

static void jit_write_protect(int enabled) {
	pthread_jit_write_protect_np(enabled);
}

static void icache_invalidate(void *start, size_t len) {
	sys_icache_invalidate(start, len);
}
*/
import "C"

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// MAP_JIT pages are mapped RWX once and W^X is enforced per thread with
// pthread_jit_write_protect_np.
const (
	codeProt     = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC
	codeMapFlags = unix.MAP_JIT
)

// threadWriteProtect flips W^X for MAP_JIT pages on the calling thread only.
var threadWriteProtect = func(enabled bool) {
	if enabled {
		C.jit_write_protect(1)
	} else {
		C.jit_write_protect(0)
	}
}

// Hardened runtime text isn't MAP_JIT, so it can't be made writable.
const canPatchText = false

type jitPlatform struct{}

var host platform = jitPlatform{}

// The toggle is per thread and doesn't depend on the address, so code is
// ignored.
func (jitPlatform) beginWrite(code []byte) error {
	C.jit_write_protect(0)
	return nil
}

func (jitPlatform) endWrite(code []byte) error {
	C.jit_write_protect(1)
	return nil
}

func (jitPlatform) flushICache(code []byte) {
	C.icache_invalidate(unsafe.Pointer(unsafe.SliceData(code)), C.size_t(len(code)))
}

// The arena is MAP_JIT, so threadWriteProtect covers it.
func arenaProtect(any) func(int) error {
	return func(int) error {
		return nil
	}
}
