//go:build windows

package trampoline

import "github.com/pboyd/malloc"

const (
	codeProt     = mprotectRX
	codeMapFlags = 0
)

// W^X is per process here, see writablePages.
var threadWriteProtect func(enabled bool)

const canPatchText = true

type virtualProtectPlatform struct{}

var host platform = virtualProtectPlatform{}

func (virtualProtectPlatform) beginWrite(code []byte) error {
	return writable.acquire(code)
}

func (virtualProtectPlatform) endWrite(code []byte) error {
	return writable.release(code)
}

func (virtualProtectPlatform) flushICache(code []byte) {
	flushInstructionCache(code)
}

func arenaProtect(be any) func(int) error {
	if protBE, ok := be.(malloc.ProtectedArenaBackend); ok {
		return protBE.Protect
	}
	return func(int) error {
		return nil
	}
}
