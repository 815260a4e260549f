//go:build unix && !(darwin && arm64)

package trampoline

import "github.com/pboyd/malloc"

const (
	codeProt     = mprotectRX
	codeMapFlags = 0
)

// W^X is per process here, see writablePages.
var threadWriteProtect func(enabled bool)

const canPatchText = true

// mprotectPlatform relaxes W^X by remapping the pages around the code as RWX.
// Unlike the JIT toggle on macOS this applies to every thread in the process.
type mprotectPlatform struct{}

var host platform = mprotectPlatform{}

func (mprotectPlatform) beginWrite(code []byte) error {
	return writable.acquire(code)
}

func (mprotectPlatform) endWrite(code []byte) error {
	return writable.release(code)
}

func (mprotectPlatform) flushICache(code []byte) {
	cacheflush(code)
}

func arenaProtect(be any) func(int) error {
	if protBE, ok := be.(malloc.ProtectedArenaBackend); ok {
		return protBE.Protect
	}
	return func(int) error {
		return nil
	}
}
