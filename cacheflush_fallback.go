//go:build !arm64

package trampoline

// Instruction caches are coherent with stores on amd64 and friends. The
// trampoline can't run there anyway, but writing one should still work.
func cacheflush(buf []byte) {}
