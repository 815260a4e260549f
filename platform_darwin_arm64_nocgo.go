//go:build darwin && arm64 && !cgo

package trampoline

// pthread_jit_write_protect_np and sys_icache_invalidate are only reachable
// through cgo. Install a C compiler and build with CGO_ENABLED=1.
var host platform = darwin_arm64_requires_cgo_for_jit_write_protection()
