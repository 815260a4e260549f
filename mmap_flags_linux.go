package trampoline

import "golang.org/x/sys/unix"

// Kernels before 4.17 treat this as a hint, mmapAt checks the result.
const _MAP_FIXED_NOREPLACE = unix.MAP_FIXED_NOREPLACE
