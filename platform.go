package trampoline

// platform holds the OS services needed to modify code in place. Each build
// supplies one as host.
type platform interface {
	// beginWrite makes code writable for the calling thread. It must not
	// remove execute permission.
	beginWrite(code []byte) error

	// endWrite restores write protection on code.
	endWrite(code []byte) error

	// flushICache invalidates the instruction cache for exactly code.
	flushICache(code []byte)
}
