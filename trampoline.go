package trampoline

import (
	"encoding/binary"
	"runtime"
	"unsafe"
)

// Size is the number of bytes Install overwrites.
const Size = 16

const (
	// LDR (literal), 64-bit variant:
	// -----------------------------------------
	// | 01011000 | imm19 (words) | Rt (5 bits) |
	// -----------------------------------------
	// imm19=2 (8 bytes ahead), Rt=15
	ldrX15Literal = uint32(0x58000000 | 2<<5 | 15)

	// BR:
	// ----------------------------------------------
	// | 1101011000011111000000 | Rn (5 bits) | 00000 |
	// ----------------------------------------------
	// Rn=15
	brX15 = uint32(0xd61f0000 | 15<<5)

	literalOffset = 8
)

// Encode writes a trampoline to dest into buf. buf must be at least Size
// bytes, anything past that is left alone.
func Encode(buf []byte, dest uintptr) {
	_ = buf[Size-1]
	binary.LittleEndian.PutUint32(buf[0:], ldrX15Literal)
	binary.LittleEndian.PutUint32(buf[4:], brX15)
	binary.LittleEndian.PutUint64(buf[literalOffset:], uint64(dest))
}

// Install overwrites the Size bytes at site with a jump to dest and
// invalidates the instruction cache for them.
//
// Nothing is checked. site must point to at least Size bytes of executable
// memory that the platform can make writable (on macOS that means a MAP_JIT
// mapping). Anything else is undefined behavior, usually a crash. No thread
// may execute the site while it is being patched.
func Install(site, dest unsafe.Pointer) {
	code := unsafe.Slice((*byte)(site), Size)
	install(host, code, uintptr(dest))
}

// install runs the whole write protocol against p. Errors from p are ignored:
// if the code couldn't be made writable the write itself will fault. endWrite
// only pairs with a beginWrite that worked, and still runs if the write
// faults.
func install(p platform, code []byte, dest uintptr) {
	// W^X may be per thread, so don't migrate between toggles.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if p.beginWrite(code) == nil {
		defer p.endWrite(code)
	}
	Encode(code, dest)
	p.flushICache(code[:Size])
}
