// Install absolute jumps into ARM64 machine code
//
// A trampoline is 16 bytes written over existing code:
//
//	ldr x15, #8     ; 4F 00 00 58
//	br  x15         ; E0 01 1F D6
//	.quad dest      ; 8 byte little endian literal
//
// Unlike B, which reaches only 128MiB either way, the literal load can jump
// anywhere in the address space. The cost is 16 bytes instead of 4 and the
// X15 register, which is clobbered on every pass through the trampoline.
//
// Install is the raw primitive. It does no checking at all and a bad address
// will crash the process. Func, Method and Restore wrap it for Go functions
// and report errors instead. NewStub builds a redirectable function in freshly
// allocated executable memory, and NewStubTo does the same for machine code
// that isn't a Go function, such as a CodePage.
//
// Limitations:
//   - Only the A64 instruction set is supported
//   - Patching code that another thread is executing is a race the caller
//     has to prevent
//   - On macOS only MAP_JIT memory can be patched, so Func and Method return
//     ErrTextReadOnly there while stubs still work
//   - Elsewhere write access is granted with mprotect, which affects the whole
//     page for every thread until the last writer on it is done
//   - Go functions with 16 or more integer argument words pass one of them in
//     X15, so Func, Method and NewStub reject them with ErrTooManyArgs
package trampoline
