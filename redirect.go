package trampoline

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"runtime/debug"
	"sync"
	"unsafe"
)

var (
	// ErrUnsupportedArch is returned when the trampoline can't run on
	// GOARCH.
	ErrUnsupportedArch = errors.New("trampolines require arm64")

	// ErrTooSmall is returned when a function has less than Size bytes of
	// code to overwrite.
	ErrTooSmall = errors.New("function too small for trampoline")

	// ErrMisaligned is returned when a patch site isn't on an instruction
	// boundary.
	ErrMisaligned = errors.New("patch site not 4 byte aligned")

	// ErrNotRedirected is returned by Restore for functions that were never
	// redirected.
	ErrNotRedirected = errors.New("function was not redirected")

	// ErrTooManyArgs is returned for functions that take an argument in
	// X15, which the trampoline uses for its target.
	ErrTooManyArgs = errors.New("function takes 16 or more integer argument words")

	// ErrTextReadOnly is returned where the OS won't let the program's own
	// code be written, such as macOS on Apple silicon. Stubs still work
	// there.
	ErrTextReadOnly = errors.New("program text can't be made writable on this OS")
)

// FaultError reports a memory fault while writing a trampoline.
type FaultError struct {
	Addr uintptr
	Err  error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault at %#x writing trampoline: %v", e.Addr, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}

var (
	mu sync.Mutex

	// Original code for every redirected function, keyed by entry address.
	redirected = map[uintptr]*[Size]byte{}
)

// Func redirects fn to newFn. An error will be returned if fn or newFn are
// not function pointers or if their signatures do not match.
//
// Note that if fn has been inlined this will silently fail. If possible, add a
// noinline directive to work-around this problem:
//
//	//go:noinline
//	func myfunc() {
//		...
//	}
func Func(fn, newFn any) error {
	return redirect(fn, newFn, 0)
}

// Method redirects the method expression fn to newFn. Like Func, except the
// receiver types may differ.
func Method(fn, newFn any) error {
	return redirect(fn, newFn, 1)
}

// Restore puts back the code fn had before Func or Method.
func Restore(fn any) error {
	fnv := reflect.ValueOf(fn)
	if fnv.Kind() != reflect.Func {
		return fmt.Errorf("not a function, kind: %v", fnv.Kind())
	}

	mu.Lock()
	defer mu.Unlock()

	original, ok := redirected[fnv.Pointer()]
	if !ok {
		return ErrNotRedirected
	}

	code := unsafe.Slice((*byte)(unsafe.Pointer(fnv.Pointer())), Size)
	err := patchCode(code, func(code []byte) {
		copy(code, original[:])
	})
	if err != nil {
		return err
	}

	delete(redirected, fnv.Pointer())
	return nil
}

func redirect(fn, newFn any, skipIn int) error {
	fnv := reflect.ValueOf(fn)
	if fnv.Kind() != reflect.Func {
		return fmt.Errorf("not a function, kind: %v", fnv.Kind())
	}
	newFnv := reflect.ValueOf(newFn)
	if newFnv.Kind() != reflect.Func {
		return fmt.Errorf("not a function, kind: %v", newFnv.Kind())
	}
	if fnv.IsNil() || newFnv.IsNil() {
		return errors.New("nil function")
	}
	if err := diffFuncs(fnv.Type(), newFnv.Type(), skipIn); err != nil {
		return fmt.Errorf("function signatures do not match: %w", err)
	}
	if clobbersArgs(fnv.Type()) {
		return ErrTooManyArgs
	}
	if runtime.GOARCH != "arm64" {
		return ErrUnsupportedArch
	}
	if !canPatchText {
		return ErrTextReadOnly
	}

	code, err := funcSlice(fnv)
	if err != nil {
		return err
	}
	if uintptr(unsafe.Pointer(unsafe.SliceData(code)))&3 != 0 {
		return ErrMisaligned
	}
	if len(code) < Size {
		return fmt.Errorf("%w: %d bytes", ErrTooSmall, len(code))
	}
	code = code[:Size]

	mu.Lock()
	defer mu.Unlock()

	_, wasRedirected := redirected[fnv.Pointer()]
	if !wasRedirected {
		var original [Size]byte
		copy(original[:], code)
		redirected[fnv.Pointer()] = &original
	}

	dest := newFnv.Pointer()
	err = patchCode(code, func(code []byte) {
		Encode(code, dest)
	})
	if err != nil && !wasRedirected {
		delete(redirected, fnv.Pointer())
	}
	return err
}

// patchCode is install with error checking. It stops if code can't be made
// writable, and turns a fault during the write into a *FaultError.
func patchCode(code []byte, write func([]byte)) (err error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := host.beginWrite(code); err != nil {
		return err
	}
	defer func() {
		endErr := host.endWrite(code)
		if err == nil {
			err = endErr
		}
	}()

	defer debug.SetPanicOnFault(debug.SetPanicOnFault(true))
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fault, ok := r.(interface{ Addr() uintptr })
		if !ok {
			panic(r)
		}
		err = &FaultError{Addr: fault.Addr(), Err: r.(error)}
	}()

	write(code)
	host.flushICache(code)
	return nil
}

// funcSlice returns the code of fn, from its entry up to the next function.
func funcSlice(fn reflect.Value) ([]byte, error) {
	entry := fn.Pointer()

	info := findfunc(entry)
	if info._func == nil {
		return nil, fmt.Errorf("no function found at %#x", entry)
	}

	// To find the length, look at the offsets of every function and find
	// the one that comes immediately after this one.
	funcOffset := uint32(entry - info.datap.text)
	length := uint32(info.datap.etext - entry)

	for _, ft := range info.datap.ftab {
		// Does this function come before the one we're looking for?
		if ft.entryoff <= funcOffset {
			continue
		}

		// Is the distance between these two functions less than what we've seen before?
		testLength := ft.entryoff - funcOffset
		if testLength < length {
			length = testLength
		}
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(entry)), length), nil
}
