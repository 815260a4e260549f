package trampoline

import (
	"fmt"
	"reflect"
	"runtime"
	"unsafe"
)

// Stub is a trampoline in its own freshly allocated memory. Calling Func jumps
// to the stub's current target, so it works like a function pointer that can
// be changed without touching the code that calls it.
type Stub[T any] struct {
	Func T

	// The data for this slice is allocated in the mmap page and managed by
	// stubArena. Keep a reference in order to free it.
	code []byte
	ref  **byte
}

// NewStub allocates a stub that jumps to fn.
//
// fn must not capture variables. The stub passes its own address as the
// closure context, not fn's.
func NewStub[T any](fn T) (*Stub[T], error) {
	dest, err := funcEntry(fn)
	if err != nil {
		return nil, err
	}
	return newStub[T](dest)
}

// NewStubTo allocates a stub that jumps to the machine code at dest, which
// doesn't have to be a Go function. T must be a func type matching the code's
// calling convention.
func NewStubTo[T any](dest uintptr) (*Stub[T], error) {
	if kind := reflect.TypeFor[T]().Kind(); kind != reflect.Func {
		return nil, fmt.Errorf("not a function, kind: %v", kind)
	}
	return newStub[T](dest)
}

func newStub[T any](dest uintptr) (*Stub[T], error) {
	if clobbersArgs(reflect.TypeFor[T]()) {
		return nil, ErrTooManyArgs
	}
	if runtime.GOARCH != "arm64" {
		return nil, ErrUnsupportedArch
	}

	stubArena.beginMutate()
	code, err := stubArena.allocate(Size)
	if err == nil {
		// Nothing has seen the new memory yet, so nothing can be running it.
		stubArena.write(code, dest)
	}
	stubArena.endMutate()
	if err != nil {
		return nil, fmt.Errorf("allocating stub: %w", err)
	}

	// A func value is a pointer to a word holding the code address. Point
	// Func at a word holding the stub's address.
	codeData := unsafe.SliceData(code)
	s := Stub[T]{
		code: code,
		// Keep a reference to codeData so it stays around.
		ref: &codeData,
	}
	s.Func = *(*T)(unsafe.Pointer(&s.ref))

	return &s, nil
}

// Entry returns the address of the stub's code.
func (s *Stub[T]) Entry() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(s.code)))
}

// Code returns a copy of the stub's current code.
func (s *Stub[T]) Code() []byte {
	return append([]byte(nil), s.code...)
}

// Retarget points the stub at fn. The caller must make sure no goroutine is
// calling Func at the same time.
func (s *Stub[T]) Retarget(fn T) error {
	dest, err := funcEntry(fn)
	if err != nil {
		return err
	}
	stubArena.beginMutate()
	defer stubArena.endMutate()

	stubArena.write(s.code, dest)
	return nil
}

// Free releases the stub's memory. Func must not be called afterwards.
func (s *Stub[T]) Free() {
	stubArena.beginMutate()
	defer stubArena.endMutate()

	stubArena.free(s.code)

	s.code = nil
	*s.ref = nil
	s.ref = nil
}

func funcEntry(fn any) (uintptr, error) {
	fnv := reflect.ValueOf(fn)
	if fnv.Kind() != reflect.Func {
		return 0, fmt.Errorf("not a function, kind: %v", fnv.Kind())
	}
	if fnv.IsNil() {
		return 0, fmt.Errorf("nil function")
	}
	return fnv.Pointer(), nil
}
