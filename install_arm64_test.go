//go:build arm64 && unix

package trampoline

import (
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// movz x0, #1; ret
var returnOne = []uint32{0xd2800020, 0xd65f03c0}

func writeInstructions(t *testing.T, code []byte, insts []uint32) {
	t.Helper()
	require.NoError(t, patchCode(code[:4*len(insts)], func(code []byte) {
		for i, inst := range insts {
			binary.LittleEndian.PutUint32(code[4*i:], inst)
		}
	}))
}

// asFunc makes a func value that calls code.
func asFunc[T any](code []byte) T {
	codeData := unsafe.SliceData(code)
	ref := &codeData
	return *(*T)(unsafe.Pointer(&ref))
}

//go:noinline
func returnsSeven() int {
	return 7
}

func TestInstall_ReturnOne(t *testing.T) {
	dest := newCodePage(t)
	writeInstructions(t, dest, returnOne)

	site := newCodePage(t)
	Install(unsafe.Pointer(&site[0]), unsafe.Pointer(&dest[0]))

	assert.Equal(t, 1, asFunc[func() int](site)())
}

func TestInstall_GoFunction(t *testing.T) {
	site := newCodePage(t)

	fn := returnsSeven
	Install(unsafe.Pointer(&site[0]), unsafe.Pointer(entryOf(fn)))

	assert.Equal(t, 7, asFunc[func() int](site)())
}

func TestInstall_AboveFourGiB(t *testing.T) {
	const highAddr = 0x1_8000_0000

	dest, err := mmapAt(highAddr, unix.Getpagesize())
	if err != nil {
		t.Skipf("can't map %#x: %v", highAddr, err)
	}
	t.Cleanup(func() { munmap(dest) })
	writeInstructions(t, dest, returnOne)

	site := newCodePage(t)
	Install(unsafe.Pointer(&site[0]), unsafe.Pointer(&dest[0]))

	assert.Equal(t, expectedTrampoline(highAddr), site[:Size])
	assert.Equal(t, 1, asFunc[func() int](site)())
}

func TestInstall_Repatch(t *testing.T) {
	one := newCodePage(t)
	writeInstructions(t, one, returnOne)

	site := newCodePage(t)
	call := asFunc[func() int](site)

	Install(unsafe.Pointer(&site[0]), unsafe.Pointer(entryOf(returnsSeven)))
	assert.Equal(t, 7, call())

	Install(unsafe.Pointer(&site[0]), unsafe.Pointer(&one[0]))
	assert.Equal(t, 1, call())
}

func TestNewStubTo_CodePage(t *testing.T) {
	page, err := MapCode(0, 8)
	require.NoError(t, err)
	t.Cleanup(func() { page.Unmap() })
	writeInstructions(t, unsafe.Slice((*byte)(unsafe.Pointer(page.Addr())), 8), returnOne)

	stub, err := NewStubTo[func() int](page.Addr())
	require.NoError(t, err)
	t.Cleanup(stub.Free)

	assert.Equal(t, expectedTrampoline(uint64(page.Addr())), stub.Code())
	assert.Equal(t, 1, stub.Func())
}
