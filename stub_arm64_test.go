//go:build arm64 && unix

package trampoline

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:noinline
func square(x int) int {
	return x * x
}

//go:noinline
func cube(x int) int {
	return x * x * x
}

func TestNewStub(t *testing.T) {
	assert := assert.New(t)

	stub, err := NewStub(square)
	require.NoError(t, err)
	t.Cleanup(stub.Free)

	assert.Equal(expectedTrampoline(uint64(entryOf(square))), stub.Code())
	assert.Equal(9, stub.Func(3))

	require.NoError(t, stub.Retarget(cube))
	assert.Equal(27, stub.Func(3))

	// Retargeting to the same function changes nothing.
	code := stub.Code()
	require.NoError(t, stub.Retarget(cube))
	assert.Equal(code, stub.Code())
}

func TestNewStub_Many(t *testing.T) {
	stubs := make([]*Stub[func(int) int], 0, 32)
	for i := 0; i < cap(stubs); i++ {
		stub, err := NewStub(square)
		require.NoError(t, err)
		stubs = append(stubs, stub)
	}

	// Patching one stub leaves the others alone.
	require.NoError(t, stubs[5].Retarget(cube))
	for i, stub := range stubs {
		want := 16
		if i == 5 {
			want = 64
		}
		assert.Equal(t, want, stub.Func(4), "stub %d", i)
	}

	for _, stub := range stubs {
		stub.Free()
	}
}

func TestNewStub_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				stub, err := NewStub(square)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, 4, stub.Func(2))

				assert.NoError(t, stub.Retarget(cube))
				assert.Equal(t, 8, stub.Func(2))
				stub.Free()
			}
		}()
	}

	// Install into unrelated code at the same time.
	page := newCodePage(t)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for n := 0; n < 2000; n++ {
			Install(unsafe.Pointer(&page[0]), unsafe.Pointer(uintptr(n)))
		}
	}()

	wg.Wait()
	assert.Equal(t, expectedTrampoline(1999), page[:Size])
}
