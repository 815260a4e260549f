package trampoline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("a", a())
	assert.NoError(Func(a, b))
	assert.Equal("b", a())

	assert.NoError(Restore(a))
	assert.Equal("a", a())
}

//go:noinline
func multipleArgs(x int, y string, z bool) int {
	if z {
		return x + len(y)
	}
	return x
}

func multipleArgsReplacement(x int, y string, z bool) int {
	return 999
}

func TestFunc_MultipleArgs(t *testing.T) {
	assert.Equal(t, 5, multipleArgs(2, "foo", true))
	require.NoError(t, Func(multipleArgs, multipleArgsReplacement))
	t.Cleanup(func() { Restore(multipleArgs) })

	assert.Equal(t, 999, multipleArgs(2, "foo", true))
}

//go:noinline
func multipleReturns(x int) (int, string, error) {
	return x * 2, "original", nil
}

func multipleReturnsReplacement(x int) (int, string, error) {
	return x * 10, "replaced", nil
}

func TestFunc_MultipleReturns(t *testing.T) {
	n, s, err := multipleReturns(5)
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "original", s)

	require.NoError(t, Func(multipleReturns, multipleReturnsReplacement))
	t.Cleanup(func() { Restore(multipleReturns) })

	n, s, err = multipleReturns(5)
	assert.NoError(t, err)
	assert.Equal(t, 50, n)
	assert.Equal(t, "replaced", s)
}

//go:noinline
func withSliceArg(s []int) int {
	sum := 0
	for _, v := range s {
		sum += v
	}
	return sum
}

func withSliceArgReplacement(s []int) int {
	return len(s)
}

func withSliceArgSecondReplacement(s []int) int {
	return -len(s)
}

func TestFunc_RedirectTwice(t *testing.T) {
	assert := assert.New(t)

	slice := []int{1, 2, 3, 4, 5}
	assert.Equal(15, withSliceArg(slice))

	assert.NoError(Func(withSliceArg, withSliceArgReplacement))
	assert.Equal(5, withSliceArg(slice))

	assert.NoError(Func(withSliceArg, withSliceArgSecondReplacement))
	assert.Equal(-5, withSliceArg(slice))

	// The first backup wins, so this goes all the way back.
	assert.NoError(Restore(withSliceArg))
	assert.Equal(15, withSliceArg(slice))

	assert.ErrorIs(Restore(withSliceArg), ErrNotRedirected)
}

type testStruct struct {
	Num int
}

//go:noinline
func (ts *testStruct) Inc() {
	ts.Num++
}

type testStruct2 testStruct

func (ts *testStruct2) Double() {
	ts.Num *= 2
}

func TestMethod(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ts := &testStruct{}
	ts.Inc()
	ts.Inc()
	assert.Equal(2, ts.Num)

	require.NoError(Method((*testStruct).Inc, (*testStruct2).Double))

	ts.Inc()
	assert.Equal(4, ts.Num)

	assert.NoError(Restore((*testStruct).Inc))
	ts.Inc()
	assert.Equal(5, ts.Num)
}
