//go:build arm64 && unix

package trampoline_test

import (
	"fmt"

	"github.com/pboyd/trampoline"
)

func add(a, b int) int {
	return a + b
}

func sub(a, b int) int {
	return a - b
}

func ExampleNewStub() {
	stub, err := trampoline.NewStub(add)
	if err != nil {
		panic(err)
	}
	defer stub.Free()

	fmt.Println(stub.Func(5, 3))

	stub.Retarget(sub)
	fmt.Println(stub.Func(5, 3))
	// Output:
	// 8
	// 2
}
