package trampoline_test

import (
	"fmt"

	"github.com/pboyd/trampoline"
)

func ExampleEncode() {
	buf := make([]byte, trampoline.Size)
	trampoline.Encode(buf, 0x1_8000_0000)

	fmt.Printf("% x\n", buf)
	// Output: 4f 00 00 58 e0 01 1f d6 00 00 00 80 01 00 00 00
}
