package trampoline

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
)

// Disassemble formats code as A64 instructions, one per line, addressed from
// base. Words that don't decode are shown as "?", which is what the literal
// half of a trampoline usually looks like.
func Disassemble(code []byte, base uintptr) string {
	var buf bytes.Buffer

	for i := 0; i < len(code)&^3; i += 4 {
		var asm string
		instruction, err := arm64asm.Decode(code[i:])
		if err == nil {
			asm = instruction.String()
		} else {
			asm = "?"
		}
		fmt.Fprintf(&buf, "0x%08x\t%-20s\t%s\n", base+uintptr(i), hex.EncodeToString(code[i:i+4]), asm)
	}

	return buf.String()
}
