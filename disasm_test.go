package trampoline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	buf := make([]byte, Size)
	Encode(buf, 0x1_8000_0000)

	lines := strings.Split(strings.TrimSuffix(Disassemble(buf, 0x4000), "\n"), "\n")
	if assert.Len(lines, 4) {
		assert.True(strings.HasPrefix(lines[0], "0x00004000\t4f000058"), lines[0])
		assert.Contains(lines[0], "LDR")
		assert.True(strings.HasPrefix(lines[1], "0x00004004\te0011fd6"), lines[1])
		assert.Contains(lines[1], "BR")
		assert.True(strings.HasPrefix(lines[2], "0x00004008\t00000080"), lines[2])
	}
}

func TestDisassemble_PartialWord(t *testing.T) {
	assert.Equal(t, "", Disassemble([]byte{1, 2, 3}, 0))
}
