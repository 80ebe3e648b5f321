package disasm_test

import (
	"testing"

	"github.com/beevik/sim6502/cpu"
	"github.com/beevik/sim6502/disasm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisassemble(t *testing.T) {
	cases := []struct {
		code []byte
		line string
	}{
		{[]byte{0xa9, 0x5e}, "LDA #$5E"},
		{[]byte{0xa5, 0x15}, "LDA $15"},
		{[]byte{0xb5, 0x15}, "LDA $15,X"},
		{[]byte{0xb6, 0x15}, "LDX $15,Y"},
		{[]byte{0x8d, 0x00, 0x15}, "STA $1500"},
		{[]byte{0xbd, 0x34, 0x12}, "LDA $1234,X"},
		{[]byte{0xb9, 0x34, 0x12}, "LDA $1234,Y"},
		{[]byte{0x6c, 0xfc, 0xff}, "JMP ($FFFC)"},
		{[]byte{0xa1, 0x20}, "LDA ($20,X)"},
		{[]byte{0xb1, 0x20}, "LDA ($20),Y"},
		{[]byte{0x0a}, "ASL A"},
		{[]byte{0xea}, "NOP"},
		{[]byte{0x90, 0x10}, "BCC $1012"},
		{[]byte{0xd0, 0x84}, "BNE $0FFE"},
		{[]byte{0x02}, "???"},
	}

	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			mem := cpu.NewMemory(cpu.DefaultMemorySize)
			require.NoError(t, mem.Load(0x1000, c.code))

			line, next := disasm.Disassemble(mem, 0x1000)
			assert.Equal(t, c.line, line)
			assert.Equal(t, uint16(0x1000+len(c.code)), next)
		})
	}
}

func TestDisassembleTruncated(t *testing.T) {
	mem := cpu.NewMemory(0x1002)
	require.NoError(t, mem.Load(0x1000, []byte{0xea, 0xad}))

	line, next := disasm.Disassemble(mem, 0x1001)
	assert.Equal(t, "LDA ???", line)
	assert.Equal(t, uint16(0x1004), next)

	assert.Equal(t, []byte{0xad}, disasm.Code(mem, 0x1001))
	assert.Equal(t, []byte{0xea}, disasm.Code(mem, 0x1000))
}

func TestBranchTarget(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint16(0x1004), disasm.BranchTarget(0x1000, 0x02))
	assert.Equal(uint16(0x0ffe), disasm.BranchTarget(0x1000, 0x84))
	assert.Equal(uint16(0x0071), disasm.BranchTarget(0xfff0, 0x7f))
}

func TestRegisterString(t *testing.T) {
	r := cpu.Registers{A: 0x12, X: 0x34, Y: 0x56, SP: 0xff, PC: 0x1000, Carry: true, Negative: true}
	assert.Equal(t, "A=12 X=34 Y=56 PS=[N----C] SP=FF PC=1000", disasm.RegisterString(r))
}
