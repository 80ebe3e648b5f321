package cpu_test

import (
	"errors"
	"testing"

	"github.com/beevik/sim6502/cpu"
)

func TestInstructionTable(t *testing.T) {
	defined := 0
	for i := 0; i < 256; i++ {
		opcode := byte(i)
		inst, err := cpu.Lookup(opcode)
		if err != nil {
			if !errors.Is(err, cpu.ErrUnsupportedOpcode) {
				t.Errorf("opcode $%02X: unexpected error %v", opcode, err)
			}
			continue
		}
		defined++

		if inst.Opcode != opcode {
			t.Errorf("opcode $%02X: table entry has opcode $%02X", opcode, inst.Opcode)
		}
		if inst.Length < 1 || inst.Length > 3 {
			t.Errorf("%s $%02X: bad length %d", inst.Name, opcode, inst.Length)
		}
		if inst.Cycles < 2 || inst.Cycles > 7 {
			t.Errorf("%s $%02X: bad cycle count %d", inst.Name, opcode, inst.Cycles)
		}

		var exp byte
		switch inst.Mode {
		case cpu.IMP, cpu.ACC:
			exp = 1
		case cpu.ABS, cpu.ABX, cpu.ABY, cpu.IND:
			exp = 3
		default:
			exp = 2
		}
		if inst.Length != exp {
			t.Errorf("%s $%02X (%s): length %d, expected %d", inst.Name, opcode, inst.Mode, inst.Length, exp)
		}
	}

	if defined != 151 {
		t.Errorf("defined opcode count incorrect. exp: 151, got: %d", defined)
	}
}

func TestJumpFlag(t *testing.T) {
	for i := 0; i < 256; i++ {
		inst, err := cpu.Lookup(byte(i))
		if err != nil {
			continue
		}
		exp := inst.Opcode == 0x4c || inst.Opcode == 0x6c
		if inst.Jump() != exp {
			t.Errorf("%s $%02X: jump flag incorrect. exp: %v, got: %v", inst.Name, inst.Opcode, exp, inst.Jump())
		}
	}
}

func TestMnemonic(t *testing.T) {
	cases := []struct {
		opcode byte
		name   string
	}{
		{0xa9, "LDA"},
		{0x90, "BCC"},
		{0x6c, "JMP"},
		{0x96, "STX"},
		{0xea, "NOP"},
		{0x00, "BRK"},
	}
	for _, c := range cases {
		name, err := cpu.Mnemonic(c.opcode)
		if err != nil {
			t.Errorf("opcode $%02X: %v", c.opcode, err)
			continue
		}
		if name != c.name {
			t.Errorf("opcode $%02X: mnemonic incorrect. exp: %s, got: %s", c.opcode, c.name, name)
		}
	}

	if _, err := cpu.Mnemonic(0xff); !errors.Is(err, cpu.ErrUnsupportedOpcode) {
		t.Errorf("opcode $FF: expected unsupported opcode error, got: %v", err)
	}
}

func TestVariants(t *testing.T) {
	if n := len(cpu.Variants("lda")); n != 8 {
		t.Errorf("LDA variants incorrect. exp: 8, got: %d", n)
	}
	if n := len(cpu.Variants("JMP")); n != 2 {
		t.Errorf("JMP variants incorrect. exp: 2, got: %d", n)
	}
	if n := len(cpu.Variants("XYZ")); n != 0 {
		t.Errorf("XYZ variants incorrect. exp: 0, got: %d", n)
	}
}
