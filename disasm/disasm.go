// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6502 instruction set
// disassembler.
package disasm

import (
	"fmt"

	"github.com/beevik/sim6502/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"#$%s",    // IMM
	"%s",      // IMP
	"$%s",     // REL
	"$%s",     // ZPG
	"$%s,X",   // ZPX
	"$%s,Y",   // ZPY
	"$%s",     // ABS
	"$%s,X",   // ABX
	"$%s,Y",   // ABY
	"($%s)",   // IND
	"($%s,X)", // IDX
	"($%s),Y", // IDY
	"A",       // ACC
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the byte slice, most
// significant byte first.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// BranchTarget returns the address a relative branch located at 'addr'
// transfers control to when taken. Offsets above 127 step back by their
// low seven bits, matching the processor.
func BranchTarget(addr uint16, offset byte) uint16 {
	next := addr + 2
	if offset > 127 {
		return next - uint16(offset&0x7f)
	}
	return next + uint16(offset)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code.
//
// Bytes that do not start a defined instruction disassemble as "???" and
// occupy a single byte.
func Disassemble(m *cpu.Memory, addr uint16) (line string, next uint16) {
	opcode, err := m.Read(addr)
	if err != nil {
		return "???", addr + 1
	}
	inst, err := cpu.Lookup(opcode)
	if err != nil {
		return "???", addr + 1
	}

	next = addr + uint16(inst.Length)
	operand, err := m.Slice(addr+1, int(inst.Length)-1)
	if err != nil {
		return inst.Name + " ???", next
	}

	switch inst.Mode {
	case cpu.IMP:
		return inst.Name, next
	case cpu.ACC:
		return inst.Name + " " + modeFormat[cpu.ACC], next
	case cpu.REL:
		// Convert relative offset to absolute address.
		braddr := BranchTarget(addr, operand[0])
		operand = []byte{byte(braddr & 0xff), byte(braddr >> 8)}
	}

	line = fmt.Sprintf("%s "+modeFormat[inst.Mode], inst.Name, hexString(operand))
	return line, next
}

// Code returns the raw bytes of the instruction at 'addr', or a single byte
// when the opcode is not defined. Bytes beyond the end of memory are
// omitted.
func Code(m *cpu.Memory, addr uint16) []byte {
	_, next := Disassemble(m, addr)
	n := int(next - addr)
	for ; n > 0; n-- {
		if b, err := m.Slice(addr, n); err == nil {
			return b
		}
	}
	return nil
}

// RegisterString returns a string describing the contents of the 6502
// registers.
func RegisterString(r cpu.Registers) string {
	return fmt.Sprintf("A=%02X X=%02X Y=%02X PS=[%s] SP=%02X PC=%04X",
		r.A, r.X, r.Y, flagString(r), r.SP, r.PC)
}

func flagString(r cpu.Registers) string {
	v := func(bit bool, ch byte) byte {
		if bit {
			return ch
		}
		return '-'
	}
	b := []byte{
		v(r.Negative, 'N'),
		v(r.Overflow, 'V'),
		v(r.Decimal, 'D'),
		v(r.InterruptDisable, 'I'),
		v(r.Zero, 'Z'),
		v(r.Carry, 'C'),
	}
	return string(b)
}
