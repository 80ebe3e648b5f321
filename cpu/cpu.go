// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements a cycle-aware NMOS 6502 instruction set
// emulator and the bounds-checked memory it executes from.
package cpu

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrUnsupportedOpcode = errors.New("unsupported opcode")
	ErrUnimplemented     = errors.New("instruction not implemented")
)

// InterruptPeriod is the number of cycles in the processor's rolling
// cycle budget. Whenever the budget drops below zero, the period is added
// back to it.
const InterruptPeriod = 20

// Processor represents a single 6502 CPU. It exclusively owns the memory it
// executes from. A Processor is not safe for concurrent use.
type Processor struct {
	reg             Registers
	mem             *Memory
	currentOpcode   byte
	cyclesRemaining int
	cycles          uint64
	lastPC          uint16
	extraCycles     int
	debugger        *Debugger
}

// NewProcessor creates an emulated 6502 CPU bound to the specified memory.
func NewProcessor(m *Memory) *Processor {
	p := &Processor{mem: m}
	p.Reset()
	return p
}

// Reset returns all registers, flags and cycle bookkeeping to their
// power-on values. Memory is left untouched.
func (p *Processor) Reset() {
	p.reg.Init()
	p.currentOpcode = 0
	p.cyclesRemaining = InterruptPeriod
	p.cycles = 0
	p.lastPC = 0
}

// LoadProgram copies 'program' into memory at 'offset' and sets the
// program counter to 'pc'. The program counter is left untouched if the
// program does not fit.
func (p *Processor) LoadProgram(offset uint32, program []byte, pc uint16) error {
	if err := p.mem.Load(offset, program); err != nil {
		return err
	}
	p.reg.PC = pc
	return nil
}

// Step executes exactly one instruction at the program counter.
//
// The program counter is advanced past the opcode byte before the opcode
// is decoded, so it remains advanced when the opcode turns out to be
// unsupported or unimplemented.
func (p *Processor) Step() error {
	// Grab the next opcode at the current PC
	p.lastPC = p.reg.PC
	opcode, err := p.mem.Read(p.reg.PC)
	if err != nil {
		return err
	}
	p.currentOpcode = opcode
	p.reg.PC++

	// Look up the instruction data for the opcode
	inst, err := Lookup(opcode)
	if err != nil {
		return fmt.Errorf("%w at $%04X", err, p.lastPC)
	}

	// Execute the instruction
	p.extraCycles = 0
	if err := inst.fn(p, inst); err != nil {
		return err
	}
	if !inst.Jump() {
		p.reg.PC += uint16(inst.Length - 1)
	}

	// Debit the rolling cycle budget, replenishing it by addition so
	// that any overdraft carries into the next period.
	cost := int(inst.Cycles) + p.extraCycles
	p.cycles += uint64(cost)
	p.cyclesRemaining -= cost
	if p.cyclesRemaining < 0 {
		p.cyclesRemaining += InterruptPeriod
	}

	// Update the debugger so it can handle breakpoints.
	if p.debugger != nil {
		p.debugger.onUpdatePC(p, p.reg.PC)
	}
	return nil
}

// AttachDebugger attaches a debugger to the CPU. The debugger receives
// notifications whenever the CPU executes an instruction or stores a byte
// to memory.
func (p *Processor) AttachDebugger(d *Debugger) {
	p.debugger = d
}

// DetachDebugger detaches the current debugger from the CPU.
func (p *Processor) DetachDebugger() {
	p.debugger = nil
}

// Registers returns a copy of the register and flag state.
func (p *Processor) Registers() Registers { return p.reg }

// SetRegisters replaces the register and flag state.
func (p *Processor) SetRegisters(r Registers) { p.reg = r }

// SetPC updates the CPU program counter to 'addr'.
func (p *Processor) SetPC(addr uint16) { p.reg.PC = addr }

// SetCycleState restores the cycle bookkeeping and the last fetched
// opcode, typically from a saved session.
func (p *Processor) SetCycleState(remaining int, total uint64, opcode byte) {
	p.cyclesRemaining = remaining
	p.cycles = total
	p.currentOpcode = opcode
}

func (p *Processor) A() byte                { return p.reg.A }
func (p *Processor) X() byte                { return p.reg.X }
func (p *Processor) Y() byte                { return p.reg.Y }
func (p *Processor) PC() uint16             { return p.reg.PC }
func (p *Processor) SP() byte               { return p.reg.SP }
func (p *Processor) Carry() bool            { return p.reg.Carry }
func (p *Processor) Zero() bool             { return p.reg.Zero }
func (p *Processor) InterruptDisable() bool { return p.reg.InterruptDisable }
func (p *Processor) Decimal() bool          { return p.reg.Decimal }
func (p *Processor) Overflow() bool         { return p.reg.Overflow }
func (p *Processor) Negative() bool         { return p.reg.Negative }

// CurrentOpcode returns the most recently fetched opcode byte.
func (p *Processor) CurrentOpcode() byte { return p.currentOpcode }

// CyclesRemaining returns the rolling cycle budget.
func (p *Processor) CyclesRemaining() int { return p.cyclesRemaining }

// Cycles returns the total number of cycles executed since the last reset.
func (p *Processor) Cycles() uint64 { return p.cycles }

// LastPC returns the address of the most recently fetched instruction.
func (p *Processor) LastPC() uint16 { return p.lastPC }

// Memory returns the memory the CPU executes from.
func (p *Processor) Memory() *Memory { return p.mem }

// Update the Zero and Negative flags based on the value of 'v'.
func (p *Processor) updateNZ(v int) {
	p.reg.Zero = (v == 0)
	p.reg.Negative = (v > 127)
}
