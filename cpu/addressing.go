// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Opcode of ASL Absolute,X, which is never charged the indexed
// wraparound cycle.
const opASLAbsoluteX = 0x1e

// EffectiveAddress computes the operand address for 'mode' from the current
// program counter, registers and memory, without changing any state. It
// returns the number of extra cycles the resolution would cost.
//
// For Immediate and Relative modes the address is the program counter
// itself, since the operand is the byte stored there.
func (p *Processor) EffectiveAddress(mode Mode) (uint16, int, error) {
	pc := p.reg.PC

	switch mode {
	case IMM, REL:
		return pc, 0, nil

	case ZPG:
		zp, err := p.mem.Read(pc)
		return uint16(zp), 0, err

	case ZPX, ZPY:
		// Both zero-page indexed modes are offset by X.
		zp, err := p.mem.Read(pc)
		return uint16(zp + p.reg.X), 0, err

	case ABS:
		addr, err := p.mem.readWord(int(pc), int(pc+1))
		return addr, 0, err

	case ABX:
		return p.indexAbsolute(p.reg.X)

	case ABY:
		return p.indexAbsolute(p.reg.Y)

	case IDX:
		zp, err := p.mem.Read(pc)
		if err != nil {
			return 0, 0, err
		}
		ptr := int(zp + p.reg.X)
		addr, err := p.mem.readWord(ptr, ptr+1)
		return addr, 0, err

	case IDY:
		zp, err := p.mem.Read(pc)
		if err != nil {
			return 0, 0, err
		}
		base, err := p.mem.readWord(int(zp), int(zp)+1)
		if err != nil {
			return 0, 0, err
		}
		return offsetAddress(base, p.reg.Y)

	case IND:
		ptr, err := p.mem.readWord(int(pc), int(pc+1))
		if err != nil {
			return 0, 0, err
		}
		// The high byte is fetched from the same page as the low byte,
		// as on the NMOS 6502: JMP ($12FF) reads $12FF and $1200.
		hi := (ptr & 0xff00) | ((ptr + 1) & 0x00ff)
		addr, err := p.mem.readWord(int(ptr), int(hi))
		return addr, 0, err

	default:
		panic("invalid addressing mode")
	}
}

func (p *Processor) indexAbsolute(index byte) (uint16, int, error) {
	base, err := p.mem.readWord(int(p.reg.PC), int(p.reg.PC+1))
	if err != nil {
		return 0, 0, err
	}
	return offsetAddress(base, index)
}

// Return the offset address 'addr' + 'offset'. A sum beyond the 64K
// address space wraps and costs one extra cycle.
func offsetAddress(addr uint16, offset byte) (uint16, int, error) {
	sum := int(addr) + int(offset)
	if sum > 0xffff {
		return uint16(sum - 0x10000), 1, nil
	}
	return uint16(sum), 0, nil
}

// Resolve the operand address of an instruction and charge any
// resolution penalty to the current step.
func (p *Processor) resolve(inst *Instruction) (uint16, error) {
	addr, penalty, err := p.EffectiveAddress(inst.Mode)
	if err != nil {
		return 0, err
	}
	if inst.Opcode != opASLAbsoluteX {
		p.extraCycles += penalty
	}
	return addr, nil
}

// Load a byte value using the instruction's addressing mode.
func (p *Processor) load(inst *Instruction) (byte, error) {
	if inst.Mode == ACC {
		return p.reg.A, nil
	}
	addr, err := p.resolve(inst)
	if err != nil {
		return 0, err
	}
	return p.mem.Read(addr)
}

// Load the operand of a read-modify-write instruction, returning the
// address so the result can be written back without resolving twice.
func (p *Processor) loadModify(inst *Instruction) (addr uint16, v byte, err error) {
	if inst.Mode == ACC {
		return 0, p.reg.A, nil
	}
	addr, err = p.resolve(inst)
	if err != nil {
		return 0, 0, err
	}
	v, err = p.mem.Read(addr)
	return addr, v, err
}

// Write back the result of a read-modify-write instruction.
func (p *Processor) storeModify(inst *Instruction, addr uint16, v byte) error {
	if inst.Mode == ACC {
		p.reg.A = v
		return nil
	}
	return p.storeByte(addr, v)
}

// Store a byte to memory, notifying the debugger if one is attached.
func (p *Processor) storeByte(addr uint16, v byte) error {
	if err := p.mem.Write(addr, v); err != nil {
		return err
	}
	if p.debugger != nil {
		p.debugger.onDataStore(p, addr, v)
	}
	return nil
}
