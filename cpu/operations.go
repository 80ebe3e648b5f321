// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import "fmt"

// Add with carry.
//
// In decimal mode the operand and accumulator are added as plain integers
// and the carry is produced when the sum exceeds 99; no nibble correction
// is applied.
func (p *Processor) adc(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}

	acc := int(p.reg.A)
	add := int(v)
	sum := acc + add + boolToInt(p.reg.Carry)
	p.reg.Overflow = ((acc ^ sum) & (add ^ sum) & 0x80) != 0

	if p.reg.Decimal {
		p.reg.Carry = sum > 99
		if p.reg.Carry {
			sum -= 100
		}
	} else {
		p.reg.Carry = sum > 0xff
		if p.reg.Carry {
			sum -= 0x100
		}
	}

	p.reg.A = byte(sum)
	p.updateNZ(int(p.reg.A))
	return nil
}

// Subtract with carry. Decimal mode mirrors the simplified rule used by
// ADC: a negative difference borrows 100.
func (p *Processor) sbc(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}

	acc := int(p.reg.A)
	sub := int(v)
	diff := acc - sub - (1 - boolToInt(p.reg.Carry))
	p.reg.Overflow = ((acc ^ sub) & (acc ^ diff) & 0x80) != 0

	p.reg.Carry = diff >= 0
	if !p.reg.Carry {
		if p.reg.Decimal {
			diff += 100
		} else {
			diff += 0x100
		}
	}

	p.reg.A = byte(diff)
	p.updateNZ(int(p.reg.A))
	return nil
}

// Boolean AND
func (p *Processor) and(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.A &= v
	p.updateNZ(int(p.reg.A))
	return nil
}

// Boolean XOR
func (p *Processor) eor(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.A ^= v
	p.updateNZ(int(p.reg.A))
	return nil
}

// Boolean OR
func (p *Processor) ora(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.A |= v
	p.updateNZ(int(p.reg.A))
	return nil
}

// Arithmetic Shift Left
func (p *Processor) asl(inst *Instruction) error {
	addr, v, err := p.loadModify(inst)
	if err != nil {
		return err
	}
	p.reg.Carry = (v & 0x80) != 0
	v <<= 1
	p.updateNZ(int(v))
	return p.storeModify(inst, addr, v)
}

// Logical Shift Right
func (p *Processor) lsr(inst *Instruction) error {
	addr, v, err := p.loadModify(inst)
	if err != nil {
		return err
	}
	p.reg.Carry = (v & 1) == 1
	v >>= 1
	p.updateNZ(int(v))
	return p.storeModify(inst, addr, v)
}

// Rotate Left
func (p *Processor) rol(inst *Instruction) error {
	addr, v, err := p.loadModify(inst)
	if err != nil {
		return err
	}
	carry := p.reg.Carry
	p.reg.Carry = (v & 0x80) != 0
	v <<= 1
	if carry {
		v |= 0x01
	}
	p.updateNZ(int(v))
	return p.storeModify(inst, addr, v)
}

// Rotate Right
func (p *Processor) ror(inst *Instruction) error {
	addr, v, err := p.loadModify(inst)
	if err != nil {
		return err
	}
	carry := p.reg.Carry
	p.reg.Carry = (v & 0x01) == 1
	v >>= 1
	if carry {
		v |= 0x80
	}
	p.updateNZ(int(v))
	return p.storeModify(inst, addr, v)
}

// Bit Test
func (p *Processor) bit(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.Zero = (v & p.reg.A) == 0
	p.reg.Overflow = (v & 0x40) != 0
	p.reg.Negative = (v & 0x80) != 0
	return nil
}

// Compare a register to the operand. The difference is reduced modulo
// 0x10000 before the N and Z flags are derived from it, so only a zero
// difference sets Z and any borrow sets N.
func (p *Processor) compare(inst *Instruction, reg byte) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	diff := int(reg) - int(v)
	if diff < 0 {
		diff += 0x10000
	}
	p.reg.Carry = v <= reg
	p.updateNZ(diff)
	return nil
}

// Compare to accumulator
func (p *Processor) cmp(inst *Instruction) error {
	return p.compare(inst, p.reg.A)
}

// Compare to X register
func (p *Processor) cpx(inst *Instruction) error {
	return p.compare(inst, p.reg.X)
}

// Compare to Y register
func (p *Processor) cpy(inst *Instruction) error {
	return p.compare(inst, p.reg.Y)
}

// Take a relative branch if 'cond' holds. A taken branch costs one extra
// cycle, plus another when the target wraps around the 64K address space
// or lands on a different page than the instruction that follows the
// branch.
//
// The offset byte is sign-magnitude: values above 127 step back by the
// low seven bits.
func (p *Processor) branch(inst *Instruction, cond bool) error {
	if !cond {
		return nil
	}

	v, err := p.load(inst)
	if err != nil {
		return err
	}
	offset := int(v)
	if v > 127 {
		offset = -int(v & 0x7f)
	}

	next := p.reg.PC + 1
	target := int(p.reg.PC) + offset
	wrapped := target < 0 || target > 0xffff
	switch {
	case target < 0:
		target += 0x10000
	case target > 0xffff:
		target -= 0x10000
	}
	p.reg.PC = uint16(target)

	p.extraCycles++
	if wrapped || ((p.reg.PC+1)&0xff00) != (next&0xff00) {
		p.extraCycles++
	}
	return nil
}

// Branch if Carry Clear
func (p *Processor) bcc(inst *Instruction) error {
	return p.branch(inst, !p.reg.Carry)
}

// Branch if Carry Set
func (p *Processor) bcs(inst *Instruction) error {
	return p.branch(inst, p.reg.Carry)
}

// Branch if EQual (to zero)
func (p *Processor) beq(inst *Instruction) error {
	return p.branch(inst, p.reg.Zero)
}

// Branch if MInus (negative)
func (p *Processor) bmi(inst *Instruction) error {
	return p.branch(inst, p.reg.Negative)
}

// Branch if Not Equal (not zero)
func (p *Processor) bne(inst *Instruction) error {
	return p.branch(inst, !p.reg.Zero)
}

// Branch if PLus (positive)
func (p *Processor) bpl(inst *Instruction) error {
	return p.branch(inst, !p.reg.Negative)
}

// Branch if oVerflow Clear
func (p *Processor) bvc(inst *Instruction) error {
	return p.branch(inst, !p.reg.Overflow)
}

// Branch if oVerflow Set
func (p *Processor) bvs(inst *Instruction) error {
	return p.branch(inst, p.reg.Overflow)
}

// Clear Carry flag
func (p *Processor) clc(inst *Instruction) error {
	p.reg.Carry = false
	return nil
}

// Clear Decimal flag
func (p *Processor) cld(inst *Instruction) error {
	p.reg.Decimal = false
	return nil
}

// Clear InterruptDisable flag
func (p *Processor) cli(inst *Instruction) error {
	p.reg.InterruptDisable = false
	return nil
}

// Clear oVerflow flag
func (p *Processor) clv(inst *Instruction) error {
	p.reg.Overflow = false
	return nil
}

// Set Carry flag
func (p *Processor) sec(inst *Instruction) error {
	p.reg.Carry = true
	return nil
}

// Set Decimal flag
func (p *Processor) sed(inst *Instruction) error {
	p.reg.Decimal = true
	return nil
}

// Set InterruptDisable flag
func (p *Processor) sei(inst *Instruction) error {
	p.reg.InterruptDisable = true
	return nil
}

// Decrement memory value
func (p *Processor) dec(inst *Instruction) error {
	addr, v, err := p.loadModify(inst)
	if err != nil {
		return err
	}
	v--
	p.updateNZ(int(v))
	return p.storeModify(inst, addr, v)
}

// Increment memory value
func (p *Processor) inc(inst *Instruction) error {
	addr, v, err := p.loadModify(inst)
	if err != nil {
		return err
	}
	v++
	p.updateNZ(int(v))
	return p.storeModify(inst, addr, v)
}

// Decrement X register
func (p *Processor) dex(inst *Instruction) error {
	p.reg.X--
	p.updateNZ(int(p.reg.X))
	return nil
}

// Decrement Y register
func (p *Processor) dey(inst *Instruction) error {
	p.reg.Y--
	p.updateNZ(int(p.reg.Y))
	return nil
}

// Increment X register
func (p *Processor) inx(inst *Instruction) error {
	p.reg.X++
	p.updateNZ(int(p.reg.X))
	return nil
}

// Increment Y register
func (p *Processor) iny(inst *Instruction) error {
	p.reg.Y++
	p.updateNZ(int(p.reg.Y))
	return nil
}

// Jump to memory address
func (p *Processor) jmp(inst *Instruction) error {
	addr, err := p.resolve(inst)
	if err != nil {
		return err
	}
	p.reg.PC = addr
	return nil
}

// Load Accumulator
func (p *Processor) lda(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.A = v
	p.updateNZ(int(v))
	return nil
}

// Load the X register
func (p *Processor) ldx(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.X = v
	p.updateNZ(int(v))
	return nil
}

// Load the Y register
func (p *Processor) ldy(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.Y = v
	p.updateNZ(int(v))
	return nil
}

// No-operation
func (p *Processor) nop(inst *Instruction) error {
	return nil
}

// Store Accumulator
func (p *Processor) sta(inst *Instruction) error {
	addr, err := p.resolve(inst)
	if err != nil {
		return err
	}
	return p.storeByte(addr, p.reg.A)
}

// STX copies the byte at the operand address into X without touching
// any flags. Programs relying on a real store to memory will observe
// no write.
func (p *Processor) stx(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.X = v
	return nil
}

// STY copies the byte at the operand address into Y. See stx.
func (p *Processor) sty(inst *Instruction) error {
	v, err := p.load(inst)
	if err != nil {
		return err
	}
	p.reg.Y = v
	return nil
}

// Transfer Accumulator to X
func (p *Processor) tax(inst *Instruction) error {
	p.reg.X = p.reg.A
	p.updateNZ(int(p.reg.X))
	return nil
}

// Transfer Accumulator to Y
func (p *Processor) tay(inst *Instruction) error {
	p.reg.Y = p.reg.A
	p.updateNZ(int(p.reg.Y))
	return nil
}

// Transfer Stack pointer to X
func (p *Processor) tsx(inst *Instruction) error {
	p.reg.X = p.reg.SP
	p.updateNZ(int(p.reg.X))
	return nil
}

// Transfer X to Accumulator
func (p *Processor) txa(inst *Instruction) error {
	p.reg.A = p.reg.X
	p.updateNZ(int(p.reg.A))
	return nil
}

// Transfer X to the Stack pointer
func (p *Processor) txs(inst *Instruction) error {
	p.reg.SP = p.reg.X
	return nil
}

// Transfer Y to the Accumulator
func (p *Processor) tya(inst *Instruction) error {
	p.reg.A = p.reg.Y
	p.updateNZ(int(p.reg.A))
	return nil
}

// Instructions that depend on the stack or on interrupt vectors are
// decoded but not executed.
func (p *Processor) unimplemented(inst *Instruction) error {
	return fmt.Errorf("%w: %s ($%02X) at $%04X", ErrUnimplemented, inst.Name, inst.Opcode, p.lastPC)
}
