// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrOutOfRange  = errors.New("memory access out of range")
	ErrInvalidLoad = errors.New("invalid memory load")
)

// DefaultMemorySize is the size of the full 16-bit address space.
const DefaultMemorySize = 0x10000

// Memory is a fixed-capacity, byte-addressable store. Every access is
// bounds-checked against the capacity chosen at creation.
type Memory struct {
	b []byte
}

// NewMemory creates a zero-filled memory of 'size' bytes.
func NewMemory(size int) *Memory {
	if size < 0 {
		size = 0
	}
	return &Memory{b: make([]byte, size)}
}

// Capacity returns the number of addressable bytes.
func (m *Memory) Capacity() int {
	return len(m.b)
}

// Read returns the byte stored at 'addr'.
func (m *Memory) Read(addr uint16) (byte, error) {
	if int(addr) >= len(m.b) {
		return 0, fmt.Errorf("%w: read $%04X (capacity %d)", ErrOutOfRange, addr, len(m.b))
	}
	return m.b[addr], nil
}

// Write stores 'v' at 'addr'.
func (m *Memory) Write(addr uint16, v byte) error {
	if int(addr) >= len(m.b) {
		return fmt.Errorf("%w: write $%04X (capacity %d)", ErrOutOfRange, addr, len(m.b))
	}
	m.b[addr] = v
	return nil
}

// Load copies 'program' into memory starting at 'offset'. The whole
// request is validated before any byte is copied.
func (m *Memory) Load(offset uint32, program []byte) error {
	capacity := uint64(len(m.b))
	if uint64(offset) > capacity || uint64(offset)+uint64(len(program)) > capacity {
		return fmt.Errorf("%w: %d bytes at offset $%X (capacity %d)",
			ErrInvalidLoad, len(program), offset, capacity)
	}
	copy(m.b[offset:], program)
	return nil
}

// Clear resets every byte to zero.
func (m *Memory) Clear() {
	clear(m.b)
}

// Bytes returns a copy of the entire memory contents.
func (m *Memory) Bytes() []byte {
	b := make([]byte, len(m.b))
	copy(b, m.b)
	return b
}

// Slice returns a copy of 'n' bytes starting at 'addr'. The range must lie
// entirely within the memory's capacity.
func (m *Memory) Slice(addr uint16, n int) ([]byte, error) {
	if n < 0 || int(addr)+n > len(m.b) {
		return nil, fmt.Errorf("%w: %d bytes at $%04X (capacity %d)", ErrOutOfRange, n, addr, len(m.b))
	}
	b := make([]byte, n)
	copy(b, m.b[addr:])
	return b, nil
}

// readWord loads a little-endian 16-bit value from 'lo' and 'hi'.
func (m *Memory) readWord(lo, hi int) (uint16, error) {
	if lo >= len(m.b) || hi >= len(m.b) || lo > 0xffff || hi > 0xffff {
		return 0, fmt.Errorf("%w: word read $%04X/$%04X (capacity %d)", ErrOutOfRange, lo, hi, len(m.b))
	}
	return uint16(m.b[lo]) | uint16(m.b[hi])<<8, nil
}
