// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package snapshot saves and restores the complete state of an emulated
// 6502 session: memory, registers, cycle bookkeeping and the execution
// trace.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/beevik/sim6502/cpu"
)

// Errors
var (
	ErrBadMagic   = errors.New("not a snapshot file")
	ErrBadVersion = errors.New("unsupported snapshot version")
	ErrMemorySize = errors.New("snapshot memory size mismatch")
)

const (
	magic   = "S6502"
	version = 1
)

// A Snapshot holds the state of a processor and its memory at one point in
// time.
type Snapshot struct {
	Registers       cpu.Registers
	Opcode          byte   // most recently fetched opcode
	CyclesRemaining int    // rolling cycle budget
	Cycles          uint64 // total cycles executed
	Memory          []byte
	Trace           []string
}

// Take captures the state of processor 'p' along with the host's trace
// lines.
func Take(p *cpu.Processor, trace []string) *Snapshot {
	return &Snapshot{
		Registers:       p.Registers(),
		Opcode:          p.CurrentOpcode(),
		CyclesRemaining: p.CyclesRemaining(),
		Cycles:          p.Cycles(),
		Memory:          p.Memory().Bytes(),
		Trace:           append([]string(nil), trace...),
	}
}

// Restore copies the snapshot into processor 'p'. The processor's memory
// must have the same capacity as the snapshot's.
func (s *Snapshot) Restore(p *cpu.Processor) error {
	mem := p.Memory()
	if mem.Capacity() != len(s.Memory) {
		return fmt.Errorf("%w: snapshot has %d bytes, memory has %d",
			ErrMemorySize, len(s.Memory), mem.Capacity())
	}
	if err := mem.Load(0, s.Memory); err != nil {
		return err
	}
	p.SetRegisters(s.Registers)
	p.SetCycleState(s.CyclesRemaining, s.Cycles, s.Opcode)
	return nil
}

// WriteTo encodes the snapshot to 'w'.
func (s *Snapshot) WriteTo(w io.Writer) (n int64, err error) {
	var buf bytes.Buffer

	buf.WriteString(magic)
	binary.Write(&buf, binary.LittleEndian, uint32(version))

	r := &s.Registers
	buf.Write([]byte{r.A, r.X, r.Y, r.SP})
	binary.Write(&buf, binary.LittleEndian, r.PC)
	buf.WriteByte(r.SavePS())
	buf.WriteByte(s.Opcode)
	binary.Write(&buf, binary.LittleEndian, int32(s.CyclesRemaining))
	binary.Write(&buf, binary.LittleEndian, s.Cycles)

	binary.Write(&buf, binary.LittleEndian, uint32(len(s.Trace)))
	for _, line := range s.Trace {
		binary.Write(&buf, binary.LittleEndian, uint32(len(line)))
		buf.WriteString(line)
	}

	// Memory: uncompressed length, then gzip-compressed data
	binary.Write(&buf, binary.LittleEndian, uint32(len(s.Memory)))
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(s.Memory); err != nil {
		return 0, fmt.Errorf("compressing memory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("closing gzip: %w", err)
	}

	return buf.WriteTo(w)
}

// ReadFrom decodes a snapshot from 'r', replacing the contents of 's'.
func (s *Snapshot) ReadFrom(r io.Reader) (n int64, err error) {
	data, err := io.ReadAll(r)
	n = int64(len(data))
	if err != nil {
		return n, err
	}
	br := bytes.NewReader(data)

	m := make([]byte, len(magic))
	if _, err := io.ReadFull(br, m); err != nil || string(m) != magic {
		return n, ErrBadMagic
	}

	var v uint32
	if err := binary.Read(br, binary.LittleEndian, &v); err != nil {
		return n, fmt.Errorf("reading version: %w", err)
	}
	if v != version {
		return n, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}

	var hdr struct {
		A, X, Y, SP     byte
		PC              uint16
		PS              byte
		Opcode          byte
		CyclesRemaining int32
		Cycles          uint64
	}
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return n, fmt.Errorf("reading registers: %w", err)
	}

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return n, fmt.Errorf("reading trace length: %w", err)
	}
	var trace []string
	for i := range count {
		var l uint32
		if err := binary.Read(br, binary.LittleEndian, &l); err != nil {
			return n, fmt.Errorf("reading trace line %d: %w", i, err)
		}
		if int64(l) > int64(br.Len()) {
			return n, fmt.Errorf("reading trace line %d: %w", i, io.ErrUnexpectedEOF)
		}
		line := make([]byte, l)
		if _, err := io.ReadFull(br, line); err != nil {
			return n, fmt.Errorf("reading trace line %d: %w", i, err)
		}
		trace = append(trace, string(line))
	}

	var memLen uint32
	if err := binary.Read(br, binary.LittleEndian, &memLen); err != nil {
		return n, fmt.Errorf("reading memory length: %w", err)
	}
	if memLen > cpu.DefaultMemorySize {
		return n, fmt.Errorf("%w: %d bytes", ErrMemorySize, memLen)
	}
	gz, err := gzip.NewReader(br)
	if err != nil {
		return n, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	mem := make([]byte, memLen)
	if _, err := io.ReadFull(gz, mem); err != nil {
		return n, fmt.Errorf("decompressing memory: %w", err)
	}

	*s = Snapshot{
		Registers: cpu.Registers{
			A: hdr.A, X: hdr.X, Y: hdr.Y, SP: hdr.SP, PC: hdr.PC,
		},
		Opcode:          hdr.Opcode,
		CyclesRemaining: int(hdr.CyclesRemaining),
		Cycles:          hdr.Cycles,
		Memory:          mem,
		Trace:           trace,
	}
	s.Registers.RestorePS(hdr.PS)
	return n, nil
}

// Save writes the snapshot to the file at 'path'.
func (s *Snapshot) Save(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Load reads a snapshot from the file at 'path'.
func Load(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s := &Snapshot{}
	if _, err := s.ReadFrom(file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
