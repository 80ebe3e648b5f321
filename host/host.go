// Copyright 2018 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a computer system
// with a 6502 CPU, 64K of memory, a built-in debugger, and other useful
// tools.
//
// Within the host it is possible to load machine code into memory, debug
// and step through machine code, measure the number of CPU cycles elapsed,
// set address and data breakpoints, dump the contents of memory,
// disassemble the contents of memory, manipulate CPU registers and memory,
// evaluate arbitrary expressions, record an execution trace, save and
// restore whole sessions, and drive the emulator from Lua scripts.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/beevik/cmd"
	"github.com/beevik/sim6502/cpu"
	"github.com/beevik/sim6502/disasm"
	"github.com/beevik/sim6502/snapshot"
	"github.com/beevik/sim6502/translate"
)

var errQuit = errors.New("exiting program")

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles

	displayAll = displayRegisters | displayCycles
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
)

// A selection is a command resolved from an input line together with the
// arguments that followed it.
type selection struct {
	Command *cmd.Command
	Args    []string
}

// A Host represents a fully emulated 6502 system, 64K of memory, a built-in
// debugger, and other useful tools.
type Host struct {
	output      *bufio.Writer
	interactive bool
	mem         *cpu.Memory
	cpu         *cpu.Processor
	debugger    *cpu.Debugger
	lastCmd     *selection
	state       state
	settings    *settings
	trace       []string
	listing     string
	interrupted atomic.Bool
}

// New creates a new 6502 host environment.
func New() *Host {
	h := &Host{
		output:   bufio.NewWriter(io.Discard),
		state:    stateProcessingCommands,
		settings: newSettings(),
	}

	// Create the emulated CPU and memory.
	h.mem = cpu.NewMemory(cpu.DefaultMemorySize)
	h.cpu = cpu.NewProcessor(h.mem)

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger(newDebugHandler(h))
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// Processor returns the emulated CPU.
func (h *Host) Processor() *cpu.Processor {
	return h.cpu
}

// Trace returns the recorded execution trace, oldest line first.
func (h *Host) Trace() []string {
	return h.trace
}

// EnableTrace turns execution tracing on or off.
func (h *Host) EnableTrace(on bool) {
	h.settings.TraceEnabled = on
}

// SetOutput directs host output to 'w'.
func (h *Host) SetOutput(w io.Writer) {
	h.output = bufio.NewWriter(w)
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	h.displayPC()
	h.processCommands(bufio.NewScanner(r))
	h.flush()
}

// Process commands from the scanner until input runs out or a command asks
// to quit. errQuit is returned in the latter case.
func (h *Host) processCommands(input *bufio.Scanner) error {
	for {
		h.prompt()

		if !input.Scan() {
			if err := input.Err(); err != nil {
				h.printf("ERROR: %v.\n", err)
			}
			return nil
		}

		if err := h.dispatch(input.Text()); err != nil {
			return err
		}
	}
}

// Execute a single command line. An empty line repeats the previous
// command.
func (h *Host) dispatch(line string) error {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return nil
	}

	var c selection
	if line != "" {
		n, args, err := cmds.Lookup(line)
		switch {
		case errors.Is(err, cmd.ErrNotFound):
			h.println("Command not found.")
			return nil
		case errors.Is(err, cmd.ErrAmbiguous):
			h.println("Command is ambiguous.")
			return nil
		case err != nil:
			h.printf("ERROR: %v.\n", err)
			return nil
		}

		switch n := n.(type) {
		case *cmd.Tree:
			n.DisplayHelp(h.output)
			h.flush()
			return nil
		case *cmd.Command:
			c = selection{Command: n, Args: args}
		}
	} else if h.lastCmd != nil {
		c = *h.lastCmd
	}

	if c.Command == nil {
		return nil
	}
	h.lastCmd = &c

	handler := c.Command.Data.(func(*Host, selection) error)
	return handler(h, c)
}

// Break interrupts a running CPU. It is safe to call from any goroutine.
func (h *Host) Break() {
	h.interrupted.Store(true)
}

func (h *Host) print(args ...any) {
	fmt.Fprint(h.output, args...)
}

func (h *Host) printf(format string, args ...any) {
	h.output.WriteString(translate.From(format, args...))
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) prompt() {
	if h.interactive {
		h.print("* ")
		h.flush()
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.PC(), displayAll)
		h.println(d)
	}
}

// LoadBinary loads the raw contents of a binary file into memory at
// 'offset' and sets the program counter to 'pc'. A companion listing file
// with a .lst extension is loaded if present.
func (h *Host) LoadBinary(filename string, offset uint32, pc uint16) error {
	code, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	if err := h.cpu.LoadProgram(offset, code, pc); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(filename), err)
	}
	h.printf("Loaded '%s' to $%04X..$%04X.\n", filepath.Base(filename), offset, int(offset)+len(code)-1)

	ext := filepath.Ext(filename)
	listFilename := filename[:len(filename)-len(ext)] + ".lst"
	if b, err := os.ReadFile(listFilename); err == nil {
		h.listing = string(b)
		h.printf("Loaded '%s' listing.\n", filepath.Base(listFilename))
	} else {
		h.listing = ""
	}

	h.settings.NextDisasmAddr = pc
	return nil
}

// LoadSnapshot restores a session from a snapshot file.
func (h *Host) LoadSnapshot(filename string) error {
	s, err := snapshot.Load(filename)
	if err != nil {
		return err
	}
	if err := s.Restore(h.cpu); err != nil {
		return err
	}
	h.trace = s.Trace
	h.settings.NextDisasmAddr = h.cpu.PC()
	return nil
}

// SaveSnapshot writes the current session to a snapshot file.
func (h *Host) SaveSnapshot(filename string) error {
	return snapshot.Take(h.cpu, h.trace).Save(filename)
}

// Step executes up to 'count' instructions, stopping early on a breakpoint
// or an interrupt. It returns the first execution error.
func (h *Host) Step(count int) error {
	if count <= 0 {
		return nil
	}
	_, err := h.run(count, nil)
	if errors.Is(err, errInterrupted) {
		return nil
	}
	return err
}

// Execute one instruction, recording it in the trace when tracing is on.
func (h *Host) step() error {
	if err := h.cpu.Step(); err != nil {
		return err
	}
	if h.settings.TraceEnabled {
		h.appendTrace()
	}
	return nil
}

func (h *Host) appendTrace() {
	line, _ := h.disassemble(h.cpu.LastPC(), 0)
	line = strings.TrimRight(line, " ") + "  " + disasm.RegisterString(h.cpu.Registers())

	h.trace = append(h.trace, line)
	if limit := h.settings.TraceLimit; limit > 0 && len(h.trace) > limit {
		h.trace = h.trace[len(h.trace)-limit:]
	}
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	var line string
	line, next = disasm.Disassemble(h.mem, addr)
	code := disasm.Code(h.mem, addr)

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(code), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.RegisterString(h.cpu.Registers())
	}

	if (flags & displayCycles) != 0 {
		str += fmt.Sprintf(" C=%-12d", h.cpu.Cycles())
	}

	return str, next
}

// Read a byte for display purposes. Out-of-range addresses read as zero.
func (h *Host) peek(addr uint16) byte {
	v, _ := h.mem.Read(addr)
	return v
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := uint32(addr0), 6, 32; a <= uint32(addr1); a, c1, c2 = a+1, c1+3, c2+1 {
			m := h.peek(uint16(a))
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(string(buf))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := h.peek(a)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(string(buf))
	}
}

// Show the usage line of the selected command.
func (h *Host) displayUsage(c selection) {
	c.Command.DisplayUsage(h.output)
	h.flush()
}

func (h *Host) onBreakpoint(p *cpu.Processor, b *cpu.Breakpoint) {
	h.state = stateBreakpoint
	h.printf("Breakpoint hit at $%04X.\n", b.Address)
	h.displayPC()
}

func (h *Host) onDataBreakpoint(p *cpu.Processor, b *cpu.DataBreakpoint) {
	h.printf("Data breakpoint hit on address $%04X.\n", b.Address)

	h.state = stateBreakpoint

	if p.LastPC() != p.PC() {
		d, _ := h.disassemble(p.LastPC(), displayAll)
		h.println(d)
	}

	h.displayPC()
}
