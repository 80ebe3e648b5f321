// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var errInterrupted = errors.New("interrupted")

// Names of the registers visible to expressions and scripts.
var registerNames = []string{"a", "x", "y", "sp", "pc"}

// Return the value of a register or status flag by name. Flags evaluate
// to 0 or 1.
func (h *Host) registerValue(name string) (int, bool) {
	r := h.cpu.Registers()
	switch strings.ToLower(name) {
	case "a":
		return int(r.A), true
	case "x":
		return int(r.X), true
	case "y":
		return int(r.Y), true
	case "sp":
		return int(r.SP), true
	case "pc", ".":
		return int(r.PC), true
	case "n", "negative":
		return boolToInt(r.Negative), true
	case "z", "zero":
		return boolToInt(r.Zero), true
	case "c", "carry":
		return boolToInt(r.Carry), true
	case "i", "interruptdisable":
		return boolToInt(r.InterruptDisable), true
	case "d", "decimal":
		return boolToInt(r.Decimal), true
	case "v", "overflow":
		return boolToInt(r.Overflow), true
	default:
		return 0, false
	}
}

// Assign a register or status flag by name.
func (h *Host) setRegister(name string, v int) error {
	r := h.cpu.Registers()

	byteReg := func(p *byte) error {
		if v < 0 || v > 0xff {
			return fmt.Errorf("value $%X out of range for register %s", v, strings.ToUpper(name))
		}
		*p = byte(v)
		return nil
	}

	var err error
	switch strings.ToLower(name) {
	case "a":
		err = byteReg(&r.A)
	case "x":
		err = byteReg(&r.X)
	case "y":
		err = byteReg(&r.Y)
	case "sp":
		err = byteReg(&r.SP)
	case "pc", ".":
		if v < 0 || v > 0xffff {
			return fmt.Errorf("value $%X out of range for register PC", v)
		}
		r.PC = uint16(v)
	case "n", "negative":
		r.Negative = v != 0
	case "z", "zero":
		r.Zero = v != 0
	case "c", "carry":
		r.Carry = v != 0
	case "i", "interruptdisable":
		r.InterruptDisable = v != 0
	case "d", "decimal":
		r.Decimal = v != 0
	case "v", "overflow":
		r.Overflow = v != 0
	default:
		return fmt.Errorf("unknown register '%s'", name)
	}
	if err != nil {
		return err
	}

	h.cpu.SetRegisters(r)
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Execute up to 'count' instructions, or without limit when count is 0.
// After each instruction 'each' is called, if non-nil, with the number of
// instructions left. Execution stops early when a breakpoint is hit, in
// which case brk is true, or when the user breaks in, returning
// errInterrupted.
func (h *Host) run(count int, each func(remaining int)) (brk bool, err error) {
	h.interrupted.Store(false)
	h.state = stateRunning
	defer func() { h.state = stateProcessingCommands }()

	for i := count - 1; count == 0 || i >= 0; i-- {
		if h.interrupted.Swap(false) {
			return false, errInterrupted
		}
		if err := h.step(); err != nil {
			return false, err
		}
		if each != nil {
			each(i)
		}
		if h.state == stateBreakpoint {
			return true, nil
		}
	}
	return false, nil
}

// Report the result of a run or step to the user.
func (h *Host) reportRun(err error) {
	switch {
	case err == nil:
	case errors.Is(err, errInterrupted):
		h.printf("Interrupted at $%04X.\n", h.cpu.PC())
	default:
		h.printf("ERROR: %v.\n", err)
	}
}

// Parse the address argument of a breakpoint command. When it is missing
// or invalid, a message is displayed and ok is false.
func (h *Host) addrArg(c selection) (addr uint16, ok bool) {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return 0, false
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return 0, false
	}
	return addr, true
}

func (h *Host) cmdHelp(c selection) error {
	err := cmds.GetHelp(h.output, c.Args)
	h.flush()
	if err != nil {
		h.printf("%v.\n", err)
	}
	return nil
}

func (h *Host) cmdBreakpointList(c selection) error {
	h.println("Addr  Enabled  Hits")
	h.println("----- -------  ----")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %-5v    %s\n", b.Address, !b.Disabled, strconv.Itoa(b.Hits))
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c selection) error {
	addr, ok := h.addrArg(c)
	if !ok {
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c selection) error {
	addr, ok := h.addrArg(c)
	if !ok {
		return nil
	}

	if h.debugger.GetBreakpoint(addr) == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveBreakpoint(addr)
	h.printf("Breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c selection) error {
	return h.enableBreakpoint(c, true)
}

func (h *Host) cmdBreakpointDisable(c selection) error {
	return h.enableBreakpoint(c, false)
}

func (h *Host) enableBreakpoint(c selection, enable bool) error {
	addr, ok := h.addrArg(c)
	if !ok {
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = !enable
	if enable {
		h.printf("Breakpoint at $%04X enabled.\n", addr)
	} else {
		h.printf("Breakpoint at $%04X disabled.\n", addr)
	}
	return nil
}

func (h *Host) cmdDataBreakpointList(c selection) error {
	h.println("Addr  Enabled  Value   Hits")
	h.println("----- -------  ------  ----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-5v    $%02X     %s\n", b.Address, !b.Disabled, b.Value, strconv.Itoa(b.Hits))
		} else {
			h.printf("$%04X %-5v    <none>  %s\n", b.Address, !b.Disabled, strconv.Itoa(b.Hits))
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c selection) error {
	addr, ok := h.addrArg(c)
	if !ok {
		return nil
	}

	if len(c.Args) > 1 {
		value, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if value > 0xff {
			h.printf("Value $%04X is not a byte.\n", value)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, byte(value))
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, value)
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}

	return nil
}

func (h *Host) cmdDataBreakpointRemove(c selection) error {
	addr, ok := h.addrArg(c)
	if !ok {
		return nil
	}

	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdDataBreakpointEnable(c selection) error {
	return h.enableDataBreakpoint(c, true)
}

func (h *Host) cmdDataBreakpointDisable(c selection) error {
	return h.enableDataBreakpoint(c, false)
}

func (h *Host) enableDataBreakpoint(c selection, enable bool) error {
	addr, ok := h.addrArg(c)
	if !ok {
		return nil
	}

	b := h.debugger.GetDataBreakpoint(addr)
	if b == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = !enable
	if enable {
		h.printf("Data breakpoint at $%04X enabled.\n", addr)
	} else {
		h.printf("Data breakpoint at $%04X disabled.\n", addr)
	}
	return nil
}

func (h *Host) cmdDisassemble(c selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	addr, err := h.parseAddr(c.Args[0], h.settings.NextDisasmAddr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr, 0)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", strconv.Itoa(lines)}
	return nil
}

func (h *Host) cmdEvaluate(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	v, err := h.parseExpr(strings.Join(c.Args, " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.printf("$%04X\n", v)
	return nil
}

func (h *Host) cmdExecute(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	file, err := os.Open(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	defer file.Close()

	interactive := h.interactive
	h.interactive = false
	defer func() { h.interactive = interactive }()

	return h.processCommands(bufio.NewScanner(file))
}

func (h *Host) cmdListing(c selection) error {
	if h.listing == "" {
		h.println("No listing loaded.")
		return nil
	}

	h.print(h.listing)
	if !strings.HasSuffix(h.listing, "\n") {
		h.print("\n")
	}
	h.flush()
	return nil
}

func (h *Host) cmdLoad(c selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	offset, err := h.parseExpr(c.Args[1])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	pc := offset
	if len(c.Args) > 2 {
		pc, err = h.parseExpr(c.Args[2])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	if err := h.LoadBinary(c.Args[0], uint32(offset), pc); err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.displayPC()
	return nil
}

func (h *Host) cmdMemoryDump(c selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	addr, err := h.parseAddr(c.Args[0], h.settings.NextMemDumpAddr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) > 1 {
		bytes, err = h.parseExpr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", strconv.Itoa(int(bytes))}
	return nil
}

func (h *Host) cmdMemorySet(c selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseExpr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	values := make([]byte, 0, len(c.Args)-1)
	for _, arg := range c.Args[1:] {
		v, err := h.parseExpr(arg)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if v > 0xff {
			h.printf("Value $%04X is not a byte.\n", v)
			return nil
		}
		values = append(values, byte(v))
	}

	if err := h.mem.Load(uint32(addr), values); err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.dumpMemory(addr, uint16(len(values)))
	return nil
}

func (h *Host) cmdMemoryClear(c selection) error {
	h.mem.Clear()
	h.println("Memory cleared.")
	return nil
}

func (h *Host) cmdQuit(c selection) error {
	return errQuit
}

func (h *Host) cmdRegister(c selection) error {
	switch len(c.Args) {
	case 0:
		d, _ := h.disassemble(h.cpu.PC(), displayAll)
		h.println(d)
		return nil
	case 1:
		h.displayUsage(c)
		return nil
	}

	name := c.Args[0]
	v, err := h.evalExpr(strings.Join(c.Args[1:], " "))
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if err := h.setRegister(name, int(v)); err != nil {
		h.printf("%v\n", err)
		return nil
	}

	switch strings.ToLower(name) {
	case "a", "x", "y", "sp":
		h.printf("Register %s set to $%02X.\n", strings.ToUpper(name), v)
	case "pc", ".":
		h.printf("Register PC set to $%04X.\n", v)
		h.settings.NextDisasmAddr = uint16(v)
	default:
		h.printf("Flag %s set to %v.\n", strings.ToUpper(name), v != 0)
	}
	return nil
}

func (h *Host) cmdReset(c selection) error {
	h.cpu.Reset()
	h.settings.NextDisasmAddr = 0
	h.println("CPU reset.")
	h.displayPC()
	return nil
}

func (h *Host) cmdRun(c selection) error {
	if len(c.Args) > 0 {
		pc, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(pc)
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.PC())

	brk, err := h.run(h.settings.RunSteps, nil)
	h.reportRun(err)
	if err == nil && !brk {
		h.printf("Stopped at $%04X.\n", h.cpu.PC())
	}

	h.settings.NextDisasmAddr = h.cpu.PC()
	return nil
}

func (h *Host) cmdScript(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	err := h.runScript(c.Args[0])
	switch {
	case errors.Is(err, errQuit):
		return errQuit
	case err != nil:
		h.printf("%v\n", err)
	}
	return nil
}

func (h *Host) cmdSet(c selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()
		return nil
	case 1:
		h.displayUsage(c)
		return nil
	}

	name, err := h.settings.Set(c.Args[0], strings.Join(c.Args[1:], " "), h.evalExpr)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("%s updated.\n", name)
	return nil
}

func (h *Host) cmdSnapshotSave(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if err := h.SaveSnapshot(c.Args[0]); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Snapshot saved to '%s'.\n", c.Args[0])
	return nil
}

func (h *Host) cmdSnapshotLoad(c selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if err := h.LoadSnapshot(c.Args[0]); err != nil {
		h.printf("%v\n", err)
		return nil
	}
	h.printf("Snapshot loaded from '%s'.\n", c.Args[0])
	h.displayPC()
	return nil
}

func (h *Host) cmdStep(c selection) error {
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		count = int(n)
	}
	if count == 0 {
		return nil
	}

	_, err := h.run(count, func(remaining int) {
		switch {
		case remaining == h.settings.MaxStepLines:
			if h.interactive {
				h.println("...")
			}
		case remaining < h.settings.MaxStepLines:
			h.displayPC()
		}
	})
	h.reportRun(err)

	h.settings.NextDisasmAddr = h.cpu.PC()
	return nil
}

func (h *Host) cmdTraceShow(c selection) error {
	if len(h.trace) == 0 {
		h.println("Trace is empty.")
		return nil
	}

	lines := h.trace
	if len(c.Args) > 0 {
		n, err := h.parseExpr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		if int(n) < len(lines) {
			lines = lines[len(lines)-int(n):]
		}
	}

	for _, l := range lines {
		h.println(l)
	}
	return nil
}

func (h *Host) cmdTraceClear(c selection) error {
	h.trace = nil
	h.println("Trace cleared.")
	return nil
}
