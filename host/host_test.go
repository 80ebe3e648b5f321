// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/sim6502/translate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := translate.Use("en-US"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func runHost(h *Host, lines ...string) string {
	var out bytes.Buffer
	h.RunCommands(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, false)
	return out.String()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestEvaluate(t *testing.T) {
	h := New()
	r := h.cpu.Registers()
	r.A, r.PC = 0x10, 0x1234
	h.cpu.SetRegisters(r)
	require.NoError(t, h.mem.Write(0x2000, 0x7f))

	cases := []struct {
		expr string
		want string
	}{
		{"$10 + 2", "$0012"},
		{"0x100 * 2", "$0200"},
		{"(3 + 4) * 2", "$000E"},
		{"$ff & $0f", "$000F"},
		{"1 << 8", "$0100"},
		{"'A'", "$0041"},
		{"a + 1", "$0011"},
		{"PC", "$1234"},
		{"peek($2000)", "$007F"},
		{"-1", "$FFFF"},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			out := runHost(h, "evaluate "+c.expr)
			assert.Equal(t, c.want+"\n", out)
		})
	}
}

func TestParseExpr(t *testing.T) {
	h := New()

	v, err := h.parseExpr("$FFFF")
	require.NoError(t, err)
	assert.Equal(t, uint16(0xffff), v)

	_, err = h.parseExpr("$10000")
	assert.ErrorIs(t, err, errExprRange)

	_, err = h.parseExpr("1 +")
	assert.ErrorIs(t, err, errExprParse)

	_, err = h.parseExpr("")
	assert.ErrorIs(t, err, errExprParse)

	_, err = h.parseExpr("peek(70000)")
	assert.Error(t, err)

	h.cpu.SetPC(0x0600)
	a, err := h.parseAddr(".", 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0600), a)

	a, err = h.parseAddr("$", 0x1000)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1000), a)

	a, err = h.parseAddr("$", 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0600), a)
}

func TestMemorySetAndDump(t *testing.T) {
	h := New()

	out := runHost(h, "memory set $2000 $41 $42")
	assert.Contains(t, out, "2000- 41 42")
	assert.Contains(t, out, "AB")

	v, err := h.mem.Read(0x2001)
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), v)

	out = runHost(h, "memory dump $2000 16")
	assert.Contains(t, out, "2000- 41 42 00 00 00 00 00 00")
	assert.Contains(t, out, "2008- 00 00 00 00 00 00 00 00")
	assert.Equal(t, uint16(0x2010), h.settings.NextMemDumpAddr)

	out = runHost(h, "memory set $2000 $100")
	assert.Contains(t, out, "is not a byte")

	out = runHost(h, "memory clear")
	assert.Contains(t, out, "Memory cleared.")
	v, _ = h.mem.Read(0x2000)
	assert.Equal(t, byte(0), v)
}

func TestStepAndRegister(t *testing.T) {
	h := New()

	out := runHost(h,
		"memory set $1000 $a9 $05 $aa",
		"register pc $1000",
		"step 2",
	)
	assert.Contains(t, out, "Register PC set to $1000.")
	assert.Equal(t, byte(5), h.cpu.A())
	assert.Equal(t, byte(5), h.cpu.X())
	assert.Equal(t, uint16(0x1003), h.cpu.PC())
	assert.Equal(t, uint64(4), h.cpu.Cycles())
	assert.Equal(t, uint16(0x1003), h.settings.NextDisasmAddr)

	out = runHost(h, "register a $80", "register c 1", "register")
	assert.Contains(t, out, "Register A set to $80.")
	assert.Contains(t, out, "Flag C set to true.")
	assert.Contains(t, out, "A=80 X=05 Y=00 PS=[-----C] SP=FF PC=1003")

	out = runHost(h, "register a 300")
	assert.Contains(t, out, "out of range for register A")

	out = runHost(h, "register q 1")
	assert.Contains(t, out, "unknown register 'q'")
}

func TestStepError(t *testing.T) {
	h := New()
	h.cpu.SetPC(0x1000)

	out := runHost(h, "step")
	assert.Contains(t, out, "ERROR: instruction not implemented: BRK")
}

func TestRunUntilBreakpoint(t *testing.T) {
	h := New()

	out := runHost(h,
		"memory set $1000 $ea $ea $ea $ea",
		"breakpoint add $1002",
		"run $1000",
	)
	assert.Contains(t, out, "Breakpoint added at $1002.")
	assert.Contains(t, out, "Running from $1000.")
	assert.Contains(t, out, "Breakpoint hit at $1002.")
	assert.NotContains(t, out, "Stopped at")
	assert.Equal(t, uint16(0x1002), h.cpu.PC())

	b := h.debugger.GetBreakpoint(0x1002)
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Hits)

	out = runHost(h, "breakpoint list")
	assert.Contains(t, out, "$1002 true")

	out = runHost(h, "breakpoint disable $1002", "breakpoint remove $1002", "breakpoint remove $1002")
	assert.Contains(t, out, "Breakpoint at $1002 disabled.")
	assert.Contains(t, out, "Breakpoint at $1002 removed.")
	assert.Contains(t, out, "No breakpoint was set on $1002.")
}

func TestRunStopsOnError(t *testing.T) {
	h := New()

	out := runHost(h, "memory set $1000 $ea $02", "run $1000")
	assert.Contains(t, out, "ERROR: unsupported opcode")
	assert.Equal(t, uint16(0x1002), h.cpu.PC())
}

func TestRunStepLimit(t *testing.T) {
	h := New()

	// An endless loop: JMP $1000.
	out := runHost(h,
		"memory set $1000 $4c $00 $10",
		"set runsteps 5",
		"run $1000",
	)
	assert.Contains(t, out, "Stopped at $1000.")
	assert.Equal(t, uint64(15), h.cpu.Cycles())
}

func TestDataBreakpoint(t *testing.T) {
	h := New()

	// LDA #$42; STA $2000; NOP
	out := runHost(h,
		"memory set $1000 $a9 $42 $8d $00 $20 $ea",
		"databreakpoint add $2000 $42",
		"run $1000",
	)
	assert.Contains(t, out, "Conditional data breakpoint added at $2000 for value $42.")
	assert.Contains(t, out, "Data breakpoint hit on address $2000.")
	assert.Equal(t, uint16(0x1005), h.cpu.PC())
	assert.Equal(t, byte(0x42), h.peek(0x2000))

	out = runHost(h, "databreakpoint list")
	assert.Contains(t, out, "$2000 true     $42")

	out = runHost(h, "databreakpoint remove $2000", "databreakpoint enable $2000")
	assert.Contains(t, out, "Data breakpoint at $2000 removed.")
	assert.Contains(t, out, "No data breakpoint was set on $2000.")
}

func TestTrace(t *testing.T) {
	h := New()

	out := runHost(h, "trace show")
	assert.Contains(t, out, "Trace is empty.")

	out = runHost(h,
		"set traceenabled true",
		"memory set $1000 $a2 $07 $e8",
		"register pc $1000",
		"step 2",
	)
	assert.Contains(t, out, "TraceEnabled updated.")
	require.Len(t, h.Trace(), 2)
	assert.Contains(t, h.Trace()[0], "1000-   A2 07")
	assert.Contains(t, h.Trace()[0], "LDX #$07")
	assert.Contains(t, h.Trace()[1], "INX")
	assert.Contains(t, h.Trace()[1], "X=08")

	out = runHost(h, "trace show 1")
	assert.Contains(t, out, "INX")
	assert.NotContains(t, out, "LDX")

	runHost(h, "trace clear")
	assert.Empty(t, h.Trace())
}

func TestTraceLimit(t *testing.T) {
	h := New()
	h.EnableTrace(true)
	h.settings.TraceLimit = 3
	h.cpu.SetPC(0x1000)
	for a := uint16(0x1000); a < 0x1010; a++ {
		require.NoError(t, h.mem.Write(a, 0xea))
	}

	require.NoError(t, h.Step(10))
	require.Len(t, h.Trace(), 3)
	assert.True(t, strings.HasPrefix(h.Trace()[2], "1009-"))
}

func TestHostStep(t *testing.T) {
	h := New()
	h.cpu.SetPC(0x1000)
	require.NoError(t, h.mem.Write(0x1000, 0xea))

	require.NoError(t, h.Step(1))
	assert.Equal(t, uint16(0x1001), h.cpu.PC())

	err := h.Step(1)
	assert.Error(t, err)
}

func TestSettings(t *testing.T) {
	h := New()

	out := runHost(h, "set")
	assert.Contains(t, out, "MemDumpBytes")
	assert.Contains(t, out, "TraceLimit")

	assert.Contains(t, out, "1000000")
	assert.NotContains(t, out, "1,000,000")

	out = runHost(h, "set memdumpbytes 16", "set nextd $0600", "set tracee 1")
	assert.Contains(t, out, "MemDumpBytes updated.")
	assert.Contains(t, out, "NextDisasmAddr updated.")
	assert.Equal(t, 16, h.settings.MemDumpBytes)
	assert.Equal(t, uint16(0x0600), h.settings.NextDisasmAddr)
	assert.True(t, h.settings.TraceEnabled)

	out = runHost(h, "set bogus 1")
	assert.Contains(t, out, "setting 'bogus' not found")

	out = runHost(h, "set next 1")
	assert.Contains(t, out, "setting 'next' is ambiguous")

	out = runHost(h, "set traceenabled maybe")
	assert.Contains(t, out, "invalid bool value")

	out = runHost(h, "set nextmemdumpaddr $10000", "set disasmlines -1")
	assert.Contains(t, out, "out of range for NextMemDumpAddr")
	assert.Contains(t, out, "DisasmLines may not be negative")
	assert.Equal(t, 10, h.settings.DisasmLines)
}

func TestBreakpointListHits(t *testing.T) {
	h := New()

	runHost(h, "breakpoint add $1000", "databreakpoint add $2000", "databreakpoint add $2001 $7f")
	h.debugger.GetBreakpoint(0x1000).Hits = 12345
	h.debugger.GetDataBreakpoint(0x2000).Hits = 1000
	h.debugger.GetDataBreakpoint(0x2001).Hits = 2000

	out := runHost(h, "breakpoint list", "databreakpoint list")
	assert.Contains(t, out, "$1000 true     12345")
	assert.Contains(t, out, "$2000 true     <none>  1000")
	assert.Contains(t, out, "$2001 true     $7F     2000")
	assert.NotContains(t, out, ",")
}

func TestDisassemble(t *testing.T) {
	h := New()

	out := runHost(h,
		"memory set $0600 $a9 $01 $8d $00 $02",
		"disassemble $0600 2",
	)
	assert.Contains(t, out, "0600-   A9 01       LDA #$01")
	assert.Contains(t, out, "0602-   8D 00 02    STA $0200")
	assert.Equal(t, uint16(0x0605), h.settings.NextDisasmAddr)
}

func TestSnapshotCommands(t *testing.T) {
	h := New()
	path := filepath.Join(t.TempDir(), "session.snap")

	out := runHost(h,
		"memory set $1000 $a9 $33",
		"register pc $1000",
		"step",
		"snapshot save "+path,
	)
	assert.Contains(t, out, "Snapshot saved to")

	h2 := New()
	out = runHost(h2, "snapshot load "+path)
	assert.Contains(t, out, "Snapshot loaded from")
	assert.Equal(t, byte(0x33), h2.cpu.A())
	assert.Equal(t, uint16(0x1002), h2.cpu.PC())
	assert.Equal(t, uint64(2), h2.cpu.Cycles())
	assert.Equal(t, byte(0xa9), h2.peek(0x1000))

	out = runHost(h2, "snapshot load "+filepath.Join(t.TempDir(), "missing"))
	assert.NotContains(t, out, "Snapshot loaded")
}

func TestLoadBinary(t *testing.T) {
	h := New()
	dir := t.TempDir()
	bin := filepath.Join(dir, "prog.bin")
	require.NoError(t, os.WriteFile(bin, []byte{0xa9, 0x01, 0xea}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prog.lst"), []byte("0600 LDA #1\n0602 NOP\n"), 0o644))

	out := runHost(h, "load "+bin+" $0600", "listing")
	assert.Contains(t, out, "Loaded 'prog.bin' to $0600..$0602.")
	assert.Contains(t, out, "Loaded 'prog.lst' listing.")
	assert.Contains(t, out, "0602 NOP")
	assert.Equal(t, uint16(0x0600), h.cpu.PC())

	out = runHost(h, "load "+bin+" $fffe")
	assert.Contains(t, out, "prog.bin")
	assert.Equal(t, byte(0), h.peek(0xfffe))

	h2 := New()
	out = runHost(h2, "listing")
	assert.Contains(t, out, "No listing loaded.")
}

func TestScript(t *testing.T) {
	h := New()
	script := writeFile(t, "test.lua", []byte(`
poke(0x1000, 0xa9)
poke(0x1001, 0x07)
setreg("pc", 0x1000)
local pc = step(1)
print("A", reg("a"), cycles(), pc)
cmd("memory set $3000 $99")
`))

	out := runHost(h, "script "+script)
	assert.Contains(t, out, "A\t7\t2\t4098")
	assert.Equal(t, byte(0x99), h.peek(0x3000))

	bad := writeFile(t, "bad.lua", []byte(`poke(0x10000, 1)`))
	out = runHost(h, "script "+bad)
	assert.Contains(t, out, "out of range")
}

func TestScriptQuit(t *testing.T) {
	h := New()
	script := writeFile(t, "quit.lua", []byte(`cmd("quit")`))

	runHost(h, "script "+script, "memory set $2000 $01")
	assert.Equal(t, byte(0), h.peek(0x2000))
}

func TestExecute(t *testing.T) {
	h := New()
	file := writeFile(t, "cmds.txt", []byte("# setup\nmemory set $2000 $05\nregister x $09\n"))

	out := runHost(h, "execute "+file)
	assert.Contains(t, out, "Register X set to $09.")
	assert.Equal(t, byte(5), h.peek(0x2000))
	assert.Equal(t, byte(9), h.cpu.X())
}

func TestQuit(t *testing.T) {
	h := New()
	runHost(h, "quit", "memory set $2000 $01")
	assert.Equal(t, byte(0), h.peek(0x2000))
}

func TestReset(t *testing.T) {
	h := New()
	runHost(h, "memory set $1000 $e8", "register pc $1000", "step")
	require.Equal(t, byte(1), h.cpu.X())

	out := runHost(h, "reset")
	assert.Contains(t, out, "CPU reset.")
	assert.Equal(t, byte(0), h.cpu.X())
	assert.Equal(t, uint16(0), h.cpu.PC())
	assert.Equal(t, uint64(0), h.cpu.Cycles())
	assert.Equal(t, byte(0xe8), h.peek(0x1000))
}

func TestHelp(t *testing.T) {
	h := New()

	out := runHost(h, "help")
	assert.Contains(t, out, "sim6502 commands:")
	assert.Contains(t, out, "breakpoint")
	assert.Contains(t, out, "disassemble")

	out = runHost(h, "help step")
	assert.Contains(t, out, "Usage: step [<count>]")
	assert.Contains(t, out, "Description:")
	assert.Contains(t, out, "Shortcut: s")

	out = runHost(h, "help register")
	assert.Contains(t, out, "Shortcuts: ., r")

	out = runHost(h, "help breakpoint")
	assert.Contains(t, out, "breakpoint commands:")
	assert.Contains(t, out, "add")
	assert.Contains(t, out, "disable")

	out = runHost(h, "help ba")
	assert.Contains(t, out, "Usage: breakpoint add <address>")

	out = runHost(h, "help frobnicate")
	assert.Contains(t, out, "Command not found.")

	out = runHost(h, "evaluate")
	assert.Contains(t, out, "Usage: evaluate <expression>")

	out = runHost(h, "breakpoint add")
	assert.Contains(t, out, "Usage: breakpoint add <address>")
}

func TestSubtreeShowsHelp(t *testing.T) {
	h := New()
	out := runHost(h, "memory")
	assert.Contains(t, out, "memory commands:")
	assert.Contains(t, out, "Dump memory at address")
	assert.Contains(t, out, "Clear all memory")
}

func TestShortcuts(t *testing.T) {
	h := New()
	out := runHost(h, "ms $1000 $e8", ". pc $1000", "s", "bl")
	assert.Contains(t, out, "Register PC set to $1000.")
	assert.Contains(t, out, "Addr  Enabled  Hits")
	assert.Equal(t, byte(1), h.cpu.X())

	out = runHost(h, "b")
	assert.Contains(t, out, "Command is ambiguous.")
}

func TestUnknownCommand(t *testing.T) {
	h := New()
	out := runHost(h, "frobnicate")
	assert.Contains(t, out, "Command not found.")
}

func TestRepeatLastCommand(t *testing.T) {
	h := New()
	runHost(h, "memory set $1000 $e8 $e8", "register pc $1000", "step", "")
	assert.Equal(t, byte(2), h.cpu.X())
}
