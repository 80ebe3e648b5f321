// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"

	"github.com/beevik/cmd"
)

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "sim6502"})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})

	// Breakpoint commands
	bp := root.AddSubtree(cmd.TreeDescriptor{Name: "breakpoint", Brief: "Breakpoint commands"})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List breakpoints",
		Description: "List all current breakpoints.",
		Usage:       "breakpoint list",
		Data:        (*Host).cmdBreakpointList,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a breakpoint",
		Description: "Add a breakpoint at the specified address." +
			" The breakpoint starts enabled.",
		Usage: "breakpoint add <address>",
		Data:  (*Host).cmdBreakpointAdd,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a breakpoint",
		Description: "Remove a breakpoint at the specified address.",
		Usage:       "breakpoint remove <address>",
		Data:        (*Host).cmdBreakpointRemove,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a breakpoint",
		Description: "Enable a previously added breakpoint.",
		Usage:       "breakpoint enable <address>",
		Data:        (*Host).cmdBreakpointEnable,
	})
	bp.AddCommand(cmd.CommandDescriptor{
		Name:  "disable",
		Brief: "Disable a breakpoint",
		Description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the" +
			" CPU.",
		Usage: "breakpoint disable <address>",
		Data:  (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	db := root.AddSubtree(cmd.TreeDescriptor{Name: "databreakpoint", Brief: "Data breakpoint commands"})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List data breakpoints",
		Description: "List all current data breakpoints.",
		Usage:       "databreakpoint list",
		Data:        (*Host).cmdDataBreakpointList,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a data breakpoint",
		Description: "Add a new data breakpoint at the specified" +
			" memory address. When the CPU stores data at this address, the" +
			" breakpoint will stop the CPU. Optionally, a byte" +
			" value may be specified, and the CPU will stop only" +
			" when this value is stored. The data breakpoint starts" +
			" enabled.",
		Usage: "databreakpoint add <address> [<value>]",
		Data:  (*Host).cmdDataBreakpointAdd,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:  "remove",
		Brief: "Remove a data breakpoint",
		Description: "Remove a previously added data breakpoint at" +
			" the specified memory address.",
		Usage: "databreakpoint remove <address>",
		Data:  (*Host).cmdDataBreakpointRemove,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a data breakpoint",
		Description: "Enable a previously added data breakpoint.",
		Usage:       "databreakpoint enable <address>",
		Data:        (*Host).cmdDataBreakpointEnable,
	})
	db.AddCommand(cmd.CommandDescriptor{
		Name:        "disable",
		Brief:       "Disable a data breakpoint",
		Description: "Disable a previously added data breakpoint.",
		Usage:       "databreakpoint disable <address>",
		Data:        (*Host).cmdDataBreakpointDisable,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble machine code starting at the requested" +
			" address. The number of instruction lines to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		Usage: "disassemble [<address>] [<lines>]",
		Data:  (*Host).cmdDisassemble,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "evaluate",
		Brief: "Evaluate an expression",
		Description: "Evaluate an arithmetic expression. Hexadecimal values" +
			" may be written as $FF or 0xFF. The registers a, x, y, sp and pc" +
			" and the function peek(addr) may be used.",
		Usage: "evaluate <expression>",
		Data:  (*Host).cmdEvaluate,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "execute",
		Brief: "Execute a command file",
		Description: "Load a file of host commands from disk and execute the" +
			" commands it contains.",
		Usage: "execute <filename>",
		Data:  (*Host).cmdExecute,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "listing",
		Brief: "Display the program listing",
		Description: "Display the listing file loaded alongside the most" +
			" recently loaded binary, if one was found.",
		Usage: "listing",
		Data:  (*Host).cmdListing,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a binary file",
		Description: "Load the raw contents of a binary file into the emulated" +
			" system's memory at the specified offset, and set the program" +
			" counter. The program counter defaults to the load offset. If a" +
			" listing file with the same name and a .lst extension exists, it" +
			" is loaded too.",
		Usage: "load <filename> <offset> [<pc>]",
		Data:  (*Host).cmdLoad,
	})

	// Memory commands
	me := root.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory at address",
		Description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option. If no address is specified, the" +
			" memory dump continues from where the last dump left off.",
		Usage: "memory dump [<address>] [<bytes>]",
		Data:  (*Host).cmdMemoryDump,
	})
	me.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set memory at address",
		Description: "Set the contents of memory starting from the specified" +
			" address. The values to assign should be a series of" +
			" space-separated byte values. You may use an expression for each" +
			" byte value.",
		Usage: "memory set <address> <byte> [<byte> ...]",
		Data:  (*Host).cmdMemorySet,
	})
	me.AddCommand(cmd.CommandDescriptor{
		Name:        "clear",
		Brief:       "Clear all memory",
		Description: "Reset every byte of memory to zero.",
		Usage:       "memory clear",
		Data:        (*Host).cmdMemoryClear,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "register",
		Brief: "View or change register values",
		Description: "When used without arguments, this command displays the current" +
			" contents of the CPU registers. When used with arguments, this" +
			" command changes the value of a register or one of the CPU's status" +
			" flags. Allowed register names include A, X, Y, PC and SP. Allowed status" +
			" flag names include N (Negative), Z (Zero), C (Carry), I (InterruptDisable)," +
			" D (Decimal) and V (Overflow).",
		Usage: "register [<name> <value>]",
		Data:  (*Host).cmdRegister,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:        "reset",
		Brief:       "Reset the CPU",
		Description: "Reset all registers, flags and cycle counters. Memory is unchanged.",
		Usage:       "reset",
		Data:        (*Host).cmdReset,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "run",
		Brief: "Run the CPU",
		Description: "Run the CPU until a breakpoint is hit, an instruction" +
			" fails, or the user types Ctrl-C. An optional start address may" +
			" be specified.",
		Usage: "run [<address>]",
		Data:  (*Host).cmdRun,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "script",
		Brief: "Run a Lua script",
		Description: "Run a Lua script that drives the emulator. Scripts may" +
			" call step(n), peek(addr), poke(addr, v), reg(name)," +
			" setreg(name, v), cycles() and cmd(line).",
		Usage: "script <filename>",
		Data:  (*Host).cmdScript,
	})
	root.AddCommand(cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a configuration variable",
		Description: "Set the value of a configuration variable. To see the" +
			" current values of all configuration variables, type set" +
			" without any arguments.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})

	// Snapshot commands
	sn := root.AddSubtree(cmd.TreeDescriptor{Name: "snapshot", Brief: "Snapshot commands"})
	sn.AddCommand(cmd.CommandDescriptor{
		Name:  "save",
		Brief: "Save the session to a file",
		Description: "Save memory, registers, cycle counters and the" +
			" execution trace to a snapshot file.",
		Usage: "snapshot save <filename>",
		Data:  (*Host).cmdSnapshotSave,
	})
	sn.AddCommand(cmd.CommandDescriptor{
		Name:        "load",
		Brief:       "Load the session from a file",
		Description: "Restore a session previously saved with snapshot save.",
		Usage:       "snapshot load <filename>",
		Data:        (*Host).cmdSnapshotLoad,
	})

	root.AddCommand(cmd.CommandDescriptor{
		Name:  "step",
		Brief: "Step the CPU",
		Description: "Step the CPU by a single instruction. The number of" +
			" steps may be specified as an option.",
		Usage: "step [<count>]",
		Data:  (*Host).cmdStep,
	})

	// Trace commands
	tr := root.AddSubtree(cmd.TreeDescriptor{Name: "trace", Brief: "Execution trace commands"})
	tr.AddCommand(cmd.CommandDescriptor{
		Name:  "show",
		Brief: "Show the execution trace",
		Description: "Display the most recently executed instructions. Tracing" +
			" is enabled with the TraceEnabled setting.",
		Usage: "trace show [<count>]",
		Data:  (*Host).cmdTraceShow,
	})
	tr.AddCommand(cmd.CommandDescriptor{
		Name:        "clear",
		Brief:       "Clear the execution trace",
		Description: "Discard all recorded trace lines.",
		Usage:       "trace clear",
		Data:        (*Host).cmdTraceClear,
	})

	// Shortcuts resolve to commands only. Subtrees are reached by their
	// own unique prefixes.
	shortcuts := []struct{ name, target string }{
		{"ba", "breakpoint add"},
		{"br", "breakpoint remove"},
		{"bl", "breakpoint list"},
		{"be", "breakpoint enable"},
		{"bd", "breakpoint disable"},
		{"d", "disassemble"},
		{"dbl", "databreakpoint list"},
		{"dba", "databreakpoint add"},
		{"dbr", "databreakpoint remove"},
		{"dbe", "databreakpoint enable"},
		{"dbd", "databreakpoint disable"},
		{"e", "evaluate"},
		{"m", "memory dump"},
		{"ms", "memory set"},
		{"r", "register"},
		{"s", "step"},
		{"t", "trace show"},
		{"?", "help"},
		{".", "register"},
	}
	for _, sc := range shortcuts {
		if err := root.AddShortcut(sc.name, sc.target); err != nil {
			panic(fmt.Sprintf("shortcut %s: %v", sc.name, err))
		}
	}

	cmds = root
}
