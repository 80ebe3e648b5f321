// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Run a Lua script file against the host. The script sees the functions
// step, peek, poke, reg, setreg, cycles and cmd, and its print output goes
// to the host's output. errQuit is returned if the script issues a quit
// command.
func (h *Host) runScript(filename string) error {
	L := lua.NewState()
	defer L.Close()

	quit := false
	h.registerLua(L, &quit)

	err := L.DoFile(filename)
	h.flush()
	if quit {
		return errQuit
	}
	return err
}

func (h *Host) registerLua(L *lua.LState, quit *bool) {
	fns := map[string]lua.LGFunction{
		"step": func(L *lua.LState) int {
			n := L.OptInt(1, 1)
			if err := h.Step(n); err != nil {
				L.RaiseError("%v", err)
			}
			L.Push(lua.LNumber(h.cpu.PC()))
			return 1
		},
		"peek": func(L *lua.LState) int {
			addr := luaAddress(L, 1)
			L.Push(lua.LNumber(h.peek(addr)))
			return 1
		},
		"poke": func(L *lua.LState) int {
			addr := luaAddress(L, 1)
			v := L.CheckInt(2)
			if v < 0 || v > 0xff {
				L.RaiseError("value %d is not a byte", v)
			}
			if err := h.mem.Write(addr, byte(v)); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"reg": func(L *lua.LState) int {
			name := L.CheckString(1)
			v, ok := h.registerValue(name)
			if !ok {
				L.RaiseError("unknown register '%s'", name)
			}
			L.Push(lua.LNumber(v))
			return 1
		},
		"setreg": func(L *lua.LState) int {
			if err := h.setRegister(L.CheckString(1), L.CheckInt(2)); err != nil {
				L.RaiseError("%v", err)
			}
			return 0
		},
		"cycles": func(L *lua.LState) int {
			L.Push(lua.LNumber(h.cpu.Cycles()))
			return 1
		},
		"cmd": func(L *lua.LState) int {
			err := h.dispatch(L.CheckString(1))
			if errors.Is(err, errQuit) {
				*quit = true
				L.RaiseError("quit")
			}
			return 0
		},
		"print": func(L *lua.LState) int {
			args := make([]string, L.GetTop())
			for i := range args {
				args[i] = L.ToStringMeta(L.Get(i + 1)).String()
			}
			h.print(strings.Join(args, "\t") + "\n")
			return 0
		},
	}
	for name, fn := range fns {
		L.SetGlobal(name, L.NewFunction(fn))
	}
}

func luaAddress(L *lua.LState, n int) uint16 {
	addr := L.CheckInt(n)
	if addr < 0 || addr > 0xffff {
		L.RaiseError("address $%X out of range", addr)
	}
	return uint16(addr)
}
