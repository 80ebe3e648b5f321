// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var (
	errExprParse = errors.New("expression syntax error")
	errExprRange = errors.New("expression value out of range")
)

var (
	hexLiteral  = regexp.MustCompile(`\$([0-9a-fA-F]+)`)
	charLiteral = regexp.MustCompile(`'[^'\\]'`)
)

// Rewrite 6502-style literals into starlark syntax: $hex becomes 0xhex and
// a quoted character becomes its code.
func rewriteLiterals(expr string) string {
	expr = hexLiteral.ReplaceAllString(expr, "0x$1")
	return charLiteral.ReplaceAllStringFunc(expr, func(s string) string {
		return strconv.Itoa(int(s[1]))
	})
}

// The names predeclared for every expression: the CPU registers in upper
// and lower case plus a peek builtin for reading memory.
func (h *Host) exprGlobals() starlark.StringDict {
	g := starlark.StringDict{}
	for _, name := range registerNames {
		v, _ := h.registerValue(name)
		g[name] = starlark.MakeInt(v)
		g[strings.ToUpper(name)] = starlark.MakeInt(v)
	}
	g["peek"] = starlark.NewBuiltin("peek", h.starlarkPeek)
	return g
}

func (h *Host) starlarkPeek(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var addr int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &addr); err != nil {
		return nil, err
	}
	if addr < 0 || addr > 0xffff {
		return nil, fmt.Errorf("%w: $%X", errExprRange, addr)
	}
	return starlark.MakeInt(int(h.peek(uint16(addr)))), nil
}

// Evaluate an integer expression.
func (h *Host) evalExpr(expr string) (int64, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, errExprParse
	}

	thread := starlark.Thread{Name: "expr"}
	opts := syntax.FileOptions{}
	prog := "rc=" + rewriteLiterals(expr) + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, h.exprGlobals())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errExprParse, err)
	}

	rc, ok := dict["rc"].(starlark.Int)
	if !ok {
		return 0, errExprParse
	}
	v, ok := rc.Int64()
	if !ok {
		return 0, errExprRange
	}
	return v, nil
}

// Evaluate an expression yielding a 16-bit address or value. Negative
// results wrap into the 16-bit range.
func (h *Host) parseExpr(expr string) (uint16, error) {
	v, err := h.evalExpr(expr)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v += 0x10000
	}
	if v < 0 || v > 0xffff {
		return 0, errExprRange
	}
	return uint16(v), nil
}

// Parse an address argument. "." is the program counter and "$" is 'next',
// or the program counter when 'next' is unset.
func (h *Host) parseAddr(arg string, next uint16) (uint16, error) {
	switch arg {
	case ".":
		return h.cpu.PC(), nil
	case "$":
		if next == 0 {
			return h.cpu.PC(), nil
		}
		return next, nil
	default:
		return h.parseExpr(arg)
	}
}
