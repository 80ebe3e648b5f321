// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// Host variables adjustable with the set command. Each exported field is a
// variable, named by the field and described by its doc tag.
type settings struct {
	MemDumpBytes    int    `doc:"default number of memory bytes to dump"`
	DisasmLines     int    `doc:"default number of lines to disassemble"`
	MaxStepLines    int    `doc:"max lines to disassemble when stepping"`
	RunSteps        int    `doc:"instruction limit for the run command"`
	TraceEnabled    bool   `doc:"record executed instructions"`
	TraceLimit      int    `doc:"max trace lines retained"`
	NextDisasmAddr  uint16 `doc:"address of next disassembly"`
	NextMemDumpAddr uint16 `doc:"address of next memory dump"`
}

func newSettings() *settings {
	return &settings{
		MemDumpBytes: 64,
		DisasmLines:  10,
		MaxStepLines: 20,
		RunSteps:     1000000,
		TraceLimit:   1000,
	}
}

// A variable describes one settings field.
type variable struct {
	name  string
	index []int
	doc   string
}

var (
	variables      []*variable
	variablesByKey = prefixtree.New[*variable]()
)

func init() {
	for _, f := range reflect.VisibleFields(reflect.TypeFor[settings]()) {
		v := &variable{name: f.Name, index: f.Index, doc: f.Tag.Get("doc")}
		variables = append(variables, v)
		variablesByKey.Add(strings.ToLower(f.Name), v)
	}
}

// Find the variable uniquely identified by a case-insensitive prefix of
// its name.
func findVariable(key string) (*variable, error) {
	v, err := variablesByKey.FindValue(strings.ToLower(key))
	switch {
	case errors.Is(err, prefixtree.ErrPrefixAmbiguous):
		return nil, fmt.Errorf("setting '%s' is ambiguous", key)
	case err != nil:
		return nil, fmt.Errorf("setting '%s' not found", key)
	}
	return v, nil
}

// Display writes one line per variable: its name, value and description.
func (s *settings) Display(w io.Writer) {
	fields := reflect.ValueOf(s).Elem()
	for _, v := range variables {
		value := formatValue(fields.FieldByIndex(v.index))
		fmt.Fprintf(w, "    %-16s %-10s (%s)\n", v.name, value, v.doc)
	}
}

func formatValue(f reflect.Value) string {
	switch f.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(f.Bool())
	case reflect.Uint16:
		return fmt.Sprintf("$%04X", f.Uint())
	default:
		return strconv.FormatInt(f.Int(), 10)
	}
}

// Set parses 'value' and assigns it to the variable matching 'key'.
// Numeric values are computed by 'eval'. The variable's full name is
// returned.
func (s *settings) Set(key, value string, eval func(string) (int64, error)) (string, error) {
	v, err := findVariable(key)
	if err != nil {
		return "", err
	}

	f := reflect.ValueOf(s).Elem().FieldByIndex(v.index)
	switch f.Kind() {
	case reflect.Bool:
		b, err := stringToBool(value)
		if err != nil {
			return "", err
		}
		f.SetBool(b)

	case reflect.Uint16:
		n, err := eval(value)
		if err != nil {
			return "", err
		}
		if n < 0 || n > 0xffff {
			return "", fmt.Errorf("value %d out of range for %s", n, v.name)
		}
		f.SetUint(uint64(n))

	case reflect.Int:
		n, err := eval(value)
		if err != nil {
			return "", err
		}
		if n < 0 {
			return "", fmt.Errorf("%s may not be negative", v.name)
		}
		f.SetInt(n)

	default:
		return "", fmt.Errorf("setting '%s' has unsupported type %s", v.name, f.Type())
	}
	return v.name, nil
}
