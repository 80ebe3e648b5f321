// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/sim6502/cpu"

// The debugHandler receives breakpoint notifications from the processor's
// debugger and forwards them to the host.
type debugHandler struct {
	host *Host
}

func newDebugHandler(h *Host) *debugHandler {
	return &debugHandler{host: h}
}

func (d *debugHandler) OnBreakpoint(p *cpu.Processor, b *cpu.Breakpoint) {
	d.host.onBreakpoint(p, b)
}

func (d *debugHandler) OnDataBreakpoint(p *cpu.Processor, b *cpu.DataBreakpoint) {
	d.host.onDataBreakpoint(p, b)
}
