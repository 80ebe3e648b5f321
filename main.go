// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/beevik/sim6502/host"
	"github.com/beevik/term"
)

var (
	loadFile     string
	loadOffset   string
	loadPC       string
	steps        int
	trace        bool
	snapshotFile string
)

func init() {
	flag.StringVar(&loadFile, "load", "", "binary file to load")
	flag.StringVar(&loadOffset, "offset", "0", "memory offset of the loaded binary")
	flag.StringVar(&loadPC, "pc", "", "initial program counter (defaults to the offset)")
	flag.IntVar(&steps, "steps", 0, "execute this many instructions and exit")
	flag.BoolVar(&trace, "trace", false, "record an execution trace")
	flag.StringVar(&snapshotFile, "snapshot", "", "restore a session snapshot")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: sim6502 [options] [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("sim6502: ")
	flag.Parse()

	h := host.New()
	h.SetOutput(os.Stdout)
	h.EnableTrace(trace)

	if snapshotFile != "" {
		if err := h.LoadSnapshot(snapshotFile); err != nil {
			log.Fatalf("snapshot %s: %v", snapshotFile, err)
		}
	}

	if loadFile != "" {
		offset, err := parseNumber(loadOffset)
		if err != nil {
			log.Fatalf("-offset: %v", err)
		}
		pc := offset
		if loadPC != "" {
			if pc, err = parseNumber(loadPC); err != nil {
				log.Fatalf("-pc: %v", err)
			}
		}
		if err := h.LoadBinary(loadFile, uint32(offset), uint16(pc)); err != nil {
			log.Fatalf("load %s: %v", loadFile, err)
		}
	}

	// Batch mode: run a fixed number of instructions and dump the trace.
	if steps > 0 {
		err := h.Step(steps)
		for _, line := range h.Trace() {
			fmt.Println(line)
		}
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	// Run commands contained in command-line files.
	for _, filename := range flag.Args() {
		file, err := os.Open(filename)
		if err != nil {
			log.Fatal(err)
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively.
	h.RunCommands(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

// Parse a 16-bit number written in decimal, as 0x-prefixed hex or as
// $-prefixed hex.
func parseNumber(s string) (uint64, error) {
	if len(s) > 1 && s[0] == '$' {
		s = "0x" + s[1:]
	}
	return strconv.ParseUint(s, 0, 16)
}
