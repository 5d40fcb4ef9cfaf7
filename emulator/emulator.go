// Package emulator wires one processor core to one memory bus and
// drives the run loop. It also owns the loader side of the boot ROM
// contract: reading an image from disk and handing the bus exactly the
// bytes it expects.
package emulator

import (
	"github.com/emufox/r3k/bus"
	"github.com/emufox/r3k/cpu"
)

// Emulator state: CPU + bus + an optional source listing for
// line-level diagnostics.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the processor core.

	Bus     *bus.Bus     // Memory interconnect shared with the core.
	Program *cpu.Program // Listing of the booted program, when assembled locally.
}

// NewEmulator creates a new emulator with empty RAM and no boot ROM
// attached.
func NewEmulator() (emu *Emulator) {
	b := bus.NewBus()
	emu = &Emulator{
		Bus: b,
		Cpu: cpu.NewCpu(b),
	}

	return
}

// BootProgram installs an assembled listing as the boot ROM image and
// keeps the listing around for diagnostics.
func (emu *Emulator) BootProgram(prog *cpu.Program) (err error) {
	data, err := prog.Rom()
	if err != nil {
		return
	}

	err = emu.Bus.AttachBios(data)
	if err != nil {
		return
	}
	emu.Program = prog

	return
}

// Reset rewinds the core to the reset vector. A boot ROM must be
// attached first.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	return emu.Cpu.Reset()
}

// LineNo returns the source line of the instruction about to retire,
// or 0 when no listing covers it.
func (emu *Emulator) LineNo() (lineno int) {
	if emu.Program == nil {
		return
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode != nil {
		lineno = dbg.LineNo
	}

	return
}

// Tick performs a single cycle of the emulator, decorating any fault
// with its source line when a listing is attached.
func (emu *Emulator) Tick() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	err = emu.Cpu.Tick()
	if err != nil && lineno != 0 {
		err = &ErrRuntime{LineNo: lineno, Err: err}
	}

	return
}

// Run executes up to limit cycles, stopping at the first fault. A
// limit of 0 or less runs until a fault occurs.
func (emu *Emulator) Run(limit int) (err error) {
	for n := 0; limit <= 0 || n < limit; n++ {
		err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}
