package cpu

import (
	"fmt"
	"log"

	"github.com/emufox/r3k/bus"
)

// RESET_VECTOR is the address execution starts from: the head of the
// boot ROM.
const RESET_VECTOR = uint32(0xbfc00000)

// POISON seeds the register file at reset so a read-before-write
// surfaces as a recognizable pattern instead of a silent zero. The
// real hardware leaves registers unspecified at reset.
const POISON = uint32(0x00facade)

// Cpu is the simulation context for the processor core. One core owns
// its bus exclusively; the cycle is single-issue and fully synchronous.
type Cpu struct {
	Verbose   bool // Set to enable verbose logging.
	ZeroReset bool // Zero-fill registers at reset instead of poisoning.

	Bus *bus.Bus // Memory interconnect for fetch, load and store.

	Pc uint32 // Address of the instruction about to retire.
	Hi uint32 // Division remainder / multiplication high word.
	Lo uint32 // Division quotient / multiplication low word.

	Ticks int // Instructions retired since reset.

	reg  [32]uint32  // General registers; reg[0] pinned to zero.
	next Instruction // Fetch lookahead: the delay-slot pipeline stage.
	npc  uint32      // Fetch address, one slot ahead of Pc.
}

// NewCpu creates a processor core attached to the given memory bus.
// Reset must run before the first Tick.
func NewCpu(b *bus.Bus) (cpu *Cpu) {
	cpu = &Cpu{
		Bus: b,
	}

	return
}

// Reset rewinds the core to the reset vector and primes the fetch
// lookahead with the first boot ROM word. The lookahead must hold a
// real instruction before the first Tick runs, so the initial fetch
// happens here rather than as a special case of cycle one.
func (cpu *Cpu) Reset() (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	fill := POISON
	if cpu.ZeroReset {
		fill = 0
	}
	for n := 1; n < len(cpu.reg); n++ {
		cpu.reg[n] = fill
	}
	cpu.reg[0] = 0
	cpu.Hi = fill
	cpu.Lo = fill
	cpu.Ticks = 0

	cpu.Pc = RESET_VECTOR
	cpu.npc = RESET_VECTOR + 4

	word, err := cpu.Bus.Load32(RESET_VECTOR)
	if err != nil {
		return
	}
	cpu.next = Instruction(word)

	return
}

// Reg returns the value of a general register.
func (cpu *Cpu) Reg(index uint32) uint32 {
	return cpu.reg[index]
}

// Regs returns a copy of the register file for inspection.
func (cpu *Cpu) Regs() [32]uint32 {
	return cpu.reg
}

// SetReg writes a general register. Writes to register 0 are silently
// discarded; every instruction handler funnels through here, which is
// what keeps the zero register pinned.
func (cpu *Cpu) SetReg(index uint32, value uint32) {
	if index == 0 {
		return
	}

	cpu.reg[index] = value
}

// Tick retires the instruction held in the lookahead slot while
// fetching its successor. The fetch address advances by 4 before
// dispatch; a jump handler overwrites the fetch address instead of Pc,
// which is how the instruction after the jump still executes before
// the jump takes effect.
//
// A fault aborts the remainder of the cycle and is surfaced to the
// caller, who decides whether to halt the run.
func (cpu *Cpu) Tick() (err error) {
	in := cpu.next
	pc := cpu.Pc

	word, err := cpu.Bus.Load32(cpu.npc)
	if err != nil {
		return
	}
	cpu.next = Instruction(word)
	cpu.Pc = cpu.npc
	cpu.npc += 4

	if cpu.Verbose {
		log.Printf("cpu: %08x: %v", pc, in)
	}

	err = cpu.Execute(in)
	if err != nil {
		return
	}

	cpu.Ticks++

	return
}

// Execute dispatches a single instruction word to its handler.
func (cpu *Cpu) Execute(in Instruction) (err error) {
	op, err := in.Decode()
	if err != nil {
		return
	}

	switch op {
	case OP_SLL:
		cpu.SetReg(in.Rd(), cpu.Reg(in.Rt())<<in.Shamt())
	case OP_J:
		// The jump replaces the low 28 bits of the fetch address;
		// the top nibble is outside its reach.
		cpu.npc = (cpu.npc & 0xf0000000) | (in.Target() << 2)
	case OP_ADDIU:
		// Wrapping add, no overflow trap.
		cpu.SetReg(in.Rt(), cpu.Reg(in.Rs())+in.ImmSE())
	case OP_ORI:
		cpu.SetReg(in.Rt(), cpu.Reg(in.Rs())|in.Imm())
	case OP_LUI:
		cpu.SetReg(in.Rt(), in.Imm()<<16)
	case OP_SW:
		err = cpu.Bus.Store32(cpu.Reg(in.Rs())+in.ImmSE(), cpu.Reg(in.Rt()))
	}

	return
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("   pc: %08x   hi: %08x   lo: %08x\n", cpu.Pc, cpu.Hi, cpu.Lo)
	for n := 0; n < len(cpu.reg); n += 4 {
		for m := n; m < n+4; m++ {
			text += fmt.Sprintf("  $%02d: %08x", m, cpu.reg[m])
		}
		text += "\n"
	}

	return
}
