package cpu

import (
	"encoding/binary"
	"iter"

	"github.com/emufox/r3k/bus"
)

// Opcode represents a line of assembled code with its source location
// and generated instruction.
type Opcode struct {
	LineNo    int
	Addr      uint32
	Words     []string
	Codes     []Instruction
	LinkLabel string // Unresolved jump target, patched by the link pass.
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Debug ties an address back to its source opcode.
type Debug struct {
	*Opcode
	Index int
}

// Debug locates the opcode covering an address.
func (prog *Program) Debug(addr uint32) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && addr < op.Addr+uint32(len(op.Codes))*4 {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr-op.Addr) / 4,
			}
			break
		}
	}

	return
}

// Codes iterates (address, instruction) over the whole listing.
func (prog *Program) Codes() iter.Seq2[uint32, Instruction] {
	return func(yield func(addr uint32, code Instruction) bool) {
		for _, op := range prog.Opcodes {
			for n, code := range op.Codes {
				if !yield(op.Addr+uint32(n)*4, code) {
					return
				}
			}
		}
	}
}

// Binary returns the raw instruction words in listing order.
func (prog *Program) Binary() (bins []uint32) {
	for _, code := range prog.Codes() {
		bins = append(bins, uint32(code))
	}

	return
}

// Rom pads the assembled program into a full boot ROM image. Every
// instruction must land inside the boot ROM region once its address is
// collapsed onto the physical map.
func (prog *Program) Rom() (data []byte, err error) {
	data = make([]byte, bus.BIOS_SIZE)

	for addr, code := range prog.Codes() {
		phys := bus.Mask(addr)
		if !bus.BIOS_RANGE.Contains(phys) {
			err = ErrOriginRange
			return
		}
		binary.LittleEndian.PutUint32(data[bus.BIOS_RANGE.Offset(phys):], uint32(code))
	}

	return
}
