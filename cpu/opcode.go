package cpu

import (
	"fmt"
)

// Op is a decoded operation from the modeled opcode table.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_SLL   = Op(0) // sll
	OP_J     = Op(1) // j
	OP_ADDIU = Op(2) // addiu
	OP_ORI   = Op(3) // ori
	OP_LUI   = Op(4) // lui
	OP_SW    = Op(5) // sw
)

// Primary opcode field values (bits 31-26).
const (
	OPCODE_SPECIAL = uint32(0b000000) // R-format family, dispatched on funct
	OPCODE_J       = uint32(0b000010)
	OPCODE_ADDIU   = uint32(0b001001)
	OPCODE_ORI     = uint32(0b001101)
	OPCODE_LUI     = uint32(0b001111)
	OPCODE_SW      = uint32(0b101011)
)

// Secondary funct field values (bits 5-0) under OPCODE_SPECIAL.
const (
	FUNCT_SLL = uint32(0b000000)
)

// Instruction is a raw 32-bit instruction word.
type Instruction uint32

// NOP is sll $0, $0, 0 - the all-zero word.
const NOP = Instruction(0)

// Opcode returns the primary 6-bit dispatch field (bits 31-26).
func (in Instruction) Opcode() uint32 {
	return uint32(in) >> 26
}

// Rs returns the source register index (bits 25-21).
func (in Instruction) Rs() uint32 {
	return (uint32(in) >> 21) & 0x1f
}

// Rt returns the second source (R-format) or destination (I-format)
// register index (bits 20-16).
func (in Instruction) Rt() uint32 {
	return (uint32(in) >> 16) & 0x1f
}

// Rd returns the R-format destination register index (bits 15-11).
func (in Instruction) Rd() uint32 {
	return (uint32(in) >> 11) & 0x1f
}

// Shamt returns the R-format shift amount (bits 10-6).
func (in Instruction) Shamt() uint32 {
	return (uint32(in) >> 6) & 0x1f
}

// Funct returns the secondary 6-bit dispatch field (bits 5-0).
func (in Instruction) Funct() uint32 {
	return uint32(in) & 0x3f
}

// Imm returns the 16-bit immediate, zero-extended.
func (in Instruction) Imm() uint32 {
	return uint32(in) & 0xffff
}

// ImmSE returns the 16-bit immediate, sign-extended by replicating
// bit 15 into bits 16-31.
func (in Instruction) ImmSE() uint32 {
	return uint32(int32(int16(uint32(in) & 0xffff)))
}

// Target returns the 26-bit J-format jump target (bits 25-0).
func (in Instruction) Target() uint32 {
	return uint32(in) & 0x3ffffff
}

// Decode maps the instruction word onto the modeled operation table.
// Words outside the table are a defined failure, never silently
// skipped.
func (in Instruction) Decode() (op Op, err error) {
	switch in.Opcode() {
	case OPCODE_SPECIAL:
		switch in.Funct() {
		case FUNCT_SLL:
			op = OP_SLL
		default:
			err = ErrIllegal(in)
		}
	case OPCODE_J:
		op = OP_J
	case OPCODE_ADDIU:
		op = OP_ADDIU
	case OPCODE_ORI:
		op = OP_ORI
	case OPCODE_LUI:
		op = OP_LUI
	case OPCODE_SW:
		op = OP_SW
	default:
		err = ErrIllegal(in)
	}

	return
}

// MakeSll encodes a logical left shift of rt by shamt into rd.
func MakeSll(rd, rt, shamt uint32) Instruction {
	return Instruction((OPCODE_SPECIAL << 26) | (rt << 16) | (rd << 11) | (shamt << 6) | FUNCT_SLL)
}

// MakeJ encodes an unconditional jump to a 26-bit word target.
func MakeJ(target uint32) Instruction {
	return Instruction((OPCODE_J << 26) | (target & 0x3ffffff))
}

// MakeAddiu encodes a wrapping add of rs and a sign-extended immediate
// into rt.
func MakeAddiu(rt, rs, imm uint32) Instruction {
	return Instruction((OPCODE_ADDIU << 26) | (rs << 21) | (rt << 16) | (imm & 0xffff))
}

// MakeOri encodes a bitwise OR of rs and a zero-extended immediate
// into rt.
func MakeOri(rt, rs, imm uint32) Instruction {
	return Instruction((OPCODE_ORI << 26) | (rs << 21) | (rt << 16) | (imm & 0xffff))
}

// MakeLui encodes a load of imm into the upper half of rt.
func MakeLui(rt, imm uint32) Instruction {
	return Instruction((OPCODE_LUI << 26) | (rt << 16) | (imm & 0xffff))
}

// MakeSw encodes a store of rt at rs plus a sign-extended offset.
func MakeSw(rt, rs, offset uint32) Instruction {
	return Instruction((OPCODE_SW << 26) | (rs << 21) | (rt << 16) | (offset & 0xffff))
}

// String returns the assembly language representation of this
// instruction. Words outside the opcode table render as raw data.
func (in Instruction) String() (out string) {
	op, err := in.Decode()
	if err != nil {
		return fmt.Sprintf(".word 0x%08x", uint32(in))
	}

	switch op {
	case OP_SLL:
		out = fmt.Sprintf("sll $%d, $%d, %d", in.Rd(), in.Rt(), in.Shamt())
	case OP_J:
		out = fmt.Sprintf("j 0x%x", in.Target()<<2)
	case OP_ADDIU:
		out = fmt.Sprintf("addiu $%d, $%d, %d", in.Rt(), in.Rs(), int32(in.ImmSE()))
	case OP_ORI:
		out = fmt.Sprintf("ori $%d, $%d, 0x%x", in.Rt(), in.Rs(), in.Imm())
	case OP_LUI:
		out = fmt.Sprintf("lui $%d, 0x%x", in.Rt(), in.Imm())
	case OP_SW:
		out = fmt.Sprintf("sw $%d, %d($%d)", in.Rt(), int32(in.ImmSE()), in.Rs())
	}

	return
}
