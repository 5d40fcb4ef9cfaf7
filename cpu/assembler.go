package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Assembler is a single pass assembler for the modeled instruction
// subset. Jumps to labels are resolved in a link pass after parsing.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Origin  uint32 // Load address of the first instruction; the reset vector when zero.

	Label  map[string]uint32 // Map of labels to instruction addresses.
	Equate map[string]string // Map of equates.
}

// Register names: numeric $0-$31 plus the conventional ABI aliases.
var regMap = map[string]uint32{
	"zero": 0, "at": 1,
	"v0": 2, "v1": 3,
	"a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11,
	"t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19,
	"s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25,
	"k0": 26, "k1": 27,
	"gp": 28, "sp": 29, "fp": 30, "ra": 31,
}

// regOf returns the register index for a $-prefixed operand.
func (asm *Assembler) regOf(word string) (reg uint32, err error) {
	if len(word) < 2 || word[0] != '$' {
		err = ErrRegisterInvalid
		return
	}

	name := word[1:]
	reg, ok := regMap[name]
	if ok {
		return
	}

	v64, perr := strconv.ParseUint(name, 10, 8)
	if perr != nil || v64 > 31 {
		err = ErrRegisterInvalid
		return
	}
	reg = uint32(v64)

	return
}

// valueOf returns the numeric value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil || value > 0xffffffff || value < -int64(0x80000000) {
		err = ErrParseNumber(word)
		return
	}

	return
}

// parenEval does compile-time $(...) evaluations over the equate
// table.
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value64, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates. They may be register
			// names or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint32(st_int64)

	return
}

// parseLine strips comments, evaluates $() expressions, substitutes
// equates, and splits a line into words.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	if idx := strings.IndexAny(line, ";#"); idx >= 0 {
		line = line[:idx]
	}

	// Do $() evaluations
	re := regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%#v", value)
	})
	if err != nil {
		return
	}

	line = strings.ReplaceAll(line, ",", " ")
	words = strings.Fields(line)

	for n, word := range words {
		if equ, ok := asm.Equate[word]; ok {
			words[n] = equ
		}
	}

	return
}

// immOf returns the low 16 bits of an immediate operand, range-checked
// between the signed and unsigned 16-bit bounds.
func (asm *Assembler) immOf(word string, signed bool) (imm uint32, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	lo := int64(0)
	if signed {
		lo = -0x8000
	}
	if value < lo || value > 0xffff {
		err = ErrImmediateRange
		return
	}
	imm = uint32(value) & 0xffff

	return
}

var memRe = regexp.MustCompile(`^(.*)\((\$\w+)\)$`)

// encode translates one line of words into instruction codes, or a
// jump that still needs its label linked.
func (asm *Assembler) encode(words []string, pc uint32) (codes []Instruction, link string, err error) {
	operands := words[1:]

	need := func(count int) bool {
		if len(operands) != count {
			err = ErrOperandCount
		}
		return err == nil
	}

	switch words[0] {
	case "nop":
		if need(0) {
			codes = []Instruction{NOP}
		}
	case "sll":
		if need(3) {
			var rd, rt uint32
			var shamt int64
			rd, err = asm.regOf(operands[0])
			if err == nil {
				rt, err = asm.regOf(operands[1])
			}
			if err == nil {
				shamt, err = asm.valueOf(operands[2])
			}
			if err == nil && (shamt < 0 || shamt > 31) {
				err = ErrShiftRange
			}
			if err == nil {
				codes = []Instruction{MakeSll(rd, rt, uint32(shamt))}
			}
		}
	case "lui":
		if need(2) {
			var rt, imm uint32
			rt, err = asm.regOf(operands[0])
			if err == nil {
				imm, err = asm.immOf(operands[1], false)
			}
			if err == nil {
				codes = []Instruction{MakeLui(rt, imm)}
			}
		}
	case "ori":
		if need(3) {
			var rt, rs, imm uint32
			rt, err = asm.regOf(operands[0])
			if err == nil {
				rs, err = asm.regOf(operands[1])
			}
			if err == nil {
				imm, err = asm.immOf(operands[2], false)
			}
			if err == nil {
				codes = []Instruction{MakeOri(rt, rs, imm)}
			}
		}
	case "addiu":
		if need(3) {
			var rt, rs, imm uint32
			rt, err = asm.regOf(operands[0])
			if err == nil {
				rs, err = asm.regOf(operands[1])
			}
			if err == nil {
				imm, err = asm.immOf(operands[2], true)
			}
			if err == nil {
				codes = []Instruction{MakeAddiu(rt, rs, imm)}
			}
		}
	case "sw":
		if need(2) {
			match := memRe.FindStringSubmatch(operands[1])
			if match == nil {
				err = ErrOperandCount
				break
			}
			var rt, rs, offset uint32
			rt, err = asm.regOf(operands[0])
			if err == nil {
				rs, err = asm.regOf(match[2])
			}
			if err == nil {
				offset, err = asm.immOf(match[1], true)
			}
			if err == nil {
				codes = []Instruction{MakeSw(rt, rs, offset)}
			}
		}
	case "j":
		if need(1) {
			target, verr := asm.valueOf(operands[0])
			if verr != nil {
				// Not a number: a label for the link pass.
				link = operands[0]
				codes = []Instruction{MakeJ(0)}
				break
			}
			var code Instruction
			code, err = linkJump(pc, uint32(target))
			if err == nil {
				codes = []Instruction{code}
			}
		}
	case ".word":
		if len(operands) == 0 {
			err = ErrWordSyntax
			break
		}
		for _, operand := range operands {
			var value int64
			value, err = asm.valueOf(operand)
			if err != nil {
				return
			}
			codes = append(codes, Instruction(uint32(value)))
		}
	default:
		err = ErrOpcodeInvalid
	}

	return
}

// linkJump encodes a jump at pc to an absolute target address. The
// 26-bit field cannot reach outside the 256 MiB segment of the
// instruction that follows the jump.
func linkJump(pc uint32, target uint32) (code Instruction, err error) {
	if target%4 != 0 {
		err = ErrTargetInvalid
		return
	}
	if (target^(pc+4))&0xf0000000 != 0 {
		err = ErrTargetSegment
		return
	}
	code = MakeJ(target >> 2)

	return
}

// Parse assembles a source listing into a Program.
func (asm *Assembler) Parse(reader io.Reader) (prog *Program, err error) {
	prog = &Program{}

	asm.Label = map[string]uint32{}
	asm.Equate = map[string]string{}

	pc := asm.Origin
	if pc == 0 {
		pc = RESET_VECTOR
	}

	scanner := bufio.NewScanner(reader)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()

		words, perr := asm.parseLine(line, lineno)
		if perr != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: perr}
			return
		}

		if len(words) > 0 && strings.HasSuffix(words[0], ":") {
			label := strings.TrimSuffix(words[0], ":")
			if _, ok := asm.Label[label]; ok {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrLabelDuplicate}
				return
			}
			asm.Label[label] = pc
			if asm.Verbose {
				log.Printf("asm: %08x %v:", pc, label)
			}
			words = words[1:]
		}

		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case ".equ":
			if len(words) != 3 {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrEquateSyntax}
				return
			}
			if _, ok := asm.Equate[words[1]]; ok {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrEquateDuplicate}
				return
			}
			asm.Equate[words[1]] = words[2]
			continue
		case ".org":
			if len(words) != 2 {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrOrgSyntax}
				return
			}
			value, verr := asm.valueOf(words[1])
			if verr != nil || value < 0 || value%4 != 0 {
				err = ErrSyntax{LineNo: lineno, Line: line, Err: ErrOrgSyntax}
				return
			}
			pc = uint32(value)
			continue
		}

		codes, link, eerr := asm.encode(words, pc)
		if eerr != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: eerr}
			return
		}

		prog.Opcodes = append(prog.Opcodes, Opcode{
			LineNo:    lineno,
			Addr:      pc,
			Words:     words,
			Codes:     codes,
			LinkLabel: link,
		})
		if asm.Verbose {
			for n, code := range codes {
				log.Printf("asm: %08x %v", pc+uint32(n)*4, code)
			}
		}
		pc += uint32(len(codes)) * 4
	}
	if err = scanner.Err(); err != nil {
		return
	}

	err = asm.linkPass(prog)

	return
}

// linkPass patches label jumps with their resolved addresses.
func (asm *Assembler) linkPass(prog *Program) (err error) {
	for n := range prog.Opcodes {
		op := &prog.Opcodes[n]
		if op.LinkLabel == "" {
			continue
		}

		target, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrSyntax{LineNo: op.LineNo, Err: ErrLabelMissing(op.LinkLabel)}
			return
		}

		code, lerr := linkJump(op.Addr, target)
		if lerr != nil {
			err = ErrSyntax{LineNo: op.LineNo, Err: lerr}
			return
		}
		op.Codes[0] = code
	}

	return
}
