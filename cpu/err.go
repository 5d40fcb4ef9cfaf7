package cpu

import (
	"errors"

	"github.com/emufox/r3k/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrOrgSyntax       = errors.New(f(".org syntax"))
	ErrWordSyntax      = errors.New(f(".word syntax"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrOperandCount    = errors.New(f("operand count"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrImmediateRange  = errors.New(f("immediate out of range"))
	ErrShiftRange      = errors.New(f("shift amount out of range"))
	ErrTargetInvalid   = errors.New(f("jump target invalid"))
	ErrTargetSegment   = errors.New(f("jump target outside the current 256 MiB segment"))
	ErrOriginRange     = errors.New(f("origin outside the boot rom"))
)

// ErrIllegal is an instruction word outside the modeled opcode table.
// Fatal: continuing past it would execute on corrupted assumptions.
type ErrIllegal Instruction

func (ei ErrIllegal) Error() string {
	return f("illegal instruction 0x%08x", uint32(ei))
}

func (ei ErrIllegal) Is(err error) (ok bool) {
	_, ok = err.(ErrIllegal)
	return
}

// ErrLabelMissing is a jump to a label no line defines.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSyntax locates an assembler error in its source line.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrParseNumber is a token that should have been a number.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression is a $(...) expression that did not evaluate to
// an integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
