// Package cpu implements the processor core and assembler for the r3k
// console emulator.
//
// The CPU is a 32-bit RISC core in the R3000 mold: 32 general-purpose
// registers with register 0 pinned to zero, hi/lo result registers,
// and a one-instruction fetch lookahead that models the branch delay
// slot. Instruction words decode under three fixed layouts (R, I and
// J format) through pure field extractors on the Instruction type.
//
// The assembler provides a small assembly language for the modeled
// instruction subset, supporting labels, equates, and compile-time
// expression evaluation.
package cpu
