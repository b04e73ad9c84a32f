// Package cpu implements the NMOS 6502 instruction interpreter: the
// register file, the thirteen addressing-mode primitives, the
// opcode-indexed handler table, and the fetch-decode-execute loop that
// drives them against a memory.Device (normally a *mapper.Mapper).
package cpu

import "fmt"

// Registers holds the visible 6502 register file.
type Registers struct {
	PC uint16
	A  uint8
	X  uint8
	Y  uint8
	S  uint8
	P  uint8
}

// Flag bit positions within P, in hardware order.
const (
	FlagCarry    uint8 = 1 << 0
	FlagZero     uint8 = 1 << 1
	FlagIRQ      uint8 = 1 << 2
	FlagDecimal  uint8 = 1 << 3
	FlagBreak    uint8 = 1 << 4
	FlagUnused   uint8 = 1 << 5
	FlagOverflow uint8 = 1 << 6
	FlagNegative uint8 = 1 << 7
)

// stackBase is the fixed page the stack pointer indexes into.
const stackBase uint16 = 0x0100

// ResetVector, NMIVector, and IRQVector are the hardware interrupt
// vector addresses (spec.md §6).
const (
	NMIVector   uint16 = 0xFFFA
	ResetVector uint16 = 0xFFFC
	IRQVector   uint16 = 0xFFFE
)

// TestFlag reports whether bit is set in P.
func (r *Registers) TestFlag(bit uint8) bool { return r.P&bit != 0 }

// SetFlag sets or clears bit in P.
func (r *Registers) SetFlag(bit uint8, set bool) {
	if set {
		r.P |= bit
	} else {
		r.P &^= bit
	}
}

// setNZ updates the Zero and Negative flags from value, the pattern
// every load, transfer, and logical instruction shares.
func (r *Registers) setNZ(value uint8) {
	r.SetFlag(FlagZero, value == 0)
	r.SetFlag(FlagNegative, value&0x80 != 0)
}

// String renders the register file the way the teacher's spew-backed
// tests expect to diff it: one line, hex throughout.
func (r Registers) String() string {
	return fmt.Sprintf("PC=%04X A=%02X X=%02X Y=%02X S=%02X P=%02X", r.PC, r.A, r.X, r.Y, r.S, r.P)
}
