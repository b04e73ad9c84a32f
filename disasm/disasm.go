// Package disasm renders one instruction at a time as text, reusing
// the CPU's own opcode table instead of carrying a second copy of it.
package disasm

import (
	"fmt"

	"github.com/hexbus/emu6502/cpu"
	"github.com/hexbus/emu6502/memory"
)

// Step disassembles the instruction at pc and returns its text plus
// the number of bytes to advance pc to reach the next instruction.
// This always reads two bytes past pc, whether or not the instruction
// at pc actually uses them, so mem must have valid data there; it does
// not follow branches or jumps, so a JMP/LDA/LDA sequence in memory
// disassembles as exactly that sequence.
func Step(pc uint16, mem memory.Device) (string, int) {
	opcode, _ := mem.DebugPeek(pc)
	operand1, _ := mem.DebugPeek(pc + 1)
	operand2, _ := mem.DebugPeek(pc + 2)

	entry, ok := cpu.Lookup(opcode)
	if !ok {
		return fmt.Sprintf("%04X %02X            UNIMPLEMENTED", pc, opcode), 1
	}

	count := 1 + entry.Mode.OperandBytes()
	out := fmt.Sprintf("%04X %02X ", pc, opcode)

	switch entry.Mode {
	case cpu.ModeImplied, cpu.ModeAccumulator:
		out += fmt.Sprintf("        %s           ", entry.Mnemonic)
	case cpu.ModeImmediate:
		out += fmt.Sprintf("%02X      %s #%02X       ", operand1, entry.Mnemonic, operand1)
	case cpu.ModeZeroPage:
		out += fmt.Sprintf("%02X      %s %02X        ", operand1, entry.Mnemonic, operand1)
	case cpu.ModeZeroPageX:
		out += fmt.Sprintf("%02X      %s %02X,X      ", operand1, entry.Mnemonic, operand1)
	case cpu.ModeZeroPageY:
		out += fmt.Sprintf("%02X      %s %02X,Y      ", operand1, entry.Mnemonic, operand1)
	case cpu.ModeIndirectX:
		out += fmt.Sprintf("%02X      %s (%02X,X)    ", operand1, entry.Mnemonic, operand1)
	case cpu.ModeIndirectY:
		out += fmt.Sprintf("%02X      %s (%02X),Y    ", operand1, entry.Mnemonic, operand1)
	case cpu.ModeAbsolute:
		out += fmt.Sprintf("%02X %02X   %s %02X%02X      ", operand1, operand2, entry.Mnemonic, operand2, operand1)
	case cpu.ModeAbsoluteX:
		out += fmt.Sprintf("%02X %02X   %s %02X%02X,X    ", operand1, operand2, entry.Mnemonic, operand2, operand1)
	case cpu.ModeAbsoluteY:
		out += fmt.Sprintf("%02X %02X   %s %02X%02X,Y    ", operand1, operand2, entry.Mnemonic, operand2, operand1)
	case cpu.ModeIndirect:
		out += fmt.Sprintf("%02X %02X   %s (%02X%02X)    ", operand1, operand2, entry.Mnemonic, operand2, operand1)
	case cpu.ModeRelative:
		target := uint16(int32(pc) + 2 + int32(int8(operand1)))
		out += fmt.Sprintf("%02X      %s %02X (%04X) ", operand1, entry.Mnemonic, operand1, target)
	default:
		panic(fmt.Sprintf("disasm: unhandled addressing mode %v", entry.Mode))
	}
	return out, count
}
