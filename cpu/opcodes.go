package cpu

// OpcodeEntry is one row of the instruction set: the byte value, its
// three-character mnemonic, its addressing mode, whether indexed
// addressing always pays the page-cross cycle (stores and
// read-modify-write instructions), and the handler that executes it.
// The handler field is unexported: external packages (disasm, tests)
// read the public fields through Lookup but cannot fabricate entries
// that bypass dispatch.
type OpcodeEntry struct {
	Opcode   uint8
	Mnemonic string
	Mode     AddressMode
	Slow     bool

	exec execFunc
}

// instructionSet is a named table (NMOS6502 or NMOS6502Emu) plus its
// opcode-indexed dispatch array, built once at package init.
type instructionSet struct {
	entries  []OpcodeEntry
	dispatch [256]OpcodeEntry
}

func buildInstructionSet(rows []OpcodeEntry) instructionSet {
	var s instructionSet
	s.entries = rows
	for _, r := range rows {
		s.dispatch[r.Opcode] = r
	}
	return s
}

// row is shorthand for constructing one OpcodeEntry in the table
// literal below.
func row(opcode uint8, mnemonic string, mode AddressMode, slow bool, fn execFunc) OpcodeEntry {
	return OpcodeEntry{Opcode: opcode, Mnemonic: mnemonic, Mode: mode, Slow: slow, exec: fn}
}

// nmosRows is the full 151-entry published NMOS 6502 instruction set:
// every documented opcode and addressing-mode combination, with no
// illegal/undocumented opcodes and no 65C02 extensions, matching
// spec.md §1's non-goals.
var nmosRows = []OpcodeEntry{
	// LDA
	row(0xA9, "LDA", ModeImmediate, false, opLDA),
	row(0xA5, "LDA", ModeZeroPage, false, opLDA),
	row(0xB5, "LDA", ModeZeroPageX, false, opLDA),
	row(0xAD, "LDA", ModeAbsolute, false, opLDA),
	row(0xBD, "LDA", ModeAbsoluteX, false, opLDA),
	row(0xB9, "LDA", ModeAbsoluteY, false, opLDA),
	row(0xA1, "LDA", ModeIndirectX, false, opLDA),
	row(0xB1, "LDA", ModeIndirectY, false, opLDA),

	// LDX
	row(0xA2, "LDX", ModeImmediate, false, opLDX),
	row(0xA6, "LDX", ModeZeroPage, false, opLDX),
	row(0xB6, "LDX", ModeZeroPageY, false, opLDX),
	row(0xAE, "LDX", ModeAbsolute, false, opLDX),
	row(0xBE, "LDX", ModeAbsoluteY, false, opLDX),

	// LDY
	row(0xA0, "LDY", ModeImmediate, false, opLDY),
	row(0xA4, "LDY", ModeZeroPage, false, opLDY),
	row(0xB4, "LDY", ModeZeroPageX, false, opLDY),
	row(0xAC, "LDY", ModeAbsolute, false, opLDY),
	row(0xBC, "LDY", ModeAbsoluteX, false, opLDY),

	// STA
	row(0x85, "STA", ModeZeroPage, false, opSTA),
	row(0x95, "STA", ModeZeroPageX, false, opSTA),
	row(0x8D, "STA", ModeAbsolute, false, opSTA),
	row(0x9D, "STA", ModeAbsoluteX, true, opSTA),
	row(0x99, "STA", ModeAbsoluteY, true, opSTA),
	row(0x81, "STA", ModeIndirectX, false, opSTA),
	row(0x91, "STA", ModeIndirectY, true, opSTA),

	// STX / STY
	row(0x86, "STX", ModeZeroPage, false, opSTX),
	row(0x96, "STX", ModeZeroPageY, false, opSTX),
	row(0x8E, "STX", ModeAbsolute, false, opSTX),
	row(0x84, "STY", ModeZeroPage, false, opSTY),
	row(0x94, "STY", ModeZeroPageX, false, opSTY),
	row(0x8C, "STY", ModeAbsolute, false, opSTY),

	// Transfers
	row(0xAA, "TAX", ModeImplied, false, opTAX),
	row(0xA8, "TAY", ModeImplied, false, opTAY),
	row(0x8A, "TXA", ModeImplied, false, opTXA),
	row(0x98, "TYA", ModeImplied, false, opTYA),
	row(0xBA, "TSX", ModeImplied, false, opTSX),
	row(0x9A, "TXS", ModeImplied, false, opTXS),

	// Register inc/dec
	row(0xE8, "INX", ModeImplied, false, opINX),
	row(0xC8, "INY", ModeImplied, false, opINY),
	row(0xCA, "DEX", ModeImplied, false, opDEX),
	row(0x88, "DEY", ModeImplied, false, opDEY),

	// Memory inc/dec
	row(0xE6, "INC", ModeZeroPage, false, opINC),
	row(0xF6, "INC", ModeZeroPageX, false, opINC),
	row(0xEE, "INC", ModeAbsolute, false, opINC),
	row(0xFE, "INC", ModeAbsoluteX, true, opINC),
	row(0xC6, "DEC", ModeZeroPage, false, opDEC),
	row(0xD6, "DEC", ModeZeroPageX, false, opDEC),
	row(0xCE, "DEC", ModeAbsolute, false, opDEC),
	row(0xDE, "DEC", ModeAbsoluteX, true, opDEC),

	// ADC / SBC
	row(0x69, "ADC", ModeImmediate, false, opADC),
	row(0x65, "ADC", ModeZeroPage, false, opADC),
	row(0x75, "ADC", ModeZeroPageX, false, opADC),
	row(0x6D, "ADC", ModeAbsolute, false, opADC),
	row(0x7D, "ADC", ModeAbsoluteX, false, opADC),
	row(0x79, "ADC", ModeAbsoluteY, false, opADC),
	row(0x61, "ADC", ModeIndirectX, false, opADC),
	row(0x71, "ADC", ModeIndirectY, false, opADC),
	row(0xE9, "SBC", ModeImmediate, false, opSBC),
	row(0xE5, "SBC", ModeZeroPage, false, opSBC),
	row(0xF5, "SBC", ModeZeroPageX, false, opSBC),
	row(0xED, "SBC", ModeAbsolute, false, opSBC),
	row(0xFD, "SBC", ModeAbsoluteX, false, opSBC),
	row(0xF9, "SBC", ModeAbsoluteY, false, opSBC),
	row(0xE1, "SBC", ModeIndirectX, false, opSBC),
	row(0xF1, "SBC", ModeIndirectY, false, opSBC),

	// AND / ORA / EOR
	row(0x29, "AND", ModeImmediate, false, opAND),
	row(0x25, "AND", ModeZeroPage, false, opAND),
	row(0x35, "AND", ModeZeroPageX, false, opAND),
	row(0x2D, "AND", ModeAbsolute, false, opAND),
	row(0x3D, "AND", ModeAbsoluteX, false, opAND),
	row(0x39, "AND", ModeAbsoluteY, false, opAND),
	row(0x21, "AND", ModeIndirectX, false, opAND),
	row(0x31, "AND", ModeIndirectY, false, opAND),
	row(0x09, "ORA", ModeImmediate, false, opORA),
	row(0x05, "ORA", ModeZeroPage, false, opORA),
	row(0x15, "ORA", ModeZeroPageX, false, opORA),
	row(0x0D, "ORA", ModeAbsolute, false, opORA),
	row(0x1D, "ORA", ModeAbsoluteX, false, opORA),
	row(0x19, "ORA", ModeAbsoluteY, false, opORA),
	row(0x01, "ORA", ModeIndirectX, false, opORA),
	row(0x11, "ORA", ModeIndirectY, false, opORA),
	row(0x49, "EOR", ModeImmediate, false, opEOR),
	row(0x45, "EOR", ModeZeroPage, false, opEOR),
	row(0x55, "EOR", ModeZeroPageX, false, opEOR),
	row(0x4D, "EOR", ModeAbsolute, false, opEOR),
	row(0x5D, "EOR", ModeAbsoluteX, false, opEOR),
	row(0x59, "EOR", ModeAbsoluteY, false, opEOR),
	row(0x41, "EOR", ModeIndirectX, false, opEOR),
	row(0x51, "EOR", ModeIndirectY, false, opEOR),

	// Shifts / rotates
	row(0x0A, "ASL", ModeAccumulator, false, opASL),
	row(0x06, "ASL", ModeZeroPage, false, opASL),
	row(0x16, "ASL", ModeZeroPageX, false, opASL),
	row(0x0E, "ASL", ModeAbsolute, false, opASL),
	row(0x1E, "ASL", ModeAbsoluteX, true, opASL),
	row(0x4A, "LSR", ModeAccumulator, false, opLSR),
	row(0x46, "LSR", ModeZeroPage, false, opLSR),
	row(0x56, "LSR", ModeZeroPageX, false, opLSR),
	row(0x4E, "LSR", ModeAbsolute, false, opLSR),
	row(0x5E, "LSR", ModeAbsoluteX, true, opLSR),
	row(0x2A, "ROL", ModeAccumulator, false, opROL),
	row(0x26, "ROL", ModeZeroPage, false, opROL),
	row(0x36, "ROL", ModeZeroPageX, false, opROL),
	row(0x2E, "ROL", ModeAbsolute, false, opROL),
	row(0x3E, "ROL", ModeAbsoluteX, true, opROL),
	row(0x6A, "ROR", ModeAccumulator, false, opROR),
	row(0x66, "ROR", ModeZeroPage, false, opROR),
	row(0x76, "ROR", ModeZeroPageX, false, opROR),
	row(0x6E, "ROR", ModeAbsolute, false, opROR),
	row(0x7E, "ROR", ModeAbsoluteX, true, opROR),

	// BIT
	row(0x24, "BIT", ModeZeroPage, false, opBIT),
	row(0x2C, "BIT", ModeAbsolute, false, opBIT),

	// Compare
	row(0xC9, "CMP", ModeImmediate, false, opCMP),
	row(0xC5, "CMP", ModeZeroPage, false, opCMP),
	row(0xD5, "CMP", ModeZeroPageX, false, opCMP),
	row(0xCD, "CMP", ModeAbsolute, false, opCMP),
	row(0xDD, "CMP", ModeAbsoluteX, false, opCMP),
	row(0xD9, "CMP", ModeAbsoluteY, false, opCMP),
	row(0xC1, "CMP", ModeIndirectX, false, opCMP),
	row(0xD1, "CMP", ModeIndirectY, false, opCMP),
	row(0xE0, "CPX", ModeImmediate, false, opCPX),
	row(0xE4, "CPX", ModeZeroPage, false, opCPX),
	row(0xEC, "CPX", ModeAbsolute, false, opCPX),
	row(0xC0, "CPY", ModeImmediate, false, opCPY),
	row(0xC4, "CPY", ModeZeroPage, false, opCPY),
	row(0xCC, "CPY", ModeAbsolute, false, opCPY),

	// Flag operations
	row(0x18, "CLC", ModeImplied, false, opCLC),
	row(0x38, "SEC", ModeImplied, false, opSEC),
	row(0xD8, "CLD", ModeImplied, false, opCLD),
	row(0xF8, "SED", ModeImplied, false, opSED),
	row(0x58, "CLI", ModeImplied, false, opCLI),
	row(0x78, "SEI", ModeImplied, false, opSEI),
	row(0xB8, "CLV", ModeImplied, false, opCLV),

	// Branches
	row(0x90, "BCC", ModeRelative, false, opBCC),
	row(0xB0, "BCS", ModeRelative, false, opBCS),
	row(0xF0, "BEQ", ModeRelative, false, opBEQ),
	row(0xD0, "BNE", ModeRelative, false, opBNE),
	row(0x30, "BMI", ModeRelative, false, opBMI),
	row(0x10, "BPL", ModeRelative, false, opBPL),
	row(0x50, "BVC", ModeRelative, false, opBVC),
	row(0x70, "BVS", ModeRelative, false, opBVS),

	// Jumps / subroutine
	row(0x4C, "JMP", ModeAbsolute, false, opJMP),
	row(0x6C, "JMP", ModeIndirect, false, opJMP),
	row(0x20, "JSR", ModeAbsolute, false, opJSR),
	row(0x60, "RTS", ModeImplied, false, opRTS),

	// Interrupts
	row(0x00, "BRK", ModeImplied, false, opBRK),
	row(0x40, "RTI", ModeImplied, false, opRTI),

	// Stack
	row(0x48, "PHA", ModeImplied, false, opPHA),
	row(0x08, "PHP", ModeImplied, false, opPHP),
	row(0x68, "PLA", ModeImplied, false, opPLA),
	row(0x28, "PLP", ModeImplied, false, opPLP),

	// NOP
	row(0xEA, "NOP", ModeImplied, false, opNOP),
}

// emuOnlyRows are the two opcodes NMOS6502Emu adds on top of the 151
// documented ones. Real hardware leaves these byte values undefined
// (both land on illegal JAM-family slots on a genuine 6502); no
// retrieved source in the corpus fixes their exact value, so they are
// chosen here and recorded in DESIGN.md rather than grounded in a data
// file.
var emuOnlyRows = []OpcodeEntry{
	row(0x02, "HLT", ModeImmediate, false, opHLT),
	row(0x03, "ILL", ModeImplied, false, opInvalidTrap),
}

var nmos6502 = buildInstructionSet(nmosRows)

var nmos6502Emu = buildInstructionSet(append(append([]OpcodeEntry{}, nmosRows...), emuOnlyRows...))

// Lookup returns the opcode table entry for opcode in the NMOS6502Emu
// set (the superset used by cmd/run6502 and disasm), and whether one
// exists.
func Lookup(opcode uint8) (OpcodeEntry, bool) {
	e := nmos6502Emu.dispatch[opcode]
	return e, e.exec != nil
}

// Entries returns every table row of the NMOS6502Emu set, in
// declaration order — used by tests asserting full opcode coverage.
func Entries() []OpcodeEntry {
	return append([]OpcodeEntry(nil), nmos6502Emu.entries...)
}

// StrictEntries returns the 151-entry NMOS6502 set with no
// emulator-only additions.
func StrictEntries() []OpcodeEntry {
	return append([]OpcodeEntry(nil), nmos6502.entries...)
}
