package cpu

// AddressMode names one of the thirteen 6502 operand-addressing
// conventions, used by both the CPU's dispatch table and the
// assembler's argument classifier.
type AddressMode int

const (
	ModeImplied AddressMode = iota
	ModeAccumulator
	ModeImmediate
	ModeZeroPage
	ModeZeroPageX
	ModeZeroPageY
	ModeAbsolute
	ModeAbsoluteX
	ModeAbsoluteY
	ModeIndirect // ABS_IND, JMP only
	ModeIndirectX
	ModeIndirectY
	ModeRelative
)

// String names a mode the way disassembly output and error messages
// want it.
func (m AddressMode) String() string {
	switch m {
	case ModeImplied:
		return "Implied"
	case ModeAccumulator:
		return "Accumulator"
	case ModeImmediate:
		return "Immediate"
	case ModeZeroPage:
		return "ZeroPage"
	case ModeZeroPageX:
		return "ZeroPage,X"
	case ModeZeroPageY:
		return "ZeroPage,Y"
	case ModeAbsolute:
		return "Absolute"
	case ModeAbsoluteX:
		return "Absolute,X"
	case ModeAbsoluteY:
		return "Absolute,Y"
	case ModeIndirect:
		return "(Absolute)"
	case ModeIndirectX:
		return "(ZeroPage,X)"
	case ModeIndirectY:
		return "(ZeroPage),Y"
	case ModeRelative:
		return "Relative"
	default:
		return "Unknown"
	}
}

// OperandBytes returns the fixed operand byte count the assembler
// emits and the CPU consumes for mode: 0, 1, or 2.
func (m AddressMode) OperandBytes() int {
	switch m {
	case ModeImplied, ModeAccumulator:
		return 0
	case ModeImmediate, ModeZeroPage, ModeZeroPageX, ModeZeroPageY,
		ModeIndirectX, ModeIndirectY, ModeRelative:
		return 1
	case ModeAbsolute, ModeAbsoluteX, ModeAbsoluteY, ModeIndirect:
		return 2
	default:
		return 0
	}
}

// addrZP fetches one operand byte and returns it as a page-0 address.
func (c *CPU) addrZP() (uint16, error) {
	b, err := c.fetch()
	return uint16(b), err
}

// addrZPIndexed fetches one operand byte, adds index modulo 256 (wrap
// inside page 0), and costs one extra cycle for the add.
func (c *CPU) addrZPIndexed(index uint8) (uint16, error) {
	b, err := c.fetch()
	if err != nil {
		return 0, err
	}
	c.tick()
	return uint16(uint8(b + index)), nil
}

// addrAbsolute fetches two little-endian operand bytes.
func (c *CPU) addrAbsolute() (uint16, error) {
	lo, err := c.fetch()
	if err != nil {
		return 0, err
	}
	hi, err := c.fetch()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// addrAbsoluteIndexed fetches an absolute base and adds index. When
// slow is true the extra page-cross cycle is always spent (stores and
// read-modify-write instructions); otherwise it's spent only when the
// indexed address actually crosses a page boundary, matching the
// opcodes whose published timing already accounts for that optimism.
func (c *CPU) addrAbsoluteIndexed(index uint8, slow bool) (uint16, error) {
	base, err := c.addrAbsolute()
	if err != nil {
		return 0, err
	}
	addr := base + uint16(index)
	crossed := (addr & 0xFF00) != (base & 0xFF00)
	if slow || crossed {
		c.tick()
	}
	return addr, nil
}

// addrIndirectX fetches one ZP operand byte, adds X modulo 256, then
// reads the two-byte effective address from that ZP location, wrapping
// within page 0 for the high-byte fetch as well.
func (c *CPU) addrIndirectX() (uint16, error) {
	b, err := c.fetch()
	if err != nil {
		return 0, err
	}
	c.tick()
	ptr := uint8(b + c.Regs.X)
	lo, err := c.load(uint16(ptr))
	if err != nil {
		return 0, err
	}
	hi, err := c.load(uint16(uint8(ptr + 1)))
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// addrIndirectY fetches one ZP operand byte, reads the two-byte base
// address from that ZP location (wrapping within page 0), then adds Y.
// slow forces the page-cross cycle unconditionally, used by STA
// (ZP),Y per spec.md §4.5.
func (c *CPU) addrIndirectY(slow bool) (uint16, error) {
	b, err := c.fetch()
	if err != nil {
		return 0, err
	}
	lo, err := c.load(uint16(b))
	if err != nil {
		return 0, err
	}
	hi, err := c.load(uint16(uint8(b + 1)))
	if err != nil {
		return 0, err
	}
	base := uint16(hi)<<8 | uint16(lo)
	addr := base + uint16(c.Regs.Y)
	crossed := (addr & 0xFF00) != (base & 0xFF00)
	if slow || crossed {
		c.tick()
	}
	return addr, nil
}

// addrIndirect implements JMP (ind)'s effective-address computation,
// including the hardware page-wrap bug: when the pointer's low byte is
// 0xFF, the high-byte fetch does not carry into the pointer's high
// byte, so it wraps back to the start of the same page instead of
// advancing into the next one.
func (c *CPU) addrIndirect() (uint16, error) {
	ptr, err := c.addrAbsolute()
	if err != nil {
		return 0, err
	}
	lo, err := c.load(ptr)
	if err != nil {
		return 0, err
	}
	hiAddr := (ptr & 0xFF00) | uint16(uint8(ptr)+1)
	hi, err := c.load(hiAddr)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// addrRelative fetches the signed branch-offset operand byte. The
// caller combines it with PC (already advanced past the operand) to
// get the branch target.
func (c *CPU) addrRelative() (int8, error) {
	b, err := c.fetch()
	return int8(b), err
}

// effectiveAddr resolves mode (one of the non-Immediate/Implied/
// Accumulator/Relative families) to the address an instruction should
// load from or store to, applying slow where the opcode calls for it.
func (c *CPU) effectiveAddr(mode AddressMode, slow bool) (uint16, error) {
	switch mode {
	case ModeZeroPage:
		return c.addrZP()
	case ModeZeroPageX:
		return c.addrZPIndexed(c.Regs.X)
	case ModeZeroPageY:
		return c.addrZPIndexed(c.Regs.Y)
	case ModeAbsolute:
		return c.addrAbsolute()
	case ModeAbsoluteX:
		return c.addrAbsoluteIndexed(c.Regs.X, slow)
	case ModeAbsoluteY:
		return c.addrAbsoluteIndexed(c.Regs.Y, slow)
	case ModeIndirectX:
		return c.addrIndirectX()
	case ModeIndirectY:
		return c.addrIndirectY(slow)
	case ModeIndirect:
		return c.addrIndirect()
	default:
		panic("cpu: effectiveAddr called with a mode that has no memory address")
	}
}
