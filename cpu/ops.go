package cpu

// execFunc is the shape every opcode's handler takes. It receives the
// OpcodeEntry it was dispatched from so mode-polymorphic mnemonics
// (LDA across eight modes, JMP across two) can share one function.
type execFunc func(c *CPU, e OpcodeEntry) error

// fetchOperand resolves e's addressing mode to a value: the next byte
// for Immediate, the accumulator for Accumulator, or a load through
// the effective address otherwise.
func (c *CPU) fetchOperand(e OpcodeEntry) (uint8, error) {
	switch e.Mode {
	case ModeImmediate:
		return c.fetch()
	case ModeAccumulator:
		return c.Regs.A, nil
	default:
		addr, err := c.effectiveAddr(e.Mode, e.Slow)
		if err != nil {
			return 0, err
		}
		return c.load(addr)
	}
}

// --- Loads ---

func opLDA(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	c.Regs.A = v
	c.Regs.setNZ(v)
	return nil
}

func opLDX(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	c.Regs.X = v
	c.Regs.setNZ(v)
	return nil
}

func opLDY(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	c.Regs.Y = v
	c.Regs.setNZ(v)
	return nil
}

// --- Stores (no flag effects) ---

func opSTA(c *CPU, e OpcodeEntry) error {
	addr, err := c.effectiveAddr(e.Mode, e.Slow)
	if err != nil {
		return err
	}
	return c.store(addr, c.Regs.A)
}

func opSTX(c *CPU, e OpcodeEntry) error {
	addr, err := c.effectiveAddr(e.Mode, e.Slow)
	if err != nil {
		return err
	}
	return c.store(addr, c.Regs.X)
}

func opSTY(c *CPU, e OpcodeEntry) error {
	addr, err := c.effectiveAddr(e.Mode, e.Slow)
	if err != nil {
		return err
	}
	return c.store(addr, c.Regs.Y)
}

// --- Transfers: one internal cycle, all but TXS update N/Z ---

func opTAX(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.X = c.Regs.A
	c.Regs.setNZ(c.Regs.X)
	return nil
}

func opTAY(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.Y = c.Regs.A
	c.Regs.setNZ(c.Regs.Y)
	return nil
}

func opTXA(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.A = c.Regs.X
	c.Regs.setNZ(c.Regs.A)
	return nil
}

func opTYA(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.A = c.Regs.Y
	c.Regs.setNZ(c.Regs.A)
	return nil
}

func opTSX(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.X = c.Regs.S
	c.Regs.setNZ(c.Regs.X)
	return nil
}

func opTXS(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.S = c.Regs.X
	return nil
}

// --- Register increment/decrement: one extra cycle ---

func opINX(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.X++
	c.Regs.setNZ(c.Regs.X)
	return nil
}

func opINY(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.Y++
	c.Regs.setNZ(c.Regs.Y)
	return nil
}

func opDEX(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.X--
	c.Regs.setNZ(c.Regs.X)
	return nil
}

func opDEY(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.Regs.Y--
	c.Regs.setNZ(c.Regs.Y)
	return nil
}

// --- Memory increment/decrement: read-modify-write ---

func opINC(c *CPU, e OpcodeEntry) error {
	addr, err := c.effectiveAddr(e.Mode, true)
	if err != nil {
		return err
	}
	v, err := c.load(addr)
	if err != nil {
		return err
	}
	c.tick()
	v++
	if err := c.store(addr, v); err != nil {
		return err
	}
	c.Regs.setNZ(v)
	return nil
}

func opDEC(c *CPU, e OpcodeEntry) error {
	addr, err := c.effectiveAddr(e.Mode, true)
	if err != nil {
		return err
	}
	v, err := c.load(addr)
	if err != nil {
		return err
	}
	c.tick()
	v--
	if err := c.store(addr, v); err != nil {
		return err
	}
	c.Regs.setNZ(v)
	return nil
}

// --- Arithmetic: decimal mode is an unsupported fault, never silent ---

func opADC(c *CPU, e OpcodeEntry) error {
	if c.Regs.TestFlag(FlagDecimal) {
		return &UnsupportedOperationError{Opcode: e.Opcode, PC: c.Regs.PC, Reason: "decimal-mode ADC is not implemented"}
	}
	operand, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	applyAdd(&c.Regs, operand)
	return nil
}

func opSBC(c *CPU, e OpcodeEntry) error {
	if c.Regs.TestFlag(FlagDecimal) {
		return &UnsupportedOperationError{Opcode: e.Opcode, PC: c.Regs.PC, Reason: "decimal-mode SBC is not implemented"}
	}
	operand, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	applyAdd(&c.Regs, ^operand)
	return nil
}

// applyAdd implements the shared ADC formula; SBC reuses it against
// the bitwise-inverted operand so A - M - (1-C) falls out of the same
// carry arithmetic as A + M + C.
func applyAdd(r *Registers, operand uint8) {
	a := r.A
	var carryIn uint16
	if r.TestFlag(FlagCarry) {
		carryIn = 1
	}
	sum := uint16(a) + uint16(operand) + carryIn
	result := uint8(sum)
	sameSign := (a^operand)&0x80 == 0
	signChanged := (a^result)&0x80 != 0
	r.SetFlag(FlagCarry, sum > 0xFF)
	r.SetFlag(FlagOverflow, sameSign && signChanged)
	r.A = result
	r.setNZ(result)
}

// --- Logical ---

func opAND(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	c.Regs.A &= v
	c.Regs.setNZ(c.Regs.A)
	return nil
}

func opORA(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	c.Regs.A |= v
	c.Regs.setNZ(c.Regs.A)
	return nil
}

func opEOR(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	c.Regs.A ^= v
	c.Regs.setNZ(c.Regs.A)
	return nil
}

// --- Shifts/rotates: accumulator or memory, one extra operate cycle ---

func opASL(c *CPU, e OpcodeEntry) error {
	return shiftOp(c, e, func(v uint8) (uint8, bool) { return v << 1, v&0x80 != 0 })
}

func opLSR(c *CPU, e OpcodeEntry) error {
	return shiftOp(c, e, func(v uint8) (uint8, bool) { return v >> 1, v&0x01 != 0 })
}

func opROL(c *CPU, e OpcodeEntry) error {
	return shiftOpCarry(c, e, func(v uint8, carryIn bool) (uint8, bool) {
		var in uint8
		if carryIn {
			in = 1
		}
		return v<<1 | in, v&0x80 != 0
	})
}

func opROR(c *CPU, e OpcodeEntry) error {
	return shiftOpCarry(c, e, func(v uint8, carryIn bool) (uint8, bool) {
		var in uint8
		if carryIn {
			in = 0x80
		}
		return v>>1 | in, v&0x01 != 0
	})
}

func shiftOp(c *CPU, e OpcodeEntry, f func(uint8) (uint8, bool)) error {
	return shiftOpCarry(c, e, func(v uint8, _ bool) (uint8, bool) { return f(v) })
}

func shiftOpCarry(c *CPU, e OpcodeEntry, f func(v uint8, carryIn bool) (result uint8, carryOut bool)) error {
	carryIn := c.Regs.TestFlag(FlagCarry)
	if e.Mode == ModeAccumulator {
		c.tick()
		result, carryOut := f(c.Regs.A, carryIn)
		c.Regs.A = result
		c.Regs.SetFlag(FlagCarry, carryOut)
		c.Regs.setNZ(result)
		return nil
	}
	addr, err := c.effectiveAddr(e.Mode, true)
	if err != nil {
		return err
	}
	v, err := c.load(addr)
	if err != nil {
		return err
	}
	c.tick()
	result, carryOut := f(v, carryIn)
	if err := c.store(addr, result); err != nil {
		return err
	}
	c.Regs.SetFlag(FlagCarry, carryOut)
	c.Regs.setNZ(result)
	return nil
}

// --- BIT: A unaffected, N/V come from the operand itself ---

func opBIT(c *CPU, e OpcodeEntry) error {
	addr, err := c.effectiveAddr(e.Mode, false)
	if err != nil {
		return err
	}
	v, err := c.load(addr)
	if err != nil {
		return err
	}
	c.Regs.SetFlag(FlagZero, c.Regs.A&v == 0)
	c.Regs.SetFlag(FlagNegative, v&0x80 != 0)
	c.Regs.SetFlag(FlagOverflow, v&0x40 != 0)
	return nil
}

// --- Compare ---

func compare(r *Registers, reg, operand uint8) {
	result := reg - operand
	r.SetFlag(FlagCarry, reg >= operand)
	r.SetFlag(FlagZero, reg == operand)
	r.SetFlag(FlagNegative, result&0x80 != 0)
}

func opCMP(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	compare(&c.Regs, c.Regs.A, v)
	return nil
}

func opCPX(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	compare(&c.Regs, c.Regs.X, v)
	return nil
}

func opCPY(c *CPU, e OpcodeEntry) error {
	v, err := c.fetchOperand(e)
	if err != nil {
		return err
	}
	compare(&c.Regs, c.Regs.Y, v)
	return nil
}

// --- Flag operations: one extra cycle ---

func flagOp(c *CPU, bit uint8, set bool) error {
	c.tick()
	c.Regs.SetFlag(bit, set)
	return nil
}

func opCLC(c *CPU, _ OpcodeEntry) error { return flagOp(c, FlagCarry, false) }
func opSEC(c *CPU, _ OpcodeEntry) error { return flagOp(c, FlagCarry, true) }
func opCLD(c *CPU, _ OpcodeEntry) error { return flagOp(c, FlagDecimal, false) }
func opSED(c *CPU, _ OpcodeEntry) error { return flagOp(c, FlagDecimal, true) }
func opCLI(c *CPU, _ OpcodeEntry) error { return flagOp(c, FlagIRQ, false) }
func opSEI(c *CPU, _ OpcodeEntry) error { return flagOp(c, FlagIRQ, true) }
func opCLV(c *CPU, _ OpcodeEntry) error { return flagOp(c, FlagOverflow, false) }

// --- Branches ---

func branch(c *CPU, taken bool) error {
	offset, err := c.addrRelative()
	if err != nil {
		return err
	}
	if !taken {
		return nil
	}
	c.tick()
	target := uint16(int32(c.Regs.PC) + int32(offset))
	if (target & 0xFF00) != (c.Regs.PC & 0xFF00) {
		c.tick()
	}
	c.Regs.PC = target
	return nil
}

func opBCC(c *CPU, _ OpcodeEntry) error { return branch(c, !c.Regs.TestFlag(FlagCarry)) }
func opBCS(c *CPU, _ OpcodeEntry) error { return branch(c, c.Regs.TestFlag(FlagCarry)) }
func opBEQ(c *CPU, _ OpcodeEntry) error { return branch(c, c.Regs.TestFlag(FlagZero)) }
func opBNE(c *CPU, _ OpcodeEntry) error { return branch(c, !c.Regs.TestFlag(FlagZero)) }
func opBMI(c *CPU, _ OpcodeEntry) error { return branch(c, c.Regs.TestFlag(FlagNegative)) }
func opBPL(c *CPU, _ OpcodeEntry) error { return branch(c, !c.Regs.TestFlag(FlagNegative)) }
func opBVC(c *CPU, _ OpcodeEntry) error { return branch(c, !c.Regs.TestFlag(FlagOverflow)) }
func opBVS(c *CPU, _ OpcodeEntry) error { return branch(c, c.Regs.TestFlag(FlagOverflow)) }

// --- Jumps / subroutine linkage ---

func opJMP(c *CPU, e OpcodeEntry) error {
	var addr uint16
	var err error
	if e.Mode == ModeIndirect {
		addr, err = c.addrIndirect()
	} else {
		addr, err = c.addrAbsolute()
	}
	if err != nil {
		return err
	}
	c.Regs.PC = addr
	return nil
}

func opJSR(c *CPU, _ OpcodeEntry) error {
	target, err := c.addrAbsolute()
	if err != nil {
		return err
	}
	c.tick()
	retAddr := c.Regs.PC - 1
	if err := c.push(uint8(retAddr >> 8)); err != nil {
		return err
	}
	if err := c.push(uint8(retAddr)); err != nil {
		return err
	}
	c.Regs.PC = target
	return nil
}

func opRTS(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.tick()
	lo, err := c.pull()
	if err != nil {
		return err
	}
	hi, err := c.pull()
	if err != nil {
		return err
	}
	c.tick()
	c.Regs.PC = (uint16(hi)<<8 | uint16(lo)) + 1
	return nil
}

// --- Interrupt-related: BRK / RTI ---

func opBRK(c *CPU, _ OpcodeEntry) error {
	// BRK's second byte is a padding byte (a signature/reason code on
	// real hardware, conventionally ignored): advance PC past it, then
	// let the next Step service the latched software interrupt.
	if _, err := c.fetch(); err != nil {
		return err
	}
	c.requestBrk()
	return nil
}

func opRTI(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.tick()
	p, err := c.pull()
	if err != nil {
		return err
	}
	c.Regs.P = p &^ (FlagBreak | FlagUnused)
	lo, err := c.pull()
	if err != nil {
		return err
	}
	hi, err := c.pull()
	if err != nil {
		return err
	}
	c.Regs.PC = uint16(hi)<<8 | uint16(lo)
	return nil
}

// --- Stack ops ---

func opPHA(c *CPU, _ OpcodeEntry) error {
	c.tick()
	return c.push(c.Regs.A)
}

func opPHP(c *CPU, _ OpcodeEntry) error {
	c.tick()
	return c.push(c.Regs.P | FlagBreak | FlagUnused)
}

func opPLA(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.tick()
	v, err := c.pull()
	if err != nil {
		return err
	}
	c.Regs.A = v
	c.Regs.setNZ(v)
	return nil
}

func opPLP(c *CPU, _ OpcodeEntry) error {
	c.tick()
	c.tick()
	v, err := c.pull()
	if err != nil {
		return err
	}
	c.Regs.P = v &^ (FlagBreak | FlagUnused)
	return nil
}

// --- NOP and the two emulator-only opcodes ---

func opNOP(c *CPU, _ OpcodeEntry) error {
	c.tick()
	return nil
}

// opHLT implements the emulator-only halt: the byte following the
// opcode is the program's exit code.
func opHLT(c *CPU, _ OpcodeEntry) error {
	code, err := c.fetch()
	if err != nil {
		return err
	}
	return &HaltError{Code: code, Registers: c.Regs}
}

// opInvalidTrap is the emulator-only explicit invalid-opcode slot,
// behaviorally identical to fetching a byte with no table entry at
// all but present so the NMOS6502Emu set accounts for all 153 entries
// spec.md §3 calls for.
func opInvalidTrap(c *CPU, e OpcodeEntry) error {
	return &InvalidOpcodeError{Opcode: e.Opcode, PC: c.Regs.PC - 1}
}
