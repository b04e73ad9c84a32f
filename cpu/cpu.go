package cpu

import (
	"time"

	"github.com/hexbus/emu6502/clock"
	"github.com/hexbus/emu6502/irq"
	"github.com/hexbus/emu6502/memory"
)

// interruptKind orders the pending-interrupt latch by priority: RESET
// and NMI are non-maskable, IRQ is gated on the I flag, Brk is raised
// internally by the BRK opcode itself.
type interruptKind int

const (
	interruptNone interruptKind = iota
	interruptReset
	interruptNMI
	interruptIRQ
	interruptBrk
)

// Debugger is called synchronously with a snapshot of the register
// file after each instruction completes and before the next fetch. It
// may read memory through DebugPeek (never ticking the clock) but must
// not mutate CPU state.
type Debugger func(Registers)

// CPU owns the register file and runs the fetch-decode-execute loop
// against bus, ticking clk for every memory access (via bus) and every
// internal cycle the instruction set's published timing calls for.
// bus is expected to be a *mapper.Mapper in a live simulation, but any
// memory.Device works — tests wire a bare memory.Block directly.
type CPU struct {
	Regs Registers

	bus memory.Device
	clk clock.Clock
	set instructionSet

	nmiSource irq.Sender
	irqSource irq.Sender
	prevNMI   bool

	pending  interruptKind
	debugger Debugger
}

// New creates a CPU using the NMOS6502Emu instruction set (the 151
// documented opcodes plus HLT and the invalid-opcode trap) against
// bus, ticking clk for every cycle it spends. This is the variant
// cmd/run6502 uses, since HLT is the only way a hosted program signals
// a clean exit.
func New(bus memory.Device, clk clock.Clock) *CPU {
	return &CPU{bus: bus, clk: clk, set: nmos6502Emu, pending: interruptReset}
}

// NewStrict creates a CPU using the plain NMOS6502 instruction set
// (151 entries, no HLT or invalid-opcode trap slot): every opcode byte
// outside the documented 151 raises InvalidOpcodeError, including what
// would be HLT under the Emu variant. Useful for conformance tests
// against the published opcode table.
func NewStrict(bus memory.Device, clk clock.Clock) *CPU {
	return &CPU{bus: bus, clk: clk, set: nmos6502, pending: interruptReset}
}

// SetDebugger installs (or, with nil, removes) the post-instruction
// debugger hook.
func (c *CPU) SetDebugger(d Debugger) { c.debugger = d }

// SetNMISource wires an edge-triggered NMI source; Execute latches a
// pending NMI on each Raised() transition from false to true, matching
// real 6502 NMI edge sensitivity (as opposed to IRQ's level sensitivity).
func (c *CPU) SetNMISource(s irq.Sender) { c.nmiSource = s }

// SetIRQSource wires a level-triggered IRQ source, polled every
// instruction boundary while the I flag is clear.
func (c *CPU) SetIRQSource(s irq.Sender) { c.irqSource = s }

// Reset performs the power-on/reset sequence: loads PC from
// ResetVector, zeroes A/X/Y and P, sets S to 0xFF. It does not tick the
// clock itself (the vector reads do, through the bus), matching the
// real hardware's 6-cycle reset sequence's external visibility.
func (c *CPU) Reset() error {
	lo, err := c.bus.Load(ResetVector)
	if err != nil {
		return err
	}
	hi, err := c.bus.Load(ResetVector + 1)
	if err != nil {
		return err
	}
	c.Regs = Registers{
		PC: uint16(hi)<<8 | uint16(lo),
		S:  0xFF,
	}
	c.pending = interruptNone
	return nil
}

// tick advances the clock for an internal cycle that is not itself a
// memory access (index-add cycle, operate-step cycle, branch-taken
// cycle, flag-op cycle, and so on).
func (c *CPU) tick() {
	if c.clk != nil {
		c.clk.Tick()
	}
}

func (c *CPU) load(addr uint16) (uint8, error) { return c.bus.Load(addr) }

func (c *CPU) store(addr uint16, value uint8) error { return c.bus.Store(addr, value) }

// fetch reads the byte at PC and advances PC, ticking one cycle via
// the bus. This is the only place PC increments during operand fetch;
// addressing primitives call it for each operand byte they consume.
func (c *CPU) fetch() (uint8, error) {
	b, err := c.bus.Load(c.Regs.PC)
	if err != nil {
		return 0, err
	}
	c.Regs.PC++
	return b, nil
}

func (c *CPU) push(value uint8) error {
	err := c.bus.Store(stackBase+uint16(c.Regs.S), value)
	c.Regs.S--
	return err
}

func (c *CPU) pull() (uint8, error) {
	c.Regs.S++
	return c.bus.Load(stackBase + uint16(c.Regs.S))
}

// checkInterrupts polls edge/level interrupt sources and latches the
// highest-priority pending one, without servicing it yet.
func (c *CPU) checkInterrupts() {
	if c.nmiSource != nil {
		raised := c.nmiSource.Raised()
		if raised && !c.prevNMI {
			c.pending = interruptNMI
		}
		c.prevNMI = raised
	}
	if c.pending == interruptNone && c.irqSource != nil && c.irqSource.Raised() && !c.Regs.TestFlag(FlagIRQ) {
		c.pending = interruptIRQ
	}
}

// serviceInterrupt runs the hardware interrupt-entry sequence per
// spec.md §4.6: push PCH, PCL, P (with Break set iff this is a
// software BRK), set I, then load PC from the kind's vector.
func (c *CPU) serviceInterrupt(kind interruptKind) error {
	vector := IRQVector
	switch kind {
	case interruptNMI:
		vector = NMIVector
	case interruptReset:
		return c.Reset()
	}

	if err := c.push(uint8(c.Regs.PC >> 8)); err != nil {
		return err
	}
	if err := c.push(uint8(c.Regs.PC)); err != nil {
		return err
	}
	p := c.Regs.P | FlagUnused
	if kind == interruptBrk {
		p |= FlagBreak
	} else {
		p &^= FlagBreak
	}
	if err := c.push(p); err != nil {
		return err
	}
	c.Regs.SetFlag(FlagIRQ, true)

	lo, err := c.load(vector)
	if err != nil {
		return err
	}
	hi, err := c.load(vector + 1)
	if err != nil {
		return err
	}
	c.Regs.PC = uint16(hi)<<8 | uint16(lo)
	return nil
}

// Step runs exactly one trip through the loop body: service a latched
// interrupt if one is pending and permitted, otherwise fetch, decode,
// and execute one instruction, then invoke the debugger hook.
func (c *CPU) Step() error {
	c.checkInterrupts()
	if c.pending != interruptNone {
		kind := c.pending
		c.pending = interruptNone
		if err := c.serviceInterrupt(kind); err != nil {
			return err
		}
		if c.debugger != nil {
			c.debugger(c.Regs)
		}
		return nil
	}

	opcode, err := c.fetch()
	if err != nil {
		return err
	}
	entry := c.set.dispatch[opcode]
	if entry.exec == nil {
		return &InvalidOpcodeError{Opcode: opcode, PC: c.Regs.PC - 1}
	}
	if err := entry.exec(c, entry); err != nil {
		return err
	}
	if c.debugger != nil {
		c.debugger(c.Regs)
	}
	return nil
}

// Execute runs forever, until Step returns an error (a fault, a
// HaltError, or an InvalidOpcodeError).
func (c *CPU) Execute() error {
	for {
		if err := c.Step(); err != nil {
			return err
		}
	}
}

// ExecuteFor runs for approximately d, polling the deadline between
// instructions (cancellation is instruction-granular, not
// cycle-granular — spec.md §5). Returns ErrTimeout if the deadline
// passes with no halt or fault.
func (c *CPU) ExecuteFor(d time.Duration) error {
	return c.ExecuteUntil(time.Now().Add(d))
}

// ExecuteUntil runs until deadline, polling between instructions.
func (c *CPU) ExecuteUntil(deadline time.Time) error {
	for {
		if !time.Now().Before(deadline) {
			return ErrTimeout
		}
		if err := c.Step(); err != nil {
			return err
		}
	}
}

// requestBrk latches a software BRK for the next Step to service;
// opBRK calls it after fetching its padding byte.
func (c *CPU) requestBrk() { c.pending = interruptBrk }
