package cpu

import (
	"errors"
	"fmt"
)

// HaltError is the CPU's controlled termination channel: the
// emulator-only HLT opcode fetches the byte following it as the halt
// code and raises it. It is not a fault — cmd/run6502 treats it as the
// program's exit status, not a failure.
type HaltError struct {
	Code      byte
	Registers Registers
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("halted with code %#02x (%s)", e.Code, e.Registers)
}

// InvalidOpcodeError reports a fetch of a byte with no entry in the
// active instruction set (NMOS6502 or NMOS6502Emu). Always fatal.
type InvalidOpcodeError struct {
	Opcode uint8
	PC     uint16
}

func (e *InvalidOpcodeError) Error() string {
	return fmt.Sprintf("invalid opcode %#02x at PC=%#04x", e.Opcode, e.PC)
}

// UnsupportedOperationError reports an attempt to execute ADC or SBC
// while the Decimal flag is set. Decimal-mode BCD arithmetic is
// explicitly out of scope; this repo fails loudly rather than produce
// silently wrong results.
type UnsupportedOperationError struct {
	Opcode uint8
	PC     uint16
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation at PC=%#04x (opcode %#02x): %s", e.PC, e.Opcode, e.Reason)
}

// ErrTimeout is returned by ExecuteFor and ExecuteUntil when the
// deadline passes between instructions with no halt or fault.
var ErrTimeout = errors.New("cpu: execution deadline reached")
