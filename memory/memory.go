// Package memory defines the uniform device contract every
// memory-mapped component of the address space implements — RAM/ROM
// blocks, the TTY, and the PRNG devices all satisfy Device — plus the
// RAM/ROM block implementation itself.
package memory

import (
	"fmt"
)

// Device is the trait every memory-mapped component implements.
// Addresses passed in are already relative to the device's own base
// (the mapper subtracts its interval's lo before delegating). Devices
// never tick the clock themselves: the mapper ticks exactly once per
// bus access before delegating, so a device that ticked too would
// charge every access two cycles instead of one.
type Device interface {
	// Load returns the byte at addr. A device for which addr is out of
	// range returns an OutOfBoundsError.
	Load(addr uint16) (uint8, error)
	// Store writes value at addr. Writing a read-only address either
	// drops the write silently or returns a WriteToReadOnlyError,
	// depending on the device's mode.
	Store(addr uint16, value uint8) error
	// DebugPeek returns the byte at addr without ticking the clock or
	// triggering any device side effect. ok is false for addresses
	// that cannot be read without a side effect (write-only registers)
	// or that have never been written (sparse, uninitialized cells).
	// Used by the disassembler and tests, never by the running CPU.
	DebugPeek(addr uint16) (value uint8, ok bool)
}

// OutOfBoundsError reports an access past the end of a device's
// backing storage. Always fatal.
type OutOfBoundsError struct {
	Device string
	Addr   uint16
	Size   int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: address %#04x out of bounds (size %#04x)", e.Device, e.Addr, e.Size)
}

// WriteToReadOnlyError reports a store to a device in ModeThrowOnWrite.
// Fatal; ModeReadOnly devices instead drop the write silently.
type WriteToReadOnlyError struct {
	Device string
	Addr   uint16
	Value  uint8
}

func (e *WriteToReadOnlyError) Error() string {
	return fmt.Sprintf("%s: write of %#02x to read-only address %#04x", e.Device, e.Value, e.Addr)
}

// Mode selects how a Block reacts to stores.
type Mode int

const (
	// ModeReadWrite accepts both loads and stores.
	ModeReadWrite Mode = iota
	// ModeReadOnly accepts loads; stores are silently dropped.
	ModeReadOnly
	// ModeThrowOnWrite accepts loads; stores raise WriteToReadOnlyError.
	ModeThrowOnWrite
)

// Block is a contiguous byte array backing a RAM or ROM region.
type Block struct {
	name string
	mode Mode
	data []uint8
}

// NewBlock creates a Block of the given mode backed by data (copied).
// size fixes the block's address range; if len(data) < size the
// remainder is zero-filled, if len(data) > size it is truncated. The
// clock parameter of earlier revisions is gone: the mapper is the only
// thing that ticks.
func NewBlock(name string, mode Mode, size int, data []uint8) *Block {
	b := &Block{name: name, mode: mode, data: make([]uint8, size)}
	copy(b.data, data)
	return b
}

// Load implements Device.
func (b *Block) Load(addr uint16) (uint8, error) {
	if int(addr) >= len(b.data) {
		return 0, &OutOfBoundsError{Device: b.name, Addr: addr, Size: len(b.data)}
	}
	return b.data[addr], nil
}

// Store implements Device. ROM blocks (ModeReadOnly) drop the write
// silently; the access still costs the caller its one mapper-ticked
// cycle even though nothing lands in memory.
func (b *Block) Store(addr uint16, value uint8) error {
	if int(addr) >= len(b.data) {
		return &OutOfBoundsError{Device: b.name, Addr: addr, Size: len(b.data)}
	}
	switch b.mode {
	case ModeReadOnly:
		return nil
	case ModeThrowOnWrite:
		return &WriteToReadOnlyError{Device: b.name, Addr: addr, Value: value}
	default:
		b.data[addr] = value
		return nil
	}
}

// DebugPeek implements Device.
func (b *Block) DebugPeek(addr uint16) (uint8, bool) {
	if int(addr) >= len(b.data) {
		return 0, false
	}
	return b.data[addr], true
}

// Len returns the size of the backing array, used by callers sizing a
// mapper interval to match.
func (b *Block) Len() int { return len(b.data) }
