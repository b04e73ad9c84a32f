// Package mapper composes heterogeneous memory-mapped devices into a
// single 16-bit address space, routing loads and stores to the owning
// device by address interval.
package mapper

import (
	"fmt"
	"sort"

	"github.com/hexbus/emu6502/clock"
	"github.com/hexbus/emu6502/memory"
)

// BusFault reports an access to an address not covered by any mapped
// interval. Always fatal.
type BusFault struct {
	Addr  uint16
	Write bool
}

func (e *BusFault) Error() string {
	verb := "read"
	if e.Write {
		verb = "write"
	}
	return fmt.Sprintf("bus fault: unmapped %s at address %#04x", verb, e.Addr)
}

// OverlapError reports an attempt to map an interval that overlaps an
// already-mapped one.
type OverlapError struct {
	Lo, Hi         uint16
	ExistingLo, ExistingHi uint16
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("mapper: interval [%#04x,%#04x] overlaps existing [%#04x,%#04x]",
		e.Lo, e.Hi, e.ExistingLo, e.ExistingHi)
}

type area struct {
	lo, hi uint16
	device memory.Device
	name   string
}

// Mapper is a sorted, non-overlapping set of [lo,hi] intervals each
// bound to one device. It holds non-owning references to its devices;
// their lifetime is managed by whoever built the simulation.
type Mapper struct {
	clock clock.Clock
	areas []area
}

// New creates an empty Mapper. c may be nil, in which case the
// mapper's own per-access cycle is not ticked (useful for debug-only
// tooling that never runs a live CPU).
func New(c clock.Clock) *Mapper {
	return &Mapper{clock: c}
}

// MapArea binds [lo,hi] (inclusive) to device. It is fatal (returns an
// error) if the new interval overlaps any existing one.
func (m *Mapper) MapArea(lo, hi uint16, name string, device memory.Device) error {
	if hi < lo {
		return fmt.Errorf("mapper: invalid interval [%#04x,%#04x]", lo, hi)
	}
	for _, a := range m.areas {
		if lo <= a.hi && a.lo <= hi {
			return &OverlapError{Lo: lo, Hi: hi, ExistingLo: a.lo, ExistingHi: a.hi}
		}
	}
	m.areas = append(m.areas, area{lo: lo, hi: hi, device: device, name: name})
	sort.Slice(m.areas, func(i, j int) bool { return m.areas[i].lo < m.areas[j].lo })
	return nil
}

func (m *Mapper) find(addr uint16) *area {
	// Linear scan is fine: real configurations map a handful of
	// devices, never hundreds.
	for i := range m.areas {
		if addr >= m.areas[i].lo && addr <= m.areas[i].hi {
			return &m.areas[i]
		}
	}
	return nil
}

// Load ticks the clock once for the mapper's own dispatch cycle, then
// delegates to the owning device with the address rebased to that
// device's own origin. An unmapped access is a fatal BusFault.
func (m *Mapper) Load(addr uint16) (uint8, error) {
	if m.clock != nil {
		m.clock.Tick()
	}
	a := m.find(addr)
	if a == nil {
		return 0, &BusFault{Addr: addr, Write: false}
	}
	return a.device.Load(addr - a.lo)
}

// Store ticks the clock once, then delegates to the owning device
// with the address rebased to that device's own origin. An unmapped
// access is a fatal BusFault.
func (m *Mapper) Store(addr uint16, value uint8) error {
	if m.clock != nil {
		m.clock.Tick()
	}
	a := m.find(addr)
	if a == nil {
		return &BusFault{Addr: addr, Write: true}
	}
	return a.device.Store(addr-a.lo, value)
}

// DebugPeek never ticks the clock. ok is false for an unmapped address
// or one the owning device cannot currently read without a side
// effect.
func (m *Mapper) DebugPeek(addr uint16) (uint8, bool) {
	a := m.find(addr)
	if a == nil {
		return 0, false
	}
	return a.device.DebugPeek(addr - a.lo)
}
