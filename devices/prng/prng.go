// Package prng implements two pseudo-random-number source devices:
// a seedable, reproducible generator addressable a byte at a time
// (class "prng.mt19937"; its stream comes from math/rand's seeded
// source, not from a Mersenne Twister), and a plain OS-entropy source
// with no visible state at all.
package prng

import (
	cryptorand "crypto/rand"
	"math/rand"
)

// Register names the MT19937 device's six byte-wide registers.
type Register uint16

const (
	RegSeed0   Register = 0
	RegSeed1   Register = 1
	RegSeed2   Register = 2
	RegSeed3   Register = 3
	RegEntropy Register = 4
	RegCR0     Register = 5

	deviceSize = 6
)

// DefaultSeed is the MT19937 device's reset seed, 0xDEADBEEF.
const DefaultSeed uint32 = 0xDEADBEEF

// MT19937 is a memory-mapped PRNG seeded from four individually
// addressable bytes. Its entropy bytes come from math/rand seeded with
// the 32-bit seed; they do not match the MT19937 output sequence for
// that seed. Writing any one of RegSeed0-3 immediately
// reseeds the generator with the reassembled 32-bit seed, so a caller
// can either set all four bytes for a specific seed or write just one
// to perturb the stream.
type MT19937 struct {
	seed uint32
	rng  *rand.Rand
	cr0  uint8
}

// NewMT19937 builds an MT19937 device seeded with DefaultSeed.
func NewMT19937() *MT19937 {
	d := &MT19937{seed: DefaultSeed}
	d.reseed()
	return d
}

// NewMT19937Seeded builds an MT19937 device with an explicit seed.
func NewMT19937Seeded(seed uint32) *MT19937 {
	d := &MT19937{seed: seed}
	d.reseed()
	return d
}

func (d *MT19937) reseed() {
	d.rng = rand.New(rand.NewSource(int64(d.seed)))
}

func seedByteOffset(reg Register) int {
	return int(reg) * 8
}

func (d *MT19937) seedByte(reg Register) uint8 {
	return uint8(d.seed >> seedByteOffset(reg))
}

func (d *MT19937) setSeedByte(reg Register, value uint8) {
	shift := uint(seedByteOffset(reg))
	mask := uint32(0xFF) << shift
	d.seed = (d.seed &^ mask) | (uint32(value) << shift)
	d.reseed()
}

// Size reports the number of address slots this device occupies.
func (d *MT19937) Size() uint16 { return deviceSize }

// Load implements memory.Device.
func (d *MT19937) Load(addr uint16) (uint8, error) {
	if addr >= deviceSize {
		return 0, &outOfRangeError{addr}
	}
	switch Register(addr) {
	case RegSeed0, RegSeed1, RegSeed2, RegSeed3:
		return d.seedByte(Register(addr)), nil
	case RegEntropy:
		return uint8(d.rng.Intn(256)), nil
	case RegCR0:
		return d.cr0, nil
	}
	return 0, nil
}

// Store implements memory.Device.
func (d *MT19937) Store(addr uint16, value uint8) error {
	if addr >= deviceSize {
		return &outOfRangeError{addr}
	}
	switch Register(addr) {
	case RegSeed0, RegSeed1, RegSeed2, RegSeed3:
		d.setSeedByte(Register(addr), value)
	case RegEntropy:
		// read-only; writes are no-ops
	case RegCR0:
		d.cr0 = value
	}
	return nil
}

// DebugPeek implements memory.Device. Entropy reads as 0 rather than
// consuming a byte from the stream, since peeking must have no effect
// on subsequent Load calls.
func (d *MT19937) DebugPeek(addr uint16) (uint8, bool) {
	if addr >= deviceSize {
		return 0, false
	}
	switch Register(addr) {
	case RegSeed0, RegSeed1, RegSeed2, RegSeed3:
		return d.seedByte(Register(addr)), true
	case RegEntropy:
		return 0, true
	case RegCR0:
		return d.cr0, true
	}
	return 0, false
}

// Random is a one-register device that returns an OS-entropy byte on
// every read and silently ignores writes. Unlike MT19937 it carries
// no reproducible state: the same program run twice sees two
// different streams.
type Random struct{}

// NewRandom builds a Random device.
func NewRandom() *Random {
	return &Random{}
}

const randomDeviceSize = 1

// Size reports the number of address slots this device occupies.
func (d *Random) Size() uint16 { return randomDeviceSize }

// Load implements memory.Device.
func (d *Random) Load(addr uint16) (uint8, error) {
	if addr >= randomDeviceSize {
		return 0, &outOfRangeError{addr}
	}
	var b [1]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Store implements memory.Device; writes are no-ops.
func (d *Random) Store(addr uint16, value uint8) error {
	if addr >= randomDeviceSize {
		return &outOfRangeError{addr}
	}
	return nil
}

// DebugPeek implements memory.Device. A Random device has no state to
// peek at, so this always reports 0.
func (d *Random) DebugPeek(addr uint16) (uint8, bool) {
	if addr >= randomDeviceSize {
		return 0, false
	}
	return 0, true
}

type outOfRangeError struct{ addr uint16 }

func (e *outOfRangeError) Error() string {
	return "prng: address out of range"
}
