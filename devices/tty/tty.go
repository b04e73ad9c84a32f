// Package tty implements a memory-mapped serial console: a 4-register
// device that paces byte transfer against the system clock's elapsed
// time rather than ticking once per access like ordinary RAM.
package tty

import (
	"fmt"
	"io"

	"github.com/hexbus/emu6502/clock"
)

// Register names the four byte-wide registers this device exposes.
type Register uint16

const (
	RegControl Register = 0
	RegInSize  Register = 1
	RegOutSize Register = 2
	RegFifo    Register = 3

	deviceSize = 4
)

// DefaultFifoBufferSize matches the original tty_device's default:
// enough to not drop bytes under normal line-at-a-time interaction.
const DefaultFifoBufferSize = 16

// BaudRate names one of the standard rates this device understands;
// CustomBaudRate builds an arbitrary bytes-per-second value instead.
type BaudRate uint64

const (
	Baud1200 BaudRate = iota
	Baud2400
	Baud4800
	Baud9600
	Baud19200
	Baud38400
	Baud57600
	Baud115200
	baudCustomFlag BaudRate = 1 << 63
	BaudDefault             = Baud9600
)

// CustomBaudRate builds a BaudRate carrying an arbitrary bytes/sec
// rate rather than one of the eight standard values.
func CustomBaudRate(bytesPerSecond uint64) BaudRate {
	return BaudRate(bytesPerSecond) | baudCustomFlag
}

// BaudRateFromInteger maps a plain integer baud rate (as read from a
// config file) to its BaudRate constant.
func BaudRateFromInteger(v int64) (BaudRate, error) {
	switch v {
	case 1200:
		return Baud1200, nil
	case 2400:
		return Baud2400, nil
	case 4800:
		return Baud4800, nil
	case 9600:
		return Baud9600, nil
	case 19200:
		return Baud19200, nil
	case 38400:
		return Baud38400, nil
	case 57600:
		return Baud57600, nil
	case 115200:
		return Baud115200, nil
	}
	return 0, fmt.Errorf("tty: invalid baud rate %d", v)
}

// byteRate converts a BaudRate to bytes/second (8 bits per byte, no
// start/stop bit accounting — good enough for pacing purposes).
func byteRate(br BaudRate) (uint64, error) {
	switch br {
	case Baud1200:
		return 1200 / 8, nil
	case Baud2400:
		return 2400 / 8, nil
	case Baud4800:
		return 4800 / 8, nil
	case Baud9600:
		return 9600 / 8, nil
	case Baud19200:
		return 19200 / 8, nil
	case Baud38400:
		return 38400 / 8, nil
	case Baud57600:
		return 57600 / 8, nil
	case Baud115200:
		return 115200 / 8, nil
	default:
		if br&baudCustomFlag != 0 {
			return uint64(br &^ baudCustomFlag), nil
		}
		return 0, fmt.Errorf("tty: invalid baud rate %#x", br)
	}
}

// controlRegister packs/unpacks the control byte: bit 0 is enabled,
// bits 4-6 are the baud rate selector (kBaudRageCr0BitOffset upstream).
type controlRegister struct {
	enabled bool
	rate    uint8
}

const rateBitOffset = 4

func deserializeControl(v uint8) controlRegister {
	return controlRegister{
		enabled: v&0x01 != 0,
		rate:    (v >> rateBitOffset) & 0x07,
	}
}

func (c controlRegister) serialize() uint8 {
	var v uint8
	if c.enabled {
		v |= 0x01
	}
	v |= (c.rate & 0x07) << rateBitOffset
	return v
}

// Device is the 4-register serial console. Reads of RegFifo dequeue a
// byte that arrived from In; writes to RegFifo enqueue a byte destined
// for Out. Both directions are paced by ByteDelta against the elapsed
// clock time, not by Load/Store call count, so polling RegInSize in a
// tight loop doesn't make bytes arrive any faster.
type Device struct {
	In  io.Reader
	Out io.Writer
	clk clock.Clock

	fifoSize uint8

	currentBaud    BaudRate
	byteRatePerSec uint64
	startTime      float64
	lastByteTime   uint64
	enabled        bool

	inQueue  []uint8
	outQueue []uint8

	inEOF bool
}

// New builds a Device at BaudDefault. fifoSize must fit in a byte
// (<=255); 0 means DefaultFifoBufferSize. Callers that want another
// rate, Baud1200 included, use NewWithBaud.
func New(in io.Reader, out io.Writer, clk clock.Clock, fifoSize uint8) *Device {
	return NewWithBaud(in, out, clk, BaudDefault, fifoSize)
}

// NewWithBaud builds a Device with an explicit initial baud rate.
func NewWithBaud(in io.Reader, out io.Writer, clk clock.Clock, baud BaudRate, fifoSize uint8) *Device {
	if fifoSize == 0 {
		fifoSize = DefaultFifoBufferSize
	}
	d := &Device{In: in, Out: out, clk: clk, fifoSize: fifoSize}
	d.SetRate(baud)
	return d
}

// SetEnabled toggles the device's transfer clock. Enabling rebases
// start_time to now so a long-disabled device doesn't instantly
// flush a backlog of "elapsed" bytes.
func (d *Device) SetEnabled(value bool) {
	if value == d.enabled {
		return
	}
	d.enabled = value
	if d.enabled {
		d.startTime = d.clk.Time()
		d.lastByteTime = 0
	}
}

// SetRate changes the pacing rate; ignored (returns an error) if br
// isn't a recognized standard rate or a CustomBaudRate value.
func (d *Device) SetRate(br BaudRate) error {
	rate, err := byteRate(br)
	if err != nil {
		return err
	}
	d.currentBaud = br
	d.byteRatePerSec = rate
	return nil
}

// byteDelta reports how many bytes' worth of time has elapsed since
// the last call, given the configured byte rate — the pacing quantum
// UpdateBuffers spends moving bytes in and out.
func (d *Device) byteDelta() uint64 {
	elapsed := d.clk.Time() - d.startTime
	total := uint64(elapsed * float64(d.byteRatePerSec))
	delta := total - d.lastByteTime
	d.lastByteTime = total
	return delta
}

// updateBuffers drains up to delta bytes from the output FIFO to Out,
// and reads up to delta bytes from In into the input FIFO, dropping
// the oldest buffered byte on overflow.
func (d *Device) updateBuffers() {
	delta := d.byteDelta()
	if delta == 0 {
		return
	}

	if d.enabled && d.Out != nil {
		for i := uint64(0); i < delta && len(d.outQueue) > 0; i++ {
			b := d.outQueue[0]
			d.outQueue = d.outQueue[1:]
			d.Out.Write([]byte{b})
		}
	}

	if d.In != nil && !d.inEOF {
		buf := make([]byte, 1)
		for i := uint64(0); i < delta && !d.inEOF; i++ {
			n, err := d.In.Read(buf)
			if n == 0 || err != nil {
				if err == io.EOF {
					d.inEOF = true
				}
				break
			}
			d.pushInput(buf[0])
		}
	}
}

func (d *Device) pushInput(b uint8) {
	d.inQueue = append(d.inQueue, b)
	if len(d.inQueue) > int(d.fifoSize) {
		d.inQueue = d.inQueue[1:]
	}
}

func (d *Device) pushOutput(b uint8) {
	d.outQueue = append(d.outQueue, b)
	if len(d.outQueue) > int(d.fifoSize) {
		d.outQueue = d.outQueue[1:]
	}
}

// Size reports the number of address slots this device occupies.
func (d *Device) Size() uint16 { return deviceSize }

// Load implements memory.Device.
func (d *Device) Load(addr uint16) (uint8, error) {
	if addr >= deviceSize {
		return 0, &outOfRangeError{addr}
	}
	d.updateBuffers()
	return d.read(Register(addr)), nil
}

func (d *Device) read(reg Register) uint8 {
	switch reg {
	case RegControl:
		return controlRegister{enabled: d.enabled, rate: uint8(d.currentBaud)}.serialize()
	case RegInSize:
		return uint8(len(d.inQueue))
	case RegOutSize:
		return uint8(len(d.outQueue))
	case RegFifo:
		if len(d.inQueue) == 0 {
			return 0
		}
		b := d.inQueue[0]
		d.inQueue = d.inQueue[1:]
		return b
	default:
		return 0
	}
}

// Store implements memory.Device.
func (d *Device) Store(addr uint16, value uint8) error {
	if addr >= deviceSize {
		return &outOfRangeError{addr}
	}
	switch Register(addr) {
	case RegControl:
		d.updateBuffers() // enabled may change, so catch up first
		cr := deserializeControl(value)
		d.SetEnabled(cr.enabled)
		_ = d.SetRate(BaudRate(cr.rate))
	case RegFifo:
		d.pushOutput(value)
	case RegInSize, RegOutSize:
		// read-only; writes are no-ops
	}
	d.updateBuffers()
	return nil
}

// DebugPeek implements memory.Device without dequeuing or pacing.
func (d *Device) DebugPeek(addr uint16) (uint8, bool) {
	if addr >= deviceSize {
		return 0, false
	}
	switch Register(addr) {
	case RegControl:
		return controlRegister{enabled: d.enabled, rate: uint8(d.currentBaud)}.serialize(), true
	case RegInSize:
		return uint8(len(d.inQueue)), true
	case RegOutSize:
		return uint8(len(d.outQueue)), true
	case RegFifo:
		if len(d.inQueue) == 0 {
			return 0, true
		}
		return d.inQueue[0], true
	default:
		return 0, false
	}
}

type outOfRangeError struct{ addr uint16 }

func (e *outOfRangeError) Error() string {
	return fmt.Sprintf("tty: address %#04x out of range (size %d)", e.addr, deviceSize)
}
