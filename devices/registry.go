// Package devices collects the memory-mapped peripherals (tty, prng)
// and the static factory map that builds them from config, playing
// the role a dynamic plugin loader would in a hosted environment.
package devices

import (
	"fmt"
	"os"

	"github.com/hexbus/emu6502/clock"
	"github.com/hexbus/emu6502/devices/prng"
	"github.com/hexbus/emu6502/devices/tty"
	"github.com/hexbus/emu6502/memory"
)

// Factory builds a device instance from its config-file configuration
// block and the clock it should pace itself against.
type Factory func(cfg map[string]interface{}, clk clock.Clock) (memory.Device, error)

// Registry maps a device class name (as it appears in a memory config
// file's "class" field) to the Factory that builds it.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register associates class with f, overwriting any prior factory
// registered for the same class.
func (r *Registry) Register(class string, f Factory) {
	r.factories[class] = f
}

// Build constructs the device named by class, or returns an error if
// no factory is registered for it.
func (r *Registry) Build(class string, cfg map[string]interface{}, clk clock.Clock) (memory.Device, error) {
	f, ok := r.factories[class]
	if !ok {
		return nil, fmt.Errorf("devices: no factory registered for class %q", class)
	}
	return f(cfg, clk)
}

// DefaultRegistry returns a Registry with every device this repo
// knows how to build already registered: "tty" wired to the process's
// stdin/stdout, and the two prng classes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("tty", newTTYFactory)
	r.Register("prng.mt19937", newMT19937Factory)
	r.Register("prng.random", newRandomFactory)
	return r
}

func newTTYFactory(cfg map[string]interface{}, clk clock.Clock) (memory.Device, error) {
	fifoSize := uint8(tty.DefaultFifoBufferSize)
	if v, ok := cfg["fifo_size"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("tty: fifo_size: %w", err)
		}
		if n <= 0 || n > 255 {
			return nil, fmt.Errorf("tty: fifo_size %d out of range", n)
		}
		fifoSize = uint8(n)
	}

	baud := tty.BaudDefault
	if v, ok := cfg["baud"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("tty: baud: %w", err)
		}
		baud, err = tty.BaudRateFromInteger(int64(n))
		if err != nil {
			return nil, err
		}
	}

	d := tty.NewWithBaud(os.Stdin, os.Stdout, clk, baud, fifoSize)
	if v, ok := cfg["enabled"]; ok {
		enabled, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("tty: enabled must be a bool")
		}
		d.SetEnabled(enabled)
	}
	return d, nil
}

func newMT19937Factory(cfg map[string]interface{}, clk clock.Clock) (memory.Device, error) {
	if v, ok := cfg["seed"]; ok {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("prng.mt19937: seed: %w", err)
		}
		return prng.NewMT19937Seeded(uint32(n)), nil
	}
	return prng.NewMT19937(), nil
}

func newRandomFactory(cfg map[string]interface{}, clk clock.Clock) (memory.Device, error) {
	return prng.NewRandom(), nil
}

// toInt coerces a YAML-decoded scalar (which may surface as int,
// int64, or float64 depending on the decoder) to an int.
func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}
