package devices

import (
	"testing"

	"github.com/hexbus/emu6502/clock"
)

func TestDefaultRegistryBuildsEachClass(t *testing.T) {
	r := DefaultRegistry()
	clk := clock.NewSimple(0)

	classes := []struct {
		class string
		cfg   map[string]interface{}
	}{
		{"tty", map[string]interface{}{"fifo_size": 32, "baud": 9600}},
		{"prng.mt19937", map[string]interface{}{"seed": 7}},
		{"prng.random", nil},
	}
	for _, c := range classes {
		if _, err := r.Build(c.class, c.cfg, clk); err != nil {
			t.Errorf("Build(%q): %v", c.class, err)
		}
	}
}

func TestBuildUnknownClassFails(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.Build("nope", nil, clock.NewSimple(0)); err == nil {
		t.Error("expected an error for an unregistered class")
	}
}

func TestTTYFactoryRejectsBadFifoSize(t *testing.T) {
	r := DefaultRegistry()
	_, err := r.Build("tty", map[string]interface{}{"fifo_size": 1000}, clock.NewSimple(0))
	if err == nil {
		t.Error("expected an error for an out-of-range fifo_size")
	}
}
