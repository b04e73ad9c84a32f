package config

import (
	"testing"

	"github.com/hexbus/emu6502/clock"
	"github.com/hexbus/emu6502/devices"
)

func TestBuildWiresRAMROMAndDevice(t *testing.T) {
	cfg := &MemoryConfig{
		Entries: []MemoryEntry{
			{Offset: 0x0000, Name: "ram", RAM: &RAMROMEntry{Size: 0x1000}},
			{Offset: 0x8000, Name: "rom", ROM: &RAMROMEntry{
				Size:  4,
				Image: &ImageRef{File: "rom.bin", Offset: 0},
			}},
			{Offset: 0xD000, Name: "console", Device: &DeviceEntry{Class: "tty"}},
		},
	}
	blobs := map[string][]byte{"rom.bin": {0xDE, 0xAD, 0xBE, 0xEF}}

	m, err := Build(cfg, blobs, devices.DefaultRegistry(), clock.NewSimple(0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if b, _ := m.DebugPeek(0x8000); b != 0xDE {
		t.Errorf("rom[0] = %#02x, want 0xde", b)
	}
	if b, _ := m.DebugPeek(0x8003); b != 0xEF {
		t.Errorf("rom[3] = %#02x, want 0xef", b)
	}
	if _, ok := m.DebugPeek(0xD000); !ok {
		t.Error("expected the tty console to be mapped at $D000")
	}
	if _, ok := m.DebugPeek(0x9000); ok {
		t.Error("expected $9000 to be unmapped")
	}
}

func TestBuildRejectsUnknownDeviceClass(t *testing.T) {
	cfg := &MemoryConfig{
		Entries: []MemoryEntry{
			{Offset: 0, Name: "bogus", Device: &DeviceEntry{Class: "nope"}},
		},
	}
	if _, err := Build(cfg, nil, devices.DefaultRegistry(), clock.NewSimple(0)); err == nil {
		t.Error("expected an error for an unregistered device class")
	}
}

func TestBuildRejectsMissingImage(t *testing.T) {
	cfg := &MemoryConfig{
		Entries: []MemoryEntry{
			{Offset: 0, Name: "rom", ROM: &RAMROMEntry{
				Size:  4,
				Image: &ImageRef{File: "missing.bin"},
			}},
		},
	}
	if _, err := Build(cfg, nil, devices.DefaultRegistry(), clock.NewSimple(0)); err == nil {
		t.Error("expected an error for a missing image blob")
	}
}
