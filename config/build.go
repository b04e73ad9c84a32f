package config

import (
	"fmt"

	"github.com/hexbus/emu6502/clock"
	"github.com/hexbus/emu6502/devices"
	"github.com/hexbus/emu6502/mapper"
	"github.com/hexbus/emu6502/memory"
)

// Build wires cfg into a fully populated mapper.Mapper: one
// memory.Block per RAM/ROM entry (preloaded from blobs when the entry
// carries an ImageRef) and one device instance per Device entry, built
// through registry. blobs maps an ImageRef.File name to its raw bytes;
// a Package read from a zip populates this directly, and a caller
// wiring a single flat image can pass a one-entry map.
func Build(cfg *MemoryConfig, blobs map[string][]byte, registry *devices.Registry, clk clock.Clock) (*mapper.Mapper, error) {
	m := mapper.New(clk)

	for _, entry := range cfg.Entries {
		dev, size, err := buildEntryDevice(entry, blobs, registry, clk)
		if err != nil {
			return nil, fmt.Errorf("config: entry %q at %#04x: %w", entry.Name, entry.Offset, err)
		}
		hi := uint32(entry.Offset) + size - 1
		if hi > 0xFFFF {
			return nil, fmt.Errorf("config: entry %q overruns the address space", entry.Name)
		}
		if err := m.MapArea(entry.Offset, uint16(hi), entry.Name, dev); err != nil {
			return nil, fmt.Errorf("config: entry %q: %w", entry.Name, err)
		}
	}
	return m, nil
}

// entrySpan resolves a RAMROMEntry's Size field to an actual byte
// count: a Size of 0 is the "rest of the address space" sentinel,
// since RAMROMEntry.Size is a uint16 and so cannot itself spell 0x10000
// (the one span that would reach address $FFFF from offset 0).
func entrySpan(offset, size uint16) uint32 {
	if size == 0 {
		return 0x10000 - uint32(offset)
	}
	return uint32(size)
}

func buildEntryDevice(entry MemoryEntry, blobs map[string][]byte, registry *devices.Registry, clk clock.Clock) (memory.Device, uint32, error) {
	switch {
	case entry.RAM != nil:
		span := entrySpan(entry.Offset, entry.RAM.Size)
		data, err := loadImage(entry.RAM.Image, blobs, span)
		if err != nil {
			return nil, 0, err
		}
		return memory.NewBlock(entry.Name, memory.ModeReadWrite, int(span), data), span, nil
	case entry.ROM != nil:
		span := entrySpan(entry.Offset, entry.ROM.Size)
		data, err := loadImage(entry.ROM.Image, blobs, span)
		if err != nil {
			return nil, 0, err
		}
		return memory.NewBlock(entry.Name, memory.ModeReadOnly, int(span), data), span, nil
	case entry.Device != nil:
		dev, err := registry.Build(entry.Device.Class, entry.Device.Config, clk)
		if err != nil {
			return nil, 0, err
		}
		sizer, ok := dev.(interface{ Size() uint16 })
		if !ok {
			return nil, 0, fmt.Errorf("device class %q does not report its own size", entry.Device.Class)
		}
		return dev, uint32(sizer.Size()), nil
	default:
		return nil, 0, fmt.Errorf("entry has none of ram, rom, or device set")
	}
}

func loadImage(ref *ImageRef, blobs map[string][]byte, span uint32) ([]uint8, error) {
	if ref == nil {
		return nil, nil
	}
	raw, ok := blobs[ref.File]
	if !ok {
		return nil, fmt.Errorf("image file %q not found in package", ref.File)
	}
	if int(ref.Offset) > len(raw) {
		return nil, fmt.Errorf("image file %q: offset %d beyond its %d bytes", ref.File, ref.Offset, len(raw))
	}
	window := raw[ref.Offset:]
	if uint32(len(window)) > span {
		window = window[:span]
	}
	data := make([]uint8, span)
	copy(data, window)
	return data, nil
}
