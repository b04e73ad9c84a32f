// Package config defines the on-disk memory layout format and the
// glue that turns it into a running mapper.Mapper: the packager/runner
// boundary, expressed as a YAML document plus a zip container for the
// binary images it references.
package config

// MemoryConfig is the top-level document parsed from a .memory.yaml
// file: an ordered list of address-space entries.
type MemoryConfig struct {
	Entries []MemoryEntry `yaml:"entries"`
}

// MemoryEntry places exactly one of RAM, ROM, or Device at Offset.
// Name is used only for diagnostics (bus faults, --verbose logging).
type MemoryEntry struct {
	Offset uint16       `yaml:"offset"`
	Name   string       `yaml:"name"`
	RAM    *RAMROMEntry `yaml:"ram,omitempty"`
	ROM    *RAMROMEntry `yaml:"rom,omitempty"`
	Device *DeviceEntry `yaml:"device,omitempty"`
}

// RAMROMEntry describes a flat memory.Block: Size bytes, optionally
// preloaded from Image. A Size of 0 means "every remaining address up
// to $FFFF" — the one span a uint16 field cannot otherwise spell.
type RAMROMEntry struct {
	Image *ImageRef `yaml:"image,omitempty"`
	Size  uint16    `yaml:"size"`
}

// ImageRef names a binary blob (packaged alongside the .memory.yaml
// in a config.Package zip) and the byte offset within it to start
// reading from.
type ImageRef struct {
	File   string `yaml:"file"`
	Offset uint16 `yaml:"offset"`
}

// DeviceEntry names a devices.Registry factory class and the config
// block to pass it.
type DeviceEntry struct {
	Class  string                 `yaml:"class"`
	Config map[string]interface{} `yaml:"config"`
}
