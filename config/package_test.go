package config

import (
	"archive/zip"
	"bytes"
	"testing"
)

func TestWriteThenReadPackageRoundTrips(t *testing.T) {
	pkg := &Package{
		Config: MemoryConfig{
			Entries: []MemoryEntry{
				{Offset: 0x8000, Name: "rom", ROM: &RAMROMEntry{
					Size:  3,
					Image: &ImageRef{File: "rom.bin"},
				}},
			},
		},
		Blobs: map[string][]byte{"rom.bin": {1, 2, 3}},
	}

	var buf bytes.Buffer
	if err := WritePackage(&buf, pkg); err != nil {
		t.Fatalf("WritePackage: %v", err)
	}

	got, err := ReadPackage(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ReadPackage: %v", err)
	}
	if len(got.Config.Entries) != 1 || got.Config.Entries[0].Name != "rom" {
		t.Fatalf("Config mismatch: %+v", got.Config)
	}
	if !bytes.Equal(got.Blobs["rom.bin"], []byte{1, 2, 3}) {
		t.Errorf("Blobs[rom.bin] = %v, want [1 2 3]", got.Blobs["rom.bin"])
	}
}

func TestReadPackageRejectsMissingManifest(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("rom.bin")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte{1, 2, 3}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := ReadPackage(bytes.NewReader(buf.Bytes()), int64(buf.Len())); err == nil {
		t.Error("expected an error for a package with no manifest")
	}
}
