package config

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// manifestName is the fixed path a Package stores its MemoryConfig
// under inside the zip archive.
const manifestName = ".memory.yaml"

// Package is an in-memory zip archive: a MemoryConfig plus the raw
// bytes of every image file it references. archive/zip is stdlib and
// the format needs nothing a third-party zip library would add (no
// streaming writes, no huge archives), so this repo doesn't pull one
// in — see DESIGN.md.
type Package struct {
	Config MemoryConfig
	Blobs  map[string][]byte
}

// ReadPackage parses a zip archive written by WritePackage.
func ReadPackage(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("config: opening package: %w", err)
	}

	pkg := &Package{Blobs: map[string][]byte{}}
	var manifestFound bool
	for _, f := range zr.File {
		data, err := readZipFile(f)
		if err != nil {
			return nil, fmt.Errorf("config: reading %q: %w", f.Name, err)
		}
		if f.Name == manifestName {
			if err := yaml.Unmarshal(data, &pkg.Config); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", manifestName, err)
			}
			manifestFound = true
			continue
		}
		pkg.Blobs[f.Name] = data
	}
	if !manifestFound {
		return nil, fmt.Errorf("config: package is missing %s", manifestName)
	}
	return pkg, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// WritePackage serializes pkg.Config as the manifest plus every blob
// in pkg.Blobs, in deterministic (sorted) file order.
func WritePackage(w io.Writer, pkg *Package) error {
	zw := zip.NewWriter(w)

	manifest, err := yaml.Marshal(&pkg.Config)
	if err != nil {
		return fmt.Errorf("config: marshaling manifest: %w", err)
	}
	if err := writeZipEntry(zw, manifestName, manifest); err != nil {
		return err
	}

	names := make([]string, 0, len(pkg.Blobs))
	for name := range pkg.Blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeZipEntry(zw, name, pkg.Blobs[name]); err != nil {
			return err
		}
	}
	return zw.Close()
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("config: creating %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}
