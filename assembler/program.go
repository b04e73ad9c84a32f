package assembler

import (
	"fmt"
	"sort"
)

// RelocationMode names how UpdateRelocations patches a pending
// reference once its symbol resolves.
type RelocationMode int

const (
	// RelocationAbsolute writes the symbol's 16-bit address as two
	// little-endian bytes at Position.
	RelocationAbsolute RelocationMode = iota
	// RelocationRelative writes a single signed byte offset suitable
	// for a branch instruction, measured from the byte after Position.
	RelocationRelative
)

func (m RelocationMode) String() string {
	if m == RelocationRelative {
		return "Relative"
	}
	return "Absolute"
}

// Symbol is a label: a name bound to an address, defined exactly once.
// Offset is nil until the label's line is actually emitted, which
// lets forward references record a Relocation against it before its
// address is known.
type Symbol struct {
	Name     string
	Offset   *uint16
	Imported bool
}

func (s *Symbol) String() string {
	off := "----"
	if s.Offset != nil {
		off = fmt.Sprintf("%04x", *s.Offset)
	}
	return fmt.Sprintf("Symbol{offset:%s,imported:%v,name:'%s'}", off, s.Imported, s.Name)
}

func (s *Symbol) Equal(o *Symbol) bool {
	if s.Name != o.Name || s.Imported != o.Imported {
		return false
	}
	if (s.Offset == nil) != (o.Offset == nil) {
		return false
	}
	return s.Offset == nil || *s.Offset == *o.Offset
}

// Relocation is a pending fixup: Position needs patching once Target
// resolves to an address. Program keeps them in one flat list (no
// per-symbol index and no back-pointer on Symbol); UpdateRelocations
// walks the whole list once, after every label is defined.
type Relocation struct {
	Position uint16
	Mode     RelocationMode
	Target   *Symbol
}

func (r *Relocation) String() string {
	name := "-"
	if r.Target != nil {
		name = fmt.Sprintf("'%s'", r.Target.Name)
	}
	return fmt.Sprintf("Relocation{position:%04x,mode:%s,label:%s}", r.Position, r.Mode, name)
}

func (r *Relocation) Equal(o *Relocation) bool {
	if r.Position != o.Position || r.Mode != o.Mode {
		return false
	}
	if (r.Target == nil) != (o.Target == nil) {
		return false
	}
	return r.Target == nil || r.Target.Equal(o.Target)
}

// RelativeJumpOffset computes the signed byte a branch instruction
// needs to reach target, where position is the address just past the
// branch's operand byte (UpdateRelocations passes the operand's
// address plus one), erroring if the distance exceeds a single byte's
// range.
func RelativeJumpOffset(position, target uint16) (int8, error) {
	off := int(target) - int(position)
	if off > 127 || off < -128 {
		return 0, fmt.Errorf("jump from %#04x to %#04x is too far (offset %d)", position, target, off)
	}
	return int8(off), nil
}

// SparseBinaryCode is a byte-addressed, sparsely populated image: only
// the addresses a program actually emits to are present.
type SparseBinaryCode struct {
	Bytes map[uint16]uint8
}

func NewSparseBinaryCode() *SparseBinaryCode {
	return &SparseBinaryCode{Bytes: map[uint16]uint8{}}
}

// CodeRange returns the lowest and highest occupied addresses. On an
// empty image it returns 0, 0; HexDump checks for that case first.
func (s *SparseBinaryCode) CodeRange() (min, max uint16) {
	first := true
	for addr := range s.Bytes {
		if first || addr < min {
			min = addr
		}
		if first || addr > max {
			max = addr
		}
		first = false
	}
	return min, max
}

// PutByte writes one byte, refusing to silently overwrite an already
// occupied address unless overwrite is set (used by UpdateRelocations
// patching a placeholder and by .isr writing a hardware vector).
func (s *SparseBinaryCode) PutByte(address uint16, b uint8, overwrite bool) error {
	if _, ok := s.Bytes[address]; ok && !overwrite {
		return fmt.Errorf("address %#04x is already occupied", address)
	}
	s.Bytes[address] = b
	return nil
}

// PutBytes writes a run of bytes starting at address, stopping short
// of wrapping past 0xFFFF.
func (s *SparseBinaryCode) PutBytes(address uint16, data []byte, overwrite bool) error {
	for i, b := range data {
		a := int(address) + i
		if a > 0xFFFF {
			return fmt.Errorf("write at offset %d overflows the address space", i)
		}
		if err := s.PutByte(uint16(a), b, overwrite); err != nil {
			return err
		}
	}
	return nil
}

// HexDump renders the image as 16-byte rows, each prefixed by its base
// address; unoccupied bytes print as "--" and rows with nothing
// occupied are skipped entirely.
func (s *SparseBinaryCode) HexDump(linePrefix string) string {
	if len(s.Bytes) == 0 {
		return ""
	}
	rawMin, rawMax := s.CodeRange()
	min := uint32(rawMin) &^ 0xF
	max := uint32(rawMax) | 0xF

	var out string
	for pos := min; pos < max; pos += 0x10 {
		var hexes string
		any := false
		for off := uint32(0); off <= 0xF; off++ {
			addr := uint16(pos + off)
			if b, ok := s.Bytes[addr]; ok {
				any = true
				hexes += fmt.Sprintf(" %02x", b)
			} else {
				hexes += " --"
			}
		}
		if any {
			out += fmt.Sprintf("%s%04x |%s\n", linePrefix, pos, hexes)
		}
	}
	return out
}

func (s *SparseBinaryCode) Equal(o *SparseBinaryCode) bool {
	if len(s.Bytes) != len(o.Bytes) {
		return false
	}
	for addr, b := range s.Bytes {
		if ob, ok := o.Bytes[addr]; !ok || ob != b {
			return false
		}
	}
	return true
}

// Program is the assembler's output: the sparse binary image plus the
// symbol, relocation, and alias tables that produced it. Aliases don't
// appear in the equality check or the textual dump below — they never
// outlive assembly, leaving no trace in the emitted artifact.
type Program struct {
	Code        *SparseBinaryCode
	Symbols     map[string]*Symbol
	Relocations []*Relocation
	Aliases     map[string]*Alias
}

func NewProgram() *Program {
	return &Program{
		Code:    NewSparseBinaryCode(),
		Symbols: map[string]*Symbol{},
		Aliases: map[string]*Alias{},
	}
}

// AddRelocation records a fixup to apply once every line has been
// walked; context.go calls this while emitting bytes and UpdateRelocations
// once at the very end, mirroring the two-pass structure of the
// assembler itself — every symbol is defined before any relocation is
// patched, forward references included.
func (p *Program) AddRelocation(r *Relocation) {
	p.Relocations = append(p.Relocations, r)
}

// UpdateRelocations patches every recorded relocation against its
// target symbol's now-final offset. Call once, after the whole source
// file has been walked. Returns an error naming the first symbol that
// was referenced but never defined.
func (p *Program) UpdateRelocations() error {
	for _, r := range p.Relocations {
		if r.Target.Offset == nil {
			return fmt.Errorf("undefined symbol '%s' referenced at %#04x", r.Target.Name, r.Position)
		}
		target := *r.Target.Offset
		switch r.Mode {
		case RelocationAbsolute:
			if err := p.Code.PutBytes(r.Position, []byte{byte(target), byte(target >> 8)}, true); err != nil {
				return err
			}
		case RelocationRelative:
			offset, err := RelativeJumpOffset(r.Position+1, target)
			if err != nil {
				return err
			}
			if err := p.Code.PutByte(r.Position, byte(offset), true); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown relocation mode %v", r.Mode)
		}
	}
	return nil
}

// FindSymbol returns the named symbol, or nil if it hasn't been
// referenced or defined yet.
func (p *Program) FindSymbol(name string) *Symbol {
	return p.Symbols[name]
}

// DefineSymbol binds name to offset, creating the Symbol if this is
// its first mention (a forward reference already created a Symbol
// with a nil Offset) or setting Offset if it wasn't set yet. Returns
// an error if name was already defined (redefinition is fatal).
func (p *Program) DefineSymbol(name string, offset uint16) error {
	if sym, ok := p.Symbols[name]; ok {
		if sym.Offset != nil {
			return fmt.Errorf("symbol '%s' is already defined at %#04x", name, *sym.Offset)
		}
		sym.Imported = false
		sym.Offset = &offset
		return nil
	}
	p.Symbols[name] = &Symbol{Name: name, Offset: &offset}
	return nil
}

// ReferenceSymbol returns the named symbol, creating an as-yet-
// undefined (imported) one on first reference — the forward-reference
// case.
func (p *Program) ReferenceSymbol(name string) *Symbol {
	if sym, ok := p.Symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, Imported: true}
	p.Symbols[name] = sym
	return sym
}

// UnresolvedSymbols returns the names of every symbol still lacking
// an offset once assembly reaches end of input — referenced but never
// defined.
func (p *Program) UnresolvedSymbols() []string {
	var names []string
	for name, sym := range p.Symbols {
		if sym.Offset == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SymbolDump renders "name = $addr" for every resolved symbol, sorted
// by address then name, for the --symbol-dump CLI output.
func (p *Program) SymbolDump() string {
	type entry struct {
		name string
		addr uint16
	}
	var entries []entry
	for name, sym := range p.Symbols {
		if sym.Offset != nil {
			entries = append(entries, entry{name, *sym.Offset})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].addr != entries[j].addr {
			return entries[i].addr < entries[j].addr
		}
		return entries[i].name < entries[j].name
	})
	var out string
	for _, e := range entries {
		out += fmt.Sprintf("%s = $%04x\n", e.name, e.addr)
	}
	return out
}

func (p *Program) String() string {
	out := "Program:\n\tSymbols:\n"
	for _, sym := range p.Symbols {
		out += fmt.Sprintf("\t\t%s\n", sym)
	}
	out += "\tRelocations:\n"
	for _, r := range p.Relocations {
		out += fmt.Sprintf("\t\t%s\n", r)
	}
	out += "\tCode:\n"
	out += p.Code.HexDump("\t\t")
	return out
}

func (p *Program) Equal(o *Program) bool {
	if !p.Code.Equal(o.Code) {
		return false
	}
	if len(p.Symbols) != len(o.Symbols) {
		return false
	}
	for name, sym := range p.Symbols {
		osym, ok := o.Symbols[name]
		if !ok || !sym.Equal(osym) {
			return false
		}
	}
	if len(p.Relocations) != len(o.Relocations) {
		return false
	}
	for i, r := range p.Relocations {
		if !r.Equal(o.Relocations[i]) {
			return false
		}
	}
	return true
}
