package assembler

import (
	"testing"

	"github.com/hexbus/emu6502/cpu"
)

func parseArg(t *testing.T, value string, aliases map[string]*Alias) *Argument {
	t.Helper()
	if aliases == nil {
		aliases = map[string]*Alias{}
	}
	arg, err := ParseInstructionArgument(Token{Value: value}, aliases)
	if err != nil {
		t.Fatalf("ParseInstructionArgument(%q): %v", value, err)
	}
	return arg
}

func TestParseInstructionArgumentModes(t *testing.T) {
	tests := []struct {
		name  string
		value string
		modes []cpu.AddressMode
		kind  ArgumentKind
	}{
		{"implied", "", []cpu.AddressMode{cpu.ModeImplied}, ArgumentNull},
		{"accumulator", "A", []cpu.AddressMode{cpu.ModeAccumulator}, ArgumentNull},
		{"immediate literal", "#$10", []cpu.AddressMode{cpu.ModeImmediate}, ArgumentBytes},
		{"indirect absolute", "($1234)", []cpu.AddressMode{cpu.ModeIndirect}, ArgumentBytes},
		{"indexed indirect", "($10,X)", []cpu.AddressMode{cpu.ModeIndirectX}, ArgumentBytes},
		{"indexed indirect hex-0x base", "(0x20,X)", []cpu.AddressMode{cpu.ModeIndirectX}, ArgumentBytes},
		{"indirect indexed", "($10),Y", []cpu.AddressMode{cpu.ModeIndirectY}, ArgumentBytes},
		{"zero page literal", "$10", []cpu.AddressMode{cpu.ModeZeroPage}, ArgumentBytes},
		{"absolute literal", "$1234", []cpu.AddressMode{cpu.ModeAbsolute}, ArgumentBytes},
		{"zero page indexed x", "$10,X", []cpu.AddressMode{cpu.ModeZeroPageX}, ArgumentBytes},
		{"absolute indexed x", "$1234,X", []cpu.AddressMode{cpu.ModeAbsoluteX}, ArgumentBytes},
		{"absolute indexed y", "$1234,Y", []cpu.AddressMode{cpu.ModeAbsoluteY}, ArgumentBytes},
		{"bare symbol absolute or relative", "loop", []cpu.AddressMode{cpu.ModeAbsolute, cpu.ModeRelative}, ArgumentSymbol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arg := parseArg(t, tt.value, nil)
			if arg.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", arg.Kind, tt.kind)
			}
			if len(arg.PossibleModes) != len(tt.modes) {
				t.Fatalf("PossibleModes = %v, want %v", arg.PossibleModes, tt.modes)
			}
			for _, m := range tt.modes {
				if !arg.PossibleModes[m] {
					t.Errorf("PossibleModes missing %v: got %v", m, arg.PossibleModes)
				}
			}
		})
	}
}

func TestParseInstructionArgumentUsesAliasSize(t *testing.T) {
	aliases := map[string]*Alias{
		"kZP":  {Name: "kZP", Value: []byte{0x10}},
		"kABS": {Name: "kABS", Value: []byte{0x00, 0x20}},
	}

	zp := parseArg(t, "kZP", aliases)
	if zp.Kind != ArgumentBytes || !zp.PossibleModes[cpu.ModeZeroPage] || zp.PossibleModes[cpu.ModeAbsolute] {
		t.Errorf("1-byte alias should narrow to ZeroPage only, got %v", zp.PossibleModes)
	}

	abs := parseArg(t, "kABS", aliases)
	if abs.Kind != ArgumentBytes || !abs.PossibleModes[cpu.ModeAbsolute] || abs.PossibleModes[cpu.ModeZeroPage] {
		t.Errorf("2-byte alias should narrow to Absolute only, got %v", abs.PossibleModes)
	}
}

func TestSymbolCannotUseZeroPageFamily(t *testing.T) {
	arg := parseArg(t, "loop,X", nil)
	if arg.PossibleModes[cpu.ModeZeroPageX] {
		t.Errorf("a symbol reference must never narrow to ZeroPage,X: %v", arg.PossibleModes)
	}
	if !arg.PossibleModes[cpu.ModeAbsoluteX] {
		t.Errorf("a symbol reference indexed by X should still allow Absolute,X: %v", arg.PossibleModes)
	}
}

func TestSelectModeRequiresExactlyOneSurvivor(t *testing.T) {
	arg := parseArg(t, "loop", nil) // {Absolute, Relative}

	branchOnly := map[cpu.AddressMode]bool{cpu.ModeRelative: true}
	mode, err := SelectMode(arg, branchOnly, Token{Value: "loop"})
	if err != nil {
		t.Fatalf("SelectMode: %v", err)
	}
	if mode != cpu.ModeRelative {
		t.Errorf("mode = %v, want Relative", mode)
	}

	ambiguous := map[cpu.AddressMode]bool{cpu.ModeAbsolute: true, cpu.ModeRelative: true}
	if _, err := SelectMode(arg, ambiguous, Token{Value: "loop"}); err == nil {
		t.Error("expected an error when more than one mode survives")
	}

	none := map[cpu.AddressMode]bool{cpu.ModeZeroPage: true}
	if _, err := SelectMode(arg, none, Token{Value: "loop"}); err == nil {
		t.Error("expected an error when no mode survives")
	}
}

func TestParseTextValueDecodesEscapes(t *testing.T) {
	got, err := ParseTextValue(Token{Value: `"hi\n"`}, false)
	if err != nil {
		t.Fatalf("ParseTextValue: %v", err)
	}
	want := "hi\n"
	if string(got) != want {
		t.Errorf("ParseTextValue = %q, want %q", got, want)
	}

	withZero, err := ParseTextValue(Token{Value: `"hi"`}, true)
	if err != nil {
		t.Fatalf("ParseTextValue: %v", err)
	}
	if len(withZero) != 3 || withZero[2] != 0 {
		t.Errorf("ParseTextValue with trailing zero = %v", withZero)
	}
}
