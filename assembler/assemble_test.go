package assembler

import (
	"strings"
	"testing"

	"github.com/hexbus/emu6502/cpu"
)

func assembleSource(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := Assemble("test.s", strings.NewReader(src), cpu.StrictEntries())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return prog
}

func TestAssembleSelfBranch(t *testing.T) {
	// A branch-to-self instruction: the operand is the distance back
	// to its own opcode byte, -2, i.e. 0xFE.
	prog := assembleSource(t, ".org $0600\nloop: BEQ loop\n")
	if prog.Code.Bytes[0x0600] != 0xF0 {
		t.Errorf("opcode = %#02x, want BEQ (0xF0)", prog.Code.Bytes[0x0600])
	}
	if prog.Code.Bytes[0x0601] != 0xFE {
		t.Errorf("operand = %#02x, want 0xFE (-2)", prog.Code.Bytes[0x0601])
	}
}

func TestAssembleForwardWordReference(t *testing.T) {
	prog := assembleSource(t, ".org $0600\nJMP target\ntarget:\nNOP\n")
	// JMP is 3 bytes ($0600-$0602), so target lands at $0603 -> 4C 03 06
	if prog.Code.Bytes[0x0600] != 0x4C {
		t.Fatalf("opcode = %#02x, want JMP (0x4C)", prog.Code.Bytes[0x0600])
	}
	lo := prog.Code.Bytes[0x0601]
	hi := prog.Code.Bytes[0x0602]
	got := uint16(lo) | uint16(hi)<<8
	if got != 0x0603 {
		t.Errorf("JMP target = %#04x, want $0603", got)
	}
}

func TestAssembleDataDirectivesAndAlias(t *testing.T) {
	prog := assembleSource(t, ".org $8000\nkValue = $2A\n.byte kValue, $10\n.word $1234\n")
	if prog.Code.Bytes[0x8000] != 0x2A {
		t.Errorf("byte[0] = %#02x, want $2a", prog.Code.Bytes[0x8000])
	}
	if prog.Code.Bytes[0x8001] != 0x10 {
		t.Errorf("byte[1] = %#02x, want $10", prog.Code.Bytes[0x8001])
	}
	if prog.Code.Bytes[0x8002] != 0x34 || prog.Code.Bytes[0x8003] != 0x12 {
		t.Errorf(".word did not emit little-endian $1234: %02x %02x", prog.Code.Bytes[0x8002], prog.Code.Bytes[0x8003])
	}
}

func TestAssembleIsrDirective(t *testing.T) {
	prog := assembleSource(t, ".org $C000\nreset:\nNOP\n.isr reset reset\n")
	lo := prog.Code.Bytes[cpu.ResetVector]
	hi := prog.Code.Bytes[cpu.ResetVector+1]
	if got := uint16(lo) | uint16(hi)<<8; got != 0xC000 {
		t.Errorf("reset vector = %#04x, want $c000", got)
	}
}

func TestAssembleTextDirective(t *testing.T) {
	prog := assembleSource(t, ".org $1000\n.asciiz \"hi\"\n")
	if prog.Code.Bytes[0x1000] != 'h' || prog.Code.Bytes[0x1001] != 'i' || prog.Code.Bytes[0x1002] != 0 {
		t.Errorf("asciiz bytes = %02x %02x %02x", prog.Code.Bytes[0x1000], prog.Code.Bytes[0x1001], prog.Code.Bytes[0x1002])
	}
}

func TestAssembleAlignDirective(t *testing.T) {
	prog := assembleSource(t, ".org $10FE\nNOP\n.align page\nNOP\n")
	if _, ok := prog.Code.Bytes[0x1100]; !ok {
		t.Fatalf("expected a byte at the aligned page boundary $1100, got %v", prog.Code.Bytes)
	}
}

func TestSymbolRedefinitionIsFatal(t *testing.T) {
	_, err := Assemble("test.s", strings.NewReader(".org $0600\nloop:\nNOP\nloop:\nNOP\n"), cpu.StrictEntries())
	var cerr *CompilationError
	if err == nil {
		t.Fatal("expected a redefinition error")
	}
	if !asCompilationError(err, &cerr) || cerr.Kind != ErrSymbolRedefinition {
		t.Errorf("err = %v, want SymbolRedefinition", err)
	}
}

func TestAliasRedefinitionIsFatal(t *testing.T) {
	_, err := Assemble("test.s", strings.NewReader("kX = $10\nkX = $20\n"), cpu.StrictEntries())
	var cerr *CompilationError
	if err == nil {
		t.Fatal("expected a redefinition error")
	}
	if !asCompilationError(err, &cerr) || cerr.Kind != ErrAliasRedefinition {
		t.Errorf("err = %v, want AliasRedefinition", err)
	}
}

func TestIndirectModeOnlyValidForJMP(t *testing.T) {
	_, err := Assemble("test.s", strings.NewReader(".org $0600\nINC ($10)\n"), cpu.StrictEntries())
	var cerr *CompilationError
	if err == nil {
		t.Fatal("expected OperandModeNotSupported")
	}
	if !asCompilationError(err, &cerr) || cerr.Kind != ErrOperandModeNotSupported {
		t.Errorf("err = %v, want OperandModeNotSupported", err)
	}
}

func TestUndefinedSymbolIsFatal(t *testing.T) {
	_, err := Assemble("test.s", strings.NewReader(".org $0600\nJMP nowhere\n"), cpu.StrictEntries())
	if err == nil {
		t.Fatal("expected an undefined-symbol error")
	}
}

func TestBranchOutOfRangeIsFatal(t *testing.T) {
	var src strings.Builder
	src.WriteString(".org $0600\ntarget:\n")
	for i := 0; i < 200; i++ {
		src.WriteString("NOP\n")
	}
	src.WriteString("BEQ target\n")
	_, err := Assemble("test.s", strings.NewReader(src.String()), cpu.StrictEntries())
	if err == nil {
		t.Fatal("expected a jump-too-far error")
	}
}

func asCompilationError(err error, target **CompilationError) bool {
	if cerr, ok := err.(*CompilationError); ok {
		*target = cerr
		return true
	}
	return false
}
