package disasm

import (
	"strings"
	"testing"

	"github.com/hexbus/emu6502/memory"
)

func TestStepDecodesKnownForms(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		want    string
		count   int
	}{
		{"implied", []uint8{0xEA}, "NOP", 1},
		{"immediate", []uint8{0xA9, 0x10}, "LDA #10", 2},
		{"zero page", []uint8{0xA5, 0x10}, "LDA 10", 2},
		{"absolute", []uint8{0x4C, 0x00, 0x06}, "JMP 0600", 3},
		{"relative", []uint8{0xF0, 0xFE}, "BEQ FE", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := memory.NewBlock("ram", memory.ModeReadWrite, 0x10000, nil)
			for i, b := range tt.program {
				if err := block.Store(uint16(i), b); err != nil {
					t.Fatalf("Store: %v", err)
				}
			}
			text, count := Step(0, block)
			if count != tt.count {
				t.Errorf("count = %d, want %d", count, tt.count)
			}
			for _, want := range strings.Fields(tt.want) {
				if !strings.Contains(text, want) {
					t.Errorf("disassembly %q missing %q", text, want)
				}
			}
		})
	}
}

func TestStepUnimplementedOpcode(t *testing.T) {
	block := memory.NewBlock("ram", memory.ModeReadWrite, 0x10000, nil)
	if err := block.Store(0, 0x0B); err != nil { // illegal/undocumented opcode, absent from every table here
		t.Fatalf("Store: %v", err)
	}
	text, count := Step(0, block)
	if !strings.Contains(text, "UNIMPLEMENTED") {
		t.Errorf("text = %q, want UNIMPLEMENTED", text)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
