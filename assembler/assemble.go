package assembler

import (
	"io"

	"github.com/hexbus/emu6502/cpu"
)

// Assemble reads r line by line, assembling it against the given
// instruction set (typically cpu.Entries() or cpu.StrictEntries()),
// and returns the resulting Program. input names the source for
// diagnostics (normally the file path, or "-" for stdin).
func Assemble(input string, r io.Reader, entries []cpu.OpcodeEntry) (*Program, error) {
	ctx := NewContext(entries)
	tokenizer := NewTokenizer(input, r)

	for {
		lt, err := tokenizer.NextLine()
		if err != nil {
			return nil, err
		}
		if lt == nil {
			break
		}
		if err := ctx.ProcessLine(lt); err != nil {
			return nil, err
		}
	}

	if err := ctx.Finish(); err != nil {
		return nil, err
	}
	return ctx.Program, nil
}
