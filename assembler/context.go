package assembler

import (
	"fmt"
	"strings"

	"github.com/hexbus/emu6502/cpu"
)

// CompilationContext walks tokenized source lines, advancing an
// emission cursor (CurrentPosition) and accumulating a Program. One
// context assembles exactly one source file's worth of lines; the
// caller drives it line by line via ProcessLine and finishes with
// Finish.
type CompilationContext struct {
	Program         *Program
	CurrentPosition uint16

	instructions map[string]map[cpu.AddressMode]cpu.OpcodeEntry
}

// NewContext builds a context targeting the given instruction set
// (cpu.Entries for the emulator-extended set including HLT/ILL, or
// cpu.StrictEntries for NMOS-only output).
func NewContext(entries []cpu.OpcodeEntry) *CompilationContext {
	instructions := map[string]map[cpu.AddressMode]cpu.OpcodeEntry{}
	for _, e := range entries {
		variants, ok := instructions[e.Mnemonic]
		if !ok {
			variants = map[cpu.AddressMode]cpu.OpcodeEntry{}
			instructions[e.Mnemonic] = variants
		}
		variants[e.Mode] = e
	}
	return &CompilationContext{
		Program:      NewProgram(),
		instructions: instructions,
	}
}

// ProcessLine consumes one already-tokenized source line: a directive,
// a label definition (optionally followed by an instruction on the
// same line), an alias definition, or a bare instruction.
func (c *CompilationContext) ProcessLine(lt *LineTokenizer) error {
	first, err := lt.NextToken()
	if err != nil {
		return err
	}
	if first.Empty() {
		return nil
	}

	if strings.HasPrefix(first.Value, ".") {
		return c.HandleCommand(first, lt)
	}

	if strings.HasSuffix(first.Value, ":") {
		if err := c.BeginSymbol(first); err != nil {
			return err
		}
		first, err = lt.NextToken()
		if err != nil {
			return err
		}
		if first.Empty() {
			return nil
		}
	}

	if variants, ok := c.instructions[strings.ToUpper(first.Value)]; ok {
		return c.emitInstruction(first, variants, lt)
	}

	eq, err := lt.NextToken()
	if err != nil {
		return err
	}
	if eq.Empty() || (eq.Value != "=" && !strings.EqualFold(eq.Value, "equ")) {
		return newCompilationError(ErrUnknownCommand, first, "'%s' is not a known mnemonic, directive, or alias definition", first.Value)
	}
	value, err := lt.NextToken()
	if err != nil {
		return err
	}
	if value.Empty() {
		return newCompilationError(ErrUnexpectedEndOfInput, eq, "expected a value after '%s'", eq.Value)
	}
	return c.AddDefinition(first, value)
}

// Finish patches every pending relocation now that the whole file has
// been walked and every label has its final offset.
func (c *CompilationContext) Finish() error {
	if err := c.Program.UpdateRelocations(); err != nil {
		return fmt.Errorf("assembler: %w", err)
	}
	return nil
}

// BeginSymbol defines a label at the current emission cursor.
// Redefining an already-offset symbol is fatal; a symbol that was
// only referenced so far (a forward reference) simply gets its offset
// filled in.
func (c *CompilationContext) BeginSymbol(tok Token) error {
	name := strings.TrimSuffix(tok.Value, ":")
	if err := c.Program.DefineSymbol(name, c.CurrentPosition); err != nil {
		return newCompilationError(ErrSymbolRedefinition, tok, "%v", err)
	}
	return nil
}

// AddDefinition binds an alias name to a literal's packed byte value.
// Aliases, unlike symbols, can never be redefined even as a no-op.
func (c *CompilationContext) AddDefinition(nameTok, valueTok Token) error {
	if _, ok := c.Program.Aliases[nameTok.Value]; ok {
		return newCompilationError(ErrAliasRedefinition, nameTok, "alias '%s' is already defined", nameTok.Value)
	}
	data, err := ParsePackedIntegral(valueTok.Value)
	if err != nil {
		return newCompilationError(ErrInvalidToken, valueTok, "%v", err)
	}
	c.Program.Aliases[nameTok.Value] = &Alias{Name: nameTok.Value, Value: data}
	return nil
}

// emitInstruction reassembles the operand (rejoining a trailing
// ",X"/",Y"/",Y" index that the tokenizer split on the comma
// delimiter), classifies it, picks the one addressing mode the
// instruction and the operand agree on, and emits the opcode plus its
// operand bytes.
func (c *CompilationContext) emitInstruction(mnemonicTok Token, variants map[cpu.AddressMode]cpu.OpcodeEntry, lt *LineTokenizer) error {
	opnd, err := lt.NextToken()
	if err != nil {
		return err
	}
	text := opnd.Value
	loc := opnd.Location
	if !opnd.Empty() {
		next, err := lt.NextToken()
		if err != nil {
			return err
		}
		if !next.Empty() {
			if next.Value != "," {
				return newCompilationError(ErrInvalidToken, next, "expected ','")
			}
			idx, err := lt.NextToken()
			if err != nil {
				return err
			}
			if idx.Empty() {
				return newCompilationError(ErrUnexpectedEndOfInput, idx, "expected an index register after ','")
			}
			text += "," + idx.Value
		}
	} else {
		loc = mnemonicTok.Location
	}

	operandTok := Token{Value: text, Location: loc}
	arg, err := ParseInstructionArgument(operandTok, c.Program.Aliases)
	if err != nil {
		return err
	}

	supported := make(map[cpu.AddressMode]bool, len(variants))
	for mode := range variants {
		supported[mode] = true
	}
	mode, err := SelectMode(arg, supported, mnemonicTok)
	if err != nil {
		return err
	}
	entry := variants[mode]
	size := mode.OperandBytes()

	bytes := append([]byte{entry.Opcode}, make([]byte, size)...)
	switch arg.Kind {
	case ArgumentBytes:
		copy(bytes[1:], arg.Bytes)
	case ArgumentSymbol:
		// left zero-filled; patched by UpdateRelocations once its
		// label is defined.
	}

	instrPos := c.CurrentPosition
	if err := c.emitBytes(bytes); err != nil {
		return newCompilationError(ErrInvalidCommandArgument, mnemonicTok, "%v", err)
	}

	if arg.Kind == ArgumentSymbol {
		relocMode := RelocationAbsolute
		if mode == cpu.ModeRelative {
			relocMode = RelocationRelative
		}
		sym := c.Program.ReferenceSymbol(arg.Symbol)
		c.Program.AddRelocation(&Relocation{Position: instrPos + 1, Mode: relocMode, Target: sym})
	}
	return nil
}

// emitSymbolReference reserves a 2-byte placeholder at the current
// cursor and records a relocation against name, for data directives
// (.word/.addr/.dbyt) naming a forward-referenced label.
func (c *CompilationContext) emitSymbolReference(name string) error {
	pos := c.CurrentPosition
	if err := c.emitBytes([]byte{0, 0}); err != nil {
		return err
	}
	sym := c.Program.ReferenceSymbol(name)
	c.Program.AddRelocation(&Relocation{Position: pos, Mode: RelocationAbsolute, Target: sym})
	return nil
}

func (c *CompilationContext) emitBytes(data []byte) error {
	if err := c.Program.Code.PutBytes(c.CurrentPosition, data, false); err != nil {
		return err
	}
	c.CurrentPosition += uint16(len(data))
	return nil
}
