package assembler

import (
	"math/bits"
	"strings"

	"github.com/hexbus/emu6502/cpu"
)

const memoryPageSize = 0x100

// isrVectors maps the .isr directive's first argument to the
// hardware vector it patches; reset/irq/nmib read naturally next to
// cpu.ResetVector/IRQVector/NMIVector, which is where the assembled
// program's actual dispatch addresses end up living.
var isrVectors = map[string]uint16{
	"reset": cpu.ResetVector,
	"irq":   cpu.IRQVector,
	"nmib":  cpu.NMIVector,
}

type directiveFunc func(c *CompilationContext, lt *LineTokenizer) error

// directives is the cc65-compatible subset this assembler understands
// (addr/align/asciiz/byt/byte/dbyt/dword/org/word), plus the isr/text
// extensions spec.md adds. Segment, scoping, and export directives
// (.proc, .segment, .import, ...) aren't modeled — there's only ever
// one segment here.
var directives = map[string]directiveFunc{
	"addr":   func(c *CompilationContext, lt *LineTokenizer) error { return c.parseDataCommand(lt, 2) },
	"align":  (*CompilationContext).parseAlignCommand,
	"asciiz": func(c *CompilationContext, lt *LineTokenizer) error { return c.parseTextCommand(lt, true) },
	"byt":    func(c *CompilationContext, lt *LineTokenizer) error { return c.parseDataCommand(lt, 1) },
	"byte":   func(c *CompilationContext, lt *LineTokenizer) error { return c.parseDataCommand(lt, 1) },
	"dbyt":   func(c *CompilationContext, lt *LineTokenizer) error { return c.parseDataCommand(lt, 2) },
	"dword":  func(c *CompilationContext, lt *LineTokenizer) error { return c.parseDataCommand(lt, 4) },
	"org":    (*CompilationContext).parseOriginCommand,
	"word":   func(c *CompilationContext, lt *LineTokenizer) error { return c.parseDataCommand(lt, 2) },
	"isr":    (*CompilationContext).parseIsrCommand,
	"text":   func(c *CompilationContext, lt *LineTokenizer) error { return c.parseTextCommand(lt, false) },
}

// HandleCommand dispatches a ".directive" token to its handler.
func (c *CompilationContext) HandleCommand(tok Token, lt *LineTokenizer) error {
	name := strings.ToLower(strings.TrimPrefix(tok.Value, "."))
	fn, ok := directives[name]
	if !ok {
		return newCompilationError(ErrUnknownCommand, tok, "unknown directive '.%s'", name)
	}
	return fn(c, lt)
}

// parseDataCommand emits a comma-separated list of values, each
// elementSize bytes wide. A symbol reference is only legal where
// elementSize is 2 (a relocatable address); the placeholder bytes are
// reserved now and patched by Program.UpdateRelocations once every
// label is defined.
func (c *CompilationContext) parseDataCommand(lt *LineTokenizer, elementSize int) error {
	tokens, err := lt.TokenList(",")
	if err != nil {
		return err
	}
	for _, tok := range tokens {
		switch GetTokenType(tok, c.Program.Aliases, c.Program.Symbols) {
		case DirectiveValue, DirectiveAlias:
			data, err := ParseImmediateValue(tok.Value, c.Program.Aliases, elementSize)
			if err != nil {
				return newCompilationError(ErrInvalidToken, tok, "%v", err)
			}
			if err := c.emitBytes(data); err != nil {
				return newCompilationError(ErrInvalidToken, tok, "%v", err)
			}
		default:
			if elementSize != 2 {
				return newCompilationError(ErrInvalidOperandSize, tok, "cannot put a %d-byte reference to symbol '%s'", elementSize, tok.Value)
			}
			if err := c.emitSymbolReference(tok.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseTextCommand emits a quoted string's decoded bytes, optionally
// NUL-terminated (.asciiz).
func (c *CompilationContext) parseTextCommand(lt *LineTokenizer, trailingZero bool) error {
	tok, err := lt.NextToken()
	if err != nil {
		return err
	}
	if !strings.HasPrefix(tok.Value, "\"") {
		return newCompilationError(ErrInvalidToken, tok, "expected a quoted string")
	}
	data, err := ParseTextValue(tok, trailingZero)
	if err != nil {
		return err
	}
	return c.emitBytes(data)
}

// parseAlignCommand advances the emission cursor to the next address
// that's a multiple of the given power-of-two alignment (or "page",
// shorthand for 256).
func (c *CompilationContext) parseAlignCommand(lt *LineTokenizer) error {
	tok, err := lt.NextToken()
	if err != nil {
		return err
	}
	var alignment uint32
	if tok.Value == "page" {
		alignment = memoryPageSize
	} else {
		v, err := ParseLiteralValue(tok.Value)
		if err != nil {
			return newCompilationError(ErrInvalidCommandArgument, tok, "cannot parse alignment value")
		}
		alignment = v
	}
	if bits.OnesCount32(alignment) != 1 {
		return newCompilationError(ErrInvalidCommandArgument, tok, "alignment %d is not a power of two", alignment)
	}
	mask := alignment - 1
	pos := uint32(c.CurrentPosition)
	if pos&mask != 0 {
		pos = (pos &^ mask) + alignment
	}
	c.CurrentPosition = uint16(pos)
	return nil
}

// parseOriginCommand sets the emission cursor directly; the address
// must be known now, so a bare symbol is rejected.
func (c *CompilationContext) parseOriginCommand(lt *LineTokenizer) error {
	tok, err := lt.NextToken()
	if err != nil {
		return err
	}
	switch GetTokenType(tok, c.Program.Aliases, c.Program.Symbols) {
	case DirectiveValue, DirectiveAlias:
		data, err := ParseImmediateValue(tok.Value, c.Program.Aliases, 2)
		if err != nil {
			return newCompilationError(ErrInvalidCommandArgument, tok, "%v", err)
		}
		c.CurrentPosition = uint16(data[0]) | uint16(data[1])<<8
		return nil
	default:
		return newCompilationError(ErrSymbolIsNotAllowed, tok, "'.org' requires a literal address, not a symbol")
	}
}

// parseIsrCommand patches one of the three hardware vectors directly,
// independent of the current emission cursor.
func (c *CompilationContext) parseIsrCommand(lt *LineTokenizer) error {
	isrTok, err := lt.NextToken()
	if err != nil {
		return err
	}
	vector, ok := isrVectors[isrTok.Value]
	if !ok {
		return newCompilationError(ErrUnknownIsr, isrTok, "unknown isr '%s'", isrTok.Value)
	}

	tok, err := lt.NextToken()
	if err != nil {
		return err
	}
	switch GetTokenType(tok, c.Program.Aliases, c.Program.Symbols) {
	case DirectiveValue, DirectiveAlias:
		data, err := ParseImmediateValue(tok.Value, c.Program.Aliases, 2)
		if err != nil {
			return newCompilationError(ErrInvalidIsrArgument, tok, "%v", err)
		}
		return c.Program.Code.PutBytes(vector, data, true)
	case DirectiveSymbol, DirectiveUnknown:
		sym := c.Program.ReferenceSymbol(tok.Value)
		if err := c.Program.Code.PutBytes(vector, []byte{0, 0}, true); err != nil {
			return err
		}
		c.Program.AddRelocation(&Relocation{Position: vector, Mode: RelocationAbsolute, Target: sym})
		return nil
	default:
		return newCompilationError(ErrInvalidIsrArgument, tok, "unrecognized isr argument '%s'", tok.Value)
	}
}
