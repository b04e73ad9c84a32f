package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hexbus/emu6502/cpu"
)

// Alias is a named 1- or 2-byte constant defined with `NAME = VALUE`
// or `NAME equ VALUE`. Aliases never relocate: their value is resolved
// the moment they're defined.
type Alias struct {
	Name  string
	Value []byte
}

// TokenType classifies an operand token before the mode-narrowing pass
// in ParseInstructionArgument: a numeric literal, a known alias, or
// (by elimination) a symbol name, possibly not yet defined.
type TokenType int

const (
	TokenSymbol TokenType = iota
	TokenAlias
	TokenValue
)

func (t TokenType) String() string {
	switch t {
	case TokenAlias:
		return "Alias"
	case TokenValue:
		return "Value"
	default:
		return "Symbol"
	}
}

// classifyToken reports whether tok's text is a numeric literal, a
// known alias name, or (by elimination) a symbol reference.
func classifyToken(tok Token, aliases map[string]*Alias) TokenType {
	if isNumericLiteral(tok.Value) {
		return TokenValue
	}
	if _, ok := aliases[tok.Value]; ok {
		return TokenAlias
	}
	return TokenSymbol
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '$' {
		return len(s) > 1
	}
	if len(s) > 1 && (s[1] == 'x' || s[1] == 'X') && s[0] == '0' {
		return len(s) > 2
	}
	return s[0] >= '0' && s[0] <= '9'
}

// ParseLiteralValue parses a bare numeric literal ($HH, $HHHH,
// 0xHH…, 0XHH…, or plain decimal digits) into its value.
func ParseLiteralValue(s string) (uint32, error) {
	switch {
	case strings.HasPrefix(s, "$"):
		v, err := strconv.ParseUint(s[1:], 16, 32)
		return uint32(v), err
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err
	default:
		v, err := strconv.ParseUint(s, 10, 32)
		return uint32(v), err
	}
}

// ParsePackedIntegral parses s into its minimal little-endian byte
// representation (1 byte for 0x00..0xff, 2 otherwise per spec.md
// §4.9), used by alias definitions.
func ParsePackedIntegral(s string) ([]byte, error) {
	v, err := ParseLiteralValue(s)
	if err != nil {
		return nil, err
	}
	if v <= 0xFF {
		return []byte{byte(v)}, nil
	}
	return []byte{byte(v), byte(v >> 8)}, nil
}

// ParseImmediateValue resolves value — a numeric literal or an alias
// reference — to its bytes, given expectedSize (0 meaning "infer"). A
// quoted string is not accepted: it fails to parse as a number and
// returns an error. Used both for `#literal`
// operands (expectedSize 1) and for .byte/.word/.dbyt/.dword data
// directive elements (expectedSize 1/2/2/4).
func ParseImmediateValue(value string, aliases map[string]*Alias, expectedSize int) ([]byte, error) {
	if alias, ok := aliases[value]; ok {
		return padOrTrim(alias.Value, expectedSize), nil
	}
	v, err := ParseLiteralValue(value)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as a number: %w", value, err)
	}
	bytes := make([]byte, 4)
	for i := range bytes {
		bytes[i] = byte(v >> (8 * i))
	}
	if expectedSize == 0 {
		if v <= 0xFF {
			return bytes[:1], nil
		}
		return bytes[:2], nil
	}
	return padOrTrim(bytes, expectedSize), nil
}

func padOrTrim(b []byte, size int) []byte {
	if size <= 0 || size == len(b) {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}

// ArgumentKind tags Argument's variant value (spec.md §9 "variant
// operand value"): no value, resolved bytes, or an unresolved symbol
// name awaiting relocation.
type ArgumentKind int

const (
	ArgumentNull ArgumentKind = iota
	ArgumentBytes
	ArgumentSymbol
)

// Argument is the result of classifying one operand token: the set of
// addressing modes it could still be (narrowed by syntax shape and
// operand size, further narrowed by the target instruction's
// supported modes in context.go), plus its resolved value if any.
type Argument struct {
	PossibleModes map[cpu.AddressMode]bool
	Kind          ArgumentKind
	Bytes         []byte
	Symbol        string
}

func modeSet(modes ...cpu.AddressMode) map[cpu.AddressMode]bool {
	m := make(map[cpu.AddressMode]bool, len(modes))
	for _, mode := range modes {
		m[mode] = true
	}
	return m
}

// narrowForSize restricts modes to the family matching a byte operand
// size that's now known: 1 byte picks the ZP-family/indirect reading,
// 2 bytes picks the ABS-family/indirect-jump reading. Relative is
// dropped unconditionally: a resolved literal or alias value is never
// a branch target, only a bare symbol (a label) is.
func narrowForSize(modes map[cpu.AddressMode]bool, size int) map[cpu.AddressMode]bool {
	out := map[cpu.AddressMode]bool{}
	for mode := range modes {
		switch mode {
		case cpu.ModeRelative:
			continue
		case cpu.ModeZeroPage, cpu.ModeZeroPageX, cpu.ModeZeroPageY, cpu.ModeIndirectX, cpu.ModeIndirectY:
			if size == 1 {
				out[mode] = true
			}
		case cpu.ModeAbsolute, cpu.ModeAbsoluteX, cpu.ModeAbsoluteY, cpu.ModeIndirect:
			if size == 2 {
				out[mode] = true
			}
		default:
			out[mode] = true
		}
	}
	return out
}

// narrowForSymbol drops the ZP-family and indirect-ZP modes a symbol
// reference can never use — the assembler can't know a forward
// reference's address fits in zero page at the point of emission
// (spec.md §4.8).
func narrowForSymbol(modes map[cpu.AddressMode]bool) map[cpu.AddressMode]bool {
	out := map[cpu.AddressMode]bool{}
	for mode := range modes {
		switch mode {
		case cpu.ModeZeroPage, cpu.ModeZeroPageX, cpu.ModeZeroPageY, cpu.ModeIndirectX, cpu.ModeIndirectY:
			continue
		default:
			out[mode] = true
		}
	}
	return out
}

// ParseInstructionArgument classifies tok's text per the operand
// grammar in spec.md §4.8.
func ParseInstructionArgument(tok Token, aliases map[string]*Alias) (*Argument, error) {
	value := tok.Value

	switch {
	case value == "":
		return &Argument{PossibleModes: modeSet(cpu.ModeImplied), Kind: ArgumentNull}, nil

	case value == "A" || value == "a":
		return &Argument{PossibleModes: modeSet(cpu.ModeAccumulator), Kind: ArgumentNull}, nil

	case strings.HasPrefix(value, "#"):
		inner := value[1:]
		bytes, err := ParseImmediateValue(inner, aliases, 1)
		if err != nil {
			return nil, newCompilationError(ErrInvalidOperandArgument, tok, "%v", err)
		}
		return &Argument{PossibleModes: modeSet(cpu.ModeImmediate), Kind: ArgumentBytes, Bytes: bytes}, nil

	case strings.HasPrefix(value, "("):
		return parseIndirectArgument(tok, aliases)

	default:
		return parseDirectArgument(tok, value, aliases)
	}
}

func parseIndirectArgument(tok Token, aliases map[string]*Alias) (*Argument, error) {
	value := tok.Value
	if strings.HasSuffix(value, "),Y") || strings.HasSuffix(value, "),y") {
		inner := value[1 : len(value)-3]
		return resolveOperand(tok, inner, aliases, modeSet(cpu.ModeIndirectY))
	}
	if !strings.HasSuffix(value, ")") {
		return nil, newCompilationError(ErrInvalidToken, tok, "unterminated parenthesized operand")
	}
	inner := value[1 : len(value)-1]
	if idx := strings.LastIndex(inner, ","); idx >= 0 {
		base, suffix := inner[:idx], inner[idx+1:]
		if suffix == "X" || suffix == "x" {
			return resolveOperand(tok, base, aliases, modeSet(cpu.ModeIndirectX))
		}
		return nil, newCompilationError(ErrInvalidToken, tok, "unsupported indexed-indirect operand %q", value)
	}
	return resolveOperand(tok, inner, aliases, modeSet(cpu.ModeIndirect))
}

func parseDirectArgument(tok Token, value string, aliases map[string]*Alias) (*Argument, error) {
	if idx := strings.LastIndex(value, ","); idx >= 0 {
		base := value[:idx]
		suffix := value[idx+1:]
		switch suffix {
		case "X", "x":
			return resolveOperand(tok, base, aliases, modeSet(cpu.ModeAbsoluteX, cpu.ModeZeroPageX))
		case "Y", "y":
			return resolveOperand(tok, base, aliases, modeSet(cpu.ModeAbsoluteY, cpu.ModeZeroPageY))
		default:
			return nil, newCompilationError(ErrInvalidToken, tok, "unsupported index register %q", suffix)
		}
	}
	return resolveOperand(tok, value, aliases, modeSet(cpu.ModeAbsolute, cpu.ModeZeroPage, cpu.ModeRelative))
}

// resolveOperand classifies the inner value string (stripped of
// parens/index suffix) and narrows candidateModes by what's now known
// about its size or symbol-ness.
func resolveOperand(tok Token, value string, aliases map[string]*Alias, candidateModes map[cpu.AddressMode]bool) (*Argument, error) {
	inner := Token{Value: value, Location: tok.Location}
	switch classifyToken(inner, aliases) {
	case TokenValue, TokenAlias:
		bytes, err := ParseImmediateValue(value, aliases, 0)
		if err != nil {
			return nil, newCompilationError(ErrInvalidOperandArgument, tok, "%v", err)
		}
		return &Argument{
			PossibleModes: narrowForSize(candidateModes, len(bytes)),
			Kind:          ArgumentBytes,
			Bytes:         bytes,
		}, nil
	default:
		return &Argument{
			PossibleModes: narrowForSymbol(candidateModes),
			Kind:          ArgumentSymbol,
			Symbol:        value,
		}, nil
	}
}

// ParseTextValue decodes a quoted-string token's escapes into raw
// bytes (see parseEscapeSequence), for .text/.asciiz directives.
// includeTrailingZero appends a NUL the way .asciiz does.
func ParseTextValue(tok Token, includeTrailingZero bool) ([]byte, error) {
	view := tok.Value
	if strings.HasPrefix(view, "\"") && strings.HasSuffix(view, "\"") && len(view) >= 2 {
		view = view[1 : len(view)-1]
	}
	var out []byte
	for i := 0; i < len(view); i++ {
		if view[i] == '\\' {
			b, n, err := parseEscapeSequence(view[i+1:])
			if err != nil {
				return nil, newCompilationError(ErrInvalidToken, tok, "%v", err)
			}
			out = append(out, b)
			i += n
			continue
		}
		out = append(out, view[i])
	}
	if includeTrailingZero {
		out = append(out, 0)
	}
	return out, nil
}

// DirectiveTokenType distinguishes a bare-word directive argument's
// four possible readings — used by .org to reject bare symbol names
// (forward references can't be used where an address is needed
// immediately) while still allowing known aliases and literals, and by
// .isr and the data directives to route a symbol to a relocation.
type DirectiveTokenType int

const (
	DirectiveUnknown DirectiveTokenType = iota
	DirectiveValue
	DirectiveAlias
	DirectiveSymbol
)

// GetTokenType classifies a directive argument token against the
// known alias and symbol tables, distinguishing an unresolved bare
// word (DirectiveUnknown) from one that already names a label
// (DirectiveSymbol). directives.go treats the two alike: both are
// symbol references (ErrSymbolIsNotAllowed in .org, a relocation in
// .isr and the data directives).
func GetTokenType(tok Token, aliases map[string]*Alias, symbols map[string]*Symbol) DirectiveTokenType {
	if isNumericLiteral(tok.Value) || strings.HasPrefix(tok.Value, "\"") {
		return DirectiveValue
	}
	if aliases != nil {
		if _, ok := aliases[tok.Value]; ok {
			return DirectiveAlias
		}
	}
	if symbols != nil {
		if _, ok := symbols[tok.Value]; ok {
			return DirectiveSymbol
		}
	}
	return DirectiveUnknown
}

// SelectMode intersects an argument's possible modes with the modes an
// instruction actually supports and requires exactly one survivor.
func SelectMode(arg *Argument, supported map[cpu.AddressMode]bool, tok Token) (cpu.AddressMode, error) {
	var survivors []cpu.AddressMode
	for mode := range arg.PossibleModes {
		if supported[mode] {
			survivors = append(survivors, mode)
		}
	}
	if len(survivors) != 1 {
		return 0, newCompilationError(ErrOperandModeNotSupported, tok,
			"operand %q matches %d supported addressing modes, want exactly 1", tok.Value, len(survivors))
	}
	return survivors[0], nil
}
