// Package assembler implements the two-pass 6502 assembler: a
// line/token tokenizer, an operand classifier that resolves one of
// thirteen addressing modes, a compilation context that walks source
// lines emitting bytes and directives, and the sparse Program artifact
// that results.
package assembler

import "fmt"

// CompilationErrorKind enumerates the deterministic, user-visible
// assembly failures spec.md §6 lists. Values double as process exit
// codes in cmd/asm6502, so the zero value is reserved (unused,
// ensuring every real kind maps to a positive code).
type CompilationErrorKind int

const (
	_ CompilationErrorKind = iota
	ErrUnknownCommand
	ErrUnexpectedInput
	ErrUnexpectedEndOfInput
	ErrInvalidToken
	ErrSymbolRedefinition
	ErrAliasRedefinition
	ErrUnknownIsr
	ErrInvalidIsrArgument
	ErrSymbolIsNotAllowed
	ErrAliasIsNotAllowed
	ErrInvalidOperandSize
	ErrInvalidOperandArgument
	ErrOperandModeNotSupported
	ErrInvalidCommandArgument
)

func (k CompilationErrorKind) String() string {
	switch k {
	case ErrUnknownCommand:
		return "UnknownCommand"
	case ErrUnexpectedInput:
		return "UnexpectedInput"
	case ErrUnexpectedEndOfInput:
		return "UnexpectedEndOfInput"
	case ErrInvalidToken:
		return "InvalidToken"
	case ErrSymbolRedefinition:
		return "SymbolRedefinition"
	case ErrAliasRedefinition:
		return "AliasRedefinition"
	case ErrUnknownIsr:
		return "UnknownIsr"
	case ErrInvalidIsrArgument:
		return "InvalidIsrArgument"
	case ErrSymbolIsNotAllowed:
		return "SymbolIsNotAllowed"
	case ErrAliasIsNotAllowed:
		return "AliasIsNotAllowed"
	case ErrInvalidOperandSize:
		return "InvalidOperandSize"
	case ErrInvalidOperandArgument:
		return "InvalidOperandArgument"
	case ErrOperandModeNotSupported:
		return "OperandModeNotSupported"
	case ErrInvalidCommandArgument:
		return "InvalidCommandArgument"
	default:
		return "Unknown"
	}
}

// CompilationError is the one error type the assembler ever returns
// for a malformed source file. It carries enough to print a source
// line with a caret under the offending token.
type CompilationError struct {
	Kind    CompilationErrorKind
	Token   Token
	Message string
}

func (e *CompilationError) Error() string {
	loc := e.Token.Location
	caret := ""
	if loc.Column > 0 {
		for i := 1; i < loc.Column; i++ {
			caret += " "
		}
		caret += "^"
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	return fmt.Sprintf("%s:%d: %s: %s\n%s\n%s", loc.Input, loc.Line, e.Kind, msg, loc.LineText, caret)
}

func newCompilationError(kind CompilationErrorKind, tok Token, format string, args ...interface{}) *CompilationError {
	return &CompilationError{Kind: kind, Token: tok, Message: fmt.Sprintf(format, args...)}
}
