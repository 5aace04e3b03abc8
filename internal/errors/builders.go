package errors

import (
	"fmt"

	"sara/internal/ast"
)

// Builder provides a fluent interface for assembling diagnostics.
type Builder struct {
	err CompilerError
}

func NewError(code, message string, pos ast.Position) *Builder {
	return &Builder{
		err: CompilerError{
			Level:    Error,
			Code:     code,
			Message:  message,
			Position: pos,
			Length:   1,
		},
	}
}

func NewWarning(code, message string, pos ast.Position) *Builder {
	b := NewError(code, message, pos)
	b.err.Level = Warning
	return b
}

func (b *Builder) WithLength(length int) *Builder {
	b.err.Length = length
	return b
}

func (b *Builder) WithSuggestion(message string) *Builder {
	b.err.Suggestions = append(b.err.Suggestions, message)
	return b
}

func (b *Builder) WithNote(note string) *Builder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *Builder) Build() CompilerError {
	return b.err
}

// Common constructors shared by more than one phase.

var characterSuggestions = map[byte]string{
	'@': "'@' is not used in Sara; identifiers start with a letter or '_'",
	'$': "'$' is not used in Sara; did you mean a plain identifier?",
	'`': "string literals use double quotes, not backticks",
}

// UnknownCharacter builds the lexical error for an unrecognized byte,
// with targeted suggestions for common offenders.
func UnknownCharacter(ch byte, pos ast.Position) CompilerError {
	b := NewError(ErrorLexical, fmt.Sprintf("unknown character %q", string(ch)), pos)
	if s, ok := characterSuggestions[ch]; ok {
		b = b.WithSuggestion(s)
	}
	return b.Build()
}

// UndeclaredName builds the name error for a use of an unknown identifier.
func UndeclaredName(name string, pos ast.Position) CompilerError {
	return NewError(ErrorName, fmt.Sprintf("undeclared symbol %q", name), pos).
		WithLength(len(name)).
		WithSuggestion("declare the variable before its first use").
		Build()
}

// Redeclared builds the name error for a second definition in one scope.
func Redeclared(name string, pos ast.Position) CompilerError {
	return NewError(ErrorName, fmt.Sprintf("%q is already defined", name), pos).
		WithLength(len(name)).
		Build()
}

// RedeclaredKind builds the name error for a redeclaration as a different
// kind of symbol (variable vs function).
func RedeclaredKind(name string, pos ast.Position) CompilerError {
	return NewError(ErrorName, fmt.Sprintf("%q redeclared as different kind of symbol", name), pos).
		WithLength(len(name)).
		Build()
}

// Internal builds the diagnostic for a violated compiler invariant. Always a
// bug in the compiler, never in user code.
func Internal(message string, pos ast.Position) CompilerError {
	return NewError(ErrorSemantic, "internal: "+message, pos).
		WithNote("this is a bug in the compiler, not in the source program").
		Build()
}
