package grammar

import (
	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(SaraLexer),
	participle.Elide("Whitespace"),
	// Function definitions and declarations both start with `type IDENT`;
	// the third token decides.
	participle.UseLookahead(3),
)

// Parse runs the declarative grammar over source text.
func Parse(name, source string) (*Program, error) {
	return parser.ParseString(name, source)
}
