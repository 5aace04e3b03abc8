package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var SaraLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Keywords and identifiers (keywords match as Ident; the grammar
		// disambiguates)
		{"Ident", `_*[a-zA-Z][a-zA-Z0-9_]*`, nil},

		// Numeric literals (float before int so the dot is captured)
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Int", `[0-9]+`, nil},

		// Character and string literals
		{"Char", `'(\\.|[^'\\])'`, nil},
		{"String", `"(\\.|[^"\\])*"`, nil},

		// Operators (longest first)
		{"Operator", `(==|!=|<=|>=|<<|>>|[-+*/!<>=])`, nil},

		// Punctuation
		{"Punct", `[(){}\[\],;:]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
