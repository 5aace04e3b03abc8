package parser

// The 'do' keyword is reserved: it lexes as a keyword but no production
// accepts it, so using it reports a syntax error rather than a name error.
var keywords = map[string]TokenType{
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"do":     DO,
	"char":   CHAR,
	"int":    INT,
	"float":  FLOAT,
	"string": STRING,
	"void":   VOID,
	"return": RETURN,
}
