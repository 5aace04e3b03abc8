package errors

// Error codes for the Sara compiler. Codes are stable across releases so
// documentation and editor tooling can key off them.
//
// Error code ranges:
// E0001: syntax errors
// E0002: lexical errors
// E0003: name resolution errors
// E0004: type errors
// E0005: semantic/internal errors
// W0001-W0005: warnings

const (
	// E0001: unexpected token, unexpected EOF
	ErrorSyntax = "E0001"

	// E0002: unrecognized byte, unterminated literal
	ErrorLexical = "E0002"

	// E0003: undeclared name, redeclaration, kind mismatch
	ErrorName = "E0003"

	// E0004: operand incompatibility, assignment/return mismatch,
	// non-data identifier used as value, non-function called
	ErrorType = "E0004"

	// E0005: reserved semantic errors and internal invariant violations
	ErrorSemantic = "E0005"

	// Warning codes

	// W0001: unused variable
	WarningUnusedVariable = "W0001"

	// W0002: unreachable code
	WarningUnreachableCode = "W0002"

	// W0003: implicit default return appended to a non-void function
	WarningImplicitReturn = "W0003"

	// W0004: condition is a constant
	WarningConstantCondition = "W0004"

	// W0005: declared variable shadows an outer one
	WarningShadowedVariable = "W0005"
)

// categories maps a code to the category word used in rendered diagnostics.
var categories = map[string]string{
	ErrorSyntax:   "syntax error",
	ErrorLexical:  "lexical error",
	ErrorName:     "name error",
	ErrorType:     "type error",
	ErrorSemantic: "semantic error",
}

// Category returns the human category for a code ("warning" for W codes).
func Category(code string) string {
	if cat, ok := categories[code]; ok {
		return cat
	}
	return "warning"
}
