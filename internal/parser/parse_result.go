package parser

import (
	"sara/internal/ast"
	"sara/internal/errors"
)

// ParseSource scans and parses a whole source file. Lexical and syntax
// diagnostics land in the bag; callers decide at the phase boundary whether
// the pipeline continues.
func ParseSource(source string, bag *errors.Bag) *ast.TranslationUnit {
	scanner := NewScanner(source, bag)
	tokens := scanner.ScanTokens()
	p := NewParser(tokens, bag)
	return p.ParseTranslationUnit()
}
