package ast

import (
	"fmt"
	"strconv"
	"strings"

	"sara/internal/types"
)

// Printer renders an AST as an indented tree for debug output.
type Printer struct {
	indent int
	out    strings.Builder
}

func NewPrinter() *Printer {
	return &Printer{}
}

// Print returns the tree rendering of any node.
func Print(node Node) string {
	p := NewPrinter()
	p.printNode(node)
	return p.out.String()
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.out.WriteString(strings.Repeat("  ", p.indent))
	p.out.WriteString(fmt.Sprintf(format, args...))
	p.out.WriteString("\n")
}

func (p *Printer) printNode(node Node) {
	if node == nil {
		return
	}
	switch n := node.(type) {
	case *TranslationUnit:
		p.writeLine("translation unit")
	case *FunctionDefinition:
		p.writeLine("function %s -> %s", n.Name.Name, n.ReturnType)
	case *ParameterList:
		if len(n.Params) == 0 {
			return
		}
		p.writeLine("parameters")
	case *Declaration:
		p.writeLine("declare %s %s", n.Type, n.Name.Name)
	case *DeclarationList:
		if len(n.Decls) == 0 {
			return
		}
		p.writeLine("declarations")
	case *StatementList:
		if len(n.Stmts) == 0 {
			return
		}
		p.writeLine("statements")
	case *CompoundStatement:
		p.writeLine("compound")
	case *If:
		p.writeLine("if")
	case *While:
		p.writeLine("while")
	case *For:
		p.writeLine("for")
	case *Assignment:
		p.writeLine("assign %s", n.Target.Name)
	case *Return:
		p.writeLine("return")
	case *ExpressionStatement:
		p.writeLine("expression statement")
	case *BinaryOperator:
		p.writeLine("binary %q : %s", n.Op, n.Type)
	case *UnaryOperator:
		p.writeLine("unary %q : %s", n.Op, n.Type)
	case *FunctionCall:
		p.writeLine("call %s : %s", n.Callee.Name, n.Type)
	case *ArgumentList:
		if len(n.Args) == 0 {
			return
		}
		p.writeLine("arguments")
	case *Constant:
		p.writeLine("constant %s : %s", ConstantText(n), n.Type)
	case *Reference:
		p.writeLine("ref %s : %s", n.Name, n.Type)
	case *Identifier:
		return
	default:
		p.writeLine("node %d", node.NodeType())
	}

	p.indent++
	for _, child := range node.Children() {
		p.printNode(child)
	}
	p.indent--
}

// ConstantText renders a constant's value the way it looked in source.
func ConstantText(c *Constant) string {
	switch c.Type {
	case types.FloatType:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case types.StringType:
		return strconv.Quote(c.Str)
	case types.CharType:
		return strconv.QuoteRune(rune(c.Int))
	default:
		return strconv.FormatInt(c.Int, 10)
	}
}
