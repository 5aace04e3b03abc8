// Package astopt turns expression trees into DAGs by interning structurally
// identical subexpressions. Statements are traversed only to find their
// expression children; each expression root gets its own interning table.
package astopt

import (
	"fmt"
	"strings"

	"sara/internal/ast"
)

// Optimize re-parents common subexpressions below every expression root in
// the unit. Only constants, references and operators are shared; function
// calls keep their identity so call sites stay distinct.
func Optimize(unit *ast.TranslationUnit) {
	for _, item := range unit.Units {
		switch node := item.(type) {
		case *ast.FunctionDefinition:
			optimizeCompound(node.Body)
		case *ast.Declaration:
			if node.Init != nil {
				node.Init = optimizeRoot(node.Init)
			}
		}
	}
}

func optimizeCompound(block *ast.CompoundStatement) {
	for _, decl := range block.Decls.Decls {
		if decl.Init != nil {
			decl.Init = optimizeRoot(decl.Init)
		}
	}
	for _, stmt := range block.Stmts.Stmts {
		optimizeStatement(stmt)
	}
}

func optimizeStatement(stmt ast.Node) {
	switch node := stmt.(type) {
	case *ast.CompoundStatement:
		optimizeCompound(node)
	case *ast.If:
		node.Cond = optimizeRoot(node.Cond)
		optimizeStatement(node.Then)
		optimizeStatement(node.Else)
	case *ast.While:
		node.Cond = optimizeRoot(node.Cond)
		optimizeStatement(node.Body)
	case *ast.For:
		optimizeStatement(node.Init)
		if node.Cond != nil {
			node.Cond = optimizeRoot(node.Cond)
		}
		optimizeStatement(node.Step)
		optimizeStatement(node.Body)
	case *ast.Assignment:
		node.Value = optimizeRoot(node.Value)
	case *ast.Return:
		if node.Value != nil {
			node.Value = optimizeRoot(node.Value)
		}
	case *ast.ExpressionStatement:
		node.X = optimizeRoot(node.X)
	}
}

func optimizeRoot(expr ast.Expr) ast.Expr {
	d := &dag{table: map[string]ast.Expr{}}
	return d.intern(expr)
}

type dag struct {
	table map[string]ast.Expr
}

// intern rewrites the subtree bottom-up, replacing child slots with already
// interned nodes when their canonical keys match.
func (d *dag) intern(expr ast.Expr) ast.Expr {
	switch node := expr.(type) {
	case *ast.BinaryOperator:
		node.Left = d.intern(node.Left)
		node.Right = d.intern(node.Right)
	case *ast.UnaryOperator:
		node.Operand = d.intern(node.Operand)
	case *ast.FunctionCall:
		for i, arg := range node.Args.Args {
			node.Args.Args[i] = d.intern(arg)
		}
		// Calls are keyed for parent lookups but never shared themselves:
		// sharing a call site would be unsound for functions with side
		// effects.
		return node
	}

	key := canonicalKey(expr)
	if shared, ok := d.table[key]; ok {
		return shared
	}
	d.table[key] = expr
	return expr
}

// canonicalKey is the structural identity of a subexpression. Two
// expressions with the same key compute the same value.
func canonicalKey(expr ast.Expr) string {
	switch node := expr.(type) {
	case *ast.Constant:
		return fmt.Sprintf("const:%s:%s", node.Type, ast.ConstantText(node))
	case *ast.Reference:
		return "ref:" + node.Name
	case *ast.UnaryOperator:
		return fmt.Sprintf("unary:%s:(%s)", node.Op, canonicalKey(node.Operand))
	case *ast.BinaryOperator:
		return fmt.Sprintf("binary:%s:(%s):(%s)",
			node.Op, canonicalKey(node.Left), canonicalKey(node.Right))
	case *ast.FunctionCall:
		keys := make([]string, len(node.Args.Args))
		for i, arg := range node.Args.Args {
			keys[i] = canonicalKey(arg)
		}
		return fmt.Sprintf("call:%s:(%s)", node.Callee.Name, strings.Join(keys, ","))
	}
	return fmt.Sprintf("unknown:%p", expr)
}
