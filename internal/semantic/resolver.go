package semantic

import (
	"fmt"

	"sara/internal/ast"
	"sara/internal/errors"
	"sara/internal/types"
)

// Resolver decorates identifier-bearing nodes with attribute records: one
// post-order pass threading a scope stack. Built-ins are registered in the
// global scope before traversal.
type Resolver struct {
	symbols *SymbolTable
	bag     *errors.Bag
	offset  int
}

func NewResolver(bag *errors.Bag) *Resolver {
	r := &Resolver{
		symbols: NewSymbolTable(),
		bag:     bag,
	}
	r.registerBuiltins()
	return r
}

// registerBuiltins installs print: void return, any number of arguments of
// any non-void type. The emitter does the per-argument lowering.
func (r *Resolver) registerBuiltins() {
	r.symbols.GlobalScope()["print"] = &ast.FunctionAttributes{
		Name:       "print",
		ReturnType: types.VoidType,
		Params:     &ast.ParameterList{},
		Variadic:   true,
	}
}

func (r *Resolver) Resolve(unit *ast.TranslationUnit) {
	for _, item := range unit.Units {
		if r.bag.Fatal() {
			return
		}
		switch node := item.(type) {
		case *ast.FunctionDefinition:
			r.resolveFunction(node)
		case *ast.Declaration:
			r.resolveDeclaration(node)
		}
	}
}

func (r *Resolver) resolveFunction(fn *ast.FunctionDefinition) {
	attr := &ast.FunctionAttributes{
		Name:       fn.Name.Name,
		ReturnType: fn.ReturnType,
		Params:     fn.Params,
	}
	if err, ok := r.symbols.Put(fn.Name.Name, fn.Name.Pos, attr); !ok {
		r.bag.Add(err)
	}
	fn.Name.Attr = attr

	// Frame offsets restart per function: parameters first, locals after,
	// in declaration order.
	r.offset = 0
	r.symbols.OpenScope()
	for _, param := range fn.Params.Params {
		r.resolveDeclaration(param)
	}
	// The function body shares the parameter scope; only nested compounds
	// push their own.
	r.resolveCompoundInto(fn.Body)
	r.symbols.CloseScope()
}

func (r *Resolver) resolveCompoundInto(block *ast.CompoundStatement) {
	for _, decl := range block.Decls.Decls {
		r.resolveDeclaration(decl)
	}
	for _, stmt := range block.Stmts.Stmts {
		r.resolveStatement(stmt)
	}
	block.Names = r.symbols.CurrentScope()
}

func (r *Resolver) resolveDeclaration(decl *ast.Declaration) {
	if r.bag.Fatal() {
		return
	}
	attr := &ast.VariableAttributes{
		Name:   decl.Name.Name,
		Type:   decl.Type,
		Offset: r.offset,
	}
	r.offset++
	if outer := r.symbols.Lookup(decl.Name.Name); outer != nil {
		if _, inCurrent := r.symbols.CurrentScope()[decl.Name.Name]; !inCurrent {
			if _, isVar := outer.(*ast.VariableAttributes); isVar {
				r.bag.Add(errors.NewWarning(errors.WarningShadowedVariable,
					fmt.Sprintf("%q shadows an outer declaration", decl.Name.Name),
					decl.Name.Pos).WithLength(len(decl.Name.Name)).Build())
			}
		}
	}
	if err, ok := r.symbols.Put(decl.Name.Name, decl.Name.Pos, attr); !ok {
		r.bag.Add(err)
	}
	decl.Name.Attr = attr
	decl.Name.Type = decl.Type
	if decl.Init != nil {
		r.resolveExpression(decl.Init)
	}
}

func (r *Resolver) resolveStatement(stmt ast.Node) {
	if stmt == nil || r.bag.Fatal() {
		return
	}
	switch node := stmt.(type) {
	case *ast.CompoundStatement:
		r.symbols.OpenScope()
		r.resolveCompoundInto(node)
		r.symbols.CloseScope()
	case *ast.If:
		r.resolveExpression(node.Cond)
		r.resolveStatement(node.Then)
		r.resolveStatement(node.Else)
	case *ast.While:
		r.resolveExpression(node.Cond)
		r.resolveStatement(node.Body)
	case *ast.For:
		r.resolveStatement(node.Init)
		if node.Cond != nil {
			r.resolveExpression(node.Cond)
		}
		r.resolveStatement(node.Step)
		r.resolveStatement(node.Body)
	case *ast.Assignment:
		r.resolveAssignment(node)
	case *ast.Return:
		if node.Value != nil {
			r.resolveExpression(node.Value)
		}
	case *ast.ExpressionStatement:
		r.resolveExpression(node.X)
	}
}

func (r *Resolver) resolveAssignment(node *ast.Assignment) {
	attr := r.symbols.Lookup(node.Target.Name)
	if attr == nil {
		r.bag.Add(errors.UndeclaredName(node.Target.Name, node.Target.Pos))
	} else {
		node.Target.Attr = attr
		if v, ok := attr.(*ast.VariableAttributes); ok {
			node.Target.Type = v.Type
		}
	}
	r.resolveExpression(node.Value)
}

func (r *Resolver) resolveExpression(expr ast.Expr) {
	if expr == nil || r.bag.Fatal() {
		return
	}
	switch node := expr.(type) {
	case *ast.Reference:
		attr := r.symbols.Lookup(node.Name)
		if attr == nil {
			r.bag.Add(errors.UndeclaredName(node.Name, node.Pos))
			return
		}
		node.Attr = attr
		if v, ok := attr.(*ast.VariableAttributes); ok {
			node.Type = v.Type
		}
	case *ast.FunctionCall:
		attr := r.symbols.Lookup(node.Callee.Name)
		if attr == nil {
			r.bag.Add(errors.NewError(errors.ErrorName,
				fmt.Sprintf("undeclared function %q", node.Callee.Name), node.Pos).
				WithLength(len(node.Callee.Name)).Build())
		} else {
			node.Callee.Attr = attr
			if f, ok := attr.(*ast.FunctionAttributes); ok {
				node.Attr = f
			}
		}
		for _, arg := range node.Args.Args {
			r.resolveExpression(arg)
		}
	case *ast.BinaryOperator:
		r.resolveExpression(node.Left)
		r.resolveExpression(node.Right)
	case *ast.UnaryOperator:
		r.resolveExpression(node.Operand)
	}
}
