package semantic

import (
	"fmt"

	"sara/internal/ast"
	"sara/internal/errors"
	"sara/internal/types"
)

// TypeChecker runs after resolution and fills the type slot of every
// expression node. Assignment and return compatibility is structural: two
// descriptors of the same kind are equal no matter where they came from.
type TypeChecker struct {
	bag *errors.Bag
	// Functions cannot nest, so a single slot tracks the declared return
	// type of the function being checked.
	currentReturn types.Type
	inFunction    bool
}

func NewTypeChecker(bag *errors.Bag) *TypeChecker {
	return &TypeChecker{bag: bag}
}

func (tc *TypeChecker) Check(unit *ast.TranslationUnit) {
	for _, item := range unit.Units {
		if tc.bag.Fatal() {
			return
		}
		switch node := item.(type) {
		case *ast.FunctionDefinition:
			tc.currentReturn = node.ReturnType
			tc.inFunction = true
			tc.checkCompound(node.Body)
			tc.inFunction = false
		case *ast.Declaration:
			tc.checkDeclaration(node)
		}
	}
}

func (tc *TypeChecker) checkCompound(block *ast.CompoundStatement) {
	for _, decl := range block.Decls.Decls {
		tc.checkDeclaration(decl)
	}
	for _, stmt := range block.Stmts.Stmts {
		tc.checkStatement(stmt)
	}
}

func (tc *TypeChecker) checkDeclaration(decl *ast.Declaration) {
	if decl.Init == nil {
		return
	}
	initType := tc.checkExpression(decl.Init)
	if !initType.IsValid() {
		return
	}
	if initType != decl.Type {
		tc.typeError(decl.Pos, fmt.Sprintf(
			"cannot initialize %s %q with a %s value", decl.Type, decl.Name.Name, initType))
	}
}

func (tc *TypeChecker) checkStatement(stmt ast.Node) {
	if stmt == nil || tc.bag.Fatal() {
		return
	}
	switch node := stmt.(type) {
	case *ast.CompoundStatement:
		tc.checkCompound(node)
	case *ast.If:
		tc.checkCondition(node.Cond)
		tc.checkStatement(node.Then)
		tc.checkStatement(node.Else)
	case *ast.While:
		tc.checkCondition(node.Cond)
		tc.checkStatement(node.Body)
	case *ast.For:
		tc.checkStatement(node.Init)
		if node.Cond != nil {
			tc.checkCondition(node.Cond)
		}
		tc.checkStatement(node.Step)
		tc.checkStatement(node.Body)
	case *ast.Assignment:
		tc.checkAssignment(node)
	case *ast.Return:
		tc.checkReturn(node)
	case *ast.ExpressionStatement:
		tc.checkExpression(node.X)
	}
}

// checkCondition types the controlling expression of if/while/for. Any
// numeric value works as a condition; strings do not.
func (tc *TypeChecker) checkCondition(cond ast.Expr) {
	condType := tc.checkExpression(cond)
	if condType.IsValid() && !condType.IsNumeric() {
		tc.typeError(cond.NodePos(), fmt.Sprintf("%s value is not a valid condition", condType))
		return
	}
	if c, ok := cond.(*ast.Constant); ok {
		tc.bag.Add(errors.NewWarning(errors.WarningConstantCondition,
			fmt.Sprintf("condition is always %s", ast.ConstantText(c)), c.Pos).Build())
	}
}

func (tc *TypeChecker) checkAssignment(node *ast.Assignment) {
	valueType := tc.checkExpression(node.Value)
	if node.Target.Attr == nil {
		// Resolution already reported the name error.
		return
	}
	if _, ok := node.Target.Attr.(*ast.VariableAttributes); !ok {
		tc.typeError(node.Pos, fmt.Sprintf("%q does not name a data object", node.Target.Name))
		return
	}
	if !valueType.IsValid() {
		return
	}
	if valueType == types.VoidType {
		tc.typeError(node.Pos, "a void function call has no value to assign")
		return
	}
	// No implicit conversions: the target and expression types must match
	// exactly.
	if node.Target.Type != valueType {
		tc.typeError(node.Pos, "trying to assign different types")
	}
}

func (tc *TypeChecker) checkReturn(node *ast.Return) {
	if !tc.inFunction {
		tc.typeError(node.Pos, "return statement outside of function")
		return
	}
	if node.Value == nil {
		if tc.currentReturn != types.VoidType {
			tc.typeError(node.Pos, fmt.Sprintf(
				"return statement must return a %s value", tc.currentReturn))
		}
		return
	}
	if tc.currentReturn == types.VoidType {
		tc.typeError(node.Pos, "void function cannot return a value")
		return
	}
	valueType := tc.checkExpression(node.Value)
	if valueType.IsValid() && valueType != tc.currentReturn {
		tc.typeError(node.Pos, fmt.Sprintf(
			"return type mismatch: expected %s, got %s", tc.currentReturn, valueType))
	}
}

// checkExpression types an expression bottom-up and returns its type; the
// invalid type means an error has already been reported below this node.
func (tc *TypeChecker) checkExpression(expr ast.Expr) types.Type {
	if expr == nil {
		return types.Type{}
	}
	switch node := expr.(type) {
	case *ast.Constant:
		return node.Type

	case *ast.Reference:
		if node.Attr == nil {
			// Unresolved: the name error is already in the bag.
			return types.Type{}
		}
		if _, ok := node.Attr.(*ast.VariableAttributes); !ok {
			tc.typeError(node.Pos, fmt.Sprintf("%q does not name a data object", node.Name))
			return types.Type{}
		}
		if !node.Type.IsValid() {
			tc.typeError(node.Pos, fmt.Sprintf("variable %q has no type", node.Name))
		}
		return node.Type

	case *ast.UnaryOperator:
		operand := tc.checkExpression(node.Operand)
		if operand.IsValid() && !operand.IsNumeric() {
			tc.typeError(node.Pos, fmt.Sprintf(
				"invalid type for unary %q: %s", node.Op, operand))
			return types.Type{}
		}
		node.Type = operand
		return node.Type

	case *ast.BinaryOperator:
		left := tc.checkExpression(node.Left)
		right := tc.checkExpression(node.Right)
		if !left.IsValid() || !right.IsValid() {
			return types.Type{}
		}
		node.Type = types.Generalize(left, right)
		if !node.Type.IsValid() {
			tc.typeError(node.Pos, fmt.Sprintf(
				"invalid types for binary operation: %s and %s", left, right))
		}
		return node.Type

	case *ast.FunctionCall:
		return tc.checkCall(node)
	}
	return types.Type{}
}

func (tc *TypeChecker) checkCall(node *ast.FunctionCall) types.Type {
	argTypes := make([]types.Type, len(node.Args.Args))
	for i, arg := range node.Args.Args {
		argTypes[i] = tc.checkExpression(arg)
	}

	if node.Callee.Attr == nil {
		// Unresolved callee: name error already reported.
		return types.Type{}
	}
	attr, ok := node.Callee.Attr.(*ast.FunctionAttributes)
	if !ok {
		tc.typeError(node.Pos, fmt.Sprintf("%q is not a function", node.Callee.Name))
		return types.Type{}
	}
	node.Attr = attr
	node.Type = attr.ReturnType

	if attr.Variadic {
		// print accepts any argument count; void arguments have no value
		// to format.
		for i, argType := range argTypes {
			if argType == types.VoidType {
				tc.typeError(node.Args.Args[i].NodePos(),
					fmt.Sprintf("argument %d of %q is void", i+1, attr.Name))
			}
		}
		return node.Type
	}

	params := attr.Params.Params
	if len(argTypes) != len(params) {
		tc.typeError(node.Pos, fmt.Sprintf(
			"%q expects %d argument(s), got %d", attr.Name, len(params), len(argTypes)))
		return node.Type
	}
	for i, argType := range argTypes {
		if argType.IsValid() && argType != params[i].Type {
			tc.typeError(node.Args.Args[i].NodePos(), fmt.Sprintf(
				"argument %d of %q: expected %s, got %s",
				i+1, attr.Name, params[i].Type, argType))
		}
	}
	return node.Type
}

func (tc *TypeChecker) typeError(pos ast.Position, message string) {
	tc.bag.Add(errors.NewError(errors.ErrorType, message, pos).Build())
}
