package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sara/internal/ast"
	"sara/internal/errors"
	"sara/internal/parser"
	"sara/internal/types"
)

func analyze(t *testing.T, source string) (*ast.TranslationUnit, *errors.Bag) {
	t.Helper()
	bag := errors.NewBag(errors.Config{})
	unit := parser.ParseSource(source, bag)
	require.False(t, bag.HasErrors(), "test source should parse cleanly")
	NewResolver(bag).Resolve(unit)
	NewTypeChecker(bag).Check(unit)
	return unit, bag
}

func firstError(bag *errors.Bag) errors.CompilerError {
	for _, d := range bag.All() {
		if d.Level == errors.Error {
			return d
		}
	}
	return errors.CompilerError{}
}

func TestResolveSimpleFunction(t *testing.T) {
	unit, bag := analyze(t, "int main() { int x; x = 1; return x; }")
	assert.False(t, bag.HasErrors())

	fn := unit.Units[0].(*ast.FunctionDefinition)
	ret := fn.Body.Stmts.Stmts[1].(*ast.Return)
	ref := ret.Value.(*ast.Reference)
	require.NotNil(t, ref.Attr)
	v := ref.Attr.(*ast.VariableAttributes)
	assert.Equal(t, types.IntType, v.Type)
	assert.Equal(t, types.IntType, ref.Type)
}

func TestOffsetsFollowDeclarationOrder(t *testing.T) {
	unit, bag := analyze(t, "int f(int a, int b) { int c; int d; return a; }")
	assert.False(t, bag.HasErrors())

	fn := unit.Units[0].(*ast.FunctionDefinition)
	a := fn.Params.Params[0].Name.Attr.(*ast.VariableAttributes)
	b := fn.Params.Params[1].Name.Attr.(*ast.VariableAttributes)
	c := fn.Body.Decls.Decls[0].Name.Attr.(*ast.VariableAttributes)
	d := fn.Body.Decls.Decls[1].Name.Attr.(*ast.VariableAttributes)
	assert.Equal(t, []int{0, 1, 2, 3}, []int{a.Offset, b.Offset, c.Offset, d.Offset})
}

func TestOffsetsResetPerFunction(t *testing.T) {
	unit, bag := analyze(t, "int f() { int x; return x; } int g() { int y; return y; }")
	assert.False(t, bag.HasErrors())

	g := unit.Units[1].(*ast.FunctionDefinition)
	y := g.Body.Decls.Decls[0].Name.Attr.(*ast.VariableAttributes)
	assert.Equal(t, 0, y.Offset)
}

func TestUndeclaredReference(t *testing.T) {
	_, bag := analyze(t, "int main() { return nope; }")
	assert.True(t, bag.HasErrors())
	assert.Equal(t, errors.ErrorName, firstError(bag).Code)
}

func TestUndeclaredAssignmentTarget(t *testing.T) {
	_, bag := analyze(t, "int main() { ghost = 1; return 0; }")
	assert.True(t, bag.HasErrors())
	assert.Equal(t, errors.ErrorName, firstError(bag).Code)
}

func TestRedeclarationInSameScope(t *testing.T) {
	_, bag := analyze(t, "int main() { int x; int x; return 0; }")
	assert.True(t, bag.HasErrors())
	assert.Equal(t, errors.ErrorName, firstError(bag).Code)
}

func TestShadowingInNestedScopeIsAllowed(t *testing.T) {
	_, bag := analyze(t, "int main() { int x; { int x; x = 1; } return 0; }")
	assert.False(t, bag.HasErrors())
}

func TestRedeclaredAsDifferentKind(t *testing.T) {
	_, bag := analyze(t, "int f() { return 0; } int main() { int f; return 0; }")
	assert.True(t, bag.HasErrors())
	assert.Contains(t, firstError(bag).Message, "different kind")
}

func TestBinaryGeneralization(t *testing.T) {
	unit, bag := analyze(t, "float main() { float f; int i; i = 1; f = 2.0; return f * 2.0 + 1.0; }")
	assert.False(t, bag.HasErrors())

	fn := unit.Units[0].(*ast.FunctionDefinition)
	ret := fn.Body.Stmts.Stmts[2].(*ast.Return)
	assert.Equal(t, types.FloatType, ret.Value.ExprType())
}

func TestStringArithmeticRejected(t *testing.T) {
	_, bag := analyze(t, `int main() { string s; s = "a"; return s + 1; }`)
	assert.True(t, bag.HasErrors())
	err := firstError(bag)
	assert.Equal(t, errors.ErrorType, err.Code)
	assert.Contains(t, err.Message, "binary operation")
}

func TestAssignmentTypeMustMatchExactly(t *testing.T) {
	// No implicit conversions, even widening ones.
	_, bag := analyze(t, "int main() { float f; f = 1; return 0; }")
	assert.True(t, bag.HasErrors())
	assert.Contains(t, firstError(bag).Message, "assign different types")
}

func TestStructuralTypeEquality(t *testing.T) {
	// Two int descriptors from different places must compare equal.
	_, bag := analyze(t, "int id(int v) { return v; } int main() { int x; x = id(3); return x; }")
	assert.False(t, bag.HasErrors())
}

func TestReturnTypeMismatch(t *testing.T) {
	_, bag := analyze(t, `int main() { return "nope"; }`)
	assert.True(t, bag.HasErrors())
	assert.Contains(t, firstError(bag).Message, "return type mismatch")
}

func TestVoidReturnRules(t *testing.T) {
	_, bag := analyze(t, "void f() { return; }")
	assert.False(t, bag.HasErrors())

	_, bag = analyze(t, "void f() { return 1; }")
	assert.True(t, bag.HasErrors())

	_, bag = analyze(t, "int f() { return; }")
	assert.True(t, bag.HasErrors())
}

func TestPrintIsVariadic(t *testing.T) {
	_, bag := analyze(t, `int main() { print(); print(1); print("s", 'c', 1.5, 2); return 0; }`)
	assert.False(t, bag.HasErrors())
}

func TestPrintResultCannotBeAssigned(t *testing.T) {
	_, bag := analyze(t, `int main() { int x; x = print(1); return x; }`)
	assert.True(t, bag.HasErrors())
	assert.Equal(t, errors.ErrorType, firstError(bag).Code)
}

func TestCallArityChecked(t *testing.T) {
	_, bag := analyze(t, "int f(int a) { return a; } int main() { return f(1, 2); }")
	assert.True(t, bag.HasErrors())
	assert.Contains(t, firstError(bag).Message, "argument(s)")
}

func TestCallArgumentTypesChecked(t *testing.T) {
	_, bag := analyze(t, `int f(int a) { return a; } int main() { return f("s"); }`)
	assert.True(t, bag.HasErrors())
	assert.Equal(t, errors.ErrorType, firstError(bag).Code)
}

func TestFunctionUsedAsValue(t *testing.T) {
	_, bag := analyze(t, "int f() { return 0; } int main() { return f + 1; }")
	assert.True(t, bag.HasErrors())
	assert.Contains(t, firstError(bag).Message, "data object")
}

func TestVariableCalledAsFunction(t *testing.T) {
	_, bag := analyze(t, "int main() { int x; x = 0; return x(); }")
	assert.True(t, bag.HasErrors())
	assert.Contains(t, firstError(bag).Message, "not a function")
}

// After the passes, every expression has a type or an error was reported.
func TestTypeSoundness(t *testing.T) {
	unit, bag := analyze(t, `
int fact(int n) { if (n <= 1) return 1; return n * fact(n - 1); }
int main() { print(fact(5)); return 0; }`)
	assert.False(t, bag.HasErrors())

	var walk func(node ast.Node)
	walk = func(node ast.Node) {
		if node == nil {
			return
		}
		if expr, ok := node.(ast.Expr); ok {
			if _, isIdent := node.(*ast.Identifier); !isIdent {
				assert.True(t, expr.ExprType().IsValid() || expr.ExprType() == types.VoidType,
					"expression at %v should be typed", node.NodePos())
			}
		}
		for _, child := range node.Children() {
			walk(child)
		}
	}
	walk(unit)
}

func TestConstantConditionWarning(t *testing.T) {
	_, bag := analyze(t, "int main() { while (0) { print(1); } return 0; }")
	assert.False(t, bag.HasErrors())
	require.Equal(t, 1, bag.WarningCount())
	assert.Equal(t, errors.WarningConstantCondition, bag.All()[0].Code)
}

func TestShadowWarning(t *testing.T) {
	_, bag := analyze(t, "int main() { int x; { int x; x = 1; } return 0; }")
	assert.False(t, bag.HasErrors())
	require.Equal(t, 1, bag.WarningCount())
	assert.Equal(t, errors.WarningShadowedVariable, bag.All()[0].Code)
}

func TestImmediateModeStopsAtFirstError(t *testing.T) {
	bag := errors.NewBag(errors.Config{Mode: errors.Immediate})
	unit := parser.ParseSource("int main() { return a + b; }", bag)
	NewResolver(bag).Resolve(unit)
	NewTypeChecker(bag).Check(unit)
	// Only the first undeclared name is reported before the pass halts.
	assert.Equal(t, 1, bag.ErrorCount())
}
