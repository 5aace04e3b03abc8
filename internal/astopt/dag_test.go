package astopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sara/internal/ast"
	"sara/internal/errors"
	"sara/internal/parser"
	"sara/internal/semantic"
)

func prepare(t *testing.T, source string) *ast.TranslationUnit {
	t.Helper()
	bag := errors.NewBag(errors.Config{})
	unit := parser.ParseSource(source, bag)
	semantic.NewResolver(bag).Resolve(unit)
	semantic.NewTypeChecker(bag).Check(unit)
	require.False(t, bag.HasErrors())
	return unit
}

func TestCommonSubexpressionIsShared(t *testing.T) {
	unit := prepare(t, "int main() { int a; int x; a = 1; x = (a + 1) * (a + 1); return x; }")
	Optimize(unit)

	fn := unit.Units[0].(*ast.FunctionDefinition)
	assign := fn.Body.Stmts.Stmts[1].(*ast.Assignment)
	mul := assign.Value.(*ast.BinaryOperator)
	assert.Same(t, mul.Left, mul.Right, "identical subtrees should intern to one node")
}

func TestSharedReferences(t *testing.T) {
	unit := prepare(t, "int main() { int a; a = 2; return a * a; }")
	Optimize(unit)

	fn := unit.Units[0].(*ast.FunctionDefinition)
	ret := fn.Body.Stmts.Stmts[1].(*ast.Return)
	mul := ret.Value.(*ast.BinaryOperator)
	assert.Same(t, mul.Left, mul.Right)
}

func TestDistinctConstantsAreNotShared(t *testing.T) {
	unit := prepare(t, "int main() { return 1 + 2; }")
	Optimize(unit)

	fn := unit.Units[0].(*ast.FunctionDefinition)
	ret := fn.Body.Stmts.Stmts[0].(*ast.Return)
	add := ret.Value.(*ast.BinaryOperator)
	assert.NotSame(t, add.Left, add.Right)
}

func TestConstantsOfDifferentTypesKeepSeparateKeys(t *testing.T) {
	// 'a' and 97 have the same numeric value but different types.
	unit := prepare(t, "int main() { int x; x = 97 + 97; x = 97 + 'a'; print('a'); return x; }")
	Optimize(unit)

	fn := unit.Units[0].(*ast.FunctionDefinition)
	assign := fn.Body.Stmts.Stmts[0].(*ast.Assignment)
	add := assign.Value.(*ast.BinaryOperator)
	assert.Same(t, add.Left, add.Right, "same-typed equal constants share")

	mixed := fn.Body.Stmts.Stmts[1].(*ast.Assignment).Value.(*ast.BinaryOperator)
	assert.NotSame(t, mixed.Left, mixed.Right, "'a' and 97 keep separate keys")
}

func TestCallsAreNotShared(t *testing.T) {
	unit := prepare(t, "int f(int n) { return n; } int main() { return f(1) + f(1); }")
	Optimize(unit)

	main := unit.Units[1].(*ast.FunctionDefinition)
	ret := main.Body.Stmts.Stmts[0].(*ast.Return)
	add := ret.Value.(*ast.BinaryOperator)
	assert.NotSame(t, add.Left, add.Right, "call sites must stay distinct")
}

func TestCallArgumentsStillShareBelowTheCall(t *testing.T) {
	unit := prepare(t, "int f(int n) { return n; } int main() { int a; a = 1; return f(a + a); }")
	Optimize(unit)

	main := unit.Units[1].(*ast.FunctionDefinition)
	ret := main.Body.Stmts.Stmts[1].(*ast.Return)
	call := ret.Value.(*ast.FunctionCall)
	add := call.Args.Args[0].(*ast.BinaryOperator)
	assert.Same(t, add.Left, add.Right)
}

func TestStatementsAreNeverRewritten(t *testing.T) {
	unit := prepare(t, "int main() { int a; a = 1; a = 1; return a; }")
	before := unit.Units[0].(*ast.FunctionDefinition).Body.Stmts.Stmts
	Optimize(unit)
	after := unit.Units[0].(*ast.FunctionDefinition).Body.Stmts.Stmts
	require.Len(t, after, len(before))
	for i := range before {
		assert.Same(t, before[i], after[i])
	}
}

func TestAttributesSurviveOptimization(t *testing.T) {
	unit := prepare(t, "int main() { int a; a = 1; return a + a; }")
	Optimize(unit)

	fn := unit.Units[0].(*ast.FunctionDefinition)
	ret := fn.Body.Stmts.Stmts[1].(*ast.Return)
	add := ret.Value.(*ast.BinaryOperator)
	ref := add.Left.(*ast.Reference)
	assert.NotNil(t, ref.Attr, "attribute records must outlive DAG construction")
}
