package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sara/internal/errors"
)

func TestCompileEndToEnd(t *testing.T) {
	bag := errors.NewBag(errors.Config{})
	result := Compile(`int fact(int n) { if (n <= 1) return 1; return n * fact(n - 1); } int main() { print(fact(5)); return 0; }`, bag)
	require.NotNil(t, result)
	assert.False(t, bag.HasErrors())
	assert.Equal(t, "compilation successful", bag.Summary())

	assert.Contains(t, result.PreOptMIR, "function fact(n):")
	assert.Contains(t, result.MIR(), "function main():")
	assert.Contains(t, result.LLVM(), "define i32 @fact(i32 %n)")
	assert.Contains(t, result.GAS(), ".globl fact")
}

func TestCompileAbortsAfterParseErrors(t *testing.T) {
	bag := errors.NewBag(errors.Config{})
	result := Compile("int main() { int x; x = ; return 0; }", bag)
	assert.Nil(t, result)
	assert.True(t, bag.HasErrors())
	assert.Contains(t, bag.Summary(), "compilation failed")
}

func TestCompileAbortsOnNameErrors(t *testing.T) {
	bag := errors.NewBag(errors.Config{})
	result := Compile("int main() { return ghost; }", bag)
	assert.Nil(t, result)
	assert.Equal(t, errors.ErrorName, bag.All()[0].Code)
}

func TestAnalyzeReturnsPartialASTOnErrors(t *testing.T) {
	bag := errors.NewBag(errors.Config{})
	unit := Analyze("int main() { return ghost; }", bag)
	require.NotNil(t, unit)
	assert.NotEmpty(t, unit.Units)
}

func TestOptimizedMIRIsSmaller(t *testing.T) {
	bag := errors.NewBag(errors.Config{})
	result := Compile("int main() { return 2 + 3 * 4; }", bag)
	require.NotNil(t, result)
	assert.Less(t, len(result.MIR()), len(result.PreOptMIR))
}
