package llvm

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sara/internal/astopt"
	"sara/internal/errors"
	"sara/internal/mir"
	"sara/internal/parser"
	"sara/internal/semantic"
)

func compile(t *testing.T, source string) string {
	t.Helper()
	bag := errors.NewBag(errors.Config{})
	unit := parser.ParseSource(source, bag)
	semantic.NewResolver(bag).Resolve(unit)
	semantic.NewTypeChecker(bag).Check(unit)
	require.False(t, bag.HasErrors(), "source should analyze cleanly: %v", bag.All())
	astopt.Optimize(unit)
	program := mir.Build(unit)
	mir.NewOptimizer().OptimizeProgram(program)
	return Emit(program)
}

func compileUnoptimized(t *testing.T, source string) string {
	t.Helper()
	bag := errors.NewBag(errors.Config{})
	unit := parser.ParseSource(source, bag)
	semantic.NewResolver(bag).Resolve(unit)
	semantic.NewTypeChecker(bag).Check(unit)
	require.False(t, bag.HasErrors())
	return Emit(mir.Build(unit))
}

func TestEmitReturnZero(t *testing.T) {
	ir := compile(t, "int main() { return 0; }")
	assert.Contains(t, ir, "define i32 @main() {")
	assert.Contains(t, ir, "%1 = add i32 0, 0")
	assert.Contains(t, ir, "ret i32 %1")
	assert.NotContains(t, ir, "@printf", "printf is only declared when print is called")
}

func TestEmitArithmeticFoldsToFourteen(t *testing.T) {
	ir := compile(t, "int main() { int x; x = 2 + 3 * 4; return x; }")
	assert.Contains(t, ir, "add i32 0, 14")
	assert.Contains(t, ir, "alloca i32")
	assert.Contains(t, ir, "store i32")
	assert.Contains(t, ir, "load i32, i32*")
}

func TestEmitFunctionParameters(t *testing.T) {
	ir := compile(t, "int add(int a, int b) { return a + b; } int main() { return add(1, 2); }")
	assert.Contains(t, ir, "define i32 @add(i32 %a, i32 %b) {")
	// Incoming parameters are spilled to their slots in the prologue.
	assert.Contains(t, ir, "store i32 %a, i32*")
	assert.Contains(t, ir, "store i32 %b, i32*")
	assert.Contains(t, ir, "call i32 @add(i32")
}

func TestEmitPrintString(t *testing.T) {
	ir := compile(t, `int main() { print("hi"); return 0; }`)
	assert.Contains(t, ir, `c"hi\00"`)
	assert.Contains(t, ir, `c"%s\0A\00"`)
	assert.Contains(t, ir, "declare i32 @printf(i8* noundef, ...)")
	assert.Contains(t, ir, "call i32 (i8*, ...) @printf(i8* noundef")
}

func TestEmitPrintIntFormat(t *testing.T) {
	ir := compile(t, "int main() { print(42); return 0; }")
	assert.Contains(t, ir, `c"%d\0A\00"`)
	assert.Contains(t, ir, "[4 x i8]")
}

func TestEmitPrintCharZeroExtends(t *testing.T) {
	ir := compile(t, "int main() { char c; c = 'y'; print(c); return 0; }")
	assert.Contains(t, ir, `c"%c\0A\00"`)
	assert.Contains(t, ir, "zext i8")
}

func TestEmitPrintFloatFormat(t *testing.T) {
	ir := compile(t, "int main() { print(1.5); return 0; }")
	assert.Contains(t, ir, `c"%f\0A\00"`)
	assert.Contains(t, ir, "double noundef")
}

func TestEmitPrintMultipleArgsComposeOneFormat(t *testing.T) {
	ir := compile(t, `int main() { print("n=", 42); return 0; }`)
	assert.Contains(t, ir, `c"%s%d\0A\00"`)
	assert.Contains(t, ir, "[6 x i8]")
}

func TestEmitPrintNoArgsIsBareNewline(t *testing.T) {
	ir := compile(t, "int main() { print(); return 0; }")
	assert.Contains(t, ir, `c"\0A\00"`)
	assert.Contains(t, ir, "[2 x i8]")
}

func TestEmitFormatStringsAreInterned(t *testing.T) {
	ir := compile(t, "int main() { print(1); print(2); print(3); return 0; }")
	assert.Equal(t, 1, strings.Count(ir, `c"%d\0A\00"`))
}

func TestEmitStringVariableInitializedToNull(t *testing.T) {
	ir := compile(t, `int main() { string s; s = "x"; print(s); return 0; }`)
	assert.Contains(t, ir, "alloca i8*")
	assert.Contains(t, ir, "store i8* null, i8**")
	assert.Contains(t, ir, "getelementptr inbounds [2 x i8]")
}

func TestEmitBranchUsesI1(t *testing.T) {
	ir := compile(t, "int main() { int a; a = 3; if (a < 5) print('y'); else print('n'); return 0; }")
	assert.Contains(t, ir, "icmp slt i32")
	assert.Regexp(t, regexp.MustCompile(`br i1 %\d+, label %bb\d+, label %bb\d+`), ir)
}

func TestEmitNonComparisonConditionGetsIcmpNe(t *testing.T) {
	ir := compile(t, "int main() { int a; a = 1; if (a) return 1; return 0; }")
	assert.Contains(t, ir, "icmp ne i32")
}

func TestEmitWhileLoopStructure(t *testing.T) {
	ir := compile(t, `int main() { int s; int i; s = 0; i = 1; while (i <= 10) { s = s + i; i = i + 1; } return s; }`)
	assert.Contains(t, ir, "icmp sle i32")
	assert.Contains(t, ir, "br label %bb")
	assert.Contains(t, ir, "bb0:")
}

func TestEmitRecursion(t *testing.T) {
	ir := compile(t, `int fact(int n) { if (n <= 1) return 1; return n * fact(n - 1); } int main() { print(fact(5)); return 0; }`)
	assert.Contains(t, ir, "define i32 @fact(i32 %n) {")
	assert.Contains(t, ir, "call i32 @fact(i32")
	assert.Contains(t, ir, "mul i32")
}

func TestEmitFloatArithmeticPromotes(t *testing.T) {
	ir := compile(t, "float main() { float f; int i; i = 2; f = 1.5; return f * 2.0; }")
	assert.Contains(t, ir, "fadd double 0.0,")
	assert.Contains(t, ir, "fmul double")
	assert.Contains(t, ir, "alloca double")
}

func TestEmitMixedIntFloatConvertsViaSitofp(t *testing.T) {
	ir := compileUnoptimized(t, "float main() { int i; float f; i = 3; f = 0.5; return i + f; }")
	assert.Contains(t, ir, "sitofp i32")
	assert.Contains(t, ir, "fadd double")
}

func TestEmitImplicitReturnTruncatesForChar(t *testing.T) {
	ir := compile(t, "char f() { print(1); } int main() { return 0; }")
	assert.Contains(t, ir, "trunc i32")
	assert.Contains(t, ir, "ret i8")
}

func TestEmitDivisionByZeroSurvives(t *testing.T) {
	ir := compile(t, "int main() { return 1 / 0; }")
	assert.Contains(t, ir, "sdiv i32", "unfolded division must reach the IR")
}

func TestEmitVoidFunction(t *testing.T) {
	ir := compile(t, "void hello() { print(\"hello\"); } int main() { hello(); return 0; }")
	assert.Contains(t, ir, "define void @hello() {")
	assert.Contains(t, ir, "ret void")
	assert.Contains(t, ir, "call void @hello()")
}

func TestEmitStringEscapes(t *testing.T) {
	ir := compile(t, `int main() { print("a\nb\"c"); return 0; }`)
	assert.Contains(t, ir, `c"a\0Ab\22c\00"`)
	// Array length counts bytes, not escape text: a \n b " c \0 = 6.
	assert.Contains(t, ir, "[6 x i8]")
}

// Property: SSA names are assigned 1, 2, 3, ... without gaps per function.
func TestEmitSSANumbersAreMonotonic(t *testing.T) {
	sources := []string{
		"int main() { int x; x = 2 + 3 * 4; return x; }",
		`int main() { int s; int i; s = 0; i = 1; while (i <= 10) { s = s + i; i = i + 1; } return s; }`,
		`int fact(int n) { if (n <= 1) return 1; return n * fact(n - 1); } int main() { print(fact(5)); return 0; }`,
		`int main() { print("x", 1, 'c', 2.5); return 0; }`,
		"int main() { char c; c = 'a'; if (c) print(c); return 0; }",
	}
	def := regexp.MustCompile(`^\s*%(\d+) = `)
	for _, source := range sources {
		ir := compileUnoptimized(t, source)
		expected := 0
		inFunction := false
		for _, line := range strings.Split(ir, "\n") {
			if strings.HasPrefix(line, "define ") {
				inFunction = true
				expected = 1
				continue
			}
			if line == "}" {
				inFunction = false
				continue
			}
			if !inFunction {
				continue
			}
			if m := def.FindStringSubmatch(line); m != nil {
				n, err := strconv.Atoi(m[1])
				require.NoError(t, err)
				assert.Equal(t, expected, n, "SSA numbering gap in %q at %q", source, line)
				expected++
			}
		}
	}
}

func TestEmitWhileZeroBodyElided(t *testing.T) {
	ir := compile(t, "int main() { int x; x = 5; while (0) { x = 1; } return x; }")
	assert.NotContains(t, ir, "add i32 0, 1\n", "loop body constant should not survive")
}

func TestEmitPrintResultIsDiscarded(t *testing.T) {
	ir := compile(t, "int main() { print(7); return 0; }")
	// The printf result lands in an SSA temp but nothing consumes it.
	assert.Regexp(t, regexp.MustCompile(`%\d+ = call i32 \(i8\*, \.\.\.\) @printf`), ir)
}
