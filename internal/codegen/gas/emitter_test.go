package gas

import (
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

func TestEmitFunctionFrame(t *testing.T) {
	asm := compile(t, "int main() { int x; x = 1; return x; }")
	assert.Contains(t, asm, ".globl main")
	assert.Contains(t, asm, ".type main, @function")
	assert.Contains(t, asm, "pushq %rbp")
	assert.Contains(t, asm, "movq %rsp, %rbp")
	assert.Contains(t, asm, "leave")
	assert.Contains(t, asm, "ret")
	assert.Contains(t, asm, ".size main, .-main")
}

func TestLocalsAtNegativeOffsets(t *testing.T) {
	asm := compile(t, "int main() { int x; int y; x = 1; y = 2; return x + y; }")
	assert.Contains(t, asm, "-8(%rbp)")
	assert.Contains(t, asm, "-16(%rbp)")
	// Frame reservation stays 16-byte aligned.
	assert.Contains(t, asm, "subq $16, %rsp")
}

func TestParametersSpillFromSysVRegisters(t *testing.T) {
	asm := compile(t, "int add(int a, int b) { return a + b; } int main() { return add(1, 2); }")
	assert.Contains(t, asm, "movq %rdi, -8(%rbp)")
	assert.Contains(t, asm, "movq %rsi, -16(%rbp)")
	assert.Contains(t, asm, "call add")
}

func TestDivisionUsesIdiv(t *testing.T) {
	asm := compile(t, "int main() { int a; a = 10; return a / 3; }")
	assert.Contains(t, asm, "cqto")
	assert.Contains(t, asm, "idivq")
}

func TestComparisonSetsFlags(t *testing.T) {
	asm := compile(t, "int main() { int a; a = 1; if (a < 5) return 1; return 0; }")
	assert.Contains(t, asm, "setl %al")
	assert.Contains(t, asm, "movzbq %al,")
	assert.Contains(t, asm, "jne .Lmain_")
}

func TestWhileLoopJumpsBack(t *testing.T) {
	asm := compile(t, "int main() { int i; i = 0; while (i < 3) i = i + 1; return i; }")
	// One conditional forward edge and one unconditional back edge.
	assert.Contains(t, asm, "jne .Lmain_")
	assert.GreaterOrEqual(t, strings.Count(asm, "jmp .Lmain_"), 1)
}

func TestStringLiteralInRodata(t *testing.T) {
	asm := compile(t, `int main() { print("hi"); return 0; }`)
	assert.Contains(t, asm, ".section .rodata")
	assert.Contains(t, asm, ".LC0:")
	assert.Contains(t, asm, `.string "hi"`)
	assert.Contains(t, asm, "leaq .LC0(%rip),")
}

func TestPrintComposesFormatAndZeroesAL(t *testing.T) {
	asm := compile(t, `int main() { print("n=", 42); return 0; }`)
	assert.Contains(t, asm, `.string "%s%d\n"`)
	assert.Contains(t, asm, "leaq .LF0(%rip), %rdi")
	assert.Contains(t, asm, "xorl %eax, %eax")
	assert.Contains(t, asm, ".extern printf")
	assert.Contains(t, asm, "call printf")
}

func TestPrintCharUsesCharSpecifier(t *testing.T) {
	asm := compile(t, "int main() { print('y'); return 0; }")
	assert.Contains(t, asm, `.string "%c\n"`)
}

func TestScratchRegistersRoundRobin(t *testing.T) {
	asm := compile(t, "int main() { int a; a = 1; return a + a + a + a + a + a + a + a; }")
	for _, reg := range []string{"%r10", "%r11", "%r12", "%r13", "%r14", "%r15", "%rbx"} {
		assert.Contains(t, asm, reg)
	}
}

func TestVoidReturnZeroesRax(t *testing.T) {
	asm := compile(t, "void f() { print(1); } int main() { f(); return 0; }")
	assert.Contains(t, asm, "movq $0, %rax")
}
