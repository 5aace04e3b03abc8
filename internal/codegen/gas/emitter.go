// Package gas lowers MIR to x86-64 System V assembly, the structurally
// simpler alternative to the LLVM backend. Locals live at negative offsets
// from %rbp, arguments arrive in the SysV registers, and a round-robin
// allocator hands out scratch registers with no liveness analysis. Floats
// ride the integer path truncated; the LLVM backend is the one with real
// floating-point support.
package gas

import (
	"fmt"
	"strconv"
	"strings"

	"sara/internal/mir"
	"sara/internal/types"
)

var paramRegs = []string{"%rdi", "%rsi", "%rdx", "%rcx", "%r8", "%r9"}

var scratchRegs = []string{"%r10", "%r11", "%r12", "%r13", "%r14", "%r15", "%rbx"}

type Emitter struct {
	program *mir.Program
	out     strings.Builder

	stringLabels map[string]string
	stringCount  int
	formatLabels map[string]string
	formatCount  int
	printCalled  bool

	fn         *mir.Function
	tempRegs   map[string]string
	tempKinds  map[string]types.Type
	varOffsets map[string]int
	labels     map[string]string
	frameSize  int
	nextReg    int
	pending    []string
}

// Emit renders the program as GNU-assembler x86-64 source.
func Emit(program *mir.Program) string {
	e := &Emitter{
		program:      program,
		stringLabels: map[string]string{},
		formatLabels: map[string]string{},
	}
	return e.emitModule()
}

func (e *Emitter) emit(line string) {
	e.out.WriteString(line)
	e.out.WriteString("\n")
}

func (e *Emitter) emitModule() string {
	var body strings.Builder

	// Function bodies are written first so the rodata tables fill up; the
	// final module places data ahead of text.
	for _, fn := range e.program.Functions {
		e.emitFunction(fn)
	}
	body.WriteString(e.out.String())

	var module strings.Builder
	if len(e.stringLabels) > 0 || len(e.formatLabels) > 0 {
		module.WriteString(".section .rodata\n")
		var lines []string
		for value, label := range e.stringLabels {
			lines = append(lines, fmt.Sprintf("%s:\n  .string %q", label, value))
		}
		for value, label := range e.formatLabels {
			lines = append(lines, fmt.Sprintf("%s:\n  .string %q", label, value))
		}
		sortLines(lines)
		for _, l := range lines {
			module.WriteString(l)
			module.WriteString("\n")
		}
		module.WriteString("\n")
	}
	module.WriteString(".text\n")
	if e.printCalled {
		module.WriteString(".extern printf\n")
	}
	module.WriteString("\n")
	module.WriteString(body.String())
	return module.String()
}

func (e *Emitter) internString(value string) string {
	if label, ok := e.stringLabels[value]; ok {
		return label
	}
	label := ".LC" + strconv.Itoa(e.stringCount)
	e.stringCount++
	e.stringLabels[value] = label
	return label
}

func (e *Emitter) internFormat(value string) string {
	if label, ok := e.formatLabels[value]; ok {
		return label
	}
	label := ".LF" + strconv.Itoa(e.formatCount)
	e.formatCount++
	e.formatLabels[value] = label
	return label
}

func (e *Emitter) emitFunction(fn *mir.Function) {
	e.fn = fn
	e.tempRegs = map[string]string{}
	e.tempKinds = map[string]types.Type{}
	e.varOffsets = map[string]int{}
	e.labels = map[string]string{}
	e.frameSize = 0
	e.nextReg = 0
	e.pending = nil

	labelCount := 0
	for i, block := range fn.Blocks {
		if i == 0 {
			continue
		}
		e.labels[block.Label] = fmt.Sprintf(".L%s_%d", fn.Name, labelCount)
		labelCount++
	}

	e.collectVariables(fn)

	e.emit(".globl " + fn.Name)
	e.emit(fmt.Sprintf(".type %s, @function", fn.Name))
	e.emit(fn.Name + ":")
	e.emit("  pushq %rbp")
	e.emit("  movq %rsp, %rbp")
	if e.frameSize > 0 {
		// Keep %rsp 16-byte aligned across calls.
		aligned := (e.frameSize + 15) / 16 * 16
		e.emit(fmt.Sprintf("  subq $%d, %%rsp", aligned))
	}

	for i, param := range fn.Params {
		offset, ok := e.varOffsets[param]
		if !ok {
			continue
		}
		if i < len(paramRegs) {
			e.emit(fmt.Sprintf("  movq %s, -%d(%%rbp)", paramRegs[i], offset))
		} else {
			stackOffset := 16 + (i-len(paramRegs))*8
			e.emit(fmt.Sprintf("  movq %d(%%rbp), %%rax", stackOffset))
			e.emit(fmt.Sprintf("  movq %%rax, -%d(%%rbp)", offset))
		}
	}

	for _, block := range fn.Blocks {
		e.emitBlock(block)
	}

	e.emit("")
	e.emit(fmt.Sprintf(".size %s, .-%s", fn.Name, fn.Name))
	e.emit("")
}

// collectVariables assigns one 8-byte slot per variable touched by a load
// or store: parameters first, in parameter order, then the other variables
// in the order of their first load or store across the blocks. Slots do not
// follow source declaration order.
func (e *Emitter) collectVariables(fn *mir.Function) {
	note := func(name string) {
		if _, ok := e.varOffsets[name]; ok {
			return
		}
		e.frameSize += 8
		e.varOffsets[name] = e.frameSize
	}
	for _, param := range fn.Params {
		note(param)
	}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			if instr.Op == mir.OpLoad || instr.Op == mir.OpStore {
				note(instr.Args[0])
			}
		}
	}
}

func (e *Emitter) emitBlock(block *mir.Block) {
	if label, ok := e.labels[block.Label]; ok {
		e.emit(label + ":")
	}
	e.pending = nil
	for _, instr := range block.Instrs {
		e.emitInstr(instr)
		if instr.Op == mir.OpReturn || instr.Op == mir.OpRetval {
			break
		}
	}
}

// allocReg hands out the next scratch register round-robin.
func (e *Emitter) allocReg() string {
	reg := scratchRegs[e.nextReg%len(scratchRegs)]
	e.nextReg++
	return reg
}

func (e *Emitter) reg(temp string) string {
	if reg, ok := e.tempRegs[temp]; ok {
		return reg
	}
	reg := e.allocReg()
	e.tempRegs[temp] = reg
	return reg
}

func (e *Emitter) setResult(temp, reg string, kind types.Type) {
	e.tempRegs[temp] = reg
	e.tempKinds[temp] = kind
}

func (e *Emitter) emitInstr(instr *mir.Instr) {
	switch instr.Op {
	case mir.OpConst:
		e.emitConst(instr)

	case mir.OpLoad:
		varName := instr.Args[0]
		reg := e.allocReg()
		e.emit(fmt.Sprintf("  movq -%d(%%rbp), %s", e.varOffsets[varName], reg))
		e.setResult(instr.Result, reg, e.varKind(varName))

	case mir.OpStore:
		varName := instr.Args[0]
		e.emit(fmt.Sprintf("  movq %s, -%d(%%rbp)", e.reg(instr.Args[1]), e.varOffsets[varName]))

	case mir.OpAdd, mir.OpSub:
		opcode := "addq"
		if instr.Op == mir.OpSub {
			opcode = "subq"
		}
		result := e.allocReg()
		e.emit(fmt.Sprintf("  movq %s, %s", e.reg(instr.Args[0]), result))
		e.emit(fmt.Sprintf("  %s %s, %s", opcode, e.reg(instr.Args[1]), result))
		e.setResult(instr.Result, result, types.IntType)

	case mir.OpMul:
		result := e.allocReg()
		e.emit(fmt.Sprintf("  movq %s, %%rax", e.reg(instr.Args[0])))
		e.emit(fmt.Sprintf("  imulq %s", e.reg(instr.Args[1])))
		e.emit(fmt.Sprintf("  movq %%rax, %s", result))
		e.setResult(instr.Result, result, types.IntType)

	case mir.OpDiv, mir.OpMod:
		result := e.allocReg()
		e.emit(fmt.Sprintf("  movq %s, %%rax", e.reg(instr.Args[0])))
		e.emit("  cqto")
		e.emit(fmt.Sprintf("  idivq %s", e.reg(instr.Args[1])))
		if instr.Op == mir.OpDiv {
			e.emit(fmt.Sprintf("  movq %%rax, %s", result))
		} else {
			e.emit(fmt.Sprintf("  movq %%rdx, %s", result))
		}
		e.setResult(instr.Result, result, types.IntType)

	case mir.OpShl, mir.OpShr:
		opcode := "shlq"
		if instr.Op == mir.OpShr {
			opcode = "sarq"
		}
		result := e.allocReg()
		e.emit(fmt.Sprintf("  movq %s, %s", e.reg(instr.Args[0]), result))
		// Variable shift counts go through %cl.
		e.emit(fmt.Sprintf("  movq %s, %%rcx", e.reg(instr.Args[1])))
		e.emit(fmt.Sprintf("  %s %%cl, %s", opcode, result))
		e.setResult(instr.Result, result, types.IntType)

	case mir.OpEq, mir.OpNe, mir.OpLt, mir.OpLe, mir.OpGt, mir.OpGe:
		e.emitCompare(instr)

	case mir.OpNeg:
		result := e.allocReg()
		e.emit(fmt.Sprintf("  movq %s, %s", e.reg(instr.Args[0]), result))
		e.emit(fmt.Sprintf("  negq %s", result))
		e.setResult(instr.Result, result, types.IntType)

	case mir.OpNot:
		result := e.allocReg()
		e.emit(fmt.Sprintf("  cmpq $0, %s", e.reg(instr.Args[0])))
		e.emit("  sete %al")
		e.emit(fmt.Sprintf("  movzbq %%al, %s", result))
		e.setResult(instr.Result, result, types.IntType)

	case mir.OpAnd, mir.OpOr:
		opcode := "andq"
		if instr.Op == mir.OpOr {
			opcode = "orq"
		}
		result := e.allocReg()
		e.emit(fmt.Sprintf("  movq %s, %s", e.reg(instr.Args[0]), result))
		e.emit(fmt.Sprintf("  %s %s, %s", opcode, e.reg(instr.Args[1]), result))
		e.setResult(instr.Result, result, types.IntType)

	case mir.OpBranch:
		e.emit(fmt.Sprintf("  cmpq $0, %s", e.reg(instr.Args[0])))
		e.emit("  jne " + e.blockLabel(instr.Args[1]))
		e.emit("  jmp " + e.blockLabel(instr.Args[2]))

	case mir.OpJump:
		e.emit("  jmp " + e.blockLabel(instr.Args[0]))

	case mir.OpReturn:
		e.emit("  movq $0, %rax")
		e.emit("  leave")
		e.emit("  ret")

	case mir.OpRetval:
		e.emit(fmt.Sprintf("  movq %s, %%rax", e.reg(instr.Args[0])))
		e.emit("  leave")
		e.emit("  ret")

	case mir.OpParam:
		e.pending = append(e.pending, instr.Args[0])

	case mir.OpCall:
		e.emitCall(instr)
	}
}

func (e *Emitter) emitConst(instr *mir.Instr) {
	value := instr.Value
	reg := e.allocReg()
	switch value.Type {
	case types.StringType:
		label := e.internString(value.Str)
		e.emit(fmt.Sprintf("  leaq %s(%%rip), %s", label, reg))
	case types.FloatType:
		e.emit(fmt.Sprintf("  movq $%d, %s", int64(value.Float), reg))
	default:
		e.emit(fmt.Sprintf("  movq $%d, %s", value.Int, reg))
	}
	e.setResult(instr.Result, reg, value.Type)
}

var setOpcodes = map[mir.Op]string{
	mir.OpEq: "sete",
	mir.OpNe: "setne",
	mir.OpLt: "setl",
	mir.OpLe: "setle",
	mir.OpGt: "setg",
	mir.OpGe: "setge",
}

func (e *Emitter) emitCompare(instr *mir.Instr) {
	result := e.allocReg()
	e.emit(fmt.Sprintf("  cmpq %s, %s", e.reg(instr.Args[1]), e.reg(instr.Args[0])))
	e.emit("  " + setOpcodes[instr.Op] + " %al")
	e.emit(fmt.Sprintf("  movzbq %%al, %s", result))
	e.setResult(instr.Result, result, types.IntType)
}

func (e *Emitter) blockLabel(label string) string {
	if mapped, ok := e.labels[label]; ok {
		return mapped
	}
	return label
}

func (e *Emitter) varKind(name string) types.Type {
	if t, ok := e.fn.VarTypes[name]; ok {
		return t
	}
	return types.IntType
}

func (e *Emitter) emitCall(instr *mir.Instr) {
	callee := instr.Args[0]
	if callee == "print" {
		e.emitPrint()
		return
	}

	target := e.program.FunctionByName(callee)
	argc := 0
	if target != nil {
		argc = len(target.Params)
	}
	var args []string
	if argc > 0 && len(e.pending) >= argc {
		args = e.pending[len(e.pending)-argc:]
		e.pending = e.pending[:len(e.pending)-argc]
	}

	for i, temp := range args {
		if i < len(paramRegs) {
			e.emit(fmt.Sprintf("  movq %s, %s", e.reg(temp), paramRegs[i]))
		} else {
			e.emit(fmt.Sprintf("  pushq %s", e.reg(temp)))
		}
	}

	// An odd count of stack arguments breaks 16-byte alignment.
	stackArgs := 0
	if len(args) > len(paramRegs) {
		stackArgs = len(args) - len(paramRegs)
	}
	if stackArgs%2 == 1 {
		e.emit("  subq $8, %rsp")
	}

	e.emit("  call " + callee)

	if stackArgs > 0 {
		restore := stackArgs * 8
		if stackArgs%2 == 1 {
			restore += 8
		}
		e.emit(fmt.Sprintf("  addq $%d, %%rsp", restore))
	}

	if instr.Result != "" {
		result := e.allocReg()
		e.emit(fmt.Sprintf("  movq %%rax, %s", result))
		kind := types.IntType
		if target != nil {
			kind = target.ReturnType
		}
		e.setResult(instr.Result, result, kind)
	}
}

// emitPrint composes the per-signature format string and calls printf with
// all integer-class arguments; %al is zeroed because no vector registers
// are used.
func (e *Emitter) emitPrint() {
	e.printCalled = true
	args := e.pending
	e.pending = nil

	var format strings.Builder
	for _, temp := range args {
		switch e.tempKinds[temp] {
		case types.StringType:
			format.WriteString("%s")
		case types.CharType:
			format.WriteString("%c")
		default:
			// Floats are truncated integers in this backend.
			format.WriteString("%d")
		}
	}
	format.WriteString("\n")
	label := e.internFormat(format.String())

	// Argument registers load right-to-left so %rdi/%rsi sources are not
	// clobbered before they are read.
	for i := len(args) - 1; i >= 0; i-- {
		if i+1 < len(paramRegs) {
			e.emit(fmt.Sprintf("  movq %s, %s", e.reg(args[i]), paramRegs[i+1]))
		} else {
			e.emit(fmt.Sprintf("  pushq %s", e.reg(args[i])))
		}
	}
	e.emit(fmt.Sprintf("  leaq %s(%%rip), %%rdi", label))

	stackArgs := 0
	if len(args)+1 > len(paramRegs) {
		stackArgs = len(args) + 1 - len(paramRegs)
	}
	if stackArgs%2 == 1 {
		e.emit("  subq $8, %rsp")
	}

	e.emit("  xorl %eax, %eax")
	e.emit("  call printf")

	if stackArgs > 0 {
		restore := stackArgs * 8
		if stackArgs%2 == 1 {
			restore += 8
		}
		e.emit(fmt.Sprintf("  addq $%d, %%rsp", restore))
	}
}

func sortLines(lines []string) {
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j] < lines[j-1]; j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}
