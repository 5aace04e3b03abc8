// Package llvm lowers MIR to textual LLVM IR. The output is a single module:
// interned string and format globals, a printf declaration when print is
// used, and one define per function with SSA names numbered from %1.
package llvm

import (
	"fmt"
	"strconv"
	"strings"

	"sara/internal/mir"
	"sara/internal/types"
)

type stringLit struct {
	name    string
	byteLen int
}

type pendingParam struct {
	value string
	kind  types.Type
}

// Emitter holds module-wide interning tables plus the per-function SSA
// state, which resets at every function boundary.
type Emitter struct {
	program *mir.Program
	body    strings.Builder

	stringLits    map[string]stringLit
	stringCount   int
	formatGlobals map[string]string
	formatCount   int
	printCalled   bool

	fn       *mir.Function
	counter  int
	temps    map[string]string     // MIR temp -> LLVM SSA name
	kinds    map[string]types.Type // MIR temp -> value type
	i1Names  map[string]bool       // SSA names holding i1 values
	varSlots map[string]string     // variable -> alloca SSA name
	labels   map[string]string     // MIR label -> LLVM label ("" = entry)
	pending  []pendingParam
}

// Emit renders the whole program as one LLVM module.
func Emit(program *mir.Program) string {
	e := &Emitter{
		program:       program,
		stringLits:    map[string]stringLit{},
		formatGlobals: map[string]string{},
	}
	return e.emitModule()
}

func (e *Emitter) emitModule() string {
	e.collectStringLiterals()

	for _, fn := range e.program.Functions {
		e.emitFunction(fn)
	}

	// Globals come first in the assembled module; they were interned while
	// the function bodies were written.
	var out strings.Builder
	var globalLines []string
	for value, lit := range e.stringLits {
		globalLines = append(globalLines, fmt.Sprintf(
			"%s = private unnamed_addr constant [%d x i8] c\"%s\\00\"",
			lit.name, lit.byteLen+1, escapeBytes(value)))
	}
	for body, name := range e.formatGlobals {
		globalLines = append(globalLines, fmt.Sprintf(
			"%s = private unnamed_addr constant [%d x i8] c\"%s\"",
			name, formatLen(body), body))
	}
	// Map iteration order is arbitrary; the global names carry their
	// creation index, so sort on those for stable output.
	sortByName(globalLines)
	for _, line := range globalLines {
		out.WriteString(line)
		out.WriteString("\n")
	}
	if len(globalLines) > 0 {
		out.WriteString("\n")
	}
	if e.printCalled {
		out.WriteString("declare i32 @printf(i8* noundef, ...)\n\n")
	}
	out.WriteString(e.body.String())
	return out.String()
}

func (e *Emitter) collectStringLiterals() {
	for _, fn := range e.program.Functions {
		for _, block := range fn.Blocks {
			for _, instr := range block.Instrs {
				if instr.Op == mir.OpConst && instr.Value.Type == types.StringType {
					e.internString(instr.Value.Str)
				}
			}
		}
	}
}

func (e *Emitter) internString(value string) stringLit {
	if lit, ok := e.stringLits[value]; ok {
		return lit
	}
	lit := stringLit{
		name:    fmt.Sprintf("@.str.%d", e.stringCount),
		byteLen: len(value),
	}
	e.stringCount++
	e.stringLits[value] = lit
	return lit
}

func llvmType(t types.Type) string {
	switch t {
	case types.IntType:
		return "i32"
	case types.CharType:
		return "i8"
	case types.FloatType:
		return "double"
	case types.StringType:
		return "i8*"
	case types.VoidType:
		return "void"
	}
	return "i32"
}

func (e *Emitter) emit(line string) {
	e.body.WriteString(line)
	e.body.WriteString("\n")
}

func (e *Emitter) newName() string {
	name := "%" + strconv.Itoa(e.counter)
	e.counter++
	return name
}

func (e *Emitter) emitFunction(fn *mir.Function) {
	e.fn = fn
	e.counter = 1
	e.temps = map[string]string{}
	e.kinds = map[string]types.Type{}
	e.i1Names = map[string]bool{}
	e.varSlots = map[string]string{}
	e.labels = map[string]string{}
	e.pending = nil

	paramTypes := make([]string, len(fn.Params))
	paramDecls := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		paramTypes[i] = llvmType(fn.ParamTypes[i])
		paramDecls[i] = paramTypes[i] + " %" + p
	}
	e.emit(fmt.Sprintf("define %s @%s(%s) {",
		llvmType(fn.ReturnType), fn.Name, strings.Join(paramDecls, ", ")))

	// The first block is the implicit LLVM entry; the rest are bb0, bb1, …
	// in the order encountered.
	labelCount := 0
	for i, block := range fn.Blocks {
		if i == 0 {
			e.labels[block.Label] = ""
			continue
		}
		e.labels[block.Label] = "bb" + strconv.Itoa(labelCount)
		labelCount++
	}

	e.emitAllocas(fn)

	for i, param := range fn.Params {
		slot, ok := e.varSlots[param]
		if !ok {
			continue
		}
		e.emit(fmt.Sprintf("  store %s %%%s, %s* %s",
			paramTypes[i], param, paramTypes[i], slot))
	}

	for _, block := range fn.Blocks {
		e.emitBlock(block)
	}

	e.emit("}")
	e.emit("")
}

// emitAllocas reserves one slot per variable touched by a load or store,
// parameters included, and nulls out string locals.
func (e *Emitter) emitAllocas(fn *mir.Function) {
	seen := map[string]bool{}
	order := []string{}
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, block := range fn.Blocks {
		for _, instr := range block.Instrs {
			if instr.Op == mir.OpLoad || instr.Op == mir.OpStore {
				note(instr.Args[0])
			}
		}
	}
	for _, param := range fn.Params {
		note(param)
	}

	for _, name := range order {
		t := llvmType(e.varType(name))
		slot := e.newName()
		e.varSlots[name] = slot
		e.emit(fmt.Sprintf("  %s = alloca %s", slot, t))
	}
	for _, name := range order {
		if e.varType(name) == types.StringType {
			e.emit(fmt.Sprintf("  store i8* null, i8** %s", e.varSlots[name]))
		}
	}
}

func (e *Emitter) varType(name string) types.Type {
	if t, ok := e.fn.VarTypes[name]; ok {
		return t
	}
	for i, p := range e.fn.Params {
		if p == name {
			return e.fn.ParamTypes[i]
		}
	}
	return types.IntType
}

func (e *Emitter) emitBlock(block *mir.Block) {
	if label := e.labels[block.Label]; label != "" {
		e.emit(label + ":")
	}
	e.pending = nil
	for _, instr := range block.Instrs {
		e.emitInstr(instr)
		if instr.IsTerminator() {
			break
		}
	}
}

func (e *Emitter) emitInstr(instr *mir.Instr) {
	switch instr.Op {
	case mir.OpConst:
		e.emitConst(instr)
	case mir.OpLoad:
		e.emitLoad(instr)
	case mir.OpStore:
		e.emitStore(instr)
	case mir.OpAdd, mir.OpSub, mir.OpMul, mir.OpDiv, mir.OpMod:
		e.emitArith(instr)
	case mir.OpShl, mir.OpShr:
		e.emitShift(instr)
	case mir.OpEq, mir.OpNe, mir.OpLt, mir.OpLe, mir.OpGt, mir.OpGe:
		e.emitCompare(instr)
	case mir.OpAnd, mir.OpOr:
		e.emitLogical(instr)
	case mir.OpNot:
		e.emitNot(instr)
	case mir.OpNeg:
		e.emitNeg(instr)
	case mir.OpBranch:
		e.emitBranch(instr)
	case mir.OpJump:
		e.emit("  br label %" + e.labels[instr.Args[0]])
	case mir.OpReturn:
		e.emit("  ret void")
	case mir.OpRetval:
		e.emitRetval(instr)
	case mir.OpParam:
		value, kind := e.operand(instr.Args[0])
		e.pending = append(e.pending, pendingParam{value: value, kind: kind})
	case mir.OpCall:
		e.emitCall(instr)
	}
}

// emitConst materializes the literal into a fresh SSA name so the numbering
// stays monotonic: integers via add 0, floats via fadd 0.0, strings via a
// getelementptr on the interned global.
func (e *Emitter) emitConst(instr *mir.Instr) {
	value := instr.Value
	name := e.newName()
	switch value.Type {
	case types.StringType:
		lit := e.internString(value.Str)
		e.emit(fmt.Sprintf("  %s = getelementptr inbounds [%d x i8], [%d x i8]* %s, i32 0, i32 0",
			name, lit.byteLen+1, lit.byteLen+1, lit.name))
	case types.FloatType:
		e.emit(fmt.Sprintf("  %s = fadd double 0.0, %s", name, floatText(value.Float)))
	default:
		e.emit(fmt.Sprintf("  %s = add %s 0, %d", name, llvmType(value.Type), value.Int))
	}
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = value.Type
}

func (e *Emitter) emitLoad(instr *mir.Instr) {
	varName := instr.Args[0]
	t := llvmType(e.varType(varName))
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = load %s, %s* %s", name, t, t, e.varSlots[varName]))
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = e.varType(varName)
}

// operand fetches a temp's SSA value for a non-boolean use, widening i1
// comparison results back to i32.
func (e *Emitter) operand(temp string) (string, types.Type) {
	value, kind := e.temps[temp], e.kinds[temp]
	if e.i1Names[value] {
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = zext i1 %s to i32", name, value))
		value = name
	}
	return value, kind
}

func (e *Emitter) emitStore(instr *mir.Instr) {
	varName := instr.Args[0]
	target := e.varType(varName)
	value, valueKind := e.operand(instr.Args[1])

	value = e.coerce(value, valueKind, target)
	t := llvmType(target)
	e.emit(fmt.Sprintf("  store %s %s, %s* %s", t, value, t, e.varSlots[varName]))
}

// coerce converts an SSA value between the value kinds the type checker can
// put next to each other: i32 narrows to i8, integers widen to double.
func (e *Emitter) coerce(value string, from, to types.Type) string {
	if from == to || !from.IsValid() {
		return value
	}
	switch {
	case to == types.CharType && from == types.IntType:
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = trunc i32 %s to i8", name, value))
		return name
	case to == types.IntType && from == types.CharType:
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = zext i8 %s to i32", name, value))
		return name
	case to == types.FloatType && (from == types.IntType || from == types.CharType):
		widened := value
		if from == types.CharType {
			widened = e.coerce(value, types.CharType, types.IntType)
		}
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = sitofp i32 %s to double", name, widened))
		return name
	case to == types.StringType:
		// Only the implicit default return can put an integer where a
		// string is expected.
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = inttoptr i32 %s to i8*", name, value))
		return name
	}
	return value
}

var arithOpcodes = map[mir.Op]string{
	mir.OpAdd: "add",
	mir.OpSub: "sub",
	mir.OpMul: "mul",
	mir.OpDiv: "sdiv",
	mir.OpMod: "srem",
}

var floatOpcodes = map[mir.Op]string{
	mir.OpAdd: "fadd",
	mir.OpSub: "fsub",
	mir.OpMul: "fmul",
	mir.OpDiv: "fdiv",
	mir.OpMod: "frem",
}

// emitArith promotes to double when either operand is a float, otherwise
// works in i32 (chars widen unless both sides are chars).
func (e *Emitter) emitArith(instr *mir.Instr) {
	lhs, lhsKind := e.operand(instr.Args[0])
	rhs, rhsKind := e.operand(instr.Args[1])

	if lhsKind == types.FloatType || rhsKind == types.FloatType {
		lhs = e.coerce(lhs, lhsKind, types.FloatType)
		rhs = e.coerce(rhs, rhsKind, types.FloatType)
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = %s double %s, %s", name, floatOpcodes[instr.Op], lhs, rhs))
		e.temps[instr.Result] = name
		e.kinds[instr.Result] = types.FloatType
		return
	}

	if lhsKind == types.CharType && rhsKind == types.CharType {
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = %s i8 %s, %s", name, arithOpcodes[instr.Op], lhs, rhs))
		e.temps[instr.Result] = name
		e.kinds[instr.Result] = types.CharType
		return
	}

	lhs = e.coerce(lhs, lhsKind, types.IntType)
	rhs = e.coerce(rhs, rhsKind, types.IntType)
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = %s i32 %s, %s", name, arithOpcodes[instr.Op], lhs, rhs))
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = types.IntType
}

func (e *Emitter) emitShift(instr *mir.Instr) {
	lhsValue, lhsKind := e.operand(instr.Args[0])
	rhsValue, rhsKind := e.operand(instr.Args[1])
	lhs := e.coerce(lhsValue, lhsKind, types.IntType)
	rhs := e.coerce(rhsValue, rhsKind, types.IntType)
	opcode := "shl"
	if instr.Op == mir.OpShr {
		// Arithmetic right shift: values are signed.
		opcode = "ashr"
	}
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = %s i32 %s, %s", name, opcode, lhs, rhs))
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = types.IntType
}

var icmpPreds = map[mir.Op]string{
	mir.OpEq: "eq",
	mir.OpNe: "ne",
	mir.OpLt: "slt",
	mir.OpLe: "sle",
	mir.OpGt: "sgt",
	mir.OpGe: "sge",
}

var fcmpPreds = map[mir.Op]string{
	mir.OpEq: "oeq",
	mir.OpNe: "one",
	mir.OpLt: "olt",
	mir.OpLe: "ole",
	mir.OpGt: "ogt",
	mir.OpGe: "oge",
}

// emitCompare yields an i1; the result is tracked so branches can use it
// directly.
func (e *Emitter) emitCompare(instr *mir.Instr) {
	lhs, lhsKind := e.operand(instr.Args[0])
	rhs, rhsKind := e.operand(instr.Args[1])

	var name string
	if lhsKind == types.FloatType || rhsKind == types.FloatType {
		lhs = e.coerce(lhs, lhsKind, types.FloatType)
		rhs = e.coerce(rhs, rhsKind, types.FloatType)
		name = e.newName()
		e.emit(fmt.Sprintf("  %s = fcmp %s double %s, %s", name, fcmpPreds[instr.Op], lhs, rhs))
	} else {
		lhs = e.coerce(lhs, lhsKind, types.IntType)
		rhs = e.coerce(rhs, rhsKind, types.IntType)
		name = e.newName()
		e.emit(fmt.Sprintf("  %s = icmp %s i32 %s, %s", name, icmpPreds[instr.Op], lhs, rhs))
	}
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = types.IntType
	e.i1Names[name] = true
}

func (e *Emitter) emitLogical(instr *mir.Instr) {
	lhs := e.toBool(e.temps[instr.Args[0]], e.kinds[instr.Args[0]])
	rhs := e.toBool(e.temps[instr.Args[1]], e.kinds[instr.Args[1]])
	opcode := "and"
	if instr.Op == mir.OpOr {
		opcode = "or"
	}
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = %s i1 %s, %s", name, opcode, lhs, rhs))
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = types.IntType
	e.i1Names[name] = true
}

func (e *Emitter) emitNot(instr *mir.Instr) {
	operand := e.toBool(e.temps[instr.Args[0]], e.kinds[instr.Args[0]])
	flipped := e.newName()
	e.emit(fmt.Sprintf("  %s = xor i1 %s, true", flipped, operand))
	e.i1Names[flipped] = true
	// Widen back to i32 so the result composes with arithmetic.
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = zext i1 %s to i32", name, flipped))
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = types.IntType
}

func (e *Emitter) emitNeg(instr *mir.Instr) {
	operand, kind := e.operand(instr.Args[0])
	if kind == types.FloatType {
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = fsub double 0.0, %s", name, operand))
		e.temps[instr.Result] = name
		e.kinds[instr.Result] = types.FloatType
		return
	}
	operand = e.coerce(operand, kind, types.IntType)
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = sub i32 0, %s", name, operand))
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = types.IntType
}

// toBool collapses a value to i1 for branch conditions and logical ops.
func (e *Emitter) toBool(value string, kind types.Type) string {
	if e.i1Names[value] {
		return value
	}
	if kind == types.FloatType {
		name := e.newName()
		e.emit(fmt.Sprintf("  %s = fcmp one double %s, 0.0", name, value))
		e.i1Names[name] = true
		return name
	}
	widened := value
	if kind == types.CharType {
		widened = e.coerce(value, types.CharType, types.IntType)
	}
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = icmp ne i32 %s, 0", name, widened))
	e.i1Names[name] = true
	return name
}

func (e *Emitter) emitBranch(instr *mir.Instr) {
	cond := e.toBool(e.temps[instr.Args[0]], e.kinds[instr.Args[0]])
	e.emit(fmt.Sprintf("  br i1 %s, label %%%s, label %%%s",
		cond, e.labels[instr.Args[1]], e.labels[instr.Args[2]]))
}

func (e *Emitter) emitRetval(instr *mir.Instr) {
	value, kind := e.operand(instr.Args[0])
	value = e.coerce(value, kind, e.fn.ReturnType)
	e.emit(fmt.Sprintf("  ret %s %s", llvmType(e.fn.ReturnType), value))
}

// emitCall consumes exactly the callee's parameter count from the pending
// queue; the variadic print consumes everything collected since the last
// call.
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
	var args []pendingParam
	if argc > 0 && len(e.pending) >= argc {
		args = e.pending[len(e.pending)-argc:]
		e.pending = e.pending[:len(e.pending)-argc]
	}

	retType := "i32"
	retKind := types.IntType
	if target != nil {
		retType = llvmType(target.ReturnType)
		retKind = target.ReturnType
	}

	decls := make([]string, len(args))
	for i, arg := range args {
		kind := arg.kind
		value := arg.value
		if target != nil && i < len(target.ParamTypes) {
			value = e.coerce(value, kind, target.ParamTypes[i])
			kind = target.ParamTypes[i]
		}
		decls[i] = llvmType(kind) + " " + value
	}

	if retType == "void" {
		e.emit(fmt.Sprintf("  call void @%s(%s)", callee, strings.Join(decls, ", ")))
		return
	}
	name := e.newName()
	e.emit(fmt.Sprintf("  %s = call %s @%s(%s)", name, retType, callee, strings.Join(decls, ", ")))
	e.temps[instr.Result] = name
	e.kinds[instr.Result] = retKind
}

func specifier(kind types.Type) string {
	switch kind {
	case types.StringType:
		return "%s"
	case types.CharType:
		return "%c"
	case types.FloatType:
		return "%f"
	default:
		return "%d"
	}
}

// emitPrint lowers the built-in: the format string concatenates one
// specifier per argument plus a trailing newline, interned as a private
// global per distinct signature.
func (e *Emitter) emitPrint() {
	e.printCalled = true
	args := e.pending
	e.pending = nil

	var format strings.Builder
	for _, arg := range args {
		format.WriteString(specifier(arg.kind))
	}
	format.WriteString("\\0A\\00")
	global := e.internFormat(format.String())
	length := formatLen(format.String())

	ptr := e.newName()
	e.emit(fmt.Sprintf("  %s = getelementptr inbounds [%d x i8], [%d x i8]* %s, i32 0, i32 0",
		ptr, length, length, global))

	decls := []string{"i8* noundef " + ptr}
	for _, arg := range args {
		switch arg.kind {
		case types.StringType:
			decls = append(decls, "i8* noundef "+arg.value)
		case types.FloatType:
			decls = append(decls, "double noundef "+arg.value)
		case types.CharType:
			// Chars go through the integer promotion printf expects.
			widened := e.coerce(arg.value, types.CharType, types.IntType)
			decls = append(decls, "i32 noundef "+widened)
		default:
			decls = append(decls, "i32 noundef "+arg.value)
		}
	}

	result := e.newName()
	e.emit(fmt.Sprintf("  %s = call i32 (i8*, ...) @printf(%s)", result, strings.Join(decls, ", ")))
}

func (e *Emitter) internFormat(body string) string {
	if name, ok := e.formatGlobals[body]; ok {
		return name
	}
	name := fmt.Sprintf("@.print.%d", e.formatCount)
	e.formatCount++
	e.formatGlobals[body] = name
	return name
}

// formatLen counts the bytes of a format body written with \0A-style
// escapes: every backslash escape is one byte.
func formatLen(body string) int {
	n := 0
	for i := 0; i < len(body); {
		if body[i] == '\\' {
			i += 3
		} else {
			i++
		}
		n++
	}
	return n
}

// escapeBytes renders literal bytes for an LLVM c"..." constant.
func escapeBytes(value string) string {
	var out strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			out.WriteByte(c)
			continue
		}
		out.WriteString(fmt.Sprintf("\\%02X", c))
	}
	return out.String()
}

// floatText renders a double so LLVM parses it as floating point.
func floatText(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func sortByName(lines []string) {
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j] < lines[j-1]; j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
}
