package mir

import (
	"sara/internal/ast"
	"sara/internal/types"
)

// Builder lowers a resolved, type-checked AST into MIR. Translation is
// structure-directed: the current block pointer advances as control flow is
// generated.
type Builder struct {
	program *Program
	fn      *Function
	block   *Block
}

// Build lowers every function definition in the unit.
func Build(unit *ast.TranslationUnit) *Program {
	b := &Builder{program: &Program{}}
	for _, item := range unit.Units {
		if fn, ok := item.(*ast.FunctionDefinition); ok {
			b.lowerFunction(fn)
		}
	}
	return b.program
}

func (b *Builder) emit(instr *Instr) {
	b.block.Add(instr)
}

func (b *Builder) lowerFunction(node *ast.FunctionDefinition) {
	fn := NewFunction(node.Name.Name, node.ReturnType)
	for _, param := range node.Params.Params {
		fn.Params = append(fn.Params, param.Name.Name)
		fn.ParamTypes = append(fn.ParamTypes, param.Type)
		fn.VarTypes[param.Name.Name] = param.Type
	}
	b.fn = fn
	b.program.Functions = append(b.program.Functions, fn)

	fn.Entry = fn.CreateBlock("entry")
	b.block = fn.Entry

	b.lowerCompound(node.Body)

	// A function that falls off the end still needs a terminator: return 0
	// for non-void functions, a bare return otherwise.
	if !b.block.Terminated() {
		if fn.ReturnType != types.VoidType {
			temp := fn.NewTemp()
			b.emit(&Instr{Op: OpConst, Result: temp, Value: &Const{Type: types.IntType}})
			b.emit(&Instr{Op: OpRetval, Args: []string{temp}})
		} else {
			b.emit(&Instr{Op: OpReturn})
		}
	}
}

func (b *Builder) lowerCompound(block *ast.CompoundStatement) {
	for _, decl := range block.Decls.Decls {
		b.lowerDeclaration(decl)
	}
	for _, stmt := range block.Stmts.Stmts {
		b.lowerStatement(stmt)
	}
}

func (b *Builder) lowerDeclaration(decl *ast.Declaration) {
	b.fn.VarTypes[decl.Name.Name] = decl.Type
	if decl.Init != nil {
		temp := b.lowerExpression(decl.Init)
		b.emit(&Instr{Op: OpStore, Args: []string{decl.Name.Name, temp}})
	}
}

func (b *Builder) lowerStatement(stmt ast.Node) {
	if stmt == nil {
		return
	}
	switch node := stmt.(type) {
	case *ast.CompoundStatement:
		b.lowerCompound(node)
	case *ast.Assignment:
		temp := b.lowerExpression(node.Value)
		b.emit(&Instr{Op: OpStore, Args: []string{node.Target.Name, temp}})
	case *ast.Return:
		if node.Value != nil {
			temp := b.lowerExpression(node.Value)
			b.emit(&Instr{Op: OpRetval, Args: []string{temp}})
		} else {
			b.emit(&Instr{Op: OpReturn})
		}
	case *ast.If:
		b.lowerIf(node)
	case *ast.While:
		b.lowerWhile(node)
	case *ast.For:
		b.lowerFor(node)
	case *ast.ExpressionStatement:
		// Value discarded; calls keep their side effects.
		b.lowerExpression(node.X)
	}
}

func (b *Builder) lowerIf(node *ast.If) {
	cond := b.lowerExpression(node.Cond)
	condBlock := b.block

	thenBlock := b.fn.CreateBlock("")
	var elseBlock *Block
	if node.Else != nil {
		elseBlock = b.fn.CreateBlock("")
	}

	b.block = thenBlock
	b.lowerStatement(node.Then)
	thenEnd := b.block
	thenFallsThrough := !thenEnd.Terminated()

	var elseEnd *Block
	elseFallsThrough := true
	if elseBlock != nil {
		b.block = elseBlock
		b.lowerStatement(node.Else)
		elseEnd = b.block
		elseFallsThrough = !elseEnd.Terminated()
	}

	// The false edge of the branch needs a target even when the then-branch
	// returns, so a missing else always counts as a fall-through.
	var merge *Block
	if thenFallsThrough || elseFallsThrough {
		merge = b.fn.CreateBlock("")
		if thenFallsThrough {
			thenEnd.Add(&Instr{Op: OpJump, Args: []string{merge.Label}})
		}
		if elseBlock != nil && elseFallsThrough {
			elseEnd.Add(&Instr{Op: OpJump, Args: []string{merge.Label}})
		}
	}

	falseTarget := merge
	if elseBlock != nil {
		falseTarget = elseBlock
	}
	condBlock.Add(&Instr{Op: OpBranch, Args: []string{cond, thenBlock.Label, falseTarget.Label}})

	if merge != nil {
		b.block = merge
	} else {
		// Both branches returned; any following statements are dead and
		// land in an unreachable block for the optimizer to drop.
		b.block = b.fn.CreateBlock("")
	}
}

func (b *Builder) lowerWhile(node *ast.While) {
	condBlock := b.fn.CreateBlock("")
	bodyBlock := b.fn.CreateBlock("")
	mergeBlock := b.fn.CreateBlock("")

	b.emit(&Instr{Op: OpJump, Args: []string{condBlock.Label}})

	b.block = condBlock
	cond := b.lowerExpression(node.Cond)
	b.emit(&Instr{Op: OpBranch, Args: []string{cond, bodyBlock.Label, mergeBlock.Label}})

	b.block = bodyBlock
	b.lowerStatement(node.Body)
	if !b.block.Terminated() {
		b.emit(&Instr{Op: OpJump, Args: []string{condBlock.Label}})
	}

	b.block = mergeBlock
}

func (b *Builder) lowerFor(node *ast.For) {
	if node.Init != nil {
		b.lowerStatement(node.Init)
	}

	condBlock := b.fn.CreateBlock("")
	bodyBlock := b.fn.CreateBlock("")
	var incrBlock *Block
	if node.Step != nil {
		incrBlock = b.fn.CreateBlock("")
	}
	mergeBlock := b.fn.CreateBlock("")

	b.emit(&Instr{Op: OpJump, Args: []string{condBlock.Label}})

	b.block = condBlock
	if node.Cond != nil {
		cond := b.lowerExpression(node.Cond)
		b.emit(&Instr{Op: OpBranch, Args: []string{cond, bodyBlock.Label, mergeBlock.Label}})
	} else {
		// No condition: always enter the body.
		b.emit(&Instr{Op: OpJump, Args: []string{bodyBlock.Label}})
	}

	// The body loops back through the step block when one exists.
	backEdge := condBlock
	if incrBlock != nil {
		backEdge = incrBlock
	}
	b.block = bodyBlock
	b.lowerStatement(node.Body)
	if !b.block.Terminated() {
		b.emit(&Instr{Op: OpJump, Args: []string{backEdge.Label}})
	}

	if incrBlock != nil {
		b.block = incrBlock
		b.lowerStatement(node.Step)
		b.emit(&Instr{Op: OpJump, Args: []string{condBlock.Label}})
	}

	b.block = mergeBlock
}

var binaryOps = map[string]Op{
	"+":  OpAdd,
	"-":  OpSub,
	"*":  OpMul,
	"/":  OpDiv,
	"%":  OpMod,
	"==": OpEq,
	"!=": OpNe,
	"<":  OpLt,
	"<=": OpLe,
	">":  OpGt,
	">=": OpGe,
	"<<": OpShl,
	">>": OpShr,
}

// lowerExpression emits code for an expression and returns the temporary
// holding its value. Shared DAG nodes re-materialize on every visit; the
// emitters rely on that.
func (b *Builder) lowerExpression(expr ast.Expr) string {
	switch node := expr.(type) {
	case *ast.Constant:
		temp := b.fn.NewTemp()
		b.emit(&Instr{Op: OpConst, Result: temp, Value: &Const{
			Type:  node.Type,
			Int:   node.Int,
			Float: node.Float,
			Str:   node.Str,
		}})
		return temp

	case *ast.Reference:
		temp := b.fn.NewTemp()
		b.emit(&Instr{Op: OpLoad, Args: []string{node.Name}, Result: temp})
		return temp

	case *ast.BinaryOperator:
		left := b.lowerExpression(node.Left)
		right := b.lowerExpression(node.Right)
		temp := b.fn.NewTemp()
		b.emit(&Instr{Op: binaryOps[node.Op], Args: []string{left, right}, Result: temp})
		return temp

	case *ast.UnaryOperator:
		operand := b.lowerExpression(node.Operand)
		switch node.Op {
		case "-":
			temp := b.fn.NewTemp()
			b.emit(&Instr{Op: OpNeg, Args: []string{operand}, Result: temp})
			return temp
		case "!":
			temp := b.fn.NewTemp()
			b.emit(&Instr{Op: OpNot, Args: []string{operand}, Result: temp})
			return temp
		}
		// Unary plus is the identity.
		return operand

	case *ast.FunctionCall:
		for _, arg := range node.Args.Args {
			argTemp := b.lowerExpression(arg)
			b.emit(&Instr{Op: OpParam, Args: []string{argTemp}})
		}
		temp := b.fn.NewTemp()
		b.emit(&Instr{Op: OpCall, Args: []string{node.Callee.Name}, Result: temp})
		return temp
	}
	return b.fn.NewTemp()
}
