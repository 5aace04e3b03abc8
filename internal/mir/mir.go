// Package mir is the mid-level intermediate representation: per-function
// ordered basic blocks of three-address instructions, lowered from the AST
// and consumed by the optimizer and the backends.
package mir

import (
	"fmt"
	"strconv"

	"sara/internal/types"
)

// Op is an instruction operation kind.
type Op string

const (
	// Arithmetic
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"
	OpMod Op = "mod"
	OpNeg Op = "neg"

	// Comparisons
	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpLe Op = "le"
	OpGt Op = "gt"
	OpGe Op = "ge"

	// Logical
	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"

	// Shifts
	OpShl Op = "shl"
	OpShr Op = "shr"

	// Memory
	OpLoad  Op = "load"
	OpStore Op = "store"
	OpConst Op = "const"

	// Control flow
	OpBranch Op = "branch"
	OpJump   Op = "jump"
	OpReturn Op = "return"
	OpRetval Op = "retval"

	// Function calls
	OpCall  Op = "call"
	OpParam Op = "param"
)

// Const is a literal value carried by an OpConst instruction. Int holds both
// integer and character values (the code point).
type Const struct {
	Type  types.Type
	Int   int64
	Float float64
	Str   string
}

// Text renders the value for the MIR printer and for canonical comparisons.
func (c Const) Text() string {
	switch c.Type {
	case types.FloatType:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case types.StringType:
		return strconv.Quote(c.Str)
	default:
		return strconv.FormatInt(c.Int, 10)
	}
}

// IsZero reports whether a numeric constant is zero; folding uses it to
// leave division and modulo by zero intact.
func (c Const) IsZero() bool {
	if c.Type == types.FloatType {
		return c.Float == 0
	}
	return c.Int == 0
}

// Instr is a single three-address instruction. Args holds temporaries,
// variable names or labels depending on the op; Result names the defined
// temporary, if any. Value carries the literal for OpConst.
type Instr struct {
	Op     Op
	Args   []string
	Result string
	Value  *Const
}

// IsTerminator reports whether the instruction ends a basic block.
func (i *Instr) IsTerminator() bool {
	switch i.Op {
	case OpJump, OpBranch, OpReturn, OpRetval:
		return true
	}
	return false
}

func (i *Instr) String() string {
	args := ""
	for n, a := range i.Args {
		if n > 0 {
			args += ", "
		}
		args += a
	}
	if i.Op == OpConst {
		args = i.Value.Text()
	}
	if i.Result != "" {
		return fmt.Sprintf("%s = %s(%s)", i.Result, i.Op, args)
	}
	return fmt.Sprintf("%s(%s)", i.Op, args)
}

// Block is a basic block: a straight-line instruction sequence ending in one
// terminator, with CFG edges maintained by the optimizer.
type Block struct {
	Label        string
	Instrs       []*Instr
	Predecessors []*Block
	Successors   []*Block
}

func (b *Block) Add(instr *Instr) {
	b.Instrs = append(b.Instrs, instr)
}

// Terminated reports whether the block already ends in a terminator.
func (b *Block) Terminated() bool {
	return len(b.Instrs) > 0 && b.Instrs[len(b.Instrs)-1].IsTerminator()
}

// Function is the MIR for one function. Temporary and label counters are
// scoped here and never cross function boundaries.
type Function struct {
	Name       string
	ReturnType types.Type
	Params     []string
	ParamTypes []types.Type
	VarTypes   map[string]types.Type
	Blocks     []*Block
	Entry      *Block

	tempCount  int
	labelCount int
}

func NewFunction(name string, returnType types.Type) *Function {
	return &Function{
		Name:       name,
		ReturnType: returnType,
		VarTypes:   map[string]types.Type{},
	}
}

// NewTemp returns the next temporary name: t0, t1, ...
func (f *Function) NewTemp() string {
	name := "t" + strconv.Itoa(f.tempCount)
	f.tempCount++
	return name
}

// NewLabel returns the next block label: BB0, BB1, ...
func (f *Function) NewLabel() string {
	label := "BB" + strconv.Itoa(f.labelCount)
	f.labelCount++
	return label
}

// CreateBlock appends a new block; an empty label allocates the next BBn.
func (f *Function) CreateBlock(label string) *Block {
	if label == "" {
		label = f.NewLabel()
	}
	block := &Block{Label: label}
	f.Blocks = append(f.Blocks, block)
	return block
}

// BlockByLabel returns the block with the given label, or nil.
func (f *Function) BlockByLabel(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Program is the MIR for a whole translation unit.
type Program struct {
	Functions []*Function
}

// FunctionByName returns the named function, or nil. The emitters use it to
// look up callee signatures.
func (p *Program) FunctionByName(name string) *Function {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}
