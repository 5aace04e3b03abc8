package ast

import (
	"sara/internal/types"
)

// Attr is a resolved-symbol record attached to identifier-bearing nodes.
// Attribute records outlive the AST passes that create them: MIR lowering
// still reads them after DAG optimization has re-parented expression nodes.
type Attr interface {
	AttrName() string
	isAttr()
}

// VariableAttributes describes a declared variable or parameter. Offset is a
// positional index within the enclosing function's frame, assigned in
// declaration order starting at 0.
type VariableAttributes struct {
	Name   string
	Type   types.Type
	Offset int
}

func (a *VariableAttributes) AttrName() string { return a.Name }
func (*VariableAttributes) isAttr()            {}

// FunctionAttributes describes a function. Params points at the parameter
// list subtree owned by the defining FunctionDefinition; for built-ins it is
// an empty list.
type FunctionAttributes struct {
	Name       string
	ReturnType types.Type
	Params     *ParameterList
	// Variadic marks built-ins that accept any argument count.
	Variadic bool
}

func (a *FunctionAttributes) AttrName() string { return a.Name }
func (*FunctionAttributes) isAttr()            {}
