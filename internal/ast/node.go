package ast

import (
	"sara/internal/types"
)

func (tu *TranslationUnit) NodePos() Position { return Position{Line: 1, Column: 1} }
func (*TranslationUnit) NodeType() NodeType   { return TRANSLATION_UNIT }
func (tu *TranslationUnit) Children() []Node  { return tu.Units }

func (f *FunctionDefinition) NodePos() Position { return f.Pos }
func (*FunctionDefinition) NodeType() NodeType  { return FUNCTION_DEFINITION }
func (f *FunctionDefinition) Children() []Node {
	return []Node{f.Name, f.Params, f.Body}
}

func (pl *ParameterList) NodePos() Position { return pl.Pos }
func (*ParameterList) NodeType() NodeType   { return PARAMETER_LIST }
func (pl *ParameterList) Children() []Node {
	kids := make([]Node, len(pl.Params))
	for i, p := range pl.Params {
		kids[i] = p
	}
	return kids
}

func (d *Declaration) NodePos() Position { return d.Pos }
func (*Declaration) NodeType() NodeType  { return DECLARATION }
func (d *Declaration) Children() []Node {
	if d.Init != nil {
		return []Node{d.Name, d.Init}
	}
	return []Node{d.Name}
}

func (dl *DeclarationList) NodePos() Position {
	if len(dl.Decls) > 0 {
		return dl.Decls[0].Pos
	}
	return Position{}
}
func (*DeclarationList) NodeType() NodeType { return DECLARATION_LIST }
func (dl *DeclarationList) Children() []Node {
	kids := make([]Node, len(dl.Decls))
	for i, d := range dl.Decls {
		kids[i] = d
	}
	return kids
}

func (sl *StatementList) NodePos() Position {
	if len(sl.Stmts) > 0 {
		return sl.Stmts[0].NodePos()
	}
	return Position{}
}
func (*StatementList) NodeType() NodeType  { return STATEMENT_LIST }
func (sl *StatementList) Children() []Node { return sl.Stmts }

func (c *CompoundStatement) NodePos() Position { return c.Pos }
func (*CompoundStatement) NodeType() NodeType  { return COMPOUND_STATEMENT }
func (c *CompoundStatement) Children() []Node {
	return []Node{c.Decls, c.Stmts}
}

func (s *If) NodePos() Position { return s.Pos }
func (*If) NodeType() NodeType  { return IF_STATEMENT }
func (s *If) Children() []Node {
	kids := []Node{s.Cond, s.Then}
	if s.Else != nil {
		kids = append(kids, s.Else)
	}
	return kids
}

func (s *While) NodePos() Position { return s.Pos }
func (*While) NodeType() NodeType  { return WHILE_STATEMENT }
func (s *While) Children() []Node  { return []Node{s.Cond, s.Body} }

func (s *For) NodePos() Position { return s.Pos }
func (*For) NodeType() NodeType  { return FOR_STATEMENT }
func (s *For) Children() []Node {
	var kids []Node
	if s.Init != nil {
		kids = append(kids, s.Init)
	}
	if s.Cond != nil {
		kids = append(kids, s.Cond)
	}
	if s.Step != nil {
		kids = append(kids, s.Step)
	}
	kids = append(kids, s.Body)
	return kids
}

func (s *Assignment) NodePos() Position { return s.Pos }
func (*Assignment) NodeType() NodeType  { return ASSIGNMENT }
func (s *Assignment) Children() []Node  { return []Node{s.Target, s.Value} }

func (s *Return) NodePos() Position { return s.Pos }
func (*Return) NodeType() NodeType  { return RETURN_STATEMENT }
func (s *Return) Children() []Node {
	if s.Value != nil {
		return []Node{s.Value}
	}
	return nil
}

func (s *ExpressionStatement) NodePos() Position { return s.Pos }
func (*ExpressionStatement) NodeType() NodeType  { return EXPRESSION_STATEMENT }
func (s *ExpressionStatement) Children() []Node  { return []Node{s.X} }

func (e *BinaryOperator) NodePos() Position { return e.Pos }
func (*BinaryOperator) NodeType() NodeType  { return BINARY_OPERATOR }
func (e *BinaryOperator) Children() []Node  { return []Node{e.Left, e.Right} }

func (e *UnaryOperator) NodePos() Position { return e.Pos }
func (*UnaryOperator) NodeType() NodeType  { return UNARY_OPERATOR }
func (e *UnaryOperator) Children() []Node  { return []Node{e.Operand} }

func (e *FunctionCall) NodePos() Position { return e.Pos }
func (*FunctionCall) NodeType() NodeType  { return FUNCTION_CALL }
func (e *FunctionCall) Children() []Node  { return []Node{e.Callee, e.Args} }

func (al *ArgumentList) NodePos() Position { return al.Pos }
func (*ArgumentList) NodeType() NodeType   { return ARGUMENT_LIST }
func (al *ArgumentList) Children() []Node {
	kids := make([]Node, len(al.Args))
	for i, a := range al.Args {
		kids[i] = a
	}
	return kids
}

func (e *Constant) NodePos() Position { return e.Pos }
func (*Constant) NodeType() NodeType  { return CONSTANT }
func (e *Constant) Children() []Node  { return nil }

func (e *Reference) NodePos() Position { return e.Pos }
func (*Reference) NodeType() NodeType  { return REFERENCE }
func (e *Reference) Children() []Node  { return nil }

func (i *Identifier) NodePos() Position { return i.Pos }
func (*Identifier) NodeType() NodeType  { return IDENTIFIER }
func (i *Identifier) Children() []Node  { return nil }

// Expression marker methods and type slots.

func (*BinaryOperator) isExpr() {}
func (*UnaryOperator) isExpr()  {}
func (*FunctionCall) isExpr()   {}
func (*Constant) isExpr()       {}
func (*Reference) isExpr()      {}

func (e *BinaryOperator) ExprType() types.Type     { return e.Type }
func (e *BinaryOperator) SetExprType(t types.Type) { e.Type = t }
func (e *UnaryOperator) ExprType() types.Type      { return e.Type }
func (e *UnaryOperator) SetExprType(t types.Type)  { e.Type = t }
func (e *FunctionCall) ExprType() types.Type       { return e.Type }
func (e *FunctionCall) SetExprType(t types.Type)   { e.Type = t }
func (e *Constant) ExprType() types.Type           { return e.Type }
func (e *Constant) SetExprType(t types.Type)       { e.Type = t }
func (e *Reference) ExprType() types.Type          { return e.Type }
func (e *Reference) SetExprType(t types.Type)      { e.Type = t }
