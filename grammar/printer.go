package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

func indent(level int) string {
	return strings.Repeat("    ", level)
}

func (p *Program) String() string {
	var b strings.Builder
	for _, d := range p.Decls {
		b.WriteString(d.StringWithIndent(0))
	}
	return b.String()
}

func (d *ExternalDecl) StringWithIndent(level int) string {
	if d.Function != nil {
		return d.Function.StringWithIndent(level)
	}
	if d.Declaration != nil {
		return indent(level) + d.Declaration.String() + "\n"
	}
	return ""
}

func (f *Function) StringWithIndent(level int) string {
	var b strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type + " " + p.Name
	}
	b.WriteString(fmt.Sprintf("%s%s %s(%s) ", indent(level), f.Return, f.Name, strings.Join(params, ", ")))
	b.WriteString(f.Body.StringWithIndent(level))
	b.WriteString("\n")
	return b.String()
}

func (d *Declaration) String() string {
	if d.Init != nil {
		return fmt.Sprintf("%s %s = %s;", d.Type, d.Name, d.Init)
	}
	return fmt.Sprintf("%s %s;", d.Type, d.Name)
}

func (c *CompoundStmt) StringWithIndent(level int) string {
	var b strings.Builder
	b.WriteString("{\n")
	for _, d := range c.Decls {
		b.WriteString(indent(level+1) + d.String() + "\n")
	}
	for _, s := range c.Stmts {
		b.WriteString(s.StringWithIndent(level + 1))
	}
	b.WriteString(indent(level) + "}")
	return b.String()
}

func (s *Statement) StringWithIndent(level int) string {
	switch {
	case s.Compound != nil:
		return indent(level) + s.Compound.StringWithIndent(level) + "\n"
	case s.If != nil:
		out := fmt.Sprintf("%sif (%s)\n%s", indent(level), s.If.Cond, s.If.Then.StringWithIndent(level+1))
		if s.If.Else != nil {
			out += indent(level) + "else\n" + s.If.Else.StringWithIndent(level+1)
		}
		return out
	case s.While != nil:
		return fmt.Sprintf("%swhile (%s)\n%s", indent(level), s.While.Cond, s.While.Body.StringWithIndent(level+1))
	case s.For != nil:
		return fmt.Sprintf("%sfor (%s; %s; %s)\n%s", indent(level),
			s.For.Init, s.For.Cond, s.For.Step, s.For.Body.StringWithIndent(level+1))
	case s.Return != nil:
		if s.Return.Value != nil {
			return fmt.Sprintf("%sreturn %s;\n", indent(level), s.Return.Value)
		}
		return indent(level) + "return;\n"
	case s.Assign != nil:
		return fmt.Sprintf("%s%s = %s;\n", indent(level), s.Assign.Target, s.Assign.Value)
	case s.Expr != nil:
		return fmt.Sprintf("%s%s;\n", indent(level), s.Expr.X)
	case s.Empty:
		return indent(level) + ";\n"
	}
	return ""
}

func (c *ForClause) String() string {
	if c == nil {
		return ""
	}
	if c.Target != nil {
		return fmt.Sprintf("%s = %s", *c.Target, c.Value)
	}
	return c.Value.String()
}

func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	out := e.Left.String()
	for _, t := range e.Rest {
		out += " " + t.Op + " " + t.Right.String()
	}
	return out
}

func (r *Relational) String() string {
	out := r.Left.String()
	for _, t := range r.Rest {
		out += " " + t.Op + " " + t.Right.String()
	}
	return out
}

func (s *Shift) String() string {
	out := s.Left.String()
	for _, t := range s.Rest {
		out += " " + t.Op + " " + t.Right.String()
	}
	return out
}

func (a *Additive) String() string {
	out := a.Left.String()
	for _, t := range a.Rest {
		out += " " + t.Op + " " + t.Right.String()
	}
	return out
}

func (m *Multiplicative) String() string {
	out := m.Left.String()
	for _, t := range m.Rest {
		out += " " + t.Op + " " + t.Right.String()
	}
	return out
}

func (u *Unary) String() string {
	if u.Op != nil {
		return *u.Op + u.Primary.String()
	}
	return u.Primary.String()
}

func (p *Primary) String() string {
	switch {
	case p.Float != nil:
		s := strconv.FormatFloat(*p.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case p.Int != nil:
		return strconv.FormatInt(*p.Int, 10)
	case p.Char != nil:
		return *p.Char
	case p.String != nil:
		return *p.String
	case p.Call != nil:
		args := make([]string, len(p.Call.Args))
		for i, a := range p.Call.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s(%s)", p.Call.Name, strings.Join(args, ", "))
	case p.Ref != nil:
		return *p.Ref
	case p.Paren != nil:
		return "(" + p.Paren.String() + ")"
	}
	return ""
}
