package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"sara/internal/ast"
	"sara/internal/errors"
	"sara/internal/types"
)

// Parser builds an AST from a token stream. Recovery is panic-mode: an
// unexpected token reports E0001, then input is skipped to the next ';' or
// '{' and parsing resumes with the following construct.
type Parser struct {
	tokens  []Token
	current int
	bag     *errors.Bag
}

// bailout unwinds the current production during panic-mode recovery.
type bailout struct{}

func NewParser(tokens []Token, bag *errors.Bag) *Parser {
	return &Parser{tokens: tokens, bag: bag}
}

// ParseTranslationUnit parses one or more external declarations.
func (p *Parser) ParseTranslationUnit() *ast.TranslationUnit {
	unit := &ast.TranslationUnit{}
	for !p.isAtEnd() {
		before := p.current
		if decl := p.parseExternalDeclaration(); decl != nil {
			unit.Units = append(unit.Units, decl)
		}
		// Recovery can halt at a '{' that nothing consumes at this level.
		if p.current == before {
			p.advance()
		}
	}
	return unit
}

func (p *Parser) parseExternalDeclaration() (node ast.Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			node = nil
		}
	}()

	declType, ok := p.parseTypeSpecifier(true)
	if !ok {
		p.unexpected("expected a type specifier")
	}
	name := p.consume(IDENTIFIER, "expected an identifier")
	ident := &ast.Identifier{Pos: name.Position, Name: name.Lexeme, Type: declType}

	if p.check(LEFT_PAREN) {
		return p.parseFunctionDefinition(declType, ident)
	}
	if declType == types.VoidType {
		p.errorAt(name, "'void' is only valid as a function return type")
	}
	return p.parseDeclarationTail(declType, ident)
}

func (p *Parser) parseFunctionDefinition(ret types.Type, name *ast.Identifier) ast.Node {
	params := p.parseParameters()
	body := p.parseCompound()
	return &ast.FunctionDefinition{
		Pos:        name.Pos,
		Name:       name,
		ReturnType: ret,
		Params:     params,
		Body:       body,
	}
}

func (p *Parser) parseParameters() *ast.ParameterList {
	open := p.consume(LEFT_PAREN, "expected '('")
	list := &ast.ParameterList{Pos: open.Position}
	if p.check(RIGHT_PAREN) {
		p.advance()
		return list
	}
	for {
		paramType, ok := p.parseTypeSpecifier(false)
		if !ok {
			p.unexpected("expected a parameter type")
		}
		name := p.consume(IDENTIFIER, "expected a parameter name")
		ident := &ast.Identifier{Pos: name.Position, Name: name.Lexeme, Type: paramType}
		list.Params = append(list.Params, &ast.Declaration{
			Pos:  name.Position,
			Type: paramType,
			Name: ident,
		})
		if !p.match(COMMA) {
			break
		}
	}
	p.consume(RIGHT_PAREN, "expected ')' after parameters")
	return list
}

// parseDeclarationTail finishes `type IDENT` with `;` or `= expression ;`.
func (p *Parser) parseDeclarationTail(declType types.Type, ident *ast.Identifier) *ast.Declaration {
	decl := &ast.Declaration{Pos: ident.Pos, Type: declType, Name: ident}
	if p.match(EQUAL) {
		decl.Init = p.parseExpression()
	}
	p.consume(SEMICOLON, "expected ';' after declaration")
	return decl
}

func (p *Parser) parseCompound() *ast.CompoundStatement {
	open := p.consume(LEFT_BRACE, "expected '{'")
	compound := &ast.CompoundStatement{
		Pos:   open.Position,
		Decls: &ast.DeclarationList{},
		Stmts: &ast.StatementList{},
	}

	// Declarations precede statements within a block.
	for p.checkTypeSpecifier() {
		if decl := p.parseLocalDeclaration(); decl != nil {
			compound.Decls.Decls = append(compound.Decls.Decls, decl)
		}
	}
	for !p.check(RIGHT_BRACE) && !p.isAtEnd() {
		if stmt := p.parseStatementRecovering(); stmt != nil {
			compound.Stmts.Stmts = append(compound.Stmts.Stmts, stmt)
		}
	}
	p.consume(RIGHT_BRACE, "expected '}'")
	return compound
}

func (p *Parser) parseLocalDeclaration() (decl *ast.Declaration) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			decl = nil
		}
	}()

	declType, _ := p.parseTypeSpecifier(false)
	name := p.consume(IDENTIFIER, "expected an identifier")
	ident := &ast.Identifier{Pos: name.Position, Name: name.Lexeme, Type: declType}
	return p.parseDeclarationTail(declType, ident)
}

func (p *Parser) parseStatementRecovering() (stmt ast.Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()
	return p.parseStatement()
}

func (p *Parser) parseStatement() ast.Node {
	switch p.peek().Type {
	case LEFT_BRACE:
		return p.parseCompound()
	case IF:
		return p.parseIf()
	case WHILE:
		return p.parseWhile()
	case FOR:
		return p.parseFor()
	case RETURN:
		return p.parseReturn()
	case SEMICOLON:
		// Empty statement.
		p.advance()
		return nil
	case IDENTIFIER:
		if p.peekNext().Type == EQUAL {
			return p.parseAssignment()
		}
	}
	expr := p.parseExpression()
	pos := expr.NodePos()
	p.consume(SEMICOLON, "expected ';' after expression")
	return &ast.ExpressionStatement{Pos: pos, X: expr}
}

func (p *Parser) parseIf() ast.Node {
	kw := p.advance()
	p.consume(LEFT_PAREN, "expected '(' after 'if'")
	cond := p.parseExpression()
	p.consume(RIGHT_PAREN, "expected ')' after condition")
	then := p.parseStatement()
	stmt := &ast.If{Pos: kw.Position, Cond: cond, Then: then}
	if p.match(ELSE) {
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhile() ast.Node {
	kw := p.advance()
	p.consume(LEFT_PAREN, "expected '(' after 'while'")
	cond := p.parseExpression()
	p.consume(RIGHT_PAREN, "expected ')' after condition")
	body := p.parseStatement()
	return &ast.While{Pos: kw.Position, Cond: cond, Body: body}
}

func (p *Parser) parseFor() ast.Node {
	kw := p.advance()
	p.consume(LEFT_PAREN, "expected '(' after 'for'")
	stmt := &ast.For{Pos: kw.Position}
	if !p.check(SEMICOLON) {
		stmt.Init = p.parseForClause()
	}
	p.consume(SEMICOLON, "expected ';' after loop initializer")
	if !p.check(SEMICOLON) {
		stmt.Cond = p.parseExpression()
	}
	p.consume(SEMICOLON, "expected ';' after loop condition")
	if !p.check(RIGHT_PAREN) {
		stmt.Step = p.parseForClause()
	}
	p.consume(RIGHT_PAREN, "expected ')' after 'for' clauses")
	stmt.Body = p.parseStatement()
	return stmt
}

// parseForClause accepts the assignment form `IDENT = expression` or a bare
// expression; the terminating ';' or ')' belongs to the caller.
func (p *Parser) parseForClause() ast.Node {
	if p.check(IDENTIFIER) && p.peekNext().Type == EQUAL {
		name := p.advance()
		target := &ast.Identifier{Pos: name.Position, Name: name.Lexeme}
		p.consume(EQUAL, "expected '='")
		value := p.parseExpression()
		return &ast.Assignment{Pos: name.Position, Target: target, Value: value}
	}
	expr := p.parseExpression()
	return &ast.ExpressionStatement{Pos: expr.NodePos(), X: expr}
}

func (p *Parser) parseReturn() ast.Node {
	kw := p.advance()
	stmt := &ast.Return{Pos: kw.Position}
	if !p.check(SEMICOLON) {
		stmt.Value = p.parseExpression()
	}
	p.consume(SEMICOLON, "expected ';' after return")
	return stmt
}

func (p *Parser) parseAssignment() ast.Node {
	name := p.advance()
	target := &ast.Identifier{Pos: name.Position, Name: name.Lexeme}
	p.consume(EQUAL, "expected '='")
	value := p.parseExpression()
	p.consume(SEMICOLON, "expected ';' after assignment")
	return &ast.Assignment{Pos: name.Position, Target: target, Value: value}
}

// Expressions

// Precedence, weakest to strongest; all binary operators associate left.
var binaryPrecedence = map[TokenType]int{
	EQUAL_EQUAL: 1, BANG_EQUAL: 1,
	LESS: 2, LESS_EQUAL: 2, GREATER: 2, GREATER_EQUAL: 2,
	SHIFT_LEFT: 3, SHIFT_RIGHT: 3,
	PLUS: 4, MINUS: 4,
	STAR: 5, SLASH: 5,
}

func (p *Parser) parseExpression() ast.Expr {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	expr := p.parsePrefix()
	for {
		tok := p.peek()
		prec, ok := binaryPrecedence[tok.Type]
		if !ok || prec < minPrec {
			return expr
		}
		p.advance()
		right := p.parseBinary(prec + 1)
		expr = &ast.BinaryOperator{
			Pos:   tok.Position,
			Op:    tok.Lexeme,
			Left:  expr,
			Right: right,
		}
	}
}

func (p *Parser) parsePrefix() ast.Expr {
	if p.check(BANG) || p.check(MINUS) || p.check(PLUS) {
		op := p.advance()
		operand := p.parsePrefix()
		return &ast.UnaryOperator{Pos: op.Position, Op: op.Lexeme, Operand: operand}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	switch p.peek().Type {
	case NUMBER:
		return p.parseNumber()
	case CHARACTER_LITERAL:
		tok := p.advance()
		r, _ := utf8.DecodeRuneInString(tok.Value)
		return &ast.Constant{Pos: tok.Position, Type: types.CharType, Int: int64(r)}
	case STRING_LITERAL:
		tok := p.advance()
		return &ast.Constant{Pos: tok.Position, Type: types.StringType, Str: tok.Value}
	case LEFT_PAREN:
		p.advance()
		expr := p.parseExpression()
		p.consume(RIGHT_PAREN, "expected ')'")
		return expr
	case IDENTIFIER:
		tok := p.advance()
		if p.check(LEFT_PAREN) {
			return p.parseCall(tok)
		}
		return &ast.Reference{Pos: tok.Position, Name: tok.Lexeme}
	}
	p.unexpected("expected an expression")
	return nil
}

func (p *Parser) parseNumber() ast.Expr {
	tok := p.advance()
	if strings.Contains(tok.Lexeme, ".") {
		value, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("invalid float literal %q", tok.Lexeme))
		}
		return &ast.Constant{Pos: tok.Position, Type: types.FloatType, Float: value}
	}
	value, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		p.errorAt(tok, fmt.Sprintf("integer literal %q out of range", tok.Lexeme))
	}
	return &ast.Constant{Pos: tok.Position, Type: types.IntType, Int: value}
}

func (p *Parser) parseCall(name Token) ast.Expr {
	callee := &ast.Identifier{Pos: name.Position, Name: name.Lexeme}
	open := p.consume(LEFT_PAREN, "expected '('")
	args := &ast.ArgumentList{Pos: open.Position}
	if !p.check(RIGHT_PAREN) {
		for {
			args.Args = append(args.Args, p.parseExpression())
			if !p.match(COMMA) {
				break
			}
		}
	}
	p.consume(RIGHT_PAREN, "expected ')' after arguments")
	return &ast.FunctionCall{Pos: name.Position, Callee: callee, Args: args}
}

func (p *Parser) parseTypeSpecifier(allowVoid bool) (types.Type, bool) {
	switch p.peek().Type {
	case CHAR:
		p.advance()
		return types.CharType, true
	case INT:
		p.advance()
		return types.IntType, true
	case FLOAT:
		p.advance()
		return types.FloatType, true
	case STRING:
		p.advance()
		return types.StringType, true
	case VOID:
		if allowVoid {
			p.advance()
			return types.VoidType, true
		}
	}
	return types.Type{}, false
}

func (p *Parser) checkTypeSpecifier() bool {
	switch p.peek().Type {
	case CHAR, INT, FLOAT, STRING:
		return true
	}
	return false
}

// Token plumbing

func (p *Parser) peek() Token { return p.tokens[p.current] }

func (p *Parser) peekNext() Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() Token { return p.tokens[p.current-1] }

func (p *Parser) isAtEnd() bool { return p.peek().Type == EOF }

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t TokenType) bool { return p.peek().Type == t }

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t TokenType, message string) Token {
	if p.check(t) {
		return p.advance()
	}
	p.unexpected(message)
	return Token{}
}

func (p *Parser) unexpected(message string) {
	tok := p.peek()
	if tok.Type == EOF {
		p.bag.Add(errors.NewError(errors.ErrorSyntax,
			"unexpected end-of-file: "+message, tok.Position).Build())
	} else {
		p.bag.Add(errors.NewError(errors.ErrorSyntax,
			fmt.Sprintf("unexpected token %q: %s", tok.Lexeme, message), tok.Position).
			WithLength(len(tok.Lexeme)).Build())
	}
	panic(bailout{})
}

func (p *Parser) errorAt(tok Token, message string) {
	p.bag.Add(errors.NewError(errors.ErrorSyntax, message, tok.Position).
		WithLength(len(tok.Lexeme)).Build())
	panic(bailout{})
}

// synchronize discards tokens until just past a ';' or up to a '{', the
// recovery points. It always makes progress so a stuck token cannot loop.
func (p *Parser) synchronize() {
	if p.check(LEFT_BRACE) {
		return
	}
	for !p.isAtEnd() {
		p.advance()
		if p.previous().Type == SEMICOLON {
			return
		}
		if p.check(LEFT_BRACE) {
			return
		}
	}
}
