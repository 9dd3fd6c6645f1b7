// Package parser builds an ast.Section from section source text.
package parser

import (
	"fmt"

	"github.com/contisim/contisim/internal/ast"
	"github.com/contisim/contisim/internal/lexer"
)

// ParseError is a syntax error tied to a source position.
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %d:%d", e.Message, e.Line, e.Column)
}

// Parser produces statements from a token stream.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// NewParser creates a parser over tokens.
func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	tok := p.current()
	if tok.Type != tt {
		return tok, &ParseError{Message: fmt.Sprintf("expected %s, got %s", tt, tok.Type), Line: tok.Line, Column: tok.Column}
	}
	return p.advance(), nil
}

func pos(tok lexer.Token) ast.Position { return ast.Position{Line: tok.Line, Column: tok.Column} }

// ParseSection parses `NAME [sort] { stmt... }` into an ast.Section. The
// leading section-name keyword and the optional `sort` modifier are
// consumed and returned separately so the caller (model.Builder) can fold
// them into Section metadata flags.
func ParseSection(source string) (name string, sortForced bool, section *ast.Section, err error) {
	tokens, lexErr := lexer.Tokenize(source)
	if lexErr != nil {
		return "", false, nil, lexErr
	}
	p := NewParser(tokens)

	nameTok := p.current()
	switch nameTok.Type {
	case lexer.KW_INITIAL, lexer.KW_DYNAMIC, lexer.KW_DERIVATIVE, lexer.KW_DISCRETE, lexer.KW_TERMINAL:
		name = nameTok.Value
		p.advance()
	default:
		return "", false, nil, &ParseError{Message: fmt.Sprintf("expected section name, got %s", nameTok.Type), Line: nameTok.Line, Column: nameTok.Column}
	}

	if p.current().Type == lexer.KW_SORT {
		sortForced = true
		p.advance()
	}

	if _, err := p.expect(lexer.LBRACE); err != nil {
		return "", false, nil, err
	}

	stmts, err := p.parseStmtList(lexer.RBRACE)
	if err != nil {
		return "", false, nil, err
	}

	if _, err := p.expect(lexer.RBRACE); err != nil {
		return "", false, nil, err
	}
	if p.current().Type != lexer.EOF {
		tok := p.current()
		return "", false, nil, &ParseError{Message: fmt.Sprintf("unexpected trailing token %s", tok.Type), Line: tok.Line, Column: tok.Column}
	}

	return name, sortForced, &ast.Section{Name: name, Stmts: stmts}, nil
}

// parseStmtList parses statements until the `end` token type is seen
// (without consuming it).
func (p *Parser) parseStmtList(end lexer.TokenType) ([]ast.Node, error) {
	var stmts []ast.Node
	for p.current().Type != end && p.current().Type != lexer.EOF {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (ast.Node, error) {
	tok := p.current()

	if tok.Type == lexer.KW_PROCEDURAL {
		return p.parseProceduralDef()
	}
	if tok.Type == lexer.KW_RETURN {
		return p.parseReturn()
	}

	if tok.Type == lexer.IDENT && p.peek(1).Type == lexer.ASSIGN {
		return p.parseAssignment(false, "")
	}
	if tok.Type == lexer.IDENT && p.peek(1).Type == lexer.COLON {
		return p.parseAnnotatedAssignment()
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr, At: pos(tok)}, nil
}

func (p *Parser) parseAssignment(annotated bool, typeName string) (*ast.Assignment, error) {
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Name: nameTok.Value, Annotated: annotated, TypeName: typeName, Value: value, At: pos(nameTok)}, nil
}

func (p *Parser) parseAnnotatedAssignment() (*ast.Assignment, error) {
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	typeTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Assignment{Name: nameTok.Value, Annotated: true, TypeName: typeTok.Value, Value: value, At: pos(nameTok)}, nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	tok, err := p.expect(lexer.KW_RETURN)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Name: nameTok.Value, At: pos(tok)}, nil
}

func (p *Parser) parseProceduralDef() (*ast.ProceduralDef, error) {
	kwTok, err := p.expect(lexer.KW_PROCEDURAL)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for p.current().Type != lexer.RPAREN {
		paramTok, err := p.expect(lexer.IDENT)
		if err != nil {
			return nil, err
		}
		params = append(params, paramTok.Value)
		if p.current().Type == lexer.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseStmtList(lexer.RBRACE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return &ast.ProceduralDef{Name: nameTok.Value, Params: params, Body: body, At: pos(kwTok)}, nil
}

// parseExpression parses the lowest-precedence level (comparisons).
func (p *Parser) parseExpression() (ast.Node, error) {
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.current().Type
		if tt != lexer.GT && tt != lexer.LT && tt != lexer.GE && tt != lexer.LE && tt != lexer.EQ && tt != lexer.NE {
			break
		}
		opTok := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Operator: opTok.Value, Left: left, Right: right, At: pos(opTok)}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.current().Type == lexer.PLUS || p.current().Type == lexer.MINUS {
		opTok := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Operator: opTok.Value, Left: left, Right: right, At: pos(opTok)}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	left, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	for {
		tt := p.current().Type
		if tt != lexer.STAR && tt != lexer.SLASH && tt != lexer.PERCENT {
			break
		}
		opTok := p.advance()
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Operator: opTok.Value, Left: left, Right: right, At: pos(opTok)}
	}
	return left, nil
}

func (p *Parser) parseExponent() (ast.Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.current().Type == lexer.CARET {
		opTok := p.advance()
		right, err := p.parseExponent() // right-associative
		if err != nil {
			return nil, err
		}
		return &ast.BinaryOp{Operator: opTok.Value, Left: left, Right: right, At: pos(opTok)}, nil
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Node, error) {
	if tok := p.current(); tok.Type == lexer.MINUS || tok.Type == lexer.PLUS {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Operator: tok.Value, Operand: operand, At: pos(tok)}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Node, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.current().Type == lexer.LBRACKET {
		tok := p.advance()
		idx, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		node = &ast.IndexExpr{Object: node, Index: idx, At: pos(tok)}
	}
	return node, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.current()

	switch tok.Type {
	case lexer.NUMBER:
		p.advance()
		return &ast.NumberLiteral{Value: tok.Value, At: pos(tok)}, nil
	case lexer.BOOLEAN:
		p.advance()
		return &ast.BoolLiteral{Value: tok.Value == "true", At: pos(tok)}, nil
	case lexer.STRING:
		p.advance()
		return &ast.Identifier{Name: tok.Value, At: pos(tok)}, nil
	case lexer.IDENT:
		if p.peek(1).Type == lexer.LPAREN {
			return p.parseCall()
		}
		p.advance()
		return &ast.Identifier{Name: tok.Value, At: pos(tok)}, nil
	case lexer.LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.LBRACKET:
		return p.parseList()
	}

	return nil, &ParseError{Message: fmt.Sprintf("unexpected token %s", tok.Type), Line: tok.Line, Column: tok.Column}
}

func (p *Parser) parseCall() (ast.Node, error) {
	calleeTok, err := p.expect(lexer.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Node
	for p.current().Type != lexer.RPAREN {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.current().Type == lexer.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &ast.CallExpr{Callee: calleeTok.Value, Args: args, At: pos(calleeTok)}, nil
}

func (p *Parser) parseList() (ast.Node, error) {
	openTok, err := p.expect(lexer.LBRACKET)
	if err != nil {
		return nil, err
	}
	var elems []ast.Node
	for p.current().Type != lexer.RBRACKET {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if p.current().Type == lexer.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ListLiteral{Elements: elems, At: pos(openTok)}, nil
}
