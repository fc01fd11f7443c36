// Package parser turns AQL query text into a query.Query.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wbrown/janus-aql/aql"
	"github.com/wbrown/janus-aql/aql/lexer"
	"github.com/wbrown/janus-aql/aql/query"
)

// ParseError reports a syntax error at a source position.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

var keywords = map[string]bool{
	"FOR": true, "IN": true, "LET": true, "FILTER": true, "SORT": true,
	"LIMIT": true, "RETURN": true, "ASC": true, "DESC": true, "AND": true,
	"OR": true, "NOT": true, "TRUE": true, "FALSE": true, "NULL": true,
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

// ParseQuery parses a complete query.
func ParseQuery(input string) (*query.Query, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			return nil, &ParseError{Line: lexErr.Line, Col: lexErr.Col, Msg: lexErr.Msg}
		}
		return nil, err
	}

	p := &parser{tokens: tokens}
	q := &query.Query{}
	for !p.at(lexer.TokenEOF) {
		c, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		q.Clauses = append(q.Clauses, c)
	}
	if len(q.Clauses) == 0 {
		return nil, p.errorf("empty query")
	}
	return q, nil
}

// ParseExpr parses a standalone expression.
func ParseExpr(input string) (query.Expr, error) {
	tokens, err := lexer.Tokenize(input)
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			return nil, &ParseError{Line: lexErr.Line, Col: lexErr.Col, Msg: lexErr.Msg}
		}
		return nil, err
	}
	p := &parser{tokens: tokens}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.TokenEOF) {
		return nil, p.errorf("unexpected %s after expression", p.describe())
	}
	return e, nil
}

func (p *parser) parseClause() (query.Clause, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return nil, p.errorf("expected clause keyword, got %s", p.describe())
	}

	switch strings.ToUpper(tok.Value) {
	case "FOR":
		p.next()
		variable, err := p.expectName("loop variable")
		if err != nil {
			return nil, err
		}
		if !p.acceptKeyword("IN") {
			return nil, p.errorf("expected IN, got %s", p.describe())
		}
		collection, err := p.expectName("collection name")
		if err != nil {
			return nil, err
		}
		return &query.ForClause{Variable: variable, Collection: collection}, nil

	case "LET":
		p.next()
		variable, err := p.expectName("variable name")
		if err != nil {
			return nil, err
		}
		if !p.accept(lexer.TokenAssign) {
			return nil, p.errorf("expected '=', got %s", p.describe())
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &query.LetClause{Variable: variable, Expr: e}, nil

	case "FILTER":
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &query.FilterClause{Condition: e}, nil

	case "SORT":
		p.next()
		sc := &query.SortClause{}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			key := query.SortKey{Expr: e}
			if p.acceptKeyword("DESC") {
				key.Descending = true
			} else {
				p.acceptKeyword("ASC")
			}
			sc.Keys = append(sc.Keys, key)
			if !p.accept(lexer.TokenComma) {
				break
			}
		}
		return sc, nil

	case "LIMIT":
		p.next()
		first, err := p.expectCount()
		if err != nil {
			return nil, err
		}
		if !p.accept(lexer.TokenComma) {
			return &query.LimitClause{Count: first}, nil
		}
		second, err := p.expectCount()
		if err != nil {
			return nil, err
		}
		return &query.LimitClause{Offset: first, Count: second}, nil

	case "RETURN":
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &query.ReturnClause{Expr: e}, nil
	}

	return nil, p.errorf("unknown clause %q", tok.Value)
}

// Expression grammar, lowest precedence first:
//
//	or         := and (("||" | OR) and)*
//	and        := unary (("&&" | AND) unary)*
//	unary      := ("!" | NOT) unary | comparison
//	comparison := postfix [op postfix]
//	postfix    := primary ("." name)*
func (p *parser) parseExpr() (query.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.accept(lexer.TokenOr) || p.acceptKeyword("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &query.Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (query.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.accept(lexer.TokenAnd) || p.acceptKeyword("AND") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &query.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (query.Expr, error) {
	if p.accept(lexer.TokenNot) || p.acceptKeyword("NOT") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &query.Not{Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (query.Expr, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	var op query.CompareOp
	switch {
	case p.accept(lexer.TokenEq):
		op = query.OpEq
	case p.accept(lexer.TokenNe):
		op = query.OpNe
	case p.accept(lexer.TokenLt):
		op = query.OpLt
	case p.accept(lexer.TokenLe):
		op = query.OpLe
	case p.accept(lexer.TokenGt):
		op = query.OpGt
	case p.accept(lexer.TokenGe):
		op = query.OpGe
	case p.acceptKeyword("IN"):
		op = query.OpIn
	default:
		return left, nil
	}

	right, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	return &query.Comparison{Op: op, Left: left, Right: right}, nil
}

func (p *parser) parsePostfix() (query.Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var path aql.Path
	for p.accept(lexer.TokenDot) {
		name, err := p.expectName("attribute name")
		if err != nil {
			return nil, err
		}
		path = append(path, name)
	}
	if len(path) == 0 {
		return base, nil
	}
	return &query.AttributeAccess{Base: base, Path: path}, nil
}

func (p *parser) parsePrimary() (query.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNumber:
		p.next()
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, p.errorAt(tok, "invalid number %q", tok.Value)
		}
		return query.Lit(aql.Number(f)), nil

	case lexer.TokenString:
		p.next()
		return query.Lit(aql.String(tok.Value)), nil

	case lexer.TokenBindParam:
		p.next()
		return query.Param(tok.Value), nil

	case lexer.TokenLeftParen:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.accept(lexer.TokenRightParen) {
			return nil, p.errorf("expected ')', got %s", p.describe())
		}
		return e, nil

	case lexer.TokenLeftBracket:
		p.next()
		arr := &query.ArrayLiteral{}
		if p.accept(lexer.TokenRightBracket) {
			return arr, nil
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			arr.Elements = append(arr.Elements, e)
			if p.accept(lexer.TokenRightBracket) {
				return arr, nil
			}
			if !p.accept(lexer.TokenComma) {
				return nil, p.errorf("expected ',' or ']', got %s", p.describe())
			}
		}

	case lexer.TokenLeftBrace:
		p.next()
		return p.parseObject()

	case lexer.TokenIdent:
		switch strings.ToUpper(tok.Value) {
		case "TRUE":
			p.next()
			return query.Lit(aql.Bool(true)), nil
		case "FALSE":
			p.next()
			return query.Lit(aql.Bool(false)), nil
		case "NULL":
			p.next()
			return query.Lit(aql.Null()), nil
		}
		if p.peekAt(1).Type == lexer.TokenLeftParen {
			return p.parseCall()
		}
		if keywords[strings.ToUpper(tok.Value)] {
			return nil, p.errorAt(tok, "unexpected keyword %s", strings.ToUpper(tok.Value))
		}
		p.next()
		return query.Var(tok.Value), nil
	}

	return nil, p.errorf("unexpected %s", p.describe())
}

func (p *parser) parseCall() (query.Expr, error) {
	name := p.next().Value
	p.next() // (
	call := &query.FunctionCall{Name: strings.ToUpper(name)}
	if p.accept(lexer.TokenRightParen) {
		return call, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if p.accept(lexer.TokenRightParen) {
			return call, nil
		}
		if !p.accept(lexer.TokenComma) {
			return nil, p.errorf("expected ',' or ')', got %s", p.describe())
		}
	}
}

func (p *parser) parseObject() (query.Expr, error) {
	obj := &query.ObjectLiteral{}
	if p.accept(lexer.TokenRightBrace) {
		return obj, nil
	}
	for {
		tok := p.next()
		if tok.Type != lexer.TokenIdent && tok.Type != lexer.TokenString {
			return nil, p.errorAt(tok, "expected object key, got %s", tok.Type)
		}
		if !p.accept(lexer.TokenColon) {
			return nil, p.errorf("expected ':', got %s", p.describe())
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, query.ObjectField{Key: tok.Value, Value: val})
		if p.accept(lexer.TokenRightBrace) {
			return obj, nil
		}
		if !p.accept(lexer.TokenComma) {
			return nil, p.errorf("expected ',' or '}', got %s", p.describe())
		}
	}
}

func (p *parser) expectName(what string) (string, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenIdent {
		return "", p.errorf("expected %s, got %s", what, p.describe())
	}
	p.next()
	return tok.Value, nil
}

func (p *parser) expectCount() (int, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenNumber {
		return 0, p.errorf("expected non-negative integer, got %s", p.describe())
	}
	n, err := strconv.Atoi(tok.Value)
	if err != nil || n < 0 {
		return 0, p.errorAt(tok, "expected non-negative integer, got %s", tok.Value)
	}
	p.next()
	return n, nil
}

func (p *parser) peek() lexer.Token {
	return p.peekAt(0)
}

func (p *parser) peekAt(offset int) lexer.Token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) at(typ lexer.TokenType) bool {
	return p.peek().Type == typ
}

func (p *parser) accept(typ lexer.TokenType) bool {
	if p.at(typ) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeyword(kw string) bool {
	tok := p.peek()
	if tok.Type == lexer.TokenIdent && strings.EqualFold(tok.Value, kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) describe() string {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenEOF:
		return "end of input"
	case lexer.TokenIdent, lexer.TokenNumber:
		return fmt.Sprintf("%q", tok.Value)
	case lexer.TokenString:
		return "string " + strconv.Quote(tok.Value)
	case lexer.TokenBindParam:
		return "@" + tok.Value
	}
	return fmt.Sprintf("'%s'", tok.Type)
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return p.errorAt(p.peek(), format, args...)
}

func (p *parser) errorAt(tok lexer.Token, format string, args ...interface{}) error {
	return &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}
