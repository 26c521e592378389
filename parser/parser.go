package parser

import (
	"fmt"
	"strconv"

	"github.com/theory/jsonpath/ast"
)

// FunctionRegistry looks up function extensions by name for parse-time type
// checking of filter function calls. The registry package provides the
// standard implementation.
type FunctionRegistry interface {
	// Lookup returns the function registered under name, or nil if there is
	// none.
	Lookup(name string) *ast.Function
}

// maxSafeInt is the largest exact integer an RFC 9535 index or slice
// component may hold: 2^53 - 1 (I-JSON interoperable range).
const maxSafeInt = 1<<53 - 1

// parser holds the parse state: the token stream and the function registry
// used to type-check filter function calls.
type parser struct {
	s   *stream
	reg FunctionRegistry
}

// Parse parses path into an [ast.PathQuery], resolving filter function
// calls against reg. It returns a [*SyntaxError] on any grammar violation
// and a [*TypeError] when a function call site disagrees with the
// registered function's declared argument or return types. The first error
// aborts the parse; no partial AST is returned.
func Parse(path string, reg FunctionRegistry) (*ast.PathQuery, error) {
	// Blank space must not precede or follow the query (RFC 9535 §2.1).
	if len(path) > 0 && isBlankSpace(rune(path[0])) {
		return nil, &SyntaxError{Msg: "blank space disallowed at start of query"}
	}
	if len(path) > 0 && isBlankSpace(rune(path[len(path)-1])) {
		tok := Token{Start: len(path) - 1, End: len(path)}
		return nil, &SyntaxError{Msg: "blank space disallowed at end of query", Token: tok}
	}

	toks := lex(path)
	if tok := toks[len(toks)-1]; tok.Kind == Invalid {
		return nil, &SyntaxError{Msg: tok.Text, Token: tok}
	}

	p := &parser{s: newStream(toks), reg: reg}

	if _, err := p.s.expect(Root); err != nil {
		return nil, err
	}

	segments, err := p.parseSegments()
	if err != nil {
		return nil, err
	}

	if _, err := p.s.expect(EOF); err != nil {
		return nil, err
	}

	return ast.Query(true, segments...), nil
}

// parseSegments parses zero or more segments, stopping at the first token
// that cannot start a segment.
func (p *parser) parseSegments() ([]*ast.Segment, error) {
	var segments []*ast.Segment

	for {
		switch p.s.peek().Kind {
		case DotDot:
			seg, err := p.parseDescendantSegment()
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		case Dot:
			seg, err := p.parseDotSegment()
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
		case LeftBracket:
			p.s.next()
			selectors, err := p.parseBracketedSelectors()
			if err != nil {
				return nil, err
			}
			segments = append(segments, ast.Child(selectors...))
		default:
			return segments, nil
		}
	}
}

// parseDescendantSegment parses a descendant segment. The current token must
// be "..", which may be followed, without intervening blank space, by a
// bracketed selection, a wildcard, or a member name shorthand.
func (p *parser) parseDescendantSegment() (*ast.Segment, error) {
	dots := p.s.next()
	if err := p.requireAdjacent(dots, `blank space disallowed after ".."`); err != nil {
		return nil, err
	}

	switch tok := p.s.peek(); tok.Kind {
	case LeftBracket:
		p.s.next()
		selectors, err := p.parseBracketedSelectors()
		if err != nil {
			return nil, err
		}
		return ast.Descendant(selectors...), nil
	case Star:
		p.s.next()
		return ast.Descendant(ast.Wildcard()), nil
	case Ident, True, False, Null:
		p.s.next()
		return ast.Descendant(ast.Name(tok.Text)), nil
	default:
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf(`expected "[", "*", or name after ".." but found %v`, tok),
			Token: tok,
		}
	}
}

// parseDotSegment parses a child segment in shorthand notation. The current
// token must be ".", which may be followed, without intervening blank space,
// by a wildcard or a member name shorthand.
func (p *parser) parseDotSegment() (*ast.Segment, error) {
	dot := p.s.next()
	if err := p.requireAdjacent(dot, `blank space disallowed after "."`); err != nil {
		return nil, err
	}

	switch tok := p.s.peek(); tok.Kind {
	case Star:
		p.s.next()
		return ast.Child(ast.Wildcard()), nil
	case Ident, True, False, Null:
		p.s.next()
		return ast.Child(ast.Name(tok.Text)), nil
	default:
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf(`expected "*" or name after "." but found %v`, tok),
			Token: tok,
		}
	}
}

// requireAdjacent returns a syntax error with msg if any bytes separate tok
// from the following token.
func (p *parser) requireAdjacent(tok Token, msg string) error {
	if next := p.s.peek(); tok.End < next.Start {
		return &SyntaxError{Msg: msg, Token: next}
	}
	return nil
}

// parseBracketedSelectors parses a comma-separated selector list and its
// closing bracket. The opening bracket has already been consumed. The list
// must contain at least one selector, and a trailing comma is an error.
func (p *parser) parseBracketedSelectors() ([]ast.Selector, error) {
	if err := p.s.expectNot(RightBracket, "empty bracketed segment"); err != nil {
		return nil, err
	}

	var selectors []ast.Selector
	for {
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)

		if p.s.peek().Kind != Comma {
			break
		}
		p.s.next()
		if err := p.s.expectNot(RightBracket, `trailing comma before "]"`); err != nil {
			return nil, err
		}
	}

	if _, err := p.s.expect(RightBracket); err != nil {
		return nil, err
	}

	return selectors, nil
}

// parseSelector parses a single bracketed selector.
func (p *parser) parseSelector() (ast.Selector, error) {
	switch tok := p.s.peek(); tok.Kind {
	case Star:
		p.s.next()
		return ast.Wildcard(), nil
	case Question:
		p.s.next()
		expr, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}
		return ast.Filter(expr), nil
	case String:
		p.s.next()
		return ast.Name(tok.Text), nil
	case Integer:
		return p.parseIndexOrSlice()
	case Colon:
		p.s.next()
		return p.parseSliceTail(nil)
	default:
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf("expected selector but found %v", tok),
			Token: tok,
		}
	}
}

// parseIndexOrSlice parses an index selector or a slice selector that has an
// explicit start. The current token must be an integer.
func (p *parser) parseIndexOrSlice() (ast.Selector, error) {
	idx, err := p.parseIndex()
	if err != nil {
		return nil, err
	}

	if p.s.peek().Kind != Colon {
		return ast.Index(idx), nil
	}
	p.s.next()

	return p.parseSliceTail(&idx)
}

// parseSliceTail parses the end and step components of a slice selector.
// The first colon has already been consumed.
func (p *parser) parseSliceTail(start *int64) (ast.Selector, error) {
	var end, step *int64

	if p.s.peek().Kind == Integer {
		n, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		end = &n
	}

	if p.s.peek().Kind == Colon {
		p.s.next()
		if p.s.peek().Kind == Integer {
			n, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			step = &n
		}
	}

	return ast.Slice(start, end, step), nil
}

// parseIndex parses an integer token as an index or slice component,
// enforcing the I-JSON interoperable range and rejecting -0. The current
// token must be an integer.
func (p *parser) parseIndex() (int64, error) {
	tok := p.s.next()

	if tok.Text == "-0" {
		return 0, &SyntaxError{Msg: `invalid index "-0"`, Token: tok}
	}

	idx, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil || idx < -maxSafeInt || idx > maxSafeInt {
		return 0, &SyntaxError{
			Msg:   fmt.Sprintf("index %v out of range", tok.Text),
			Token: tok,
		}
	}

	return idx, nil
}

// parseLogicalOr parses logical-and expressions joined by ||.
func (p *parser) parseLogicalOr() (ast.LogicalOr, error) {
	var or ast.LogicalOr

	for {
		and, err := p.parseLogicalAnd()
		if err != nil {
			return nil, err
		}
		or = append(or, and)

		if p.s.peek().Kind != Or {
			return or, nil
		}
		p.s.next()
	}
}

// parseLogicalAnd parses basic expressions joined by &&.
func (p *parser) parseLogicalAnd() (ast.LogicalAnd, error) {
	var and ast.LogicalAnd

	for {
		expr, err := p.parseBasicExpr()
		if err != nil {
			return nil, err
		}
		and = append(and, expr)

		if p.s.peek().Kind != And {
			return and, nil
		}
		p.s.next()
	}
}

// parseBasicExpr parses a single term of a logical expression: a
// parenthesized expression, an existence test, a comparison, or a logical
// function call, any of which may be negated.
func (p *parser) parseBasicExpr() (ast.BasicExpr, error) {
	switch tok := p.s.peek(); tok.Kind {
	case Not:
		p.s.next()
		return p.parseNegated()
	case LeftParen:
		p.s.next()
		expr, err := p.parseParenTail()
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Expr: expr}, nil
	case Ident:
		return p.parseFuncOrComparison()
	case Current, Root:
		return p.parseQueryOrComparison()
	case String, Integer, Number, True, False, Null:
		return p.parseLiteralComparison()
	default:
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf("expected filter expression but found %v", tok),
			Token: tok,
		}
	}
}

// parseNegated parses the expression following a "!": a parenthesized
// expression, a logical function call, or an existence test.
func (p *parser) parseNegated() (ast.BasicExpr, error) {
	switch tok := p.s.peek(); tok.Kind {
	case LeftParen:
		p.s.next()
		expr, err := p.parseParenTail()
		if err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Expr: expr, Not: true}, nil
	case Ident:
		fe, err := p.parseFuncExpr()
		if err != nil {
			return nil, err
		}
		if fe.Fn.ReturnType == ast.FuncValue {
			return nil, &TypeError{
				Msg:   fmt.Sprintf("cannot negate function %v() returning %v", fe.Fn.Name, fe.Fn.ReturnType),
				Token: tok,
			}
		}
		fe.Not = true
		return fe, nil
	case Current, Root:
		query, err := p.parseFilterQuery()
		if err != nil {
			return nil, err
		}
		return &ast.ExistExpr{Query: query, Not: true}, nil
	default:
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf(`expected expression after "!" but found %v`, tok),
			Token: tok,
		}
	}
}

// parseParenTail parses a logical expression and its closing parenthesis.
// The opening parenthesis has already been consumed.
func (p *parser) parseParenTail() (ast.LogicalOr, error) {
	expr, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if _, err := p.s.expect(RightParen); err != nil {
		return nil, err
	}
	return expr, nil
}

// parseFuncOrComparison parses a function call used either as a logical
// expression or as the left side of a comparison.
func (p *parser) parseFuncOrComparison() (ast.BasicExpr, error) {
	nameTok := p.s.peek()
	fe, err := p.parseFuncExpr()
	if err != nil {
		return nil, err
	}

	if p.peekCompOp() == 0 {
		// A NodesType result converts to LogicalType (RFC 9535 §2.4.2).
		if fe.Fn.ReturnType == ast.FuncValue {
			return nil, &TypeError{
				Msg:   fmt.Sprintf("function %v() returning %v must be compared", fe.Fn.Name, fe.Fn.ReturnType),
				Token: nameTok,
			}
		}
		return fe, nil
	}

	if fe.Fn.ReturnType != ast.FuncValue {
		return nil, &TypeError{
			Msg:   fmt.Sprintf("cannot compare function %v() returning %v", fe.Fn.Name, fe.Fn.ReturnType),
			Token: nameTok,
		}
	}

	op := p.parseCompOp()
	right, err := p.parseCompValue()
	if err != nil {
		return nil, err
	}

	return &ast.CompExpr{Left: fe, Op: op, Right: right}, nil
}

// parseQueryOrComparison parses a filter query used either as an existence
// test or as the left side of a comparison.
func (p *parser) parseQueryOrComparison() (ast.BasicExpr, error) {
	tok := p.s.peek()
	query, err := p.parseFilterQuery()
	if err != nil {
		return nil, err
	}

	if p.peekCompOp() == 0 {
		return &ast.ExistExpr{Query: query}, nil
	}

	if !query.Singular() {
		return nil, &SyntaxError{
			Msg:   "non-singular query disallowed in comparison",
			Token: tok,
		}
	}

	op := p.parseCompOp()
	right, err := p.parseCompValue()
	if err != nil {
		return nil, err
	}

	return &ast.CompExpr{Left: query, Op: op, Right: right}, nil
}

// parseLiteralComparison parses a comparison whose left side is a literal.
func (p *parser) parseLiteralComparison() (ast.BasicExpr, error) {
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}

	if p.peekCompOp() == 0 {
		tok := p.s.peek()
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf("expected comparison operator but found %v", tok),
			Token: tok,
		}
	}

	op := p.parseCompOp()
	right, err := p.parseCompValue()
	if err != nil {
		return nil, err
	}

	return &ast.CompExpr{Left: lit, Op: op, Right: right}, nil
}

// parseFilterQuery parses a query rooted at @ or $ inside a filter
// expression. The current token must be @ or $.
func (p *parser) parseFilterQuery() (*ast.PathQuery, error) {
	root := p.s.next().Kind == Root

	segments, err := p.parseSegments()
	if err != nil {
		return nil, err
	}

	return ast.Query(root, segments...), nil
}

// parseCompValue parses a comparable value: a literal, a singular query, or
// a call to a function returning a value.
func (p *parser) parseCompValue() (ast.CompValue, error) {
	switch tok := p.s.peek(); tok.Kind {
	case Current, Root:
		query, err := p.parseFilterQuery()
		if err != nil {
			return nil, err
		}
		if !query.Singular() {
			return nil, &SyntaxError{
				Msg:   "non-singular query disallowed in comparison",
				Token: tok,
			}
		}
		return query, nil
	case Ident:
		fe, err := p.parseFuncExpr()
		if err != nil {
			return nil, err
		}
		if fe.Fn.ReturnType != ast.FuncValue {
			return nil, &TypeError{
				Msg:   fmt.Sprintf("cannot compare function %v() returning %v", fe.Fn.Name, fe.Fn.ReturnType),
				Token: tok,
			}
		}
		return fe, nil
	default:
		return p.parseLiteral()
	}
}

// parseLiteral parses a literal string, number, boolean, or null.
func (p *parser) parseLiteral() (*ast.LiteralArg, error) {
	switch tok := p.s.peek(); tok.Kind {
	case String:
		p.s.next()
		return ast.Literal(tok.Text), nil
	case Integer:
		p.s.next()
		num, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, &SyntaxError{
				Msg:   fmt.Sprintf("integer %v out of range", tok.Text),
				Token: tok,
			}
		}
		return ast.Literal(num), nil
	case Number:
		p.s.next()
		num, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &SyntaxError{
				Msg:   fmt.Sprintf("invalid number %v", tok.Text),
				Token: tok,
			}
		}
		return ast.Literal(num), nil
	case True:
		p.s.next()
		return ast.Literal(true), nil
	case False:
		p.s.next()
		return ast.Literal(false), nil
	case Null:
		p.s.next()
		return ast.Literal(nil), nil
	default:
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf("expected literal but found %v", tok),
			Token: tok,
		}
	}
}

// peekCompOp returns the comparison operator at the current token, or zero
// if the current token is not a comparison operator.
func (p *parser) peekCompOp() ast.CompOp {
	switch p.s.peek().Kind {
	case Equal:
		return ast.EqualTo
	case NotEqual:
		return ast.NotEqualTo
	case Less:
		return ast.LessThan
	case LessEqual:
		return ast.LessThanEqualTo
	case Greater:
		return ast.GreaterThan
	case GreaterEqual:
		return ast.GreaterThanEqualTo
	default:
		return 0
	}
}

// parseCompOp consumes and returns the comparison operator at the current
// token. The caller must have checked peekCompOp first.
func (p *parser) parseCompOp() ast.CompOp {
	op := p.peekCompOp()
	p.s.next()
	return op
}

// parseFuncExpr parses a function call, resolves the function from the
// registry, and validates the argument expressions against its declared
// types. The current token must be an identifier.
func (p *parser) parseFuncExpr() (*ast.FuncExpr, error) {
	nameTok := p.s.next()

	// The opening parenthesis must follow the name immediately.
	if err := p.requireAdjacent(nameTok, `blank space disallowed before "("`); err != nil {
		return nil, err
	}
	if _, err := p.s.expect(LeftParen); err != nil {
		return nil, err
	}

	var args []ast.FuncExprArg
	if p.s.peek().Kind != RightParen {
		for {
			arg, err := p.parseFuncArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.s.peek().Kind != Comma {
				break
			}
			p.s.next()
		}
	}

	if _, err := p.s.expect(RightParen); err != nil {
		return nil, err
	}

	fn := p.reg.Lookup(nameTok.Text)
	if fn == nil {
		return nil, &SyntaxError{
			Msg:   fmt.Sprintf("unknown function %v()", nameTok.Text),
			Token: nameTok,
		}
	}

	if err := validateFuncArgs(fn, args, nameTok); err != nil {
		return nil, err
	}

	return &ast.FuncExpr{Fn: fn, Args: args}, nil
}

// parseFuncArg parses a single function argument: a query, a nested
// function call, a parenthesized or negated logical expression, or a
// literal.
func (p *parser) parseFuncArg() (ast.FuncExprArg, error) {
	switch p.s.peek().Kind {
	case Current, Root:
		return p.parseFilterQuery()
	case Ident:
		return p.parseFuncExpr()
	case LeftParen, Not:
		return p.parseLogicalOr()
	default:
		return p.parseLiteral()
	}
}

// validateFuncArgs checks the number and types of args against the declared
// argument types of fn, per the RFC 9535 §2.4.3 well-typedness rules.
func validateFuncArgs(fn *ast.Function, args []ast.FuncExprArg, nameTok Token) error {
	if len(args) != len(fn.ArgTypes) {
		return &TypeError{
			Msg: fmt.Sprintf(
				"function %v() expects %v arguments but found %v",
				fn.Name, len(fn.ArgTypes), len(args),
			),
			Token: nameTok,
		}
	}

	for i, argType := range fn.ArgTypes {
		if !argConvertsTo(args[i], argType) {
			return &TypeError{
				Msg: fmt.Sprintf(
					"argument %v of function %v() is not convertible to %v",
					i+1, fn.Name, argType,
				),
				Token: nameTok,
			}
		}
	}

	return nil
}

// argConvertsTo reports whether arg is well-typed for a parameter declared
// as t.
func argConvertsTo(arg ast.FuncExprArg, t ast.FuncType) bool {
	switch t {
	case ast.FuncValue:
		switch arg := arg.(type) {
		case *ast.LiteralArg:
			return true
		case *ast.PathQuery:
			return arg.Singular()
		case *ast.FuncExpr:
			return arg.Fn.ReturnType == ast.FuncValue
		}
	case ast.FuncLogical:
		switch arg := arg.(type) {
		case *ast.PathQuery, ast.LogicalOr:
			return true
		case *ast.FuncExpr:
			// NodesType converts to LogicalType (RFC 9535 §2.4.2).
			return arg.Fn.ReturnType == ast.FuncLogical || arg.Fn.ReturnType == ast.FuncNodes
		}
	case ast.FuncNodes:
		switch arg := arg.(type) {
		case *ast.PathQuery:
			return true
		case *ast.FuncExpr:
			return arg.Fn.ReturnType == ast.FuncNodes
		}
	}
	return false
}
