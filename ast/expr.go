package ast

import (
	"strconv"
	"strings"
)

// LogicalOr is a list of one or more and-expressions joined by ||. It is
// true if any of them is true.
type LogicalOr []LogicalAnd

// String returns the canonical representation of the expression.
func (or LogicalOr) String() string {
	buf := new(strings.Builder)
	or.writeTo(buf)
	return buf.String()
}

func (or LogicalOr) writeTo(buf *strings.Builder) {
	for i, and := range or {
		if i > 0 {
			buf.WriteString(" || ")
		}
		and.writeTo(buf)
	}
}

func (LogicalOr) funcExprArg() {}

// LogicalAnd is a list of one or more basic expressions joined by &&. It is
// true if all of them are true.
type LogicalAnd []BasicExpr

// String returns the canonical representation of the expression.
func (and LogicalAnd) String() string {
	buf := new(strings.Builder)
	and.writeTo(buf)
	return buf.String()
}

func (and LogicalAnd) writeTo(buf *strings.Builder) {
	for i, expr := range and {
		if i > 0 {
			buf.WriteString(" && ")
		}
		expr.writeTo(buf)
	}
}

// BasicExpr represents a single boolean term of a filter expression: a
// parenthesized expression, an existence test, a comparison, or a logical
// function call. The set of implementations is closed.
type BasicExpr interface {
	basicExpr()
	writeTo(buf *strings.Builder)
}

// ParenExpr is a parenthesized logical expression, optionally negated.
type ParenExpr struct {
	// Expr is the wrapped expression.
	Expr LogicalOr
	// Not negates the expression.
	Not bool
}

func (*ParenExpr) basicExpr() {}

// String returns the canonical representation of the expression.
func (e *ParenExpr) String() string {
	buf := new(strings.Builder)
	e.writeTo(buf)
	return buf.String()
}

func (e *ParenExpr) writeTo(buf *strings.Builder) {
	if e.Not {
		buf.WriteByte('!')
	}
	buf.WriteByte('(')
	e.Expr.writeTo(buf)
	buf.WriteByte(')')
}

// ExistExpr tests whether a query selects at least one node. When negated it
// tests that the query selects nothing.
type ExistExpr struct {
	// Query is the query to test.
	Query *PathQuery
	// Not negates the test.
	Not bool
}

func (*ExistExpr) basicExpr() {}

// String returns the canonical representation of the expression.
func (e *ExistExpr) String() string {
	buf := new(strings.Builder)
	e.writeTo(buf)
	return buf.String()
}

func (e *ExistExpr) writeTo(buf *strings.Builder) {
	if e.Not {
		buf.WriteByte('!')
	}
	e.Query.writeTo(buf)
}

// CompOp represents a comparison operator.
type CompOp uint8

const (
	// EqualTo is the == operator.
	EqualTo CompOp = iota + 1
	// NotEqualTo is the != operator.
	NotEqualTo
	// LessThan is the < operator.
	LessThan
	// LessThanEqualTo is the <= operator.
	LessThanEqualTo
	// GreaterThan is the > operator.
	GreaterThan
	// GreaterThanEqualTo is the >= operator.
	GreaterThanEqualTo
)

// String returns the JSONPath notation for op.
func (op CompOp) String() string {
	switch op {
	case EqualTo:
		return "=="
	case NotEqualTo:
		return "!="
	case LessThan:
		return "<"
	case LessThanEqualTo:
		return "<="
	case GreaterThan:
		return ">"
	case GreaterThanEqualTo:
		return ">="
	default:
		return "CompOp(" + strconv.Itoa(int(op)) + ")"
	}
}

// CompValue represents a comparable value in a comparison expression: a
// literal, a singular query, or a call to a function returning FuncValue.
type CompValue interface {
	compValue()
	writeTo(buf *strings.Builder)
}

// CompExpr compares two values.
type CompExpr struct {
	Left  CompValue
	Op    CompOp
	Right CompValue
}

func (*CompExpr) basicExpr() {}

// String returns the canonical representation of the expression.
func (e *CompExpr) String() string {
	buf := new(strings.Builder)
	e.writeTo(buf)
	return buf.String()
}

func (e *CompExpr) writeTo(buf *strings.Builder) {
	e.Left.writeTo(buf)
	buf.WriteByte(' ')
	buf.WriteString(e.Op.String())
	buf.WriteByte(' ')
	e.Right.writeTo(buf)
}

// LiteralArg is a literal JSON value in a filter expression: a string,
// int64, float64, bool, or nil for JSON null.
type LiteralArg struct {
	// Literal is the literal value.
	Literal any
}

// Literal returns a new LiteralArg for val.
func Literal(val any) *LiteralArg { return &LiteralArg{Literal: val} }

func (*LiteralArg) compValue()   {}
func (*LiteralArg) funcExprArg() {}

// String returns the canonical representation of the literal.
func (a *LiteralArg) String() string {
	buf := new(strings.Builder)
	a.writeTo(buf)
	return buf.String()
}

func (a *LiteralArg) writeTo(buf *strings.Builder) {
	switch lit := a.Literal.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(lit))
	case string:
		buf.WriteString(strconv.Quote(lit))
	case int64:
		buf.WriteString(strconv.FormatInt(lit, 10))
	case float64:
		buf.WriteString(strconv.FormatFloat(lit, 'g', -1, 64))
	default:
		// Parser only constructs the types above.
		buf.WriteString(strconv.Quote("?"))
	}
}
