package ast

import "strings"

// FuncType is the declared type of a function-extension parameter or result,
// per the RFC 9535 §2.4.1 type system.
type FuncType uint8

const (
	// FuncValue is a single JSON value or Nothing.
	FuncValue FuncType = iota + 1
	// FuncLogical is a true or false filter outcome.
	FuncLogical
	// FuncNodes is a list of nodes selected by a query.
	FuncNodes
)

// String returns the name of t.
func (t FuncType) String() string {
	switch t {
	case FuncValue:
		return "ValueType"
	case FuncLogical:
		return "LogicalType"
	case FuncNodes:
		return "NodesType"
	default:
		return "FuncType(unknown)"
	}
}

// NothingType denotes the absence of a JSON value, the result of a singular
// query that selects no node or of a function that declines to produce a
// value.
type NothingType struct{}

// Nothing is the sole value of [NothingType].
var Nothing = NothingType{}

// Function is a JSONPath function extension. Arguments passed to Call
// correspond to ArgTypes: a FuncValue argument is any JSON value or
// [Nothing], a FuncLogical argument is a bool, and a FuncNodes argument is a
// []any node list. Call must return a value matching ReturnType, and may
// return an error only for failures its construction options promote to
// errors; otherwise it degrades to a type-appropriate zero result.
type Function struct {
	// Name is the function name as written in queries.
	Name string
	// ArgTypes declares the type of each argument.
	ArgTypes []FuncType
	// ReturnType declares the type of the result.
	ReturnType FuncType
	// Call evaluates the function.
	Call func(args []any) (any, error)
}

// FuncExprArg represents a single function argument expression: a literal, a
// query, a logical expression, or a nested function call.
type FuncExprArg interface {
	funcExprArg()
	writeTo(buf *strings.Builder)
}

// FuncExpr is a call to a function extension. The parser resolves Fn from
// the registry and validates Args against Fn.ArgTypes at parse time.
type FuncExpr struct {
	// Fn is the registered function.
	Fn *Function
	// Args are the argument expressions, one per Fn.ArgTypes entry.
	Args []FuncExprArg
	// Not negates a function used as a basic expression.
	Not bool
}

func (*FuncExpr) basicExpr()   {}
func (*FuncExpr) compValue()   {}
func (*FuncExpr) funcExprArg() {}

// String returns the canonical representation of the call.
func (e *FuncExpr) String() string {
	buf := new(strings.Builder)
	e.writeTo(buf)
	return buf.String()
}

func (e *FuncExpr) writeTo(buf *strings.Builder) {
	if e.Not {
		buf.WriteByte('!')
	}
	buf.WriteString(e.Fn.Name)
	buf.WriteByte('(')
	for i, arg := range e.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		arg.writeTo(buf)
	}
	buf.WriteByte(')')
}
