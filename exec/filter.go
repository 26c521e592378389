package exec

import (
	"fmt"

	"github.com/theory/jsonpath/ast"
)

// evalLogicalOr evaluates or against the current filter node. It is true if
// any of its and-expressions is true.
func (e *executor) evalLogicalOr(or ast.LogicalOr, current any) (bool, error) {
	for _, and := range or {
		ok, err := e.evalLogicalAnd(and, current)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// evalLogicalAnd evaluates and against the current filter node. It is true
// if all of its basic expressions are true.
func (e *executor) evalLogicalAnd(and ast.LogicalAnd, current any) (bool, error) {
	for _, expr := range and {
		ok, err := e.evalBasicExpr(expr, current)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// evalBasicExpr evaluates a single basic expression against the current
// filter node.
func (e *executor) evalBasicExpr(expr ast.BasicExpr, current any) (bool, error) {
	switch expr := expr.(type) {
	case *ast.ParenExpr:
		ok, err := e.evalLogicalOr(expr.Expr, current)
		if err != nil {
			return false, err
		}
		return ok != expr.Not, nil

	case *ast.ExistExpr:
		nodes, err := e.query(expr.Query, current)
		if err != nil {
			return false, err
		}
		return (len(nodes) > 0) != expr.Not, nil

	case *ast.CompExpr:
		left, err := e.evalCompValue(expr.Left, current)
		if err != nil {
			return false, err
		}
		right, err := e.evalCompValue(expr.Right, current)
		if err != nil {
			return false, err
		}
		return compare(expr.Op, left, right), nil

	case *ast.FuncExpr:
		res, err := e.evalFuncExpr(expr, current)
		if err != nil {
			return false, err
		}
		return logicalResult(res) != expr.Not, nil

	default:
		return false, fmt.Errorf("unknown expression type %T", expr)
	}
}

// logicalResult converts a function result used in a logical context to a
// boolean. A node list converts per RFC 9535 §2.4.2: true when non-empty.
func logicalResult(res any) bool {
	switch res := res.(type) {
	case bool:
		return res
	case []any:
		return len(res) > 0
	default:
		return false
	}
}

// evalCompValue evaluates one side of a comparison: a literal yields its
// value, a singular query yields the value of the selected node or
// [ast.Nothing], and a function call yields its result.
func (e *executor) evalCompValue(val ast.CompValue, current any) (any, error) {
	switch val := val.(type) {
	case *ast.LiteralArg:
		return val.Literal, nil
	case *ast.PathQuery:
		return e.singularValue(val, current)
	case *ast.FuncExpr:
		return e.evalFuncExpr(val, current)
	default:
		return nil, fmt.Errorf("unknown comparable type %T", val)
	}
}

// singularValue evaluates a singular query and returns the value of the
// selected node, or [ast.Nothing] if the query selects no node.
func (e *executor) singularValue(q *ast.PathQuery, current any) (any, error) {
	nodes, err := e.query(q, current)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return ast.Nothing, nil
	}
	return nodes[0].Value, nil
}

// evalFuncExpr evaluates a function call: each argument expression converts
// to the declared parameter type, and the function produces the result.
func (e *executor) evalFuncExpr(fe *ast.FuncExpr, current any) (any, error) {
	args := make([]any, len(fe.Args))
	for i, argType := range fe.Fn.ArgTypes {
		arg, err := e.evalFuncArg(fe.Args[i], argType, current)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	res, err := fe.Fn.Call(args)
	if err != nil {
		return nil, fmt.Errorf("%v(): %w", fe.Fn.Name, err)
	}
	return res, nil
}

// evalFuncArg evaluates a single function argument expression, converting
// it to the declared parameter type t.
func (e *executor) evalFuncArg(arg ast.FuncExprArg, t ast.FuncType, current any) (any, error) {
	switch t {
	case ast.FuncValue:
		switch arg := arg.(type) {
		case *ast.LiteralArg:
			return arg.Literal, nil
		case *ast.PathQuery:
			return e.singularValue(arg, current)
		case *ast.FuncExpr:
			return e.evalFuncExpr(arg, current)
		}

	case ast.FuncLogical:
		switch arg := arg.(type) {
		case *ast.PathQuery:
			nodes, err := e.query(arg, current)
			if err != nil {
				return nil, err
			}
			return len(nodes) > 0, nil
		case ast.LogicalOr:
			return e.evalLogicalOr(arg, current)
		case *ast.FuncExpr:
			res, err := e.evalFuncExpr(arg, current)
			if err != nil {
				return nil, err
			}
			return logicalResult(res), nil
		}

	case ast.FuncNodes:
		switch arg := arg.(type) {
		case *ast.PathQuery:
			nodes, err := e.query(arg, current)
			if err != nil {
				return nil, err
			}
			return []any(nodes.Values()), nil
		case *ast.FuncExpr:
			return e.evalFuncExpr(arg, current)
		}
	}

	// The parser validates argument types; anything else is a bug.
	return nil, fmt.Errorf("argument type %T invalid for %v parameter", arg, t)
}

// compare applies a comparison operator per RFC 9535 §2.3.5.2.2. Equality
// is deep; ordering is defined only for pairs of numbers and pairs of
// strings, and any other < comparison is false.
func compare(op ast.CompOp, left, right any) bool {
	switch op {
	case ast.EqualTo:
		return equalValues(left, right)
	case ast.NotEqualTo:
		return !equalValues(left, right)
	case ast.LessThan:
		return lessThan(left, right)
	case ast.GreaterThan:
		return lessThan(right, left)
	case ast.LessThanEqualTo:
		return lessThan(left, right) || equalValues(left, right)
	case ast.GreaterThanEqualTo:
		return lessThan(right, left) || equalValues(left, right)
	default:
		return false
	}
}

// equalValues reports deep equality of two comparison results. Nothing
// equals only Nothing, null equals only null, and numbers compare
// numerically across integer and float representations.
func equalValues(left, right any) bool {
	if left == ast.Nothing || right == ast.Nothing {
		return left == right
	}
	if left == nil || right == nil {
		return left == nil && right == nil
	}

	if lNum, ok := toFloat(left); ok {
		rNum, ok := toFloat(right)
		return ok && lNum == rNum
	}

	switch left := left.(type) {
	case string:
		right, ok := right.(string)
		return ok && left == right
	case bool:
		right, ok := right.(bool)
		return ok && left == right
	case []any:
		right, ok := right.([]any)
		if !ok || len(left) != len(right) {
			return false
		}
		for i := range left {
			if !equalValues(left[i], right[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		right, ok := right.(map[string]any)
		if !ok || len(left) != len(right) {
			return false
		}
		for key, val := range left {
			rVal, ok := right[key]
			if !ok || !equalValues(val, rVal) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// lessThan reports whether left orders before right: both must be numbers
// or both strings, and any other pairing is unordered.
func lessThan(left, right any) bool {
	if lNum, ok := toFloat(left); ok {
		if rNum, ok := toFloat(right); ok {
			return lNum < rNum
		}
		return false
	}

	if lStr, ok := left.(string); ok {
		if rStr, ok := right.(string); ok {
			return lStr < rStr
		}
	}
	return false
}

// toFloat converts any numeric representation a JSON decoder or the parser
// produces to a float64.
func toFloat(val any) (float64, bool) {
	switch val := val.(type) {
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case uint64:
		return float64(val), true
	case float32:
		return float64(val), true
	default:
		return 0, false
	}
}
