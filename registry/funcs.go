package registry

import (
	"unicode/utf8"

	"github.com/theory/jsonpath/ast"
)

// builtins holds the RFC 9535 built-in functions with no configuration.
// match() and search() are constructed per registry; see New.
var builtins = []*ast.Function{
	{
		// length() returns the number of characters of a string, elements
		// of an array, or members of an object, and Nothing for any other
		// value (RFC 9535 §2.4.4).
		Name:       "length",
		ArgTypes:   []ast.FuncType{ast.FuncValue},
		ReturnType: ast.FuncValue,
		Call: func(args []any) (any, error) {
			switch val := args[0].(type) {
			case string:
				return int64(utf8.RuneCountInString(val)), nil
			case []any:
				return int64(len(val)), nil
			case map[string]any:
				return int64(len(val)), nil
			default:
				return ast.Nothing, nil
			}
		},
	},
	{
		// count() returns the number of nodes in a node list (RFC 9535
		// §2.4.5).
		Name:       "count",
		ArgTypes:   []ast.FuncType{ast.FuncNodes},
		ReturnType: ast.FuncValue,
		Call: func(args []any) (any, error) {
			nodes, _ := args[0].([]any)
			return int64(len(nodes)), nil
		},
	},
	{
		// value() converts a single-node list to its value and any other
		// node list to Nothing (RFC 9535 §2.4.8).
		Name:       "value",
		ArgTypes:   []ast.FuncType{ast.FuncNodes},
		ReturnType: ast.FuncValue,
		Call: func(args []any) (any, error) {
			nodes, _ := args[0].([]any)
			if len(nodes) == 1 {
				return nodes[0], nil
			}
			return ast.Nothing, nil
		},
	},
}
