package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theory/jsonpath/ast"
	"github.com/theory/jsonpath/registry"
)

func ptr(n int64) *int64 { return &n }

func TestParseQueries(t *testing.T) {
	t.Parallel()
	reg := registry.New()

	for _, tc := range []struct {
		test string
		path string
		exp  *ast.PathQuery
	}{
		{"root", "$", ast.Query(true)},
		{
			"shorthand_name",
			"$.foo",
			ast.Query(true, ast.Child(ast.Name("foo"))),
		},
		{
			"shorthand_chain",
			"$.foo.bar",
			ast.Query(true, ast.Child(ast.Name("foo")), ast.Child(ast.Name("bar"))),
		},
		{
			"shorthand_keyword",
			"$.true",
			ast.Query(true, ast.Child(ast.Name("true"))),
		},
		{
			"shorthand_wildcard",
			"$.*",
			ast.Query(true, ast.Child(ast.Wildcard())),
		},
		{
			"bracketed_name",
			`$["foo"]`,
			ast.Query(true, ast.Child(ast.Name("foo"))),
		},
		{
			"single_quoted_name",
			"$['hi there']",
			ast.Query(true, ast.Child(ast.Name("hi there"))),
		},
		{
			"index",
			"$[0]",
			ast.Query(true, ast.Child(ast.Index(0))),
		},
		{
			"negative_index",
			"$[-1]",
			ast.Query(true, ast.Child(ast.Index(-1))),
		},
		{
			"bracketed_wildcard",
			"$[*]",
			ast.Query(true, ast.Child(ast.Wildcard())),
		},
		{
			"multiple_selectors",
			`$["a",1,*]`,
			ast.Query(true, ast.Child(ast.Name("a"), ast.Index(1), ast.Wildcard())),
		},
		{
			"selector_blank_space",
			`$[ "a" , 1 ]`,
			ast.Query(true, ast.Child(ast.Name("a"), ast.Index(1))),
		},
		{
			"slice",
			"$[1:3]",
			ast.Query(true, ast.Child(ast.Slice(ptr(1), ptr(3), nil))),
		},
		{
			"slice_step",
			"$[1:8:2]",
			ast.Query(true, ast.Child(ast.Slice(ptr(1), ptr(8), ptr(2)))),
		},
		{
			"slice_empty",
			"$[:]",
			ast.Query(true, ast.Child(ast.Slice(nil, nil, nil))),
		},
		{
			"slice_end_only",
			"$[:3]",
			ast.Query(true, ast.Child(ast.Slice(nil, ptr(3), nil))),
		},
		{
			"slice_step_only",
			"$[::-1]",
			ast.Query(true, ast.Child(ast.Slice(nil, nil, ptr(-1)))),
		},
		{
			"descendant_name",
			"$..foo",
			ast.Query(true, ast.Descendant(ast.Name("foo"))),
		},
		{
			"descendant_wildcard",
			"$..*",
			ast.Query(true, ast.Descendant(ast.Wildcard())),
		},
		{
			"descendant_bracketed",
			"$..[0,1]",
			ast.Query(true, ast.Descendant(ast.Index(0), ast.Index(1))),
		},
		{
			"filter_exists",
			"$[?@.a]",
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{
				&ast.ExistExpr{Query: ast.Query(false, ast.Child(ast.Name("a")))},
			}}))),
		},
		{
			"filter_root_query",
			"$[?$.a]",
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{
				&ast.ExistExpr{Query: ast.Query(true, ast.Child(ast.Name("a")))},
			}}))),
		},
		{
			"filter_not_exists",
			"$[?!@.a]",
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{
				&ast.ExistExpr{
					Query: ast.Query(false, ast.Child(ast.Name("a"))),
					Not:   true,
				},
			}}))),
		},
		{
			"filter_comparison",
			"$[?@.n >= 3]",
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{
				&ast.CompExpr{
					Left:  ast.Query(false, ast.Child(ast.Name("n"))),
					Op:    ast.GreaterThanEqualTo,
					Right: ast.Literal(int64(3)),
				},
			}}))),
		},
		{
			"filter_literal_left",
			`$[?3 < @.n]`,
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{
				&ast.CompExpr{
					Left:  ast.Literal(int64(3)),
					Op:    ast.LessThan,
					Right: ast.Query(false, ast.Child(ast.Name("n"))),
				},
			}}))),
		},
		{
			"filter_and_or",
			`$[?@.a && @.b || @.c]`,
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{
				ast.LogicalAnd{
					&ast.ExistExpr{Query: ast.Query(false, ast.Child(ast.Name("a")))},
					&ast.ExistExpr{Query: ast.Query(false, ast.Child(ast.Name("b")))},
				},
				ast.LogicalAnd{
					&ast.ExistExpr{Query: ast.Query(false, ast.Child(ast.Name("c")))},
				},
			}))),
		},
		{
			"filter_paren",
			`$[?!(@.a || @.b)]`,
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{
				&ast.ParenExpr{
					Expr: ast.LogicalOr{
						ast.LogicalAnd{&ast.ExistExpr{
							Query: ast.Query(false, ast.Child(ast.Name("a"))),
						}},
						ast.LogicalAnd{&ast.ExistExpr{
							Query: ast.Query(false, ast.Child(ast.Name("b"))),
						}},
					},
					Not: true,
				},
			}}))),
		},
		{
			"filter_literals",
			`$[?@.x == null || @.x == true || @.x == "hi" || @.x == 1.5]`,
			ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{
				ast.LogicalAnd{&ast.CompExpr{
					Left:  ast.Query(false, ast.Child(ast.Name("x"))),
					Op:    ast.EqualTo,
					Right: ast.Literal(nil),
				}},
				ast.LogicalAnd{&ast.CompExpr{
					Left:  ast.Query(false, ast.Child(ast.Name("x"))),
					Op:    ast.EqualTo,
					Right: ast.Literal(true),
				}},
				ast.LogicalAnd{&ast.CompExpr{
					Left:  ast.Query(false, ast.Child(ast.Name("x"))),
					Op:    ast.EqualTo,
					Right: ast.Literal("hi"),
				}},
				ast.LogicalAnd{&ast.CompExpr{
					Left:  ast.Query(false, ast.Child(ast.Name("x"))),
					Op:    ast.EqualTo,
					Right: ast.Literal(1.5),
				}},
			}))),
		},
	} {
		t.Run(tc.test, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)
			r := require.New(t)

			q, err := Parse(tc.path, reg)
			r.NoError(err)
			a.Equal(tc.exp, q)

			// Parsing is deterministic.
			again, err := Parse(tc.path, reg)
			r.NoError(err)
			a.Equal(q, again)

			// The canonical representation parses to the same query.
			q2, err := Parse(q.String(), reg)
			r.NoError(err)
			a.Equal(q, q2)
		})
	}
}

func TestParseFunctions(t *testing.T) {
	t.Parallel()
	reg := registry.New()
	a := assert.New(t)
	r := require.New(t)

	q, err := Parse(`$[?length(@.authors) >= 5]`, reg)
	r.NoError(err)
	fs, ok := q.Segments()[0].Selectors()[0].(*ast.FilterSelector)
	r.True(ok)
	comp, ok := fs.Expr[0][0].(*ast.CompExpr)
	r.True(ok)
	fe, ok := comp.Left.(*ast.FuncExpr)
	r.True(ok)
	a.Equal("length", fe.Fn.Name)
	a.Same(reg.Lookup("length"), fe.Fn)
	r.Len(fe.Args, 1)
	a.Equal(ast.Query(false, ast.Child(ast.Name("authors"))), fe.Args[0])

	q, err = Parse(`$[?match(@.name, "ab.*")]`, reg)
	r.NoError(err)
	fs, ok = q.Segments()[0].Selectors()[0].(*ast.FilterSelector)
	r.True(ok)
	fe, ok = fs.Expr[0][0].(*ast.FuncExpr)
	r.True(ok)
	a.Equal("match", fe.Fn.Name)
	a.False(fe.Not)
	r.Len(fe.Args, 2)
	a.Equal(ast.Literal("ab.*"), fe.Args[1])

	q, err = Parse(`$[?!search(@.name, "x")]`, reg)
	r.NoError(err)
	fs, ok = q.Segments()[0].Selectors()[0].(*ast.FilterSelector)
	r.True(ok)
	fe, ok = fs.Expr[0][0].(*ast.FuncExpr)
	r.True(ok)
	a.Equal("search", fe.Fn.Name)
	a.True(fe.Not)

	// count() with a non-singular query argument.
	q, err = Parse(`$[?count(@.*) == 2]`, reg)
	r.NoError(err)
	fs, ok = q.Segments()[0].Selectors()[0].(*ast.FilterSelector)
	r.True(ok)
	comp, ok = fs.Expr[0][0].(*ast.CompExpr)
	r.True(ok)
	fe, ok = comp.Left.(*ast.FuncExpr)
	r.True(ok)
	a.Equal("count", fe.Fn.Name)

	// Nested function call.
	_, err = Parse(`$[?length(value(@.names)) == 3]`, reg)
	r.NoError(err)
}

func TestParseNodesFunctions(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	r := require.New(t)

	// A function returning NodesType converts to LogicalType in a test
	// expression and as a LogicalType argument, but never compares.
	reg := registry.New()
	r.NoError(reg.Register(&ast.Function{
		Name:       "kids",
		ArgTypes:   []ast.FuncType{ast.FuncNodes},
		ReturnType: ast.FuncNodes,
		Call: func(args []any) (any, error) { return args[0], nil },
	}))
	r.NoError(reg.Register(&ast.Function{
		Name:       "holds",
		ArgTypes:   []ast.FuncType{ast.FuncLogical},
		ReturnType: ast.FuncLogical,
		Call: func(args []any) (any, error) { return args[0], nil },
	}))

	q, err := Parse(`$[?kids(@.*)]`, reg)
	r.NoError(err)
	fs, ok := q.Segments()[0].Selectors()[0].(*ast.FilterSelector)
	r.True(ok)
	fe, ok := fs.Expr[0][0].(*ast.FuncExpr)
	r.True(ok)
	a.Same(reg.Lookup("kids"), fe.Fn)
	a.False(fe.Not)

	q, err = Parse(`$[?!kids(@.*)]`, reg)
	r.NoError(err)
	fs, ok = q.Segments()[0].Selectors()[0].(*ast.FilterSelector)
	r.True(ok)
	fe, ok = fs.Expr[0][0].(*ast.FuncExpr)
	r.True(ok)
	a.True(fe.Not)

	_, err = Parse(`$[?holds(kids(@.*))]`, reg)
	r.NoError(err)

	_, err = Parse(`$[?kids(@.*) == 1]`, reg)
	r.Error(err)
	a.EqualError(
		err,
		"jsonpath type: cannot compare function kids() returning NodesType at position 3",
	)

	_, err = Parse(`$[?@.a == kids(@.*)]`, reg)
	r.Error(err)
	a.EqualError(
		err,
		"jsonpath type: cannot compare function kids() returning NodesType at position 10",
	)
}

func TestParseSyntaxErrors(t *testing.T) {
	t.Parallel()
	reg := registry.New()

	for _, tc := range []struct {
		test string
		path string
		err  string
	}{
		{"empty", "", "jsonpath: expected $ but found end of input at position 0"},
		{"no_root", ".a", "jsonpath: expected $ but found . at position 0"},
		{"current_root", "@.a", "jsonpath: expected $ but found @ at position 0"},
		{
			"leading_blank",
			" $.a",
			"jsonpath: blank space disallowed at start of query at position 0",
		},
		{
			"trailing_blank",
			"$.a ",
			"jsonpath: blank space disallowed at end of query at position 3",
		},
		{
			"space_after_dot",
			"$. a",
			`jsonpath: blank space disallowed after "." at position 3`,
		},
		{
			"space_after_dotdot",
			"$.. a",
			`jsonpath: blank space disallowed after ".." at position 4`,
		},
		{
			"empty_brackets",
			"$[]",
			"jsonpath: empty bracketed segment at position 2",
		},
		{
			"trailing_comma",
			"$[0,]",
			`jsonpath: trailing comma before "]" at position 4`,
		},
		{
			"unclosed_bracket",
			"$[0",
			"jsonpath: expected ] but found end of input at position 3",
		},
		{
			"trailing_garbage",
			"$.a]",
			"jsonpath: expected end of input but found ] at position 3",
		},
		{
			"dot_index",
			"$.0",
			`jsonpath: expected "*" or name after "." but found 0 at position 2`,
		},
		{
			"dot_bracket",
			"$.[0]",
			`jsonpath: expected "*" or name after "." but found [ at position 2`,
		},
		{
			"negative_zero_index",
			"$[-0]",
			`jsonpath: invalid index "-0" at position 2`,
		},
		{
			"index_too_large",
			"$[9007199254740992]",
			"jsonpath: index 9007199254740992 out of range at position 2",
		},
		{
			"index_too_small",
			"$[-9007199254740992]",
			"jsonpath: index -9007199254740992 out of range at position 2",
		},
		{
			"number_index",
			"$[1.5]",
			"jsonpath: expected selector but found 1.5 at position 2",
		},
		{
			"leading_zero_index",
			"$[01]",
			"jsonpath: leading zeros disallowed at position 2",
		},
		{
			"bare_filter_literal",
			"$[?42]",
			"jsonpath: expected comparison operator but found ] at position 5",
		},
		{
			"unknown_function",
			"$[?bogus(@.a)]",
			"jsonpath: unknown function bogus() at position 3",
		},
		{
			"function_space",
			"$[?length (@.a) == 1]",
			`jsonpath: blank space disallowed before "(" at position 10`,
		},
		{
			"non_singular_comparison",
			"$[?@.* == 1]",
			"jsonpath: non-singular query disallowed in comparison at position 3",
		},
		{
			"non_singular_comparison_right",
			"$[?1 == @.*]",
			"jsonpath: non-singular query disallowed in comparison at position 8",
		},
		{
			"unclosed_paren",
			"$[?(@.a]",
			"jsonpath: expected ) but found ] at position 7",
		},
		{
			"bare_not",
			"$[?!]",
			`jsonpath: expected expression after "!" but found ] at position 4`,
		},
	} {
		t.Run(tc.test, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)
			r := require.New(t)

			q, err := Parse(tc.path, reg)
			r.Error(err)
			a.Nil(q)
			a.ErrorIs(err, ErrParse)
			a.EqualError(err, tc.err)
		})
	}
}

func TestParseTypeErrors(t *testing.T) {
	t.Parallel()
	reg := registry.New()

	for _, tc := range []struct {
		test string
		path string
		err  string
	}{
		{
			"too_few_args",
			"$[?match(@.a)]",
			"jsonpath type: function match() expects 2 arguments but found 1 at position 3",
		},
		{
			"too_many_args",
			"$[?count(@.a, @.b) == 1]",
			"jsonpath type: function count() expects 1 arguments but found 2 at position 3",
		},
		{
			"nodes_from_literal",
			`$[?count("x") == 1]`,
			"jsonpath type: argument 1 of function count() is not convertible to NodesType at position 3",
		},
		{
			"value_from_non_singular",
			"$[?length(@.*) == 1]",
			"jsonpath type: argument 1 of function length() is not convertible to ValueType at position 3",
		},
		{
			"value_function_as_logical",
			"$[?length(@.a)]",
			"jsonpath type: function length() returning ValueType must be compared at position 3",
		},
		{
			"logical_function_compared",
			`$[?match(@.a, "x") == true]`,
			"jsonpath type: cannot compare function match() returning LogicalType at position 3",
		},
		{
			"negate_value_function",
			"$[?!length(@.a)]",
			"jsonpath type: cannot negate function length() returning ValueType at position 4",
		},
		{
			"compare_to_logical_function",
			`$[?@.a == match(@.b, "x")]`,
			"jsonpath type: cannot compare function match() returning LogicalType at position 10",
		},
	} {
		t.Run(tc.test, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)
			r := require.New(t)

			q, err := Parse(tc.path, reg)
			r.Error(err)
			a.Nil(q)
			a.ErrorIs(err, ErrType)
			a.EqualError(err, tc.err)
		})
	}
}
