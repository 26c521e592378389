package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theory/jsonpath/ast"
	"github.com/theory/jsonpath/registry"
)

// filterQuery builds $[?expr] for a single basic expression.
func filterQuery(expr ast.BasicExpr) *ast.PathQuery {
	return ast.Query(true, ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{expr}})))
}

func currentName(name string) *ast.PathQuery {
	return ast.Query(false, ast.Child(ast.Name(name)))
}

func TestFilterComparisons(t *testing.T) {
	t.Parallel()

	input := []any{
		map[string]any{"n": 1.0, "s": "apple"},
		map[string]any{"n": 2.0, "s": "banana"},
		map[string]any{"n": 3.0},
	}

	for _, tc := range []struct {
		test string
		expr ast.BasicExpr
		exp  int // number of selected elements
	}{
		{
			"eq",
			&ast.CompExpr{Left: currentName("n"), Op: ast.EqualTo, Right: ast.Literal(2.0)},
			1,
		},
		{
			"ne",
			&ast.CompExpr{Left: currentName("n"), Op: ast.NotEqualTo, Right: ast.Literal(2.0)},
			2,
		},
		{
			"lt",
			&ast.CompExpr{Left: currentName("n"), Op: ast.LessThan, Right: ast.Literal(3.0)},
			2,
		},
		{
			"le",
			&ast.CompExpr{Left: currentName("n"), Op: ast.LessThanEqualTo, Right: ast.Literal(2.0)},
			2,
		},
		{
			"gt",
			&ast.CompExpr{Left: currentName("n"), Op: ast.GreaterThan, Right: ast.Literal(1.0)},
			2,
		},
		{
			"ge",
			&ast.CompExpr{Left: currentName("n"), Op: ast.GreaterThanEqualTo, Right: ast.Literal(3.0)},
			1,
		},
		{
			"int_literal_vs_float_value",
			&ast.CompExpr{Left: currentName("n"), Op: ast.EqualTo, Right: ast.Literal(int64(2))},
			1,
		},
		{
			"string_lt",
			&ast.CompExpr{Left: currentName("s"), Op: ast.LessThan, Right: ast.Literal("banana")},
			1,
		},
		{
			"string_vs_number_unordered",
			&ast.CompExpr{Left: currentName("s"), Op: ast.LessThan, Right: ast.Literal(5.0)},
			0,
		},
		{
			"missing_eq_nothing",
			// Both sides empty: Nothing == Nothing.
			&ast.CompExpr{Left: currentName("x"), Op: ast.EqualTo, Right: currentName("y")},
			3,
		},
		{
			"missing_ne_value",
			&ast.CompExpr{Left: currentName("s"), Op: ast.NotEqualTo, Right: ast.Literal("apple")},
			2,
		},
		{
			"missing_le_itself",
			// Nothing <= Nothing holds only through equality.
			&ast.CompExpr{Left: currentName("x"), Op: ast.LessThanEqualTo, Right: currentName("x")},
			3,
		},
		{
			"missing_lt_value",
			&ast.CompExpr{Left: currentName("x"), Op: ast.LessThan, Right: ast.Literal(1.0)},
			0,
		},
		{"exists", &ast.ExistExpr{Query: currentName("s")}, 2},
		{"not_exists", &ast.ExistExpr{Query: currentName("s"), Not: true}, 1},
	} {
		t.Run(tc.test, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)
			r := require.New(t)

			got, err := Select(filterQuery(tc.expr), input)
			r.NoError(err)
			a.Len(got, tc.exp)
		})
	}
}

func TestFilterDeepEquality(t *testing.T) {
	t.Parallel()

	input := []any{
		map[string]any{"v": []any{1.0, 2.0}},
		map[string]any{"v": []any{1.0, 2.0, 3.0}},
		map[string]any{"v": map[string]any{"a": 1.0}},
		map[string]any{"v": nil},
	}

	for _, tc := range []struct {
		test  string
		right any
		exp   int
	}{
		{"array", []any{1.0, 2.0}, 1},
		{"object", map[string]any{"a": 1.0}, 1},
		{"null", nil, 1},
		{"no_match", []any{2.0, 1.0}, 0},
	} {
		t.Run(tc.test, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)
			r := require.New(t)

			// Compare @.v to a fixed value from the document root.
			doc := map[string]any{"list": input, "want": tc.right}
			q := ast.Query(true,
				ast.Child(ast.Name("list")),
				ast.Child(ast.Filter(ast.LogicalOr{ast.LogicalAnd{
					&ast.CompExpr{
						Left:  currentName("v"),
						Op:    ast.EqualTo,
						Right: ast.Query(true, ast.Child(ast.Name("want"))),
					},
				}})),
			)

			got, err := Select(q, doc)
			r.NoError(err)
			a.Len(got, tc.exp)
		})
	}
}

func TestFilterLogic(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	r := require.New(t)

	input := []any{
		map[string]any{"a": 1.0, "b": 1.0},
		map[string]any{"a": 1.0},
		map[string]any{"b": 1.0},
		map[string]any{},
	}

	existsA := &ast.ExistExpr{Query: currentName("a")}
	existsB := &ast.ExistExpr{Query: currentName("b")}

	// @.a && @.b
	and := ast.Query(true, ast.Child(ast.Filter(
		ast.LogicalOr{ast.LogicalAnd{existsA, existsB}},
	)))
	got, err := Select(and, input)
	r.NoError(err)
	a.Len(got, 1)

	// @.a || @.b
	or := ast.Query(true, ast.Child(ast.Filter(
		ast.LogicalOr{ast.LogicalAnd{existsA}, ast.LogicalAnd{existsB}},
	)))
	got, err = Select(or, input)
	r.NoError(err)
	a.Len(got, 3)

	// !(@.a || @.b)
	neither := ast.Query(true, ast.Child(ast.Filter(
		ast.LogicalOr{ast.LogicalAnd{&ast.ParenExpr{
			Expr: ast.LogicalOr{ast.LogicalAnd{existsA}, ast.LogicalAnd{existsB}},
			Not:  true,
		}}},
	)))
	got, err = Select(neither, input)
	r.NoError(err)
	a.Len(got, 1)
}

func TestFilterObjects(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	r := require.New(t)

	// Filters apply to object member values, visited in sorted name order.
	input := map[string]any{
		"c": map[string]any{"keep": true},
		"a": map[string]any{"keep": true},
		"b": map[string]any{},
	}

	q := filterQuery(&ast.ExistExpr{Query: currentName("keep")})
	got, err := SelectLocated(q, input)
	r.NoError(err)
	r.Len(got, 2)
	a.Equal("$['a']", got[0].Path.String())
	a.Equal("$['c']", got[1].Path.String())
}

func TestFilterFunctions(t *testing.T) {
	t.Parallel()
	reg := registry.New()

	input := []any{
		map[string]any{"name": "alpha", "tags": []any{"x", "y"}},
		map[string]any{"name": "beta", "tags": []any{"x"}},
		map[string]any{"name": "gamma"},
	}

	lengthFn := reg.Lookup("length")
	countFn := reg.Lookup("count")
	valueFn := reg.Lookup("value")
	matchFn := reg.Lookup("match")
	searchFn := reg.Lookup("search")

	for _, tc := range []struct {
		test string
		expr ast.BasicExpr
		exp  int
	}{
		{
			"length_eq",
			&ast.CompExpr{
				Left: &ast.FuncExpr{
					Fn:   lengthFn,
					Args: []ast.FuncExprArg{currentName("name")},
				},
				Op:    ast.EqualTo,
				Right: ast.Literal(int64(5)),
			},
			2, // alpha, gamma
		},
		{
			"length_of_missing_is_nothing",
			&ast.CompExpr{
				Left: &ast.FuncExpr{
					Fn:   lengthFn,
					Args: []ast.FuncExprArg{currentName("nope")},
				},
				Op:    ast.EqualTo,
				Right: ast.Literal(int64(0)),
			},
			0,
		},
		{
			"count_tags",
			&ast.CompExpr{
				Left: &ast.FuncExpr{
					Fn:   countFn,
					Args: []ast.FuncExprArg{ast.Query(false, ast.Child(ast.Name("tags")), ast.Child(ast.Wildcard()))},
				},
				Op:    ast.EqualTo,
				Right: ast.Literal(int64(2)),
			},
			1, // alpha
		},
		{
			"value_single_node",
			&ast.CompExpr{
				Left: &ast.FuncExpr{
					Fn:   valueFn,
					Args: []ast.FuncExprArg{currentName("name")},
				},
				Op:    ast.EqualTo,
				Right: ast.Literal("beta"),
			},
			1,
		},
		{
			"match_full",
			&ast.FuncExpr{
				Fn:   matchFn,
				Args: []ast.FuncExprArg{currentName("name"), ast.Literal("[ab].*a")},
			},
			2, // alpha, beta end... checked below
		},
		{
			"match_is_anchored",
			&ast.FuncExpr{
				Fn:   matchFn,
				Args: []ast.FuncExprArg{currentName("name"), ast.Literal("eta")},
			},
			0,
		},
		{
			"search_unanchored",
			&ast.FuncExpr{
				Fn:   searchFn,
				Args: []ast.FuncExprArg{currentName("name"), ast.Literal("eta")},
			},
			1, // beta
		},
		{
			"match_non_string",
			&ast.FuncExpr{
				Fn:   matchFn,
				Args: []ast.FuncExprArg{currentName("tags"), ast.Literal("x")},
			},
			0,
		},
		{
			"negated_match",
			&ast.FuncExpr{
				Fn:   searchFn,
				Args: []ast.FuncExprArg{currentName("name"), ast.Literal("eta")},
				Not:  true,
			},
			2,
		},
	} {
		t.Run(tc.test, func(t *testing.T) {
			t.Parallel()
			a := assert.New(t)
			r := require.New(t)

			got, err := Select(filterQuery(tc.expr), input)
			r.NoError(err)
			a.Len(got, tc.exp)
		})
	}
}

func TestFilterNodesFunction(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	r := require.New(t)

	// A NodesType result in a logical context is true when non-empty.
	kidsFn := &ast.Function{
		Name:       "kids",
		ArgTypes:   []ast.FuncType{ast.FuncNodes},
		ReturnType: ast.FuncNodes,
		Call: func(args []any) (any, error) {
			nodes, _ := args[0].([]any)
			return nodes, nil
		},
	}
	holdsFn := &ast.Function{
		Name:       "holds",
		ArgTypes:   []ast.FuncType{ast.FuncLogical},
		ReturnType: ast.FuncLogical,
		Call: func(args []any) (any, error) {
			ok, _ := args[0].(bool)
			return ok, nil
		},
	}

	input := []any{
		map[string]any{"a": 1.0},
		map[string]any{},
		[]any{1.0},
		"scalar",
	}
	kids := func(not bool) *ast.FuncExpr {
		return &ast.FuncExpr{
			Fn:   kidsFn,
			Args: []ast.FuncExprArg{ast.Query(false, ast.Child(ast.Wildcard()))},
			Not:  not,
		}
	}

	// kids(@.*) selects the elements with children.
	got, err := Select(filterQuery(kids(false)), input)
	r.NoError(err)
	a.Equal(NodeList{input[0], input[2]}, got)

	// !kids(@.*) selects the rest.
	got, err = Select(filterQuery(kids(true)), input)
	r.NoError(err)
	a.Equal(NodeList{input[1], input[3]}, got)

	// A nodes function converts when passed for a LogicalType parameter.
	holds := &ast.FuncExpr{Fn: holdsFn, Args: []ast.FuncExprArg{kids(false)}}
	got, err = Select(filterQuery(holds), input)
	r.NoError(err)
	a.Equal(NodeList{input[0], input[2]}, got)
}

func TestFilterStrictRegexError(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	r := require.New(t)

	input := []any{map[string]any{"name": "alpha"}}
	expr := func(fn *ast.Function) *ast.PathQuery {
		return filterQuery(&ast.FuncExpr{
			Fn:   fn,
			Args: []ast.FuncExprArg{currentName("name"), ast.Literal("a(")},
		})
	}

	// Lenient mode: an uncompilable pattern simply fails to match.
	got, err := Select(expr(registry.New().Lookup("match")), input)
	r.NoError(err)
	a.Empty(got)

	// Strict mode: the failure becomes an execution error.
	strict := registry.New(registry.WithStrictRegex())
	got, err = Select(expr(strict.Lookup("match")), input)
	r.Error(err)
	a.Nil(got)
	a.ErrorIs(err, ErrExecution)
	a.ErrorIs(err, registry.ErrRegex)
	a.Contains(err.Error(), "match()")
}
