// Package exec provides the routines for RFC 9535 JSONPath query execution.
//
// Execution is a synchronous, pure computation over the query argument: it
// never mutates the argument, and a failed lookup (a missing member name,
// an out-of-range index, a selector applied to an inapplicable value) is an
// empty result, never an error. Errors arise only from function extensions
// configured to report them, such as match() under the registry's strict
// regex option.
//
// Go maps carry no member order, so object members are visited in sorted
// name order wherever a selector iterates them, keeping execution
// deterministic and repeatable.
package exec

import (
	"errors"
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/theory/jsonpath/ast"
)

// ErrExecution errors denote runtime execution errors.
var ErrExecution = errors.New("exec")

// Select returns the values selected by q from input, in order.
func Select(q *ast.PathQuery, input any) (NodeList, error) {
	nodes, err := SelectLocated(q, input)
	if err != nil {
		return nil, err
	}
	return nodes.Values(), nil
}

// SelectLocated returns the nodes selected by q from input, in order, each
// paired with its normalized path location.
func SelectLocated(q *ast.PathQuery, input any) (LocatedNodeList, error) {
	e := &executor{root: input}
	nodes, err := e.query(q, input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	return nodes, nil
}

// First returns the first value selected by q from input, or nil if the
// query selects nothing.
func First(q *ast.PathQuery, input any) (any, error) {
	nodes, err := SelectLocated(q, input)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		//nolint:nilnil // nil is a valid result, standing in for JSON null.
		return nil, nil
	}
	return nodes[0].Value, nil
}

// Exists reports whether q selects at least one node from input.
func Exists(q *ast.PathQuery, input any) (bool, error) {
	nodes, err := SelectLocated(q, input)
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

// executor carries the document root for $-rooted filter sub-queries.
type executor struct {
	root any
}

// query folds the segments of q left to right over the running node set,
// starting from the document root for $-rooted queries or from current for
// @-rooted queries. With no segments the result is the start node itself.
func (e *executor) query(q *ast.PathQuery, current any) (LocatedNodeList, error) {
	start := current
	if q.IsRoot() {
		start = e.root
	}

	nodes := LocatedNodeList{{Value: start}}
	for _, seg := range q.Segments() {
		out := make(LocatedNodeList, 0, len(nodes))
		for _, node := range nodes {
			res, err := e.applySegment(seg, node)
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
		}
		nodes = out
	}

	return nodes, nil
}

// applySegment applies seg to node. A child segment applies the selector
// list to node itself; a descendant segment applies it to node and then, in
// pre-order, to every node nested beneath it.
func (e *executor) applySegment(seg *ast.Segment, node *LocatedNode) (LocatedNodeList, error) {
	if !seg.IsDescendant() {
		return e.applySelectors(seg.Selectors(), node)
	}

	out, err := e.applySelectors(seg.Selectors(), node)
	if err != nil {
		return nil, err
	}

	for _, child := range childNodes(node) {
		res, err := e.applySegment(seg, child)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}

	return out, nil
}

// applySelectors resolves each selector against node in list order,
// concatenating the results.
func (e *executor) applySelectors(selectors []ast.Selector, node *LocatedNode) (LocatedNodeList, error) {
	var out LocatedNodeList
	for _, sel := range selectors {
		res, err := e.resolve(sel, node)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

// resolve resolves a single selector against node.
func (e *executor) resolve(sel ast.Selector, node *LocatedNode) (LocatedNodeList, error) {
	switch sel := sel.(type) {
	case *ast.NameSelector:
		if obj, ok := node.Value.(map[string]any); ok {
			if val, ok := obj[sel.Name]; ok {
				return LocatedNodeList{childNode(node, NameElement(sel.Name), val)}, nil
			}
		}
		return nil, nil

	case *ast.IndexSelector:
		if arr, ok := node.Value.([]any); ok {
			if idx, ok := normalizeIndex(sel.Index, len(arr)); ok {
				return LocatedNodeList{childNode(node, IndexElement(idx), arr[idx])}, nil
			}
		}
		return nil, nil

	case *ast.WildcardSelector:
		return childNodes(node), nil

	case *ast.SliceSelector:
		if arr, ok := node.Value.([]any); ok {
			return resolveSlice(sel, node, arr), nil
		}
		return nil, nil

	case *ast.FilterSelector:
		return e.resolveFilter(sel, node)

	default:
		return nil, fmt.Errorf("unknown selector type %T", sel)
	}
}

// normalizeIndex converts idx to a non-negative array index, counting
// negative indexes back from length. Returns false for an index out of
// range.
func normalizeIndex(idx int64, length int) (int, bool) {
	if idx < 0 {
		idx += int64(length)
	}
	if idx < 0 || idx >= int64(length) {
		return 0, false
	}
	return int(idx), true
}

// resolveSlice resolves a slice selector against arr, applying the RFC 9535
// §2.3.4.2.2 defaults and bounds. Each selected node is keyed by its index
// in arr, not by its position in the slice output.
func resolveSlice(sel *ast.SliceSelector, node *LocatedNode, arr []any) LocatedNodeList {
	length := int64(len(arr))
	step := int64(1)
	if sel.Step != nil {
		step = *sel.Step
	}
	if length == 0 || step == 0 {
		return nil
	}

	var out LocatedNodeList
	if step > 0 {
		lower := sliceBound(sel.Start, 0, length, 0)
		upper := sliceBound(sel.End, length, length, 0)
		for i := lower; i < upper; i += step {
			out = append(out, childNode(node, IndexElement(i), arr[i]))
		}
	} else {
		upper := sliceBound(sel.Start, length-1, length, -1)
		lower := sliceBound(sel.End, -1, length, -1)
		for i := upper; i > lower; i += step {
			out = append(out, childNode(node, IndexElement(i), arr[i]))
		}
	}

	return out
}

// sliceBound normalizes one slice component: nil takes def, negative values
// count back from length, and the result is clamped to [floor, length+floor].
func sliceBound(component *int64, def, length, floor int64) int64 {
	if component == nil {
		return def
	}
	bound := *component
	if bound < 0 {
		bound += length
	}
	return min(max(bound, floor), length+floor)
}

// resolveFilter resolves a filter selector: each array element or object
// member value for which the filter expression is true is selected, keyed
// by its index or name.
func (e *executor) resolveFilter(sel *ast.FilterSelector, node *LocatedNode) (LocatedNodeList, error) {
	var out LocatedNodeList

	switch val := node.Value.(type) {
	case []any:
		for i, elem := range val {
			ok, err := e.evalLogicalOr(sel.Expr, elem)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, childNode(node, IndexElement(i), elem))
			}
		}
	case map[string]any:
		for _, key := range sortedKeys(val) {
			ok, err := e.evalLogicalOr(sel.Expr, val[key])
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, childNode(node, NameElement(key), val[key]))
			}
		}
	}

	return out, nil
}

// childNodes returns a node for each member value of an object, in sorted
// name order, or for each element of an array, in index order. Any other
// value has no children.
func childNodes(node *LocatedNode) LocatedNodeList {
	switch val := node.Value.(type) {
	case map[string]any:
		out := make(LocatedNodeList, 0, len(val))
		for _, key := range sortedKeys(val) {
			out = append(out, childNode(node, NameElement(key), val[key]))
		}
		return out
	case []any:
		out := make(LocatedNodeList, len(val))
		for i, elem := range val {
			out[i] = childNode(node, IndexElement(i), elem)
		}
		return out
	default:
		return nil
	}
}

// childNode returns a node for val located one step beneath parent. The
// location list is always freshly allocated, so sibling nodes never share
// backing storage.
func childNode(parent *LocatedNode, elem PathElement, val any) *LocatedNode {
	loc := make(NormalizedPath, len(parent.Path)+1)
	copy(loc, parent.Path)
	loc[len(parent.Path)] = elem
	return &LocatedNode{Value: val, Path: loc}
}

// sortedKeys returns the keys of obj in sorted order.
func sortedKeys(obj map[string]any) []string {
	keys := maps.Keys(obj)
	slices.Sort(keys)
	return keys
}
