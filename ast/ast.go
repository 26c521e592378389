// Package ast provides an abstract syntax tree for RFC 9535 JSONPath
// queries.
//
// The [parser] constructs these nodes as it parses a query and assembles a
// [PathQuery] from the resulting segments. Every node renders back to its
// canonical JSONPath string representation via String.
package ast

import (
	"strconv"
	"strings"
)

// Selector represents a single JSONPath selector: a name, an index, a
// wildcard, an array slice, or a filter expression. The set of selectors is
// closed; each variant resolves against a JSON value in the exec package.
type Selector interface {
	// sealed restricts implementation to this package.
	sealed()

	// Singular returns true for selectors guaranteed to select at most one
	// node: [NameSelector] and [IndexSelector].
	Singular() bool

	// String returns the canonical JSONPath string representation of the
	// selector.
	String() string

	// writeTo writes the canonical representation of the selector to buf.
	writeTo(buf *strings.Builder)
}

// NameSelector selects a single member value of an object by its name.
type NameSelector struct {
	// Name is the object member name to select.
	Name string
}

// Name returns a new NameSelector that selects name.
func Name(name string) *NameSelector { return &NameSelector{Name: name} }

func (*NameSelector) sealed() {}

// Singular returns true: a name selects at most one node.
func (*NameSelector) Singular() bool { return true }

// String returns the double-quoted representation of the name.
func (s *NameSelector) String() string { return strconv.Quote(s.Name) }

func (s *NameSelector) writeTo(buf *strings.Builder) {
	buf.WriteString(s.String())
}

// IndexSelector selects a single array element by its index. Negative
// indexes count backward from the end of the array.
type IndexSelector struct {
	// Index is the array index to select.
	Index int64
}

// Index returns a new IndexSelector that selects the element at idx.
func Index(idx int64) *IndexSelector { return &IndexSelector{Index: idx} }

func (*IndexSelector) sealed() {}

// Singular returns true: an index selects at most one node.
func (*IndexSelector) Singular() bool { return true }

// String returns the decimal representation of the index.
func (s *IndexSelector) String() string {
	return strconv.FormatInt(s.Index, 10)
}

func (s *IndexSelector) writeTo(buf *strings.Builder) {
	buf.WriteString(s.String())
}

// WildcardSelector selects every member value of an object or every element
// of an array.
type WildcardSelector struct{}

// Wildcard returns a WildcardSelector.
func Wildcard() *WildcardSelector { return &WildcardSelector{} }

func (*WildcardSelector) sealed() {}

// Singular returns false: a wildcard may select any number of nodes.
func (*WildcardSelector) Singular() bool { return false }

// String returns "*".
func (*WildcardSelector) String() string { return "*" }

func (*WildcardSelector) writeTo(buf *strings.Builder) {
	buf.WriteByte('*')
}

// SliceSelector selects a range of array elements. A nil Start, End, or Step
// takes its RFC 9535 default: step defaults to 1, and start and end default
// to the bounds of the array in the direction of the step.
type SliceSelector struct {
	Start *int64
	End   *int64
	Step  *int64
}

// Slice returns a new SliceSelector with the given bounds and step, any of
// which may be nil.
func Slice(start, end, step *int64) *SliceSelector {
	return &SliceSelector{Start: start, End: end, Step: step}
}

func (*SliceSelector) sealed() {}

// Singular returns false: a slice may select any number of nodes.
func (*SliceSelector) Singular() bool { return false }

// String returns the canonical start:end:step representation of the slice,
// omitting defaulted components.
func (s *SliceSelector) String() string {
	buf := new(strings.Builder)
	s.writeTo(buf)
	return buf.String()
}

func (s *SliceSelector) writeTo(buf *strings.Builder) {
	if s.Start != nil {
		buf.WriteString(strconv.FormatInt(*s.Start, 10))
	}
	buf.WriteByte(':')
	if s.End != nil {
		buf.WriteString(strconv.FormatInt(*s.End, 10))
	}
	if s.Step != nil {
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatInt(*s.Step, 10))
	}
}

// FilterSelector selects the children of an object or array for which its
// expression evaluates to true.
type FilterSelector struct {
	// Expr is the filter's logical expression.
	Expr LogicalOr
}

// Filter returns a new FilterSelector for expr.
func Filter(expr LogicalOr) *FilterSelector { return &FilterSelector{Expr: expr} }

func (*FilterSelector) sealed() {}

// Singular returns false: a filter may select any number of nodes.
func (*FilterSelector) Singular() bool { return false }

// String returns the canonical "?expr" representation of the filter.
func (s *FilterSelector) String() string {
	buf := new(strings.Builder)
	s.writeTo(buf)
	return buf.String()
}

func (s *FilterSelector) writeTo(buf *strings.Builder) {
	buf.WriteByte('?')
	s.Expr.writeTo(buf)
}

// Segment applies an ordered list of selectors to an input node. A child
// segment applies them to the node itself; a descendant segment applies them
// to the node and, in pre-order, to every node nested beneath it.
type Segment struct {
	selectors  []Selector
	descendant bool
}

// Child returns a new child Segment with sel.
func Child(sel ...Selector) *Segment {
	return &Segment{selectors: sel}
}

// Descendant returns a new descendant Segment with sel.
func Descendant(sel ...Selector) *Segment {
	return &Segment{selectors: sel, descendant: true}
}

// Selectors returns the ordered selectors of seg.
func (seg *Segment) Selectors() []Selector { return seg.selectors }

// IsDescendant returns true if seg is a descendant segment.
func (seg *Segment) IsDescendant() bool { return seg.descendant }

// Singular returns true if seg is a child segment with a single name or
// index selector.
func (seg *Segment) Singular() bool {
	return !seg.descendant && len(seg.selectors) == 1 && seg.selectors[0].Singular()
}

// String returns the canonical representation of seg, using shorthand
// notation (.name, .*) where the grammar allows it.
func (seg *Segment) String() string {
	buf := new(strings.Builder)
	seg.writeTo(buf)
	return buf.String()
}

func (seg *Segment) writeTo(buf *strings.Builder) {
	if seg.descendant {
		buf.WriteString("..")
		if seg.writeShorthandTo(buf) {
			return
		}
	} else if sh := new(strings.Builder); seg.writeShorthandTo(sh) {
		buf.WriteByte('.')
		buf.WriteString(sh.String())
		return
	}

	buf.WriteByte('[')
	for i, sel := range seg.selectors {
		if i > 0 {
			buf.WriteByte(',')
		}
		sel.writeTo(buf)
	}
	buf.WriteByte(']')
}

// writeShorthandTo writes the dotted shorthand for a lone wildcard or
// shorthand-safe name selector and reports whether it applies.
func (seg *Segment) writeShorthandTo(buf *strings.Builder) bool {
	if len(seg.selectors) != 1 {
		return false
	}
	switch sel := seg.selectors[0].(type) {
	case *WildcardSelector:
		buf.WriteByte('*')
		return true
	case *NameSelector:
		if isShorthandName(sel.Name) {
			buf.WriteString(sel.Name)
			return true
		}
	}
	return false
}

// isShorthandName reports whether name may appear in member-name-shorthand
// notation per RFC 9535 §2.5.1.1.
func isShorthandName(name string) bool {
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		case r >= 0x80 && r <= 0xD7FF, r >= 0xE000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return len(name) > 0
}

// PathQuery is an ordered list of segments applied from a starting node: the
// document root for queries rooted at $, or the current filter node for
// queries rooted at @.
type PathQuery struct {
	segments []*Segment
	root     bool
}

// Query returns a new PathQuery with segments. Pass true for root to start
// the query at $, false to start it at @.
func Query(root bool, segments ...*Segment) *PathQuery {
	return &PathQuery{segments: segments, root: root}
}

// Segments returns the ordered segments of q.
func (q *PathQuery) Segments() []*Segment { return q.segments }

// IsRoot returns true if q is rooted at $ rather than @.
func (q *PathQuery) IsRoot() bool { return q.root }

// Singular returns true if q is guaranteed to select at most one node: every
// segment must be a child segment with a single name or index selector.
func (q *PathQuery) Singular() bool {
	for _, seg := range q.segments {
		if !seg.Singular() {
			return false
		}
	}
	return true
}

// String returns the canonical JSONPath representation of q.
func (q *PathQuery) String() string {
	buf := new(strings.Builder)
	q.writeTo(buf)
	return buf.String()
}

func (q *PathQuery) writeTo(buf *strings.Builder) {
	if q.root {
		buf.WriteByte('$')
	} else {
		buf.WriteByte('@')
	}
	for _, seg := range q.segments {
		seg.writeTo(buf)
	}
}

func (*PathQuery) funcExprArg() {}
func (*PathQuery) compValue()   {}
