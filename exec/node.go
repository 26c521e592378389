package exec

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// PathElement is one step in a normalized path: a [NameElement] for an
// object member name or an [IndexElement] for an array index.
type PathElement interface {
	pathElement()
	// writeNormalizedTo writes the element to buf in RFC 9535 §2.7
	// normalized path notation.
	writeNormalizedTo(buf *strings.Builder)
	// writePointerTo writes the element to buf as an RFC 6901 JSON Pointer
	// reference token.
	writePointerTo(buf *strings.Builder)
}

// NameElement is an object member name in a normalized path.
type NameElement string

func (NameElement) pathElement() {}

// writeNormalizedTo writes n to buf as ['name'], escaping per RFC 9535 §2.7.
func (n NameElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteString("['")
	for _, r := range string(n) {
		switch r {
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\'':
			buf.WriteString(`\'`)
		case '\\':
			buf.WriteString(`\\`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteString("']")
}

// writePointerTo writes n to buf with ~ escaped as ~0 and / as ~1.
func (n NameElement) writePointerTo(buf *strings.Builder) {
	s := strings.ReplaceAll(string(n), "~", "~0")
	buf.WriteString(strings.ReplaceAll(s, "/", "~1"))
}

// IndexElement is an array index in a normalized path.
type IndexElement int

func (IndexElement) pathElement() {}

// writeNormalizedTo writes i to buf as [i].
func (i IndexElement) writeNormalizedTo(buf *strings.Builder) {
	buf.WriteByte('[')
	buf.WriteString(strconv.Itoa(int(i)))
	buf.WriteByte(']')
}

// writePointerTo writes i to buf as its decimal representation.
func (i IndexElement) writePointerTo(buf *strings.Builder) {
	buf.WriteString(strconv.Itoa(int(i)))
}

// NormalizedPath identifies a single node in a JSON query argument as the
// ordered list of names and indexes leading from the root to the node, per
// RFC 9535 §2.7. Callers must not modify it after a query returns it.
type NormalizedPath []PathElement

// String returns the normalized path notation for p, e.g., $['a'][0].
func (p NormalizedPath) String() string {
	buf := new(strings.Builder)
	buf.WriteByte('$')
	for _, elem := range p {
		elem.writeNormalizedTo(buf)
	}
	return buf.String()
}

// Pointer returns the RFC 6901 JSON Pointer for p, e.g., /a/0.
func (p NormalizedPath) Pointer() string {
	buf := new(strings.Builder)
	for _, elem := range p {
		buf.WriteByte('/')
		elem.writePointerTo(buf)
	}
	return buf.String()
}

// Compare compares p to q element by element and returns -1, 0, or 1.
// Indexes order before names, and a prefix orders before any path it
// prefixes.
func (p NormalizedPath) Compare(q NormalizedPath) int {
	for i := range min(len(p), len(q)) {
		name1, isName1 := p[i].(NameElement)
		name2, isName2 := q[i].(NameElement)
		switch {
		case isName1 && isName2:
			if x := cmp.Compare(name1, name2); x != 0 {
				return x
			}
		case isName1:
			return 1
		case isName2:
			return -1
		default:
			idx1 := p[i].(IndexElement)
			idx2 := q[i].(IndexElement)
			if x := cmp.Compare(idx1, idx2); x != 0 {
				return x
			}
		}
	}
	return cmp.Compare(len(p), len(q))
}

// MarshalText implements [encoding.TextMarshaler], marshaling p to its
// normalized path notation.
func (p NormalizedPath) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// LocatedNode pairs a value selected from a JSON query argument with the
// [NormalizedPath] of its location.
type LocatedNode struct {
	// Value is the selected value, a reference into the query argument.
	Value any
	// Path is the location of the value.
	Path NormalizedPath
}

// NodeList is the ordered list of values selected by a query.
type NodeList []any

// LocatedNodeList is the ordered list of nodes selected by a query,
// together with their locations.
type LocatedNodeList []*LocatedNode

// Values returns the values of the nodes in list, in order.
func (list LocatedNodeList) Values() NodeList {
	vals := make(NodeList, len(list))
	for i, node := range list {
		vals[i] = node.Value
	}
	return vals
}

// Deduplicate removes nodes with duplicate locations from list in place,
// preserving the order of first occurrence, and returns the shortened list.
func (list LocatedNodeList) Deduplicate() LocatedNodeList {
	if len(list) <= 1 {
		return list
	}

	seen := make(map[string]struct{}, len(list))
	uniq := list[:0]
	for _, node := range list {
		p := node.Path.String()
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			uniq = append(uniq, node)
		}
	}
	clear(list[len(uniq):])
	return slices.Clip(uniq)
}

// Sort sorts list by location.
func (list LocatedNodeList) Sort() {
	slices.SortFunc(list, func(a, b *LocatedNode) int {
		return a.Path.Compare(b.Path)
	})
}
