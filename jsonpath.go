// Package jsonpath implements RFC 9535 JSONPath query expressions.
//
// A JSONPath query selects zero or more nodes from a JSON value decoded
// into Go types: map[string]any objects, []any arrays, and scalar leaves.
// Compile a query with [Parse] and execute it any number of times with
// [Path.Select] or [Path.SelectLocated]; a compiled Path is immutable and
// safe for concurrent use.
package jsonpath

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/theory/jsonpath/ast"
	"github.com/theory/jsonpath/exec"
	"github.com/theory/jsonpath/parser"
	"github.com/theory/jsonpath/registry"
)

// Result types produced by query execution. See the exec package for their
// methods.
type (
	// NodeList is the ordered list of values selected by a query.
	NodeList = exec.NodeList

	// LocatedNode pairs a selected value with its normalized path.
	LocatedNode = exec.LocatedNode

	// LocatedNodeList is the ordered list of located nodes selected by a
	// query.
	LocatedNodeList = exec.LocatedNodeList

	// NormalizedPath identifies the location of a single node per RFC 9535
	// §2.7.
	NormalizedPath = exec.NormalizedPath
)

var (
	// ErrPath wraps parsing and execution errors.
	ErrPath = errors.New("path")

	// ErrScan wraps scanning errors.
	ErrScan = errors.New("scan")
)

// Parser compiles JSONPath query strings, type-checking filter function
// calls against its function registry.
type Parser struct {
	reg *registry.Registry
}

// Option configures a Parser.
type Option func(*parserConfig)

type parserConfig struct {
	regOpts []registry.Option
	funcs   []*ast.Function
}

// WithFunction makes the function extension fn available to compiled
// queries, alongside the RFC 9535 built-in functions.
func WithFunction(fn *ast.Function) Option {
	return func(cfg *parserConfig) { cfg.funcs = append(cfg.funcs, fn) }
}

// WithRegexCacheSize sets the capacity of the compiled-pattern cache used
// by the match() and search() extensions. A size of zero disables caching.
func WithRegexCacheSize(size int) Option {
	return func(cfg *parserConfig) {
		cfg.regOpts = append(cfg.regOpts, registry.WithRegexCacheSize(size))
	}
}

// WithStrictRegex promotes pattern compilation failures in match() and
// search() to errors returned from query execution. Without it an invalid
// pattern simply fails to match.
func WithStrictRegex() Option {
	return func(cfg *parserConfig) {
		cfg.regOpts = append(cfg.regOpts, registry.WithStrictRegex())
	}
}

// NewParser returns a new Parser configured by opt. Returns an error when a
// function registered with [WithFunction] duplicates the name of another
// function, including the built-ins.
func NewParser(opt ...Option) (*Parser, error) {
	cfg := parserConfig{}
	for _, o := range opt {
		o(&cfg)
	}

	reg := registry.New(cfg.regOpts...)
	for _, fn := range cfg.funcs {
		if err := reg.Register(fn); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPath, err)
		}
	}

	return &Parser{reg: reg}, nil
}

// Parse compiles path and returns the resulting Path. Returns an error on
// any grammar violation or filter function type mismatch.
func (p *Parser) Parse(path string) (*Path, error) {
	q, err := parser.Parse(path, p.reg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPath, err)
	}
	return &Path{query: q}, nil
}

// MustParse is like [Parser.Parse] but panics on failure.
func (p *Parser) MustParse(path string) *Path {
	pth, err := p.Parse(path)
	if err != nil {
		panic(err)
	}
	return pth
}

// defaultParser compiles queries for the package-level functions and for
// unmarshaling and scanning.
var defaultParser = &Parser{reg: registry.New()}

// Parse compiles path with the default parser, which provides the RFC 9535
// built-in filter functions. Returns an error on parse failure.
func Parse(path string) (*Path, error) {
	return defaultParser.Parse(path)
}

// MustParse is like [Parse] but panics on parse failure.
func MustParse(path string) *Path {
	return defaultParser.MustParse(path)
}

// Path is a compiled JSONPath query. It is immutable once compiled, and
// execution never modifies the query argument, so a Path may be used from
// multiple goroutines at once.
type Path struct {
	query *ast.PathQuery
}

// New creates and returns a new Path for query.
func New(query *ast.PathQuery) *Path {
	return &Path{query: query}
}

// String returns the canonical string representation of path. A zero-value
// or NULL-scanned Path stringifies as the empty string.
func (path *Path) String() string {
	if path.query == nil {
		return ""
	}
	return path.query.String()
}

// Query returns the compiled query AST.
func (path *Path) Query() *ast.PathQuery {
	return path.query
}

// Select returns the values path selects from input, in order. Errors from
// function extensions configured to report them (see
// [registry.WithStrictRegex]) yield an empty list; use [exec.Select] to
// receive such errors.
func (path *Path) Select(input any) NodeList {
	nodes, _ := exec.Select(path.query, input)
	return nodes
}

// SelectLocated returns the nodes path selects from input, in order, each
// paired with the normalized path of its location. Errors from function
// extensions configured to report them yield an empty list; use
// [exec.SelectLocated] to receive such errors.
func (path *Path) SelectLocated(input any) LocatedNodeList {
	nodes, _ := exec.SelectLocated(path.query, input)
	return nodes
}

// First returns the first value path selects from input, or nil if the
// query selects nothing.
func (path *Path) First(input any) (any, error) {
	//nolint:wrapcheck // Okay to return unwrapped error.
	return exec.First(path.query, input)
}

// Exists reports whether path selects at least one node from input.
func (path *Path) Exists(input any) (bool, error) {
	//nolint:wrapcheck // Okay to return unwrapped error.
	return exec.Exists(path.query, input)
}

// Scan implements sql.Scanner so Paths can be read from databases
// transparently. Database types that map to string and []byte are
// supported.
func (path *Path) Scan(src any) error {
	switch src := src.(type) {
	case nil:
		return nil
	case string:
		// An empty value from a table scans to a null Path.
		if src == "" {
			return nil
		}

		q, err := parser.Parse(src, defaultParser.reg)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrScan, err)
		}

		*path = Path{query: q}

	case []byte:
		if len(src) == 0 {
			return nil
		}
		return path.Scan(string(src))

	default:
		return fmt.Errorf("%w: unable to scan type %T into Path", ErrScan, src)
	}

	return nil
}

// Value implements driver.Valuer so that Paths can be written to databases
// transparently. Paths map to strings.
func (path Path) Value() (driver.Value, error) {
	return path.String(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (path Path) MarshalText() ([]byte, error) {
	return path.MarshalBinary()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (path *Path) UnmarshalText(data []byte) error {
	return path.UnmarshalBinary(data)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (path Path) MarshalBinary() ([]byte, error) {
	return []byte(path.String()), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (path *Path) UnmarshalBinary(data []byte) error {
	q, err := parser.Parse(string(data), defaultParser.reg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrScan, err)
	}
	*path = Path{query: q}
	return nil
}
