// Package registry maintains the collection of JSONPath function extensions
// available to filter expressions. A new registry starts with the RFC 9535
// built-in functions, length(), count(), value(), match(), and search(),
// and additional extensions can be registered under the [ast.Function]
// contract.
package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/theory/jsonpath/ast"
)

// ErrRegister errors are returned for invalid function registration.
var ErrRegister = errors.New("registry")

// defaultCacheSize is the default capacity of the regular expression cache
// shared by the match() and search() extensions.
const defaultCacheSize = 128

// Option configures a Registry.
type Option func(*config)

type config struct {
	cacheSize   int
	strictRegex bool
}

// WithRegexCacheSize sets the capacity of the compiled-pattern cache used by
// the match() and search() extensions. A size of zero disables caching, so
// every call compiles its pattern anew.
func WithRegexCacheSize(size int) Option {
	return func(cfg *config) { cfg.cacheSize = size }
}

// WithStrictRegex promotes pattern compilation failures in match() and
// search() to errors returned from query execution. Without it an invalid
// pattern simply fails to match.
func WithStrictRegex() Option {
	return func(cfg *config) { cfg.strictRegex = true }
}

// Registry maps function names to function extensions. It is used by the
// parser to type-check call sites at parse time and by the execution engine
// to invoke functions. Registration is not synchronized; register all
// extensions before sharing the registry between goroutines.
type Registry struct {
	funcs map[string]*ast.Function
}

// New returns a new Registry populated with the RFC 9535 built-in functions.
func New(opt ...Option) *Registry {
	cfg := config{cacheSize: defaultCacheSize}
	for _, o := range opt {
		o(&cfg)
	}

	reg := &Registry{funcs: make(map[string]*ast.Function, len(builtins)+2)}
	for _, fn := range builtins {
		reg.funcs[fn.Name] = fn
	}

	// match() and search() share one pattern cache, serialized by one mutex.
	cache := newLRUCache(cfg.cacheSize)
	mu := new(sync.Mutex)
	reg.funcs["match"] = newRegexFunc("match", true, cache, mu, cfg.strictRegex)
	reg.funcs["search"] = newRegexFunc("search", false, cache, mu, cfg.strictRegex)

	return reg
}

// Register adds fn to the registry. It returns an error if a function is
// already registered under the same name, including the built-ins.
func (reg *Registry) Register(fn *ast.Function) error {
	if _, ok := reg.funcs[fn.Name]; ok {
		return fmt.Errorf("%w: function %v() already registered", ErrRegister, fn.Name)
	}
	reg.funcs[fn.Name] = fn
	return nil
}

// Lookup returns the function registered under name, or nil if there is
// none.
func (reg *Registry) Lookup(name string) *ast.Function {
	return reg.funcs[name]
}
