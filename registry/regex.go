package registry

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/theory/jsonpath/ast"
)

// ErrRegex errors are returned for invalid match() and search() patterns
// when the registry is constructed with [WithStrictRegex].
var ErrRegex = errors.New("regex")

// regexMatcher implements the match() and search() extensions (RFC 9535
// §2.4.6 and §2.4.7). Patterns use RFC 9485 I-Regexp syntax, translated to
// Go regexp syntax before compilation. Compiled patterns are held in a
// bounded LRU cache keyed by the translated pattern, so match() and
// search(), which anchor the same source pattern differently, never collide
// in the cache they share. The cache performs no locking of its own, so
// every matcher sharing it must also share mu.
type regexMatcher struct {
	mu     *sync.Mutex
	cache  *lruCache
	full   bool // anchor the pattern to match the whole value
	strict bool // report compilation failures instead of failing to match
}

// newRegexFunc returns the match() (full = true) or search() (full = false)
// function extension, holding compiled patterns in cache under mu.
func newRegexFunc(name string, full bool, cache *lruCache, mu *sync.Mutex, strict bool) *ast.Function {
	m := &regexMatcher{mu: mu, cache: cache, full: full, strict: strict}
	return &ast.Function{
		Name:       name,
		ArgTypes:   []ast.FuncType{ast.FuncValue, ast.FuncValue},
		ReturnType: ast.FuncLogical,
		Call:       m.call,
	}
}

// call reports whether the first argument matches the I-Regexp pattern in
// the second. A non-string argument never matches and never errors. An
// uncompilable pattern never matches, or returns an error in strict mode.
func (m *regexMatcher) call(args []any) (any, error) {
	val, ok := args[0].(string)
	if !ok {
		return false, nil
	}
	pattern, ok := args[1].(string)
	if !ok {
		return false, nil
	}

	re, err := m.compile(pattern)
	if err != nil {
		if m.strict {
			return false, fmt.Errorf("%w: %v", ErrRegex, err)
		}
		return false, nil
	}

	return re.MatchString(val), nil
}

// compile returns the compiled pattern, from the cache when present.
func (m *regexMatcher) compile(pattern string) (*regexp.Regexp, error) {
	src := translateRegex(pattern, m.full)

	m.mu.Lock()
	defer m.mu.Unlock()

	if re, ok := m.cache.get(src); ok {
		return re, nil
	}

	re, err := regexp.Compile(src)
	if err != nil {
		//nolint:wrapcheck // Wrapped by call in strict mode.
		return nil, err
	}

	m.cache.put(src, re)
	return re, nil
}

// translateRegex converts an RFC 9485 I-Regexp pattern to Go regexp syntax.
// I-Regexp "." matches any character except \n and \r, so an unescaped dot
// outside a character class becomes [^\n\r]. When full is true the result is
// anchored to match the entire value, as match() requires.
func translateRegex(pattern string, full bool) string {
	buf := new(strings.Builder)
	var escaped, inClass bool

	for _, r := range pattern {
		if escaped {
			buf.WriteByte('\\')
			buf.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			escaped = true
		case '[':
			inClass = true
			buf.WriteRune(r)
		case ']':
			inClass = false
			buf.WriteRune(r)
		case '.':
			if inClass {
				buf.WriteRune(r)
			} else {
				buf.WriteString(`[^\n\r]`)
			}
		default:
			buf.WriteRune(r)
		}
	}

	if escaped {
		// Trailing backslash; leave it for regexp.Compile to report.
		buf.WriteByte('\\')
	}

	if full {
		return `\A(?:` + buf.String() + `)\z`
	}
	return buf.String()
}
