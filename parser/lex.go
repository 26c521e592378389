// Package parser parses RFC 9535 JSONPath queries. The lexer turns a query
// into a token sequence, and a single-lookahead recursive descent parser
// assembles the tokens into an [ast.PathQuery], type-checking function calls
// in filter expressions against a function registry as it goes.
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

// Kind identifies a lexical token type.
type Kind int16

//revive:disable:exported
const (
	Invalid      Kind = iota // error token; Text holds the message
	EOF                      // end of input
	Root                     // $
	Current                  // @
	Dot                      // .
	DotDot                   // ..
	LeftBracket              // [
	RightBracket             // ]
	LeftParen                // (
	RightParen               // )
	Star                     // *
	Question                 // ?
	Comma                    // ,
	Colon                    // :
	Equal                    // ==
	NotEqual                 // !=
	Less                     // <
	LessEqual                // <=
	Greater                  // >
	GreaterEqual             // >=
	And                      // &&
	Or                       // ||
	Not                      // !
	Ident                    // identifier
	Integer                  // integer literal
	Number                   // decimal number literal
	String                   // quoted string; Text holds the decoded content
	True                     // true
	False                    // false
	Null                     // null
)

var kindNames = [...]string{
	Invalid:      "invalid",
	EOF:          "end of input",
	Root:         "$",
	Current:      "@",
	Dot:          ".",
	DotDot:       "..",
	LeftBracket:  "[",
	RightBracket: "]",
	LeftParen:    "(",
	RightParen:   ")",
	Star:         "*",
	Question:     "?",
	Comma:        ",",
	Colon:        ":",
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
	And:          "&&",
	Or:           "||",
	Not:          "!",
	Ident:        "identifier",
	Integer:      "integer",
	Number:       "number",
	String:       "string",
	True:         "true",
	False:        "false",
	Null:         "null",
}

// String returns the human-readable name of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Token is a single lexical token. Start and End record the byte offsets of
// the token in the source query for diagnostics; Equal ignores them.
type Token struct {
	// Kind is the token type.
	Kind Kind
	// Text is the token text. For String tokens it holds the decoded string
	// content; for Invalid tokens it holds the error message.
	Text string
	// Start is the byte offset of the token in the query, inclusive.
	Start int
	// End is the byte offset of the end of the token, exclusive.
	End int
}

// Equal returns true if t and tok have the same kind and text, ignoring
// their source positions.
func (t Token) Equal(tok Token) bool {
	return t.Kind == tok.Kind && t.Text == tok.Text
}

// String returns a description of t for error messages.
func (t Token) String() string {
	switch t.Kind {
	case Ident, Integer, Number:
		return t.Text
	case String:
		return fmt.Sprintf("%q", t.Text)
	case Invalid:
		return t.Text
	default:
		return t.Kind.String()
	}
}

// lexer scans a JSONPath query into tokens.
type lexer struct {
	src     string
	r       rune // current rune; -1 at end of input
	rPos    int  // byte offset of the current rune
	nextPos int  // byte offset after the current rune
}

// newLexer creates a lexer for src.
func newLexer(src string) *lexer {
	l := &lexer{src: src, r: -1}
	l.next()
	return l
}

// lex scans src into a token sequence ending with an EOF or Invalid token.
func lex(src string) []Token {
	l := newLexer(src)
	toks := make([]Token, 0, len(src)/2+1)
	for {
		tok := l.scan()
		toks = append(toks, tok)
		if tok.Kind == EOF || tok.Kind == Invalid {
			return toks
		}
	}
}

// next advances to the next rune. Returns -1 at end of input.
func (l *lexer) next() rune {
	if l.nextPos < len(l.src) {
		l.rPos = l.nextPos
		r, w := rune(l.src[l.nextPos]), 1
		if r >= utf8.RuneSelf {
			r, w = utf8.DecodeRuneInString(l.src[l.nextPos:])
		}
		l.nextPos += w
		l.r = r
	} else {
		l.rPos = len(l.src)
		l.r = -1
	}
	return l.r
}

// peek returns the next rune without advancing. Returns -1 at end of input.
func (l *lexer) peek() rune {
	if l.nextPos < len(l.src) {
		r := rune(l.src[l.nextPos])
		if r >= utf8.RuneSelf {
			r, _ = utf8.DecodeRuneInString(l.src[l.nextPos:])
		}
		return r
	}
	return -1
}

// errToken creates an Invalid token and halts the lexer.
func (l *lexer) errToken(start int, msg string) Token {
	l.r = -1
	return Token{Kind: Invalid, Text: msg, Start: start, End: l.rPos}
}

// token emits a token of kind k spanning from start to the current position.
func (l *lexer) token(k Kind, start int) Token {
	return Token{Kind: k, Text: l.src[start:l.rPos], Start: start, End: l.rPos}
}

// scan returns the next token. Once it has returned an EOF or Invalid token
// it continues to return that token.
func (l *lexer) scan() Token {
	// Skip blank space: SP / HTAB / LF / CR (RFC 9535 §2.1).
	for isBlankSpace(l.r) {
		l.next()
	}

	if l.r < 0 {
		return Token{Kind: EOF, Start: l.rPos, End: l.rPos}
	}

	start := l.rPos

	switch l.r {
	case '$':
		l.next()
		return l.token(Root, start)
	case '@':
		l.next()
		return l.token(Current, start)
	case '[':
		l.next()
		return l.token(LeftBracket, start)
	case ']':
		l.next()
		return l.token(RightBracket, start)
	case '(':
		l.next()
		return l.token(LeftParen, start)
	case ')':
		l.next()
		return l.token(RightParen, start)
	case '*':
		l.next()
		return l.token(Star, start)
	case '?':
		l.next()
		return l.token(Question, start)
	case ',':
		l.next()
		return l.token(Comma, start)
	case ':':
		l.next()
		return l.token(Colon, start)
	case '.':
		if l.peek() == '.' {
			l.next()
			l.next()
			return l.token(DotDot, start)
		}
		l.next()
		return l.token(Dot, start)
	case '=':
		if l.peek() == '=' {
			l.next()
			l.next()
			return l.token(Equal, start)
		}
		l.next()
		return l.errToken(start, `unexpected "="`)
	case '!':
		if l.peek() == '=' {
			l.next()
			l.next()
			return l.token(NotEqual, start)
		}
		l.next()
		return l.token(Not, start)
	case '<':
		if l.peek() == '=' {
			l.next()
			l.next()
			return l.token(LessEqual, start)
		}
		l.next()
		return l.token(Less, start)
	case '>':
		if l.peek() == '=' {
			l.next()
			l.next()
			return l.token(GreaterEqual, start)
		}
		l.next()
		return l.token(Greater, start)
	case '&':
		if l.peek() == '&' {
			l.next()
			l.next()
			return l.token(And, start)
		}
		l.next()
		return l.errToken(start, `unexpected "&"`)
	case '|':
		if l.peek() == '|' {
			l.next()
			l.next()
			return l.token(Or, start)
		}
		l.next()
		return l.errToken(start, `unexpected "|"`)
	case '"', '\'':
		return l.scanString()
	case '-':
		return l.scanNumber()
	default:
		if isDigit(l.r) {
			return l.scanNumber()
		}
		if isNameFirst(l.r) {
			return l.scanIdent()
		}
		r := l.r
		l.next()
		return l.errToken(start, fmt.Sprintf("unexpected character %q", r))
	}
}

// scanIdent scans an identifier or the keywords true, false, and null. On
// entry l.r must be a name-first character.
func (l *lexer) scanIdent() Token {
	start := l.rPos
	for isNameChar(l.r) {
		l.next()
	}

	tok := l.token(Ident, start)
	switch tok.Text {
	case "true":
		tok.Kind = True
	case "false":
		tok.Kind = False
	case "null":
		tok.Kind = Null
	}
	return tok
}

// scanNumber scans an integer or decimal number literal per RFC 9535 §2.3.3.
// Multi-digit literals must not start with 0 or -0. On entry l.r must be '-'
// or a digit.
func (l *lexer) scanNumber() Token {
	start := l.rPos

	if l.r == '-' {
		l.next()
		if !isDigit(l.r) {
			return l.errToken(start, `expected digit after "-"`)
		}
	}

	if l.r == '0' {
		l.next()
		if isDigit(l.r) {
			return l.errToken(start, "leading zeros disallowed")
		}
	} else {
		for isDigit(l.r) {
			l.next()
		}
	}

	kind := Integer

	// Fraction: "." 1*DIGIT.
	if l.r == '.' && isDigit(l.peek()) {
		kind = Number
		l.next()
		for isDigit(l.r) {
			l.next()
		}
	}

	// Exponent: "e" [ "-" / "+" ] 1*DIGIT.
	if l.r == 'e' || l.r == 'E' {
		kind = Number
		l.next()
		if l.r == '+' || l.r == '-' {
			l.next()
		}
		if !isDigit(l.r) {
			return l.errToken(start, "expected digit in exponent")
		}
		for isDigit(l.r) {
			l.next()
		}
	}

	return l.token(kind, start)
}

// scanString scans a single- or double-quoted string literal per RFC 9535
// §2.3.1.1, decoding escape sequences into the token text. On entry l.r must
// be the opening quote.
func (l *lexer) scanString() Token {
	start := l.rPos
	quote := l.r
	l.next()

	buf := new(strings.Builder)
	for l.r >= 0 {
		switch {
		case l.r == quote:
			l.next()
			return Token{Kind: String, Text: buf.String(), Start: start, End: l.rPos}
		case l.r == '\\':
			if !l.scanEscape(quote, buf) {
				return l.errToken(start, "invalid escape sequence")
			}
		case isUnescaped(l.r, quote):
			buf.WriteRune(l.r)
			l.next()
		default:
			return l.errToken(start, fmt.Sprintf("invalid character %U in string", l.r))
		}
	}

	return l.errToken(start, "unterminated string")
}

// scanEscape decodes one escape sequence into buf. On entry l.r must be the
// backslash. Returns false for an invalid escape.
func (l *lexer) scanEscape(quote rune, buf *strings.Builder) bool {
	l.next()

	switch l.r {
	case quote:
		buf.WriteRune(quote)
	case 'b':
		buf.WriteByte('\b')
	case 'f':
		buf.WriteByte('\f')
	case 'n':
		buf.WriteByte('\n')
	case 'r':
		buf.WriteByte('\r')
	case 't':
		buf.WriteByte('\t')
	case '/':
		buf.WriteByte('/')
	case '\\':
		buf.WriteByte('\\')
	case 'u':
		return l.scanUnicodeEscape(buf)
	default:
		return false
	}
	l.next()
	return true
}

// scanUnicodeEscape decodes a \uXXXX escape, including UTF-16 surrogate
// pairs. On entry l.r must be the 'u'.
func (l *lexer) scanUnicodeEscape(buf *strings.Builder) bool {
	l.next()

	r := l.scanHex4()
	if r < 0 {
		return false
	}

	if !utf16.IsSurrogate(r) {
		buf.WriteRune(r)
		return true
	}

	// A high surrogate must be followed by an escaped low surrogate.
	const lowSurrogateMin = 0xDC00
	if r >= lowSurrogateMin || l.r != '\\' {
		return false
	}
	l.next()
	if l.r != 'u' {
		return false
	}
	l.next()

	low := l.scanHex4()
	if low < 0 {
		return false
	}

	dec := utf16.DecodeRune(r, low)
	if dec == unicode.ReplacementChar {
		return false
	}

	buf.WriteRune(dec)
	return true
}

// scanHex4 scans exactly four hex digits and returns the code point, or -1
// on any non-hex character.
func (l *lexer) scanHex4() rune {
	const hexBase = 16
	var r rune
	for range 4 {
		h := hexChar(l.r)
		if h < 0 {
			return -1
		}
		r = r*hexBase + h
		l.next()
	}
	return r
}

// hexChar returns the numeric value of hex digit r, or -1 if r is not a hex
// digit.
func hexChar(r rune) rune {
	const decimal = 10
	switch {
	case '0' <= r && r <= '9':
		return r - '0'
	case 'a' <= r && r <= 'f':
		return r - 'a' + decimal
	case 'A' <= r && r <= 'F':
		return r - 'A' + decimal
	default:
		return -1
	}
}

// isBlankSpace reports whether r is RFC 9535 blank space.
func isBlankSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// isDigit reports whether r is an ASCII digit.
func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isNameFirst reports whether r may start a member name per RFC 9535
// §2.5.1.1: ALPHA / "_" / %x80-D7FF / %xE000-10FFFF.
func isNameFirst(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		r == '_' ||
		(r >= 0x80 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0x10FFFF)
}

// isNameChar reports whether r may continue a member name: name-first plus
// digits.
func isNameChar(r rune) bool {
	return isNameFirst(r) || isDigit(r)
}

// isUnescaped reports whether r may appear unescaped in a string delimited
// by quote, per RFC 9535 §2.3.1.1.
func isUnescaped(r, quote rune) bool {
	if r == quote {
		return false
	}
	// %x20-5B / %x5D-D7FF / %xE000-10FFFF; 0x5C is the backslash.
	return (r >= 0x20 && r <= 0x5B) ||
		(r >= 0x5D && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0x10FFFF)
}
