package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is returned, wrapped, for any grammar violation.
	ErrParse = errors.New("jsonpath")

	// ErrType is returned, wrapped, when a filter function call disagrees
	// with the declared types of the registered function.
	ErrType = errors.New("jsonpath type")
)

// SyntaxError describes a grammar violation. It wraps [ErrParse] and carries
// the offending token so callers can report the exact query position.
type SyntaxError struct {
	// Msg describes the violation.
	Msg string
	// Token is the offending token.
	Token Token
}

// Error returns the error message with the position of the offending token.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: %v at position %v", ErrParse, e.Msg, e.Token.Start)
}

// Unwrap returns [ErrParse].
func (*SyntaxError) Unwrap() error { return ErrParse }

// TypeError describes a function call whose arguments or result usage
// disagree with the registered function's declared types. It wraps [ErrType]
// and carries the function name token.
type TypeError struct {
	// Msg describes the mismatch.
	Msg string
	// Token is the function name token.
	Token Token
}

// Error returns the error message with the position of the function call.
func (e *TypeError) Error() string {
	return fmt.Sprintf("%v: %v at position %v", ErrType, e.Msg, e.Token.Start)
}

// Unwrap returns [ErrType].
func (*TypeError) Unwrap() error { return ErrType }

// stream is a single-lookahead cursor over a token sequence. The sequence
// always ends with an EOF or Invalid token; peek and next return that
// terminal token indefinitely once the cursor reaches it, so parsing code
// treats repeated terminal tokens as plain end of input.
type stream struct {
	toks []Token
	pos  int
}

// newStream returns a stream over toks, which must be non-empty and
// terminated by an EOF or Invalid token, as produced by lex.
func newStream(toks []Token) *stream {
	return &stream{toks: toks}
}

// peek returns the current token without consuming it.
func (s *stream) peek() Token {
	if s.pos < len(s.toks) {
		return s.toks[s.pos]
	}
	return s.toks[len(s.toks)-1]
}

// next consumes the current token and returns it.
func (s *stream) next() Token {
	tok := s.peek()
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return tok
}

// expect consumes and returns the current token if it is of kind k, and
// returns a syntax error without consuming anything otherwise.
func (s *stream) expect(k Kind) (Token, error) {
	if tok := s.peek(); tok.Kind != k {
		return tok, &SyntaxError{
			Msg:   fmt.Sprintf("expected %v but found %v", k, tok),
			Token: tok,
		}
	}
	return s.next(), nil
}

// expectNot returns a syntax error with msg if the current token is of kind
// k. It never consumes a token.
func (s *stream) expectNot(k Kind, msg string) error {
	if tok := s.peek(); tok.Kind == k {
		return &SyntaxError{Msg: msg, Token: tok}
	}
	return nil
}
