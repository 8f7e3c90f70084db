package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse compiles a textual visibility rule into a Condition.
//
// Supported forms:
// - truthiness: `outside_broker_assets`
// - comparisons: `has_ffi == "Yes"`, `no_spouse != true`, `rank == 3`
// - composition: `a == "Yes" && !b`, `(a || b) && c != null`
//
// A blank rule yields a nil Condition (always visible).
func Parse(rule string) (Condition, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	stream := &tokenStream{tokens: tokens}
	cond, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("visibility/expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return cond, nil
}

// MustParse is Parse for static rules; it panics on malformed input.
func MustParse(rule string) Condition {
	cond, err := Parse(rule)
	if err != nil {
		panic(err)
	}
	return cond
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

// operators is matched longest first so "!=" wins over "!".
var operators = []struct {
	text string
	kind tokenKind
}{
	{"==", tokenEq},
	{"!=", tokenNeq},
	{"&&", tokenAnd},
	{"||", tokenOr},
	{"!", tokenNot},
	{"(", tokenLParen},
	{")", tokenRParen},
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	rest := strings.TrimLeftFunc(input, unicode.IsSpace)
	for rest != "" {
		tok, n, err := lex(rest)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		rest = strings.TrimLeftFunc(rest[n:], unicode.IsSpace)
	}
	return tokens, nil
}

// lex reads one token from the front of s and reports its byte length.
// Quoted literals take no escapes.
func lex(s string) (token, int, error) {
	for _, op := range operators {
		if strings.HasPrefix(s, op.text) {
			return token{kind: op.kind, raw: op.text}, len(op.text), nil
		}
	}

	c := s[0]
	switch {
	case c == '"' || c == '\'':
		end := strings.IndexByte(s[1:], c)
		if end < 0 {
			return token{}, 0, errors.New("visibility/expr: unterminated string literal")
		}
		return token{kind: tokenString, raw: s[1 : end+1]}, end + 2, nil
	case c == '-' || isWordByte(c):
		n := 1
		for n < len(s) && isWordByte(s[n]) {
			n++
		}
		return word(s[:n]), n, nil
	}
	return token{}, 0, fmt.Errorf("visibility/expr: unexpected %q; use ==, !=, &&, || or !", c)
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func word(raw string) token {
	switch lower := strings.ToLower(raw); {
	case lower == "true" || lower == "false":
		return token{kind: tokenBool, raw: lower}
	case lower == "null":
		return token{kind: tokenNull, raw: lower}
	case raw[0] == '-' || raw[0] >= '0' && raw[0] <= '9':
		return token{kind: tokenNumber, raw: raw}
	}
	return token{kind: tokenIdentifier, raw: raw}
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseOr(stream *tokenStream) (Condition, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	if !stream.peek(tokenOr) {
		return left, nil
	}
	out := Or{left}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		out = append(out, right)
	}
	return out, nil
}

func parseAnd(stream *tokenStream) (Condition, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	if !stream.peek(tokenAnd) {
		return left, nil
	}
	out := And{left}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		out = append(out, right)
	}
	return out, nil
}

func parseUnary(stream *tokenStream) (Condition, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return parsePrimary(stream)
}

func parsePrimary(stream *tokenStream) (Condition, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("visibility/expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("visibility/expr: empty expression")
		}
		return nil, fmt.Errorf("visibility/expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	if stream.match(tokenEq) {
		lit, err := stream.consumeLiteral()
		if err != nil {
			return nil, err
		}
		return Eq{Field: ident.raw, Value: lit}, nil
	}
	if stream.match(tokenNeq) {
		lit, err := stream.consumeLiteral()
		if err != nil {
			return nil, err
		}
		return Ne{Field: ident.raw, Value: lit}, nil
	}

	return Truthy{Field: ident.raw}, nil
}

func (s *tokenStream) peek(kind tokenKind) bool {
	return s.pos < len(s.tokens) && s.tokens[s.pos].kind == kind
}

func (s *tokenStream) match(kind tokenKind) bool {
	if !s.peek(kind) {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if !s.peek(kind) {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (any, error) {
	if s.pos >= len(s.tokens) {
		return nil, errors.New("visibility/expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return tok.raw, nil
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("visibility/expr: invalid number literal %q", tok.raw)
		}
		return value, nil
	case tokenBool:
		return tok.raw == "true", nil
	case tokenNull:
		return nil, nil
	case tokenIdentifier:
		// Bare identifiers are treated as strings to keep catalogs forgiving.
		return tok.raw, nil
	default:
		return nil, fmt.Errorf("visibility/expr: expected literal, got %q", tok.raw)
	}
}
