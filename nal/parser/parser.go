// Package parser turns Narsese text into terms, punctuation, and truth
// values in a single synchronous pass.
//
// Grammar (informal):
//
//	statement    := term punctuation [truthLiteral]
//	term         := atom | variable
//	              | '<' term copula term '>'
//	              | '(' term connective term {connective term} ')'
//	              | prefixOp '(' term {',' term} ')'
//	copula       := '-->' | '<->' | '==>' | '<=>'
//	connective   := '&&' | '||' | '*'
//	prefixOp     := '--' | '&&' | '||' | '*'
//	variable     := ('$'|'#'|'?') ident
//	truthLiteral := '%' frequency ';' confidence '%'
//	punctuation  := '.' | '?' | '!'
package parser

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
)

// Result is one parsed statement. Truth is nil for questions and goals.
type Result struct {
	Term        *term.Term
	Punctuation task.Punctuation
	Truth       *truth.Value
}

// Parser parses Narsese statements, interning terms through the factory it
// was built with. A Parser is stateless between calls.
type Parser struct {
	factory *term.Factory
}

// New creates a parser interning into the given factory.
func New(factory *term.Factory) *Parser {
	return &Parser{factory: factory}
}

// Parse consumes exactly one statement. It fails with a *ParseError on
// malformed input, and with the distinct KindTrailing when non-whitespace
// remains after a complete statement.
func (p *Parser) Parse(input string) (*Result, error) {
	s := &scan{src: []rune(input), factory: p.factory}

	t, err := s.parseTerm()
	if err != nil {
		return nil, err
	}

	s.skipWS()
	punct, err := s.parsePunctuation()
	if err != nil {
		return nil, err
	}

	var tv *truth.Value
	s.skipWS()
	if s.peek() == '%' {
		if punct != task.Judgment {
			return nil, s.err(KindSyntax, "questions and goals carry no truth literal").
				WithSuggestion("remove the %frequency;confidence% literal")
		}
		v, err := s.parseTruthLiteral()
		if err != nil {
			return nil, err
		}
		tv = v
	} else if punct == task.Judgment {
		v := truth.Default()
		tv = &v
	}

	s.skipWS()
	if !s.eof() {
		return nil, s.err(KindTrailing, "trailing input after complete statement").
			WithFound(string(s.src[s.pos:]))
	}

	return &Result{Term: t, Punctuation: punct, Truth: tv}, nil
}

// scan holds the per-call cursor state.
type scan struct {
	src     []rune
	pos     int
	factory *term.Factory
}

func (s *scan) eof() bool { return s.pos >= len(s.src) }

func (s *scan) peek() rune {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scan) next() rune {
	r := s.peek()
	if !s.eof() {
		s.pos++
	}
	return r
}

func (s *scan) skipWS() {
	for !s.eof() && unicode.IsSpace(s.src[s.pos]) {
		s.pos++
	}
}

func (s *scan) has(prefix string) bool {
	return strings.HasPrefix(string(s.src[s.pos:]), prefix)
}

func (s *scan) err(kind ErrorKind, msg string) *ParseError {
	return NewParseError(kind, msg).WithPosition(positionAt(s.src, s.pos))
}

// wrapFactoryErr converts a term-construction failure into a positioned
// parse error so callers see one error type.
func (s *scan) wrapFactoryErr(err error, kind ErrorKind) *ParseError {
	return s.err(kind, err.Error()).WithUnderlying(err)
}

func (s *scan) parseTerm() (*term.Term, error) {
	s.skipWS()
	switch c := s.peek(); {
	case c == 0:
		return nil, s.err(KindSyntax, "expected a term")
	case c == '<':
		return s.parseStatement()
	case c == '(':
		return s.parseInfixCompound()
	case s.has("--("):
		return s.parsePrefixCompound(term.OpNegation, "--")
	case s.has("&&("):
		return s.parsePrefixCompound(term.OpConjunction, "&&")
	case s.has("||("):
		return s.parsePrefixCompound(term.OpDisjunction, "||")
	case s.has("*("):
		return s.parsePrefixCompound(term.OpProduct, "*")
	case c == '$' || c == '#' || c == '?':
		return s.parseVariable()
	case isIdentRune(c):
		return s.parseAtom()
	default:
		return nil, s.err(KindSyntax, "unexpected character at start of term").
			WithFound(string(c))
	}
}

func (s *scan) parseStatement() (*term.Term, error) {
	s.next() // '<'
	subject, err := s.parseTerm()
	if err != nil {
		return nil, err
	}

	s.skipWS()
	copula, err := s.parseCopula()
	if err != nil {
		return nil, err
	}

	predicate, err := s.parseTerm()
	if err != nil {
		return nil, err
	}

	s.skipWS()
	if s.peek() != '>' {
		return nil, s.err(KindSyntax, "unbalanced statement: expected '>'").
			WithFound(string(s.peek())).
			WithSuggestion("close the statement with '>'")
	}
	s.next()

	t, err := s.factory.Statement(subject, copula, predicate)
	if err != nil {
		return nil, s.wrapFactoryErr(err, KindSyntax)
	}
	return t, nil
}

var copulas = []term.Op{
	term.OpInheritance, term.OpSimilarity, term.OpImplication, term.OpEquivalence,
}

func (s *scan) parseCopula() (term.Op, error) {
	for _, c := range copulas {
		if s.has(string(c)) {
			s.pos += len([]rune(string(c)))
			return c, nil
		}
	}
	return "", s.err(KindUnknownOp, "unknown copula").
		WithFound(s.tokenAhead()).
		WithSuggestion("use one of -->, <->, ==>, <=>")
}

var connectives = []term.Op{
	term.OpConjunction, term.OpDisjunction, term.OpProduct,
}

func (s *scan) parseConnective() (term.Op, error) {
	for _, c := range connectives {
		if s.has(string(c)) {
			s.pos += len([]rune(string(c)))
			return c, nil
		}
	}
	return "", s.err(KindUnknownOp, "unknown connective").
		WithFound(s.tokenAhead()).
		WithSuggestion("use one of &&, ||, *")
}

func (s *scan) parseInfixCompound() (*term.Term, error) {
	s.next() // '('
	first, err := s.parseTerm()
	if err != nil {
		return nil, err
	}

	s.skipWS()
	op, err := s.parseConnective()
	if err != nil {
		return nil, err
	}

	components := []*term.Term{first}
	for {
		comp, err := s.parseTerm()
		if err != nil {
			return nil, err
		}
		components = append(components, comp)

		s.skipWS()
		switch {
		case s.peek() == ')':
			s.next()
			t, err := s.factory.Compound(op, components...)
			if err != nil {
				return nil, s.wrapFactoryErr(err, KindArity)
			}
			return t, nil
		case s.has(string(op)):
			s.pos += len([]rune(string(op)))
		default:
			return nil, s.err(KindSyntax, "unbalanced compound: expected ')' or repeated connective").
				WithFound(s.tokenAhead()).
				WithSuggestion("a compound mixes only one connective per parenthesis level")
		}
	}
}

func (s *scan) parsePrefixCompound(op term.Op, token string) (*term.Term, error) {
	s.pos += len([]rune(token))
	s.next() // '('

	var components []*term.Term
	for {
		comp, err := s.parseTerm()
		if err != nil {
			return nil, err
		}
		components = append(components, comp)

		s.skipWS()
		switch s.peek() {
		case ',':
			s.next()
		case ')':
			s.next()
			t, err := s.factory.Compound(op, components...)
			if err != nil {
				return nil, s.wrapFactoryErr(err, KindArity)
			}
			return t, nil
		default:
			return nil, s.err(KindSyntax, "unbalanced compound: expected ',' or ')'").
				WithFound(string(s.peek()))
		}
	}
}

func (s *scan) parseVariable() (*term.Term, error) {
	sigil := s.next()
	name := s.readIdent()
	if name == "" {
		return nil, s.err(KindSyntax, "expected variable name after sigil").
			WithFound(string(sigil))
	}

	var kind term.Op
	switch sigil {
	case '$':
		kind = term.OpIndepVar
	case '#':
		kind = term.OpDepVar
	case '?':
		kind = term.OpQueryVar
	}
	t, err := s.factory.Variable(kind, name)
	if err != nil {
		return nil, s.wrapFactoryErr(err, KindSyntax)
	}
	return t, nil
}

func (s *scan) parseAtom() (*term.Term, error) {
	name := s.readIdent()
	t, err := s.factory.Atom(name)
	if err != nil {
		return nil, s.wrapFactoryErr(err, KindSyntax)
	}
	return t, nil
}

func (s *scan) parsePunctuation() (task.Punctuation, error) {
	p := task.Punctuation(s.peek())
	if !p.Valid() {
		return 0, s.err(KindSyntax, "expected punctuation after term").
			WithFound(string(s.peek())).
			WithSuggestion("end the statement with '.', '?' or '!'")
	}
	s.next()
	return p, nil
}

func (s *scan) parseTruthLiteral() (*truth.Value, error) {
	s.next() // '%'
	freq, err := s.parseTruthComponent("frequency")
	if err != nil {
		return nil, err
	}
	if s.peek() != ';' {
		return nil, s.err(KindSyntax, "expected ';' between frequency and confidence").
			WithFound(string(s.peek()))
	}
	s.next()
	conf, err := s.parseTruthComponent("confidence")
	if err != nil {
		return nil, err
	}
	if s.peek() != '%' {
		return nil, s.err(KindSyntax, "unterminated truth literal: expected closing '%'").
			WithFound(string(s.peek()))
	}
	s.next()

	if freq < 0 || freq > 1 {
		return nil, s.err(KindTruthRange, "frequency must be in [0,1]").
			WithFound(strconv.FormatFloat(freq, 'g', -1, 64))
	}
	if conf < 0 || conf >= 1 {
		return nil, s.err(KindTruthRange, "confidence must be in [0,1)").
			WithFound(strconv.FormatFloat(conf, 'g', -1, 64))
	}
	v := truth.New(freq, conf)
	return &v, nil
}

func (s *scan) parseTruthComponent(name string) (float64, error) {
	start := s.pos
	for !s.eof() && (unicode.IsDigit(s.peek()) || s.peek() == '.') {
		s.pos++
	}
	text := string(s.src[start:s.pos])
	if text == "" {
		return 0, s.err(KindSyntax, "expected "+name+" in truth literal").
			WithFound(string(s.peek()))
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, s.err(KindSyntax, "malformed "+name+" in truth literal").
			WithFound(text).WithUnderlying(err)
	}
	return f, nil
}

func (s *scan) readIdent() string {
	start := s.pos
	for !s.eof() && isIdentRune(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// tokenAhead returns a short preview of the upcoming input for error
// messages, stopping at whitespace or a structural character.
func (s *scan) tokenAhead() string {
	end := s.pos
	for end < len(s.src) && end-s.pos < 8 {
		c := s.src[end]
		if unicode.IsSpace(c) || c == '>' || c == ')' || c == ',' {
			break
		}
		end++
	}
	return string(s.src[s.pos:end])
}

func isIdentRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}
