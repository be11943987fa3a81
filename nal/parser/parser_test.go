package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
)

func newParser() (*Parser, *term.Factory) {
	f := term.NewFactory()
	return New(f), f
}

func parseOK(t *testing.T, input string) *Result {
	t.Helper()
	p, _ := newParser()
	r, err := p.Parse(input)
	require.NoError(t, err, "input: %s", input)
	return r
}

func parseErr(t *testing.T, input string) *ParseError {
	t.Helper()
	p, _ := newParser()
	_, err := p.Parse(input)
	require.Error(t, err, "input: %s", input)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	return pe
}

func TestParseJudgmentWithTruth(t *testing.T) {
	r := parseOK(t, "<bird --> animal>. %1.0;0.9%")

	assert.Equal(t, task.Judgment, r.Punctuation)
	assert.Equal(t, "<bird --> animal>", r.Term.String())
	require.NotNil(t, r.Truth)
	assert.InDelta(t, 1.0, r.Truth.Frequency, 1e-9)
	assert.InDelta(t, 0.9, r.Truth.Confidence, 1e-9)
}

func TestParseJudgmentDefaultTruth(t *testing.T) {
	r := parseOK(t, "<bird --> animal>.")

	require.NotNil(t, r.Truth)
	assert.InDelta(t, 1.0, r.Truth.Frequency, 1e-9)
	assert.InDelta(t, 0.9, r.Truth.Confidence, 1e-9)
}

func TestParseQuestionAndGoal(t *testing.T) {
	q := parseOK(t, "<bird --> animal>?")
	assert.Equal(t, task.Question, q.Punctuation)
	assert.Nil(t, q.Truth)

	g := parseOK(t, "<robot --> helpful>!")
	assert.Equal(t, task.Goal, g.Punctuation)
	assert.Nil(t, g.Truth)
}

func TestParseCopulas(t *testing.T) {
	tests := []struct {
		input string
		op    term.Op
	}{
		{"<a --> b>.", term.OpInheritance},
		{"<a <-> b>.", term.OpSimilarity},
		{"<<a --> b> ==> <b --> c>>.", term.OpImplication},
		{"<<a --> b> <=> <b --> a>>.", term.OpEquivalence},
	}
	for _, tt := range tests {
		r := parseOK(t, tt.input)
		assert.Equal(t, tt.op, r.Term.Op, "input: %s", tt.input)
	}
}

func TestParseCompounds(t *testing.T) {
	r := parseOK(t, "(<a --> b> && <c --> d>).")
	assert.Equal(t, term.OpConjunction, r.Term.Op)
	assert.Len(t, r.Term.Components, 2)

	r = parseOK(t, "(x || y || z).")
	assert.Equal(t, term.OpDisjunction, r.Term.Op)
	assert.Len(t, r.Term.Components, 3)

	r = parseOK(t, "<(a * b) --> rel>.")
	assert.Equal(t, term.OpProduct, r.Term.Subject().Op)
}

func TestParsePrefixForms(t *testing.T) {
	r := parseOK(t, "--(alive).")
	assert.Equal(t, term.OpNegation, r.Term.Op)

	r = parseOK(t, "&&(a, b, c).")
	assert.Equal(t, term.OpConjunction, r.Term.Op)
	assert.Len(t, r.Term.Components, 3)
}

func TestParseVariables(t *testing.T) {
	r := parseOK(t, "<$x --> animal>.")
	assert.True(t, r.Term.Subject().IsVariable())
	assert.Equal(t, term.OpIndepVar, r.Term.Subject().Op)

	r = parseOK(t, "<?what --> animal>?")
	assert.Equal(t, term.OpQueryVar, r.Term.Subject().Op)

	r = parseOK(t, "<#y --> animal>.")
	assert.Equal(t, term.OpDepVar, r.Term.Subject().Op)
}

func TestParseWhitespaceInsensitive(t *testing.T) {
	compact := parseOK(t, "<bird-->animal>.")
	spaced := parseOK(t, "  < bird  -->  animal > .  ")
	assert.True(t, compact.Term.Equal(spaced.Term))
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  ErrorKind
	}{
		{"", KindSyntax},
		{"<bird --> animal.", KindSyntax},       // missing '>'
		{"<bird => animal>.", KindUnknownOp},    // bad copula
		{"(a ## b).", KindUnknownOp},            // bad connective
		{"(a && b", KindSyntax},                 // unbalanced parens
		{"<bird --> animal>", KindSyntax},       // missing punctuation
		{"--(a, b).", KindArity},                // negation is unary
		{"<bird --> animal>. extra", KindTrailing},
		{"<bird --> animal>. %1.5;0.9%", KindTruthRange},
		{"<bird --> animal>. %0.9;1.0%", KindTruthRange},
		{"<bird --> animal>? %1.0;0.9%", KindSyntax}, // questions carry no truth
		{"<bird --> bird>.", KindSyntax},             // self-relating statement
	}
	for _, tt := range tests {
		pe := parseErr(t, tt.input)
		assert.Equal(t, tt.kind, pe.Kind, "input: %q got: %s", tt.input, pe.Message)
	}
}

func TestTrailingErrorIsDistinct(t *testing.T) {
	pe := parseErr(t, "<a --> b>. <c --> d>.")
	assert.Equal(t, KindTrailing, pe.Kind)
	assert.Contains(t, pe.Found, "<c --> d>.")
}

func TestErrorPositions(t *testing.T) {
	pe := parseErr(t, "<bird => animal>.")
	assert.Equal(t, 1, pe.Pos.Line)
	assert.Greater(t, pe.Pos.Character, 0)
}

func TestErrorFormatting(t *testing.T) {
	pe := parseErr(t, "<bird => animal>.")

	plain := pe.FormatError(ErrorContextPlain)
	assert.Contains(t, plain, "unknown copula")
	assert.Contains(t, plain, "line 1")

	terminal := pe.FormatError(ErrorContextTerminal)
	assert.Contains(t, terminal, "Position:")
}

func TestRoundTrip(t *testing.T) {
	// Factory-produced terms stringify to parseable Narsese that
	// reconstructs an equal term.
	inputs := []string{
		"<bird --> animal>.",
		"<a <-> b>.",
		"(a && b).",
		"(b && a).",
		"--(alive).",
		"<(a * b) --> rel>.",
		"<<a --> b> ==> <c --> d>>.",
		"<$x --> animal>.",
	}
	p, _ := newParser()
	for _, input := range inputs {
		first, err := p.Parse(input)
		require.NoError(t, err, input)

		second, err := p.Parse(first.Term.String() + ".")
		require.NoError(t, err, "round-trip of %s", first.Term)
		assert.Same(t, first.Term, second.Term, "round-trip of %s", input)
	}
}
