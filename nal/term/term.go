// Package term implements the Narsese term model: atoms, variables, and
// compound terms, built through an interning Factory so that structurally
// equal terms from the same factory are the same instance.
package term

import (
	"strings"
)

// Op identifies the operator of a term. Atoms and variables use the
// pseudo-operators below; compounds use a Narsese connective or copula.
type Op string

const (
	// OpAtom is the pseudo-operator of atomic constant terms
	OpAtom Op = "atom"

	// Variable kinds. The Op doubles as the printed sigil.
	OpIndepVar Op = "$" // independent variable ($x)
	OpDepVar   Op = "#" // dependent variable (#x)
	OpQueryVar Op = "?" // query variable (?x)

	// Copulas (binary statements)
	OpInheritance Op = "-->"
	OpSimilarity  Op = "<->"
	OpImplication Op = "==>"
	OpEquivalence Op = "<=>"

	// Compound connectives
	OpConjunction Op = "&&"
	OpDisjunction Op = "||"
	OpProduct     Op = "*"
	OpNegation    Op = "--"
)

// opInfo describes arity and ordering behavior of a compound operator.
type opInfo struct {
	arity       int  // exact component count; 0 = variadic (two or more)
	commutative bool // components canonically sorted before interning
	statement   bool // copula: rendered <subject op predicate>
}

var operators = map[Op]opInfo{
	OpInheritance: {arity: 2, statement: true},
	OpSimilarity:  {arity: 2, commutative: true, statement: true},
	OpImplication: {arity: 2, statement: true},
	OpEquivalence: {arity: 2, commutative: true, statement: true},
	OpConjunction: {commutative: true},
	OpDisjunction: {commutative: true},
	OpProduct:     {},
	OpNegation:    {arity: 1},
}

// CompoundOp reports whether op is a known compound operator (copula or
// connective).
func CompoundOp(op Op) bool {
	_, ok := operators[op]
	return ok
}

// Commutative reports whether op normalizes component order.
func Commutative(op Op) bool {
	return operators[op].commutative
}

// Statement reports whether op is a copula.
func Statement(op Op) bool {
	return operators[op].statement
}

// Term is an immutable Narsese term. Terms are created only through a
// Factory; two interned terms from the same factory are structurally equal
// iff they are the same pointer. Equal remains structural so terms from
// different factories still compare correctly.
type Term struct {
	Op         Op
	Name       string  // atoms and variables only
	Components []*Term // compounds only, canonical order

	key        string // canonical string, computed once at construction
	complexity int
}

// IsAtom reports whether t is an atomic constant.
func (t *Term) IsAtom() bool { return t.Op == OpAtom }

// IsVariable reports whether t is a variable of any kind.
func (t *Term) IsVariable() bool {
	return t.Op == OpIndepVar || t.Op == OpDepVar || t.Op == OpQueryVar
}

// IsCompound reports whether t has components.
func (t *Term) IsCompound() bool { return len(t.Components) > 0 }

// IsStatement reports whether t is a copula statement.
func (t *Term) IsStatement() bool { return Statement(t.Op) }

// Subject returns the first component of a statement.
func (t *Term) Subject() *Term { return t.Components[0] }

// Predicate returns the second component of a statement.
func (t *Term) Predicate() *Term { return t.Components[1] }

// Complexity is the syntactic size of the term: 1 for an atom or variable,
// 1 plus the component sum for a compound. Used by budget derivation to
// tax structurally heavy conclusions.
func (t *Term) Complexity() int { return t.complexity }

// Equal reports structural equality. For two terms interned by the same
// factory this is equivalent to t == o.
func (t *Term) Equal(o *Term) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return t.key == o.key
}

// Contains reports whether sub occurs in t, at any depth, including t
// itself. The factory uses this to reject self-containing constructions.
func (t *Term) Contains(sub *Term) bool {
	if t.Equal(sub) {
		return true
	}
	for _, c := range t.Components {
		if c.Contains(sub) {
			return true
		}
	}
	return false
}

// HasVariables reports whether any variable occurs in t.
func (t *Term) HasVariables() bool {
	if t.IsVariable() {
		return true
	}
	for _, c := range t.Components {
		if c.HasVariables() {
			return true
		}
	}
	return false
}

// String renders the term as parseable Narsese. Statements print as
// <subject copula predicate>, negation as --(component), other connectives
// in infix form: (a && b).
func (t *Term) String() string { return t.key }

// canonicalString computes the key under which a term is interned.
func canonicalString(op Op, name string, components []*Term) string {
	switch op {
	case OpAtom:
		return name
	case OpIndepVar, OpDepVar, OpQueryVar:
		return string(op) + name
	case OpNegation:
		return "--(" + components[0].key + ")"
	}
	if Statement(op) {
		return "<" + components[0].key + " " + string(op) + " " + components[1].key + ">"
	}
	parts := make([]string, len(components))
	for i, c := range components {
		parts[i] = c.key
	}
	return "(" + strings.Join(parts, " "+string(op)+" ") + ")"
}
