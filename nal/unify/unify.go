// Package unify implements pattern matching between rule premise patterns
// and concrete terms. Pattern variables bind to concrete subterms; repeat
// occurrences must agree with the existing binding. Commutative operators
// are matched over component permutations (bounded, arities stay small).
package unify

import (
	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/nal/term"
)

// Bindings maps pattern-variable keys (canonical strings like "$1") to the
// concrete terms they matched. A Bindings value returned by this package is
// always complete: partial maps from failed matches are never exposed.
type Bindings map[string]*term.Term

// Match unifies a single pattern against a concrete term.
func Match(pattern, concrete *term.Term) (Bindings, bool) {
	b := Bindings{}
	if !unify(pattern, concrete, b) {
		return nil, false
	}
	return b, true
}

// MatchPair unifies two premise patterns against a (task term, belief term)
// pair under one shared binding environment, as rule dispatch requires.
func MatchPair(p1, p2, t1, t2 *term.Term) (Bindings, bool) {
	b := Bindings{}
	if !unify(p1, t1, b) {
		return nil, false
	}
	if !unify(p2, t2, b) {
		return nil, false
	}
	return b, true
}

// Apply substitutes bindings into a pattern through the factory, producing
// the concrete conclusion term. An unbound pattern variable is a
// programming-contract violation in the rule table, not a runtime
// condition, so it surfaces as an assertion error.
func Apply(f *term.Factory, pattern *term.Term, b Bindings) (*term.Term, error) {
	if pattern.IsVariable() {
		bound, ok := b[pattern.String()]
		if !ok {
			return nil, errors.AssertionFailedf(
				"pattern variable %s unbound in conclusion", pattern)
		}
		return bound, nil
	}
	if !pattern.IsCompound() {
		return pattern, nil
	}
	components := make([]*term.Term, len(pattern.Components))
	for i, c := range pattern.Components {
		applied, err := Apply(f, c, b)
		if err != nil {
			return nil, err
		}
		components[i] = applied
	}
	return f.Compound(pattern.Op, components...)
}

func unify(pattern, concrete *term.Term, b Bindings) bool {
	if pattern.IsVariable() {
		if existing, ok := b[pattern.String()]; ok {
			return existing.Equal(concrete)
		}
		b[pattern.String()] = concrete
		return true
	}
	if pattern.IsAtom() {
		return pattern.Equal(concrete)
	}
	if pattern.Op != concrete.Op || len(pattern.Components) != len(concrete.Components) {
		return false
	}
	if term.Commutative(pattern.Op) {
		return unifyCommutative(pattern.Components, concrete.Components, b)
	}
	for i := range pattern.Components {
		if !unify(pattern.Components[i], concrete.Components[i], b) {
			return false
		}
	}
	return true
}

// unifyCommutative tries component permutations. Each branch works on a
// copy of the bindings so a failed branch leaves no residue.
func unifyCommutative(patterns, concretes []*term.Term, b Bindings) bool {
	if len(patterns) == 0 {
		return true
	}
	used := make([]bool, len(concretes))
	return permute(patterns, concretes, used, 0, b)
}

func permute(patterns, concretes []*term.Term, used []bool, i int, b Bindings) bool {
	if i == len(patterns) {
		return true
	}
	for j := range concretes {
		if used[j] {
			continue
		}
		trial := b.clone()
		if unify(patterns[i], concretes[j], trial) {
			used[j] = true
			if permute(patterns, concretes, used, i+1, trial) {
				// Commit the successful branch into the caller's map.
				for k, v := range trial {
					b[k] = v
				}
				return true
			}
			used[j] = false
		}
	}
	return false
}

func (b Bindings) clone() Bindings {
	c := make(Bindings, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}
