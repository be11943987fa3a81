package rules

import (
	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
	"github.com/noeta/NAR/nal/unify"
)

// tableBuilder accumulates pattern-construction errors so register() reads
// as a flat rule table rather than error plumbing.
type tableBuilder struct {
	c   *Catalogue
	err error
}

func (tb *tableBuilder) v(name string) *term.Term {
	if tb.err != nil {
		return nil
	}
	t, err := tb.c.factory.Variable(term.OpIndepVar, name)
	if err != nil {
		tb.err = err
	}
	return t
}

func (tb *tableBuilder) comp(op term.Op, components ...*term.Term) *term.Term {
	if tb.err != nil {
		return nil
	}
	t, err := tb.c.factory.Compound(op, components...)
	if err != nil {
		tb.err = err
	}
	return t
}

func (tb *tableBuilder) rule(r *Rule) {
	if tb.err != nil {
		return
	}
	tb.err = tb.c.add(r)
}

// binaryTruth adapts a two-premise truth function to premise order: some
// rules feed (task, belief), others (belief, task).
type binaryTruth func(taskTruth, beliefTruth truth.Value) truth.Value

// stmtConclusion builds the common conclusion shape: a statement between
// two bound rule variables. Returns nil (inapplicable) when the bindings
// would relate a term to itself.
func stmtConclusion(copula term.Op, subjKey, predKey string, fn binaryTruth) Conclude {
	return func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
		subj, pred := b[subjKey], b[predKey]
		if subj == nil || pred == nil || subj.Equal(pred) {
			return nil
		}
		t, err := f.Statement(subj, copula, pred)
		if err != nil {
			return nil
		}
		return &Derivation{Term: t, Truth: fn(*pr.Task.Truth, *pr.Belief.Truth)}
	}
}

// composeConclusion builds <subj --> (a CONNECTIVE b)> composition
// conclusions for the NAL-3 set rules.
func composeConclusion(connective term.Op, fn binaryTruth) Conclude {
	return func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
		subj, p1, p2 := b["$1"], b["$2"], b["$3"]
		if subj == nil || p1 == nil || p2 == nil || p1.Equal(p2) {
			return nil
		}
		// Composing already-composed predicates floods memory with ever
		// larger compounds; leave those to repeated cycles.
		if p1.IsCompound() || p2.IsCompound() {
			return nil
		}
		inner, err := f.Compound(connective, p1, p2)
		if err != nil {
			return nil
		}
		t, err := f.Statement(subj, term.OpInheritance, inner)
		if err != nil {
			return nil
		}
		return &Derivation{Term: t, Truth: fn(*pr.Task.Truth, *pr.Belief.Truth)}
	}
}

// register installs the rule table in fixed priority order: strong
// syllogisms first, weak induction/abduction after, compositions and
// higher-order variants last.
func (c *Catalogue) register() error {
	tb := &tableBuilder{c: c}
	v1, v2, v3 := tb.v("1"), tb.v("2"), tb.v("3")

	inh := func(s, p *term.Term) *term.Term { return tb.comp(term.OpInheritance, s, p) }
	sim := func(s, p *term.Term) *term.Term { return tb.comp(term.OpSimilarity, s, p) }
	imp := func(s, p *term.Term) *term.Term { return tb.comp(term.OpImplication, s, p) }
	equ := func(s, p *term.Term) *term.Term { return tb.comp(term.OpEquivalence, s, p) }

	// NAL-1: inheritance syllogisms. Task <$1-->$2> is M-->P unless noted.
	tb.rule(&Rule{
		ID: "nal1.deduction", Level: 1,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v3, v1),
		Conclude: stmtConclusion(term.OpInheritance, "$3", "$2", truth.Deduction),
	})
	tb.rule(&Rule{
		ID: "nal1.deduction.swapped", Level: 1,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v2, v3),
		Conclude: stmtConclusion(term.OpInheritance, "$1", "$3",
			func(t, b truth.Value) truth.Value { return truth.Deduction(b, t) }),
	})
	tb.rule(&Rule{
		ID: "nal1.exemplification", Level: 1,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v2, v3),
		Conclude: stmtConclusion(term.OpInheritance, "$3", "$1", truth.Exemplification),
	})
	tb.rule(&Rule{
		ID: "nal1.induction", Level: 1,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v1, v3),
		Conclude: stmtConclusion(term.OpInheritance, "$3", "$2",
			func(t, b truth.Value) truth.Value { return truth.Induction(b, t) }),
	})
	tb.rule(&Rule{
		ID: "nal1.abduction", Level: 1,
		TaskPattern: inh(v2, v1), BeliefPattern: inh(v3, v1),
		Conclude: stmtConclusion(term.OpInheritance, "$3", "$2", truth.Abduction),
	})
	tb.rule(&Rule{
		ID: "nal1.comparison", Level: 1,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v1, v3),
		Conclude: stmtConclusion(term.OpSimilarity, "$3", "$2", truth.Comparison),
	})
	tb.rule(&Rule{
		ID: "nal1.conversion", Level: 1,
		TaskPattern: inh(v1, v2),
		Conclude: func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
			t, err := f.Statement(b["$2"], term.OpInheritance, b["$1"])
			if err != nil {
				return nil
			}
			return &Derivation{Term: t, Truth: truth.Conversion(*pr.Task.Truth)}
		},
	})

	// NAL-2: similarity.
	tb.rule(&Rule{
		ID: "nal2.analogy", Level: 2,
		TaskPattern: inh(v1, v2), BeliefPattern: sim(v3, v1),
		Conclude: stmtConclusion(term.OpInheritance, "$3", "$2", truth.Analogy),
	})
	tb.rule(&Rule{
		ID: "nal2.analogy.predicate", Level: 2,
		TaskPattern: inh(v2, v1), BeliefPattern: sim(v3, v1),
		Conclude: stmtConclusion(term.OpInheritance, "$2", "$3", truth.Analogy),
	})
	tb.rule(&Rule{
		ID: "nal2.resemblance", Level: 2,
		TaskPattern: sim(v1, v2), BeliefPattern: sim(v3, v1),
		Conclude: stmtConclusion(term.OpSimilarity, "$3", "$2", truth.Resemblance),
	})

	// NAL-3: predicate composition over a shared subject.
	tb.rule(&Rule{
		ID: "nal3.intersection", Level: 3,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v1, v3),
		Conclude: composeConclusion(term.OpConjunction, truth.Intersection),
	})
	tb.rule(&Rule{
		ID: "nal3.union", Level: 3,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v1, v3),
		Conclude: composeConclusion(term.OpDisjunction, truth.Union),
	})

	// NAL-5: higher-order syllogisms over implication and equivalence.
	tb.rule(&Rule{
		ID: "nal5.deduction", Level: 5,
		TaskPattern: imp(v1, v2), BeliefPattern: imp(v3, v1),
		Conclude: stmtConclusion(term.OpImplication, "$3", "$2", truth.Deduction),
	})
	tb.rule(&Rule{
		ID: "nal5.induction", Level: 5,
		TaskPattern: imp(v1, v2), BeliefPattern: imp(v1, v3),
		Conclude: stmtConclusion(term.OpImplication, "$3", "$2",
			func(t, b truth.Value) truth.Value { return truth.Induction(b, t) }),
	})
	tb.rule(&Rule{
		ID: "nal5.abduction", Level: 5,
		TaskPattern: imp(v2, v1), BeliefPattern: imp(v3, v1),
		Conclude: stmtConclusion(term.OpImplication, "$3", "$2", truth.Abduction),
	})
	tb.rule(&Rule{
		ID: "nal5.detachment", Level: 5,
		TaskPattern: imp(v1, v2), BeliefPattern: v1,
		Conclude: func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
			consequent := b["$2"]
			if consequent == nil || consequent.IsVariable() {
				return nil
			}
			return &Derivation{Term: consequent,
				Truth: truth.Deduction(*pr.Task.Truth, *pr.Belief.Truth)}
		},
	})
	tb.rule(&Rule{
		ID: "nal5.detachment.swapped", Level: 5,
		TaskPattern: v1, BeliefPattern: imp(v1, v2),
		Conclude: func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
			consequent := b["$2"]
			if consequent == nil || consequent.IsVariable() {
				return nil
			}
			return &Derivation{Term: consequent,
				Truth: truth.Deduction(*pr.Belief.Truth, *pr.Task.Truth)}
		},
	})
	tb.rule(&Rule{
		ID: "nal5.analogy", Level: 5,
		TaskPattern: imp(v1, v2), BeliefPattern: equ(v3, v1),
		Conclude: stmtConclusion(term.OpImplication, "$3", "$2", truth.Analogy),
	})
	tb.rule(&Rule{
		ID: "nal5.resemblance", Level: 5,
		TaskPattern: equ(v1, v2), BeliefPattern: equ(v3, v1),
		Conclude: stmtConclusion(term.OpEquivalence, "$3", "$2", truth.Resemblance),
	})
	// Conditional deduction with a conjunctive antecedent: the residue of
	// the condition after removing the matched premise would need an
	// unconstrained "any-term" slot in the premise protocol, which the
	// table does not have. The shape is recognized and yields no
	// derivation.
	tb.rule(&Rule{
		ID: "nal5.conditional.deduction", Level: 5,
		TaskPattern: imp(tb.comp(term.OpConjunction, v1, v2), v3), BeliefPattern: v1,
		Conclude: func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
			return nil
		},
	})
	tb.rule(&Rule{
		ID: "nal5.negation", Level: 5,
		TaskPattern: v1,
		Conclude: func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
			t := b["$1"]
			if t == nil {
				return nil
			}
			// Negating a negation strips it; anything non-statement is
			// left alone.
			if t.Op == term.OpNegation {
				return &Derivation{Term: t.Components[0], Truth: truth.Negation(*pr.Task.Truth)}
			}
			if !t.IsStatement() {
				return nil
			}
			neg, err := f.Compound(term.OpNegation, t)
			if err != nil {
				return nil
			}
			return &Derivation{Term: neg, Truth: truth.Negation(*pr.Task.Truth)}
		},
	})

	// NAL-6: induction with variable introduction over a shared subject.
	tb.rule(&Rule{
		ID: "nal6.variable.introduction", Level: 6,
		TaskPattern: inh(v1, v2), BeliefPattern: inh(v1, v3),
		Conclude: func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation {
			p1, p2 := b["$2"], b["$3"]
			if p1 == nil || p2 == nil || p1.Equal(p2) || p1.IsCompound() || p2.IsCompound() {
				return nil
			}
			k, err := f.Variable(term.OpIndepVar, "k")
			if err != nil {
				return nil
			}
			ante, err := f.Statement(k, term.OpInheritance, p2)
			if err != nil {
				return nil
			}
			cons, err := f.Statement(k, term.OpInheritance, p1)
			if err != nil {
				return nil
			}
			impl, err := f.Statement(ante, term.OpImplication, cons)
			if err != nil {
				return nil
			}
			return &Derivation{Term: impl,
				Truth: truth.Induction(*pr.Belief.Truth, *pr.Task.Truth)}
		},
	})

	return tb.err
}
