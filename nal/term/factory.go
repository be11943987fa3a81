package term

import (
	"sort"
	"sync"

	"github.com/noeta/NAR/errors"
)

// Factory builds and interns terms. It is the arena for one engine's term
// graph: every term is deduplicated by its canonical string, so structural
// equality within one factory is pointer identity. A Factory is safe for
// concurrent use; each engine owns exactly one.
type Factory struct {
	mu       sync.RWMutex
	interned map[string]*Term
}

// NewFactory creates an empty term arena.
func NewFactory() *Factory {
	return &Factory{interned: make(map[string]*Term)}
}

// Size returns the number of distinct interned terms.
func (f *Factory) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.interned)
}

func (f *Factory) intern(t *Term) *Term {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.interned[t.key]; ok {
		return existing
	}
	f.interned[t.key] = t
	return t
}

// Atom returns the interned atomic term with the given name.
func (f *Factory) Atom(name string) (*Term, error) {
	if name == "" {
		return nil, errors.NewMalformedTermError("atom name must be non-empty")
	}
	t := &Term{Op: OpAtom, Name: name, complexity: 1}
	t.key = canonicalString(OpAtom, name, nil)
	return f.intern(t), nil
}

// Variable returns the interned variable of the given kind and name.
func (f *Factory) Variable(kind Op, name string) (*Term, error) {
	if kind != OpIndepVar && kind != OpDepVar && kind != OpQueryVar {
		return nil, errors.NewMalformedTermError("%q is not a variable kind", kind)
	}
	if name == "" {
		return nil, errors.NewMalformedTermError("variable name must be non-empty")
	}
	t := &Term{Op: kind, Name: name, complexity: 1}
	t.key = canonicalString(kind, name, nil)
	return f.intern(t), nil
}

// Compound builds and interns a compound term. Commutative operators
// canonicalize component order, so Compound(OpConjunction, a, b) and
// Compound(OpConjunction, b, a) return the same instance. Fails with a
// term-construction error on unknown operators, arity mismatches, or a
// statement relating a term to itself.
func (f *Factory) Compound(op Op, components ...*Term) (*Term, error) {
	info, ok := operators[op]
	if !ok {
		return nil, errors.NewMalformedTermError("unknown operator %q", op)
	}
	for i, c := range components {
		if c == nil {
			return nil, errors.NewMalformedTermError("operator %q: component %d is nil", op, i)
		}
	}
	switch {
	case info.arity > 0 && len(components) != info.arity:
		return nil, errors.NewMalformedTermError(
			"operator %q expects %d components, got %d", op, info.arity, len(components))
	case info.arity == 0 && len(components) < 2:
		return nil, errors.NewMalformedTermError(
			"operator %q expects at least 2 components, got %d", op, len(components))
	}
	if info.statement && components[0].Equal(components[1]) {
		return nil, errors.NewMalformedTermError(
			"statement %q cannot relate %s to itself", op, components[0])
	}

	comps := make([]*Term, len(components))
	copy(comps, components)
	if info.commutative {
		sort.Slice(comps, func(i, j int) bool { return comps[i].key < comps[j].key })
	}

	complexity := 1
	for _, c := range comps {
		complexity += c.complexity
	}
	t := &Term{Op: op, Components: comps, complexity: complexity}
	t.key = canonicalString(op, "", comps)
	return f.intern(t), nil
}

// Statement is shorthand for the binary copula compounds.
func (f *Factory) Statement(subject *Term, copula Op, predicate *Term) (*Term, error) {
	if !Statement(copula) {
		return nil, errors.NewMalformedTermError("%q is not a copula", copula)
	}
	return f.Compound(copula, subject, predicate)
}

// RenameVariables rewrites every variable in t with the given suffix
// appended to its name, interning the result. Rule application renames the
// pattern side before matching so bindings from unrelated matches cannot
// capture each other. Terms without variables are returned as-is.
func (f *Factory) RenameVariables(t *Term, suffix string) (*Term, error) {
	if !t.HasVariables() {
		return t, nil
	}
	if t.IsVariable() {
		return f.Variable(t.Op, t.Name+suffix)
	}
	renamed := make([]*Term, len(t.Components))
	for i, c := range t.Components {
		rc, err := f.RenameVariables(c, suffix)
		if err != nil {
			return nil, err
		}
		renamed[i] = rc
	}
	return f.Compound(t.Op, renamed...)
}

// Import re-interns a term that was built by a different factory (parsed in
// a test, restored from a snapshot). Within one factory Import is the
// identity function.
func (f *Factory) Import(t *Term) (*Term, error) {
	switch {
	case t.IsAtom():
		return f.Atom(t.Name)
	case t.IsVariable():
		return f.Variable(t.Op, t.Name)
	default:
		comps := make([]*Term, len(t.Components))
		for i, c := range t.Components {
			ic, err := f.Import(c)
			if err != nil {
				return nil, err
			}
			comps[i] = ic
		}
		return f.Compound(t.Op, comps...)
	}
}
