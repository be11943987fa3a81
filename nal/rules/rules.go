// Package rules implements the inference-rule catalogue: an ordered table
// of declarative rule descriptors, dispatched by premise operator shape and
// applied through the unifier and the truth calculus.
package rules

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
	"github.com/noeta/NAR/nal/unify"
)

// Premises carries the concrete premise tasks into a conclusion builder.
// Belief is nil for single-premise rules.
type Premises struct {
	Task   *task.Task
	Belief *task.Task
}

// Derivation is the output of a conclusion builder: the derived term and
// its truth. Punctuation is always a judgment for the catalogued rules.
type Derivation struct {
	Term  *term.Term
	Truth truth.Value
}

// Conclude computes a derivation from complete bindings, or returns nil
// when the pattern matched but no valid conclusion is constructible. A nil
// return is the normal "rule inapplicable" outcome, not an error.
type Conclude func(b unify.Bindings, pr Premises, f *term.Factory) *Derivation

// Rule is one declarative inference rule. TaskPattern and BeliefPattern
// are premise patterns over rule variables; BeliefPattern is nil for
// single-premise rules.
type Rule struct {
	ID            string
	Level         int // NAL level the rule belongs to
	TaskPattern   *term.Term
	BeliefPattern *term.Term
	Conclude      Conclude
}

// singlePremise reports whether the rule matches a task alone.
func (r *Rule) singlePremise() bool { return r.BeliefPattern == nil }

// shapeCompatible is the cheap dispatch check run before unification.
// A bare-variable pattern is compatible with any shape.
func shapeCompatible(pattern, concrete *term.Term) bool {
	if pattern.IsVariable() {
		return true
	}
	return pattern.Op == concrete.Op && len(pattern.Components) == len(concrete.Components)
}

// Catalogue holds the rule table for one engine, with patterns interned in
// that engine's factory. Rules are attempted in fixed registration order,
// so derivation order is deterministic.
type Catalogue struct {
	factory *term.Factory
	log     *zap.SugaredLogger
	rules   []*Rule
	renames uint64 // counter for capture-avoiding pattern renames
}

// NewCatalogue builds the full NAL 1-8 rule table against the given
// factory. It fails only on a defective rule definition, which is a
// programming error surfaced loudly.
func NewCatalogue(factory *term.Factory, log *zap.SugaredLogger) (*Catalogue, error) {
	c := &Catalogue{factory: factory, log: log}
	if err := c.register(); err != nil {
		return nil, err
	}
	return c, nil
}

// Rules returns the catalogue in application order.
func (c *Catalogue) Rules() []*Rule { return c.rules }

func (c *Catalogue) add(r *Rule) error {
	if r.Conclude == nil {
		return errors.AssertionFailedf("rule %s registered without a conclusion builder", r.ID)
	}
	c.rules = append(c.rules, r)
	return nil
}

// ApplyPair attempts every two-premise rule against the (task, belief)
// pair. Premise combination is guarded twice: overlapping evidential bases
// are dropped silently (circularity), and merges beyond the stamp bound
// are rejected. Both premises must be judgments.
func (c *Catalogue) ApplyPair(tk, belief *task.Task, now uint64) []*task.Task {
	if !tk.IsJudgment() || !belief.IsJudgment() {
		return nil
	}
	if tk.Stamp.Overlaps(belief.Stamp) {
		// Expected steady state for related premises, never an error.
		c.log.Debugw("premise pair shares evidence, skipping",
			"task", tk.Term.String(), "belief", belief.Term.String())
		return nil
	}
	stamp, ok := tk.Stamp.Merge(belief.Stamp)
	if !ok {
		return nil
	}

	parent := task.Merge(tk.Budget, belief.Budget)
	var derived []*task.Task
	for _, r := range c.rules {
		if r.singlePremise() {
			continue
		}
		if !shapeCompatible(r.TaskPattern, tk.Term) || !shapeCompatible(r.BeliefPattern, belief.Term) {
			continue
		}
		tp, bp, suffix := c.freshPatterns(r, tk.Term, belief.Term)
		bindings, ok := unify.MatchPair(tp, bp, tk.Term, belief.Term)
		if !ok {
			continue
		}
		bindings = restoreKeys(bindings, suffix)
		d := c.conclude(r, bindings, Premises{Task: tk, Belief: belief})
		if d == nil {
			continue
		}
		derived = append(derived, &task.Task{
			Term:         d.Term,
			Punctuation:  task.Judgment,
			Truth:        &d.Truth,
			Budget:       task.Derived(parent, d.Truth.Confidence, d.Term.Complexity()),
			Stamp:        stamp,
			CreationTime: now,
		})
	}
	return derived
}

// ApplySingle attempts every single-premise rule against the task alone.
// The conclusion shares the premise's evidential base.
func (c *Catalogue) ApplySingle(tk *task.Task, now uint64) []*task.Task {
	if !tk.IsJudgment() {
		return nil
	}
	var derived []*task.Task
	for _, r := range c.rules {
		if !r.singlePremise() {
			continue
		}
		if !shapeCompatible(r.TaskPattern, tk.Term) {
			continue
		}
		bindings, ok := unify.Match(r.TaskPattern, tk.Term)
		if !ok {
			continue
		}
		d := c.conclude(r, bindings, Premises{Task: tk})
		if d == nil {
			continue
		}
		derived = append(derived, &task.Task{
			Term:         d.Term,
			Punctuation:  task.Judgment,
			Truth:        &d.Truth,
			Budget:       task.Derived(tk.Budget, d.Truth.Confidence, d.Term.Complexity()),
			Stamp:        tk.Stamp,
			CreationTime: now,
		})
	}
	return derived
}

// conclude runs a conclusion builder with panic isolation: one defective
// rule must not abort the cycle. A recovered panic is logged and treated
// as "no derivation".
func (c *Catalogue) conclude(r *Rule, b unify.Bindings, pr Premises) (d *Derivation) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Warnw("conclusion builder panicked, derivation dropped",
				"rule", r.ID, "panic", fmt.Sprint(rec))
			d = nil
		}
	}()
	return r.Conclude(b, pr, c.factory)
}

// freshPatterns renames rule variables when a concrete premise itself
// contains variables, so pattern bindings cannot capture user variables
// across unrelated matches. Ground premises use the shared patterns as-is.
func (c *Catalogue) freshPatterns(r *Rule, t1, t2 *term.Term) (tp, bp *term.Term, suffix string) {
	if !t1.HasVariables() && !t2.HasVariables() {
		return r.TaskPattern, r.BeliefPattern, ""
	}
	c.renames++
	suffix = fmt.Sprintf("_r%d", c.renames)
	tp, err := c.factory.RenameVariables(r.TaskPattern, suffix)
	if err != nil {
		return r.TaskPattern, r.BeliefPattern, ""
	}
	bp, err = c.factory.RenameVariables(r.BeliefPattern, suffix)
	if err != nil {
		return r.TaskPattern, r.BeliefPattern, ""
	}
	return tp, bp, suffix
}

// restoreKeys strips the rename suffix off binding keys so conclusion
// builders always see the canonical rule-variable names.
func restoreKeys(b unify.Bindings, suffix string) unify.Bindings {
	if suffix == "" {
		return b
	}
	out := make(unify.Bindings, len(b))
	for k, v := range b {
		out[strings.TrimSuffix(k, suffix)] = v
	}
	return out
}
