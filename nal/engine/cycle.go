package engine

import (
	"github.com/noeta/NAR/nal/memory"
	"github.com/noeta/NAR/nal/task"
)

// Step executes exactly one reasoning cycle: select concepts by priority
// roulette, pair each selected premise with the best beliefs of related
// concepts, apply the rule catalogue, insert every derivation, decay
// budgets, and periodically sweep out forgotten concepts.
func (e *Engine) Step() CycleReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cycle++
	report := CycleReport{Cycle: e.cycle}

	for _, c := range e.selectConcepts() {
		c.Touch(e.cycle)
		premise := c.HottestPending()
		if premise == nil {
			premise = c.BestBelief()
		}
		if premise == nil {
			continue
		}
		// Selecting an unsatisfied goal re-issues its external request, so
		// a request dropped on a full queue is retried.
		if premise.IsGoal() {
			e.dispatchEffect(premise)
		}

		derived := e.rules.ApplySingle(premise, e.cycle)
		for _, related := range e.memory.Related(c.Term) {
			belief := related.BestBelief()
			if belief == nil {
				continue
			}
			related.Touch(e.cycle)
			derived = append(derived, e.rules.ApplyPair(premise, belief, e.cycle)...)
		}

		for _, d := range derived {
			report.DerivedTasks = append(report.DerivedTasks, d)
			report.Answered = append(report.Answered, e.insert(d)...)
		}
	}

	e.derived += uint64(len(report.DerivedTasks))
	e.memory.Decay(e.params.DecayRate)
	if e.cycle%e.params.ForgetInterval == 0 {
		e.memory.Forget(e.params.ForgetThreshold)
	}

	if len(report.DerivedTasks) > 0 {
		e.log.Debugw("cycle complete",
			"cycle", e.cycle,
			"derived", len(report.DerivedTasks),
			"answered", len(report.Answered))
	}
	return report
}

// RunCycles repeats Step n times and returns the concatenated derivations
// in cycle order.
func (e *Engine) RunCycles(n int) []*task.Task {
	var out []*task.Task
	for i := 0; i < n; i++ {
		out = append(out, e.Step().DerivedTasks...)
	}
	return out
}

// selectConcepts draws up to ConceptsPerStep distinct concepts, each with
// probability proportional to its priority. The draw order is fixed by the
// seeded source and the deterministic priority ordering, so a run is
// reproducible given the same seed and inputs.
func (e *Engine) selectConcepts() []*memory.Concept {
	ordered := e.memory.ConceptsByPriority()
	want := e.params.ConceptsPerStep
	if want > len(ordered) {
		want = len(ordered)
	}
	out := make([]*memory.Concept, 0, want)
	for len(out) < want {
		total := 0.0
		for _, c := range ordered {
			total += c.Budget.Priority
		}
		pick := len(ordered) - 1
		if total > 0 {
			r := e.rng.Float64() * total
			for i, c := range ordered {
				r -= c.Budget.Priority
				if r <= 0 {
					pick = i
					break
				}
			}
		} else {
			pick = e.rng.Intn(len(ordered))
		}
		out = append(out, ordered[pick])
		ordered = append(ordered[:pick], ordered[pick+1:]...)
	}
	return out
}
