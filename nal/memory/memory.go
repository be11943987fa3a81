package memory

import (
	"sort"

	"go.uber.org/zap"

	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
)

// Defaults applied when a limit is zero or negative.
const (
	DefaultMaxConcepts    = 1000
	DefaultBeliefCapacity = 16
)

// Limits bounds the store: total concept count and per-concept table size.
type Limits struct {
	MaxConcepts    int
	BeliefCapacity int
}

func (l Limits) withDefaults() Limits {
	if l.MaxConcepts < 1 {
		l.MaxConcepts = DefaultMaxConcepts
	}
	if l.BeliefCapacity < 1 {
		l.BeliefCapacity = DefaultBeliefCapacity
	}
	return l
}

// InsertResult reports what one task insertion did to the store.
type InsertResult struct {
	Concept *Concept
	// Belief is the table entry now representing a judgment (the revised
	// entry when revision happened). Nil for questions.
	Belief  *task.Task
	Revised bool
	// Answers holds newly answerable pending questions and goals, the
	// inserted task's early answer included.
	Answers []Answer
}

// Memory is the capacity-bounded concept store for one engine. It is not
// safe for concurrent use; the engine serializes access.
type Memory struct {
	log      *zap.SugaredLogger
	limits   Limits
	concepts map[string]*Concept
	indexes  []Index
	shape    *ShapeIndex
	parts    *ConstituentIndex
}

// New builds an empty store with the standard secondary indexes.
func New(limits Limits, log *zap.SugaredLogger) *Memory {
	shape := NewShapeIndex()
	parts := NewConstituentIndex()
	return &Memory{
		log:      log,
		limits:   limits.withDefaults(),
		concepts: make(map[string]*Concept),
		indexes:  []Index{shape, parts},
		shape:    shape,
		parts:    parts,
	}
}

// Len reports the concept count. Never exceeds MaxConcepts.
func (m *Memory) Len() int { return len(m.concepts) }

// Get returns the concept for a term, or nil.
func (m *Memory) Get(t *term.Term) *Concept { return m.concepts[t.String()] }

// GetOrCreate locates the concept for a term, lazily creating it. Creation
// that pushes past MaxConcepts evicts the weakest concept first, so the
// bound holds at every return.
func (m *Memory) GetOrCreate(t *term.Term, budget task.Budget, now uint64) *Concept {
	if c, ok := m.concepts[t.String()]; ok {
		c.Budget = task.Merge(c.Budget, budget)
		c.Touch(now)
		return c
	}
	if len(m.concepts) >= m.limits.MaxConcepts {
		m.evictWeakest(now)
	}
	c := newConcept(t, budget, m.limits.BeliefCapacity, now)
	m.concepts[t.String()] = c
	for _, ix := range m.indexes {
		ix.Add(c)
	}
	return c
}

// Insert routes a task into its concept per punctuation: judgments revise
// or extend the belief table, goals the desire table, questions the
// pending queue. Questions and goals are matched against existing beliefs
// immediately, so an already-answered question or already-satisfied goal
// surfaces on insert.
func (m *Memory) Insert(tk *task.Task, now uint64) InsertResult {
	c := m.GetOrCreate(tk.Term, tk.Budget, now)
	res := InsertResult{Concept: c}
	switch {
	case tk.IsJudgment():
		res.Belief, res.Revised = c.AddJudgment(tk)
		res.Answers = c.AnswerPending()
	case tk.IsGoal():
		var a *task.Task
		res.Belief, a = c.AddGoal(tk)
		if a != nil {
			res.Answers = []Answer{{Task: tk, Belief: a}}
		}
	case tk.IsQuestion():
		if a := c.AddQuestion(tk); a != nil {
			res.Answers = []Answer{{Task: tk, Belief: a}}
		}
	}
	return res
}

// Concepts returns every concept, unordered.
func (m *Memory) Concepts() []*Concept {
	out := make([]*Concept, 0, len(m.concepts))
	for _, c := range m.concepts {
		out = append(out, c)
	}
	return out
}

// ConceptsByPriority returns every concept ordered hottest-first with the
// canonical term as a deterministic tie-break.
func (m *Memory) ConceptsByPriority() []*Concept {
	out := m.Concepts()
	sort.Slice(out, func(i, j int) bool {
		pi, pj := out[i].Budget.Priority, out[j].Budget.Priority
		if pi != pj {
			return pi > pj
		}
		return out[i].Term.String() < out[j].Term.String()
	})
	return out
}

// Beliefs snapshots every belief whose statement contains the filter term
// as subject or predicate, or all beliefs when filter is nil. Ordered by
// confidence descending, canonical term ascending as tie-break.
func (m *Memory) Beliefs(filter *term.Term) []*task.Task {
	var out []*task.Task
	if filter == nil {
		for _, c := range m.concepts {
			out = append(out, c.Beliefs()...)
		}
	} else {
		if c := m.Get(filter); c != nil {
			out = append(out, c.Beliefs()...)
		}
		for _, c := range m.parts.Find(filter.String()) {
			out = append(out, c.Beliefs()...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Truth.Confidence, out[j].Truth.Confidence
		if ci != cj {
			return ci > cj
		}
		return out[i].Term.String() < out[j].Term.String()
	})
	return out
}

// Related finds premise candidates for a task term: concepts whose
// statements share a constituent with it, plus concepts matching its own
// constituents as whole terms. The task's own concept is excluded.
func (m *Memory) Related(t *term.Term) []*Concept {
	seen := map[string]*Concept{}
	add := func(cs []*Concept) {
		for _, c := range cs {
			if c.Term.Equal(t) {
				continue
			}
			seen[c.Term.String()] = c
		}
	}
	if t.IsStatement() {
		add(m.parts.Find(t.Subject().String()))
		add(m.parts.Find(t.Predicate().String()))
		if c := m.Get(t.Subject()); c != nil {
			add([]*Concept{c})
		}
		if c := m.Get(t.Predicate()); c != nil {
			add([]*Concept{c})
		}
	} else {
		// A non-statement premise pairs with statements that contain it.
		add(m.parts.Find(t.String()))
	}
	out := make([]*Concept, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Term.String() < out[j].Term.String()
	})
	return out
}

// Decay applies one cycle of budget decay across all concepts.
func (m *Memory) Decay(rate float64) {
	for _, c := range m.concepts {
		c.Decay(rate)
	}
}

// Forget sweeps out every concept whose durability fell below the
// threshold, regardless of capacity pressure.
func (m *Memory) Forget(threshold float64) int {
	var victims []*Concept
	for _, c := range m.concepts {
		if c.Budget.Durability < threshold {
			victims = append(victims, c)
		}
	}
	for _, c := range victims {
		m.remove(c)
	}
	if len(victims) > 0 {
		m.log.Debugw("forgetting sweep", "evicted", len(victims), "remaining", len(m.concepts))
	}
	return len(victims)
}

// evictWeakest removes the concept with the lowest
// priority x durability x recency score.
func (m *Memory) evictWeakest(now uint64) {
	var victim *Concept
	var victimScore float64
	for _, c := range m.concepts {
		s := c.evictionScore(now)
		if victim == nil || s < victimScore ||
			(s == victimScore && c.Term.String() < victim.Term.String()) {
			victim, victimScore = c, s
		}
	}
	if victim == nil {
		return
	}
	m.remove(victim)
	m.log.Debugw("capacity eviction", "concept", victim.Term.String(), "score", victimScore)
}

// remove deletes a concept from the map and every index together, so no
// index ever references a dangling concept.
func (m *Memory) remove(c *Concept) {
	delete(m.concepts, c.Term.String())
	for _, ix := range m.indexes {
		ix.Remove(c)
	}
}
