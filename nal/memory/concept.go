// Package memory implements the bounded concept store: per-term concepts
// holding ranked belief and desire tables, pending question queues, and a
// capacity-bounded Memory with secondary indexes and budget-driven eviction.
package memory

import (
	"sort"

	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
)

// Concept is the per-term container. Beliefs and desires are kept sorted
// strongest-first; both tables evict their weakest entry on overflow. The
// pending queue holds unanswered questions and goals awaiting evidence.
type Concept struct {
	Term   *term.Term
	Budget task.Budget

	beliefs  []*task.Task
	desires  []*task.Task
	pending  []*task.Task
	capacity int

	lastAccess uint64
}

func newConcept(t *term.Term, b task.Budget, capacity int, now uint64) *Concept {
	if capacity < 1 {
		capacity = 1
	}
	return &Concept{Term: t, Budget: b, capacity: capacity, lastAccess: now}
}

// Touch records an access for recency-based eviction ranking.
func (c *Concept) Touch(now uint64) { c.lastAccess = now }

// recency maps the cycles since last access into (0,1]: just-touched
// concepts score 1, stale ones approach 0.
func (c *Concept) recency(now uint64) float64 {
	if now <= c.lastAccess {
		return 1.0
	}
	return 1.0 / (1.0 + float64(now-c.lastAccess))
}

// evictionScore ranks the concept for capacity eviction: the lowest
// priority x durability x recency goes first.
func (c *Concept) evictionScore(now uint64) float64 {
	return c.Budget.Summary() * c.recency(now)
}

// rank orders a table entry: confidence first, recency as tie-break.
func rank(t *task.Task) float64 {
	if t.Truth == nil {
		return 0
	}
	return t.Truth.Confidence
}

// AddJudgment merges a judgment into the belief table. Existing evidence
// for the same statement is pooled by revision when the stamps are
// disjoint; an overlapping near-duplicate keeps whichever side carries
// more confidence. Returns the belief now representing the statement and
// whether a revision took place.
func (c *Concept) AddJudgment(t *task.Task) (*task.Task, bool) {
	for i, existing := range c.beliefs {
		if existing.Stamp.Overlaps(t.Stamp) {
			// Same evidence seen again: keep the stronger record.
			if t.Truth.Confidence > existing.Truth.Confidence {
				c.beliefs[i] = t
				c.sortBeliefs()
				return t, false
			}
			return existing, false
		}
	}
	for i, existing := range c.beliefs {
		merged, ok := existing.Stamp.Merge(t.Stamp)
		if !ok {
			continue
		}
		revisedTruth := truth.Revision(*existing.Truth, *t.Truth)
		revised := &task.Task{
			Term:         t.Term,
			Punctuation:  task.Judgment,
			Truth:        &revisedTruth,
			Budget:       task.Merge(existing.Budget, t.Budget),
			Stamp:        merged,
			CreationTime: t.CreationTime,
		}
		c.beliefs[i] = revised
		c.sortBeliefs()
		return revised, true
	}
	c.beliefs = append(c.beliefs, t)
	c.sortBeliefs()
	if len(c.beliefs) > c.capacity {
		c.beliefs = c.beliefs[:c.capacity]
	}
	return t, false
}

// AddGoal merges a goal's desire value into the desire table, same policy
// as beliefs, and queues the goal for processing. Like AddQuestion it
// immediately matches against the belief table, so a goal whose state
// already holds is reported on insert.
func (c *Concept) AddGoal(t *task.Task) (*task.Task, *task.Task) {
	for i, existing := range c.desires {
		if existing.Stamp.Overlaps(t.Stamp) {
			if t.Truth.Confidence > existing.Truth.Confidence {
				c.desires[i] = t
				c.sortDesires()
				return t, c.Answer(t)
			}
			return existing, c.Answer(t)
		}
	}
	for i, existing := range c.desires {
		merged, ok := existing.Stamp.Merge(t.Stamp)
		if !ok {
			continue
		}
		revisedTruth := truth.Revision(*existing.Truth, *t.Truth)
		revised := &task.Task{
			Term:         t.Term,
			Punctuation:  task.Goal,
			Truth:        &revisedTruth,
			Budget:       task.Merge(existing.Budget, t.Budget),
			Stamp:        merged,
			CreationTime: t.CreationTime,
		}
		c.desires[i] = revised
		c.sortDesires()
		return revised, c.Answer(revised)
	}
	c.desires = append(c.desires, t)
	c.sortDesires()
	if len(c.desires) > c.capacity {
		c.desires = c.desires[:c.capacity]
	}
	c.enqueue(t)
	return t, c.Answer(t)
}

// AddQuestion queues a question and immediately tries to answer it from
// the current belief table.
func (c *Concept) AddQuestion(t *task.Task) *task.Task {
	c.enqueue(t)
	return c.Answer(t)
}

func (c *Concept) enqueue(t *task.Task) {
	for _, p := range c.pending {
		if p.Punctuation == t.Punctuation && p.Term.Equal(t.Term) {
			return
		}
	}
	c.pending = append(c.pending, t)
}

// Answer returns the best current belief for a question, ranked by
// expectation, or nil when the concept holds no evidence yet.
func (c *Concept) Answer(q *task.Task) *task.Task {
	var best *task.Task
	for _, b := range c.beliefs {
		if best == nil || b.Truth.Expectation() > best.Truth.Expectation() {
			best = b
		}
	}
	return best
}

// AnswerPending matches every queued question and goal against the belief
// table, returning the (task, belief) pairs that now have evidence. Tasks
// stay queued: later, stronger evidence may answer them better.
func (c *Concept) AnswerPending() []Answer {
	var out []Answer
	for _, p := range c.pending {
		if a := c.Answer(p); a != nil {
			out = append(out, Answer{Task: p, Belief: a})
		}
	}
	return out
}

// Answer pairs a pending question or goal with the belief bearing on it.
type Answer struct {
	Task   *task.Task
	Belief *task.Task
}

// BestBelief is the strongest belief, or nil.
func (c *Concept) BestBelief() *task.Task {
	if len(c.beliefs) == 0 {
		return nil
	}
	return c.beliefs[0]
}

// Beliefs returns a copy of the belief table, strongest first.
func (c *Concept) Beliefs() []*task.Task {
	out := make([]*task.Task, len(c.beliefs))
	copy(out, c.beliefs)
	return out
}

// Desires returns a copy of the desire table, strongest first.
func (c *Concept) Desires() []*task.Task {
	out := make([]*task.Task, len(c.desires))
	copy(out, c.desires)
	return out
}

// Pending returns a copy of the queued questions and goals.
func (c *Concept) Pending() []*task.Task {
	out := make([]*task.Task, len(c.pending))
	copy(out, c.pending)
	return out
}

// HottestPending is the highest-priority queued task, or nil.
func (c *Concept) HottestPending() *task.Task {
	var best *task.Task
	for _, p := range c.pending {
		if best == nil || p.Budget.Priority > best.Budget.Priority {
			best = p
		}
	}
	return best
}

// BeliefCount reports the belief table size.
func (c *Concept) BeliefCount() int { return len(c.beliefs) }

// Decay applies one cycle of budget decay to the concept and its tables.
func (c *Concept) Decay(rate float64) {
	c.Budget = c.Budget.Decay(rate)
	for i, b := range c.beliefs {
		c.beliefs[i] = b.WithBudget(b.Budget.Decay(rate))
	}
	for i, d := range c.desires {
		c.desires[i] = d.WithBudget(d.Budget.Decay(rate))
	}
	for i, p := range c.pending {
		c.pending[i] = p.WithBudget(p.Budget.Decay(rate))
	}
}

func (c *Concept) sortBeliefs() {
	sort.SliceStable(c.beliefs, func(i, j int) bool {
		ri, rj := rank(c.beliefs[i]), rank(c.beliefs[j])
		if ri != rj {
			return ri > rj
		}
		return c.beliefs[i].CreationTime > c.beliefs[j].CreationTime
	})
}

func (c *Concept) sortDesires() {
	sort.SliceStable(c.desires, func(i, j int) bool {
		ri, rj := rank(c.desires[i]), rank(c.desires[j])
		if ri != rj {
			return ri > rj
		}
		return c.desires[i].CreationTime > c.desires[j].CreationTime
	})
}
