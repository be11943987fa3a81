package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
)

type fixture struct {
	f *term.Factory
	m *Memory
}

func newFixture(limits Limits) *fixture {
	return &fixture{
		f: term.NewFactory(),
		m: New(limits, zap.NewNop().Sugar()),
	}
}

func (fx *fixture) inh(t *testing.T, subj, pred string) *term.Term {
	t.Helper()
	s, err := fx.f.Atom(subj)
	require.NoError(t, err)
	p, err := fx.f.Atom(pred)
	require.NoError(t, err)
	st, err := fx.f.Statement(s, term.OpInheritance, p)
	require.NoError(t, err)
	return st
}

func judgment(tm *term.Term, v truth.Value, stampID uint64) *task.Task {
	return &task.Task{
		Term:        tm,
		Punctuation: task.Judgment,
		Truth:       &v,
		Budget:      task.DefaultBudget(task.Judgment, &v),
		Stamp:       task.NewStamp(stampID),
	}
}

func question(tm *term.Term) *task.Task {
	return &task.Task{
		Term:        tm,
		Punctuation: task.Question,
		Budget:      task.DefaultBudget(task.Question, nil),
		Stamp:       task.NewStamp(0),
	}
}

func goal(tm *term.Term, v truth.Value, stampID uint64) *task.Task {
	return &task.Task{
		Term:        tm,
		Punctuation: task.Goal,
		Truth:       &v,
		Budget:      task.DefaultBudget(task.Goal, &v),
		Stamp:       task.NewStamp(stampID),
	}
}

func TestLazyConceptCreation(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "bird", "animal")

	require.Nil(t, fx.m.Get(st))
	res := fx.m.Insert(judgment(st, truth.Default(), 1), 0)
	require.NotNil(t, res.Concept)
	assert.Same(t, res.Concept, fx.m.Get(st))
	assert.Equal(t, 1, fx.m.Len())
	assert.Equal(t, 1, res.Concept.BeliefCount())
}

func TestIdenticalInsertIsIdempotent(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "bird", "animal")
	v := truth.New(0.9, 0.9)

	first := fx.m.Insert(judgment(st, v, 1), 0)
	second := fx.m.Insert(judgment(st, v, 1), 1)

	assert.Equal(t, 1, second.Concept.BeliefCount(), "one belief row, not two")
	assert.False(t, second.Revised)
	assert.GreaterOrEqual(t, second.Belief.Truth.Confidence, v.Confidence)
	assert.Same(t, first.Belief, second.Belief)
}

func TestDisjointEvidenceRevises(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "bird", "animal")

	fx.m.Insert(judgment(st, truth.New(1.0, 0.9), 1), 0)
	res := fx.m.Insert(judgment(st, truth.New(0.8, 0.8), 2), 1)

	require.True(t, res.Revised)
	assert.Equal(t, 1, res.Concept.BeliefCount())
	assert.Greater(t, res.Belief.Truth.Confidence, 0.9, "revision pools evidence")
	assert.Equal(t, []uint64{1, 2}, res.Belief.Stamp.Evidence)
}

func TestOverlappingEvidenceKeepsStronger(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "bird", "animal")

	fx.m.Insert(judgment(st, truth.New(1.0, 0.5), 1), 0)
	res := fx.m.Insert(judgment(st, truth.New(1.0, 0.9), 1), 1)

	assert.False(t, res.Revised)
	assert.Equal(t, 1, res.Concept.BeliefCount())
	assert.InDelta(t, 0.9, res.Belief.Truth.Confidence, 1e-9)
}

func TestBeliefTableEvictsWeakest(t *testing.T) {
	fx := newFixture(Limits{BeliefCapacity: 2})
	st := fx.inh(t, "bird", "animal")
	c := fx.m.GetOrCreate(st, task.NewBudget(0.5, 0.5, 0.5), 0)

	// Stamps long enough that no pair can merge, forcing inserts.
	long := func(base uint64) task.Stamp {
		return task.Stamp{Evidence: []uint64{base, base + 1, base + 2, base + 3, base + 4}}
	}
	for i, conf := range []float64{0.5, 0.9, 0.7} {
		v := truth.New(1.0, conf)
		tk := judgment(st, v, 0)
		tk.Stamp = long(uint64(i * 10))
		c.AddJudgment(tk)
	}

	require.Equal(t, 2, c.BeliefCount())
	beliefs := c.Beliefs()
	assert.InDelta(t, 0.9, beliefs[0].Truth.Confidence, 1e-9)
	assert.InDelta(t, 0.7, beliefs[1].Truth.Confidence, 1e-9)
}

func TestCapacityBound(t *testing.T) {
	fx := newFixture(Limits{MaxConcepts: 3})

	var weakest *term.Term
	for i := 0; i < 3; i++ {
		st := fx.inh(t, fmt.Sprintf("s%d", i), fmt.Sprintf("p%d", i))
		tk := judgment(st, truth.Default(), uint64(i+1))
		if i == 0 {
			weakest = st
			tk.Budget = task.NewBudget(0.1, 0.1, 0.1)
		}
		fx.m.Insert(tk, uint64(i))
	}
	require.Equal(t, 3, fx.m.Len())

	fx.m.Insert(judgment(fx.inh(t, "s9", "p9"), truth.Default(), 9), 10)
	assert.Equal(t, 3, fx.m.Len(), "capacity never exceeded")
	assert.Nil(t, fx.m.Get(weakest), "lowest-budget concept evicted")
}

func TestEvictionRemovesFromIndexes(t *testing.T) {
	fx := newFixture(Limits{MaxConcepts: 1})

	st1 := fx.inh(t, "a", "b")
	st2 := fx.inh(t, "b", "c")
	fx.m.Insert(judgment(st1, truth.Default(), 1), 0)
	fx.m.Insert(judgment(st2, truth.Default(), 2), 1)

	require.Equal(t, 1, fx.m.Len())
	b, err := fx.f.Atom("b")
	require.NoError(t, err)
	for _, c := range fx.m.Related(b) {
		assert.False(t, c.Term.Equal(st1), "evicted concept must leave every index")
	}
}

func TestQuestionEarlyAnswer(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "bird", "animal")

	fx.m.Insert(judgment(st, truth.New(1.0, 0.9), 1), 0)
	res := fx.m.Insert(question(st), 1)

	require.Len(t, res.Answers, 1)
	assert.InDelta(t, 0.9, res.Answers[0].Belief.Truth.Confidence, 1e-9)
}

func TestPendingQuestionAnsweredByLaterBelief(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "bird", "animal")

	res := fx.m.Insert(question(st), 0)
	assert.Empty(t, res.Answers, "no evidence yet")

	res = fx.m.Insert(judgment(st, truth.Default(), 1), 1)
	require.Len(t, res.Answers, 1)
	assert.True(t, res.Answers[0].Task.IsQuestion())
	assert.InDelta(t, 0.9, res.Answers[0].Belief.Truth.Confidence, 1e-9)
}

func TestGoalDesireTable(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "room", "lit")
	v := truth.New(1.0, 0.9)
	g := &task.Task{
		Term:        st,
		Punctuation: task.Goal,
		Truth:       &v,
		Budget:      task.DefaultBudget(task.Goal, &v),
		Stamp:       task.NewStamp(1),
	}

	res := fx.m.Insert(g, 0)
	require.Len(t, res.Concept.Desires(), 1)
	assert.Equal(t, g, res.Concept.HottestPending())
}

func TestGoalEarlyAnswerFromExistingBelief(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "room", "lit")

	fx.m.Insert(judgment(st, truth.New(1.0, 0.9), 1), 0)
	res := fx.m.Insert(goal(st, truth.Default(), 2), 1)

	require.Len(t, res.Answers, 1)
	assert.True(t, res.Answers[0].Task.IsGoal())
	assert.InDelta(t, 0.9, res.Answers[0].Belief.Truth.Confidence, 1e-9)
}

func TestPendingGoalAnsweredByLaterBelief(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "room", "lit")

	res := fx.m.Insert(goal(st, truth.Default(), 1), 0)
	assert.Empty(t, res.Answers, "no evidence yet")
	assert.Empty(t, res.Concept.AnswerPending())

	res = fx.m.Insert(judgment(st, truth.New(1.0, 0.9), 2), 1)
	require.Len(t, res.Answers, 1)
	assert.True(t, res.Answers[0].Task.IsGoal())
	assert.InDelta(t, 0.9, res.Answers[0].Belief.Truth.Confidence, 1e-9)
}

func TestDecayReachesDesireTable(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "room", "lit")

	res := fx.m.Insert(goal(st, truth.Default(), 1), 0)
	before := res.Concept.Desires()[0].Budget

	fx.m.Decay(0.5)

	after := res.Concept.Desires()[0].Budget
	assert.Less(t, after.Durability, before.Durability)
	assert.Less(t, after.Priority, before.Priority)
}

func TestForgettingSweep(t *testing.T) {
	fx := newFixture(Limits{})
	st1 := fx.inh(t, "a", "b")
	st2 := fx.inh(t, "c", "d")

	fx.m.Insert(judgment(st1, truth.Default(), 1), 0)
	fx.m.Insert(judgment(st2, truth.Default(), 2), 0)
	fx.m.Get(st1).Budget = task.NewBudget(0.5, 0.05, 0.1)

	evicted := fx.m.Forget(0.2)
	assert.Equal(t, 1, evicted)
	assert.Nil(t, fx.m.Get(st1))
	assert.NotNil(t, fx.m.Get(st2))
}

func TestRelatedFindsSharedConstituents(t *testing.T) {
	fx := newFixture(Limits{})
	mp := fx.inh(t, "bird", "animal")
	sm := fx.inh(t, "robin", "bird")
	unrelated := fx.inh(t, "fish", "swimmer")

	fx.m.Insert(judgment(mp, truth.Default(), 1), 0)
	fx.m.Insert(judgment(sm, truth.Default(), 2), 0)
	fx.m.Insert(judgment(unrelated, truth.Default(), 3), 0)

	related := fx.m.Related(mp)
	require.Len(t, related, 1)
	assert.True(t, related[0].Term.Equal(sm))
}

func TestBeliefsSnapshotWithFilter(t *testing.T) {
	fx := newFixture(Limits{})
	mp := fx.inh(t, "bird", "animal")
	sm := fx.inh(t, "robin", "bird")
	unrelated := fx.inh(t, "fish", "swimmer")

	fx.m.Insert(judgment(mp, truth.Default(), 1), 0)
	fx.m.Insert(judgment(sm, truth.Default(), 2), 0)
	fx.m.Insert(judgment(unrelated, truth.Default(), 3), 0)

	all := fx.m.Beliefs(nil)
	assert.Len(t, all, 3)

	bird, err := fx.f.Atom("bird")
	require.NoError(t, err)
	filtered := fx.m.Beliefs(bird)
	require.Len(t, filtered, 2)
	for _, b := range filtered {
		assert.True(t, b.Term.Contains(bird))
	}
}

func TestBaseIndexPrimitivesAreContracts(t *testing.T) {
	ix := &BaseIndex{name: "incomplete"}
	assert.Panics(t, func() { ix.Add(nil) })
	assert.Panics(t, func() { ix.Remove(nil) })
	assert.Panics(t, func() { ix.Find("x") })
}

func TestIndexUpdateRekeys(t *testing.T) {
	fx := newFixture(Limits{})
	st := fx.inh(t, "a", "b")
	c := fx.m.GetOrCreate(st, task.NewBudget(0.5, 0.5, 0.5), 0)

	other := fx.inh(t, "x", "y")
	Update(fx.m.parts, c, func() { c.Term = other })

	x, err := fx.f.Atom("x")
	require.NoError(t, err)
	found := fx.m.parts.Find(x.String())
	require.Len(t, found, 1)
	assert.Same(t, c, found[0])

	a, err := fx.f.Atom("a")
	require.NoError(t, err)
	assert.Empty(t, fx.m.parts.Find(a.String()), "old keys removed")
}

func TestConceptsByPriorityIsDeterministic(t *testing.T) {
	fx := newFixture(Limits{})
	for i := 0; i < 5; i++ {
		st := fx.inh(t, fmt.Sprintf("s%d", i), "p")
		fx.m.Insert(judgment(st, truth.Default(), uint64(i+1)), 0)
	}
	first := fx.m.ConceptsByPriority()
	second := fx.m.ConceptsByPriority()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Term.String(), second[i].Term.String())
	}
}
