package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/noeta/NAR/nal/effect"
	"github.com/noeta/NAR/nal/parser"
	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/truth"
)

func newEngine(t *testing.T, params Params) *Engine {
	t.Helper()
	e, err := New(params, zap.NewNop().Sugar())
	require.NoError(t, err)
	return e
}

func mustInput(t *testing.T, e *Engine, text string) *task.Task {
	t.Helper()
	tk, err := e.Input(text)
	require.NoError(t, err)
	return tk
}

func findBelief(beliefs []*task.Task, canonical string) *task.Task {
	for _, b := range beliefs {
		if b.Term.String() == canonical {
			return b
		}
	}
	return nil
}

func TestDeductionScenario(t *testing.T) {
	e := newEngine(t, Params{Seed: 42})
	mustInput(t, e, "<bird --> animal>. %1.0;0.9%")
	mustInput(t, e, "<robin --> bird>. %1.0;0.9%")

	e.RunCycles(20)

	derived := findBelief(e.Beliefs(nil), "<robin --> animal>")
	require.NotNil(t, derived, "deduction never fired")
	assert.InDelta(t, 1.0, derived.Truth.Frequency, 0.01)
	assert.Less(t, derived.Truth.Confidence, 0.9)
	assert.Greater(t, derived.Truth.Confidence, 0.0)
}

func TestInputReturnsParseError(t *testing.T) {
	e := newEngine(t, Params{})
	_, err := e.Input("<bird --> animal>. trailing junk")
	require.Error(t, err)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, e.Stats().Concepts, "failed input must not touch memory")
}

func TestIdempotentInsert(t *testing.T) {
	e := newEngine(t, Params{})
	mustInput(t, e, "<bird --> animal>. %1.0;0.9%")
	mustInput(t, e, "<bird --> animal>. %1.0;0.9%")

	beliefs := e.Beliefs(nil)
	require.Len(t, beliefs, 1, "one belief row, not two")
	assert.GreaterOrEqual(t, beliefs[0].Truth.Confidence, 0.9,
		"re-stated evidence revises, never weakens")
}

func TestDeterminism(t *testing.T) {
	run := func() []string {
		e := newEngine(t, Params{Seed: 7})
		mustInput(t, e, "<bird --> animal>.")
		mustInput(t, e, "<robin --> bird>.")
		mustInput(t, e, "<bird --> flyer>.")
		mustInput(t, e, "<penguin --> bird>. %1.0;0.8%")
		var out []string
		for _, d := range e.RunCycles(30) {
			out = append(out, d.String())
		}
		return out
	}
	assert.Equal(t, run(), run(), "fixed seed and inputs must replay identically")
}

func TestCapacityBound(t *testing.T) {
	e := newEngine(t, Params{MaxConcepts: 4, ConceptsPerStep: 1})
	inputs := []string{
		"<a --> b>.", "<c --> d>.", "<e --> f>.",
		"<g --> h>.", "<i --> j>.", "<k --> l>.",
	}
	for _, in := range inputs {
		mustInput(t, e, in)
		assert.LessOrEqual(t, e.Stats().Concepts, 4)
	}
	assert.Equal(t, 4, e.Stats().Concepts)
}

func TestQuestionAnsweredByDerivation(t *testing.T) {
	e := newEngine(t, Params{Seed: 3})
	mustInput(t, e, "<robin --> animal>?")
	mustInput(t, e, "<bird --> animal>.")
	mustInput(t, e, "<robin --> bird>.")

	answered := false
	for i := 0; i < 30 && !answered; i++ {
		report := e.Step()
		for _, a := range report.Answered {
			if a.Task.Term.String() == "<robin --> animal>" {
				answered = true
				assert.True(t, a.Belief.IsJudgment())
			}
		}
	}
	assert.True(t, answered, "pending question never answered")

	q, err := e.parser.Parse("<robin --> animal>?")
	require.NoError(t, err)
	best := e.BestAnswer(q.Term)
	require.NotNil(t, best)
	assert.Greater(t, best.Truth.Expectation(), 0.5)
}

func TestBeliefsFilter(t *testing.T) {
	e := newEngine(t, Params{})
	mustInput(t, e, "<bird --> animal>.")
	mustInput(t, e, "<fish --> swimmer>.")

	bird, err := e.Factory().Atom("bird")
	require.NoError(t, err)
	filtered := e.Beliefs(bird)
	require.Len(t, filtered, 1)
	assert.Equal(t, "<bird --> animal>", filtered[0].Term.String())
}

func TestConceptsTelemetry(t *testing.T) {
	e := newEngine(t, Params{})
	mustInput(t, e, "<bird --> animal>.")

	summaries := e.Concepts()
	require.Len(t, summaries, 1)
	assert.Equal(t, "<bird --> animal>", summaries[0].Term)
	assert.Equal(t, 1, summaries[0].BeliefCount)
	assert.Greater(t, summaries[0].Budget.Priority, 0.0)
}

func TestForgettingSweepsIdleConcepts(t *testing.T) {
	e := newEngine(t, Params{
		DecayRate:       0.5,
		ForgetThreshold: 0.3,
		ForgetInterval:  5,
		ConceptsPerStep: 1,
	})
	mustInput(t, e, "<a --> b>.")
	mustInput(t, e, "<c --> d>.")

	e.RunCycles(60)
	assert.Less(t, e.Stats().Concepts, 2, "aggressive decay must forget idle concepts")
}

func TestRunStopsBetweenCycles(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newEngine(t, Params{})
	mustInput(t, e, "<bird --> animal>.")

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		e.Run(ctx, time.Millisecond)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return e.Stats().Cycles > 0 },
		2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not observe cancellation")
	}
}

func TestGoalDispatchesEffect(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newEngine(t, Params{})
	d := effect.NewDispatcher(effect.Options{Workers: 1, QueueSize: 8}, zap.NewNop().Sugar())
	e.SetEffects(d)

	d.Register("lit", func(ctx context.Context, r effect.Request) (*task.Task, error) {
		// Report the goal state as achieved.
		v := truth.Default()
		return &task.Task{
			Term:        r.Goal.Term,
			Punctuation: task.Judgment,
			Truth:       &v,
			Budget:      task.DefaultBudget(task.Judgment, &v),
		}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	mustInput(t, e, "<room --> lit>!")

	require.Eventually(t, func() bool {
		return findBelief(e.Beliefs(nil), "<room --> lit>") != nil
	}, 2*time.Second, 5*time.Millisecond, "effect result never re-entered as a belief")

	cancel()
	d.Wait()
}

func TestSatisfiedGoalSuppressesEffect(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := newEngine(t, Params{Seed: 1, ConceptsPerStep: 1})
	d := effect.NewDispatcher(effect.Options{Workers: 1, QueueSize: 8}, zap.NewNop().Sugar())
	e.SetEffects(d)

	var calls atomic.Int32
	d.Register("lit", func(ctx context.Context, r effect.Request) (*task.Task, error) {
		calls.Add(1)
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	// The goal state already holds, so neither the insert nor later
	// selections of the pending goal may request external action.
	mustInput(t, e, "<room --> lit>. %1.0;0.9%")
	mustInput(t, e, "<room --> lit>!")
	e.RunCycles(10)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "satisfied goal must not trigger its effect")

	cancel()
	d.Wait()
}

func TestGoalSatisfiedByDerivation(t *testing.T) {
	e := newEngine(t, Params{Seed: 3})
	mustInput(t, e, "<room --> lit>!")
	mustInput(t, e, "<lamp --> lit>.")
	mustInput(t, e, "<room --> lamp>.")

	satisfied := false
	for i := 0; i < 30 && !satisfied; i++ {
		report := e.Step()
		for _, a := range report.Answered {
			if a.Task.IsGoal() && a.Task.Term.String() == "<room --> lit>" {
				satisfied = true
				assert.True(t, a.Belief.IsJudgment())
			}
		}
	}
	assert.True(t, satisfied, "pending goal never matched a derived belief")
}

func TestInputTaskLeavesCallerTaskIntact(t *testing.T) {
	a := newEngine(t, Params{})
	b := newEngine(t, Params{})
	mustInput(t, a, "<bird --> animal>.")

	belief := a.Beliefs(nil)[0]
	origTerm := belief.Term
	origEvidence := belief.Stamp.Evidence

	b.InputTask(belief)

	assert.Same(t, origTerm, belief.Term, "forwarded task keeps its own factory's term")
	assert.Equal(t, origEvidence, belief.Stamp.Evidence)
	got := b.Beliefs(nil)[0]
	assert.False(t, belief.Term == got.Term, "receiving engine re-interns its own copy")
}

func TestEnginesShareNoState(t *testing.T) {
	a := newEngine(t, Params{})
	b := newEngine(t, Params{})

	mustInput(t, a, "<bird --> animal>.")
	assert.Equal(t, 1, a.Stats().Concepts)
	assert.Equal(t, 0, b.Stats().Concepts)

	// Serialized hand-off between instances: a's belief re-enters b as an
	// ordinary task, re-interned in b's factory.
	belief := a.Beliefs(nil)[0]
	b.InputTask(&task.Task{
		Term:        belief.Term,
		Punctuation: task.Judgment,
		Truth:       belief.Truth,
		Budget:      belief.Budget,
	})
	require.Equal(t, 1, b.Stats().Concepts)
	got := b.Beliefs(nil)[0]
	assert.Equal(t, belief.Term.String(), got.Term.String())
	assert.False(t, belief.Term == got.Term, "terms live in separate factories")
}

func TestStatsCounters(t *testing.T) {
	e := newEngine(t, Params{Seed: 1})
	mustInput(t, e, "<bird --> animal>.")
	mustInput(t, e, "<robin --> bird>.")
	e.RunCycles(10)

	s := e.Stats()
	assert.Equal(t, uint64(10), s.Cycles)
	assert.Equal(t, uint64(2), s.Inputs)
	assert.Greater(t, s.Derived, uint64(0))
}
