package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
)

func TestStampOverlap(t *testing.T) {
	a := Stamp{Evidence: []uint64{1, 3, 5}}
	b := Stamp{Evidence: []uint64{2, 4, 6}}
	c := Stamp{Evidence: []uint64{5, 9}}

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.False(t, b.Overlaps(c))
	assert.True(t, a.Overlaps(a))
}

func TestStampMerge(t *testing.T) {
	a := Stamp{Evidence: []uint64{1, 3}}
	b := Stamp{Evidence: []uint64{2, 4}}

	merged, ok := a.Merge(b)
	require.True(t, ok)
	assert.Equal(t, []uint64{1, 2, 3, 4}, merged.Evidence)
}

func TestStampMergeRejectsOverlap(t *testing.T) {
	a := Stamp{Evidence: []uint64{1, 3}}
	b := Stamp{Evidence: []uint64{3, 4}}

	_, ok := a.Merge(b)
	assert.False(t, ok, "overlapping bases must not combine")
}

func TestStampMergeRejectsOversize(t *testing.T) {
	a := Stamp{Evidence: []uint64{1, 2, 3, 4, 5}}
	b := Stamp{Evidence: []uint64{6, 7, 8, 9}}

	_, ok := a.Merge(b)
	assert.False(t, ok, "merged base beyond MaxStampLength must be rejected")
}

func TestBudgetClamping(t *testing.T) {
	b := NewBudget(1.5, -0.2, 0.5)
	assert.Equal(t, 1.0, b.Priority)
	assert.Equal(t, 0.0, b.Durability)
	assert.Equal(t, 0.5, b.Quality)
}

func TestBudgetDecayShrinksPriority(t *testing.T) {
	b := NewBudget(0.8, 0.5, 0.1)
	d := b.Decay(0.9)

	assert.Less(t, d.Priority, b.Priority)
	assert.LessOrEqual(t, d.Durability, b.Durability)
	assert.Equal(t, b.Quality, d.Quality)

	// Repeated decay keeps everything in range and eventually drains
	// durability under any forgetting threshold.
	for i := 0; i < 100; i++ {
		d = d.Decay(0.9)
	}
	assert.GreaterOrEqual(t, d.Priority, 0.0)
	assert.Less(t, d.Durability, 0.01)
}

func TestDerivedBudgetMonotoneInConfidence(t *testing.T) {
	parent := NewBudget(0.8, 0.8, 0.5)

	low := Derived(parent, 0.2, 3)
	high := Derived(parent, 0.9, 3)
	assert.Greater(t, high.Priority, low.Priority,
		"higher-information conclusions get higher priority")

	simple := Derived(parent, 0.9, 3)
	heavy := Derived(parent, 0.9, 12)
	assert.Greater(t, simple.Priority, heavy.Priority,
		"complex terms are taxed")
}

func TestDefaultBudgets(t *testing.T) {
	tv := truth.Default()
	j := DefaultBudget(Judgment, &tv)
	q := DefaultBudget(Question, nil)

	assert.Greater(t, q.Priority, j.Priority, "questions start hotter")
	assert.Greater(t, j.Quality, 0.0)
}

func TestTaskString(t *testing.T) {
	f := term.NewFactory()
	bird, err := f.Atom("bird")
	require.NoError(t, err)
	animal, err := f.Atom("animal")
	require.NoError(t, err)
	s, err := f.Statement(bird, term.OpInheritance, animal)
	require.NoError(t, err)

	tv := truth.New(1.0, 0.9)
	tk := &Task{Term: s, Punctuation: Judgment, Truth: &tv, Stamp: NewStamp(1)}
	assert.Equal(t, "<bird --> animal>. %1.00;0.90%", tk.String())

	q := &Task{Term: s, Punctuation: Question}
	assert.Equal(t, "<bird --> animal>?", q.String())
}
