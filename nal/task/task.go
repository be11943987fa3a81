// Package task defines the unit of work flowing through the reasoner: a
// term with punctuation, optional truth, a budget, and an evidential stamp.
package task

import (
	"fmt"

	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
)

// Punctuation marks what kind of statement a task carries.
type Punctuation byte

const (
	Judgment Punctuation = '.'
	Question Punctuation = '?'
	Goal     Punctuation = '!'
)

// String returns the Narsese punctuation mark.
func (p Punctuation) String() string { return string(rune(p)) }

// Valid reports whether p is one of the three known punctuations.
func (p Punctuation) Valid() bool {
	return p == Judgment || p == Question || p == Goal
}

// Task is a statement under processing. Truth is nil for questions and
// goals carry a desire value in Truth. CreationTime is the engine cycle
// count at creation, used for recency tie-breaks.
type Task struct {
	Term         *term.Term
	Punctuation  Punctuation
	Truth        *truth.Value
	Budget       Budget
	Stamp        Stamp
	CreationTime uint64
}

// IsJudgment reports whether the task asserts a belief.
func (t *Task) IsJudgment() bool { return t.Punctuation == Judgment }

// IsQuestion reports whether the task asks for the best matching belief.
func (t *Task) IsQuestion() bool { return t.Punctuation == Question }

// IsGoal reports whether the task states a desired outcome.
func (t *Task) IsGoal() bool { return t.Punctuation == Goal }

// String renders the task as Narsese, truth literal included when present.
func (t *Task) String() string {
	if t.Truth != nil {
		return fmt.Sprintf("%s%s %%%.2f;%.2f%%",
			t.Term, t.Punctuation, t.Truth.Frequency, t.Truth.Confidence)
	}
	return fmt.Sprintf("%s%s", t.Term, t.Punctuation)
}

// WithBudget returns a shallow copy of the task carrying a new budget.
// Tasks are otherwise treated as immutable once inserted.
func (t *Task) WithBudget(b Budget) *Task {
	c := *t
	c.Budget = b
	return &c
}
