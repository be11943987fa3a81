package task

import (
	"math"

	"github.com/noeta/NAR/nal/truth"
)

// Budget governs how likely and how long a task or concept is processed:
// priority drives selection, durability resists decay, quality is the
// long-term usefulness floor. All three live in [0,1]. Budgets are values,
// recomputed rather than mutated.
type Budget struct {
	Priority   float64
	Durability float64
	Quality    float64
}

// NewBudget clamps all three components into [0,1].
func NewBudget(priority, durability, quality float64) Budget {
	return Budget{
		Priority:   clamp01(priority),
		Durability: clamp01(durability),
		Quality:    clamp01(quality),
	}
}

// Default budgets per punctuation. Questions and goals start hotter than
// judgments so pending work is looked at before settled knowledge.
func DefaultBudget(p Punctuation, t *truth.Value) Budget {
	switch p {
	case Question, Goal:
		return NewBudget(0.9, 0.9, 1.0)
	default:
		q := 0.5
		if t != nil {
			q = TruthToQuality(*t)
		}
		return NewBudget(0.8, 0.8, q)
	}
}

// TruthToQuality maps a truth value onto budget quality: confident extreme
// frequencies are worth keeping, mid-range noise is not.
func TruthToQuality(v truth.Value) float64 {
	e := v.Expectation()
	return math.Max(e, (1-e)*0.75)
}

// Merge combines the budgets of two premises: the pair is as urgent as its
// hotter member, as durable as the average, as useful as the better.
func Merge(a, b Budget) Budget {
	return NewBudget(
		or(a.Priority, b.Priority),
		(a.Durability+b.Durability)/2,
		math.Max(a.Quality, b.Quality),
	)
}

// Derived computes the budget of a conclusion from the merged parent
// budget, the derived confidence, and the syntactic complexity of the
// derived term. Higher-information conclusions get higher priority;
// structurally heavy terms are taxed so the system is not flooded by
// ever-growing compounds.
func Derived(parent Budget, conf float64, complexity int) Budget {
	if complexity < 1 {
		complexity = 1
	}
	tax := 1.0 / (1.0 + math.Log(float64(complexity)))
	return NewBudget(
		parent.Priority*(0.5+0.5*conf)*tax,
		parent.Durability*0.9,
		TruthToQuality(truth.New(1.0, conf)),
	)
}

// Decay applies one cycle of forgetting: priority bleeds away at a rate
// softened by durability, durability erodes geometrically so even
// high-quality items eventually fall under the forgetting threshold. rate
// is the per-cycle retention factor from configuration (e.g. 0.99).
func (b Budget) Decay(rate float64) Budget {
	rate = clamp01(rate)
	p := b.Priority * (rate + (1-rate)*b.Durability)
	return NewBudget(p, b.Durability*rate, b.Quality)
}

// Summary is the scalar used for eviction ranking: priority x durability.
// Recency is folded in by the memory layer.
func (b Budget) Summary() float64 {
	return b.Priority * b.Durability
}

func or(a, b float64) float64 { return 1 - (1-a)*(1-b) }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
