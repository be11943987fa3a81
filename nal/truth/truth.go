// Package truth implements the NAL truth-value calculus: an evidence-based
// extension of probability where every value carries a frequency (observed
// proportion of positive evidence) and a confidence (how much evidence backs
// it, mapped into [0,1)).
//
// All functions are stateless, closed-form transforms over one or two
// values. Outputs are always clamped to valid ranges.
package truth

// Horizon is the evidential horizon constant k used to interconvert
// evidence counts and confidence: c = w / (w + k). Fixed at 1 and applied
// consistently across every formula.
const Horizon = 1.0

// MaxConfidence is the exclusive upper bound on confidence. Confidence
// asymptotically approaches but never reaches 1; revision output is capped
// here.
const MaxConfidence = 0.9999

// Value is an immutable truth value. Construct through New so the range
// invariants (0 <= Frequency <= 1, 0 <= Confidence < 1) always hold.
type Value struct {
	Frequency  float64
	Confidence float64
}

// New builds a Value, clamping both components into range.
func New(frequency, confidence float64) Value {
	return Value{
		Frequency:  clamp(frequency, 0, 1),
		Confidence: clamp(confidence, 0, MaxConfidence),
	}
}

// Default is the truth assigned to a judgment entered without an explicit
// truth literal.
func Default() Value {
	return New(1.0, 0.9)
}

// Expectation is the single-number decision value c*(f-0.5)+0.5, used to
// rank beliefs when answering questions.
func (v Value) Expectation() float64 {
	return v.Confidence*(v.Frequency-0.5) + 0.5
}

// evidence count <-> confidence, with the fixed horizon.

func w2c(w float64) float64 {
	return clamp(w/(w+Horizon), 0, MaxConfidence)
}

func c2w(c float64) float64 {
	return Horizon * c / (1 - c)
}

// Revision combines independent evidence for the same statement via
// confidence-weighted averaging. The result's confidence is always >= the
// higher of the two inputs: pooling evidence never loses information.
func Revision(a, b Value) Value {
	wa := c2w(a.Confidence)
	wb := c2w(b.Confidence)
	w := wa + wb
	if w == 0 {
		return New((a.Frequency+b.Frequency)/2, 0)
	}
	return New((wa*a.Frequency+wb*b.Frequency)/w, w2c(w))
}

// Deduction: from <M-->P> and <S-->M>, conclude <S-->P>.
func Deduction(a, b Value) Value {
	f := a.Frequency * b.Frequency
	return New(f, f*a.Confidence*b.Confidence)
}

// Analogy: from <M-->P> and <S<->M>, conclude <S-->P>.
func Analogy(a, b Value) Value {
	return New(a.Frequency*b.Frequency, a.Confidence*b.Confidence*b.Frequency)
}

// Resemblance: from <M<->P> and <S<->M>, conclude <S<->P>.
func Resemblance(a, b Value) Value {
	f := a.Frequency * b.Frequency
	return New(f, a.Confidence*b.Confidence*or(a.Frequency, b.Frequency))
}

// Abduction: from <P-->M> and <S-->M>, conclude <S-->P>. The conclusion is
// only weakly supported: frequency is carried from the first premise and
// the evidence count shrinks through w2c.
func Abduction(a, b Value) Value {
	return New(a.Frequency, w2c(b.Frequency*a.Confidence*b.Confidence))
}

// Induction: from <M-->P> and <M-->S>, conclude <S-->P>. Symmetric twin of
// abduction with the premises swapped.
func Induction(a, b Value) Value {
	return Abduction(b, a)
}

// Exemplification: from <P-->M> and <M-->S>, conclude <S-->P>.
func Exemplification(a, b Value) Value {
	return New(1.0, w2c(a.Frequency*b.Frequency*a.Confidence*b.Confidence))
}

// Comparison: from <M-->P> and <M-->S>, conclude <S<->P>.
func Comparison(a, b Value) Value {
	f0 := or(a.Frequency, b.Frequency)
	f := 0.0
	if f0 > 0 {
		f = a.Frequency * b.Frequency / f0
	}
	return New(f, w2c(f0*a.Confidence*b.Confidence))
}

// Intersection: from <M-->P> and <M-->S>, conclude <M-->(P && S)>.
func Intersection(a, b Value) Value {
	return New(a.Frequency*b.Frequency, a.Confidence*b.Confidence)
}

// Union: from <M-->P> and <M-->S>, conclude <M-->(P || S)>.
func Union(a, b Value) Value {
	return New(or(a.Frequency, b.Frequency), a.Confidence*b.Confidence)
}

// Conversion: from <S-->P>, conclude <P-->S>.
func Conversion(a Value) Value {
	return New(1.0, w2c(a.Frequency*a.Confidence))
}

// Negation inverts frequency and keeps the evidence amount.
func Negation(a Value) Value {
	return New(1-a.Frequency, a.Confidence)
}

func or(a, b float64) float64 {
	return 1 - (1-a)*(1-b)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
