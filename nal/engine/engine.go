// Package engine drives the reasoning loop: priority-weighted concept
// selection, premise pairing, rule application, insertion of derivations,
// budget decay, and periodic forgetting. One Engine owns its factory,
// memory, rule catalogue, and random source; instances share no state.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noeta/NAR/nal/effect"
	"github.com/noeta/NAR/nal/memory"
	"github.com/noeta/NAR/nal/parser"
	"github.com/noeta/NAR/nal/rules"
	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/term"
	"github.com/noeta/NAR/nal/truth"
)

// Params tunes one engine instance. Zero values take the defaults below.
type Params struct {
	MaxConcepts     int
	BeliefCapacity  int
	ConceptsPerStep int
	DecayRate       float64
	ForgetThreshold float64
	ForgetInterval  uint64
	Seed            int64
}

// Default control parameters.
const (
	DefaultConceptsPerStep = 3
	DefaultDecayRate       = 0.99
	DefaultForgetThreshold = 0.05
	DefaultForgetInterval  = 50
)

func (p Params) withDefaults() Params {
	if p.ConceptsPerStep < 1 {
		p.ConceptsPerStep = DefaultConceptsPerStep
	}
	if p.DecayRate <= 0 || p.DecayRate >= 1 {
		p.DecayRate = DefaultDecayRate
	}
	if p.ForgetThreshold <= 0 {
		p.ForgetThreshold = DefaultForgetThreshold
	}
	if p.ForgetInterval < 1 {
		p.ForgetInterval = DefaultForgetInterval
	}
	return p
}

// CycleReport is the outcome of one Step. Answered holds the pending
// questions and goals that gained a matching belief this cycle.
type CycleReport struct {
	Cycle        uint64
	DerivedTasks []*task.Task
	Answered     []memory.Answer
}

// Stats carries the process-wide counters.
type Stats struct {
	Cycles   uint64
	Inputs   uint64
	Derived  uint64
	Concepts int
}

// ConceptSummary is the telemetry view of one concept.
type ConceptSummary struct {
	Term        string
	Budget      task.Budget
	BeliefCount int
}

// Engine is the reasoner. All public methods are safe for concurrent use;
// a cycle is atomic with respect to Input.
type Engine struct {
	mu      sync.Mutex
	log     *zap.SugaredLogger
	params  Params
	factory *term.Factory
	parser  *parser.Parser
	memory  *memory.Memory
	rules   *rules.Catalogue
	rng     *rand.Rand
	effects *effect.Dispatcher

	cycle   uint64
	inputs  uint64
	derived uint64
	serial  uint64 // evidential-base id allocator
}

// New builds an engine with a fresh factory and empty memory. The seed
// fixes the concept-selection sequence, so runs are reproducible.
func New(params Params, log *zap.SugaredLogger) (*Engine, error) {
	params = params.withDefaults()
	factory := term.NewFactory()
	catalogue, err := rules.NewCatalogue(factory, log)
	if err != nil {
		return nil, err
	}
	limits := memory.Limits{
		MaxConcepts:    params.MaxConcepts,
		BeliefCapacity: params.BeliefCapacity,
	}
	return &Engine{
		log:     log,
		params:  params,
		factory: factory,
		parser:  parser.New(factory),
		memory:  memory.New(limits, log),
		rules:   catalogue,
		rng:     rand.New(rand.NewSource(params.Seed)),
	}, nil
}

// Factory exposes the engine's term factory for callers that build terms
// directly (tests, snapshot restore).
func (e *Engine) Factory() *term.Factory { return e.factory }

// SetEffects wires the external-effect dispatcher. The dispatcher's sink
// is pointed back at InputTask so handler results re-enter as input.
func (e *Engine) SetEffects(d *effect.Dispatcher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.effects = d
	d.SetSink(func(tk *task.Task) { e.InputTask(tk) })
}

// Input parses one Narsese statement and inserts it. The returned task
// carries a fresh evidential-base id. Parse failures return a
// *parser.ParseError and leave memory untouched.
func (e *Engine) Input(text string) (*task.Task, error) {
	res, err := e.parser.Parse(text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.serial++
	e.inputs++
	// A goal entered without a literal gets the default desire value.
	if res.Punctuation == task.Goal && res.Truth == nil {
		d := truth.Default()
		res.Truth = &d
	}
	tk := &task.Task{
		Term:         res.Term,
		Punctuation:  res.Punctuation,
		Truth:        res.Truth,
		Budget:       task.DefaultBudget(res.Punctuation, res.Truth),
		Stamp:        task.NewStamp(e.serial),
		CreationTime: e.cycle,
	}
	e.insert(tk)
	return tk, nil
}

// InputTask inserts a pre-built task, the path effect results take. A task
// arriving with an empty stamp is given a fresh id; terms from a foreign
// factory are re-interned. The caller's task is never written to: the
// engine inserts its own copy, so a task forwarded from another engine's
// snapshot stays intact.
func (e *Engine) InputTask(tk *task.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := *tk
	tk = &cp
	if imported, err := e.factory.Import(tk.Term); err == nil {
		tk.Term = imported
	} else {
		e.log.Warnw("dropping task with unimportable term", "term", tk.Term.String(), "error", err)
		return
	}
	if len(tk.Stamp.Evidence) == 0 {
		e.serial++
		tk.Stamp = task.NewStamp(e.serial)
	}
	if tk.IsGoal() && tk.Truth == nil {
		d := truth.Default()
		tk.Truth = &d
	}
	e.inputs++
	if tk.CreationTime == 0 {
		tk.CreationTime = e.cycle
	}
	e.insert(tk)
}

// insert routes a task into memory and dispatches any effect request the
// insertion triggers. Callers hold the mutex.
func (e *Engine) insert(tk *task.Task) []memory.Answer {
	res := e.memory.Insert(tk, e.cycle)
	if tk.IsGoal() {
		e.dispatchEffect(tk)
	}
	return res.Answers
}

// satisfactionThreshold is the belief expectation above which a goal state
// is considered already achieved, so no external action is requested.
const satisfactionThreshold = 0.75

// dispatchEffect forwards a goal with a registered handler to the effect
// pool. The handler name is the goal statement's predicate atom. Goals
// whose concept already holds a strong enough belief are suppressed. A
// full queue is logged; the request is re-issued when the goal is next
// selected from its pending queue, and again suppressed once satisfied.
func (e *Engine) dispatchEffect(goal *task.Task) {
	if e.effects == nil || !goal.Term.IsStatement() {
		return
	}
	pred := goal.Term.Predicate()
	if !pred.IsAtom() || !e.effects.HasHandler(pred.Name) {
		return
	}
	if c := e.memory.Get(goal.Term); c != nil {
		if b := c.BestBelief(); b != nil && b.Truth.Expectation() >= satisfactionThreshold {
			e.log.Debugw("goal already satisfied", "goal", goal.Term.String(),
				"expectation", b.Truth.Expectation())
			return
		}
	}
	err := e.effects.Submit(effect.Request{Handler: pred.Name, Goal: goal})
	if err != nil {
		e.log.Debugw("effect request dropped", "goal", goal.Term.String(), "error", err)
	}
}

// AdvanceSerial raises the evidential-base id allocator to at least floor.
// Snapshot restore uses this so fresh input ids never collide with
// restored stamps.
func (e *Engine) AdvanceSerial(floor uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.serial < floor {
		e.serial = floor
	}
}

// Beliefs returns an ordered read-only snapshot, optionally filtered to
// beliefs mentioning the given term.
func (e *Engine) Beliefs(filter *term.Term) []*task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.memory.Beliefs(filter)
}

// Concepts returns a telemetry snapshot of every concept, hottest first.
func (e *Engine) Concepts() []ConceptSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	concepts := e.memory.ConceptsByPriority()
	out := make([]ConceptSummary, len(concepts))
	for i, c := range concepts {
		out[i] = ConceptSummary{
			Term:        c.Term.String(),
			Budget:      c.Budget,
			BeliefCount: c.BeliefCount(),
		}
	}
	return out
}

// Stats returns the cumulative counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Stats{
		Cycles:   e.cycle,
		Inputs:   e.inputs,
		Derived:  e.derived,
		Concepts: e.memory.Len(),
	}
}

// BestAnswer returns the strongest belief for a question term, or nil.
func (e *Engine) BestAnswer(t *term.Term) *task.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.memory.Get(t)
	if c == nil {
		return nil
	}
	return c.BestBelief()
}

// Run auto-steps until ctx cancels. The in-flight cycle always completes;
// cancellation is only observed between cycles.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Step()
		}
	}
}
