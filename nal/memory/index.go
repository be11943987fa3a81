package memory

import (
	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/nal/term"
)

// Index is a secondary structural lookup over concepts. Implementations
// derive one or more keys from a concept's term; Find returns every concept
// whose term produced the given key.
type Index interface {
	Name() string
	Add(c *Concept)
	Remove(c *Concept)
	Find(key string) []*Concept
}

// Update re-keys a concept whose term-derived fields are about to change:
// remove under the old keys, mutate, re-add under the new ones. Concrete
// indexes only implement the three primitives.
func Update(ix Index, c *Concept, mutate func()) {
	ix.Remove(c)
	mutate()
	ix.Add(c)
}

// BaseIndex is the abstract index root. Every primitive panics with an
// assertion failure: reaching one means a concrete index forgot to
// implement it, which is a programming defect, not a runtime condition.
type BaseIndex struct {
	name string
}

func (b *BaseIndex) Name() string { return b.name }

func (b *BaseIndex) Add(*Concept) {
	panic(errors.AssertionFailedf("index %s does not implement Add", b.name))
}

func (b *BaseIndex) Remove(*Concept) {
	panic(errors.AssertionFailedf("index %s does not implement Remove", b.name))
}

func (b *BaseIndex) Find(string) []*Concept {
	panic(errors.AssertionFailedf("index %s does not implement Find", b.name))
}

// ShapeIndex groups concepts by their term's top-level operator, the same
// key rule dispatch uses, so premise candidates with a compatible shape are
// found without scanning memory.
type ShapeIndex struct {
	BaseIndex
	byOp map[term.Op]map[string]*Concept
}

func NewShapeIndex() *ShapeIndex {
	return &ShapeIndex{
		BaseIndex: BaseIndex{name: "shape"},
		byOp:      make(map[term.Op]map[string]*Concept),
	}
}

func (ix *ShapeIndex) Add(c *Concept) {
	bucket := ix.byOp[c.Term.Op]
	if bucket == nil {
		bucket = make(map[string]*Concept)
		ix.byOp[c.Term.Op] = bucket
	}
	bucket[c.Term.String()] = c
}

func (ix *ShapeIndex) Remove(c *Concept) {
	bucket := ix.byOp[c.Term.Op]
	delete(bucket, c.Term.String())
	if len(bucket) == 0 {
		delete(ix.byOp, c.Term.Op)
	}
}

func (ix *ShapeIndex) Find(key string) []*Concept {
	return collect(ix.byOp[term.Op(key)])
}

// ConstituentIndex maps statement subjects and predicates to the concepts
// whose statements contain them. This is the lookup behind premise pairing:
// two statements can feed a syllogism only if they share a constituent.
type ConstituentIndex struct {
	BaseIndex
	byConstituent map[string]map[string]*Concept
}

func NewConstituentIndex() *ConstituentIndex {
	return &ConstituentIndex{
		BaseIndex:     BaseIndex{name: "constituent"},
		byConstituent: make(map[string]map[string]*Concept),
	}
}

func (ix *ConstituentIndex) keys(c *Concept) []string {
	if !c.Term.IsStatement() {
		return nil
	}
	return []string{c.Term.Subject().String(), c.Term.Predicate().String()}
}

func (ix *ConstituentIndex) Add(c *Concept) {
	for _, k := range ix.keys(c) {
		bucket := ix.byConstituent[k]
		if bucket == nil {
			bucket = make(map[string]*Concept)
			ix.byConstituent[k] = bucket
		}
		bucket[c.Term.String()] = c
	}
}

func (ix *ConstituentIndex) Remove(c *Concept) {
	for _, k := range ix.keys(c) {
		bucket := ix.byConstituent[k]
		delete(bucket, c.Term.String())
		if len(bucket) == 0 {
			delete(ix.byConstituent, k)
		}
	}
}

func (ix *ConstituentIndex) Find(key string) []*Concept {
	return collect(ix.byConstituent[key])
}

func collect(bucket map[string]*Concept) []*Concept {
	if len(bucket) == 0 {
		return nil
	}
	out := make([]*Concept, 0, len(bucket))
	for _, c := range bucket {
		out = append(out, c)
	}
	return out
}
