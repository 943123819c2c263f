package engine

import (
	"sort"

	"github.com/born-ml/born/internal/tensor"
)

// Accumulator is a per-variable sink that sums partial gradients. Modeled as
// a tagged variant (an interface with two private implementations) rather
// than inheritance, per spec.md §9.
type Accumulator interface {
	// SumGrad records a contribution. Eager adds in place; Sorted buffers
	// (contribution, opID) pairs for deterministic folding later.
	SumGrad(partial *tensor.RawTensor, opID int64, backend tensor.Backend)

	// IncRef increments the expected contribution count. Only called during
	// dependency analysis, never during execution.
	IncRef()
	RefCnt() int

	// SumCompleted is true once RefCnt() contributions have been recorded.
	SumCompleted() bool

	// AccumulateGrad finalizes the sum (sorting and folding for Sorted) and
	// merges it into any pre-existing gradient on the target VarRef.
	AccumulateGrad(backend tensor.Backend)

	HasPostHooks() bool
	SetPostHooks(hooks []func(*tensor.RawTensor))
	CallPostHooks()

	Target() *VarRef
	Result() *tensor.RawTensor
}

type baseAccumulator struct {
	target    *VarRef
	refCnt    int
	completed int
	hooks     []func(*tensor.RawTensor)
}

func (b *baseAccumulator) IncRef()         { b.refCnt++ }
func (b *baseAccumulator) RefCnt() int     { return b.refCnt }
func (b *baseAccumulator) SumCompleted() bool { return b.completed >= b.refCnt && b.refCnt > 0 }
func (b *baseAccumulator) HasPostHooks() bool { return len(b.hooks) > 0 }
func (b *baseAccumulator) SetPostHooks(h []func(*tensor.RawTensor)) { b.hooks = h }
func (b *baseAccumulator) Target() *VarRef { return b.target }

func (b *baseAccumulator) CallPostHooks() {
	if b.target.Grad() == nil {
		return
	}
	for _, h := range b.hooks {
		h(b.target.Grad())
	}
}

// eagerAccumulator adds each contribution in place as it arrives.
type eagerAccumulator struct {
	baseAccumulator
	sum *tensor.RawTensor
}

func newEagerAccumulator(target *VarRef) *eagerAccumulator {
	return &eagerAccumulator{baseAccumulator: baseAccumulator{target: target}}
}

func (e *eagerAccumulator) SumGrad(partial *tensor.RawTensor, _ int64, backend tensor.Backend) {
	if e.sum == nil {
		e.sum = partial
	} else {
		e.sum = backend.Add(e.sum, partial)
	}
	e.completed++
}

func (e *eagerAccumulator) AccumulateGrad(backend tensor.Backend) {
	if prior := e.target.Grad(); prior != nil && e.sum != nil {
		e.sum = backend.Add(prior, e.sum)
	}
	if e.sum != nil {
		e.target.SetGrad(e.sum)
	}
}

func (e *eagerAccumulator) Result() *tensor.RawTensor { return e.sum }

// sortedAccumulator buffers contributions and folds them in ascending op_id
// order at completion, so the result is deterministic regardless of the
// order backward ops happened to run in.
type sortedAccumulator struct {
	baseAccumulator
	pending []sortedContribution
	sum     *tensor.RawTensor
}

type sortedContribution struct {
	tensor *tensor.RawTensor
	opID   int64
}

func newSortedAccumulator(target *VarRef) *sortedAccumulator {
	return &sortedAccumulator{baseAccumulator: baseAccumulator{target: target}}
}

func (s *sortedAccumulator) SumGrad(partial *tensor.RawTensor, opID int64, _ tensor.Backend) {
	s.pending = append(s.pending, sortedContribution{tensor: partial, opID: opID})
	s.completed++
}

func (s *sortedAccumulator) AccumulateGrad(backend tensor.Backend) {
	sort.SliceStable(s.pending, func(i, j int) bool { return s.pending[i].opID < s.pending[j].opID })
	for _, c := range s.pending {
		if s.sum == nil {
			s.sum = c.tensor
		} else {
			s.sum = backend.Add(s.sum, c.tensor)
		}
	}
	if prior := s.target.Grad(); prior != nil && s.sum != nil {
		s.sum = backend.Add(prior, s.sum)
	}
	if s.sum != nil {
		s.target.SetGrad(s.sum)
	}
}

func (s *sortedAccumulator) Result() *tensor.RawTensor { return s.sum }

func newAccumulator(target *VarRef, cfg Config) Accumulator {
	if cfg.SortSumGradient {
		return newSortedAccumulator(target)
	}
	return newEagerAccumulator(target)
}
