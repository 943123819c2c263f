package engine

// AccumulatorRegistry maps (producer-node, variable) to accumulator for
// non-leaf gradient sinks, plus a separate leaf-variable map. "Producer-node"
// here means the node that will itself consume the accumulated value as a
// grad-input (see prepareGradAccumulators), matching basic_engine.cc's
// accumulators_ keying.
type AccumulatorRegistry struct {
	cfg       Config
	nonLeaf   map[*GradNode]map[*VarRef]Accumulator
	leaf      map[*VarRef]Accumulator
}

func newAccumulatorRegistry(cfg Config) *AccumulatorRegistry {
	return &AccumulatorRegistry{
		cfg:     cfg,
		nonLeaf: make(map[*GradNode]map[*VarRef]Accumulator),
		leaf:    make(map[*VarRef]Accumulator),
	}
}

func (r *AccumulatorRegistry) empty() bool {
	return len(r.nonLeaf) == 0 && len(r.leaf) == 0
}

func (r *AccumulatorRegistry) leafAccumulator(v *VarRef) (Accumulator, bool) {
	acc, ok := r.leaf[v]
	return acc, ok
}

func (r *AccumulatorRegistry) getOrCreateLeaf(v *VarRef) Accumulator {
	if acc, ok := r.leaf[v]; ok {
		return acc
	}
	acc := newAccumulator(v, r.cfg)
	r.leaf[v] = acc
	return acc
}

func (r *AccumulatorRegistry) nonLeafAccumulator(node *GradNode, v *VarRef) (Accumulator, bool) {
	m, ok := r.nonLeaf[node]
	if !ok {
		return nil, false
	}
	acc, ok := m[v]
	return acc, ok
}

func (r *AccumulatorRegistry) getOrCreateNonLeaf(node *GradNode, v *VarRef) Accumulator {
	m, ok := r.nonLeaf[node]
	if !ok {
		m = make(map[*VarRef]Accumulator)
		r.nonLeaf[node] = m
	}
	if acc, ok := m[v]; ok {
		return acc
	}
	acc := newAccumulator(v, r.cfg)
	m[v] = acc
	return acc
}

// prepareGradAccumulators implements spec.md §4.3's
// prepare_grad_accumulators(op, pending_nodes): for each grad-output VarRef
// of op (i.e. each input position of the original forward op), route it to
// a leaf or non-leaf accumulator and bump its ref count.
func (r *AccumulatorRegistry) prepareGradAccumulators(op *GradOp, node *GradNode, pendingNodes []*GradNode) error {
	for _, v := range op.gradOutputTargets {
		if v.StopGradient() {
			continue // forward-time stop_gradient: no edge, no accumulator.
		}
		if v.IsLeaf() {
			if v.Producer() != nil {
				return wrapOpError(ErrHookOnNonLeaf, node, op, v)
			}
			acc := r.getOrCreateLeaf(v)
			acc.IncRef()
			if v.HasLeafHooks() {
				acc.SetPostHooks(v.LeafHooks())
			}
			continue
		}
		matched := findFirstMatch(pendingNodes, v.Producer())
		if matched == nil {
			return wrapOpError(ErrMissingNode, node, op, v)
		}
		acc := r.getOrCreateNonLeaf(matched, v)
		acc.IncRef()
	}
	return nil
}

// findFirstMatch preserves the source's documented first-match-by-identity
// semantics: if two pending nodes could both claim v (not possible given the
// invariant that every non-leaf VarRef has exactly one producer, but kept to
// mirror spec.md's Open Question verbatim), the first occurrence wins.
func findFirstMatch(pendingNodes []*GradNode, producer *GradNode) *GradNode {
	for _, pn := range pendingNodes {
		if pn == producer {
			return pn
		}
	}
	return nil
}
