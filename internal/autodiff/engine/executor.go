package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/born-ml/born/internal/tensor"
)

// Engine drives the reverse traversal described in spec.md §4: Init installs
// the seed, Execute runs prepareDeps then the FIFO dispatch loop, Clear
// releases all engine-owned state. It is single-threaded and cooperative;
// callers must serialize Execute calls on a given instance (spec.md §5).
type Engine struct {
	cfg Config

	seed        *VarRef
	initNode    *GradNode
	retainGraph bool

	registry *AccumulatorRegistry
	nodeDeps map[*GradNode]int
}

// New constructs an Engine with the given configuration.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Init implements spec.md §4.1.
func (e *Engine) Init(seed *VarRef, retainGraph bool) error {
	if seed == nil || seed.Raw() == nil {
		return wrapOpError(ErrMissingGradSlot, nil, nil, seed)
	}
	if seed.GraphFreed() {
		return wrapOpError(ErrAlreadyConsumed, nil, nil, seed)
	}

	e.seed = seed
	e.retainGraph = retainGraph

	if seed.Producer() == nil || seed.StopGradient() {
		e.initNode = nil
		return nil
	}

	grad, err := tensor.NewRaw(seed.Shape(), seed.DType(), seed.Device())
	if err != nil {
		return wrapOpError(ErrMissingGradSlot, nil, nil, seed)
	}
	tensor.SetConstant(grad, 1)
	seed.SetGrad(grad)

	e.initNode = seed.Producer()
	if !retainGraph {
		seed.MarkGraphFreed()
		seed.DetachProducer()
	}
	return nil
}

func zeroLike(v *VarRef) (*tensor.RawTensor, error) {
	t, err := tensor.NewRaw(v.Shape(), v.DType(), v.Device())
	if err != nil {
		return nil, wrapOpError(ErrMissingGradSlot, v.Producer(), nil, v)
	}
	return t, nil
}

// Execute implements spec.md §4.4-4.5: prepareDeps followed by the FIFO
// topological dispatch, per-op four-stage execution, and an implicit Clear
// once the queue drains.
func (e *Engine) Execute(ctx context.Context, backend tensor.Backend) error {
	if e.initNode == nil {
		return nil
	}
	if e.registry != nil || len(e.nodeDeps) != 0 {
		return wrapOpError(ErrAlreadyInitialized, nil, nil, nil)
	}

	runID := uuid.New()
	logger := e.cfg.Logger.With().Str("engine_run_id", runID.String()).Logger()
	logger.Debug().Msg("engine execute starting")

	registry := newAccumulatorRegistry(e.cfg)
	nodeDeps, err := prepareDeps(e.initNode, registry)
	if err != nil {
		return err
	}
	e.registry = registry
	e.nodeDeps = nodeDeps

	queue := []*GradNode{e.initNode}
	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		cur := queue[0]
		queue = queue[1:]

		for _, op := range cur.ops {
			if err := e.runOp(cur, op, registry, backend, logger); err != nil {
				return err
			}
		}

		for _, pending := range cur.pending {
			e.nodeDeps[pending]--
			if e.nodeDeps[pending] == 0 {
				queue = append(queue, pending)
			}
		}
	}

	logger.Debug().Msg("engine execute complete")
	e.Clear()
	return nil
}

// runOp executes one GradOp. The four stages from spec.md §4.5 are
// reordered relative to the source: ops.Operation.Backward returns freshly
// allocated result tensors rather than writing into caller-supplied output
// slots, so there is no separate pre-kernel output-remapping step. Routing
// (stage 1) and reconciliation (stage 4) both happen after the kernel call
// (stage 3); the inplace version check (stage 2) still happens first.
func (e *Engine) runOp(cur *GradNode, op *GradOp, registry *AccumulatorRegistry, backend tensor.Backend, logger zerolog.Logger) error {
	for _, w := range op.watched {
		if w.InplaceVersion() != w.VersionSnapshot() {
			return wrapInplaceTampering(cur, op, w, w.InplaceVersion(), w.VersionSnapshot())
		}
	}

	gradIns, err := e.resolveGradInputs(cur, registry)
	if err != nil {
		return err
	}

	var results []*tensor.RawTensor
	if op.multi != nil {
		results = op.runMulti(gradIns, backend)
	} else {
		results = op.runSingle(gradIns[0], backend)
	}
	if results == nil {
		return wrapOpError(ErrKernelFailure, cur, op, nil)
	}

	for i, v := range op.gradOutputTargets {
		if v.StopGradient() || i >= len(results) || results[i] == nil {
			continue
		}

		var acc Accumulator
		var ok bool
		if v.IsLeaf() {
			acc, ok = registry.leafAccumulator(v)
		} else {
			matched := findFirstMatch(cur.pending, v.Producer())
			if matched == nil {
				return wrapOpError(ErrMissingAccumulator, cur, op, v)
			}
			acc, ok = registry.nonLeafAccumulator(matched, v)
		}
		if !ok {
			return wrapOpError(ErrMissingAccumulator, cur, op, v)
		}

		acc.SumGrad(results[i], op.opID, backend)
		logger.Trace().Int64("op_id", op.opID).Str("var", v.Name()).Msg("routed gradient contribution")

		if acc.SumCompleted() {
			acc.AccumulateGrad(backend)
			if v.IsLeaf() && acc.HasPostHooks() {
				acc.CallPostHooks()
			}
		}
	}

	if !e.retainGraph {
		op.release()
	}
	return nil
}

// resolveGradInputs implements spec.md §4.2 (CheckBackwardInputs): the
// upstream gradient(s) this node's op(s) need are either the externally
// supplied seed (if cur is the init node) or whatever its own accumulators
// have summed so far; a disconnected branch with no contributions is
// materialized as a zero tensor.
func (e *Engine) resolveGradInputs(cur *GradNode, registry *AccumulatorRegistry) ([]*tensor.RawTensor, error) {
	if cur == e.initNode {
		// e.seed is only one of cur.outputs; the tracer always records a
		// single-output node as the backward root today, so seedIdx is
		// always 0 in practice, but the slot is resolved by identity
		// rather than assumed so a multi-output root node still gets its
		// other outputs zero-materialized instead of silently dropped.
		ins := make([]*tensor.RawTensor, len(cur.outputs))
		for i, ov := range cur.outputs {
			if ov == e.seed {
				ins[i] = e.seed.Grad()
				continue
			}
			z, err := zeroLike(ov)
			if err != nil {
				return nil, err
			}
			ins[i] = z
		}
		return ins, nil
	}

	ins := make([]*tensor.RawTensor, len(cur.outputs))
	for i, ov := range cur.outputs {
		if acc, ok := registry.nonLeafAccumulator(cur, ov); ok {
			if r := acc.Result(); r != nil {
				ins[i] = r
				continue
			}
		}
		z, err := zeroLike(ov)
		if err != nil {
			return nil, err
		}
		ins[i] = z
	}
	return ins, nil
}

// Clear releases all engine-owned state. External VarRef holders remain
// valid; only the engine's own bookkeeping is dropped.
func (e *Engine) Clear() {
	e.initNode = nil
	e.seed = nil
	e.registry = nil
	e.nodeDeps = nil
}
