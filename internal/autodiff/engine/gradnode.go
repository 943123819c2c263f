package engine

import (
	"github.com/born-ml/born/internal/autodiff/ops"
	"github.com/born-ml/born/internal/tensor"
)

// GradOp is a single recorded backward operator instance. It wraps one of the
// ops.Operation implementations (the kernel, opaque to the engine) together
// with the VarRefs that identify its grad-inputs (upstream gradients plus the
// saved primal tensors whose inplace_version must be checked) and its
// grad-outputs (the VarRefs of the original forward op's inputs, i.e. where
// this op's computed gradients are routed).
type GradOp struct {
	opID    int64
	typeTag string

	op      ops.Operation
	multi   ops.MultiOutputOperation // non-nil iff op is a multi-output op

	gradOutputTargets []*VarRef // one per forward-op input position
	watched           []*VarRef // saved tensors checked for inplace tampering

	// inplaceGradNames marks grad-output positions whose storage aliases a
	// grad-input (true in-place backward). None of this repo's ops.Operation
	// implementations alias output storage with an input, so this is always
	// empty in practice; it is kept so the stage-1 routing logic documented
	// in SPEC_FULL.md has somewhere to look.
	inplaceGradNames map[int]bool

	released bool
}

func newGradOp(opID int64, typeTag string, op ops.Operation, multi ops.MultiOutputOperation, targets, watched []*VarRef) *GradOp {
	return &GradOp{
		opID:              opID,
		typeTag:           typeTag,
		op:                op,
		multi:             multi,
		gradOutputTargets: targets,
		watched:           watched,
		inplaceGradNames:  map[int]bool{},
	}
}

// OpID returns the monotonic sequence number assigned at record time; the
// sort key for sorted accumulation.
func (g *GradOp) OpID() int64 { return g.opID }

// release drops the kernel closure's captured tensor references once the
// op has executed and retain_graph is false. See SPEC_FULL.md's
// SUPPLEMENTED FEATURES #3 (ClearBackwardTrace).
func (g *GradOp) release() {
	g.op = nil
	g.multi = nil
	g.gradOutputTargets = nil
	g.watched = nil
	g.released = true
}

// runSingle invokes a single-output op's kernel.
func (g *GradOp) runSingle(gradIn *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return g.op.Backward(gradIn, backend)
}

// runMulti invokes a multi-output op's kernel.
func (g *GradOp) runMulti(gradIns []*tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return g.multi.BackwardMulti(gradIns, backend)
}

// GradNode is an ordered, non-empty collection of co-executed GradOps plus
// the producer nodes of its own inputs (edges run after it in reverse order).
// The tracer in this module never fuses more than one backward op per
// forward-recorded op, so every GradNode built here wraps exactly one
// GradOp; the slice form is kept because spec.md models GradNode as a
// collection and a future tracer that fuses ops (e.g. a fused LayerNorm
// backward) should be able to grow this list without changing the engine.
type GradNode struct {
	id      int64
	ops     []*GradOp
	pending []*GradNode // grad_pending_nodes: producer nodes of this node's own inputs
	outputs []*VarRef   // VarRefs this node's op(s) produced during the forward pass
}

func newGradNode(id int64) *GradNode {
	return &GradNode{id: id}
}

func (n *GradNode) ID() int64            { return n.id }
func (n *GradNode) Ops() []*GradOp       { return n.ops }
func (n *GradNode) Pending() []*GradNode { return n.pending }
func (n *GradNode) Outputs() []*VarRef   { return n.outputs }

func (n *GradNode) addOp(op *GradOp)       { n.ops = append(n.ops, op) }
func (n *GradNode) addPending(p *GradNode) { n.pending = append(n.pending, p) }
func (n *GradNode) addOutput(v *VarRef)    { n.outputs = append(n.outputs, v) }
