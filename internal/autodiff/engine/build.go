package engine

import "github.com/born-ml/born/internal/autodiff/ops"

// The functions in this file are the graph-construction surface used by the
// tracer (internal/autodiff) while recording the forward pass. They exist
// because GradOp/GradNode's fields are otherwise unexported to keep the
// executor's internal bookkeeping from being poked at by callers.

// NewGradNode allocates an empty GradNode with the given stable id.
func NewGradNode(id int64) *GradNode { return newGradNode(id) }

// AddOp appends a GradOp to a node's co-executed op list.
func (n *GradNode) AddOp(op *GradOp) { n.addOp(op) }

// AddPending records a producer node of one of this node's own inputs (an
// edge that must run after this node in reverse order).
func (n *GradNode) AddPending(p *GradNode) { n.addPending(p) }

// AddOutput records a VarRef this node's op(s) produced during the forward
// pass, in the order CheckBackwardInputs should resolve grad-inputs.
func (n *GradNode) AddOutput(v *VarRef) { n.addOutput(v) }

// NewGradOp wraps a single-output ops.Operation as a backward step.
// targets are the grad-output VarRefs (one per forward-op input position,
// in op.Inputs() order); watched are the saved tensors whose inplace
// version must match their snapshot at execute time.
func NewGradOp(opID int64, typeTag string, op ops.Operation, targets, watched []*VarRef) *GradOp {
	return newGradOp(opID, typeTag, op, nil, targets, watched)
}

// NewMultiGradOp wraps a multi-output ops.MultiOutputOperation.
func NewMultiGradOp(opID int64, typeTag string, multi ops.MultiOutputOperation, targets, watched []*VarRef) *GradOp {
	return newGradOp(opID, typeTag, multi, multi, targets, watched)
}
