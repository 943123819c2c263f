package autodiff

import (
	"context"
	"fmt"

	"github.com/born-ml/born/internal/autodiff/engine"
	"github.com/born-ml/born/internal/autodiff/ops"
	"github.com/born-ml/born/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic
// differentiation. Internally it builds a VarRef/GradNode dependency graph
// (see internal/autodiff/engine) instead of a flat operation list, then
// drives that graph's Init/Execute/Clear lifecycle from Backward.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(outputGrad, backend)
type GradientTape struct {
	recording bool

	varOf      map[*tensor.RawTensor]*engine.VarRef
	lastNode   *engine.GradNode
	nextOpID   int64
	nextNodeID int64
	numOps     int

	cfg engine.Config
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		varOf: make(map[*tensor.RawTensor]*engine.VarRef, 64),
		cfg:   engine.DefaultConfig(),
	}
}

// Config returns the tape's engine configuration (sort_sum_gradient, retained
// graph default, logger), for callers that need to tune the backward engine.
func (t *GradientTape) Config() engine.Config { return t.cfg }

// SetConfig replaces the tape's engine configuration.
func (t *GradientTape) SetConfig(cfg engine.Config) { t.cfg = cfg }

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the graph. Only records if the tape is
// currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if !t.recording {
		return
	}
	t.recordOp(op)
}

// Clear resets the tape, dropping the recorded graph. Recording state and
// the op/node id counters (which must stay globally monotonic, see
// spec.md's op_id requirement) are preserved.
func (t *GradientTape) Clear() {
	t.varOf = make(map[*tensor.RawTensor]*engine.VarRef, 64)
	t.lastNode = nil
	t.numOps = 0
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return t.numOps
}

func (t *GradientTape) recordOp(op ops.Operation) {
	multi, isMulti := op.(ops.MultiOutputOperation)

	inputs := op.Inputs()
	var outputs []*tensor.RawTensor
	if isMulti {
		outputs = multi.Outputs()
	} else {
		outputs = []*tensor.RawTensor{op.Output()}
	}

	t.nextNodeID++
	node := engine.NewGradNode(t.nextNodeID)

	targets := make([]*engine.VarRef, len(inputs))
	for i, in := range inputs {
		v := t.varFor(in)
		targets[i] = v
		if p := v.Producer(); p != nil {
			node.AddPending(p)
		}
	}

	outputVars := make([]*engine.VarRef, len(outputs))
	for i, out := range outputs {
		v := engine.NewNonLeafVarRef(tensorName(out), out, node)
		t.varOf[out] = v
		node.AddOutput(v)
		outputVars[i] = v
	}

	watched := make([]*engine.VarRef, 0, len(targets)+len(outputVars))
	watched = append(watched, targets...)
	watched = append(watched, outputVars...)

	t.nextOpID++
	var gradOp *engine.GradOp
	if isMulti {
		gradOp = engine.NewMultiGradOp(t.nextOpID, opTypeTag(op), multi, targets, watched)
	} else {
		gradOp = engine.NewGradOp(t.nextOpID, opTypeTag(op), op, targets, watched)
	}
	node.AddOp(gradOp)

	t.lastNode = node
	t.numOps++
}

// varFor returns the canonical VarRef for a primal tensor, creating a leaf
// VarRef the first time a tensor is seen without a recorded producer.
func (t *GradientTape) varFor(raw *tensor.RawTensor) *engine.VarRef {
	if v, ok := t.varOf[raw]; ok {
		return v
	}
	v := engine.NewLeafVarRef(tensorName(raw), raw)
	t.varOf[raw] = v
	return v
}

func tensorName(raw *tensor.RawTensor) string {
	return fmt.Sprintf("tensor@%p", raw)
}

func opTypeTag(op ops.Operation) string {
	return fmt.Sprintf("%T", op)
}

// Backward computes gradients for all recorded tensors by driving the
// dependency-graph engine from the most recently recorded op's output
// (matching this package's existing constraint that Backward runs from the
// last-recorded op, not an arbitrary graph node).
//
// outputGrad's contents are not copied in: the engine always reseeds with
// the scalar 1 at the seed's own shape/dtype (spec.md's documented
// no-custom-seed behavior); outputGrad is accepted for signature
// compatibility and must match the seed's shape/dtype.
//
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	if t.lastNode == nil {
		return make(map[*tensor.RawTensor]*tensor.RawTensor)
	}

	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	seedVar := t.lastNode.Outputs()[0]
	_ = outputGrad // shape/dtype already match seedVar by construction at call sites.

	eng := engine.New(t.cfg)
	if err := eng.Init(seedVar, t.cfg.RetainGraphDefault); err != nil {
		panic(fmt.Sprintf("backward: %v", err))
	}
	if err := eng.Execute(context.Background(), backend); err != nil {
		panic(fmt.Sprintf("backward: %v", err))
	}

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor, len(t.varOf))
	for raw, v := range t.varOf {
		if g := v.Grad(); g != nil {
			grads[raw] = g
		}
	}
	return grads
}
