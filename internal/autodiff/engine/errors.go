package engine

import (
	"errors"
	"fmt"

	perrors "github.com/pkg/errors"
)

// Sentinel error kinds. Wrap these with pkg/errors to attach node/op/variable
// context while keeping errors.Is/errors.Cause able to recover the kind.
var (
	ErrAlreadyConsumed    = errors.New("engine: backward already consumed graph without retention")
	ErrAlreadyInitialized = errors.New("engine: prepareDeps called with non-empty state")
	ErrMissingGradSlot    = errors.New("engine: seed variable lacks an allocated gradient")
	ErrMissingNode        = errors.New("engine: nil pending node encountered during traversal")
	ErrMissingAccumulator = errors.New("engine: no accumulator found for grad-output")
	ErrHookOnNonLeaf      = errors.New("engine: leaf hook found on variable with a producer node")
	ErrInplaceTampering   = errors.New("engine: inplace version mismatch on grad-input")
	ErrKernelFailure      = errors.New("engine: backward kernel failed")
)

// opError wraps a sentinel with the op/node/variable that triggered it.
type opError struct {
	kind   error
	nodeID int64
	opID   int64
	varRef string
}

func (e *opError) Error() string {
	return fmt.Sprintf("%v (node=%d op=%d var=%q)", e.kind, e.nodeID, e.opID, e.varRef)
}

func (e *opError) Unwrap() error { return e.kind }

func wrapOpError(kind error, node *GradNode, op *GradOp, v *VarRef) error {
	nodeID, opID := int64(-1), int64(-1)
	varName := ""
	if node != nil {
		nodeID = node.id
	}
	if op != nil {
		opID = op.opID
	}
	if v != nil {
		varName = v.name
	}
	return perrors.WithStack(&opError{kind: kind, nodeID: nodeID, opID: opID, varRef: varName})
}

// inplaceTamperingError carries the specific version numbers spec.md §7 asks for.
type inplaceTamperingError struct {
	opError
	observed uint64
	expected uint64
}

func (e *inplaceTamperingError) Error() string {
	return fmt.Sprintf("%v (node=%d op=%d var=%q observed=%d expected=%d)",
		e.kind, e.nodeID, e.opID, e.varRef, e.observed, e.expected)
}

func wrapInplaceTampering(node *GradNode, op *GradOp, v *VarRef, observed, expected uint64) error {
	nodeID, opID := int64(-1), int64(-1)
	if node != nil {
		nodeID = node.id
	}
	if op != nil {
		opID = op.opID
	}
	name := ""
	if v != nil {
		name = v.name
	}
	return perrors.WithStack(&inplaceTamperingError{
		opError:  opError{kind: ErrInplaceTampering, nodeID: nodeID, opID: opID, varRef: name},
		observed: observed,
		expected: expected,
	})
}
