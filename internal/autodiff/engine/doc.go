// Package engine implements the reverse-mode dependency-graph backward
// executor: VarRef, GradOp/GradNode, the accumulator registry, the
// dependency analyzer, and the executor's four-stage per-op discipline.
//
// The package is driven by the tracer in internal/autodiff, which builds the
// VarRef/GradNode graph during the forward pass and then calls Init/Execute.
package engine
