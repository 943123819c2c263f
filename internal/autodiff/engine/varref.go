package engine

import "github.com/born-ml/born/internal/tensor"

// VarRef is a handle to a differentiable variable. Unlike the source
// implementation's separate primal/grad pair, one VarRef here fuses a primal
// RawTensor with its (lazily allocated) gradient slot, since this framework's
// Tensor type already keeps a single grad field per tensor rather than a
// distinct grad-variable object.
type VarRef struct {
	name            string
	raw             *tensor.RawTensor // primal value
	isLeaf          bool
	stopGradient    bool
	producer        *GradNode // nil iff isLeaf
	versionSnapshot uint64
	leafHooks       []func(*tensor.RawTensor)
	grad            *tensor.RawTensor // accumulated gradient, nil until first write
	graphFreed      bool              // true once a non-retained backward has consumed this var's graph
}

// NewLeafVarRef wraps a primal tensor with no producing grad-node.
func NewLeafVarRef(name string, raw *tensor.RawTensor) *VarRef {
	return &VarRef{
		name:            name,
		raw:             raw,
		isLeaf:          true,
		stopGradient:    raw.StopGradient(),
		versionSnapshot: raw.InplaceVersion(),
	}
}

// NewNonLeafVarRef wraps a primal tensor produced by the given node.
func NewNonLeafVarRef(name string, raw *tensor.RawTensor, producer *GradNode) *VarRef {
	return &VarRef{
		name:            name,
		raw:             raw,
		isLeaf:          false,
		stopGradient:    raw.StopGradient(),
		producer:        producer,
		versionSnapshot: raw.InplaceVersion(),
	}
}

func (v *VarRef) Name() string             { return v.name }
func (v *VarRef) Raw() *tensor.RawTensor    { return v.raw }
func (v *VarRef) DType() tensor.DataType    { return v.raw.DType() }
func (v *VarRef) Shape() tensor.Shape       { return v.raw.Shape() }
func (v *VarRef) Device() tensor.Device     { return v.raw.Device() }
func (v *VarRef) IsLeaf() bool              { return v.isLeaf }
func (v *VarRef) StopGradient() bool        { return v.stopGradient }
func (v *VarRef) SetStopGradient(b bool)    { v.stopGradient = b }
func (v *VarRef) Producer() *GradNode       { return v.producer }
func (v *VarRef) VersionSnapshot() uint64   { return v.versionSnapshot }
func (v *VarRef) InplaceVersion() uint64    { return v.raw.InplaceVersion() }

func (v *VarRef) HasLeafHooks() bool { return len(v.leafHooks) > 0 }
func (v *VarRef) LeafHooks() []func(*tensor.RawTensor) { return v.leafHooks }
func (v *VarRef) SetLeafHooks(hooks []func(*tensor.RawTensor)) { v.leafHooks = hooks }

// Grad returns the currently accumulated gradient tensor, or nil.
func (v *VarRef) Grad() *tensor.RawTensor { return v.grad }

// SetGrad replaces the accumulated gradient (used by accumulate_grad's
// merge-into-existing-gradient step, see SPEC_FULL.md's SUPPLEMENTED FEATURES).
func (v *VarRef) SetGrad(g *tensor.RawTensor) { v.grad = g }

func (v *VarRef) GraphFreed() bool       { return v.graphFreed }
func (v *VarRef) MarkGraphFreed()        { v.graphFreed = true }
func (v *VarRef) DetachProducer()        { v.producer = nil }
