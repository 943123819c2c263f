package tensor

// SetConstant fills a RawTensor with a scalar value and bumps its inplace
// version, since it mutates the tensor's storage destructively. Mirrors the
// dtype-switch fill pattern used by Ones/Full in creation.go, but operating
// directly on a RawTensor rather than allocating a new one.
func SetConstant(t *RawTensor, value float64) {
	switch t.DType() {
	case Float32:
		data := t.AsFloat32()
		v := float32(value)
		for i := range data {
			data[i] = v
		}
	case Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = value
		}
	case Int32:
		data := t.AsInt32()
		v := int32(value)
		for i := range data {
			data[i] = v
		}
	case Int64:
		data := t.AsInt64()
		v := int64(value)
		for i := range data {
			data[i] = v
		}
	case Uint8:
		data := t.AsUint8()
		v := uint8(value)
		for i := range data {
			data[i] = v
		}
	case Bool:
		data := t.AsBool()
		v := value != 0
		for i := range data {
			data[i] = v
		}
	}
	t.BumpInplaceVersion()
}
