package dop

import (
	"fmt"
	"hash"

	"github.com/chewxy/hm"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// takeOp gathers one value per row along the last axis of its first
// input, at the positions given by its second input
type takeOp struct {
	dims int // Dimensions of the indices tensor (equivalently output)
}

func newTakeOp(dims int) *takeOp {
	return &takeOp{dims: dims}
}

func (t *takeOp) Arity() int { return 2 }

func (t *takeOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	in := G.TensorType{Dims: t.dims + 1, Of: a}
	indices := G.TensorType{Dims: t.dims, Of: a}

	return hm.NewFnType(in, indices, indices)
}

func (t *takeOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(t, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}

	shapes, err := G.DimSizersToShapes(inputs)
	if err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}

	return shapes[1], nil
}

func (t *takeOp) ReturnsPtr() bool { return false }

func (t *takeOp) CallsExtern() bool { return false }

func (t *takeOp) OverwritesInput() int { return -1 }

func (t *takeOp) String() string {
	return fmt.Sprintf("Take{dims=%v}()", t.dims)
}

// WriteHash writes the hash of the receiver to a hash struct
func (t *takeOp) WriteHash(h hash.Hash) { fmt.Fprint(h, t.String()) }

// Hashcode returns the hash code of the receiver
func (t *takeOp) Hashcode() uint32 { return SimpleHash(t) }

// DiffWRT marks the op as differentiable with respect to the input but
// not the indices
func (t *takeOp) DiffWRT(inputs int) []bool { return []bool{true, false} }

func (t *takeOp) SymDiff(inputs G.Nodes, output, grad *G.Node) (G.Nodes,
	error) {
	if err := CheckArity(t, len(inputs)); err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	diffOp := &takeDiffOp{t}
	nodes := make(G.Nodes, 2)

	var err error
	nodes[0], err = G.ApplyOp(diffOp, inputs[0], inputs[1], grad)

	return nodes, err
}

func (t *takeOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := t.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	x := inputs[0].(tensor.Tensor)
	indices := inputs[1].(tensor.Tensor)

	out := tensor.New(
		tensor.WithShape(indices.Shape().Clone()...),
		tensor.Of(x.Dtype()),
	)

	n := x.Shape()[len(x.Shape())-1]

	switch x.Dtype() {
	case tensor.Float64:
		xData := x.Data().([]float64)
		idx := indices.Data().([]float64)
		data := out.Data().([]float64)
		for i, elem := range idx {
			j := int(elem)
			if j < 0 || j >= n {
				return nil, fmt.Errorf("do: index %v out of range for "+
					"last axis of size %v", j, n)
			}
			data[i] = xData[i*n+j]
		}

	case tensor.Float32:
		xData := x.Data().([]float32)
		idx := indices.Data().([]float32)
		data := out.Data().([]float32)
		for i, elem := range idx {
			j := int(elem)
			if j < 0 || j >= n {
				return nil, fmt.Errorf("do: index %v out of range for "+
					"last axis of size %v", j, n)
			}
			data[i] = xData[i*n+j]
		}

	default:
		return nil, fmt.Errorf("do: dtype %v unsupported", x.Dtype())
	}

	return out, nil
}

// checkInputs returns an error if the inputs to this Op are invalid
func (t *takeOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(t, len(inputs)); err != nil {
		return err
	}

	x, ok := inputs[0].(tensor.Tensor)
	if !ok {
		return fmt.Errorf("expected x to be a tensor but got %T", inputs[0])
	} else if x == nil {
		return fmt.Errorf("cannot take from nil tensor")
	} else if x.Size() == 0 {
		return fmt.Errorf("cannot take from empty tensor")
	}

	indices, ok := inputs[1].(tensor.Tensor)
	if !ok {
		return fmt.Errorf("expected indices to be a tensor but got %T",
			inputs[1])
	} else if indices == nil {
		return fmt.Errorf("cannot take with nil indices")
	} else if indices.Size()*x.Shape()[len(x.Shape())-1] != x.Size() {
		return fmt.Errorf("expected indices shape %v to match the leading "+
			"axes of x shape %v", indices.Shape(), x.Shape())
	} else if indices.Dtype() != x.Dtype() {
		return fmt.Errorf("expected indices to have dtype %v but got %v",
			x.Dtype(), indices.Dtype())
	}

	return nil
}

// takeDiffOp computes the gradient of takeOp by scattering the
// incoming gradient back to the gathered positions
type takeDiffOp struct {
	op *takeOp
}

func (t *takeDiffOp) Arity() int { return 3 }

func (t *takeDiffOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	in := G.TensorType{Dims: t.op.dims + 1, Of: a}
	indices := G.TensorType{Dims: t.op.dims, Of: a}

	return hm.NewFnType(in, indices, indices, in)
}

func (t *takeDiffOp) InferShape(inputs ...G.DimSizer) (tensor.Shape,
	error) {
	if err := CheckArity(t, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}

	return inputs[0].(tensor.Shape), nil
}

func (t *takeDiffOp) ReturnsPtr() bool { return false }

func (t *takeDiffOp) CallsExtern() bool { return false }

func (t *takeDiffOp) OverwritesInput() int { return -1 }

func (t *takeDiffOp) String() string {
	return fmt.Sprintf("TakeDiff{dims=%v}()", t.op.dims)
}

// WriteHash writes the hash of the receiver to a hash struct
func (t *takeDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, t.String()) }

// Hashcode returns the hash code of the receiver
func (t *takeDiffOp) Hashcode() uint32 { return SimpleHash(t) }

func (t *takeDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := CheckArity(t, len(inputs)); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	x := inputs[0].(tensor.Tensor)
	indices := inputs[1].(tensor.Tensor)
	grad := inputs[2].(tensor.Tensor)

	out := tensor.New(
		tensor.WithShape(x.Shape().Clone()...),
		tensor.Of(x.Dtype()),
	)

	n := x.Shape()[len(x.Shape())-1]

	switch x.Dtype() {
	case tensor.Float64:
		idx := indices.Data().([]float64)
		g := grad.Data().([]float64)
		data := out.Data().([]float64)
		for i, elem := range idx {
			data[i*n+int(elem)] = g[i]
		}

	case tensor.Float32:
		idx := indices.Data().([]float32)
		g := grad.Data().([]float32)
		data := out.Data().([]float32)
		for i, elem := range idx {
			data[i*n+int(elem)] = g[i]
		}

	default:
		return nil, fmt.Errorf("do: dtype %v unsupported", x.Dtype())
	}

	return out, nil
}
