package dop

import (
	"fmt"
	"hash"

	"github.com/chewxy/hm"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// copyOp copies its input element-wise into a freshly allocated output
type copyOp struct{}

func newCopyOp() *copyOp { return &copyOp{} }

func (c *copyOp) Arity() int { return 1 }

func (c *copyOp) Type() hm.Type {
	// Pointwise unary operation: op :: (Arithable a) => a -> a
	a := hm.TypeVariable('a')

	return hm.NewFnType(a, a)
}

func (c *copyOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(c, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (c *copyOp) ReturnsPtr() bool { return false }

func (c *copyOp) CallsExtern() bool { return false }

func (c *copyOp) OverwritesInput() int { return -1 }

func (c *copyOp) String() string { return "Copy()" }

// WriteHash writes the hash of the receiver to a hash struct
func (c *copyOp) WriteHash(h hash.Hash) { fmt.Fprint(h, c.String()) }

// Hashcode returns the hash code of the receiver
func (c *copyOp) Hashcode() uint32 { return SimpleHash(c) }

func (c *copyOp) DiffWRT(inputs int) []bool { return []bool{true} }

// SymDiff passes the incoming gradient through unchanged
func (c *copyOp) SymDiff(inputs G.Nodes, output, grad *G.Node) (G.Nodes,
	error) {
	if err := CheckArity(c, len(inputs)); err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	return G.Nodes{grad}, nil
}

func (c *copyOp) Do(values ...G.Value) (G.Value, error) {
	if err := c.checkInputs(values...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	switch v := values[0].(type) {
	case *G.F64:
		return G.NewF64(float64(*v)), nil

	case *G.F32:
		return G.NewF32(float32(*v)), nil

	case tensor.Tensor:
		out := tensor.New(
			tensor.WithShape(v.Shape().Clone()...),
			tensor.Of(v.Dtype()),
		)

		switch v.Dtype() {
		case tensor.Float64:
			copy(out.Data().([]float64), v.Data().([]float64))

		case tensor.Float32:
			copy(out.Data().([]float32), v.Data().([]float32))

		default:
			return nil, fmt.Errorf("do: dtype %v unsupported", v.Dtype())
		}

		return out, nil

	default:
		return nil, fmt.Errorf("do: unable to copy type %T", v)
	}
}

// checkInputs returns an error if the input to this Op is invalid
func (c *copyOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(c, len(inputs)); err != nil {
		return err
	}

	_, okF64 := inputs[0].(*G.F64)
	_, okF32 := inputs[0].(*G.F32)
	t, okTensor := inputs[0].(tensor.Tensor)

	if !(okF64 || okF32 || okTensor) {
		return fmt.Errorf("expected input to be a tensor, got %T", inputs[0])
	} else if okTensor && t.Size() == 0 {
		return fmt.Errorf("cannot copy empty tensor")
	}

	return nil
}
