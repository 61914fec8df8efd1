package dop

import (
	"fmt"
	"hash"

	"github.com/chewxy/hm"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// columnOp extracts a single fixed index of the last axis of its
// input, dropping that axis
type columnOp struct {
	col  int
	dims int // Dimensions of the input tensor
}

func newColumnOp(col, dims int) *columnOp {
	return &columnOp{col: col, dims: dims}
}

func (c *columnOp) Arity() int { return 1 }

func (c *columnOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	in := G.TensorType{Dims: c.dims, Of: a}
	out := G.TensorType{Dims: c.dims - 1, Of: a}

	return hm.NewFnType(in, out)
}

func (c *columnOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(c, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}

	s := inputs[0].(tensor.Shape).Clone()

	return s[:len(s)-1], nil
}

func (c *columnOp) ReturnsPtr() bool { return false }

func (c *columnOp) CallsExtern() bool { return false }

func (c *columnOp) OverwritesInput() int { return -1 }

func (c *columnOp) String() string {
	return fmt.Sprintf("Column{col=%v}()", c.col)
}

// WriteHash writes the hash of the receiver to a hash struct
func (c *columnOp) WriteHash(h hash.Hash) { fmt.Fprint(h, c.String()) }

// Hashcode returns the hash code of the receiver
func (c *columnOp) Hashcode() uint32 { return SimpleHash(c) }

func (c *columnOp) DiffWRT(inputs int) []bool { return []bool{true} }

func (c *columnOp) SymDiff(inputs G.Nodes, output, grad *G.Node) (G.Nodes,
	error) {
	if err := CheckArity(c, len(inputs)); err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	diffOp := &columnDiffOp{c}
	nodes := make(G.Nodes, 1)

	var err error
	nodes[0], err = G.ApplyOp(diffOp, inputs[0], grad)

	return nodes, err
}

func (c *columnOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := c.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	x := inputs[0].(tensor.Tensor)
	shape := x.Shape().Clone()

	out := tensor.New(
		tensor.WithShape(shape[:len(shape)-1]...),
		tensor.Of(x.Dtype()),
	)

	n := shape[len(shape)-1]

	switch x.Dtype() {
	case tensor.Float64:
		xData := x.Data().([]float64)
		data := out.Data().([]float64)
		for i := range data {
			data[i] = xData[i*n+c.col]
		}

	case tensor.Float32:
		xData := x.Data().([]float32)
		data := out.Data().([]float32)
		for i := range data {
			data[i] = xData[i*n+c.col]
		}

	default:
		return nil, fmt.Errorf("do: dtype %v unsupported", x.Dtype())
	}

	return out, nil
}

// checkInputs returns an error if the input to this Op is invalid
func (c *columnOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(c, len(inputs)); err != nil {
		return err
	}

	x, ok := inputs[0].(tensor.Tensor)
	if !ok {
		return fmt.Errorf("expected x to be a tensor but got %T", inputs[0])
	} else if x == nil {
		return fmt.Errorf("cannot extract column from nil tensor")
	} else if x.Size() == 0 {
		return fmt.Errorf("cannot extract column from empty tensor")
	} else if n := x.Shape()[len(x.Shape())-1]; c.col >= n {
		return fmt.Errorf("column %v out of range for last axis of size %v",
			c.col, n)
	}

	return nil
}

// columnDiffOp computes the gradient of columnOp by scattering the
// incoming gradient into column col of a zero tensor
type columnDiffOp struct {
	op *columnOp
}

func (c *columnDiffOp) Arity() int { return 2 }

func (c *columnDiffOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	in := G.TensorType{Dims: c.op.dims, Of: a}
	out := G.TensorType{Dims: c.op.dims - 1, Of: a}

	return hm.NewFnType(in, out, in)
}

func (c *columnDiffOp) InferShape(inputs ...G.DimSizer) (tensor.Shape,
	error) {
	if err := CheckArity(c, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}

	return inputs[0].(tensor.Shape), nil
}

func (c *columnDiffOp) ReturnsPtr() bool { return false }

func (c *columnDiffOp) CallsExtern() bool { return false }

func (c *columnDiffOp) OverwritesInput() int { return -1 }

func (c *columnDiffOp) String() string {
	return fmt.Sprintf("ColumnDiff{col=%v}()", c.op.col)
}

// WriteHash writes the hash of the receiver to a hash struct
func (c *columnDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, c.String()) }

// Hashcode returns the hash code of the receiver
func (c *columnDiffOp) Hashcode() uint32 { return SimpleHash(c) }

func (c *columnDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := CheckArity(c, len(inputs)); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	x := inputs[0].(tensor.Tensor)
	grad := inputs[1].(tensor.Tensor)

	out := tensor.New(
		tensor.WithShape(x.Shape().Clone()...),
		tensor.Of(x.Dtype()),
	)

	n := x.Shape()[len(x.Shape())-1]

	switch x.Dtype() {
	case tensor.Float64:
		g := grad.Data().([]float64)
		data := out.Data().([]float64)
		for i := range g {
			data[i*n+c.op.col] = g[i]
		}

	case tensor.Float32:
		g := grad.Data().([]float32)
		data := out.Data().([]float32)
		for i := range g {
			data[i*n+c.op.col] = g[i]
		}

	default:
		return nil, fmt.Errorf("do: dtype %v unsupported", x.Dtype())
	}

	return out, nil
}
