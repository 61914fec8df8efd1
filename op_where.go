package dop

import (
	"fmt"
	"hash"

	"github.com/chewxy/hm"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// whereOp selects elements from its second input where the first input
// (the condition) is nonzero and from its third input elsewhere
type whereOp struct{}

func newWhereOp() *whereOp { return &whereOp{} }

func (w *whereOp) Arity() int { return 3 }

func (w *whereOp) Type() hm.Type {
	a := hm.TypeVariable('a')

	return hm.NewFnType(a, a, a, a)
}

func (w *whereOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(w, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (w *whereOp) ReturnsPtr() bool { return false }

func (w *whereOp) CallsExtern() bool { return false }

func (w *whereOp) OverwritesInput() int { return -1 }

func (w *whereOp) String() string { return "Where()" }

// WriteHash writes the hash of the receiver to a hash struct
func (w *whereOp) WriteHash(h hash.Hash) { fmt.Fprint(h, w.String()) }

// Hashcode returns the hash code of the receiver
func (w *whereOp) Hashcode() uint32 { return SimpleHash(w) }

// DiffWRT marks the condition as non-differentiable
func (w *whereOp) DiffWRT(inputs int) []bool {
	return []bool{false, true, true}
}

// SymDiff routes the incoming gradient to whichever branch was
// selected: grad*cond for x and grad*(1-cond) for y. No dedicated diff
// op is needed since both masks are expressible with existing graph
// operations.
func (w *whereOp) SymDiff(inputs G.Nodes, output, grad *G.Node) (G.Nodes,
	error) {
	if err := CheckArity(w, len(inputs)); err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	cond := inputs[0]

	var one *G.Node
	switch cond.Dtype() {
	case tensor.Float64:
		one = cond.Graph().Constant(G.NewF64(1.0))

	case tensor.Float32:
		one = cond.Graph().Constant(G.NewF32(1.0))

	default:
		return nil, fmt.Errorf("symDiff: dtype %v unsupported", cond.Dtype())
	}

	gradX, err := G.HadamardProd(cond, grad)
	if err != nil {
		return nil, fmt.Errorf("symDiff: could not mask gradient: %v", err)
	}

	notCond, err := G.Sub(one, cond)
	if err != nil {
		return nil, fmt.Errorf("symDiff: could not negate condition: %v",
			err)
	}

	gradY, err := G.HadamardProd(notCond, grad)
	if err != nil {
		return nil, fmt.Errorf("symDiff: could not mask gradient: %v", err)
	}

	return G.Nodes{nil, gradX, gradY}, nil
}

func (w *whereOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := w.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	cond := inputs[0].(tensor.Tensor)
	x := inputs[1].(tensor.Tensor)
	y := inputs[2].(tensor.Tensor)

	out := tensor.New(
		tensor.WithShape(cond.Shape().Clone()...),
		tensor.Of(cond.Dtype()),
	)

	switch cond.Dtype() {
	case tensor.Float64:
		c := cond.Data().([]float64)
		xData := x.Data().([]float64)
		yData := y.Data().([]float64)
		data := out.Data().([]float64)
		for i := range c {
			if c[i] != 0 {
				data[i] = xData[i]
			} else {
				data[i] = yData[i]
			}
		}

	case tensor.Float32:
		c := cond.Data().([]float32)
		xData := x.Data().([]float32)
		yData := y.Data().([]float32)
		data := out.Data().([]float32)
		for i := range c {
			if c[i] != 0 {
				data[i] = xData[i]
			} else {
				data[i] = yData[i]
			}
		}

	default:
		return nil, fmt.Errorf("do: dtype %v unsupported", cond.Dtype())
	}

	return out, nil
}

// checkInputs returns an error if the inputs to this Op are invalid
func (w *whereOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(w, len(inputs)); err != nil {
		return err
	}

	tensors := make([]tensor.Tensor, len(inputs))
	for i, input := range inputs {
		t, ok := input.(tensor.Tensor)
		if !ok {
			return fmt.Errorf("expected input %v to be a tensor but got %T",
				i, input)
		} else if t == nil {
			return fmt.Errorf("cannot select from nil tensor")
		}
		tensors[i] = t
	}

	for i := 1; i < len(tensors); i++ {
		if !tensors[i].Shape().Eq(tensors[0].Shape()) {
			return fmt.Errorf("expected all inputs to have the same shape "+
				"but got %v and %v", tensors[0].Shape(), tensors[i].Shape())
		}
		if tensors[i].Dtype() != tensors[0].Dtype() {
			return fmt.Errorf("expected all inputs to have the same dtype "+
				"but got %v and %v", tensors[0].Dtype(), tensors[i].Dtype())
		}
	}

	return nil
}
