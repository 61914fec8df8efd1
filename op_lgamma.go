package dop

import (
	"fmt"
	"hash"
	"math"

	"github.com/chewxy/hm"
	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/mathext"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// lgammaOp computes the element-wise log-gamma function
type lgammaOp struct{}

func newLgammaOp() *lgammaOp { return &lgammaOp{} }

func (l *lgammaOp) Arity() int { return 1 }

func (l *lgammaOp) Type() hm.Type {
	// Pointwise unary operation: op :: (Arithable a) => a -> a
	a := hm.TypeVariable('a')

	return hm.NewFnType(a, a)
}

func (l *lgammaOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	if err := CheckArity(l, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (l *lgammaOp) ReturnsPtr() bool { return false }

func (l *lgammaOp) CallsExtern() bool { return false }

func (l *lgammaOp) OverwritesInput() int { return -1 }

func (l *lgammaOp) String() string { return "Lgamma()" }

// WriteHash writes the hash of the receiver to a hash struct
func (l *lgammaOp) WriteHash(h hash.Hash) { fmt.Fprint(h, l.String()) }

// Hashcode returns the hash code of the receiver
func (l *lgammaOp) Hashcode() uint32 { return SimpleHash(l) }

func (l *lgammaOp) DiffWRT(inputs int) []bool { return []bool{true} }

func (l *lgammaOp) SymDiff(inputs G.Nodes, output, grad *G.Node) (G.Nodes,
	error) {
	if err := CheckArity(l, len(inputs)); err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	diffOp := &lgammaDiffOp{}
	nodes := make(G.Nodes, 1)

	var err error
	nodes[0], err = G.ApplyOp(diffOp, inputs[0], grad)

	return nodes, err
}

func (l *lgammaOp) Do(values ...G.Value) (G.Value, error) {
	if err := l.checkInputs(values...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	switch v := values[0].(type) {
	case *G.F64:
		lg, _ := math.Lgamma(float64(*v))
		return G.NewF64(lg), nil

	case *G.F32:
		lg, _ := math32.Lgamma(float32(*v))
		return G.NewF32(lg), nil

	case tensor.Tensor:
		out := tensor.New(
			tensor.WithShape(v.Shape().Clone()...),
			tensor.Of(v.Dtype()),
		)

		switch v.Dtype() {
		case tensor.Float64:
			in := v.Data().([]float64)
			data := out.Data().([]float64)
			for i, elem := range in {
				data[i], _ = math.Lgamma(elem)
			}

		case tensor.Float32:
			in := v.Data().([]float32)
			data := out.Data().([]float32)
			for i, elem := range in {
				data[i], _ = math32.Lgamma(elem)
			}

		default:
			return nil, fmt.Errorf("do: dtype %v unsupported", v.Dtype())
		}

		return out, nil

	default:
		return nil, fmt.Errorf("do: unable to compute lgamma on type %T", v)
	}
}

// checkInputs returns an error if the input to this Op is invalid
func (l *lgammaOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(l, len(inputs)); err != nil {
		return err
	}

	_, okF64 := inputs[0].(*G.F64)
	_, okF32 := inputs[0].(*G.F32)
	t, okTensor := inputs[0].(tensor.Tensor)

	if !(okF64 || okF32 || okTensor) {
		return fmt.Errorf("expected input to be a tensor, got %T", inputs[0])
	} else if okTensor && t.Size() == 0 {
		return fmt.Errorf("cannot compute lgamma on empty tensor")
	}

	return nil
}

// lgammaDiffOp computes the gradient of lgammaOp:
//
//	grad * digamma(x)
type lgammaDiffOp struct{}

func (l *lgammaDiffOp) Arity() int { return 2 }

func (l *lgammaDiffOp) Type() hm.Type {
	a := hm.TypeVariable('a')

	return hm.NewFnType(a, a, a)
}

func (l *lgammaDiffOp) InferShape(inputs ...G.DimSizer) (tensor.Shape,
	error) {
	if err := CheckArity(l, len(inputs)); err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (l *lgammaDiffOp) ReturnsPtr() bool { return false }

func (l *lgammaDiffOp) CallsExtern() bool { return false }

func (l *lgammaDiffOp) OverwritesInput() int { return -1 }

func (l *lgammaDiffOp) String() string { return "LgammaDiff()" }

// WriteHash writes the hash of the receiver to a hash struct
func (l *lgammaDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, l.String()) }

// Hashcode returns the hash code of the receiver
func (l *lgammaDiffOp) Hashcode() uint32 { return SimpleHash(l) }

func (l *lgammaDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := l.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	x := inputs[0].(tensor.Tensor)
	grad := inputs[1].(tensor.Tensor)

	var ret *tensor.Dense
	switch x.Dtype() {
	case tensor.Float64:
		ret = l.f64Kernel(x.Shape().Clone(), x, grad)

	case tensor.Float32:
		ret = l.f32Kernel(x.Shape().Clone(), x, grad)

	default:
		return nil, fmt.Errorf("do: dtype %v unsupported", x.Dtype())
	}

	return ret, nil
}

func (l *lgammaDiffOp) f64Kernel(shape tensor.Shape, inputData,
	gradData tensor.Tensor) *tensor.Dense {
	x := inputData.Data().([]float64)
	grad := gradData.Data().([]float64)

	ret := tensor.New(
		tensor.WithShape(shape...),
		tensor.Of(inputData.Dtype()),
	)

	for i, elem := range x {
		ret.Set(i, grad[i]*mathext.Digamma(elem))
	}

	return ret
}

func (l *lgammaDiffOp) f32Kernel(shape tensor.Shape, inputData,
	gradData tensor.Tensor) *tensor.Dense {
	x := inputData.Data().([]float32)
	grad := gradData.Data().([]float32)

	ret := tensor.New(
		tensor.WithShape(shape...),
		tensor.Of(inputData.Dtype()),
	)

	for i, elem := range x {
		newGrad := grad[i] * float32(mathext.Digamma(float64(elem)))
		ret.Set(i, newGrad)
	}

	return ret
}

// checkInputs returns an error if the input to this Op is invalid
func (l *lgammaDiffOp) checkInputs(inputs ...G.Value) error {
	if err := CheckArity(l, len(inputs)); err != nil {
		return err
	}

	_, okX := inputs[0].(tensor.Tensor)
	_, okGrad := inputs[1].(tensor.Tensor)

	if !(okX && okGrad) {
		return fmt.Errorf("expected inputs to be tensors, got %T and %T",
			inputs[0], inputs[1])
	}

	return nil
}
