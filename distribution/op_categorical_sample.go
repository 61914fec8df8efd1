package distribution

import (
	"fmt"
	"hash"

	"golang.org/x/exp/rand"

	"github.com/chewxy/hm"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/avhollund/dop"
)

// categoricalSampleOp draws class indices from a batch of categorical
// distributions given their normalized class probabilities
type categoricalSampleOp struct {
	dt         tensor.Dtype
	shape      tensor.Shape // batch shape
	numClasses int
	source     rand.Source
	numSamples int
}

func newCategoricalSampleOp(dt tensor.Dtype, seed uint64, numSamples,
	numClasses int, shape ...int) (*categoricalSampleOp, error) {
	if dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, fmt.Errorf("newCategoricalSampleOp: dtype %v not "+
			"supported", dt)
	}

	if numSamples < 1 {
		return nil, fmt.Errorf("newCategoricalSampleOp: expected at "+
			"least 1 sample but got %v", numSamples)
	}

	return &categoricalSampleOp{
		dt:         dt,
		shape:      tensor.Shape(shape),
		numClasses: numClasses,
		source:     rand.NewSource(seed),
		numSamples: numSamples,
	}, nil
}

func (c *categoricalSampleOp) Arity() int { return 1 }

func (c *categoricalSampleOp) Type() hm.Type {
	in := G.TensorType{
		Dims: c.shape.Dims() + 1,
		Of:   c.dt,
	}
	out := G.TensorType{
		Dims: c.shape.Dims() + 1,
		Of:   c.dt,
	}

	return hm.NewFnType(in, out)
}

func (c *categoricalSampleOp) InferShape(...G.DimSizer) (tensor.Shape,
	error) {
	return append(tensor.Shape{c.numSamples}, c.shape...), nil
}

func (c *categoricalSampleOp) ReturnsPtr() bool { return false }

func (c *categoricalSampleOp) CallsExtern() bool { return false }

func (c *categoricalSampleOp) OverwritesInput() int { return -1 }

func (c *categoricalSampleOp) String() string {
	return fmt.Sprintf("CategoricalSample{shape=%v, classes=%v}()",
		c.shape, c.numClasses)
}

// WriteHash writes the hash of the receiver to a hash struct
func (c *categoricalSampleOp) WriteHash(h hash.Hash) {
	fmt.Fprint(h, c.String())
}

// Hashcode returns the hash code of the receiver
func (c *categoricalSampleOp) Hashcode() uint32 { return dop.SimpleHash(c) }

func (c *categoricalSampleOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := c.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	probs := inputs[0].(tensor.Tensor)

	out := tensor.NewDense(
		c.dt,
		append([]int{c.numSamples}, c.shape...),
	)

	rows := probs.Size() / c.numClasses
	weights := make([]float64, c.numClasses)

	for i := 0; i < rows; i++ {
		switch c.dt {
		case tensor.Float64:
			copy(weights, probs.Data().([]float64)[i*c.numClasses:(i+1)*
				c.numClasses])

		case tensor.Float32:
			for j, w := range probs.Data().([]float32)[i*c.numClasses : (i+1)*
				c.numClasses] {
				weights[j] = float64(w)
			}
		}

		dist := distuv.NewCategorical(weights, c.source)

		for j := 0; j < c.numSamples; j++ {
			if c.dt == tensor.Float64 {
				out.Set(j*rows+i, dist.Rand())
			} else {
				out.Set(j*rows+i, float32(dist.Rand()))
			}
		}
	}

	return out, nil
}

func (c *categoricalSampleOp) checkInputs(inputs ...G.Value) error {
	if err := dop.CheckArity(c, len(inputs)); err != nil {
		return err
	}

	probs, ok := inputs[0].(tensor.Tensor)
	if !ok {
		return fmt.Errorf("expected probs to be a tensor but got %T",
			inputs[0])
	} else if probs == nil {
		return fmt.Errorf("cannot sample from nil probs")
	} else if probs.Size() == 0 {
		return fmt.Errorf("cannot sample from empty probs tensor")
	} else if !probs.Dtype().Eq(c.dt) {
		return fmt.Errorf("expected probs to have dtype %v but got %v",
			c.dt, probs.Dtype())
	} else if probs.Size() != c.shape.TotalSize()*c.numClasses {
		return fmt.Errorf("expected probs to have shape (%v, %v) but got "+
			"%v", c.shape, c.numClasses, probs.Shape())
	}

	return nil
}
