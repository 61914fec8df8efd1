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

// poissonSampleOp draws counts from a batch of Poisson distributions
// given their rates
type poissonSampleOp struct {
	dt         tensor.Dtype
	shape      tensor.Shape // batch shape
	dist       distuv.Poisson
	numSamples int
}

func newPoissonSampleOp(dt tensor.Dtype, seed uint64, numSamples int,
	shape ...int) (*poissonSampleOp, error) {
	if dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, fmt.Errorf("newPoissonSampleOp: dtype %v not supported",
			dt)
	}

	if numSamples < 1 {
		return nil, fmt.Errorf("newPoissonSampleOp: expected at least 1 "+
			"sample but got %v", numSamples)
	}

	return &poissonSampleOp{
		dt:    dt,
		shape: tensor.Shape(shape),
		dist: distuv.Poisson{
			Lambda: 1.0,
			Src:    rand.NewSource(seed),
		},
		numSamples: numSamples,
	}, nil
}

func (p *poissonSampleOp) Arity() int { return 1 }

func (p *poissonSampleOp) Type() hm.Type {
	in := G.TensorType{
		Dims: p.shape.Dims(),
		Of:   p.dt,
	}
	out := G.TensorType{
		Dims: p.shape.Dims() + 1,
		Of:   p.dt,
	}

	return hm.NewFnType(in, out)
}

func (p *poissonSampleOp) InferShape(...G.DimSizer) (tensor.Shape, error) {
	return append(tensor.Shape{p.numSamples}, p.shape...), nil
}

func (p *poissonSampleOp) ReturnsPtr() bool { return false }

func (p *poissonSampleOp) CallsExtern() bool { return false }

func (p *poissonSampleOp) OverwritesInput() int { return -1 }

func (p *poissonSampleOp) String() string {
	return fmt.Sprintf("PoissonSample{shape=%v}()", p.shape)
}

// WriteHash writes the hash of the receiver to a hash struct
func (p *poissonSampleOp) WriteHash(h hash.Hash) {
	fmt.Fprint(h, p.String())
}

// Hashcode returns the hash code of the receiver
func (p *poissonSampleOp) Hashcode() uint32 { return dop.SimpleHash(p) }

func (p *poissonSampleOp) Do(inputs ...G.Value) (G.Value, error) {
	if err := p.checkInputs(inputs...); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	rate := inputs[0].(tensor.Tensor)

	out := tensor.NewDense(
		p.dt,
		append([]int{p.numSamples}, p.shape...),
	)

	rows := rate.Size()

	for i := 0; i < rows; i++ {
		switch p.dt {
		case tensor.Float64:
			p.dist.Lambda = rate.Data().([]float64)[i]

		case tensor.Float32:
			p.dist.Lambda = float64(rate.Data().([]float32)[i])
		}

		for j := 0; j < p.numSamples; j++ {
			if p.dt == tensor.Float64 {
				out.Set(j*rows+i, p.dist.Rand())
			} else {
				out.Set(j*rows+i, float32(p.dist.Rand()))
			}
		}
	}

	return out, nil
}

func (p *poissonSampleOp) checkInputs(inputs ...G.Value) error {
	if err := dop.CheckArity(p, len(inputs)); err != nil {
		return err
	}

	rate, ok := inputs[0].(tensor.Tensor)
	if !ok {
		return fmt.Errorf("expected rate to be a tensor but got %T",
			inputs[0])
	} else if rate == nil {
		return fmt.Errorf("cannot sample from nil rate")
	} else if rate.Size() == 0 {
		return fmt.Errorf("cannot sample from empty rate tensor")
	} else if !rate.Shape().Eq(p.shape) {
		return fmt.Errorf("expected rate to have shape %v but got %v",
			p.shape, rate.Shape())
	} else if !rate.Dtype().Eq(p.dt) {
		return fmt.Errorf("expected rate to have dtype %v but got %v",
			p.dt, rate.Dtype())
	}

	return nil
}
