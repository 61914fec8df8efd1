package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/avhollund/dop"
)

// Poisson is a Poisson distribution, which may hold a batch of Poisson
// distributions simultaneously. Each element of the rate node defines
// a different distribution element-wise; a scalar rate is expanded to
// a batch of one. For a rate vector
//
//	rate := [λ_1, λ_2, ..., λ_N]
//
// the Poisson is considered to hold the distributions
//
//	[Pois(λ_1), Pois(λ_2), ..., Pois(λ_N)]
//
// Any input to LogProb or Prob must either have the shape of the rate
// node, or one extra leading dimension, which is then taken to be a
// batch of samples evaluated against every distribution element-wise.
//
// Poisson supports the following data types:
//   - tensor.Float64
//   - tensor.Float32
type Poisson struct {
	rate *G.Node
	seed uint64
}

// NewPoisson returns a new Poisson with the given rate node. The seed
// is used only for sampling.
func NewPoisson(rate *G.Node, seed uint64) (*Poisson, error) {
	if rate == nil {
		return nil, typeErrorf("newPoisson: rate must be a node but got " +
			"<nil>")
	}

	if dt := rate.Dtype(); dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, typeErrorf("newPoisson: data type %v unsupported", dt)
	}

	if rate.IsScalar() {
		var err error
		rate, err = G.Reshape(rate, []int{1})
		if err != nil {
			return nil, errors.Wrap(err, "newPoisson: could not expand "+
				"rate to shape (1)")
		}
	}

	return &Poisson{rate: rate, seed: seed}, nil
}

// Rate returns the rate node of the distribution
func (p *Poisson) Rate() *G.Node { return p.rate }

// BatchShape returns the batch shape of the distribution
func (p *Poisson) BatchShape() tensor.Shape {
	return p.rate.Shape().Clone()
}

// EventShape returns the event shape of the distribution
func (p *Poisson) EventShape() tensor.Shape { return scalarEvent() }

// Dtype returns the numeric type of the distribution
func (p *Poisson) Dtype() tensor.Dtype { return p.rate.Dtype() }

// Mean returns the mean of the distribution(s) stored by the receiver
func (p *Poisson) Mean() (*G.Node, error) { return p.rate, nil }

// Variance returns the variance of the distribution(s) stored by the
// receiver
func (p *Poisson) Variance() (*G.Node, error) { return p.rate, nil }

// LogProb calculates the log probability mass of x:
//
//	x*ln(λ) - λ - lgamma(x+1)
//
// Non-integer x is scored by the same continued formula; negative x
// produces NaN rather than an error.
func (p *Poisson) LogProb(x *G.Node) (*G.Node, error) {
	x, err := p.fixShape(x)
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	one, err := constant(x.Graph(), p.Dtype(), 1.0)
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	logRate, err := G.Log(p.rate)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not take log of rate")
	}

	succ, err := G.Add(x, one)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not shift input")
	}

	logFactorial, err := dop.Lgamma(succ)
	if err != nil {
		return nil, errors.Wrap(err,
			"logProb: could not compute log factorial")
	}

	var out *G.Node
	if p.isBatch(x) {
		// Calculate probability of a batch of samples
		batchDim := []byte{0}
		out, err = G.BroadcastHadamardProd(x, logRate, nil, batchDim)
		if err != nil {
			return nil, errors.Wrap(err, "logProb: could not scale input")
		}

		out, err = G.BroadcastSub(out, p.rate, nil, batchDim)
		if err != nil {
			return nil, errors.Wrap(err, "logProb: could not subtract rate")
		}
	} else {
		// Calculate probability of a single sample
		out, err = G.HadamardProd(x, logRate)
		if err != nil {
			return nil, errors.Wrap(err, "logProb: could not scale input")
		}

		out, err = G.Sub(out, p.rate)
		if err != nil {
			return nil, errors.Wrap(err, "logProb: could not subtract rate")
		}
	}

	out, err = G.Sub(out, logFactorial)
	if err != nil {
		return nil, errors.Wrap(err,
			"logProb: could not subtract log factorial")
	}

	return out, nil
}

// Prob calculates the probability mass of x. The shape of x is treated
// in the same way as the LogProb method.
func (p *Poisson) Prob(x *G.Node) (*G.Node, error) {
	logProb, err := p.LogProb(x)
	if err != nil {
		return nil, errors.Wrap(err, "prob")
	}

	out, err := G.Exp(logProb)
	if err != nil {
		return nil, errors.Wrap(err, "prob: could not exponentiate")
	}

	return out, nil
}

// Sample returns a node that draws from the distribution(s) stored by
// the receiver each time the node is passed. The returned node has
// shape (samples, batch...). This function is not differentiable.
func (p *Poisson) Sample(samples int) (*G.Node, error) {
	op, err := newPoissonSampleOp(p.Dtype(), p.seed, samples,
		p.rate.Shape()...)
	if err != nil {
		return nil, errors.Wrap(err, "sample")
	}

	return G.ApplyOp(op, p.rate)
}

// isBatch returns whether x is a batch of samples to calculate some
// method on
func (p *Poisson) isBatch(x *G.Node) bool {
	return !x.Shape().Eq(p.rate.Shape())
}

// fixShape adjusts the shape of x so that it can be used in some
// method and returns a defensive copy, so downstream in-place writes
// never reach the caller's node (which may be a graph constant shared
// by value with the rate). It returns an error indicating if x is of
// an invalid shape which could not be adjusted.
func (p *Poisson) fixShape(x *G.Node) (*G.Node, error) {
	if x.IsScalar() && p.rate.Shape()[0] == 1 {
		var err error
		x, err = G.Reshape(x, []int{1})
		if err != nil {
			return nil, err
		}

	} else if len(x.Shape()) == 1 && p.rate.Shape().Eq(tensor.Shape{1}) &&
		x.Shape()[0] != 1 {
		// A vector input against a single distribution is a batch of
		// samples: batch dim = 0 and shape of samples = dim 1
		var err error
		x, err = G.Reshape(x, []int{x.Shape()[0], 1})
		if err != nil {
			return nil, err
		}

	} else if p.isBatch(x) &&
		!tensor.Shape(x.Shape()[1:]).Eq(p.rate.Shape()) {
		return nil, errors.Errorf("expected shape to match distribution "+
			"shape %v at all dimensions except batch (dim 0) but got x "+
			"shape %v", p.rate.Shape(), x.Shape())
	}

	return dop.Copy(x)
}
