package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/avhollund/dop"
)

// NegativeBinomial is a negative binomial distribution over the number
// of successes seen before totalCount failures, with success
// probability probs. It may hold a batch of distributions
// simultaneously: totalCount and probs must have the same shape, and
// each element pair defines a different distribution element-wise.
// Scalar parameters are expanded to a batch of one.
//
// totalCount is not restricted to integers, which makes the
// distribution suitable as an overdispersed count likelihood.
//
// NegativeBinomial supports the following data types:
//   - tensor.Float64
//   - tensor.Float32
type NegativeBinomial struct {
	totalCount *G.Node
	probs      *G.Node
}

// NewNegativeBinomial returns a new NegativeBinomial with the given
// failure count and success probability nodes
func NewNegativeBinomial(totalCount, probs *G.Node) (*NegativeBinomial,
	error) {
	if totalCount == nil || probs == nil {
		return nil, typeErrorf("newNegativeBinomial: parameters must be " +
			"nodes but got <nil>")
	}

	if !totalCount.Shape().Eq(probs.Shape()) {
		return nil, valueErrorf("newNegativeBinomial: expected totalCount "+
			"and probs to have the same shape but got %v and %v",
			totalCount.Shape(), probs.Shape())
	}

	if totalCount.Dtype() != probs.Dtype() {
		return nil, typeErrorf("newNegativeBinomial: expected totalCount "+
			"and probs to have the same data type but got %v and %v",
			totalCount.Dtype(), probs.Dtype())
	} else if dt := totalCount.Dtype(); dt != tensor.Float64 &&
		dt != tensor.Float32 {
		return nil, typeErrorf("newNegativeBinomial: data type %v "+
			"unsupported", dt)
	}

	if totalCount.IsScalar() {
		var err error
		totalCount, err = G.Reshape(totalCount, []int{1})
		if err != nil {
			return nil, errors.Wrap(err, "newNegativeBinomial: could not "+
				"expand totalCount to shape (1)")
		}
		probs, err = G.Reshape(probs, []int{1})
		if err != nil {
			return nil, errors.Wrap(err, "newNegativeBinomial: could not "+
				"expand probs to shape (1)")
		}
	}

	return &NegativeBinomial{totalCount: totalCount, probs: probs}, nil
}

// TotalCount returns the failure count node of the distribution
func (n *NegativeBinomial) TotalCount() *G.Node { return n.totalCount }

// Probs returns the success probability node of the distribution
func (n *NegativeBinomial) Probs() *G.Node { return n.probs }

// BatchShape returns the batch shape of the distribution
func (n *NegativeBinomial) BatchShape() tensor.Shape {
	return n.totalCount.Shape().Clone()
}

// EventShape returns the event shape of the distribution
func (n *NegativeBinomial) EventShape() tensor.Shape {
	return scalarEvent()
}

// Dtype returns the numeric type of the distribution
func (n *NegativeBinomial) Dtype() tensor.Dtype {
	return n.totalCount.Dtype()
}

// Mean returns the mean of the distribution(s) stored by the receiver:
//
//	r*p / (1-p)
func (n *NegativeBinomial) Mean() (*G.Node, error) {
	scaled, err := G.HadamardProd(n.totalCount, n.probs)
	if err != nil {
		return nil, errors.Wrap(err, "mean: could not scale failure count")
	}

	failProb, err := n.failProb()
	if err != nil {
		return nil, errors.Wrap(err, "mean")
	}

	out, err := G.HadamardDiv(scaled, failProb)
	if err != nil {
		return nil, errors.Wrap(err, "mean: could not normalize")
	}

	return out, nil
}

// Variance returns the variance of the distribution(s) stored by the
// receiver:
//
//	r*p / (1-p)^2
func (n *NegativeBinomial) Variance() (*G.Node, error) {
	mean, err := n.Mean()
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	failProb, err := n.failProb()
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	out, err := G.HadamardDiv(mean, failProb)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not normalize")
	}

	return out, nil
}

// LogProb calculates the log probability mass of x:
//
//	lgamma(x+r) - lgamma(r) - lgamma(x+1) + x*ln(p) + r*ln(1-p)
//
// x must have the batch shape of the distribution (scalar inputs are
// accepted for a batch of one). Negative x produces NaN rather than an
// error.
func (n *NegativeBinomial) LogProb(x *G.Node) (*G.Node, error) {
	x, err := fixInputShape(x, n.BatchShape())
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	one, err := constant(x.Graph(), n.Dtype(), 1.0)
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	withFailures, err := G.Add(x, n.totalCount)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not add failure count")
	}

	out, err := dop.Lgamma(withFailures)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not compute lgamma")
	}

	lgammaFailures, err := dop.Lgamma(n.totalCount)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not compute lgamma")
	}

	out, err = G.Sub(out, lgammaFailures)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not combine terms")
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

	out, err = G.Sub(out, logFactorial)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not combine terms")
	}

	logProbs, err := G.Log(n.probs)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not take log of probs")
	}

	successes, err := G.HadamardProd(x, logProbs)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not scale input")
	}

	out, err = G.Add(out, successes)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not combine terms")
	}

	negProbs, err := G.Neg(n.probs)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not negate probs")
	}

	logFailProb, err := G.Log1p(negProbs)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not compute ln(1-p)")
	}

	failures, err := G.HadamardProd(n.totalCount, logFailProb)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not scale failures")
	}

	out, err = G.Add(out, failures)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not combine terms")
	}

	return out, nil
}

// Prob calculates the probability mass of x. The shape of x is treated
// in the same way as the LogProb method.
func (n *NegativeBinomial) Prob(x *G.Node) (*G.Node, error) {
	logProb, err := n.LogProb(x)
	if err != nil {
		return nil, errors.Wrap(err, "prob")
	}

	out, err := G.Exp(logProb)
	if err != nil {
		return nil, errors.Wrap(err, "prob: could not exponentiate")
	}

	return out, nil
}

// failProb returns 1-p
func (n *NegativeBinomial) failProb() (*G.Node, error) {
	one, err := constant(n.probs.Graph(), n.Dtype(), 1.0)
	if err != nil {
		return nil, err
	}

	return G.Sub(one, n.probs)
}
