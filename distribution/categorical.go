package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/avhollund/dop"
)

// Categorical is a distribution over a fixed number of discrete
// classes 0, 1, ..., N-1, parameterized by raw (unnormalized) logits.
//
// The logits node has shape (batch..., N), where N is the number of
// classes; the last axis indexes classes and every leading axis is a
// batch axis. A vector of N logits is treated as a batch of one
// distribution and reshaped to (1, N). Class probabilities are derived
// from the logits by a softmax along the class axis; they are never
// assumed pre-normalized.
//
// The number of classes is static: it is fixed by the logits shape at
// construction and cannot change afterwards.
//
// Categorical supports the following data types:
//   - tensor.Float64
//   - tensor.Float32
type Categorical struct {
	logits     *G.Node
	numClasses int
	seed       uint64
}

// NewCategorical returns a new Categorical with the given class
// logits. The seed is used only for sampling.
func NewCategorical(logits *G.Node, seed uint64) (*Categorical, error) {
	if logits == nil {
		return nil, typeErrorf("newCategorical: logits must be a node " +
			"but got <nil>")
	}

	if dt := logits.Dtype(); dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, typeErrorf("newCategorical: data type %v unsupported",
			dt)
	}

	if logits.Dims() < 1 {
		return nil, valueErrorf("newCategorical: logits must have at "+
			"least 1 dimension but got shape %v", logits.Shape())
	}

	if logits.IsVector() {
		var err error
		logits, err = G.Reshape(logits, []int{1, logits.Shape()[0]})
		if err != nil {
			return nil, errors.Wrap(err, "newCategorical: could not "+
				"expand logits to a batch of one")
		}
	}

	numClasses := logits.Shape()[logits.Dims()-1]
	if numClasses < 1 {
		return nil, valueErrorf("newCategorical: expected at least 1 "+
			"class but got %v", numClasses)
	}

	return &Categorical{
		logits:     logits,
		numClasses: numClasses,
		seed:       seed,
	}, nil
}

// Logits returns the raw class logits of the distribution
func (c *Categorical) Logits() *G.Node { return c.logits }

// NumClasses returns the number of classes of the distribution
func (c *Categorical) NumClasses() int { return c.numClasses }

// BatchShape returns the batch shape of the distribution, which is the
// shape of the logits with the class axis dropped
func (c *Categorical) BatchShape() tensor.Shape {
	s := c.logits.Shape().Clone()

	return s[:len(s)-1]
}

// EventShape returns the event shape of the distribution
func (c *Categorical) EventShape() tensor.Shape { return scalarEvent() }

// Dtype returns the numeric type of the distribution
func (c *Categorical) Dtype() tensor.Dtype { return c.logits.Dtype() }

// Probs returns the softmax-normalized class probabilities, with the
// same shape as the logits
func (c *Categorical) Probs() (*G.Node, error) {
	probs, err := G.SoftMax(c.logits, c.logits.Dims()-1)
	if err != nil {
		return nil, errors.Wrap(err, "probs: could not normalize logits")
	}

	return probs, nil
}

// LogProbs returns the log of the softmax-normalized class
// probabilities, with the same shape as the logits
func (c *Categorical) LogProbs() (*G.Node, error) {
	probs, err := c.Probs()
	if err != nil {
		return nil, errors.Wrap(err, "logProbs")
	}

	logProbs, err := G.Log(probs)
	if err != nil {
		return nil, errors.Wrap(err, "logProbs: could not take log")
	}

	return logProbs, nil
}

// LogProb returns the per-batch log-probability of the class indices
// held by x. The indices are float-valued integers in [0, NumClasses)
// with the batch shape of the distribution.
func (c *Categorical) LogProb(x *G.Node) (*G.Node, error) {
	x, err := fixInputShape(x, c.BatchShape())
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	logProbs, err := c.LogProbs()
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	out, err := dop.Take(logProbs, x)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not gather classes")
	}

	return out, nil
}

// Prob returns the per-batch probability of the class indices held by
// x. The shape of x is treated in the same way as the LogProb method.
func (c *Categorical) Prob(x *G.Node) (*G.Node, error) {
	x, err := fixInputShape(x, c.BatchShape())
	if err != nil {
		return nil, errors.Wrap(err, "prob")
	}

	probs, err := c.Probs()
	if err != nil {
		return nil, errors.Wrap(err, "prob")
	}

	out, err := dop.Take(probs, x)
	if err != nil {
		return nil, errors.Wrap(err, "prob: could not gather classes")
	}

	return out, nil
}

// Mean returns the expected class index of the distribution(s) stored
// by the receiver
func (c *Categorical) Mean() (*G.Node, error) {
	probs, err := c.classProbs()
	if err != nil {
		return nil, errors.Wrap(err, "mean")
	}

	g := c.logits.Graph()
	dt := c.Dtype()

	var mean *G.Node
	for k := 0; k < c.numClasses; k++ {
		coef, err := constant(g, dt, float64(k))
		if err != nil {
			return nil, errors.Wrap(err, "mean")
		}

		term, err := G.HadamardProd(coef, probs[k])
		if err != nil {
			return nil, errors.Wrap(err, "mean: could not weight class")
		}

		if mean == nil {
			mean = term
			continue
		}

		mean, err = G.Add(mean, term)
		if err != nil {
			return nil, errors.Wrap(err, "mean: could not accumulate")
		}
	}

	return mean, nil
}

// Variance returns the variance of the class index of the
// distribution(s) stored by the receiver
func (c *Categorical) Variance() (*G.Node, error) {
	probs, err := c.classProbs()
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	g := c.logits.Graph()
	dt := c.Dtype()

	var secondMoment *G.Node
	for k := 0; k < c.numClasses; k++ {
		coef, err := constant(g, dt, float64(k*k))
		if err != nil {
			return nil, errors.Wrap(err, "variance")
		}

		term, err := G.HadamardProd(coef, probs[k])
		if err != nil {
			return nil, errors.Wrap(err, "variance: could not weight class")
		}

		if secondMoment == nil {
			secondMoment = term
			continue
		}

		secondMoment, err = G.Add(secondMoment, term)
		if err != nil {
			return nil, errors.Wrap(err, "variance: could not accumulate")
		}
	}

	mean, err := c.Mean()
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	two, err := constant(g, dt, 2.0)
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	meanSquared, err := G.Pow(mean, two)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not square mean")
	}

	out, err := G.Sub(secondMoment, meanSquared)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not centre moment")
	}

	return out, nil
}

// Entropy returns the entropy of the distribution(s) stored by the
// receiver
func (c *Categorical) Entropy() (*G.Node, error) {
	probs, err := c.Probs()
	if err != nil {
		return nil, errors.Wrap(err, "entropy")
	}

	logProbs, err := c.LogProbs()
	if err != nil {
		return nil, errors.Wrap(err, "entropy")
	}

	plogp, err := G.HadamardProd(probs, logProbs)
	if err != nil {
		return nil, errors.Wrap(err, "entropy: could not weight log probs")
	}

	sum, err := G.Sum(plogp, plogp.Dims()-1)
	if err != nil {
		return nil, errors.Wrap(err, "entropy: could not reduce classes")
	}

	out, err := G.Neg(sum)
	if err != nil {
		return nil, errors.Wrap(err, "entropy: could not negate")
	}

	return out, nil
}

// Sample returns a node that draws class indices from the
// distribution(s) stored by the receiver each time the node is passed.
// The returned node has shape (samples, batch...). This function is
// not differentiable.
func (c *Categorical) Sample(samples int) (*G.Node, error) {
	probs, err := c.Probs()
	if err != nil {
		return nil, errors.Wrap(err, "sample")
	}

	op, err := newCategoricalSampleOp(c.Dtype(), c.seed, samples,
		c.numClasses, c.BatchShape()...)
	if err != nil {
		return nil, errors.Wrap(err, "sample")
	}

	return G.ApplyOp(op, probs)
}

// classProbs returns the softmax-normalized class probabilities as
// NumClasses separately addressable batch-shaped nodes, one per class
// index
func (c *Categorical) classProbs() ([]*G.Node, error) {
	probs, err := c.Probs()
	if err != nil {
		return nil, err
	}

	out := make([]*G.Node, c.numClasses)
	for k := range out {
		out[k], err = dop.Column(probs, k)
		if err != nil {
			return nil, errors.Wrapf(err, "could not extract class %v", k)
		}
	}

	return out, nil
}
