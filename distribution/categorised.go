package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/avhollund/dop"
)

// batchShapeMessage is the message carried by every deferred
// batch-shape assertion of a Categorised.
const batchShapeMessage = "distribution batch shape must match " +
	"categorical batch shape"

// Categorised models count data by combining a categorical
// distribution over the small integer outcomes 0, 1, ..., K-1 with a
// base distribution for everything at or above K, where K+1 is the
// number of categorical classes.
//
// A draw equals class index k with probability P(class=k) for
// k < EventSize, and equals EventSize + y, with y drawn from the base
// distribution, with probability P(class=EventSize). The last
// categorical class is the overflow bucket: its probability scales the
// base density, which is evaluated at the observed value shifted down
// by EventSize.
//
// Both components are owned by the caller and held by reference; a
// Categorised is immutable after construction. Methods supported
// include LogProb, Prob, Mean, Variance, and Sample (when the base
// distribution can sample). EntropyLowerBound is part of the
// documented contract but is not implemented.
//
// If validateArgs is false, no runtime shape checking is performed and
// mismatched component batch shapes lead to garbage results or
// ordinary graph errors rather than a ShapeError. If the observed
// value lies outside the support of the base distribution after
// shifting (for example a negative count), the overflow branch yields
// NaN; values below EventSize are unaffected, since the branch
// selection never lets the base density leak into them.
type Categorised struct {
	cat  *Categorical
	dist Distribution

	eventSize     int
	eventShape    tensor.Shape
	validateArgs  bool
	allowNaNStats bool
	name          string
}

// NewCategorised returns a new Categorised built from a categorical
// component and a base component. The categorical component must be a
// *Categorical; its class count fixes EventSize to NumClasses-1. The
// base component may be any Distribution with a known event shape and
// a batch shape matching the categorical's.
//
// If validateArgs is true, the batch shapes of the two components are
// compared before every computation of Mean, Variance, LogProb, and
// Prob, and a ShapeError is returned on mismatch. If validateArgs is
// false, no such check is ever made.
//
// allowNaNStats records whether statistics are permitted to return NaN
// for batch members whose parameters make them undefined; it is
// advisory and gates nothing in this implementation.
func NewCategorised(cat Distribution, dist Distribution, validateArgs,
	allowNaNStats bool, name string) (*Categorised, error) {
	categorical, ok := cat.(*Categorical)
	if !ok || categorical == nil {
		return nil, typeErrorf("newCategorised: cat must be a "+
			"Categorical distribution, but saw: %T", cat)
	}

	if dist == nil {
		return nil, valueErrorf("newCategorised: dist must be non-empty")
	}

	eventShape := dist.EventShape()
	if eventShape == nil {
		return nil, valueErrorf("newCategorised: expected to know " +
			"rank(eventShape) from dist, but the distribution does not " +
			"provide one")
	}

	if name == "" {
		name = "Categorised"
	}

	return &Categorised{
		cat:           categorical,
		dist:          dist,
		eventSize:     categorical.NumClasses() - 1,
		eventShape:    eventShape.Clone(),
		validateArgs:  validateArgs,
		allowNaNStats: allowNaNStats,
		name:          name,
	}, nil
}

// Cat returns the categorical component of the distribution
func (c *Categorised) Cat() *Categorical { return c.cat }

// Dist returns the base component of the distribution
func (c *Categorised) Dist() Distribution { return c.dist }

// EventSize returns the number of integer outcomes modeled directly by
// categorical probabilities; observed values at or above this are
// routed to the base component.
func (c *Categorised) EventSize() int { return c.eventSize }

// AllowNaNStats returns whether statistics may silently be NaN for
// batch members with degenerate parameters
func (c *Categorised) AllowNaNStats() bool { return c.allowNaNStats }

// BatchShape returns the batch shape of the distribution, which is the
// batch shape of its categorical component
func (c *Categorised) BatchShape() tensor.Shape {
	return c.cat.BatchShape()
}

// EventShape returns the event shape of the distribution, which is the
// event shape of its base component
func (c *Categorised) EventShape() tensor.Shape {
	return c.eventShape.Clone()
}

// Dtype returns the numeric type of the distribution, which is the
// numeric type of its base component
func (c *Categorised) Dtype() tensor.Dtype { return c.dist.Dtype() }

// String returns the name of the distribution
func (c *Categorised) String() string { return c.name }

// Mean returns, per batch element, the exact expectation
//
//	sum_k k*P(class=k)  +  P(class=K) * (E[base] + K)
//
// where K = EventSize and the first sum runs over k < K.
func (c *Categorised) Mean() (*G.Node, error) {
	if err := c.checkBatchShapes(); err != nil {
		return nil, errors.Wrap(err, "mean")
	}

	catProbs, err := c.cat.classProbs()
	if err != nil {
		return nil, errors.Wrap(err, "mean")
	}

	g := c.cat.Logits().Graph()
	dt := c.cat.Dtype()

	// E_cat[x] = \sum_{k < K} k * P(class=k)
	var catMean *G.Node
	for k := 0; k < c.eventSize; k++ {
		coef, err := constant(g, dt, float64(k))
		if err != nil {
			return nil, errors.Wrap(err, "mean")
		}

		term, err := G.HadamardProd(coef, catProbs[k])
		if err != nil {
			return nil, errors.Wrap(err, "mean: could not weight class")
		}

		if catMean == nil {
			catMean = term
			continue
		}

		catMean, err = G.Add(catMean, term)
		if err != nil {
			return nil, errors.Wrap(err, "mean: could not accumulate")
		}
	}

	// Scaled base mean shifted by K: P(class=K) * (E[base] + K)
	distMean, err := c.dist.Mean()
	if err != nil {
		return nil, errors.Wrap(err, "mean: could not compute base mean")
	}

	size, err := constant(g, dt, float64(c.eventSize))
	if err != nil {
		return nil, errors.Wrap(err, "mean")
	}

	shifted, err := G.Add(distMean, size)
	if err != nil {
		return nil, errors.Wrap(err, "mean: could not shift base mean")
	}

	overflow, err := G.HadamardProd(catProbs[c.eventSize], shifted)
	if err != nil {
		return nil, errors.Wrap(err, "mean: could not weight base mean")
	}

	if catMean == nil {
		return overflow, nil
	}

	out, err := G.Add(catMean, overflow)
	if err != nil {
		return nil, errors.Wrap(err, "mean: could not combine components")
	}

	return out, nil
}

// Variance returns, per batch element, the exact second central moment
// E[X^2] - E[X]^2, where
//
//	E[X^2] = sum_k k^2*P(class=k)
//	       + P(class=K) * (2*K*E[base] + V[base] + E[base]^2 + K^2)
//
// with K = EventSize and the first sum running over k < K. The mean is
// recomputed internally; no value is cached across calls.
func (c *Categorised) Variance() (*G.Node, error) {
	if err := c.checkBatchShapes(); err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	catProbs, err := c.cat.classProbs()
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	g := c.cat.Logits().Graph()
	dt := c.cat.Dtype()

	// \sum_{k < K} k^2 * P(class=k)
	var catSecondMoment *G.Node
	for k := 0; k < c.eventSize; k++ {
		coef, err := constant(g, dt, float64(k*k))
		if err != nil {
			return nil, errors.Wrap(err, "variance")
		}

		term, err := G.HadamardProd(coef, catProbs[k])
		if err != nil {
			return nil, errors.Wrap(err, "variance: could not weight class")
		}

		if catSecondMoment == nil {
			catSecondMoment = term
			continue
		}

		catSecondMoment, err = G.Add(catSecondMoment, term)
		if err != nil {
			return nil, errors.Wrap(err, "variance: could not accumulate")
		}
	}

	// Scaled base second moment shifted by K, from
	// E[(K+Y)^2] = 2*K*E[Y] + E[Y^2] + K^2 with
	// E[Y^2] = V[Y] + E[Y]^2:
	//	P(class=K) * (2*K*E[base] + V[base] + E[base]^2 + K^2)
	distMean, err := c.dist.Mean()
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not compute base mean")
	}

	distVariance, err := c.dist.Variance()
	if err != nil {
		return nil, errors.Wrap(err,
			"variance: could not compute base variance")
	}

	twoSize, err := constant(g, dt, 2*float64(c.eventSize))
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	moment, err := G.HadamardProd(twoSize, distMean)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not scale base mean")
	}

	moment, err = G.Add(moment, distVariance)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not add base variance")
	}

	two, err := constant(g, dt, 2.0)
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	meanSquared, err := G.Pow(distMean, two)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not square base mean")
	}

	moment, err = G.Add(moment, meanSquared)
	if err != nil {
		return nil, errors.Wrap(err,
			"variance: could not add squared base mean")
	}

	sizeSquared, err := constant(g, dt,
		float64(c.eventSize)*float64(c.eventSize))
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	moment, err = G.Add(moment, sizeSquared)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not shift base moment")
	}

	distSecondMoment, err := G.HadamardProd(catProbs[c.eventSize], moment)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not weight base moment")
	}

	secondMoment := distSecondMoment
	if catSecondMoment != nil {
		secondMoment, err = G.Add(catSecondMoment, distSecondMoment)
		if err != nil {
			return nil, errors.Wrap(err,
				"variance: could not combine components")
		}
	}

	mean, err := c.Mean()
	if err != nil {
		return nil, errors.Wrap(err, "variance")
	}

	meanSquared, err = G.Pow(mean, two)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not square mean")
	}

	out, err := G.Sub(secondMoment, meanSquared)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not centre moment")
	}

	return out, nil
}

// LogProb returns the per-batch log-probability of x. Observed values
// below EventSize are scored by the categorical component alone;
// values at or above EventSize are scored as the overflow class
// log-probability plus the base log-density of x - EventSize.
//
// x is not required to be a non-negative integer: the categorical
// index is clamped into range before lookup, and values incompatible
// with the base support produce NaN in the overflow branch rather than
// an error.
func (c *Categorised) LogProb(x *G.Node) (*G.Node, error) {
	if err := c.checkBatchShapes(); err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	x, err := fixInputShape(x, c.BatchShape())
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	g := x.Graph()
	dt := c.cat.Dtype()

	// Clamp into [0, K] so the categorical is never queried with an
	// out-of-range index, then floor to an exact class index
	var clamped *G.Node
	switch dt {
	case tensor.Float64:
		clamped, err = dop.Clamp(x, 0.0, float64(c.eventSize), false)

	case tensor.Float32:
		clamped, err = dop.Clamp(x, float32(0), float32(c.eventSize), false)

	default:
		return nil, typeErrorf("logProb: data type %v unsupported", dt)
	}
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not clamp input")
	}

	index, err := G.Floor(clamped)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not floor input")
	}

	catLogProb, err := c.cat.LogProb(index)
	if err != nil {
		return nil, errors.Wrap(err,
			"logProb: could not compute categorical log probability")
	}

	size, err := constant(g, dt, float64(c.eventSize))
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	shifted, err := G.Sub(x, size)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not shift input")
	}

	distLogProb, err := c.dist.LogProb(shifted)
	if err != nil {
		return nil, errors.Wrap(err,
			"logProb: could not compute base log probability")
	}

	overflow, err := G.Add(catLogProb, distLogProb)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not combine components")
	}

	below, err := G.Lt(x, size, true)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not compare input")
	}

	out, err := dop.Where(below, catLogProb, overflow)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not select branch")
	}

	return out, nil
}

// Prob returns the per-batch probability of x, computed as
// exp(LogProb(x))
func (c *Categorised) Prob(x *G.Node) (*G.Node, error) {
	logProb, err := c.LogProb(x)
	if err != nil {
		return nil, errors.Wrap(err, "prob")
	}

	out, err := G.Exp(logProb)
	if err != nil {
		return nil, errors.Wrap(err, "prob: could not exponentiate")
	}

	return out, nil
}

// EntropyLowerBound is part of the documented contract of the
// distribution but is not implemented
func (c *Categorised) EntropyLowerBound() (*G.Node, error) {
	return nil, errors.New("entropyLowerBound: not implemented")
}

// Sample returns a node that draws from the distribution(s) stored by
// the receiver each time the node is passed: a categorical class below
// EventSize is returned as-is, and the overflow class is replaced by
// EventSize plus a draw from the base component. The base component
// must implement Sampler. The returned node has shape
// (samples, batch...). This function is not differentiable.
func (c *Categorised) Sample(samples int) (*G.Node, error) {
	sampler, ok := c.dist.(Sampler)
	if !ok {
		return nil, typeErrorf("sample: base distribution %T cannot sample",
			c.dist)
	}

	catSamples, err := c.cat.Sample(samples)
	if err != nil {
		return nil, errors.Wrap(err,
			"sample: could not sample categorical component")
	}

	distSamples, err := sampler.Sample(samples)
	if err != nil {
		return nil, errors.Wrap(err, "sample: could not sample base")
	}

	g := c.cat.Logits().Graph()
	dt := c.cat.Dtype()

	size, err := constant(g, dt, float64(c.eventSize))
	if err != nil {
		return nil, errors.Wrap(err, "sample")
	}

	shifted, err := G.Add(distSamples, size)
	if err != nil {
		return nil, errors.Wrap(err, "sample: could not shift base samples")
	}

	below, err := G.Lt(catSamples, size, true)
	if err != nil {
		return nil, errors.Wrap(err, "sample: could not compare classes")
	}

	out, err := dop.Where(below, catSamples, shifted)
	if err != nil {
		return nil, errors.Wrap(err, "sample: could not select branch")
	}

	return out, nil
}

// checkBatchShapes is the deferred batch-shape assertion of the
// distribution: it compares the runtime batch shapes of the two
// components immediately before any dependent computation. It is
// re-evaluated on every call, with no memoization, and is a no-op
// unless the distribution was constructed with validateArgs.
func (c *Categorised) checkBatchShapes() error {
	if !c.validateArgs {
		return nil
	}

	catShape := c.cat.BatchShape()
	distShape := c.dist.BatchShape()

	if len(catShape) != len(distShape) {
		return shapeErrorf("%v: expected rank %v but got rank %v",
			batchShapeMessage, len(catShape), len(distShape))
	}

	for i := range catShape {
		if catShape[i] != distShape[i] {
			return shapeErrorf("%v: expected %v but got %v",
				batchShapeMessage, catShape, distShape)
		}
	}

	return nil
}
