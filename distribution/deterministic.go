package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Deterministic is a point mass at loc: all probability is assigned to
// the single value held by the loc node. It may hold a batch of point
// masses simultaneously; a scalar loc is expanded to a batch of one.
//
// Deterministic is mostly useful as a degenerate base component when
// composing distributions, and as a fixture when testing exact
// moments.
type Deterministic struct {
	loc *G.Node
}

// NewDeterministic returns a new Deterministic with all mass at loc
func NewDeterministic(loc *G.Node) (*Deterministic, error) {
	if loc == nil {
		return nil, typeErrorf("newDeterministic: loc must be a node but " +
			"got <nil>")
	}

	if dt := loc.Dtype(); dt != tensor.Float64 && dt != tensor.Float32 {
		return nil, typeErrorf("newDeterministic: data type %v unsupported",
			dt)
	}

	if loc.IsScalar() {
		var err error
		loc, err = G.Reshape(loc, []int{1})
		if err != nil {
			return nil, errors.Wrap(err, "newDeterministic: could not "+
				"expand loc to shape (1)")
		}
	}

	return &Deterministic{loc: loc}, nil
}

// Loc returns the location node of the distribution
func (d *Deterministic) Loc() *G.Node { return d.loc }

// BatchShape returns the batch shape of the distribution
func (d *Deterministic) BatchShape() tensor.Shape {
	return d.loc.Shape().Clone()
}

// EventShape returns the event shape of the distribution
func (d *Deterministic) EventShape() tensor.Shape { return scalarEvent() }

// Dtype returns the numeric type of the distribution
func (d *Deterministic) Dtype() tensor.Dtype { return d.loc.Dtype() }

// Mean returns the mean of the distribution(s) stored by the receiver
func (d *Deterministic) Mean() (*G.Node, error) { return d.loc, nil }

// Variance returns the variance of the distribution(s) stored by the
// receiver, which is identically zero
func (d *Deterministic) Variance() (*G.Node, error) {
	out, err := G.Sub(d.loc, d.loc)
	if err != nil {
		return nil, errors.Wrap(err, "variance: could not build zero")
	}

	return out, nil
}

// LogProb returns 0 where x equals loc and -Inf elsewhere
func (d *Deterministic) LogProb(x *G.Node) (*G.Node, error) {
	x, err := fixInputShape(x, d.BatchShape())
	if err != nil {
		return nil, errors.Wrap(err, "logProb")
	}

	// ln(1{x = loc}) is 0 on the point mass and -Inf off it
	mass, err := G.Eq(x, d.loc, true)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not compare input")
	}

	out, err := G.Log(mass)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not take log")
	}

	return out, nil
}

// Prob returns 1 where x equals loc and 0 elsewhere. The shape of x is
// treated in the same way as the LogProb method.
func (d *Deterministic) Prob(x *G.Node) (*G.Node, error) {
	x, err := fixInputShape(x, d.BatchShape())
	if err != nil {
		return nil, errors.Wrap(err, "prob")
	}

	out, err := G.Eq(x, d.loc, true)
	if err != nil {
		return nil, errors.Wrap(err, "prob: could not compare input")
	}

	return out, nil
}
