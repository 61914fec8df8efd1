package distribution

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Independent reinterprets the trailing batch dimensions of a
// distribution as event dimensions: log-probabilities are summed over
// the reinterpreted dimensions, turning a batch of scalar
// distributions into a single distribution over a multi-dimensional
// event. This is how a per-feature count likelihood becomes a
// per-observation likelihood.
//
// Event dims are always taken from the right of the batch shape.
type Independent struct {
	Distribution
	dims int // The number of batch dimensions to interpret as events
}

// NewIndependent returns a new Independent reinterpreting the last
// dims batch dimensions of d as event dimensions
func NewIndependent(d Distribution, dims int) (*Independent, error) {
	if d == nil {
		return nil, typeErrorf("newIndependent: d must be a Distribution " +
			"but got <nil>")
	}

	if dims < 0 || dims > d.BatchShape().Dims() {
		return nil, valueErrorf("newIndependent: cannot reinterpret %v "+
			"dimensions of batch shape %v", dims, d.BatchShape())
	}

	return &Independent{d, dims}, nil
}

// BatchShape returns the batch shape of the distribution with the
// reinterpreted dimensions dropped
func (i *Independent) BatchShape() tensor.Shape {
	s := i.Distribution.BatchShape().Clone()

	return s[:len(s)-i.dims]
}

// EventShape returns the reinterpreted dimensions followed by the
// event shape of the wrapped distribution
func (i *Independent) EventShape() tensor.Shape {
	batch := i.Distribution.BatchShape().Clone()
	reinterpreted := batch[len(batch)-i.dims:]

	return append(reinterpreted, i.Distribution.EventShape()...)
}

// LogProb returns the log probability of x, summed over the
// reinterpreted event dimensions
func (i *Independent) LogProb(x *G.Node) (*G.Node, error) {
	if x.Dims() < i.dims {
		return nil, errors.Errorf("logProb: expected dims >= %v but got %v",
			i.dims, x.Dims())
	}

	out, err := i.Distribution.LogProb(x)
	if err != nil {
		return nil, errors.Wrap(err, "logProb: could not compute "+
			"element-wise log prob")
	}

	// Combine event dims
	for j := 0; j < i.dims; j++ {
		out, err = G.Sum(out, out.Dims()-1)
		if err != nil {
			return nil, errors.Wrap(err, "logProb: could not combine "+
				"event dims")
		}
	}

	return out, nil
}

// Prob returns the probability of x with the reinterpreted event
// dimensions combined
func (i *Independent) Prob(x *G.Node) (*G.Node, error) {
	logProb, err := i.LogProb(x)
	if err != nil {
		return nil, errors.Wrap(err, "prob")
	}

	out, err := G.Exp(logProb)
	if err != nil {
		return nil, errors.Wrap(err, "prob: could not exponentiate")
	}

	return out, nil
}
