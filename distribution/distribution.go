// Package distribution provides probability distributions over count
// data, built on Gorgonia expression graphs.
//
// Each distribution is constructed once from parameter nodes and then
// queried repeatedly for log-densities, densities, and moments. All
// methods are pure functions of the constructed state and their
// inputs: no distribution maintains any internal mutable cache, so
// repeated calls recompute their dependencies and concurrent read-only
// use is safe as far as the underlying graph is.
package distribution

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Distribution is a probability distribution over a batch of
// independently parameterized variables.
//
// The batch shape is the set of independent, non-identically
// parameterized instances evaluated together in one call. The event
// shape is the shape of a single draw from one such instance; it is
// empty for scalar-event distributions.
//
// Inputs to LogProb and Prob must have the batch shape of the
// distribution (scalar inputs are accepted for batch shape (1)).
type Distribution interface {
	// BatchShape returns the batch shape of the distribution
	BatchShape() tensor.Shape

	// EventShape returns the event shape of the distribution
	EventShape() tensor.Shape

	// Dtype returns the numeric type of the distribution
	Dtype() tensor.Dtype

	Mean() (*G.Node, error)
	Variance() (*G.Node, error)

	// LogProb returns the log of the probability density or mass
	// at x
	LogProb(x *G.Node) (*G.Node, error)

	// Prob returns the probability density or mass at x
	Prob(x *G.Node) (*G.Node, error)
}

// Sampler is a Distribution that can generate samples. The returned
// node produces new draws each time it is evaluated and has shape
// (samples, batch...). Sampling is not differentiable.
type Sampler interface {
	Distribution
	Sample(samples int) (*G.Node, error)
}

// TypeError indicates that a distribution was constructed with a
// component of the wrong type.
type TypeError struct {
	msg string
}

func typeErrorf(format string, args ...interface{}) *TypeError {
	return &TypeError{msg: fmt.Sprintf(format, args...)}
}

func (e *TypeError) Error() string { return e.msg }

// ValueError indicates that a distribution was constructed with an
// invalid parameter value, such as an empty component set or a shape
// whose rank cannot be determined.
type ValueError struct {
	msg string
}

func valueErrorf(format string, args ...interface{}) *ValueError {
	return &ValueError{msg: fmt.Sprintf(format, args...)}
}

func (e *ValueError) Error() string { return e.msg }

// ShapeError indicates that the batch shapes of two components of a
// composite distribution do not agree at evaluation time. It is only
// produced by distributions constructed with argument validation
// enabled.
type ShapeError struct {
	msg string
}

func shapeErrorf(format string, args ...interface{}) *ShapeError {
	return &ShapeError{msg: fmt.Sprintf(format, args...)}
}

func (e *ShapeError) Error() string { return e.msg }
