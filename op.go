// Package dop provides extended Gorgonia operations for building
// probability distributions over count data.
package dop

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Clamp clamps a node's values to be between min and max. The types of
// min and max must match the data type of the node x. If passGradient
// is true, then the gradient is passed through the clamping operation
// unchanged:
//
//	grad = 1
//
// Otherwise, the regular clamp gradient is used:
//
//	        { 1 if min <= x <= max
//	grad =  {
//	        { 0 otherwise
func Clamp(x *G.Node, min, max interface{}, passGradient bool) (*G.Node,
	error) {
	op := newClampOp(min, max, passGradient)

	return G.ApplyOp(op, x)
}

// Lgamma computes the element-wise natural logarithm of the absolute
// value of the gamma function
func Lgamma(x *G.Node) (*G.Node, error) {
	op := newLgammaOp()

	return G.ApplyOp(op, x)
}

// Copy returns a node whose value is an element-wise copy of x held in
// a freshly allocated buffer. A node that shares storage with other
// nodes, such as a graph constant deduplicated by value, can be passed
// through Copy so that no downstream in-place write ever reaches the
// shared buffer. The gradient passes through unchanged.
func Copy(x *G.Node) (*G.Node, error) {
	op := newCopyOp()

	return G.ApplyOp(op, x)
}

// Where selects values element-wise from two nodes based on a
// condition node: where cond is nonzero the value is taken from x,
// elsewhere from y. All three nodes must have the same shape and data
// type; cond holds 0/1 values such as those produced by
// gorgonia.Lt(a, b, true).
//
// Unlike masked arithmetic (cond*x + (1-cond)*y), Where never lets a
// NaN in the unselected branch reach the output.
func Where(cond, x, y *G.Node) (*G.Node, error) {
	op := newWhereOp()

	return G.ApplyOp(op, cond, x, y)
}

// Take gathers values along the last axis of x. For an input of shape
// (b_1, ..., b_m, n) and indices of shape (b_1, ..., b_m), the output
// has the shape of indices with
//
//	out[b_1, ..., b_m] = x[b_1, ..., b_m, indices[b_1, ..., b_m]]
//
// The indices node has the same data type as x and must hold integer
// values in [0, n).
func Take(x, indices *G.Node) (*G.Node, error) {
	if x.Dims() != indices.Dims()+1 {
		return nil, fmt.Errorf("take: expected x to have one more "+
			"dimension than indices but got shapes %v and %v", x.Shape(),
			indices.Shape())
	}

	op := newTakeOp(indices.Dims())

	return G.ApplyOp(op, x, indices)
}

// Column extracts index k of the last axis of x. For an input of shape
// (b_1, ..., b_m, n), the output has shape (b_1, ..., b_m) with
//
//	out[b_1, ..., b_m] = x[b_1, ..., b_m, k]
func Column(x *G.Node, k int) (*G.Node, error) {
	if x.Dims() < 2 {
		return nil, fmt.Errorf("column: expected x to have at least 2 "+
			"dimensions but got shape %v", x.Shape())
	}
	if n := x.Shape()[x.Dims()-1]; k < 0 || k >= n {
		return nil, fmt.Errorf("column: index %v out of range for last "+
			"axis of size %v", k, n)
	}

	op := newColumnOp(k, x.Dims())

	return G.ApplyOp(op, x)
}
