package distribution

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/avhollund/dop"
)

// constant returns a scalar graph constant of value v with dtype dt
func constant(g *G.ExprGraph, dt tensor.Dtype, v float64) (*G.Node, error) {
	switch dt {
	case tensor.Float64:
		return g.Constant(G.NewF64(v)), nil

	case tensor.Float32:
		return g.Constant(G.NewF32(float32(v))), nil

	default:
		return nil, fmt.Errorf("constant: dtype %v unsupported", dt)
	}
}

// scalarEvent is the event shape of a scalar-valued distribution
func scalarEvent() tensor.Shape { return tensor.Shape{} }

// fixInputShape reshapes scalar inputs to shape (1) so that they match
// a batch shape of (1), verifies that non-scalar inputs already have
// the given batch shape, and returns a defensive copy of the input.
//
// The copy keeps the in-place writes of downstream arithmetic from
// ever reaching the caller's node. Graph constants are deduplicated by
// value, so without the copy an input constant can be the very node a
// method uses internally, and the first evaluation would silently
// corrupt every later one.
func fixInputShape(x *G.Node, batch tensor.Shape) (*G.Node, error) {
	if x.IsScalar() && batch.Eq(tensor.Shape{1}) {
		var err error
		x, err = G.Reshape(x, []int{1})
		if err != nil {
			return nil, err
		}
	} else if !x.Shape().Eq(batch) {
		return nil, fmt.Errorf("expected input shape to match batch "+
			"shape %v but got %v", batch, x.Shape())
	}

	return dop.Copy(x)
}
