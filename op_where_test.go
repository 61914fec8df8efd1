package dop

import (
	"math"
	"math/rand"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestWhere(t *testing.T) {
	const numTests int = 15

	const sizeMin int = 1
	const sizeMax int = 32
	rand.Seed(23)

	for i := 0; i < numTests; i++ {
		size := sizeMin + rand.Intn(sizeMax-sizeMin)

		condBacking := make([]float64, size)
		for j := range condBacking {
			if rand.Float64() < 0.5 {
				condBacking[j] = 1.0
			}
		}
		xBacking := randF64(size, -10, 10)
		yBacking := randF64(size, -10, 10)

		g := G.NewGraph()
		cond := G.NewVector(g, tensor.Float64, G.WithName("cond"),
			G.WithValue(tensor.NewDense(
				tensor.Float64, []int{size}, tensor.WithBacking(condBacking),
			)))
		x := G.NewVector(g, tensor.Float64, G.WithName("x"),
			G.WithValue(tensor.NewDense(
				tensor.Float64, []int{size}, tensor.WithBacking(xBacking),
			)))
		y := G.NewVector(g, tensor.Float64, G.WithName("y"),
			G.WithValue(tensor.NewDense(
				tensor.Float64, []int{size}, tensor.WithBacking(yBacking),
			)))

		w, err := Where(cond, x, y)
		if err != nil {
			t.Fatal(err)
		}
		var wVal G.Value
		G.Read(w, &wVal)

		vm := G.NewTapeMachine(g)
		if err := vm.RunAll(); err != nil {
			t.Fatal(err)
		}

		out := wVal.Data().([]float64)
		for j := range out {
			expected := yBacking[j]
			if condBacking[j] != 0 {
				expected = xBacking[j]
			}

			if out[j] != expected {
				t.Errorf("expected: %v received: %v for cond: %v", expected,
					out[j], condBacking[j])
			}
		}

		vm.Reset()
		vm.Close()
	}
}

// TestWhereNaN checks that a NaN in the unselected branch does not
// propagate to the output
func TestWhereNaN(t *testing.T) {
	condBacking := []float64{1, 0, 1}
	xBacking := []float64{1, math.NaN(), 3}
	yBacking := []float64{math.NaN(), 2, math.NaN()}

	g := G.NewGraph()
	cond := G.NewVector(g, tensor.Float64, G.WithName("cond"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{3}, tensor.WithBacking(condBacking),
		)))
	x := G.NewVector(g, tensor.Float64, G.WithName("x"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{3}, tensor.WithBacking(xBacking),
		)))
	y := G.NewVector(g, tensor.Float64, G.WithName("y"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{3}, tensor.WithBacking(yBacking),
		)))

	w, err := Where(cond, x, y)
	if err != nil {
		t.Fatal(err)
	}
	var wVal G.Value
	G.Read(w, &wVal)

	vm := G.NewTapeMachine(g)
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}

	expected := []float64{1, 2, 3}
	out := wVal.Data().([]float64)
	for j := range out {
		if out[j] != expected[j] {
			t.Errorf("expected: %v received: %v at index %v", expected[j],
				out[j], j)
		}
	}

	vm.Reset()
	vm.Close()
}
