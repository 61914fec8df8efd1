package distribution

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestIndependentShapes(t *testing.T) {
	g := G.NewGraph()
	rate := G.NewMatrix(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{2, 3},
		tensor.WithBacking([]float64{0.5, 1.3, 4.0, 2.0, 0.7, 1.1}),
	)))

	p, err := NewPoisson(rate, 11)
	if err != nil {
		t.Fatal(err)
	}

	ind, err := NewIndependent(p, 1)
	if err != nil {
		t.Fatal(err)
	}

	if !ind.BatchShape().Eq(tensor.Shape{2}) {
		t.Errorf("expected batch shape (2) but got %v", ind.BatchShape())
	}
	if !ind.EventShape().Eq(tensor.Shape{3}) {
		t.Errorf("expected event shape (3) but got %v", ind.EventShape())
	}

	if _, err := NewIndependent(p, 3); err == nil {
		t.Error("expected an error when reinterpreting more dimensions " +
			"than the batch shape has")
	}
}

func TestIndependentLogProb(t *testing.T) {
	const threshold float64 = 0.000001

	rates := []float64{0.5, 1.3, 4.0, 2.0, 0.7, 1.1}
	xs := []float64{1, 2, 3, 0, 1, 2}

	g := G.NewGraph()
	rate := G.NewMatrix(g, tensor.Float64, G.WithName("rate"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2, 3}, tensor.WithBacking(rates),
		)))

	p, err := NewPoisson(rate, 11)
	if err != nil {
		t.Fatal(err)
	}

	ind, err := NewIndependent(p, 1)
	if err != nil {
		t.Fatal(err)
	}

	x := G.NewMatrix(g, tensor.Float64, G.WithName("x"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2, 3}, tensor.WithBacking(xs),
		)))

	logProb, err := ind.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal G.Value
	G.Read(logProb, &logProbVal)

	runTape(t, g)

	out := logProbVal.Data().([]float64)
	if len(out) != 2 {
		t.Fatalf("expected 2 values but got %v", len(out))
	}
	for i := range out {
		var expected float64
		for j := 0; j < 3; j++ {
			expected += distuv.Poisson{
				Lambda: rates[i*3+j],
			}.LogProb(xs[i*3+j])
		}

		if math.Abs(out[i]-expected) > threshold {
			t.Errorf("expected: %v received: %v for batch element %v",
				expected, out[i], i)
		}
	}
}
