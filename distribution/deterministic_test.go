package distribution

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestDeterministicLogProb(t *testing.T) {
	g := G.NewGraph()
	loc := G.NewVector(g, tensor.Float64, G.WithName("loc"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking([]float64{1, 2}),
		)))

	d, err := NewDeterministic(loc)
	if err != nil {
		t.Fatal(err)
	}

	x := G.NewVector(g, tensor.Float64, G.WithName("x"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking([]float64{1, 3}),
		)))

	logProb, err := d.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	prob, err := d.Prob(x)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal, probVal G.Value
	G.Read(logProb, &logProbVal)
	G.Read(prob, &probVal)

	runTape(t, g)

	outLogProb := logProbVal.Data().([]float64)
	if outLogProb[0] != 0 {
		t.Errorf("expected log prob 0 on the point mass but got %v",
			outLogProb[0])
	}
	if !math.IsInf(outLogProb[1], -1) {
		t.Errorf("expected log prob -Inf off the point mass but got %v",
			outLogProb[1])
	}

	outProb := probVal.Data().([]float64)
	if outProb[0] != 1 || outProb[1] != 0 {
		t.Errorf("expected probs (1, 0) but got %v", outProb)
	}
}

func TestDeterministicBatchShapeIsCopied(t *testing.T) {
	g := G.NewGraph()
	loc := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{2}, tensor.WithBacking([]float64{1, 2}),
	)))

	d, err := NewDeterministic(loc)
	if err != nil {
		t.Fatal(err)
	}

	shape := d.BatchShape()
	shape[0] = 99

	if !d.BatchShape().Eq(tensor.Shape{2}) {
		t.Errorf("expected batch shape (2) after mutating a returned "+
			"copy but got %v", d.BatchShape())
	}
}

func TestDeterministicMoments(t *testing.T) {
	g := G.NewGraph()
	loc := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{2}, tensor.WithBacking([]float64{1, 2}),
	)))

	d, err := NewDeterministic(loc)
	if err != nil {
		t.Fatal(err)
	}

	mean, err := d.Mean()
	if err != nil {
		t.Fatal(err)
	}
	variance, err := d.Variance()
	if err != nil {
		t.Fatal(err)
	}
	var varianceVal G.Value
	G.Read(variance, &varianceVal)

	if mean != loc {
		t.Error("expected the mean to be the location node")
	}

	runTape(t, g)

	outVariance := varianceVal.Data().([]float64)
	for i := range outVariance {
		if outVariance[i] != 0 {
			t.Errorf("expected variance 0 but got %v for element %v",
				outVariance[i], i)
		}
	}
}
