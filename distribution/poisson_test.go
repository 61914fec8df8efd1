package distribution

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestPoissonLogProb(t *testing.T) {
	const threshold float64 = 0.000001

	rates := []float64{0.5, 1.3, 4.0}
	xs := []float64{1, 2, 3}

	g := G.NewGraph()
	rate := G.NewVector(g, tensor.Float64, G.WithName("rate"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{3}, tensor.WithBacking(rates),
		)))

	p, err := NewPoisson(rate, 11)
	if err != nil {
		t.Fatal(err)
	}

	x := G.NewVector(g, tensor.Float64, G.WithName("x"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{3}, tensor.WithBacking(xs),
		)))

	logProb, err := p.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal G.Value
	G.Read(logProb, &logProbVal)

	runTape(t, g)

	out := logProbVal.Data().([]float64)
	for i := range out {
		expected := distuv.Poisson{Lambda: rates[i]}.LogProb(xs[i])
		if math.Abs(out[i]-expected) > threshold {
			t.Errorf("expected: %v received: %v for λ: %v x: %v", expected,
				out[i], rates[i], xs[i])
		}
	}
}

func TestPoissonLogProbBatch(t *testing.T) {
	const threshold float64 = 0.000001

	rates := []float64{0.5, 1.3, 4.0}
	xs := []float64{
		1, 2, 3,
		0, 1, 2,
	}

	g := G.NewGraph()
	rate := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{3}, tensor.WithBacking(rates),
	)))

	p, err := NewPoisson(rate, 11)
	if err != nil {
		t.Fatal(err)
	}

	// A leading dimension on x is a batch of samples, each evaluated
	// against every distribution element-wise
	x := G.NewMatrix(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{2, 3}, tensor.WithBacking(xs),
	)))

	logProb, err := p.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal G.Value
	G.Read(logProb, &logProbVal)

	runTape(t, g)

	out := logProbVal.Data().([]float64)
	for i := range out {
		expected := distuv.Poisson{Lambda: rates[i%3]}.LogProb(xs[i])
		if math.Abs(out[i]-expected) > threshold {
			t.Errorf("expected: %v received: %v for λ: %v x: %v", expected,
				out[i], rates[i%3], xs[i])
		}
	}
}

func TestPoissonBatchShapeIsCopied(t *testing.T) {
	g := G.NewGraph()
	rate := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{3},
		tensor.WithBacking([]float64{0.5, 1.3, 4.0}),
	)))

	p, err := NewPoisson(rate, 11)
	if err != nil {
		t.Fatal(err)
	}

	shape := p.BatchShape()
	shape[0] = 99

	if !p.BatchShape().Eq(tensor.Shape{3}) {
		t.Errorf("expected batch shape (3) after mutating a returned "+
			"copy but got %v", p.BatchShape())
	}
}

func TestPoissonSample(t *testing.T) {
	const numSamples int = 100000
	const threshold float64 = 0.05
	const lambda float64 = 1.3

	g := G.NewGraph()
	rate := G.NewScalar(g, tensor.Float64, G.WithName("rate"),
		G.WithValue(lambda))

	p, err := NewPoisson(rate, 13)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := p.Sample(numSamples)
	if err != nil {
		t.Fatal(err)
	}
	var samplesVal G.Value
	G.Read(samples, &samplesVal)

	runTape(t, g)

	var sum float64
	for _, s := range samplesVal.Data().([]float64) {
		sum += s
	}

	if mean := sum / float64(numSamples); math.Abs(mean-lambda) > threshold {
		t.Errorf("expected sample mean near %v but got %v", lambda, mean)
	}
}
