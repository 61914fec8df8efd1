package distribution

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestCategoricalLogProb(t *testing.T) {
	const threshold float64 = 0.000001

	// Logits (0, 0, ln(2)) normalize to probabilities (0.25, 0.25, 0.5)
	g := G.NewGraph()
	logits := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{3},
		tensor.WithBacking([]float64{0, 0, math.Log(2)}),
	)))

	c, err := NewCategorical(logits, 11)
	if err != nil {
		t.Fatal(err)
	}

	if c.NumClasses() != 3 {
		t.Fatalf("expected 3 classes but got %v", c.NumClasses())
	}
	if !c.BatchShape().Eq(tensor.Shape{1}) {
		t.Fatalf("expected batch shape (1) but got %v", c.BatchShape())
	}

	x := g.Constant(G.NewF64(2.0))
	logProb, err := c.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal G.Value
	G.Read(logProb, &logProbVal)

	runTape(t, g)

	out := logProbVal.Data().([]float64)
	if expected := math.Log(0.5); math.Abs(out[0]-expected) > threshold {
		t.Errorf("expected: %v received: %v", expected, out[0])
	}
}

func TestCategoricalLogProbBatch(t *testing.T) {
	const threshold float64 = 0.000001

	// Row 1 normalizes to (0.25, 0.25, 0.5) and row 2 to (0.6, 0.2, 0.2)
	g := G.NewGraph()
	logits := G.NewMatrix(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{2, 3},
		tensor.WithBacking([]float64{
			0, 0, math.Log(2),
			math.Log(3), 0, 0,
		}),
	)))

	c, err := NewCategorical(logits, 11)
	if err != nil {
		t.Fatal(err)
	}

	x := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{2}, tensor.WithBacking([]float64{2, 0}),
	)))

	logProb, err := c.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal G.Value
	G.Read(logProb, &logProbVal)

	runTape(t, g)

	expected := []float64{math.Log(0.5), math.Log(0.6)}
	out := logProbVal.Data().([]float64)
	for i := range out {
		if math.Abs(out[i]-expected[i]) > threshold {
			t.Errorf("expected: %v received: %v for batch element %v",
				expected[i], out[i], i)
		}
	}
}

func TestCategoricalMoments(t *testing.T) {
	const threshold float64 = 0.000001

	g := G.NewGraph()
	logits := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{3},
		tensor.WithBacking([]float64{0, 0, math.Log(2)}),
	)))

	c, err := NewCategorical(logits, 11)
	if err != nil {
		t.Fatal(err)
	}

	mean, err := c.Mean()
	if err != nil {
		t.Fatal(err)
	}
	variance, err := c.Variance()
	if err != nil {
		t.Fatal(err)
	}
	var meanVal, varianceVal G.Value
	G.Read(mean, &meanVal)
	G.Read(variance, &varianceVal)

	runTape(t, g)

	// E[X] = 0*0.25 + 1*0.25 + 2*0.5 and Var[X] = E[X^2] - E[X]^2
	expectedMean := 1.25
	expectedVariance := 2.25 - 1.25*1.25

	outMean := meanVal.Data().([]float64)
	if math.Abs(outMean[0]-expectedMean) > threshold {
		t.Errorf("expected mean: %v received: %v", expectedMean, outMean[0])
	}

	outVariance := varianceVal.Data().([]float64)
	if math.Abs(outVariance[0]-expectedVariance) > threshold {
		t.Errorf("expected variance: %v received: %v", expectedVariance,
			outVariance[0])
	}
}

func TestCategoricalEntropy(t *testing.T) {
	const threshold float64 = 0.000001

	g := G.NewGraph()
	logits := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{3},
		tensor.WithBacking([]float64{0, 0, math.Log(2)}),
	)))

	c, err := NewCategorical(logits, 11)
	if err != nil {
		t.Fatal(err)
	}

	entropy, err := c.Entropy()
	if err != nil {
		t.Fatal(err)
	}
	var entropyVal G.Value
	G.Read(entropy, &entropyVal)

	runTape(t, g)

	dist := distuv.NewCategorical([]float64{0.25, 0.25, 0.5}, nil)
	expected := dist.Entropy()

	out := entropyVal.Data().([]float64)
	if math.Abs(out[0]-expected) > threshold {
		t.Errorf("expected: %v received: %v", expected, out[0])
	}
}

func TestCategoricalSample(t *testing.T) {
	const numSamples int = 100000
	const threshold float64 = 0.01

	g := G.NewGraph()
	logits := G.NewVector(g, tensor.Float64, G.WithValue(tensor.NewDense(
		tensor.Float64, []int{3},
		tensor.WithBacking([]float64{0, 0, math.Log(2)}),
	)))

	c, err := NewCategorical(logits, 13)
	if err != nil {
		t.Fatal(err)
	}

	samples, err := c.Sample(numSamples)
	if err != nil {
		t.Fatal(err)
	}
	if !samples.Shape().Eq(tensor.Shape{numSamples, 1}) {
		t.Fatalf("expected sample shape (%v, 1) but got %v", numSamples,
			samples.Shape())
	}
	var samplesVal G.Value
	G.Read(samples, &samplesVal)

	runTape(t, g)

	counts := make([]float64, 3)
	for _, s := range samplesVal.Data().([]float64) {
		counts[int(s)]++
	}

	expected := []float64{0.25, 0.25, 0.5}
	for k := range counts {
		freq := counts[k] / float64(numSamples)
		if math.Abs(freq-expected[k]) > threshold {
			t.Errorf("expected frequency: %v received: %v for class %v",
				expected[k], freq, k)
		}
	}
}
