package distribution

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// negativeBinomialLogPMF is the reference log mass used to check the
// graph-based computation:
//
//	lgamma(x+r) - lgamma(r) - lgamma(x+1) + x*ln(p) + r*ln(1-p)
func negativeBinomialLogPMF(x, r, p float64) float64 {
	lgXR, _ := math.Lgamma(x + r)
	lgR, _ := math.Lgamma(r)
	lgX, _ := math.Lgamma(x + 1)

	return lgXR - lgR - lgX + x*math.Log(p) + r*math.Log1p(-p)
}

func TestNegativeBinomialLogProb(t *testing.T) {
	const threshold float64 = 0.000001

	rs := []float64{2.0, 5.5}
	ps := []float64{0.3, 0.6}
	xs := []float64{1, 3}

	g := G.NewGraph()
	totalCount := G.NewVector(g, tensor.Float64, G.WithName("totalCount"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking(rs),
		)))
	probs := G.NewVector(g, tensor.Float64, G.WithName("probs"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking(ps),
		)))

	n, err := NewNegativeBinomial(totalCount, probs)
	if err != nil {
		t.Fatal(err)
	}

	x := G.NewVector(g, tensor.Float64, G.WithName("x"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking(xs),
		)))

	logProb, err := n.LogProb(x)
	if err != nil {
		t.Fatal(err)
	}
	var logProbVal G.Value
	G.Read(logProb, &logProbVal)

	runTape(t, g)

	out := logProbVal.Data().([]float64)
	for i := range out {
		expected := negativeBinomialLogPMF(xs[i], rs[i], ps[i])
		if math.Abs(out[i]-expected) > threshold {
			t.Errorf("expected: %v received: %v for r: %v p: %v x: %v",
				expected, out[i], rs[i], ps[i], xs[i])
		}
	}
}

func TestNegativeBinomialBatchShapeIsCopied(t *testing.T) {
	g := G.NewGraph()
	totalCount := G.NewVector(g, tensor.Float64, G.WithName("totalCount"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking([]float64{2.0, 5.5}),
		)))
	probs := G.NewVector(g, tensor.Float64, G.WithName("probs"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking([]float64{0.3, 0.6}),
		)))

	n, err := NewNegativeBinomial(totalCount, probs)
	if err != nil {
		t.Fatal(err)
	}

	shape := n.BatchShape()
	shape[0] = 99

	if !n.BatchShape().Eq(tensor.Shape{2}) {
		t.Errorf("expected batch shape (2) after mutating a returned "+
			"copy but got %v", n.BatchShape())
	}
}

func TestNegativeBinomialMoments(t *testing.T) {
	const threshold float64 = 0.000001

	rs := []float64{2.0, 5.5}
	ps := []float64{0.3, 0.6}

	g := G.NewGraph()
	totalCount := G.NewVector(g, tensor.Float64, G.WithName("totalCount"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking(rs),
		)))
	probs := G.NewVector(g, tensor.Float64, G.WithName("probs"),
		G.WithValue(tensor.NewDense(
			tensor.Float64, []int{2}, tensor.WithBacking(ps),
		)))

	n, err := NewNegativeBinomial(totalCount, probs)
	if err != nil {
		t.Fatal(err)
	}

	mean, err := n.Mean()
	if err != nil {
		t.Fatal(err)
	}
	variance, err := n.Variance()
	if err != nil {
		t.Fatal(err)
	}
	var meanVal, varianceVal G.Value
	G.Read(mean, &meanVal)
	G.Read(variance, &varianceVal)

	runTape(t, g)

	outMean := meanVal.Data().([]float64)
	outVariance := varianceVal.Data().([]float64)
	for i := range outMean {
		expectedMean := rs[i] * ps[i] / (1 - ps[i])
		expectedVariance := expectedMean / (1 - ps[i])

		if math.Abs(outMean[i]-expectedMean) > threshold {
			t.Errorf("expected mean: %v received: %v for r: %v p: %v",
				expectedMean, outMean[i], rs[i], ps[i])
		}
		if math.Abs(outVariance[i]-expectedVariance) > threshold {
			t.Errorf("expected variance: %v received: %v for r: %v p: %v",
				expectedVariance, outVariance[i], rs[i], ps[i])
		}
	}
}
