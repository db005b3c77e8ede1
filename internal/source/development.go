package source

import (
	"fmt"

	"github.com/drakos74/free-data/internal/sparse"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// classes is the number of distinct classes the generator cycles through.
const classes = 3

// noClassFraction is the fraction of examples whose label is reset to the no class label.
const noClassFraction = 0.1

// Generate creates a synthetic count dataset.
// Examples come in contiguous runs of one class, each class with its own negative binomial
// parameters and dropout probabilities per feature, and are shuffled afterwards.
// The generator uses its own source, so the process wide one is left untouched.
func Generate(s Synthetic) Data {
	src := rand.NewSource(s.Seed)
	rnd := rand.New(src)
	m, n := s.Examples, s.Features

	draw := func(scale float64) []float64 {
		ff := make([]float64, n)
		for j := range ff {
			ff[j] = scale * rnd.Float64()
		}
		return ff
	}

	r, p, dropout := draw(s.Scale), draw(1), draw(1)
	label := 1
	rr := make([][]float64, m)
	pp := make([][]float64, m)
	dd := make([][]float64, m)
	ll := make([]int, m)
	for i := 0; i < m; i++ {
		if rnd.Float64() > 1-s.UpdateProbability {
			r, p, dropout = draw(s.Scale), draw(1), draw(1)
			label = label%classes + 1
		}
		rr[i], pp[i], dd[i], ll[i] = r, p, dropout, label
	}

	shuffled := rnd.Perm(m)
	labels := make([]string, m)
	for i, k := range shuffled {
		labels[i] = fmt.Sprintf("%d", ll[k])
	}
	for _, i := range rnd.Perm(m)[:int(noClassFraction*float64(m))] {
		labels[i] = "0"
	}

	var ii, jj []int
	var vv []float64
	for i, k := range shuffled {
		for j := 0; j < n; j++ {
			value := negativeBinomial(rr[k][j], pp[k][j], src)
			keep := distuv.Bernoulli{P: dd[k][j], Src: src}.Rand()
			if v := value * keep; v != 0 {
				ii = append(ii, i)
				jj = append(jj, j)
				vv = append(vv, v)
			}
		}
	}
	values, err := sparse.FromTriplets(m, n, ii, jj, vv)
	if err != nil {
		// triplets are within the shape by construction
		panic(err)
	}
	values.DType = sparse.Float32

	return Data{
		Values:       values,
		Labels:       labels,
		ExampleNames: names("example", m),
		FeatureNames: names("feature", n),
	}
}

// negativeBinomial samples the number of failures before r successes of probability p,
// as a gamma mixture of poisson distributions.
func negativeBinomial(r, p float64, src rand.Source) float64 {
	if r <= 0 || p >= 1 {
		return 0
	}
	if p <= 0 {
		p = 1e-12
	}
	lambda := distuv.Gamma{Alpha: r, Beta: p / (1 - p), Src: src}.Rand()
	if lambda <= 0 {
		return 0
	}
	return distuv.Poisson{Lambda: lambda, Src: src}.Rand()
}
