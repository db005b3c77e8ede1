package weight

import (
	"errors"
	"math"
	"sort"

	"github.com/drakos74/free-data/internal/sparse"
	"gonum.org/v1/gonum/floats"
)

const (
	Gini = "gini"
	IDF  = "idf"

	// Epsilon replaces zero values, so that every column has a well defined distribution.
	Epsilon = 1e-16
	// BatchSize is the number of columns processed at once.
	BatchSize = 5000
)

var ErrUnknownMethod = errors.New("unknown weighting method")

// Compute computes the feature weights with the given method.
func Compute(method string, values *sparse.Matrix) ([]float64, error) {
	switch method {
	case Gini:
		return GiniIndices(values, Epsilon, BatchSize), nil
	case IDF:
		return InverseFrequency(values), nil
	}
	return nil, ErrUnknownMethod
}

// GiniIndices computes the Gini index of every column.
// Values are clipped to epsilon from below and every column is normalised by its sum.
// A column concentrated on a single example scores close to 1, a uniform one scores 0.
func GiniIndices(values *sparse.Matrix, epsilon float64, batch int) []float64 {
	m, n := values.Dims()
	indices := make([]float64, n)
	if m == 0 {
		return indices
	}
	if batch <= 0 {
		batch = n
	}

	weights := make([]float64, m)
	for i := range weights {
		weights[i] = float64(2*(i+1)-m-1) / float64(m)
	}

	columns := values.Transpose()
	column := make([]float64, m)
	for start := 0; start < n; start += batch {
		end := start + batch
		if end > n {
			end = n
		}
		for j := start; j < end; j++ {
			for i := range column {
				column[i] = epsilon
			}
			rows, vv := columns.Row(j)
			for k, i := range rows {
				column[i] = math.Max(vv[k], epsilon)
			}
			sort.Float64s(column)
			indices[j] = floats.Dot(weights, column) / floats.Sum(column)
		}
	}
	return indices
}

// InverseFrequency computes the inverse global frequency of every column,
// log(M / (examples with positive value + 1)).
func InverseFrequency(values *sparse.Matrix) []float64 {
	m, _ := values.Dims()
	counts := values.ColumnCounts(func(v float64) bool {
		return v > 0
	})
	idf := make([]float64, len(counts))
	for j, c := range counts {
		idf[j] = math.Log(float64(m) / float64(c+1))
	}
	return idf
}
