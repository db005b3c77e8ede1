package weight

import (
	"math"
	"testing"

	"github.com/drakos74/free-data/internal/key"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/drakos74/free-data/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func values() *sparse.Matrix {
	return sparse.FromRows([][]float64{
		{1, 5, 0, 2},
		{1, 0, 0, 2},
		{1, 0, 0, 2},
		{1, 0, 3, 0},
	})
}

func TestGiniIndices(t *testing.T) {
	gini := GiniIndices(values(), Epsilon, BatchSize)
	require.Len(t, gini, 4)

	// uniform column
	assert.InDelta(t, 0, gini[0], 1e-9)
	// concentrated columns score (M-1)/M
	assert.InDelta(t, 0.75, gini[1], 1e-9)
	assert.InDelta(t, 0.75, gini[2], 1e-9)
	// three equal values out of four
	assert.InDelta(t, 0.25, gini[3], 1e-9)
}

func TestGiniIndices_Batches(t *testing.T) {
	m := values()
	full := GiniIndices(m, Epsilon, BatchSize)
	for _, batch := range []int{1, 2, 3, 0} {
		assert.InDeltaSlice(t, full, GiniIndices(m, Epsilon, batch), 1e-12)
	}
}

func TestGiniIndices_Empty(t *testing.T) {
	assert.Equal(t, []float64{0, 0}, GiniIndices(sparse.Zeros(0, 2), Epsilon, BatchSize))
}

func TestInverseFrequency(t *testing.T) {
	idf := InverseFrequency(values())
	assert.InDelta(t, math.Log(4.0/5), idf[0], 1e-12)
	assert.InDelta(t, math.Log(4.0/2), idf[1], 1e-12)
	assert.InDelta(t, math.Log(4.0/2), idf[2], 1e-12)
	assert.InDelta(t, math.Log(4.0/4), idf[3], 1e-12)
}

func TestInverseFrequency_Negative(t *testing.T) {
	idf := InverseFrequency(sparse.FromRows([][]float64{
		{-1, 2},
		{-3, 0},
		{2, -1},
	}))
	// only the positive values count as occurrences
	assert.InDelta(t, math.Log(3.0/2), idf[0], 1e-12)
	assert.InDelta(t, math.Log(3.0/2), idf[1], 1e-12)
}

func TestCompute(t *testing.T) {
	_, err := Compute("entropy", values())
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestStore_Weights(t *testing.T) {
	mock := storage.NewMockStorage()
	keys := key.New("data", "development")
	s := NewStore(mock, keys)

	first, err := s.Weights(Gini, values())
	require.NoError(t, err)

	// the second call is served from the cache, even for different values
	second, err := s.Weights(Gini, sparse.Zeros(4, 4))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	k := keys.Weights(Gini)
	assert.Equal(t, "development-gini_weights", k.Name)
	assert.Equal(t, 1, mock.Stores[k])
	assert.Equal(t, 2, mock.Loads[k])

	_, err = s.Weights("entropy", values())
	assert.ErrorIs(t, err, ErrUnknownMethod)
}
