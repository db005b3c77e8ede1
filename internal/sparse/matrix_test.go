package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sample() *Matrix {
	return FromRows([][]float64{
		{1, 0, 2},
		{0, 0, 3},
		{4, 0, 0},
		{0, 0, 5},
	})
}

func TestNew(t *testing.T) {

	type test struct {
		rows, cols int
		indptr     []int
		indices    []int
		data       []float64
		dtype      DType
		err        bool
	}

	tests := map[string]test{
		"valid": {
			rows: 2, cols: 2,
			indptr: []int{0, 1, 2}, indices: []int{1, 0}, data: []float64{1, 2},
			dtype: Int64,
		},
		"short-indptr": {
			rows: 2, cols: 2,
			indptr: []int{0, 2}, indices: []int{1, 0}, data: []float64{1, 2},
			dtype: Float64,
			err:   true,
		},
		"column-out-of-range": {
			rows: 1, cols: 2,
			indptr: []int{0, 1}, indices: []int{2}, data: []float64{1},
			dtype: Float64,
			err:   true,
		},
		"unsorted-columns": {
			rows: 1, cols: 3,
			indptr: []int{0, 2}, indices: []int{2, 1}, data: []float64{1, 1},
			dtype: Float64,
			err:   true,
		},
		"unknown-dtype": {
			rows: 1, cols: 1,
			indptr: []int{0, 0}, indices: []int{}, data: []float64{},
			dtype: DType("complex"),
			err:   true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := New(tt.rows, tt.cols, tt.indptr, tt.indices, tt.data, tt.dtype)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidMatrix)
				return
			}
			require.NoError(t, err)
			r, c := m.Dims()
			assert.Equal(t, tt.rows, r)
			assert.Equal(t, tt.cols, c)
			assert.Equal(t, tt.dtype, m.DType)
		})
	}
}

func TestMatrix_Dense(t *testing.T) {
	m := sample()
	assert.Equal(t, 5, m.NNZ())
	assert.Equal(t, 3.0, m.At(1, 2))
	assert.Equal(t, 0.0, m.At(1, 1))

	d := m.ToDense()
	assert.True(t, mat.Equal(d, m))
	assert.True(t, mat.Equal(m.T(), d.T()))
	assert.True(t, m.Transpose().Equal(FromDense(d.T())))
}

func TestMatrix_Select(t *testing.T) {
	m := sample()

	rows := m.SelectRows([]int{3, 0})
	assert.True(t, mat.Equal(rows, mat.NewDense(2, 3, []float64{
		0, 0, 5,
		1, 0, 2,
	})))

	columns := m.SelectColumns([]int{0, 2})
	assert.True(t, mat.Equal(columns, mat.NewDense(4, 2, []float64{
		1, 2,
		0, 3,
		4, 0,
		0, 5,
	})))

	empty := m.SelectRows([]int{})
	r, c := empty.Dims()
	assert.Equal(t, 0, r)
	assert.Equal(t, 3, c)
}

func TestMatrix_Statistics(t *testing.T) {
	m := sample()
	assert.Equal(t, []float64{5, 0, 10}, m.ColumnSums())
	assert.Equal(t, []float64{3, 3, 4, 5}, m.RowSums())
	assert.Equal(t, []int{2, 1, 1, 1}, m.RowNonZeros())
	assert.Equal(t, []int{2, 0, 3}, m.ColumnCounts(func(v float64) bool {
		return v != 0
	}))
	assert.Equal(t, []int{1, 0, 2}, m.ColumnCounts(func(v float64) bool {
		return v > 1
	}))

	variances := m.ColumnVariances()
	// column 0 : mean 1.25, E[x^2] = 17/4
	assert.InDelta(t, 17.0/4-1.25*1.25, variances[0], 1e-12)
	assert.Equal(t, 0.0, variances[1])
	assert.InDelta(t, 38.0/4-2.5*2.5, variances[2], 1e-12)
}

func TestMatrix_Transforms(t *testing.T) {
	m := sample()

	scaled := m.Scale(5)
	assert.InDelta(t, 0.2, scaled.At(0, 0), 1e-12)
	assert.Equal(t, Float64, scaled.DType)

	weighted := m.ScaleColumns([]float64{0, 1, 2})
	assert.Equal(t, 0.0, weighted.At(2, 0))
	assert.Equal(t, 3, weighted.NNZ())

	normalised := m.NormaliseColumns()
	var norm float64
	for i := 0; i < 4; i++ {
		norm += normalised.At(i, 2) * normalised.At(i, 2)
	}
	assert.InDelta(t, 1, norm, 1e-12)

	assert.True(t, m.Equal(sample()))
	assert.False(t, m.Equal(scaled))
}

func TestFromTriplets(t *testing.T) {
	m, err := FromTriplets(2, 3, []int{1, 0, 1}, []int{2, 0, 2}, []float64{1, 4, 2})
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, mat.NewDense(2, 3, []float64{
		4, 0, 0,
		0, 0, 3,
	})))

	_, err = FromTriplets(2, 3, []int{2}, []int{0}, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidMatrix)
}

func TestMatrix_Raw(t *testing.T) {
	m := sample()
	assert.Equal(t, []int{0, 2, 3, 4, 5}, m.Indptr())
	assert.Equal(t, []int{0, 2, 2, 0, 2}, m.Indices())
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, m.Data())

	columns, values := m.Row(0)
	assert.Equal(t, []int{0, 2}, columns)
	assert.Equal(t, []float64{1, 2}, values)

	// the compressed rows are shared with the underlying csr matrix
	assert.True(t, mat.Equal(m.CSR.ToDense(), m.ToDense()))

	empty := Zeros(0, 3)
	r, c := empty.ToDense().Dims()
	assert.Equal(t, 0, r)
	assert.Equal(t, 0, c)
}

func TestFromTriplets_Canonical(t *testing.T) {
	// unordered columns, a duplicate and an entry cancelling out
	m, err := FromTriplets(2, 4, []int{0, 0, 0, 1, 1}, []int{3, 1, 3, 2, 2}, []float64{1, 2, 3, 5, -5})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 2}, m.Indptr())
	assert.Equal(t, []int{1, 3}, m.Indices())
	assert.Equal(t, []float64{2, 4}, m.Data())
	assert.Equal(t, Float64, m.DType)

	empty, err := FromTriplets(3, 2, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.NNZ())
}
