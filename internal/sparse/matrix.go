package sparse

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DType is the element type the values had at their source.
type DType string

const (
	Float64 DType = "float64"
	Float32 DType = "float32"
	Int64   DType = "int64"
	Int32   DType = "int32"
	Uint8   DType = "uint8"
)

// Valid checks if the dtype is one of the known element types.
func (d DType) Valid() bool {
	switch d {
	case Float64, Float32, Int64, Int32, Uint8:
		return true
	}
	return false
}

var ErrInvalidMatrix = errors.New("invalid sparse matrix")

// Matrix is a compressed sparse row matrix that remembers the element type of its source.
// Column indices within a row are strictly ascending and no explicit zeros are stored,
// except where New was handed them.
type Matrix struct {
	*sparse.CSR
	DType DType
}

var _ mat.Matrix = (*Matrix)(nil)

func wrap(rows, cols int, indptr, indices []int, data []float64, dtype DType) *Matrix {
	return &Matrix{
		CSR:   sparse.NewCSR(rows, cols, indptr, indices, data),
		DType: dtype,
	}
}

// New creates a matrix from its raw compressed sparse row representation.
func New(rows, cols int, indptr, indices []int, data []float64, dtype DType) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("negative shape (%d,%d): %w", rows, cols, ErrInvalidMatrix)
	}
	if len(indptr) != rows+1 {
		return nil, fmt.Errorf("indptr length %d for %d rows: %w", len(indptr), rows, ErrInvalidMatrix)
	}
	if len(indices) != len(data) || indptr[0] != 0 || indptr[rows] != len(data) {
		return nil, fmt.Errorf("inconsistent indices %d and data %d: %w", len(indices), len(data), ErrInvalidMatrix)
	}
	if !dtype.Valid() {
		return nil, fmt.Errorf("unknown dtype '%s': %w", dtype, ErrInvalidMatrix)
	}
	for i := 0; i < rows; i++ {
		if indptr[i] > indptr[i+1] {
			return nil, fmt.Errorf("decreasing indptr at row %d: %w", i, ErrInvalidMatrix)
		}
		for k := indptr[i]; k < indptr[i+1]; k++ {
			j := indices[k]
			if j < 0 || j >= cols || (k > indptr[i] && indices[k-1] >= j) {
				return nil, fmt.Errorf("invalid column %d at row %d: %w", j, i, ErrInvalidMatrix)
			}
		}
	}
	return wrap(rows, cols, indptr, indices, data, dtype), nil
}

// Zeros creates an empty matrix of the given shape.
func Zeros(rows, cols int) *Matrix {
	return wrap(rows, cols, make([]int, rows+1), []int{}, []float64{}, Float64)
}

// FromDense creates a sparse matrix from any gonum matrix, dropping the zero elements.
func FromDense(m mat.Matrix) *Matrix {
	r, c := m.Dims()
	indptr := make([]int, r+1)
	indices := []int{}
	data := []float64{}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); v != 0 {
				indices = append(indices, j)
				data = append(data, v)
			}
		}
		indptr[i+1] = len(data)
	}
	return wrap(r, c, indptr, indices, data, Float64)
}

// FromRows creates a sparse matrix from dense rows.
func FromRows(rows [][]float64) *Matrix {
	c := 0
	if len(rows) > 0 {
		c = len(rows[0])
	}
	if len(rows) == 0 || c == 0 {
		return Zeros(len(rows), c)
	}
	data := make([]float64, 0, len(rows)*c)
	for _, row := range rows {
		data = append(data, row...)
	}
	return FromDense(mat.NewDense(len(rows), c, data))
}

// FromTriplets creates a matrix from coordinate triplets. Duplicates are summed.
func FromTriplets(rows, cols int, ii, jj []int, vv []float64) (*Matrix, error) {
	if len(ii) != len(jj) || len(ii) != len(vv) {
		return nil, fmt.Errorf("triplet lengths %d,%d,%d: %w", len(ii), len(jj), len(vv), ErrInvalidMatrix)
	}
	for k := range ii {
		if ii[k] < 0 || ii[k] >= rows || jj[k] < 0 || jj[k] >= cols {
			return nil, fmt.Errorf("triplet (%d,%d) outside (%d,%d): %w", ii[k], jj[k], rows, cols, ErrInvalidMatrix)
		}
	}
	if rows == 0 || cols == 0 || len(vv) == 0 {
		return Zeros(rows, cols), nil
	}
	coo := sparse.NewCOO(rows, cols, append([]int{}, ii...), append([]int{}, jj...), append([]float64{}, vv...))
	raw := coo.ToCSR().RawMatrix()
	return canonical(rows, cols, raw.Indptr, raw.Ind, raw.Data), nil
}

// canonical sorts the columns of every row, sums the duplicates and drops the zeros.
func canonical(rows, cols int, indptr, indices []int, data []float64) *Matrix {
	ip := make([]int, rows+1)
	ind := []int{}
	vv := []float64{}
	for i := 0; i < rows; i++ {
		row := make(map[int]float64)
		for k := indptr[i]; k < indptr[i+1]; k++ {
			row[indices[k]] += data[k]
		}
		columns := make([]int, 0, len(row))
		for j, v := range row {
			if v != 0 {
				columns = append(columns, j)
			}
		}
		sort.Ints(columns)
		for _, j := range columns {
			ind = append(ind, j)
			vv = append(vv, row[j])
		}
		ip[i+1] = len(vv)
	}
	return wrap(rows, cols, ip, ind, vv, Float64)
}

// Indptr returns the offsets of every row into the indices and the data.
func (m *Matrix) Indptr() []int {
	return m.RawMatrix().Indptr
}

// Indices returns the column index of every stored element.
func (m *Matrix) Indices() []int {
	return m.RawMatrix().Ind
}

// Data returns the stored elements, row after row.
func (m *Matrix) Data() []float64 {
	return m.RawMatrix().Data
}

// Row returns the column indices and values of row i. The slices must not be modified.
func (m *Matrix) Row(i int) ([]int, []float64) {
	raw := m.RawMatrix()
	lo, hi := raw.Indptr[i], raw.Indptr[i+1]
	return raw.Ind[lo:hi], raw.Data[lo:hi]
}

// ToDense converts the matrix into a gonum dense matrix.
func (m *Matrix) ToDense() *mat.Dense {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	return m.CSR.ToDense()
}

// Equal checks if both matrices hold the same shape, dtype and elements.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.DType != o.DType {
		return false
	}
	a, b := m.RawMatrix(), o.RawMatrix()
	if a.I != b.I || a.J != b.J || len(a.Data) != len(b.Data) {
		return false
	}
	for i := range a.Indptr {
		if a.Indptr[i] != b.Indptr[i] {
			return false
		}
	}
	for k := range a.Data {
		if a.Ind[k] != b.Ind[k] || a.Data[k] != b.Data[k] {
			return false
		}
	}
	return true
}

// Transpose returns the transpose as a new compressed sparse row matrix.
func (m *Matrix) Transpose() *Matrix {
	raw := m.RawMatrix()
	rows, cols := raw.I, raw.J
	indptr := make([]int, cols+1)
	indices := make([]int, len(raw.Data))
	data := make([]float64, len(raw.Data))
	for _, j := range raw.Ind {
		indptr[j+1]++
	}
	for j := 0; j < cols; j++ {
		indptr[j+1] += indptr[j]
	}
	next := append([]int{}, indptr[:cols]...)
	for i := 0; i < rows; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			j := raw.Ind[k]
			indices[next[j]] = i
			data[next[j]] = raw.Data[k]
			next[j]++
		}
	}
	return wrap(cols, rows, indptr, indices, data, m.DType)
}

// SelectRows returns a new matrix holding the given rows in the given order.
func (m *Matrix) SelectRows(rows []int) *Matrix {
	raw := m.RawMatrix()
	indptr := make([]int, len(rows)+1)
	indices := []int{}
	data := []float64{}
	for r, i := range rows {
		lo, hi := raw.Indptr[i], raw.Indptr[i+1]
		indices = append(indices, raw.Ind[lo:hi]...)
		data = append(data, raw.Data[lo:hi]...)
		indptr[r+1] = len(data)
	}
	return wrap(len(rows), raw.J, indptr, indices, data, m.DType)
}

// SelectColumns returns a new matrix holding the given columns.
// The columns must be ascending so that the column order within each row is preserved.
func (m *Matrix) SelectColumns(columns []int) *Matrix {
	raw := m.RawMatrix()
	position := make([]int, raw.J)
	for j := range position {
		position[j] = -1
	}
	for p, j := range columns {
		position[j] = p
	}
	indptr := make([]int, raw.I+1)
	indices := []int{}
	data := []float64{}
	for i := 0; i < raw.I; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			if p := position[raw.Ind[k]]; p >= 0 {
				indices = append(indices, p)
				data = append(data, raw.Data[k])
			}
		}
		indptr[i+1] = len(data)
	}
	return wrap(raw.I, len(columns), indptr, indices, data, m.DType)
}

// ColumnSums returns the sum of every column.
func (m *Matrix) ColumnSums() []float64 {
	raw := m.RawMatrix()
	sums := make([]float64, raw.J)
	for k, j := range raw.Ind {
		sums[j] += raw.Data[k]
	}
	return sums
}

// RowSums returns the sum of every row.
func (m *Matrix) RowSums() []float64 {
	raw := m.RawMatrix()
	sums := make([]float64, raw.I)
	for i := range sums {
		sums[i] = floats.Sum(raw.Data[raw.Indptr[i]:raw.Indptr[i+1]])
	}
	return sums
}

// RowNonZeros returns the number of nonzero elements of every row.
func (m *Matrix) RowNonZeros() []int {
	raw := m.RawMatrix()
	counts := make([]int, raw.I)
	for i := range counts {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			if raw.Data[k] != 0 {
				counts[i]++
			}
		}
	}
	return counts
}

// ColumnCounts returns the number of stored elements of every column that match.
func (m *Matrix) ColumnCounts(match func(v float64) bool) []int {
	raw := m.RawMatrix()
	counts := make([]int, raw.J)
	for k, j := range raw.Ind {
		if match(raw.Data[k]) {
			counts[j]++
		}
	}
	return counts
}

// ColumnVariances returns the population variance of every column, including the implicit zeros.
func (m *Matrix) ColumnVariances() []float64 {
	raw := m.RawMatrix()
	variances := make([]float64, raw.J)
	if raw.I == 0 {
		return variances
	}
	sums := make([]float64, raw.J)
	squares := make([]float64, raw.J)
	for k, j := range raw.Ind {
		sums[j] += raw.Data[k]
		squares[j] += raw.Data[k] * raw.Data[k]
	}
	n := float64(raw.I)
	for j := range variances {
		mean := sums[j] / n
		v := squares[j]/n - mean*mean
		if v < 0 {
			v = 0
		}
		variances[j] = v
	}
	return variances
}

// Map applies the function to every stored element and drops the elements that become zero.
// The function must map zero to zero.
func (m *Matrix) Map(fn func(j int, v float64) float64) *Matrix {
	raw := m.RawMatrix()
	indptr := make([]int, raw.I+1)
	indices := make([]int, 0, len(raw.Ind))
	data := make([]float64, 0, len(raw.Data))
	for i := 0; i < raw.I; i++ {
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			j := raw.Ind[k]
			if v := fn(j, raw.Data[k]); v != 0 {
				indices = append(indices, j)
				data = append(data, v)
			}
		}
		indptr[i+1] = len(data)
	}
	return wrap(raw.I, raw.J, indptr, indices, data, Float64)
}

// Scale divides every element by the given factor.
func (m *Matrix) Scale(f float64) *Matrix {
	return m.Map(func(_ int, v float64) float64 {
		return v / f
	})
}

// ScaleColumns multiplies every column with its weight.
func (m *Matrix) ScaleColumns(weights []float64) *Matrix {
	return m.Map(func(j int, v float64) float64 {
		return v * weights[j]
	})
}

// NormaliseColumns scales every column to unit euclidean norm. Zero columns are left as they are.
func (m *Matrix) NormaliseColumns() *Matrix {
	raw := m.RawMatrix()
	norms := make([]float64, raw.J)
	for k, j := range raw.Ind {
		norms[j] += raw.Data[k] * raw.Data[k]
	}
	for j, n := range norms {
		if n == 0 {
			norms[j] = 1
			continue
		}
		norms[j] = math.Sqrt(n)
	}
	return m.Map(func(j int, v float64) float64 {
		return v / norms[j]
	})
}
