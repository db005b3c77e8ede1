package split

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const (
	Random  = "random"
	Indices = "indices"
	Macosko = "macosko"
	Default = "default"

	// Seed seeds every permutation, so that splits are reproducible.
	Seed = 42

	// MacoskoThreshold is the number of nonzero features an example needs to end up in training.
	MacoskoThreshold = 900
)

var (
	ErrUnknownMethod       = errors.New("splitting method not found")
	ErrNoSplitIndices      = errors.New("cannot split by indices without precomputed split indices")
	ErrInvalidSplitIndices = errors.New("split indices do not partition the examples")
	ErrInvalidFraction     = errors.New("splitting fraction outside [0,1]")
)

// Bundle holds everything that is split along the example axis.
// Only Values is required.
type Bundle struct {
	Values             *sparse.Matrix
	PreprocessedValues *sparse.Matrix
	BinarisedValues    *sparse.Matrix
	Labels             []string
	ExampleNames       []string
	SplitIndices       model.SplitIndices
}

// Assignment holds the example indices of every subset.
type Assignment struct {
	Training   []int
	Validation []int
	Test       []int
}

// Subsets holds the split bundles.
type Subsets struct {
	Training   Bundle
	Validation Bundle
	Test       Bundle
}

// Resolve resolves the default method for the bundle.
func Resolve(method string, b Bundle) string {
	method = model.Normalise(method)
	if method == Default || method == "" {
		if b.SplitIndices != nil {
			return Indices
		}
		return Random
	}
	return method
}

// Split splits the bundle into training, validation and test subsets.
// The subsets are disjoint and together hold every example.
func Split(b Bundle, method string, fraction float64) (Subsets, Assignment, error) {
	if b.Values == nil {
		return Subsets{}, Assignment{}, errors.New("nothing to split")
	}
	if !(fraction >= 0 && fraction <= 1) {
		return Subsets{}, Assignment{}, fmt.Errorf("fraction %v: %w", fraction, ErrInvalidFraction)
	}
	method = Resolve(method, b)
	start := time.Now()

	m, _ := b.Values.Dims()
	var a Assignment
	var err error
	switch method {
	case Random:
		a = random(m, fraction)
	case Indices:
		a, err = byIndices(m, b.SplitIndices)
	case Macosko:
		a = macosko(b.Values, fraction)
	default:
		return Subsets{}, Assignment{}, fmt.Errorf("'%s': %w", method, ErrUnknownMethod)
	}
	if err != nil {
		return Subsets{}, Assignment{}, err
	}

	subsets := Subsets{
		Training:   b.pick(a.Training),
		Validation: b.pick(a.Validation),
		Test:       b.pick(a.Test),
	}
	log.Info().
		Str("method", method).
		Int("training", len(a.Training)).
		Int("validation", len(a.Validation)).
		Int("test", len(a.Test)).
		Dur("duration", time.Since(start)).
		Msg("data set split")
	return subsets, a, nil
}

// permutation returns a permutation of [0, n) from a source seeded with Seed.
// The process wide source is left untouched.
func permutation(n int) []int {
	return rand.New(rand.NewSource(Seed)).Perm(n)
}

func random(m int, fraction float64) Assignment {
	mtv := int(fraction * float64(m))
	mt := int(fraction * float64(mtv))
	shuffled := permutation(m)
	return Assignment{
		Training:   shuffled[:mt],
		Validation: shuffled[mt:mtv],
		Test:       shuffled[mtv:],
	}
}

func byIndices(m int, indices model.SplitIndices) (Assignment, error) {
	if indices == nil {
		return Assignment{}, ErrNoSplitIndices
	}
	training, ok := indices[model.Training]
	if !ok {
		return Assignment{}, fmt.Errorf("missing training range: %w", ErrNoSplitIndices)
	}
	test, ok := indices[model.Test]
	if !ok {
		return Assignment{}, fmt.Errorf("missing test range: %w", ErrNoSplitIndices)
	}
	validation, ok := indices[model.Validation]
	if !ok {
		// carve the validation subset out of the end of training, as large as the test subset
		mtv := training.Stop
		mall := test.Stop
		mt := mtv - (mall - mtv)
		if mt < training.Start {
			return Assignment{}, fmt.Errorf("test range %v does not fit twice into training range %v: %w", test, training, ErrInvalidSplitIndices)
		}
		training = model.Range{Start: training.Start, Stop: mt}
		validation = model.Range{Start: mt, Stop: mtv}
	}
	if err := partition(m, training, validation, test); err != nil {
		return Assignment{}, err
	}
	return Assignment{
		Training:   training.Indices(),
		Validation: validation.Indices(),
		Test:       test.Indices(),
	}, nil
}

// partition checks that the ranges lie within [0, m), do not overlap and leave no example out.
func partition(m int, ranges ...model.Range) error {
	sorted := append([]model.Range{}, ranges...)
	for _, r := range sorted {
		if r.Start < 0 || r.Start > r.Stop || r.Stop > m {
			return fmt.Errorf("range %v outside %d examples: %w", r, m, ErrInvalidSplitIndices)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].Stop < sorted[j].Stop
		}
		return sorted[i].Start < sorted[j].Start
	})
	next := 0
	for _, r := range sorted {
		if r.Start != next {
			return fmt.Errorf("range %v does not start at %d: %w", r, next, ErrInvalidSplitIndices)
		}
		next = r.Stop
	}
	if next != m {
		return fmt.Errorf("ranges stop at %d of %d examples: %w", next, m, ErrInvalidSplitIndices)
	}
	return nil
}

func macosko(values *sparse.Matrix, fraction float64) Assignment {
	var a Assignment
	rest := make([]int, 0)
	for i, n := range values.RowNonZeros() {
		if n > MacoskoThreshold {
			a.Training = append(a.Training, i)
		} else {
			rest = append(rest, i)
		}
	}
	shuffled := permutation(len(rest))
	v := int((1 - fraction) * float64(len(rest)))
	for k, p := range shuffled {
		if k < v {
			a.Validation = append(a.Validation, rest[p])
		} else {
			a.Test = append(a.Test, rest[p])
		}
	}
	return a
}

func (b Bundle) pick(indices []int) Bundle {
	picked := Bundle{
		Values:             b.Values.SelectRows(indices),
		PreprocessedValues: selectRows(b.PreprocessedValues, indices),
		BinarisedValues:    selectRows(b.BinarisedValues, indices),
		Labels:             pick(b.Labels, indices),
		ExampleNames:       pick(b.ExampleNames, indices),
	}
	return picked
}

func selectRows(m *sparse.Matrix, indices []int) *sparse.Matrix {
	if m == nil {
		return nil
	}
	return m.SelectRows(indices)
}

func pick(ss []string, indices []int) []string {
	if ss == nil {
		return nil
	}
	picked := make([]string, len(indices))
	for i, j := range indices {
		picked[i] = ss[j]
	}
	return picked
}
