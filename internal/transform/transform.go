package transform

import (
	"fmt"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/drakos74/free-data/internal/weight"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Normalise = "normalise"
	Binarise  = "binarise"

	// BinarisationThreshold separates zeros from ones after scaling by the maximum value.
	BinarisationThreshold = 0.5
)

// State tracks the value range of a matrix as it moves through the transforms.
type State struct {
	Maximum         float64
	OriginalMaximum float64
	// Bounded marks a known maximum value.
	Bounded bool
}

// NewState creates the state for values with an optional known maximum.
func NewState(maximum *float64) State {
	if maximum == nil {
		return State{}
	}
	return State{
		Maximum:         *maximum,
		OriginalMaximum: *maximum,
		Bounded:         true,
	}
}

// NormaliseValues scales bounded values by their maximum and l2 normalises every column otherwise.
func NormaliseValues(values *sparse.Matrix, st State) (*sparse.Matrix, State) {
	if st.Bounded {
		normalised := values.Scale(st.Maximum)
		st.Maximum = 1
		return normalised, st
	}
	return values.NormaliseColumns(), st
}

// BinariseValues scales the values by their maximum and thresholds them,
// or samples every value as a bernoulli probability when noisy.
func BinariseValues(values *sparse.Matrix, st State, noisy bool, src rand.Source) *sparse.Matrix {
	maximum := 1.0
	if st.Bounded {
		maximum = st.Maximum
	}
	if noisy {
		return values.Map(func(_ int, v float64) float64 {
			p := clip(v / maximum)
			return distuv.Bernoulli{P: p, Src: src}.Rand()
		})
	}
	return values.Map(func(_ int, v float64) float64 {
		if v/maximum > BinarisationThreshold {
			return 1
		}
		return 0
	})
}

func clip(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Pipeline applies preprocessing methods in order.
type Pipeline struct {
	Methods []string
	// Weigher provides the weights of the weighting methods.
	Weigher interface {
		Weights(method string, values *sparse.Matrix) ([]float64, error)
	}
	Noisy bool
	Seed  uint64
}

// Apply runs the methods over the values and returns the result with its final state.
// Unknown methods leave the values unchanged.
func (p Pipeline) Apply(values *sparse.Matrix, st State) (*sparse.Matrix, State, error) {
	src := rand.NewSource(p.Seed)
	for _, method := range p.Methods {
		switch model.Normalise(method) {
		case weight.Gini, weight.IDF:
			ww, err := p.weights(model.Normalise(method), values)
			if err != nil {
				return nil, st, fmt.Errorf("could not weigh values with '%s': %w", method, err)
			}
			values = values.ScaleColumns(ww)
		case Normalise:
			values, st = NormaliseValues(values, st)
		case Binarise:
			values = BinariseValues(values, st, p.Noisy, src)
		default:
			log.Debug().Str("method", method).Msg("unknown preprocessing method")
		}
	}
	return values, st, nil
}

func (p Pipeline) weights(method string, values *sparse.Matrix) ([]float64, error) {
	if p.Weigher == nil {
		return weight.Compute(method, values)
	}
	return p.Weigher.Weights(method, values)
}
