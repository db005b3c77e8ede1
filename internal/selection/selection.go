package selection

import (
	"errors"
	"fmt"
	"time"

	"github.com/drakos74/free-data/internal/math"
	"github.com/drakos74/free-data/internal/metrics"
	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/drakos74/free-data/internal/weight"
	"github.com/rs/zerolog/log"
)

const (
	RemoveZeros          = "remove_zeros"
	KeepGiniAbove        = "keep_gini_indices_above"
	KeepHighestGini      = "keep_highest_gini_indices"
	KeepVariancesAbove   = "keep_variances_above"
	KeepHighestVariances = "keep_highest_variances"

	// Original is the version of the values the statistics are computed on.
	Original = "original"
	// Preprocessed is the version of the values after the preprocessing methods.
	Preprocessed = "preprocessed"

	DefaultGiniThreshold     = 0.1
	DefaultVarianceThreshold = 0.5
)

var (
	ErrNothingExcluded = errors.New("no features excluded using feature selection")
	ErrMissingValues   = errors.New("missing original values")
)

// Weigher provides feature weights.
type Weigher interface {
	Weights(method string, values *sparse.Matrix) ([]float64, error)
}

type computed struct{}

func (computed) Weights(method string, values *sparse.Matrix) ([]float64, error) {
	return weight.Compute(method, values)
}

// Input holds the versions of the values that share the feature axis.
type Input struct {
	Values       map[string]*sparse.Matrix
	FeatureNames []string
	// Weigher defaults to computing the weights without caching.
	Weigher Weigher
}

// Result holds the feature selected versions of the values.
type Result struct {
	Values       map[string]*sparse.Matrix
	FeatureNames []string
	Kept         []int
	Excluded     []string
}

// DefaultParameter returns the parameter a policy uses when none is given, for N features.
func DefaultParameter(method string, n int) (float64, bool) {
	switch model.Normalise(method) {
	case KeepGiniAbove:
		return DefaultGiniThreshold, true
	case KeepVariancesAbove:
		return DefaultVarianceThreshold, true
	case KeepHighestGini, KeepHighestVariances:
		return float64(n / 2), true
	}
	return 0, false
}

// Select keeps the features chosen by the policy, applied identically to every version of the values.
// An empty method keeps all features. A named method that keeps all features is an error.
func Select(in Input, method string, parameter *float64) (Result, error) {
	values, ok := in.Values[Original]
	if !ok || values == nil {
		return Result{}, ErrMissingValues
	}
	if in.Weigher == nil {
		in.Weigher = computed{}
	}
	method = model.Normalise(method)
	start := time.Now()

	_, n := values.Dims()
	// a zero parameter falls back to the default of the method
	p, _ := DefaultParameter(method, n)
	if parameter != nil && *parameter != 0 {
		p = *parameter
	}

	var kept []int
	switch method {
	case RemoveZeros:
		kept = math.Where(values.ColumnSums(), func(f float64) bool {
			return f != 0
		})
	case KeepGiniAbove, KeepHighestGini:
		gini, err := in.Weigher.Weights(weight.Gini, values)
		if err != nil {
			return Result{}, fmt.Errorf("could not load gini indices: %w", err)
		}
		if method == KeepGiniAbove {
			kept = math.Where(gini, func(f float64) bool {
				return f > p
			})
		} else {
			kept = math.Top(gini, int(p))
		}
	case KeepVariancesAbove:
		kept = math.Where(values.ColumnVariances(), func(f float64) bool {
			return f > p
		})
	case KeepHighestVariances:
		kept = math.Top(values.ColumnVariances(), int(p))
	default:
		kept = math.Range(n)
	}

	if method != "" && len(kept) == n {
		return Result{}, fmt.Errorf("'%s' kept all %d features: %w", method, n, ErrNothingExcluded)
	}

	result := Result{
		Values:       make(map[string]*sparse.Matrix, len(in.Values)),
		FeatureNames: make([]string, len(kept)),
		Kept:         kept,
	}
	for version, v := range in.Values {
		if v == nil {
			continue
		}
		result.Values[version] = v.SelectColumns(kept)
	}
	for i, j := range kept {
		result.FeatureNames[i] = in.FeatureNames[j]
	}
	for _, j := range math.Complement(n, kept) {
		result.Excluded = append(result.Excluded, in.FeatureNames[j])
	}

	metrics.Observer.Excluded(metrics.Features, n-len(kept))
	log.Info().
		Str("method", method).
		Int("kept", len(kept)).
		Int("excluded", n-len(kept)).
		Dur("duration", time.Since(start)).
		Msg("features selected")
	return result, nil
}
