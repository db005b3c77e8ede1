package filter

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/drakos74/free-data/internal/math"
	"github.com/drakos74/free-data/internal/metrics"
	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/rs/zerolog/log"
)

const (
	Macosko             = "macosko"
	InverseMacosko      = "inverse_macosko"
	Keep                = "keep"
	Remove              = "remove"
	ExcludedClasses     = "excluded_classes"
	RemoveCountSumAbove = "remove_count_sum_above"

	// Original is the version of the values the filters are computed on.
	Original = "original"

	// MacoskoThreshold is the number of nonzero features separating the macosko subsets.
	MacoskoThreshold = 900
)

var (
	ErrNothingExcluded  = errors.New("no examples filtered out using example filter")
	ErrUnlabelled       = errors.New("cannot filter examples based on labels, since data set is unlabelled")
	ErrInvalidParameter = errors.New("invalid example filter parameter")
	ErrMissingValues    = errors.New("missing original values")
)

// Input holds the versions of the values that share the example axis, and the example annotations.
type Input struct {
	Values                  map[string]*sparse.Matrix
	ExampleNames            []string
	Labels                  []string
	SupersetLabels          []string
	ExcludedClasses         []string
	ExcludedSupersetClasses []string
	CountSum                []float64
}

// Result holds the example filtered versions of the values and annotations.
type Result struct {
	Values         map[string]*sparse.Matrix
	ExampleNames   []string
	Labels         []string
	SupersetLabels []string
	Kept           []int
}

// Filter keeps the examples chosen by the policy, applied identically to every version of the values.
// An empty method keeps all examples. A named method that keeps all examples is an error.
func Filter(in Input, method string, parameters []string) (Result, error) {
	values, ok := in.Values[Original]
	if !ok || values == nil {
		return Result{}, ErrMissingValues
	}
	method = model.Normalise(method)
	start := time.Now()

	m, _ := values.Dims()
	kept := math.Range(m)

	switch method {
	case Macosko:
		kept = nonZeros(values, func(n int) bool {
			return n > MacoskoThreshold
		})
	case InverseMacosko:
		kept = nonZeros(values, func(n int) bool {
			return n <= MacoskoThreshold
		})
	case Keep, Remove, ExcludedClasses:
		labels, excluded := in.Labels, in.ExcludedClasses
		if in.SupersetLabels != nil {
			labels, excluded = in.SupersetLabels, in.ExcludedSupersetClasses
		}
		if labels == nil {
			return Result{}, ErrUnlabelled
		}
		if method == ExcludedClasses {
			method, parameters = Remove, excluded
		}
		kept = byLabel(labels, parameters, method == Keep)
	case RemoveCountSumAbove:
		if len(parameters) == 0 {
			return Result{}, fmt.Errorf("missing count sum threshold: %w", ErrInvalidParameter)
		}
		threshold, err := strconv.Atoi(strings.TrimSpace(parameters[0]))
		if err != nil {
			return Result{}, fmt.Errorf("count sum threshold '%s': %v: %w", parameters[0], err, ErrInvalidParameter)
		}
		countSum := in.CountSum
		if countSum == nil {
			countSum = values.RowSums()
		}
		kept = math.Where(countSum, func(f float64) bool {
			return f <= float64(threshold)
		})
	}

	if method != "" && len(kept) == m {
		return Result{}, fmt.Errorf("'%s' kept all %d examples: %w", method, m, ErrNothingExcluded)
	}

	result := Result{
		Values:         make(map[string]*sparse.Matrix, len(in.Values)),
		ExampleNames:   pick(in.ExampleNames, kept),
		Labels:         pick(in.Labels, kept),
		SupersetLabels: pick(in.SupersetLabels, kept),
		Kept:           kept,
	}
	for version, v := range in.Values {
		if v == nil {
			continue
		}
		result.Values[version] = v.SelectRows(kept)
	}

	metrics.Observer.Excluded(metrics.Examples, m-len(kept))
	log.Info().
		Str("method", method).
		Int("excluded", m-len(kept)).
		Int("remaining", len(kept)).
		Dur("duration", time.Since(start)).
		Msg("examples filtered")
	return result, nil
}

func nonZeros(values *sparse.Matrix, predicate func(n int) bool) []int {
	counts := values.RowNonZeros()
	kept := make([]int, 0, len(counts))
	for i, n := range counts {
		if predicate(n) {
			kept = append(kept, i)
		}
	}
	return kept
}

// byLabel returns the ascending indices of the examples whose label matches one of the classes,
// or does not match any of them when keep is false.
func byLabel(labels []string, classes []string, keep bool) []int {
	matching := make(map[string]bool, len(classes))
	for _, c := range classes {
		matching[model.Normalise(c)] = true
	}
	kept := make([]int, 0, len(labels))
	for i, label := range labels {
		if matching[model.Normalise(label)] == keep {
			kept = append(kept, i)
		}
	}
	sort.Ints(kept)
	return kept
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
