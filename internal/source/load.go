package source

import (
	"errors"
	"fmt"
	"time"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownFamily = errors.New("unknown data set family")
	ErrShapeMismatch = errors.New("shape does not match the names")
	ErrFormat        = errors.New("invalid data set format")
)

// Data is the content of a loaded dataset.
type Data struct {
	Values       *sparse.Matrix
	Labels       []string
	ExampleNames []string
	FeatureNames []string
	SplitIndices model.SplitIndices
}

// Validate checks that the values agree with the names and labels.
func (d Data) Validate() error {
	if d.Values == nil {
		return fmt.Errorf("missing values: %w", ErrShapeMismatch)
	}
	m, n := d.Values.Dims()
	if m != len(d.ExampleNames) {
		return fmt.Errorf("%d examples for %d example names: %w", m, len(d.ExampleNames), ErrShapeMismatch)
	}
	if n != len(d.FeatureNames) {
		return fmt.Errorf("%d features for %d feature names: %w", n, len(d.FeatureNames), ErrShapeMismatch)
	}
	if d.Labels != nil && len(d.Labels) != m {
		return fmt.Errorf("%d examples for %d labels: %w", m, len(d.Labels), ErrShapeMismatch)
	}
	return nil
}

// Load loads the dataset from its located files.
func Load(d Descriptor, paths Paths) (Data, error) {
	start := time.Now()
	var data Data
	var err error
	switch d.Family {
	case Development:
		data = Generate(d.Synthetic)
	case MouseRetina:
		data, err = loadMouseRetina(paths)
	case TCGA:
		data, err = loadTCGA(paths)
	case MNIST:
		data, err = loadMNIST(paths)
	case BinarisedMNIST:
		data, err = loadBinarisedMNIST(paths)
	case Newsgroups:
		data, err = loadNewsgroups(paths)
	default:
		return Data{}, fmt.Errorf("'%s' for '%s': %w", d.Family, d.Title, ErrUnknownFamily)
	}
	if err != nil {
		return Data{}, fmt.Errorf("could not load '%s': %w", d.Title, err)
	}
	if err := data.Validate(); err != nil {
		return Data{}, fmt.Errorf("invalid data set '%s': %w", d.Title, err)
	}
	m, n := data.Values.Dims()
	log.Info().
		Str("data-set", d.Title).
		Int("examples", m).
		Int("features", n).
		Dur("duration", time.Since(start)).
		Msg("original data set loaded")
	return data, nil
}

func names(prefix string, n int) []string {
	ss := make([]string, n)
	for i := range ss {
		ss[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return ss
}

func required(paths Paths, role, kind string) (string, error) {
	p, ok := paths.Get(role, kind)
	if !ok {
		return "", fmt.Errorf("missing %s for %s: %w", role, kind, ErrResourceUnavailable)
	}
	return p, nil
}
