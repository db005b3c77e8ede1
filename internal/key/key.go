package key

import (
	"path/filepath"
	"strings"

	"github.com/drakos74/free-data/internal/math"
	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/storage"
)

const (
	// Ext is the extension of every cached tree.
	Ext = ".sparse.tree"

	separator = "-"
	joiner    = "_"
	binarised = "binarised"
	split     = "split"
	indices   = "indices"
)

// Parts are the stage parameters that make up a cache key.
type Parts struct {
	BaseName                string
	PreprocessingMethods    []string
	FeatureSelection        string
	FeatureParameter        *float64
	ExampleFilter           string
	ExampleFilterParameters []string
	Binarised               bool
	SplittingMethod         string
	SplittingFraction       float64
	SplitIndices            model.SplitIndices
}

// FromConfiguration maps the preprocessing part of a configuration into key parts.
func FromConfiguration(cfg model.Configuration) Parts {
	return Parts{
		PreprocessingMethods:    cfg.PreprocessingMethods,
		FeatureSelection:        cfg.FeatureSelection.Method,
		FeatureParameter:        cfg.FeatureSelection.Parameter,
		ExampleFilter:           cfg.ExampleFilter.Method,
		ExampleFilterParameters: cfg.ExampleFilter.Parameters,
	}
}

// WithSplit returns a copy of the parts with the splitting parameters set.
func (p Parts) WithSplit(method string, fraction float64, indices model.SplitIndices) Parts {
	p.SplittingMethod = method
	p.SplittingFraction = fraction
	p.SplitIndices = indices
	return p
}

// WithMethods returns a copy of the parts with the given preprocessing methods.
func (p Parts) WithMethods(methods ...string) Parts {
	p.PreprocessingMethods = methods
	return p
}

// WithBinarised returns a copy of the parts marking the binarised version of the values.
func (p Parts) WithBinarised() Parts {
	p.Binarised = true
	return p
}

// Builder derives the cache keys for a dataset.
type Builder struct {
	Directory string
	Name      string
}

// New creates a key builder for the named dataset under the given base directory.
func New(directory, name string) Builder {
	return Builder{
		Directory: directory,
		Name:      name,
	}
}

// Key derives the cache key for the given parts.
// Method names are not validated.
func (b Builder) Key(p Parts) storage.Key {
	parts := make([]string, 0)
	if p.BaseName != "" {
		parts = append(parts, model.Normalise(p.BaseName))
	}
	if p.FeatureSelection != "" {
		s := model.Normalise(p.FeatureSelection)
		// a zero parameter stands for the default of the method
		if p.FeatureParameter != nil && *p.FeatureParameter != 0 {
			s += joiner + math.Format(*p.FeatureParameter)
		}
		parts = append(parts, s)
	}
	if p.ExampleFilter != "" {
		s := model.Normalise(p.ExampleFilter)
		if len(p.ExampleFilterParameters) > 0 {
			s += joiner + strings.Join(model.NormaliseAll(p.ExampleFilterParameters), joiner)
		}
		parts = append(parts, s)
	}
	parts = append(parts, model.NormaliseAll(p.PreprocessingMethods)...)
	if p.Binarised {
		parts = append(parts, binarised)
	}
	if p.SplittingMethod != "" {
		s := p.SplittingMethod
		if !(p.SplittingMethod == indices && p.SplitIndices.Complete()) && p.SplittingFraction != 0 {
			s += joiner + math.Format(p.SplittingFraction)
		}
		parts = append(parts, split, s)
	}
	name := model.Normalise(b.Name)
	if len(parts) > 0 {
		name += separator + strings.Join(parts, separator)
	}
	return storage.Key{
		Name: name,
		Ext:  Ext,
	}
}

// Weights derives the cache key of the feature weights for the given method.
func (b Builder) Weights(method string) storage.Key {
	return b.Key(Parts{BaseName: method + separator + "weights"})
}

// Path returns the full path of the cached tree for the key.
func (b Builder) Path(k storage.Key) string {
	return filepath.Join(b.Directory, b.Name, storage.PreprocessedDir, k.Path())
}
