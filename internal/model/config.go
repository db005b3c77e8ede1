package model

import (
	"strings"
	"time"
)

const (
	// DefaultSplitFraction is the fraction of examples going into training and validation.
	DefaultSplitFraction = 0.9
	// DefaultSaveAfter is the minimum duration of a stage before its result is stored.
	DefaultSaveAfter = 30 * time.Second
)

// FeatureSelection names a feature selection policy and its optional parameter.
type FeatureSelection struct {
	Method    string   `yaml:"method" json:"method"`
	Parameter *float64 `yaml:"parameter,omitempty" json:"parameter,omitempty"`
}

// ExampleFilter names an example filter policy and its parameters.
type ExampleFilter struct {
	Method     string   `yaml:"method" json:"method"`
	Parameters []string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

// Split names the splitting method and its fraction.
type Split struct {
	Method   string  `yaml:"method" json:"method"`
	Fraction float64 `yaml:"fraction" json:"fraction"`
}

// Configuration fully determines the cache identity and the output of the preprocessing pipeline.
type Configuration struct {
	PreprocessingMethods []string         `yaml:"preprocessing,omitempty" json:"preprocessing,omitempty"`
	FeatureSelection     FeatureSelection `yaml:"feature_selection" json:"feature_selection"`
	ExampleFilter        ExampleFilter    `yaml:"example_filter" json:"example_filter"`
	Split                Split            `yaml:"split" json:"split"`
	NoisyBinarisation    bool             `yaml:"noisy_binarisation,omitempty" json:"noisy_binarisation,omitempty"`
	SaveAfter            time.Duration    `yaml:"save_after,omitempty" json:"save_after,omitempty"`
}

// NewConfiguration creates a configuration with the default split and save threshold.
func NewConfiguration() Configuration {
	return Configuration{
		Split: Split{
			Method:   "default",
			Fraction: DefaultSplitFraction,
		},
		SaveAfter: DefaultSaveAfter,
	}
}

// WithPreprocessing returns a copy of the configuration with the given preprocessing methods.
func (c Configuration) WithPreprocessing(methods ...string) Configuration {
	c.PreprocessingMethods = append([]string{}, methods...)
	return c
}

// WithFeatureSelection returns a copy of the configuration with the given feature selection.
func (c Configuration) WithFeatureSelection(method string, parameter *float64) Configuration {
	c.FeatureSelection = FeatureSelection{Method: method, Parameter: parameter}
	return c
}

// WithExampleFilter returns a copy of the configuration with the given example filter.
func (c Configuration) WithExampleFilter(method string, parameters ...string) Configuration {
	c.ExampleFilter = ExampleFilter{Method: method, Parameters: append([]string{}, parameters...)}
	return c
}

// Binarised checks if the preprocessing methods consist only of binarisation.
func (c Configuration) Binarised() bool {
	return len(c.PreprocessingMethods) == 1 && c.PreprocessingMethods[0] == "binarise"
}

// Empty checks if the configuration requests no preprocessing at all.
func (c Configuration) Empty() bool {
	return len(c.PreprocessingMethods) == 0 &&
		c.FeatureSelection.Method == "" &&
		c.ExampleFilter.Method == ""
}

// Float is a helper for creating optional float parameters.
func Float(f float64) *float64 {
	return &f
}

var nameReplacer = strings.NewReplacer(
	" ", "_",
	"-", "_",
	"/", "_",
	"(", "",
	")", "",
	",", "",
	"$", "",
)

// Normalise converts a name into its canonical form,
// lower-cased, with separators replaced by underscores and brackets, commas and dollar signs removed.
func Normalise(name string) string {
	return nameReplacer.Replace(strings.ToLower(name))
}

// NormaliseAll normalises every name in the slice.
func NormaliseAll(names []string) []string {
	nn := make([]string, len(names))
	for i, name := range names {
		nn[i] = Normalise(name)
	}
	return nn
}
