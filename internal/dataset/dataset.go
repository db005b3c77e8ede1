package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/drakos74/free-data/internal/key"
	"github.com/drakos74/free-data/internal/labels"
	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/selection"
	"github.com/drakos74/free-data/internal/source"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/drakos74/free-data/internal/storage"
	"github.com/drakos74/free-data/internal/storage/file"
	"github.com/drakos74/free-data/internal/weight"
	"github.com/rs/zerolog/log"
)

// Stage is the position of a dataset in its lifecycle.
type Stage int

const (
	Empty Stage = iota
	Loaded
	Preprocessed
	Binarised
	Split
)

func (s Stage) String() string {
	switch s {
	case Empty:
		return "empty"
	case Loaded:
		return "loaded"
	case Preprocessed:
		return "preprocessed"
	case Binarised:
		return "binarised"
	case Split:
		return "split"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

var (
	ErrInvalidStage    = errors.New("operation not allowed in the current stage")
	ErrNotPreprocessed = errors.New("data set values have to have been preprocessed and feature selected first")
	ErrShapeMismatch   = errors.New("data set shape does not match its names")
)

// Option configures a dataset.
type Option func(d *Dataset)

// WithDirectory sets the base directory of all datasets.
func WithDirectory(directory string) Option {
	return func(d *Dataset) {
		d.directory = directory
	}
}

// WithShard sets the storage for the cached stages.
func WithShard(shard storage.Shard) Option {
	return func(d *Dataset) {
		d.shard = shard
	}
}

// WithFetcher sets the fetcher retrieving the missing original files.
func WithFetcher(fetcher source.Fetcher) Option {
	return func(d *Dataset) {
		d.fetcher = fetcher
	}
}

// WithClock sets the clock timing the stages.
func WithClock(now func() time.Time) Option {
	return func(d *Dataset) {
		d.now = now
	}
}

// Dataset holds the values of a dataset along with its names and labels,
// and moves them through loading, preprocessing, binarisation and splitting.
// Every stage consults the cache first.
type Dataset struct {
	Descriptor source.Descriptor
	Config     model.Configuration
	Kind       model.Kind

	Values             *sparse.Matrix
	PreprocessedValues *sparse.Matrix
	BinarisedValues    *sparse.Matrix

	Labels         []string
	SupersetLabels []string
	ExampleNames   []string
	FeatureNames   []string

	Classes         labels.Set
	SupersetClasses labels.Set

	SplitIndices model.SplitIndices
	CountSum     []float64

	stage Stage
	// preprocessed marks values that come with their preprocessing already applied.
	preprocessed bool

	directory string
	shard     storage.Shard
	fetcher   source.Fetcher
	now       func() time.Time

	storage storage.Persistence
	keys    key.Builder
	weights *weight.Store
}

// New sets up the named dataset for the configuration.
func New(name string, cfg model.Configuration, opts ...Option) (*Dataset, error) {
	descriptor, err := source.Lookup(name)
	if err != nil {
		return nil, err
	}
	d := &Dataset{
		Descriptor: descriptor,
		Config:     cfg,
		Kind:       model.Full,
		directory:  storage.DefaultDir,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.shard == nil {
		d.shard = file.BlobShard(d.directory)
	}
	if d.Config.SaveAfter == 0 {
		d.Config.SaveAfter = model.DefaultSaveAfter
	}
	if len(descriptor.Preprocessed) > 0 {
		d.preprocessed = true
		d.Config.PreprocessingMethods = append([]string{}, descriptor.Preprocessed...)
		d.Config.NoisyBinarisation = false
	}

	st, err := d.shard(descriptor.Name)
	if err != nil {
		return nil, fmt.Errorf("could not init storage: %w", err)
	}
	d.storage = st
	d.keys = key.New(d.directory, descriptor.Name)
	d.weights = weight.NewStore(st, d.keys)

	log.Info().
		Str("data-set", descriptor.Title).
		Str("feature-selection", d.Config.FeatureSelection.Method).
		Str("example-filter", d.Config.ExampleFilter.Method).
		Strs("filter-parameters", d.Config.ExampleFilter.Parameters).
		Strs("preprocessing", d.Config.PreprocessingMethods).
		Bool("already-preprocessed", d.preprocessed).
		Msg("data set")
	return d, nil
}

// Stage returns the current stage of the dataset.
func (d *Dataset) Stage() Stage {
	return d.stage
}

// Name returns the normalised name of the dataset.
func (d *Dataset) Name() string {
	return d.Descriptor.Name
}

func (d *Dataset) NumberOfExamples() int {
	if d.Values == nil {
		return len(d.ExampleNames)
	}
	m, _ := d.Values.Dims()
	return m
}

func (d *Dataset) NumberOfFeatures() int {
	if d.Values == nil {
		return len(d.FeatureNames)
	}
	_, n := d.Values.Dims()
	return n
}

func (d *Dataset) NumberOfValues() int {
	return d.NumberOfExamples() * d.NumberOfFeatures()
}

func (d *Dataset) HasValues() bool {
	return d.Values != nil
}

func (d *Dataset) HasPreprocessedValues() bool {
	return d.PreprocessedValues != nil
}

func (d *Dataset) HasBinarisedValues() bool {
	return d.BinarisedValues != nil
}

func (d *Dataset) HasLabels() bool {
	return d.Labels != nil
}

// ClassProbabilities returns the relative frequency of every class,
// on the superset classes when the dataset defines them.
// Excluded classes and classes that never occur are left out.
func (d *Dataset) ClassProbabilities() (map[string]float64, error) {
	if d.SupersetLabels != nil {
		return labels.Probabilities(d.SupersetLabels, d.Descriptor.ExcludedSupersetClasses)
	}
	return labels.Probabilities(d.Labels, d.Descriptor.ExcludedClasses)
}

// LiteratureProbabilities returns the class probabilities reported for the dataset, if any.
func (d *Dataset) LiteratureProbabilities() map[string]float64 {
	return d.Descriptor.LiteratureProbabilities
}

// ClassPalette returns the colour of every class, of the superset classes when the dataset defines them.
func (d *Dataset) ClassPalette() labels.Palette {
	if d.SupersetLabels != nil {
		return d.Descriptor.Palette.Superset(d.Descriptor.Superset)
	}
	return d.Descriptor.Palette
}

// ClassIDs returns the class id of every example, on the superset classes when the dataset defines them.
func (d *Dataset) ClassIDs() ([]int, error) {
	if d.Labels == nil {
		return nil, labels.ErrUnlabelled
	}
	if d.SupersetLabels != nil {
		return d.SupersetClasses.IDs(d.SupersetLabels)
	}
	return d.Classes.IDs(d.Labels)
}

// ApplyIndices keeps only the examples at the given indices, in their given order.
// The class sets are left as they are.
func (d *Dataset) ApplyIndices(indices []int) error {
	if d.stage == Empty {
		return fmt.Errorf("cannot apply indices to %s data set: %w", d.stage, ErrInvalidStage)
	}
	m := d.NumberOfExamples()
	for _, i := range indices {
		if i < 0 || i >= m {
			return fmt.Errorf("index %d out of %d examples: %w", i, m, ErrShapeMismatch)
		}
	}
	d.Values = d.Values.SelectRows(indices)
	d.PreprocessedValues = selectRows(d.PreprocessedValues, indices)
	d.BinarisedValues = selectRows(d.BinarisedValues, indices)
	d.ExampleNames = pick(d.ExampleNames, indices)
	d.Labels = pick(d.Labels, indices)
	d.SupersetLabels = pick(d.SupersetLabels, indices)
	d.CountSum = d.Values.RowSums()
	d.SplitIndices = nil
	return d.validate()
}

// update replaces the values and names, and derives the count sums and the superset labels.
// The class sets are rebuilt when classes is set.
func (d *Dataset) update(values *sparse.Matrix, exampleNames, featureNames, ll []string, classes bool) error {
	d.Values = values
	d.ExampleNames = exampleNames
	d.FeatureNames = featureNames
	d.Labels = ll
	d.CountSum = values.RowSums()
	superset, err := d.Descriptor.Superset.Labels(ll)
	if err != nil {
		return fmt.Errorf("could not derive superset labels: %w", err)
	}
	d.SupersetLabels = superset
	if classes && ll != nil {
		d.Classes = labels.NewSet(ll, d.Descriptor.SortedClassNames)
		if superset != nil {
			d.SupersetClasses = labels.NewSet(superset, d.Descriptor.SortedSupersetClassNames)
		}
	}
	return d.validate()
}

// validate checks that every version of the values agrees with the names and labels.
func (d *Dataset) validate() error {
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
	for version, v := range map[string]*sparse.Matrix{
		selection.Preprocessed: d.PreprocessedValues,
		"binarised":            d.BinarisedValues,
	} {
		if v == nil {
			continue
		}
		if vm, vn := v.Dims(); vm != m || vn != n {
			return fmt.Errorf("%s values of shape %dx%d instead of %dx%d: %w", version, vm, vn, m, n, ErrShapeMismatch)
		}
	}
	return nil
}

// defaultFeatureParameter fills in the parameter of the feature selection, once the number of features is known.
// A zero parameter counts as missing.
func (d *Dataset) defaultFeatureParameter() {
	if p := d.Config.FeatureSelection.Parameter; p != nil && *p != 0 {
		return
	}
	if p, ok := selection.DefaultParameter(d.Config.FeatureSelection.Method, d.NumberOfFeatures()); ok {
		d.Config.FeatureSelection.Parameter = model.Float(p)
	}
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

// remap moves the split ranges onto the examples left after keeping the ascending indices.
func remap(indices model.SplitIndices, kept []int) model.SplitIndices {
	if indices == nil {
		return nil
	}
	before := func(i int) int {
		n := 0
		for _, k := range kept {
			if k >= i {
				break
			}
			n++
		}
		return n
	}
	remapped := make(model.SplitIndices, len(indices))
	for name, r := range indices {
		remapped[name] = model.Range{Start: before(r.Start), Stop: before(r.Stop)}
	}
	return remapped
}
