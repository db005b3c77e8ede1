package dataset

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/drakos74/free-data/internal/filter"
	"github.com/drakos74/free-data/internal/key"
	"github.com/drakos74/free-data/internal/metrics"
	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/selection"
	"github.com/drakos74/free-data/internal/source"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/drakos74/free-data/internal/split"
	"github.com/drakos74/free-data/internal/storage"
	"github.com/drakos74/free-data/internal/storage/tree"
	"github.com/drakos74/free-data/internal/transform"
	"github.com/rs/zerolog/log"
)

const (
	loadStage       = "load"
	preprocessStage = "preprocess"
	binariseStage   = "binarise"
	splitStage      = "split"

	valuesKey             = "values"
	preprocessedValuesKey = "preprocessed values"
	binarisedValuesKey    = "binarised values"
	labelsKey             = "labels"
	exampleNamesKey       = "example names"
	featureNamesKey       = "feature names"
	featureIndicesKey     = "feature indices"
	splitIndicesKey       = "split indices"
)

// Load loads the original values, from the cache when present.
func (d *Dataset) Load() error {
	if d.stage != Empty {
		return fmt.Errorf("cannot load %s data set: %w", d.stage, ErrInvalidStage)
	}
	k := d.keys.Key(key.Parts{})
	g, ok, err := d.cached(loadStage, k)
	if err != nil {
		return err
	}
	if !ok {
		start := d.now()
		directory := filepath.Join(d.directory, d.Descriptor.Name, storage.OriginalDir)
		paths, err := source.Locate(d.Descriptor, directory, d.fetcher)
		if err != nil {
			return fmt.Errorf("could not locate '%s': %w", d.Descriptor.Title, err)
		}
		data, err := source.Load(d.Descriptor, paths)
		if err != nil {
			return err
		}
		g = tree.Group{
			valuesKey:       tree.Of(data.Values),
			labelsKey:       tree.OfStrings(data.Labels),
			exampleNamesKey: tree.Strings(data.ExampleNames),
			featureNamesKey: tree.Strings(data.FeatureNames),
			splitIndicesKey: ofSplit(data.SplitIndices),
		}
		if err := d.save(loadStage, k, g, d.now().Sub(start)); err != nil {
			return err
		}
	}

	values, ok := g.Matrix(valuesKey)
	if !ok {
		return fmt.Errorf("cached '%s' without values: %w", k.Path(), storage.CouldNotLoadErr)
	}
	ll, _ := g.Strings(labelsKey)
	exampleNames, _ := g.Strings(exampleNamesKey)
	featureNames, _ := g.Strings(featureNamesKey)
	if err := d.update(values, exampleNames, featureNames, ll, true); err != nil {
		return err
	}
	d.SplitIndices, _ = g.Split(splitIndicesKey)
	d.defaultFeatureParameter()
	d.stage = Loaded

	log.Info().
		Str("data-set", d.Descriptor.Title).
		Int("examples", d.NumberOfExamples()).
		Int("features", d.NumberOfFeatures()).
		Int("classes", d.Classes.Len()).
		Msg("data set loaded")
	return nil
}

// Preprocess applies the preprocessing methods, the feature selection and the example filter, in that order.
// Without any of them the preprocessed values are the values themselves.
func (d *Dataset) Preprocess() error {
	if d.stage != Loaded {
		return fmt.Errorf("cannot preprocess %s data set: %w", d.stage, ErrInvalidStage)
	}
	if d.Config.Empty() {
		d.PreprocessedValues = d.Values
		d.stage = Preprocessed
		log.Info().Str("data-set", d.Descriptor.Title).Msg("nothing to preprocess")
		return nil
	}

	k := d.keys.Key(key.FromConfiguration(d.Config))
	g, ok, err := d.cached(preprocessStage, k)
	if err != nil {
		return err
	}
	if !ok {
		start := d.now()
		g, err = d.preprocess()
		if err != nil {
			return err
		}
		if err := d.save(preprocessStage, k, g, d.now().Sub(start)); err != nil {
			return err
		}
	}

	values, ok := g.Matrix(valuesKey)
	if !ok {
		return fmt.Errorf("cached '%s' without values: %w", k.Path(), storage.CouldNotLoadErr)
	}
	preprocessed, ok := g.Matrix(preprocessedValuesKey)
	if !ok {
		return fmt.Errorf("cached '%s' without preprocessed values: %w", k.Path(), storage.CouldNotLoadErr)
	}
	ll, _ := g.Strings(labelsKey)
	exampleNames, _ := g.Strings(exampleNamesKey)
	featureNames, _ := g.Strings(featureNamesKey)
	d.PreprocessedValues = preprocessed
	if err := d.update(values, exampleNames, featureNames, ll, true); err != nil {
		return err
	}
	d.SplitIndices, _ = g.Split(splitIndicesKey)
	d.stage = Preprocessed

	log.Info().
		Str("data-set", d.Descriptor.Title).
		Int("examples", d.NumberOfExamples()).
		Int("features", d.NumberOfFeatures()).
		Msg("data set preprocessed")
	return nil
}

func (d *Dataset) preprocess() (tree.Group, error) {
	values := d.Values
	preprocessed := d.Values
	if !d.preprocessed && len(d.Config.PreprocessingMethods) > 0 {
		start := time.Now()
		pipeline := transform.Pipeline{
			Methods: d.Config.PreprocessingMethods,
			Weigher: d.weights,
		}
		var err error
		preprocessed, _, err = pipeline.Apply(values, transform.NewState(d.Descriptor.Maximum))
		if err != nil {
			return nil, fmt.Errorf("could not preprocess values: %w", err)
		}
		log.Info().
			Strs("methods", d.Config.PreprocessingMethods).
			Dur("duration", time.Since(start)).
			Msg("values preprocessed")
	}

	featureNames := d.FeatureNames
	exampleNames := d.ExampleNames
	ll := d.Labels
	splitIndices := d.SplitIndices
	g := tree.Group{}

	if d.Config.FeatureSelection.Method != "" {
		result, err := selection.Select(selection.Input{
			Values: map[string]*sparse.Matrix{
				selection.Original:     values,
				selection.Preprocessed: preprocessed,
			},
			FeatureNames: featureNames,
			Weigher:      d.weights,
		}, d.Config.FeatureSelection.Method, d.Config.FeatureSelection.Parameter)
		if err != nil {
			return nil, err
		}
		values = result.Values[selection.Original]
		preprocessed = result.Values[selection.Preprocessed]
		featureNames = result.FeatureNames
		g[featureIndicesKey] = tree.Ints(result.Kept)
	}

	if d.Config.ExampleFilter.Method != "" {
		result, err := filter.Filter(filter.Input{
			Values: map[string]*sparse.Matrix{
				filter.Original:        values,
				selection.Preprocessed: preprocessed,
			},
			ExampleNames:            exampleNames,
			Labels:                  ll,
			SupersetLabels:          d.SupersetLabels,
			ExcludedClasses:         d.Descriptor.ExcludedClasses,
			ExcludedSupersetClasses: d.Descriptor.ExcludedSupersetClasses,
			CountSum:                d.CountSum,
		}, d.Config.ExampleFilter.Method, d.Config.ExampleFilter.Parameters)
		if err != nil {
			return nil, err
		}
		values = result.Values[filter.Original]
		preprocessed = result.Values[selection.Preprocessed]
		exampleNames = result.ExampleNames
		ll = result.Labels
		splitIndices = remap(splitIndices, result.Kept)
	}

	g[valuesKey] = tree.Of(values)
	g[preprocessedValuesKey] = tree.Of(preprocessed)
	g[featureNamesKey] = tree.Strings(featureNames)
	g[exampleNamesKey] = tree.Strings(exampleNames)
	g[labelsKey] = tree.OfStrings(ll)
	g[splitIndicesKey] = ofSplit(splitIndices)
	return g, nil
}

// Binarise derives the binarised values.
// Values that were only binarised to begin with are reused as they are.
func (d *Dataset) Binarise() error {
	switch d.stage {
	case Preprocessed:
	case Empty, Loaded:
		return ErrNotPreprocessed
	default:
		return fmt.Errorf("cannot binarise %s data set: %w", d.stage, ErrInvalidStage)
	}

	if d.Config.Binarised() {
		d.BinarisedValues = d.PreprocessedValues
		d.stage = Binarised
		log.Info().Str("data-set", d.Descriptor.Title).Msg("data set already binarised")
		return nil
	}

	// binarisation only depends on the selected and filtered values
	k := d.keys.Key(key.FromConfiguration(d.Config).WithMethods().WithBinarised())
	g, ok, err := d.cached(binariseStage, k)
	if err != nil {
		return err
	}
	if !ok {
		start := d.now()
		pipeline := transform.Pipeline{
			Methods: []string{transform.Binarise},
		}
		binarised, _, err := pipeline.Apply(d.Values, transform.NewState(d.Descriptor.Maximum))
		if err != nil {
			return fmt.Errorf("could not binarise values: %w", err)
		}
		g = tree.Group{
			valuesKey:          tree.Of(d.Values),
			binarisedValuesKey: tree.Of(binarised),
			featureNamesKey:    tree.Strings(d.FeatureNames),
		}
		if err := d.save(binariseStage, k, g, d.now().Sub(start)); err != nil {
			return err
		}
	}

	binarised, ok := g.Matrix(binarisedValuesKey)
	if !ok {
		return fmt.Errorf("cached '%s' without binarised values: %w", k.Path(), storage.CouldNotLoadErr)
	}
	d.BinarisedValues = binarised
	if err := d.validate(); err != nil {
		return err
	}
	d.stage = Binarised
	log.Info().Str("data-set", d.Descriptor.Title).Int("values", binarised.NNZ()).Msg("data set binarised")
	return nil
}

// Split splits the dataset into training, validation and test datasets.
// The dataset itself cannot move further afterwards.
func (d *Dataset) Split(method string, fraction float64) (*Dataset, *Dataset, *Dataset, error) {
	if d.stage != Preprocessed && d.stage != Binarised {
		return nil, nil, nil, fmt.Errorf("cannot split %s data set: %w", d.stage, ErrInvalidStage)
	}
	bundle := split.Bundle{
		Values:             d.Values,
		PreprocessedValues: d.PreprocessedValues,
		BinarisedValues:    d.BinarisedValues,
		Labels:             d.Labels,
		ExampleNames:       d.ExampleNames,
		SplitIndices:       d.SplitIndices,
	}
	method = split.Resolve(method, bundle)

	parts := key.FromConfiguration(d.Config)
	if d.BinarisedValues != nil {
		parts = parts.WithBinarised()
	}
	k := d.keys.Key(parts.WithSplit(method, fraction, d.SplitIndices))
	g, ok, err := d.cached(splitStage, k)
	if err != nil {
		return nil, nil, nil, err
	}
	if !ok {
		start := d.now()
		subsets, _, err := split.Split(bundle, method, fraction)
		if err != nil {
			return nil, nil, nil, err
		}
		g = tree.Group{
			groupName(model.Training):   ofBundle(subsets.Training),
			groupName(model.Validation): ofBundle(subsets.Validation),
			groupName(model.Test):       ofBundle(subsets.Test),
		}
		if err := d.save(splitStage, k, g, d.now().Sub(start)); err != nil {
			return nil, nil, nil, err
		}
	}

	children := make([]*Dataset, len(model.Subsets))
	for i, kind := range model.Subsets {
		sg, ok := g.Group(groupName(kind))
		if !ok {
			return nil, nil, nil, fmt.Errorf("cached '%s' without %s set: %w", k.Path(), kind, storage.CouldNotLoadErr)
		}
		child, err := d.child(model.Kind(kind), sg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("invalid %s set: %w", kind, err)
		}
		children[i] = child
	}
	d.stage = Split

	log.Info().
		Str("data-set", d.Descriptor.Title).
		Str("method", method).
		Int("features", d.NumberOfFeatures()).
		Int("classes", d.Classes.Len()).
		Int("training", children[0].NumberOfExamples()).
		Int("validation", children[1].NumberOfExamples()).
		Int("test", children[2].NumberOfExamples()).
		Msg("data set split")
	return children[0], children[1], children[2], nil
}

// child creates a subset dataset sharing the configuration and the class sets.
func (d *Dataset) child(kind model.Kind, g tree.Group) (*Dataset, error) {
	values, ok := g.Matrix(valuesKey)
	if !ok {
		return nil, fmt.Errorf("missing values: %w", storage.CouldNotLoadErr)
	}
	c := &Dataset{
		Descriptor:      d.Descriptor,
		Config:          d.Config,
		Kind:            kind,
		Classes:         d.Classes,
		SupersetClasses: d.SupersetClasses,
		stage:           Split,
		preprocessed:    d.preprocessed,
		directory:       d.directory,
		shard:           d.shard,
		fetcher:         d.fetcher,
		now:             d.now,
		storage:         d.storage,
		keys:            d.keys,
		weights:         d.weights,
	}
	c.PreprocessedValues, _ = g.Matrix(preprocessedValuesKey)
	c.BinarisedValues, _ = g.Matrix(binarisedValuesKey)
	ll, _ := g.Strings(labelsKey)
	exampleNames, _ := g.Strings(exampleNamesKey)
	featureNames := append([]string{}, d.FeatureNames...)
	if err := c.update(values, exampleNames, featureNames, ll, false); err != nil {
		return nil, err
	}
	return c, nil
}

// Resample draws a noisy binarisation of the values, every value taken as the probability of a one.
// Without noisy binarisation configured it returns the binarised or preprocessed values.
func (d *Dataset) Resample(seed uint64) (*sparse.Matrix, error) {
	if d.stage == Empty || d.stage == Loaded {
		return nil, ErrNotPreprocessed
	}
	if !d.Config.NoisyBinarisation {
		if d.BinarisedValues != nil {
			return d.BinarisedValues, nil
		}
		return d.PreprocessedValues, nil
	}
	pipeline := transform.Pipeline{
		Methods: []string{transform.Binarise},
		Noisy:   true,
		Seed:    seed,
	}
	sampled, _, err := pipeline.Apply(d.Values, transform.NewState(d.Descriptor.Maximum))
	if err != nil {
		return nil, fmt.Errorf("could not sample values: %w", err)
	}
	return sampled, nil
}

// cached loads the tree of the key. A missing tree is not an error.
func (d *Dataset) cached(stage string, k storage.Key) (tree.Group, bool, error) {
	g, err := d.storage.Load(k)
	if err == nil {
		metrics.Observer.Cache(stage, metrics.Hit)
		log.Info().Str("stage", stage).Str("key", k.Path()).Msg("loading cached data")
		return g, true, nil
	}
	if storage.IsMiss(err) {
		metrics.Observer.Cache(stage, metrics.Miss)
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("could not load cached '%s': %w", k.Path(), err)
}

// save stores the tree, but only when producing it took longer than the configured threshold.
func (d *Dataset) save(stage string, k storage.Key, g tree.Group, elapsed time.Duration) error {
	if elapsed <= d.Config.SaveAfter {
		metrics.Observer.Cache(stage, metrics.Skipped)
		log.Debug().Str("stage", stage).Dur("duration", elapsed).Msg("not worth caching")
		return nil
	}
	if err := d.storage.Store(k, g); err != nil {
		return fmt.Errorf("could not store '%s': %w", k.Path(), err)
	}
	metrics.Observer.Cache(stage, metrics.Stored)
	log.Info().Str("stage", stage).Str("key", k.Path()).Dur("duration", elapsed).Msg("stored data")
	return nil
}

func groupName(kind string) string {
	return kind + " " + tree.GroupSuffix
}

func ofBundle(b split.Bundle) tree.Group {
	return tree.Group{
		valuesKey:             tree.Of(b.Values),
		preprocessedValuesKey: tree.Of(b.PreprocessedValues),
		binarisedValuesKey:    tree.Of(b.BinarisedValues),
		labelsKey:             tree.OfStrings(b.Labels),
		exampleNamesKey:       tree.Strings(b.ExampleNames),
	}
}

func ofSplit(indices model.SplitIndices) tree.Value {
	if indices == nil {
		return tree.None{}
	}
	return tree.Split(indices)
}
