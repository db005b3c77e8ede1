package source

import (
	"errors"
	"fmt"
	"sort"

	"github.com/drakos74/free-data/internal/labels"
	"github.com/drakos74/free-data/internal/model"
)

// Family selects the loader of a dataset.
type Family string

const (
	Development    Family = "development"
	MouseRetina    Family = "mouse_retina"
	TCGA           Family = "tcga"
	MNIST          Family = "mnist"
	BinarisedMNIST Family = "binarised_mnist"
	Newsgroups     Family = "newsgroups"
)

const (
	// Values is the role of the resources holding the values.
	Values = "values"
	// Labels is the role of the resources holding the labels.
	Labels = "labels"
	// All is the role of the resources holding everything.
	All = "all"
)

var ErrUnknownDataset = errors.New("data set not found")

// Resources maps a role and a subset kind to the location of a resource.
// An empty location marks a resource that does not exist.
type Resources map[string]map[string]string

// Synthetic holds the parameters of a generated dataset.
type Synthetic struct {
	Examples          int
	Features          int
	Scale             float64
	UpdateProbability float64
	Seed              uint64
}

// Descriptor describes a dataset and how to load it.
type Descriptor struct {
	Name                     string
	Title                    string
	Family                   Family
	Tags                     model.Tags
	Resources                Resources
	ExampleType              string
	Maximum                  *float64
	Preprocessed             []string
	FeatureDimensions        []int
	Palette                  labels.Palette
	Superset                 labels.Superset
	SortedClassNames         []string
	SortedSupersetClassNames []string
	ExcludedClasses          []string
	ExcludedSupersetClasses  []string
	LiteratureProbabilities  map[string]float64
	Synthetic                Synthetic
}

var registry = map[string]Descriptor{}

// Register adds the descriptor to the registry under its normalised title.
func Register(d Descriptor) {
	d.Name = model.Normalise(d.Title)
	if d.Tags == (model.Tags{}) {
		d.Tags = model.DefaultTags
	}
	registry[d.Name] = d
}

// Lookup returns the descriptor of the named dataset.
func Lookup(name string) (Descriptor, error) {
	d, ok := registry[model.Normalise(name)]
	if !ok {
		return Descriptor{}, fmt.Errorf("'%s': %w", name, ErrUnknownDataset)
	}
	return d, nil
}

// Names returns the names of all registered datasets.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func numbers(from, to int) []string {
	ss := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		ss = append(ss, fmt.Sprintf("%d", i))
	}
	return ss
}

func float(f float64) *float64 {
	return &f
}

func init() {
	counts := model.Tags{Example: "cell", Feature: "gene", Type: "count", Value: "count", Item: "transcript"}

	Register(Descriptor{
		Title:  "mouse retina",
		Family: MouseRetina,
		Tags:   counts,
		Resources: Resources{
			Values: {model.Full.String(): "ftp://ftp.ncbi.nlm.nih.gov/geo/series/GSE63nnn/GSE63472/suppl/GSE63472_P14Retina_merged_digital_expression.txt.gz"},
			Labels: {model.Full.String(): "http://mccarrolllab.com/wp-content/uploads/2015/05/retina_clusteridentities.txt"},
		},
		ExampleType: "counts",
		Superset: labels.Superset{Classes: map[string][]string{
			"Horizontal":       {"1"},
			"Retinal ganglion": {"2"},
			"Amacrine":         numbers(3, 24),
			"Rods":             {"24"},
			"Cones":            {"25"},
			"Bipolar":          numbers(26, 34),
			"Müller glia":      {"34"},
			"Others":           numbers(35, 40),
			"No class":         {"0"},
		}},
		SortedSupersetClassNames: []string{
			"Horizontal",
			"Retinal ganglion",
			"Amacrine",
			"Rods",
			"Cones",
			"Bipolar",
			"Müller glia",
		},
		LiteratureProbabilities: map[string]float64{
			"Horizontal":       0.5 / 100,
			"Retinal ganglion": 0.5 / 100,
			"Amacrine":         0.07,
			"Rods":             79.9 / 100,
			"Cones":            2.1 / 100,
			"Bipolar":          7.3 / 100,
			"Müller glia":      2.8 / 100,
			"Others":           0,
		},
		ExcludedClasses:         []string{"0"},
		ExcludedSupersetClasses: []string{"No class"},
	})

	Register(Descriptor{
		Title:  "TCGA (Kallisto)",
		Family: TCGA,
		Tags:   model.Tags{Example: "sample", Feature: "gene", Type: "count", Value: "count", Item: "transcript"},
		Resources: Resources{
			Values: {model.Full.String(): "https://toil.xenahubs.net/download/tcga_Kallisto_est_counts.gz"},
			Labels: {model.Full.String(): ""},
		},
		ExampleType: "counts",
	})

	Register(Descriptor{
		Title:  "MNIST (original)",
		Family: MNIST,
		Tags:   model.Tags{Example: "digit", Feature: "pixel", Type: "count", Value: "count", Item: "intensity"},
		Resources: Resources{
			Values: {
				model.Training: "http://yann.lecun.com/exdb/mnist/train-images-idx3-ubyte.gz",
				model.Test:     "http://yann.lecun.com/exdb/mnist/t10k-images-idx3-ubyte.gz",
			},
			Labels: {
				model.Training: "http://yann.lecun.com/exdb/mnist/train-labels-idx1-ubyte.gz",
				model.Test:     "http://yann.lecun.com/exdb/mnist/t10k-labels-idx1-ubyte.gz",
			},
		},
		Maximum:           float(255),
		ExampleType:       "images",
		FeatureDimensions: []int{28, 28},
	})

	Register(Descriptor{
		Title:  "MNIST (binarised)",
		Family: BinarisedMNIST,
		Tags:   model.Tags{Example: "digit", Feature: "pixel", Type: "value", Value: "value", Item: "intensity"},
		Resources: Resources{
			Values: {
				model.Training:   "http://www.cs.toronto.edu/~larocheh/public/datasets/binarized_mnist/binarized_mnist_train.amat",
				model.Validation: "http://www.cs.toronto.edu/~larocheh/public/datasets/binarized_mnist/binarized_mnist_valid.amat",
				model.Test:       "http://www.cs.toronto.edu/~larocheh/public/datasets/binarized_mnist/binarized_mnist_test.amat",
			},
		},
		Preprocessed:      []string{"binarise"},
		Maximum:           float(1),
		ExampleType:       "images",
		FeatureDimensions: []int{28, 28},
	})

	Register(Descriptor{
		Title:  "20 Newsgroups",
		Family: Newsgroups,
		Tags:   model.Tags{Example: "document", Feature: "word", Type: "count", Value: "count", Item: "word"},
		Resources: Resources{
			All: {model.Full.String(): "http://qwone.com/~jason/20Newsgroups/20news-bydate.tar.gz"},
		},
		ExampleType: "counts",
	})

	Register(Descriptor{
		Title:             "development",
		Family:            Development,
		ExampleType:       "counts",
		FeatureDimensions: []int{5, 5},
		Palette: labels.Palette{
			"0": {0, 0, 0},
			"1": {1, 0, 0},
			"2": {0, 1, 0},
			"3": {0, 0, 1},
		},
		Superset: labels.Superset{Classes: map[string][]string{
			"Rods":     {"1", "2"},
			"Cones":    {"3"},
			"No class": {"0"},
		}},
		SortedSupersetClassNames: []string{"Rods", "Cones"},
		LiteratureProbabilities: map[string]float64{
			"Rods":  0.8,
			"Cones": 0.2,
		},
		ExcludedClasses:         []string{"0"},
		ExcludedSupersetClasses: []string{"No class"},
		Synthetic: Synthetic{
			Examples:          10000,
			Features:          5 * 5,
			Scale:             10,
			UpdateProbability: 0.0001,
			Seed:              60,
		},
	})
}
