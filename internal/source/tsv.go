package source

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
)

// table is a feature by example table read from a tab separated file.
type table struct {
	examples []string
	features []string
	ii       []int
	jj       []int
	vv       []float64
}

// readTable reads a gzip compressed tab separated table with features as rows and examples as columns.
// The first row holds the example names and the first column the feature names.
// The value function maps every raw value, zero results are not stored.
func readTable(p string, value func(v float64) float64) (table, error) {
	var t table
	f, err := os.Open(p)
	if err != nil {
		return t, fmt.Errorf("could not open '%s': %w", p, err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return t, fmt.Errorf("could not decompress '%s': %v: %w", p, err, ErrFormat)
	}
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 1024*1024), 256*1024*1024)
	row := -1
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		if row < 0 {
			t.examples = cells[1:]
			row++
			continue
		}
		if len(cells) != len(t.examples)+1 {
			return t, fmt.Errorf("row %d of '%s' has %d columns for %d examples: %w", row, p, len(cells)-1, len(t.examples), ErrFormat)
		}
		t.features = append(t.features, cells[0])
		for i, cell := range cells[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return t, fmt.Errorf("row %d of '%s': %v: %w", row, p, err, ErrFormat)
			}
			if v = value(v); v != 0 {
				t.ii = append(t.ii, i)
				t.jj = append(t.jj, row)
				t.vv = append(t.vv, v)
			}
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return t, fmt.Errorf("could not read '%s': %v: %w", p, err, ErrFormat)
	}
	return t, nil
}

// matrix returns the examples by features matrix of the table.
func (t table) matrix(dtype sparse.DType) (*sparse.Matrix, error) {
	m, err := sparse.FromTriplets(len(t.examples), len(t.features), t.ii, t.jj, t.vv)
	if err != nil {
		return nil, err
	}
	m.DType = dtype
	return m, nil
}

func identity(v float64) float64 {
	return v
}

func loadMouseRetina(paths Paths) (Data, error) {
	p, err := required(paths, Values, model.Full.String())
	if err != nil {
		return Data{}, err
	}
	t, err := readTable(p, identity)
	if err != nil {
		return Data{}, err
	}
	values, err := t.matrix(sparse.Float32)
	if err != nil {
		return Data{}, err
	}

	// examples missing from the labels file end up in the no class cluster
	labels := make([]string, len(t.examples))
	index := make(map[string]int, len(t.examples))
	for i, name := range t.examples {
		labels[i] = "0"
		index[name] = i
	}
	lp, err := required(paths, Labels, model.Full.String())
	if err != nil {
		return Data{}, err
	}
	f, err := os.Open(lp)
	if err != nil {
		return Data{}, fmt.Errorf("could not open '%s': %w", lp, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		cells := strings.Split(line, "\t")
		if len(cells) != 2 {
			return Data{}, fmt.Errorf("label line '%s': %w", line, ErrFormat)
		}
		label, err := strconv.Atoi(strings.TrimSpace(cells[1]))
		if err != nil {
			return Data{}, fmt.Errorf("label line '%s': %v: %w", line, err, ErrFormat)
		}
		if i, ok := index[cells[0]]; ok {
			labels[i] = strconv.Itoa(label)
		}
	}
	if err := scanner.Err(); err != nil {
		return Data{}, fmt.Errorf("could not read '%s': %v: %w", lp, err, ErrFormat)
	}

	return Data{
		Values:       values,
		Labels:       labels,
		ExampleNames: t.examples,
		FeatureNames: t.features,
	}, nil
}

// loadTCGA reads log2(x+1) transformed counts and transforms them back into counts.
func loadTCGA(paths Paths) (Data, error) {
	p, err := required(paths, Values, model.Full.String())
	if err != nil {
		return Data{}, err
	}
	t, err := readTable(p, func(v float64) float64 {
		return math.Round(math.Pow(2, v) - 1)
	})
	if err != nil {
		return Data{}, err
	}
	values, err := t.matrix(sparse.Float32)
	if err != nil {
		return Data{}, err
	}
	return Data{
		Values:       values,
		ExampleNames: t.examples,
		FeatureNames: t.features,
	}, nil
}
