package source

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
)

const (
	idxImages = 2051
	idxLabels = 2049
)

// readIDX reads a gzip compressed idx file of unsigned bytes, returning its dimensions and content.
func readIDX(p string, magic uint32) ([]int, []byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open '%s': %w", p, err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("could not decompress '%s': %v: %w", p, err, ErrFormat)
	}
	defer zr.Close()

	var header uint32
	if err := binary.Read(zr, binary.BigEndian, &header); err != nil {
		return nil, nil, fmt.Errorf("could not read header of '%s': %v: %w", p, err, ErrFormat)
	}
	if header != magic {
		return nil, nil, fmt.Errorf("magic number %d of '%s' instead of %d: %w", header, p, magic, ErrFormat)
	}
	dims := make([]int, int(magic&0xff))
	size := 1
	for i := range dims {
		var d uint32
		if err := binary.Read(zr, binary.BigEndian, &d); err != nil {
			return nil, nil, fmt.Errorf("could not read dimensions of '%s': %v: %w", p, err, ErrFormat)
		}
		dims[i] = int(d)
		size *= int(d)
	}
	content := make([]byte, size)
	if _, err := io.ReadFull(zr, content); err != nil {
		return nil, nil, fmt.Errorf("could not read content of '%s': %v: %w", p, err, ErrFormat)
	}
	return dims, content, nil
}

func loadMNIST(paths Paths) (Data, error) {
	var ii, jj []int
	var vv []float64
	var labels []string
	split := model.SplitIndices{}
	n := 0
	m := 0
	for _, kind := range []string{model.Training, model.Test} {
		p, err := required(paths, Values, kind)
		if err != nil {
			return Data{}, err
		}
		dims, pixels, err := readIDX(p, idxImages)
		if err != nil {
			return Data{}, err
		}
		n = dims[1] * dims[2]
		for k, pixel := range pixels {
			if pixel != 0 {
				ii = append(ii, m+k/n)
				jj = append(jj, k%n)
				vv = append(vv, float64(pixel))
			}
		}

		lp, err := required(paths, Labels, kind)
		if err != nil {
			return Data{}, err
		}
		ldims, ll, err := readIDX(lp, idxLabels)
		if err != nil {
			return Data{}, err
		}
		if ldims[0] != dims[0] {
			return Data{}, fmt.Errorf("%d %s images for %d labels: %w", dims[0], kind, ldims[0], ErrFormat)
		}
		for _, l := range ll {
			labels = append(labels, strconv.Itoa(int(l)))
		}
		split[kind] = model.Range{Start: m, Stop: m + dims[0]}
		m += dims[0]
	}
	values, err := sparse.FromTriplets(m, n, ii, jj, vv)
	if err != nil {
		return Data{}, err
	}
	values.DType = sparse.Float32
	return Data{
		Values:       values,
		Labels:       labels,
		ExampleNames: names("image", m),
		FeatureNames: names("pixel", n),
		SplitIndices: split,
	}, nil
}

// readText reads a whitespace separated text matrix, one example per line.
func readText(p string) ([][]float64, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("could not open '%s': %w", p, err)
	}
	defer f.Close()
	rows := make([][]float64, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		row := make([]float64, len(fields))
		for j, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d of '%s': %v: %w", len(rows)+1, p, err, ErrFormat)
			}
			row[j] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("line %d of '%s' has %d values instead of %d: %w", len(rows)+1, p, len(row), len(rows[0]), ErrFormat)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read '%s': %v: %w", p, err, ErrFormat)
	}
	return rows, nil
}

func loadBinarisedMNIST(paths Paths) (Data, error) {
	rows := make([][]float64, 0)
	split := model.SplitIndices{}
	for _, kind := range model.Subsets {
		p, err := required(paths, Values, kind)
		if err != nil {
			return Data{}, err
		}
		rr, err := readText(p)
		if err != nil {
			return Data{}, err
		}
		if len(rows) > 0 && len(rr) > 0 && len(rr[0]) != len(rows[0]) {
			return Data{}, fmt.Errorf("%s images of %d pixels instead of %d: %w", kind, len(rr[0]), len(rows[0]), ErrFormat)
		}
		split[kind] = model.Range{Start: len(rows), Stop: len(rows) + len(rr)}
		rows = append(rows, rr...)
	}
	values := sparse.FromRows(rows)
	values.DType = sparse.Float32
	m, n := values.Dims()
	return Data{
		Values:       values,
		ExampleNames: names("image", m),
		FeatureNames: names("pixel", n),
		SplitIndices: split,
	}, nil
}
