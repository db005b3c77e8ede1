package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/drakos74/free-data/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipFile(t *testing.T, p string, content []byte) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0644))
}

func TestLookup(t *testing.T) {

	type test struct {
		name   string
		family Family
		err    error
	}

	tests := map[string]test{
		"title":       {name: "Mouse Retina", family: MouseRetina},
		"normalised":  {name: "mnist_original", family: MNIST},
		"binarised":   {name: "MNIST (binarised)", family: BinarisedMNIST},
		"newsgroups":  {name: "20 Newsgroups", family: Newsgroups},
		"tcga":        {name: "TCGA (Kallisto)", family: TCGA},
		"development": {name: "development", family: Development},
		"unknown":     {name: "cifar", err: ErrUnknownDataset},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := Lookup(tt.name)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.family, d.Family)
			assert.Equal(t, model.Normalise(tt.name), d.Name)
			assert.NotEmpty(t, d.Tags.Example)
		})
	}

	assert.Contains(t, Names(), "development")
}

func TestRegistry_Supersets(t *testing.T) {
	for _, name := range []string{"mouse retina", "development"} {
		d, err := Lookup(name)
		require.NoError(t, err)
		for _, excluded := range d.ExcludedClasses {
			superset, err := d.Superset.Labels([]string{excluded})
			require.NoError(t, err)
			assert.Equal(t, d.ExcludedSupersetClasses, superset)
		}
	}
}

type recorder struct {
	fetched map[string]string
	err     error
}

func (r *recorder) Fetch(url, p string) error {
	if r.err != nil {
		return r.err
	}
	r.fetched[url] = p
	return os.WriteFile(p, []byte("content"), 0644)
}

func TestLocate(t *testing.T) {
	d, err := Lookup("mouse retina")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "mouse_retina", "original")

	_, err = Locate(d, dir, nil)
	assert.ErrorIs(t, err, ErrResourceUnavailable)

	_, err = Locate(d, dir, &recorder{err: errors.New("connection refused")})
	assert.ErrorIs(t, err, ErrResourceUnavailable)

	r := &recorder{fetched: map[string]string{}}
	paths, err := Locate(d, dir, r)
	require.NoError(t, err)
	assert.Len(t, r.fetched, 2)

	p, ok := paths.Get(Values, model.Full.String())
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "mouse_retina-values-full.txt.gz"), p)
	p, ok = paths.Get(Labels, model.Full.String())
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "mouse_retina-labels-full.txt"), p)

	// files in place are not fetched again
	paths, err = Locate(d, dir, nil)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestLocate_Manual(t *testing.T) {
	d := Descriptor{
		Title:     "local",
		Resources: Resources{All: {model.Full.String(): "./local.tsv.gz"}},
	}
	_, err := Locate(d, t.TempDir(), &recorder{fetched: map[string]string{}})
	assert.ErrorIs(t, err, ErrManualResource)

	tcga, err := Lookup("TCGA (Kallisto)")
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tcga_kallisto-values-full.gz"), nil, 0644))
	paths, err := Locate(tcga, dir, nil)
	require.NoError(t, err)
	_, ok := paths.Get(Labels, model.Full.String())
	assert.False(t, ok)
}

func TestGenerate(t *testing.T) {
	s := Synthetic{
		Examples:          200,
		Features:          9,
		Scale:             10,
		UpdateProbability: 0.05,
		Seed:              60,
	}
	data := Generate(s)
	require.NoError(t, data.Validate())

	m, n := data.Values.Dims()
	assert.Equal(t, 200, m)
	assert.Equal(t, 9, n)
	assert.Equal(t, "example 1", data.ExampleNames[0])
	assert.Equal(t, "feature 9", data.FeatureNames[8])

	noClass := 0
	for _, label := range data.Labels {
		assert.Contains(t, []string{"0", "1", "2", "3"}, label)
		if label == "0" {
			noClass++
		}
	}
	assert.GreaterOrEqual(t, noClass, 20)

	for _, v := range data.Values.Data() {
		assert.Equal(t, math.Round(v), v)
		assert.Greater(t, v, 0.0)
	}

	// the generator is reproducible
	again := Generate(s)
	assert.True(t, data.Values.Equal(again.Values))
	assert.Equal(t, data.Labels, again.Labels)
}

func TestLoad_MouseRetina(t *testing.T) {
	dir := t.TempDir()
	values := filepath.Join(dir, "values.txt.gz")
	gzipFile(t, values, []byte("gene\tcell_a\tcell_b\tcell_c\n"+
		"Rho\t5\t0\t1\n"+
		"Opn1mw\t0\t2\t0\n"))
	labels := filepath.Join(dir, "labels.txt")
	require.NoError(t, os.WriteFile(labels, []byte("cell_a\t24\ncell_c\t25\n\n"), 0644))

	d, err := Lookup("mouse retina")
	require.NoError(t, err)
	data, err := Load(d, Paths{
		Values: {model.Full.String(): values},
		Labels: {model.Full.String(): labels},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"cell_a", "cell_b", "cell_c"}, data.ExampleNames)
	assert.Equal(t, []string{"Rho", "Opn1mw"}, data.FeatureNames)
	assert.Equal(t, []string{"24", "0", "25"}, data.Labels)
	assert.Equal(t, 5.0, data.Values.At(0, 0))
	assert.Equal(t, 2.0, data.Values.At(1, 1))
	assert.Equal(t, 1.0, data.Values.At(2, 0))
	assert.Equal(t, 3, data.Values.NNZ())
}

func TestLoad_TCGA(t *testing.T) {
	dir := t.TempDir()
	values := filepath.Join(dir, "values.gz")
	gzipFile(t, values, []byte("sample\ts1\ts2\n"+
		"TP53\t0\t3\n"+
		"BRCA1\t1\t1.5849625\n"))

	d, err := Lookup("TCGA (Kallisto)")
	require.NoError(t, err)
	data, err := Load(d, Paths{Values: {model.Full.String(): values}})
	require.NoError(t, err)

	assert.Nil(t, data.Labels)
	assert.Equal(t, 0.0, data.Values.At(0, 0))
	assert.Equal(t, 7.0, data.Values.At(1, 0))
	assert.Equal(t, 1.0, data.Values.At(0, 1))
	assert.Equal(t, 2.0, data.Values.At(1, 1))
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	values := filepath.Join(dir, "values.gz")
	gzipFile(t, values, []byte("sample\ts1\ts2\nTP53\t0\n"))

	d, err := Lookup("TCGA (Kallisto)")
	require.NoError(t, err)
	_, err = Load(d, Paths{Values: {model.Full.String(): values}})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Load(d, Paths{})
	assert.ErrorIs(t, err, ErrResourceUnavailable)

	_, err = Load(Descriptor{Title: "other", Family: "pickle"}, Paths{})
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func idx(t *testing.T, p string, magic uint32, dims []uint32, content []byte) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, magic))
	for _, d := range dims {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, d))
	}
	buf.Write(content)
	gzipFile(t, p, buf.Bytes())
}

func TestLoad_MNIST(t *testing.T) {
	dir := t.TempDir()
	p := func(name string) string {
		return filepath.Join(dir, name)
	}
	idx(t, p("train-images"), idxImages, []uint32{2, 2, 2}, []byte{0, 255, 0, 0, 10, 0, 0, 20})
	idx(t, p("train-labels"), idxLabels, []uint32{2}, []byte{7, 1})
	idx(t, p("test-images"), idxImages, []uint32{1, 2, 2}, []byte{1, 1, 1, 1})
	idx(t, p("test-labels"), idxLabels, []uint32{1}, []byte{9})

	d, err := Lookup("MNIST (original)")
	require.NoError(t, err)
	data, err := Load(d, Paths{
		Values: {model.Training: p("train-images"), model.Test: p("test-images")},
		Labels: {model.Training: p("train-labels"), model.Test: p("test-labels")},
	})
	require.NoError(t, err)

	m, n := data.Values.Dims()
	assert.Equal(t, 3, m)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"7", "1", "9"}, data.Labels)
	assert.Equal(t, 255.0, data.Values.At(0, 1))
	assert.Equal(t, 20.0, data.Values.At(1, 3))
	assert.Equal(t, model.SplitIndices{
		model.Training: {Start: 0, Stop: 2},
		model.Test:     {Start: 2, Stop: 3},
	}, data.SplitIndices)
	assert.Equal(t, "pixel 4", data.FeatureNames[3])

	// labels and images have to agree
	idx(t, p("test-labels"), idxLabels, []uint32{2}, []byte{9, 9})
	_, err = Load(d, Paths{
		Values: {model.Training: p("train-images"), model.Test: p("test-images")},
		Labels: {model.Training: p("train-labels"), model.Test: p("test-labels")},
	})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestLoad_BinarisedMNIST(t *testing.T) {
	dir := t.TempDir()
	paths := Paths{Values: {}}
	content := map[string]string{
		model.Training:   "0 1 0\n1 1 0\n",
		model.Validation: "0 0 1\n",
		model.Test:       "1 0 0\n0 0 0\n",
	}
	for kind, c := range content {
		p := filepath.Join(dir, kind+".amat")
		require.NoError(t, os.WriteFile(p, []byte(c), 0644))
		paths[Values][kind] = p
	}

	d, err := Lookup("MNIST (binarised)")
	require.NoError(t, err)
	assert.Equal(t, []string{"binarise"}, d.Preprocessed)
	data, err := Load(d, paths)
	require.NoError(t, err)

	m, _ := data.Values.Dims()
	assert.Equal(t, 5, m)
	assert.Nil(t, data.Labels)
	assert.Equal(t, model.Range{Start: 2, Stop: 3}, data.SplitIndices[model.Validation])
	assert.Equal(t, model.Range{Start: 3, Stop: 5}, data.SplitIndices[model.Test])
	assert.Equal(t, 1.0, data.Values.At(2, 2))
}

func TestWords(t *testing.T) {
	ww := Words("Running dogs")
	assert.Equal(t, []string{"run", "dog"}, ww)

	ww = Words("In 1993, 3.5 dogs")
	assert.Len(t, ww, 4)
	assert.Equal(t, ww[1], ww[2])
}

func TestLoad_Newsgroups(t *testing.T) {
	var archive bytes.Buffer
	tw := tar.NewWriter(&archive)
	members := []struct {
		name string
		text string
	}{
		{"20news-bydate-train/sci.space/1", "Rockets and rockets"},
		{"20news-bydate-train/rec.autos/2", "Cars"},
		{"20news-bydate-test/sci.space/3", "A rocket"},
	}
	for _, member := range members {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     member.name,
			Mode:     0644,
			Size:     int64(len(member.text)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(member.text))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	p := filepath.Join(t.TempDir(), "newsgroups.tar.gz")
	gzipFile(t, p, archive.Bytes())

	d, err := Lookup("20 Newsgroups")
	require.NoError(t, err)
	data, err := Load(d, Paths{All: {model.Full.String(): p}})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, data.ExampleNames)
	assert.Equal(t, []string{"sci.space", "rec.autos", "sci.space"}, data.Labels)
	assert.Equal(t, model.Range{Start: 0, Stop: 2}, data.SplitIndices[model.Training])
	assert.Equal(t, model.Range{Start: 2, Stop: 3}, data.SplitIndices[model.Test])

	rocket := -1
	for j, w := range data.FeatureNames {
		if w == "rocket" {
			rocket = j
		}
	}
	require.GreaterOrEqual(t, rocket, 0)
	assert.Equal(t, 2.0, data.Values.At(0, rocket))
	assert.Equal(t, 1.0, data.Values.At(2, rocket))
}
