package source

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
	"github.com/kljensen/snowball/english"
)

var (
	digits = regexp.MustCompile(`\d+[\d.,\-()+]*`)
	words  = regexp.MustCompile(`[\w'\-]+`)
)

// document is a text document of a newsgroup.
type document struct {
	id    string
	group string
	text  string
}

// latin1 decodes latin-1 encoded bytes.
func latin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// Words splits the text into stemmed words, replacing numbers with a placeholder.
func Words(text string) []string {
	text = digits.ReplaceAllString(strings.ToLower(text), " DIGIT ")
	found := words.FindAllString(text, -1)
	stemmed := make([]string, len(found))
	for i, w := range found {
		stemmed[i] = english.Stem(w, false)
	}
	return stemmed
}

// BagOfWords counts the words of every document.
// The vocabulary is sorted, so that the feature order does not depend on the document order.
func BagOfWords(texts []string) (*sparse.Matrix, []string, error) {
	documents := make([][]string, len(texts))
	vocabulary := make(map[string]int)
	for i, text := range texts {
		documents[i] = Words(text)
		for _, w := range documents[i] {
			vocabulary[w] = 0
		}
	}
	distinct := make([]string, 0, len(vocabulary))
	for w := range vocabulary {
		distinct = append(distinct, w)
	}
	sort.Strings(distinct)
	for j, w := range distinct {
		vocabulary[w] = j
	}

	var ii, jj []int
	var vv []float64
	for i, ww := range documents {
		for _, w := range ww {
			ii = append(ii, i)
			jj = append(jj, vocabulary[w])
			vv = append(vv, 1)
		}
	}
	values, err := sparse.FromTriplets(len(texts), len(distinct), ii, jj, vv)
	if err != nil {
		return nil, nil, err
	}
	return values, distinct, nil
}

// readNewsgroups reads the documents of a by-date archive, grouped by their train or test kind.
func readNewsgroups(p string) (map[string][]document, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("could not open '%s': %w", p, err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("could not decompress '%s': %v: %w", p, err, ErrFormat)
	}
	defer zr.Close()

	documents := make(map[string][]document)
	tr := tar.NewReader(zr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read archive '%s': %v: %w", p, err, ErrFormat)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		parts := strings.Split(path.Clean(header.Name), "/")
		if len(parts) != 3 {
			return nil, fmt.Errorf("unexpected archive member '%s': %w", header.Name, ErrFormat)
		}
		b, err := ioutil.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("could not read '%s': %v: %w", header.Name, err, ErrFormat)
		}
		kind := parts[0][strings.LastIndex(parts[0], "-")+1:]
		documents[kind] = append(documents[kind], document{
			id:    parts[2],
			group: parts[1],
			text:  latin1(b),
		})
	}
	return documents, nil
}

func loadNewsgroups(paths Paths) (Data, error) {
	p, err := required(paths, All, model.Full.String())
	if err != nil {
		return Data{}, err
	}
	documents, err := readNewsgroups(p)
	if err != nil {
		return Data{}, err
	}

	all := append(append([]document{}, documents["train"]...), documents["test"]...)
	mt := len(documents["train"])
	texts := make([]string, len(all))
	labels := make([]string, len(all))
	ids := make([]string, len(all))
	for i, d := range all {
		texts[i] = d.text
		labels[i] = d.group
		ids[i] = d.id
	}
	values, vocabulary, err := BagOfWords(texts)
	if err != nil {
		return Data{}, err
	}
	return Data{
		Values:       values,
		Labels:       labels,
		ExampleNames: ids,
		FeatureNames: vocabulary,
		SplitIndices: model.SplitIndices{
			model.Training: {Start: 0, Stop: mt},
			model.Test:     {Start: mt, Stop: len(all)},
		},
	}, nil
}
