package labels

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var (
	ErrMissingSuperset = errors.New("label without superset class")
	ErrUnlabelled      = errors.New("data set is unlabelled")
)

// Set maps class names to ids and back.
// Ids follow the class order.
type Set struct {
	names []string
	ids   map[string]int
}

// NewSet builds the class set of the labels.
// Classes named in order come first and in that order, the rest follow in natural order.
func NewSet(labels []string, order []string) Set {
	unique := make(map[string]bool)
	for _, label := range labels {
		unique[label] = true
	}
	names := make([]string, 0, len(unique))
	for _, name := range order {
		if unique[name] {
			names = append(names, name)
			delete(unique, name)
		}
	}
	rest := make([]string, 0, len(unique))
	for name := range unique {
		rest = append(rest, name)
	}
	Sort(rest)
	names = append(names, rest...)

	ids := make(map[string]int, len(names))
	for i, name := range names {
		ids[name] = i
	}
	return Set{
		names: names,
		ids:   ids,
	}
}

// Len returns the number of classes.
func (s Set) Len() int {
	return len(s.names)
}

// Names returns the class names in id order.
func (s Set) Names() []string {
	return append([]string{}, s.names...)
}

// ID returns the id of the class.
func (s Set) ID(name string) (int, bool) {
	id, ok := s.ids[name]
	return id, ok
}

// Name returns the class name of the id.
func (s Set) Name(id int) (string, bool) {
	if id < 0 || id >= len(s.names) {
		return "", false
	}
	return s.names[id], true
}

// IDs maps every label to its class id.
func (s Set) IDs(labels []string) ([]int, error) {
	ids := make([]int, len(labels))
	for i, label := range labels {
		id, ok := s.ids[label]
		if !ok {
			return nil, fmt.Errorf("unknown class '%s'", label)
		}
		ids[i] = id
	}
	return ids, nil
}

// Sort sorts class names numerically when they are all integers, and lexically otherwise.
func Sort(names []string) {
	numbers := make([]int, len(names))
	for i, name := range names {
		n, err := strconv.Atoi(name)
		if err != nil {
			sort.Strings(names)
			return
		}
		numbers[i] = n
	}
	sort.Sort(numeric{names: names, numbers: numbers})
}

type numeric struct {
	names   []string
	numbers []int
}

func (n numeric) Len() int           { return len(n.names) }
func (n numeric) Less(i, j int) bool { return n.numbers[i] < n.numbers[j] }
func (n numeric) Swap(i, j int) {
	n.names[i], n.names[j] = n.names[j], n.names[i]
	n.numbers[i], n.numbers[j] = n.numbers[j], n.numbers[i]
}

// Infer marks a superset derived from the leading words of every label.
const Infer = "infer"

var leadingWords = regexp.MustCompile(`^( ?[A-Za-z])+`)

// Superset groups labels into superset classes.
type Superset struct {
	// Infer derives the superset class from the leading alphabetic words of the label.
	Infer bool
	// Classes maps every superset class to the labels it groups.
	Classes map[string][]string
}

// Empty checks if the superset defines no grouping at all.
func (s Superset) Empty() bool {
	return !s.Infer && len(s.Classes) == 0
}

// Labels maps every label to its superset class.
// A label without a superset class is an error.
func (s Superset) Labels(labels []string) ([]string, error) {
	if s.Empty() || labels == nil {
		return nil, nil
	}
	superset := make([]string, len(labels))
	if s.Infer {
		for i, label := range labels {
			match := leadingWords.FindString(label)
			if match == "" {
				return nil, fmt.Errorf("cannot infer superset class of '%s': %w", label, ErrMissingSuperset)
			}
			superset[i] = match
		}
		return superset, nil
	}
	reverse := make(map[string]string)
	for class, members := range s.Classes {
		for _, member := range members {
			reverse[member] = class
		}
	}
	for i, label := range labels {
		class, ok := reverse[label]
		if !ok {
			return nil, fmt.Errorf("'%s': %w", label, ErrMissingSuperset)
		}
		superset[i] = class
	}
	return superset, nil
}

// Probabilities returns the relative frequency of every class, leaving out the excluded ones.
// Classes that never occur are left out.
func Probabilities(labels []string, excluded []string) (map[string]float64, error) {
	if labels == nil {
		return nil, ErrUnlabelled
	}
	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[e] = true
	}
	counts := make(map[string]int)
	total := 0
	for _, label := range labels {
		if skip[label] {
			continue
		}
		counts[label]++
		total++
	}
	probabilities := make(map[string]float64, len(counts))
	for class, count := range counts {
		probabilities[class] = float64(count) / float64(total)
	}
	return probabilities, nil
}
