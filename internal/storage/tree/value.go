package tree

import (
	"sort"
	"strings"

	"github.com/drakos74/free-data/internal/model"
	"github.com/drakos74/free-data/internal/sparse"
)

// Kind enumerates the value types a cache tree can hold.
type Kind int32

const (
	NoneKind Kind = iota + 1
	TextKind
	SparseKind
	FloatsKind
	IntsKind
	StringsKind
	GroupKind
	SplitKind
)

func (k Kind) String() string {
	switch k {
	case NoneKind:
		return "none"
	case TextKind:
		return "text"
	case SparseKind:
		return "sparse"
	case FloatsKind:
		return "floats"
	case IntsKind:
		return "ints"
	case StringsKind:
		return "strings"
	case GroupKind:
		return "group"
	case SplitKind:
		return "split"
	}
	return "unknown"
}

// GroupSuffix is the suffix every nested group name must carry.
const GroupSuffix = "set"

// Value is any value a cache tree can hold.
// The set of implementations is closed.
type Value interface {
	Kind() Kind
}

// None marks an absent value.
type None struct{}

// Text is a string scalar.
type Text string

// Sparse wraps a sparse matrix.
type Sparse struct {
	Matrix *sparse.Matrix
}

// Floats is a numeric array.
type Floats []float64

// Ints is an integer array.
type Ints []int

// Strings is a string array.
type Strings []string

// Split holds precomputed split indices.
type Split model.SplitIndices

// Group is a named collection of values.
type Group map[string]Value

func (None) Kind() Kind    { return NoneKind }
func (Text) Kind() Kind    { return TextKind }
func (Sparse) Kind() Kind  { return SparseKind }
func (Floats) Kind() Kind  { return FloatsKind }
func (Ints) Kind() Kind    { return IntsKind }
func (Strings) Kind() Kind { return StringsKind }
func (Group) Kind() Kind   { return GroupKind }
func (Split) Kind() Kind   { return SplitKind }

// Of wraps a possibly nil matrix, mapping nil to None.
func Of(m *sparse.Matrix) Value {
	if m == nil {
		return None{}
	}
	return Sparse{Matrix: m}
}

// OfStrings wraps a possibly nil string slice, mapping nil to None.
func OfStrings(ss []string) Value {
	if ss == nil {
		return None{}
	}
	return Strings(ss)
}

// Names returns the group keys in sorted order.
func (g Group) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Matrix returns the named matrix, if present.
func (g Group) Matrix(name string) (*sparse.Matrix, bool) {
	if v, ok := g[name].(Sparse); ok && v.Matrix != nil {
		return v.Matrix, true
	}
	return nil, false
}

// Strings returns the named string array, if present.
func (g Group) Strings(name string) ([]string, bool) {
	v, ok := g[name].(Strings)
	return v, ok
}

// Floats returns the named numeric array, if present.
func (g Group) Floats(name string) ([]float64, bool) {
	v, ok := g[name].(Floats)
	return v, ok
}

// Ints returns the named integer array, if present.
func (g Group) Ints(name string) ([]int, bool) {
	v, ok := g[name].(Ints)
	return v, ok
}

// Text returns the named string scalar, if present.
func (g Group) Text(name string) (string, bool) {
	v, ok := g[name].(Text)
	return string(v), ok
}

// Split returns the named split indices, if present.
func (g Group) Split(name string) (model.SplitIndices, bool) {
	v, ok := g[name].(Split)
	return model.SplitIndices(v), ok
}

// Group returns the named nested group, if present.
func (g Group) Group(name string) (Group, bool) {
	v, ok := g[name].(Group)
	return v, ok
}

func isGroupName(name string) bool {
	return strings.HasSuffix(name, GroupSuffix)
}
