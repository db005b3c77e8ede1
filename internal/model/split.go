package model

const (
	Training   = "training"
	Validation = "validation"
	Test       = "test"
)

// Subsets lists the split subset names in order.
var Subsets = []string{Training, Validation, Test}

// Range is a half-open interval of example indices.
type Range struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	if r.Stop < r.Start {
		return 0
	}
	return r.Stop - r.Start
}

// Indices expands the range into its indices.
func (r Range) Indices() []int {
	ii := make([]int, 0, r.Len())
	for i := r.Start; i < r.Stop; i++ {
		ii = append(ii, i)
	}
	return ii
}

// SplitIndices maps a subset name to its precomputed example range.
type SplitIndices map[string]Range

// Complete checks if all three subsets are present.
func (s SplitIndices) Complete() bool {
	for _, name := range Subsets {
		if _, ok := s[name]; !ok {
			return false
		}
	}
	return true
}

// Copy returns an independent copy of the split indices.
func (s SplitIndices) Copy() SplitIndices {
	if s == nil {
		return nil
	}
	c := make(SplitIndices, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}
