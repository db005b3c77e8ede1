package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSet(t *testing.T) {

	type test struct {
		labels []string
		order  []string
		names  []string
	}

	tests := map[string]test{
		"numeric": {
			labels: []string{"10", "2", "1", "2"},
			names:  []string{"1", "2", "10"},
		},
		"lexical": {
			labels: []string{"Rods", "Cones", "No class"},
			names:  []string{"Cones", "No class", "Rods"},
		},
		"ordered": {
			labels: []string{"Rods", "Cones", "No class", "Bipolar"},
			order:  []string{"Rods", "Cones", "Missing"},
			names:  []string{"Rods", "Cones", "Bipolar", "No class"},
		},
		"empty": {
			names: []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := NewSet(tt.labels, tt.order)
			assert.Equal(t, tt.names, s.Names())
			assert.Equal(t, len(tt.names), s.Len())
			for i, n := range tt.names {
				id, ok := s.ID(n)
				assert.True(t, ok)
				assert.Equal(t, i, id)
				back, ok := s.Name(id)
				assert.True(t, ok)
				assert.Equal(t, n, back)
			}
		})
	}
}

func TestSet_IDs(t *testing.T) {
	s := NewSet([]string{"b", "a"}, nil)
	ids, err := s.IDs([]string{"a", "b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0}, ids)

	_, err = s.IDs([]string{"c"})
	assert.Error(t, err)

	_, ok := s.Name(5)
	assert.False(t, ok)
}

func TestSuperset_Labels(t *testing.T) {

	type test struct {
		superset Superset
		labels   []string
		output   []string
		err      error
	}

	retina := Superset{Classes: map[string][]string{
		"Rods":     {"1", "2"},
		"Cones":    {"3"},
		"No class": {"0"},
	}}

	tests := map[string]test{
		"mapping": {
			superset: retina,
			labels:   []string{"1", "3", "0", "2"},
			output:   []string{"Rods", "Cones", "No class", "Rods"},
		},
		"missing": {
			superset: retina,
			labels:   []string{"1", "4"},
			err:      ErrMissingSuperset,
		},
		"infer": {
			superset: Superset{Infer: true},
			labels:   []string{"Amacrine 12", "Bipolar cell 3", "Rods"},
			output:   []string{"Amacrine", "Bipolar cell", "Rods"},
		},
		"infer-failure": {
			superset: Superset{Infer: true},
			labels:   []string{"12"},
			err:      ErrMissingSuperset,
		},
		"empty": {
			superset: Superset{},
			labels:   []string{"1"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output, err := tt.superset.Labels(tt.labels)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.output, output)
		})
	}
}

func TestProbabilities(t *testing.T) {
	p, err := Probabilities([]string{"a", "b", "a", "x", "a"}, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 0.75, "b": 0.25}, p)

	_, err = Probabilities(nil, nil)
	assert.ErrorIs(t, err, ErrUnlabelled)
}

func TestPalette_Superset(t *testing.T) {
	p := Palette{
		"1": {0, 0, 1},
		"2": {0, 1, 1},
		"3": {1, 0, 0},
	}
	s := Superset{Classes: map[string][]string{
		"Rods":     {"1", "2"},
		"Cones":    {"3"},
		"No class": {"0"},
	}}
	superset := p.Superset(s)
	assert.Equal(t, Colour{0, 0.5, 1}, superset["Rods"])
	assert.Equal(t, Colour{1, 0, 0}, superset["Cones"])
	_, ok := superset["No class"]
	assert.False(t, ok)

	assert.Nil(t, p.Superset(Superset{Infer: true}))
}
