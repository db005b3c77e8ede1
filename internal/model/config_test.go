package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalise(t *testing.T) {

	type test struct {
		input  string
		output string
	}

	tests := map[string]test{
		"plain": {
			input:  "gini",
			output: "gini",
		},
		"upper-case": {
			input:  "Mouse Retina",
			output: "mouse_retina",
		},
		"separators": {
			input:  "keep-highest/gini",
			output: "keep_highest_gini",
		},
		"brackets": {
			input:  "Amacrine (AC), $x$",
			output: "amacrine_ac_x",
		},
		"empty": {
			input:  "",
			output: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.output, Normalise(tt.input))
		})
	}
}

func TestConfiguration(t *testing.T) {
	cfg := NewConfiguration()
	assert.True(t, cfg.Empty())
	assert.Equal(t, DefaultSplitFraction, cfg.Split.Fraction)
	assert.Equal(t, DefaultSaveAfter, cfg.SaveAfter)

	binarised := cfg.WithPreprocessing("binarise")
	assert.True(t, binarised.Binarised())
	assert.False(t, binarised.Empty())
	// the original is left untouched
	assert.True(t, cfg.Empty())

	filtered := cfg.WithExampleFilter("remove", "No class")
	assert.Equal(t, []string{"No class"}, filtered.ExampleFilter.Parameters)
	assert.False(t, filtered.Empty())
}

func TestSplitIndices(t *testing.T) {
	s := SplitIndices{
		Training: {Start: 0, Stop: 3},
		Test:     {Start: 3, Stop: 5},
	}
	assert.False(t, s.Complete())
	assert.Equal(t, []int{3, 4}, s[Test].Indices())

	c := s.Copy()
	c[Validation] = Range{Start: 2, Stop: 3}
	assert.True(t, c.Complete())
	assert.False(t, s.Complete())
	assert.Equal(t, 0, Range{Start: 4, Stop: 2}.Len())
}
