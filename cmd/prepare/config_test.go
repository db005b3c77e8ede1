package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drakos74/free-data/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {

	type test struct {
		content string
		config  Config
		err     bool
	}

	tests := map[string]test{
		"empty": {
			config: defaultConfig(),
		},
		"full": {
			content: `
dataset: mouse retina
binarise: true
preprocessing: [normalise]
feature_selection:
  method: keep_highest_variances
  parameter: 500
example_filter:
  method: remove
  parameters: [Rods]
split:
  method: random
  fraction: 0.8
save_after: 1m
`,
			config: Config{
				Dataset:  "mouse retina",
				Binarise: true,
				Configuration: model.Configuration{
					PreprocessingMethods: []string{"normalise"},
					FeatureSelection:     model.FeatureSelection{Method: "keep_highest_variances", Parameter: model.Float(500)},
					ExampleFilter:        model.ExampleFilter{Method: "remove", Parameters: []string{"Rods"}},
					Split:                model.Split{Method: "random", Fraction: 0.8},
					SaveAfter:            time.Minute,
				},
			},
		},
		"defaults kept": {
			content: `dataset: TCGA (Kallisto)`,
			config: Config{
				Dataset:       "TCGA (Kallisto)",
				Configuration: model.NewConfiguration(),
			},
		},
		"invalid fraction": {
			content: `split: {fraction: 1.5}`,
			err:     true,
		},
		"invalid yaml": {
			content: `dataset: [`,
			err:     true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := parseConfig([]byte(tt.content))
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.config, cfg)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)

	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("dataset: development\nbinarise: true\n"), 0644))
	cfg, err = loadConfig(p)
	require.NoError(t, err)
	assert.True(t, cfg.Binarise)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	cfg := defaultConfig()
	cfg.PreprocessingMethods = []string{"normalise"}
	cfg.Binarise = true
	assert.NoError(t, run(cfg, t.TempDir()))
}
