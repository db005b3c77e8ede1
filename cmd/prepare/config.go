package main

import (
	"fmt"
	"io/ioutil"

	"github.com/drakos74/free-data/internal/model"
	"gopkg.in/yaml.v3"
)

// Config is the run configuration of the prepare command.
type Config struct {
	Dataset  string `yaml:"dataset"`
	Binarise bool   `yaml:"binarise"`

	model.Configuration `yaml:",inline"`
}

// defaultConfig prepares the development dataset with the default split.
func defaultConfig() Config {
	return Config{
		Dataset:       "development",
		Configuration: model.NewConfiguration(),
	}
}

// parseConfig parses the yaml content on top of the defaults.
func parseConfig(b []byte) (Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse config: %w", err)
	}
	if cfg.Split.Fraction <= 0 || cfg.Split.Fraction > 1 {
		return Config{}, fmt.Errorf("split fraction %v out of (0, 1]", cfg.Split.Fraction)
	}
	return cfg, nil
}

// loadConfig reads the config file, returning the defaults when there is none.
func loadConfig(path string) (Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read config '%s': %w", path, err)
	}
	return parseConfig(b)
}
