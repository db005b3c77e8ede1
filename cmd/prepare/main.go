package main

import (
	"flag"
	"os"
	"time"

	"github.com/drakos74/free-data/internal/dataset"
	"github.com/drakos74/free-data/internal/metrics"
	"github.com/drakos74/free-data/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const dirEnv = "FREE_DATA_DIR"

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	configPath := flag.String("config", "", "yaml file with the dataset configuration")
	name := flag.String("dataset", "", "dataset to prepare, overrides the config")
	dir := flag.String("dir", "", "base directory of the datasets")
	level := flag.String("level", zerolog.InfoLevel.String(), "log level")
	metricsPath := flag.String("metrics", "", "file to write the metrics into")
	flag.Parse()

	if l, err := zerolog.ParseLevel(*level); err == nil {
		zerolog.SetGlobalLevel(l)
	} else {
		log.Warn().Str("level", *level).Err(err).Msg("unknown log level")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	if *name != "" {
		cfg.Dataset = *name
	}

	directory := storage.DefaultDir
	if d := os.Getenv(dirEnv); d != "" {
		directory = d
	}
	if *dir != "" {
		directory = *dir
	}

	start := time.Now()
	err = run(cfg, directory)
	if *metricsPath != "" {
		if merr := metrics.Write(*metricsPath); merr != nil {
			log.Error().Err(merr).Str("path", *metricsPath).Msg("could not write metrics")
		}
	}
	if err != nil {
		log.Fatal().Err(err).Str("data-set", cfg.Dataset).Msg("could not prepare data set")
	}
	log.Info().Str("data-set", cfg.Dataset).Dur("duration", time.Since(start)).Msg("data set prepared")
}

func run(cfg Config, directory string) error {
	d, err := dataset.New(cfg.Dataset, cfg.Configuration, dataset.WithDirectory(directory))
	if err != nil {
		return err
	}
	if err := d.Load(); err != nil {
		return err
	}
	if err := d.Preprocess(); err != nil {
		return err
	}
	if cfg.Binarise {
		if err := d.Binarise(); err != nil {
			return err
		}
	}
	if d.HasLabels() {
		probabilities, err := d.ClassProbabilities()
		if err != nil {
			return err
		}
		literature := d.LiteratureProbabilities()
		palette := d.ClassPalette()
		for class, p := range probabilities {
			e := log.Debug().Str("class", class).Float64("probability", p)
			if l, ok := literature[class]; ok {
				e = e.Float64("literature", l)
			}
			if c, ok := palette[class]; ok {
				e = e.Floats64("colour", c[:])
			}
			e.Msg("class probability")
		}
	}
	training, validation, test, err := d.Split(cfg.Split.Method, cfg.Split.Fraction)
	if err != nil {
		return err
	}
	for _, subset := range []*dataset.Dataset{training, validation, test} {
		if !subset.HasLabels() {
			continue
		}
		ids, err := subset.ClassIDs()
		if err != nil {
			return err
		}
		counts := make([]int, d.Classes.Len())
		if d.SupersetLabels != nil {
			counts = make([]int, d.SupersetClasses.Len())
		}
		for _, id := range ids {
			counts[id]++
		}
		log.Debug().Str("subset", string(subset.Kind)).Ints("class-counts", counts).Msg("class balance")
	}
	log.Info().
		Int("features", d.NumberOfFeatures()).
		Int("training", training.NumberOfExamples()).
		Int("validation", validation.NumberOfExamples()).
		Int("test", test.NumberOfExamples()).
		Msg("subsets")
	return nil
}
