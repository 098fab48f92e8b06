package main

import (
	"time"

	"github.com/joho/godotenv"
	"price-insights-go/internal/config"
	"price-insights-go/internal/dataset"
	"price-insights-go/internal/logger"
	"price-insights-go/internal/pipeline"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New().WithRun("").WithField("service", "price-insights-go")
	log.Info("starting pipeline run")

	cfg, err := config.FromEnv()
	if err != nil {
		log.WithField("error", err.Error()).Fatal("invalid configuration")
	}
	log.WithField("segment_base", string(cfg.SegmentBase)).Info("configuration loaded")

	paths, err := dataset.Discover(cfg.InputDir)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("no inputs")
	}
	log.WithField("files", len(paths)).Info("input files discovered")

	records, err := dataset.Load(paths)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("failed to load inputs")
	}
	log.WithField("rows", len(records)).Info("inputs loaded")

	start := time.Now()
	res, err := pipeline.Run(cfg, records)
	if err != nil {
		log.WithField("error", err.Error()).Fatal("pipeline failed")
	}
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("computation finished")

	if err := dataset.WriteOutputs(cfg.OutputDir, cfg, res); err != nil {
		log.WithField("error", err.Error()).Fatal("failed to write outputs")
	}
	log.WithField("output_dir", cfg.OutputDir).Info("run complete")
}
