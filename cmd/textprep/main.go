package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/cognicore/textprep/pkg/textprep"
	"github.com/cognicore/textprep/pkg/textprep/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Config file (required)")
		inputPath  = flag.String("input", "", "Override input path")
		outDir     = flag.String("out", "", "Override output directory")
		dev        = flag.Bool("dev", false, "Human-readable log output")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}

	logger, err := buildLogger(*dev)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	runner, err := textprep.New(textprep.Options{Config: cfg, Logger: logger})
	if err != nil {
		logger.Fatal("build runner", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := runner.Run(ctx)
	if err != nil {
		logger.Fatal("run failed", zap.Error(err))
	}

	logger.Info("exported",
		zap.String("run_id", res.RunID),
		zap.String("stamp", res.Stamp),
		zap.Int("rows", res.Rows),
		zap.String("lemmas", res.LemmaFile),
		zap.String("manifest", res.ManifestFile))
}

func buildLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
