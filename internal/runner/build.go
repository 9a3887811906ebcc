package runner

import (
	"context"

	"github.com/jmylchreest/truckscout/internal/config"
	"github.com/jmylchreest/truckscout/internal/crawler"
	"github.com/jmylchreest/truckscout/internal/images"
	"github.com/jmylchreest/truckscout/internal/listing"
	"github.com/jmylchreest/truckscout/internal/logger"
	"github.com/jmylchreest/truckscout/internal/normalize"
	"github.com/jmylchreest/truckscout/internal/output"
	"github.com/jmylchreest/truckscout/internal/storage"
	"github.com/jmylchreest/truckscout/pkg/fetcher"
)

// Build wires a Runner from configuration.
func Build(ctx context.Context, cfg config.Config) (*Runner, error) {
	maxBody, err := cfg.MaxBodyBytes()
	if err != nil {
		return nil, err
	}

	gw := fetcher.NewGateway(fetcher.Config{
		BaseURL:           cfg.BaseURL,
		CDNPrefix:         cfg.CDNPrefix,
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Timeout,
		MaxBodySize:       maxBody,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})

	numbers, err := normalize.NewParser(normalize.Format(cfg.NumberFormat))
	if err != nil {
		return nil, err
	}

	sampler, err := crawler.NewSampler(cfg.Sampling, cfg.Seed)
	if err != nil {
		return nil, err
	}

	ext := listing.New(gw, listing.NewParser(numbers), images.NewDownloader(gw, cfg.OutputDir), listing.Config{
		BaseURL:      cfg.BaseURL,
		MainCategory: cfg.MainCategory,
		MaxImages:    cfg.MaxImages,
	})

	var sink Sink
	var closers []func()
	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sink = pg
		closers = append(closers, pg.Close)
		logger.DebugContext(ctx, "postgres sink enabled")
	}

	r := New(gw, ext, sampler, sink, Config{
		StartPath:  cfg.StartPath,
		OutputDir:  cfg.OutputDir,
		OutputFile: cfg.OutputFile,
		Format:     output.Format(cfg.Format),
	})
	r.closers = closers

	logger.DebugContext(ctx, "runner built",
		"fetcher", gw.Type(),
		"numbers", cfg.NumberFormat,
		"sampling", sampler.Name(),
		"max_images", cfg.MaxImages)
	return r, nil
}
