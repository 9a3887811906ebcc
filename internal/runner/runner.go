// Package runner drives a single scrape: purge the output root, scan the
// category's result pages, sample listings, extract them and write the
// results artifact.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmylchreest/truckscout/internal/crawler"
	"github.com/jmylchreest/truckscout/internal/listing"
	"github.com/jmylchreest/truckscout/internal/logger"
	"github.com/jmylchreest/truckscout/internal/output"
	"github.com/jmylchreest/truckscout/pkg/fetcher"
)

// ErrNoListings is returned when no result page yielded a listing link.
var ErrNoListings = errors.New("no listings found")

// Result is the artifact written at the end of a run.
type Result struct {
	Ads []listing.Record `json:"ads" yaml:"ads"`
}

// Extractor builds a Record for a listing href.
type Extractor interface {
	Extract(ctx context.Context, href string) (listing.Record, error)
}

// Sink receives the extracted ads before the artifact is written.
type Sink interface {
	SaveAds(ctx context.Context, ads []listing.Record) (int, error)
}

// Config holds runner configuration.
type Config struct {
	StartPath  string        // Category landing page
	OutputDir  string        // Purged and recreated on every run
	OutputFile string        // Artifact name inside OutputDir
	Format     output.Format // Artifact format
}

// Runner orchestrates one run.
type Runner struct {
	fetcher   fetcher.Fetcher
	extractor Extractor
	sampler   crawler.Sampler
	sink      Sink
	config    Config
	closers   []func()
}

// New creates a Runner. sink may be nil.
func New(f fetcher.Fetcher, ext Extractor, sampler crawler.Sampler, sink Sink, cfg Config) *Runner {
	if cfg.OutputFile == "" {
		cfg.OutputFile = "data.json"
	}
	if cfg.Format == "" {
		cfg.Format = output.FormatJSON
	}
	return &Runner{
		fetcher:   f,
		extractor: ext,
		sampler:   sampler,
		sink:      sink,
		config:    cfg,
	}
}

// ArtifactPath returns where the results file is written.
func (r *Runner) ArtifactPath() string {
	return filepath.Join(r.config.OutputDir, r.config.OutputFile)
}

// Run executes the scrape. On failure the output root is left empty, so
// image folders never outlive a run that produced no artifact.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	logger.InfoContext(ctx, "run starting",
		"start", r.config.StartPath,
		"output", r.config.OutputDir,
		"sampling", r.sampler.Name())

	if err := resetDir(r.config.OutputDir); err != nil {
		return Result{}, err
	}

	res, err := r.run(ctx)
	if err != nil {
		if rerr := resetDir(r.config.OutputDir); rerr != nil {
			logger.WarnContext(ctx, "cleanup after failed run", "error", rerr)
		}
		return Result{}, err
	}

	logger.InfoContext(ctx, "run complete",
		"ads", len(res.Ads),
		"artifact", r.ArtifactPath(),
		"duration", time.Since(start).Round(time.Millisecond))
	return res, nil
}

func (r *Runner) run(ctx context.Context) (Result, error) {
	landing, err := r.fetcher.Fetch(ctx, r.config.StartPath, nil)
	if err != nil {
		return Result{}, fmt.Errorf("fetch start page: %w", err)
	}

	pageLinks, err := crawler.ScanPaginationLinks(landing.Text())
	if err != nil {
		return Result{}, fmt.Errorf("scan pagination: %w", err)
	}
	logger.InfoContext(ctx, "pagination scanned", "pages", len(pageLinks))

	pages, err := r.scanPages(ctx, landing.Text(), pageLinks)
	if err != nil {
		return Result{}, err
	}

	hrefs := r.sampler.Sample(pages)
	if len(hrefs) == 0 {
		return Result{}, ErrNoListings
	}
	logger.DebugContext(ctx, "listings sampled", "count", len(hrefs), "hrefs", hrefs)

	res := Result{Ads: make([]listing.Record, 0, len(hrefs))}
	for _, href := range hrefs {
		rec, err := r.extractor.Extract(ctx, href)
		if err != nil {
			return Result{}, err
		}
		res.Ads = append(res.Ads, rec)
	}

	if r.sink != nil {
		n, err := r.sink.SaveAds(ctx, res.Ads)
		if err != nil {
			return Result{}, fmt.Errorf("store ads: %w", err)
		}
		logger.InfoContext(ctx, "ads stored", "count", n)
	}

	if err := output.WriteFile(r.ArtifactPath(), r.config.Format, res); err != nil {
		return Result{}, fmt.Errorf("write artifact: %w", err)
	}
	return res, nil
}

// scanPages collects the listing hrefs of the landing page followed by
// every pagination page. A page that cannot be fetched is skipped.
func (r *Runner) scanPages(ctx context.Context, landing string, pageLinks []string) ([][]string, error) {
	pages := make([][]string, 0, len(pageLinks)+1)

	items, err := crawler.ScanItemLinks(landing)
	if err != nil {
		return nil, fmt.Errorf("scan start page: %w", err)
	}
	pages = append(pages, items)

	for _, link := range pageLinks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := r.fetcher.Fetch(ctx, link, nil)
		if err != nil {
			logger.WarnContext(ctx, "skipping result page", "page", link, "error", err)
			continue
		}
		items, err := crawler.ScanItemLinks(resp.Text())
		if err != nil {
			logger.WarnContext(ctx, "skipping result page", "page", link, "error", err)
			continue
		}
		logger.DebugContext(ctx, "result page scanned", "page", link, "items", len(items))
		pages = append(pages, items)
	}
	return pages, nil
}

// Close releases the resources acquired by Build.
func (r *Runner) Close() error {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
	return r.fetcher.Close()
}

// resetDir removes dir with all its content and creates it again.
func resetDir(dir string) error {
	clean := filepath.Clean(dir)
	if dir == "" || clean == "/" || clean == "." {
		return fmt.Errorf("refusing to purge output directory %q", dir)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("purge output directory: %w", err)
	}
	if err := os.MkdirAll(clean, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}
