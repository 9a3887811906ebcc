package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/truckscout/internal/config"
	"github.com/jmylchreest/truckscout/internal/logger"
	"github.com/jmylchreest/truckscout/internal/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape listings into the output directory",
	Long: `Run purges the output directory, scans the start page and its
pagination, samples listings and writes one record per listing to the
results file. Each listing's photos go to <output-dir>/<id>/image-N.jpg.

Any failed detail page or image download aborts the run and leaves the
output directory empty. A result page that cannot be fetched is skipped.

Examples:
  # Default: one random listing
  truckscout run

  # One listing per result page, reproducible
  truckscout run --sampling per-page --seed 42

  # Also upsert the records into Postgres
  truckscout run --database-url postgres://localhost/truckscout`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

// flagBinding maps a flag to its configuration key.
type flagBinding struct {
	flag string
	key  string
}

var runBindings = []flagBinding{
	{"base-url", "base_url"},
	{"start-path", "start_path"},
	{"output-dir", "output_dir"},
	{"output-file", "output_file"},
	{"format", "format"},
	{"sampling", "sampling"},
	{"seed", "seed"},
	{"number-format", "number_format"},
	{"max-images", "max_images"},
	{"main-category", "main_category"},
	{"timeout", "timeout"},
	{"user-agent", "user_agent"},
	{"rps", "requests_per_second"},
	{"max-body-size", "max_body_size"},
	{"database-url", "database_url"},
}

func init() {
	rootCmd.AddCommand(runCmd)

	def := config.Default()
	flags := runCmd.Flags()

	// Site
	flags.String("base-url", def.BaseURL, "site origin")
	flags.String("start-path", def.StartPath, "category landing page")
	flags.String("main-category", def.MainCategory, "category sent with gallery requests")

	// Output
	flags.StringP("output-dir", "o", def.OutputDir, "output directory (purged on every run)")
	flags.String("output-file", def.OutputFile, "results file name inside the output directory")
	flags.String("format", def.Format, "results format: json, jsonl, yaml")

	// Selection
	flags.String("sampling", def.Sampling, "listing sampling: one, per-page, all, first")
	flags.Int64("seed", def.Seed, "random seed for sampling (0 = clock)")
	flags.String("number-format", def.NumberFormat, "number parsing: locale, legacy")
	flags.Int("max-images", def.MaxImages, "images downloaded per listing")

	// Fetch
	flags.Duration("timeout", 30*time.Second, "request timeout")
	flags.String("user-agent", "", "HTTP user agent (default: desktop Chrome)")
	flags.Float64("rps", 0, "max requests per second (0 = unlimited)")
	flags.String("max-body-size", def.MaxBodySize, "max response size, larger responses fail the request (e.g. 10MB, 0 = colly default)")

	// Storage
	flags.String("database-url", "", "Postgres DSN; when set, records are upserted into table ads")

	for _, b := range runBindings {
		_ = viper.BindPFlag(b.key, flags.Lookup(b.flag))
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded",
		"base_url", cfg.BaseURL,
		"start_path", cfg.StartPath,
		"output_dir", cfg.OutputDir,
		"sampling", cfg.Sampling,
		"number_format", cfg.NumberFormat)

	r, err := runner.Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() { _ = r.Close() }()

	if _, err := r.Run(ctx); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
