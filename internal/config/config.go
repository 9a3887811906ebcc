// Package config loads and validates run settings.
//
// Values come from (highest priority first) command-line flags bound by the
// CLI, TRUCKSCOUT_* environment variables, a YAML config file and the
// defaults below, which reproduce a plain run against truckscout24.de.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds everything a run needs.
type Config struct {
	BaseURL   string `mapstructure:"base_url" validate:"required,url"`
	CDNPrefix string `mapstructure:"cdn_prefix" validate:"required"`
	StartPath string `mapstructure:"start_path" validate:"required,startswith=/"`

	OutputDir  string `mapstructure:"output_dir" validate:"required"`
	OutputFile string `mapstructure:"output_file" validate:"required"`
	Format     string `mapstructure:"format" validate:"oneof=json jsonl yaml"`

	Sampling     string `mapstructure:"sampling" validate:"oneof=one per-page all first"`
	Seed         int64  `mapstructure:"seed"` // 0 = seeded from the clock
	NumberFormat string `mapstructure:"number_format" validate:"oneof=locale legacy"`
	MaxImages    int    `mapstructure:"max_images" validate:"gte=0,lte=20"`
	MainCategory string `mapstructure:"main_category" validate:"required"`

	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	MaxBodySize       string        `mapstructure:"max_body_size"`

	DatabaseURL string `mapstructure:"database_url"`
}

var defaults = map[string]any{
	"base_url":            "https://www.truckscout24.de",
	"cdn_prefix":          "https://cdn",
	"start_path":          "/transporter/gebraucht/kuehl-iso-frischdienst/renault",
	"output_dir":          "data",
	"output_file":         "data.json",
	"format":              "json",
	"sampling":            "one",
	"seed":                0,
	"number_format":       "locale",
	"max_images":          3,
	"main_category":       "7_Transportfahrzeuge,Nutzfahrzeuge",
	"timeout":             30 * time.Second,
	"user_agent":          "",
	"requests_per_second": 0.0,
	"max_body_size":       "10MB",
	"database_url":        "",
}

// SetDefaults registers the default for every key on v.
func SetDefaults(v *viper.Viper) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		// defaults are static; failing here is a programming error
		panic(err)
	}
	return cfg
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Field(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.MaxBodyBytes(); err != nil {
		return err
	}
	return nil
}

// MaxBodyBytes parses MaxBodySize ("10MB", "512KiB"). Empty or "0" means
// no override.
func (c Config) MaxBodyBytes() (int, error) {
	s := strings.TrimSpace(c.MaxBodySize)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max_body_size %q: %w", c.MaxBodySize, err)
	}
	return int(n), nil
}
