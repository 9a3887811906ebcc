package listing

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/truckscout/internal/logger"
	"github.com/jmylchreest/truckscout/pkg/fetcher"
)

// AJAX endpoints behind the detail page.
const (
	PhonePath  = "/inquiry/listing-inquiry/get-ajax-form"
	ImagesPath = "/listing/display/ajax-listing-modal"
)

// ImageStore persists downloaded images for a listing.
type ImageStore interface {
	DownloadAll(ctx context.Context, urls []string, folder string) ([]string, error)
}

// Config holds extractor configuration.
type Config struct {
	BaseURL      string // Prefix for the record href
	MainCategory string // mainCategory parameter of the image modal
	MaxImages    int    // High-definition images kept per listing
}

// DefaultConfig returns the settings for truckscout24.de.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://www.truckscout24.de",
		MainCategory: "7_Transportfahrzeuge,Nutzfahrzeuge",
		MaxImages:    3,
	}
}

// Extractor assembles Records from the detail page and its AJAX fragments.
type Extractor struct {
	fetcher fetcher.Fetcher
	parser  *Parser
	images  ImageStore
	config  Config
}

// New creates an Extractor. images may be nil to skip downloading.
func New(f fetcher.Fetcher, parser *Parser, images ImageStore, cfg Config) *Extractor {
	if parser == nil {
		parser = NewParser(nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.MainCategory == "" {
		cfg.MainCategory = DefaultConfig().MainCategory
	}
	if cfg.MaxImages < 0 {
		cfg.MaxImages = 0
	}
	return &Extractor{
		fetcher: f,
		parser:  parser,
		images:  images,
		config:  cfg,
	}
}

// Extract fetches the listing at href and builds its Record.
//
// Failures on the detail page, the id and the image downloads abort;
// the phone and gallery lookups degrade to empty values.
func (e *Extractor) Extract(ctx context.Context, href string) (Record, error) {
	ctx = logger.NewContext(ctx, "href", href)
	logger.DebugContext(ctx, "extracting listing")
	start := time.Now()

	resp, err := e.fetcher.Fetch(ctx, href, nil)
	if err != nil {
		return Record{}, fmt.Errorf("fetch listing %s: %w", href, err)
	}

	rec, err := e.parser.Parse(resp.Text())
	if err != nil {
		return Record{}, fmt.Errorf("parse listing %s: %w", href, err)
	}
	rec.Href = e.absolute(href)
	ctx = logger.NewContext(ctx, "id", rec.ID)

	if phone, err := e.FetchPhone(ctx, rec.ID); err != nil {
		logger.WarnContext(ctx, "phone lookup failed", "error", err)
	} else {
		rec.Phone = phone
	}

	urls, err := e.FetchImageURLs(ctx, rec.ID)
	if err != nil {
		logger.WarnContext(ctx, "image gallery lookup failed", "error", err)
		urls = nil
	}

	if e.images != nil {
		if _, err := e.images.DownloadAll(ctx, urls, strconv.FormatInt(rec.ID, 10)); err != nil {
			return Record{}, fmt.Errorf("download images for %d: %w", rec.ID, err)
		}
	}
	rec.Images = urls

	if err := rec.Validate(); err != nil {
		return Record{}, err
	}

	logger.InfoContext(ctx, "extracted",
		"price", rec.Price,
		"mileage", rec.Mileage,
		"power", rec.Power,
		"images", len(urls),
		"duration", time.Since(start).Round(time.Millisecond))
	return rec, nil
}

// FetchPhone queries the phone-reveal fragment for the listing.
func (e *Extractor) FetchPhone(ctx context.Context, id int64) (string, error) {
	resp, err := e.fetcher.Fetch(ctx, PhonePath, PhoneParams(id))
	if err != nil {
		return "", err
	}
	return ParsePhone(resp.Text())
}

// FetchImageURLs queries the gallery fragment and returns the
// high-definition image URLs to download.
func (e *Extractor) FetchImageURLs(ctx context.Context, id int64) ([]string, error) {
	resp, err := e.fetcher.Fetch(ctx, ImagesPath, ImageParams(id, e.config.MainCategory))
	if err != nil {
		return nil, err
	}
	return ParseImageURLs(resp.Text(), e.config.MaxImages)
}

// PhoneParams returns the form parameters the site sends when a visitor
// asks for the seller's number.
func PhoneParams(id int64) url.Values {
	v := url.Values{}
	v.Set("listing_id", strconv.FormatInt(id, 10))
	v.Set("messageType", "CALLBACK")
	v.Set("event_source", "CALL_BACK_PROVIDER_INFO_NUMBER")
	v.Set("event_context", "LISTING_DETAIL")
	v.Set("action_path", "/inquiry/listing-inquiry/submit")
	v.Set("validation_path", "/inquiry/listing-inquiry/validate")
	v.Set("revoke_path", "/inquiry/listing-inquiry/revoke")
	return v
}

// ImageParams returns the parameters of the gallery modal request.
func ImageParams(id int64, mainCategory string) url.Values {
	v := url.Values{}
	v.Set("id", strconv.FormatInt(id, 10))
	v.Set("eventContext", "LISTING_DETAIL")
	v.Set("mainCategory", mainCategory)
	return v
}

func (e *Extractor) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(e.config.BaseURL, "/") + href
}
