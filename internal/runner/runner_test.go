package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmylchreest/truckscout/internal/config"
	"github.com/jmylchreest/truckscout/internal/crawler"
	"github.com/jmylchreest/truckscout/internal/listing"
	"github.com/jmylchreest/truckscout/pkg/fetcher"
)

const startPath = "/transporter/gebraucht/kuehl-iso-frischdienst/renault"

type site struct {
	srv        *httptest.Server
	noListings bool
	detailCode int
	pageCode   int
}

func (s *site) searchPage(items ...string) string {
	body := `<html><body><section id="offer-list">`
	for _, it := range items {
		body += `<section class="grid-body"><a href="` + it + `">ad</a></section>`
	}
	body += `</section><section id="offer-list-pagination"><ul>
<li class="page-item"><a href="` + startPath + `?currentpage=1">1</a></li>
<li class="page-item"><a href="` + startPath + `?currentpage=2">2</a></li>
</ul></section></body></html>`
	return body
}

func (s *site) detailPage(id int) string {
	return fmt.Sprintf(`<html><body>
<section id="top-data">
  <h1 data-listing-id="%d">Renault Master</h1>
  <div class="d-flex"><span>Transporter</span><span>Renault Master</span></div>
  <div class="fs-5 max-content my-1 word-break fw-bold">€ 24.990,-</div>
</section>
<div id="properties">
  <dl><dt>Kilometerstand</dt><dd>148.500 km</dd></dl>
  <dl><dt>Leistung</dt><dd>110 kW (150 PS)</dd></dl>
</div>
</body></html>`, id)
}

func (s *site) galleryPage() string {
	body := `<div class="keen-slider keen-slider-uninitialized">`
	for i := 1; i <= 4; i++ {
		body += fmt.Sprintf(`<img src="%s/cdn/img/hdv/%d.jpg">`, s.srv.URL, i)
	}
	return body + `</div>`
}

func newSite(t *testing.T) *site {
	t.Helper()
	s := &site{}
	mux := http.NewServeMux()
	mux.HandleFunc(startPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("currentpage") == "2" {
			if s.pageCode != 0 {
				http.Error(w, "unavailable", s.pageCode)
				return
			}
			_, _ = w.Write([]byte(s.searchPage("/ad/101")))
			return
		}
		if s.noListings {
			_, _ = w.Write([]byte(s.searchPage()))
			return
		}
		_, _ = w.Write([]byte(s.searchPage("/ad/100")))
	})
	mux.HandleFunc("/ad/", func(w http.ResponseWriter, r *http.Request) {
		if s.detailCode != 0 {
			http.Error(w, "gone", s.detailCode)
			return
		}
		id := 100
		if r.URL.Path == "/ad/101" {
			id = 101
		}
		_, _ = w.Write([]byte(s.detailPage(id)))
	})
	mux.HandleFunc(listing.PhonePath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<ul class="list-group list-group-flush"><li><a href="tel:1">+49 89 123456</a></li></ul>`))
	})
	mux.HandleFunc(listing.ImagesPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(s.galleryPage()))
	})
	mux.HandleFunc("/cdn/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xd9})
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *site) config(t *testing.T, sampling string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = s.srv.URL
	cfg.CDNPrefix = s.srv.URL + "/cdn"
	cfg.StartPath = startPath
	cfg.OutputDir = filepath.Join(t.TempDir(), "data")
	cfg.Sampling = sampling
	cfg.Seed = 7
	return cfg
}

func build(t *testing.T, cfg config.Config) *Runner {
	t.Helper()
	r, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func readArtifact(t *testing.T, path string) Result {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode artifact: %v", err)
	}
	return res
}

// --- Run Tests ---

func TestRun_FirstListing(t *testing.T) {
	s := newSite(t)
	cfg := s.config(t, "first")
	r := build(t, cfg)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Ads) != 1 {
		t.Fatalf("expected 1 ad, got %d", len(res.Ads))
	}

	ad := readArtifact(t, filepath.Join(cfg.OutputDir, "data.json")).Ads[0]
	if ad.ID != 100 {
		t.Errorf("expected id 100, got %d", ad.ID)
	}
	if ad.Href != s.srv.URL+"/ad/100" {
		t.Errorf("unexpected href %q", ad.Href)
	}
	if ad.Price != 24990 || ad.Mileage != 148500 || ad.Power != 110 {
		t.Errorf("unexpected numbers: price=%d mileage=%d power=%d", ad.Price, ad.Mileage, ad.Power)
	}
	if ad.Phone != "+49 89 123456" {
		t.Errorf("unexpected phone %q", ad.Phone)
	}

	for i := 1; i <= 3; i++ {
		p := filepath.Join(cfg.OutputDir, "100", fmt.Sprintf("image-%d.jpg", i))
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "100", "image-4.jpg")); !os.IsNotExist(err) {
		t.Error("expected at most 3 images")
	}
}

func TestRun_AllListingsAcrossPages(t *testing.T) {
	s := newSite(t)
	cfg := s.config(t, "all")

	res, err := build(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Ads) != 2 {
		t.Fatalf("expected 2 ads, got %d", len(res.Ads))
	}
	if res.Ads[0].ID != 100 || res.Ads[1].ID != 101 {
		t.Errorf("expected ads in page order, got %d, %d", res.Ads[0].ID, res.Ads[1].ID)
	}
}

func TestRun_Twice(t *testing.T) {
	s := newSite(t)
	cfg := s.config(t, "one")
	r := build(t, cfg)

	stale := filepath.Join(cfg.OutputDir, "stale.txt")
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if _, err := r.Run(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("expected output root to be purged")
	}
}

func TestRun_DetailNotFoundAborts(t *testing.T) {
	s := newSite(t)
	s.detailCode = http.StatusNotFound
	cfg := s.config(t, "first")

	_, err := build(t, cfg).Run(context.Background())
	if !fetcher.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 HTTPStatusError, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, "data.json")); !os.IsNotExist(err) {
		t.Error("expected no artifact after a failed run")
	}
	entries, _ := os.ReadDir(cfg.OutputDir)
	if len(entries) != 0 {
		t.Errorf("expected empty output root, got %d entries", len(entries))
	}
}

func TestRun_NoListings(t *testing.T) {
	s := newSite(t)
	s.noListings = true
	s.pageCode = http.StatusInternalServerError
	cfg := s.config(t, "one")

	_, err := build(t, cfg).Run(context.Background())
	if !errors.Is(err, ErrNoListings) {
		t.Fatalf("expected ErrNoListings, got %v", err)
	}
}

func TestRun_FailedPageSkipped(t *testing.T) {
	s := newSite(t)
	s.pageCode = http.StatusServiceUnavailable
	cfg := s.config(t, "all")

	res, err := build(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Ads) != 1 || res.Ads[0].ID != 100 {
		t.Errorf("expected only the landing page ad, got %+v", res.Ads)
	}
}

func TestRun_StartPageFailureAborts(t *testing.T) {
	s := newSite(t)
	cfg := s.config(t, "one")
	cfg.StartPath = "/missing"

	_, err := build(t, cfg).Run(context.Background())
	if !fetcher.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 HTTPStatusError, got %v", err)
	}
}

// --- Sink Tests ---

type recordingSink struct {
	ads []listing.Record
	err error
}

func (s *recordingSink) SaveAds(_ context.Context, ads []listing.Record) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.ads = append(s.ads, ads...)
	return len(ads), nil
}

type staticExtractor struct{}

func (staticExtractor) Extract(_ context.Context, href string) (listing.Record, error) {
	return listing.Record{ID: 1, Href: "https://example.de" + href}, nil
}

func TestRun_SinkReceivesAds(t *testing.T) {
	s := newSite(t)
	cfg := s.config(t, "first")
	sink := &recordingSink{}

	r := New(fetcher.NewGateway(fetcher.Config{BaseURL: s.srv.URL}), staticExtractor{}, firstSampler(t), sink, Config{
		StartPath: startPath,
		OutputDir: cfg.OutputDir,
	})
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(sink.ads) != 1 || sink.ads[0].Href != "https://example.de/ad/100" {
		t.Errorf("unexpected sink content %+v", sink.ads)
	}
}

func TestRun_SinkFailureLeavesNoArtifact(t *testing.T) {
	s := newSite(t)
	cfg := s.config(t, "first")
	sink := &recordingSink{err: errors.New("connection refused")}

	r := New(fetcher.NewGateway(fetcher.Config{BaseURL: s.srv.URL}), staticExtractor{}, firstSampler(t), sink, Config{
		StartPath: startPath,
		OutputDir: cfg.OutputDir,
	})
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected sink error")
	}
	if _, err := os.Stat(r.ArtifactPath()); !os.IsNotExist(err) {
		t.Error("expected no artifact")
	}
}

func TestResetDir_RefusesRoot(t *testing.T) {
	for _, dir := range []string{"", "/", "."} {
		if err := resetDir(dir); err == nil {
			t.Errorf("resetDir(%q) should fail", dir)
		}
	}
}

func firstSampler(t *testing.T) crawler.Sampler {
	t.Helper()
	s, err := crawler.NewSampler(crawler.SampleFirst, 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
