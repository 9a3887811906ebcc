// Package images stores listing gallery images on disk, one folder per
// listing id.
package images

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/truckscout/internal/logger"
	"github.com/jmylchreest/truckscout/pkg/fetcher"
)

// DirectoryExistsError is returned when the listing folder is already
// present. The run purges its output root first, so this means two
// listings share an id or the root was not purged.
type DirectoryExistsError struct {
	Path string
}

func (e *DirectoryExistsError) Error() string {
	return fmt.Sprintf("image directory already exists: %s", e.Path)
}

// FileName returns the name of the n-th image (1-based).
func FileName(n int) string {
	return fmt.Sprintf("image-%d.jpg", n)
}

// Downloader writes images below Root.
type Downloader struct {
	fetcher fetcher.Fetcher
	root    string
}

// NewDownloader creates a downloader that stores into root.
func NewDownloader(f fetcher.Fetcher, root string) *Downloader {
	return &Downloader{fetcher: f, root: root}
}

// Root returns the output root.
func (d *Downloader) Root() string {
	return d.root
}

// DownloadAll creates {root}/{folder} and writes each URL's bytes to
// image-1.jpg, image-2.jpg, ... in input order. It returns the written
// paths. The first failed download aborts the remaining ones.
func (d *Downloader) DownloadAll(ctx context.Context, urls []string, folder string) ([]string, error) {
	if folder == "" || strings.ContainsAny(folder, `/\`) || folder == "." || folder == ".." {
		return nil, fmt.Errorf("invalid image folder name %q", folder)
	}

	dir := filepath.Join(d.root, folder)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &DirectoryExistsError{Path: dir}
		}
		return nil, fmt.Errorf("create image directory: %w", err)
	}

	paths := make([]string, 0, len(urls))
	var total uint64
	for i, u := range urls {
		resp, err := d.fetcher.Fetch(ctx, u, nil)
		if err != nil {
			return paths, fmt.Errorf("download image %d of %d: %w", i+1, len(urls), err)
		}

		name := FileName(i + 1)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
		total += uint64(len(resp.Body))

		logger.InfoContext(ctx, "image downloaded",
			"file", name,
			"listing", folder,
			"size", humanize.Bytes(uint64(len(resp.Body))))
	}

	logger.DebugContext(ctx, "images stored", "listing", folder, "count", len(paths), "total", humanize.Bytes(total))
	return paths, nil
}
