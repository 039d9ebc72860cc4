// Package download fetches primary asset bodies and thumbnails to
// local storage with progress reporting. At most one transfer per
// title runs at a time; a second request for an in-flight title is
// rejected, not queued.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pjloury/aerialctl/internal/cache"
	"github.com/pjloury/aerialctl/internal/catalog"
)

// ErrAlreadyDownloading is returned when a download for the same
// title is already in flight.
var ErrAlreadyDownloading = errors.New("download already in flight for this title")

// Fetcher issues signed object GETs. Satisfied by *s3.Client.
type Fetcher interface {
	GetObject(ctx context.Context, key, byteRange string) (*http.Response, error)
}

// Recorder receives download bookkeeping. Satisfied by
// *catalog.Reconciler.
type Recorder interface {
	MarkDownloaded(title, filename string)
	DropDownloaded(title string)
}

// Downloader performs concurrent, cancellable asset downloads.
type Downloader struct {
	fetcher  Fetcher
	cache    *cache.Manager
	recorder Recorder
	log      *zap.Logger

	progress *progressMap
}

// New creates a Downloader.
func New(fetcher Fetcher, cm *cache.Manager, recorder Recorder, log *zap.Logger) *Downloader {
	return &Downloader{
		fetcher:  fetcher,
		cache:    cm,
		recorder: recorder,
		log:      log,
		progress: newProgressMap(),
	}
}

// Progress returns a snapshot of in-flight download fractions keyed
// by asset id. Entries disappear on terminal completion.
func (d *Downloader) Progress() map[string]float64 {
	return d.progress.snapshot()
}

// Download fetches the primary asset for rec and returns the local
// path. Idempotent: a verified local copy short-circuits without a
// network call. A recorded download whose file is missing is dropped
// first and the transfer proceeds fresh.
func (d *Downloader) Download(ctx context.Context, rec catalog.AssetRecord) (string, error) {
	// Already local and verified on disk: nothing to do.
	if rec.Local {
		if path, ok := d.cache.VideoFileExists(cache.VideoFilename(rec.Key)); ok && rec.Key != "" {
			return path, nil
		}
		if rec.Key == "" {
			// Bundled asset; its path is outside the videos dir.
			if _, err := os.Stat(rec.LocalPath); err == nil {
				return rec.LocalPath, nil
			}
		}
		// Marked local but the file is gone: self-heal, then fetch.
		d.log.Warn("local record has no file, re-downloading", zap.String("title", rec.Title))
		d.recorder.DropDownloaded(rec.Title)
	}

	if rec.Key == "" {
		return "", fmt.Errorf("asset %q has no remote source", rec.Title)
	}

	if !d.progress.begin(rec.Title, rec.ID) {
		return "", ErrAlreadyDownloading
	}
	defer d.progress.end(rec.Title, rec.ID)

	path, err := d.fetchVideo(ctx, rec)
	if err != nil {
		return "", err
	}

	d.recorder.MarkDownloaded(rec.Title, cache.VideoFilename(rec.Key))
	d.log.Info("download complete", zap.String("title", rec.Title), zap.String("path", path))
	return path, nil
}

// fetchVideo streams the body into a temp file and promotes it only
// on full success, so a partial transfer never lands at the final path.
func (d *Downloader) fetchVideo(ctx context.Context, rec catalog.AssetRecord) (string, error) {
	resp, err := d.fetcher.GetObject(ctx, rec.Key, "bytes=0-")
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rec.Title, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := os.MkdirAll(d.cache.VideosDir(), 0750); err != nil {
		return "", fmt.Errorf("creating videos dir: %w", err)
	}

	destPath := d.cache.VideoPath(rec.Key)
	tmpPath := destPath + ".partial"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	counter := &progressWriter{
		progress: d.progress,
		id:       rec.ID,
		total:    resp.ContentLength,
	}
	_, err = io.Copy(f, io.TeeReader(resp.Body, counter))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", rec.Title, err)
	}

	if info, err := os.Stat(tmpPath); err != nil || info.Size() == 0 {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("empty download for %s", rec.Title)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("publishing %s: %w", rec.Title, err)
	}
	return destPath, nil
}

// DownloadThumbnail fetches a thumbnail body by object key and stores
// it in the cache. Returns the cached path.
func (d *Downloader) DownloadThumbnail(ctx context.Context, title, key string) (string, error) {
	if path, ok := d.cache.LookupThumbnail(title); ok {
		return path, nil
	}

	resp, err := d.fetcher.GetObject(ctx, key, "")
	if err != nil {
		return "", fmt.Errorf("fetching thumbnail for %s: %w", title, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading thumbnail for %s: %w", title, err)
	}

	path := d.cache.StoreThumbnail(body, title)
	if path == "" {
		return "", fmt.Errorf("caching thumbnail for %s failed", title)
	}
	return path, nil
}

// DownloadAll fetches every given record with at most limit transfers
// running concurrently. Titles already in flight are skipped; the
// first other failure cancels the remainder.
func (d *Downloader) DownloadAll(ctx context.Context, recs []catalog.AssetRecord, limit int) error {
	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, rec := range recs {
		rec := rec
		g.Go(func() error {
			_, err := d.Download(ctx, rec)
			if errors.Is(err, ErrAlreadyDownloading) {
				d.log.Debug("skipping in-flight title", zap.String("title", rec.Title))
				return nil
			}
			return err
		})
	}
	return g.Wait()
}
