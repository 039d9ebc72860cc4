package cache

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Manager handles the local thumbnail cache and the downloaded-videos
// directory.
type Manager struct {
	thumbsDir string
	videosDir string
	log       *zap.Logger
}

// New creates a cache Manager over the given directories.
func New(thumbsDir, videosDir string, log *zap.Logger) *Manager {
	return &Manager{thumbsDir: thumbsDir, videosDir: videosDir, log: log}
}

// ThumbnailsDir returns the thumbnail cache root.
func (m *Manager) ThumbnailsDir() string { return m.thumbsDir }

// VideosDir returns the downloaded-videos root.
func (m *Manager) VideosDir() string { return m.videosDir }

// ThumbnailPath returns the cache path for a title.
// Layout: <thumbsDir>/<title>_thumbnail.jpg
func (m *Manager) ThumbnailPath(title string) string {
	return filepath.Join(m.thumbsDir, NormalizeTitle(title)+"_thumbnail.jpg")
}

// VideoPath returns the on-disk path for a downloaded object key.
// Keys may be hierarchical; only the base name is kept.
func (m *Manager) VideoPath(key string) string {
	return filepath.Join(m.videosDir, VideoFilename(key))
}

// VideoFilename derives the local filename for an object key.
func VideoFilename(key string) string {
	name, err := url.PathUnescape(path.Base(key))
	if err != nil {
		name = path.Base(key)
	}
	return name
}

// NormalizeTitle maps every spelling of a title to one canonical
// on-disk name: percent-encoding is decoded first so "My%20Title" and
// "My Title" share a cache entry, then path separators are dropped.
func NormalizeTitle(title string) string {
	if decoded, err := url.QueryUnescape(title); err == nil {
		title = decoded
	}
	title = strings.ReplaceAll(title, "/", "-")
	title = strings.ReplaceAll(title, string(filepath.Separator), "-")
	return strings.TrimSpace(title)
}
