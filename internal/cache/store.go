package cache

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LookupThumbnail returns the cached thumbnail path for a title. A
// zero-size or unreadable entry counts as a miss and is removed so it
// can be regenerated.
func (m *Manager) LookupThumbnail(title string) (string, bool) {
	p := m.ThumbnailPath(title)
	info, err := os.Stat(p)
	if err != nil {
		return "", false
	}
	if info.Size() == 0 {
		m.log.Warn("removing corrupt thumbnail cache entry", zap.String("title", title))
		_ = os.Remove(p)
		return "", false
	}
	return p, true
}

// StoreThumbnail writes thumbnail bytes for a title, overwriting any
// prior entry. The write goes to a temp file, is verified non-empty,
// and only then replaces the entry. Returns the final path, or ""
// when no valid entry could be produced.
func (m *Manager) StoreThumbnail(data []byte, title string) string {
	if len(data) == 0 {
		return ""
	}
	if err := os.MkdirAll(m.thumbsDir, 0750); err != nil {
		m.log.Warn("creating thumbnail dir", zap.Error(err))
		return ""
	}

	destPath := m.ThumbnailPath(title)
	tmpPath := destPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		_ = os.Remove(tmpPath)
		m.log.Warn("writing thumbnail", zap.String("title", title), zap.Error(err))
		return ""
	}
	if info, err := os.Stat(tmpPath); err != nil || info.Size() == 0 {
		_ = os.Remove(tmpPath)
		return ""
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		m.log.Warn("publishing thumbnail", zap.String("title", title), zap.Error(err))
		return ""
	}
	return destPath
}

// ClearThumbnails removes the entire thumbnail cache tree.
func (m *Manager) ClearThumbnails() error {
	return os.RemoveAll(m.thumbsDir)
}

// VideoExists reports whether the downloaded video for key is present
// and non-empty, returning its path when it is.
func (m *Manager) VideoExists(key string) (string, bool) {
	return m.verifyFile(m.VideoPath(key))
}

// VideoFileExists is VideoExists for an already-derived filename.
func (m *Manager) VideoFileExists(filename string) (string, bool) {
	return m.verifyFile(filepath.Join(m.videosDir, filename))
}

func (m *Manager) verifyFile(p string) (string, bool) {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", false
	}
	return p, true
}

// RemoveVideo deletes a downloaded video if present.
func (m *Manager) RemoveVideo(filename string) error {
	err := os.Remove(filepath.Join(m.videosDir, filename))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ClearVideos removes the downloaded-videos tree.
func (m *Manager) ClearVideos() error {
	return os.RemoveAll(m.videosDir)
}
