package cache

import (
	"os"
	"os/exec"
	"path/filepath"
)

// ExtractThumbnail grabs a frame from a local video as a JPEG and
// stores it in the thumbnail cache. Returns the cached path, or empty
// string on failure. Requires ffmpeg; silently skips if not installed.
func (m *Manager) ExtractThumbnail(title, videoPath string) string {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ""
	}

	if err := os.MkdirAll(m.thumbsDir, 0750); err != nil {
		return ""
	}

	destPath := m.ThumbnailPath(title)
	tmpPath := destPath + ".tmp.jpg"
	_ = os.Remove(tmpPath)

	// Frame at 5s, scaled to 1080p, high JPEG quality.
	cmd := exec.Command("ffmpeg",
		"-i", videoPath,
		"-ss", "00:00:05",
		"-vframes", "1",
		"-vf", "scale=1920:1080",
		"-q:v", "2",
		tmpPath,
	)
	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmpPath)
		return ""
	}

	if info, err := os.Stat(tmpPath); err != nil || info.Size() == 0 {
		_ = os.Remove(tmpPath)
		return ""
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return ""
	}
	return destPath
}

// DirStats summarizes one cache directory.
type DirStats struct {
	Files int
	Bytes int64
}

// Stats walks a directory tree and totals file count and size.
func Stats(dir string) DirStats {
	var s DirStats
	_ = filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		s.Files++
		s.Bytes += info.Size()
		return nil
	})
	return s
}
