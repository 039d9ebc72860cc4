// Package store persists the small structured records the catalog
// core needs across launches: the selection list, the map of
// downloaded files, and cached listing summaries for cold-start
// display. The catalog owns the record contents; this package only
// stores them.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CurrentVersion tags the state schema. A file with an unknown
// version is treated as empty state rather than decoded blind.
const CurrentVersion = 1

// AssetSummary is the persisted snapshot of one remote catalog entry,
// written after each successful listing fetch and read at cold start
// to render a provisional view before the network answers.
type AssetSummary struct {
	Title           string    `yaml:"title"`
	SourceURL       string    `yaml:"source_url"`
	Key             string    `yaml:"key"`
	Section         string    `yaml:"section"`
	ThumbnailURL    string    `yaml:"thumbnail_url,omitempty"`
	ThumbnailCached bool      `yaml:"thumbnail_cached"`
	Downloaded      bool      `yaml:"downloaded"`
	RefreshedAt     time.Time `yaml:"refreshed_at"`
}

// State is the full persisted document.
type State struct {
	Version    int               `yaml:"version"`
	Selected   []string          `yaml:"selected,omitempty"`
	Downloaded map[string]string `yaml:"downloaded,omitempty"` // title -> filename
	Catalog    []AssetSummary    `yaml:"catalog,omitempty"`
}

// Store is the persistence capability handed to the catalog. It is an
// explicit dependency, not ambient global state.
type Store interface {
	Load() (*State, error)
	Save(*State) error
}

// FileStore keeps the state in one YAML file.
type FileStore struct {
	path string
	log  *zap.Logger
}

// NewFileStore creates a FileStore at path.
func NewFileStore(path string, log *zap.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Load reads the state file. A missing file or an unknown schema
// version yields empty state, never an error the caller must branch on
// at startup.
func (f *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyState(), nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		f.log.Warn("unreadable state file, starting fresh", zap.Error(err))
		return emptyState(), nil
	}
	if st.Version != CurrentVersion {
		f.log.Warn("unknown state schema version, starting fresh",
			zap.Int("version", st.Version))
		return emptyState(), nil
	}
	if st.Downloaded == nil {
		st.Downloaded = map[string]string{}
	}
	return &st, nil
}

// Save writes the state atomically: temp file then rename.
func (f *FileStore) Save(st *State) error {
	st.Version = CurrentVersion

	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing state: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("publishing state: %w", err)
	}
	return nil
}

func emptyState() *State {
	return &State{
		Version:    CurrentVersion,
		Downloaded: map[string]string{},
	}
}
