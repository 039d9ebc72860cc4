package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/pjloury/aerialctl/internal/store"
)

func newFileStore(t *testing.T) (*store.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.yml")
	return store.NewFileStore(path, zap.NewNop()), path
}

func TestLoad_MissingFileIsEmptyState(t *testing.T) {
	fs, _ := newFileStore(t)
	st, err := fs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Selected) != 0 || len(st.Downloaded) != 0 || len(st.Catalog) != 0 {
		t.Errorf("fresh state not empty: %+v", st)
	}
	if st.Downloaded == nil {
		t.Error("Downloaded map must be usable")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	fs, _ := newFileStore(t)

	in := &store.State{
		Selected:   []string{"local-Fjord"},
		Downloaded: map[string]string{"Fjord": "Fjord.mp4"},
		Catalog: []store.AssetSummary{{
			Title:      "Fjord",
			SourceURL:  "https://bucket/Fjord.mp4",
			Key:        "Fjord.mp4",
			Section:    "International",
			Downloaded: true,
		}},
	}
	if err := fs.Save(in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := fs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Version != store.CurrentVersion {
		t.Errorf("version = %d", out.Version)
	}
	if len(out.Selected) != 1 || out.Selected[0] != "local-Fjord" {
		t.Errorf("selected = %v", out.Selected)
	}
	if out.Downloaded["Fjord"] != "Fjord.mp4" {
		t.Errorf("downloaded = %v", out.Downloaded)
	}
	if len(out.Catalog) != 1 || out.Catalog[0].Section != "International" {
		t.Errorf("catalog = %+v", out.Catalog)
	}
}

func TestLoad_UnknownVersionStartsFresh(t *testing.T) {
	fs, path := newFileStore(t)
	if err := os.WriteFile(path, []byte("version: 99\nselected: [x]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := fs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Selected) != 0 {
		t.Errorf("unknown version must not be decoded: %+v", st)
	}
}

func TestLoad_CorruptFileStartsFresh(t *testing.T) {
	fs, path := newFileStore(t)
	if err := os.WriteFile(path, []byte("{{{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	st, err := fs.Load()
	if err != nil {
		t.Fatalf("corrupt state must not be fatal: %v", err)
	}
	if len(st.Selected) != 0 {
		t.Errorf("state = %+v", st)
	}
}

func TestSave_NoTempFileLeftBehind(t *testing.T) {
	fs, path := newFileStore(t)
	if err := fs.Save(&store.State{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}
