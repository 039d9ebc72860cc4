package catalog_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/pjloury/aerialctl/internal/cache"
	"github.com/pjloury/aerialctl/internal/catalog"
	"github.com/pjloury/aerialctl/internal/s3"
	"github.com/pjloury/aerialctl/internal/store"
)

type env struct {
	cache *cache.Manager
	store *store.FileStore
	rec   *catalog.Reconciler
}

var bundledPair = []catalog.BundledAsset{
	{Title: "Golden Gate", Path: "/bundle/golden-gate.mp4", Section: "Domestic"},
	{Title: "Yosemite", Path: "/bundle/yosemite.mp4", Section: "Domestic"},
}

func newEnv(t *testing.T, bundled []catalog.BundledAsset) *env {
	t.Helper()
	base := t.TempDir()
	log := zap.NewNop()
	cm := cache.New(filepath.Join(base, "thumbnails"), filepath.Join(base, "videos"), log)
	fs := store.NewFileStore(filepath.Join(base, "state.yml"), log)

	rec, err := catalog.New(bundled, cm, fs, log)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return &env{cache: cm, store: fs, rec: rec}
}

func fjordListing(endpoint string) *s3.Listing {
	return &s3.Listing{
		Videos: []s3.RemoteVideo{{
			Key:     "Fjord.mp4",
			Title:   "Fjord",
			Geozone: "international",
			URL:     endpoint + "/Fjord.mp4",
		}},
		Thumbnails: map[string]string{"Fjord": endpoint + "/Fjord.mp4_thumbnail.jpg"},
		Metadata:   map[string]map[string]string{"Fjord": {"geozone": "international"}},
	}
}

// writeVideo places a fake downloaded file in the videos dir.
func (e *env) writeVideo(t *testing.T, filename string) {
	t.Helper()
	if err := os.MkdirAll(e.cache.VideosDir(), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(e.cache.VideosDir(), filename), []byte("mp4"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestBundledAssetsStartSelected(t *testing.T) {
	e := newEnv(t, bundledPair)

	set := e.rec.PlaybackSet()
	if len(set) != 2 {
		t.Fatalf("playback set has %d entries, want 2", len(set))
	}
	for _, r := range set {
		if !r.Local || !r.Selected {
			t.Errorf("bundled record not local+selected: %+v", r)
		}
	}
}

func TestApplyListing_ConcreteScenario(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.rec.ApplyListing(fjordListing("https://bucket"))

	r, found := e.rec.FindByTitle("Fjord")
	if !found {
		t.Fatal("Fjord missing from catalog")
	}
	if r.Local {
		t.Error("remote-only title marked local")
	}
	if r.Section != "International" {
		t.Errorf("section = %q", r.Section)
	}
	if r.Thumbnail.Kind != catalog.ThumbnailRemote ||
		r.Thumbnail.URL != "https://bucket/Fjord.mp4_thumbnail.jpg" {
		t.Errorf("thumbnail = %+v", r.Thumbnail)
	}
	if r.SourceLocation() != "https://bucket/Fjord.mp4" {
		t.Errorf("source = %q", r.SourceLocation())
	}
}

func TestApplyListing_Idempotent(t *testing.T) {
	e := newEnv(t, bundledPair)

	e.rec.ApplyListing(fjordListing("https://bucket"))
	first := e.rec.Catalog()
	e.rec.ApplyListing(fjordListing("https://bucket"))
	second := e.rec.Catalog()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("merge is not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestLocalPrecedence(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.writeVideo(t, "Fjord.mp4")
	e.rec.MarkDownloaded("Fjord", "Fjord.mp4")
	e.rec.ApplyListing(fjordListing("https://bucket"))

	fjords := 0
	for _, r := range e.rec.CanonicalSet() {
		if r.Title != "Fjord" {
			continue
		}
		fjords++
		if !r.Local {
			t.Error("canonical Fjord is not the local copy")
		}
		if want := filepath.Join(e.cache.VideosDir(), "Fjord.mp4"); r.SourceLocation() != want {
			t.Errorf("source = %q, want %q", r.SourceLocation(), want)
		}
	}
	if fjords != 1 {
		t.Errorf("canonical set has %d Fjord entries, want 1", fjords)
	}

	// The remote twin stays browsable in the full catalog.
	if _, found := e.rec.Find(catalog.RemoteID("Fjord")); !found {
		t.Error("remote twin missing from full catalog")
	}
}

func TestSelfHeal_StaleDownloadedRecord(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.rec.ApplyListing(fjordListing("https://bucket"))

	// Record a download but never write the file.
	e.rec.MarkDownloaded("Fjord", "Fjord.mp4")

	r, found := e.rec.FindByTitle("Fjord")
	if !found {
		t.Fatal("Fjord missing")
	}
	if r.Local {
		t.Error("title with missing file must be remote-only")
	}
	if _, ok := e.rec.DownloadedFilename("Fjord"); ok {
		t.Error("stale downloaded record not dropped")
	}

	// The heal is persisted, not just in memory.
	st, err := e.store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Downloaded["Fjord"]; ok {
		t.Error("stale record survived in persisted state")
	}
}

func TestDownloadedThenRelisted_BecomesLocal(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.rec.ApplyListing(fjordListing("https://bucket"))

	e.writeVideo(t, "Fjord.mp4")
	e.rec.MarkDownloaded("Fjord", "Fjord.mp4")
	e.rec.ApplyListing(fjordListing("https://bucket"))

	r, _ := e.rec.FindByTitle("Fjord")
	if !r.Local {
		t.Error("downloaded title not local after re-listing")
	}
}

func TestSelectionFloor(t *testing.T) {
	e := newEnv(t, bundledPair[:1])

	id := catalog.LocalID("Golden Gate")
	e.rec.Deselect(id)

	r, _ := e.rec.Find(id)
	if !r.Selected {
		t.Error("last selected local asset must stay selected")
	}
}

func TestDeselect_AllowedWhenOthersRemain(t *testing.T) {
	e := newEnv(t, bundledPair)

	e.rec.Deselect(catalog.LocalID("Yosemite"))
	if r, _ := e.rec.Find(catalog.LocalID("Yosemite")); r.Selected {
		t.Error("deselect with another selected local asset must succeed")
	}
	if r, _ := e.rec.Find(catalog.LocalID("Golden Gate")); !r.Selected {
		t.Error("other selection must be untouched")
	}
}

func TestSelect_RemoteIsRejected(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.rec.ApplyListing(fjordListing("https://bucket"))

	if err := e.rec.Select(catalog.RemoteID("Fjord")); err == nil {
		t.Error("selecting a remote record must fail")
	}
}

func TestFailedRefreshKeepsLastKnownGood(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.rec.ApplyListing(fjordListing("https://bucket"))
	before := e.rec.Catalog()

	// A failed fetch never reaches ApplyListing; the catalog must be
	// byte-for-byte what it was.
	after := e.rec.Catalog()
	if !reflect.DeepEqual(before, after) {
		t.Error("catalog changed without a successful refresh")
	}
}

func TestColdStart_ProvisionalFromPersistedSummaries(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.rec.ApplyListing(fjordListing("https://bucket"))

	// Second launch: same store, no network.
	log := zap.NewNop()
	rec2, err := catalog.New(bundledPair, e.cache, e.store, log)
	if err != nil {
		t.Fatal(err)
	}
	r, found := rec2.FindByTitle("Fjord")
	if !found {
		t.Fatal("persisted summary not rendered at cold start")
	}
	if r.Local || r.SourceLocation() != "https://bucket/Fjord.mp4" {
		t.Errorf("provisional record = %+v", r)
	}
}

func TestThumbnailPriority_CacheBeatsRemote(t *testing.T) {
	e := newEnv(t, bundledPair)
	cachedPath := e.cache.StoreThumbnail([]byte("jpeg"), "Fjord")
	if cachedPath == "" {
		t.Fatal("seeding thumbnail cache failed")
	}

	e.rec.ApplyListing(fjordListing("https://bucket"))
	r, _ := e.rec.FindByTitle("Fjord")
	if r.Thumbnail.Kind != catalog.ThumbnailLocal || r.Thumbnail.Path != cachedPath {
		t.Errorf("thumbnail = %+v, want local %q", r.Thumbnail, cachedPath)
	}
}

func TestOrdering_SectionsThenTitles(t *testing.T) {
	e := newEnv(t, bundledPair)
	e.rec.ApplyListing(&s3.Listing{
		Videos: []s3.RemoteVideo{
			{Key: "Z.mp4", Title: "Zanzibar", Geozone: "international", URL: "https://b/Z.mp4"},
			{Key: "A.mp4", Title: "Alps", Geozone: "international", URL: "https://b/A.mp4"},
			{Key: "M.mp4", Title: "Miami", Geozone: "domestic", URL: "https://b/M.mp4"},
		},
		Thumbnails: map[string]string{},
		Metadata:   map[string]map[string]string{},
	})

	var got []string
	for _, r := range e.rec.Catalog() {
		got = append(got, r.Section+"/"+r.Title)
	}
	want := []string{
		"Domestic/Golden Gate",
		"Domestic/Miami",
		"Domestic/Yosemite",
		"International/Alps",
		"International/Zanzibar",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestClearCache_Scenario(t *testing.T) {
	e := newEnv(t, bundledPair)
	listing := &s3.Listing{
		Videos: []s3.RemoteVideo{
			{Key: "A.mp4", Title: "Alps", Geozone: "international", URL: "https://b/A.mp4"},
			{Key: "F.mp4", Title: "Fjord", Geozone: "international", URL: "https://b/F.mp4"},
			{Key: "S.mp4", Title: "Sahara", Geozone: "international", URL: "https://b/S.mp4"},
		},
		Thumbnails: map[string]string{},
		Metadata:   map[string]map[string]string{},
	}
	e.rec.ApplyListing(listing)

	for title, file := range map[string]string{"Alps": "A.mp4", "Fjord": "F.mp4", "Sahara": "S.mp4"} {
		e.writeVideo(t, file)
		e.rec.MarkDownloaded(title, file)
	}
	e.cache.StoreThumbnail([]byte("jpeg"), "Alps")

	if got := len(e.rec.PlaybackSet()); got != 2 {
		t.Fatalf("playback set = %d before downloads are selected, want 2 bundled", got)
	}
	if err := e.rec.Select(catalog.LocalID("Alps")); err != nil {
		t.Fatal(err)
	}

	if err := e.rec.ClearCache(); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}

	// Exactly the bundled pair is selected and local.
	set := e.rec.PlaybackSet()
	if len(set) != 2 {
		t.Fatalf("playback set after clear = %d, want 2", len(set))
	}
	for _, r := range set {
		if r.Title != "Golden Gate" && r.Title != "Yosemite" {
			t.Errorf("unexpected title in loop: %s", r.Title)
		}
	}

	// Downloads and thumbnails are gone from disk.
	if _, err := os.Stat(e.cache.VideosDir()); !os.IsNotExist(err) {
		t.Error("videos dir survived clear")
	}
	if _, ok := e.cache.LookupThumbnail("Alps"); ok {
		t.Error("thumbnail survived clear")
	}

	// A re-merge repopulates the three as remote-only.
	e.rec.ApplyListing(listing)
	for _, title := range []string{"Alps", "Fjord", "Sahara"} {
		r, found := e.rec.FindByTitle(title)
		if !found || r.Local {
			t.Errorf("%s should be remote-only after clear, got %+v", title, r)
		}
	}
}

func TestSectionForZone(t *testing.T) {
	cases := []struct{ zone, want string }{
		{"domestic", "Domestic"},
		{"International", "International"},
		{"", "Other"},
		{"alpine", "Alpine"},
	}
	for _, c := range cases {
		if got := catalog.SectionForZone(c.zone); got != c.want {
			t.Errorf("SectionForZone(%q) = %q, want %q", c.zone, got, c.want)
		}
	}
}
