package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pjloury/aerialctl/internal/cache"
	"github.com/pjloury/aerialctl/internal/s3"
	"github.com/pjloury/aerialctl/internal/store"
)

// BundledAsset is a video shipped with the application: always local,
// always eligible for selection.
type BundledAsset struct {
	Title   string
	Path    string
	Section string
}

// Lister fetches the remote catalog listing.
type Lister interface {
	ListCatalog(ctx context.Context) (*s3.Listing, error)
}

// Reconciler merges bundled assets, downloaded files on disk and the
// remote listing into the single catalog the UI reads. It is the only
// writer of the merged view and of the persisted records behind it.
type Reconciler struct {
	bundled []BundledAsset
	cache   *cache.Manager
	store   store.Store
	log     *zap.Logger

	// ExtractThumbnails enables frame extraction for local videos
	// that have no cached thumbnail. Off by default; needs ffmpeg.
	ExtractThumbnails bool

	mu      sync.RWMutex
	state   *store.State
	records []AssetRecord
}

// New builds a Reconciler and renders the provisional catalog from
// bundled assets plus whatever the persisted summaries recorded, so a
// cold start shows the last-known-good view before the network answers.
func New(bundled []BundledAsset, cm *cache.Manager, st store.Store, log *zap.Logger) (*Reconciler, error) {
	state, err := st.Load()
	if err != nil {
		return nil, fmt.Errorf("loading persisted state: %w", err)
	}

	r := &Reconciler{
		bundled: bundled,
		cache:   cm,
		store:   st,
		log:     log,
		state:   state,
	}

	// Fresh install: every bundled asset starts selected.
	if len(state.Selected) == 0 {
		for _, b := range bundled {
			state.Selected = append(state.Selected, LocalID(b.Title))
		}
	}

	r.mu.Lock()
	r.rebuild()
	r.mu.Unlock()
	return r, nil
}

// Refresh fetches the remote listing and merges it. On failure the
// previously merged catalog is left untouched.
func (r *Reconciler) Refresh(ctx context.Context, lister Lister) error {
	listing, err := lister.ListCatalog(ctx)
	if err != nil {
		return fmt.Errorf("refreshing catalog: %w", err)
	}
	r.ApplyListing(listing)
	return nil
}

// ApplyListing replaces the remote view with a fresh listing and
// re-merges. Applying the same listing twice yields the same catalog.
func (r *Reconciler) ApplyListing(listing *s3.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	summaries := make([]store.AssetSummary, 0, len(listing.Videos))
	for _, v := range listing.Videos {
		_, cached := r.cache.LookupThumbnail(v.Title)
		_, downloaded := r.state.Downloaded[v.Title]
		summaries = append(summaries, store.AssetSummary{
			Title:           v.Title,
			SourceURL:       v.URL,
			Key:             v.Key,
			Section:         SectionForZone(v.Geozone),
			ThumbnailURL:    listing.Thumbnails[v.Title],
			ThumbnailCached: cached,
			Downloaded:      downloaded,
			RefreshedAt:     now,
		})
	}
	r.state.Catalog = summaries

	r.rebuild()
	r.persist()
}

// Catalog returns a snapshot of the merged catalog. Readers never see
// a half-merged state.
func (r *Reconciler) Catalog() []AssetRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AssetRecord, len(r.records))
	copy(out, r.records)
	return out
}

// CanonicalSet returns one record per title, local preferred — the
// entries eligible for playback decisions.
func (r *Reconciler) CanonicalSet() []AssetRecord {
	all := r.Catalog()
	localTitles := make(map[string]bool)
	for _, rec := range all {
		if rec.Local {
			localTitles[rec.Title] = true
		}
	}
	var out []AssetRecord
	for _, rec := range all {
		if rec.Local || !localTitles[rec.Title] {
			out = append(out, rec)
		}
	}
	return out
}

// PlaybackSet returns the selected local records, in catalog order.
func (r *Reconciler) PlaybackSet() []AssetRecord {
	var out []AssetRecord
	for _, rec := range r.Catalog() {
		if rec.Local && rec.Selected {
			out = append(out, rec)
		}
	}
	return out
}

// Find returns the record with the given id.
func (r *Reconciler) Find(id string) (AssetRecord, bool) {
	for _, rec := range r.Catalog() {
		if rec.ID == id {
			return rec, true
		}
	}
	return AssetRecord{}, false
}

// FindByTitle returns the canonical record for a title.
func (r *Reconciler) FindByTitle(title string) (AssetRecord, bool) {
	for _, rec := range r.CanonicalSet() {
		if rec.Title == title {
			return rec, true
		}
	}
	return AssetRecord{}, false
}

// Select adds a local record to the playback set. Remote records are
// not selectable.
func (r *Reconciler) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.find(id)
	if !ok {
		return fmt.Errorf("no asset %q", id)
	}
	if !rec.Local {
		return fmt.Errorf("asset %q is not local", id)
	}
	for _, sel := range r.state.Selected {
		if sel == id {
			return nil
		}
	}
	r.state.Selected = append(r.state.Selected, id)
	r.rebuild()
	r.persist()
	return nil
}

// Deselect removes a record from the playback set. Deselecting the
// last selected local asset is a silent no-op: the playback set never
// goes empty while local assets exist.
func (r *Reconciler) Deselect(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	selectedLocals := 0
	for _, rec := range r.records {
		if rec.Local && rec.Selected {
			selectedLocals++
		}
	}

	for i, sel := range r.state.Selected {
		if sel != id {
			continue
		}
		if rec, ok := r.find(id); ok && rec.Local && selectedLocals <= 1 {
			r.log.Debug("refusing to deselect last local asset", zap.String("id", id))
			return
		}
		r.state.Selected = append(r.state.Selected[:i], r.state.Selected[i+1:]...)
		r.rebuild()
		r.persist()
		return
	}
}

// MarkDownloaded records a completed download and re-merges.
func (r *Reconciler) MarkDownloaded(title, filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Downloaded[title] = filename
	for i := range r.state.Catalog {
		if r.state.Catalog[i].Title == title {
			r.state.Catalog[i].Downloaded = true
		}
	}
	r.rebuild()
	r.persist()
}

// DropDownloaded forgets a stale downloaded record whose file is gone.
func (r *Reconciler) DropDownloaded(title string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.state.Downloaded[title]; !ok {
		return
	}
	delete(r.state.Downloaded, title)
	for i := range r.state.Catalog {
		if r.state.Catalog[i].Title == title {
			r.state.Catalog[i].Downloaded = false
		}
	}
	r.rebuild()
	r.persist()
}

// DownloadedFilename returns the recorded filename for a title.
func (r *Reconciler) DownloadedFilename(title string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.state.Downloaded[title]
	return f, ok
}

// ClearCache wipes thumbnails and downloaded videos, forgets the
// download records, and restricts selection to the bundled assets.
func (r *Reconciler) ClearCache() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.cache.ClearThumbnails(); err != nil {
		return fmt.Errorf("clearing thumbnails: %w", err)
	}
	if err := r.cache.ClearVideos(); err != nil {
		return fmt.Errorf("clearing videos: %w", err)
	}

	r.state.Downloaded = map[string]string{}
	for i := range r.state.Catalog {
		r.state.Catalog[i].Downloaded = false
		r.state.Catalog[i].ThumbnailCached = false
	}
	r.state.Selected = r.state.Selected[:0]
	for _, b := range r.bundled {
		r.state.Selected = append(r.state.Selected, LocalID(b.Title))
	}

	r.rebuild()
	r.persist()
	return nil
}

// rebuild re-merges the catalog from bundled assets, verified
// downloads and the persisted remote view. Caller holds r.mu.
func (r *Reconciler) rebuild() {
	selected := make(map[string]bool, len(r.state.Selected))
	for _, id := range r.state.Selected {
		selected[id] = true
	}

	var records []AssetRecord
	localTitles := make(map[string]bool)

	// 1. Bundled assets.
	for _, b := range r.bundled {
		id := LocalID(b.Title)
		records = append(records, AssetRecord{
			ID:        id,
			Title:     b.Title,
			LocalPath: b.Path,
			Section:   b.Section,
			Local:     true,
			Selected:  selected[id],
		})
		localTitles[b.Title] = true
	}

	// 2. Downloaded assets, verified on disk. A recorded download
	// whose file vanished is demoted back to remote-only.
	for title, filename := range r.state.Downloaded {
		if localTitles[title] {
			continue
		}
		path, ok := r.cache.VideoFileExists(filename)
		if !ok {
			r.log.Warn("downloaded file missing, demoting to remote",
				zap.String("title", title), zap.String("file", filename))
			delete(r.state.Downloaded, title)
			for i := range r.state.Catalog {
				if r.state.Catalog[i].Title == title {
					r.state.Catalog[i].Downloaded = false
				}
			}
			continue
		}

		id := LocalID(title)
		rec := AssetRecord{
			ID:        id,
			Title:     title,
			LocalPath: path,
			Section:   "Other",
			Local:     true,
			Selected:  selected[id],
		}
		if s := r.summaryFor(title); s != nil {
			rec.Section = s.Section
			rec.Key = s.Key
		}
		records = append(records, rec)
		localTitles[title] = true
	}

	// 3. Remote view. Local titles keep their local record for
	// playback; the remote twin stays browsable and contributes
	// display metadata.
	for _, s := range r.state.Catalog {
		records = append(records, AssetRecord{
			ID:        RemoteID(s.Title),
			Title:     s.Title,
			RemoteURL: s.SourceURL,
			Key:       s.Key,
			Section:   s.Section,
			Local:     false,
		})
	}

	// 4. Thumbnail resolution.
	for i := range records {
		records[i].Thumbnail = r.resolveThumbnail(records[i])
	}

	// 5. Deterministic order: sections alphabetically, titles within,
	// local before remote for the same title.
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Section != b.Section {
			return a.Section < b.Section
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.Local && !b.Local
	})

	r.records = records
}

// resolveThumbnail picks the best thumbnail source: verified cache
// entry, then extraction from a local video, then the remote URL.
func (r *Reconciler) resolveThumbnail(rec AssetRecord) ThumbnailState {
	if path, ok := r.cache.LookupThumbnail(rec.Title); ok {
		return LocalThumbnail(path)
	}
	if rec.Local && r.ExtractThumbnails {
		if path := r.cache.ExtractThumbnail(rec.Title, rec.LocalPath); path != "" {
			return LocalThumbnail(path)
		}
	}
	if s := r.summaryFor(rec.Title); s != nil && s.ThumbnailURL != "" {
		return RemoteThumbnail(s.ThumbnailURL)
	}
	return NoThumbnail()
}

func (r *Reconciler) summaryFor(title string) *store.AssetSummary {
	for i := range r.state.Catalog {
		if r.state.Catalog[i].Title == title {
			return &r.state.Catalog[i]
		}
	}
	return nil
}

// find looks up a record by id. Caller holds r.mu.
func (r *Reconciler) find(id string) (AssetRecord, bool) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return AssetRecord{}, false
}

func (r *Reconciler) persist() {
	if err := r.store.Save(r.state); err != nil {
		r.log.Error("persisting state", zap.Error(err))
	}
}
