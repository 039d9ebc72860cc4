package catalog

import "strings"

// ThumbnailKind discriminates ThumbnailState.
type ThumbnailKind int

const (
	// ThumbnailUnavailable means no thumbnail source exists.
	ThumbnailUnavailable ThumbnailKind = iota
	// ThumbnailLocal points at a verified cache file.
	ThumbnailLocal
	// ThumbnailRemote points at a fetchable URL.
	ThumbnailRemote
)

// ThumbnailState is the resolved thumbnail source for a record:
// local path, remote URL, or nothing.
type ThumbnailState struct {
	Kind ThumbnailKind
	Path string // set iff Kind == ThumbnailLocal
	URL  string // set iff Kind == ThumbnailRemote
}

func LocalThumbnail(path string) ThumbnailState {
	return ThumbnailState{Kind: ThumbnailLocal, Path: path}
}

func RemoteThumbnail(url string) ThumbnailState {
	return ThumbnailState{Kind: ThumbnailRemote, URL: url}
}

func NoThumbnail() ThumbnailState {
	return ThumbnailState{Kind: ThumbnailUnavailable}
}

// AssetRecord is one entry in the merged catalog. LocalPath and
// RemoteURL are mutually exclusive: exactly one is set.
type AssetRecord struct {
	ID        string
	Title     string
	LocalPath string
	RemoteURL string
	Key       string // remote object key, empty for bundled-only assets
	Thumbnail ThumbnailState
	Section   string
	Local     bool
	Selected  bool
}

// SourceLocation returns the record's primary asset URI.
func (a AssetRecord) SourceLocation() string {
	if a.Local {
		return a.LocalPath
	}
	return a.RemoteURL
}

// LocalID and RemoteID derive the stable identifiers for the two
// localities of a title. Same title, different locality: one logical
// asset, two selectable identities.
func LocalID(title string) string { return "local-" + title }

func RemoteID(title string) string { return "remote-" + title }

// SectionForZone maps a geozone metadata value to a display section.
func SectionForZone(zone string) string {
	switch strings.ToLower(strings.TrimSpace(zone)) {
	case "domestic", "us", "usa":
		return "Domestic"
	case "international":
		return "International"
	case "":
		return "Other"
	default:
		z := strings.TrimSpace(zone)
		return strings.ToUpper(z[:1]) + strings.ToLower(z[1:])
	}
}
