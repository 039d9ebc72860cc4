package s3

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"
)

const thumbnailSuffix = "_thumbnail"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// RemoteVideo is one primary asset from the bucket listing.
type RemoteVideo struct {
	Key     string
	Title   string
	Geozone string
	URL     string
}

// Listing is the parsed result of a full bucket list: primary assets in
// listing order, plus thumbnail URLs and raw metadata keyed by title.
type Listing struct {
	Videos     []RemoteVideo
	Thumbnails map[string]string
	Metadata   map[string]map[string]string
}

type listBucketResult struct {
	XMLName               xml.Name        `xml:"ListBucketResult"`
	IsTruncated           bool            `xml:"IsTruncated"`
	NextContinuationToken string          `xml:"NextContinuationToken"`
	Contents              []listingObject `xml:"Contents"`
}

type listingObject struct {
	Key      string          `xml:"Key"`
	Size     int64           `xml:"Size"`
	Metadata []metadataEntry `xml:"UserMetadata>MetadataEntry"`
}

type metadataEntry struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

// ListCatalog fetches the complete bucket listing and parses it into a
// Listing. Transport and non-2xx failures are terminal; a malformed
// listing document yields zero results rather than an error, so an
// empty bucket never blanks the catalog.
func (c *Client) ListCatalog(ctx context.Context) (*Listing, error) {
	var objects []listingObject
	token := ""
	for {
		page, err := c.listPage(ctx, token)
		if err != nil {
			return nil, err
		}
		objects = append(objects, page.Contents...)
		if !page.IsTruncated || page.NextContinuationToken == "" {
			break
		}
		token = page.NextContinuationToken
	}
	return c.buildListing(objects), nil
}

func (c *Client) listPage(ctx context.Context, continuationToken string) (*listBucketResult, error) {
	q := url.Values{}
	q.Set("list-type", "2")
	if continuationToken != "" {
		q.Set("continuation-token", continuationToken)
	}

	resp, err := c.get(ctx, c.endpoint+"/?"+q.Encode(), "")
	if err != nil {
		return nil, fmt.Errorf("listing bucket: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading listing: %w", err)
	}

	var result listBucketResult
	if err := xml.Unmarshal(body, &result); err != nil {
		// Tolerate a malformed document as an empty listing.
		c.log.Warn("malformed bucket listing, treating as empty", zap.Error(err))
		return &listBucketResult{}, nil
	}
	return &result, nil
}

// buildListing classifies objects into primary videos and sidecar
// thumbnails, resolving display metadata. Videos without a display
// title cannot be keyed into the catalog and are dropped.
func (c *Client) buildListing(objects []listingObject) *Listing {
	l := &Listing{
		Thumbnails: make(map[string]string),
		Metadata:   make(map[string]map[string]string),
	}

	// Thumbnails are linked to their primary object by the key that
	// remains once the thumbnail suffix is stripped.
	thumbsByBase := make(map[string]string)
	for _, obj := range objects {
		if base, ok := thumbnailBaseKey(obj.Key); ok {
			thumbsByBase[base] = c.ObjectURL(obj.Key)
		}
	}

	for _, obj := range objects {
		if _, isThumb := thumbnailBaseKey(obj.Key); isThumb {
			continue
		}

		meta := normalizeMetadata(obj.Metadata)
		title := meta["displaytitle"]
		if title == "" {
			c.log.Warn("listed object has no display title, dropping",
				zap.String("key", obj.Key))
			continue
		}

		l.Videos = append(l.Videos, RemoteVideo{
			Key:     obj.Key,
			Title:   title,
			Geozone: meta["geozone"],
			URL:     c.ObjectURL(obj.Key),
		})
		l.Metadata[title] = meta
		if thumbURL, ok := thumbsByBase[obj.Key]; ok {
			l.Thumbnails[title] = thumbURL
		}
	}
	return l
}

// thumbnailBaseKey reports whether key names a sidecar thumbnail, and
// if so returns the primary object key it belongs to.
// "Fjord.mp4_thumbnail.jpg" -> ("Fjord.mp4", true).
func thumbnailBaseKey(key string) (string, bool) {
	ext := strings.ToLower(path.Ext(key))
	if !imageExtensions[ext] {
		return "", false
	}
	stem := key[:len(key)-len(ext)]
	if !strings.HasSuffix(stem, thumbnailSuffix) {
		return "", false
	}
	return strings.TrimSuffix(stem, thumbnailSuffix), true
}

// normalizeMetadata folds the field-name conventions seen in the wild
// ("display-title", "x-amz-meta-display-title", "displayTitle") into
// one canonical lowercase form without separators.
func normalizeMetadata(entries []metadataEntry) map[string]string {
	meta := make(map[string]string, len(entries))
	for _, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.Name))
		name = strings.TrimPrefix(name, "x-amz-meta-")
		name = strings.ReplaceAll(name, "-", "")
		name = strings.ReplaceAll(name, "_", "")
		if name == "" {
			continue
		}
		meta[name] = strings.TrimSpace(e.Value)
	}
	return meta
}
