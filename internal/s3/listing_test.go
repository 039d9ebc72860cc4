package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(endpoint string) *Client {
	return New(testCreds, "aerial", "us-west-2", endpoint, zap.NewNop())
}

const fjordListing = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
  <IsTruncated>false</IsTruncated>
  <Contents>
    <Key>Fjord.mp4</Key>
    <Size>1048576</Size>
    <UserMetadata>
      <MetadataEntry><Name>display-title</Name><Value>Fjord</Value></MetadataEntry>
      <MetadataEntry><Name>geozone</Name><Value>international</Value></MetadataEntry>
    </UserMetadata>
  </Contents>
  <Contents>
    <Key>Fjord.mp4_thumbnail.jpg</Key>
    <Size>2048</Size>
  </Contents>
  <Contents>
    <Key>Orphan.mp4</Key>
    <Size>5</Size>
  </Contents>
</ListBucketResult>`

func TestListCatalog_ParsesVideosAndThumbnails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list-type") != "2" {
			t.Errorf("missing list-type=2 in %q", r.URL.RawQuery)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("listing request is unsigned")
		}
		_, _ = w.Write([]byte(fjordListing))
	}))
	defer srv.Close()

	l, err := newTestClient(srv.URL).ListCatalog(context.Background())
	if err != nil {
		t.Fatalf("ListCatalog: %v", err)
	}

	if len(l.Videos) != 1 {
		t.Fatalf("got %d videos, want 1 (Orphan.mp4 has no title)", len(l.Videos))
	}
	v := l.Videos[0]
	if v.Title != "Fjord" || v.Key != "Fjord.mp4" || v.Geozone != "international" {
		t.Errorf("unexpected video %+v", v)
	}
	if !strings.HasSuffix(v.URL, "/Fjord.mp4") {
		t.Errorf("video URL = %q", v.URL)
	}

	thumbURL, ok := l.Thumbnails["Fjord"]
	if !ok || !strings.HasSuffix(thumbURL, "/Fjord.mp4_thumbnail.jpg") {
		t.Errorf("thumbnail URL = %q, ok=%v", thumbURL, ok)
	}
	if l.Metadata["Fjord"]["geozone"] != "international" {
		t.Errorf("metadata = %+v", l.Metadata["Fjord"])
	}
}

func TestListCatalog_MetadataNameConventions(t *testing.T) {
	listing := `<ListBucketResult><Contents>
	  <Key>A.mp4</Key>
	  <UserMetadata>
	    <MetadataEntry><Name>x-amz-meta-display-title</Name><Value>Alpha</Value></MetadataEntry>
	    <MetadataEntry><Name>geoZone</Name><Value>domestic</Value></MetadataEntry>
	  </UserMetadata>
	</Contents><Contents>
	  <Key>B.mp4</Key>
	  <UserMetadata>
	    <MetadataEntry><Name>displayTitle</Name><Value>Beta</Value></MetadataEntry>
	  </UserMetadata>
	</Contents></ListBucketResult>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listing))
	}))
	defer srv.Close()

	l, err := newTestClient(srv.URL).ListCatalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(l.Videos))
	}
	if l.Videos[0].Title != "Alpha" || l.Videos[0].Geozone != "domestic" {
		t.Errorf("x-amz-meta-/geoZone forms not normalized: %+v", l.Videos[0])
	}
	if l.Videos[1].Title != "Beta" {
		t.Errorf("camelCase form not normalized: %+v", l.Videos[1])
	}
}

func TestListCatalog_Pagination(t *testing.T) {
	page1 := `<ListBucketResult>
	  <IsTruncated>true</IsTruncated>
	  <NextContinuationToken>tok</NextContinuationToken>
	  <Contents><Key>A.mp4</Key><UserMetadata>
	    <MetadataEntry><Name>display-title</Name><Value>Alpha</Value></MetadataEntry>
	  </UserMetadata></Contents>
	</ListBucketResult>`
	page2 := `<ListBucketResult>
	  <IsTruncated>false</IsTruncated>
	  <Contents><Key>B.mp4</Key><UserMetadata>
	    <MetadataEntry><Name>display-title</Name><Value>Beta</Value></MetadataEntry>
	  </UserMetadata></Contents>
	</ListBucketResult>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("continuation-token") == "tok" {
			_, _ = w.Write([]byte(page2))
			return
		}
		_, _ = w.Write([]byte(page1))
	}))
	defer srv.Close()

	l, err := newTestClient(srv.URL).ListCatalog(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Videos) != 2 {
		t.Fatalf("got %d videos across pages, want 2", len(l.Videos))
	}
}

func TestListCatalog_MalformedDocumentIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not xml <<<"))
	}))
	defer srv.Close()

	l, err := newTestClient(srv.URL).ListCatalog(context.Background())
	if err != nil {
		t.Fatalf("malformed listing must not be fatal: %v", err)
	}
	if len(l.Videos) != 0 {
		t.Errorf("got %d videos from garbage, want 0", len(l.Videos))
	}
}

func TestListCatalog_TransportFailureIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListCatalog(context.Background())
	if err == nil {
		t.Fatal("403 listing must fail")
	}
}

func TestThumbnailBaseKey(t *testing.T) {
	cases := []struct {
		key   string
		base  string
		thumb bool
	}{
		{"Fjord.mp4_thumbnail.jpg", "Fjord.mp4", true},
		{"Fjord.mp4_thumbnail.png", "Fjord.mp4", true},
		{"Fjord.mp4", "", false},
		{"photo.jpg", "", false},
	}
	for _, c := range cases {
		base, thumb := thumbnailBaseKey(c.key)
		if base != c.base || thumb != c.thumb {
			t.Errorf("thumbnailBaseKey(%q) = (%q, %v), want (%q, %v)",
				c.key, base, thumb, c.base, c.thumb)
		}
	}
}
