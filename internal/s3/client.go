package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is an authenticated object-store client scoped to one bucket.
type Client struct {
	bucket   string
	endpoint string
	signer   *Signer
	http     *http.Client
	log      *zap.Logger
}

// New creates a Client for the given bucket and region. If endpoint is
// empty, the standard virtual-hosted bucket endpoint is used.
func New(creds Credentials, bucket, region, endpoint string, log *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	endpoint = strings.TrimRight(endpoint, "/")

	return &Client{
		bucket:   bucket,
		endpoint: endpoint,
		signer:   NewSigner(creds, region),
		http: &http.Client{
			Timeout: 10 * time.Minute, // generous for large video bodies
		},
		log: log,
	}
}

// WithClock swaps the signer clock. Test hook.
func (c *Client) WithClock(now func() time.Time) *Client {
	cp := *c
	cp.signer = c.signer.WithClock(now)
	return &cp
}

// ObjectURL returns the full URL for an object key.
func (c *Client) ObjectURL(key string) string {
	return c.endpoint + "/" + escapeKey(key)
}

// GetObject issues a signed, range-capable GET for an object body.
// Caller owns the returned body.
func (c *Client) GetObject(ctx context.Context, key, byteRange string) (*http.Response, error) {
	return c.get(ctx, c.ObjectURL(key), byteRange)
}

// get signs and executes a GET against an absolute URL.
func (c *Client) get(ctx context.Context, rawURL, byteRange string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.signer.Sign(req, byteRange)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("object store request: %w", err)
	}
	if err := checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// checkStatus returns a typed error for non-2xx responses.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusPartialContent:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("object store error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// escapeKey percent-encodes a key path segment by segment, keeping the
// slashes that delimit the key hierarchy.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
