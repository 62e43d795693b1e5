package imagesource

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// DownloadOpts configures an image download.
type DownloadOpts struct {
	MaxBytes  int64         // max response body size (default: 20MB)
	Timeout   time.Duration // per-request timeout (default: 30s)
	UserAgent string        // override config user agent
}

const (
	defaultMaxBytes        = 20 * 1024 * 1024
	defaultDownloadTimeout = 30 * time.Second
	dedupMaxBytes          = 200 * 1024 // thumbnails only
)

// DownloadResult holds downloaded image data.
type DownloadResult struct {
	Data     []byte
	MIMEType string
}

// Download fetches image bytes from url. Returns nil result (not error) on
// recoverable failures (non-200, non-image content type) for graceful
// degradation; ingestion wraps the nil into its own fatal error.
func (cfg *Config) Download(ctx context.Context, url string, opts DownloadOpts) *DownloadResult {
	cfg.defaults()

	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultDownloadTimeout
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = cfg.UserAgent
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", ua)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	ct := resp.Header.Get("Content-Type")
	// Strip MIME parameters: "image/jpeg; charset=utf-8" → "image/jpeg"
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes))
	if err != nil || len(data) == 0 {
		return nil
	}

	return &DownloadResult{Data: data, MIMEType: ct}
}

// downloadForDedup fetches and decodes a thumbnail for perceptual hashing.
// Returns nil on any failure so dedup degrades to accepting the candidate.
func (cfg *Config) downloadForDedup(ctx context.Context, url string) image.Image {
	result := cfg.Download(ctx, url, DownloadOpts{MaxBytes: dedupMaxBytes})
	if result == nil {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		return nil
	}
	return img
}
