// Package imagesource discovers openly-licensed images for caller-owned
// records and ingests a chosen image into durable storage.
//
// Discovery: a free-text term is searched against a MediaWiki-style media
// repository (file namespace), licensing metadata is resolved concurrently
// for every hit, and the survivors of a fixed permissive-license allow-list
// are returned in upstream relevance order, capped at MaxSearchResults.
//
// Ingestion: a chosen source (candidate URL or inline data URL) is
// downloaded, optionally watermarked, uploaded to object storage under a
// deterministic path, and recorded against the caller's entity id in the
// metadata store.
package imagesource

import (
	"net/http"
)

// MaxSearchResults is the maximum number of candidates returned by a
// single discovery call.
const MaxSearchResults = 8

// DefaultCommonsURL is the Wikimedia Commons Action API endpoint.
const DefaultCommonsURL = "https://commons.wikimedia.org/w/api.php"

// DefaultStoragePrefix is the object-storage folder for ingested artifacts.
const DefaultStoragePrefix = "question_images"

// Config holds all dependencies injected by the consumer.
type Config struct {
	HTTPClient *http.Client // default: http.DefaultClient
	UserAgent  string       // default: "go-imagesource/1.0"

	// Provider is the search backend. When nil, a CommonsProvider is
	// auto-created from CommonsURL (or DefaultCommonsURL).
	Provider   SearchProvider
	CommonsURL string

	// Objects and Records are the ingestion stores. Both are required for
	// IngestFromURL / IngestFromDataURL; discovery works without them.
	Objects ObjectStore
	Records RecordStore

	// StoragePrefix is the object path prefix for uploads.
	// Default: DefaultStoragePrefix.
	StoragePrefix string

	// WatermarkPath points to the watermark asset composited onto inline
	// uploads when UploadOpts.AddWatermark is set. Empty path means the
	// watermark step is skipped (logged, never fatal).
	WatermarkPath string

	// MaxResults caps the candidates returned by DiscoverImages.
	// Default: MaxSearchResults.
	MaxResults int

	// DedupCandidates enables perceptual deduplication of discovered
	// candidates by thumbnail dHash. Off by default: selection is then a
	// pure function of license policy over upstream order.
	DedupCandidates bool

	// Optional callbacks for metrics/logging.
	OnSearch func()
	OnPanic  func(tag string, r any)
}

// defaults fills zero-value fields with sensible defaults.
func (cfg *Config) defaults() {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "go-imagesource/1.0"
	}
	if cfg.StoragePrefix == "" {
		cfg.StoragePrefix = DefaultStoragePrefix
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = MaxSearchResults
	}
}

// resolveProvider returns the effective search backend.
func (cfg *Config) resolveProvider() SearchProvider {
	if cfg.Provider != nil {
		return cfg.Provider
	}
	base := cfg.CommonsURL
	if base == "" {
		base = DefaultCommonsURL
	}
	return &CommonsProvider{
		BaseURL:    base,
		HTTPClient: cfg.HTTPClient,
		UserAgent:  cfg.UserAgent,
	}
}
