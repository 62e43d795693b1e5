package imagesource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Ingestion failure modes. Discovery never returns errors; ingestion
// returns exactly one of these families so callers can react per phase.
var (
	// ErrPayloadFormat marks a malformed inline payload. Raised before any
	// network or storage call.
	ErrPayloadFormat = errors.New("invalid inline image payload")

	// ErrSourceFetch marks a failed download of the chosen source URL.
	// Nothing has been written when it is returned.
	ErrSourceFetch = errors.New("source image fetch failed")
)

// OrphanedObjectError reports a metadata-store write that failed after the
// artifact was already durably uploaded. The object at StoragePath exists
// and is publicly readable, but no record references it; callers may retry
// the record update alone using PublicURL.
type OrphanedObjectError struct {
	EntityID    string
	StoragePath string
	PublicURL   string
	Err         error
}

func (e *OrphanedObjectError) Error() string {
	return fmt.Sprintf("record update for %q failed after upload to %q: %v", e.EntityID, e.StoragePath, e.Err)
}

func (e *OrphanedObjectError) Unwrap() error { return e.Err }

// UploadOpts configures an inline-payload ingestion. AddWatermark is
// explicit at every call site; there is no defaulted behavior.
type UploadOpts struct {
	AddWatermark bool
}

// IngestFromURL downloads the chosen candidate URL, uploads it to object
// storage at <prefix>/<entityID>.<ext>, records the public URL against
// entityID, and returns that URL.
//
// Unlike discovery, every failure here is fatal: a failed download aborts
// with ErrSourceFetch before anything is written.
func (cfg *Config) IngestFromURL(ctx context.Context, sourceURL, entityID string) (string, error) {
	cfg.defaults()

	result := cfg.Download(ctx, sourceURL, DownloadOpts{})
	if result == nil {
		return "", fmt.Errorf("%w: %s", ErrSourceFetch, sourceURL)
	}

	cfg.warnOnRightsMetadata(sourceURL, result.Data)

	objectPath := fmt.Sprintf("%s/%s.%s", cfg.StoragePrefix, entityID, extFromURL(sourceURL))
	return cfg.storeArtifact(ctx, entityID, objectPath, result.Data, result.MIMEType)
}

// IngestFromDataURL decodes an inline "data:<mime>;base64,<data>" payload,
// optionally composites the configured watermark, uploads the bytes to
// <prefix>/<entityID>_upload_<timestamp>.<ext>, records the public URL
// against entityID, and returns that URL.
//
// A malformed payload fails with ErrPayloadFormat before any network or
// storage call. Watermark failures are non-fatal: the original bytes are
// uploaded instead.
func (cfg *Config) IngestFromDataURL(ctx context.Context, entityID, dataURL string, opts UploadOpts) (string, error) {
	cfg.defaults()

	mimeType, data, err := parseDataURL(dataURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPayloadFormat, err)
	}

	if opts.AddWatermark {
		data = cfg.applyWatermark(data, mimeType)
	}

	objectPath := fmt.Sprintf("%s/%s_upload_%d.%s",
		cfg.StoragePrefix, entityID, time.Now().UnixMilli(), extFromMIME(mimeType))
	return cfg.storeArtifact(ctx, entityID, objectPath, data, mimeType)
}

// storeArtifact is the shared two-phase tail of both ingestion modes:
// object upload, then record update. The two writes are not transactional;
// a record failure after a successful upload surfaces as
// *OrphanedObjectError so the caller can reconcile.
func (cfg *Config) storeArtifact(ctx context.Context, entityID, objectPath string, data []byte, contentType string) (string, error) {
	if cfg.Objects == nil || cfg.Records == nil {
		return "", errors.New("imagesource: object and record stores are required for ingestion")
	}

	publicURL, err := cfg.Objects.Put(ctx, objectPath, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", objectPath, err)
	}

	if err := cfg.Records.SetImageURL(ctx, entityID, publicURL); err != nil {
		return "", &OrphanedObjectError{
			EntityID:    entityID,
			StoragePath: objectPath,
			PublicURL:   publicURL,
			Err:         err,
		}
	}

	slog.Debug("imagesource: artifact stored", "entity", entityID, "path", objectPath)
	return publicURL, nil
}
