package imagesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const imageInfoTimeout = 15 * time.Second

// thumbWidth is the rendered thumbnail width requested from the API.
const thumbWidth = 320

// ImageCandidate is a discovered image with resolved licensing metadata,
// not yet selected for storage.
type ImageCandidate struct {
	PageURL  string // file description page
	ThumbURL string // rendered thumbnail
	FullURL  string // full-resolution original
	License  string // license short-name, e.g. "CC BY-SA 4.0"
	Title    string // upstream file-page title
}

// Resolution failure reasons. DiscoverImages collapses all of them to a
// dropped candidate, but they stay distinct so callers and tests can tell
// a transport failure from a shape or licensing rejection.
var (
	errMissingImageInfo = errors.New("no imageinfo block for title")
	errLicenseRejected  = errors.New("license not in allow-list")
)

// resolveCandidate fetches URL and license metadata for one search hit.
// Returns a candidate only when the hit resolves cleanly AND its license
// passes IsPermissiveLicense; every other outcome is an error.
func (cfg *Config) resolveCandidate(ctx context.Context, hit SearchHit) (*ImageCandidate, error) {
	base := cfg.CommonsURL
	if base == "" {
		base = DefaultCommonsURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("action", "query")
	q.Set("titles", hit.Title)
	q.Set("prop", "imageinfo")
	q.Set("iiprop", "url|extmetadata")
	q.Set("iiurlwidth", fmt.Sprintf("%d", thumbWidth))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, imageInfoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imageinfo fetch %q: %w", hit.Title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imageinfo fetch %q: status %d", hit.Title, resp.StatusCode)
	}

	var ir imageInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, fmt.Errorf("imageinfo decode %q: %w", hit.Title, err)
	}

	info := ir.firstInfo()
	if info == nil {
		return nil, fmt.Errorf("%w: %q", errMissingImageInfo, hit.Title)
	}

	license := UnknownLicense
	if v := info.ExtMetadata.LicenseShortName.Value; v != "" {
		license = v
	}
	if !IsPermissiveLicense(license) {
		return nil, fmt.Errorf("%w: %q (%s)", errLicenseRejected, hit.Title, license)
	}

	return &ImageCandidate{
		PageURL:  info.DescriptionURL,
		ThumbURL: info.ThumbURL,
		FullURL:  info.URL,
		License:  license,
		Title:    hit.Title,
	}, nil
}

type imageInfoResponse struct {
	Query struct {
		Pages map[string]struct {
			ImageInfo []imageInfoEntry `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

type imageInfoEntry struct {
	URL            string `json:"url"`
	DescriptionURL string `json:"descriptionurl"`
	ThumbURL       string `json:"thumburl"`
	ExtMetadata    struct {
		LicenseShortName struct {
			Value string `json:"value"`
		} `json:"LicenseShortName"`
	} `json:"extmetadata"`
}

// firstInfo returns the imageinfo entry of the single requested page, or
// nil when the response carries none (missing page, no extended metadata).
func (r *imageInfoResponse) firstInfo() *imageInfoEntry {
	for _, page := range r.Query.Pages {
		if len(page.ImageInfo) > 0 {
			return &page.ImageInfo[0]
		}
	}
	return nil
}
