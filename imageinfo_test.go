package imagesource

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// imageInfoBody builds a MediaWiki prop=imageinfo JSON body for one page.
// A nil info map produces a page without an imageinfo block.
func imageInfoBody(info map[string]any) []byte {
	page := map[string]any{}
	if info != nil {
		page["imageinfo"] = []any{info}
	}
	body, _ := json.Marshal(map[string]any{
		"query": map[string]any{
			"pages": map[string]any{"123": page},
		},
	})
	return body
}

// licensedInfo is an imageinfo entry with the given license short-name.
func licensedInfo(license string) map[string]any {
	info := map[string]any{
		"url":            "https://upload.example.org/full.jpg",
		"descriptionurl": "https://commons.example.org/wiki/File:X.jpg",
		"thumburl":       "https://upload.example.org/thumb.jpg",
		"extmetadata":    map[string]any{},
	}
	if license != "" {
		info["extmetadata"] = map[string]any{
			"LicenseShortName": map[string]any{"value": license},
		}
	}
	return info
}

// newInfoServer serves the given imageinfo body and returns a Config
// pointed at it.
func newInfoServer(t *testing.T, body []byte) *Config {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	cfg := &Config{CommonsURL: srv.URL, HTTPClient: srv.Client()}
	cfg.defaults()
	return cfg
}

func TestResolveCandidatePermissive(t *testing.T) {
	t.Parallel()

	cfg := newInfoServer(t, imageInfoBody(licensedInfo("CC BY-SA 4.0")))

	cand, err := cfg.resolveCandidate(context.Background(), SearchHit{Title: "File:X.jpg"})
	if err != nil {
		t.Fatalf("resolveCandidate returned error: %v", err)
	}
	if cand.FullURL != "https://upload.example.org/full.jpg" {
		t.Errorf("FullURL = %q", cand.FullURL)
	}
	if cand.ThumbURL != "https://upload.example.org/thumb.jpg" {
		t.Errorf("ThumbURL = %q", cand.ThumbURL)
	}
	if cand.PageURL != "https://commons.example.org/wiki/File:X.jpg" {
		t.Errorf("PageURL = %q", cand.PageURL)
	}
	if cand.License != "CC BY-SA 4.0" {
		t.Errorf("License = %q", cand.License)
	}
	if cand.Title != "File:X.jpg" {
		t.Errorf("Title = %q", cand.Title)
	}
}

func TestResolveCandidateMissingImageInfo(t *testing.T) {
	t.Parallel()

	cfg := newInfoServer(t, imageInfoBody(nil))

	_, err := cfg.resolveCandidate(context.Background(), SearchHit{Title: "File:Gone.jpg"})
	if !errors.Is(err, errMissingImageInfo) {
		t.Errorf("resolveCandidate error = %v, want errMissingImageInfo", err)
	}
}

func TestResolveCandidateUnlabeledLicenseRejected(t *testing.T) {
	t.Parallel()

	// Extended metadata present but no short-name: the license defaults to
	// "Unknown", which must not pass the allow-list.
	cfg := newInfoServer(t, imageInfoBody(licensedInfo("")))

	_, err := cfg.resolveCandidate(context.Background(), SearchHit{Title: "File:NoLabel.jpg"})
	if !errors.Is(err, errLicenseRejected) {
		t.Errorf("resolveCandidate error = %v, want errLicenseRejected", err)
	}
}

func TestResolveCandidateRestrictiveLicenseRejected(t *testing.T) {
	t.Parallel()

	cfg := newInfoServer(t, imageInfoBody(licensedInfo("All rights reserved")))

	_, err := cfg.resolveCandidate(context.Background(), SearchHit{Title: "File:Closed.jpg"})
	if !errors.Is(err, errLicenseRejected) {
		t.Errorf("resolveCandidate error = %v, want errLicenseRejected", err)
	}
}

func TestResolveCandidateTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	cfg := &Config{CommonsURL: srv.URL, HTTPClient: srv.Client()}
	cfg.defaults()

	_, err := cfg.resolveCandidate(context.Background(), SearchHit{Title: "File:X.jpg"})
	if err == nil {
		t.Fatal("resolveCandidate on HTTP 502 returned nil error, want error")
	}
	// A transport failure is distinct from shape and licensing rejections.
	if errors.Is(err, errMissingImageInfo) || errors.Is(err, errLicenseRejected) {
		t.Errorf("transport failure classified as %v", err)
	}
}
