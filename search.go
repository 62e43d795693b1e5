package imagesource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const searchTimeout = 15 * time.Second

// SearchHit is an upstream file-page identifier. Hit order is the upstream
// relevance order and is preserved all the way to the selected candidates.
type SearchHit struct {
	Title string
}

// SearchProvider is the interface all search backends must implement.
type SearchProvider interface {
	// Search returns up to limit file-namespace hits for term, in
	// relevance order.
	Search(ctx context.Context, term string, limit int) ([]SearchHit, error)

	// Name returns the provider identifier (e.g. "commons").
	Name() string
}

// CommonsProvider implements SearchProvider against a MediaWiki Action API
// endpoint (Wikimedia Commons by default), restricted to the File namespace.
type CommonsProvider struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

func (p *CommonsProvider) Name() string { return "commons" }

// fileNamespace is the MediaWiki namespace id for File: pages.
const fileNamespace = "6"

func (p *CommonsProvider) Search(ctx context.Context, term string, limit int) ([]SearchHit, error) {
	if p.BaseURL == "" {
		return nil, fmt.Errorf("missing commons base url")
	}
	if limit <= 0 {
		limit = 2 * MaxSearchResults
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", term)
	q.Set("srnamespace", fileNamespace)
	q.Set("srlimit", fmt.Sprintf("%d", limit))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.UserAgent)

	hc := p.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("commons search status: %d", resp.StatusCode)
	}

	var sr commonsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(sr.Query.Search))
	for _, r := range sr.Query.Search {
		if r.Title == "" {
			continue
		}
		hits = append(hits, SearchHit{Title: r.Title})
		if len(hits) >= limit {
			break
		}
	}
	return hits, nil
}

type commonsSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}
