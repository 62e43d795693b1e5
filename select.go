package imagesource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// resolveOutcome is the per-hit result of the concurrent metadata fan-out.
// Exactly one of candidate / err is set.
type resolveOutcome struct {
	candidate *ImageCandidate
	err       error
}

// DiscoverImages searches for term and returns up to cfg.MaxResults
// candidates whose licenses pass the permissive allow-list, in upstream
// relevance order.
//
// Discovery is best-effort: search failures and per-hit resolution failures
// degrade to fewer (or zero) candidates and are logged, never returned.
func (cfg *Config) DiscoverImages(ctx context.Context, term string) []ImageCandidate {
	if term == "" {
		return nil
	}

	cfg.defaults()

	if cfg.OnSearch != nil {
		cfg.OnSearch()
	}

	provider := cfg.resolveProvider()

	// Request twice the cap to leave headroom for hits the license
	// allow-list rejects.
	hits, err := provider.Search(ctx, term, 2*cfg.MaxResults)
	if err != nil {
		slog.Warn("imagesource: search failed", "provider", provider.Name(), "term", term, "error", err.Error())
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	outcomes := cfg.resolveAll(ctx, hits)

	dedup := &dedupFilter{}
	selected := make([]ImageCandidate, 0, cfg.MaxResults)
	for i, out := range outcomes {
		if out.err != nil {
			slog.Debug("imagesource: hit dropped", "title", hits[i].Title, "reason", out.err.Error())
			continue
		}
		if cfg.DedupCandidates && cfg.isDuplicateCandidate(ctx, dedup, out.candidate) {
			slog.Debug("imagesource: dedup rejected", "title", out.candidate.Title)
			continue
		}
		selected = append(selected, *out.candidate)
		if len(selected) >= cfg.MaxResults {
			break
		}
	}
	return selected
}

// resolveAll launches one resolution per hit and waits for all of them.
// Each goroutine writes into its own slot, so the returned slice is indexed
// by hit order regardless of completion order, and one hit's failure never
// blocks or cancels the others.
func (cfg *Config) resolveAll(ctx context.Context, hits []SearchHit) []resolveOutcome {
	outcomes := make([]resolveOutcome, len(hits))

	var wg sync.WaitGroup
	for i, hit := range hits {
		wg.Add(1)
		go func(i int, hit SearchHit) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// A recovered resolution counts as failed, so the
					// selection loop never sees a half-written slot.
					outcomes[i] = resolveOutcome{err: fmt.Errorf("resolve %q panicked: %v", hit.Title, r)}
					if cfg.OnPanic != nil {
						cfg.OnPanic("resolveCandidate", r)
					}
				}
			}()

			cand, err := cfg.resolveCandidate(ctx, hit)
			outcomes[i] = resolveOutcome{candidate: cand, err: err}
		}(i, hit)
	}
	wg.Wait()

	return outcomes
}

// isDuplicateCandidate downloads the candidate's thumbnail and checks it
// against the perceptual dedup filter. Any failure along the way accepts
// the candidate (graceful degradation).
func (cfg *Config) isDuplicateCandidate(ctx context.Context, dedup *dedupFilter, cand *ImageCandidate) bool {
	img := cfg.downloadForDedup(ctx, cand.ThumbURL)
	if img == nil {
		return false
	}
	return dedup.isDuplicate(img)
}
