// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search drives paginated queries against a source profile and turns
// each result page into candidate records.
package search

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/fetch"
	"github.com/pdiddy/paper-gatherer/internal/logging"
	"github.com/pdiddy/paper-gatherer/internal/ratelimit"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// Source is one paginated source profile. Each profile (arXiv API, Scholar
// markup) builds its own page URLs and extracts its own page layout; the
// downstream contract is identical.
type Source interface {
	Name() string

	// PageURL builds the request for results [start, start+num).
	PageURL(query string, start, num int) string

	// Extract turns one raw page into at most num candidates, preserving
	// page order.
	Extract(page []byte, num int) ([]types.Candidate, error)
}

// PageFetcher retrieves a single result page.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (fetch.Outcome, error)
}

// Paginator issues one page request per iteration until the target result
// count is covered.
type Paginator struct {
	source  Source
	fetcher PageFetcher
	limiter ratelimit.Waiter
	log     *zap.Logger
}

// NewPaginator creates a paginator for src.
func NewPaginator(src Source, fetcher PageFetcher, limiter ratelimit.Waiter, log *zap.Logger) *Paginator {
	if limiter == nil {
		limiter = ratelimit.Immediate{}
	}
	return &Paginator{
		source:  src,
		fetcher: fetcher,
		limiter: limiter,
		log:     logging.OrNop(log).With(zap.String("source", src.Name())),
	}
}

// Run returns a lazy, single-pass sequence of candidates for query. Pages
// start at 0, page_size, 2*page_size, ... while start < total, so exactly
// ceil(total/pageSize) pages are requested. Consecutive pages are separated
// by a page-to-page wait. A page that cannot be fetched or extracted is
// skipped; a fatal fetch error or cancellation is yielded as the final
// element. Ranging over the sequence again re-issues every request.
func (p *Paginator) Run(ctx context.Context, query string, total, pageSize int) iter.Seq2[types.Candidate, error] {
	return func(yield func(types.Candidate, error) bool) {
		if total <= 0 || pageSize <= 0 {
			yield(types.Candidate{}, fmt.Errorf("total results (%d) and page size (%d) must be positive", total, pageSize))
			return
		}
		if strings.TrimSpace(query) == "" {
			yield(types.Candidate{}, fmt.Errorf("query is empty"))
			return
		}

		for start := 0; start < total; start += pageSize {
			if start > 0 {
				if err := p.limiter.Wait(ctx, ratelimit.PageToPage); err != nil {
					yield(types.Candidate{}, err)
					return
				}
			}
			if err := ctx.Err(); err != nil {
				yield(types.Candidate{}, err)
				return
			}

			log := p.log.With(zap.Int("start", start), zap.Int("end", start+pageSize-1))
			pageURL := p.source.PageURL(query, start, pageSize)
			log.Info("requesting results page")

			out, err := p.fetcher.FetchPage(ctx, pageURL)
			if err != nil {
				yield(types.Candidate{}, fmt.Errorf("page starting at %d: %w", start, err))
				return
			}
			if !out.OK() {
				log.Warn("skipping page", zap.String("url", pageURL),
					zap.Stringer("status", out.Status), zap.Int("http_status", out.StatusCode))
				continue
			}

			candidates, err := p.source.Extract(out.Body, pageSize)
			if err != nil {
				log.Warn("skipping unparseable page", zap.String("url", pageURL), zap.Error(err))
				continue
			}
			log.Debug("page extracted", zap.Int("candidates", len(candidates)))

			for _, c := range candidates {
				if !yield(c, nil) {
					return
				}
			}
		}
		p.log.Info("pagination complete", zap.Int("total_results", total))
	}
}

// Collect drains seq into a slice, stopping at the first error. Candidates
// gathered before the error are returned alongside it.
func Collect(seq iter.Seq2[types.Candidate, error]) ([]types.Candidate, error) {
	var out []types.Candidate
	for c, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

// collapseSpace trims s and folds internal whitespace runs to single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
