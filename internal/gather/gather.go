// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gather sequences fetch, filter, dedup and persist for every
// candidate of a query session. A failure on one candidate never stops the
// run; only cancellation or a failed persist does.
package gather

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/dedup"
	"github.com/pdiddy/paper-gatherer/internal/fetch"
	"github.com/pdiddy/paper-gatherer/internal/filter"
	"github.com/pdiddy/paper-gatherer/internal/logging"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// ErrPersist marks a failure of the persistence collaborator. It is fatal
// to the run.
var ErrPersist = errors.New("persisting document")

// DefaultMaxAttempts is the per-document fetch budget when none is set.
const DefaultMaxAttempts = 2

// DocumentFetcher retrieves one document with a bounded number of attempts.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string, maxAttempts int) (fetch.Outcome, error)
}

// Evaluator decides whether fetched bytes match their candidate.
type Evaluator interface {
	Evaluate(body []byte, c types.Candidate, allowMissing bool) filter.Decision
}

// Document is an accepted, not yet duplicated document handed to the
// Persister.
type Document struct {
	// Index is the sequential number of the document within the run,
	// starting at 1.
	Index     int
	Dir       string
	Body      []byte
	Candidate types.Candidate
	Decision  filter.Decision

	// Digest is the hex SHA-256 of Body.
	Digest string
}

// Persister writes an accepted document and returns where it went.
type Persister interface {
	Persist(ctx context.Context, doc Document) (string, error)
}

// Tally counts persisted documents. Only the Orchestrator advances it.
type Tally struct {
	accepted int
}

// Accepted returns the number of documents persisted so far.
func (t Tally) Accepted() int { return t.accepted }

// Summary counts the terminal outcome of every candidate in a run.
type Summary struct {
	Candidates  int `json:"candidates"`
	Skipped     int `json:"skipped"`
	Duplicates  int `json:"duplicates"`
	Fetched     int `json:"fetched"`
	FetchFailed int `json:"fetch_failed"`
	Rejected    int `json:"rejected"`
	Accepted    int `json:"accepted"`
}

// Deps are the collaborators of an Orchestrator. Reporter may be nil.
type Deps struct {
	Fetcher   DocumentFetcher
	Evaluator Evaluator
	Dedup     *dedup.Deduplicator
	Persister Persister
	Reporter  Reporter
}

// Orchestrator drives the per-candidate state machine for one session.
// It is not safe for concurrent use; each session owns one.
type Orchestrator struct {
	deps  Deps
	cfg   types.GatherConfig
	log   *zap.Logger
	tally Tally

	attempted map[string]struct{}
}

// New creates an Orchestrator. A nil Evaluator defaults to a PDF metadata
// filter and a nil Dedup to an in-memory set.
func New(deps Deps, cfg types.GatherConfig, log *zap.Logger) *Orchestrator {
	log = logging.OrNop(log)
	if deps.Evaluator == nil {
		deps.Evaluator = filter.New(nil)
	}
	if deps.Dedup == nil {
		deps.Dedup = dedup.New()
	}
	if deps.Reporter == nil {
		deps.Reporter = NewLogReporter(log)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{
		deps:      deps,
		cfg:       cfg,
		log:       log,
		attempted: make(map[string]struct{}),
	}
}

// Tally returns the current tally.
func (o *Orchestrator) Tally() Tally { return o.tally }

// Gather processes candidates in order. The returned Summary covers every
// candidate processed before Gather returned, including on error. The error
// is ctx.Err() on cancellation or wraps ErrPersist.
func (o *Orchestrator) Gather(ctx context.Context, candidates []types.Candidate) (Summary, error) {
	var sum Summary
	total := len(candidates)
	o.log.Info("gathering files", zap.Int("candidates", total), zap.String("dir", o.cfg.OutputDir))

	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Candidates++
		ev := Event{Position: i + 1, Total: total, Candidate: c}

		if reason, skip := o.precheck(c); skip {
			if reason == ReasonDuplicate {
				sum.Duplicates++
			} else {
				sum.Skipped++
			}
			o.report(ev, StateSkipped, reason)
			continue
		}
		o.attempted[c.FileLink] = struct{}{}

		o.report(ev, StateFetching, "")
		out, err := o.deps.Fetcher.Fetch(ctx, c.FileLink, o.cfg.MaxAttempts)
		if err != nil {
			return sum, err
		}
		ev.Attempts = out.Attempts
		if !out.OK() {
			sum.FetchFailed++
			o.report(ev, StateFetchFailed, out.Status.String())
			continue
		}
		sum.Fetched++
		o.report(ev, StateFetched, "")

		o.report(ev, StateFiltering, "")
		decision := o.deps.Evaluator.Evaluate(out.Body, c, o.cfg.AllowMissingMetadata)
		if !decision.Accepted {
			sum.Rejected++
			o.report(ev, StateRejected, string(decision.Reason))
			continue
		}
		o.report(ev, StateAccepted, string(decision.Reason))

		contentKey := dedup.ContentKey(out.Body)
		if o.deps.Dedup.Seen(contentKey) {
			sum.Duplicates++
			o.report(ev, StateRejected, ReasonDuplicate)
			continue
		}

		if err := ctx.Err(); err != nil {
			return sum, err
		}
		doc := Document{
			Index:     o.tally.accepted + 1,
			Dir:       o.cfg.OutputDir,
			Body:      out.Body,
			Candidate: c,
			Decision:  decision,
			Digest:    contentKey.Digest(),
		}
		path, err := o.deps.Persister.Persist(ctx, doc)
		if err != nil {
			return sum, fmt.Errorf("%w %d (%s): %w", ErrPersist, doc.Index, c.FileLink, err)
		}
		o.tally.accepted++
		sum.Accepted = o.tally.accepted

		keys := []dedup.Key{contentKey}
		if k, ok := dedup.MetadataKey(c); ok {
			keys = append(keys, k)
		}
		if err := o.deps.Dedup.Mark(ctx, keys...); err != nil {
			o.log.Warn("recording accepted document in dedup index", zap.String("path", path), zap.Error(err))
		}

		ev.Index, ev.Path = doc.Index, path
		o.report(ev, StatePersisted, "")
	}

	o.log.Info("gathering complete",
		zap.Int("candidates", sum.Candidates),
		zap.Int("skipped", sum.Skipped),
		zap.Int("duplicates", sum.Duplicates),
		zap.Int("fetched", sum.Fetched),
		zap.Int("fetch_failed", sum.FetchFailed),
		zap.Int("rejected", sum.Rejected),
		zap.Int("accepted", sum.Accepted))
	return sum, nil
}

// precheck decides, before any network traffic, whether c is skipped.
func (o *Orchestrator) precheck(c types.Candidate) (string, bool) {
	if !c.HasFile() {
		return ReasonNoFileLink, true
	}
	if !o.cfg.Years.Contains(c.Period) {
		return ReasonOutOfRange, true
	}
	if _, ok := o.attempted[c.FileLink]; ok {
		return ReasonDuplicateLink, true
	}
	if k, ok := dedup.MetadataKey(c); ok && o.deps.Dedup.Seen(k) {
		return ReasonDuplicate, true
	}
	return "", false
}

func (o *Orchestrator) report(ev Event, state State, reason string) {
	ev.State = state
	ev.Reason = reason
	o.deps.Reporter.Report(ev)
}
