// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/dedup"
	"github.com/pdiddy/paper-gatherer/internal/fetch"
	"github.com/pdiddy/paper-gatherer/internal/gather"
	"github.com/pdiddy/paper-gatherer/internal/httputil"
	"github.com/pdiddy/paper-gatherer/internal/ratelimit"
	"github.com/pdiddy/paper-gatherer/internal/rotation"
	"github.com/pdiddy/paper-gatherer/internal/search"
	"github.com/pdiddy/paper-gatherer/internal/store"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// session is one query pipeline over one source profile. Sessions share no
// mutable state, so two may run in parallel.
type session struct {
	profile string
	cfg     types.PipelineConfig
	source  search.Source
	engine  *fetch.Engine
	limiter *ratelimit.Limiter
	log     *zap.Logger
}

// newSession wires the rotation pool, limiter, fetch engine and source
// profile for cfg.
func newSession(profile string, cfg types.PipelineConfig, log *zap.Logger) (*session, error) {
	log = log.With(zap.String("session", profile))

	src, err := newSource(profile, cfg.Source, cfg.Gather.Years)
	if err != nil {
		return nil, err
	}
	pool, err := newPool(cfg.Rotation, cfg.Fetch.Timeout, log)
	if err != nil {
		return nil, err
	}
	limiter := ratelimit.New(cfg.Source.RateLimit, rotation.NewRandStream(cfg.Rotation.Seed, rotation.StreamDelay))

	return &session{
		profile: profile,
		cfg:     cfg,
		source:  src,
		engine:  fetch.New(pool, limiter, cfg.Fetch, log),
		limiter: limiter,
		log:     log,
	}, nil
}

func newSource(profile string, cfg types.SourceConfig, years types.YearRange) (search.Source, error) {
	switch profile {
	case profileScholar:
		return &search.ScholarSource{BaseURL: cfg.BaseURL, Language: cfg.Language, Years: years}, nil
	case profileArxiv:
		return &search.ArxivSource{BaseURL: cfg.BaseURL, Years: years}, nil
	default:
		return nil, fmt.Errorf("unknown source profile %q", profile)
	}
}

// newPool builds the rotation pool. The static list is the primary proxy
// source and the remote list, when configured, the secondary.
func newPool(cfg types.RotationConfig, timeout time.Duration, log *zap.Logger) (*rotation.Pool, error) {
	var primary, secondary rotation.ProxySource
	if len(cfg.Proxies) > 0 {
		s, err := rotation.NewStaticSource("primary", cfg.Proxies)
		if err != nil {
			return nil, fmt.Errorf("primary proxy list: %w", err)
		}
		primary = s
	}
	if cfg.ProxyListURL != "" {
		secondary = rotation.NewRemoteListSource("secondary", cfg.ProxyListURL, httputil.NewClient(timeout, nil))
	}
	profiles := rotation.ProfilesFromUserAgents(cfg.UserAgents)
	return rotation.NewPool(profiles, primary, secondary, rotation.NewRand(cfg.Seed), log), nil
}

// collectResults paginates query and writes results.json. The file is
// written only when pagination completes.
func (s *session) collectResults(ctx context.Context, query string, total int) ([]types.Candidate, error) {
	p := search.NewPaginator(s.source, s.engine, s.limiter, s.log)
	candidates, err := search.Collect(p.Run(ctx, query, total, s.cfg.Source.PageSize))
	if err != nil {
		if fetch.IsFatal(err) {
			s.log.Error("query channel unusable, aborting", zap.Error(err))
		}
		return candidates, err
	}

	path, err := store.WriteResults(s.cfg.Gather.OutputDir, candidates)
	if err != nil {
		return candidates, err
	}
	s.log.Info("results written", zap.String("path", path), zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// gatherFiles fetches, filters and persists candidates.
func (s *session) gatherFiles(ctx context.Context, candidates []types.Candidate) (gather.Summary, error) {
	d := dedup.New()
	if name := s.cfg.Gather.DedupIndex; name != "" {
		idx, err := dedup.OpenIndex(filepath.Join(s.cfg.Gather.OutputDir, name))
		if err != nil {
			return gather.Summary{}, err
		}
		defer idx.Close()
		if d, err = dedup.NewWithIndex(ctx, idx); err != nil {
			return gather.Summary{}, err
		}
	}

	o := gather.New(gather.Deps{
		Fetcher:   s.engine,
		Dedup:     d,
		Persister: store.NewFileWriter(runID, s.log),
	}, s.cfg.Gather, s.log)

	sum, err := o.Gather(ctx, candidates)
	if err != nil {
		s.log.Error("gathering stopped", zap.Int("accepted", o.Tally().Accepted()), zap.Error(err))
	}
	return sum, err
}

// run collects results and gathers their files.
func (s *session) run(ctx context.Context, query string, total int) (gather.Summary, error) {
	candidates, err := s.collectResults(ctx, query, total)
	if err != nil {
		return gather.Summary{}, err
	}
	return s.gatherFiles(ctx, candidates)
}
