// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rotation supplies request identity material: browser-like header
// profiles drawn from a fixed catalog and proxies drawn from a primary source
// with a secondary fallback.
package rotation

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/logging"
)

// Preference selects which proxy source is consulted first.
type Preference int

const (
	PreferPrimary Preference = iota
	PreferSecondary
)

// Profile is one immutable draw of identity material.
type Profile struct {
	Header http.Header
	Proxy  *url.URL
}

// Pool draws header profiles uniformly at random with replacement and
// proxies from its two sources. Its catalog is read-only and may be shared;
// the random source is owned by the pool.
type Pool struct {
	profiles  []HeaderProfile
	primary   ProxySource
	secondary ProxySource
	log       *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPool creates a pool. An empty catalog falls back to DefaultProfiles;
// nil proxy sources behave as permanently unavailable.
func NewPool(profiles []HeaderProfile, primary, secondary ProxySource, rng *rand.Rand, log *zap.Logger) *Pool {
	if len(profiles) == 0 {
		profiles = DefaultProfiles
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &Pool{
		profiles:  profiles,
		primary:   primary,
		secondary: secondary,
		log:       logging.OrNop(log),
		rng:       rng,
	}
}

// NextHeader returns a fresh header set drawn from the catalog.
func (p *Pool) NextHeader() http.Header {
	p.mu.Lock()
	i := p.rng.IntN(len(p.profiles))
	p.mu.Unlock()
	return p.profiles[i].Header()
}

// NextProxy returns a proxy from the preferred source, falling back to the
// other one. ok is false when neither source can supply a proxy; callers
// decide whether that is fatal.
func (p *Pool) NextProxy(ctx context.Context, pref Preference) (proxy *url.URL, ok bool) {
	first, second := p.primary, p.secondary
	if pref == PreferSecondary {
		first, second = second, first
	}
	for _, src := range []ProxySource{first, second} {
		if src == nil {
			continue
		}
		proxies, err := src.Proxies(ctx)
		if err == nil && len(proxies) == 0 {
			err = ErrNoProxy
		}
		if err != nil {
			if !errors.Is(err, ErrNoProxy) {
				p.log.Warn("proxy source failed", zap.String("source", src.Name()), zap.Error(err))
			} else {
				p.log.Debug("proxy source unavailable", zap.String("source", src.Name()), zap.Error(err))
			}
			continue
		}
		p.mu.Lock()
		proxy = proxies[p.rng.IntN(len(proxies))]
		p.mu.Unlock()
		return proxy, true
	}
	return nil, false
}

// Random streams derived from one configured seed.
const (
	StreamRotation uint64 = iota
	StreamDelay
)

// NewRand returns a seeded PCG source, or an entropy-seeded one for seed 0.
func NewRand(seed int64) *rand.Rand {
	return NewRandStream(seed, StreamRotation)
}

// NewRandStream returns the PCG source for stream under seed. Distinct
// streams of the same seed produce unrelated sequences. Seed 0 uses entropy.
func NewRandStream(seed int64, stream uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), (uint64(seed)^0x9e3779b97f4a7c15)+stream*0xbf58476d1ce4e5b9))
}
