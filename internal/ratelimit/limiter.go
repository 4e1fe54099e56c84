// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit enforces randomized delays before network calls. Each
// request class draws its delay uniformly from its own interval.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// Class identifies a kind of request with its own delay interval.
type Class int

const (
	// DocumentRetry precedes every attempt of a single document fetch.
	DocumentRetry Class = iota
	// PageToPage separates consecutive result-page requests.
	PageToPage
)

func (c Class) String() string {
	switch c {
	case DocumentRetry:
		return "document-retry"
	case PageToPage:
		return "page-to-page"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Default intervals.
var (
	DefaultDocumentRetry = types.Interval{Min: 2 * time.Second, Max: 5 * time.Second}
	DefaultPage          = types.Interval{Min: 3 * time.Second, Max: 7 * time.Second}
)

// Waiter blocks the caller before a request of the given class.
type Waiter interface {
	Wait(ctx context.Context, class Class) error
}

// Limiter draws delays from per-class intervals using an injected random
// source, so tests can make the draws deterministic.
type Limiter struct {
	intervals map[Class]types.Interval

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a limiter from cfg. Nil intervals use the defaults; an
// interval with Max < Min is clamped to Min.
func New(cfg types.RateLimitConfig, rng *rand.Rand) *Limiter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Limiter{
		intervals: map[Class]types.Interval{
			DocumentRetry: orDefault(cfg.DocumentRetry, DefaultDocumentRetry),
			PageToPage:    orDefault(cfg.Page, DefaultPage),
		},
		rng: rng,
	}
}

func orDefault(set *types.Interval, def types.Interval) types.Interval {
	if set == nil {
		return def
	}
	iv := *set
	if iv.Max < iv.Min {
		iv.Max = iv.Min
	}
	return iv
}

// Delay draws the next delay for class without waiting.
func (l *Limiter) Delay(class Class) time.Duration {
	iv := l.intervals[class]
	span := iv.Max - iv.Min
	if span <= 0 {
		return iv.Min
	}
	l.mu.Lock()
	n := l.rng.Int64N(int64(span) + 1)
	l.mu.Unlock()
	return iv.Min + time.Duration(n)
}

// Wait suspends the caller for a delay drawn for class. It returns early
// with ctx.Err() when ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, class Class) error {
	d := l.Delay(class)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Immediate is a Waiter that never delays. It still honours cancellation.
type Immediate struct{}

// Wait returns ctx.Err() without sleeping.
func (Immediate) Wait(ctx context.Context, _ Class) error { return ctx.Err() }
