// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch performs retrying HTTP fetches with rotated request identity.
// Fetch retrieves documents with a bounded attempt budget; FetchPage
// retrieves result pages and escalates to a proxy before giving up.
package fetch

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/paper-gatherer/internal/httputil"
	"github.com/pdiddy/paper-gatherer/internal/logging"
	"github.com/pdiddy/paper-gatherer/internal/ratelimit"
	"github.com/pdiddy/paper-gatherer/internal/rotation"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

const (
	defaultMaxAttempts  = 2
	defaultMaxBodyBytes = 50 << 20

	// directPageAttempts is the number of direct tries before a page request
	// escalates to a proxy.
	directPageAttempts = 2
)

// Engine issues one request at a time and is not safe for concurrent use.
type Engine struct {
	pool        *rotation.Pool
	limiter     ratelimit.Waiter
	timeout     time.Duration
	maxBody     int64
	maxAttempts int
	log         *zap.Logger
}

// New creates an engine. Zero config values select the defaults: 10 s
// timeout, 2 attempts, 50 MiB body limit.
func New(pool *rotation.Pool, limiter ratelimit.Waiter, cfg types.FetchConfig, log *zap.Logger) *Engine {
	if pool == nil {
		pool = rotation.NewPool(nil, nil, nil, nil, log)
	}
	if limiter == nil {
		limiter = ratelimit.Immediate{}
	}
	e := &Engine{
		pool:        pool,
		limiter:     limiter,
		timeout:     cfg.Timeout,
		maxBody:     cfg.MaxBodyBytes,
		maxAttempts: cfg.MaxAttempts,
		log:         logging.OrNop(log),
	}
	if e.timeout <= 0 {
		e.timeout = httputil.DefaultTimeout
	}
	if e.maxBody <= 0 {
		e.maxBody = defaultMaxBodyBytes
	}
	if e.maxAttempts <= 0 {
		e.maxAttempts = defaultMaxAttempts
	}
	return e
}

// attemptResult is the classification of a single request.
type attemptResult struct {
	status    Status
	code      int
	body      []byte
	err       error
	transport bool
}

// Fetch retrieves rawURL with up to maxAttempts attempts (the engine default
// when maxAttempts <= 0). Every attempt waits on the document-retry class and
// draws a fresh header profile. Blocked and transient failures consume an
// attempt; when none succeeds the outcome is StatusExhausted. The returned
// error is non-nil only when ctx is cancelled.
func (e *Engine) Fetch(ctx context.Context, rawURL string, maxAttempts int) (Outcome, error) {
	if maxAttempts <= 0 {
		maxAttempts = e.maxAttempts
	}
	log := e.log.With(zap.String("url", rawURL))

	var out Outcome
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := e.limiter.Wait(ctx, ratelimit.DocumentRetry); err != nil {
			return out, err
		}
		out.Attempts = attempt

		res := e.do(ctx, rawURL, nil)
		out.StatusCode, out.Err = res.code, res.err
		if err := ctx.Err(); err != nil {
			return out, err
		}

		switch res.status {
		case StatusSuccess:
			out.Status = StatusSuccess
			out.Body = res.body
			return out, nil
		case StatusBlocked:
			log.Info("request blocked", zap.Int("attempt", attempt), zap.Int("status", res.code))
		default:
			log.Info("request failed", zap.Int("attempt", attempt), zap.Int("status", res.code), zap.Error(res.err))
		}
	}

	out.Status = StatusExhausted
	return out, nil
}

// FetchPage retrieves a result page. A non-success response is retried
// directly once; if that also fails the request is repeated once through a
// proxy from the pool. No available proxy, or a transport error through
// the proxy, is returned as a *FatalError. A non-success status through the
// proxy returns the classified outcome with a nil error so the caller can
// skip the page.
func (e *Engine) FetchPage(ctx context.Context, rawURL string) (Outcome, error) {
	log := e.log.With(zap.String("url", rawURL))

	var out Outcome
	for attempt := 1; attempt <= directPageAttempts; attempt++ {
		if attempt > 1 {
			if err := e.limiter.Wait(ctx, ratelimit.DocumentRetry); err != nil {
				return out, err
			}
		}
		out.Attempts++

		res := e.do(ctx, rawURL, nil)
		out.StatusCode, out.Err = res.code, res.err
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if res.status == StatusSuccess {
			out.Status = StatusSuccess
			out.Body = res.body
			return out, nil
		}
		out.Status = res.status
		log.Warn("page request failed", zap.Int("attempt", attempt), zap.Int("status", res.code), zap.Error(res.err))
	}

	proxy, ok := e.pool.NextProxy(ctx, rotation.PreferPrimary)
	if !ok {
		return out, &FatalError{Kind: ProxyChannelUnavailable, URL: rawURL}
	}
	if err := e.limiter.Wait(ctx, ratelimit.DocumentRetry); err != nil {
		return out, err
	}
	out.Attempts++
	out.Proxy = proxy

	res := e.do(ctx, rawURL, proxy)
	out.StatusCode, out.Err = res.code, res.err
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if res.transport {
		return out, &FatalError{Kind: ProxyChannelFailure, URL: rawURL, Proxy: proxy.Redacted(), Err: res.err}
	}
	out.Status = res.status
	if res.status == StatusSuccess {
		out.Body = res.body
		return out, nil
	}
	log.Warn("proxied page request failed, skipping page",
		zap.String("proxy", proxy.Redacted()), zap.Int("status", res.code))
	return out, nil
}

// do issues one GET with a freshly drawn header profile.
func (e *Engine) do(ctx context.Context, rawURL string, proxy *url.URL) attemptResult {
	profile := rotation.Profile{Header: e.pool.NextHeader(), Proxy: proxy}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return attemptResult{status: StatusTransientFailure, err: err}
	}
	req.Header = profile.Header

	resp, err := httputil.NewClient(e.timeout, profile.Proxy).Do(req)
	if err != nil {
		return attemptResult{status: StatusTransientFailure, err: err, transport: true}
	}

	switch {
	case httputil.IsSuccess(resp.StatusCode):
		body, err := httputil.ReadBody(resp, e.maxBody)
		if err != nil {
			return attemptResult{status: StatusTransientFailure, code: resp.StatusCode, err: err}
		}
		return attemptResult{status: StatusSuccess, code: resp.StatusCode, body: body}
	case httputil.IsBlocked(resp.StatusCode):
		httputil.Discard(resp)
		return attemptResult{status: StatusBlocked, code: resp.StatusCode}
	default:
		httputil.Discard(resp)
		return attemptResult{status: StatusTransientFailure, code: resp.StatusCode}
	}
}
