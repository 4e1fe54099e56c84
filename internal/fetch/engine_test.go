// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/paper-gatherer/internal/ratelimit"
	"github.com/pdiddy/paper-gatherer/internal/rotation"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// recordingWaiter counts waits per class without sleeping.
type recordingWaiter struct {
	mu    sync.Mutex
	waits []ratelimit.Class
}

func (r *recordingWaiter) Wait(ctx context.Context, class ratelimit.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, class)
	return ctx.Err()
}

func (r *recordingWaiter) count(class ratelimit.Class) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.waits {
		if c == class {
			n++
		}
	}
	return n
}

func newEngine(t *testing.T, primaryProxies []string, waiter ratelimit.Waiter) *Engine {
	t.Helper()
	primary, err := rotation.NewStaticSource("primary", primaryProxies)
	require.NoError(t, err)
	pool := rotation.NewPool(nil, primary, nil, rotation.NewRand(11), zaptest.NewLogger(t))
	return New(pool, waiter, types.FetchConfig{}, zaptest.NewLogger(t))
}

// statusSequence serves the given statuses in order, repeating the last one.
func statusSequence(calls *int32, statuses ...int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		n := int(atomic.AddInt32(calls, 1))
		status := statuses[len(statuses)-1]
		if n <= len(statuses) {
			status = statuses[n-1]
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprint(w, "%PDF-1.4 body")
		}
	}
}

func closedServerURL(t *testing.T) string {
	t.Helper()
	ts := httptest.NewServer(http.NotFoundHandler())
	u := ts.URL
	ts.Close()
	return u
}

func TestFetch_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusOK))
	defer ts.Close()

	waiter := &recordingWaiter{}
	out, err := newEngine(t, nil, waiter).Fetch(context.Background(), ts.URL, 3)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.True(t, out.OK())
	assert.Equal(t, "%PDF-1.4 body", string(out.Body))
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, waiter.count(ratelimit.DocumentRetry))
}

func TestFetch_AlwaysBlockedExhaustsAfterNAttempts(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(statusSequence(&calls, http.StatusForbidden))
			defer ts.Close()

			waiter := &recordingWaiter{}
			out, err := newEngine(t, nil, waiter).Fetch(context.Background(), ts.URL, n)
			require.NoError(t, err)

			assert.Equal(t, StatusExhausted, out.Status)
			assert.Equal(t, n, out.Attempts)
			assert.Equal(t, int32(n), atomic.LoadInt32(&calls))
			assert.Equal(t, n, waiter.count(ratelimit.DocumentRetry))
			assert.Equal(t, http.StatusForbidden, out.StatusCode)
			assert.Nil(t, out.Body)
		})
	}
}

func TestFetch_BlockedThenSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusTooManyRequests, http.StatusOK))
	defer ts.Close()

	out, err := newEngine(t, nil, &recordingWaiter{}).Fetch(context.Background(), ts.URL, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 2, out.Attempts)
}

func TestFetch_TransportFailureConsumesAttempts(t *testing.T) {
	out, err := newEngine(t, nil, &recordingWaiter{}).Fetch(context.Background(), closedServerURL(t), 3)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, out.Status)
	assert.Equal(t, 3, out.Attempts)
	assert.Error(t, out.Err)
}

func TestFetch_DefaultAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusInternalServerError))
	defer ts.Close()

	out, err := newEngine(t, nil, &recordingWaiter{}).Fetch(context.Background(), ts.URL, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusExhausted, out.Status)
	assert.Equal(t, defaultMaxAttempts, out.Attempts)
}

func TestFetch_SendsRotatedHeaders(t *testing.T) {
	known := make(map[string]bool)
	for _, p := range rotation.DefaultProfiles {
		known[p.UserAgent] = true
	}
	var seen []string
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.UserAgent())
		mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	_, err := newEngine(t, nil, &recordingWaiter{}).Fetch(context.Background(), ts.URL, 4)
	require.NoError(t, err)
	require.Len(t, seen, 4)
	for _, ua := range seen {
		assert.True(t, known[ua], "user agent %q not in catalog", ua)
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := newEngine(t, nil, &recordingWaiter{}).Fetch(ctx, "http://127.0.0.1:1/", 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, out.Attempts)
}

func TestFetchPage_DirectSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusOK))
	defer ts.Close()

	waiter := &recordingWaiter{}
	out, err := newEngine(t, nil, waiter).FetchPage(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 1, out.Attempts)
	assert.Nil(t, out.Proxy)
	assert.Empty(t, waiter.waits)
}

func TestFetchPage_DirectRetrySucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(statusSequence(&calls, http.StatusServiceUnavailable, http.StatusOK))
	defer ts.Close()

	out, err := newEngine(t, nil, &recordingWaiter{}).FetchPage(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 2, out.Attempts)
	assert.Nil(t, out.Proxy)
}

// forwardProxy answers every proxied request itself with status.
func forwardProxy(calls *int32, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		w.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprint(w, "<feed>via proxy</feed>")
		}
	}))
}

func TestFetchPage_EscalatesToProxy(t *testing.T) {
	var direct, proxied int32
	ts := httptest.NewServer(statusSequence(&direct, http.StatusForbidden))
	defer ts.Close()
	proxy := forwardProxy(&proxied, http.StatusOK)
	defer proxy.Close()

	out, err := newEngine(t, []string{proxy.URL}, &recordingWaiter{}).FetchPage(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "<feed>via proxy</feed>", string(out.Body))
	assert.Equal(t, 3, out.Attempts)
	require.NotNil(t, out.Proxy)
	assert.Equal(t, int32(2), atomic.LoadInt32(&direct))
	assert.Equal(t, int32(1), atomic.LoadInt32(&proxied))
}

func TestFetchPage_ProxiedFailureSkipsPage(t *testing.T) {
	var direct, proxied int32
	ts := httptest.NewServer(statusSequence(&direct, http.StatusForbidden))
	defer ts.Close()
	proxy := forwardProxy(&proxied, http.StatusForbidden)
	defer proxy.Close()

	out, err := newEngine(t, []string{proxy.URL}, &recordingWaiter{}).FetchPage(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, out.Status)
	assert.False(t, out.OK())
	assert.Equal(t, http.StatusForbidden, out.StatusCode)
}

func TestFetchPage_NoProxyIsFatal(t *testing.T) {
	var direct int32
	ts := httptest.NewServer(statusSequence(&direct, http.StatusForbidden))
	defer ts.Close()

	_, err := newEngine(t, nil, &recordingWaiter{}).FetchPage(context.Background(), ts.URL)
	require.Error(t, err)

	var fe *FatalError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ProxyChannelUnavailable, fe.Kind)
	assert.Equal(t, ts.URL, fe.URL)
	assert.True(t, IsFatal(err))
}

func TestFetchPage_ProxyTransportErrorIsFatal(t *testing.T) {
	var direct int32
	ts := httptest.NewServer(statusSequence(&direct, http.StatusForbidden))
	defer ts.Close()

	_, err := newEngine(t, []string{closedServerURL(t)}, &recordingWaiter{}).FetchPage(context.Background(), ts.URL)
	require.Error(t, err)

	var fe *FatalError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ProxyChannelFailure, fe.Kind)
	assert.NotEmpty(t, fe.Proxy)
	assert.Error(t, fe.Unwrap())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "exhausted", StatusExhausted.String())
	assert.Equal(t, "proxy-channel-failure", ProxyChannelFailure.String())
}
