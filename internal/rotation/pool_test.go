// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rotation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNextHeader_DrawsFromCatalog(t *testing.T) {
	pool := NewPool(nil, nil, nil, NewRand(7), zaptest.NewLogger(t))

	known := make(map[string]bool)
	for _, p := range DefaultProfiles {
		known[p.UserAgent] = true
	}
	for range 50 {
		h := pool.NextHeader()
		assert.True(t, known[h.Get("User-Agent")], "unexpected user agent %q", h.Get("User-Agent"))
		assert.NotEmpty(t, h.Get("Accept"))
	}
}

func TestNextHeader_SeededDrawsRepeat(t *testing.T) {
	a := NewPool(nil, nil, nil, NewRand(42), nil)
	b := NewPool(nil, nil, nil, NewRand(42), nil)
	for range 20 {
		assert.Equal(t, a.NextHeader().Get("User-Agent"), b.NextHeader().Get("User-Agent"))
	}
}

func TestNextHeader_ReturnsFreshHeader(t *testing.T) {
	pool := NewPool(ProfilesFromUserAgents([]string{"only/1.0"}), nil, nil, NewRand(1), nil)
	h := pool.NextHeader()
	h.Set("User-Agent", "mutated")
	assert.Equal(t, "only/1.0", pool.NextHeader().Get("User-Agent"))
}

func TestProfilesFromUserAgents_SkipsBlank(t *testing.T) {
	profiles := ProfilesFromUserAgents([]string{"a/1", "", "b/2"})
	require.Len(t, profiles, 2)
	assert.Equal(t, "b/2", profiles[1].UserAgent)
}

func mustStatic(t *testing.T, name string, raw ...string) *StaticSource {
	t.Helper()
	s, err := NewStaticSource(name, raw)
	require.NoError(t, err)
	return s
}

func TestNextProxy_PrimaryFirst(t *testing.T) {
	primary := mustStatic(t, "primary", "10.0.0.1:8080")
	secondary := mustStatic(t, "secondary", "10.0.0.2:3128")
	pool := NewPool(nil, primary, secondary, NewRand(3), zaptest.NewLogger(t))

	p, ok := pool.NextProxy(context.Background(), PreferPrimary)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.1:8080", p.Host)

	p, ok = pool.NextProxy(context.Background(), PreferSecondary)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2:3128", p.Host)
}

func TestNextProxy_FallsBackToSecondary(t *testing.T) {
	primary := mustStatic(t, "primary")
	secondary := mustStatic(t, "secondary", "socks5://10.0.0.9:1080")
	pool := NewPool(nil, primary, secondary, NewRand(3), zaptest.NewLogger(t))

	p, ok := pool.NextProxy(context.Background(), PreferPrimary)
	require.True(t, ok)
	assert.Equal(t, "socks5", p.Scheme)
}

func TestNextProxy_BothUnavailable(t *testing.T) {
	pool := NewPool(nil, mustStatic(t, "primary"), NewRemoteListSource("secondary", "", nil), NewRand(3), nil)
	p, ok := pool.NextProxy(context.Background(), PreferPrimary)
	assert.False(t, ok)
	assert.Nil(t, p)
}

// emptySource reports success with no proxies.
type emptySource struct{}

func (emptySource) Name() string { return "empty" }
func (emptySource) Proxies(context.Context) ([]*url.URL, error) { return nil, nil }

func TestNextProxy_EmptyListFallsBack(t *testing.T) {
	secondary := mustStatic(t, "secondary", "10.0.0.2:3128")
	pool := NewPool(nil, emptySource{}, secondary, NewRand(3), zaptest.NewLogger(t))

	p, ok := pool.NextProxy(context.Background(), PreferPrimary)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2:3128", p.Host)

	pool = NewPool(nil, emptySource{}, nil, NewRand(3), nil)
	_, ok = pool.NextProxy(context.Background(), PreferPrimary)
	assert.False(t, ok)
}

func TestNewRandStream_IndependentStreams(t *testing.T) {
	rot, delay := NewRandStream(42, StreamRotation), NewRandStream(42, StreamDelay)
	again := NewRandStream(42, StreamDelay)
	fromNewRand := NewRand(42)

	var rotDraws, delayDraws []uint64
	for range 8 {
		r, d := rot.Uint64(), delay.Uint64()
		rotDraws = append(rotDraws, r)
		delayDraws = append(delayDraws, d)
		assert.Equal(t, d, again.Uint64(), "a stream is reproducible")
		assert.Equal(t, r, fromNewRand.Uint64(), "NewRand is the rotation stream")
	}
	assert.NotEqual(t, rotDraws, delayDraws)
}

func TestNextProxy_NilSources(t *testing.T) {
	pool := NewPool(nil, nil, nil, nil, nil)
	_, ok := pool.NextProxy(context.Background(), PreferPrimary)
	assert.False(t, ok)
}

func TestRemoteListSource_CachesSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, "# free list\n10.1.1.1:80\nnot a proxy\n\nhttp://10.1.1.2:8080\n")
	}))
	defer ts.Close()

	src := NewRemoteListSource("remote", ts.URL, ts.Client())
	for range 3 {
		proxies, err := src.Proxies(context.Background())
		require.NoError(t, err)
		require.Len(t, proxies, 2)
		assert.Equal(t, "10.1.1.2:8080", proxies[1].Host)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRemoteListSource_FailureIsNoProxy(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	src := NewRemoteListSource("remote", ts.URL, ts.Client())
	_, err := src.Proxies(context.Background())
	assert.ErrorIs(t, err, ErrNoProxy)
}

func TestParseProxy(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"bare host port", "1.2.3.4:8080", "http://1.2.3.4:8080", false},
		{"with credentials", "http://u:p@proxy.local:3128", "http://u:p@proxy.local:3128", false},
		{"socks", "socks5://proxy.local:1080", "socks5://proxy.local:1080", false},
		{"missing port", "proxy.local", "", true},
		{"bad scheme", "ftp://proxy.local:21", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProxy(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNewStaticSource_RejectsInvalid(t *testing.T) {
	_, err := NewStaticSource("bad", []string{"ftp://x:1"})
	assert.Error(t, err)
}

