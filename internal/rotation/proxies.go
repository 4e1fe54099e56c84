// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rotation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// ErrNoProxy reports that a source has no usable proxy to offer.
var ErrNoProxy = errors.New("no proxy available")

// ProxySource supplies candidate proxies. Implementations return ErrNoProxy
// (possibly wrapped) when they have nothing to offer.
type ProxySource interface {
	Name() string
	Proxies(ctx context.Context) ([]*url.URL, error)
}

// StaticSource serves a fixed list of proxies, typically from configuration.
type StaticSource struct {
	name    string
	proxies []*url.URL
}

// NewStaticSource parses raw proxy addresses. Entries without a scheme are
// treated as http proxies. Unparseable entries are reported as an error.
func NewStaticSource(name string, raw []string) (*StaticSource, error) {
	s := &StaticSource{name: name}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		u, err := ParseProxy(r)
		if err != nil {
			return nil, err
		}
		s.proxies = append(s.proxies, u)
	}
	return s, nil
}

// Name returns the source name.
func (s *StaticSource) Name() string { return s.name }

// Proxies returns the configured list or ErrNoProxy when it is empty.
func (s *StaticSource) Proxies(context.Context) ([]*url.URL, error) {
	if len(s.proxies) == 0 {
		return nil, ErrNoProxy
	}
	return s.proxies, nil
}

// RemoteListSource downloads a plain-text proxy list (one address per line,
// '#' comments allowed) once and serves it for the rest of the run. Failed
// downloads are not cached so a later call may succeed.
type RemoteListSource struct {
	name   string
	url    string
	client *http.Client

	mu      sync.Mutex
	proxies []*url.URL
}

// NewRemoteListSource creates a source backed by the list at listURL.
func NewRemoteListSource(name, listURL string, client *http.Client) *RemoteListSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteListSource{name: name, url: listURL, client: client}
}

// Name returns the source name.
func (s *RemoteListSource) Name() string { return s.name }

// Proxies returns the cached list, downloading it on first use.
func (s *RemoteListSource) Proxies(ctx context.Context) ([]*url.URL, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.proxies) > 0 {
		return s.proxies, nil
	}
	if s.url == "" {
		return nil, ErrNoProxy
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating list request: %v", ErrNoProxy, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching proxy list: %v", ErrNoProxy, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: proxy list returned HTTP %d", ErrNoProxy, resp.StatusCode)
	}

	proxies, err := parseProxyList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading proxy list: %v", ErrNoProxy, err)
	}
	if len(proxies) == 0 {
		return nil, ErrNoProxy
	}
	s.proxies = proxies
	return proxies, nil
}

func parseProxyList(r io.Reader) ([]*url.URL, error) {
	var proxies []*url.URL
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := ParseProxy(line)
		if err != nil {
			continue
		}
		proxies = append(proxies, u)
	}
	return proxies, sc.Err()
}

// ParseProxy parses "host:port" or "scheme://[user:pass@]host:port".
func ParseProxy(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing proxy %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("proxy %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" || u.Port() == "" {
		return nil, fmt.Errorf("proxy %q: missing host or port", raw)
	}
	return u, nil
}
