// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// NewClient returns a client with the given timeout that routes through
// proxy when it is non-nil. Keep-alives are disabled: rotated identities
// never share a connection.
func NewClient(timeout time.Duration, proxy *url.URL) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		tr.Proxy = http.ProxyURL(proxy)
	} else {
		tr.Proxy = nil
	}
	tr.DisableKeepAlives = true
	return &http.Client{Timeout: timeout, Transport: tr}
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// IsBlocked reports whether status signals that the source refused the
// request as automated traffic: 403 Forbidden or 429 Too Many Requests.
func IsBlocked(status int) bool {
	return status == http.StatusForbidden || status == http.StatusTooManyRequests
}

// ReadBody reads at most maxBytes from resp and closes it. A body larger
// than the limit is an error rather than a silent truncation.
func ReadBody(resp *http.Response, maxBytes int64) ([]byte, error) {
	defer resp.Body.Close()
	if maxBytes <= 0 {
		return io.ReadAll(resp.Body)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", maxBytes)
	}
	return data, nil
}

// Discard drains and closes the response body so the connection can be reused.
func Discard(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
