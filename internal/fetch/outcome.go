// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"errors"
	"fmt"
	"net/url"
)

// Status classifies the result of a fetch.
type Status int

const (
	StatusSuccess Status = iota
	StatusBlocked
	StatusTransientFailure
	StatusExhausted
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusBlocked:
		return "blocked"
	case StatusTransientFailure:
		return "transient-failure"
	case StatusExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of Fetch or FetchPage. Body is only set on success.
// Attempts never exceeds the attempt budget the caller passed in.
type Outcome struct {
	Status   Status
	Body     []byte
	Attempts int

	// StatusCode is the HTTP status of the last response, 0 if none arrived.
	StatusCode int

	// Err is the last transport error, if any.
	Err error

	// Proxy is the proxy used by the last attempt, nil for direct requests.
	Proxy *url.URL
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool { return o.Status == StatusSuccess }

// FatalKind distinguishes the two ways the page channel can become unusable.
type FatalKind int

const (
	// ProxyChannelUnavailable: no proxy source yielded a proxy when one was required.
	ProxyChannelUnavailable FatalKind = iota + 1
	// ProxyChannelFailure: a transport error occurred while using a proxy.
	ProxyChannelFailure
)

func (k FatalKind) String() string {
	switch k {
	case ProxyChannelUnavailable:
		return "proxy-channel-unavailable"
	case ProxyChannelFailure:
		return "proxy-channel-failure"
	default:
		return fmt.Sprintf("fatal(%d)", int(k))
	}
}

// FatalError aborts a run: the query channel itself is unusable, as opposed
// to a single document being blocked.
type FatalError struct {
	Kind  FatalKind
	URL   string
	Proxy string
	Err   error
}

func (e *FatalError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.URL)
	if e.Proxy != "" {
		msg += " via proxy " + e.Proxy
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
