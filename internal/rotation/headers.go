// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rotation

import "net/http"

// HeaderProfile is one browser-like request header set.
type HeaderProfile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
}

// Header renders the profile as a fresh http.Header.
func (p HeaderProfile) Header() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", p.UserAgent)
	if p.Accept != "" {
		h.Set("Accept", p.Accept)
	}
	if p.AcceptLanguage != "" {
		h.Set("Accept-Language", p.AcceptLanguage)
	}
	return h
}

const (
	acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.9,*/*;q=0.8"
	acceptLang = "en-US,en;q=0.9"
)

// DefaultProfiles is the built-in catalog of current desktop browser profiles.
var DefaultProfiles = []HeaderProfile{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36",
		Accept:         acceptHTML,
		AcceptLanguage: acceptLang,
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36",
		Accept:         acceptHTML,
		AcceptLanguage: acceptLang,
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:143.0) Gecko/20100101 Firefox/143.0",
		Accept:         acceptHTML,
		AcceptLanguage: "en-US,en;q=0.5",
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:143.0) Gecko/20100101 Firefox/143.0",
		Accept:         acceptHTML,
		AcceptLanguage: "en-US,en;q=0.5",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.6 Safari/605.1.15",
		Accept:         acceptHTML,
		AcceptLanguage: "en-GB,en;q=0.9",
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36 Edg/141.0.0.0",
		Accept:         acceptHTML,
		AcceptLanguage: acceptLang,
	},
}

// ProfilesFromUserAgents builds a catalog from bare user-agent strings using
// the default accept headers. Blank entries are ignored.
func ProfilesFromUserAgents(agents []string) []HeaderProfile {
	var profiles []HeaderProfile
	for _, ua := range agents {
		if ua == "" {
			continue
		}
		profiles = append(profiles, HeaderProfile{
			UserAgent:      ua,
			Accept:         acceptHTML,
			AcceptLanguage: acceptLang,
		})
	}
	return profiles
}
