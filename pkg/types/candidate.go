// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-gatherer pipeline:
// candidate records discovered by a source, the period and year-range values
// used to filter them, and the per-stage configuration structs.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Candidate is a discovered item's metadata prior to file retrieval. It is
// produced once per search result and never mutated afterwards.
type Candidate struct {
	// Title is the document title as listed by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the document authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Link is the canonical landing page for the result.
	Link string `json:"link,omitempty" yaml:"link,omitempty"`

	// FileLink is the direct file URL. Candidates without one are never fetched.
	FileLink string `json:"file_link,omitempty" yaml:"file_link,omitempty"`

	// Period is the publication or modification year-month, when known.
	Period Period `json:"period,omitzero" yaml:"period,omitempty"`

	// Abstract holds the abstract (API sources) or snippet (scraped sources).
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// SourceID is the identifier the source assigned to the result.
	SourceID string `json:"source_id,omitempty" yaml:"source_id,omitempty"`

	// Source names the profile that discovered the result ("scholar", "arxiv").
	Source string `json:"source" yaml:"source"`
}

// HasFile reports whether the candidate carries a file link to fetch.
func (c Candidate) HasFile() bool {
	return strings.TrimSpace(c.FileLink) != ""
}

// Period is a year with an optional month. The zero value means unknown.
type Period struct {
	Year  int
	Month int
}

// ParsePeriod accepts "YYYY", "YYYY-MM" or any longer ISO-8601 prefix such as
// "2023-01-17T18:58:28Z". An empty string yields the zero Period.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Period{}, nil
	}
	if len(s) < 4 {
		return Period{}, fmt.Errorf("period %q too short", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return Period{}, fmt.Errorf("period %q: invalid year: %w", s, err)
	}
	p := Period{Year: year}
	if len(s) >= 7 && s[4] == '-' {
		month, err := strconv.Atoi(s[5:7])
		if err != nil || month < 1 || month > 12 {
			return Period{}, fmt.Errorf("period %q: invalid month", s)
		}
		p.Month = month
	}
	return p, nil
}

// IsZero reports whether the period is unknown.
func (p Period) IsZero() bool { return p.Year == 0 }

// String renders "YYYY-MM", "YYYY" or "" for an unknown period.
func (p Period) String() string {
	switch {
	case p.Year == 0:
		return ""
	case p.Month == 0:
		return fmt.Sprintf("%04d", p.Year)
	default:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
}

// MarshalText implements encoding.TextMarshaler so periods serialize as
// plain strings in JSON and YAML.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// YearRange bounds candidates by publication year. Zero bounds are open.
type YearRange struct {
	Start int `json:"start,omitempty" yaml:"start,omitempty"`
	End   int `json:"end,omitempty" yaml:"end,omitempty"`
}

// IsZero reports whether the range applies no filtering.
func (r YearRange) IsZero() bool { return r.Start == 0 && r.End == 0 }

// Contains reports whether a period falls inside the range. Unknown periods
// are always contained; there is no evidence to exclude them.
func (r YearRange) Contains(p Period) bool {
	if p.IsZero() {
		return true
	}
	if r.Start != 0 && p.Year < r.Start {
		return false
	}
	if r.End != 0 && p.Year > r.End {
		return false
	}
	return true
}

// Filter returns the candidates whose period falls inside the range.
func (r YearRange) Filter(candidates []Candidate) []Candidate {
	if r.IsZero() {
		return candidates
	}
	kept := candidates[:0:0]
	for _, c := range candidates {
		if r.Contains(c.Period) {
			kept = append(kept, c)
		}
	}
	return kept
}
