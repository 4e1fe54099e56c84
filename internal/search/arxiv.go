// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// DefaultArxivBaseURL is the arXiv API query endpoint.
const DefaultArxivBaseURL = "http://export.arxiv.org/api/query"

// ArxivSource is the API-style profile: an Atom feed per page.
type ArxivSource struct {
	BaseURL string
	Years   types.YearRange
}

// Name returns the profile identifier.
func (s *ArxivSource) Name() string { return "arxiv" }

// PageURL builds the API query for results [start, start+num).
func (s *ArxivSource) PageURL(query string, start, num int) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultArxivBaseURL
	}
	return fmt.Sprintf("%s?search_query=%s&start=%d&max_results=%d",
		base, url.QueryEscape(strings.TrimSpace(query)), start, num)
}

// Extract decodes an Atom feed page.
func (s *ArxivSource) Extract(page []byte, num int) ([]types.Candidate, error) {
	var feed arxivFeed
	if err := xml.Unmarshal(page, &feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var results []types.Candidate
	for _, entry := range feed.Entries {
		if len(results) >= num {
			break
		}
		if strings.Contains(entry.ID, "/api/errors") {
			return nil, fmt.Errorf("arXiv API error: %s", collapseSpace(entry.Summary))
		}

		c := types.Candidate{
			Title:    collapseSpace(entry.Title),
			Link:     strings.TrimSpace(entry.ID),
			Abstract: strings.TrimSpace(entry.Summary),
			SourceID: extractArxivID(entry.ID),
			Source:   "arxiv",
		}
		if c.Link != "" {
			c.FileLink = strings.Replace(c.Link, "/abs/", "/pdf/", 1)
		}
		for _, a := range entry.Authors {
			if name := collapseSpace(a.Name); name != "" {
				c.Authors = append(c.Authors, name)
			}
		}
		if p, err := types.ParsePeriod(entry.Updated); err == nil {
			c.Period = p
		}

		if !s.Years.Contains(c.Period) {
			continue
		}
		results = append(results, c)
	}
	return results, nil
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string        `xml:"id"`
	Title   string        `xml:"title"`
	Summary string        `xml:"summary"`
	Updated string        `xml:"updated"`
	Authors []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSpace(idURL[idx+len(prefix):])

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
