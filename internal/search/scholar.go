// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// DefaultScholarBaseURL is the Google Scholar results endpoint.
const DefaultScholarBaseURL = "https://scholar.google.com/scholar"

// ScholarSource is the markup-scraped profile: one HTML results page per
// request, with result blocks under .gs_r.
type ScholarSource struct {
	BaseURL  string
	Language string
	Years    types.YearRange
}

// Name returns the profile identifier.
func (s *ScholarSource) Name() string { return "scholar" }

// PageURL builds the results page for [start, start+num). A configured year
// range is also passed to the source so fewer off-range results come back.
func (s *ScholarSource) PageURL(query string, start, num int) string {
	base := s.BaseURL
	if base == "" {
		base = DefaultScholarBaseURL
	}
	lang := s.Language
	if lang == "" {
		lang = "en"
	}
	u := fmt.Sprintf("%s?hl=%s&num=%d&start=%d&q=%s",
		base, url.QueryEscape(lang), num, start, url.QueryEscape(strings.TrimSpace(query)))
	if s.Years.Start != 0 {
		u += fmt.Sprintf("&as_ylo=%d", s.Years.Start)
	}
	if s.Years.End != 0 {
		u += fmt.Sprintf("&as_yhi=%d", s.Years.End)
	}
	return u
}

// yearPattern finds a four-digit publication year in a byline.
var yearPattern = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

// badgeSelector matches the "[PDF]"/"[HTML]"/"[CITATION]" markers inside titles.
const badgeSelector = "span.gs_ctc, span.gs_ctu, span.gs_ct1, span.gs_ct2"

// Extract parses a results page. Blocks without a title are not results and
// are ignored.
func (s *ScholarSource) Extract(page []byte, num int) ([]types.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing results page: %w", err)
	}

	var results []types.Candidate
	seen := 0
	doc.Find(".gs_r").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		titleSel := el.Find(".gs_rt").First()
		if titleSel.Length() == 0 {
			return true
		}
		if seen >= num {
			return false
		}
		seen++

		title := titleSel.Clone()
		title.Find(badgeSelector).Remove()

		anchor := titleSel.Find("a").First()
		c := types.Candidate{
			Title:    collapseSpace(title.Text()),
			Link:     anchor.AttrOr("href", ""),
			FileLink: el.Find(".gs_or_ggsm a").First().AttrOr("href", ""),
			SourceID: anchor.AttrOr("id", el.AttrOr("data-cid", "")),
			Abstract: collapseSpace(el.Find(".gs_rs").First().Text()),
			Source:   "scholar",
		}
		c.Authors, c.Period = parseByline(el.Find(".gs_a").First().Text())

		if s.Years.Contains(c.Period) {
			results = append(results, c)
		}
		return true
	})
	return results, nil
}

// parseByline splits "A Smith, B Jones… - Venue, 2020 - host" into the
// author list and the publication year.
func parseByline(byline string) ([]string, types.Period) {
	byline = strings.ReplaceAll(byline, "\u00a0", " ")
	parts := strings.Split(byline, " - ")

	var authors []string
	for _, name := range strings.Split(parts[0], ",") {
		name = strings.TrimSpace(strings.NewReplacer("…", "", "...", "").Replace(name))
		if name != "" {
			authors = append(authors, collapseSpace(name))
		}
	}

	var period types.Period
	yearText := byline
	if len(parts) > 1 {
		yearText = parts[1]
	}
	if m := yearPattern.FindAllString(yearText, -1); len(m) > 0 {
		period, _ = types.ParsePeriod(m[len(m)-1])
	}
	return authors, period
}
