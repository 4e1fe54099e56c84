// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides whether downloaded bytes correspond to the
// candidate record they were fetched for, by comparing the document's
// embedded title and author fields against the candidate's metadata.
package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// Reason explains a Decision.
type Reason string

const (
	ReasonTitleAndAuthor Reason = "matched-title-and-author"
	ReasonTitle          Reason = "matched-title"
	ReasonAuthor         Reason = "matched-author"
	ReasonMissingAllowed Reason = "metadata-missing-allowed"
	ReasonUnavailable    Reason = "metadata-unavailable"
	ReasonMismatch       Reason = "metadata-mismatch"
	ReasonUnreadable     Reason = "unreadable-document"
)

// Confidence levels attached to accepting decisions.
const (
	ConfidenceBoth    = 1.0
	ConfidenceTitle   = 0.8
	ConfidenceAuthor  = 0.6
	ConfidenceMissing = 0.3
)

// minContainedWords is the shortest title that may match by containment
// rather than equality. Listed titles are often truncated.
const minContainedWords = 3

// Decision is the outcome of evaluating one document.
type Decision struct {
	Accepted   bool    `json:"accepted" yaml:"accepted"`
	Reason     Reason  `json:"reason" yaml:"reason"`
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

// Metadata is what a document exposes about itself.
type Metadata struct {
	Title  string
	Author string
}

// Empty reports whether the document exposes no usable metadata.
func (m Metadata) Empty() bool {
	return Normalize(m.Title) == "" && Normalize(m.Author) == ""
}

// MetadataReader extracts embedded metadata from raw document bytes. An
// error means the bytes could not be parsed as a document at all; a document
// without metadata returns an empty Metadata and nil.
type MetadataReader interface {
	ReadMetadata(body []byte) (Metadata, error)
}

// Filter evaluates downloaded documents. It holds no mutable state, so an
// identical input always yields an identical Decision.
type Filter struct {
	reader MetadataReader
}

// New creates a Filter. A nil reader defaults to PDFReader.
func New(reader MetadataReader) *Filter {
	if reader == nil {
		reader = PDFReader{}
	}
	return &Filter{reader: reader}
}

// Evaluate decides whether body is the document described by c.
func (f *Filter) Evaluate(body []byte, c types.Candidate, allowMissing bool) Decision {
	meta, err := f.reader.ReadMetadata(body)
	if err != nil {
		return Decision{Reason: ReasonUnreadable}
	}
	if meta.Empty() {
		if allowMissing {
			return Decision{Accepted: true, Reason: ReasonMissingAllowed, Confidence: ConfidenceMissing}
		}
		return Decision{Reason: ReasonUnavailable}
	}

	title := TitleMatches(meta.Title, c.Title)
	author := AuthorMatches(meta.Author, c.Authors)
	switch {
	case title && author:
		return Decision{Accepted: true, Reason: ReasonTitleAndAuthor, Confidence: ConfidenceBoth}
	case title:
		return Decision{Accepted: true, Reason: ReasonTitle, Confidence: ConfidenceTitle}
	case author:
		return Decision{Accepted: true, Reason: ReasonAuthor, Confidence: ConfidenceAuthor}
	default:
		return Decision{Reason: ReasonMismatch}
	}
}

// TitleMatches compares a document title against a listed title. Equal
// normalized titles match; otherwise one must contain the other and the
// shorter must have at least three words.
func TitleMatches(docTitle, listed string) bool {
	a, b := Normalize(docTitle), Normalize(listed)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(strings.Fields(short)) < minContainedWords {
		return false
	}
	return strings.Contains(" "+long+" ", " "+short+" ")
}

// AuthorMatches reports whether the surname of any listed author appears as
// a word in the document's author field. Single-letter surnames are ignored.
func AuthorMatches(docAuthor string, listed []string) bool {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(Normalize(docAuthor)) {
		words[w] = struct{}{}
	}
	if len(words) == 0 {
		return false
	}
	for _, name := range listed {
		surname := Surname(name)
		if len([]rune(surname)) < 2 {
			continue
		}
		if _, ok := words[surname]; ok {
			return true
		}
	}
	return false
}

// Surname returns the normalized last word of a personal name.
func Surname(name string) string {
	fields := strings.Fields(Normalize(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// Normalize case-folds s, strips diacritics, replaces punctuation with
// spaces and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
