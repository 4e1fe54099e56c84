// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store owns the on-disk layout of a gather run: the results.json
// candidate log, each accepted document, and its YAML metadata sidecar.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-gatherer/internal/filter"
	"github.com/pdiddy/paper-gatherer/internal/gather"
	"github.com/pdiddy/paper-gatherer/internal/logging"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

const (
	// ResultsFile is the candidate log written after pagination.
	ResultsFile = "results.json"

	maxSlugLen = 80
)

// Sidecar is the metadata written next to each accepted document.
type Sidecar struct {
	Index      int           `yaml:"index"`
	File       string        `yaml:"file"`
	Title      string        `yaml:"title"`
	Authors    []string      `yaml:"authors,omitempty"`
	Link       string        `yaml:"link,omitempty"`
	FileLink   string        `yaml:"file_link"`
	Period     types.Period  `yaml:"period,omitempty"`
	Abstract   string        `yaml:"abstract,omitempty"`
	Source     string        `yaml:"source,omitempty"`
	SourceID   string        `yaml:"source_id,omitempty"`
	SHA256     string        `yaml:"sha256"`
	Reason     filter.Reason `yaml:"reason"`
	Confidence float64       `yaml:"confidence,omitempty"`
	RunID      string        `yaml:"run_id,omitempty"`
	SavedAt    time.Time     `yaml:"saved_at"`
}

// FileWriter persists accepted documents as "<index>_<slug>.pdf" with a
// "<index>_<slug>.yaml" sidecar in the document's directory.
type FileWriter struct {
	runID string
	now   func() time.Time
	log   *zap.Logger
}

// NewFileWriter creates a FileWriter that stamps sidecars with runID.
func NewFileWriter(runID string, log *zap.Logger) *FileWriter {
	return &FileWriter{runID: runID, now: time.Now, log: logging.OrNop(log)}
}

// Persist writes doc and its sidecar and returns the document path. Both
// files are written through a temporary file and renamed into place.
func (w *FileWriter) Persist(ctx context.Context, doc gather.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(doc.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	stem := fmt.Sprintf("%04d_%s", doc.Index, Slug(doc.Candidate.Title))
	pdfPath := filepath.Join(doc.Dir, stem+".pdf")
	metaPath := filepath.Join(doc.Dir, stem+".yaml")

	if err := writeFileAtomic(pdfPath, doc.Body); err != nil {
		return "", err
	}

	c := doc.Candidate
	data, err := yaml.Marshal(Sidecar{
		Index:      doc.Index,
		File:       filepath.Base(pdfPath),
		Title:      c.Title,
		Authors:    c.Authors,
		Link:       c.Link,
		FileLink:   c.FileLink,
		Period:     c.Period,
		Abstract:   c.Abstract,
		Source:     c.Source,
		SourceID:   c.SourceID,
		SHA256:     doc.Digest,
		Reason:     doc.Decision.Reason,
		Confidence: doc.Decision.Confidence,
		RunID:      w.runID,
		SavedAt:    w.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := writeFileAtomic(metaPath, data); err != nil {
		return "", err
	}

	w.log.Debug("wrote document", zap.String("path", pdfPath), zap.Int("bytes", len(doc.Body)))
	return pdfPath, nil
}

// ReadSidecar loads a sidecar written by Persist.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Sidecar
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &s, nil
}

// WriteResults writes candidates to dir/results.json as a JSON array and
// returns the file path.
func WriteResults(dir string, candidates []types.Candidate) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	if candidates == nil {
		candidates = []types.Candidate{}
	}
	data, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling results: %w", err)
	}
	path := filepath.Join(dir, ResultsFile)
	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// ReadResults loads dir/results.json.
func ReadResults(dir string) ([]types.Candidate, error) {
	path := filepath.Join(dir, ResultsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("cannot find results file %s: %w", path, err)
		}
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var candidates []types.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return candidates, nil
}

// Slug returns a filesystem-safe filename stem for a title.
func Slug(title string) string {
	slug := strings.ReplaceAll(filter.Normalize(title), " ", "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(truncateRunes(slug, maxSlugLen), "-")
	}
	if slug == "" {
		return "document"
	}
	return slug
}

// truncateRunes cuts s at the last rune boundary at or below maxBytes.
func truncateRunes(s string, maxBytes int) string {
	cut := 0
	for i := range s {
		if i > maxBytes {
			break
		}
		cut = i
	}
	return s[:cut]
}

// writeFileAtomic writes data to a temporary file in path's directory and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".gather-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
