// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup tracks the identities of accepted documents so repeats are
// suppressed within a run and, when an Index is attached, across runs.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/pdiddy/paper-gatherer/internal/filter"
	"github.com/pdiddy/paper-gatherer/pkg/types"
)

// Key is a normalized document identity.
type Key string

const (
	metaPrefix    = "meta:"
	contentPrefix = "sha256:"
)

// MetadataKey derives a key from a candidate's title and authors. It
// reports false when the candidate has no usable title, since authors
// alone do not identify a document.
func MetadataKey(c types.Candidate) (Key, bool) {
	title := filter.Normalize(c.Title)
	if title == "" {
		return "", false
	}
	authors := make([]string, 0, len(c.Authors))
	for _, a := range c.Authors {
		if n := filter.Normalize(a); n != "" {
			authors = append(authors, n)
		}
	}
	return Key(metaPrefix + title + "|" + strings.Join(authors, ";")), true
}

// ContentKey derives a key from fetched bytes.
func ContentKey(body []byte) Key {
	sum := sha256.Sum256(body)
	return Key(contentPrefix + hex.EncodeToString(sum[:]))
}

// Digest returns the hex digest carried by a content key, or "" for other
// keys.
func (k Key) Digest() string {
	d, ok := strings.CutPrefix(string(k), contentPrefix)
	if !ok {
		return ""
	}
	return d
}

// Deduplicator is a set of accepted keys. It is safe for concurrent use,
// though each query session is expected to own its own instance.
type Deduplicator struct {
	mu    sync.Mutex
	keys  map[Key]struct{}
	index *Index
}

// New returns an empty, memory-only Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{keys: make(map[Key]struct{})}
}

// NewWithIndex returns a Deduplicator seeded from idx. Marked keys are
// written through to idx.
func NewWithIndex(ctx context.Context, idx *Index) (*Deduplicator, error) {
	keys, err := idx.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("seeding from index: %w", err)
	}
	d := New()
	d.index = idx
	for _, k := range keys {
		d.keys[k] = struct{}{}
	}
	return d, nil
}

// Seen reports whether k has been marked.
func (d *Deduplicator) Seen(k Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.keys[k]
	return ok
}

// Mark records keys as accepted. Marking is idempotent. The in-memory set
// is always updated; an error reports only a failed index write.
func (d *Deduplicator) Mark(ctx context.Context, keys ...Key) error {
	d.mu.Lock()
	for _, k := range keys {
		d.keys[k] = struct{}{}
	}
	d.mu.Unlock()

	if d.index == nil {
		return nil
	}
	return d.index.Add(ctx, keys...)
}

// Len returns the number of distinct marked keys.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.keys)
}
