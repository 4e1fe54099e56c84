// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-gatherer/pkg/types"
)

func TestSeenAndMark(t *testing.T) {
	d := New()
	k := ContentKey([]byte("%PDF-1.4 body"))

	assert.False(t, d.Seen(k))
	require.NoError(t, d.Mark(context.Background(), k))
	assert.True(t, d.Seen(k))

	require.NoError(t, d.Mark(context.Background(), k))
	require.NoError(t, d.Mark(context.Background(), k, k))
	assert.True(t, d.Seen(k), "mark is idempotent")
	assert.Equal(t, 1, d.Len())
}

func TestMetadataKey(t *testing.T) {
	a := types.Candidate{Title: "Deep Learning: A Survey", Authors: []string{"A. Smith", "B Jones"}}
	b := types.Candidate{Title: "  deep learning -- a   SURVEY ", Authors: []string{"a smith", "B. Jones "}}
	c := types.Candidate{Title: "Deep Learning: A Survey", Authors: []string{"C Doe"}}

	ka, ok := MetadataKey(a)
	require.True(t, ok)
	kb, ok := MetadataKey(b)
	require.True(t, ok)
	kc, ok := MetadataKey(c)
	require.True(t, ok)

	assert.Equal(t, Key("meta:deep learning a survey|a smith;b jones"), ka)
	assert.Equal(t, ka, kb)
	assert.NotEqual(t, ka, kc)

	_, ok = MetadataKey(types.Candidate{Title: " :: ", Authors: []string{"A Smith"}})
	assert.False(t, ok)
}

func TestContentKey(t *testing.T) {
	k := ContentKey([]byte("abc"))
	assert.Equal(t, Key("sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"), k)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", k.Digest())
	assert.Equal(t, ContentKey([]byte("abc")), k)
	assert.NotEqual(t, ContentKey([]byte("abd")), k)

	meta, _ := MetadataKey(types.Candidate{Title: "x y"})
	assert.Empty(t, meta.Digest())
}

func TestConcurrentMark(t *testing.T) {
	d := New()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				_ = d.Mark(context.Background(), ContentKey([]byte{byte(i), byte(j)}))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, d.Len())
}

func TestIndex_PersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "dedup.db")
	k1 := ContentKey([]byte("one"))
	k2 := Key("meta:one|a smith")

	idx, err := OpenIndex(path)
	require.NoError(t, err)
	d, err := NewWithIndex(ctx, idx)
	require.NoError(t, err)
	assert.False(t, d.Seen(k1))
	require.NoError(t, d.Mark(ctx, k1, k2))
	require.NoError(t, d.Mark(ctx, k1))
	require.NoError(t, idx.Close())

	idx, err = OpenIndex(path)
	require.NoError(t, err)
	defer idx.Close()

	keys, err := idx.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Key{k1, k2}, keys)

	d, err = NewWithIndex(ctx, idx)
	require.NoError(t, err)
	assert.True(t, d.Seen(k1))
	assert.True(t, d.Seen(k2))
	assert.Equal(t, 2, d.Len())
}

func TestIndex_AddNothing(t *testing.T) {
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "dedup.db"))
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Add(context.Background()))
	keys, err := idx.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
