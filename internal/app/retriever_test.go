package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manualpilot/internal/model"
	"manualpilot/internal/vectorstore"
)

func TestRetriever_Retrieve(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.CreateManual(context.Background(), &model.Manual{URL: "https://a", Title: "Washer Manual"}))
	require.NoError(t, store.CreateManual(context.Background(), &model.Manual{URL: "https://b", Title: "Router Manual"}))

	store.searchResults = []vectorstore.SearchResult{
		{ChunkID: 10, ManualID: 1, Content: "spin cycle settings", Score: 0.91},
		{ChunkID: 11, ManualID: 2, Content: "wifi password reset", Score: 0.85},
		{ChunkID: 12, ManualID: 1, Content: "drum cleaning", Score: 0.80},
	}

	r := NewRetriever(&fakeEmbedder{}, store)
	chunks, err := r.Retrieve(context.Background(), "how do I reset", 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// Store order preserved, non-increasing similarity.
	assert.Equal(t, "spin cycle settings", chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].Similarity, chunks[i-1].Similarity)
	}

	assert.Equal(t, "Washer Manual", chunks[0].ManualTitle)
	assert.Equal(t, "Router Manual", chunks[1].ManualTitle)
	assert.Equal(t, "Washer Manual", chunks[2].ManualTitle)

	// Titles resolved in one batched lookup over the distinct manual IDs.
	require.Len(t, store.titleLookups, 1)
	assert.Equal(t, []uint{1, 2}, store.titleLookups[0])
}

func TestRetriever_UnknownManualTitle(t *testing.T) {
	store := newFakeStore()
	store.searchResults = []vectorstore.SearchResult{
		{ChunkID: 1, ManualID: 99, Content: "orphan chunk", Score: 0.5},
	}

	chunks, err := NewRetriever(&fakeEmbedder{}, store).Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Unknown", chunks[0].ManualTitle)
}

func TestRetriever_EmptyStore(t *testing.T) {
	chunks, err := NewRetriever(&fakeEmbedder{}, newFakeStore()).Retrieve(context.Background(), "q", 5)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetriever_SearchErrorFailsWhole(t *testing.T) {
	store := newFakeStore()
	store.searchErr = errors.New("index offline")

	chunks, err := NewRetriever(&fakeEmbedder{}, store).Retrieve(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Nil(t, chunks)
}

func TestRetriever_DefaultK(t *testing.T) {
	store := newFakeStore()
	for i := 0; i < 8; i++ {
		store.searchResults = append(store.searchResults, vectorstore.SearchResult{
			ChunkID: uint(i + 1), ManualID: 1, Content: "c", Score: 1 - float32(i)/10,
		})
	}

	chunks, err := NewRetriever(&fakeEmbedder{}, store).Retrieve(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, chunks, DefaultTopK)
}

func TestRetrievedChunk_SourcePreview(t *testing.T) {
	long := strings.Repeat("あ", 250)
	src := RetrievedChunk{ManualID: 1, ManualTitle: "T", Content: long, Similarity: 0.7}.Source()

	assert.Equal(t, 203, utf8.RuneCountInString(src.Preview))
	assert.True(t, strings.HasSuffix(src.Preview, "..."))
	assert.Equal(t, strings.Repeat("あ", 200), strings.TrimSuffix(src.Preview, "..."))

	short := RetrievedChunk{Content: "tiny"}.Source()
	assert.Equal(t, "tiny...", short.Preview)
}
