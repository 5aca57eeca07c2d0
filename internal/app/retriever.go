package app

import (
	"context"
	"fmt"

	"manualpilot/internal/model"
	"manualpilot/internal/vectorstore"
)

const (
	DefaultTopK = 5

	// previewLen bounds the chunk text shown in a citation; the full text is
	// still used as model context.
	previewLen = 200
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RetrievedChunk is one ranked retrieval hit carrying the full chunk text for
// context assembly alongside the resolved manual title.
type RetrievedChunk struct {
	ManualID    uint
	ManualTitle string
	Content     string
	Similarity  float32
}

// Source converts the hit to its display form.
func (c RetrievedChunk) Source() model.RetrievedSource {
	return model.RetrievedSource{
		ManualID:    c.ManualID,
		ManualTitle: c.ManualTitle,
		Preview:     preview(c.Content),
		Similarity:  c.Similarity,
	}
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) > previewLen {
		runes = runes[:previewLen]
	}
	return string(runes) + "..."
}

// Retriever answers "which stored chunks ground this question": it embeds the
// query, asks the store for the top-k chunks and resolves their manual titles.
type Retriever struct {
	embedder Embedder
	store    vectorstore.Store
}

func NewRetriever(embedder Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns up to k chunks in the store's descending-similarity order.
// A search failure fails the whole call; no partial results are returned.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]RetrievedChunk, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	hits, err := r.store.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	// One batched title lookup for the distinct manuals, not one per chunk.
	seen := make(map[uint]bool, len(hits))
	var ids []uint
	for _, h := range hits {
		if !seen[h.ManualID] {
			seen[h.ManualID] = true
			ids = append(ids, h.ManualID)
		}
	}
	manuals, err := r.store.GetManualsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve manual titles failed: %w", err)
	}
	titles := make(map[uint]string, len(manuals))
	for _, m := range manuals {
		titles[m.ID] = m.Title
	}

	chunks := make([]RetrievedChunk, len(hits))
	for i, h := range hits {
		title := titles[h.ManualID]
		if title == "" {
			title = "Unknown"
		}
		chunks[i] = RetrievedChunk{
			ManualID:    h.ManualID,
			ManualTitle: title,
			Content:     h.Content,
			Similarity:  h.Score,
		}
	}
	return chunks, nil
}
