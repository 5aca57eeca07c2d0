// Package vectorstore defines the persistence contract for manuals and their
// embedded chunks, including the top-K similarity search primitive the
// retrieval pipeline is built on.
package vectorstore

import (
	"context"
	"errors"

	"manualpilot/internal/model"
)

var ErrManualNotFound = errors.New("manual not found")

// SearchResult is one nearest-neighbor hit. Stores return results pre-sorted
// by descending score with a deterministic tie-break.
type SearchResult struct {
	ChunkID  uint
	ManualID uint
	Content  string
	Score    float32
}

// Store persists manuals and chunks. Operations are individually atomic; the
// replace-on-reingest sequence is deliberately not transactional across calls.
type Store interface {
	CreateManual(ctx context.Context, m *model.Manual) error
	UpdateManual(ctx context.Context, m *model.Manual) error
	// GetManualByURL returns nil without error when no manual has the URL.
	GetManualByURL(ctx context.Context, url string) (*model.Manual, error)
	GetManualsByIDs(ctx context.Context, ids []uint) ([]model.Manual, error)
	ListManuals(ctx context.Context) ([]model.Manual, error)
	// DeleteManual removes the manual and all of its chunks.
	DeleteManual(ctx context.Context, id uint) error
	InsertChunks(ctx context.Context, chunks []model.ManualChunk) error
	DeleteChunksByManualID(ctx context.Context, manualID uint) error
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)
}
