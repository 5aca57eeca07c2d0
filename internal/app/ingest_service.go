package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"manualpilot/internal/chunker"
	"manualpilot/internal/extract"
	"manualpilot/internal/model"
	"manualpilot/internal/vectorstore"
)

// DefaultEmbedBatchSize bounds concurrent outbound embedding calls: chunks in
// a batch embed concurrently, batches run sequentially.
const DefaultEmbedBatchSize = 5

type IngestInput struct {
	URL   string
	Title string // optional; overrides the extracted title
}

// IngestService drives extraction, chunking, embedding and storage for one
// source URL. Re-ingesting a known URL replaces its chunk set wholesale.
type IngestService struct {
	store        vectorstore.Store
	embedder     Embedder
	chunker      *chunker.Chunker
	extractorFor func(kind model.SourceKind) extract.Extractor
	batchSize    int
}

func NewIngestService(store vectorstore.Store, embedder Embedder, ck *chunker.Chunker, batchSize int) *IngestService {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &IngestService{
		store:        store,
		embedder:     embedder,
		chunker:      ck,
		extractorFor: extract.ForKind,
		batchSize:    batchSize,
	}
}

// Ingest validates the URL, extracts and chunks the source, then writes the
// manual and its freshly embedded chunks. The delete-then-insert replacement
// is not atomic: a concurrent read may briefly observe missing chunks.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*model.Manual, error) {
	rawURL := strings.TrimSpace(input.URL)
	if err := ValidateIngestURL(rawURL); err != nil {
		return nil, err
	}

	kind := extract.KindForURL(rawURL)
	title, text, err := s.extractorFor(kind).Extract(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if custom := strings.TrimSpace(input.Title); custom != "" {
		title = custom
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no usable text extracted", ErrExtraction)
	}

	existing, err := s.store.GetManualByURL(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	var manual *model.Manual
	if existing != nil {
		if err := s.store.DeleteChunksByManualID(ctx, existing.ID); err != nil {
			return nil, err
		}
		existing.Title = title
		existing.ChunkCount = len(chunks)
		if err := s.store.UpdateManual(ctx, existing); err != nil {
			return nil, err
		}
		manual = existing
	} else {
		manual = &model.Manual{
			URL:        rawURL,
			Title:      title,
			Kind:       kind,
			ChunkCount: len(chunks),
		}
		if err := s.store.CreateManual(ctx, manual); err != nil {
			return nil, err
		}
	}

	if err := s.insertChunks(ctx, manual.ID, chunks); err != nil {
		return nil, err
	}
	return manual, nil
}

// insertChunks embeds and stores chunks batch by batch. A failing batch aborts
// the remainder; earlier batches are not rolled back, and the returned error
// says whether anything was written.
func (s *IngestService) insertChunks(ctx context.Context, manualID uint, chunks []string) error {
	inserted := 0
	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		rows := make([]model.ManualChunk, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i := range batch {
			i := i
			g.Go(func() error {
				vec, err := s.embedder.Embed(gctx, batch[i])
				if err != nil {
					return fmt.Errorf("embed chunk %d failed: %w", start+i, err)
				}
				row := model.ManualChunk{
					ManualID:   manualID,
					ChunkIndex: start + i,
					Content:    batch[i],
				}
				row.SetEmbedding(vec)
				rows[i] = row
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return s.abortErr(inserted, err)
		}
		if err := s.store.InsertChunks(ctx, rows); err != nil {
			return s.abortErr(inserted, err)
		}
		inserted += len(rows)
	}
	return nil
}

func (s *IngestService) abortErr(inserted int, err error) error {
	if inserted == 0 {
		return err
	}
	return fmt.Errorf("%w after %d chunks: %v", ErrPartialWrite, inserted, err)
}

// ValidateIngestURL accepts absolute http or https URLs only.
func ValidateIngestURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
