// Package mysql implements the vector store on MySQL via gorm. Embeddings are
// stored as JSON text columns and similarity is scored in-process, which is
// adequate at manual-library scale and keeps the storage engine ordinary.
package mysql

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"manualpilot/internal/model"
	"manualpilot/internal/vectorstore"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateManual(ctx context.Context, m *model.Manual) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create manual failed: %w", err)
	}
	return nil
}

func (s *Store) UpdateManual(ctx context.Context, m *model.Manual) error {
	err := s.db.WithContext(ctx).Model(&model.Manual{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"title":       m.Title,
			"chunk_count": m.ChunkCount,
		}).Error
	if err != nil {
		return fmt.Errorf("update manual failed: %w", err)
	}
	return nil
}

func (s *Store) GetManualByURL(ctx context.Context, url string) (*model.Manual, error) {
	var m model.Manual
	if err := s.db.WithContext(ctx).Where("url = ?", url).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manual by url failed: %w", err)
	}
	return &m, nil
}

func (s *Store) GetManualsByIDs(ctx context.Context, ids []uint) ([]model.Manual, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Manual
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("get manuals by ids failed: %w", err)
	}
	return list, nil
}

func (s *Store) ListManuals(ctx context.Context) ([]model.Manual, error) {
	var list []model.Manual
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list manuals failed: %w", err)
	}
	return list, nil
}

func (s *Store) DeleteManual(ctx context.Context, id uint) error {
	var m model.Manual
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return vectorstore.ErrManualNotFound
		}
		return fmt.Errorf("get manual failed: %w", err)
	}
	if err := s.DeleteChunksByManualID(ctx, id); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&model.Manual{}, id).Error; err != nil {
		return fmt.Errorf("delete manual failed: %w", err)
	}
	return nil
}

func (s *Store) InsertChunks(ctx context.Context, chunks []model.ManualChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		return fmt.Errorf("insert chunks failed: %w", err)
	}
	return nil
}

func (s *Store) DeleteChunksByManualID(ctx context.Context, manualID uint) error {
	if err := s.db.WithContext(ctx).Where("manual_id = ?", manualID).Delete(&model.ManualChunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by manual failed: %w", err)
	}
	return nil
}

// Search scores every stored chunk against the query vector and returns the
// top k. Ties order by ascending chunk ID so results are deterministic.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	var chunks []model.ManualChunk
	if err := s.db.WithContext(ctx).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("load chunks for search failed: %w", err)
	}

	results := make([]vectorstore.SearchResult, 0, len(chunks))
	for i := range chunks {
		results = append(results, vectorstore.SearchResult{
			ChunkID:  chunks[i].ID,
			ManualID: chunks[i].ManualID,
			Content:  chunks[i].Content,
			Score:    cosineSimilarity(query, chunks[i].EmbeddingVector()),
		})
	}
	sortResults(results)
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func sortResults(results []vectorstore.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
