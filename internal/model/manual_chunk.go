package model

import (
	"encoding/json"
	"time"
)

// ManualChunk is the unit of embedding and retrieval. ChunkIndex is the 0-based
// position in the manual's original text, kept for ordered reconstruction.
// Embedding is stored as a JSON array of float32 for portability across backends.
type ManualChunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ManualID   uint      `gorm:"not null;index" json:"manual_id"`
	ChunkIndex int       `gorm:"not null" json:"chunk_index"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:text" json:"-"` // JSON array of float32
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *ManualChunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *ManualChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
