package model

import "time"

// SourceKind distinguishes how a manual's text was obtained.
type SourceKind string

const (
	SourceKindPDF SourceKind = "pdf"
	SourceKindWeb SourceKind = "web"
)

// Manual is one ingested document, keyed uniquely by source URL.
// Re-ingesting the same URL replaces its chunks instead of duplicating the row.
type Manual struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	URL        string     `gorm:"size:2048;not null;uniqueIndex:idx_manuals_url,length:512" json:"url"`
	Title      string     `gorm:"size:512;not null" json:"title"`
	Kind       SourceKind `gorm:"size:8;not null" json:"kind"`
	ChunkCount int        `gorm:"not null;default:0" json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
}
