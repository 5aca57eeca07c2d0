// Package pgvector implements the vector store on PostgreSQL with the pgvector
// extension, delegating nearest-neighbor search to the database.
package pgvector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	pgv "github.com/pgvector/pgvector-go"

	"manualpilot/internal/model"
	"manualpilot/internal/vectorstore"
)

type Store struct {
	db        *sqlx.DB
	dimension int
}

func New(db *sqlx.DB, dimension int) *Store {
	return &Store{db: db, dimension: dimension}
}

// Init creates the pgvector extension and schema if missing. Chunks cascade on
// manual deletion at the database level.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS manuals (
			id BIGSERIAL PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			kind TEXT NOT NULL,
			chunk_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS manual_chunks (
			id BIGSERIAL PRIMARY KEY,
			manual_id BIGINT NOT NULL REFERENCES manuals(id) ON DELETE CASCADE,
			chunk_index INT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS idx_manual_chunks_manual_id ON manual_chunks (manual_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init pgvector schema failed: %w", err)
		}
	}
	return nil
}

func (s *Store) CreateManual(ctx context.Context, m *model.Manual) error {
	query := `INSERT INTO manuals (url, title, kind, chunk_count)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query, m.URL, m.Title, string(m.Kind), m.ChunkCount).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create manual failed: %w", err)
	}
	return nil
}

func (s *Store) UpdateManual(ctx context.Context, m *model.Manual) error {
	query := `UPDATE manuals SET title = $1, chunk_count = $2 WHERE id = $3`
	if _, err := s.db.ExecContext(ctx, query, m.Title, m.ChunkCount, m.ID); err != nil {
		return fmt.Errorf("update manual failed: %w", err)
	}
	return nil
}

func (s *Store) GetManualByURL(ctx context.Context, url string) (*model.Manual, error) {
	query := `SELECT id, url, title, kind, chunk_count, created_at FROM manuals WHERE url = $1`
	m, err := scanManual(s.db.QueryRowContext(ctx, query, url))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get manual by url failed: %w", err)
	}
	return m, nil
}

func (s *Store) GetManualsByIDs(ctx context.Context, ids []uint) ([]model.Manual, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, url, title, kind, chunk_count, created_at FROM manuals WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build manuals query failed: %w", err)
	}
	return s.queryManuals(ctx, s.db.Rebind(query), args...)
}

func (s *Store) ListManuals(ctx context.Context) ([]model.Manual, error) {
	query := `SELECT id, url, title, kind, chunk_count, created_at FROM manuals ORDER BY created_at DESC`
	return s.queryManuals(ctx, query)
}

func (s *Store) DeleteManual(ctx context.Context, id uint) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM manuals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete manual failed: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return vectorstore.ErrManualNotFound
	}
	return nil
}

func (s *Store) InsertChunks(ctx context.Context, chunks []model.ManualChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk insert failed: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO manual_chunks (manual_id, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4)`
	for i := range chunks {
		vec := pgv.NewVector(chunks[i].EmbeddingVector())
		if _, err := tx.ExecContext(ctx, query, chunks[i].ManualID, chunks[i].ChunkIndex, chunks[i].Content, vec); err != nil {
			return fmt.Errorf("insert chunk failed: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk insert failed: %w", err)
	}
	return nil
}

func (s *Store) DeleteChunksByManualID(ctx context.Context, manualID uint) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM manual_chunks WHERE manual_id = $1`, manualID); err != nil {
		return fmt.Errorf("delete chunks by manual failed: %w", err)
	}
	return nil
}

// Search ranks by cosine distance in the database; the primary key breaks ties
// deterministically.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	stmt := `SELECT id, manual_id, content, 1 - (embedding <=> $1) AS score
		FROM manual_chunks
		ORDER BY embedding <=> $1, id
		LIMIT $2`
	rows, err := s.db.QueryContext(ctx, stmt, pgv.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	var results []vectorstore.SearchResult
	for rows.Next() {
		var r vectorstore.SearchResult
		if err := rows.Scan(&r.ChunkID, &r.ManualID, &r.Content, &r.Score); err != nil {
			return nil, fmt.Errorf("scan search result failed: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read search results failed: %w", err)
	}
	return results, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanManual(row rowScanner) (*model.Manual, error) {
	var m model.Manual
	var kind string
	if err := row.Scan(&m.ID, &m.URL, &m.Title, &kind, &m.ChunkCount, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Kind = model.SourceKind(kind)
	return &m, nil
}

func (s *Store) queryManuals(ctx context.Context, query string, args ...interface{}) ([]model.Manual, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query manuals failed: %w", err)
	}
	defer rows.Close()

	var list []model.Manual
	for rows.Next() {
		m, err := scanManual(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manual failed: %w", err)
		}
		list = append(list, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read manuals failed: %w", err)
	}
	return list, nil
}
