package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"github.com/xxxsen/eventkb/internal/pkg/timeutil"
	"github.com/xxxsen/eventkb/internal/vectorindex"
)

// VectorRepo is the pgvector backed vectorindex.Index. Collections are
// rows in vector_collections and chunks reference them by name.
type VectorRepo struct {
	db *sql.DB
}

func NewVectorRepo(db *sql.DB) *VectorRepo {
	return &VectorRepo{db: db}
}

func (r *VectorRepo) Upsert(ctx context.Context, eventID string, chunks []model.Chunk) error {
	if err := r.upsert(ctx, eventID, chunks); err != nil {
		if errors.Is(err, appErr.ErrIndexWrite) {
			return err
		}
		return fmt.Errorf("%w: %w", appErr.ErrIndexWrite, err)
	}
	return nil
}

func (r *VectorRepo) upsert(ctx context.Context, eventID string, chunks []model.Chunk) error {
	dim, err := vectorindex.ChunkDimension(chunks)
	if err != nil || dim == 0 {
		return err
	}
	collection := vectorindex.CollectionName(eventID)
	now := timeutil.NowUnix()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	const createCollection = `
		INSERT INTO vector_collections (name, event_id, dim, ctime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, createCollection, collection, eventID, dim, now); err != nil {
		return err
	}
	var colDim int
	if err := tx.QueryRowContext(ctx, `SELECT dim FROM vector_collections WHERE name = $1 FOR UPDATE`, collection).Scan(&colDim); err != nil {
		return err
	}
	if colDim != dim {
		return fmt.Errorf("dimension %d does not match collection %s (%d)", dim, collection, colDim)
	}
	const upsertChunk = `
		INSERT INTO vector_chunks (collection, chunk_id, source_id, text, embedding, mtime)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (collection, chunk_id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			text = EXCLUDED.text,
			embedding = EXCLUDED.embedding,
			mtime = EXCLUDED.mtime
	`
	stmt, err := tx.PrepareContext(ctx, upsertChunk)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, collection, c.ChunkID, c.SourceID, c.Text, pgvector.NewVector(c.Embedding), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *VectorRepo) Query(ctx context.Context, eventID string, vector []float32, k int, sourceIDs []string) ([]model.ChunkMatch, error) {
	collection := vectorindex.CollectionName(eventID)
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM vector_collections WHERE name = $1`, collection).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, collection)
		}
		return nil, err
	}
	if k <= 0 {
		return []model.ChunkMatch{}, nil
	}
	query := `
		SELECT source_id, text, 1 - (embedding <=> $1) AS score
		FROM vector_chunks
		WHERE collection = $2
	`
	args := []interface{}{pgvector.NewVector(vector), collection}
	if len(sourceIDs) > 0 {
		query += ` AND source_id = ANY($3)`
		args = append(args, pq.Array(sourceIDs))
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1, chunk_id LIMIT $%d`, len(args)+1)
	args = append(args, k)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	matches := make([]model.ChunkMatch, 0, k)
	for rows.Next() {
		var m model.ChunkMatch
		var score float64
		if err := rows.Scan(&m.SourceID, &m.Text, &score); err != nil {
			return nil, err
		}
		m.Score = float32(score)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
