package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lecternproj/lectern/model"
)

// DocumentRow is one catalog document record.
type DocumentRow struct {
	ID        string
	Title     string
	Path      string
	PageCount int
	AddedAt   time.Time
}

// ChunkRow is one catalog chunk record. StartMS and EndMS are nil for
// chunks that were never aligned to audio.
type ChunkRow struct {
	DocumentID string
	OrderIndex int
	PageIndex  int
	Text       string
	Boxes      []model.BBox
	StartMS    *int64
	EndMS      *int64
	Voice      string
	Speed      float64
}

// NewChunkRow converts a pipeline chunk into its catalog form.
func NewChunkRow(docID string, c *model.Chunk, voice string, speed float64) ChunkRow {
	row := ChunkRow{
		DocumentID: docID,
		OrderIndex: c.OrderIndex,
		PageIndex:  c.PageIndex,
		Text:       c.Text,
		Boxes:      c.BBoxes,
		Voice:      voice,
		Speed:      speed,
	}
	if c.Aligned {
		start, end := c.StartMS, c.EndMS
		row.StartMS = &start
		row.EndMS = &end
	}
	return row
}

// Chunk converts the row back into a pipeline chunk.
func (r ChunkRow) Chunk() *model.Chunk {
	c := &model.Chunk{
		OrderIndex: r.OrderIndex,
		PageIndex:  r.PageIndex,
		Text:       r.Text,
		BBoxes:     r.Boxes,
	}
	if r.StartMS != nil && r.EndMS != nil {
		c.StartMS = *r.StartMS
		c.EndMS = *r.EndMS
		c.Aligned = true
	}
	return c
}

// SaveDocument upserts a document's identity into the catalog.
func (s *Store) SaveDocument(ctx context.Context, doc *model.Document) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, title, path, page_count, added_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET title = EXCLUDED.title, path = EXCLUDED.path, page_count = EXCLUDED.page_count`,
		doc.ID, doc.Title, doc.Path, doc.PageCount, doc.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

// Document fetches one document by id, nil when absent.
func (s *Store) Document(ctx context.Context, id string) (*DocumentRow, error) {
	var row DocumentRow
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, path, page_count, added_at FROM documents WHERE id = $1`,
		id,
	).Scan(&row.ID, &row.Title, &row.Path, &row.PageCount, &row.AddedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch document %s: %w", id, err)
	}
	return &row, nil
}

// ListDocuments returns all catalog documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, path, page_count, added_at FROM documents ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRow
	for rows.Next() {
		var row DocumentRow
		if err := rows.Scan(&row.ID, &row.Title, &row.Path, &row.PageCount, &row.AddedAt); err != nil {
			return nil, err
		}
		docs = append(docs, row)
	}
	return docs, rows.Err()
}

// ReplaceChunks swaps a document's chunk rows for the given set in one
// transaction. A reader never sees a mix of old and new chunks.
func (s *Store) ReplaceChunks(ctx context.Context, docID string, chunks []*model.Chunk, voice string, speed float64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin chunk replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE document_id = $1`, docID); err != nil {
		return fmt.Errorf("clear chunks for %s: %w", docID, err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		row := NewChunkRow(docID, c, voice, speed)
		boxes, err := json.Marshal(row.Boxes)
		if err != nil {
			return fmt.Errorf("encode chunk %d boxes: %w", c.OrderIndex, err)
		}
		batch.Queue(
			`INSERT INTO chunks (document_id, order_index, page_index, text, boxes, start_ms, end_ms, voice, speed)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			row.DocumentID, row.OrderIndex, row.PageIndex, row.Text, boxes,
			row.StartMS, row.EndMS, row.Voice, row.Speed,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Chunks returns a document's chunk rows in order index order.
func (s *Store) Chunks(ctx context.Context, docID string) ([]ChunkRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT document_id, order_index, page_index, text, boxes, start_ms, end_ms, voice, speed
		 FROM chunks WHERE document_id = $1 ORDER BY order_index`,
		docID)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks for %s: %w", docID, err)
	}
	defer rows.Close()

	var out []ChunkRow
	for rows.Next() {
		var (
			row   ChunkRow
			boxes []byte
		)
		if err := rows.Scan(&row.DocumentID, &row.OrderIndex, &row.PageIndex, &row.Text,
			&boxes, &row.StartMS, &row.EndMS, &row.Voice, &row.Speed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(boxes, &row.Boxes); err != nil {
			return nil, fmt.Errorf("decode chunk %d boxes: %w", row.OrderIndex, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
