package postgres

import (
	"context"
	"database/sql"
	"errors"

	"doclib/internal/apperr"
	"doclib/internal/model"
	"doclib/internal/repository"
)

// DocumentPostgres stores document records in the documents table. The seq
// column preserves insertion order, which LoadAll reproduces.
type DocumentPostgres struct {
	db    *sql.DB
	blobs repository.BlobRemover
}

// NewDocumentPostgres creates a new DocumentPostgres repository. blobs removes
// the binaries of deleted records; nil disables binary removal.
func NewDocumentPostgres(db *sql.DB, blobs repository.BlobRemover) *DocumentPostgres {
	return &DocumentPostgres{db: db, blobs: blobs}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const insertDocument = `
	INSERT INTO documents (id, name, size, uploaded_at, path)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''))
`

// LoadAll returns all rows ordered by insertion.
func (r *DocumentPostgres) LoadAll(ctx context.Context) ([]model.Document, error) {
	const q = `
		SELECT id, name, size, uploaded_at, COALESCE(path, '')
		FROM documents
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, apperr.NewPersistenceError("query documents", err)
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Size, &d.UploadedAt, &d.Path); err != nil {
			return nil, apperr.NewPersistenceError("scan document", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.NewPersistenceError("iterate documents", err)
	}
	return docs, nil
}

// SaveAll replaces the table content with docs in a single transaction.
func (r *DocumentPostgres) SaveAll(ctx context.Context, docs []model.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.NewPersistenceError("begin save", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return apperr.NewPersistenceError("clear documents", err)
	}
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, insertDocument, d.ID, d.Name, d.Size, d.UploadedAt, d.Path); err != nil {
			return apperr.NewPersistenceError("insert document", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.NewPersistenceError("commit save", err)
	}
	return nil
}

// Append inserts doc as the newest row. The unique id constraint rejects duplicates.
func (r *DocumentPostgres) Append(ctx context.Context, doc model.Document) error {
	if _, err := r.db.ExecContext(ctx, insertDocument, doc.ID, doc.Name, doc.Size, doc.UploadedAt, doc.Path); err != nil {
		return apperr.NewPersistenceError("append document", err)
	}
	return nil
}

// Remove deletes the row with id, then its binary (best-effort).
func (r *DocumentPostgres) Remove(ctx context.Context, id string) (bool, error) {
	const qFind = `SELECT id, COALESCE(path, '') FROM documents WHERE id = $1`
	var d model.Document
	err := r.db.QueryRowContext(ctx, qFind, id).Scan(&d.ID, &d.Path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, apperr.NewPersistenceError("find document", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return false, apperr.NewPersistenceError("delete document", err)
	}
	repository.RemoveBlob(ctx, r.blobs, d)
	return true, nil
}

// PingContext checks database connectivity.
func (r *DocumentPostgres) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
