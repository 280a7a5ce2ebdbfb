package repository

import (
	"context"

	"doclib/internal/model"
)

// DocumentRepository is the document metadata store: durable bookkeeping of
// uploaded documents, decoupled from the binary bytes.
type DocumentRepository interface {
	// LoadAll returns every record in insertion order. An absent store yields
	// an empty slice and no error.
	LoadAll(ctx context.Context) ([]model.Document, error)

	// SaveAll replaces the persisted list with docs.
	SaveAll(ctx context.Context, docs []model.Document) error

	// Append adds doc at the end of the list. The id must not already exist.
	Append(ctx context.Context, doc model.Document) error

	// Remove deletes the first record with the given id together with its
	// binary. The binary removal is best-effort. Reports whether a record was
	// found; when it was not, nothing is written.
	Remove(ctx context.Context, id string) (bool, error)

	// PingContext reports whether the store is reachable and writable.
	PingContext(ctx context.Context) error
}

// BlobRemover deletes stored binaries on behalf of Remove.
// storage.Storage satisfies it.
type BlobRemover interface {
	Delete(ctx context.Context, location string) error
}
