package repository

import (
	"context"
	"errors"

	"doclib/internal/logging"
	"doclib/internal/model"
	"doclib/internal/storage"
)

// RemoveBlob deletes the binary behind doc. Missing files are expected; other
// failures are logged and swallowed so metadata deletion proceeds.
func RemoveBlob(ctx context.Context, blobs BlobRemover, doc model.Document) {
	if blobs == nil || !doc.HasBinary() {
		return
	}
	err := blobs.Delete(ctx, doc.Path)
	if err == nil || errors.Is(err, storage.ErrObjectNotFound) {
		return
	}
	l := logging.Component("metadata_store")
	l.Warn().
		Str("event", "blob_delete_failed").
		Str("document_id", doc.ID).
		Str("path", doc.Path).
		Err(err).
		Msg("could not remove document binary")
}
