package events

import (
	"context"
	"time"

	"doclib/internal/model"
)

// Event types published for document lifecycle changes.
const (
	TypeUploaded = "uploaded"
	TypeDeleted  = "deleted"
)

// DocumentEvent describes one document lifecycle change.
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"documentId"`
	Name       string    `json:"name,omitempty"`
	Size       string    `json:"size,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Uploaded builds the event emitted after a successful upload.
func Uploaded(doc model.Document) DocumentEvent {
	return DocumentEvent{
		Type:       TypeUploaded,
		DocumentID: doc.ID,
		Name:       doc.Name,
		Size:       doc.Size,
		OccurredAt: time.Now().UTC(),
	}
}

// Deleted builds the event emitted after a successful delete.
func Deleted(id string) DocumentEvent {
	return DocumentEvent{Type: TypeDeleted, DocumentID: id, OccurredAt: time.Now().UTC()}
}

// Publisher delivers document events to interested parties.
type Publisher interface {
	Publish(ctx context.Context, ev DocumentEvent) error
	Close() error
}

// Noop discards every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, DocumentEvent) error { return nil }
func (Noop) Close() error                                 { return nil }
